package ncflag

import (
	"github.com/pkg/errors"
	assertion "github.com/stretchr/testify/assert"
	"testing"
	"time"
)

func TestParseTimeUnits(t *testing.T) {
	assert := assertion.New(t)
	u, err := ParseTimeUnits("seconds since 2000-01-01 12:00:00")
	assert.NoError(err)
	assert.Equal(time.Second, u.Step)
	assert.Equal(time.Date(2000, 1, 2, 12, 0, 0, 0, time.UTC), u.Time(86400))
	assert.Equal(time.Date(2000, 1, 1, 11, 59, 0, 0, time.UTC), u.Time(-60))

	for units, want := range map[string]time.Time{
		"days since 1970-01-01":                   time.Date(1970, 1, 3, 0, 0, 0, 0, time.UTC),
		"Hours since 2017-03-01T00:00:00Z":        time.Date(2017, 3, 1, 2, 0, 0, 0, time.UTC),
		"minutes since 2017-03-01 00:00:00 UTC":   time.Date(2017, 3, 1, 0, 2, 0, 0, time.UTC),
		"ms since 2017-03-01 00:00:00.5":          time.Date(2017, 3, 1, 0, 0, 0, 502*int(time.Millisecond), time.UTC),
		"seconds since 2017-03-01 01:00:00+01:00": time.Date(2017, 3, 1, 0, 0, 2, 0, time.UTC),
	} {
		u, err := ParseTimeUnits(units)
		if assert.NoError(err, units) {
			assert.Equal(want, u.Time(2), units)
		}
	}
}

func TestParseTimeUnitsErrors(t *testing.T) {
	assert := assertion.New(t)
	for _, units := range []string{
		"",
		"seconds",
		"fortnights since 2000-01-01",
		"seconds since yesterday",
	} {
		_, err := ParseTimeUnits(units)
		assert.True(errors.Is(err, ErrInvalidTimeUnits), units)
	}
}
