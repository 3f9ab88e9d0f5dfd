package ncflag

import (
	"github.com/pkg/errors"
	"strings"
	"time"
)

var ErrInvalidTimeUnits = errors.New("invalid time units")

// TimeUnits decodes integer offsets of a time variable whose units attribute
// reads "<unit> since <reference>", e.g. "seconds since 2000-01-01 12:00:00".
type TimeUnits struct {
	Step      time.Duration
	Reference time.Time
}

var timeSteps = map[string]time.Duration{
	"microseconds": time.Microsecond,
	"microsecond":  time.Microsecond,
	"us":           time.Microsecond,
	"milliseconds": time.Millisecond,
	"millisecond":  time.Millisecond,
	"ms":           time.Millisecond,
	"seconds":      time.Second,
	"second":       time.Second,
	"secs":         time.Second,
	"sec":          time.Second,
	"s":            time.Second,
	"minutes":      time.Minute,
	"minute":       time.Minute,
	"mins":         time.Minute,
	"min":          time.Minute,
	"hours":        time.Hour,
	"hour":         time.Hour,
	"hrs":          time.Hour,
	"hr":           time.Hour,
	"h":            time.Hour,
	"days":         24 * time.Hour,
	"day":          24 * time.Hour,
	"d":            24 * time.Hour,
}

var referenceLayouts = []string{
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999 Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimeUnits parses a units attribute. References without a zone are UTC.
func ParseTimeUnits(units string) (TimeUnits, error) {
	parts := strings.SplitN(strings.TrimSpace(units), " since ", 2)
	if len(parts) != 2 {
		return TimeUnits{}, errors.Wrapf(ErrInvalidTimeUnits, "%q", units)
	}
	step, ok := timeSteps[strings.ToLower(strings.TrimSpace(parts[0]))]
	if !ok {
		return TimeUnits{}, errors.Wrapf(ErrInvalidTimeUnits, "unknown unit in %q", units)
	}
	ref := strings.TrimSpace(parts[1])
	ref = strings.TrimSuffix(strings.TrimSuffix(ref, " UTC"), "UTC")
	ref = strings.TrimSpace(ref)
	for _, layout := range referenceLayouts {
		if t, err := time.ParseInLocation(layout, ref, time.UTC); err == nil {
			return TimeUnits{Step: step, Reference: t}, nil
		}
	}
	return TimeUnits{}, errors.Wrapf(ErrInvalidTimeUnits, "unparsable reference time in %q", units)
}

// Time returns the instant v steps after the reference.
func (u TimeUnits) Time(v int64) time.Time {
	return u.Reference.Add(time.Duration(v) * u.Step).UTC()
}
