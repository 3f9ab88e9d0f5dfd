package ncflag

import (
	"github.com/pkg/errors"
	assertion "github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
	"os"
	"path/filepath"
	"testing"
)

const inclusiveDefinition = `
dtype: int64
meanings:
  - name: good
    value: 0
    mask: 1
  - name: degraded
    value: 1
    mask: 1
  - name: left
    value: 2
    mask: 6
  - name: right
    value: 4
    mask: 6
`

func TestParseSchemeDefinition(t *testing.T) {
	assert := assertion.New(t)
	s, err := ParseSchemeDefinition([]byte(inclusiveDefinition))
	require.NoError(t, err)
	assert.Equal(Int64, s.DType())
	assert.Equal([]string{"good", "degraded", "left", "right"}, s.Meanings())
	assert.Equal([]uint64{0, 1, 2, 4}, s.Values())
	assert.Equal([]uint64{1, 1, 6, 6}, s.Masks())

	s, err = ParseSchemeDefinition([]byte("dtype: uint8\nmeanings:\n  - {name: good, value: 0}\n  - {name: bad, value: 1}\n"))
	require.NoError(t, err)
	assert.False(s.HasExplicitMasks())
	assert.Equal([]uint64{255, 255}, s.Masks())
}

func TestParseSchemeDefinitionErrors(t *testing.T) {
	assert := assertion.New(t)
	for name, c := range map[string]struct {
		in  string
		err error
	}{
		"partial masks": {"dtype: uint8\nmeanings:\n  - {name: a, value: 0, mask: 1}\n  - {name: b, value: 1}\n", ErrInvalidSchemeMetadata},
		"duplicate":     {"dtype: uint8\nmeanings:\n  - {name: a, value: 0}\n  - {name: a, value: 1}\n", ErrInvalidSchemeMetadata},
		"unknown dtype": {"dtype: float32\nmeanings:\n  - {name: a, value: 0}\n", ErrUnknownDType},
		"missing dtype": {"meanings:\n  - {name: a, value: 0}\n", ErrUnknownDType},
	} {
		_, err := ParseSchemeDefinition([]byte(c.in))
		assert.True(errors.Is(err, c.err), name)
	}
	_, err := ParseSchemeDefinition([]byte("dtype: [uint8"))
	assert.Error(err)
}

func TestSchemeDefinitionRoundTrip(t *testing.T) {
	assert := assertion.New(t)
	s, err := NewScheme(Int8, []string{"ok", "fill"}, []int{0, -128}, []int{-128, -128})
	require.NoError(t, err)

	out, err := yaml.Marshal(s.Definition())
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "scheme.yaml")
	require.NoError(t, os.WriteFile(path, out, 0644))

	back, err := LoadSchemeDefinition(path)
	require.NoError(t, err)
	assert.Equal(s.Meanings(), back.Meanings())
	assert.Equal(s.Values(), back.Values())
	assert.Equal(s.Masks(), back.Masks())
	assert.True(back.HasExplicitMasks())

	_, err = LoadSchemeDefinition(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(err)
}
