package ncflag

import (
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
	"os"
)

// SchemeDefinition is the YAML form of a scheme:
//
//	dtype: uint8
//	meanings:
//	  - name: good
//	    value: 0
//	    mask: 1
//	  - name: degraded
//	    value: 1
//	    mask: 1
//
// Masks are either given for every meaning or for none.
type SchemeDefinition struct {
	DType    string              `yaml:"dtype"`
	Meanings []MeaningDefinition `yaml:"meanings"`
}

type MeaningDefinition struct {
	Name  string `yaml:"name"`
	Value int64  `yaml:"value"`
	Mask  *int64 `yaml:"mask,omitempty"`
}

// ParseSchemeDefinition decodes and validates a YAML scheme definition.
func ParseSchemeDefinition(data []byte) (*Scheme, error) {
	var def SchemeDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, errors.Wrap(err, "decode scheme definition")
	}
	return def.Scheme()
}

// LoadSchemeDefinition reads a YAML scheme definition from path.
func LoadSchemeDefinition(path string) (*Scheme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read scheme definition")
	}
	s, err := ParseSchemeDefinition(data)
	return s, errors.Wrap(err, path)
}

func (def SchemeDefinition) Scheme() (*Scheme, error) {
	dtype, err := ParseDType(def.DType)
	if err != nil {
		return nil, err
	}
	meanings := make([]string, len(def.Meanings))
	values := make([]int64, len(def.Meanings))
	var masks []int64
	withMask := 0
	for i, m := range def.Meanings {
		meanings[i] = m.Name
		values[i] = m.Value
		if m.Mask != nil {
			withMask++
		}
	}
	switch withMask {
	case 0:
	case len(def.Meanings):
		masks = make([]int64, len(def.Meanings))
		for i, m := range def.Meanings {
			masks[i] = *m.Mask
		}
	default:
		return nil, errors.Wrapf(ErrInvalidSchemeMetadata, "%d of %d meanings define a mask", withMask, len(def.Meanings))
	}
	return NewScheme(dtype, meanings, values, masks)
}

// Definition returns the YAML form of s.
func (s *Scheme) Definition() SchemeDefinition {
	def := SchemeDefinition{DType: s.dtype.String(), Meanings: make([]MeaningDefinition, len(s.meanings))}
	for i, m := range s.meanings {
		def.Meanings[i] = MeaningDefinition{Name: m, Value: s.dtype.Int(s.values[i])}
		if s.explicitMasks {
			mask := s.dtype.Int(s.masks[i])
			def.Meanings[i].Mask = &mask
		}
	}
	return def
}
