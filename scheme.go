package ncflag

import (
	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

var (
	ErrInvalidSchemeMetadata = errors.New("invalid flag scheme metadata")
	ErrMeaningNotFound       = errors.New("flag meaning not found")
	ErrNoMeaningFound        = errors.New("none of the flag meanings found")
)

// Scheme describes how the bits of a flag variable map to named meanings.
//
// Meaning i is set in an element when element & masks[i] == values[i]. A
// Scheme is immutable once built and may be shared by any number of arrays
// of the same dtype.
type Scheme struct {
	dtype    DType
	meanings []string
	values   []uint64
	masks    []uint64
	index    map[string]int

	explicitMasks bool
}

// NewScheme validates flag metadata for elements of type dtype. Values and
// masks are coerced to the width of dtype. A nil masks slice means no bit is
// excluded from the test: every mask is dtype.AllOnes().
func NewScheme[T constraints.Integer](dtype DType, meanings []string, values []T, masks []T) (*Scheme, error) {
	if !dtype.Valid() {
		return nil, errors.Wrapf(ErrUnknownDType, "dtype %d", dtype)
	}
	if len(values) != len(meanings) {
		return nil, errors.Wrapf(ErrInvalidSchemeMetadata,
			"flag_meanings vs flag_values length mismatch: %d != %d", len(meanings), len(values))
	}
	if masks != nil && len(masks) != len(meanings) {
		return nil, errors.Wrapf(ErrInvalidSchemeMetadata,
			"flag_meanings vs flag_masks length mismatch: %d != %d", len(meanings), len(masks))
	}

	s := &Scheme{
		dtype:         dtype,
		meanings:      append([]string(nil), meanings...),
		values:        coerceAll(dtype, values),
		index:         make(map[string]int, len(meanings)),
		explicitMasks: masks != nil,
	}
	if s.values == nil {
		s.values = []uint64{}
	}
	if masks != nil {
		s.masks = coerceAll(dtype, masks)
	} else {
		s.masks = make([]uint64, len(meanings))
		for i := range s.masks {
			s.masks[i] = dtype.AllOnes()
		}
	}
	for i, m := range s.meanings {
		if _, dup := s.index[m]; dup {
			return nil, errors.Wrapf(ErrInvalidSchemeMetadata, "duplicate flag meaning %q", m)
		}
		s.index[m] = i
	}
	return s, nil
}

func (s *Scheme) DType() DType { return s.dtype }

// Len returns the number of meanings.
func (s *Scheme) Len() int { return len(s.meanings) }

func (s *Scheme) Meanings() []string { return append([]string(nil), s.meanings...) }
func (s *Scheme) Values() []uint64   { return append([]uint64(nil), s.values...) }
func (s *Scheme) Masks() []uint64    { return append([]uint64(nil), s.masks...) }

// HasExplicitMasks reports whether masks were supplied at construction.
func (s *Scheme) HasExplicitMasks() bool { return s.explicitMasks }

// DefaultMasks reports whether every mask is the all-ones pattern.
func (s *Scheme) DefaultMasks() bool {
	ones := s.dtype.AllOnes()
	for _, m := range s.masks {
		if m != ones {
			return false
		}
	}
	return true
}

// IndexOf returns the position of meaning in the scheme.
func (s *Scheme) IndexOf(meaning string) (int, error) {
	i, ok := s.index[meaning]
	if !ok {
		return -1, errors.Wrapf(ErrMeaningNotFound, "%q", meaning)
	}
	return i, nil
}

func (s *Scheme) IsValidMeaning(meaning string) bool {
	_, ok := s.index[meaning]
	return ok
}

// ValueFor returns the value that signals meaning once masked.
func (s *Scheme) ValueFor(meaning string) (uint64, error) {
	i, err := s.IndexOf(meaning)
	if err != nil {
		return 0, err
	}
	return s.values[i], nil
}

// MaskFor returns the mask isolating the bits of meaning.
//
// (elem & mask) == 0 does not imply meaning is unset; compare against
// ValueFor. Only where mask == value can masks be ORed to test several
// meanings at once.
func (s *Scheme) MaskFor(meaning string) (uint64, error) {
	i, err := s.IndexOf(meaning)
	if err != nil {
		return 0, err
	}
	return s.masks[i], nil
}
