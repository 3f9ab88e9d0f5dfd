package ncflag

import (
	"github.com/pkg/errors"
	"strings"
)

// Test reports whether meaning is set in elem. A missing element never has
// any meaning set.
func (s *Scheme) Test(elem uint64, present bool, meaning string) (bool, error) {
	i, err := s.IndexOf(meaning)
	if err != nil {
		return false, err
	}
	return s.test(elem, present, i), nil
}

func (s *Scheme) test(elem uint64, present bool, i int) bool {
	if !present {
		return false
	}
	return matches(elem, s.masks[i], s.values[i])
}

// MeaningsSet lists, in scheme order, the meanings set in elem.
func (s *Scheme) MeaningsSet(elem uint64, present bool) []string {
	set := []string{}
	if !present {
		return set
	}
	for i, m := range s.meanings {
		if s.test(elem, present, i) {
			set = append(set, m)
		}
	}
	return set
}

// MeaningsSetExitOnGood is MeaningsSet with a shortcut for datasets that name
// their all-clear meaning "*good*": a present zero element reports only the
// first such meaning that tests true.
func (s *Scheme) MeaningsSetExitOnGood(elem uint64, present bool) []string {
	if present && elem == 0 {
		for i, m := range s.meanings {
			if strings.Contains(m, "good") && s.test(elem, present, i) {
				return []string{m}
			}
		}
	}
	return s.MeaningsSet(elem, present)
}

// Apply returns elem with meaning set: the mask bits are cleared and the
// value ORed in, leaving bits outside the mask untouched.
func (s *Scheme) Apply(elem uint64, meaning string) (uint64, error) {
	i, err := s.IndexOf(meaning)
	if err != nil {
		return elem, err
	}
	return replace(elem, s.masks[i], s.values[i]), nil
}

// Test returns, per element, whether meaning is set.
func (a *Array) Test(meaning string) ([]bool, error) {
	return a.TestAny([]string{meaning}, false)
}

// TestAny returns, per element, whether any of meanings is set. Unknown
// meanings fail with ErrMeaningNotFound unless ignoreMissing is true, in
// which case they are never set.
func (a *Array) TestAny(meanings []string, ignoreMissing bool) ([]bool, error) {
	idx := make([]int, 0, len(meanings))
	for _, m := range meanings {
		i, err := a.scheme.IndexOf(m)
		if err != nil {
			if ignoreMissing {
				continue
			}
			return nil, err
		}
		idx = append(idx, i)
	}

	out := make([]bool, len(a.data))
	for j, elem := range a.data {
		present := a.isPresent(j)
		for _, i := range idx {
			if a.scheme.test(elem, present, i) {
				out[j] = true
				break
			}
		}
	}
	return out, nil
}

// TestAt reports whether meaning is set at flat index i.
func (a *Array) TestAt(meaning string, i int) (bool, error) {
	j, err := a.flatIndex(i)
	if err != nil {
		return false, err
	}
	return a.scheme.Test(a.data[j], a.isPresent(j), meaning)
}

// MeaningsSetAt lists the meanings set at flat index i.
func (a *Array) MeaningsSetAt(i int) ([]string, error) {
	j, err := a.flatIndex(i)
	if err != nil {
		return nil, err
	}
	return a.scheme.MeaningsSet(a.data[j], a.isPresent(j)), nil
}

// MeaningsSetAtExitOnGood is MeaningsSetAt using Scheme.MeaningsSetExitOnGood.
func (a *Array) MeaningsSetAtExitOnGood(i int) ([]string, error) {
	j, err := a.flatIndex(i)
	if err != nil {
		return nil, err
	}
	return a.scheme.MeaningsSetExitOnGood(a.data[j], a.isPresent(j)), nil
}

// FindFirst treats options as synonyms and tests the first one the scheme
// knows. It lets callers work across dataset revisions that renamed or fixed
// the spelling of a meaning.
func (a *Array) FindFirst(options ...string) ([]bool, error) {
	for _, m := range options {
		if a.scheme.IsValidMeaning(m) {
			return a.Test(m)
		}
	}
	return nil, errors.Wrapf(ErrNoMeaningFound, "%v", options)
}

// SetWhere sets meaning wherever shouldSet is true.
//
// Missing elements that are being set, or every missing element when
// zeroIfUnset is true, are zeroed and become present first. The mask bits are
// then cleared at the set positions, or at every position when zeroIfUnset is
// true, and the value ORed in at the set positions. With zeroIfUnset false an
// all-false shouldSet leaves the array untouched.
func (a *Array) SetWhere(meaning string, shouldSet []bool, zeroIfUnset bool) error {
	i, err := a.scheme.IndexOf(meaning)
	if err != nil {
		return err
	}
	if len(shouldSet) != len(a.data) {
		return errors.Wrapf(ErrShapeMismatch, "set %q: %d flags for %d elements", meaning, len(shouldSet), len(a.data))
	}

	mask, value := a.scheme.masks[i], a.scheme.values[i]
	touched := false
	for j, on := range shouldSet {
		if !on && !zeroIfUnset {
			continue
		}
		touched = true
		if !a.isPresent(j) {
			a.data[j] = 0
			a.present[j] = true
		}
		a.data[j] = unset(a.data[j], mask)
		if on {
			a.data[j] = set(a.data[j], value)
		}
	}
	if touched {
		a.compact()
	}
	return nil
}

// SetAt sets meaning at flat index i, clearing whatever the mask bits held
// before. A missing element is zeroed and becomes present.
func (a *Array) SetAt(meaning string, i int) error {
	j, err := a.flatIndex(i)
	if err != nil {
		return err
	}
	k, err := a.scheme.IndexOf(meaning)
	if err != nil {
		return err
	}
	if !a.isPresent(j) {
		a.data[j] = 0
		a.present[j] = true
	}
	a.data[j] = replace(a.data[j], a.scheme.masks[k], a.scheme.values[k])
	a.compact()
	return nil
}
