package ncflag

import (
	"github.com/boltdb/bolt"
	"github.com/pkg/errors"
	"strings"
)

// Attribute names of the CF flag convention.
const (
	AttrFlagMeanings = "flag_meanings"
	AttrFlagValues   = "flag_values"
	AttrFlagMasks    = "flag_masks"
	AttrUnits        = "units"
)

var ErrNotFlagVariable = errors.New("not a flag variable")

// InitOptions switches ReadFlag from reading the variable's data to
// allocating a fresh flag field.
type InitOptions struct {
	// Shape of the new field; the variable's shape when nil.
	Shape []int
	Fill  int64
}

// IsFlagVariable reports whether v carries flag_meanings and flag_values.
func IsFlagVariable(v *Variable) (bool, error) {
	for _, name := range []string{AttrFlagMeanings, AttrFlagValues} {
		ok, err := v.HasAttr(name)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// SchemeFromVariable builds the scheme described by v's flag attributes.
// flag_meanings is a whitespace separated list; flag_masks is optional.
func SchemeFromVariable(v *Variable) (*Scheme, error) {
	var missing []string
	attrs := map[string]Attr{}
	for _, name := range []string{AttrFlagMeanings, AttrFlagValues, AttrFlagMasks} {
		a, err := v.Attr(name)
		switch {
		case errors.Is(err, ErrAttrNotFound):
			if name != AttrFlagMasks {
				missing = append(missing, name)
			}
		case err != nil:
			return nil, err
		default:
			attrs[name] = a
		}
	}
	if len(missing) > 0 {
		return nil, errors.Wrapf(ErrNotFlagVariable, "%q: missing attributes %s", v.Name(), strings.Join(missing, ", "))
	}

	meanings, values := attrs[AttrFlagMeanings], attrs[AttrFlagValues]
	if !meanings.IsText() {
		return nil, errors.Wrapf(ErrInvalidSchemeMetadata, "%q: %s is not text", v.Name(), AttrFlagMeanings)
	}
	if !values.IsInts() {
		return nil, errors.Wrapf(ErrInvalidSchemeMetadata, "%q: %s is not a list of integers", v.Name(), AttrFlagValues)
	}
	var masks []int64
	if m, ok := attrs[AttrFlagMasks]; ok {
		if !m.IsInts() {
			return nil, errors.Wrapf(ErrInvalidSchemeMetadata, "%q: %s is not a list of integers", v.Name(), AttrFlagMasks)
		}
		masks = m.Ints
		if masks == nil {
			masks = []int64{}
		}
	}
	s, err := NewScheme(v.DType(), strings.Fields(meanings.Text), values.Ints, masks)
	return s, errors.Wrapf(err, "variable %q", v.Name())
}

// ReadFlag loads the flag variable v. With init set, the data is not read:
// a new field filled with init.Fill is allocated instead, still bound to v's
// scheme.
func ReadFlag(v *Variable, init *InitOptions) (*Array, error) {
	scheme, err := SchemeFromVariable(v)
	if err != nil {
		return nil, err
	}
	if init != nil {
		shape := init.Shape
		if shape == nil {
			shape = v.Shape()
		}
		return Full(scheme, shape, init.Fill)
	}
	data, present, err := v.Read()
	if err != nil {
		return nil, err
	}
	return NewArray(scheme, v.Shape(), data, present)
}

// WriteFlag stores a's data and scheme into v in a single transaction.
// flag_masks is written only when some mask differs from the all-ones default
// or when v already had the attribute.
func WriteFlag(a *Array, v *Variable) error {
	if a.DType() != v.DType() {
		return errors.Wrapf(ErrShapeMismatch, "write %q: array is %s, variable is %s", v.Name(), a.DType(), v.DType())
	}
	if !equalShape(a.shape, v.Shape()) {
		return errors.Wrapf(ErrShapeMismatch, "write %q: array shape %v, variable shape %v", v.Name(), a.shape, v.Shape())
	}
	buf, err := v.encode(a.data, a.present)
	if err != nil {
		return err
	}
	return v.commit(buf, schemeAttrs(a.scheme, false))
}

// WriteSchemeAttrs writes the scheme's metadata to v. Masks are written when
// forceMasks is set, when they are not all default, or when v already has a
// flag_masks attribute.
func WriteSchemeAttrs(v *Variable, s *Scheme, forceMasks bool) error {
	return v.commit(nil, schemeAttrs(s, forceMasks))
}

func schemeAttrs(s *Scheme, forceMasks bool) func(ab *bolt.Bucket) error {
	return func(ab *bolt.Bucket) error {
		hadMasks := ab.Get([]byte(AttrFlagMasks)) != nil
		if err := putAttr(ab, AttrFlagMeanings, TextAttr(strings.Join(s.meanings, " "))); err != nil {
			return err
		}
		if err := putAttr(ab, AttrFlagValues, IntsAttr(toInts(s.dtype, s.values)...)); err != nil {
			return err
		}
		if forceMasks || hadMasks || !s.DefaultMasks() {
			return putAttr(ab, AttrFlagMasks, IntsAttr(toInts(s.dtype, s.masks)...))
		}
		return nil
	}
}

func toInts(d DType, in []uint64) []int64 {
	out := make([]int64, len(in))
	for i, b := range in {
		out[i] = d.Int(b)
	}
	return out
}

func equalShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
