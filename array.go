package ncflag

import (
	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
	"math"
)

var (
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrShapeMismatch   = errors.New("shape mismatch")
	ErrAxisOutOfRange  = errors.New("axis out of range")
)

// Array is a flag variable: integer elements in row-major order, an optional
// presence bitmap and the Scheme that gives the bits their meaning.
//
// An Array is not safe for concurrent mutation.
type Array struct {
	scheme *Scheme
	shape  []int
	data   []uint64
	// nil when every element is present
	present []bool
}

// NewArray binds data of the given shape to scheme. Elements are truncated to
// the scheme's dtype. present may be nil when nothing is missing; otherwise it
// must have one entry per element.
func NewArray(scheme *Scheme, shape []int, data []uint64, present []bool) (*Array, error) {
	n, err := shapeSize(shape)
	if err != nil {
		return nil, err
	}
	if len(data) != n {
		return nil, errors.Wrapf(ErrShapeMismatch, "shape %v holds %d elements, got %d", shape, n, len(data))
	}
	if present != nil && len(present) != n {
		return nil, errors.Wrapf(ErrShapeMismatch, "shape %v holds %d elements, got %d presence flags", shape, n, len(present))
	}

	a := &Array{
		scheme: scheme,
		shape:  append([]int{}, shape...),
		data:   make([]uint64, n),
	}
	ones := scheme.dtype.AllOnes()
	for i, v := range data {
		a.data[i] = v & ones
	}
	if present != nil {
		a.present = append([]bool(nil), present...)
		a.compact()
	}
	return a, nil
}

// FromSlice wraps a one dimensional slice with every element present.
func FromSlice[T constraints.Integer](scheme *Scheme, data []T) *Array {
	return &Array{
		scheme: scheme,
		shape:  []int{len(data)},
		data:   coerceAll(scheme.dtype, data),
	}
}

// Full allocates a new flag field of the given shape with every element set
// to fill.
func Full(scheme *Scheme, shape []int, fill int64) (*Array, error) {
	n, err := shapeSize(shape)
	if err != nil {
		return nil, err
	}
	a := &Array{scheme: scheme, shape: append([]int{}, shape...), data: make([]uint64, n)}
	v := scheme.dtype.Coerce(fill)
	for i := range a.data {
		a.data[i] = v
	}
	return a, nil
}

// FullMissing allocates a flag field of the given shape that has never been
// written: every element is missing.
func FullMissing(scheme *Scheme, shape []int) (*Array, error) {
	n, err := shapeSize(shape)
	if err != nil {
		return nil, err
	}
	a := &Array{
		scheme:  scheme,
		shape:   append([]int{}, shape...),
		data:    make([]uint64, n),
		present: make([]bool, n),
	}
	a.compact()
	return a, nil
}

func shapeSize(shape []int) (int, error) {
	n := 1
	for _, d := range shape {
		if d < 0 {
			return 0, errors.Wrapf(ErrShapeMismatch, "negative dimension in %v", shape)
		}
		if d != 0 && n > math.MaxInt/d {
			return 0, errors.Wrapf(ErrShapeMismatch, "shape %v overflows", shape)
		}
		n *= d
	}
	return n, nil
}

func (a *Array) Scheme() *Scheme { return a.scheme }
func (a *Array) DType() DType     { return a.scheme.dtype }
func (a *Array) Shape() []int     { return append([]int{}, a.shape...) }
func (a *Array) Len() int         { return len(a.data) }

// HasMissing reports whether any element is missing.
func (a *Array) HasMissing() bool { return a.present != nil }

// Data returns a copy of the raw elements. Missing elements hold whatever
// bits were last stored; consult PresentMask.
func (a *Array) Data() []uint64 { return append([]uint64(nil), a.data...) }

// PresentMask returns a copy of the presence bitmap, or nil when every
// element is present.
func (a *Array) PresentMask() []bool {
	if a.present == nil {
		return nil
	}
	return append([]bool(nil), a.present...)
}

// Raw returns the bit pattern at flat index i and whether it is present.
func (a *Array) Raw(i int) (uint64, bool, error) {
	j, err := a.flatIndex(i)
	if err != nil {
		return 0, false, err
	}
	return a.data[j], a.isPresent(j), nil
}

// Int returns the element at flat index i as a signed integer of the array's
// dtype.
func (a *Array) Int(i int) (int64, bool, error) {
	v, ok, err := a.Raw(i)
	return a.scheme.dtype.Int(v), ok, err
}

// Present reports whether the element at flat index i holds a value.
func (a *Array) Present(i int) (bool, error) {
	j, err := a.flatIndex(i)
	if err != nil {
		return false, err
	}
	return a.isPresent(j), nil
}

// Clone returns a deep copy bound to the same scheme.
func (a *Array) Clone() *Array {
	return &Array{
		scheme:  a.scheme,
		shape:   a.Shape(),
		data:    a.Data(),
		present: a.PresentMask(),
	}
}

func (a *Array) isPresent(j int) bool {
	return a.present == nil || a.present[j]
}

// flatIndex resolves i, counting from the end when negative.
func (a *Array) flatIndex(i int) (int, error) {
	j := i
	if j < 0 {
		j += len(a.data)
	}
	if j < 0 || j >= len(a.data) {
		return 0, errors.Wrapf(ErrIndexOutOfRange, "index %d with %d elements", i, len(a.data))
	}
	return j, nil
}

// compact drops the presence bitmap once nothing is missing.
func (a *Array) compact() {
	if a.present != nil && allTrue(a.present) {
		a.present = nil
	}
}
