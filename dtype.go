package ncflag

import (
	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
	"strings"
)

// DType is the fixed-width integer type of a flag variable.
type DType uint8

const (
	Uint8 DType = iota + 1
	Uint16
	Uint32
	Uint64
	Int8
	Int16
	Int32
	Int64
)

var ErrUnknownDType = errors.New("unknown dtype")

var dtypeNames = map[DType]string{
	Uint8:  "uint8",
	Uint16: "uint16",
	Uint32: "uint32",
	Uint64: "uint64",
	Int8:   "int8",
	Int16:  "int16",
	Int32:  "int32",
	Int64:  "int64",
}

func (d DType) String() string {
	if s, ok := dtypeNames[d]; ok {
		return s
	}
	return "invalid"
}

// Valid reports whether d names a supported integer type.
func (d DType) Valid() bool {
	_, ok := dtypeNames[d]
	return ok
}

// Bits returns the width of d in bits.
func (d DType) Bits() int {
	switch d {
	case Uint8, Int8:
		return 8
	case Uint16, Int16:
		return 16
	case Uint32, Int32:
		return 32
	case Uint64, Int64:
		return 64
	}
	return 0
}

func (d DType) Signed() bool {
	return d >= Int8 && d <= Int64
}

// AllOnes returns the pattern with every bit of the type's width set. It is
// the default mask of a scheme without explicit masks.
func (d DType) AllOnes() uint64 {
	n := d.Bits()
	if n >= 64 {
		return ^uint64(0)
	}
	return uint64(1)<<uint(n) - 1
}

// Coerce truncates v to the width of d in two's complement, so -1 becomes
// AllOnes.
func (d DType) Coerce(v int64) uint64 {
	return uint64(v) & d.AllOnes()
}

// Int interprets the bit pattern b as a value of type d, sign extending
// signed types.
func (d DType) Int(b uint64) int64 {
	b &= d.AllOnes()
	if !d.Signed() {
		return int64(b)
	}
	shift := uint(64 - d.Bits())
	return int64(b<<shift) >> shift
}

// ParseDType accepts the names returned by DType.String, case-insensitively.
func ParseDType(s string) (DType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d, name := range dtypeNames {
		if name == s {
			return d, nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownDType, "%q", s)
}

func coerceAll[T constraints.Integer](d DType, in []T) []uint64 {
	if in == nil {
		return nil
	}
	out := make([]uint64, len(in))
	for i, v := range in {
		out[i] = d.Coerce(int64(v))
	}
	return out
}
