package ncflag

import (
	"github.com/pkg/errors"
	assertion "github.com/stretchr/testify/assert"
	"math"
	"testing"
)

func TestDTypeWidth(t *testing.T) {
	assert := assertion.New(t)
	assert.Equal(uint64(0xff), Uint8.AllOnes())
	assert.Equal(uint64(0xff), Int8.AllOnes())
	assert.Equal(uint64(0xffff), Int16.AllOnes())
	assert.Equal(uint64(0xffffffff), Uint32.AllOnes())
	assert.Equal(uint64(math.MaxUint64), Uint64.AllOnes())
	assert.Equal(uint64(math.MaxUint64), Int64.AllOnes())
	assert.Equal(uint64(0), DType(0).AllOnes())

	assert.True(Int32.Signed())
	assert.False(Uint32.Signed())
	assert.Equal(16, Uint16.Bits())
}

func TestDTypeCoerce(t *testing.T) {
	assert := assertion.New(t)
	assert.Equal(uint64(255), Uint8.Coerce(-1))
	assert.Equal(uint64(255), Int8.Coerce(-1))
	assert.Equal(uint64(1), Uint8.Coerce(257))
	assert.Equal(uint64(math.MaxUint64), Int64.Coerce(-1))

	assert.Equal(int64(-1), Int8.Int(255))
	assert.Equal(int64(255), Uint8.Int(255))
	assert.Equal(int64(math.MinInt32), Int32.Int(0x80000000))
	assert.Equal(int64(0x7f), Int8.Int(0x17f))
}

func TestParseDType(t *testing.T) {
	assert := assertion.New(t)
	for _, d := range []DType{Uint8, Uint16, Uint32, Uint64, Int8, Int16, Int32, Int64} {
		parsed, err := ParseDType(d.String())
		assert.NoError(err)
		assert.Equal(d, parsed)
	}
	d, err := ParseDType(" UInt16 ")
	assert.NoError(err)
	assert.Equal(Uint16, d)

	_, err = ParseDType("float32")
	assert.True(errors.Is(err, ErrUnknownDType))
	assert.Equal("invalid", DType(42).String())
}
