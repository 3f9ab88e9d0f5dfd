package ncflag

import (
	"bytes"
	"github.com/pkg/errors"
	assertion "github.com/stretchr/testify/assert"
	"math"
	"testing"
)

func TestDataRecord(t *testing.T) {
	assert := assertion.New(t)
	data := make([]uint64, 300)
	for i := range data {
		data[i] = uint64(i % 7)
	}
	present := make([]bool, len(data))
	for i := range present {
		present[i] = i%3 != 0
	}

	for _, comp := range []CompressAlgorithm{CompSnappy, CompLz4, CompNone} {
		compressor, decompressor, err := codecs(comp)
		assert.NoError(err)
		for _, dtype := range []DType{Uint8, Int16, Uint32, Int64} {
			buf, err := marshalData(dtype, data, present, compressor)
			assert.NoError(err)
			gotData, gotPresent, err := unmarshalData(buf, dtype, len(data), decompressor)
			assert.NoError(err, "%s %s", comp, dtype)
			assert.Equal(data, gotData)
			assert.Equal(present, gotPresent)

			buf, err = marshalData(dtype, data, nil, compressor)
			assert.NoError(err)
			gotData, gotPresent, err = unmarshalData(buf, dtype, len(data), decompressor)
			assert.NoError(err)
			assert.Equal(data, gotData)
			assert.Nil(gotPresent)
		}
	}
}

func TestDataRecordWidth(t *testing.T) {
	assert := assertion.New(t)
	buf, err := marshalData(Int16, []uint64{0xfffe, 1}, nil, nil)
	assert.NoError(err)
	// flag byte, length, two little endian int16
	assert.Equal([]byte{0, 4, 0xfe, 0xff, 1, 0}, buf)

	data, _, err := unmarshalData(buf, Int16, 2, nil)
	assert.NoError(err)
	assert.Equal(int64(-2), Int16.Int(data[0]))
}

func TestDataRecordCompressOnlyWhenSmaller(t *testing.T) {
	assert := assertion.New(t)
	buf, err := marshalData(Uint8, []uint64{1, 2, 3}, nil, SnappyCompress)
	assert.NoError(err)
	assert.Equal(byte(0), buf[0], "three bytes do not shrink")

	buf, err = marshalData(Uint8, make([]uint64, 4096), nil, SnappyCompress)
	assert.NoError(err)
	assert.Equal(byte(recDataCompressed), buf[0])
	assert.True(len(buf) < 4096)

	_, _, err = unmarshalData(buf, Uint8, 4096, nil)
	assert.Error(err)
}

func TestDataRecordCorrupt(t *testing.T) {
	assert := assertion.New(t)
	buf, err := marshalData(Uint16, []uint64{1, 2, 3}, []bool{true, false, true}, nil)
	assert.NoError(err)

	for name, in := range map[string][]byte{
		"empty":     nil,
		"truncated": buf[:len(buf)-1],
		"header":    buf[:1],
	} {
		_, _, err := unmarshalData(in, Uint16, 3, nil)
		assert.True(errors.Is(err, ErrCorrupt), name)
	}

	_, _, err = unmarshalData(buf, Uint16, 4, nil)
	assert.True(errors.Is(err, ErrCorrupt), "element count mismatch")
	_, _, err = unmarshalData(buf, Uint8, 3, nil)
	assert.True(errors.Is(err, ErrCorrupt), "width mismatch")
}

func TestMetaRecord(t *testing.T) {
	assert := assertion.New(t)
	dims := []Dimension{{"time", 4}, {"band", 16}}
	dtype, got, err := unmarshalMeta(marshalMeta(Int32, dims))
	assert.NoError(err)
	assert.Equal(Int32, dtype)
	assert.Equal(dims, got)

	dtype, got, err = unmarshalMeta(marshalMeta(Uint8, nil))
	assert.NoError(err)
	assert.Equal(Uint8, dtype)
	assert.Empty(got)

	_, _, err = unmarshalMeta([]byte{42, 0})
	assert.True(errors.Is(err, ErrCorrupt))
	_, _, err = unmarshalMeta([]byte{byte(Uint8), 2, 4, 't'})
	assert.True(errors.Is(err, ErrCorrupt))

	// sizes that do not fit an int, alone or multiplied out
	huge := marshalMeta(Uint8, []Dimension{{"x", 1}})
	huge = append(huge[:len(huge)-1], 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01)
	_, _, err = unmarshalMeta(huge)
	assert.True(errors.Is(err, ErrCorrupt), "size above MaxInt")
	_, _, err = unmarshalMeta(marshalMeta(Uint8, []Dimension{{"x", math.MaxInt}, {"y", 3}}))
	assert.True(errors.Is(err, ErrCorrupt), "product overflows")
}

func TestAttrRecord(t *testing.T) {
	assert := assertion.New(t)
	for _, a := range []Attr{
		TextAttr("good medium bad"),
		TextAttr(""),
		IntsAttr(0, 1, -1, 1<<40, -1<<62),
		IntsAttr(),
	} {
		buf, err := marshalAttr(a)
		assert.NoError(err)
		got, err := unmarshalAttr(buf)
		assert.NoError(err)
		assert.Equal(a.Kind, got.Kind)
		assert.Equal(a.Text, got.Text)
		assert.Equal(len(a.Ints), len(got.Ints))
		if len(a.Ints) > 0 {
			assert.Equal(a.Ints, got.Ints)
		}
	}

	_, err := marshalAttr(Attr{})
	assert.Error(err)
	_, err = unmarshalAttr([]byte{99})
	assert.True(errors.Is(err, ErrCorrupt))
	_, err = unmarshalAttr([]byte{byte(AttrInts), 3, 2})
	assert.True(errors.Is(err, ErrCorrupt))
}

func TestCompression(t *testing.T) {
	assert := assertion.New(t)
	in := bytes.Repeat([]byte("flag_meanings "), 64)
	for _, comp := range []CompressAlgorithm{CompSnappy, CompLz4} {
		c, d, err := codecs(comp)
		assert.NoError(err)
		out, err := c(in)
		assert.NoError(err)
		back, err := d(out)
		assert.NoError(err)
		assert.Equal(in, back, comp.String())

		parsed, err := ParseCompression(comp.String())
		assert.NoError(err)
		assert.Equal(comp, parsed)
	}
	c, d, err := codecs(CompNone)
	assert.NoError(err)
	assert.Nil(c)
	assert.Nil(d)

	_, _, err = codecs(CompressAlgorithm(9))
	assert.Error(err)
	_, err = ParseCompression("zstd")
	assert.Error(err)
}
