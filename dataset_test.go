package ncflag

import (
	"github.com/boltdb/bolt"
	"github.com/pkg/errors"
	assertion "github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testDatasetPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "test-ncflag.ncf")
}

func TestOpen(t *testing.T) {
	assert := assertion.New(t)
	path := testDatasetPath(t)

	// open un-exist with readonly
	ds, err := Open(path, 0644, &Options{ReadOnly: true})
	assert.Nil(ds)
	assert.Error(err)
	assert.True(os.IsNotExist(err))

	// open with create
	ds, err = Open(path, 0644, nil)
	require.NoError(t, err)
	assert.Equal(CompSnappy, ds.Compression())
	assert.False(ds.ReadOnly())
	assert.Equal(path, ds.Path())

	// concurrent open while a writer holds the file
	other, err := Open(path, 0644, &Options{Timeout: 100 * time.Millisecond})
	assert.Nil(other)
	assert.True(errors.Is(err, ErrLocked))
	other, err = Open(path, 0644, &Options{Timeout: 100 * time.Millisecond, ReadOnly: true})
	assert.Nil(other)
	assert.True(errors.Is(err, ErrLocked))

	assert.NoError(ds.Close())
	assert.NoError(ds.Close(), "second close is a no-op")

	// concurrent open with 2 readonly
	ds, err = Open(path, 0644, &Options{ReadOnly: true, Timeout: 100 * time.Millisecond})
	require.NoError(t, err)
	dsr, err := Open(path, 0644, &Options{ReadOnly: true, Timeout: 100 * time.Millisecond})
	assert.NoError(err)
	assert.True(dsr.ReadOnly())
	assert.NoError(dsr.Close())
	assert.NoError(ds.Close())
}

func TestOpenKeepsCompression(t *testing.T) {
	assert := assertion.New(t)
	path := testDatasetPath(t)

	ds, err := Open(path, 0644, &Options{Compression: CompLz4})
	require.NoError(t, err)
	assert.Equal(CompLz4, ds.Compression())
	assert.NoError(ds.Close())

	ds, err = Open(path, 0644, &Options{Compression: CompNone})
	require.NoError(t, err)
	assert.Equal(CompLz4, ds.Compression(), "existing files keep their algorithm")
	assert.NoError(ds.Close())
}

func TestOpenRejectsForeignFile(t *testing.T) {
	path := testDatasetPath(t)
	db, err := bolt.Open(path, 0644, nil)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	ds, err := Open(path, 0644, &Options{ReadOnly: true})
	assertion.Nil(t, ds)
	assertion.True(t, errors.Is(err, ErrCorrupt))
}

func TestVariables(t *testing.T) {
	assert := assertion.New(t)
	path := testDatasetPath(t)
	ds, err := Open(path, 0644, nil)
	require.NoError(t, err)

	dims := []Dimension{{"time", 3}, {"band", 2}}
	v, err := ds.CreateVariable("quality_flag", Int16, dims)
	require.NoError(t, err)
	assert.Equal([]int{3, 2}, v.Shape())
	assert.Equal(6, v.Size())

	_, err = ds.CreateVariable("quality_flag", Int16, dims)
	assert.True(errors.Is(err, ErrVariableExists))
	_, err = ds.CreateVariable("bogus", DType(0), dims)
	assert.True(errors.Is(err, ErrUnknownDType))
	_, err = ds.CreateVariable("negative", Uint8, []Dimension{{"x", -1}})
	assert.True(errors.Is(err, ErrShapeMismatch))
	_, err = ds.CreateVariable("huge", Uint8, []Dimension{{"x", math.MaxInt}, {"y", 2}})
	assert.True(errors.Is(err, ErrShapeMismatch))
	_, err = ds.Variable("negative")
	assert.True(errors.Is(err, ErrVariableNotFound), "nothing is stored for a bad shape")
	_, err = ds.Variable("missing")
	assert.True(errors.Is(err, ErrVariableNotFound))

	// a new variable is all missing
	data, present, err := v.Read()
	assert.NoError(err)
	assert.Equal(make([]uint64, 6), data)
	assert.Equal(make([]bool, 6), present)

	assert.NoError(v.Write([]uint64{1, 2, 3, 0xffff, 0x1ffff, 0}, []bool{true, true, true, true, true, false}))
	assert.True(errors.Is(v.Write([]uint64{1}, nil), ErrShapeMismatch))

	_, err = ds.CreateVariable("time", Int64, dims[:1])
	assert.NoError(err)
	names, err := ds.Variables()
	assert.NoError(err)
	assert.Equal([]string{"quality_flag", "time"}, names)
	assert.NoError(ds.Close())

	ds, err = Open(path, 0644, &Options{ReadOnly: true})
	require.NoError(t, err)
	defer ds.Close()
	v, err = ds.Variable("quality_flag")
	require.NoError(t, err)
	assert.Equal(Int16, v.DType())
	assert.Equal(dims, v.Dimensions())
	data, present, err = v.Read()
	assert.NoError(err)
	assert.Equal([]uint64{1, 2, 3, 0xffff, 0xffff, 0}, data, "elements are truncated to int16")
	assert.Equal([]bool{true, true, true, true, true, false}, present)

	tv, err := ds.Variable("time")
	assert.NoError(err)
	assert.False(v.SameDimensions(tv))

	_, err = ds.CreateVariable("other", Uint8, nil)
	assert.True(errors.Is(err, ErrDatasetReadOnly))
	assert.True(errors.Is(v.Write(data, nil), ErrDatasetReadOnly))
	assert.True(errors.Is(v.SetAttr("units", TextAttr("1")), ErrDatasetReadOnly))
	assert.True(errors.Is(ds.DeleteVariable("time"), ErrDatasetReadOnly))
}

func TestVariableFullyPresent(t *testing.T) {
	assert := assertion.New(t)
	ds, err := Open(testDatasetPath(t), 0644, &Options{Compression: CompLz4})
	require.NoError(t, err)
	defer ds.Close()

	v, err := ds.CreateVariable("flag", Uint8, []Dimension{{"x", 1000}})
	require.NoError(t, err)
	data := make([]uint64, 1000)
	for i := range data {
		data[i] = uint64(i % 4)
	}
	assert.NoError(v.Write(data, nil))
	got, present, err := v.Read()
	assert.NoError(err)
	assert.Equal(data, got)
	assert.Nil(present, "no presence bitmap when nothing is missing")
}

func TestAttributes(t *testing.T) {
	assert := assertion.New(t)
	ds, err := Open(testDatasetPath(t), 0644, nil)
	require.NoError(t, err)
	defer ds.Close()

	v, err := ds.CreateVariable("flag", Uint8, []Dimension{{"x", 2}})
	require.NoError(t, err)

	_, err = v.Attr(AttrFlagMeanings)
	assert.True(errors.Is(err, ErrAttrNotFound))
	ok, err := v.HasAttr(AttrFlagMeanings)
	assert.NoError(err)
	assert.False(ok)

	assert.NoError(v.SetAttr(AttrFlagValues, IntsAttr(0, 1)))
	assert.NoError(v.SetAttr(AttrFlagMeanings, TextAttr("good bad")))
	a, err := v.Attr(AttrFlagMeanings)
	assert.NoError(err)
	assert.Equal(TextAttr("good bad"), a)
	a, err = v.Attr(AttrFlagValues)
	assert.NoError(err)
	assert.Equal([]int64{0, 1}, a.Ints)

	names, err := v.AttrNames()
	assert.NoError(err)
	assert.Equal([]string{AttrFlagMeanings, AttrFlagValues}, names)

	assert.NoError(v.DelAttr(AttrFlagValues))
	assert.NoError(v.DelAttr(AttrFlagValues))
	ok, err = v.HasAttr(AttrFlagValues)
	assert.NoError(err)
	assert.False(ok)

	assert.NoError(ds.DeleteVariable("flag"))
	_, err = v.Attr(AttrFlagMeanings)
	assert.True(errors.Is(err, ErrVariableNotFound))
	assert.True(errors.Is(ds.DeleteVariable("flag"), ErrVariableNotFound))
}
