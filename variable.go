package ncflag

import (
	"github.com/boltdb/bolt"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Variable is a handle on a named array in a Dataset. The handle caches the
// dtype and dimensions; data and attributes are read on demand.
type Variable struct {
	ds    *Dataset
	name  string
	dtype DType
	dims  []Dimension
}

func (v *Variable) Name() string { return v.name }
func (v *Variable) DType() DType { return v.dtype }

func (v *Variable) Dimensions() []Dimension {
	return append([]Dimension(nil), v.dims...)
}

func (v *Variable) Shape() []int {
	shape := make([]int, len(v.dims))
	for i, d := range v.dims {
		shape[i] = d.Size
	}
	return shape
}

// Size returns the number of elements.
func (v *Variable) Size() int {
	n := 1
	for _, d := range v.dims {
		n *= d.Size
	}
	return n
}

// SameDimensions reports whether v and o are laid out along the same named
// dimensions.
func (v *Variable) SameDimensions(o *Variable) bool {
	if len(v.dims) != len(o.dims) {
		return false
	}
	for i := range v.dims {
		if v.dims[i] != o.dims[i] {
			return false
		}
	}
	return true
}

// Read returns the elements as bit patterns of the variable's dtype and the
// presence bitmap, nil when every element is present.
func (v *Variable) Read() ([]uint64, []bool, error) {
	var data []uint64
	var present []bool
	err := v.ds.db.View(func(tx *bolt.Tx) error {
		b, err := variableBucket(tx, v.name)
		if err != nil {
			return err
		}
		data, present, err = unmarshalData(b.Get(keyData), v.dtype, v.Size(), v.ds.decompressor)
		return errors.Wrapf(err, "read variable %q", v.name)
	})
	if err != nil {
		return nil, nil, err
	}
	if present != nil && allTrue(present) {
		present = nil
	}
	return data, present, nil
}

// Write replaces the variable's elements. present may be nil when nothing is
// missing.
func (v *Variable) Write(data []uint64, present []bool) error {
	buf, err := v.encode(data, present)
	if err != nil {
		return err
	}
	return v.commit(buf, nil)
}

func (v *Variable) encode(data []uint64, present []bool) ([]byte, error) {
	if v.ds.readOnly {
		return nil, ErrDatasetReadOnly
	}
	n := v.Size()
	if len(data) != n || (present != nil && len(present) != n) {
		return nil, errors.Wrapf(ErrShapeMismatch, "write %q: variable holds %d elements", v.name, n)
	}
	ones := v.dtype.AllOnes()
	coerced := make([]uint64, n)
	for i, e := range data {
		coerced[i] = e & ones
	}
	return marshalData(v.dtype, coerced, present, v.ds.compressor)
}

// commit stores buf as the data record when it is not nil, then hands the
// attribute bucket to attrs. Both happen in one transaction; an error from
// attrs leaves the variable untouched.
func (v *Variable) commit(buf []byte, attrs func(ab *bolt.Bucket) error) error {
	if v.ds.readOnly {
		return ErrDatasetReadOnly
	}
	err := v.ds.db.Update(func(tx *bolt.Tx) error {
		b, err := variableBucket(tx, v.name)
		if err != nil {
			return err
		}
		if buf != nil {
			if err := b.Put(keyData, buf); err != nil {
				return err
			}
		}
		if attrs == nil {
			return nil
		}
		ab, err := attrBucket(tx, v.name)
		if err != nil {
			return err
		}
		return attrs(ab)
	})
	if err != nil {
		return err
	}
	if buf != nil {
		log.WithFields(log.Fields{"path": v.ds.path, "variable": v.name, "bytes": len(buf)}).Debug("variable written")
	}
	return nil
}

// Attr returns the named attribute or ErrAttrNotFound.
func (v *Variable) Attr(name string) (Attr, error) {
	var attr Attr
	err := v.ds.db.View(func(tx *bolt.Tx) error {
		ab, err := attrBucket(tx, v.name)
		if err != nil {
			return err
		}
		buf := ab.Get([]byte(name))
		if buf == nil {
			return errors.Wrapf(ErrAttrNotFound, "%s:%s", v.name, name)
		}
		attr, err = unmarshalAttr(buf)
		return err
	})
	return attr, err
}

func (v *Variable) HasAttr(name string) (bool, error) {
	_, err := v.Attr(name)
	if errors.Is(err, ErrAttrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// AttrNames lists attribute names in byte order.
func (v *Variable) AttrNames() ([]string, error) {
	var names []string
	err := v.ds.db.View(func(tx *bolt.Tx) error {
		ab, err := attrBucket(tx, v.name)
		if err != nil {
			return err
		}
		return ab.ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	return names, err
}

func (v *Variable) SetAttr(name string, attr Attr) error {
	return v.commit(nil, func(ab *bolt.Bucket) error {
		return putAttr(ab, name, attr)
	})
}

func putAttr(ab *bolt.Bucket, name string, attr Attr) error {
	buf, err := marshalAttr(attr)
	if err != nil {
		return errors.Wrapf(err, "attribute %q", name)
	}
	return ab.Put([]byte(name), buf)
}

// DelAttr removes the named attribute; removing an absent one is a no-op.
func (v *Variable) DelAttr(name string) error {
	if v.ds.readOnly {
		return ErrDatasetReadOnly
	}
	return v.ds.db.Update(func(tx *bolt.Tx) error {
		ab, err := attrBucket(tx, v.name)
		if err != nil {
			return err
		}
		return ab.Delete([]byte(name))
	})
}

func attrBucket(tx *bolt.Tx, name string) (*bolt.Bucket, error) {
	b, err := variableBucket(tx, name)
	if err != nil {
		return nil, err
	}
	ab := b.Bucket(bucketAttrs)
	if ab == nil {
		return nil, errors.Wrapf(ErrCorrupt, "variable %q has no attribute bucket", name)
	}
	return ab, nil
}

func allTrue(p []bool) bool {
	for _, b := range p {
		if !b {
			return false
		}
	}
	return true
}
