package ncflag

import (
	"encoding/binary"
	"github.com/boltdb/bolt"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"os"
	"time"
)

const (
	// ncflagMagic = "NCFL" in bigEndian
	Magic   uint32 = 0x4e43464c
	Version uint16 = 1

	headerSize = 4 + 2 + 1
)

var (
	ErrLocked           = errors.New("dataset opened with write mode by another process")
	ErrDatasetReadOnly  = errors.New("dataset is read-only")
	ErrVariableNotFound = errors.New("variable not found")
	ErrVariableExists   = errors.New("variable already exists")
	ErrAttrNotFound     = errors.New("attribute not found")

	bucketHeader    = []byte("header")
	bucketVariables = []byte("variables")
	bucketAttrs     = []byte("attrs")
	keyHeader       = []byte("header")
	keyMeta         = []byte("meta")
	keyData         = []byte("data")
)

// Options represents the options that can be set when opening a dataset.
type Options struct {
	// Timeout is the amount of time to wait to obtain a file lock.
	// When set to zero it will wait indefinitely.
	Timeout time.Duration

	// Open dataset in read-only mode. Grabs a shared lock so several
	// readers may hold the file at once.
	ReadOnly bool

	// Compression applied to variable data. Only used when the dataset file
	// is created; existing files keep the algorithm they were written with.
	Compression CompressAlgorithm
}

var DefaultOptions = &Options{
	Timeout:     0,
	Compression: CompSnappy,
}

// Dataset is a file of named integer variables with attributes, the backing
// store flag variables are read from and written to.
type Dataset struct {
	path     string
	db       *bolt.DB
	readOnly bool

	compression  CompressAlgorithm
	compressor   Compressor
	decompressor DeCompressor
}

func Open(path string, mode os.FileMode, options *Options) (*Dataset, error) {
	if options == nil {
		options = DefaultOptions
	}
	logger := log.WithField("path", path)

	if options.ReadOnly {
		// bolt creates missing files even in read-only mode
		if _, err := os.Stat(path); err != nil {
			return nil, err
		}
	}

	db, err := bolt.Open(path, mode, &bolt.Options{Timeout: options.Timeout, ReadOnly: options.ReadOnly})
	if err != nil {
		if errors.Is(err, bolt.ErrTimeout) {
			return nil, errors.Wrap(ErrLocked, path)
		}
		return nil, errors.Wrapf(err, "open dataset %s", path)
	}

	ds := &Dataset{path: path, db: db, readOnly: options.ReadOnly}
	if !ds.readOnly {
		if err := ds.init(options.Compression); err != nil {
			_ = ds.close()
			return nil, err
		}
	}
	if err := ds.readHeader(); err != nil {
		_ = ds.close()
		return nil, err
	}
	if ds.compressor, ds.decompressor, err = codecs(ds.compression); err != nil {
		_ = ds.close()
		return nil, err
	}

	logger.WithFields(log.Fields{
		"readOnly":    ds.readOnly,
		"compression": ds.compression,
	}).Debug("dataset opened")
	return ds, nil
}

// init writes the header of a new file and creates the variables bucket.
func (ds *Dataset) init(compression CompressAlgorithm) error {
	return ds.db.Update(func(tx *bolt.Tx) error {
		hb, err := tx.CreateBucketIfNotExists(bucketHeader)
		if err != nil {
			return errors.Wrap(err, "create header bucket")
		}
		if hb.Get(keyHeader) == nil {
			buf := make([]byte, headerSize)
			binary.BigEndian.PutUint32(buf[0:], Magic)
			binary.BigEndian.PutUint16(buf[4:], Version)
			buf[6] = byte(compression)
			if err := hb.Put(keyHeader, buf); err != nil {
				return errors.Wrap(err, "write header")
			}
		}
		_, err = tx.CreateBucketIfNotExists(bucketVariables)
		return errors.Wrap(err, "create variables bucket")
	})
}

func (ds *Dataset) readHeader() error {
	return ds.db.View(func(tx *bolt.Tx) error {
		hb := tx.Bucket(bucketHeader)
		if hb == nil {
			return errors.Wrapf(ErrCorrupt, "%s is not an ncflag dataset", ds.path)
		}
		buf := hb.Get(keyHeader)
		if len(buf) != headerSize {
			return errors.Wrap(ErrCorrupt, "header size")
		}
		if binary.BigEndian.Uint32(buf[0:]) != Magic {
			return errors.Wrap(ErrCorrupt, "bad magic")
		}
		if v := binary.BigEndian.Uint16(buf[4:]); v != Version {
			return errors.Wrapf(ErrCorrupt, "unsupported version %d", v)
		}
		ds.compression = CompressAlgorithm(buf[6])
		return nil
	})
}

func (ds *Dataset) Path() string                   { return ds.path }
func (ds *Dataset) ReadOnly() bool                 { return ds.readOnly }
func (ds *Dataset) Compression() CompressAlgorithm { return ds.compression }

func (ds *Dataset) Close() error {
	return ds.close()
}

func (ds *Dataset) close() error {
	if ds.db == nil {
		return nil
	}
	err := ds.db.Close()
	ds.db = nil
	if err != nil {
		log.WithField("path", ds.path).Warnf("dataset close: %s", err)
		return errors.Wrap(err, "dataset file closed")
	}
	log.WithField("path", ds.path).Debug("dataset closed")
	return nil
}

// Variables lists variable names in byte order.
func (ds *Dataset) Variables() ([]string, error) {
	var names []string
	err := ds.db.View(func(tx *bolt.Tx) error {
		vb := tx.Bucket(bucketVariables)
		if vb == nil {
			return nil
		}
		return vb.ForEach(func(k, v []byte) error {
			if v == nil {
				names = append(names, string(k))
			}
			return nil
		})
	})
	return names, err
}

// Variable looks up an existing variable.
func (ds *Dataset) Variable(name string) (*Variable, error) {
	v := &Variable{ds: ds, name: name}
	err := ds.db.View(func(tx *bolt.Tx) error {
		b, err := variableBucket(tx, name)
		if err != nil {
			return err
		}
		v.dtype, v.dims, err = unmarshalMeta(b.Get(keyMeta))
		return errors.Wrapf(err, "variable %q", name)
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// CreateVariable adds a variable whose elements are all missing until
// written.
func (ds *Dataset) CreateVariable(name string, dtype DType, dims []Dimension) (*Variable, error) {
	if ds.readOnly {
		return nil, ErrDatasetReadOnly
	}
	if !dtype.Valid() {
		return nil, errors.Wrapf(ErrUnknownDType, "dtype %d", dtype)
	}
	v := &Variable{ds: ds, name: name, dtype: dtype, dims: append([]Dimension(nil), dims...)}
	n, err := shapeSize(v.Shape())
	if err != nil {
		return nil, errors.Wrapf(err, "variable %q", name)
	}
	data, err := marshalData(dtype, make([]uint64, n), make([]bool, n), ds.compressor)
	if err != nil {
		return nil, err
	}

	err = ds.db.Update(func(tx *bolt.Tx) error {
		vb := tx.Bucket(bucketVariables)
		if vb.Bucket([]byte(name)) != nil {
			return errors.Wrapf(ErrVariableExists, "%q", name)
		}
		b, err := vb.CreateBucket([]byte(name))
		if err != nil {
			return errors.Wrapf(err, "create variable %q", name)
		}
		if _, err := b.CreateBucket(bucketAttrs); err != nil {
			return errors.Wrap(err, "create attrs bucket")
		}
		if err := b.Put(keyMeta, marshalMeta(dtype, dims)); err != nil {
			return err
		}
		return b.Put(keyData, data)
	})
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"path": ds.path, "variable": name, "dtype": dtype, "shape": v.Shape()}).
		Debug("variable created")
	return v, nil
}

// DeleteVariable removes a variable and its attributes.
func (ds *Dataset) DeleteVariable(name string) error {
	if ds.readOnly {
		return ErrDatasetReadOnly
	}
	return ds.db.Update(func(tx *bolt.Tx) error {
		if _, err := variableBucket(tx, name); err != nil {
			return err
		}
		return tx.Bucket(bucketVariables).DeleteBucket([]byte(name))
	})
}

func variableBucket(tx *bolt.Tx, name string) (*bolt.Bucket, error) {
	vb := tx.Bucket(bucketVariables)
	if vb == nil {
		return nil, errors.Wrapf(ErrVariableNotFound, "%q", name)
	}
	b := vb.Bucket([]byte(name))
	if b == nil {
		return nil, errors.Wrapf(ErrVariableNotFound, "%q", name)
	}
	return b, nil
}
