package ncflag

import (
	"bytes"
	"encoding/binary"
	"github.com/pkg/errors"
	"math"
)

var ErrCorrupt = errors.New("corrupt record")

type recordFlag uint8

const (
	recDataCompressed recordFlag = 1 << iota
	recHasPresence
	recPresenceCompressed
)

// Dimension is a named axis of a variable.
type Dimension struct {
	Name string
	Size int
}

type AttrKind uint8

const (
	AttrText AttrKind = iota + 1
	AttrInts
)

// Attr is a variable attribute: either text or a list of integers.
type Attr struct {
	Kind AttrKind
	Text string
	Ints []int64
}

func TextAttr(s string) Attr   { return Attr{Kind: AttrText, Text: s} }
func IntsAttr(v ...int64) Attr { return Attr{Kind: AttrInts, Ints: v} }
func (a Attr) IsText() bool    { return a.Kind == AttrText }
func (a Attr) IsInts() bool    { return a.Kind == AttrInts }

func putUvarint(buf *bytes.Buffer, v uint64) {
	b := make([]byte, binary.MaxVarintLen64)
	n := binary.PutUvarint(b, v)
	buf.Write(b[:n])
}

func putBytes(buf *bytes.Buffer, p []byte) {
	putUvarint(buf, uint64(len(p)))
	buf.Write(p)
}

func readBytes(r *bytes.Reader) ([]byte, error) {
	n, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, errors.Wrap(ErrCorrupt, "read length")
	}
	if n > uint64(r.Len()) {
		return nil, errors.Wrapf(ErrCorrupt, "length %d exceeds remaining %d bytes", n, r.Len())
	}
	p := make([]byte, n)
	if _, err := r.Read(p); err != nil && n > 0 {
		return nil, errors.Wrap(ErrCorrupt, "read payload")
	}
	return p, nil
}

// marshalMeta encodes dtype + dims.
func marshalMeta(dtype DType, dims []Dimension) []byte {
	buf := bytes.NewBuffer(nil)
	buf.WriteByte(byte(dtype))
	putUvarint(buf, uint64(len(dims)))
	for _, d := range dims {
		putBytes(buf, []byte(d.Name))
		putUvarint(buf, uint64(d.Size))
	}
	return buf.Bytes()
}

func unmarshalMeta(data []byte) (DType, []Dimension, error) {
	if len(data) == 0 {
		return 0, nil, errors.Wrap(ErrCorrupt, "empty variable header")
	}
	reader := bytes.NewReader(data)
	b, _ := reader.ReadByte()
	dtype := DType(b)
	if !dtype.Valid() {
		return 0, nil, errors.Wrapf(ErrCorrupt, "dtype %d", b)
	}
	rank, err := binary.ReadUvarint(reader)
	if err != nil {
		return 0, nil, errors.Wrap(ErrCorrupt, "read rank")
	}
	if rank > uint64(reader.Len()) {
		return 0, nil, errors.Wrapf(ErrCorrupt, "rank %d", rank)
	}
	dims := make([]Dimension, rank)
	total := 1
	for i := range dims {
		name, err := readBytes(reader)
		if err != nil {
			return 0, nil, err
		}
		size, err := binary.ReadUvarint(reader)
		if err != nil {
			return 0, nil, errors.Wrap(ErrCorrupt, "read dimension size")
		}
		if size > math.MaxInt || (size != 0 && total > math.MaxInt/int(size)) {
			return 0, nil, errors.Wrapf(ErrCorrupt, "dimension %q size %d", name, size)
		}
		total *= int(size)
		dims[i] = Dimension{Name: string(name), Size: int(size)}
	}
	return dtype, dims, nil
}

// marshalData encodes elements packed at the dtype's width, little endian,
// followed by the presence bitmap when present is not nil. Payloads are kept
// compressed only when that makes them smaller.
func marshalData(dtype DType, data []uint64, present []bool, compressor Compressor) ([]byte, error) {
	var flag recordFlag
	width := dtype.Bits() / 8
	raw := make([]byte, len(data)*width)
	for i, v := range data {
		for b := 0; b < width; b++ {
			raw[i*width+b] = byte(v >> (8 * uint(b)))
		}
	}
	payload, compressed, err := maybeCompress(raw, compressor)
	if err != nil {
		return nil, err
	}
	if compressed {
		flag |= recDataCompressed
	}

	var bits []byte
	if present != nil {
		flag |= recHasPresence
		packed := make([]byte, (len(present)+7)/8)
		for i, p := range present {
			if p {
				packed[i/8] |= 1 << uint(i%8)
			}
		}
		bits, compressed, err = maybeCompress(packed, compressor)
		if err != nil {
			return nil, err
		}
		if compressed {
			flag |= recPresenceCompressed
		}
	}

	buf := bytes.NewBuffer(nil)
	buf.WriteByte(byte(flag))
	putBytes(buf, payload)
	if present != nil {
		putBytes(buf, bits)
	}
	return buf.Bytes(), nil
}

func maybeCompress(in []byte, compressor Compressor) ([]byte, bool, error) {
	if compressor == nil {
		return in, false, nil
	}
	c, err := compressor(in)
	if err != nil {
		return nil, false, errors.Wrap(err, "compress")
	}
	if len(c) < len(in) {
		return c, true, nil
	}
	return in, false, nil
}

func unmarshalData(buf []byte, dtype DType, n int, decompressor DeCompressor) ([]uint64, []bool, error) {
	if len(buf) == 0 {
		return nil, nil, errors.Wrap(ErrCorrupt, "empty data record")
	}
	reader := bytes.NewReader(buf)
	b, _ := reader.ReadByte()
	flag := recordFlag(b)
	if decompressor == nil && flag&(recDataCompressed|recPresenceCompressed) != 0 {
		return nil, nil, errors.New("data is compressed but decompressor is nil")
	}

	raw, err := readBytes(reader)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to read data")
	}
	if flag&recDataCompressed != 0 {
		if raw, err = decompressor(raw); err != nil {
			return nil, nil, errors.Wrap(err, "failed to decompress data")
		}
	}
	width := dtype.Bits() / 8
	if len(raw) != n*width {
		return nil, nil, errors.Wrapf(ErrCorrupt, "%d data bytes for %d %s elements", len(raw), n, dtype)
	}
	data := make([]uint64, n)
	for i := range data {
		var v uint64
		for b := 0; b < width; b++ {
			v |= uint64(raw[i*width+b]) << (8 * uint(b))
		}
		data[i] = v
	}

	if flag&recHasPresence == 0 {
		return data, nil, nil
	}
	packed, err := readBytes(reader)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to read presence")
	}
	if flag&recPresenceCompressed != 0 {
		if packed, err = decompressor(packed); err != nil {
			return nil, nil, errors.Wrap(err, "failed to decompress presence")
		}
	}
	if len(packed) != (n+7)/8 {
		return nil, nil, errors.Wrapf(ErrCorrupt, "%d presence bytes for %d elements", len(packed), n)
	}
	present := make([]bool, n)
	for i := range present {
		present[i] = packed[i/8]&(1<<uint(i%8)) != 0
	}
	return data, present, nil
}

func marshalAttr(a Attr) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	buf.WriteByte(byte(a.Kind))
	switch a.Kind {
	case AttrText:
		putBytes(buf, []byte(a.Text))
	case AttrInts:
		putUvarint(buf, uint64(len(a.Ints)))
		b := make([]byte, binary.MaxVarintLen64)
		for _, v := range a.Ints {
			n := binary.PutVarint(b, v)
			buf.Write(b[:n])
		}
	default:
		return nil, errors.Errorf("unknown attribute kind %d", a.Kind)
	}
	return buf.Bytes(), nil
}

func unmarshalAttr(data []byte) (Attr, error) {
	if len(data) == 0 {
		return Attr{}, errors.Wrap(ErrCorrupt, "empty attribute")
	}
	reader := bytes.NewReader(data)
	b, _ := reader.ReadByte()
	switch AttrKind(b) {
	case AttrText:
		p, err := readBytes(reader)
		if err != nil {
			return Attr{}, err
		}
		return TextAttr(string(p)), nil
	case AttrInts:
		n, err := binary.ReadUvarint(reader)
		if err != nil || n > uint64(reader.Len()) {
			return Attr{}, errors.Wrap(ErrCorrupt, "read attribute length")
		}
		ints := make([]int64, n)
		for i := range ints {
			if ints[i], err = binary.ReadVarint(reader); err != nil {
				return Attr{}, errors.Wrap(ErrCorrupt, "read attribute value")
			}
		}
		return IntsAttr(ints...), nil
	}
	return Attr{}, errors.Wrapf(ErrCorrupt, "attribute kind %d", b)
}
