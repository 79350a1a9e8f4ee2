package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

var (
	// ErrIntRange is returned when an integer does not fit the requested primitive.
	ErrIntRange = errors.New("wire: integer out of range")

	// ErrInvalidBool is returned when a bool byte is neither 0 nor 1.
	ErrInvalidBool = errors.New("wire: invalid bool byte")

	// ErrNotInteger is returned when an integer accessor is used with a
	// non-integer primitive.
	ErrNotInteger = errors.New("wire: not an integer primitive")
)

// Reader wraps an io.Reader with position tracking and fixed-width primitive reads.
// Position counts bytes consumed since the start of the top-level operation.
type Reader struct {
	r   io.Reader
	pos int64
	buf [16]byte
}

// NewReader creates a new Reader wrapping the given io.Reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// NewReaderAt creates a Reader whose position starts at pos.
func NewReaderAt(r io.Reader, pos int64) *Reader {
	return &Reader{r: r, pos: pos}
}

// Position returns the current byte position.
func (r *Reader) Position() int64 {
	return r.pos
}

// Read implements io.Reader and advances the position.
func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	r.pos += int64(n)
	return n, err
}

// ReadFull reads exactly len(p) bytes.
func (r *Reader) ReadFull(p []byte) error {
	n, err := io.ReadFull(r.r, p)
	r.pos += int64(n)
	return err
}

// ReadBytes reads exactly n bytes into a new slice.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if err := r.ReadFull(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (r *Reader) next(n int) ([]byte, error) {
	b := r.buf[:n]
	if err := r.ReadFull(b); err != nil {
		return nil, err
	}
	return b, nil
}

// ReadBool reads one byte; only 0 and 1 are accepted.
func (r *Reader) ReadBool() (bool, error) {
	v, err := r.ReadU8()
	if err != nil {
		return false, err
	}
	switch v {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, fmt.Errorf("%w 0x%02x at position %d", ErrInvalidBool, v, r.pos-1)
}

// ReadU8 reads a single byte.
func (r *Reader) ReadU8() (uint8, error) {
	b, err := r.next(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadI8 reads a single signed byte.
func (r *Reader) ReadI8() (int8, error) {
	v, err := r.ReadU8()
	return int8(v), err
}

// ReadU16 reads a uint16 in the given order.
func (r *Reader) ReadU16(order binary.ByteOrder) (uint16, error) {
	b, err := r.next(2)
	if err != nil {
		return 0, err
	}
	return order.Uint16(b), nil
}

// ReadI16 reads an int16 in the given order.
func (r *Reader) ReadI16(order binary.ByteOrder) (int16, error) {
	v, err := r.ReadU16(order)
	return int16(v), err
}

// ReadU32 reads a uint32 in the given order.
func (r *Reader) ReadU32(order binary.ByteOrder) (uint32, error) {
	b, err := r.next(4)
	if err != nil {
		return 0, err
	}
	return order.Uint32(b), nil
}

// ReadI32 reads an int32 in the given order.
func (r *Reader) ReadI32(order binary.ByteOrder) (int32, error) {
	v, err := r.ReadU32(order)
	return int32(v), err
}

// ReadU64 reads a uint64 in the given order.
func (r *Reader) ReadU64(order binary.ByteOrder) (uint64, error) {
	b, err := r.next(8)
	if err != nil {
		return 0, err
	}
	return order.Uint64(b), nil
}

// ReadI64 reads an int64 in the given order.
func (r *Reader) ReadI64(order binary.ByteOrder) (int64, error) {
	v, err := r.ReadU64(order)
	return int64(v), err
}

// ReadU128 reads a 16-byte unsigned integer in the given order.
func (r *Reader) ReadU128(order binary.ByteOrder) (Uint128, error) {
	b, err := r.next(16)
	if err != nil {
		return Uint128{}, err
	}
	hi, lo := get128(order, b)
	return Uint128{Hi: hi, Lo: lo}, nil
}

// ReadI128 reads a 16-byte signed integer in the given order.
func (r *Reader) ReadI128(order binary.ByteOrder) (Int128, error) {
	v, err := r.ReadU128(order)
	return Int128{Hi: v.Hi, Lo: v.Lo}, err
}

// ReadF32 reads an IEEE 754 binary32 in the given order. NaN payloads are preserved.
func (r *Reader) ReadF32(order binary.ByteOrder) (float32, error) {
	v, err := r.ReadU32(order)
	return math.Float32frombits(v), err
}

// ReadF64 reads an IEEE 754 binary64 in the given order. NaN payloads are preserved.
func (r *Reader) ReadF64(order binary.ByteOrder) (float64, error) {
	v, err := r.ReadU64(order)
	return math.Float64frombits(v), err
}

// ReadInt reads an integer primitive of at most 64 bits and widens it to
// int64, sign-extending signed types. A u64 above MaxInt64 yields ErrIntRange.
func (r *Reader) ReadInt(p Primitive, order binary.ByteOrder) (int64, error) {
	switch p {
	case U8:
		v, err := r.ReadU8()
		return int64(v), err
	case I8:
		v, err := r.ReadI8()
		return int64(v), err
	case U16:
		v, err := r.ReadU16(order)
		return int64(v), err
	case I16:
		v, err := r.ReadI16(order)
		return int64(v), err
	case U32:
		v, err := r.ReadU32(order)
		return int64(v), err
	case I32:
		v, err := r.ReadI32(order)
		return int64(v), err
	case U64:
		v, err := r.ReadU64(order)
		if err != nil {
			return 0, err
		}
		if v > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d for %s", ErrIntRange, v, p)
		}
		return int64(v), nil
	case I64:
		return r.ReadI64(order)
	}
	return 0, fmt.Errorf("%w: %s", ErrNotInteger, p)
}

// ReadBits reads an integer or bool primitive of at most 64 bits and returns
// its raw zero-extended bit pattern.
func (r *Reader) ReadBits(p Primitive, order binary.ByteOrder) (uint64, error) {
	switch p.Size() {
	case 1:
		v, err := r.ReadU8()
		return uint64(v), err
	case 2:
		v, err := r.ReadU16(order)
		return uint64(v), err
	case 4:
		v, err := r.ReadU32(order)
		return uint64(v), err
	case 8:
		return r.ReadU64(order)
	}
	return 0, fmt.Errorf("%w: %s", ErrNotInteger, p)
}
