package wire

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Writer wraps an io.Writer with position tracking and fixed-width primitive writes.
// Position counts bytes produced since the start of the top-level operation.
type Writer struct {
	w   io.Writer
	pos int64
	buf [16]byte
}

// NewWriter creates a new Writer wrapping the given io.Writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// NewWriterAt creates a Writer whose position starts at pos.
func NewWriterAt(w io.Writer, pos int64) *Writer {
	return &Writer{w: w, pos: pos}
}

// Position returns the current byte position.
func (w *Writer) Position() int64 {
	return w.pos
}

// Write implements io.Writer and advances the position.
func (w *Writer) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	w.pos += int64(n)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	return n, err
}

// WriteBytes writes a byte slice.
func (w *Writer) WriteBytes(p []byte) error {
	_, err := w.Write(p)
	return err
}

// WriteBool writes 1 for true and 0 for false.
func (w *Writer) WriteBool(v bool) error {
	if v {
		return w.WriteU8(1)
	}
	return w.WriteU8(0)
}

// WriteU8 writes a single byte.
func (w *Writer) WriteU8(v uint8) error {
	w.buf[0] = v
	return w.WriteBytes(w.buf[:1])
}

// WriteI8 writes a single signed byte.
func (w *Writer) WriteI8(v int8) error {
	return w.WriteU8(uint8(v))
}

// WriteU16 writes a uint16 in the given order.
func (w *Writer) WriteU16(v uint16, order binary.ByteOrder) error {
	order.PutUint16(w.buf[:2], v)
	return w.WriteBytes(w.buf[:2])
}

// WriteI16 writes an int16 in the given order.
func (w *Writer) WriteI16(v int16, order binary.ByteOrder) error {
	return w.WriteU16(uint16(v), order)
}

// WriteU32 writes a uint32 in the given order.
func (w *Writer) WriteU32(v uint32, order binary.ByteOrder) error {
	order.PutUint32(w.buf[:4], v)
	return w.WriteBytes(w.buf[:4])
}

// WriteI32 writes an int32 in the given order.
func (w *Writer) WriteI32(v int32, order binary.ByteOrder) error {
	return w.WriteU32(uint32(v), order)
}

// WriteU64 writes a uint64 in the given order.
func (w *Writer) WriteU64(v uint64, order binary.ByteOrder) error {
	order.PutUint64(w.buf[:8], v)
	return w.WriteBytes(w.buf[:8])
}

// WriteI64 writes an int64 in the given order.
func (w *Writer) WriteI64(v int64, order binary.ByteOrder) error {
	return w.WriteU64(uint64(v), order)
}

// WriteU128 writes a 16-byte unsigned integer in the given order.
func (w *Writer) WriteU128(v Uint128, order binary.ByteOrder) error {
	put128(order, w.buf[:16], v.Hi, v.Lo)
	return w.WriteBytes(w.buf[:16])
}

// WriteI128 writes a 16-byte signed integer in the given order.
func (w *Writer) WriteI128(v Int128, order binary.ByteOrder) error {
	return w.WriteU128(Uint128{Hi: v.Hi, Lo: v.Lo}, order)
}

// WriteF32 writes an IEEE 754 binary32 in the given order.
func (w *Writer) WriteF32(v float32, order binary.ByteOrder) error {
	return w.WriteU32(math.Float32bits(v), order)
}

// WriteF64 writes an IEEE 754 binary64 in the given order.
func (w *Writer) WriteF64(v float64, order binary.ByteOrder) error {
	return w.WriteU64(math.Float64bits(v), order)
}

// WriteInt writes v as an integer primitive of at most 64 bits.
// Values outside the primitive's range yield ErrIntRange and nothing is written.
func (w *Writer) WriteInt(p Primitive, order binary.ByteOrder, v int64) error {
	if !p.IsInteger() {
		return fmt.Errorf("%w: %s", ErrNotInteger, p)
	}
	lo, hi := p.Range()
	if v < lo || v > hi {
		return fmt.Errorf("%w: %d for %s", ErrIntRange, v, p)
	}
	return w.WriteBits(p, order, uint64(v))
}

// WriteBits writes the low bits of v for an integer or bool primitive of at most 64 bits.
func (w *Writer) WriteBits(p Primitive, order binary.ByteOrder, v uint64) error {
	switch p.Size() {
	case 1:
		return w.WriteU8(uint8(v))
	case 2:
		return w.WriteU16(uint16(v), order)
	case 4:
		return w.WriteU32(uint32(v), order)
	case 8:
		return w.WriteU64(v, order)
	}
	return fmt.Errorf("%w: %s", ErrNotInteger, p)
}
