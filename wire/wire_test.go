package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"testing"
)

func TestPrimitiveSize(t *testing.T) {
	tests := []struct {
		p    Primitive
		size int
	}{
		{Bool, 1}, {U8, 1}, {I8, 1},
		{U16, 2}, {I16, 2},
		{U32, 4}, {I32, 4}, {F32, 4},
		{U64, 8}, {I64, 8}, {F64, 8},
		{U128, 16}, {I128, 16},
		{PrimitiveNone, 0},
	}

	for _, tt := range tests {
		t.Run(tt.p.String(), func(t *testing.T) {
			if got := tt.p.Size(); got != tt.size {
				t.Errorf("Size() = %d, want %d", got, tt.size)
			}
		})
	}
}

func TestParsePrimitive(t *testing.T) {
	for p := Bool; p <= F64; p++ {
		got, ok := ParsePrimitive(p.String())
		if !ok || got != p {
			t.Errorf("ParsePrimitive(%q) = %v, %v", p.String(), got, ok)
		}
	}
	if _, ok := ParsePrimitive("none"); ok {
		t.Error("none should not parse")
	}
	if _, ok := ParsePrimitive("u7"); ok {
		t.Error("u7 should not parse")
	}
}

func TestParseOrder(t *testing.T) {
	tests := []struct {
		name string
		want Order
		ok   bool
	}{
		{"big", BigEndian, true},
		{"little", LittleEndian, true},
		{"native", NativeEndian, true},
		{"unset", OrderUnset, false},
		{"middle", OrderUnset, false},
	}

	for _, tt := range tests {
		got, ok := ParseOrder(tt.name)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseOrder(%q) = %v, %v; want %v, %v", tt.name, got, ok, tt.want, tt.ok)
		}
	}
}

func TestWriterByteOrder(t *testing.T) {
	tests := []struct {
		name  string
		order binary.ByteOrder
		write func(w *Writer, o binary.ByteOrder) error
		want  []byte
	}{
		{"u16 big", binary.BigEndian, func(w *Writer, o binary.ByteOrder) error { return w.WriteU16(0x0102, o) }, []byte{1, 2}},
		{"u16 little", binary.LittleEndian, func(w *Writer, o binary.ByteOrder) error { return w.WriteU16(0x0102, o) }, []byte{2, 1}},
		{"i32 big", binary.BigEndian, func(w *Writer, o binary.ByteOrder) error { return w.WriteI32(-2, o) }, []byte{0xff, 0xff, 0xff, 0xfe}},
		{"u64 little", binary.LittleEndian, func(w *Writer, o binary.ByteOrder) error { return w.WriteU64(1, o) }, []byte{1, 0, 0, 0, 0, 0, 0, 0}},
		{"u8 ignores order", binary.LittleEndian, func(w *Writer, o binary.ByteOrder) error { return w.WriteU8(7) }, []byte{7}},
		{"bool", binary.BigEndian, func(w *Writer, o binary.ByteOrder) error { return w.WriteBool(true) }, []byte{1}},
		{"f32 big", binary.BigEndian, func(w *Writer, o binary.ByteOrder) error { return w.WriteF32(1.0, o) }, []byte{0x3f, 0x80, 0, 0}},
		{
			"u128 big", binary.BigEndian,
			func(w *Writer, o binary.ByteOrder) error { return w.WriteU128(Uint128{Hi: 1, Lo: 2}, o) },
			[]byte{0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 2},
		},
		{
			"u128 little", binary.LittleEndian,
			func(w *Writer, o binary.ByteOrder) error { return w.WriteU128(Uint128{Hi: 1, Lo: 2}, o) },
			[]byte{2, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			w := NewWriter(&buf)
			if err := tt.write(w, tt.order); err != nil {
				t.Fatalf("write: %v", err)
			}
			if !bytes.Equal(buf.Bytes(), tt.want) {
				t.Errorf("got % x, want % x", buf.Bytes(), tt.want)
			}
			if w.Position() != int64(len(tt.want)) {
				t.Errorf("position = %d, want %d", w.Position(), len(tt.want))
			}
		})
	}
}

func TestReaderRoundTrip(t *testing.T) {
	for _, order := range []Order{BigEndian, LittleEndian, NativeEndian} {
		t.Run(order.String(), func(t *testing.T) {
			bo := order.ByteOrder()
			var buf bytes.Buffer
			w := NewWriter(&buf)
			must(t, w.WriteBool(true))
			must(t, w.WriteI8(-3))
			must(t, w.WriteU16(0xbeef, bo))
			must(t, w.WriteI32(math.MinInt32, bo))
			must(t, w.WriteU64(math.MaxUint64, bo))
			must(t, w.WriteI128(Int128From(-1), bo))
			must(t, w.WriteF64(math.Pi, bo))

			r := NewReader(&buf)
			if v, err := r.ReadBool(); err != nil || !v {
				t.Errorf("ReadBool = %v, %v", v, err)
			}
			if v, err := r.ReadI8(); err != nil || v != -3 {
				t.Errorf("ReadI8 = %v, %v", v, err)
			}
			if v, err := r.ReadU16(bo); err != nil || v != 0xbeef {
				t.Errorf("ReadU16 = %x, %v", v, err)
			}
			if v, err := r.ReadI32(bo); err != nil || v != math.MinInt32 {
				t.Errorf("ReadI32 = %v, %v", v, err)
			}
			if v, err := r.ReadU64(bo); err != nil || v != math.MaxUint64 {
				t.Errorf("ReadU64 = %v, %v", v, err)
			}
			if v, err := r.ReadI128(bo); err != nil || v != (Int128{Hi: math.MaxUint64, Lo: math.MaxUint64}) {
				t.Errorf("ReadI128 = %v, %v", v, err)
			}
			if v, err := r.ReadF64(bo); err != nil || v != math.Pi {
				t.Errorf("ReadF64 = %v, %v", v, err)
			}
			if r.Position() != 1+1+2+4+8+16+8 {
				t.Errorf("position = %d", r.Position())
			}
		})
	}
}

func TestReaderInvalidBool(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{2}))
	_, err := r.ReadBool()
	if !errors.Is(err, ErrInvalidBool) {
		t.Errorf("expected ErrInvalidBool, got %v", err)
	}
}

func TestReaderEOF(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{1}))
	_, err := r.ReadU32(binary.BigEndian)
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("expected ErrUnexpectedEOF, got %v", err)
	}
	if r.Position() != 1 {
		t.Errorf("position after short read = %d, want 1", r.Position())
	}

	_, err = r.ReadU8()
	if !errors.Is(err, io.EOF) {
		t.Errorf("expected EOF, got %v", err)
	}
}

func TestReadInt(t *testing.T) {
	tests := []struct {
		name string
		p    Primitive
		data []byte
		want int64
	}{
		{"u8", U8, []byte{0xff}, 255},
		{"i8", I8, []byte{0xff}, -1},
		{"u16", U16, []byte{0xff, 0xfe}, 0xfffe},
		{"i16", I16, []byte{0xff, 0xfe}, -2},
		{"u32", U32, []byte{0, 0, 1, 0}, 256},
		{"i64", I64, []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x9c}, -100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(bytes.NewReader(tt.data))
			got, err := r.ReadInt(tt.p, binary.BigEndian)
			if err != nil {
				t.Fatalf("ReadInt: %v", err)
			}
			if got != tt.want {
				t.Errorf("ReadInt = %d, want %d", got, tt.want)
			}
		})
	}

	r := NewReader(bytes.NewReader([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}))
	if _, err := r.ReadInt(U64, binary.BigEndian); !errors.Is(err, ErrIntRange) {
		t.Errorf("u64 max: expected ErrIntRange, got %v", err)
	}
	if _, err := r.ReadInt(F32, binary.BigEndian); !errors.Is(err, ErrNotInteger) {
		t.Errorf("f32: expected ErrNotInteger, got %v", err)
	}
}

func TestWriteIntRange(t *testing.T) {
	tests := []struct {
		p    Primitive
		v    int64
		fail bool
	}{
		{U8, 255, false},
		{U8, 256, true},
		{U8, -1, true},
		{I8, -128, false},
		{I8, 128, true},
		{U16, 65535, false},
		{I32, math.MinInt32 - 1, true},
		{U64, math.MaxInt64, false},
		{F64, 1, true},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		err := NewWriter(&buf).WriteInt(tt.p, binary.LittleEndian, tt.v)
		if (err != nil) != tt.fail {
			t.Errorf("WriteInt(%s, %d) err = %v, want fail=%v", tt.p, tt.v, err, tt.fail)
		}
		if tt.fail && buf.Len() != 0 {
			t.Errorf("WriteInt(%s, %d) wrote %d bytes on failure", tt.p, tt.v, buf.Len())
		}
	}
}

func TestPositionAt(t *testing.T) {
	r := NewReaderAt(bytes.NewReader([]byte{1, 2}), 100)
	if _, err := r.ReadU16(binary.BigEndian); err != nil {
		t.Fatal(err)
	}
	if r.Position() != 102 {
		t.Errorf("reader position = %d, want 102", r.Position())
	}

	var buf bytes.Buffer
	w := NewWriterAt(&buf, 10)
	must(t, w.WriteBits(U32, binary.BigEndian, 0xdeadbeef))
	if w.Position() != 14 {
		t.Errorf("writer position = %d, want 14", w.Position())
	}
}

type shortWriter struct{}

func (shortWriter) Write(p []byte) (int, error) { return len(p) / 2, nil }

func TestWriterShortWrite(t *testing.T) {
	w := NewWriter(shortWriter{})
	err := w.WriteU32(1, binary.BigEndian)
	if !errors.Is(err, io.ErrShortWrite) {
		t.Errorf("expected ErrShortWrite, got %v", err)
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}
