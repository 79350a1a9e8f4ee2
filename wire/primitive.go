package wire

import (
	"encoding/binary"
	"math"
)

// Primitive identifies a fixed-width scalar wire type.
type Primitive uint8

const (
	// PrimitiveNone is the zero value; it means "not declared" in metadata.
	PrimitiveNone Primitive = iota
	Bool
	U8
	I8
	U16
	I16
	U32
	I32
	U64
	I64
	U128
	I128
	F32
	F64
)

var primitiveNames = [...]string{
	PrimitiveNone: "none",
	Bool:          "bool",
	U8:            "u8",
	I8:            "i8",
	U16:           "u16",
	I16:           "i16",
	U32:           "u32",
	I32:           "i32",
	U64:           "u64",
	I64:           "i64",
	U128:          "u128",
	I128:          "i128",
	F32:           "f32",
	F64:           "f64",
}

var primitiveSizes = [...]int{
	Bool: 1,
	U8:   1,
	I8:   1,
	U16:  2,
	I16:  2,
	U32:  4,
	I32:  4,
	U64:  8,
	I64:  8,
	U128: 16,
	I128: 16,
	F32:  4,
	F64:  8,
}

func (p Primitive) String() string {
	if int(p) < len(primitiveNames) {
		return primitiveNames[p]
	}
	return "unknown"
}

// Size returns the encoded width in bytes, or 0 for PrimitiveNone.
func (p Primitive) Size() int {
	if int(p) < len(primitiveSizes) {
		return primitiveSizes[p]
	}
	return 0
}

// Valid reports whether p names a real primitive.
func (p Primitive) Valid() bool {
	return p > PrimitiveNone && p <= F64
}

// IsInteger reports whether p is one of the integer primitives of at most 64 bits.
// Only these may serve as discriminant or length-prefix types.
func (p Primitive) IsInteger() bool {
	switch p {
	case U8, I8, U16, I16, U32, I32, U64, I64:
		return true
	}
	return false
}

// IsSigned reports whether p is a signed integer primitive.
func (p Primitive) IsSigned() bool {
	switch p {
	case I8, I16, I32, I64, I128:
		return true
	}
	return false
}

// IsFloat reports whether p is a floating point primitive.
func (p Primitive) IsFloat() bool {
	return p == F32 || p == F64
}

// Range returns the inclusive value range of an integer primitive as int64.
// u64 is clamped to MaxInt64.
func (p Primitive) Range() (lo, hi int64) {
	switch p {
	case U8:
		return 0, math.MaxUint8
	case I8:
		return math.MinInt8, math.MaxInt8
	case U16:
		return 0, math.MaxUint16
	case I16:
		return math.MinInt16, math.MaxInt16
	case U32:
		return 0, math.MaxUint32
	case I32:
		return math.MinInt32, math.MaxInt32
	case U64:
		return 0, math.MaxInt64
	case I64:
		return math.MinInt64, math.MaxInt64
	}
	return 0, 0
}

// ParsePrimitive resolves a primitive by its schema name (u8, i16, f64, ...).
func ParsePrimitive(name string) (Primitive, bool) {
	for i, n := range primitiveNames {
		if i > 0 && n == name {
			return Primitive(i), true
		}
	}
	return PrimitiveNone, false
}

// Order selects the byte order of multi-byte primitives.
type Order uint8

const (
	// OrderUnset inherits the order of the enclosing scope.
	OrderUnset Order = iota
	BigEndian
	LittleEndian
	NativeEndian
)

var orderNames = [...]string{
	OrderUnset:   "unset",
	BigEndian:    "big",
	LittleEndian: "little",
	NativeEndian: "native",
}

func (o Order) String() string {
	if int(o) < len(orderNames) {
		return orderNames[o]
	}
	return "unknown"
}

// ByteOrder returns the encoding/binary implementation for o.
// OrderUnset resolves to the host order.
func (o Order) ByteOrder() binary.ByteOrder {
	switch o {
	case BigEndian:
		return binary.BigEndian
	case LittleEndian:
		return binary.LittleEndian
	default:
		return binary.NativeEndian
	}
}

// ParseOrder resolves big, little or native.
func ParseOrder(name string) (Order, bool) {
	for i, n := range orderNames {
		if i > 0 && n == name {
			return Order(i), true
		}
	}
	return OrderUnset, false
}

// Uint128 is an unsigned 128-bit integer.
type Uint128 struct {
	Hi uint64
	Lo uint64
}

// Int128 is a two's complement signed 128-bit integer.
type Int128 struct {
	Hi uint64
	Lo uint64
}

// Int128From sign-extends v.
func Int128From(v int64) Int128 {
	hi := uint64(0)
	if v < 0 {
		hi = math.MaxUint64
	}
	return Int128{Hi: hi, Lo: uint64(v)}
}

func put128(order binary.ByteOrder, buf []byte, hi, lo uint64) {
	if order == binary.LittleEndian || (order == binary.NativeEndian && isLittleHost) {
		order.PutUint64(buf[0:8], lo)
		order.PutUint64(buf[8:16], hi)
		return
	}
	order.PutUint64(buf[0:8], hi)
	order.PutUint64(buf[8:16], lo)
}

func get128(order binary.ByteOrder, buf []byte) (hi, lo uint64) {
	if order == binary.LittleEndian || (order == binary.NativeEndian && isLittleHost) {
		return order.Uint64(buf[8:16]), order.Uint64(buf[0:8])
	}
	return order.Uint64(buf[0:8]), order.Uint64(buf[8:16])
}

var isLittleHost = binary.NativeEndian.Uint16([]byte{1, 0}) == 1
