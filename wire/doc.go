// Package wire provides the fixed-width primitive codec.
//
// Every byte the codec engine reads or writes goes through a Reader or a
// Writer from this package. Both track a cumulative position, the number of
// bytes consumed or produced since the start of the top-level operation, so
// that higher layers can record offsets without counting themselves.
//
// # Primitives
//
//	Primitive   Size   Go type
//	────────────────────────────
//	bool        1      bool (only 0 and 1 decode)
//	u8/i8       1      uint8/int8
//	u16/i16     2      uint16/int16
//	u32/i32     4      uint32/int32
//	u64/i64     8      uint64/int64
//	u128/i128   16     Uint128/Int128
//	f32         4      float32
//	f64         8      float64
//
// # Byte Order
//
// Order selects big, little or native (host) order for multi-byte values.
// Single-byte primitives ignore it. OrderUnset means "inherit from the
// enclosing scope" in schema metadata and resolves to native order when
// nothing sets it.
package wire
