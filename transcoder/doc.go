// Package transcoder provides schema-driven binary encoding and decoding.
//
// This package handles bidirectional conversion between Go values and the
// byte layout a schema.Schema describes:
//
//	┌──────────────────────────────────────────────────────────┐
//	│ Go Value ←→ [CompiledType] ←→ wire.Reader / wire.Writer  │
//	└──────────────────────────────────────────────────────────┘
//
// # Wire Layout
//
// Values are laid out back to back with no alignment or padding:
//
//	Type            Size
//	──────────────────────────────────────────────
//	bool/u8/i8      1
//	u16/i16         2
//	u32/i32/f32     4
//	u64/i64/f64     8
//	u128/i128       16
//	record          magic + sum of fields
//	sum             magic + tag (0 with keep_tag) + payload
//	[T; n]          n * T
//	(A, B, ...)     A + B + ...
//	seq<T>          size_type + elements
//	skip/context    0
//
// A sequence prefix counts elements, or bytes when byte_sized is set.
//
// # Key Types
//
//	Compiler      - Binds a schema to a Go type, caches the plan
//	CompiledType  - Immutable plan with resolved metadata and static sizes
//	Encoder       - Writes Go values
//	Decoder       - Reads Go values, optionally reporting field spans
//	Sizer         - Computes encoded sizes without I/O
//	Registry      - Maps Go types to schemas
//
// # Encoding Flow
//
//  1. Compiler.Compile(schema, goType) → CompiledType
//  2. Sizer.Size(ct, value) → n
//  3. Encoder.Encode(w, ct, value, ctx)
//
// # Decoding Flow
//
//  1. Compiler.Compile(schema, goType) → CompiledType
//  2. Decoder.Decode(r, ct, ctx) → value
//
// Decoding fills a fresh value and returns it only on success. Schema errors
// are reported by the compiler and never by Encode or Decode.
package transcoder
