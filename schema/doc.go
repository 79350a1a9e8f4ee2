// Package schema declares the wire layout of user types.
//
// A Schema is either a record (fields encoded in declaration order) or a sum
// type (a discriminant followed by the payload of the variant it selects).
// Field types are primitives, nested schemas, fixed arrays, tuples,
// length-prefixed sequences, skipped fields, context markers or custom types
// that implement their own codec.
//
//	header := schema.Record("Header",
//		schema.NewField("version", schema.Prim(wire.U16)),
//		schema.NewField("body", schema.Seq(schema.Prim(wire.U8)), schema.SizeType(wire.U32)),
//	).WithOrder(wire.BigEndian).WithMagic(wire.U16, 0xbaba)
//
// # Metadata
//
// Encoding options live in Metadata and nest type → variant → field →
// sequence. Each scope inherits what it does not set; see Metadata.Extend.
// Flags are tri-state so an inner scope can switch an inherited flag off.
//
// # Tag matching
//
// A sum variant is chosen by the first declared variant whose TagMatch
// contains the discriminant. A variant with an empty match is the default and
// must follow every tagged variant. Variants that do not keep the tag write
// their emit value: the single literal, or the explicit Emit.
package schema
