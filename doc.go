// Package plod provides schema-driven binary codecs for Go types.
//
// A schema describes a type's wire layout: fixed-width primitives, records,
// tagged sums, arrays, tuples and length-prefixed sequences, with byte order
// and prefix widths configured per type, variant, field or sequence. The
// engine interprets the schema; no code generation is involved.
//
// # Architecture Overview
//
//	plod/                Root package with the typed Codec and default registry
//	├── wire/            Primitive codec and position-tracking reader/writer
//	├── schema/          Schema model, metadata layering and validation
//	├── transcoder/      Compiler, encoder, decoder, sizer and registry
//	├── schemafile/      YAML schema documents
//	├── errors/          Structured error types
//	└── cmd/plod/        Command line decoder and inspector
//
// # Quick Start
//
//	type Message struct {
//	    ID      uint16
//	    Payload []byte
//	    CRC     uint32
//	}
//
//	s := schema.Record("Message",
//	    schema.NewField("id", schema.Prim(wire.U16)),
//	    schema.NewField("payload", schema.Seq(schema.Prim(wire.U8)), schema.SizeType(wire.U32)),
//	    schema.NewField("crc", schema.Prim(wire.U32)),
//	).WithOrder(wire.BigEndian)
//
//	codec, err := plod.New[Message](s)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	data, err := codec.Marshal(&Message{ID: 1, Payload: []byte{1, 2, 3}, CRC: 5}, nil)
//	// data: 00 01 00 00 00 03 01 02 03 00 00 00 05
//
//	msg, err := codec.Unmarshal(data, nil)
//
// # Sum Types
//
// A sum type is a Go struct with one pointer field per variant. Exactly one
// pointer is set in a well-formed value:
//
//	type Shape struct {
//	    Circle *Circle
//	    Rect   *Rect
//	}
//
// # Errors
//
// Schema problems are reported by New and Register and never by encode or
// decode. Runtime failures match the sentinels in package errors:
//
//	if errors.Is(err, plerrors.ErrBadMagic) { ... }
//
// # Thread Safety
//
// Codec, Compiler and Registry are safe for concurrent use. Each call keeps
// its position and context local.
package plod
