// Package errors provides structured error types for the plod codec engine.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: field path, Go/schema type names, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseEncode, errors.KindOverflow).
//		Path("header", "count").
//		GoType("int").
//		SchemaType("u8").
//		Detail("sequence length 300 does not fit u8").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.BadMagic(path, "Header", 0xbaba, got)
//	err := errors.MalformedLength(path, "budget overrun by %d bytes", n)
//
// Schema errors (KindSchema) are only produced while compiling or loading a
// schema; decode and encode never return them. Stream failures are KindIO and
// unwrap to the original reader/writer error.
//
// All errors implement the standard error interface and support errors.Is/As.
// The package sentinels (ErrBadMagic, ErrMalformedLength, ...) match on Kind only.
package errors
