// Package types defines the compiled plan nodes the transcoder interprets.
//
// A CompiledType binds one schema type to one Go type with everything
// resolved ahead of time: byte order, size prefix types, tag rules, Go field
// indexes and the static encoded size when there is one. Plans may be
// cyclic for recursive schemas.
//
// This package is internal to the transcoder.
package types
