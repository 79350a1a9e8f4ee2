// Package abi provides internal utilities for the transcoder.
//
// # Contents
//
//   - coerce.go: numeric coercion of loosely typed values (document defaults, contexts)
//   - helpers.go: overflow-checked size arithmetic, Go integer access and safety limits
//
// This package is internal to the transcoder.
package abi
