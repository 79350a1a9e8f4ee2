// Package layout computes static encoded sizes for compiled types.
//
// A type has a static size when every value encodes to the same number of
// bytes, independent of its content:
//   - Primitives: their fixed width
//   - Skipped and context fields: 0
//   - Arrays: length times element size
//   - Records and tuples: magic width plus the sum of their fields
//   - Sums: when every encodable variant totals the same size
//   - Sequences and custom types: never
//
// Static sizes let the sizer skip value inspection and let the sequence
// decoder reject byte budgets that are not a multiple of the element size.
//
// This package is internal to the transcoder.
package layout
