package schema

import (
	"dario.cat/mergo"

	"github.com/wippyai/plod/wire"
)

// Shape distinguishes records from sum types.
type Shape uint8

const (
	ShapeRecord Shape = iota + 1
	ShapeSum
)

func (s Shape) String() string {
	switch s {
	case ShapeRecord:
		return "record"
	case ShapeSum:
		return "sum"
	}
	return "unknown"
}

// Field is one named member of a record or variant payload.
type Field struct {
	Type Type
	Meta Metadata
	Name string
	// ProvidesContext makes the field's value the context of the fields
	// that follow it in the same record.
	ProvidesContext bool
}

// Variant is one alternative of a sum type: a record-shaped payload plus the
// rule that selects it.
type Variant struct {
	Name   string
	Fields []Field
	Meta   Metadata
	// Excluded variants are never selected by decode and fail encode.
	Excluded bool
}

// Schema describes the wire layout of one user type. A Schema is built once,
// validated by the compiler and treated as immutable afterwards.
type Schema struct {
	Name     string
	Fields   []Field
	Variants []Variant
	Meta     Metadata
	Shape    Shape
}

// Record creates a record schema whose fields are encoded in declaration order.
func Record(name string, fields ...Field) *Schema {
	return &Schema{Name: name, Shape: ShapeRecord, Fields: fields}
}

// Sum creates a sum schema discriminated by a tag of type tagType.
func Sum(name string, tagType wire.Primitive, variants ...Variant) *Schema {
	return &Schema{
		Name:     name,
		Shape:    ShapeSum,
		Variants: variants,
		Meta:     Metadata{TagType: tagType},
	}
}

// WithMeta overlays the set values of m on the type-level metadata.
func (s *Schema) WithMeta(m Metadata) *Schema {
	// Same scope, so Tag and Magic are kept; Extend would drop them.
	overlay(&s.Meta, m)
	return s
}

// WithOrder sets the byte order of the type and, unless overridden, of its nested types.
func (s *Schema) WithOrder(o wire.Order) *Schema {
	s.Meta.Order = o
	return s
}

// WithMagic declares a literal of type p validated at the start of the layout.
func (s *Schema) WithMagic(p wire.Primitive, v uint64) *Schema {
	s.Meta.Magic = Magic{Type: p, Value: v}
	return s
}

// IsSum reports whether s is a sum type.
func (s *Schema) IsSum() bool {
	return s.Shape == ShapeSum
}

// NewField creates a field. Optional metadata is merged left to right.
func NewField(name string, t Type, meta ...Metadata) Field {
	f := Field{Name: name, Type: t}
	for _, m := range meta {
		overlay(&f.Meta, m)
	}
	return f
}

// ContextSource marks f as providing the context for its later siblings.
func (f Field) ContextSource() Field {
	f.ProvidesContext = true
	return f
}

// NewVariant creates a variant selected by tag. Pass Fallback() for the default variant.
func NewVariant(name string, tag TagMatch, fields ...Field) Variant {
	return Variant{Name: name, Fields: fields, Meta: Metadata{Tag: tag}}
}

// Fallback is the empty tag match of the default variant.
func Fallback() TagMatch {
	return TagMatch{}
}

// KeepTag makes the discriminant double as the first payload field.
func (v Variant) KeepTag() Variant {
	v.Meta.KeepTag = FlagOn
	return v
}

// Exclude marks v as never constructible from wire input.
func (v Variant) Exclude() Variant {
	v.Excluded = true
	return v
}

// WithMeta overlays the set values of m on the variant metadata.
func (v Variant) WithMeta(m Metadata) Variant {
	overlay(&v.Meta, m)
	return v
}

// overlay merges the set values of src into dst. mergo only fails for nil,
// non-struct or mismatched arguments, none of which a *Metadata and a
// Metadata can be, so a failure is a programming error.
func overlay(dst *Metadata, src Metadata) {
	if err := mergo.Merge(dst, src, mergo.WithOverride); err != nil {
		panic("schema: metadata merge: " + err.Error())
	}
}

// SizeType is shorthand for metadata declaring a sequence length prefix type.
func SizeType(p wire.Primitive) Metadata {
	return Metadata{SizeType: p}
}

// ByteSized is shorthand for a length prefix of type p counted in bytes.
func ByteSized(p wire.Primitive) Metadata {
	return Metadata{SizeType: p, ByteSized: FlagOn}
}

// Order is shorthand for metadata selecting a byte order.
func Order(o wire.Order) Metadata {
	return Metadata{Order: o}
}
