package schema

import (
	"strconv"
	"strings"

	"github.com/wippyai/plod/wire"
)

// Kind classifies a Type.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindPrimitive
	KindComposite
	KindFixedArray
	KindTuple
	KindSequence
	KindSkipped
	KindContext
	KindCustom
)

var kindNames = [...]string{
	KindInvalid:    "invalid",
	KindPrimitive:  "primitive",
	KindComposite:  "composite",
	KindFixedArray: "array",
	KindTuple:      "tuple",
	KindSequence:   "sequence",
	KindSkipped:    "skip",
	KindContext:    "context",
	KindCustom:     "custom",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Type is the declared wire shape of one field.
type Type struct {
	// Default is the value a Skipped field decodes to. Nil means the Go zero value.
	Default any
	// Schema is the nested type of a Composite.
	Schema *Schema
	// Elem is the element type of a FixedArray or Sequence.
	Elem *Type
	// Elems are the positional types of a Tuple.
	Elems []Type
	// Meta overrides the field metadata for a Sequence's size prefix.
	Meta      Metadata
	Len       int
	Kind      Kind
	Primitive wire.Primitive
}

// Prim returns a primitive type.
func Prim(p wire.Primitive) Type {
	return Type{Kind: KindPrimitive, Primitive: p}
}

// Struct returns a composite type backed by a nested schema.
func Struct(s *Schema) Type {
	return Type{Kind: KindComposite, Schema: s}
}

// Array returns a fixed-length array of n elements.
func Array(elem Type, n int) Type {
	return Type{Kind: KindFixedArray, Elem: &elem, Len: n}
}

// Tuple returns a positional tuple. Tuple() with no elements is the unit type.
func Tuple(elems ...Type) Type {
	return Type{Kind: KindTuple, Elems: elems}
}

// Seq returns a length-prefixed sequence. The prefix type and byte-sized mode
// come from the field metadata, optionally overridden by meta.
func Seq(elem Type, meta ...Metadata) Type {
	t := Type{Kind: KindSequence, Elem: &elem}
	if len(meta) > 0 {
		t.Meta = meta[0]
	}
	return t
}

// Skip returns a field type that is never on the wire and decodes to def
// (or the Go zero value when def is nil).
func Skip(def any) Type {
	return Type{Kind: KindSkipped, Default: def}
}

// Context returns a field type that is filled from, and written into, the
// context threaded through the operation instead of the wire.
func Context() Type {
	return Type{Kind: KindContext}
}

// Custom returns a field type whose Go type implements its own codec.
func Custom() Type {
	return Type{Kind: KindCustom}
}

// String renders t in the notation used by error messages.
func (t Type) String() string {
	switch t.Kind {
	case KindPrimitive:
		return t.Primitive.String()
	case KindComposite:
		if t.Schema != nil && t.Schema.Name != "" {
			return t.Schema.Name
		}
		return "composite"
	case KindFixedArray:
		return "[" + t.Elem.String() + "; " + strconv.Itoa(t.Len) + "]"
	case KindTuple:
		parts := make([]string, len(t.Elems))
		for i, e := range t.Elems {
			parts[i] = e.String()
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case KindSequence:
		return "seq<" + t.Elem.String() + ">"
	default:
		return t.Kind.String()
	}
}
