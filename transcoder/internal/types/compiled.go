package types

import (
	"encoding/binary"
	"reflect"

	"github.com/wippyai/plod/schema"
	"github.com/wippyai/plod/wire"
)

// Variable is the StaticSize of a type whose encoded size depends on its value.
const Variable = -1

type CompiledType struct {
	GoType  reflect.Type
	Order   binary.ByteOrder
	Schema  *schema.Schema
	Elem    *CompiledType
	Default reflect.Value
	Name    string
	Fields  []Field
	Cases   []Case
	Magic   schema.Magic
	// StaticSize is the encoded size shared by every value, or Variable.
	// Valid once Sized is set.
	StaticSize int
	Len        int
	Fallback   int
	Primitive  wire.Primitive
	SizeType   wire.Primitive
	TagType    wire.Primitive
	Kind       Kind
	ByteSized  bool
	Sized      bool
}

type Field struct {
	Type            *CompiledType
	Name            string
	GoName          string
	GoIndex         int
	ProvidesContext bool
}

type Case struct {
	// Type is the payload record; nil for an excluded case without a Go field.
	Type     *CompiledType
	Name     string
	GoName   string
	Match    schema.TagMatch
	Emit     int64
	GoIndex  int
	KeepTag  bool
	Excluded bool
}

// HasStaticSize reports whether every value of ct encodes to the same size.
func (ct *CompiledType) HasStaticSize() bool {
	return ct.Sized && ct.StaticSize != Variable
}

// Select returns the index of the case chosen by tag: the first matching
// tagged case in declaration order, then the fallback. It returns -1 when
// nothing matches. Excluded cases are never selected.
func (ct *CompiledType) Select(tag int64) int {
	for i := range ct.Cases {
		c := &ct.Cases[i]
		if c.Excluded || c.Match.IsDefault() {
			continue
		}
		if c.Match.Matches(tag) {
			return i
		}
	}
	return ct.Fallback
}
