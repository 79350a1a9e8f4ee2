package transcoder

import (
	"go/token"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/wippyai/plod/errors"
	"github.com/wippyai/plod/schema"
	"github.com/wippyai/plod/wire"
)

var anyType = reflect.TypeOf((*any)(nil)).Elem()

var primitiveGoTypes = [...]reflect.Type{
	wire.Bool: reflect.TypeOf(false),
	wire.U8:   reflect.TypeOf(uint8(0)),
	wire.I8:   reflect.TypeOf(int8(0)),
	wire.U16:  reflect.TypeOf(uint16(0)),
	wire.I16:  reflect.TypeOf(int16(0)),
	wire.U32:  reflect.TypeOf(uint32(0)),
	wire.I32:  reflect.TypeOf(int32(0)),
	wire.U64:  reflect.TypeOf(uint64(0)),
	wire.I64:  reflect.TypeOf(int64(0)),
	wire.U128: uint128Type,
	wire.I128: int128Type,
	wire.F32:  reflect.TypeOf(float32(0)),
	wire.F64:  reflect.TypeOf(float64(0)),
}

// Synthesize builds a Go struct type for s so that schemas known only at run
// time can be decoded and encoded. Fields carry plod, json, yaml and cbor tags
// with the schema names. A sum type becomes a struct with one omitempty
// pointer per variant. Skipped fields take the type of their default, context
// fields are any. Recursive schemas and custom fields are unsupported.
func Synthesize(s *schema.Schema) (reflect.Type, error) {
	sy := &synthesizer{
		types:    make(map[*schema.Schema]reflect.Type),
		visiting: make(map[*schema.Schema]bool),
	}
	return sy.composite(s, nil)
}

type synthesizer struct {
	types    map[*schema.Schema]reflect.Type
	visiting map[*schema.Schema]bool
}

func (sy *synthesizer) composite(s *schema.Schema, path []string) (reflect.Type, error) {
	if s == nil {
		return nil, errors.NilPointer(errors.PhaseCompile, path, "*schema.Schema")
	}
	if t, ok := sy.types[s]; ok {
		return t, nil
	}
	if sy.visiting[s] {
		return nil, errors.New(errors.PhaseCompile, errors.KindUnsupported).
			Path(path...).
			SchemaType(s.Name).
			Detail("recursive schema %s cannot be synthesized", s.Name).
			Build()
	}
	sy.visiting[s] = true
	defer delete(sy.visiting, s)

	var fields []reflect.StructField
	var err error
	if s.IsSum() {
		fields, err = sy.variants(s, path)
	} else {
		fields, err = sy.fields(s.Fields, path)
	}
	if err != nil {
		return nil, err
	}

	t := reflect.StructOf(fields)
	sy.types[s] = t
	return t, nil
}

func (sy *synthesizer) variants(s *schema.Schema, path []string) ([]reflect.StructField, error) {
	out := make([]reflect.StructField, 0, len(s.Variants))
	seen := make(map[string]string, len(s.Variants))
	for i := range s.Variants {
		v := &s.Variants[i]
		casePath := appendPath(path, v.Name)
		payload, err := sy.fields(v.Fields, casePath)
		if err != nil {
			return nil, err
		}
		sf, err := structField(seen, v.Name, reflect.PointerTo(reflect.StructOf(payload)), true, path)
		if err != nil {
			return nil, err
		}
		out = append(out, sf)
	}
	return out, nil
}

func (sy *synthesizer) fields(defs []schema.Field, path []string) ([]reflect.StructField, error) {
	out := make([]reflect.StructField, 0, len(defs))
	seen := make(map[string]string, len(defs))
	for i := range defs {
		f := &defs[i]
		t, err := sy.typ(f.Type, appendPath(path, f.Name))
		if err != nil {
			return nil, err
		}
		sf, err := structField(seen, f.Name, t, false, path)
		if err != nil {
			return nil, err
		}
		out = append(out, sf)
	}
	return out, nil
}

func (sy *synthesizer) typ(t schema.Type, path []string) (reflect.Type, error) {
	switch t.Kind {
	case schema.KindPrimitive:
		if !t.Primitive.Valid() {
			return nil, errors.Schema(errors.PhaseCompile, path, "invalid primitive %d", t.Primitive)
		}
		return primitiveGoTypes[t.Primitive], nil
	case schema.KindComposite:
		return sy.composite(t.Schema, path)
	case schema.KindFixedArray:
		elem, err := sy.typ(*t.Elem, path)
		if err != nil {
			return nil, err
		}
		return reflect.ArrayOf(t.Len, elem), nil
	case schema.KindTuple:
		fields := make([]reflect.StructField, 0, len(t.Elems))
		seen := make(map[string]string, len(t.Elems))
		for i := range t.Elems {
			et, err := sy.typ(t.Elems[i], indexPath(path, i))
			if err != nil {
				return nil, err
			}
			sf, err := structField(seen, strconv.Itoa(i), et, false, path)
			if err != nil {
				return nil, err
			}
			fields = append(fields, sf)
		}
		return reflect.StructOf(fields), nil
	case schema.KindSequence:
		elem, err := sy.typ(*t.Elem, path)
		if err != nil {
			return nil, err
		}
		return reflect.SliceOf(elem), nil
	case schema.KindSkipped:
		if t.Default != nil {
			return reflect.TypeOf(t.Default), nil
		}
		return anyType, nil
	case schema.KindContext:
		return anyType, nil
	}
	return nil, errors.New(errors.PhaseCompile, errors.KindUnsupported).
		Path(path...).
		Detail("%s fields cannot be synthesized", t.Kind).
		Build()
}

func structField(seen map[string]string, name string, t reflect.Type, omitEmpty bool, path []string) (reflect.StructField, error) {
	goName := exportedName(name)
	if prev, ok := seen[goName]; ok {
		return reflect.StructField{}, errors.New(errors.PhaseCompile, errors.KindUnsupported).
			Path(path...).
			Detail("fields %s and %s both map to Go name %s", prev, name, goName).
			Build()
	}
	seen[goName] = name

	opt := ""
	if omitEmpty {
		opt = ",omitempty"
	}
	tag := `plod:"` + name + `" json:"` + name + opt + `" yaml:"` + name + opt + `" cbor:"` + name + opt + `"`
	return reflect.StructField{Name: goName, Type: t, Tag: reflect.StructTag(tag)}, nil
}

// exportedName turns a schema name such as "tag_type" or "0" into an
// exported Go identifier ("TagType", "F0").
func exportedName(name string) string {
	var b strings.Builder
	upper := true
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			b.WriteRune(unicode.ToUpper(r))
			upper = false
		} else {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if !token.IsExported(out) {
		out = "F" + out
	}
	return out
}
