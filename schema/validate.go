package schema

import (
	"github.com/wippyai/plod/errors"
	"github.com/wippyai/plod/wire"
)

// Validate checks s and every schema reachable from it for declarations that
// cannot produce a working codec. The first problem found is returned as a
// compile-phase schema error.
func Validate(s *Schema) error {
	v := &validator{seen: make(map[*Schema]bool)}
	return v.schema(nil, s)
}

type validator struct {
	seen map[*Schema]bool
}

func sub(path []string, name string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, name)
}

func fail(path []string, detail string, args ...any) error {
	return errors.Schema(errors.PhaseCompile, path, detail, args...)
}

func (v *validator) schema(path []string, s *Schema) error {
	if s == nil {
		return fail(path, "nil schema")
	}
	if v.seen[s] {
		return nil
	}
	v.seen[s] = true

	name := s.Name
	if name == "" {
		name = "<anonymous>"
	}
	path = sub(path, name)

	if !s.Meta.Magic.IsZero() {
		if err := checkMagic(path, s.Meta.Magic); err != nil {
			return err
		}
	}

	switch s.Shape {
	case ShapeRecord:
		if len(s.Variants) > 0 {
			return fail(path, "record declares variants")
		}
		return v.fields(path, s.Fields, s.Meta)
	case ShapeSum:
		if len(s.Fields) > 0 {
			return fail(path, "sum type declares fields outside its variants")
		}
		return v.sum(path, s)
	}
	return fail(path, "unknown shape %d", s.Shape)
}

func checkMagic(path []string, m Magic) error {
	if !m.Type.IsInteger() {
		return fail(path, "magic type %s is not an integer", m.Type)
	}
	if size := m.Type.Size(); size < 8 && m.Value>>(8*size) != 0 {
		return fail(path, "magic 0x%x does not fit %s", m.Value, m.Type)
	}
	return nil
}

func (v *validator) sum(path []string, s *Schema) error {
	tagType := s.Meta.TagType
	if tagType == wire.PrimitiveNone {
		return fail(path, "tag_type is mandatory for sum types")
	}
	if !tagType.IsInteger() {
		return fail(path, "tag_type %s is not an integer", tagType)
	}
	if len(s.Variants) == 0 {
		return fail(path, "sum type has no variants")
	}
	lo, hi := tagType.Range()

	names := make(map[string]bool, len(s.Variants))
	var tagged []*Variant
	var fallback *Variant

	for i := range s.Variants {
		vr := &s.Variants[i]
		vpath := sub(path, vr.Name)
		if vr.Name == "" {
			return fail(vpath, "variant %d has no name", i)
		}
		if names[vr.Name] {
			return fail(vpath, "duplicate variant %s", vr.Name)
		}
		names[vr.Name] = true

		meta, err := s.Meta.Extend(vr.Meta)
		if err != nil {
			return fail(vpath, "metadata: %v", err)
		}
		if !vr.Meta.Magic.IsZero() {
			return fail(vpath, "magic belongs on a record or sum type, not on variant %s", vr.Name)
		}
		tag := vr.Meta.Tag
		for _, r := range tag.Ranges {
			if r.Lo > r.Hi {
				return fail(vpath, "empty tag range %d..=%d", r.Lo, r.Hi)
			}
			if r.Lo < lo || r.Hi > hi {
				return fail(vpath, "tag %s outside %s range", tag, tagType)
			}
		}

		if !vr.Excluded {
			if tag.IsDefault() {
				if fallback != nil {
					return fail(vpath, "multiple default variants: %s and %s", fallback.Name, vr.Name)
				}
				fallback = vr
			} else if fallback != nil {
				return fail(vpath, "default variant %s must be declared after every tagged variant", fallback.Name)
			}

			if meta.KeepTag.On() {
				if len(vr.Fields) == 0 {
					return fail(vpath, "keep_tag requires a first field to hold the tag")
				}
				first := vr.Fields[0].Type
				if first.Kind != KindPrimitive || first.Primitive != tagType {
					return fail(vpath, "keep_tag field %s has type %s, want %s", vr.Fields[0].Name, first, tagType)
				}
				fmeta, err := meta.Extend(vr.Fields[0].Meta)
				if err != nil {
					return fail(vpath, "metadata: %v", err)
				}
				if tagType.Size() > 1 && fmeta.Order != s.Meta.Order {
					return fail(vpath, "keep_tag field %s has order %s, the discriminant is read as %s",
						vr.Fields[0].Name, fmeta.Order, s.Meta.Order)
				}
			} else {
				emit, ok := tag.EmitValue()
				if !ok {
					return fail(vpath, "variant matching %s needs an emit value", tag)
				}
				if emit < lo || emit > hi {
					return fail(vpath, "emit value %d outside %s range", emit, tagType)
				}
				if !tag.IsDefault() && !tag.Matches(emit) {
					return fail(vpath, "emit value %d not matched by %s", emit, tag)
				}
				for _, prev := range tagged {
					if prev.Meta.Tag.Matches(emit) {
						return fail(vpath, "emit value %d decodes as earlier variant %s", emit, prev.Name)
					}
				}
			}

			if !tag.IsDefault() {
				tagged = append(tagged, vr)
			}
		}

		if err := v.fields(vpath, vr.Fields, meta); err != nil {
			return err
		}
	}
	return nil
}

func (v *validator) fields(path []string, fields []Field, parent Metadata) error {
	names := make(map[string]bool, len(fields))
	for i := range fields {
		f := &fields[i]
		fpath := sub(path, f.Name)
		if f.Name == "" {
			return fail(fpath, "field %d has no name", i)
		}
		if names[f.Name] {
			return fail(fpath, "duplicate field %s", f.Name)
		}
		names[f.Name] = true

		meta, err := parent.Extend(f.Meta)
		if err != nil {
			return fail(fpath, "metadata: %v", err)
		}
		if !f.Meta.Magic.IsZero() {
			return fail(fpath, "magic belongs on a record or sum type, not on field %s", f.Name)
		}
		if err := v.typ(fpath, f.Type, meta); err != nil {
			return err
		}
	}
	return nil
}

func (v *validator) typ(path []string, t Type, meta Metadata) error {
	switch t.Kind {
	case KindPrimitive:
		if !t.Primitive.Valid() {
			return fail(path, "invalid primitive %d", t.Primitive)
		}
	case KindComposite:
		return v.schema(path, t.Schema)
	case KindFixedArray:
		if t.Elem == nil {
			return fail(path, "array without element type")
		}
		if t.Len < 0 {
			return fail(path, "negative array length %d", t.Len)
		}
		return v.typ(path, *t.Elem, meta)
	case KindTuple:
		for i := range t.Elems {
			if err := v.typ(path, t.Elems[i], meta); err != nil {
				return err
			}
		}
	case KindSequence:
		if t.Elem == nil {
			return fail(path, "sequence without element type")
		}
		m, err := meta.Extend(t.Meta)
		if err != nil {
			return fail(path, "metadata: %v", err)
		}
		if !t.Meta.Magic.IsZero() {
			return fail(path, "magic belongs on a record or sum type, not on a sequence")
		}
		if m.SizeType == wire.PrimitiveNone {
			return fail(path, "size_type is mandatory for sequences")
		}
		if !m.SizeType.IsInteger() {
			return fail(path, "size_type %s is not an integer", m.SizeType)
		}
		if m.ByteSized.On() && ZeroWidth(*t.Elem) {
			return fail(path, "byte_sized sequence of %s: elements occupy no bytes", t.Elem)
		}
		return v.typ(path, *t.Elem, m)
	case KindSkipped, KindContext, KindCustom:
	default:
		return fail(path, "invalid type kind %s", t.Kind)
	}
	return nil
}

// ZeroWidth reports whether every value of t encodes to zero bytes.
// Custom types are assumed to occupy space.
func ZeroWidth(t Type) bool {
	return zeroWidth(t, make(map[*Schema]bool))
}

func zeroWidth(t Type, visiting map[*Schema]bool) bool {
	switch t.Kind {
	case KindSkipped, KindContext:
		return true
	case KindTuple:
		for _, e := range t.Elems {
			if !zeroWidth(e, visiting) {
				return false
			}
		}
		return true
	case KindFixedArray:
		return t.Len == 0 || (t.Elem != nil && zeroWidth(*t.Elem, visiting))
	case KindComposite:
		s := t.Schema
		if s == nil || s.Shape != ShapeRecord || !s.Meta.Magic.IsZero() || visiting[s] {
			return false
		}
		visiting[s] = true
		defer delete(visiting, s)
		for _, f := range s.Fields {
			if !zeroWidth(f.Type, visiting) {
				return false
			}
		}
		return true
	}
	return false
}
