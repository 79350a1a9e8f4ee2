package schemafile

import (
	stderrors "errors"
	"os"
	"strconv"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/plod/errors"
	"github.com/wippyai/plod/schema"
	"github.com/wippyai/plod/wire"
)

// Document is a set of named schemas loaded from YAML.
type Document struct {
	types map[string]*schema.Schema
	names []string
	// Order is the document-wide byte order, OrderUnset when not declared.
	// Compile with it as the inherited order.
	Order wire.Order
}

// Type returns the schema declared as name.
func (d *Document) Type(name string) (*schema.Schema, bool) {
	s, ok := d.types[name]
	return s, ok
}

// Names returns the declared type names in document order.
func (d *Document) Names() []string {
	return append([]string(nil), d.names...)
}

// Load reads and parses the schema document at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Load("read "+path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	Logger().Debug("loaded schema document",
		zap.String("path", path),
		zap.Int("types", len(doc.names)),
		zap.Stringer("order", doc.Order))
	return doc, nil
}

// Parse builds and validates the schemas of a YAML document. References
// between types may be recursive.
func Parse(data []byte) (*Document, error) {
	var raw rawDocument
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Load("parse document", err)
	}

	doc := &Document{types: make(map[string]*schema.Schema)}
	if raw.Order != "" {
		o, ok := wire.ParseOrder(raw.Order)
		if !ok {
			return nil, failf(nil, "unknown byte order %q", raw.Order)
		}
		doc.Order = o
	}

	if raw.Types.Kind != yaml.MappingNode {
		return nil, failf(nil, "document needs a types mapping")
	}

	defs := make(map[string]*rawType, len(raw.Types.Content)/2)
	for i := 0; i+1 < len(raw.Types.Content); i += 2 {
		key, value := raw.Types.Content[i], raw.Types.Content[i+1]
		name := key.Value
		if _, dup := defs[name]; dup {
			return nil, failf([]string{name}, "line %d: type declared twice", key.Line)
		}
		def := &rawType{line: value.Line}
		if err := value.Decode(def); err != nil {
			return nil, errors.New(errors.PhaseLoad, errors.KindSchema).
				Path(name).
				Cause(err).
				Detail("decode type").
				Build()
		}
		defs[name] = def
		doc.names = append(doc.names, name)

		// Shells first so references, recursive ones included, resolve
		// before any type is filled in.
		if def.TagType != "" || len(def.Variants) > 0 {
			doc.types[name] = &schema.Schema{Name: name, Shape: schema.ShapeSum}
		} else {
			doc.types[name] = schema.Record(name)
		}
	}

	b := &builder{doc: doc}
	for _, name := range doc.names {
		if err := b.fill(name, defs[name]); err != nil {
			return nil, err
		}
	}

	for _, name := range doc.names {
		if err := schema.Validate(doc.types[name]); err != nil {
			return nil, asLoad(err)
		}
	}
	return doc, nil
}

func failf(path []string, detail string, args ...any) error {
	return errors.Schema(errors.PhaseLoad, path, detail, args...)
}

// asLoad reports a validation error as a document error.
func asLoad(err error) error {
	var e *errors.Error
	if !stderrors.As(err, &e) {
		return errors.Load("validate", err)
	}
	le := *e
	le.Phase = errors.PhaseLoad
	return &le
}

type builder struct {
	doc *Document
}

func (b *builder) fill(name string, def *rawType) error {
	s := b.doc.types[name]
	path := []string{name}

	meta, err := def.metadata(path)
	if err != nil {
		return err
	}
	s.Meta = meta

	if s.IsSum() {
		if len(def.Fields) > 0 {
			return failf(path, "line %d: sum type declares fields outside its variants", def.line)
		}
		for i := range def.Variants {
			v, err := b.variant(path, &def.Variants[i])
			if err != nil {
				return err
			}
			s.Variants = append(s.Variants, v)
		}
		return nil
	}

	s.Fields, err = b.fields(path, def.Fields)
	return err
}

func (b *builder) variant(path []string, def *rawVariant) (schema.Variant, error) {
	vpath := append(append([]string(nil), path...), def.Name)

	meta, err := def.metadata(vpath)
	if err != nil {
		return schema.Variant{}, err
	}
	if def.Tag != nil {
		meta.Tag = def.Tag.match
	}
	if def.Emit != nil {
		meta.Tag = meta.Tag.Emitting(*def.Emit)
	}

	fields, err := b.fields(vpath, def.Fields)
	if err != nil {
		return schema.Variant{}, err
	}
	return schema.Variant{Name: def.Name, Fields: fields, Meta: meta, Excluded: def.Skip}, nil
}

func (b *builder) fields(path []string, defs []rawField) ([]schema.Field, error) {
	out := make([]schema.Field, 0, len(defs))
	for i := range defs {
		def := &defs[i]
		name := def.Name
		if name == "" {
			name = strconv.Itoa(i)
		}
		fpath := append(append([]string(nil), path...), name)

		meta, err := def.metadata(fpath)
		if err != nil {
			return nil, err
		}
		t, err := b.typ(fpath, &def.Type, def.Default)
		if err != nil {
			return nil, err
		}
		out = append(out, schema.Field{Name: name, Type: t, Meta: meta, ProvidesContext: def.Context})
	}
	return out, nil
}

func (b *builder) typ(path []string, ref *rawTypeRef, def any) (schema.Type, error) {
	switch {
	case ref.Seq != nil:
		elem, err := b.typ(path, ref.Seq, nil)
		if err != nil {
			return schema.Type{}, err
		}
		meta, err := ref.Meta.metadata(path)
		if err != nil {
			return schema.Type{}, err
		}
		return schema.Seq(elem, meta), nil
	case ref.Array != nil:
		elem, err := b.typ(path, ref.Array, nil)
		if err != nil {
			return schema.Type{}, err
		}
		return schema.Array(elem, ref.Len), nil
	case ref.Tuple != nil:
		elems := make([]schema.Type, 0, len(*ref.Tuple))
		for i := range *ref.Tuple {
			t, err := b.typ(path, &(*ref.Tuple)[i], nil)
			if err != nil {
				return schema.Type{}, err
			}
			elems = append(elems, t)
		}
		return schema.Tuple(elems...), nil
	}

	switch ref.Name {
	case "":
		return schema.Type{}, failf(path, "line %d: missing type", ref.line)
	case "skip":
		return schema.Skip(def), nil
	case "context":
		return schema.Context(), nil
	case "()", "unit":
		return schema.Tuple(), nil
	}
	if p, ok := wire.ParsePrimitive(ref.Name); ok {
		return schema.Prim(p), nil
	}
	if s, ok := b.doc.types[ref.Name]; ok {
		return schema.Struct(s), nil
	}
	return schema.Type{}, failf(path, "line %d: unknown type %q", ref.line, ref.Name)
}

func (m *rawMeta) metadata(path []string) (schema.Metadata, error) {
	var out schema.Metadata
	var ok bool

	if m.TagType != "" {
		if out.TagType, ok = wire.ParsePrimitive(m.TagType); !ok {
			return out, failf(path, "unknown tag_type %q", m.TagType)
		}
	}
	if m.SizeType != "" {
		if out.SizeType, ok = wire.ParsePrimitive(m.SizeType); !ok {
			return out, failf(path, "unknown size_type %q", m.SizeType)
		}
	}
	if m.Order != "" {
		if out.Order, ok = wire.ParseOrder(m.Order); !ok {
			return out, failf(path, "unknown byte order %q", m.Order)
		}
	}
	if m.Magic != nil {
		if out.Magic.Type, ok = wire.ParsePrimitive(m.Magic.Type); !ok {
			return out, failf(path, "unknown magic type %q", m.Magic.Type)
		}
		out.Magic.Value = m.Magic.Value
	}
	if m.ByteSized != nil {
		out.ByteSized = schema.FlagOf(*m.ByteSized)
	}
	if m.KeepTag != nil {
		out.KeepTag = schema.FlagOf(*m.KeepTag)
	}
	out.KeepDiff = m.KeepDiff
	return out, nil
}
