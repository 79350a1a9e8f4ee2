package transcoder

import (
	"reflect"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/plod/errors"
	"github.com/wippyai/plod/schema"
	"github.com/wippyai/plod/transcoder/internal/abi"
	"github.com/wippyai/plod/wire"
)

// Compiler binds schemas to Go types. Compiled plans are cached and shared;
// a Compiler is safe for concurrent use.
type Compiler struct {
	cache sync.Map // cacheKey -> *CompiledType
	order wire.Order
}

type cacheKey struct {
	schema *schema.Schema
	goType reflect.Type
	order  wire.Order
}

type CompilerOption func(*Compiler)

// WithDefaultOrder sets the byte order of schemas that do not declare one.
func WithDefaultOrder(o wire.Order) CompilerOption {
	return func(c *Compiler) {
		if o != wire.OrderUnset {
			c.order = o
		}
	}
}

func NewCompiler(opts ...CompilerOption) *Compiler {
	c := &Compiler{order: wire.NativeEndian}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DefaultOrder returns the byte order used when a schema declares none.
func (c *Compiler) DefaultOrder() wire.Order {
	return c.order
}

// Compile binds s to goType using the compiler's default byte order.
func (c *Compiler) Compile(s *schema.Schema, goType reflect.Type) (*CompiledType, error) {
	return c.CompileOrdered(s, goType, c.order)
}

// CompileOrdered binds s to goType with order as the inherited byte order.
// Every schema or binding problem is reported here; plans returned by the
// compiler never produce schema errors at encode or decode time.
func (c *Compiler) CompileOrdered(s *schema.Schema, goType reflect.Type, order wire.Order) (*CompiledType, error) {
	if s == nil {
		return nil, errors.New(errors.PhaseCompile, errors.KindNilPointer).
			Detail("schema cannot be nil").
			Build()
	}
	if goType == nil {
		return nil, errors.New(errors.PhaseCompile, errors.KindNilPointer).
			Detail("Go type cannot be nil").
			Build()
	}
	if goType.Kind() == reflect.Ptr {
		goType = goType.Elem()
	}
	if order == wire.OrderUnset {
		order = c.order
	}

	key := cacheKey{schema: s, goType: goType, order: order}
	if cached, ok := c.cache.Load(key); ok {
		return cached.(*CompiledType), nil
	}

	if err := schema.Validate(s); err != nil {
		return nil, err
	}

	sess := &session{compiler: c, building: make(map[cacheKey]*CompiledType)}
	ct, err := sess.composite(s, goType, order, nil)
	if err != nil {
		return nil, err
	}
	resolveSizes(ct)

	for k, v := range sess.building {
		c.cache.LoadOrStore(k, v)
	}
	actual, _ := c.cache.LoadOrStore(key, ct)

	Logger().Debug("compiled type",
		zap.String("schema", s.Name),
		zap.Stringer("go_type", goType),
		zap.Stringer("kind", ct.Kind),
		zap.Stringer("order", order),
		zap.Int("static_size", ct.StaticSize),
		zap.Int("nodes", len(sess.building)))

	return actual.(*CompiledType), nil
}

// session compiles one schema graph. Composites under construction are
// visible in building so recursive references resolve to the same node.
type session struct {
	compiler *Compiler
	building map[cacheKey]*CompiledType
}

func appendPath(path []string, elem string) []string {
	return append(append(make([]string, 0, len(path)+1), path...), elem)
}

func indexPath(path []string, i int) []string {
	return appendPath(path, "["+strconv.Itoa(i)+"]")
}

func (s *session) composite(sc *schema.Schema, goType reflect.Type, inherited wire.Order, path []string) (*CompiledType, error) {
	key := cacheKey{schema: sc, goType: goType, order: inherited}
	if ct, ok := s.building[key]; ok {
		return ct, nil
	}
	if cached, ok := s.compiler.cache.Load(key); ok {
		return cached.(*CompiledType), nil
	}

	if goType.Kind() != reflect.Struct {
		return nil, errors.TypeMismatch(errors.PhaseCompile, path, goType.String(), "struct for "+sc.Name)
	}

	meta, err := schema.Metadata{Order: inherited}.Extend(sc.Meta)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseCompile, errors.KindSchema, err, "metadata merge")
	}

	ct := &CompiledType{
		GoType:   goType,
		Schema:   sc,
		Name:     sc.Name,
		Magic:    sc.Meta.Magic,
		Order:    meta.Order.ByteOrder(),
		Fallback: -1,
	}
	s.building[key] = ct

	switch sc.Shape {
	case schema.ShapeSum:
		ct.Kind = KindSum
		ct.TagType = meta.TagType
		err = s.sum(ct, sc, meta, path)
	default:
		ct.Kind = KindRecord
		ct.Fields, err = s.fields(sc.Fields, goType, meta, path)
	}
	if err != nil {
		return nil, err
	}
	return ct, nil
}

func (s *session) fields(defs []schema.Field, goType reflect.Type, parent schema.Metadata, path []string) ([]CompiledField, error) {
	fields := make([]CompiledField, 0, len(defs))
	for i := range defs {
		def := &defs[i]
		goField, found := findGoField(goType, def.Name)
		if !found {
			return nil, errors.FieldMissing(errors.PhaseCompile, path, def.Name)
		}

		meta, err := parent.Extend(def.Meta)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseCompile, errors.KindSchema, err, "metadata merge")
		}

		fieldPath := appendPath(path, def.Name)
		fieldType, err := s.typ(def.Type, goField.Type, meta, fieldPath)
		if err != nil {
			return nil, err
		}

		fields = append(fields, CompiledField{
			Type:            fieldType,
			Name:            def.Name,
			GoName:          goField.Name,
			GoIndex:         goField.Index[0],
			ProvidesContext: def.ProvidesContext,
		})
	}
	return fields, nil
}

func (s *session) sum(ct *CompiledType, sc *schema.Schema, meta schema.Metadata, path []string) error {
	ct.Cases = make([]CompiledCase, 0, len(sc.Variants))
	for i := range sc.Variants {
		v := &sc.Variants[i]
		vmeta, err := meta.Extend(v.Meta)
		if err != nil {
			return errors.Wrap(errors.PhaseCompile, errors.KindSchema, err, "metadata merge")
		}

		cc := CompiledCase{
			Name:     v.Name,
			Match:    v.Meta.Tag,
			KeepTag:  vmeta.KeepTag.On(),
			Excluded: v.Excluded,
			GoIndex:  -1,
		}
		cc.Emit, _ = v.Meta.Tag.EmitValue()

		casePath := appendPath(path, v.Name)
		goField, found := findGoField(ct.GoType, v.Name)
		if !found {
			if v.Excluded {
				ct.Cases = append(ct.Cases, cc)
				continue
			}
			return errors.FieldMissing(errors.PhaseCompile, path, v.Name)
		}
		if goField.Type.Kind() != reflect.Ptr || goField.Type.Elem().Kind() != reflect.Struct {
			return errors.TypeMismatch(errors.PhaseCompile, casePath, goField.Type.String(), "pointer to struct")
		}

		payloadType := goField.Type.Elem()
		payload := &CompiledType{
			GoType:   payloadType,
			Name:     sc.Name + "::" + v.Name,
			Order:    vmeta.Order.ByteOrder(),
			Kind:     KindRecord,
			Fallback: -1,
		}
		payload.Fields, err = s.fields(v.Fields, payloadType, vmeta, casePath)
		if err != nil {
			return err
		}

		cc.Type = payload
		cc.GoIndex = goField.Index[0]
		cc.GoName = goField.Name
		if !v.Excluded && v.Meta.Tag.IsDefault() {
			ct.Fallback = i
		}
		ct.Cases = append(ct.Cases, cc)
	}
	return nil
}

func (s *session) typ(t schema.Type, goType reflect.Type, meta schema.Metadata, path []string) (*CompiledType, error) {
	order := meta.Order.ByteOrder()

	switch t.Kind {
	case schema.KindPrimitive:
		if err := validatePrimitive(t.Primitive, goType, path); err != nil {
			return nil, err
		}
		return &CompiledType{
			GoType:    goType,
			Order:     order,
			Name:      t.Primitive.String(),
			Kind:      KindPrimitive,
			Primitive: t.Primitive,
			Fallback:  -1,
		}, nil

	case schema.KindComposite:
		return s.composite(t.Schema, goType, meta.Order, path)

	case schema.KindFixedArray:
		if goType.Kind() != reflect.Array || goType.Len() != t.Len {
			return nil, errors.TypeMismatch(errors.PhaseCompile, path, goType.String(), t.String())
		}
		elem, err := s.typ(*t.Elem, goType.Elem(), meta, appendPath(path, "[elem]"))
		if err != nil {
			return nil, err
		}
		return &CompiledType{
			GoType:   goType,
			Order:    order,
			Name:     t.String(),
			Elem:     elem,
			Len:      t.Len,
			Kind:     KindArray,
			Fallback: -1,
		}, nil

	case schema.KindTuple:
		return s.tuple(t, goType, meta, path)

	case schema.KindSequence:
		if goType.Kind() != reflect.Slice {
			return nil, errors.TypeMismatch(errors.PhaseCompile, path, goType.String(), "slice")
		}
		seqMeta, err := meta.Extend(t.Meta)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseCompile, errors.KindSchema, err, "metadata merge")
		}
		elem, err := s.typ(*t.Elem, goType.Elem(), seqMeta, appendPath(path, "[elem]"))
		if err != nil {
			return nil, err
		}
		return &CompiledType{
			GoType:    goType,
			Order:     seqMeta.Order.ByteOrder(),
			Name:      t.String(),
			Elem:      elem,
			SizeType:  seqMeta.SizeType,
			ByteSized: seqMeta.ByteSized.On(),
			Kind:      KindSequence,
			Fallback:  -1,
		}, nil

	case schema.KindSkipped:
		ct := &CompiledType{GoType: goType, Order: order, Name: "skip", Kind: KindSkip, Fallback: -1}
		if t.Default != nil {
			def := reflect.New(goType).Elem()
			if !abi.Assign(def, t.Default) {
				return nil, errors.TypeMismatch(errors.PhaseCompile, path, goType.String(), "default "+typeName(t.Default))
			}
			ct.Default = def
		}
		return ct, nil

	case schema.KindContext:
		return &CompiledType{GoType: goType, Order: order, Name: "context", Kind: KindContext, Fallback: -1}, nil

	case schema.KindCustom:
		if !reflect.PointerTo(goType).Implements(customType) {
			return nil, errors.TypeMismatch(errors.PhaseCompile, path, goType.String(), "transcoder.Custom")
		}
		return &CompiledType{GoType: goType, Order: order, Name: goType.String(), Kind: KindCustom, Fallback: -1}, nil
	}

	return nil, errors.New(errors.PhaseCompile, errors.KindUnsupported).
		Path(path...).
		Detail("unsupported schema type: %s", t.Kind).
		Build()
}

func (s *session) tuple(t schema.Type, goType reflect.Type, meta schema.Metadata, path []string) (*CompiledType, error) {
	switch goType.Kind() {
	case reflect.Struct:
		if goType.NumField() != len(t.Elems) {
			return nil, errors.New(errors.PhaseCompile, errors.KindTypeMismatch).
				Path(path...).
				Detail("tuple has %d elements but struct has %d fields", len(t.Elems), goType.NumField()).
				Build()
		}
	case reflect.Array:
		if goType.Len() != len(t.Elems) {
			return nil, errors.New(errors.PhaseCompile, errors.KindTypeMismatch).
				Path(path...).
				Detail("tuple has %d elements but array has length %d", len(t.Elems), goType.Len()).
				Build()
		}
	default:
		return nil, errors.TypeMismatch(errors.PhaseCompile, path, goType.String(), "struct or array")
	}

	fields := make([]CompiledField, 0, len(t.Elems))
	for i := range t.Elems {
		var elemGoType reflect.Type
		name := strconv.Itoa(i)
		if goType.Kind() == reflect.Struct {
			f := goType.Field(i)
			if !f.IsExported() {
				return nil, errors.New(errors.PhaseCompile, errors.KindUnsupported).
					Path(path...).
					Detail("tuple field %s is unexported", f.Name).
					Build()
			}
			elemGoType = f.Type
		} else {
			elemGoType = goType.Elem()
		}

		elem, err := s.typ(t.Elems[i], elemGoType, meta, appendPath(path, "["+name+"]"))
		if err != nil {
			return nil, err
		}
		fields = append(fields, CompiledField{Type: elem, Name: name, GoIndex: i})
	}

	return &CompiledType{
		GoType:   goType,
		Order:    meta.Order.ByteOrder(),
		Name:     t.String(),
		Fields:   fields,
		Kind:     KindTuple,
		Fallback: -1,
	}, nil
}

var (
	uint128Type = reflect.TypeOf(wire.Uint128{})
	int128Type  = reflect.TypeOf(wire.Int128{})
)

var primitiveKinds = [...]reflect.Kind{
	wire.Bool: reflect.Bool,
	wire.U8:   reflect.Uint8,
	wire.I8:   reflect.Int8,
	wire.U16:  reflect.Uint16,
	wire.I16:  reflect.Int16,
	wire.U32:  reflect.Uint32,
	wire.I32:  reflect.Int32,
	wire.U64:  reflect.Uint64,
	wire.I64:  reflect.Int64,
	wire.F32:  reflect.Float32,
	wire.F64:  reflect.Float64,
}

func validatePrimitive(p wire.Primitive, goType reflect.Type, path []string) error {
	var valid bool
	var expected string

	switch p {
	case wire.U128:
		valid = goType.Kind() == reflect.Struct && goType.ConvertibleTo(uint128Type)
		expected = "wire.Uint128"
	case wire.I128:
		valid = goType.Kind() == reflect.Struct && goType.ConvertibleTo(int128Type)
		expected = "wire.Int128"
	default:
		if int(p) < len(primitiveKinds) && p.Valid() {
			valid = goType.Kind() == primitiveKinds[p]
			expected = primitiveKinds[p].String()
		}
	}

	if !valid {
		return errors.TypeMismatch(errors.PhaseCompile, path, goType.String(), expected)
	}
	return nil
}

// findGoField matches by: 1) plod:"name" tag, 2) case-insensitive name,
// 3) name with '_' and '-' removed, 4) a numeric name as field position.
func findGoField(goType reflect.Type, name string) (reflect.StructField, bool) {
	loose := strings.NewReplacer("_", "", "-", "").Replace(name)

	var byName reflect.StructField
	found := false
	for i := 0; i < goType.NumField(); i++ {
		field := goType.Field(i)
		if !field.IsExported() {
			continue
		}

		if tag, ok := field.Tag.Lookup("plod"); ok {
			tag, _, _ = strings.Cut(tag, ",")
			if tag == "-" {
				continue
			}
			if tag == name {
				return field, true
			}
			if tag != "" {
				continue
			}
		}

		if !found && (strings.EqualFold(field.Name, name) || strings.EqualFold(field.Name, loose)) {
			byName, found = field, true
		}
	}
	if found {
		return byName, true
	}

	if n, err := strconv.Atoi(name); err == nil && n >= 0 && n < goType.NumField() {
		field := goType.Field(n)
		if field.IsExported() && field.Tag.Get("plod") != "-" {
			return field, true
		}
	}
	return reflect.StructField{}, false
}
