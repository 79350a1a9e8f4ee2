package transcoder

import (
	stderrors "errors"
	"reflect"
	"testing"

	"github.com/wippyai/plod/errors"
	"github.com/wippyai/plod/schema"
	"github.com/wippyai/plod/wire"
)

func TestCompiler_Record(t *testing.T) {
	type Point struct {
		X int32
		Y int32
		Z float64 `plod:"depth"`
	}
	s := schema.Record("Point",
		schema.NewField("x", schema.Prim(wire.I32)),
		schema.NewField("y", schema.Prim(wire.I32)),
		schema.NewField("depth", schema.Prim(wire.F64)),
	)

	ct := mustCompile(t, s, Point{})
	if ct.Kind != KindRecord {
		t.Errorf("Kind = %v, want KindRecord", ct.Kind)
	}
	if len(ct.Fields) != 3 {
		t.Fatalf("Fields len = %d, want 3", len(ct.Fields))
	}
	if ct.Fields[2].GoName != "Z" {
		t.Errorf("depth bound to %s, want Z", ct.Fields[2].GoName)
	}
	if ct.StaticSize != 16 {
		t.Errorf("StaticSize = %d, want 16", ct.StaticSize)
	}
}

func TestCompiler_Tuple(t *testing.T) {
	type Pair struct {
		A uint16
		B uint32
	}
	tuple := schema.Tuple(schema.Prim(wire.U16), schema.Prim(wire.U32))

	t.Run("struct", func(t *testing.T) {
		type Rec struct{ P Pair }
		ct := mustCompile(t, schema.Record("R", schema.NewField("p", tuple)), Rec{})
		p := ct.Fields[0].Type
		if p.Kind != KindTuple || len(p.Fields) != 2 {
			t.Errorf("tuple compiled as %v with %d fields", p.Kind, len(p.Fields))
		}
		if p.StaticSize != 6 {
			t.Errorf("StaticSize = %d, want 6", p.StaticSize)
		}
	})

	t.Run("array", func(t *testing.T) {
		type Rec struct{ P [3]uint32 }
		s := schema.Record("R", schema.NewField("p",
			schema.Tuple(schema.Prim(wire.U32), schema.Prim(wire.U32), schema.Prim(wire.U32))))
		ct := mustCompile(t, s, Rec{})
		if ct.Fields[0].Type.Kind != KindTuple {
			t.Errorf("Kind = %v, want KindTuple", ct.Fields[0].Type.Kind)
		}
	})

	t.Run("arity mismatch", func(t *testing.T) {
		type Rec struct{ P Pair }
		s := schema.Record("R", schema.NewField("p", schema.Tuple(schema.Prim(wire.U16))))
		_, err := NewCompiler().Compile(s, reflect.TypeOf(Rec{}))
		if kindOf(err) != errors.KindTypeMismatch {
			t.Errorf("err = %v, want type_mismatch", err)
		}
	})

	t.Run("unit", func(t *testing.T) {
		type Rec struct {
			U struct{}
			N uint8
		}
		s := schema.Record("R", schema.NewField("u", schema.Tuple()), schema.NewField("n", schema.Prim(wire.U8)))
		ct := mustCompile(t, s, Rec{})
		if ct.StaticSize != 1 {
			t.Errorf("StaticSize = %d, want 1", ct.StaticSize)
		}
	})
}

func TestCompiler_Errors(t *testing.T) {
	type Small struct{ A uint16 }

	tests := []struct {
		name   string
		schema *schema.Schema
		goType reflect.Type
		want   errors.Kind
	}{
		{
			name:   "nil schema",
			goType: reflect.TypeOf(Small{}),
			want:   errors.KindNilPointer,
		},
		{
			name:   "nil type",
			schema: schema.Record("R"),
			want:   errors.KindNilPointer,
		},
		{
			name:   "missing field",
			schema: schema.Record("R", schema.NewField("b", schema.Prim(wire.U16))),
			goType: reflect.TypeOf(Small{}),
			want:   errors.KindFieldMissing,
		},
		{
			name:   "primitive mismatch",
			schema: schema.Record("R", schema.NewField("a", schema.Prim(wire.U32))),
			goType: reflect.TypeOf(Small{}),
			want:   errors.KindTypeMismatch,
		},
		{
			name:   "record bound to non-struct",
			schema: schema.Record("R"),
			goType: reflect.TypeOf(uint16(0)),
			want:   errors.KindTypeMismatch,
		},
		{
			name:   "sequence bound to array",
			schema: schema.Record("R", schema.NewField("a", schema.Seq(schema.Prim(wire.U8)), schema.SizeType(wire.U8))),
			goType: reflect.TypeOf(struct{ A [2]uint8 }{}),
			want:   errors.KindTypeMismatch,
		},
		{
			name:   "array length mismatch",
			schema: schema.Record("R", schema.NewField("a", schema.Array(schema.Prim(wire.U8), 3))),
			goType: reflect.TypeOf(struct{ A [2]uint8 }{}),
			want:   errors.KindTypeMismatch,
		},
		{
			name:   "invalid schema",
			schema: schema.Record("R", schema.NewField("a", schema.Seq(schema.Prim(wire.U8)))),
			goType: reflect.TypeOf(struct{ A []uint8 }{}),
			want:   errors.KindSchema,
		},
		{
			name:   "custom without codec",
			schema: schema.Record("R", schema.NewField("a", schema.Custom())),
			goType: reflect.TypeOf(Small{}),
			want:   errors.KindTypeMismatch,
		},
		{
			name:   "skip default of wrong type",
			schema: schema.Record("R", schema.NewField("a", schema.Skip("text"))),
			goType: reflect.TypeOf(Small{}),
			want:   errors.KindTypeMismatch,
		},
		{
			name: "variant is not a pointer",
			schema: schema.Sum("S", wire.U8,
				schema.NewVariant("A", schema.Tag(1)),
			),
			goType: reflect.TypeOf(struct{ A struct{} }{}),
			want:   errors.KindTypeMismatch,
		},
		{
			name: "variant missing",
			schema: schema.Sum("S", wire.U8,
				schema.NewVariant("A", schema.Tag(1)),
				schema.NewVariant("B", schema.Tag(2)),
			),
			goType: reflect.TypeOf(struct{ A *struct{} }{}),
			want:   errors.KindFieldMissing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCompiler().Compile(tt.schema, tt.goType)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := kindOf(err); got != tt.want {
				t.Errorf("kind = %s, want %s (%v)", got, tt.want, err)
			}
			var e *errors.Error
			if stderrors.As(err, &e) && e.Phase != errors.PhaseCompile {
				t.Errorf("phase = %s, want compile", e.Phase)
			}
		})
	}
}

func TestCompiler_Cache(t *testing.T) {
	type Rec struct{ A uint16 }
	s := schema.Record("R", schema.NewField("a", schema.Prim(wire.U16)))
	c := NewCompiler()

	first, err := c.Compile(s, reflect.TypeOf(Rec{}))
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.Compile(s, reflect.TypeOf(&Rec{}))
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("pointer and value type should share one cached plan")
	}

	be, err := c.CompileOrdered(s, reflect.TypeOf(Rec{}), wire.BigEndian)
	if err != nil {
		t.Fatal(err)
	}
	if be == first {
		t.Error("different inherited order must compile a separate plan")
	}
}

func TestCompiler_OrderInheritance(t *testing.T) {
	type Leaf struct{ V uint16 }
	type Rec struct {
		Inherit Leaf
		Own     Leaf
	}
	inherit := schema.Record("Inherit", schema.NewField("v", schema.Prim(wire.U16)))
	own := schema.Record("Own", schema.NewField("v", schema.Prim(wire.U16))).WithOrder(wire.LittleEndian)
	s := schema.Record("Rec",
		schema.NewField("inherit", schema.Struct(inherit)),
		schema.NewField("own", schema.Struct(own)),
	).WithOrder(wire.BigEndian)

	ct := mustCompile(t, s, Rec{})
	got := marshal(t, ct, Rec{Inherit: Leaf{V: 1}, Own: Leaf{V: 1}}, nil)
	want := []byte{0x00, 0x01, 0x01, 0x00}
	if string(got) != string(want) {
		t.Errorf("encoded % x, want % x", got, want)
	}
}

func TestCompiler_DefaultOrder(t *testing.T) {
	type Rec struct{ A uint32 }
	s := schema.Record("R", schema.NewField("a", schema.Prim(wire.U32)))

	c := NewCompiler(WithDefaultOrder(wire.BigEndian))
	ct, err := c.Compile(s, reflect.TypeOf(Rec{}))
	if err != nil {
		t.Fatal(err)
	}
	got, err := NewEncoder().Marshal(ct, Rec{A: 0x01020304}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "\x01\x02\x03\x04" {
		t.Errorf("encoded % x, want big-endian", got)
	}
}

func TestCompiler_Recursive(t *testing.T) {
	ct := mustCompile(t, listSchema(), list{})
	if ct.Kind != KindSum {
		t.Fatalf("Kind = %v, want KindSum", ct.Kind)
	}
	if ct.HasStaticSize() {
		t.Error("recursive type cannot have a static size")
	}
	cons := ct.Cases[1].Type
	node := cons.Fields[0].Type
	if node.Fields[1].Type != ct {
		t.Error("recursive reference should resolve to the same plan node")
	}
}

func TestFindGoField(t *testing.T) {
	type S struct {
		TagType  uint8
		Renamed  uint8 `plod:"wire_name"`
		Hidden   uint8 `plod:"-"`
		KeepDiff uint8
		private  uint8
	}
	goType := reflect.TypeOf(S{})

	tests := []struct {
		name   string
		want   string
		wantOK bool
	}{
		{"tag_type", "TagType", true},
		{"TAGTYPE", "TagType", true},
		{"wire_name", "Renamed", true},
		{"renamed", "", false},
		{"hidden", "", false},
		{"keep-diff", "KeepDiff", true},
		{"0", "TagType", true},
		{"private", "", false},
		{"9", "", false},
	}
	for _, tt := range tests {
		f, ok := findGoField(goType, tt.name)
		if ok != tt.wantOK || (ok && f.Name != tt.want) {
			t.Errorf("findGoField(%q) = %s, %v; want %s, %v", tt.name, f.Name, ok, tt.want, tt.wantOK)
		}
	}
}
