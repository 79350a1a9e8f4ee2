package types

import (
	"testing"

	"github.com/wippyai/plod/schema"
)

func TestCompiledTypeSelect(t *testing.T) {
	ct := &CompiledType{
		Kind: KindSum,
		Cases: []Case{
			{Name: "One", Match: schema.Tag(1)},
			{Name: "Two", Match: schema.Tag(2)},
			{Name: "Hidden", Match: schema.Tag(3), Excluded: true},
			{Name: "Range", Match: schema.TagBetween(6, 8).Or(schema.Tag(10))},
			{Name: "Other", Match: schema.Fallback()},
		},
		Fallback: 4,
	}

	tests := []struct {
		tag  int64
		want string
	}{
		{1, "One"},
		{2, "Two"},
		{3, "Other"},
		{7, "Range"},
		{10, "Range"},
		{99, "Other"},
	}
	for _, tc := range tests {
		idx := ct.Select(tc.tag)
		if idx < 0 {
			t.Fatalf("Select(%d) = -1", tc.tag)
		}
		if got := ct.Cases[idx].Name; got != tc.want {
			t.Errorf("Select(%d) = %s, want %s", tc.tag, got, tc.want)
		}
	}

	ct.Fallback = -1
	if got := ct.Select(99); got != -1 {
		t.Errorf("Select without fallback = %d, want -1", got)
	}
}

func TestCompiledTypeHasStaticSize(t *testing.T) {
	if (&CompiledType{StaticSize: 4}).HasStaticSize() {
		t.Error("unsized type reported static size")
	}
	if !(&CompiledType{StaticSize: 4, Sized: true}).HasStaticSize() {
		t.Error("sized type lost static size")
	}
	if (&CompiledType{StaticSize: Variable, Sized: true}).HasStaticSize() {
		t.Error("variable type reported static size")
	}
}
