package transcoder

import (
	"bytes"
	stderrors "errors"
	"reflect"
	"testing"

	"github.com/wippyai/plod/errors"
	"github.com/wippyai/plod/schema"
	"github.com/wippyai/plod/wire"
)

func mustCompile(t *testing.T, s *schema.Schema, sample any) *CompiledType {
	t.Helper()
	ct, err := NewCompiler().Compile(s, reflect.TypeOf(sample))
	if err != nil {
		t.Fatalf("Compile(%s): %v", s.Name, err)
	}
	return ct
}

func marshal(t *testing.T, ct *CompiledType, v any, ctx any) []byte {
	t.Helper()
	out, err := NewEncoder().Marshal(ct, v, ctx)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	size, err := Sizer{}.Size(ct, v)
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if size != len(out) {
		t.Errorf("Size = %d, encoded %d bytes", size, len(out))
	}
	return out
}

// unmarshal decodes data and requires every byte to be consumed.
func unmarshal(t *testing.T, ct *CompiledType, data []byte, ctx any) reflect.Value {
	t.Helper()
	r := wire.NewReader(bytes.NewReader(data))
	v, err := NewDecoder().DecodeAt(r, ct, ctx)
	if err != nil {
		t.Fatalf("Decode(% x): %v", data, err)
	}
	if r.Position() != int64(len(data)) {
		t.Errorf("consumed %d of %d bytes", r.Position(), len(data))
	}
	return v
}

func decodeErr(ct *CompiledType, data []byte, ctx any) (reflect.Value, error) {
	return NewDecoder().Decode(bytes.NewReader(data), ct, ctx)
}

func kindOf(err error) errors.Kind {
	var e *errors.Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}
