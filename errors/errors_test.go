package errors

import (
	"errors"
	"io"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:      PhaseEncode,
				Kind:       KindTypeMismatch,
				Path:       []string{"header", "flags", "0"},
				GoType:     "string",
				SchemaType: "u32",
				Detail:     "cannot convert",
			},
			contains: []string{"[encode]", "type_mismatch", "header.flags.0", "string", "u32", "cannot convert"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseDecode,
				Kind:  KindMalformedLength,
			},
			contains: []string{"[decode]", "malformed_length"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseDecode,
				Kind:   KindIO,
				Detail: "short read",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[decode]", "io", "short read", "caused by", "underlying error"},
		},
		{
			name: "schema type only",
			err: &Error{
				Phase:      PhaseDecode,
				Kind:       KindBadMagic,
				SchemaType: "Header",
				Detail:     "magic 0x1, want 0x2",
			},
			contains: []string{"schema type Header - magic 0x1, want 0x2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !containsSubstring(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseEncode,
		Kind:  KindInvalidData,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}

	// Test with errors.Unwrap
	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseEncode,
		Kind:  KindTypeMismatch,
		Path:  []string{"foo"},
	}

	// Same phase and kind
	if !err.Is(&Error{Phase: PhaseEncode, Kind: KindTypeMismatch}) {
		t.Error("Is should match same phase and kind")
	}

	// Different phase
	if err.Is(&Error{Phase: PhaseDecode, Kind: KindTypeMismatch}) {
		t.Error("Is should not match different phase")
	}

	// Different kind
	if err.Is(&Error{Phase: PhaseEncode, Kind: KindOverflow}) {
		t.Error("Is should not match different kind")
	}

	// Test with errors.Is
	target := &Error{Phase: PhaseEncode, Kind: KindTypeMismatch}
	if !errors.Is(err, target) {
		t.Error("errors.Is should match")
	}
}

func TestSentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"bad magic", BadMagic([]string{"h"}, "Header", 0xbaba, 0), ErrBadMagic},
		{"discriminant", UnrecognizedDiscriminant(nil, "Msg", 99), ErrUnrecognizedDiscriminant},
		{"length", MalformedLength(nil, "budget %d left", 3), ErrMalformedLength},
		{"variant", UnencodableVariant(nil, "Msg", "Reserved"), ErrUnencodableVariant},
		{"schema", Schema(PhaseCompile, nil, "missing size_type"), ErrSchema},
		{"io", IO(PhaseDecode, nil, io.EOF), ErrIO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("errors.Is(%v, sentinel) = false", tt.err)
			}
			if errors.Is(tt.err, &Error{Kind: KindOverflow}) {
				t.Errorf("%v should not match overflow", tt.err)
			}
		})
	}
}

func TestIO_KeepsCause(t *testing.T) {
	err := IO(PhaseDecode, []string{"a"}, io.ErrUnexpectedEOF)
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("IO error should unwrap to the stream error")
	}
	var target *Error
	if !errors.As(err, &target) || target.Kind != KindIO {
		t.Errorf("errors.As = %v", target)
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseEncode, KindTypeMismatch).
		Path("record", "name").
		GoType("string").
		SchemaType("u32").
		Value(42).
		Cause(cause).
		Detail("expected %s, got %s", "string", "int").
		Build()

	if err.Phase != PhaseEncode {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseEncode)
	}
	if err.Kind != KindTypeMismatch {
		t.Errorf("Kind = %v, want %v", err.Kind, KindTypeMismatch)
	}
	if len(err.Path) != 2 || err.Path[0] != "record" || err.Path[1] != "name" {
		t.Errorf("Path = %v, want [record name]", err.Path)
	}
	if err.GoType != "string" {
		t.Errorf("GoType = %v, want 'string'", err.GoType)
	}
	if err.SchemaType != "u32" {
		t.Errorf("SchemaType = %v, want 'u32'", err.SchemaType)
	}
	if err.Value != 42 {
		t.Errorf("Value = %v, want 42", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "expected string, got int" {
		t.Errorf("Detail = %v, want 'expected string, got int'", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("TypeMismatch", func(t *testing.T) {
		err := TypeMismatch(PhaseCompile, []string{"field"}, "int", "u16")
		if err.Kind != KindTypeMismatch {
			t.Errorf("Kind = %v, want %v", err.Kind, KindTypeMismatch)
		}
		if err.GoType != "int" || err.SchemaType != "u16" {
			t.Errorf("GoType=%v SchemaType=%v", err.GoType, err.SchemaType)
		}
	})

	t.Run("UnrecognizedDiscriminant", func(t *testing.T) {
		err := UnrecognizedDiscriminant([]string{"msg"}, "Msg", 99)
		if err.Phase != PhaseDecode {
			t.Errorf("Phase = %v, want %v", err.Phase, PhaseDecode)
		}
		if err.Value != int64(99) {
			t.Errorf("Value = %v, want 99", err.Value)
		}
	})

	t.Run("BadMagic", func(t *testing.T) {
		err := BadMagic(nil, "Header", 0xabcd, 0x1234)
		if !containsSubstring(err.Detail, "0xabcd") || !containsSubstring(err.Detail, "0x1234") {
			t.Errorf("Detail = %v, should contain both values", err.Detail)
		}
	})

	t.Run("FieldMissing", func(t *testing.T) {
		err := FieldMissing(PhaseCompile, []string{"record"}, "name")
		if err.Kind != KindFieldMissing {
			t.Errorf("Kind = %v, want %v", err.Kind, KindFieldMissing)
		}
	})

	t.Run("Unsupported", func(t *testing.T) {
		err := Unsupported(PhaseCompile, "recursive synthesis")
		if err.Kind != KindUnsupported {
			t.Errorf("Kind = %v, want %v", err.Kind, KindUnsupported)
		}
	})

	t.Run("NilPointer", func(t *testing.T) {
		err := NilPointer(PhaseEncode, []string{"ptr"}, "*Header")
		if err.Kind != KindNilPointer {
			t.Errorf("Kind = %v, want %v", err.Kind, KindNilPointer)
		}
		if err.GoType != "*Header" {
			t.Errorf("GoType = %v, want '*Header'", err.GoType)
		}
	})

	t.Run("Overflow", func(t *testing.T) {
		err := Overflow(PhaseEncode, []string{"val"}, 300, "u8")
		if err.Kind != KindOverflow {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOverflow)
		}
		if err.Value != 300 {
			t.Errorf("Value = %v, want 300", err.Value)
		}
	})

	t.Run("Load", func(t *testing.T) {
		cause := errors.New("yaml: line 3")
		err := Load("parse schema document", cause)
		if err.Phase != PhaseLoad || err.Kind != KindSchema {
			t.Errorf("got %v/%v", err.Phase, err.Kind)
		}
		if !errors.Is(err, cause) {
			t.Error("Load should wrap cause")
		}
	})
}

func containsSubstring(s, substr string) bool {
	return len(s) >= len(substr) && (s == substr || len(substr) == 0 ||
		(len(s) > 0 && containsSubstringHelper(s, substr)))
}

func containsSubstringHelper(s, substr string) bool {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
