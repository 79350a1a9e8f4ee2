package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseCompile Phase = "compile" // schema validation and Go type binding
	PhaseSize    Phase = "size"    // encoded size computation
	PhaseEncode  Phase = "encode"  // Go to wire
	PhaseDecode  Phase = "decode"  // wire to Go
	PhaseLoad    Phase = "load"    // schema document loading
)

// Kind categorizes the error
type Kind string

const (
	KindIO                       Kind = "io"
	KindUnrecognizedDiscriminant Kind = "unrecognized_discriminant"
	KindMalformedLength          Kind = "malformed_length"
	KindBadMagic                 Kind = "bad_magic"
	KindUnencodableVariant       Kind = "unencodable_variant"
	KindSchema                   Kind = "schema"
	KindTypeMismatch             Kind = "type_mismatch"
	KindOverflow                 Kind = "overflow"
	KindInvalidData              Kind = "invalid_data"
	KindUnsupported              Kind = "unsupported"
	KindNilPointer               Kind = "nil_pointer"
	KindFieldMissing             Kind = "field_missing"
)

// Sentinels match any *Error of the same Kind, regardless of phase or path:
//
//	if errors.Is(err, errors.ErrBadMagic) { ... }
var (
	ErrIO                       = &Error{Kind: KindIO}
	ErrUnrecognizedDiscriminant = &Error{Kind: KindUnrecognizedDiscriminant}
	ErrMalformedLength          = &Error{Kind: KindMalformedLength}
	ErrBadMagic                 = &Error{Kind: KindBadMagic}
	ErrUnencodableVariant       = &Error{Kind: KindUnencodableVariant}
	ErrSchema                   = &Error{Kind: KindSchema}
	ErrInvalidData              = &Error{Kind: KindInvalidData}
)

// Error is the structured error type used throughout plod
type Error struct {
	Value      any
	Cause      error
	Phase      Phase
	Kind       Kind
	GoType     string
	SchemaType string
	Detail     string
	Path       []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.GoType != "" || e.SchemaType != "" {
		b.WriteString(": ")
		if e.GoType != "" && e.SchemaType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
			b.WriteString(", schema type ")
			b.WriteString(e.SchemaType)
		} else if e.GoType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		} else {
			b.WriteString("schema type ")
			b.WriteString(e.SchemaType)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.SchemaType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. A target without a Phase
// (the package sentinels) matches on Kind alone.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		if t.Phase == "" {
			return e.Kind == t.Kind
		}
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// SchemaType sets the schema type name
func (b *Builder) SchemaType(t string) *Builder {
	b.err.SchemaType = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// IO wraps a stream failure. The cause is kept verbatim so callers can
// match io.EOF, io.ErrUnexpectedEOF or their own stream errors.
func IO(phase Phase, path []string, cause error) *Error {
	return &Error{
		Phase: phase,
		Kind:  KindIO,
		Path:  path,
		Cause: cause,
	}
}

// Schema creates a schema declaration error
func Schema(phase Phase, path []string, detail string, args ...any) *Error {
	if len(args) > 0 {
		detail = fmt.Sprintf(detail, args...)
	}
	return &Error{
		Phase:  phase,
		Kind:   KindSchema,
		Path:   path,
		Detail: detail,
	}
}

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, goType, schemaType string) *Error {
	return &Error{
		Phase:      phase,
		Kind:       KindTypeMismatch,
		Path:       path,
		GoType:     goType,
		SchemaType: schemaType,
	}
}

// UnrecognizedDiscriminant creates an error for a sum-type tag that matched
// no variant and had no default to fall back to.
func UnrecognizedDiscriminant(path []string, typeName string, disc int64) *Error {
	return &Error{
		Phase:      PhaseDecode,
		Kind:       KindUnrecognizedDiscriminant,
		Path:       path,
		SchemaType: typeName,
		Detail:     fmt.Sprintf("discriminant %d matches no variant", disc),
		Value:      disc,
	}
}

// MalformedLength creates a sequence length accounting error
func MalformedLength(path []string, detail string, args ...any) *Error {
	if len(args) > 0 {
		detail = fmt.Sprintf(detail, args...)
	}
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindMalformedLength,
		Path:   path,
		Detail: detail,
	}
}

// BadMagic creates a magic literal mismatch error
func BadMagic(path []string, typeName string, want, got uint64) *Error {
	return &Error{
		Phase:      PhaseDecode,
		Kind:       KindBadMagic,
		Path:       path,
		SchemaType: typeName,
		Detail:     fmt.Sprintf("magic 0x%x, want 0x%x", got, want),
		Value:      got,
	}
}

// UnencodableVariant creates an error for encoding a variant excluded from the wire
func UnencodableVariant(path []string, typeName, variant string) *Error {
	return &Error{
		Phase:      PhaseEncode,
		Kind:       KindUnencodableVariant,
		Path:       path,
		SchemaType: typeName,
		Detail:     fmt.Sprintf("variant %s cannot be encoded", variant),
		Value:      variant,
	}
}

// FieldMissing creates a missing field error
func FieldMissing(phase Phase, path []string, fieldName string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindFieldMissing,
		Path:   path,
		Detail: fmt.Sprintf("required field %q not found", fieldName),
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// NilPointer creates a nil pointer error
func NilPointer(phase Phase, path []string, goType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNilPointer,
		Path:   path,
		GoType: goType,
		Detail: "nil pointer",
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, path []string, value any, targetType string) *Error {
	return &Error{
		Phase:      phase,
		Kind:       KindOverflow,
		Path:       path,
		SchemaType: targetType,
		Detail:     fmt.Sprintf("value %v overflows %s", value, targetType),
		Value:      value,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Load creates a schema document loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindSchema,
		Detail: detail,
		Cause:  cause,
	}
}
