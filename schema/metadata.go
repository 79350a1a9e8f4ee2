package schema

import (
	"strconv"
	"strings"

	"dario.cat/mergo"

	"github.com/wippyai/plod/wire"
)

// Flag is a tri-state boolean so an inner scope can switch off a flag it inherited.
type Flag uint8

const (
	FlagUnset Flag = iota
	FlagOn
	FlagOff
)

// On reports whether the flag is explicitly set.
func (f Flag) On() bool {
	return f == FlagOn
}

// FlagOf converts a bool to an explicit Flag.
func FlagOf(v bool) Flag {
	if v {
		return FlagOn
	}
	return FlagOff
}

// TagRange is an inclusive range of discriminant values. A literal is Lo == Hi.
type TagRange struct {
	Lo int64
	Hi int64
}

// TagMatch selects a sum-type variant from its discriminant. An empty match
// marks the default variant.
type TagMatch struct {
	// Emit is the literal written on encode when the match is not a single value.
	Emit   *int64
	Ranges []TagRange
}

// Tag matches a single literal discriminant.
func Tag(v int64) TagMatch {
	return TagMatch{Ranges: []TagRange{{Lo: v, Hi: v}}}
}

// TagSet matches any of the given literals.
func TagSet(vs ...int64) TagMatch {
	m := TagMatch{Ranges: make([]TagRange, len(vs))}
	for i, v := range vs {
		m.Ranges[i] = TagRange{Lo: v, Hi: v}
	}
	return m
}

// TagBetween matches the inclusive range [lo, hi].
func TagBetween(lo, hi int64) TagMatch {
	return TagMatch{Ranges: []TagRange{{Lo: lo, Hi: hi}}}
}

// Or returns the union of m and other. Emit is taken from m, then other.
func (m TagMatch) Or(other TagMatch) TagMatch {
	out := TagMatch{Emit: m.Emit, Ranges: make([]TagRange, 0, len(m.Ranges)+len(other.Ranges))}
	out.Ranges = append(out.Ranges, m.Ranges...)
	out.Ranges = append(out.Ranges, other.Ranges...)
	if out.Emit == nil {
		out.Emit = other.Emit
	}
	return out
}

// Emitting returns m with an explicit encode literal.
func (m TagMatch) Emitting(v int64) TagMatch {
	m.Emit = &v
	return m
}

// IsDefault reports whether m matches nothing explicitly, i.e. it is the fallback.
func (m TagMatch) IsDefault() bool {
	return len(m.Ranges) == 0
}

// Matches reports whether v is a literal of m or falls inside one of its ranges.
func (m TagMatch) Matches(v int64) bool {
	for _, r := range m.Ranges {
		if v >= r.Lo && v <= r.Hi {
			return true
		}
	}
	return false
}

// EmitValue returns the discriminant to write on encode: the explicit Emit,
// or the literal when m is exactly one value.
func (m TagMatch) EmitValue() (int64, bool) {
	if m.Emit != nil {
		return *m.Emit, true
	}
	if len(m.Ranges) == 1 && m.Ranges[0].Lo == m.Ranges[0].Hi {
		return m.Ranges[0].Lo, true
	}
	return 0, false
}

func (m TagMatch) String() string {
	if m.IsDefault() {
		return "_"
	}
	parts := make([]string, len(m.Ranges))
	for i, r := range m.Ranges {
		if r.Lo == r.Hi {
			parts[i] = strconv.FormatInt(r.Lo, 10)
		} else {
			parts[i] = strconv.FormatInt(r.Lo, 10) + "..=" + strconv.FormatInt(r.Hi, 10)
		}
	}
	return strings.Join(parts, "|")
}

// Magic is a literal validated at the start of a type's layout.
type Magic struct {
	Value uint64
	Type  wire.Primitive
}

// IsZero reports whether no magic is declared.
func (m Magic) IsZero() bool {
	return m.Type == wire.PrimitiveNone
}

// Metadata is the per-scope encoding configuration. Scopes nest
// type → variant → field → sequence; see Extend.
type Metadata struct {
	Tag   TagMatch
	Magic Magic
	// KeepDiff is accepted and carried but has no effect on the wire.
	KeepDiff  int64
	TagType   wire.Primitive
	SizeType  wire.Primitive
	KeepTag   Flag
	ByteSized Flag
	Order     wire.Order
}

// Extend layers inner over m and returns the effective metadata of the
// inner scope. Set values in inner win; unset values are inherited, except
// Tag and Magic which belong to the scope that declares them.
func (m Metadata) Extend(inner Metadata) (Metadata, error) {
	out := m
	out.Tag = TagMatch{}
	out.Magic = Magic{}
	if err := mergo.Merge(&out, inner, mergo.WithOverride); err != nil {
		return Metadata{}, err
	}
	return out, nil
}
