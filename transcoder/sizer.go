package transcoder

import (
	"reflect"

	"github.com/wippyai/plod/errors"
)

// Sizer computes encoded sizes without performing any I/O. The zero value
// is ready to use.
type Sizer struct{}

// Size returns the number of bytes encoding v would produce. It fails only
// when v is not a value or pointer of ct's Go type.
func (s Sizer) Size(ct *CompiledType, v any) (int, error) {
	rv, err := valueOf(errors.PhaseSize, ct, v)
	if err != nil {
		return 0, err
	}
	return s.size(ct, rv), nil
}

// SizeValue is Size for a reflected value of ct's Go type.
func (s Sizer) SizeValue(ct *CompiledType, v reflect.Value) int {
	if ct.HasStaticSize() {
		return ct.StaticSize
	}
	if !v.CanAddr() {
		tmp := reflect.New(v.Type()).Elem()
		tmp.Set(v)
		v = tmp
	}
	return s.size(ct, v)
}

func (s Sizer) size(ct *CompiledType, v reflect.Value) int {
	if ct.HasStaticSize() {
		return ct.StaticSize
	}

	switch ct.Kind {
	case KindPrimitive:
		return ct.Primitive.Size()
	case KindRecord, KindTuple:
		n := ct.Magic.Type.Size()
		for i := range ct.Fields {
			f := &ct.Fields[i]
			n += s.size(f.Type, member(v, f.GoIndex))
		}
		return n
	case KindSum:
		n := ct.Magic.Type.Size()
		for i := range ct.Cases {
			cs := &ct.Cases[i]
			if cs.GoIndex < 0 {
				continue
			}
			pv := v.Field(cs.GoIndex)
			if pv.IsNil() {
				continue
			}
			if !cs.KeepTag {
				n += ct.TagType.Size()
			}
			return n + s.size(cs.Type, pv.Elem())
		}
		return n
	case KindArray:
		n := 0
		for i := 0; i < ct.Len; i++ {
			n += s.size(ct.Elem, v.Index(i))
		}
		return n
	case KindSequence:
		total, _ := s.elements(ct, v)
		return ct.SizeType.Size() + total
	case KindCustom:
		return asCustom(v).EncodedSize()
	}
	return 0
}

// elements returns the encoded size of a sequence's elements, without the
// prefix. ok is false when the total does not fit an int.
func (s Sizer) elements(ct *CompiledType, v reflect.Value) (int, bool) {
	n := v.Len()
	if ct.Elem.HasStaticSize() {
		return safeMul(n, ct.Elem.StaticSize)
	}
	total := 0
	for i := 0; i < n; i++ {
		var ok bool
		total, ok = safeAdd(total, s.size(ct.Elem, v.Index(i)))
		if !ok {
			return 0, false
		}
	}
	return total, true
}
