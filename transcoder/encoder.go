package transcoder

import (
	stderrors "errors"
	"fmt"
	"io"
	"math"
	"reflect"

	"github.com/wippyai/plod/errors"
	"github.com/wippyai/plod/transcoder/internal/abi"
	"github.com/wippyai/plod/wire"
)

// Encoder writes values described by compiled plans to byte streams.
// An Encoder holds no per-call state and is safe for concurrent use.
type Encoder struct {
	sizer Sizer
}

func NewEncoder() *Encoder {
	return &Encoder{}
}

// Encode writes v, a value or pointer of ct's Go type, to w. A *wire.Writer
// is used as is, so its position carries over.
func (e *Encoder) Encode(w io.Writer, ct *CompiledType, v any, ctx any) error {
	ww, ok := w.(*wire.Writer)
	if !ok {
		ww = wire.NewWriter(w)
	}
	return e.EncodeAt(ww, ct, v, ctx)
}

// EncodeAt writes v at w's current position. On failure a partial prefix may
// already have been written.
func (e *Encoder) EncodeAt(w *wire.Writer, ct *CompiledType, v any, ctx any) error {
	rv, err := valueOf(errors.PhaseEncode, ct, v)
	if err != nil {
		return err
	}
	return e.encode(w, ct, rv, ctx, nil)
}

// EncodeValue writes a reflected value of ct's Go type.
func (e *Encoder) EncodeValue(w *wire.Writer, ct *CompiledType, v reflect.Value, ctx any) error {
	if !v.IsValid() {
		return errors.NilPointer(errors.PhaseEncode, nil, "invalid reflect.Value")
	}
	return e.EncodeAt(w, ct, v.Interface(), ctx)
}

// Marshal encodes v into a new byte slice.
func (e *Encoder) Marshal(ct *CompiledType, v any, ctx any) ([]byte, error) {
	buf := getBuf()
	defer putBuf(buf)

	if ct != nil && ct.HasStaticSize() {
		buf.Grow(ct.StaticSize)
	}
	if err := e.EncodeAt(wire.NewWriter(buf), ct, v, ctx); err != nil {
		return nil, err
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

// valueOf dereferences v to a value of ct's Go type. The result is
// addressable so custom codecs and float bit access can take its address.
func valueOf(phase errors.Phase, ct *CompiledType, v any) (reflect.Value, error) {
	if ct == nil {
		return reflect.Value{}, errors.New(phase, errors.KindNilPointer).
			Detail("compiled type cannot be nil").
			Build()
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return reflect.Value{}, errors.NilPointer(phase, nil, ct.GoType.String())
	}
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return reflect.Value{}, errors.NilPointer(phase, nil, rv.Type().String())
		}
		rv = rv.Elem()
	}
	if rv.Type() != ct.GoType {
		return reflect.Value{}, errors.TypeMismatch(phase, nil, rv.Type().String(), ct.GoType.String())
	}
	if !rv.CanAddr() {
		tmp := reflect.New(rv.Type()).Elem()
		tmp.Set(rv)
		rv = tmp
	}
	return rv, nil
}

func writeErr(path *pathNode, err error) error {
	var e *errors.Error
	if stderrors.As(err, &e) {
		return err
	}
	if stderrors.Is(err, wire.ErrIntRange) {
		return errors.New(errors.PhaseEncode, errors.KindOverflow).
			Path(path.segments()...).
			Cause(err).
			Build()
	}
	return errors.IO(errors.PhaseEncode, path.segments(), err)
}

func (e *Encoder) encode(w *wire.Writer, ct *CompiledType, v reflect.Value, ctx any, path *pathNode) error {
	if path.depth() > MaxDepth {
		return tooDeep(errors.PhaseEncode, path, MaxDepth)
	}
	switch ct.Kind {
	case KindPrimitive:
		return e.primitive(w, ct, v, path)
	case KindRecord:
		if err := e.magic(w, ct, path); err != nil {
			return err
		}
		return e.fields(w, ct, v, ctx, path, 0)
	case KindSum:
		return e.sum(w, ct, v, ctx, path)
	case KindArray:
		for i := 0; i < ct.Len; i++ {
			if err := e.encode(w, ct.Elem, v.Index(i), ctx, path.elem(i)); err != nil {
				return err
			}
		}
		return nil
	case KindTuple:
		for i := range ct.Fields {
			f := &ct.Fields[i]
			if err := e.encode(w, f.Type, member(v, f.GoIndex), ctx, path.elem(i)); err != nil {
				return err
			}
		}
		return nil
	case KindSequence:
		return e.sequence(w, ct, v, ctx, path)
	case KindSkip, KindContext:
		return nil
	case KindCustom:
		if err := asCustom(v).EncodeTo(w, &State{Context: ctx, Order: ct.Order}); err != nil {
			return writeErr(path, err)
		}
		return nil
	}
	return errors.Unsupported(errors.PhaseEncode, "compiled kind "+ct.Kind.String())
}

func (e *Encoder) magic(w *wire.Writer, ct *CompiledType, path *pathNode) error {
	if ct.Magic.IsZero() {
		return nil
	}
	if err := w.WriteBits(ct.Magic.Type, ct.Order, ct.Magic.Value); err != nil {
		return writeErr(path, err)
	}
	return nil
}

// fields encodes ct's fields in order. Context markers and fields providing
// context replace ctx for the fields after them.
// fields encodes ct's fields from index from on.
func (e *Encoder) fields(w *wire.Writer, ct *CompiledType, v reflect.Value, ctx any, path *pathNode, from int) error {
	for i := from; i < len(ct.Fields); i++ {
		f := &ct.Fields[i]
		fv := v.Field(f.GoIndex)
		if err := e.encode(w, f.Type, fv, ctx, path.child(f.Name)); err != nil {
			return err
		}
		if f.ProvidesContext || f.Type.Kind == KindContext {
			ctx = fv.Interface()
		}
	}
	return nil
}

// activeCase returns the index of the single variant set in v.
func activeCase(ct *CompiledType, v reflect.Value, path *pathNode) (int, error) {
	idx := -1
	for i := range ct.Cases {
		cs := &ct.Cases[i]
		if cs.GoIndex < 0 || v.Field(cs.GoIndex).IsNil() {
			continue
		}
		if idx >= 0 {
			return -1, errors.InvalidData(errors.PhaseEncode, path.segments(),
				fmt.Sprintf("variants %s and %s are both set", ct.Cases[idx].Name, cs.Name))
		}
		idx = i
	}
	if idx < 0 {
		return -1, errors.InvalidData(errors.PhaseEncode, path.segments(), "no variant set")
	}
	return idx, nil
}

func (e *Encoder) sum(w *wire.Writer, ct *CompiledType, v reflect.Value, ctx any, path *pathNode) error {
	idx, err := activeCase(ct, v, path)
	if err != nil {
		return err
	}
	cs := &ct.Cases[idx]
	if cs.Excluded {
		return errors.UnencodableVariant(path.segments(), ct.Name, cs.Name)
	}
	casePath := path.child(cs.Name)
	pv := v.Field(cs.GoIndex).Elem()

	var tag int64
	if cs.KeepTag {
		f := &cs.Type.Fields[0]
		var ok bool
		tag, ok = abi.IntOf(pv.Field(f.GoIndex))
		if !ok {
			return errors.Overflow(errors.PhaseEncode, casePath.child(f.Name).segments(), pv.Field(f.GoIndex).Interface(), "int64")
		}
		if ct.Select(tag) != idx {
			return errors.InvalidData(errors.PhaseEncode, casePath.child(f.Name).segments(),
				fmt.Sprintf("tag value %d does not select variant %s", tag, cs.Name))
		}
	}

	if err := e.magic(w, ct, path); err != nil {
		return err
	}
	if !cs.KeepTag {
		if err := w.WriteInt(ct.TagType, ct.Order, cs.Emit); err != nil {
			return writeErr(path, err)
		}
		return e.fields(w, cs.Type, pv, ctx, casePath, 0)
	}

	// The kept tag is the discriminant, so it is written the way decode
	// reads it: with the sum's tag type and order.
	if err := w.WriteInt(ct.TagType, ct.Order, tag); err != nil {
		return writeErr(path, err)
	}
	if f := &cs.Type.Fields[0]; f.ProvidesContext {
		ctx = pv.Field(f.GoIndex).Interface()
	}
	return e.fields(w, cs.Type, pv, ctx, casePath, 1)
}

func (e *Encoder) sequence(w *wire.Writer, ct *CompiledType, v reflect.Value, ctx any, path *pathNode) error {
	n := v.Len()
	prefix := n
	if ct.ByteSized {
		total, ok := e.sizer.elements(ct, v)
		if !ok {
			return errors.New(errors.PhaseEncode, errors.KindOverflow).
				Path(path.segments()...).
				SchemaType(ct.SizeType.String()).
				Detail("byte length of %d elements overflows int", n).
				Build()
		}
		prefix = total
	}

	if _, hi := ct.SizeType.Range(); uint64(prefix) > uint64(hi) {
		return errors.Overflow(errors.PhaseEncode, path.segments(), prefix, ct.SizeType.String())
	}
	if err := w.WriteInt(ct.SizeType, ct.Order, int64(prefix)); err != nil {
		return writeErr(path, err)
	}

	if isByteElem(ct.Elem) {
		if err := w.WriteBytes(v.Bytes()); err != nil {
			return writeErr(path, err)
		}
		return nil
	}
	for i := 0; i < n; i++ {
		if err := e.encode(w, ct.Elem, v.Index(i), ctx, path.elem(i)); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) primitive(w *wire.Writer, ct *CompiledType, v reflect.Value, path *pathNode) error {
	order := ct.Order
	var err error

	switch ct.Primitive {
	case wire.Bool:
		err = w.WriteBool(v.Bool())
	case wire.U8:
		err = w.WriteU8(uint8(v.Uint()))
	case wire.I8:
		err = w.WriteI8(int8(v.Int()))
	case wire.U16:
		err = w.WriteU16(uint16(v.Uint()), order)
	case wire.I16:
		err = w.WriteI16(int16(v.Int()), order)
	case wire.U32:
		err = w.WriteU32(uint32(v.Uint()), order)
	case wire.I32:
		err = w.WriteI32(int32(v.Int()), order)
	case wire.U64:
		err = w.WriteU64(v.Uint(), order)
	case wire.I64:
		err = w.WriteI64(v.Int(), order)
	case wire.U128:
		err = w.WriteU128(v.Convert(uint128Type).Interface().(wire.Uint128), order)
	case wire.I128:
		err = w.WriteI128(v.Convert(int128Type).Interface().(wire.Int128), order)
	case wire.F32:
		err = w.WriteU32(float32Bits(v), order)
	case wire.F64:
		err = w.WriteU64(float64Bits(v), order)
	default:
		return errors.Unsupported(errors.PhaseEncode, "primitive "+ct.Primitive.String())
	}

	if err != nil {
		return writeErr(path, err)
	}
	return nil
}

// float32Bits reads the stored bits when possible so NaN payloads survive.
func float32Bits(v reflect.Value) uint32 {
	if v.CanAddr() {
		return *(*uint32)(v.Addr().UnsafePointer())
	}
	return math.Float32bits(float32(v.Float()))
}

func float64Bits(v reflect.Value) uint64 {
	if v.CanAddr() {
		return *(*uint64)(v.Addr().UnsafePointer())
	}
	return math.Float64bits(v.Float())
}
