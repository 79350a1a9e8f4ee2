package transcoder

import (
	"bytes"
	stderrors "errors"
	"io"
	"reflect"

	"github.com/wippyai/plod/errors"
	"github.com/wippyai/plod/transcoder/internal/abi"
	"github.com/wippyai/plod/wire"
)

// Observer is called after each record field is decoded with the field's
// path, its start and end stream positions and the decoded value.
type Observer func(path []string, start, end int64, v reflect.Value)

// Decoder reads values described by compiled plans from byte streams.
// A Decoder holds no per-call state and is safe for concurrent use.
type Decoder struct {
	observer Observer
	maxDepth int
}

type DecoderOption func(*Decoder)

// WithObserver reports every decoded record field to fn.
func WithObserver(fn Observer) DecoderOption {
	return func(d *Decoder) {
		d.observer = fn
	}
}

// WithMaxDepth replaces MaxDepth as the nesting limit. n <= 0 keeps the
// default.
func WithMaxDepth(n int) DecoderOption {
	return func(d *Decoder) {
		if n > 0 {
			d.maxDepth = n
		}
	}
}

func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{maxDepth: MaxDepth}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode reads one value of ct from r. A *wire.Reader is used as is, so its
// position carries over; any other reader starts at position 0.
func (d *Decoder) Decode(r io.Reader, ct *CompiledType, ctx any) (reflect.Value, error) {
	wr, ok := r.(*wire.Reader)
	if !ok {
		wr = wire.NewReader(r)
	}
	return d.DecodeAt(wr, ct, ctx)
}

// DecodeAt reads one value of ct from r at r's current position. On failure
// the returned value is invalid; nothing partially decoded escapes.
func (d *Decoder) DecodeAt(r *wire.Reader, ct *CompiledType, ctx any) (reflect.Value, error) {
	if ct == nil {
		return reflect.Value{}, errors.New(errors.PhaseDecode, errors.KindNilPointer).
			Detail("compiled type cannot be nil").
			Build()
	}
	v := reflect.New(ct.GoType).Elem()
	if err := d.decode(r, ct, v, ctx, nil); err != nil {
		return reflect.Value{}, err
	}
	return v, nil
}

// DecodeInto decodes into out, a non-nil pointer to ct's Go type. out is
// only written when decoding succeeds.
func (d *Decoder) DecodeInto(r *wire.Reader, ct *CompiledType, ctx any, out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errors.New(errors.PhaseDecode, errors.KindTypeMismatch).
			Detail("result must be a non-nil pointer, got %s", typeName(out)).
			Build()
	}
	if ct != nil && rv.Elem().Type() != ct.GoType {
		return errors.TypeMismatch(errors.PhaseDecode, nil, rv.Elem().Type().String(), ct.GoType.String())
	}
	v, err := d.DecodeAt(r, ct, ctx)
	if err != nil {
		return err
	}
	rv.Elem().Set(v)
	return nil
}

func readErr(path *pathNode, err error) error {
	var e *errors.Error
	if stderrors.As(err, &e) {
		return err
	}
	if stderrors.Is(err, wire.ErrInvalidBool) {
		return errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Path(path.segments()...).
			Cause(err).
			Detail("bool byte must be 0 or 1").
			Build()
	}
	return errors.IO(errors.PhaseDecode, path.segments(), err)
}

func (d *Decoder) depthLimit() int {
	if d.maxDepth > 0 {
		return d.maxDepth
	}
	return MaxDepth
}

func tooDeep(phase errors.Phase, path *pathNode, limit int) error {
	return errors.New(phase, errors.KindInvalidData).
		Path(path.segments()...).
		Detail("nesting depth exceeds limit %d", limit).
		Build()
}

func (d *Decoder) decode(r *wire.Reader, ct *CompiledType, v reflect.Value, ctx any, path *pathNode) error {
	if limit := d.depthLimit(); path.depth() > limit {
		return tooDeep(errors.PhaseDecode, path, limit)
	}
	switch ct.Kind {
	case KindPrimitive:
		return d.primitive(r, ct, v, path)
	case KindRecord:
		if err := d.magic(r, ct, path); err != nil {
			return err
		}
		return d.fields(r, ct, v, ctx, path, 0)
	case KindSum:
		return d.sum(r, ct, v, ctx, path)
	case KindArray:
		for i := 0; i < ct.Len; i++ {
			if err := d.decode(r, ct.Elem, v.Index(i), ctx, path.elem(i)); err != nil {
				return err
			}
		}
		return nil
	case KindTuple:
		for i := range ct.Fields {
			f := &ct.Fields[i]
			if err := d.decode(r, f.Type, member(v, f.GoIndex), ctx, path.elem(i)); err != nil {
				return err
			}
		}
		return nil
	case KindSequence:
		return d.sequence(r, ct, v, ctx, path)
	case KindSkip:
		if ct.Default.IsValid() {
			v.Set(ct.Default)
		}
		return nil
	case KindContext:
		return setContext(v, ctx, path)
	case KindCustom:
		if err := asCustom(v).DecodeFrom(r, &State{Context: ctx, Order: ct.Order}); err != nil {
			return readErr(path, err)
		}
		return nil
	}
	return errors.Unsupported(errors.PhaseDecode, "compiled kind "+ct.Kind.String())
}

func setContext(v reflect.Value, ctx any, path *pathNode) error {
	if ctx == nil {
		return nil
	}
	cv := reflect.ValueOf(ctx)
	switch {
	case cv.Type().AssignableTo(v.Type()):
		v.Set(cv)
	case cv.Kind() == v.Kind() && cv.Type().ConvertibleTo(v.Type()):
		v.Set(cv.Convert(v.Type()))
	default:
		return errors.TypeMismatch(errors.PhaseDecode, path.segments(), v.Type().String(), "context "+typeName(ctx))
	}
	return nil
}

func (d *Decoder) magic(r *wire.Reader, ct *CompiledType, path *pathNode) error {
	if ct.Magic.IsZero() {
		return nil
	}
	got, err := r.ReadBits(ct.Magic.Type, ct.Order)
	if err != nil {
		return readErr(path, err)
	}
	if got != ct.Magic.Value {
		return errors.BadMagic(path.segments(), ct.Name, ct.Magic.Value, got)
	}
	return nil
}

// fields decodes ct's fields from index from on. A field providing context
// replaces ctx for the fields after it.
func (d *Decoder) fields(r *wire.Reader, ct *CompiledType, v reflect.Value, ctx any, path *pathNode, from int) error {
	for i := from; i < len(ct.Fields); i++ {
		f := &ct.Fields[i]
		fieldPath := path.child(f.Name)
		fv := v.Field(f.GoIndex)
		start := r.Position()
		if err := d.decode(r, f.Type, fv, ctx, fieldPath); err != nil {
			return err
		}
		if f.ProvidesContext {
			ctx = fv.Interface()
		}
		if d.observer != nil {
			d.observer(fieldPath.segments(), start, r.Position(), fv)
		}
	}
	return nil
}

func (d *Decoder) sum(r *wire.Reader, ct *CompiledType, v reflect.Value, ctx any, path *pathNode) error {
	if err := d.magic(r, ct, path); err != nil {
		return err
	}

	start := r.Position()
	tag, err := r.ReadInt(ct.TagType, ct.Order)
	if err != nil {
		if stderrors.Is(err, wire.ErrIntRange) {
			return errors.New(errors.PhaseDecode, errors.KindUnrecognizedDiscriminant).
				Path(path.segments()...).
				SchemaType(ct.Name).
				Cause(err).
				Detail("discriminant exceeds the int64 range").
				Build()
		}
		return readErr(path, err)
	}

	idx := ct.Select(tag)
	if idx < 0 {
		return errors.UnrecognizedDiscriminant(path.segments(), ct.Name, tag)
	}
	cs := &ct.Cases[idx]
	casePath := path.child(cs.Name)

	payload := reflect.New(cs.Type.GoType)
	pv := payload.Elem()
	from := 0
	if cs.KeepTag {
		f := &cs.Type.Fields[0]
		fv := pv.Field(f.GoIndex)
		if !abi.SetInt(fv, tag) {
			return errors.Overflow(errors.PhaseDecode, casePath.child(f.Name).segments(), tag, fv.Type().String())
		}
		if f.ProvidesContext {
			ctx = fv.Interface()
		}
		if d.observer != nil {
			d.observer(casePath.child(f.Name).segments(), start, r.Position(), fv)
		}
		from = 1
	}
	if err := d.fields(r, cs.Type, pv, ctx, casePath, from); err != nil {
		return err
	}

	v.Field(cs.GoIndex).Set(payload)
	return nil
}

func (d *Decoder) sequence(r *wire.Reader, ct *CompiledType, v reflect.Value, ctx any, path *pathNode) error {
	n, err := r.ReadInt(ct.SizeType, ct.Order)
	if err != nil {
		if stderrors.Is(err, wire.ErrIntRange) {
			return errors.MalformedLength(path.segments(), "length prefix exceeds the int64 range")
		}
		return readErr(path, err)
	}
	if n < 0 {
		return errors.MalformedLength(path.segments(), "negative length prefix %d", n)
	}
	if ct.ByteSized {
		return d.byteSized(r, ct, v, ctx, path, n)
	}
	if n > MaxSequenceLength {
		return errors.MalformedLength(path.segments(), "sequence length %d exceeds limit %d", n, MaxSequenceLength)
	}

	count := int(n)
	if isByteElem(ct.Elem) {
		buf, err := readBytes(r, count)
		if err != nil {
			return readErr(path, err)
		}
		v.SetBytes(buf)
		return nil
	}

	s := reflect.MakeSlice(v.Type(), 0, min(count, abi.MaxPrealloc))
	for i := 0; i < count; i++ {
		ev := reflect.New(ct.Elem.GoType).Elem()
		if err := d.decode(r, ct.Elem, ev, ctx, path.elem(i)); err != nil {
			return err
		}
		s = reflect.Append(s, ev)
	}
	v.Set(s)
	return nil
}

// byteSized decodes elements until exactly budget bytes are consumed.
func (d *Decoder) byteSized(r *wire.Reader, ct *CompiledType, v reflect.Value, ctx any, path *pathNode, budget int64) error {
	reserve := 0
	if ct.Elem.HasStaticSize() {
		size := int64(ct.Elem.StaticSize)
		if size == 0 {
			return errors.MalformedLength(path.segments(), "elements of %s occupy no bytes", ct.Elem.Name)
		}
		if budget%size != 0 {
			return errors.MalformedLength(path.segments(), "byte length %d is not a multiple of element size %d", budget, size)
		}
		reserve = int(min(budget/size, abi.MaxPrealloc))
	}

	if isByteElem(ct.Elem) {
		if budget > MaxSequenceLength {
			return errors.MalformedLength(path.segments(), "sequence length %d exceeds limit %d", budget, MaxSequenceLength)
		}
		buf, err := readBytes(r, int(budget))
		if err != nil {
			return readErr(path, err)
		}
		v.SetBytes(buf)
		return nil
	}

	s := reflect.MakeSlice(v.Type(), 0, reserve)
	start := r.Position()
	for consumed := int64(0); consumed < budget; {
		i := s.Len()
		if i >= MaxSequenceLength {
			return errors.MalformedLength(path.segments(), "sequence exceeds limit of %d elements", MaxSequenceLength)
		}
		before := r.Position()
		ev := reflect.New(ct.Elem.GoType).Elem()
		if err := d.decode(r, ct.Elem, ev, ctx, path.elem(i)); err != nil {
			return err
		}
		if r.Position() == before {
			return errors.MalformedLength(path.segments(), "element %d consumed no bytes", i)
		}
		consumed = r.Position() - start
		if consumed > budget {
			return errors.MalformedLength(path.segments(), "element %d overruns byte length %d by %d", i, budget, consumed-budget)
		}
		s = reflect.Append(s, ev)
	}
	v.Set(s)
	return nil
}

func (d *Decoder) primitive(r *wire.Reader, ct *CompiledType, v reflect.Value, path *pathNode) error {
	order := ct.Order
	var err error

	switch ct.Primitive {
	case wire.Bool:
		var x bool
		x, err = r.ReadBool()
		v.SetBool(x)
	case wire.U8:
		var x uint8
		x, err = r.ReadU8()
		v.SetUint(uint64(x))
	case wire.I8:
		var x int8
		x, err = r.ReadI8()
		v.SetInt(int64(x))
	case wire.U16:
		var x uint16
		x, err = r.ReadU16(order)
		v.SetUint(uint64(x))
	case wire.I16:
		var x int16
		x, err = r.ReadI16(order)
		v.SetInt(int64(x))
	case wire.U32:
		var x uint32
		x, err = r.ReadU32(order)
		v.SetUint(uint64(x))
	case wire.I32:
		var x int32
		x, err = r.ReadI32(order)
		v.SetInt(int64(x))
	case wire.U64:
		var x uint64
		x, err = r.ReadU64(order)
		v.SetUint(x)
	case wire.I64:
		var x int64
		x, err = r.ReadI64(order)
		v.SetInt(x)
	case wire.U128:
		var x wire.Uint128
		x, err = r.ReadU128(order)
		v.Set(reflect.ValueOf(x).Convert(v.Type()))
	case wire.I128:
		var x wire.Int128
		x, err = r.ReadI128(order)
		v.Set(reflect.ValueOf(x).Convert(v.Type()))
	case wire.F32:
		var x uint32
		x, err = r.ReadU32(order)
		// Stored through the pointer so NaN payloads survive.
		*(*uint32)(v.Addr().UnsafePointer()) = x
	case wire.F64:
		var x uint64
		x, err = r.ReadU64(order)
		*(*uint64)(v.Addr().UnsafePointer()) = x
	default:
		return errors.Unsupported(errors.PhaseDecode, "primitive "+ct.Primitive.String())
	}

	if err != nil {
		return readErr(path, err)
	}
	return nil
}

const readChunk = 64 << 10

// readBytes reads n bytes without trusting n for the allocation size.
func readBytes(r *wire.Reader, n int) ([]byte, error) {
	if n <= readChunk {
		return r.ReadBytes(n)
	}
	var buf bytes.Buffer
	buf.Grow(readChunk)
	if _, err := io.CopyN(&buf, r, int64(n)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isByteElem(ct *CompiledType) bool {
	return ct.Kind == KindPrimitive && ct.Primitive == wire.U8 && ct.GoType.Kind() == reflect.Uint8
}

// member returns element i of a tuple backed by a struct or an array.
func member(v reflect.Value, i int) reflect.Value {
	if v.Kind() == reflect.Array {
		return v.Index(i)
	}
	return v.Field(i)
}
