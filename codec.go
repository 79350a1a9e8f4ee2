package plod

import (
	"bytes"
	"fmt"
	"io"
	"reflect"

	"github.com/wippyai/plod/errors"
	"github.com/wippyai/plod/schema"
	"github.com/wippyai/plod/transcoder"
	"github.com/wippyai/plod/wire"
)

// Codec encodes and decodes values of T with one compiled schema. A Codec is
// immutable and safe for concurrent use.
type Codec[T any] struct {
	ct    *transcoder.CompiledType
	enc   *transcoder.Encoder
	dec   *transcoder.Decoder
	sizer transcoder.Sizer
}

type options struct {
	compiler *transcoder.Compiler
	registry *transcoder.Registry
	observer transcoder.Observer
	order    wire.Order
}

// Option configures a Codec.
type Option func(*options)

// WithByteOrder sets the byte order of schemas that do not declare their own.
func WithByteOrder(o wire.Order) Option {
	return func(opts *options) {
		opts.order = o
	}
}

// WithCompiler compiles with c instead of the registry's compiler.
func WithCompiler(c *transcoder.Compiler) Option {
	return func(opts *options) {
		opts.compiler = c
	}
}

// WithRegistry uses r instead of the default registry. New registers T
// with its schema in r.
func WithRegistry(r *transcoder.Registry) Option {
	return func(opts *options) {
		opts.registry = r
	}
}

// WithObserver reports every decoded record field to fn.
func WithObserver(fn transcoder.Observer) Option {
	return func(opts *options) {
		opts.observer = fn
	}
}

func buildOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.compiler == nil {
		if o.registry != nil {
			o.compiler = o.registry.Compiler()
		} else {
			o.compiler = defaultRegistry.Compiler()
		}
	}
	return o
}

// New compiles s for T. Every schema and binding error is reported here.
func New[T any](s *schema.Schema, opts ...Option) (*Codec[T], error) {
	o := buildOptions(opts)
	goType := reflect.TypeOf((*T)(nil)).Elem()

	if o.registry != nil {
		if err := o.registry.Register(goType, s); err != nil {
			return nil, err
		}
	}
	ct, err := o.compiler.CompileOrdered(s, goType, o.order)
	if err != nil {
		return nil, err
	}

	var decOpts []transcoder.DecoderOption
	if o.observer != nil {
		decOpts = append(decOpts, transcoder.WithObserver(o.observer))
	}
	return &Codec[T]{
		ct:  ct,
		enc: transcoder.NewEncoder(),
		dec: transcoder.NewDecoder(decOpts...),
	}, nil
}

// Compiled returns the compiled plan.
func (c *Codec[T]) Compiled() *transcoder.CompiledType {
	return c.ct
}

// Size returns the number of bytes Encode writes for v.
func (c *Codec[T]) Size(v *T) int {
	if v == nil {
		return 0
	}
	return c.sizer.SizeValue(c.ct, reflect.ValueOf(v).Elem())
}

// Decode reads one T from r.
func (c *Codec[T]) Decode(r io.Reader, ctx any) (T, error) {
	wr, ok := r.(*wire.Reader)
	if !ok {
		wr = wire.NewReader(r)
	}
	return c.DecodeAt(wr, ctx)
}

// DecodeAt reads one T at r's current position.
func (c *Codec[T]) DecodeAt(r *wire.Reader, ctx any) (T, error) {
	var out T
	v, err := c.dec.DecodeAt(r, c.ct, ctx)
	if err != nil {
		return out, err
	}
	return v.Interface().(T), nil
}

// Encode writes v to w.
func (c *Codec[T]) Encode(w io.Writer, v *T, ctx any) error {
	return c.enc.Encode(w, c.ct, v, ctx)
}

// EncodeAt writes v at w's current position.
func (c *Codec[T]) EncodeAt(w *wire.Writer, v *T, ctx any) error {
	return c.enc.EncodeAt(w, c.ct, v, ctx)
}

// Marshal encodes v into a new byte slice.
func (c *Codec[T]) Marshal(v *T, ctx any) ([]byte, error) {
	return c.enc.Marshal(c.ct, v, ctx)
}

// Unmarshal decodes data, which must hold exactly one encoded T.
func (c *Codec[T]) Unmarshal(data []byte, ctx any) (T, error) {
	r := wire.NewReader(bytes.NewReader(data))
	out, err := c.DecodeAt(r, ctx)
	if err != nil {
		return out, err
	}
	if rest := int64(len(data)) - r.Position(); rest > 0 {
		var zero T
		return zero, errors.InvalidData(errors.PhaseDecode, nil,
			fmt.Sprintf("%d trailing bytes after %s", rest, c.ct.Name))
	}
	return out, nil
}
