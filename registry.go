package plod

import (
	"reflect"

	"github.com/wippyai/plod/errors"
	"github.com/wippyai/plod/schema"
	"github.com/wippyai/plod/transcoder"
)

var defaultRegistry = transcoder.NewRegistry(nil)

// DefaultRegistry returns the registry used by Register and For.
func DefaultRegistry() *transcoder.Registry {
	return defaultRegistry
}

// Register associates T with s in the default registry.
func Register[T any](s *schema.Schema) error {
	return defaultRegistry.Register(reflect.TypeOf((*T)(nil)).Elem(), s)
}

// For returns a codec for T using the schema registered for it, in the
// default registry or the one given by WithRegistry.
func For[T any](opts ...Option) (*Codec[T], error) {
	o := buildOptions(opts)
	r := o.registry
	if r == nil {
		r = defaultRegistry
	}
	goType := reflect.TypeOf((*T)(nil)).Elem()
	s, ok := r.Lookup(goType)
	if !ok {
		return nil, errors.New(errors.PhaseCompile, errors.KindUnsupported).
			GoType(goType.String()).
			Detail("no schema registered").
			Build()
	}
	return New[T](s, opts...)
}
