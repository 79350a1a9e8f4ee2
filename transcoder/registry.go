package transcoder

import (
	"reflect"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/plod/errors"
	"github.com/wippyai/plod/schema"
)

// Registry maps Go types to their schemas. Registration compiles eagerly so
// schema and binding errors surface at registration time. A Registry is safe
// for concurrent use.
type Registry struct {
	compiler *Compiler
	schemas  map[reflect.Type]*schema.Schema
	mu       sync.RWMutex
}

// NewRegistry creates a registry compiling with c, or with a new default
// Compiler when c is nil.
func NewRegistry(c *Compiler) *Registry {
	if c == nil {
		c = NewCompiler()
	}
	return &Registry{
		compiler: c,
		schemas:  make(map[reflect.Type]*schema.Schema),
	}
}

// Compiler returns the compiler the registry uses.
func (r *Registry) Compiler() *Compiler {
	return r.compiler
}

// Register associates goType with s. Registering the same schema again is a
// no-op; registering a different schema for a known type is an error.
func (r *Registry) Register(goType reflect.Type, s *schema.Schema) error {
	if goType != nil && goType.Kind() == reflect.Ptr {
		goType = goType.Elem()
	}
	if _, err := r.compiler.Compile(s, goType); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.schemas[goType]; ok {
		if prev == s {
			return nil
		}
		return errors.New(errors.PhaseCompile, errors.KindSchema).
			GoType(goType.String()).
			SchemaType(s.Name).
			Detail("type already registered with schema %s", prev.Name).
			Build()
	}
	r.schemas[goType] = s

	Logger().Debug("registered type",
		zap.Stringer("go_type", goType),
		zap.String("schema", s.Name),
		zap.Stringer("shape", s.Shape))
	return nil
}

// Lookup returns the schema registered for goType.
func (r *Registry) Lookup(goType reflect.Type) (*schema.Schema, bool) {
	if goType != nil && goType.Kind() == reflect.Ptr {
		goType = goType.Elem()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[goType]
	return s, ok
}

// Compiled returns the compiled plan for a registered type.
func (r *Registry) Compiled(goType reflect.Type) (*CompiledType, error) {
	s, ok := r.Lookup(goType)
	if !ok {
		name := "nil"
		if goType != nil {
			name = goType.String()
		}
		return nil, errors.New(errors.PhaseCompile, errors.KindUnsupported).
			GoType(name).
			Detail("no schema registered").
			Build()
	}
	return r.compiler.Compile(s, goType)
}

// Types returns the registered Go types ordered by name.
func (r *Registry) Types() []reflect.Type {
	r.mu.RLock()
	out := make([]reflect.Type, 0, len(r.schemas))
	for t := range r.schemas {
		out = append(out, t)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].String() < out[j].String()
	})
	return out
}
