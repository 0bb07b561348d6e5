// Package plugin instantiates backends named in configuration.
//
// A backend is referenced by a dotted class name, "module.TypeName", and
// built from an optional parameter map:
//
//	[auth_api]
//	class = "memory.StaticAuth"
//	[auth_api.parameters]
//	users = { admin = "secret" }
//
// Implementations register a constructor under their class name from an
// init function, and the host program links them in with a blank import:
//
//	func init() {
//		plugin.MustRegister(plugin.Default(), "memory.StaticAuth", NewStaticAuth)
//	}
package plugin

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/smazurov/opentaxii-core/internal/logging"
)

// Config selects and parameterises a plugin.
type Config struct {
	Class      string         `toml:"class" json:"class"`
	Parameters map[string]any `toml:"parameters" json:"parameters,omitempty"`
}

// Factory builds a plugin instance. params is nil when the configuration
// has no parameters.
type Factory func(ctx context.Context, params map[string]any) (any, error)

// Registry maps module names to the factories of the types they provide.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]map[string]Factory)}
}

var defaultRegistry = NewRegistry()

// Default returns the registry backends register with from init functions.
func Default() *Registry {
	return defaultRegistry
}

// Add registers factory under class. The class must have a non-empty
// module and type name and must not be registered already.
func (r *Registry) Add(class string, factory Factory) error {
	module, name := SplitClass(class)
	if module == "" || name == "" {
		return fmt.Errorf("invalid plugin class %q: want module.TypeName", class)
	}
	if factory == nil {
		return fmt.Errorf("plugin %s: nil factory", class)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	types, ok := r.modules[module]
	if !ok {
		types = make(map[string]Factory)
		r.modules[module] = types
	}
	if _, exists := types[name]; exists {
		return fmt.Errorf("plugin %s already registered", class)
	}
	types[name] = factory
	return nil
}

// Classes returns every registered class name, sorted.
func (r *Registry) Classes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var classes []string
	for module, types := range r.modules {
		for name := range types {
			classes = append(classes, module+"."+name)
		}
	}
	sort.Strings(classes)
	return classes
}

// Load resolves cfg.Class and constructs the plugin. It fails with
// *ModuleResolutionError, *AttributeResolutionError or
// *InstantiationError.
func (r *Registry) Load(ctx context.Context, cfg Config) (any, error) {
	module, name := SplitClass(cfg.Class)

	r.mu.RLock()
	types, moduleFound := r.modules[module]
	factory, typeFound := types[name]
	r.mu.RUnlock()

	if !moduleFound {
		return nil, &ModuleResolutionError{Module: module}
	}
	if !typeFound {
		return nil, &AttributeResolutionError{Module: module, Name: name}
	}

	var params map[string]any
	if len(cfg.Parameters) > 0 {
		params = cfg.Parameters
	}

	instance, err := construct(ctx, factory, params)
	if err != nil {
		return nil, &InstantiationError{Class: cfg.Class, Err: err}
	}

	logging.GetLogger("plugin").InfoContext(ctx, "api.initialized", "api", name)
	return instance, nil
}

// construct calls factory, turning a panic into an error.
func construct(ctx context.Context, factory Factory, params map[string]any) (instance any, err error) {
	defer func() {
		if p := recover(); p != nil {
			instance = nil
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return factory(ctx, params)
}

// SplitClass splits a class reference at its last dot.
// "pkg.mod.Backend" gives ("pkg.mod", "Backend"); without a dot the module
// is empty.
func SplitClass(class string) (module, name string) {
	i := strings.LastIndexByte(class, '.')
	if i < 0 {
		return "", class
	}
	return class[:i], class[i+1:]
}

// Load resolves cfg against the default registry.
func Load(ctx context.Context, cfg Config) (any, error) {
	return defaultRegistry.Load(ctx, cfg)
}

// LoadAs loads cfg and checks that the instance implements T.
func LoadAs[T any](ctx context.Context, r *Registry, cfg Config) (T, error) {
	var zero T
	instance, err := r.Load(ctx, cfg)
	if err != nil {
		return zero, err
	}
	typed, ok := instance.(T)
	if !ok {
		return zero, &InstantiationError{
			Class: cfg.Class,
			Err:   fmt.Errorf("%T does not implement %T", instance, (*T)(nil)),
		}
	}
	return typed, nil
}
