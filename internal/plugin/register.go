package plugin

import (
	"context"
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Register adds a constructor taking a typed parameter struct. Parameters
// are decoded into P by their `param` tags; unknown keys and mismatched
// types are reported as errors. Without parameters the constructor gets the
// zero P.
func Register[T, P any](r *Registry, class string, ctor func(ctx context.Context, params P) (T, error)) error {
	return r.Add(class, func(ctx context.Context, raw map[string]any) (any, error) {
		var params P
		if len(raw) > 0 {
			if err := DecodeParams(raw, &params); err != nil {
				return nil, err
			}
		}
		return ctor(ctx, params)
	})
}

// RegisterNoArgs adds a constructor that takes no parameters. Loading it
// with parameters fails.
func RegisterNoArgs[T any](r *Registry, class string, ctor func(ctx context.Context) (T, error)) error {
	return r.Add(class, func(ctx context.Context, raw map[string]any) (any, error) {
		if len(raw) > 0 {
			return nil, fmt.Errorf("takes no parameters, got %d", len(raw))
		}
		return ctor(ctx)
	})
}

// MustRegister is Register for init functions; it panics on error.
func MustRegister[T, P any](r *Registry, class string, ctor func(ctx context.Context, params P) (T, error)) {
	if err := Register(r, class, ctor); err != nil {
		panic(err)
	}
}

// DecodeParams decodes raw configuration parameters into out, which must be
// a pointer to a struct. Durations may be given as strings like "30s".
func DecodeParams(raw map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "param",
		ErrorUnused: true,
		DecodeHook:  mapstructure.StringToTimeDurationHookFunc(),
		Result:      out,
	})
	if err != nil {
		return fmt.Errorf("create parameter decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return fmt.Errorf("invalid parameters: %w", err)
	}
	return nil
}
