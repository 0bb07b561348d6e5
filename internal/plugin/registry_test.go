package plugin

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/smazurov/opentaxii-core/internal/logging"
)

type myBackend struct {
	X       int
	Name    string
	Timeout time.Duration
}

type backendParams struct {
	X       int           `param:"x"`
	Name    string        `param:"name"`
	Timeout time.Duration `param:"timeout"`
}

func newMyBackend(_ context.Context, p backendParams) (*myBackend, error) {
	if p.X < 0 {
		return nil, errors.New("x must not be negative")
	}
	name := p.Name
	if name == "" {
		name = "default"
	}
	return &myBackend{X: p.X, Name: name, Timeout: p.Timeout}, nil
}

type greeter interface {
	Greet() string
}

type hello struct{}

func (hello) Greet() string { return "hello" }

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	if err := Register(r, "pkg.mod.MyBackend", newMyBackend); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := RegisterNoArgs(r, "greet.Hello", func(context.Context) (hello, error) { return hello{}, nil }); err != nil {
		t.Fatalf("RegisterNoArgs failed: %v", err)
	}
	return r
}

func TestLoadWithParameters(t *testing.T) {
	r := newTestRegistry(t)

	instance, err := r.Load(context.Background(), Config{
		Class:      "pkg.mod.MyBackend",
		Parameters: map[string]any{"x": int64(1), "timeout": "30s"},
	})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	b, ok := instance.(*myBackend)
	if !ok {
		t.Fatalf("expected *myBackend, got %T", instance)
	}
	if b.X != 1 || b.Timeout != 30*time.Second || b.Name != "default" {
		t.Errorf("unexpected backend %+v", b)
	}
}

func TestLoadWithoutParameters(t *testing.T) {
	r := newTestRegistry(t)

	for _, params := range []map[string]any{nil, {}} {
		instance, err := r.Load(context.Background(), Config{Class: "pkg.mod.MyBackend", Parameters: params})
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if b := instance.(*myBackend); b.X != 0 || b.Name != "default" {
			t.Errorf("expected zero-argument construction, got %+v", b)
		}
	}
}

func TestLoadResolutionErrors(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		name  string
		class string
		want  error
	}{
		{"unknown module", "nonexistent.mod.X", ErrModuleNotFound},
		{"no module", "MyBackend", ErrModuleNotFound},
		{"empty", "", ErrModuleNotFound},
		{"parent module only", "pkg.MyBackend", ErrModuleNotFound},
		{"unknown type", "pkg.mod.Other", ErrAttributeNotFound},
		{"trailing dot", "pkg.mod.", ErrAttributeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Load(context.Background(), Config{Class: tt.class})
			if !errors.Is(err, tt.want) {
				t.Errorf("Load(%q) error = %v, want %v", tt.class, err, tt.want)
			}
		})
	}

	_, err := r.Load(context.Background(), Config{Class: "pkg.mod.Other"})
	var attrErr *AttributeResolutionError
	if !errors.As(err, &attrErr) || attrErr.Module != "pkg.mod" || attrErr.Name != "Other" {
		t.Errorf("unexpected attribute error %v", err)
	}
}

func TestLoadInstantiationErrors(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		name   string
		class  string
		params map[string]any
		detail string
	}{
		{"constructor error", "pkg.mod.MyBackend", map[string]any{"x": -1}, "x must not be negative"},
		{"unknown parameter", "pkg.mod.MyBackend", map[string]any{"y": 1}, "invalid parameters"},
		{"type mismatch", "pkg.mod.MyBackend", map[string]any{"x": "one"}, "invalid parameters"},
		{"no-arg type given params", "greet.Hello", map[string]any{"x": 1}, "takes no parameters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Load(context.Background(), Config{Class: tt.class, Parameters: tt.params})
			if !errors.Is(err, ErrInstantiation) {
				t.Fatalf("expected ErrInstantiation, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.detail) {
				t.Errorf("error %q does not mention %q", err, tt.detail)
			}
		})
	}
}

func TestLoadRecoversFactoryPanic(t *testing.T) {
	r := NewRegistry()
	err := RegisterNoArgs(r, "pkg.mod.Broken", func(context.Context) (*myBackend, error) {
		var m map[string]int
		m["x"] = 1
		return &myBackend{}, nil
	})
	if err != nil {
		t.Fatalf("RegisterNoArgs failed: %v", err)
	}

	instance, err := r.Load(context.Background(), Config{Class: "pkg.mod.Broken"})
	if !errors.Is(err, ErrInstantiation) {
		t.Fatalf("expected ErrInstantiation, got %v", err)
	}
	if instance != nil {
		t.Errorf("expected nil instance, got %v", instance)
	}
	var ierr *InstantiationError
	if !errors.As(err, &ierr) || ierr.Class != "pkg.mod.Broken" {
		t.Errorf("unexpected error detail: %v", err)
	}
	if !strings.Contains(err.Error(), "panic: assignment to entry in nil map") {
		t.Errorf("error %q does not carry the panic", err)
	}
}

func TestLoadAs(t *testing.T) {
	r := newTestRegistry(t)

	g, err := LoadAs[greeter](context.Background(), r, Config{Class: "greet.Hello"})
	if err != nil {
		t.Fatalf("LoadAs failed: %v", err)
	}
	if g.Greet() != "hello" {
		t.Errorf("unexpected greeting %q", g.Greet())
	}

	_, err = LoadAs[greeter](context.Background(), r, Config{Class: "pkg.mod.MyBackend"})
	if !errors.Is(err, ErrInstantiation) {
		t.Errorf("expected ErrInstantiation for a type mismatch, got %v", err)
	}
}

func TestAddRejectsBadClasses(t *testing.T) {
	r := newTestRegistry(t)
	factory := func(context.Context, map[string]any) (any, error) { return nil, nil }

	for _, class := range []string{"", "NoModule", ".Type", "mod."} {
		if err := r.Add(class, factory); err == nil {
			t.Errorf("Add(%q) should fail", class)
		}
	}
	if err := r.Add("pkg.mod.MyBackend", factory); err == nil {
		t.Error("duplicate registration should fail")
	}
	if err := r.Add("pkg.mod.Nil", nil); err == nil {
		t.Error("nil factory should fail")
	}

	want := "greet.Hello,pkg.mod.MyBackend"
	if got := strings.Join(r.Classes(), ","); got != want {
		t.Errorf("Classes() = %q, want %q", got, want)
	}
}

func TestLoadLogsInitializedType(t *testing.T) {
	var buf bytes.Buffer
	ctx := logging.Default()
	ctx.Reset()
	sink := logging.NewWriterSink(&buf)
	ctx.AddSink("plugin", sink)
	t.Cleanup(ctx.Reset)

	r := newTestRegistry(t)
	if _, err := r.Load(context.Background(), Config{Class: "greet.Hello"}); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, `"event":"api.initialized"`) || !strings.Contains(out, `"api":"Hello"`) {
		t.Errorf("expected api.initialized event for Hello, got %q", out)
	}
}

func TestSplitClass(t *testing.T) {
	tests := []struct {
		class, module, name string
	}{
		{"pkg.mod.MyBackend", "pkg.mod", "MyBackend"},
		{"mod.X", "mod", "X"},
		{"X", "", "X"},
		{"", "", ""},
	}
	for _, tt := range tests {
		module, name := SplitClass(tt.class)
		if module != tt.module || name != tt.name {
			t.Errorf("SplitClass(%q) = (%q, %q), want (%q, %q)", tt.class, module, name, tt.module, tt.name)
		}
	}
}
