package backend_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/gogpu/gfx"
	"github.com/gogpu/gfx/backend"
	"github.com/gogpu/gfx/backend/noop"
	"github.com/gogpu/gfx/backend/trace"
)

func TestAvailable(t *testing.T) {
	names := backend.Available()
	for _, want := range []string{backend.NameNoop, backend.NameTrace} {
		if !slices.Contains(names, want) {
			t.Errorf("Available() = %v, missing %q", names, want)
		}
	}
	if !slices.IsSorted(names) {
		t.Errorf("Available() = %v, want sorted", names)
	}
}

func TestIsRegistered(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{backend.NameNoop, true},
		{backend.NameTrace, true},
		{"nonexistent", false},
	}
	for _, tt := range tests {
		if got := backend.IsRegistered(tt.name); got != tt.want {
			t.Errorf("IsRegistered(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestGet(t *testing.T) {
	r, err := backend.Get(backend.NameTrace)
	if err != nil {
		t.Fatalf("Get(trace) error = %v", err)
	}
	if r.Name() != backend.NameTrace {
		t.Errorf("Name() = %q, want %q", r.Name(), backend.NameTrace)
	}

	_, err = backend.Get("nonexistent")
	if !errors.Is(err, gfx.ErrUnknownBackend) {
		t.Errorf("Get(nonexistent) error = %v, want %v", err, gfx.ErrUnknownBackend)
	}
}

func TestRegisterUnregister(t *testing.T) {
	const name = "test-custom"
	errFactory := errors.New("factory failed")

	backend.Register(name, func() (gfx.Renderer, error) { return nil, errFactory })
	defer backend.Unregister(name)

	if !backend.IsRegistered(name) {
		t.Fatalf("IsRegistered(%q) = false after Register", name)
	}
	if _, err := backend.Get(name); !errors.Is(err, errFactory) {
		t.Errorf("Get(%q) error = %v, want %v", name, err, errFactory)
	}

	backend.Unregister(name)
	if backend.IsRegistered(name) {
		t.Errorf("IsRegistered(%q) = true after Unregister", name)
	}
}

func TestDefault(t *testing.T) {
	// Failing backends are skipped.
	backend.Register("aaa-broken", func() (gfx.Renderer, error) { return nil, errors.New("broken") })
	defer backend.Unregister("aaa-broken")

	r := backend.Default()
	if r == nil {
		t.Fatal("Default() = nil")
	}
	want := backend.NameNoop
	if backend.IsRegistered(backend.NameWGPU) {
		if _, err := backend.Get(backend.NameWGPU); err == nil {
			want = backend.NameWGPU
		}
	}
	if r.Name() != want {
		t.Errorf("Default().Name() = %q, want %q", r.Name(), want)
	}
	if r := backend.MustDefault(); r == nil {
		t.Error("MustDefault() = nil")
	}
}

func TestDefaultFallsBackToOtherBackends(t *testing.T) {
	backend.Unregister(backend.NameNoop)
	defer backend.Register(backend.NameNoop, func() (gfx.Renderer, error) { return noop.New(), nil })

	r := backend.Default()
	if r == nil {
		t.Fatal("Default() = nil with trace registered")
	}
	if r.Name() != backend.NameTrace {
		t.Errorf("Default().Name() = %q, want %q", r.Name(), backend.NameTrace)
	}
}

func TestOpen(t *testing.T) {
	for _, name := range []string{backend.NameNoop, backend.NameTrace} {
		t.Run(name, func(t *testing.T) {
			ctx, err := backend.Open(name, gfx.WithSingleThreaded(true), gfx.WithResolution(32, 32, gfx.ResetNone))
			if err != nil {
				t.Fatalf("Open(%q) error = %v", name, err)
			}
			if got := ctx.Renderer().Name(); got != name {
				t.Errorf("Renderer().Name() = %q, want %q", got, name)
			}
			ctx.SetViewClear(0, gfx.ClearColor, 0x000000ff, 1, 0)
			ctx.Submit(0, 0)
			// New runs the initialization frame.
			if n := ctx.Frame(); n != 2 {
				t.Errorf("Frame() = %d, want 2", n)
			}
			ctx.Shutdown()
		})
	}
}

func TestOpenUnknown(t *testing.T) {
	if _, err := backend.Open("nonexistent"); !errors.Is(err, gfx.ErrUnknownBackend) {
		t.Errorf("Open(nonexistent) error = %v, want %v", err, gfx.ErrUnknownBackend)
	}
}

func TestOpenTraceRecordsFrame(t *testing.T) {
	ctx, err := backend.Open(backend.NameTrace, gfx.WithSingleThreaded(true))
	if err != nil {
		t.Fatalf("Open(trace) error = %v", err)
	}
	defer ctx.Shutdown()

	r, ok := ctx.Renderer().(*trace.Renderer)
	if !ok {
		t.Fatalf("Renderer() = %T, want *trace.Renderer", ctx.Renderer())
	}
	ctx.Frame()
	if got := r.Frames(); got != 2 {
		t.Errorf("Frames() = %d, want 2", got)
	}
	if got := r.Filter("Init"); len(got) != 1 {
		t.Errorf("Init calls = %v, want one", got)
	}
}
