// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gfx

import (
	"errors"
	"testing"
)

func TestDefaultOptions(t *testing.T) {
	o := defaultOptions()
	if o.singleThreaded || o.externalLoop {
		t.Error("default options should use the render goroutine")
	}
	if o.resolution.Width != 1280 || o.resolution.Height != 720 {
		t.Errorf("resolution = %dx%d, want 1280x720", o.resolution.Width, o.resolution.Height)
	}
	if o.limits != DefaultLimits() {
		t.Error("limits differ from DefaultLimits()")
	}
	if o.fatal == nil {
		t.Error("fatal handler is nil")
	}
}

func TestWithResolution(t *testing.T) {
	tests := []struct {
		name          string
		width, height uint32
		wantW, wantH  uint32
	}{
		{"normal", 640, 480, 640, 480},
		{"zero width raised", 0, 480, 1, 480},
		{"zero both raised", 0, 0, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := defaultOptions()
			WithResolution(tt.width, tt.height, ResetVSync)(&o)
			if o.resolution.Width != tt.wantW || o.resolution.Height != tt.wantH {
				t.Errorf("resolution = %dx%d, want %dx%d", o.resolution.Width, o.resolution.Height, tt.wantW, tt.wantH)
			}
			if o.resolution.Flags != ResetVSync {
				t.Errorf("flags = %v, want ResetVSync", o.resolution.Flags)
			}
		})
	}
}

func TestWithFatalHandlerNilRestoresDefault(t *testing.T) {
	o := defaultOptions()
	called := false
	WithFatalHandler(func(FatalCode, string) { called = true })(&o)
	o.fatal(FatalInvalidCommand, "x")
	if !called {
		t.Error("custom fatal handler was not installed")
	}

	WithFatalHandler(nil)(&o)
	defer func() {
		v := recover()
		fe, ok := v.(*FatalError)
		if !ok {
			t.Fatalf("default handler panicked with %T, want *FatalError", v)
		}
		if fe.Code != FatalInvalidCommand {
			t.Errorf("FatalError.Code = %v, want %v", fe.Code, FatalInvalidCommand)
		}
	}()
	o.fatal(FatalInvalidCommand, "boom")
}

func TestOptionsApplyInOrder(t *testing.T) {
	o := defaultOptions()
	for _, opt := range []Option{
		WithSingleThreaded(true),
		WithDebug(DebugStats),
		WithDebug(DebugWireframe),
		WithExternalRenderLoop(true),
	} {
		opt(&o)
	}
	if !o.singleThreaded || !o.externalLoop {
		t.Error("boolean options were not applied")
	}
	if o.debug != DebugWireframe {
		t.Errorf("debug = %v, want the last value", o.debug)
	}
}

func TestNewRejectsInvalidLimits(t *testing.T) {
	l := DefaultLimits()
	l.MaxDrawCalls = 0
	if _, err := New(nopRenderer{}, WithLimits(l)); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("New() error = %v, want %v", err, ErrInvalidConfig)
	}
}

func TestNewNilRenderer(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("New(nil) succeeded")
	}
}
