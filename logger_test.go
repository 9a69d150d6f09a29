// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gfx

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func TestLoggerDefaultSilent(t *testing.T) {
	l := Logger()
	if l == nil {
		t.Fatal("Logger() = nil")
	}
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		if l.Enabled(context.Background(), level) {
			t.Errorf("Enabled(%v) = true, want false", level)
		}
	}
	h := l.Handler().WithAttrs([]slog.Attr{slog.String("k", "v")}).WithGroup("g")
	if _, ok := h.(nopHandler); !ok {
		t.Errorf("derived handler = %T, want nopHandler", h)
	}
	if err := h.Handle(context.Background(), slog.Record{}); err != nil {
		t.Errorf("Handle() = %v, want nil", err)
	}
}

func TestLoggerCapturesFrameWarnings(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})))

	l := DefaultLimits()
	l.MaxDrawCalls = 1
	ctx, err := New(nopRenderer{}, WithSingleThreaded(true), WithLimits(l))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer ctx.Shutdown()
	for range 3 {
		ctx.Submit(0, 0)
	}
	ctx.Frame()
	if !strings.Contains(buf.String(), "draw calls dropped") {
		t.Errorf("log = %q, want a dropped draw warning", buf.String())
	}
}

func TestSetLogger(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var buf bytes.Buffer
	custom := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	SetLogger(custom)

	if Logger() != custom {
		t.Error("Logger() did not return the logger passed to SetLogger")
	}
	Logger().Info("gfx: probe", "key", "value")
	if !strings.Contains(buf.String(), "gfx: probe") {
		t.Errorf("log = %q, want the probe message", buf.String())
	}
}

func TestSetLoggerNilRestoresSilent(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	SetLogger(slog.Default())
	SetLogger(nil)
	if l := Logger(); l == nil || l.Enabled(context.Background(), slog.LevelError) {
		t.Error("SetLogger(nil) did not restore the silent logger")
	}
}

// loggingRenderer records the logger it is given.
type loggingRenderer struct {
	nopRenderer
	logger *slog.Logger
}

func (r *loggingRenderer) SetLogger(l *slog.Logger) { r.logger = l }

func TestSetLoggerPropagatesToRenderer(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	r := &loggingRenderer{}
	ctx, err := New(r, WithSingleThreaded(true))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	custom := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	SetLogger(custom)
	if r.logger != custom {
		t.Error("SetLogger did not propagate to the live renderer")
	}

	ctx.Shutdown()
	other := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	SetLogger(other)
	if r.logger != custom {
		t.Error("SetLogger propagated to a renderer that was shut down")
	}
}

func TestNewPropagatesCurrentLogger(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	custom := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	SetLogger(custom)

	r := &loggingRenderer{}
	ctx, err := New(r, WithSingleThreaded(true))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer ctx.Shutdown()

	if r.logger != custom {
		t.Error("New did not pass the current logger to the renderer")
	}
}

func TestLoggerConcurrentAccess(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var wg sync.WaitGroup
	const goroutines = 50

	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l := Logger()
			if l == nil {
				t.Error("Logger() returned nil during concurrent access")
			}
			l.Debug("concurrent read")
		}()
	}

	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			SetLogger(slog.Default())
			SetLogger(nil)
		}()
	}

	wg.Wait()
}

func BenchmarkLoggerDisabled(b *testing.B) {
	b.ReportAllocs()
	for b.Loop() {
		Logger().Debug("gfx: frame", "draws", 1)
	}
}
