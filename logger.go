// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gfx

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that the render
// goroutine can log while SetLogger is called from the producer side.
var loggerPtr atomic.Pointer[slog.Logger]

// liveRenderers holds the renderers of contexts that have not been shut down,
// so SetLogger can forward the logger to them.
var (
	liveMu        sync.Mutex
	liveRenderers = make(map[Renderer]struct{})
)

func init() {
	l := newNopLogger()
	loggerPtr.Store(l)
}

// SetLogger configures the logger for gfx and its backends.
// By default, gfx produces no log output. Call SetLogger to enable logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by gfx:
//   - [slog.LevelDebug]: per-frame diagnostics (sorted draws, uniform widening)
//   - [slog.LevelInfo]: lifecycle events (renderer init, shutdown)
//   - [slog.LevelWarn]: misuse and capacity issues (stale handles, dropped draws)
//   - [slog.LevelError]: fatal conditions reported to the fatal handler
//
// Example:
//
//	gfx.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	liveMu.Lock()
	defer liveMu.Unlock()
	for r := range liveRenderers {
		propagateLogger(r, l)
	}
}

// Logger returns the current logger used by gfx.
// Backend packages call this to share the same logger configuration.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by renderers that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// propagateLogger passes the logger to a renderer if it implements the
// loggerSetter interface.
func propagateLogger(r Renderer, l *slog.Logger) {
	if ls, ok := r.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}

func trackRenderer(r Renderer) {
	liveMu.Lock()
	liveRenderers[r] = struct{}{}
	liveMu.Unlock()
	propagateLogger(r, Logger())
}

func untrackRenderer(r Renderer) {
	liveMu.Lock()
	delete(liveRenderers, r)
	liveMu.Unlock()
}
