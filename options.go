// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gfx

// Option configures a Context during creation.
//
// Example:
//
//	ctx, err := gfx.New(r,
//	    gfx.WithResolution(1280, 720, gfx.ResetVSync),
//	    gfx.WithSingleThreaded(true),
//	)
type Option func(*options)

// options holds the configuration collected from Option values.
type options struct {
	singleThreaded bool
	externalLoop   bool
	resolution     Resolution
	debug          DebugFlags
	limits         Limits
	fatal          FatalFunc
}

// defaultOptions returns the options used when none are given.
func defaultOptions() options {
	return options{
		resolution: Resolution{Width: 1280, Height: 720},
		limits:     DefaultLimits(),
		fatal:      defaultFatal,
	}
}

// WithSingleThreaded runs the renderer on the calling goroutine: Frame
// executes the render work inline instead of handing it to a render
// goroutine.
func WithSingleThreaded(enabled bool) Option {
	return func(o *options) {
		o.singleThreaded = enabled
	}
}

// WithExternalRenderLoop leaves the render loop to the caller: New starts no
// render goroutine and the caller must call Context.RenderFrame repeatedly,
// typically from a goroutine locked to the OS thread that owns the native
// device, until it returns true.
func WithExternalRenderLoop(enabled bool) Option {
	return func(o *options) {
		o.externalLoop = enabled
	}
}

// WithResolution sets the initial back buffer size and reset flags.
func WithResolution(width, height uint32, flags ResetFlags) Option {
	return func(o *options) {
		o.resolution = Resolution{Width: max(width, 1), Height: max(height, 1), Flags: flags}
	}
}

// WithDebug sets the initial debug flags.
func WithDebug(flags DebugFlags) Option {
	return func(o *options) {
		o.debug = flags
	}
}

// WithLimits replaces the default capacities. Invalid limits make New fail.
func WithLimits(l Limits) Option {
	return func(o *options) {
		o.limits = l
	}
}

// WithFatalHandler installs the function called for unrecoverable errors.
// A nil handler restores the default, which logs and panics.
func WithFatalHandler(fn FatalFunc) Option {
	return func(o *options) {
		if fn == nil {
			fn = defaultFatal
		}
		o.fatal = fn
	}
}
