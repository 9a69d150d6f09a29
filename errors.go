// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gfx

import (
	"errors"
	"fmt"
)

// Sentinel errors returned (usually wrapped) by gfx and its backends.
var (
	// ErrInvalidHandle is reported when an operation receives the zero handle.
	ErrInvalidHandle = errors.New("gfx: invalid handle")

	// ErrStaleHandle is reported when a handle's generation no longer matches
	// its slot, i.e. the resource was destroyed and the slot reused.
	ErrStaleHandle = errors.New("gfx: stale handle")

	// ErrTableFull is reported when a handle table has no free slot.
	ErrTableFull = errors.New("gfx: handle table full")

	// ErrInvalidChunk is returned when a binary chunk cannot be parsed.
	ErrInvalidChunk = errors.New("gfx: invalid chunk")

	// ErrShaderMismatch is reported when a program links shaders whose
	// input/output hashes differ.
	ErrShaderMismatch = errors.New("gfx: shader interface mismatch")

	// ErrPredefinedUniform is reported when an application tries to create a
	// uniform whose name is reserved for a predefined uniform.
	ErrPredefinedUniform = errors.New("gfx: uniform name is predefined")

	// ErrInvalidTexture is reported when a texture description has no size,
	// an unknown format or too little data.
	ErrInvalidTexture = errors.New("gfx: invalid texture description")

	// ErrCommandBufferFull is reported when a command does not fit the
	// frame's command buffer.
	ErrCommandBufferFull = errors.New("gfx: command buffer full")

	// ErrNotInitialized is returned by renderers used before Init.
	ErrNotInitialized = errors.New("gfx: renderer not initialized")

	// ErrShutdown is returned by operations on a context that was shut down.
	ErrShutdown = errors.New("gfx: context is shut down")

	// ErrUnknownBackend is returned when a backend name is not registered.
	ErrUnknownBackend = errors.New("gfx: unknown backend")
)

// FatalCode classifies unrecoverable conditions reported to a FatalFunc.
type FatalCode uint8

const (
	FatalMinimumRequiredSpecs FatalCode = iota
	FatalInvalidShader
	FatalUnableToInitialize
	FatalUnableToCreateRenderTarget
	FatalUnableToCreateTexture
	FatalInvalidCommand
)

var fatalCodeNames = [...]string{
	"MinimumRequiredSpecs",
	"InvalidShader",
	"UnableToInitialize",
	"UnableToCreateRenderTarget",
	"UnableToCreateTexture",
	"InvalidCommand",
}

// String returns the code name.
func (c FatalCode) String() string {
	if int(c) < len(fatalCodeNames) {
		return fatalCodeNames[c]
	}
	return "Unknown"
}

// FatalFunc is called for unrecoverable errors such as a renderer that fails
// to initialize. It may be called from the render goroutine.
//
// If the function returns, the context keeps running with the renderer
// marked as uninitialized: draw submission and flips are skipped.
type FatalFunc func(code FatalCode, msg string)

// FatalError is the panic value of the default FatalFunc.
type FatalError struct {
	Code FatalCode
	Msg  string
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("gfx: fatal %s: %s", e.Code, e.Msg)
}

// defaultFatal logs the condition and panics with a *FatalError.
func defaultFatal(code FatalCode, msg string) {
	Logger().Error("gfx: fatal", "code", code.String(), "msg", msg)
	panic(&FatalError{Code: code, Msg: msg})
}
