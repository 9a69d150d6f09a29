package backend

import (
	"errors"
)

// Backend names known to the registry.
const (
	// NameWGPU is the GPU renderer built on gogpu/wgpu.
	NameWGPU = "wgpu"

	// NameTrace is the recording renderer used by tests and captures.
	NameTrace = "trace"

	// NameNoop is the renderer that accepts everything and draws nothing.
	NameNoop = "noop"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when no registered backend could
	// create a renderer.
	ErrBackendNotAvailable = errors.New("backend: not available")
)
