// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gfx

import (
	"log/slog"
	"time"
)

// Stats describes one rendered frame.
type Stats struct {
	// Frame is the number of frames handed off before this one.
	Frame uint32

	NumDraws     uint32
	NumDropped   uint32
	NumPrims     uint32
	NumIndices   uint32
	NumInstances uint32

	// WaitRender is how long Frame blocked for the render side to finish
	// the previous frame.
	WaitRender time.Duration
	// WaitSubmit is how long the render goroutine waited for this frame.
	WaitSubmit time.Duration
	// CPUTimeRender is the time spent executing the frame on the render side.
	CPUTimeRender time.Duration

	TransientIndexBytes  uint32
	TransientVertexBytes uint32
}

// LogValue groups the stats for structured logging.
func (s Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("frame", uint64(s.Frame)),
		slog.Uint64("draws", uint64(s.NumDraws)),
		slog.Uint64("dropped", uint64(s.NumDropped)),
		slog.Uint64("prims", uint64(s.NumPrims)),
		slog.Uint64("indices", uint64(s.NumIndices)),
		slog.Uint64("instances", uint64(s.NumInstances)),
		slog.Duration("wait_render", s.WaitRender),
		slog.Duration("wait_submit", s.WaitSubmit),
		slog.Duration("cpu_render", s.CPUTimeRender),
		slog.Uint64("tib_bytes", uint64(s.TransientIndexBytes)),
		slog.Uint64("tvb_bytes", uint64(s.TransientVertexBytes)),
	)
}
