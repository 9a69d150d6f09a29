// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gfx

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// ErrInvalidConfig is returned when a Config or Limits value is out of range.
var ErrInvalidConfig = errors.New("gfx: invalid config")

// Limits holds the fixed capacities of a Context. They are chosen once at
// creation time; nothing grows afterwards.
type Limits struct {
	MaxDrawCalls   uint32 `toml:"max_draw_calls"`
	MaxViews       uint8  `toml:"max_views"`
	MaxMatrixCache uint32 `toml:"max_matrix_cache"`
	MaxRectCache   uint32 `toml:"max_rect_cache"`

	MaxVertexDecls          uint16 `toml:"max_vertex_decls"`
	MaxIndexBuffers         uint16 `toml:"max_index_buffers"`
	MaxVertexBuffers        uint16 `toml:"max_vertex_buffers"`
	MaxDynamicIndexBuffers  uint16 `toml:"max_dynamic_index_buffers"`
	MaxDynamicVertexBuffers uint16 `toml:"max_dynamic_vertex_buffers"`
	MaxShaders              uint16 `toml:"max_shaders"`
	MaxPrograms             uint16 `toml:"max_programs"`
	MaxTextures             uint16 `toml:"max_textures"`
	MaxFrameBuffers         uint16 `toml:"max_frame_buffers"`
	MaxUniforms             uint16 `toml:"max_uniforms"`

	CommandBufferSize         uint32 `toml:"command_buffer_size"`
	ConstantBufferSize        uint32 `toml:"constant_buffer_size"`
	TransientIndexBufferSize  uint32 `toml:"transient_index_buffer_size"`
	TransientVertexBufferSize uint32 `toml:"transient_vertex_buffer_size"`
	DynamicIndexBufferSize    uint32 `toml:"dynamic_index_buffer_size"`
	DynamicVertexBufferSize   uint32 `toml:"dynamic_vertex_buffer_size"`
}

// Hard upper bounds imposed by the sort key and handle layouts.
const (
	// MaxViews is the largest number of views; view masks are 32 bits wide.
	MaxViews = 32

	// MaxDrawCalls is the largest per-frame draw capacity.
	MaxDrawCalls = 1 << sortKeySeqBits

	// MaxPrograms is the largest program table; the sort key reserves the
	// last program index for draws without a program.
	MaxPrograms = sortKeyNoProgram

	// MaxTextureSamplers is the number of texture stages per draw.
	MaxTextureSamplers = 8

	// MaxFrameBufferAttachments is the number of textures a frame buffer
	// can hold.
	MaxFrameBufferAttachments = 4
)

// DefaultLimits returns the capacities used when no limits are configured.
func DefaultLimits() Limits {
	return Limits{
		MaxDrawCalls:   4 << 10,
		MaxViews:       MaxViews,
		MaxMatrixCache: 16 << 10,
		MaxRectCache:   4 << 10,

		MaxVertexDecls:          64,
		MaxIndexBuffers:         4 << 10,
		MaxVertexBuffers:        4 << 10,
		MaxDynamicIndexBuffers:  4 << 10,
		MaxDynamicVertexBuffers: 4 << 10,
		MaxShaders:              256,
		MaxPrograms:             256,
		MaxTextures:             4 << 10,
		MaxFrameBuffers:         128,
		MaxUniforms:             512,

		CommandBufferSize:         64 << 10,
		ConstantBufferSize:        512 << 10,
		TransientIndexBufferSize:  2 << 20,
		TransientVertexBufferSize: 6 << 20,
		DynamicIndexBufferSize:    1 << 20,
		DynamicVertexBufferSize:   3 << 20,
	}
}

// Validate checks every capacity against the layout bounds.
func (l *Limits) Validate() error {
	switch {
	case l.MaxDrawCalls == 0 || l.MaxDrawCalls > MaxDrawCalls:
		return fmt.Errorf("%w: max_draw_calls %d not in [1, %d]", ErrInvalidConfig, l.MaxDrawCalls, MaxDrawCalls)
	case l.MaxViews == 0 || l.MaxViews > MaxViews:
		return fmt.Errorf("%w: max_views %d not in [1, %d]", ErrInvalidConfig, l.MaxViews, MaxViews)
	case l.MaxPrograms == 0 || l.MaxPrograms > MaxPrograms:
		return fmt.Errorf("%w: max_programs %d not in [1, %d]", ErrInvalidConfig, l.MaxPrograms, MaxPrograms)
	case l.MaxMatrixCache < 2 || l.MaxRectCache == 0:
		return fmt.Errorf("%w: matrix and rect caches must not be empty", ErrInvalidConfig)
	case l.CommandBufferSize < 256 || l.ConstantBufferSize < 256:
		return fmt.Errorf("%w: command and constant buffers need at least 256 bytes", ErrInvalidConfig)
	case l.TransientIndexBufferSize == 0 || l.TransientVertexBufferSize == 0:
		return fmt.Errorf("%w: transient buffers must not be empty", ErrInvalidConfig)
	case l.DynamicIndexBufferSize == 0 || l.DynamicVertexBufferSize == 0:
		return fmt.Errorf("%w: dynamic buffer blocks must not be empty", ErrInvalidConfig)
	}
	tables := []struct {
		name string
		n    uint16
	}{
		{"max_vertex_decls", l.MaxVertexDecls},
		{"max_index_buffers", l.MaxIndexBuffers},
		{"max_vertex_buffers", l.MaxVertexBuffers},
		{"max_dynamic_index_buffers", l.MaxDynamicIndexBuffers},
		{"max_dynamic_vertex_buffers", l.MaxDynamicVertexBuffers},
		{"max_shaders", l.MaxShaders},
		{"max_textures", l.MaxTextures},
		{"max_frame_buffers", l.MaxFrameBuffers},
		{"max_uniforms", l.MaxUniforms},
	}
	for _, t := range tables {
		if t.n == 0 {
			return fmt.Errorf("%w: %s must not be zero", ErrInvalidConfig, t.name)
		}
	}
	return nil
}

// DebugFlags enables renderer diagnostics.
type DebugFlags uint32

const (
	DebugNone DebugFlags = 0
	// DebugWireframe draws triangles as lines.
	DebugWireframe DebugFlags = 1 << 0
	// DebugIFH skips native draw calls while keeping all state changes
	// ("infinitely fast hardware"), isolating CPU cost.
	DebugIFH DebugFlags = 1 << 1
	// DebugStats logs per-frame statistics at debug level.
	DebugStats DebugFlags = 1 << 2
)

var debugFlagNames = map[string]DebugFlags{
	"wireframe": DebugWireframe,
	"ifh":       DebugIFH,
	"stats":     DebugStats,
}

// ParseDebugFlags converts flag names ("wireframe", "ifh", "stats") into
// DebugFlags.
func ParseDebugFlags(names []string) (DebugFlags, error) {
	var f DebugFlags
	for _, n := range names {
		v, ok := debugFlagNames[strings.ToLower(strings.TrimSpace(n))]
		if !ok {
			return 0, fmt.Errorf("%w: unknown debug flag %q", ErrInvalidConfig, n)
		}
		f |= v
	}
	return f, nil
}

// ResetFlags are back buffer options passed with the resolution.
type ResetFlags uint32

const (
	ResetNone  ResetFlags = 0
	ResetVSync ResetFlags = 1 << 7
)

// Resolution is the back buffer size and its options.
type Resolution struct {
	Width  uint32
	Height uint32
	Flags  ResetFlags
}

// Config is the file form of a Context configuration.
//
//	backend = "wgpu"
//	single_threaded = false
//	width = 1280
//	height = 720
//	debug = ["stats"]
//
//	[limits]
//	max_draw_calls = 8192
type Config struct {
	Backend        string   `toml:"backend"`
	SingleThreaded bool     `toml:"single_threaded"`
	Width          uint32   `toml:"width"`
	Height         uint32   `toml:"height"`
	VSync          bool     `toml:"vsync"`
	Debug          []string `toml:"debug"`
	Limits         Limits   `toml:"limits"`
}

// DefaultConfig returns the configuration used for absent keys.
func DefaultConfig() Config {
	return Config{
		Width:  1280,
		Height: 720,
		Limits: DefaultLimits(),
	}
}

// LoadConfig reads a TOML configuration file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("gfx: load config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes a TOML configuration. Keys that are absent keep their
// DefaultConfig values; unknown keys are an error.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Width == 0 || c.Height == 0 {
		return fmt.Errorf("%w: resolution %dx%d", ErrInvalidConfig, c.Width, c.Height)
	}
	if _, err := ParseDebugFlags(c.Debug); err != nil {
		return err
	}
	return c.Limits.Validate()
}

// Marshal encodes the configuration as TOML.
func (c *Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}

// Options converts the configuration into Context options. The backend name
// is not an option; callers resolve it through the backend registry.
func (c *Config) Options() ([]Option, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	debug, _ := ParseDebugFlags(c.Debug)
	flags := ResetNone
	if c.VSync {
		flags |= ResetVSync
	}
	return []Option{
		WithSingleThreaded(c.SingleThreaded),
		WithResolution(c.Width, c.Height, flags),
		WithDebug(debug),
		WithLimits(c.Limits),
	}, nil
}
