//go:build !nogpu

package wgpu

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/gfx"
)

// openNoopDevice opens the HAL noop device for tests.
func openNoopDevice(t *testing.T) hal.Device {
	t.Helper()
	instance, dev, _, err := openBackend(noop.API{})
	if err != nil {
		t.Fatalf("openBackend(noop) error = %v", err)
	}
	t.Cleanup(func() {
		dev.Device.Destroy()
		instance.Destroy()
	})
	return dev.Device
}

var testTargets = targetFormats{
	colors:    [gfx.MaxFrameBufferAttachments]gputypes.TextureFormat{gputypes.TextureFormatBGRA8Unorm},
	numColors: 1,
	depth:     gputypes.TextureFormatDepth24PlusStencil8,
}

func TestMakePipelineKey(t *testing.T) {
	s1 := gfx.NewStencil(gfx.CompareEqual, 1, 0xff, gfx.StencilOpKeep, gfx.StencilOpKeep, gfx.StencilOpReplace)
	s2 := gfx.NewStencil(gfx.CompareEqual, 7, 0xff, gfx.StencilOpKeep, gfx.StencilOpKeep, gfx.StencilOpReplace)

	a := makePipelineKey(1, gfx.StateDefault, s1, gfx.StencilNone, nil, 0, testTargets)
	b := makePipelineKey(1, gfx.StateDefault, s2, s2, nil, 0, testTargets)
	if a != b {
		t.Errorf("keys differing only in stencil reference are not equal:\n%+v\n%+v", a, b)
	}

	// Alpha reference and point size are not baked into pipelines.
	c := makePipelineKey(1, gfx.StateDefault|gfx.StateAlphaRef(128)|gfx.StatePointSize(4), s1, s1, nil, 0, testTargets)
	if a != c {
		t.Error("alpha reference or point size changed the pipeline key")
	}

	d := makePipelineKey(1, gfx.StateDefault|gfx.StateBlendAlpha, s1, s1, nil, 0, testTargets)
	if a == d {
		t.Error("blend state did not change the pipeline key")
	}

	var decl gfx.VertexDecl
	decl.Begin().Add(gfx.AttribPosition, 3, gfx.AttribFloat, false, false).End()
	e := makePipelineKey(1, gfx.StateDefault, s1, s1, &decl, 0, testTargets)
	if e.decl != decl.Hash() {
		t.Errorf("decl = %#x, want %#x", e.decl, decl.Hash())
	}
}

func TestPipelineCache(t *testing.T) {
	device := openNoopDevice(t)
	c := newPipelineCache()

	created := 0
	create := func() (hal.RenderPipeline, error) {
		created++
		return device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{})
	}

	k1 := makePipelineKey(1, gfx.StateDefault, gfx.StencilNone, gfx.StencilNone, nil, 0, testTargets)
	k2 := makePipelineKey(2, gfx.StateDefault, gfx.StencilNone, gfx.StencilNone, nil, 0, testTargets)
	k2.decl = 0xabcd

	for _, k := range []pipelineKey{k1, k1, k2, k1} {
		if _, err := c.getOrCreate(k, create); err != nil {
			t.Fatalf("getOrCreate() error = %v", err)
		}
	}
	if created != 2 {
		t.Errorf("created = %d, want 2", created)
	}
	if hits, misses := c.Stats(); hits != 2 || misses != 2 {
		t.Errorf("Stats() = %d, %d, want 2, 2", hits, misses)
	}

	c.evictDecl(device, 0xabcd)
	if c.len() != 1 {
		t.Errorf("len after evictDecl = %d, want 1", c.len())
	}
	c.evictProgram(device, 1)
	if c.len() != 0 {
		t.Errorf("len after evictProgram = %d, want 0", c.len())
	}
}

func TestPipelineCacheCreateError(t *testing.T) {
	c := newPipelineCache()
	errCreate := errors.New("boom")
	k := makePipelineKey(1, gfx.StateDefault, gfx.StencilNone, gfx.StencilNone, nil, 0, testTargets)

	_, err := c.getOrCreate(k, func() (hal.RenderPipeline, error) { return nil, errCreate })
	if !errors.Is(err, errCreate) {
		t.Errorf("getOrCreate() error = %v, want %v", err, errCreate)
	}
	if c.len() != 0 {
		t.Errorf("failed pipeline was cached")
	}
	if _, misses := c.Stats(); misses != 0 {
		t.Errorf("misses = %d, want 0", misses)
	}
}
