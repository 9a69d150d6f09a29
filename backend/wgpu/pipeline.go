//go:build !nogpu

package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gfx"
	"github.com/gogpu/gfx/internal/cache"
)

// pipelineState keeps the render state bits baked into a pipeline. Alpha
// reference and point size are shader inputs.
const pipelineState = gfx.StateRGBWrite | gfx.StateAlphaWrite | gfx.StateDepthWrite |
	gfx.StateDepthTestMask | gfx.StateBlendMask | gfx.StateBlendEquationMask |
	gfx.StateCullMask | gfx.StatePTMask

// targetFormats describes the attachments a pipeline renders into.
type targetFormats struct {
	colors    [gfx.MaxFrameBufferAttachments]gputypes.TextureFormat
	numColors uint8
	depth     gputypes.TextureFormat
}

// pipelineKey identifies a render pipeline. The stencil reference is
// dynamic state and is masked out.
type pipelineKey struct {
	program        uint16
	state          gfx.State
	front, back    gfx.Stencil
	decl           uint32
	instanceStride uint16
	targets        targetFormats
}

func makePipelineKey(prog uint16, state gfx.State, front, back gfx.Stencil, decl *gfx.VertexDecl, instanceStride uint16, targets targetFormats) pipelineKey {
	if back == gfx.StencilNone {
		back = front
	}
	k := pipelineKey{
		program:        prog,
		state:          state & pipelineState,
		front:          front &^ gfx.StencilFuncRefMask,
		back:           back &^ gfx.StencilFuncRefMask,
		instanceStride: instanceStride,
		targets:        targets,
	}
	if decl != nil {
		k.decl = decl.Hash()
	}
	return k
}

// pipelineCacheLimit bounds the number of live render pipelines.
const pipelineCacheLimit = 1024

// pipelineCache caches render pipelines by key. It is used from the render
// goroutine only; Stats may be read from any goroutine. Pipelines pushed
// out by the limit may still be referenced by the frame being recorded, so
// they are retired and destroyed by flush once the GPU is idle.
type pipelineCache struct {
	lru     *cache.LRU[pipelineKey, hal.RenderPipeline]
	retired []hal.RenderPipeline
}

func newPipelineCache() *pipelineCache {
	c := &pipelineCache{}
	c.lru = cache.New(pipelineCacheLimit, func(_ pipelineKey, p hal.RenderPipeline) {
		c.retired = append(c.retired, p)
	})
	return c
}

// getOrCreate returns the cached pipeline for k or builds it with create.
func (c *pipelineCache) getOrCreate(k pipelineKey, create func() (hal.RenderPipeline, error)) (hal.RenderPipeline, error) {
	return c.lru.GetOrCreate(k, create)
}

// Stats returns cache statistics.
func (c *pipelineCache) Stats() (hits, misses uint64) {
	st := c.lru.Stats()
	return st.Hits, st.Misses
}

func (c *pipelineCache) len() int { return c.lru.Len() }

// flush destroys the retired pipelines.
func (c *pipelineCache) flush(device hal.Device) {
	for _, p := range c.retired {
		device.DestroyRenderPipeline(p)
	}
	c.retired = c.retired[:0]
}

func (c *pipelineCache) evict(device hal.Device, match func(pipelineKey) bool) {
	c.lru.DeleteFunc(match, device.DestroyRenderPipeline)
}

func (c *pipelineCache) evictProgram(device hal.Device, prog uint16) {
	c.evict(device, func(k pipelineKey) bool { return k.program == prog })
}

func (c *pipelineCache) evictDecl(device hal.Device, hash uint32) {
	c.evict(device, func(k pipelineKey) bool { return k.decl == hash })
}

func (c *pipelineCache) clear(device hal.Device) {
	c.lru.Clear(device.DestroyRenderPipeline)
	c.flush(device)
}

// createPipeline builds the render pipeline described by k.
func (r *Renderer) createPipeline(k pipelineKey, p *program, decl *gfx.VertexDecl, front, back gfx.Stencil) (hal.RenderPipeline, error) {
	if back == gfx.StencilNone {
		back = front
	}
	state := k.state
	desc := &hal.RenderPipelineDescriptor{
		Label:  fmt.Sprintf("gfx_pipeline_%d", k.program),
		Layout: r.pipelineLayout,
		Vertex: hal.VertexState{
			Module:     p.vsh.module,
			EntryPoint: "vs_main",
			Buffers:    vertexLayouts(decl, k.instanceStride),
		},
		Primitive: gputypes.PrimitiveState{
			Topology:  topology(state.Primitive()),
			FrontFace: gputypes.FrontFaceCCW,
			CullMode:  cullMode(state.Cull()),
		},
		Multisample: gputypes.DefaultMultisampleState(),
	}
	if p.fsh != nil {
		targets := make([]gputypes.ColorTargetState, k.targets.numColors)
		for i := range targets {
			targets[i] = gputypes.ColorTargetState{
				Format:    k.targets.colors[i],
				Blend:     blendState(state),
				WriteMask: writeMask(state),
			}
		}
		desc.Fragment = &hal.FragmentState{
			Module:     p.fsh.module,
			EntryPoint: "fs_main",
			Targets:    targets,
		}
	}
	if k.targets.depth != gputypes.TextureFormatUndefined {
		desc.DepthStencil = depthStencilState(k.targets.depth, state, front, back)
	}
	pipeline, err := r.device.CreateRenderPipeline(desc)
	if err != nil {
		return nil, fmt.Errorf("wgpu: create render pipeline: %w", err)
	}
	return pipeline, nil
}
