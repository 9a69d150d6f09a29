// Package wgpu implements gfx.Renderer on the gogpu/wgpu HAL.
//
// The renderer opens its own Vulkan device by default. It can also borrow
// the device of a host application through WithDeviceProvider or
// WithDevice, or run on the HAL noop device for headless tests:
//
//	r := wgpu.New(wgpu.WithNoopFallback())
//	ctx, err := gfx.New(r, gfx.WithResolution(1280, 720, gfx.ResetNone))
//
// Importing the package registers the "wgpu" factory with the backend
// registry, so backend.Default picks it when Vulkan is available.
//
// # Back buffer
//
// The back buffer is an offscreen color texture plus a Depth24PlusStencil8
// attachment, recreated when the resolution changes. Views without a frame
// buffer render into it. ReadBackBuffer copies it to an image.RGBA and
// SaveScreenShot writes it as PNG or BMP.
//
// # Shaders
//
// Shader chunk code is either SPIR-V, recognized by its magic number, or
// WGSL source compiled with naga. Vertex shaders must export vs_main and
// fragment shaders fs_main. Vertex attributes use their gfx.Attrib value as
// location; instance data starts at location 15, one vec4 per 16 bytes.
//
// Bind group 0 holds the uniform blocks: binding 0 for the vertex stage and
// binding 1 for the fragment stage. Bind group 1 holds a texture at binding
// 2*stage and its sampler at 2*stage+1 for every texture stage. Unbound
// stages sample a 1x1 white texture.
//
// # Pipelines
//
// Render pipelines are cached by program, the pipeline-relevant state bits,
// stencil state without the reference value, vertex layout and target
// formats. PipelineStats reports cache hits and misses.
//
// # Frames
//
// Submit records the sorted draw list into one render pass per view,
// submits a single command buffer and waits for the device to go idle.
// Draws whose resources are missing are skipped and logged.
package wgpu
