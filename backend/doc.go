// Package backend provides the registry of gfx renderers.
//
// A gfx.Context drives exactly one gfx.Renderer. Renderer packages register
// a factory under a name from their init() functions, and applications pick
// one by name or take the best available.
//
// # Backend Registration
//
// Import the renderer packages the program may use:
//
//	import (
//		_ "github.com/gogpu/gfx/backend/noop"
//		_ "github.com/gogpu/gfx/backend/wgpu"
//	)
//
// # Backend Selection
//
// Use Default() to get the best available renderer, or Get() to request
// a specific one by name:
//
//	// Get the default (best available) renderer
//	r := backend.Default()
//
//	// Or request a specific renderer
//	r, err := backend.Get("trace")
//
// # Usage with Context
//
// Open and InitDefault create the context in one step:
//
//	ctx, err := backend.Open("wgpu", gfx.WithResolution(1280, 720, 0))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer ctx.Shutdown()
//
// # Available Backends
//
//   - "wgpu": GPU renderer on gogpu/wgpu (Vulkan, or a caller's device)
//   - "trace": records every renderer call; used for tests and captures
//   - "noop": accepts everything and draws nothing (always available)
package backend
