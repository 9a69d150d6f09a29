// Package gfx records draw calls and resource commands against a single
// backend-agnostic API and replays them on a GPU renderer.
//
// # Overview
//
// A Context owns two frames. The application records into one of them
// while the render side replays the other, so at most one frame is in
// flight. Resources are created and destroyed through handles; the
// commands travel with the frame and reach the renderer in order, before
// (create, update) or after (destroy) the frame's draws.
//
// # Quick Start
//
//	import (
//		"github.com/gogpu/gfx"
//		"github.com/gogpu/gfx/backend"
//		_ "github.com/gogpu/gfx/backend/wgpu"
//	)
//
//	ctx, err := backend.Open("", gfx.WithResolution(1280, 720, gfx.ResetNone))
//	if err != nil {
//		return err
//	}
//	defer ctx.Shutdown()
//
//	ctx.SetViewRect(0, 0, 0, 1280, 720)
//	ctx.SetViewClear(0, gfx.ClearColor|gfx.ClearDepth, 0x303030ff, 1, 0)
//	for running {
//		ctx.SetTransform(model)
//		ctx.SetProgram(prog)
//		ctx.SetVertexBuffer(vb, 0, gfx.WholeBuffer)
//		ctx.SetIndexBuffer(ib, 0, gfx.WholeBuffer)
//		ctx.Submit(0, 0)
//		ctx.Frame()
//	}
//
// # Draw Order
//
// Every Submit stores the current render state and a 64-bit sort key made
// of the view, a per-view sequence number, the transparency class, the
// program and the depth. At the end of a frame the draws are radix sorted
// by key. Views draw in id order; sequential views (SetViewSeq) keep
// submission order, the others are grouped by program to minimize state
// changes.
//
// # Threading
//
// By default a render goroutine executes frames. WithSingleThreaded renders
// inside Frame instead, and WithExternalRenderLoop leaves the render loop
// to the caller through RenderFrame. All three produce the same sequence of
// renderer calls.
//
// # Renderers
//
// A Renderer creates native resources and replays frames. SubmitFrame walks
// a frame in sort order and sends only the state that changed between
// draws to a DrawTarget, so renderers implement the native calls and
// nothing else. See the backend package for the registry and the
// available implementations.
//
// # Errors and Logging
//
// Misuse on the recording side, such as stale handles, full tables or
// too many draws, is logged through the package logger and ignored.
// Failures the renderer cannot recover from go to the FatalFunc set with
// WithFatalHandler. The logger is silent until SetLogger is called.
package gfx
