package noop

import (
	"errors"
	"testing"

	"github.com/gogpu/gfx"
)

func TestRendererFrames(t *testing.T) {
	r := New()
	ctx, err := gfx.New(r, gfx.WithSingleThreaded(true), gfx.WithResolution(8, 8, gfx.ResetNone))
	if err != nil {
		t.Fatalf("gfx.New() error = %v", err)
	}

	var decl gfx.VertexDecl
	decl.Begin().Add(gfx.AttribPosition, 3, gfx.AttribFloat, false, false).End()
	vb := ctx.CreateVertexBuffer(make([]byte, 36), &decl)
	for range 3 {
		ctx.SetVertexBuffer(vb, 0, 3)
		ctx.Submit(0, 0)
		ctx.Frame()
	}
	if got := ctx.Stats().NumDraws; got != 1 {
		t.Errorf("Stats().NumDraws = %d, want 1", got)
	}
	ctx.DestroyVertexBuffer(vb)
	ctx.Shutdown()

	// The initialization frame is flipped too.
	if r.Frames() != 4 {
		t.Errorf("Frames() = %d, want 4", r.Frames())
	}
}

func TestSaveScreenShot(t *testing.T) {
	if err := New().SaveScreenShot("x.bmp"); !errors.Is(err, gfx.ErrNotInitialized) {
		t.Errorf("SaveScreenShot() error = %v, want %v", err, gfx.ErrNotInitialized)
	}
}
