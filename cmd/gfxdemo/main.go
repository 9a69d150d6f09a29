// Command gfxdemo renders a spinning cube for a number of frames and saves
// a screenshot of the last one.
//
// Usage:
//
//	gfxdemo -backend trace -frames 60 -output cube.bmp
//	gfxdemo -config gfx.toml -output cube.png
package main

import (
	_ "embed"
	"encoding/binary"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/gfx"
	"github.com/gogpu/gfx/backend"
	_ "github.com/gogpu/gfx/backend/noop"
	_ "github.com/gogpu/gfx/backend/trace"
	_ "github.com/gogpu/gfx/backend/wgpu"
)

var (
	//go:embed shaders/cube.vs.wgsl
	cubeVS []byte
	//go:embed shaders/cube.fs.wgsl
	cubeFS []byte
)

const shaderHash = 0xc0be

func main() {
	var (
		configPath = flag.String("config", "", "TOML configuration file")
		name       = flag.String("backend", "", "renderer backend (default: best available)")
		width      = flag.Uint("width", 0, "back buffer width (overrides the config)")
		height     = flag.Uint("height", 0, "back buffer height (overrides the config)")
		frames     = flag.Int("frames", 60, "number of frames to render")
		output     = flag.String("output", "cube.png", "screenshot file, empty to skip")
		verbose    = flag.Bool("v", false, "log per-frame statistics")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	gfx.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg := gfx.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = gfx.LoadConfig(*configPath); err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}
	if *width > 0 {
		cfg.Width = uint32(*width)
	}
	if *height > 0 {
		cfg.Height = uint32(*height)
	}
	if *name != "" {
		cfg.Backend = *name
	}
	if *verbose {
		cfg.Debug = append(cfg.Debug, "stats")
	}
	opts, err := cfg.Options()
	if err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	ctx, err := backend.Open(cfg.Backend, opts...)
	if err != nil {
		log.Fatalf("Failed to open renderer: %v", err)
	}
	defer ctx.Shutdown()

	if err := run(ctx, cfg, *frames, *output); err != nil {
		log.Fatalf("Demo failed: %v", err)
	}
	gfx.Logger().Info("gfxdemo: done", "renderer", ctx.Renderer().Name(), "stats", ctx.Stats())
}

func run(ctx *gfx.Context, cfg gfx.Config, frames int, output string) error {
	vsh, err := shader(ctx, gfx.ChunkMagicVSH, cubeVS,
		gfx.ShaderUniform{Name: "u_modelViewProj", Type: gfx.Uniform4x4fv, Num: 1, RegIndex: 0, RegCount: 4})
	if err != nil {
		return err
	}
	fsh, err := shader(ctx, gfx.ChunkMagicFSH, cubeFS,
		gfx.ShaderUniform{Name: "u_tint", Type: gfx.Uniform4fv, Fragment: true, Num: 1, RegIndex: 0, RegCount: 1})
	if err != nil {
		return err
	}
	prog := ctx.CreateProgram(vsh, fsh, true)
	tint := ctx.CreateUniform("u_tint", gfx.Uniform4fv, 1)
	defer ctx.DestroyUniform(tint)
	defer ctx.DestroyProgram(prog)

	var decl gfx.VertexDecl
	decl.Begin().
		Add(gfx.AttribPosition, 3, gfx.AttribFloat, false, false).
		Add(gfx.AttribColor0, 4, gfx.AttribUint8, true, false).
		End()
	vb := ctx.CreateVertexBuffer(cubeVertices(), &decl)
	ib := ctx.CreateIndexBuffer(cubeIndices())
	defer ctx.DestroyVertexBuffer(vb)
	defer ctx.DestroyIndexBuffer(ib)

	w, h := uint16(cfg.Width), uint16(cfg.Height)
	view := mgl32.LookAtV(mgl32.Vec3{0, 0, -6}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	proj := mgl32.Perspective(mgl32.DegToRad(60), float32(w)/float32(h), 0.1, 100)
	ctx.SetViewName(0, "cube")
	ctx.SetViewRect(0, 0, 0, w, h)
	ctx.SetViewClear(0, gfx.ClearColor|gfx.ClearDepth, 0x303030ff, 1, 0)
	ctx.SetViewTransform(0, &view, &proj, 0)

	for i := range frames {
		angle := float32(i) * 0.05
		ctx.SetTransform(mgl32.HomogRotate3DY(angle).Mul4(mgl32.HomogRotate3DX(angle * 0.7)))
		ctx.SetUniformFloat32s(tint, 1, 1, 1, 1)
		ctx.SetProgram(prog)
		ctx.SetVertexBuffer(vb, 0, gfx.WholeBuffer)
		ctx.SetIndexBuffer(ib, 0, gfx.WholeBuffer)
		ctx.SetState(gfx.StateDefault, 0)
		ctx.Submit(0, 0)
		if output != "" && i == frames-1 {
			ctx.SaveScreenShot(output)
		}
		ctx.Frame()
	}
	return nil
}

func shader(ctx *gfx.Context, magic gfx.ChunkMagic, code []byte, uniforms ...gfx.ShaderUniform) (gfx.ShaderHandle, error) {
	chunk := &gfx.ShaderChunk{Magic: magic, Hash: shaderHash, Uniforms: uniforms, Code: code}
	data, err := chunk.MarshalBinary()
	if err != nil {
		return gfx.ShaderHandle{}, err
	}
	return ctx.CreateShader(data), nil
}

func cubeVertices() []byte {
	corners := [8][3]float32{
		{-1, 1, 1}, {1, 1, 1}, {-1, -1, 1}, {1, -1, 1},
		{-1, 1, -1}, {1, 1, -1}, {-1, -1, -1}, {1, -1, -1},
	}
	colors := [8]uint32{
		0xff000000, 0xff0000ff, 0xff00ff00, 0xff00ffff,
		0xffff0000, 0xffff00ff, 0xffffff00, 0xffffffff,
	}
	var data []byte
	for i, p := range corners {
		data = append(data, gfx.Float32Bytes(p[0], p[1], p[2])...)
		data = binary.LittleEndian.AppendUint32(data, colors[i])
	}
	return data
}

func cubeIndices() []byte {
	indices := []uint16{
		0, 1, 2, 1, 3, 2,
		4, 6, 5, 5, 6, 7,
		0, 2, 4, 4, 2, 6,
		1, 5, 3, 5, 7, 3,
		0, 4, 1, 4, 5, 1,
		2, 3, 6, 6, 3, 7,
	}
	data := make([]byte, 0, 2*len(indices))
	for _, i := range indices {
		data = binary.LittleEndian.AppendUint16(data, i)
	}
	return data
}
