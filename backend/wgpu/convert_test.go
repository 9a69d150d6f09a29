//go:build !nogpu

package wgpu

import (
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gfx"
)

func TestCompareFunc(t *testing.T) {
	tests := []struct {
		in   gfx.CompareFunc
		want gputypes.CompareFunction
	}{
		{gfx.CompareNone, gputypes.CompareFunctionAlways},
		{gfx.CompareLess, gputypes.CompareFunctionLess},
		{gfx.CompareLEqual, gputypes.CompareFunctionLessEqual},
		{gfx.CompareGreater, gputypes.CompareFunctionGreater},
		{gfx.CompareNever, gputypes.CompareFunctionNever},
		{gfx.CompareAlways, gputypes.CompareFunctionAlways},
		{gfx.CompareFunc(200), gputypes.CompareFunctionAlways},
	}
	for _, tt := range tests {
		if got := compareFunc(tt.in); got != tt.want {
			t.Errorf("compareFunc(%d) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestBlendState(t *testing.T) {
	if got := blendState(gfx.StateDefault); got != nil {
		t.Errorf("blendState(StateDefault) = %+v, want nil", got)
	}

	bs := blendState(gfx.StateBlendAlpha)
	if bs == nil {
		t.Fatal("blendState(StateBlendAlpha) = nil")
	}
	if bs.Color.SrcFactor != gputypes.BlendFactorSrcAlpha || bs.Color.DstFactor != gputypes.BlendFactorOneMinusSrcAlpha {
		t.Errorf("color factors = %v/%v, want SrcAlpha/OneMinusSrcAlpha", bs.Color.SrcFactor, bs.Color.DstFactor)
	}
	if bs.Color.Operation != gputypes.BlendOperationAdd {
		t.Errorf("color op = %v, want Add", bs.Color.Operation)
	}

	bs = blendState(gfx.StateBlendAdd | gfx.StateBlendEquation(gfx.BlendEquationMax))
	if bs.Color.Operation != gputypes.BlendOperationMax {
		t.Errorf("max op = %v, want Max", bs.Color.Operation)
	}
	if bs.Alpha.SrcFactor != gputypes.BlendFactorOne || bs.Alpha.DstFactor != gputypes.BlendFactorOne {
		t.Errorf("max factors = %v/%v, want One/One", bs.Alpha.SrcFactor, bs.Alpha.DstFactor)
	}
}

func TestWriteMask(t *testing.T) {
	tests := []struct {
		state gfx.State
		want  gputypes.ColorWriteMask
	}{
		{gfx.StateNone, gputypes.ColorWriteMaskNone},
		{gfx.StateRGBWrite, gputypes.ColorWriteMaskRed | gputypes.ColorWriteMaskGreen | gputypes.ColorWriteMaskBlue},
		{gfx.StateAlphaWrite, gputypes.ColorWriteMaskAlpha},
		{gfx.StateDefault, gputypes.ColorWriteMaskAll},
	}
	for _, tt := range tests {
		if got := writeMask(tt.state); got != tt.want {
			t.Errorf("writeMask(%#x) = %v, want %v", uint64(tt.state), got, tt.want)
		}
	}
}

func TestCullMode(t *testing.T) {
	tests := []struct {
		in   gfx.CullMode
		want gputypes.CullMode
	}{
		{gfx.CullNone, gputypes.CullModeNone},
		{gfx.CullCW, gputypes.CullModeBack},
		{gfx.CullCCW, gputypes.CullModeFront},
	}
	for _, tt := range tests {
		if got := cullMode(tt.in); got != tt.want {
			t.Errorf("cullMode(%d) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestTopology(t *testing.T) {
	if got := topology(gfx.PrimitiveTriangles); got != gputypes.PrimitiveTopologyTriangleList {
		t.Errorf("topology(Triangles) = %v", got)
	}
	if got := topology(gfx.PrimitiveLines); got != gputypes.PrimitiveTopologyLineList {
		t.Errorf("topology(Lines) = %v", got)
	}
	if got := topology(gfx.PrimitivePoints); got != gputypes.PrimitiveTopologyPointList {
		t.Errorf("topology(Points) = %v", got)
	}
}

func TestStencilFace(t *testing.T) {
	off := stencilFace(gfx.StencilNone)
	if off.Compare != gputypes.CompareFunctionAlways || off.PassOp != hal.StencilOperationKeep {
		t.Errorf("stencilFace(None) = %+v, want always/keep", off)
	}

	s := gfx.NewStencil(gfx.CompareEqual, 1, 0xff, gfx.StencilOpKeep, gfx.StencilOpZero, gfx.StencilOpIncrSat)
	face := stencilFace(s)
	if face.Compare != gputypes.CompareFunctionEqual {
		t.Errorf("Compare = %v, want Equal", face.Compare)
	}
	if face.FailOp != hal.StencilOperationKeep || face.DepthFailOp != hal.StencilOperationZero ||
		face.PassOp != hal.StencilOperationIncrementClamp {
		t.Errorf("ops = %v/%v/%v, want Keep/Zero/IncrementClamp", face.FailOp, face.DepthFailOp, face.PassOp)
	}
}

func TestDepthStencilState(t *testing.T) {
	ds := depthStencilState(gputypes.TextureFormatDepth24PlusStencil8, gfx.StateDefault, gfx.StencilNone, gfx.StencilNone)
	if !ds.DepthWriteEnabled {
		t.Error("DepthWriteEnabled = false, want true")
	}
	if ds.DepthCompare != gputypes.CompareFunctionLess {
		t.Errorf("DepthCompare = %v, want Less", ds.DepthCompare)
	}
	if ds.StencilWriteMask != 0 {
		t.Errorf("StencilWriteMask = %#x, want 0 without stencil test", ds.StencilWriteMask)
	}

	// Depth writes need a depth test.
	ds = depthStencilState(gputypes.TextureFormatDepth32Float, gfx.StateDepthWrite, gfx.StencilNone, gfx.StencilNone)
	if ds.DepthWriteEnabled {
		t.Error("DepthWriteEnabled without test = true, want false")
	}

	s := gfx.NewStencil(gfx.CompareAlways, 3, 0x0f, gfx.StencilOpKeep, gfx.StencilOpKeep, gfx.StencilOpReplace)
	ds = depthStencilState(gputypes.TextureFormatDepth24PlusStencil8, gfx.StateNone, s, s)
	if ds.StencilReadMask != 0x0f || ds.StencilWriteMask != 0xff {
		t.Errorf("masks = %#x/%#x, want 0xf/0xff", ds.StencilReadMask, ds.StencilWriteMask)
	}
}

func TestTextureFormat(t *testing.T) {
	tests := []struct {
		in   gfx.TextureFormat
		want gputypes.TextureFormat
	}{
		{gfx.TextureFormatBGRA8, gputypes.TextureFormatBGRA8Unorm},
		{gfx.TextureFormatRGBA8, gputypes.TextureFormatRGBA8Unorm},
		{gfx.TextureFormatR32F, gputypes.TextureFormatR32Float},
		{gfx.TextureFormatD24S8, gputypes.TextureFormatDepth24PlusStencil8},
		{gfx.TextureFormatUnknown, gputypes.TextureFormatUndefined},
		{gfx.TextureFormat(250), gputypes.TextureFormatUndefined},
	}
	for _, tt := range tests {
		if got := textureFormat(tt.in); got != tt.want {
			t.Errorf("textureFormat(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestVertexFormat(t *testing.T) {
	tests := []struct {
		name       string
		num        uint8
		typ        gfx.AttribType
		normalized bool
		asInt      bool
		want       gputypes.VertexFormat
	}{
		{"float3", 3, gfx.AttribFloat, false, false, gputypes.VertexFormatFloat32x3},
		{"float1", 1, gfx.AttribFloat, false, false, gputypes.VertexFormatFloat32},
		{"color", 4, gfx.AttribUint8, true, false, gputypes.VertexFormatUnorm8x4},
		{"uint8 as float", 4, gfx.AttribUint8, false, false, gputypes.VertexFormatUnorm8x4},
		{"uint8 as int", 4, gfx.AttribUint8, false, true, gputypes.VertexFormatUint8x4},
		{"uint8x3 widens", 3, gfx.AttribUint8, false, true, gputypes.VertexFormatUint8x4},
		{"int16 normalized", 2, gfx.AttribInt16, true, false, gputypes.VertexFormatSnorm16x2},
		{"half2", 2, gfx.AttribHalf, false, false, gputypes.VertexFormatFloat16x2},
		{"zero components", 0, gfx.AttribFloat, false, false, gputypes.VertexFormatFloat32x4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := vertexFormat(tt.num, tt.typ, tt.normalized, tt.asInt); got != tt.want {
				t.Errorf("vertexFormat() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVertexLayouts(t *testing.T) {
	var decl gfx.VertexDecl
	decl.Begin().
		Add(gfx.AttribPosition, 3, gfx.AttribFloat, false, false).
		Add(gfx.AttribColor0, 4, gfx.AttribUint8, true, false).
		End()

	layouts := vertexLayouts(&decl, 32)
	if len(layouts) != 2 {
		t.Fatalf("len(layouts) = %d, want 2", len(layouts))
	}
	v := layouts[0]
	if v.ArrayStride != 16 || v.StepMode != gputypes.VertexStepModeVertex {
		t.Errorf("vertex layout stride=%d step=%v, want 16 vertex", v.ArrayStride, v.StepMode)
	}
	if len(v.Attributes) != 2 {
		t.Fatalf("len(vertex attributes) = %d, want 2", len(v.Attributes))
	}
	if a := v.Attributes[1]; a.ShaderLocation != uint32(gfx.AttribColor0) || a.Offset != 12 {
		t.Errorf("color attribute location=%d offset=%d, want %d 12", a.ShaderLocation, a.Offset, gfx.AttribColor0)
	}

	inst := layouts[1]
	if inst.StepMode != gputypes.VertexStepModeInstance || len(inst.Attributes) != 2 {
		t.Fatalf("instance layout step=%v attrs=%d, want instance 2", inst.StepMode, len(inst.Attributes))
	}
	if inst.Attributes[1].ShaderLocation != instanceLocation+1 || inst.Attributes[1].Offset != 16 {
		t.Errorf("instance attribute = %+v", inst.Attributes[1])
	}

	if got := vertexLayouts(nil, 0); len(got) != 0 {
		t.Errorf("vertexLayouts(nil, 0) = %d layouts, want 0", len(got))
	}
}

func TestSamplerDescriptor(t *testing.T) {
	d := samplerDescriptor(gfx.TextureNone)
	if d.AddressModeU != gputypes.AddressModeRepeat || d.MinFilter != gputypes.FilterModeLinear {
		t.Errorf("default sampler = %v/%v, want repeat/linear", d.AddressModeU, d.MinFilter)
	}

	d = samplerDescriptor(gfx.TextureUClamp | gfx.TextureVMirror | gfx.TextureMinPoint | gfx.TextureMagPoint)
	if d.AddressModeU != gputypes.AddressModeClampToEdge {
		t.Errorf("AddressModeU = %v, want ClampToEdge", d.AddressModeU)
	}
	if d.AddressModeV != gputypes.AddressModeMirrorRepeat {
		t.Errorf("AddressModeV = %v, want MirrorRepeat", d.AddressModeV)
	}
	if d.MinFilter != gputypes.FilterModeNearest || d.MagFilter != gputypes.FilterModeNearest {
		t.Errorf("filters = %v/%v, want Nearest/Nearest", d.MinFilter, d.MagFilter)
	}
	if d.MipmapFilter != gputypes.FilterModeLinear {
		t.Errorf("MipmapFilter = %v, want Linear", d.MipmapFilter)
	}
}

func TestClearColor(t *testing.T) {
	c := clearColor(gfx.Clear{RGBA: 0xff000080})
	if c.R != 1 || c.G != 0 || c.B != 0 {
		t.Errorf("clearColor() = %+v, want red", c)
	}
	if c.A < 0.5 || c.A > 0.51 {
		t.Errorf("alpha = %v, want ~0.502", c.A)
	}
}
