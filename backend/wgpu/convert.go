//go:build !nogpu

package wgpu

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gfx"
)

var compareFuncs = [...]gputypes.CompareFunction{
	gfx.CompareNone:     gputypes.CompareFunctionAlways,
	gfx.CompareLess:     gputypes.CompareFunctionLess,
	gfx.CompareLEqual:   gputypes.CompareFunctionLessEqual,
	gfx.CompareEqual:    gputypes.CompareFunctionEqual,
	gfx.CompareGEqual:   gputypes.CompareFunctionGreaterEqual,
	gfx.CompareGreater:  gputypes.CompareFunctionGreater,
	gfx.CompareNotEqual: gputypes.CompareFunctionNotEqual,
	gfx.CompareNever:    gputypes.CompareFunctionNever,
	gfx.CompareAlways:   gputypes.CompareFunctionAlways,
}

func compareFunc(c gfx.CompareFunc) gputypes.CompareFunction {
	if int(c) < len(compareFuncs) {
		return compareFuncs[c]
	}
	return gputypes.CompareFunctionAlways
}

var blendFactors = [...]gputypes.BlendFactor{
	0:                       gputypes.BlendFactorOne,
	gfx.BlendZero:           gputypes.BlendFactorZero,
	gfx.BlendOne:            gputypes.BlendFactorOne,
	gfx.BlendSrcColor:       gputypes.BlendFactorSrc,
	gfx.BlendInvSrcColor:    gputypes.BlendFactorOneMinusSrc,
	gfx.BlendSrcAlpha:       gputypes.BlendFactorSrcAlpha,
	gfx.BlendInvSrcAlpha:    gputypes.BlendFactorOneMinusSrcAlpha,
	gfx.BlendDstAlpha:       gputypes.BlendFactorDstAlpha,
	gfx.BlendInvDstAlpha:    gputypes.BlendFactorOneMinusDstAlpha,
	gfx.BlendDstColor:       gputypes.BlendFactorDst,
	gfx.BlendInvDstColor:    gputypes.BlendFactorOneMinusDst,
	gfx.BlendSrcAlphaSat:    gputypes.BlendFactorSrcAlphaSaturated,
	gfx.BlendFactorColor:    gputypes.BlendFactorConstant,
	gfx.BlendInvFactorColor: gputypes.BlendFactorOneMinusConstant,
}

func blendFactor(f gfx.BlendFactor) gputypes.BlendFactor {
	if int(f) < len(blendFactors) {
		return blendFactors[f]
	}
	return gputypes.BlendFactorOne
}

var blendOps = [...]gputypes.BlendOperation{
	gfx.BlendEquationAdd:    gputypes.BlendOperationAdd,
	gfx.BlendEquationSub:    gputypes.BlendOperationSubtract,
	gfx.BlendEquationRevSub: gputypes.BlendOperationReverseSubtract,
	gfx.BlendEquationMin:    gputypes.BlendOperationMin,
	gfx.BlendEquationMax:    gputypes.BlendOperationMax,
}

// blendState returns the blend state of s, or nil when blending is off.
// Min and max ignore the factors, which WebGPU requires to be One.
func blendState(s gfx.State) *gputypes.BlendState {
	if !s.Blending() {
		return nil
	}
	srcRGB, dstRGB, srcA, dstA := s.BlendFactors()
	op := gputypes.BlendOperationAdd
	if eq := s.BlendEquation(); int(eq) < len(blendOps) {
		op = blendOps[eq]
	}
	color := gputypes.BlendComponent{SrcFactor: blendFactor(srcRGB), DstFactor: blendFactor(dstRGB), Operation: op}
	alpha := gputypes.BlendComponent{SrcFactor: blendFactor(srcA), DstFactor: blendFactor(dstA), Operation: op}
	if op == gputypes.BlendOperationMin || op == gputypes.BlendOperationMax {
		color.SrcFactor, color.DstFactor = gputypes.BlendFactorOne, gputypes.BlendFactorOne
		alpha.SrcFactor, alpha.DstFactor = gputypes.BlendFactorOne, gputypes.BlendFactorOne
	}
	return &gputypes.BlendState{Color: color, Alpha: alpha}
}

func writeMask(s gfx.State) gputypes.ColorWriteMask {
	m := gputypes.ColorWriteMaskNone
	if s&gfx.StateRGBWrite != 0 {
		m |= gputypes.ColorWriteMaskRed | gputypes.ColorWriteMaskGreen | gputypes.ColorWriteMaskBlue
	}
	if s&gfx.StateAlphaWrite != 0 {
		m |= gputypes.ColorWriteMaskAlpha
	}
	return m
}

// cullMode maps the discarded winding to a face. Front faces wind
// counter-clockwise.
func cullMode(c gfx.CullMode) gputypes.CullMode {
	switch c {
	case gfx.CullCW:
		return gputypes.CullModeBack
	case gfx.CullCCW:
		return gputypes.CullModeFront
	default:
		return gputypes.CullModeNone
	}
}

func topology(p gfx.Primitive) gputypes.PrimitiveTopology {
	switch p {
	case gfx.PrimitiveLines:
		return gputypes.PrimitiveTopologyLineList
	case gfx.PrimitivePoints:
		return gputypes.PrimitiveTopologyPointList
	default:
		return gputypes.PrimitiveTopologyTriangleList
	}
}

var stencilOps = [...]hal.StencilOperation{
	gfx.StencilOpZero:    hal.StencilOperationZero,
	gfx.StencilOpKeep:    hal.StencilOperationKeep,
	gfx.StencilOpReplace: hal.StencilOperationReplace,
	gfx.StencilOpIncr:    hal.StencilOperationIncrementWrap,
	gfx.StencilOpIncrSat: hal.StencilOperationIncrementClamp,
	gfx.StencilOpDecr:    hal.StencilOperationDecrementWrap,
	gfx.StencilOpDecrSat: hal.StencilOperationDecrementClamp,
	gfx.StencilOpInvert:  hal.StencilOperationInvert,
}

func stencilOp(op gfx.StencilOp) hal.StencilOperation {
	if int(op) < len(stencilOps) {
		return stencilOps[op]
	}
	return hal.StencilOperationKeep
}

// stencilFace translates one face. A face without a test always passes and
// keeps the stored value.
func stencilFace(s gfx.Stencil) hal.StencilFaceState {
	if s.Test() == gfx.CompareNone {
		return hal.StencilFaceState{
			Compare:     gputypes.CompareFunctionAlways,
			FailOp:      hal.StencilOperationKeep,
			DepthFailOp: hal.StencilOperationKeep,
			PassOp:      hal.StencilOperationKeep,
		}
	}
	return hal.StencilFaceState{
		Compare:     compareFunc(s.Test()),
		FailOp:      stencilOp(s.FailS()),
		DepthFailOp: stencilOp(s.FailZ()),
		PassOp:      stencilOp(s.PassZ()),
	}
}

// depthStencilState returns the depth and stencil state for a target with
// depth format f.
func depthStencilState(f gputypes.TextureFormat, s gfx.State, front, back gfx.Stencil) *hal.DepthStencilState {
	ds := &hal.DepthStencilState{
		Format:            f,
		DepthWriteEnabled: s&gfx.StateDepthWrite != 0 && s.DepthTest() != gfx.CompareNone,
		DepthCompare:      compareFunc(s.DepthTest()),
		StencilFront:      stencilFace(front),
		StencilBack:       stencilFace(back),
	}
	if front.Test() != gfx.CompareNone || back.Test() != gfx.CompareNone {
		ds.StencilReadMask = uint32(front.ReadMask())
		ds.StencilWriteMask = 0xff
	}
	return ds
}

var textureFormats = [...]gputypes.TextureFormat{
	gfx.TextureFormatUnknown: gputypes.TextureFormatUndefined,
	gfx.TextureFormatBGRA8:   gputypes.TextureFormatBGRA8Unorm,
	gfx.TextureFormatRGBA8:   gputypes.TextureFormatRGBA8Unorm,
	gfx.TextureFormatRGBA16F: gputypes.TextureFormatRGBA16Float,
	gfx.TextureFormatR8:      gputypes.TextureFormatR8Unorm,
	gfx.TextureFormatR32F:    gputypes.TextureFormatR32Float,
	gfx.TextureFormatD16:     gputypes.TextureFormatDepth16Unorm,
	gfx.TextureFormatD24S8:   gputypes.TextureFormatDepth24PlusStencil8,
	gfx.TextureFormatD32F:    gputypes.TextureFormatDepth32Float,
}

func textureFormat(f gfx.TextureFormat) gputypes.TextureFormat {
	if int(f) < len(textureFormats) {
		return textureFormats[f]
	}
	return gputypes.TextureFormatUndefined
}

// vertexFormats[type][num-1] is the attribute format. Formats WebGPU lacks
// (one or three 8- and 16-bit components) use the next wider one.
var vertexFormats = [gfx.AttribTypeCount][4]gputypes.VertexFormat{
	gfx.AttribUint8: {gputypes.VertexFormatUint8x2, gputypes.VertexFormatUint8x2, gputypes.VertexFormatUint8x4, gputypes.VertexFormatUint8x4},
	gfx.AttribInt16: {gputypes.VertexFormatSint16x2, gputypes.VertexFormatSint16x2, gputypes.VertexFormatSint16x4, gputypes.VertexFormatSint16x4},
	gfx.AttribHalf:  {gputypes.VertexFormatFloat16x2, gputypes.VertexFormatFloat16x2, gputypes.VertexFormatFloat16x4, gputypes.VertexFormatFloat16x4},
	gfx.AttribFloat: {gputypes.VertexFormatFloat32, gputypes.VertexFormatFloat32x2, gputypes.VertexFormatFloat32x3, gputypes.VertexFormatFloat32x4},
}

var normalizedFormats = map[gputypes.VertexFormat]gputypes.VertexFormat{
	gputypes.VertexFormatUint8x2:  gputypes.VertexFormatUnorm8x2,
	gputypes.VertexFormatUint8x4:  gputypes.VertexFormatUnorm8x4,
	gputypes.VertexFormatSint16x2: gputypes.VertexFormatSnorm16x2,
	gputypes.VertexFormatSint16x4: gputypes.VertexFormatSnorm16x4,
}

// vertexFormat returns the format of an attribute. 8- and 16-bit integer
// attributes that are neither normalized nor read as integers are
// normalized, since WGSL has no implicit integer to float conversion.
func vertexFormat(num uint8, typ gfx.AttribType, normalized, asInt bool) gputypes.VertexFormat {
	if typ >= gfx.AttribTypeCount || num == 0 || num > 4 {
		return gputypes.VertexFormatFloat32x4
	}
	f := vertexFormats[typ][num-1]
	if n, ok := normalizedFormats[f]; ok && (normalized || !asInt) {
		return n
	}
	return f
}

// instanceLocation is the shader location of the first per-instance vec4.
// Vertex attributes use their gfx.Attrib value as location.
const instanceLocation = uint32(gfx.AttribCount)

// vertexLayouts builds the vertex buffer layouts of decl, followed by the
// per-instance layout when instanceStride is not zero.
func vertexLayouts(decl *gfx.VertexDecl, instanceStride uint16) []gputypes.VertexBufferLayout {
	var layouts []gputypes.VertexBufferLayout
	if decl != nil {
		var attrs []gputypes.VertexAttribute
		for a := gfx.Attrib(0); a < gfx.AttribCount; a++ {
			if !decl.Has(a) {
				continue
			}
			num, typ, normalized, asInt := decl.Decode(a)
			attrs = append(attrs, gputypes.VertexAttribute{
				Format:         vertexFormat(num, typ, normalized, asInt),
				Offset:         uint64(decl.Offset(a)),
				ShaderLocation: uint32(a),
			})
		}
		layouts = append(layouts, gputypes.VertexBufferLayout{
			ArrayStride: uint64(decl.Stride()),
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes:  attrs,
		})
	}
	if instanceStride > 0 {
		n := uint32(instanceStride) / 16
		attrs := make([]gputypes.VertexAttribute, n)
		for i := range attrs {
			attrs[i] = gputypes.VertexAttribute{
				Format:         gputypes.VertexFormatFloat32x4,
				Offset:         uint64(i) * 16,
				ShaderLocation: instanceLocation + uint32(i),
			}
		}
		layouts = append(layouts, gputypes.VertexBufferLayout{
			ArrayStride: uint64(instanceStride),
			StepMode:    gputypes.VertexStepModeInstance,
			Attributes:  attrs,
		})
	}
	return layouts
}

func addressMode(f gfx.TextureFlags, mask gfx.TextureFlags, mirror, clamp gfx.TextureFlags) gputypes.AddressMode {
	switch f & mask {
	case mirror:
		return gputypes.AddressModeMirrorRepeat
	case clamp:
		return gputypes.AddressModeClampToEdge
	default:
		return gputypes.AddressModeRepeat
	}
}

func filterMode(f, point gfx.TextureFlags) gputypes.FilterMode {
	if f&point != 0 {
		return gputypes.FilterModeNearest
	}
	return gputypes.FilterModeLinear
}

// samplerFlags keeps the flags that select a sampler.
const samplerFlags = gfx.TextureUMask | gfx.TextureVMask |
	gfx.TextureMinPoint | gfx.TextureMagPoint | gfx.TextureMipPoint

func samplerDescriptor(f gfx.TextureFlags) *hal.SamplerDescriptor {
	return &hal.SamplerDescriptor{
		Label:        "gfx_sampler",
		AddressModeU: addressMode(f, gfx.TextureUMask, gfx.TextureUMirror, gfx.TextureUClamp),
		AddressModeV: addressMode(f, gfx.TextureVMask, gfx.TextureVMirror, gfx.TextureVClamp),
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    filterMode(f, gfx.TextureMagPoint),
		MinFilter:    filterMode(f, gfx.TextureMinPoint),
		MipmapFilter: filterMode(f, gfx.TextureMipPoint),
	}
}

// clearColor unpacks 0xRRGGBBAA.
func clearColor(c gfx.Clear) gputypes.Color {
	rgba := c.Color()
	return gputypes.Color{R: float64(rgba[0]), G: float64(rgba[1]), B: float64(rgba[2]), A: float64(rgba[3])}
}
