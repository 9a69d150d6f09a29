// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gfx

// State is the 64-bit pipeline state word of a draw call: write masks, depth
// test, blending, culling, alpha reference, primitive type, point size and
// multisampling, packed into disjoint bit ranges.
//
// Compose states with bitwise OR:
//
//	s := gfx.StateRGBWrite | gfx.StateDepthTestLess | gfx.StateBlendFunc(gfx.BlendSrcAlpha, gfx.BlendInvSrcAlpha)
type State uint64

const (
	StateRGBWrite   State = 1 << 0
	StateAlphaWrite State = 1 << 1
	StateDepthWrite State = 1 << 2

	StateDepthTestShift       = 4
	StateDepthTestMask  State = 0xf << StateDepthTestShift
	StateDepthTestLess  State = State(CompareLess) << StateDepthTestShift
	StateDepthTestLEqual      = State(CompareLEqual) << StateDepthTestShift
	StateDepthTestEqual       = State(CompareEqual) << StateDepthTestShift
	StateDepthTestGEqual      = State(CompareGEqual) << StateDepthTestShift
	StateDepthTestGreater     = State(CompareGreater) << StateDepthTestShift
	StateDepthTestNotEqual    = State(CompareNotEqual) << StateDepthTestShift
	StateDepthTestNever       = State(CompareNever) << StateDepthTestShift
	StateDepthTestAlways      = State(CompareAlways) << StateDepthTestShift

	StateBlendShift       = 12
	StateBlendMask  State = 0xffff << StateBlendShift

	StateBlendEquationShift       = 28
	StateBlendEquationMask  State = 0x7 << StateBlendEquationShift

	StateCullShift       = 36
	StateCullMask  State = 0x3 << StateCullShift
	StateCullCW    State = State(CullCW) << StateCullShift
	StateCullCCW   State = State(CullCCW) << StateCullShift

	StateAlphaRefShift       = 40
	StateAlphaRefMask  State = 0xff << StateAlphaRefShift

	StatePTShift        = 48
	StatePTMask   State = 0x3 << StatePTShift
	StatePTLines  State = State(PrimitiveLines) << StatePTShift
	StatePTPoints State = State(PrimitivePoints) << StatePTShift

	StatePointSizeShift       = 52
	StatePointSizeMask  State = 0xf << StatePointSizeShift

	StateMSAA State = 1 << 60

	StateNone State = 0
	StateMask State = ^State(0)

	StateDefault = StateRGBWrite | StateAlphaWrite | StateDepthTestLess |
		StateDepthWrite | StateCullCW | StateMSAA
)

// CompareFunc is a depth or stencil comparison. Zero disables the test.
type CompareFunc uint8

const (
	CompareNone CompareFunc = iota
	CompareLess
	CompareLEqual
	CompareEqual
	CompareGEqual
	CompareGreater
	CompareNotEqual
	CompareNever
	CompareAlways
)

// BlendFactor is a blend source or destination factor. Zero means unset.
type BlendFactor uint8

const (
	BlendZero BlendFactor = iota + 1
	BlendOne
	BlendSrcColor
	BlendInvSrcColor
	BlendSrcAlpha
	BlendInvSrcAlpha
	BlendDstAlpha
	BlendInvDstAlpha
	BlendDstColor
	BlendInvDstColor
	BlendSrcAlphaSat
	BlendFactorColor
	BlendInvFactorColor
)

// BlendEquation combines source and destination terms.
type BlendEquation uint8

const (
	BlendEquationAdd BlendEquation = iota
	BlendEquationSub
	BlendEquationRevSub
	BlendEquationMin
	BlendEquationMax
)

// CullMode selects which triangle winding is discarded.
type CullMode uint8

const (
	CullNone CullMode = iota
	CullCW
	CullCCW
)

// Primitive is the primitive topology of a draw.
type Primitive uint8

const (
	PrimitiveTriangles Primitive = iota
	PrimitiveLines
	PrimitivePoints
)

var primitiveNames = [...]string{"Triangles", "Lines", "Points"}

func (p Primitive) String() string {
	if int(p) < len(primitiveNames) {
		return primitiveNames[p]
	}
	return "Unknown"
}

// VertsPerPrimitive returns the number of vertices that make up one
// primitive of type p.
func (p Primitive) VertsPerPrimitive() uint32 {
	return 3 - uint32(p)
}

// StateBlendFunc returns the blend bits for the same color and alpha factors.
func StateBlendFunc(src, dst BlendFactor) State {
	return StateBlendFuncSeparate(src, dst, src, dst)
}

// StateBlendFuncSeparate returns the blend bits for separate color and alpha
// factors.
func StateBlendFuncSeparate(srcRGB, dstRGB, srcA, dstA BlendFactor) State {
	v := State(srcRGB) | State(dstRGB)<<4 | State(srcA)<<8 | State(dstA)<<12
	return v << StateBlendShift
}

// StateBlendEquation returns the blend equation bits.
func StateBlendEquation(eq BlendEquation) State {
	return State(eq) << StateBlendEquationShift & StateBlendEquationMask
}

// StateAlphaRef returns the alpha reference bits.
func StateAlphaRef(ref uint8) State {
	return State(ref) << StateAlphaRefShift
}

// StatePointSize returns the point size bits. Sizes above 15 are clamped.
func StatePointSize(size uint8) State {
	return State(min(size, 15)) << StatePointSizeShift
}

// Predefined blend presets.
var (
	StateBlendAdd      = StateBlendFunc(BlendOne, BlendOne)
	StateBlendAlpha    = StateBlendFunc(BlendSrcAlpha, BlendInvSrcAlpha)
	StateBlendMultiply = StateBlendFunc(BlendDstColor, BlendZero)
	StateBlendScreen   = StateBlendFunc(BlendOne, BlendInvSrcColor)
)

// DepthTest returns the depth comparison, or CompareNone.
func (s State) DepthTest() CompareFunc {
	return CompareFunc((s & StateDepthTestMask) >> StateDepthTestShift)
}

// BlendFactors returns the four blend factors. All zero means blending is off.
func (s State) BlendFactors() (srcRGB, dstRGB, srcA, dstA BlendFactor) {
	v := uint16((s & StateBlendMask) >> StateBlendShift)
	return BlendFactor(v & 0xf), BlendFactor(v >> 4 & 0xf), BlendFactor(v >> 8 & 0xf), BlendFactor(v >> 12 & 0xf)
}

// Blending reports whether any blend factor is set.
func (s State) Blending() bool { return s&StateBlendMask != 0 }

// BlendEquation returns the blend equation.
func (s State) BlendEquation() BlendEquation {
	return BlendEquation((s & StateBlendEquationMask) >> StateBlendEquationShift)
}

// UsesBlendFactor reports whether a blend factor references the constant
// blend color set by SetState.
func (s State) UsesBlendFactor() bool {
	src, dst, srcA, dstA := s.BlendFactors()
	for _, f := range [...]BlendFactor{src, dst, srcA, dstA} {
		if f == BlendFactorColor || f == BlendInvFactorColor {
			return true
		}
	}
	return false
}

// Cull returns the cull mode.
func (s State) Cull() CullMode {
	return CullMode((s & StateCullMask) >> StateCullShift)
}

// AlphaRef returns the alpha reference value.
func (s State) AlphaRef() uint8 {
	return uint8((s & StateAlphaRefMask) >> StateAlphaRefShift)
}

// Primitive returns the primitive topology.
func (s State) Primitive() Primitive {
	return Primitive((s & StatePTMask) >> StatePTShift)
}

// PointSize returns the point size, at least 1.
func (s State) PointSize() uint8 {
	return max(1, uint8((s&StatePointSizeMask)>>StatePointSizeShift))
}

// transparencyOrder maps the source color factor, plus one when blending is
// on, to the transparency field of the sort key.
var transparencyOrder = [...]uint8{0, 1, 1, 2, 2, 1, 2, 1, 2, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1}

// transparency returns the sort-key transparency tag of s.
func (s State) transparency() uint8 {
	blend := uint8((s & StateBlendMask) >> StateBlendShift)
	i := blend & 0xf
	if blend != 0 {
		i++
	}
	return transparencyOrder[i]
}

// Stencil is the 32-bit stencil state of one face: reference value, read
// mask, comparison and the three operations.
type Stencil uint32

const (
	StencilFuncRefShift          = 0
	StencilFuncRefMask   Stencil = 0xff << StencilFuncRefShift
	StencilFuncRMaskShift        = 8
	StencilFuncRMaskMask Stencil = 0xff << StencilFuncRMaskShift

	StencilTestShift         = 16
	StencilTestMask  Stencil = 0xf << StencilTestShift

	StencilOpFailSShift         = 20
	StencilOpFailSMask  Stencil = 0xf << StencilOpFailSShift
	StencilOpFailZShift         = 24
	StencilOpFailZMask  Stencil = 0xf << StencilOpFailZShift
	StencilOpPassZShift         = 28
	StencilOpPassZMask  Stencil = 0xf << StencilOpPassZShift

	StencilNone Stencil = 0
	StencilMask Stencil = 0xffffffff
)

// StencilOp is the action applied to the stencil value.
type StencilOp uint8

const (
	StencilOpZero StencilOp = iota
	StencilOpKeep
	StencilOpReplace
	StencilOpIncr
	StencilOpIncrSat
	StencilOpDecr
	StencilOpDecrSat
	StencilOpInvert
)

// NewStencil packs a stencil word.
func NewStencil(test CompareFunc, ref, readMask uint8, failS, failZ, passZ StencilOp) Stencil {
	return Stencil(ref)<<StencilFuncRefShift |
		Stencil(readMask)<<StencilFuncRMaskShift |
		Stencil(test)<<StencilTestShift&StencilTestMask |
		Stencil(failS)<<StencilOpFailSShift&StencilOpFailSMask |
		Stencil(failZ)<<StencilOpFailZShift&StencilOpFailZMask |
		Stencil(passZ)<<StencilOpPassZShift&StencilOpPassZMask
}

// Test returns the stencil comparison. CompareNone disables stenciling.
func (s Stencil) Test() CompareFunc {
	return CompareFunc((s & StencilTestMask) >> StencilTestShift)
}

// Ref returns the reference value.
func (s Stencil) Ref() uint8 { return uint8(s >> StencilFuncRefShift) }

// ReadMask returns the read mask.
func (s Stencil) ReadMask() uint8 { return uint8(s >> StencilFuncRMaskShift) }

// FailS returns the operation applied when the stencil test fails.
func (s Stencil) FailS() StencilOp { return StencilOp((s & StencilOpFailSMask) >> StencilOpFailSShift) }

// FailZ returns the operation applied when the depth test fails.
func (s Stencil) FailZ() StencilOp { return StencilOp((s & StencilOpFailZMask) >> StencilOpFailZShift) }

// PassZ returns the operation applied when both tests pass.
func (s Stencil) PassZ() StencilOp { return StencilOp((s & StencilOpPassZMask) >> StencilOpPassZShift) }
