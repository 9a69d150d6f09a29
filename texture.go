// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gfx

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// TextureFormat is the pixel format of a texture.
type TextureFormat uint8

const (
	TextureFormatUnknown TextureFormat = iota
	TextureFormatBGRA8
	TextureFormatRGBA8
	TextureFormatRGBA16F
	TextureFormatR8
	TextureFormatR32F
	TextureFormatD16
	TextureFormatD24S8
	TextureFormatD32F
	textureFormatCount
)

var textureFormatInfo = [textureFormatCount]struct {
	name  string
	bpp   uint32
	depth bool
}{
	{"Unknown", 0, false},
	{"BGRA8", 4, false},
	{"RGBA8", 4, false},
	{"RGBA16F", 8, false},
	{"R8", 1, false},
	{"R32F", 4, false},
	{"D16", 2, true},
	{"D24S8", 4, true},
	{"D32F", 4, true},
}

func (f TextureFormat) String() string {
	if f < textureFormatCount {
		return textureFormatInfo[f].name
	}
	return "Unknown"
}

// BytesPerPixel returns the texel size, or 0 for unknown formats.
func (f TextureFormat) BytesPerPixel() uint32 {
	if f < textureFormatCount {
		return textureFormatInfo[f].bpp
	}
	return 0
}

// IsDepth reports whether f is a depth or depth-stencil format.
func (f TextureFormat) IsDepth() bool {
	return f < textureFormatCount && textureFormatInfo[f].depth
}

// TextureFlags controls sampling and usage of a texture.
type TextureFlags uint32

const (
	TextureNone         TextureFlags = 0
	TextureUMirror      TextureFlags = 1 << 0
	TextureUClamp       TextureFlags = 2 << 0
	TextureVMirror      TextureFlags = 1 << 2
	TextureVClamp       TextureFlags = 2 << 2
	TextureMinPoint     TextureFlags = 1 << 6
	TextureMagPoint     TextureFlags = 1 << 8
	TextureMipPoint     TextureFlags = 1 << 10
	TextureRenderTarget TextureFlags = 1 << 12

	TextureUMask TextureFlags = 3 << 0
	TextureVMask TextureFlags = 3 << 2

	// TextureDefaultSampler, when passed to SetTexture, samples with the
	// flags the texture was created with.
	TextureDefaultSampler TextureFlags = 1 << 28
)

// TextureDesc describes a 2D texture to create. Data holds the texels of
// mip 0 followed by the remaining mips, tightly packed; it may be nil for
// render targets.
type TextureDesc struct {
	Width   uint16
	Height  uint16
	NumMips uint8
	Format  TextureFormat
	Flags   TextureFlags
	Data    []byte
}

// MipSize returns the width and height of mip level.
func (d *TextureDesc) MipSize(level uint8) (w, h uint16) {
	return max(1, d.Width>>level), max(1, d.Height>>level)
}

// StorageSize returns the number of bytes the full mip chain occupies.
func (d *TextureDesc) StorageSize() uint32 {
	var n uint32
	for level := uint8(0); level < max(1, d.NumMips); level++ {
		w, h := d.MipSize(level)
		n += uint32(w) * uint32(h) * d.Format.BytesPerPixel()
	}
	return n
}

// MipData returns the texels of mip level, or nil when Data is too short.
func (d *TextureDesc) MipData(level uint8) []byte {
	bpp := d.Format.BytesPerPixel()
	var off uint32
	for l := uint8(0); l < level; l++ {
		w, h := d.MipSize(l)
		off += uint32(w) * uint32(h) * bpp
	}
	w, h := d.MipSize(level)
	end := off + uint32(w)*uint32(h)*bpp
	if int(end) > len(d.Data) {
		return nil
	}
	return d.Data[off:end]
}

// TextureUpdate replaces a region of one mip level.
type TextureUpdate struct {
	Mip   uint8
	Rect  Rect
	Pitch uint16
	Data  []byte
}

// imageMipChain converts img to RGBA8 and appends a full mip chain built
// with Catmull-Rom downscaling when mips is true.
func imageMipChain(img image.Image, mips bool) *TextureDesc {
	b := img.Bounds()
	w, h := min(b.Dx(), 0xffff), min(b.Dy(), 0xffff)
	base := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.Copy(base, image.Point{}, img, b, xdraw.Src, nil)

	desc := &TextureDesc{
		Width:   uint16(w),
		Height:  uint16(h),
		NumMips: 1,
		Format:  TextureFormatRGBA8,
		Data:    append([]byte(nil), base.Pix...),
	}
	if !mips {
		return desc
	}
	prev := base
	for w > 1 || h > 1 {
		w, h = max(1, w/2), max(1, h/2)
		next := image.NewRGBA(image.Rect(0, 0, w, h))
		xdraw.CatmullRom.Scale(next, next.Bounds(), prev, prev.Bounds(), xdraw.Src, nil)
		desc.Data = append(desc.Data, next.Pix...)
		desc.NumMips++
		prev = next
	}
	return desc
}
