//go:build !nogpu

package wgpu

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"golang.org/x/image/bmp"

	"github.com/gogpu/gfx"
)

// copyPitchAlignment is the row alignment of texture to buffer copies.
const copyPitchAlignment = 256

func (r *Renderer) createBackBuffer() error {
	back, err := r.createRenderTexture("gfx_back_buffer", r.colorFormat,
		gputypes.TextureUsageRenderAttachment|gputypes.TextureUsageCopySrc)
	if err != nil {
		return err
	}
	depth, err := r.createRenderTexture("gfx_back_depth", gputypes.TextureFormatDepth24PlusStencil8,
		gputypes.TextureUsageRenderAttachment)
	if err != nil {
		r.destroyTexture(back)
		return err
	}
	r.back, r.backDepth = back, depth
	return nil
}

func (r *Renderer) createRenderTexture(label string, format gputypes.TextureFormat, usage gputypes.TextureUsage) (*texture, error) {
	t := &texture{
		native: format,
		width:  max(r.res.Width, 1),
		height: max(r.res.Height, 1),
		mips:   1,
		flags:  gfx.TextureRenderTarget,
	}
	if format == gputypes.TextureFormatDepth24PlusStencil8 {
		t.format = gfx.TextureFormatD24S8
	}
	var err error
	t.tex, err = r.device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: t.width, Height: t.height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create %s: %w", label, err)
	}
	t.view, err = r.device.CreateTextureView(t.tex, &hal.TextureViewDescriptor{
		Label:         label + "_view",
		Format:        format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		r.device.DestroyTexture(t.tex)
		return nil, fmt.Errorf("wgpu: create %s view: %w", label, err)
	}
	return t, nil
}

// resize recreates the back buffer for a new resolution.
func (r *Renderer) resize(res gfx.Resolution) error {
	old, oldDepth := r.back, r.backDepth
	r.res = res
	if err := r.createBackBuffer(); err != nil {
		return err
	}
	r.destroyTexture(old)
	r.destroyTexture(oldDepth)
	gfx.Logger().Debug("wgpu: back buffer resized", "width", res.Width, "height", res.Height)
	return nil
}

// ReadBackBuffer copies the back buffer to the CPU.
func (r *Renderer) ReadBackBuffer() (*image.RGBA, error) {
	if !r.ready {
		return nil, gfx.ErrNotInitialized
	}
	w, h := r.back.width, r.back.height
	bytesPerRow := w * 4
	alignedBytesPerRow := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	size := uint64(alignedBytesPerRow) * uint64(h)

	staging, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "gfx_readback",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create staging buffer: %w", err)
	}
	defer r.device.DestroyBuffer(staging)

	encoder, err := r.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "gfx_readback"})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("gfx_readback"); err != nil {
		return nil, fmt.Errorf("wgpu: begin encoding: %w", err)
	}
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: r.back.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})
	encoder.CopyTextureToBuffer(r.back.tex, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{BytesPerRow: alignedBytesPerRow, RowsPerImage: h},
		TextureBase:  hal.ImageCopyTexture{Texture: r.back.tex, Aspect: gputypes.TextureAspectAll},
		Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: r.back.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("wgpu: end encoding: %w", err)
	}
	defer r.device.FreeCommandBuffer(cmdBuf)
	if err := r.submitAndWait(cmdBuf); err != nil {
		return nil, err
	}

	mapping, err := r.device.MapBuffer(staging, 0, size)
	if err != nil {
		return nil, fmt.Errorf("wgpu: map staging buffer: %w", err)
	}
	readback := unsafe.Slice((*byte)(mapping.Ptr), size)
	img := image.NewRGBA(image.Rect(0, 0, int(w), int(h)))
	for row := uint32(0); row < h; row++ {
		src := readback[row*alignedBytesPerRow : row*alignedBytesPerRow+bytesPerRow]
		copy(img.Pix[row*uint32(img.Stride):], src)
	}
	if err := r.device.UnmapBuffer(staging); err != nil {
		gfx.Logger().Debug("wgpu: unmap staging buffer", "err", err)
	}
	if r.colorFormat == gputypes.TextureFormatBGRA8Unorm {
		convertBGRAToRGBA(img.Pix)
	}
	return img, nil
}

// convertBGRAToRGBA swaps the red and blue channels in place.
func convertBGRAToRGBA(pix []byte) {
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i], pix[i+2] = pix[i+2], pix[i]
	}
}

// SaveScreenShot writes the back buffer to path. Paths ending in .png are
// written as PNG, anything else as BMP.
func (r *Renderer) SaveScreenShot(path string) error {
	img, err := r.ReadBackBuffer()
	if err != nil {
		return err
	}
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("wgpu: screenshot: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".png") {
		err = png.Encode(f, img)
	} else {
		err = bmp.Encode(f, img)
	}
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("wgpu: screenshot: %w", err)
	}
	return f.Close()
}
