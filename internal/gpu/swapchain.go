package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// SurfaceSource is the window side of a swapchain.
type SurfaceSource interface {
	// Size returns the drawable size in pixels.
	Size() (width, height int)

	// View returns the texture view to render the current frame into.
	// A nil view with a nil error means the source has no GPU surface and
	// the swapchain renders offscreen.
	View() (hal.TextureView, error)
}

// Swapchain is the surface a Context renders into.
//
// When the source provides views (a real window), each frame renders into
// the source's view and the host presents it. Otherwise the swapchain owns
// two color textures and Present swaps front and back. Either way the
// swapchain owns the depth/stencil texture required by the pixel format.
type Swapchain struct {
	ctx    *Context
	src    SurfaceSource
	format PixelFormat

	width, height uint32

	// offscreen color buffers, nil for window-backed swapchains
	color     [2]hal.Texture
	colorView [2]hal.TextureView
	back      int

	depthTex  hal.Texture
	depthView hal.TextureView

	presented uint64
	destroyed bool
}

// NewSwapchain creates a swapchain over src in the given pixel format.
// Errors wrap ErrSurface.
func (c *Context) NewSwapchain(src SurfaceSource, format PixelFormat) (*Swapchain, error) {
	if c.device == nil {
		return nil, fmt.Errorf("%w: %w", ErrSurface, ErrDestroyed)
	}
	if src == nil {
		return nil, fmt.Errorf("%w: nil surface", ErrSurface)
	}
	w, h := src.Size()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: invalid surface size %dx%d", ErrSurface, w, h)
	}
	view, err := src.View()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSurface, err)
	}

	sc := &Swapchain{ctx: c, src: src, format: format}
	if err := sc.ensureTextures(uint32(w), uint32(h), view == nil); err != nil { //nolint:gosec // checked positive above
		return nil, fmt.Errorf("%w: %w", ErrSurface, err)
	}
	slogger().Debug("swapchain created", "width", w, "height", h, "offscreen", sc.Offscreen(), "format", format.String())
	return sc, nil
}

// ensureTextures (re)creates the swapchain textures for the given size.
// On failure, partially created textures are released.
func (sc *Swapchain) ensureTextures(width, height uint32, offscreen bool) error {
	if sc.width == width && sc.height == height && sc.depthTex != nil {
		return nil
	}
	sc.destroyTextures()

	device := sc.ctx.device
	size := hal.Extent3D{
		Width:              width,
		Height:             height,
		DepthOrArrayLayers: 1,
	}

	if offscreen {
		for i := range sc.color {
			tex, err := device.CreateTexture(&hal.TextureDescriptor{
				Label:         fmt.Sprintf("swapchain_color_%d", i),
				Size:          size,
				MipLevelCount: 1,
				SampleCount:   1,
				Dimension:     gputypes.TextureDimension2D,
				Format:        sc.format.Color,
				Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
			})
			if err != nil {
				sc.destroyTextures()
				return fmt.Errorf("create color texture %d: %w", i, err)
			}
			sc.color[i] = tex

			view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
				Label: fmt.Sprintf("swapchain_color_view_%d", i),
			})
			if err != nil {
				sc.destroyTextures()
				return fmt.Errorf("create color texture view %d: %w", i, err)
			}
			sc.colorView[i] = view
		}
	}

	depthTex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "swapchain_depth_stencil",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        sc.format.DepthStencil,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		sc.destroyTextures()
		return fmt.Errorf("create depth/stencil texture: %w", err)
	}
	sc.depthTex = depthTex

	depthView, err := device.CreateTextureView(depthTex, &hal.TextureViewDescriptor{
		Label: "swapchain_depth_stencil_view",
	})
	if err != nil {
		sc.destroyTextures()
		return fmt.Errorf("create depth/stencil texture view: %w", err)
	}
	sc.depthView = depthView

	sc.width = width
	sc.height = height
	return nil
}

// Acquire returns the color view for the next frame.
func (sc *Swapchain) Acquire() (hal.TextureView, error) {
	if sc.destroyed {
		return nil, fmt.Errorf("acquire: %w", ErrDestroyed)
	}
	if sc.Offscreen() {
		return sc.colorView[sc.back], nil
	}

	// The window may have been resized since the last frame; the
	// depth/stencil attachment has to follow.
	w, h := sc.src.Size()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("acquire: invalid surface size %dx%d", w, h)
	}
	if err := sc.ensureTextures(uint32(w), uint32(h), false); err != nil { //nolint:gosec // checked positive above
		return nil, fmt.Errorf("acquire: %w", err)
	}
	view, err := sc.src.View()
	if err != nil {
		return nil, fmt.Errorf("acquire: %w", err)
	}
	if view == nil {
		return nil, fmt.Errorf("acquire: surface has no view")
	}
	return view, nil
}

// DepthStencilView returns the depth/stencil attachment view.
func (sc *Swapchain) DepthStencilView() hal.TextureView { return sc.depthView }

// Present makes the frame rendered since the last Acquire visible. For
// window-backed swapchains the host presents after the frame returns, so
// Present only counts.
func (sc *Swapchain) Present() error {
	if sc.destroyed {
		return fmt.Errorf("present: %w", ErrDestroyed)
	}
	if sc.Offscreen() {
		sc.back ^= 1
	}
	sc.presented++
	return nil
}

// Front returns the most recently presented offscreen color texture, or nil
// for window-backed swapchains and before the first Present.
func (sc *Swapchain) Front() hal.Texture {
	if !sc.Offscreen() || sc.presented == 0 {
		return nil
	}
	return sc.color[sc.back^1]
}

// ReadFront copies the front buffer to the CPU as tightly packed rows of
// 4-byte pixels in the swapchain's color format, top row first.
func (sc *Swapchain) ReadFront() ([]byte, error) {
	if sc.destroyed {
		return nil, fmt.Errorf("gpu: read front: %w", ErrDestroyed)
	}
	front := sc.Front()
	if front == nil {
		return nil, fmt.Errorf("gpu: read front: no offscreen frame presented")
	}

	rowBytes := sc.width * 4
	// Buffer rows of a texture copy are 256-byte aligned.
	paddedRow := (rowBytes + 255) &^ 255
	raw, err := sc.ctx.readback("front_readback", uint64(paddedRow)*uint64(sc.height), func(encoder hal.CommandEncoder, staging hal.Buffer) {
		encoder.CopyTextureToBuffer(front, staging, []hal.BufferTextureCopy{{
			BufferLayout: hal.ImageDataLayout{BytesPerRow: paddedRow, RowsPerImage: sc.height},
			TextureBase:  hal.ImageCopyTexture{Texture: front, Aspect: gputypes.TextureAspectAll},
			Size:         hal.Extent3D{Width: sc.width, Height: sc.height, DepthOrArrayLayers: 1},
		}})
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: read front: %w", err)
	}

	out := make([]byte, int(rowBytes)*int(sc.height))
	for y := range int(sc.height) {
		copy(out[y*int(rowBytes):(y+1)*int(rowBytes)], raw[y*int(paddedRow):])
	}
	return out, nil
}

// Offscreen reports whether the swapchain owns its color buffers.
func (sc *Swapchain) Offscreen() bool { return sc.color[0] != nil }

// Format returns the pixel format the swapchain was created with.
func (sc *Swapchain) Format() PixelFormat { return sc.format }

// Size returns the current swapchain size.
func (sc *Swapchain) Size() (width, height uint32) { return sc.width, sc.height }

// Presented returns the number of frames presented.
func (sc *Swapchain) Presented() uint64 { return sc.presented }

// Destroy releases the swapchain textures. If sc is current on its context
// it is unbound first. Safe to call multiple times.
func (sc *Swapchain) Destroy() {
	if sc.destroyed {
		return
	}
	sc.destroyed = true
	if sc.ctx.swapchain == sc {
		sc.ctx.swapchain = nil
	}
	sc.destroyTextures()
}

// destroyTextures releases textures in reverse creation order.
func (sc *Swapchain) destroyTextures() {
	device := sc.ctx.device
	if device == nil {
		return
	}
	if sc.depthView != nil {
		device.DestroyTextureView(sc.depthView)
		sc.depthView = nil
	}
	if sc.depthTex != nil {
		device.DestroyTexture(sc.depthTex)
		sc.depthTex = nil
	}
	for i := len(sc.color) - 1; i >= 0; i-- {
		if sc.colorView[i] != nil {
			device.DestroyTextureView(sc.colorView[i])
			sc.colorView[i] = nil
		}
		if sc.color[i] != nil {
			device.DestroyTexture(sc.color[i])
			sc.color[i] = nil
		}
	}
	sc.width, sc.height = 0, 0
}
