package window

import (
	"errors"
	"fmt"

	"github.com/gogpu/gogpu"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/triangle/internal/gpu"
)

// GogpuHost opens a native window through gogpu. Rendering is
// event-driven: the draw callback runs once per redraw the window system
// asks for. Run must be called from the main goroutine.
type GogpuHost struct {
	cfg Config
}

// NewGogpuHost returns a host for a native window.
func NewGogpuHost(cfg Config) *GogpuHost {
	return &GogpuHost{cfg: cfg}
}

// Run implements Host. Setup runs inside the first draw callback that has a
// GPU context available. The first handler error asks the app to quit and
// is returned once Run unwinds.
func (g *GogpuHost) Run(handler Handler) error {
	if err := g.cfg.validate(); err != nil {
		return err
	}

	app := gogpu.NewApp(gogpu.DefaultConfig().
		WithTitle(g.cfg.Title).
		WithSize(g.cfg.Width, g.cfg.Height).
		WithContinuousRender(false))

	s := &gogpuSurface{provider: app.GPUContextProvider, width: g.cfg.Width, height: g.cfg.Height}

	var (
		firstErr    error
		setupCalled bool
		ready       bool
		tornDown    bool
	)
	fail := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
		app.Quit()
	}
	teardown := func() {
		if setupCalled && !tornDown {
			tornDown = true
			handler.Teardown()
		}
	}

	app.OnDraw(func(dc *gogpu.Context) {
		if firstErr != nil {
			return
		}
		s.dc = dc
		if !setupCalled {
			if app.GPUContextProvider() == nil {
				return
			}
			setupCalled = true
			if err := handler.Setup(s); err != nil {
				fail(err)
				return
			}
			ready = true
		}
		if !ready {
			return
		}
		if err := handler.Frame(s); err != nil {
			fail(err)
		}
	})
	app.OnClose(func() {
		slogger().Debug("window closing")
		teardown()
	})

	slogger().Debug("window created", "title", g.cfg.Title, "width", g.cfg.Width, "height", g.cfg.Height)
	err := app.Run()
	teardown()
	if firstErr != nil {
		return firstErr
	}
	if err != nil {
		return fmt.Errorf("window: run: %w", err)
	}
	return nil
}

// drawContext is the part of *gogpu.Context a surface reads.
type drawContext interface {
	SurfaceSize() (width, height uint32)
	SurfaceView() *wgpu.TextureView
}

// gogpuSurface exposes the current draw context of a gogpu window.
type gogpuSurface struct {
	provider func() gpucontext.DeviceProvider
	dc       drawContext

	width, height int

	format  gpu.PixelFormat
	applied bool
}

// Size returns the surface size in physical pixels, which the depth/stencil
// attachment has to match.
func (s *gogpuSurface) Size() (int, int) {
	if s.dc == nil {
		return s.width, s.height
	}
	w, h := s.dc.SurfaceSize()
	return int(w), int(h)
}

func (s *gogpuSurface) View() (hal.TextureView, error) {
	if s.dc == nil {
		return nil, errors.New("window: no draw context")
	}
	view := s.dc.SurfaceView()
	if view == nil {
		return nil, errors.New("window: no surface texture for this frame")
	}
	hv := view.HalTextureView()
	if hv == nil {
		return nil, errors.New("window: surface view released")
	}
	return hv, nil
}

// ApplyFormat accepts only the color format the window surface presents:
// the provider's surface format, or BGRA8Unorm when it reports none.
func (s *gogpuSurface) ApplyFormat(f gpu.PixelFormat) error {
	want := gputypes.TextureFormatBGRA8Unorm
	if p := s.DeviceProvider(); p != nil && p.SurfaceFormat() != gputypes.TextureFormatUndefined {
		want = p.SurfaceFormat()
	}
	if f.Color != want {
		return fmt.Errorf("%w: surface presents %v, not %v", gpu.ErrFormatRejected, want, f.Color)
	}
	s.format = f
	s.applied = true
	return nil
}

func (s *gogpuSurface) Format() (gpu.PixelFormat, bool) { return s.format, s.applied }

func (s *gogpuSurface) DeviceProvider() gpucontext.DeviceProvider {
	return s.provider()
}
