package triangle

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/triangle/internal/gpu"
	"github.com/gogpu/triangle/internal/window"
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("triangle: invalid config")

// Config configures a run. Use DefaultConfig and the With methods to build
// one.
type Config struct {
	Title  string
	Width  int
	Height int

	// Headless runs without a display on an offscreen surface.
	Headless bool

	// Backend is the HAL backend for headless runs: "software", "noop" or
	// "vulkan". Windowed runs share the window's device.
	Backend string

	// Frames posts the close request to a headless window after that many
	// frames; 0 posts it before the first. The close message itself renders
	// one more frame, so a run renders Frames+1 frames.
	Frames int

	// Pixel format requirements.
	ColorBits    int
	DepthBits    int
	StencilBits  int
	DoubleBuffer bool
	Accelerated  bool

	// ClearColor is the RGBA color set after each clear.
	ClearColor [4]float64
}

// DefaultConfig returns the default configuration: an 800x600 window,
// 32-bit double-buffered color with 24-bit depth and 8-bit stencil on a
// hardware adapter, transparent black clear color. Headless runs use the
// software rasterizer.
func DefaultConfig() Config {
	wc := window.DefaultConfig()
	req := gpu.DefaultRequirements()
	return Config{
		Title:        wc.Title,
		Width:        wc.Width,
		Height:       wc.Height,
		Backend:      string(gpu.BackendSoftware),
		Frames:       1,
		ColorBits:    req.ColorBits,
		DepthBits:    req.DepthBits,
		StencilBits:  req.StencilBits,
		DoubleBuffer: req.DoubleBuffer,
		Accelerated:  req.Accelerated,
	}
}

// WithTitle sets the window title.
func (c Config) WithTitle(title string) Config {
	c.Title = title
	return c
}

// WithSize sets the window size.
func (c Config) WithSize(width, height int) Config {
	c.Width = width
	c.Height = height
	return c
}

// WithHeadless selects the headless host.
func (c Config) WithHeadless(headless bool) Config {
	c.Headless = headless
	return c
}

// WithBackend sets the headless HAL backend.
func (c Config) WithBackend(backend string) Config {
	c.Backend = backend
	return c
}

// WithFrames sets the number of headless frames before the window closes.
func (c Config) WithFrames(n int) Config {
	c.Frames = n
	return c
}

// WithPixelBits sets the minimum color, depth and stencil bits.
func (c Config) WithPixelBits(color, depth, stencil int) Config {
	c.ColorBits = color
	c.DepthBits = depth
	c.StencilBits = stencil
	return c
}

// WithClearColor sets the clear color.
func (c Config) WithClearColor(r, g, b, a float64) Config {
	c.ClearColor = [4]float64{r, g, b, a}
	return c
}

// Validate reports values no component could accept. Window size and pixel
// bit counts are left to the window and format selection, which fail with
// their own errors.
func (c Config) Validate() error {
	if c.Frames < 0 {
		return fmt.Errorf("%w: negative frame count %d", ErrInvalidConfig, c.Frames)
	}
	switch gpu.Backend(c.Backend) {
	case gpu.BackendSoftware, gpu.BackendNoop, gpu.BackendVulkan:
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, c.Backend)
	}
	for i, v := range c.ClearColor {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: clear color component %d out of range: %v", ErrInvalidConfig, i, v)
		}
	}
	return nil
}

func (c Config) requirements() gpu.PixelFormatRequirements {
	return gpu.PixelFormatRequirements{
		DoubleBuffer: c.DoubleBuffer,
		RGBA:         true,
		ColorBits:    c.ColorBits,
		DepthBits:    c.DepthBits,
		StencilBits:  c.StencilBits,
		Accelerated:  c.Accelerated,
	}
}

func (c Config) windowConfig() window.Config {
	wc := window.DefaultConfig()
	wc.Title = c.Title
	wc.Width = c.Width
	wc.Height = c.Height
	return wc
}

func (c Config) clearColor() gputypes.Color {
	return gputypes.Color{R: c.ClearColor[0], G: c.ClearColor[1], B: c.ClearColor[2], A: c.ClearColor[3]}
}
