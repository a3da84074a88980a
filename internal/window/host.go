// Package window provides the top-level window the renderer draws into and
// the message loop that drives it.
//
// A [Host] owns the window for the duration of [Host.Run] and calls a
// [Handler] once for setup, once per retrieved message and once for
// teardown. [GogpuHost] opens a native window through gogpu;
// [HeadlessHost] runs the same loop over an explicit queue without a
// display.
package window

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/triangle/internal/gpu"
)

var (
	// ErrRegisterClass is returned when the window class cannot be registered.
	ErrRegisterClass = errors.New("window: class registration failed")

	// ErrCreateWindow is returned when the window cannot be created.
	ErrCreateWindow = errors.New("window: window creation failed")
)

// Host creates a window and runs its message loop.
type Host interface {
	// Run blocks until the window is closed or h fails.
	Run(h Handler) error
}

// Handler receives the window lifecycle.
type Handler interface {
	// Setup is called once, before the first frame.
	Setup(s Surface) error

	// Frame is called once per retrieved message, before it is dispatched.
	// An error ends the loop.
	Frame(s Surface) error

	// Teardown is called once after the loop exits, also when Setup failed.
	Teardown()
}

// Surface is the drawable side of a window.
type Surface interface {
	gpu.SurfaceSource

	// ApplyFormat sets the drawable's pixel format. It returns an error
	// wrapping gpu.ErrFormatRejected if the drawable cannot use f.
	ApplyFormat(f gpu.PixelFormat) error

	// Format returns the applied pixel format.
	Format() (gpu.PixelFormat, bool)

	// DeviceProvider returns the window's GPU device, or nil when the
	// renderer has to open its own.
	DeviceProvider() gpucontext.DeviceProvider
}

// Config describes the window.
type Config struct {
	Class  string
	Title  string
	Width  int
	Height int
}

// DefaultConfig returns an 800x600 window titled "WGSL Triangle".
func DefaultConfig() Config {
	return Config{
		Class:  "triangle",
		Title:  "WGSL Triangle",
		Width:  800,
		Height: 600,
	}
}

func (c Config) validate() error {
	if c.Class == "" {
		return fmt.Errorf("%w: empty class name", ErrRegisterClass)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: invalid size %dx%d", ErrCreateWindow, c.Width, c.Height)
	}
	return nil
}
