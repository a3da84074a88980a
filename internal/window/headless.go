package window

import (
	"fmt"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/triangle/internal/gpu"
)

// registered window classes, by name
var (
	classMu sync.Mutex
	classes = map[string]bool{}
)

func registerClass(name string) error {
	classMu.Lock()
	defer classMu.Unlock()
	if classes[name] {
		return fmt.Errorf("%w: class %q already registered", ErrRegisterClass, name)
	}
	classes[name] = true
	return nil
}

func unregisterClass(name string) {
	classMu.Lock()
	delete(classes, name)
	classMu.Unlock()
}

// Stats counts what a HeadlessHost did.
type Stats struct {
	Created   int
	Destroyed int
	Frames    int
}

// HeadlessHost runs the message loop over an in-memory queue. Its surface
// has no GPU views, so the renderer opens its own device and renders
// offscreen.
//
// The queue is scripted: CloseAfter decides when a CloseRequest is posted.
// While the window is open and the queue is empty, the next message is an
// Expose.
type HeadlessHost struct {
	cfg        Config
	closeAfter int

	queue   []Event
	surface *headlessSurface
	stats   Stats
}

// NewHeadlessHost returns a host that closes its window immediately.
func NewHeadlessHost(cfg Config) *HeadlessHost {
	return &HeadlessHost{cfg: cfg}
}

// CloseAfter makes the window close once n frames have run. 0 closes as
// soon as the loop starts; a negative n never closes.
func (h *HeadlessHost) CloseAfter(n int) *HeadlessHost {
	h.closeAfter = n
	return h
}

// Stats returns the host counters.
func (h *HeadlessHost) Stats() Stats { return h.stats }

// Post appends ev to the message queue.
func (h *HeadlessHost) Post(ev Event) {
	h.queue = append(h.queue, ev)
}

// Run implements Host.
func (h *HeadlessHost) Run(handler Handler) error {
	if err := h.cfg.validate(); err != nil {
		return err
	}
	if err := registerClass(h.cfg.Class); err != nil {
		return err
	}
	defer unregisterClass(h.cfg.Class)

	h.createWindow()

	if err := handler.Setup(h.surface); err != nil {
		handler.Teardown()
		h.destroyWindow()
		return err
	}
	if h.closeAfter == 0 {
		h.Post(CloseRequest{})
	}

	var runErr error
	for {
		ev := h.next()
		if _, ok := ev.(Quit); ok {
			break
		}
		if err := handler.Frame(h.surface); err != nil {
			runErr = err
			break
		}
		h.stats.Frames++
		if h.closeAfter > 0 && h.stats.Frames == h.closeAfter {
			h.Post(CloseRequest{})
		}
		h.dispatch(ev)
	}

	handler.Teardown()
	if h.surface.alive {
		h.destroyWindow()
	}
	slogger().Debug("message loop exited", "frames", h.stats.Frames)
	return runErr
}

func (h *HeadlessHost) createWindow() {
	h.queue = h.queue[:0]
	h.surface = &headlessSurface{width: h.cfg.Width, height: h.cfg.Height, alive: true}
	h.stats.Created++
	h.Post(CreateNotify{})
	h.Post(ShowNotify{})
	slogger().Debug("window created", "class", h.cfg.Class, "title", h.cfg.Title, "width", h.cfg.Width, "height", h.cfg.Height)
}

// destroyWindow destroys the window and handles DestroyNotify in place.
func (h *HeadlessHost) destroyWindow() {
	h.surface.alive = false
	h.stats.Destroyed++
	slogger().Debug("window destroyed", "class", h.cfg.Class)
	h.dispatch(DestroyNotify{})
}

// next retrieves the next message.
func (h *HeadlessHost) next() Event {
	if len(h.queue) == 0 {
		if !h.surface.alive {
			return Quit{}
		}
		return Expose{}
	}
	ev := h.queue[0]
	h.queue = h.queue[1:]
	return ev
}

func (h *HeadlessHost) dispatch(ev Event) {
	slogger().Debug("dispatch", "event", eventName(ev))
	switch ev.(type) {
	case CloseRequest:
		if h.surface.alive {
			h.destroyWindow()
		}
	case DestroyNotify:
		h.Post(Quit{})
	}
}

// headlessSurface accepts one pixel format for its lifetime.
type headlessSurface struct {
	width, height int
	alive         bool

	format  gpu.PixelFormat
	applied bool
}

func (s *headlessSurface) Size() (int, int) { return s.width, s.height }

func (s *headlessSurface) View() (hal.TextureView, error) { return nil, nil }

func (s *headlessSurface) ApplyFormat(f gpu.PixelFormat) error {
	if s.applied && s.format != f {
		return fmt.Errorf("%w: drawable already uses %s", gpu.ErrFormatRejected, s.format)
	}
	s.format = f
	s.applied = true
	return nil
}

func (s *headlessSurface) Format() (gpu.PixelFormat, bool) { return s.format, s.applied }

func (s *headlessSurface) DeviceProvider() gpucontext.DeviceProvider { return nil }
