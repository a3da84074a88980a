package gpu

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
	"github.com/gogpu/wgpu/hal/software"
)

// Backend names a HAL backend.
type Backend string

// Supported backends.
const (
	// BackendVulkan requires the vulkan HAL to be registered, typically by
	// a blank import of github.com/gogpu/wgpu/hal/vulkan in the main package.
	BackendVulkan Backend = "vulkan"

	// BackendSoftware rasterizes on the CPU into real textures. It is the
	// default for headless runs.
	BackendSoftware Backend = "software"

	// BackendNoop is the null device. It accepts every call and renders
	// nothing.
	BackendNoop Backend = "noop"
)

// Hardware reports whether the backend drives a GPU. The noop and software
// backends only ever expose CPU adapters.
func (b Backend) Hardware() bool { return b == BackendVulkan }

// instanceFactory is the part of a HAL backend the context needs.
type instanceFactory interface {
	CreateInstance(desc *hal.InstanceDescriptor) (hal.Instance, error)
}

func (b Backend) factory() (instanceFactory, bool) {
	switch b {
	case BackendNoop:
		return &noop.API{}, true
	case BackendSoftware:
		return software.API{}, true
	case BackendVulkan:
		backend, ok := hal.GetBackend(gputypes.BackendVulkan)
		if !ok {
			return nil, false
		}
		return backend, true
	}
	return nil, false
}

// Options configures standalone device bring-up.
type Options struct {
	Backend Backend

	// RequireAccelerated rejects adapters that are neither discrete nor
	// integrated GPUs.
	RequireAccelerated bool

	// factory replaces the backend lookup. Tests only.
	factory instanceFactory
}

// Context is the rendering context: the device and queue every draw goes
// through, plus the swapchain, program and vertex buffer currently bound to
// it. A Context is not safe for concurrent use.
type Context struct {
	instance   hal.Instance
	halAdapter hal.Adapter
	device     hal.Device
	queue      hal.Queue
	adapter    string

	// shared is set when the device belongs to someone else (the window)
	// and must not be destroyed here.
	shared bool

	swapchain    *Swapchain
	program      *Program
	vertexBuffer *VertexBuffer
}

// Open brings up a standalone device and binds it to src, one step at a
// time: backend lookup (display), instance creation (initialize), adapter
// selection (config), device open (context), swapchain creation (surface)
// and MakeCurrent (bind). The first adapter is used; there is no fallback
// search. A failing step releases everything created before it, in reverse
// order, and returns the step's error.
func Open(src SurfaceSource, format PixelFormat, opts Options) (*Context, error) {
	factory := opts.factory
	if factory == nil {
		var ok bool
		if factory, ok = opts.Backend.factory(); !ok {
			return nil, fmt.Errorf("%w: backend %q not available", ErrDisplay, opts.Backend)
		}
	}

	instance, err := factory.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInitialize, err)
	}

	adapters := instance.EnumerateAdapters(nil)
	fail := func(err error) (*Context, error) {
		destroyAdapters(adapters)
		instance.Destroy()
		return nil, err
	}
	if len(adapters) == 0 {
		return fail(fmt.Errorf("%w: no adapters", ErrConfig))
	}
	selected := &adapters[0]
	hardware := selected.Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
		selected.Info.DeviceType == gputypes.DeviceTypeIntegratedGPU
	if opts.RequireAccelerated && !hardware {
		return fail(fmt.Errorf("%w: adapter %q is not hardware accelerated", ErrConfig, selected.Info.Name))
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return fail(fmt.Errorf("%w: %w", ErrContext, err))
	}
	// Only the selected adapter outlives bring-up.
	destroyAdapters(adapters[1:])

	c := &Context{
		instance:   instance,
		halAdapter: selected.Adapter,
		device:     openDev.Device,
		queue:      openDev.Queue,
		adapter:    selected.Info.Name,
	}
	slogger().Debug("driver initialized", "backend", string(opts.Backend), "adapter", c.adapter)

	if err := c.bindSurface(src, format); err != nil {
		c.Destroy()
		return nil, err
	}
	return c, nil
}

// destroyAdapters releases adapters in reverse enumeration order.
func destroyAdapters(adapters []hal.ExposedAdapter) {
	for i := len(adapters) - 1; i >= 0; i-- {
		adapters[i].Adapter.Destroy()
	}
}

// Attach wraps the device of a window host's DeviceProvider and binds it to
// src. The provider's device must be a *wgpu.Device; its HAL device and
// queue are used directly and never destroyed by the returned Context.
func Attach(provider gpucontext.DeviceProvider, src SurfaceSource, format PixelFormat) (*Context, error) {
	if provider == nil {
		return nil, fmt.Errorf("%w: nil device provider", ErrContext)
	}
	dev, ok := provider.Device().(*wgpu.Device)
	if !ok || dev == nil {
		return nil, fmt.Errorf("%w: provider device is %T, want *wgpu.Device", ErrContext, provider.Device())
	}
	device := dev.HalDevice()
	if device == nil {
		return nil, fmt.Errorf("%w: provider device has no HAL device", ErrContext)
	}
	queue := dev.HalQueue()
	if queue == nil {
		return nil, fmt.Errorf("%w: provider device has no HAL queue", ErrContext)
	}

	name := provider.AdapterInfo().Name
	if name == "" {
		name = "shared"
	}
	c := &Context{
		device:  device,
		queue:   queue,
		adapter: name,
		shared:  true,
	}
	slogger().Debug("driver attached", "adapter", c.adapter)

	if err := c.bindSurface(src, format); err != nil {
		c.Destroy()
		return nil, err
	}
	return c, nil
}

// bindSurface runs the surface and bind steps of bring-up.
func (c *Context) bindSurface(src SurfaceSource, format PixelFormat) error {
	sc, err := c.NewSwapchain(src, format)
	if err != nil {
		return err
	}
	if err := c.MakeCurrent(sc); err != nil {
		sc.Destroy()
		return err
	}
	return nil
}

// MakeCurrent binds sc as the surface every frame renders into. The
// swapchain must have been created by c. Passing nil unbinds the current
// swapchain without destroying it.
func (c *Context) MakeCurrent(sc *Swapchain) error {
	if c.device == nil {
		return fmt.Errorf("%w: %w", ErrBind, ErrDestroyed)
	}
	if sc == nil {
		c.swapchain = nil
		return nil
	}
	if sc.ctx != c {
		return fmt.Errorf("%w: swapchain belongs to another context", ErrBind)
	}
	if sc.destroyed {
		return fmt.Errorf("%w: %w", ErrBind, ErrDestroyed)
	}
	c.swapchain = sc
	return nil
}

// UseProgram makes p the program used by subsequent frames.
func (c *Context) UseProgram(p *Program) error {
	if p == nil {
		c.program = nil
		return nil
	}
	if p.ctx != c {
		return fmt.Errorf("gpu: use program: program belongs to another context")
	}
	if p.destroyed {
		return fmt.Errorf("gpu: use program: %w", ErrDestroyed)
	}
	c.program = p
	return nil
}

// BindVertexBuffer makes vb the vertex source for subsequent frames.
func (c *Context) BindVertexBuffer(vb *VertexBuffer) error {
	if vb == nil {
		c.vertexBuffer = nil
		return nil
	}
	if vb.ctx != c {
		return fmt.Errorf("gpu: bind vertex buffer: buffer belongs to another context")
	}
	if vb.buf == nil {
		return fmt.Errorf("gpu: bind vertex buffer: %w", ErrDestroyed)
	}
	c.vertexBuffer = vb
	return nil
}

// Current returns the bound swapchain, or nil.
func (c *Context) Current() *Swapchain { return c.swapchain }

// Program returns the program in use, or nil.
func (c *Context) Program() *Program { return c.program }

// Adapter returns the name of the adapter the device was opened on. An
// attached device reports the provider's adapter name, or "shared".
func (c *Context) Adapter() string { return c.adapter }

// Shared reports whether the device is owned by another component.
func (c *Context) Shared() bool { return c.shared }

// Device returns the HAL device.
func (c *Context) Device() hal.Device { return c.device }

// Queue returns the HAL queue.
func (c *Context) Queue() hal.Queue { return c.queue }

// Destroy unbinds everything, destroys the current swapchain and, for a
// standalone context, the device and instance. Programs and vertex buffers
// must be destroyed by their owners before calling Destroy. Safe to call
// multiple times.
func (c *Context) Destroy() {
	if c.device == nil {
		return
	}
	c.program = nil
	c.vertexBuffer = nil
	if c.swapchain != nil {
		sc := c.swapchain
		c.swapchain = nil
		sc.Destroy()
	}
	if !c.shared {
		c.device.Destroy()
		if c.halAdapter != nil {
			c.halAdapter.Destroy()
		}
		if c.instance != nil {
			c.instance.Destroy()
		}
	}
	c.device = nil
	c.queue = nil
	c.halAdapter = nil
	c.instance = nil
}
