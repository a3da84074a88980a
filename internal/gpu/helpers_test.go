package gpu

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

const testVertexWGSL = `
// passthrough
@vertex
fn vs_main(@location(0) position: vec3<f32>) -> @builtin(position) vec4<f32> {
    return vec4<f32>(position, 1.0);
}
`

const testFragmentWGSL = `
@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(1.0, 0.0, 0.0, 1.0);
}
`

var testTriangle = []float32{
	0.0, 0.5, 0.0,
	-0.5, -0.5, 0.0,
	0.5, -0.5, 0.0,
}

// createNoopDevice creates a noop device and queue for testing.
// Returns the device, queue, and a cleanup function.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue, func()) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, openDev.Queue, cleanup
}

// offscreenSource is a surface without GPU views.
type offscreenSource struct {
	w, h    int
	viewErr error
}

func (s *offscreenSource) Size() (int, int) { return s.w, s.h }

func (s *offscreenSource) View() (hal.TextureView, error) { return nil, s.viewErr }

// newSharedDevice wraps a noop HAL device in a *wgpu.Device, the way a
// window host hands out its device.
func newSharedDevice(t *testing.T) *wgpu.Device {
	t.Helper()
	device, queue, cleanup := createNoopDevice(t)
	t.Cleanup(cleanup)
	dev, err := wgpu.NewDeviceFromHAL(device, queue, 0, gputypes.DefaultLimits(), "shared")
	if err != nil {
		t.Fatalf("NewDeviceFromHAL: %v", err)
	}
	t.Cleanup(dev.Release)
	return dev
}

// deviceProvider is a gpucontext.DeviceProvider over a fixed device.
type deviceProvider struct {
	device gpucontext.Device
	name   string
}

func (p *deviceProvider) Device() gpucontext.Device { return p.device }

func (p *deviceProvider) Queue() gpucontext.Queue {
	if d, ok := p.device.(*wgpu.Device); ok && d != nil {
		return d.Queue()
	}
	return nil
}

func (p *deviceProvider) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatUndefined
}

func (p *deviceProvider) Adapter() gpucontext.Adapter { return nil }

func (p *deviceProvider) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Name: p.name, Type: gpucontext.AdapterTypeUnknown}
}

// recordingFactory is a noop backend whose instance, adapters and device
// record their Destroy calls, and whose bring-up steps fail on demand.
type recordingFactory struct {
	createErr  error
	adapters   int
	deviceType gputypes.DeviceType
	openErr    error

	destroyed []string
}

func (f *recordingFactory) CreateInstance(desc *hal.InstanceDescriptor) (hal.Instance, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	inst, err := noop.API{}.CreateInstance(desc)
	if err != nil {
		return nil, err
	}
	return &recordingInstance{Instance: inst, f: f}, nil
}

type recordingInstance struct {
	hal.Instance
	f *recordingFactory
}

func (i *recordingInstance) EnumerateAdapters(surface hal.Surface) []hal.ExposedAdapter {
	exposed := i.Instance.EnumerateAdapters(surface)
	out := make([]hal.ExposedAdapter, i.f.adapters)
	for n := range out {
		name := fmt.Sprintf("adapter%d", n)
		out[n] = exposed[0]
		out[n].Info.Name = name
		out[n].Info.DeviceType = i.f.deviceType
		out[n].Adapter = &recordingAdapter{Adapter: exposed[0].Adapter, name: name, f: i.f}
	}
	return out
}

func (i *recordingInstance) Destroy() {
	i.f.destroyed = append(i.f.destroyed, "instance")
	i.Instance.Destroy()
}

type recordingAdapter struct {
	hal.Adapter
	name string
	f    *recordingFactory
}

func (a *recordingAdapter) Open(features gputypes.Features, limits gputypes.Limits) (hal.OpenDevice, error) {
	if a.f.openErr != nil {
		return hal.OpenDevice{}, a.f.openErr
	}
	od, err := a.Adapter.Open(features, limits)
	if err != nil {
		return od, err
	}
	od.Device = &recordingDevice{Device: od.Device, f: a.f}
	return od, nil
}

func (a *recordingAdapter) Destroy() {
	a.f.destroyed = append(a.f.destroyed, a.name)
	a.Adapter.Destroy()
}

type recordingDevice struct {
	hal.Device
	f *recordingFactory
}

func (d *recordingDevice) Destroy() {
	d.f.destroyed = append(d.f.destroyed, "device")
	d.Device.Destroy()
}

func testFormat(t *testing.T) PixelFormat {
	t.Helper()
	f, err := ChoosePixelFormat(DefaultRequirements(), CandidateFormats())
	if err != nil {
		t.Fatalf("ChoosePixelFormat: %v", err)
	}
	return f
}

// newTestContext opens a noop context bound to an 800x600 offscreen surface.
func newTestContext(t *testing.T) *Context {
	t.Helper()
	ctx, err := Open(&offscreenSource{w: 800, h: 600}, testFormat(t), Options{Backend: BackendNoop})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(ctx.Destroy)
	return ctx
}

func compileShader(t *testing.T, ctx *Context, stage Stage, src string) *Shader {
	t.Helper()
	s, err := Compile(ctx, stage, src)
	if err != nil {
		t.Fatalf("Compile(%s): %v", stage, err)
	}
	return s
}

// newTestProgram links the test shaders, releases them and makes the
// program current.
func newTestProgram(t *testing.T, ctx *Context) *Program {
	t.Helper()
	vs := compileShader(t, ctx, StageVertex, testVertexWGSL)
	fs := compileShader(t, ctx, StageFragment, testFragmentWGSL)
	p, err := Link(ctx, vs, fs)
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	vs.Release()
	fs.Release()
	if err := ctx.UseProgram(p); err != nil {
		t.Fatalf("UseProgram: %v", err)
	}
	t.Cleanup(p.Destroy)
	return p
}

// setupTriangle prepares ctx to draw testTriangle.
func setupTriangle(t *testing.T, ctx *Context) (*Program, *VertexBuffer) {
	t.Helper()
	p := newTestProgram(t, ctx)
	vb, err := NewVertexBuffer(ctx, testTriangle, StaticDraw)
	if err != nil {
		t.Fatalf("NewVertexBuffer: %v", err)
	}
	t.Cleanup(vb.Destroy)
	if err := ctx.BindVertexBuffer(vb); err != nil {
		t.Fatalf("BindVertexBuffer: %v", err)
	}
	loc := p.AttribLocation("position")
	if err := p.VertexAttribPointer(loc, 3, Float32, false, 0, 0); err != nil {
		t.Fatalf("VertexAttribPointer: %v", err)
	}
	if err := p.EnableVertexAttribArray(loc); err != nil {
		t.Fatalf("EnableVertexAttribArray: %v", err)
	}
	return p, vb
}

func wantErr(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("error = %v, want %v", err, target)
	}
}

// newSoftwareContext opens a CPU-rasterized context on a 64x64 offscreen
// surface. 64 pixels keep texture rows at the 256-byte copy alignment.
func newSoftwareContext(t *testing.T, format PixelFormat) *Context {
	t.Helper()
	ctx, err := Open(&offscreenSource{w: 64, h: 64}, format, Options{Backend: BackendSoftware})
	if err != nil {
		t.Fatalf("Open(software): %v", err)
	}
	t.Cleanup(ctx.Destroy)
	return ctx
}

// failingQueue fails uploads or submissions on demand.
type failingQueue struct {
	hal.Queue
	writeErr  error
	submitErr error
}

func (q *failingQueue) WriteBuffer(buffer hal.Buffer, offset uint64, data []byte) error {
	if q.writeErr != nil {
		return q.writeErr
	}
	return q.Queue.WriteBuffer(buffer, offset, data)
}

func (q *failingQueue) Submit(cmds []hal.CommandBuffer) (uint64, error) {
	if q.submitErr != nil {
		return 0, q.submitErr
	}
	return q.Queue.Submit(cmds)
}

// trackingDevice counts buffer destroys and, when endErr is set, hands out
// encoders that fail to finish and count discards.
type trackingDevice struct {
	hal.Device
	endErr error

	destroyedBuffers int
	discarded        int
}

func (d *trackingDevice) DestroyBuffer(buffer hal.Buffer) {
	d.destroyedBuffers++
	d.Device.DestroyBuffer(buffer)
}

func (d *trackingDevice) CreateCommandEncoder(desc *hal.CommandEncoderDescriptor) (hal.CommandEncoder, error) {
	enc, err := d.Device.CreateCommandEncoder(desc)
	if err != nil || d.endErr == nil {
		return enc, err
	}
	return &failingEncoder{CommandEncoder: enc, d: d}, nil
}

type failingEncoder struct {
	hal.CommandEncoder
	d *trackingDevice
}

func (e *failingEncoder) EndEncoding() (hal.CommandBuffer, error) { return nil, e.d.endErr }

func (e *failingEncoder) DiscardEncoding() {
	e.d.discarded++
	e.CommandEncoder.DiscardEncoding()
}
