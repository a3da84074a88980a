package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// FrameState is the state of a FrameLoop.
type FrameState int

const (
	StateIdle FrameState = iota
	StateRendering
)

func (s FrameState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRendering:
		return "rendering"
	default:
		return fmt.Sprintf("FrameState(%d)", int(s))
	}
}

// DefaultClearColor is the clear color in effect before any is set.
var DefaultClearColor = gputypes.Color{R: 0, G: 0, B: 0, A: 0}

// FrameStats is a snapshot of a FrameLoop.
type FrameStats struct {
	Frames uint64
	State  FrameState
}

// FrameLoop renders one frame per call to Frame: clear, draw the bound
// vertex buffer with the program in use, present.
//
// The clear color is updated after each clear, so the first frame clears
// with DefaultClearColor and later frames with the configured color.
type FrameLoop struct {
	ctx         *Context
	vertexCount uint32

	clearColor gputypes.Color // applied by the next clear
	setColor   gputypes.Color // becomes clearColor after each clear
	lastClear  gputypes.Color

	state  FrameState
	frames uint64
}

// NewFrameLoop returns a loop drawing vertexCount vertices per frame on ctx.
func NewFrameLoop(ctx *Context, vertexCount uint32, clear gputypes.Color) *FrameLoop {
	return &FrameLoop{
		ctx:         ctx,
		vertexCount: vertexCount,
		clearColor:  DefaultClearColor,
		setColor:    clear,
	}
}

// Frame renders and presents one frame. The loop is Rendering for the
// duration of the call and Idle again when it returns, error or not.
func (l *FrameLoop) Frame() error {
	l.state = StateRendering
	defer func() { l.state = StateIdle }()

	c := l.ctx
	switch {
	case c.device == nil:
		return fmt.Errorf("gpu: frame: %w", ErrDestroyed)
	case c.swapchain == nil:
		return fmt.Errorf("gpu: frame: %w", ErrNotCurrent)
	case c.program == nil:
		return fmt.Errorf("gpu: frame: %w", ErrNoProgram)
	case c.vertexBuffer == nil:
		return fmt.Errorf("gpu: frame: %w", ErrNoVertexBuffer)
	}
	sc, p, vb := c.swapchain, c.program, c.vertexBuffer

	if err := p.ensurePipeline(sc.format); err != nil {
		return fmt.Errorf("gpu: frame: %w", err)
	}
	view, err := sc.Acquire()
	if err != nil {
		return fmt.Errorf("gpu: frame: %w", err)
	}

	encoder, err := c.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "frame_encoder"})
	if err != nil {
		return fmt.Errorf("gpu: frame: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("frame"); err != nil {
		return fmt.Errorf("gpu: frame: begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "frame_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:       view,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: l.clearColor,
			},
		},
		DepthStencilAttachment: &hal.RenderPassDepthStencilAttachment{
			View:              sc.DepthStencilView(),
			DepthLoadOp:       gputypes.LoadOpClear,
			DepthStoreOp:      gputypes.StoreOpDiscard,
			DepthClearValue:   1.0,
			StencilLoadOp:     gputypes.LoadOpClear,
			StencilStoreOp:    gputypes.StoreOpDiscard,
			StencilClearValue: 0,
		},
	})
	rp.SetPipeline(p.pipeline)
	for _, s := range p.slots {
		rp.SetVertexBuffer(s.slot, vb.buf, s.offset)
	}
	rp.Draw(l.vertexCount, 1, 0, 0)
	rp.End()

	if err := c.submit(encoder); err != nil {
		return fmt.Errorf("gpu: frame: %w", err)
	}
	// Clear first, then set the color: it takes effect on the next frame.
	l.lastClear = l.clearColor
	l.clearColor = l.setColor

	if err := sc.Present(); err != nil {
		return fmt.Errorf("gpu: frame: %w", err)
	}
	l.frames++
	return nil
}

// SetClearColor sets the color applied by the clear after the next one.
func (l *FrameLoop) SetClearColor(c gputypes.Color) { l.setColor = c }

// LastClearColor returns the color the most recent frame was cleared with.
func (l *FrameLoop) LastClearColor() gputypes.Color { return l.lastClear }

// State returns the current loop state.
func (l *FrameLoop) State() FrameState { return l.state }

// Stats returns the frame count and current state.
func (l *FrameLoop) Stats() FrameStats {
	return FrameStats{Frames: l.frames, State: l.state}
}
