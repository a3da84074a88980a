package gpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Usage is the expected update frequency of a vertex buffer.
type Usage int

const (
	StaticDraw Usage = iota
	DynamicDraw
	StreamDraw
)

func (u Usage) String() string {
	switch u {
	case StaticDraw:
		return "static"
	case DynamicDraw:
		return "dynamic"
	case StreamDraw:
		return "stream"
	default:
		return fmt.Sprintf("Usage(%d)", int(u))
	}
}

// VertexBuffer is a GPU buffer holding float32 vertex data.
type VertexBuffer struct {
	ctx   *Context
	buf   hal.Buffer
	size  uint64
	count int
	usage Usage
}

// NewVertexBuffer uploads data to a new vertex buffer on ctx.
func NewVertexBuffer(ctx *Context, data []float32, usage Usage) (*VertexBuffer, error) {
	if ctx == nil || ctx.device == nil {
		return nil, fmt.Errorf("gpu: create vertex buffer: %w", ErrDestroyed)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("gpu: create vertex buffer: empty data")
	}

	raw := encodeFloats(data)
	buf, err := ctx.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "vertex_buffer",
		Size:  uint64(len(raw)),
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst | gputypes.BufferUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create vertex buffer: %w", err)
	}
	if err := ctx.queue.WriteBuffer(buf, 0, raw); err != nil {
		ctx.device.DestroyBuffer(buf)
		return nil, fmt.Errorf("gpu: upload vertex buffer: %w", err)
	}

	slogger().Debug("vertex buffer uploaded", "floats", len(data), "bytes", len(raw), "usage", usage.String())
	return &VertexBuffer{
		ctx:   ctx,
		buf:   buf,
		size:  uint64(len(raw)),
		count: len(data),
		usage: usage,
	}, nil
}

func encodeFloats(data []float32) []byte {
	raw := make([]byte, len(data)*4)
	for i, f := range data {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(f))
	}
	return raw
}

// Len returns the number of float32 values in the buffer.
func (vb *VertexBuffer) Len() int { return vb.count }

// Size returns the buffer size in bytes.
func (vb *VertexBuffer) Size() uint64 { return vb.size }

// Usage returns the usage hint the buffer was created with.
func (vb *VertexBuffer) Usage() Usage { return vb.usage }

// Readback copies the buffer contents back to the CPU. It submits a copy
// into a staging buffer and waits for it to complete.
func (vb *VertexBuffer) Readback() ([]float32, error) {
	if vb.buf == nil || vb.ctx.device == nil {
		return nil, fmt.Errorf("gpu: readback: %w", ErrDestroyed)
	}
	raw, err := vb.ctx.readback("vertex_readback", vb.size, func(encoder hal.CommandEncoder, staging hal.Buffer) {
		encoder.CopyBufferToBuffer(vb.buf, staging, []hal.BufferCopy{
			{SrcOffset: 0, DstOffset: 0, Size: vb.size},
		})
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: readback: %w", err)
	}
	out := make([]float32, vb.count)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return out, nil
}

// Destroy releases the buffer. If vb is bound to its context it is
// unbound first. Safe to call multiple times.
func (vb *VertexBuffer) Destroy() {
	if vb.buf == nil {
		return
	}
	if vb.ctx.vertexBuffer == vb {
		vb.ctx.vertexBuffer = nil
	}
	if vb.ctx.device != nil {
		vb.ctx.device.DestroyBuffer(vb.buf)
	}
	vb.buf = nil
}

// readback records copies into a mappable staging buffer of the given
// size, submits them, waits and returns the staging contents.
func (c *Context) readback(label string, size uint64, record func(hal.CommandEncoder, hal.Buffer)) ([]byte, error) {
	device := c.device
	staging, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: label + "_staging",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create staging buffer: %w", err)
	}
	defer device.DestroyBuffer(staging)

	encoder, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label + "_encoder"})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(label); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}
	record(encoder, staging)
	if err := c.submit(encoder); err != nil {
		return nil, err
	}

	mapping, err := device.MapBuffer(staging, 0, size)
	if err != nil {
		return nil, fmt.Errorf("map staging buffer: %w", err)
	}
	out := make([]byte, size)
	copy(out, unsafe.Slice((*byte)(mapping.Ptr), size))
	if err := device.UnmapBuffer(staging); err != nil {
		return nil, fmt.Errorf("unmap staging buffer: %w", err)
	}
	return out, nil
}

// submit finishes encoder, submits it and waits for the device to go idle.
// If encoding cannot be finished the encoder is discarded.
func (c *Context) submit(encoder hal.CommandEncoder) error {
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		encoder.DiscardEncoding()
		return fmt.Errorf("end encoding: %w", err)
	}
	defer c.device.FreeCommandBuffer(cmdBuf)

	if _, err := c.queue.Submit([]hal.CommandBuffer{cmdBuf}); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	if err := c.device.WaitIdle(); err != nil {
		return fmt.Errorf("wait for GPU: %w", err)
	}
	return nil
}
