package gpu

import (
	"fmt"
	"slices"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// ComponentType is the scalar type of vertex attribute components.
type ComponentType int

const (
	// Float32 is the only component type the vertex fetch supports.
	Float32 ComponentType = iota + 1
)

func (t ComponentType) String() string {
	if t == Float32 {
		return "float32"
	}
	return fmt.Sprintf("ComponentType(%d)", int(t))
}

// attribLayout is how one attribute is fetched from the bound vertex buffer.
type attribLayout struct {
	size       int
	typ        ComponentType
	normalized bool
	stride     int
	offset     int
	described  bool
	enabled    bool
}

// Program is a linked vertex and fragment shader pair plus the vertex
// layout the caller described for it. The render pipeline is built lazily
// on the first frame, once the target format is known.
type Program struct {
	ctx      *Context
	vertex   *Shader
	fragment *Shader
	layout   hal.PipelineLayout

	// attribs parallels vertex.inputs.
	attribs []attribLayout

	pipeline       hal.RenderPipeline
	pipelineFormat gputypes.TextureFormat
	slots          []vertexSlot

	destroyed bool
}

// vertexSlot is one vertex buffer binding of the built pipeline.
type vertexSlot struct {
	slot   uint32
	offset uint64
}

// Link combines a compiled vertex shader and fragment shader into a
// program. Each shader can be linked once; the program owns the shader
// modules afterwards. Failures return a *LinkError.
func Link(ctx *Context, vs, fs *Shader) (*Program, error) {
	switch {
	case ctx == nil || ctx.device == nil:
		return nil, &LinkError{Diagnostic: "context destroyed"}
	case vs == nil || fs == nil:
		return nil, &LinkError{Diagnostic: "missing shader stage"}
	case vs.stage != StageVertex:
		return nil, &LinkError{Diagnostic: fmt.Sprintf("first shader is a %s shader, want vertex", vs.stage)}
	case fs.stage != StageFragment:
		return nil, &LinkError{Diagnostic: fmt.Sprintf("second shader is a %s shader, want fragment", fs.stage)}
	case !vs.Compiled():
		return nil, &LinkError{Diagnostic: "vertex shader not compiled: " + vs.diagnostic}
	case !fs.Compiled():
		return nil, &LinkError{Diagnostic: "fragment shader not compiled: " + fs.diagnostic}
	case vs.linked || fs.linked:
		return nil, &LinkError{Diagnostic: "shader already linked into another program"}
	case vs.device != ctx.device || fs.device != ctx.device:
		return nil, &LinkError{Diagnostic: "shader compiled on another device"}
	}

	layout, err := ctx.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "program_layout",
		BindGroupLayouts: []hal.BindGroupLayout{},
	})
	if err != nil {
		return nil, &LinkError{Diagnostic: err.Error()}
	}

	vs.linked = true
	fs.linked = true
	p := &Program{
		ctx:      ctx,
		vertex:   vs,
		fragment: fs,
		layout:   layout,
		attribs:  make([]attribLayout, len(vs.inputs)),
	}
	slogger().Debug("program linked", "vertex", vs.entryPoint, "fragment", fs.entryPoint, "inputs", len(vs.inputs))
	return p, nil
}

// AttribLocation returns the location of the named vertex input, or -1 if
// the vertex stage does not declare it.
func (p *Program) AttribLocation(name string) int32 {
	for _, a := range p.vertex.inputs {
		if a.Name == name {
			return a.Location
		}
	}
	return -1
}

// attribIndex maps a location to its index in p.attribs.
func (p *Program) attribIndex(loc int32) (int, error) {
	if loc < 0 {
		return -1, fmt.Errorf("%w: location %d", ErrAttribNotFound, loc)
	}
	for i, a := range p.vertex.inputs {
		if a.Location == loc {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: location %d not declared", ErrAttribNotFound, loc)
}

// VertexAttribPointer describes how the attribute at loc is read from the
// bound vertex buffer: size components of typ, stride bytes apart (0 means
// tightly packed), starting offset bytes into the buffer.
func (p *Program) VertexAttribPointer(loc int32, size int, typ ComponentType, normalized bool, stride, offset int) error {
	if p.destroyed {
		return fmt.Errorf("gpu: vertex attrib pointer: %w", ErrDestroyed)
	}
	i, err := p.attribIndex(loc)
	if err != nil {
		return err
	}
	switch {
	case size < 1 || size > 4:
		return fmt.Errorf("%w: size %d out of range 1..4", ErrInvalidLayout, size)
	case typ != Float32:
		return fmt.Errorf("%w: unsupported component type %v", ErrInvalidLayout, typ)
	case normalized:
		return fmt.Errorf("%w: normalized %v components are not supported", ErrInvalidLayout, typ)
	case stride < 0 || offset < 0:
		return fmt.Errorf("%w: negative stride or offset", ErrInvalidLayout)
	case offset%4 != 0:
		return fmt.Errorf("%w: offset %d is not 4-byte aligned", ErrInvalidLayout, offset)
	case stride != 0 && stride < size*4:
		return fmt.Errorf("%w: stride %d is smaller than the %d-byte attribute", ErrInvalidLayout, stride, size*4)
	}

	a := &p.attribs[i]
	a.size = size
	a.typ = typ
	a.normalized = normalized
	a.stride = stride
	a.offset = offset
	a.described = true
	p.invalidatePipeline()
	return nil
}

// EnableVertexAttribArray turns on fetching for the attribute at loc.
func (p *Program) EnableVertexAttribArray(loc int32) error {
	if p.destroyed {
		return fmt.Errorf("gpu: enable vertex attrib array: %w", ErrDestroyed)
	}
	i, err := p.attribIndex(loc)
	if err != nil {
		return err
	}
	if !p.attribs[i].enabled {
		p.attribs[i].enabled = true
		p.invalidatePipeline()
	}
	return nil
}

func (p *Program) invalidatePipeline() {
	if p.pipeline != nil {
		p.vertex.device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
		p.slots = nil
	}
}

// vertexLayout validates the described attributes against the vertex stage
// inputs and returns one buffer layout per input, in location order.
func (p *Program) vertexLayout() ([]gputypes.VertexBufferLayout, []vertexSlot, error) {
	order := make([]int, len(p.vertex.inputs))
	for i := range order {
		order[i] = i
	}
	slices.SortFunc(order, func(a, b int) int {
		return int(p.vertex.inputs[a].Location - p.vertex.inputs[b].Location)
	})

	layouts := make([]gputypes.VertexBufferLayout, 0, len(order))
	slots := make([]vertexSlot, 0, len(order))
	for _, i := range order {
		in := p.vertex.inputs[i]
		a := p.attribs[i]
		switch {
		case !a.enabled:
			return nil, nil, fmt.Errorf("%w: input %s (location %d) not enabled", ErrInvalidLayout, in.Name, in.Location)
		case !a.described:
			return nil, nil, fmt.Errorf("%w: input %s (location %d) has no layout", ErrInvalidLayout, in.Name, in.Location)
		case !in.Float:
			return nil, nil, fmt.Errorf("%w: input %s is %s, vertex fetch supplies f32", ErrInvalidLayout, in.Name, in.Type)
		case a.size != in.Components:
			return nil, nil, fmt.Errorf("%w: input %s is %s, layout gives %d components", ErrInvalidLayout, in.Name, in.Type, a.size)
		}

		stride := a.stride
		if stride == 0 {
			stride = a.size * 4
		}
		layouts = append(layouts, gputypes.VertexBufferLayout{
			ArrayStride: uint64(stride), //nolint:gosec // validated non-negative
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: vertexFormat(a.size), Offset: 0, ShaderLocation: uint32(in.Location)}, //nolint:gosec // locations are non-negative
			},
		})
		slots = append(slots, vertexSlot{
			slot:   uint32(len(slots)), //nolint:gosec // bounded by input count
			offset: uint64(a.offset),   //nolint:gosec // validated non-negative
		})
	}
	return layouts, slots, nil
}

func vertexFormat(size int) gputypes.VertexFormat {
	switch size {
	case 1:
		return gputypes.VertexFormatFloat32
	case 2:
		return gputypes.VertexFormatFloat32x2
	case 3:
		return gputypes.VertexFormatFloat32x3
	default:
		return gputypes.VertexFormatFloat32x4
	}
}

// ensurePipeline builds the render pipeline for the given surface format,
// rebuilding it if the format or the vertex layout changed.
func (p *Program) ensurePipeline(format PixelFormat) error {
	if p.destroyed {
		return fmt.Errorf("gpu: build pipeline: %w", ErrDestroyed)
	}
	if p.pipeline != nil && p.pipelineFormat == format.Color {
		return nil
	}
	p.invalidatePipeline()

	buffers, slots, err := p.vertexLayout()
	if err != nil {
		return err
	}

	pipeline, err := p.vertex.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "triangle_pipeline",
		Layout: p.layout,
		Vertex: hal.VertexState{
			Module:     p.vertex.module,
			EntryPoint: p.vertex.entryPoint,
			Buffers:    buffers,
		},
		Fragment: &hal.FragmentState{
			Module:     p.fragment.module,
			EntryPoint: p.fragment.entryPoint,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    format.Color,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		DepthStencil: &hal.DepthStencilState{
			Format:            format.DepthStencil,
			DepthWriteEnabled: false,
			DepthCompare:      gputypes.CompareFunctionAlways,
			StencilFront: hal.StencilFaceState{
				Compare:     gputypes.CompareFunctionAlways,
				FailOp:      hal.StencilOperationKeep,
				DepthFailOp: hal.StencilOperationKeep,
				PassOp:      hal.StencilOperationKeep,
			},
			StencilBack: hal.StencilFaceState{
				Compare:     gputypes.CompareFunctionAlways,
				FailOp:      hal.StencilOperationKeep,
				DepthFailOp: hal.StencilOperationKeep,
				PassOp:      hal.StencilOperationKeep,
			},
			StencilReadMask:  0x00,
			StencilWriteMask: 0x00,
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create render pipeline: %w", err)
	}
	p.pipeline = pipeline
	p.pipelineFormat = format.Color
	p.slots = slots
	slogger().Debug("render pipeline created", "format", format.String(), "buffers", len(buffers))
	return nil
}

// Destroy releases the pipeline, the pipeline layout and the linked shader
// modules. Safe to call multiple times.
func (p *Program) Destroy() {
	if p.destroyed {
		return
	}
	p.destroyed = true
	if p.ctx.program == p {
		p.ctx.program = nil
	}
	device := p.vertex.device
	if p.pipeline != nil {
		device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.layout != nil {
		device.DestroyPipelineLayout(p.layout)
		p.layout = nil
	}
	for _, s := range []*Shader{p.fragment, p.vertex} {
		if s.module != nil {
			device.DestroyShaderModule(s.module)
			s.module = nil
		}
		s.linked = false
	}
}
