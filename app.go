package triangle

import (
	"errors"
	"fmt"

	"github.com/gogpu/triangle/internal/gpu"
	"github.com/gogpu/triangle/internal/window"
)

// App draws one static triangle per message-loop iteration until its window
// is closed. It implements window.Handler.
type App struct {
	cfg  Config
	host window.Host

	ctx      *gpu.Context
	vertex   *gpu.Shader
	fragment *gpu.Shader
	program  *gpu.Program
	vbo      *gpu.VertexBuffer
	loop     *gpu.FrameLoop
	frames   uint64
}

// New returns an App for cfg. Without WithHost, a headless config runs on a
// window.HeadlessHost closing after cfg.Frames frames, anything else on a
// native gogpu window.
func New(cfg Config, opts ...Option) *App {
	var o appOptions
	for _, opt := range opts {
		opt(&o)
	}
	host := o.host
	if host == nil {
		if cfg.Headless {
			host = window.NewHeadlessHost(cfg.windowConfig()).CloseAfter(cfg.Frames)
		} else {
			host = window.NewGogpuHost(cfg.windowConfig())
		}
	}
	return &App{cfg: cfg, host: host}
}

// Run validates the config and runs the window until it closes.
// It returns nil on a normal close and the first fatal error otherwise.
func (a *App) Run() error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	return a.host.Run(a)
}

// Setup implements window.Handler: pixel format, context, shaders, program
// and vertex buffer, in that order. Resources acquired before a failure are
// released by Teardown.
func (a *App) Setup(s window.Surface) error {
	log := Logger()

	req := a.cfg.requirements()
	provider := s.DeviceProvider()
	standalone := provider == nil
	if backend := gpu.Backend(a.cfg.Backend); standalone && !backend.Hardware() && req.Accelerated {
		log.Debug("CPU backend, hardware acceleration not required", "backend", a.cfg.Backend)
		req.Accelerated = false
	}

	format, err := gpu.ChoosePixelFormat(req, gpu.CandidateFormats())
	if err != nil {
		return err
	}
	if err := s.ApplyFormat(format); err != nil {
		return err
	}

	if standalone {
		a.ctx, err = gpu.Open(s, format, gpu.Options{
			Backend:            gpu.Backend(a.cfg.Backend),
			RequireAccelerated: req.Accelerated,
		})
	} else {
		a.ctx, err = gpu.Attach(provider, s, format)
	}
	if err != nil {
		return err
	}
	log.Info("driver version", "adapter", a.ctx.Adapter())

	if err := a.buildProgram(); err != nil {
		return err
	}
	if err := a.uploadGeometry(); err != nil {
		return err
	}

	a.loop = gpu.NewFrameLoop(a.ctx, uint32(len(triangleVertices)/3), a.cfg.clearColor()) //nolint:gosec // three vertices
	return nil
}

// buildProgram compiles both stages and links them. A stage that fails to
// compile is logged and setup continues; the link then fails.
func (a *App) buildProgram() error {
	log := Logger()
	var compileErr *gpu.CompileError

	log.Info("Vertex--")
	vs, err := gpu.Compile(a.ctx, gpu.StageVertex, VertexShaderSource)
	a.vertex = vs
	if errors.As(err, &compileErr) {
		log.Error("shader compilation failed", "stage", compileErr.Stage.String(), "diagnostic", compileErr.Diagnostic)
	} else if err != nil {
		return err
	}

	log.Info("Fragment--")
	fs, err := gpu.Compile(a.ctx, gpu.StageFragment, FragmentShaderSource)
	a.fragment = fs
	if errors.As(err, &compileErr) {
		log.Error("shader compilation failed", "stage", compileErr.Stage.String(), "diagnostic", compileErr.Diagnostic)
	} else if err != nil {
		return err
	}

	log.Info("Program+Link--")
	a.program, err = gpu.Link(a.ctx, vs, fs)
	if err != nil {
		return err
	}
	a.releaseShaders()
	log.Info("--Shader Compilation OK")

	return a.ctx.UseProgram(a.program)
}

func (a *App) uploadGeometry() error {
	var err error
	a.vbo, err = gpu.NewVertexBuffer(a.ctx, triangleVertices, gpu.StaticDraw)
	if err != nil {
		return err
	}
	if err := a.ctx.BindVertexBuffer(a.vbo); err != nil {
		return err
	}

	loc := a.program.AttribLocation("position")
	if err := a.program.VertexAttribPointer(loc, 3, gpu.Float32, false, 0, 0); err != nil {
		return fmt.Errorf("triangle: describe position: %w", err)
	}
	if err := a.program.EnableVertexAttribArray(loc); err != nil {
		return fmt.Errorf("triangle: enable position: %w", err)
	}
	return nil
}

// Frame implements window.Handler.
func (a *App) Frame(window.Surface) error {
	if a.loop == nil {
		return gpu.ErrNotCurrent
	}
	if err := a.loop.Frame(); err != nil {
		return err
	}
	a.frames++
	return nil
}

// Frames returns the number of frames rendered.
func (a *App) Frames() uint64 { return a.frames }

// Teardown implements window.Handler. It releases everything Setup
// acquired, in reverse order, and is safe after a partial Setup.
func (a *App) Teardown() {
	a.loop = nil
	if a.vbo != nil {
		a.vbo.Destroy()
		a.vbo = nil
	}
	if a.program != nil {
		a.program.Destroy()
		a.program = nil
	}
	a.releaseShaders()
	if a.ctx != nil {
		a.ctx.Destroy()
		a.ctx = nil
	}
}

func (a *App) releaseShaders() {
	if a.fragment != nil {
		a.fragment.Release()
		a.fragment = nil
	}
	if a.vertex != nil {
		a.vertex.Release()
		a.vertex = nil
	}
}
