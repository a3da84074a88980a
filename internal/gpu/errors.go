package gpu

import (
	"errors"
	"fmt"
)

// Surface binding errors.
var (
	// ErrNoPixelFormat is returned when no candidate pixel format satisfies
	// the requested capabilities.
	ErrNoPixelFormat = errors.New("gpu: pixel format selection failed")

	// ErrFormatRejected is returned when a surface refuses a pixel format.
	ErrFormatRejected = errors.New("gpu: pixel format setting failed")
)

// Context bring-up errors, one per step, in bring-up order.
var (
	ErrDisplay    = errors.New("gpu: display creation failed")
	ErrInitialize = errors.New("gpu: driver initialization failed")
	ErrConfig     = errors.New("gpu: config selection failed")
	ErrContext    = errors.New("gpu: context creation failed")
	ErrSurface    = errors.New("gpu: surface creation failed")
	ErrBind       = errors.New("gpu: context binding failed")
)

// Rendering state errors.
var (
	// ErrAttribNotFound is returned when a vertex attribute location is -1
	// or not declared by the vertex stage.
	ErrAttribNotFound = errors.New("gpu: vertex attribute not found")

	// ErrInvalidLayout is returned when a described vertex layout does not
	// match the vertex stage input it feeds.
	ErrInvalidLayout = errors.New("gpu: invalid vertex layout")

	// ErrNoProgram is returned when drawing without a program in use.
	ErrNoProgram = errors.New("gpu: no program in use")

	// ErrNoVertexBuffer is returned when drawing without a bound vertex buffer.
	ErrNoVertexBuffer = errors.New("gpu: no vertex buffer bound")

	// ErrNotCurrent is returned when drawing without a current swapchain.
	ErrNotCurrent = errors.New("gpu: no current surface")

	// ErrDestroyed is returned when a destroyed object is used.
	ErrDestroyed = errors.New("gpu: object destroyed")
)

// CompileError reports a shader stage that failed to compile.
// It is the one non-fatal setup error: the shader returned alongside it is
// not usable, but callers may continue.
type CompileError struct {
	Stage      Stage
	Diagnostic string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("gpu: %s shader compilation failed: %s", e.Stage, e.Diagnostic)
}

// LinkError reports a program that failed to link.
type LinkError struct {
	Diagnostic string
}

func (e *LinkError) Error() string {
	return "gpu: program link failed: " + e.Diagnostic
}
