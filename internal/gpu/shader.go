package gpu

import (
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/naga/spirv"
	"github.com/gogpu/wgpu/hal"
)

// Stage is a programmable pipeline stage.
type Stage int

const (
	StageVertex Stage = iota + 1
	StageFragment
)

func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// Shader is a single compiled shader stage.
//
// A shader that failed to compile is still returned by Compile so its
// diagnostic can be read; it cannot be linked.
type Shader struct {
	stage      Stage
	source     string
	entryPoint string
	inputs     []Attribute

	spirv      []uint32
	module     hal.ShaderModule
	diagnostic string

	device hal.Device

	// linked is set once a Program takes ownership of module.
	linked   bool
	released bool
}

// Compile compiles WGSL source for one stage. The source is parsed, lowered
// and validated once; the entry point and its inputs are read from the
// resulting IR, which is then translated to SPIR-V for a shader module on
// the context's device.
//
// On failure Compile returns both the shader and a *CompileError carrying
// the compiler diagnostic.
func Compile(ctx *Context, stage Stage, source string) (*Shader, error) {
	if stage != StageVertex && stage != StageFragment {
		return nil, fmt.Errorf("gpu: compile: unknown stage %v", stage)
	}
	if ctx == nil || ctx.device == nil {
		return nil, fmt.Errorf("gpu: compile %s: %w", stage, ErrDestroyed)
	}

	s := &Shader{stage: stage, source: source, device: ctx.device}

	module, err := lower(source)
	if err != nil {
		return s, s.fail(err.Error())
	}
	ep, err := reflectEntryPoint(module, stage)
	if err != nil {
		return s, s.fail(err.Error())
	}
	s.entryPoint = ep.name
	s.inputs = ep.inputs

	words, err := generateSPIRV(module)
	if err != nil {
		return s, s.fail(err.Error())
	}
	s.spirv = words

	shaderModule, err := ctx.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label: s.stage.String() + "_" + s.entryPoint,
		Source: hal.ShaderSource{
			SPIRV: words,
		},
	})
	if err != nil {
		return s, s.fail(err.Error())
	}
	s.module = shaderModule

	slogger().Debug("shader compiled", "stage", stage.String(), "entry", s.entryPoint, "inputs", len(s.inputs), "words", len(words))
	return s, nil
}

func (s *Shader) fail(diagnostic string) error {
	s.diagnostic = diagnostic
	return &CompileError{Stage: s.stage, Diagnostic: diagnostic}
}

// lower parses and validates WGSL into naga IR.
func lower(source string) (*ir.Module, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return nil, err
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return nil, fmt.Errorf("lowering error: %w", err)
	}
	verrs, err := naga.Validate(module)
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	if len(verrs) > 0 {
		return nil, fmt.Errorf("validation failed: %w", verrs[0])
	}
	return module, nil
}

// generateSPIRV translates a validated module to SPIR-V words.
func generateSPIRV(module *ir.Module) ([]uint32, error) {
	spirvBytes, err := naga.GenerateSPIRV(module, spirv.Options{Version: spirv.Version1_3})
	if err != nil {
		return nil, err
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("SPIR-V size %d is not a multiple of 4", len(spirvBytes))
	}

	// SPIR-V is little-endian 32-bit words
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}

// Stage returns the shader's stage.
func (s *Shader) Stage() Stage { return s.stage }

// Compiled reports whether compilation succeeded.
func (s *Shader) Compiled() bool { return s.module != nil }

// Diagnostic returns the compiler diagnostic, empty on success.
func (s *Shader) Diagnostic() string { return s.diagnostic }

// EntryPoint returns the stage entry point name.
func (s *Shader) EntryPoint() string { return s.entryPoint }

// Inputs returns the @location inputs of a vertex shader.
func (s *Shader) Inputs() []Attribute { return s.inputs }

// SPIRV returns the compiled SPIR-V words.
func (s *Shader) SPIRV() []uint32 { return s.spirv }

// Release drops the caller's reference. The shader module is destroyed
// unless a linked program still uses it, in which case the program destroys
// it. Safe to call multiple times.
func (s *Shader) Release() {
	if s.released {
		return
	}
	s.released = true
	if !s.linked && s.module != nil {
		s.device.DestroyShaderModule(s.module)
		s.module = nil
	}
}
