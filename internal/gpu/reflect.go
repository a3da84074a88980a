package gpu

import (
	"fmt"

	"github.com/gogpu/naga/ir"
)

// Attribute is a vertex stage input declared with @location.
type Attribute struct {
	Name       string
	Location   int32
	Components int
	// Type is the WGSL spelling of the input type, e.g. "vec3<f32>".
	Type string
	// Float reports 32-bit float components, the only kind vertex fetch
	// supplies.
	Float bool
}

type entryPoint struct {
	name   string
	inputs []Attribute
}

// reflectEntryPoint finds the single entry point of the given stage in a
// lowered module and, for vertex stages, collects its @location inputs.
func reflectEntryPoint(module *ir.Module, stage Stage) (entryPoint, error) {
	want := ir.StageVertex
	if stage == StageFragment {
		want = ir.StageFragment
	}

	var found *ir.EntryPoint
	for i := range module.EntryPoints {
		if module.EntryPoints[i].Stage != want {
			continue
		}
		if found != nil {
			return entryPoint{}, fmt.Errorf("multiple @%s entry points (%s, %s)",
				stage, found.Name, module.EntryPoints[i].Name)
		}
		found = &module.EntryPoints[i]
	}
	if found == nil {
		return entryPoint{}, fmt.Errorf("no @%s entry point", stage)
	}

	ep := entryPoint{name: found.Name}
	if stage != StageVertex {
		return ep, nil
	}
	inputs, err := vertexInputs(module, &found.Function)
	if err != nil {
		return entryPoint{}, fmt.Errorf("entry point %s: %w", found.Name, err)
	}
	ep.inputs = inputs
	return ep, nil
}

// vertexInputs flattens the @location arguments of fn, including members of
// struct arguments. Builtins are skipped.
func vertexInputs(module *ir.Module, fn *ir.Function) ([]Attribute, error) {
	var attrs []Attribute
	seen := make(map[uint32]string)
	add := func(name string, binding *ir.Binding, th ir.TypeHandle) error {
		loc, ok := (*binding).(ir.LocationBinding)
		if !ok {
			return nil
		}
		if prev, dup := seen[loc.Location]; dup {
			return fmt.Errorf("@location(%d) used by %s and %s", loc.Location, prev, name)
		}
		seen[loc.Location] = name
		a, err := attribute(module, name, loc.Location, th)
		if err != nil {
			return err
		}
		attrs = append(attrs, a)
		return nil
	}

	for _, arg := range fn.Arguments {
		if arg.Binding != nil {
			if err := add(arg.Name, arg.Binding, arg.Type); err != nil {
				return nil, err
			}
			continue
		}
		inner, err := typeInner(module, arg.Type)
		if err != nil {
			return nil, err
		}
		st, ok := inner.(ir.StructType)
		if !ok {
			return nil, fmt.Errorf("argument %s has no binding", arg.Name)
		}
		for _, m := range st.Members {
			if m.Binding == nil {
				return nil, fmt.Errorf("member %s of argument %s has no binding", m.Name, arg.Name)
			}
			if err := add(m.Name, m.Binding, m.Type); err != nil {
				return nil, err
			}
		}
	}
	return attrs, nil
}

func attribute(module *ir.Module, name string, location uint32, th ir.TypeHandle) (Attribute, error) {
	inner, err := typeInner(module, th)
	if err != nil {
		return Attribute{}, err
	}
	a := Attribute{Name: name, Location: int32(location)} //nolint:gosec // WGSL locations are small
	switch t := inner.(type) {
	case ir.ScalarType:
		a.Components = 1
		a.Type = scalarName(t)
		a.Float = isFloat32(t)
	case ir.VectorType:
		a.Components = int(t.Size)
		a.Type = fmt.Sprintf("vec%d<%s>", t.Size, scalarName(t.Scalar))
		a.Float = isFloat32(t.Scalar)
	default:
		return Attribute{}, fmt.Errorf("input %s: unsupported type %T", name, inner)
	}
	return a, nil
}

func typeInner(module *ir.Module, th ir.TypeHandle) (ir.TypeInner, error) {
	if int(th) >= len(module.Types) {
		return nil, fmt.Errorf("type handle %d out of range", th)
	}
	return module.Types[th].Inner, nil
}

func isFloat32(s ir.ScalarType) bool {
	return s.Kind == ir.ScalarFloat && s.Width == 4
}

func scalarName(s ir.ScalarType) string {
	switch s.Kind {
	case ir.ScalarFloat:
		if s.Width == 2 {
			return "f16"
		}
		return "f32"
	case ir.ScalarSint:
		return "i32"
	case ir.ScalarUint:
		return "u32"
	case ir.ScalarBool:
		return "bool"
	}
	return "unknown"
}
