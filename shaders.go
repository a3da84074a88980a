package triangle

import _ "embed"

// Shader sources compiled at setup.
var (
	//go:embed shaders/triangle_vs.wgsl
	VertexShaderSource string

	//go:embed shaders/triangle_fs.wgsl
	FragmentShaderSource string
)

// triangleVertices is one triangle in normalized device coordinates, xyz
// per vertex.
var triangleVertices = []float32{
	0.0, 0.5, 0.0,
	-0.5, -0.5, 0.0,
	0.5, -0.5, 0.0,
}
