// Package gpu implements the rendering bootstrap on top of wgpu/hal.
//
// The package owns everything between a window surface and a presented
// frame:
//
//   - pixel format selection ([ChoosePixelFormat])
//   - device bring-up and surface binding ([Open], [Attach])
//   - shader compilation and program linking ([Compile], [Link])
//   - the static vertex buffer ([NewVertexBuffer])
//   - the per-message frame loop ([FrameLoop])
//
// All driver state is held by an explicit [Context] instead of ambient
// thread-local state. Every HAL call that can fail is checked and its error
// returned wrapped with the failing operation; nothing in this package exits
// the process.
//
// Tests run against the wgpu/hal/noop device, so no GPU is required.
package gpu
