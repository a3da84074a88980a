// Package triangle opens a window, brings up a GPU context on it, compiles
// a WGSL shader pair and draws one static triangle every message-loop
// iteration until the window is closed.
//
// # Quick Start
//
//	import "github.com/gogpu/triangle"
//
//	app := triangle.New(triangle.DefaultConfig())
//	if err := app.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Headless
//
// A headless config runs the same setup and frame loop on an offscreen
// swapchain, without a display. The default "software" backend rasterizes
// on the CPU; "noop" accepts every call and draws nothing:
//
//	cfg := triangle.DefaultConfig().
//	    WithHeadless(true).
//	    WithFrames(10)
//	err := triangle.New(cfg).Run()
//
// # Errors
//
// Setup failures are fatal and returned from [App.Run] wrapping one of the
// sentinels of the failing step. Shader compilation failures are not: they
// are logged with the compiler diagnostic and the run fails at link time.
//
// # Logging
//
// Nothing is logged by default. Use [SetLogger] to enable log/slog output.
package triangle
