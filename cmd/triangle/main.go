// Command triangle opens a window and draws a red triangle with a WGSL
// shader pair until the window is closed.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/gogpu/triangle"

	_ "github.com/gogpu/wgpu/hal/vulkan"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	def := triangle.DefaultConfig()

	fs := flag.NewFlagSet("triangle", flag.ContinueOnError)
	fs.SetOutput(out)
	var (
		headless    = fs.Bool("headless", false, "render offscreen without a native window")
		backend     = fs.String("backend", def.Backend, "GPU backend for headless runs (software, noop, vulkan)")
		frames      = fs.Int("frames", def.Frames, "headless frames before the close request; the close itself renders one more")
		colorBits   = fs.Int("color-bits", def.ColorBits, "required color bits")
		depthBits   = fs.Int("depth-bits", def.DepthBits, "required depth bits")
		stencilBits = fs.Int("stencil-bits", def.StencilBits, "required stencil bits")
		verbose     = fs.Bool("v", false, "log debug detail")
	)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
	triangle.SetLogger(log)

	cfg := def.
		WithHeadless(*headless).
		WithBackend(*backend).
		WithFrames(*frames).
		WithPixelBits(*colorBits, *depthBits, *stencilBits)

	if err := triangle.New(cfg).Run(); err != nil {
		log.Error("triangle failed", "err", err)
		return 1
	}
	if *headless {
		fmt.Fprintf(out, "rendered %dx%d offscreen\n", cfg.Width, cfg.Height)
	}
	return 0
}
