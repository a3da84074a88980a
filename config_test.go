package triangle

import (
	"errors"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Title != "WGSL Triangle" || cfg.Width != 800 || cfg.Height != 600 {
		t.Errorf("window = %q %dx%d, want WGSL Triangle 800x600", cfg.Title, cfg.Width, cfg.Height)
	}
	if cfg.ColorBits != 32 || cfg.DepthBits != 24 || cfg.StencilBits != 8 {
		t.Errorf("bits = %d/%d/%d, want 32/24/8", cfg.ColorBits, cfg.DepthBits, cfg.StencilBits)
	}
	if !cfg.DoubleBuffer || !cfg.Accelerated {
		t.Error("default should require double buffering and acceleration")
	}
	if cfg.ClearColor != [4]float64{} {
		t.Errorf("ClearColor = %v, want transparent black", cfg.ClearColor)
	}
	if cfg.Headless {
		t.Error("default should open a window")
	}
	if cfg.Backend != "software" {
		t.Errorf("Backend = %q, want software for headless runs", cfg.Backend)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestConfigBuilders(t *testing.T) {
	base := DefaultConfig()
	cfg := base.
		WithTitle("t").
		WithSize(320, 240).
		WithHeadless(true).
		WithBackend("vulkan").
		WithFrames(7).
		WithPixelBits(24, 16, 0).
		WithClearColor(0.1, 0.2, 0.3, 1)

	if cfg.Title != "t" || cfg.Width != 320 || cfg.Height != 240 {
		t.Errorf("window = %q %dx%d", cfg.Title, cfg.Width, cfg.Height)
	}
	if !cfg.Headless || cfg.Backend != "vulkan" || cfg.Frames != 7 {
		t.Errorf("headless/backend/frames = %t/%q/%d", cfg.Headless, cfg.Backend, cfg.Frames)
	}
	if cfg.ColorBits != 24 || cfg.DepthBits != 16 || cfg.StencilBits != 0 {
		t.Errorf("bits = %d/%d/%d", cfg.ColorBits, cfg.DepthBits, cfg.StencilBits)
	}
	if cfg.ClearColor != [4]float64{0.1, 0.2, 0.3, 1} {
		t.Errorf("ClearColor = %v", cfg.ClearColor)
	}
	// Builders return copies.
	if base.Title != "WGSL Triangle" {
		t.Error("builder modified the receiver")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"default", DefaultConfig(), false},
		{"vulkan", DefaultConfig().WithBackend("vulkan"), false},
		{"noop", DefaultConfig().WithBackend("noop"), false},
		{"zero frames", DefaultConfig().WithFrames(0), false},
		{"negative frames", DefaultConfig().WithFrames(-1), true},
		{"unknown backend", DefaultConfig().WithBackend("metal"), true},
		{"empty backend", DefaultConfig().WithBackend(""), true},
		{"clear color above one", DefaultConfig().WithClearColor(1.5, 0, 0, 1), true},
		{"negative clear color", DefaultConfig().WithClearColor(0, -0.1, 0, 1), true},
		// Left to format selection and window creation.
		{"huge color bits", DefaultConfig().WithPixelBits(64, 24, 8), false},
		{"zero size", DefaultConfig().WithSize(0, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("Validate = %v, want ErrInvalidConfig", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate = %v, want nil", err)
			}
		})
	}
}

func TestConfigRequirements(t *testing.T) {
	req := DefaultConfig().WithPixelBits(16, 8, 4).requirements()
	if req.ColorBits != 16 || req.DepthBits != 8 || req.StencilBits != 4 {
		t.Errorf("requirements bits = %d/%d/%d", req.ColorBits, req.DepthBits, req.StencilBits)
	}
	if !req.RGBA || !req.DoubleBuffer || !req.Accelerated {
		t.Errorf("requirements flags = %+v", req)
	}
}
