package gpu

import (
	"fmt"
	"slices"

	"github.com/gogpu/gputypes"
)

// PixelFormatRequirements lists the capabilities a window drawable must
// provide. Bit counts are minimums.
type PixelFormatRequirements struct {
	DoubleBuffer bool
	RGBA         bool
	ColorBits    int
	DepthBits    int
	StencilBits  int
	Accelerated  bool
}

// DefaultRequirements returns the capabilities the triangle renderer needs:
// double-buffered RGBA with 32-bit color, 24-bit depth, 8-bit stencil on a
// hardware-accelerated adapter.
func DefaultRequirements() PixelFormatRequirements {
	return PixelFormatRequirements{
		DoubleBuffer: true,
		RGBA:         true,
		ColorBits:    32,
		DepthBits:    24,
		StencilBits:  8,
		Accelerated:  true,
	}
}

// PixelFormat is a concrete drawable configuration: the color and
// depth/stencil texture formats plus the capabilities they provide.
type PixelFormat struct {
	Color        gputypes.TextureFormat
	DepthStencil gputypes.TextureFormat

	ColorBits   int
	DepthBits   int
	StencilBits int

	DoubleBuffer bool
	RGBA         bool
	Accelerated  bool
}

// candidateFormats is ordered by preference. BGRA first: it is what window
// surfaces present natively.
var candidateFormats = []PixelFormat{
	{
		Color:        gputypes.TextureFormatBGRA8Unorm,
		DepthStencil: gputypes.TextureFormatDepth24PlusStencil8,
		ColorBits:    32,
		DepthBits:    24,
		StencilBits:  8,
		DoubleBuffer: true,
		RGBA:         true,
		Accelerated:  true,
	},
	{
		Color:        gputypes.TextureFormatRGBA8Unorm,
		DepthStencil: gputypes.TextureFormatDepth24PlusStencil8,
		ColorBits:    32,
		DepthBits:    24,
		StencilBits:  8,
		DoubleBuffer: true,
		RGBA:         true,
		Accelerated:  true,
	},
}

// CandidateFormats returns the pixel formats the renderer can target, in
// preference order. The returned slice is a copy.
func CandidateFormats() []PixelFormat {
	return slices.Clone(candidateFormats)
}

// Satisfies reports whether f provides every capability in req.
func (f PixelFormat) Satisfies(req PixelFormatRequirements) bool {
	switch {
	case req.DoubleBuffer && !f.DoubleBuffer:
		return false
	case req.RGBA && !f.RGBA:
		return false
	case req.Accelerated && !f.Accelerated:
		return false
	case f.ColorBits < req.ColorBits:
		return false
	case f.DepthBits < req.DepthBits:
		return false
	case f.StencilBits < req.StencilBits:
		return false
	}
	return true
}

func (f PixelFormat) String() string {
	return fmt.Sprintf("color=%v/%d depth=%d stencil=%d double=%t", f.Color, f.ColorBits, f.DepthBits, f.StencilBits, f.DoubleBuffer)
}

// ChoosePixelFormat returns the first candidate satisfying req.
// It returns ErrNoPixelFormat when none does.
func ChoosePixelFormat(req PixelFormatRequirements, candidates []PixelFormat) (PixelFormat, error) {
	if req.ColorBits < 0 || req.DepthBits < 0 || req.StencilBits < 0 {
		return PixelFormat{}, fmt.Errorf("%w: negative bit count in %+v", ErrNoPixelFormat, req)
	}
	for _, f := range candidates {
		if f.Satisfies(req) {
			slogger().Debug("pixel format selected", "format", f.String())
			return f, nil
		}
	}
	return PixelFormat{}, fmt.Errorf("%w: no format provides color=%d depth=%d stencil=%d",
		ErrNoPixelFormat, req.ColorBits, req.DepthBits, req.StencilBits)
}
