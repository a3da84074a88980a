package triangle

import "github.com/gogpu/triangle/internal/window"

// Option configures an App during creation.
type Option func(*appOptions)

type appOptions struct {
	host window.Host
}

// WithHost replaces the window host chosen from the config. Used to run the
// app inside a scripted or custom message loop.
func WithHost(h window.Host) Option {
	return func(o *appOptions) {
		o.host = h
	}
}
