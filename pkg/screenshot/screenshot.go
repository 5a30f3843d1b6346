// Package screenshot defines the screen-capture capability consumed by
// adapters that support image input. Capture, resizing, and encoding are
// platform concerns wired in at construction; the rest of the system only
// sees encoded payloads.
package screenshot

import "context"

// Capturer returns zero or more encoded image payloads (PNG) of the user's
// screen.
type Capturer interface {
	Capture(ctx context.Context) ([][]byte, error)
}

// Nop is a Capturer that never produces an image. Used when no platform
// capture backend is configured.
type Nop struct{}

// Capture returns no images.
func (Nop) Capture(ctx context.Context) ([][]byte, error) { return nil, nil }
