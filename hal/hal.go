// Package hal is the boundary between the simulation and the host: a
// framebuffer to draw into, keyboard events, a logger and the runners that
// call the per-frame step function.
package hal

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

var (
	// ErrNoDisplay reports that the host has nothing to draw on.
	ErrNoDisplay = errors.New("hal: no display available")
	// ErrWindowUnavailable reports a build without the window backend.
	ErrWindowUnavailable = errors.New("hal: window mode requires cgo (build with CGO_ENABLED=1)")
	// ErrStop may be returned by a step func to end a runner cleanly.
	ErrStop = errors.New("hal: stop")
)

// PixelFormat defines the framebuffer pixel encoding.
type PixelFormat uint8

const (
	// PixelFormatRGB565 is 16bpp little endian: rrrrrggggggbbbbb.
	PixelFormatRGB565 PixelFormat = iota + 1
)

// Framebuffer is a pixel buffer plus a "present" hook.
type Framebuffer interface {
	Width() int
	Height() int
	Format() PixelFormat
	StrideBytes() int
	Buffer() []byte
	ClearRGB(r, g, b uint8)
	Present() error
}

// KeyCode is a minimal key identifier.
type KeyCode uint16

const (
	KeyUnknown KeyCode = iota
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeySpace
	KeyEnter
	KeyEscape
	KeyTab
	KeyF1
)

// KeyEvent is a keyboard event. Rune is set for text keys.
type KeyEvent struct {
	Code  KeyCode
	Press bool
	Rune  rune
}

// Keyboard provides key events (best-effort on each host).
type Keyboard interface {
	Events() <-chan KeyEvent
}

// Display provides access to the framebuffer (if available).
type Display interface {
	Framebuffer() Framebuffer
}

// Input provides access to input devices (if available).
type Input interface {
	Keyboard() Keyboard
}

// HAL provides the only contact point between the app and the host.
type HAL interface {
	Logger() *zap.Logger
	Display() Display
	Input() Input
	// Probe reports whether the host can present frames at all.
	Probe() error
}

// CheckDisplay is the startup capability check: the host must be able to
// present and must expose an RGB565 framebuffer with a non-empty size.
func CheckDisplay(h HAL) error {
	if h == nil {
		return ErrNoDisplay
	}
	if err := h.Probe(); err != nil {
		return err
	}
	d := h.Display()
	if d == nil || d.Framebuffer() == nil {
		return ErrNoDisplay
	}
	fb := d.Framebuffer()
	if fb.Format() != PixelFormatRGB565 {
		return fmt.Errorf("%w: unsupported pixel format %d", ErrNoDisplay, fb.Format())
	}
	if fb.Width() <= 0 || fb.Height() <= 0 {
		return fmt.Errorf("%w: framebuffer is %dx%d", ErrNoDisplay, fb.Width(), fb.Height())
	}
	return nil
}
