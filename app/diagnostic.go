package app

import (
	"image/color"
	"strings"

	"go.uber.org/zap"

	"tumble/hal"
	"tumble/internal/buildinfo"
)

// showDiagnostic replaces the scene with a readable startup failure. It is
// the loop's diagnostic callback, so it only runs when the capability check
// fails. Without a framebuffer the log line is all the user gets.
func showDiagnostic(h hal.HAL, log *zap.Logger, err error) {
	log.Error("cannot start", zap.Error(err), zap.String("build", buildinfo.Short()))

	fb := framebufferOf(h)
	if fb == nil || fb.Format() != hal.PixelFormatRGB565 || fb.Width() <= 0 || fb.Height() <= 0 {
		return
	}
	fb.ClearRGB(255, 255, 255)

	d := &fbDisplay{fb: fb}
	cols := textColumns(fb.Width())
	if cols <= 0 {
		cols = 1
	}
	lines := []string{
		"tumble cannot start:",
		err.Error(),
		"",
		"build " + buildinfo.Short(),
	}

	fg := color.RGBA{A: 255}
	y := int16(0)
	maxH := int16(fb.Height())
	for _, line := range lines {
		if line == "" {
			y += lineHeight
			continue
		}
		for len(line) > 0 {
			if y+lineHeight > maxH {
				_ = fb.Present()
				return
			}
			chunk, rest := takeRunes(line, cols)
			drawText(d, 0, y, chunk, fg)
			y += lineHeight
			line = strings.TrimLeft(rest, " ")
		}
	}
	_ = fb.Present()
}

func framebufferOf(h hal.HAL) hal.Framebuffer {
	if h == nil {
		return nil
	}
	d := h.Display()
	if d == nil {
		return nil
	}
	return d.Framebuffer()
}
