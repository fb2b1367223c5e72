package app

import (
	"fmt"
	"image/color"

	"tumble/hal"
)

var (
	hudBackground = color.RGBA{A: 0x90}
	hudText       = color.RGBA{R: 0xE0, G: 0xF0, B: 0xFF, A: 0xFF}
	hudWarn       = color.RGBA{R: 0xFF, G: 0xC0, B: 0x40, A: 0xFF}
)

// hudLines describes the frame that is being drawn.
func (a *App) hudLines() []string {
	counts := a.bindings.Counts()
	lines := []string{
		fmt.Sprintf("frame %d  t=%.1fs", a.world.Steps(), a.world.Time()),
		fmt.Sprintf("bind %d ok %d wait %d fail", counts.Resolved, counts.Pending, counts.Failed),
		fmt.Sprintf("mode %s  tris %d", a.renderer.Mode, a.renderer.Stats().Triangles),
	}
	if a.vehicle != nil {
		lines = append(lines, fmt.Sprintf("speed %.1f m/s", a.vehicle.Speed()))
	}
	return lines
}

func (a *App) drawHUD(fb hal.Framebuffer) {
	d := &fbDisplay{fb: fb}
	lines := a.hudLines()

	cols := textColumns(fb.Width())
	width := 0
	for _, l := range lines {
		if len(l) > width {
			width = len(l)
		}
	}
	if width > cols {
		width = cols
	}
	_ = d.FillRectangle(0, 0, int16(width*charWidth()+4), int16(len(lines)*lineHeight+4), hudBackground)

	counts := a.bindings.Counts()
	for i, l := range lines {
		c := hudText
		if i == 1 && counts.Failed > 0 {
			c = hudWarn
		}
		chunk, _ := takeRunes(l, cols)
		drawText(d, 2, int16(2+i*lineHeight), chunk, c)
	}
}
