package app

import (
	"image/color"
	"unicode/utf8"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"

	"tumble/hal"
)

var textFont = &proggy.TinySZ8pt7b

// fbDisplay exposes a hal framebuffer as a TinyGo display so tinyfont can draw
// into it.
type fbDisplay struct {
	fb hal.Framebuffer
}

var _ drivers.Displayer = (*fbDisplay)(nil)

func (d *fbDisplay) Size() (x, y int16) {
	if d.fb == nil {
		return 0, 0
	}
	return int16(d.fb.Width()), int16(d.fb.Height())
}

func (d *fbDisplay) SetPixel(x, y int16, c color.RGBA) {
	if d.fb == nil || d.fb.Format() != hal.PixelFormatRGB565 {
		return
	}
	buf := d.fb.Buffer()
	ix, iy := int(x), int(y)
	if buf == nil || ix < 0 || ix >= d.fb.Width() || iy < 0 || iy >= d.fb.Height() {
		return
	}
	pixel := rgb565From888(c.R, c.G, c.B)
	off := iy*d.fb.StrideBytes() + ix*2
	if off+1 >= len(buf) {
		return
	}
	buf[off] = byte(pixel)
	buf[off+1] = byte(pixel >> 8)
}

func (d *fbDisplay) Display() error {
	if d.fb == nil {
		return nil
	}
	return d.fb.Present()
}

// FillRectangle blends c over the rectangle using its alpha.
func (d *fbDisplay) FillRectangle(x, y, width, height int16, c color.RGBA) error {
	if d.fb == nil || d.fb.Format() != hal.PixelFormatRGB565 {
		return nil
	}
	buf := d.fb.Buffer()
	w, h := d.fb.Width(), d.fb.Height()
	x0, y0 := clampInt(int(x), 0, w), clampInt(int(y), 0, h)
	x1, y1 := clampInt(int(x)+int(width), 0, w), clampInt(int(y)+int(height), 0, h)
	stride := d.fb.StrideBytes()
	for py := y0; py < y1; py++ {
		for px := x0; px < x1; px++ {
			off := py*stride + px*2
			if off+1 >= len(buf) {
				continue
			}
			p := blend565(uint16(buf[off])|uint16(buf[off+1])<<8, c)
			buf[off] = byte(p)
			buf[off+1] = byte(p >> 8)
		}
	}
	return nil
}

func (d *fbDisplay) SetRotation(drivers.Rotation) error { return nil }

// lineHeight and the glyph offset for textFont.
const (
	lineHeight = 10
	baseline   = 8
)

func drawText(d *fbDisplay, x, y int16, s string, c color.RGBA) {
	tinyfont.WriteLine(d, textFont, x, y+baseline, s, c)
}

// charWidth is the advance of one textFont cell in pixels.
func charWidth() int {
	_, w := tinyfont.LineWidth(textFont, "0")
	return int(w)
}

// textColumns returns how many characters of textFont fit in width pixels.
func textColumns(width int) int {
	w := charWidth()
	if w == 0 {
		return 0
	}
	return width / w
}

func rgb565From888(r, g, b uint8) uint16 {
	return uint16((uint16(r>>3)&0x1F)<<11 | (uint16(g>>2)&0x3F)<<5 | (uint16(b>>3) & 0x1F))
}

func blend565(dst uint16, c color.RGBA) uint16 {
	if c.A == 0xFF {
		return rgb565From888(c.R, c.G, c.B)
	}
	dr := uint32((dst>>11)&0x1F) * 255 / 31
	dg := uint32((dst>>5)&0x3F) * 255 / 63
	db := uint32(dst&0x1F) * 255 / 31
	a := uint32(c.A)
	mix := func(s uint8, d uint32) uint8 { return uint8((uint32(s)*a + d*(255-a)) / 255) }
	return rgb565From888(mix(c.R, dr), mix(c.G, dg), mix(c.B, db))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func takeRunes(s string, n int) (prefix, rest string) {
	if n <= 0 || s == "" {
		return "", s
	}
	if len(s) <= n {
		return s, ""
	}
	i, count := 0, 0
	for i < len(s) && count < n {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
		count++
	}
	return s[:i], s[i:]
}
