package cpu

import (
	"image/color"
	"strings"

	"github.com/pkg/errors"
)

// ErrBufferSize is returned when a pixel buffer is too small for a frame.
var ErrBufferSize = errors.New("pixel buffer too small")

// FrameBytes is the size of an RGBA rendering of one frame.
const FrameBytes = Width * Height * 4

// Palette maps plane combinations onto colors.
type Palette struct {
	Both   color.RGBA // Pixel lit in both planes.
	Plane0 color.RGBA // Pixel lit in plane 0 only.
	Plane1 color.RGBA // Pixel lit in plane 1 only.
	Off    color.RGBA // Pixel lit in neither plane.
}

// DefaultPalette is the amber palette.
var DefaultPalette = Palette{
	Both:   color.RGBA{0x99, 0x66, 0x00, 0xff},
	Plane0: color.RGBA{0xff, 0xcc, 0x00, 0xff},
	Plane1: color.RGBA{0xff, 0x66, 0x00, 0xff},
	Off:    color.RGBA{0x66, 0x22, 0x00, 0xff},
}

// Frame is an immutable snapshot of the buffered display state.
type Frame struct {
	Planes  [PlaneCount]Plane // Planes published at the frame boundary.
	HighRes bool              // High resolution mode?
	Keys    [KeyCount]bool    // Keypad state.
	Number  uint64            // Number of frames completed so far.
}

// Pixel returns the bits of both planes for screen pixel (x, y) of a
// 128x64 image. In low resolution mode every stored pixel covers a 2x2 block.
func (f *Frame) Pixel(x, y int) (p0, p1 bool) {
	if !f.HighRes {
		x >>= 1
		y >>= 1
	}
	return f.Planes[0][y].Pixel(x), f.Planes[1][y].Pixel(x)
}

// Draw renders the frame as 128x64 RGBA pixels into dst.
func (f *Frame) Draw(dst []byte, pal *Palette) error {
	if len(dst) < FrameBytes {
		return errors.Wrapf(ErrBufferSize, "have %d bytes, want %d", len(dst), FrameBytes)
	}

	if pal == nil {
		pal = &DefaultPalette
	}

	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			var c color.RGBA
			switch p0, p1 := f.Pixel(x, y); {
			case p0 && p1:
				c = pal.Both
			case p0:
				c = pal.Plane0
			case p1:
				c = pal.Plane1
			default:
				c = pal.Off
			}

			i := (y*Width + x) * 4
			dst[i+0] = c.R
			dst[i+1] = c.G
			dst[i+2] = c.B
			dst[i+3] = c.A
		}
	}

	return nil
}

// FormatPlane renders the top left w x h pixels of the plane as text,
// one line per row, using '#' for lit and '.' for unlit pixels.
func FormatPlane(p *Plane, w, h int) string {
	var sb strings.Builder
	sb.Grow((w + 1) * h)

	for y := 0; y < h && y < Height; y++ {
		for x := 0; x < w && x < Width; x++ {
			if p[y].Pixel(x) {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}

	return sb.String()
}

// Format renders both planes of the frame at their effective resolution.
func (f *Frame) Format() string {
	w, h := Width, Height
	if !f.HighRes {
		w, h = Width/2, Height/2
	}
	return "plane 0:\n" + FormatPlane(&f.Planes[0], w, h) +
		"plane 1:\n" + FormatPlane(&f.Planes[1], w, h)
}
