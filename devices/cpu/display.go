package cpu

// Display dimensions in high resolution mode.
const (
	Width      = 128
	Height     = 64
	PlaneCount = 2
)

// Plane is one single bit per pixel display layer.
type Plane [Height]Row

// Display holds the two bit planes the program draws into and the copy
// published at the end of each frame.
type Display struct {
	active  [PlaneCount]Plane // Planes mutated by CLS, scroll and draw instructions.
	buffer  [PlaneCount]Plane // Planes as they were at the last frame boundary.
	enabled uint8             // Bit n selects plane n for drawing, scrolling and clearing.
	hires   bool              // High resolution mode?
}

func (d *Display) reset() {
	*d = Display{enabled: 0x1}
}

// HighRes returns true if the display is in high resolution mode.
func (d *Display) HighRes() bool { return d.hires }

// Enabled returns the plane selection mask.
func (d *Display) Enabled() uint8 { return d.enabled }

// Active returns the in-progress state of plane p.
func (d *Display) Active(p int) Plane { return d.active[p] }

// Buffered returns plane p as it was at the last frame boundary.
func (d *Display) Buffered(p int) Plane { return d.buffer[p] }

// planeEnabled returns true if plane p is selected.
func (d *Display) planeEnabled(p int) bool {
	return (d.enabled>>uint(p))&1 == 1
}

// modulus returns the effective screen size for coordinate wrapping.
func (d *Display) modulus() (int, int) {
	if d.hires {
		return Width, Height
	}
	return Width / 2, Height / 2
}

// clear zeroes the selected planes.
func (d *Display) clear() {
	for p := range d.active {
		if d.planeEnabled(p) {
			d.active[p] = Plane{}
		}
	}
}

// clearAll zeroes both planes regardless of the selection.
func (d *Display) clearAll() {
	d.active = [PlaneCount]Plane{}
}

// scrollDown moves the selected planes down by n rows.
func (d *Display) scrollDown(n int) {
	for p := range d.active {
		if !d.planeEnabled(p) {
			continue
		}
		pl := &d.active[p]
		for i := Height - 1; i >= 0; i-- {
			if i < n {
				pl[i] = Row{}
			} else {
				pl[i] = pl[i-n]
			}
		}
	}
}

// scrollUp moves the selected planes up by n rows.
func (d *Display) scrollUp(n int) {
	for p := range d.active {
		if !d.planeEnabled(p) {
			continue
		}
		pl := &d.active[p]
		for i := 0; i < Height; i++ {
			if i+n >= Height {
				pl[i] = Row{}
			} else {
				pl[i] = pl[i+n]
			}
		}
	}
}

// scrollRight moves the selected planes four pixels to the right.
func (d *Display) scrollRight() {
	for p := range d.active {
		if !d.planeEnabled(p) {
			continue
		}
		for i := range d.active[p] {
			d.active[p][i] = d.active[p][i].Rsh(4)
		}
	}
}

// scrollLeft moves the selected planes four pixels to the left.
func (d *Display) scrollLeft() {
	for p := range d.active {
		if !d.planeEnabled(p) {
			continue
		}
		for i := range d.active[p] {
			d.active[p][i] = d.active[p][i].Lsh(4)
		}
	}
}

// publish copies the active planes into the frame buffer.
func (d *Display) publish() {
	d.buffer = d.active
}

// sprite describes a single draw request.
type sprite struct {
	x, y   int  // Unwrapped screen coordinates.
	width  int  // 8 or 16.
	height int  // Number of rows.
	wrap   bool // Wrap instead of clip at the screen edges.
}

// spriteRow returns the bits for row i of the sprite on the given plane pass.
type spriteRow func(pass, i int) (Row, error)

// draw XORs the sprite into every selected plane. It returns whether any
// lit pixel was cleared by the last processed plane and whether any plane
// was processed at all.
func (d *Display) draw(s sprite, bits spriteRow) (collision, drawn bool, err error) {
	xmod, ymod := d.modulus()
	x := s.x % xmod
	y := s.y % ymod
	pass := -1

	for p := range d.active {
		if !d.planeEnabled(p) {
			continue
		}

		pass++
		drawn = true
		unset := false

		for i := 0; i < s.height; i++ {
			ri := y + i
			if ri >= ymod {
				if !s.wrap {
					continue
				}
				ri %= ymod
			}

			src, err := bits(pass, i)
			if err != nil {
				return false, drawn, err
			}

			cur := d.active[p][ri]
			row := cur

			shift := Width - 1 - x
			if shift < s.width-1 {
				row = row.Xor(src.Rsh(uint(s.width - 1 - shift)))
			} else {
				row = row.Xor(src.Lsh(uint(shift - (s.width - 1))))
			}

			if s.wrap && x > xmod-s.width {
				row = row.Xor(src.RotateRight(uint(x - (xmod - s.width))).And(leftEdge))
			}

			if !d.hires {
				row = row.And(leftHalf)
			}

			d.active[p][ri] = row
			unset = unset || !cur.AndNot(row).IsZero()
		}

		collision = unset
	}

	return collision, drawn, nil
}
