package cpu

import (
	"strings"
	"testing"

	"github.com/retroenv/retrogolib/assert"

	"github.com/hexaflex/chippy/arch"
)

// logoProgram draws "C8" in the top left corner and spins.
var logoProgram = words(
	0x00e0, //  CLS
	0x6000, //   LD V0, $00
	0x6100, //   LD V1, $00
	0x620c, //   LD V2, $0c
	0xf229, //   LD F, V2
	0xd015, //  DRW V0, V1, 5
	0x6005, //   LD V0, $05
	0x6208, //   LD V2, $08
	0xf229, //   LD F, V2
	0xd015, //  DRW V0, V1, 5
	0x1214, //   JP $214
)

func TestGoldenLogo(t *testing.T) {
	want := golden(64, 32,
		"####.####",
		"#....#..#",
		"#....####",
		"#....#..#",
		"####.####",
	)
	blank := golden(64, 32)

	for _, target := range arch.Targets {
		t.Run(target.String(), func(t *testing.T) {
			f := runFrames(t, target, 16, logoProgram, 60)
			assert.Equal(t, want, FormatPlane(&f.Planes[0], 64, 32))
			assert.Equal(t, blank, FormatPlane(&f.Planes[1], 64, 32))
			assert.Equal(t, Plane{}, f.Planes[1])
		})
	}
}

func TestDeterminism(t *testing.T) {
	// Draws at positions taken from the delay timer so every frame differs.
	program := words(
		0x6f00, //   LD VF, $00
		0xf015, //   LD DT, V0
		0xf107, //   LD V1, DT
		0x7003, //  ADD V0, $03
		0xf229, //   LD F, V2
		0x7201, //  ADD V2, $01
		0xd105, //  DRW V1, V0, 5
		0x1202, //   JP $202
	)

	for _, target := range arch.Targets {
		a := runFrames(t, target, 20, program, 60)
		b := runFrames(t, target, 20, program, 60)
		assert.Equal(t, a.Planes, b.Planes)
		assert.Equal(t, uint64(60), a.Number)
	}
}

// modeAddress holds the mode byte the self test programs branch on.
const modeAddress = ProgramStart - 1

// quirksProgram checks the behavior axes which differ between targets and
// draws its findings as three hex digits: the observed quirk bits, the mode
// byte and the difference to the bits expected for that mode. A row with a
// sprite straddling the right edge at row 10 shows whether sprites wrap.
//
// Quirk bits: 8 = logic resets VF, 4 = shifts read VY,
// 2 = load/store increments I, 1 = jump uses VX.
func quirksProgram() []byte {
	img := make([]byte, 0x140)
	put := func(addr int, p []byte) {
		copy(img[addr-ProgramStart:], p)
	}

	put(0x200, words(
		0x00e0, //  CLS
		0x6f05, //   LD VF, $05
		0x6103, //   LD V1, $03
		0x8111, //   OR V1, V1
		0x6500, //   LD V5, $00
		0x4f00, //  SNE VF, $00
		0x7508, //  ADD V5, $08
		0x6201, //   LD V2, $01
		0x6304, //   LD V3, $04
		0x8236, //  SHR V2, V3
		0x4202, //  SNE V2, $02
		0x7504, //  ADD V5, $04
		0xa320, //   LD I, $320
		0xf065, //   LD V0, [I]
		0xf065, //   LD V0, [I]
		0x4001, //  SNE V0, $01
		0x7502, //  ADD V5, $02
		0x6000, //   LD V0, $00
		0x6304, //   LD V3, $04
		0xb300, //   JP V0, $300
		0x4401, //  SNE V4, $01
		0x7501, //  ADD V5, $01
		0xa1ff, //   LD I, $1ff
		0xf065, //   LD V0, [I]
		0x8600, //   LD V6, V0
		0xa330, //   LD I, $330
		0xf01e, //  ADD I, V0
		0xf065, //   LD V0, [I]
		0x8700, //   LD V7, V0
		0x8753, //  XOR V7, V5
		0x6800, //   LD V8, $00
		0x6900, //   LD V9, $00
		0xf529, //   LD F, V5
		0xd895, //  DRW V8, V9, 5
		0x6805, //   LD V8, $05
		0xf629, //   LD F, V6
		0xd895, //  DRW V8, V9, 5
		0x680a, //   LD V8, $0a
		0xf729, //   LD F, V7
		0xd895, //  DRW V8, V9, 5
		0xa338, //   LD I, $338
		0x683c, //   LD V8, $3c
		0x690a, //   LD V9, $0a
		0xd891, //  DRW V8, V9, 1
		0x1258, //   JP $258
	))

	// JP V0, $300 lands on $300 when it adds V0 and on $304 when it adds V3.
	put(0x300, words(
		0x6400, //   LD V4, $00
		0x1228, //   JP $228
		0x6401, //   LD V4, $01
		0x1228, //   JP $228
	))

	put(0x320, []byte{0xaa, 0x01})
	put(0x330, []byte{0x00, 0x0e, 0x01, 0x01, 0x06}) // Expected bits per mode.
	put(0x338, []byte{0xff})
	return img
}

// digits holds the small font glyphs the quirks program can draw.
var digits = map[int][5]string{
	0x0: {"####", "#..#", "#..#", "#..#", "####"},
	0x1: {"..#.", ".##.", "..#.", "..#.", ".###"},
	0x2: {"####", "...#", "####", "#...", "####"},
	0x3: {"####", "...#", "####", "...#", "####"},
	0x4: {"#..#", "#..#", "####", "...#", "...#"},
	0x6: {"####", "#...", "####", "#..#", "####"},
	0x8: {"####", "#..#", "####", "#..#", "####"},
	0xe: {"####", "#...", "####", "#...", "####"},
}

func TestGoldenQuirks(t *testing.T) {
	clipped := strings.Repeat(".", 60) + "####"
	wrapped := "####" + strings.Repeat(".", 56) + "####"

	tests := []struct {
		name   string
		target arch.Target
		mode   uint8
		bits   int
		diff   int
		edge   string
	}{
		{"Original", arch.Original, 1, 0xe, 0, clipped},
		{"SuperModern", arch.SuperModern, 2, 0x1, 0, clipped},
		{"SuperLegacy", arch.SuperLegacy, 3, 0x1, 0, clipped},
		{"Extended", arch.Extended, 4, 0x6, 0, wrapped},
		{"mismatch", arch.Extended, 1, 0x6, 0x8, wrapped},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := make([]string, 11)
			for i := 0; i < 5; i++ {
				rows[i] = digits[tt.bits][i] + "." + digits[int(tt.mode)][i] + "." + digits[tt.diff][i]
			}
			rows[10] = tt.edge

			c := startCPU(t, tt.target, 16, quirksProgram())
			c.Memory()[modeAddress] = tt.mode
			f := advance(t, c, 60)

			assert.False(t, f.HighRes)
			assert.Equal(t, golden(64, 32, rows...), FormatPlane(&f.Planes[0], 64, 32))
		})
	}
}

func TestGoldenScroll(t *testing.T) {
	glyph := []string{
		"....####",
		"....#...",
		"....####",
		"....#...",
		"....#...",
	}

	// Mode 2 switches to high resolution before drawing.
	program := words(
		0xa1ff, //   LD I, $1ff
		0xf065, //   LD V0, [I]
		0x4002, //  SNE V0, $02
		0x00ff, //  HIGH
		0x620f, //   LD V2, $0f
		0xf229, //   LD F, V2
		0x6008, //   LD V0, $08
		0x6100, //   LD V1, $00
		0xd015, //  DRW V0, V1, 5
		0x00c2, //  SCD 2
		0x00fc, //  SCL
		0x1216, //   JP $216
	)

	tests := []struct {
		target arch.Target
		mode   uint8
		top    int // First row of the scrolled glyph.
	}{
		{arch.SuperModern, 1, 2},
		{arch.SuperModern, 2, 2},
		{arch.SuperLegacy, 1, 1},
		{arch.SuperLegacy, 2, 2},
		{arch.Extended, 1, 2},
		{arch.Extended, 2, 2},
	}

	for _, tt := range tests {
		hires := tt.mode == 2
		name := tt.target.String() + "/low"
		if hires {
			name = tt.target.String() + "/high"
		}

		t.Run(name, func(t *testing.T) {
			w, h := 64, 32
			if hires {
				w, h = 128, 64
			}

			rows := make([]string, tt.top, tt.top+len(glyph))
			rows = append(rows, glyph...)

			c := startCPU(t, tt.target, 16, program)
			c.Memory()[modeAddress] = tt.mode
			f := advance(t, c, 60)

			assert.Equal(t, hires, f.HighRes)
			assert.Equal(t, golden(w, h, rows...), FormatPlane(&f.Planes[0], w, h))
		})
	}
}

// runFrames runs the program for the given number of frames and returns the final frame.
func runFrames(t *testing.T, target arch.Target, clock int, program []byte, frames int) *Frame {
	t.Helper()
	return advance(t, startCPU(t, target, clock, program), frames)
}

// startCPU creates a CPU for the golden runs.
func startCPU(t *testing.T, target arch.Target, clock int, program []byte) *CPU {
	t.Helper()

	c, err := New(Config{Target: target, Clock: clock, Random: NewRandom(1)}, program)
	if err != nil {
		t.Fatalf("New failure: %v", err)
	}
	return c
}

// advance runs c for the given number of frames and returns the final frame.
func advance(t *testing.T, c *CPU, frames int) *Frame {
	t.Helper()

	for i := 0; i < frames; i++ {
		if err := c.RunFrame(); err != nil {
			t.Fatalf("RunFrame failure: %v", err)
		}
	}

	return c.Frame()
}

// golden builds the expected FormatPlane output for a w x h plane whose
// top rows are given, padded with unlit pixels.
func golden(w, h int, rows ...string) string {
	var sb strings.Builder
	for y := 0; y < h; y++ {
		var row string
		if y < len(rows) {
			row = rows[y]
		}
		sb.WriteString(row)
		sb.WriteString(strings.Repeat(".", w-len(row)))
		sb.WriteByte('\n')
	}
	return sb.String()
}
