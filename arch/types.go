package arch

import (
	"strings"

	"github.com/pkg/errors"
)

// Target identifies the CHIP-8 dialect a machine runs.
type Target int

// Known targets.
const (
	Original    Target = iota // CHIP-8 as found on the COSMAC VIP.
	SuperLegacy               // SUPER-CHIP 1.1.
	SuperModern               // SUPER-CHIP as interpreted by modern emulators (schipc).
	Extended                  // XO-CHIP.
)

// ErrUnknownTarget is returned by ParseTarget for unrecognized names.
var ErrUnknownTarget = errors.New("unknown target")

// Targets lists all known targets in declaration order.
var Targets = []Target{Original, SuperLegacy, SuperModern, Extended}

// ParseTarget returns the target matching the given name.
// Names are case insensitive and accept a few common aliases.
func ParseTarget(name string) (Target, error) {
	switch strings.ToLower(name) {
	case "chip8", "chip-8", "chip", "original":
		return Original, nil
	case "schip-legacy", "schip1.1", "schip-1.1", "superlegacy", "super-legacy":
		return SuperLegacy, nil
	case "schip-modern", "schipc", "schip", "supermodern", "super-modern":
		return SuperModern, nil
	case "xo-chip", "xochip", "xo", "extended":
		return Extended, nil
	}
	return 0, errors.Wrapf(ErrUnknownTarget, "%q", name)
}

func (t Target) String() string {
	switch t {
	case Original:
		return "chip8"
	case SuperLegacy:
		return "schip-legacy"
	case SuperModern:
		return "schip-modern"
	case Extended:
		return "xo-chip"
	}
	return "unknown"
}

// DefaultClock returns the number of instructions per frame used when
// none is configured explicitly.
func (t Target) DefaultClock() int {
	switch t {
	case Original:
		return 11
	case SuperLegacy, SuperModern:
		return 30
	default:
		return 1000
	}
}

// Set is a bit set of targets.
type Set uint8

// Common target sets.
const (
	AllTargets   = Set(1<<Original | 1<<SuperLegacy | 1<<SuperModern | 1<<Extended)
	SuperTargets = AllTargets &^ Set(1<<Original) // Everything but the original CHIP-8.
	ExtendedOnly = Set(1 << Extended)
)

// Has returns true if t is a member of the set.
func (s Set) Has(t Target) bool {
	return s&(1<<uint(t)) != 0
}

// VBlankPolicy defines when a sprite draw has to wait for the end of a frame.
type VBlankPolicy int

// Known vblank policies.
const (
	VBlankNever   VBlankPolicy = iota // Draw immediately.
	VBlankAlways                      // Wait for the last instruction of the frame.
	VBlankLowRes                      // Wait only while in low resolution mode.
)

// Quirks describes how a target deviates on otherwise identical opcodes.
type Quirks struct {
	LogicResetsFlag       bool         // 8xy1, 8xy2 and 8xy3 clear VF.
	ShiftReadsVY          bool         // 8xy6 and 8xyE shift VY into VX instead of shifting VX in place.
	JumpWithVX            bool         // Bnnn jumps to xnn+VX instead of nnn+V0.
	LoadStoreIncrementsI  bool         // Fx55 and Fx65 leave I pointing past the last register.
	VBlank                VBlankPolicy // When Dxyn blocks.
	ResolutionClears      bool         // 00FE and 00FF clear the display.
	HalveLowResScroll     bool         // 00Cn scrolls n/2 rows while in low resolution mode.
	BigSprites            bool         // Dxy0 draws 16 rows.
	NarrowLowResBigSprite bool         // Dxy0 draws 8 pixel wide rows while in low resolution mode.
	WrapSprites           bool         // Sprites wrap around the screen edges instead of being clipped.
}

var quirks = [...]Quirks{
	Original: {
		LogicResetsFlag:      true,
		ShiftReadsVY:         true,
		LoadStoreIncrementsI: true,
		VBlank:               VBlankAlways,
		ResolutionClears:     true,
	},
	SuperLegacy: {
		JumpWithVX:            true,
		VBlank:                VBlankLowRes,
		HalveLowResScroll:     true,
		BigSprites:            true,
		NarrowLowResBigSprite: true,
	},
	SuperModern: {
		JumpWithVX:       true,
		VBlank:           VBlankNever,
		ResolutionClears: true,
		BigSprites:       true,
	},
	Extended: {
		ShiftReadsVY:         true,
		LoadStoreIncrementsI: true,
		VBlank:               VBlankNever,
		ResolutionClears:     true,
		BigSprites:           true,
		WrapSprites:          true,
	},
}

// Quirks returns the quirk profile for t.
func (t Target) Quirks() Quirks {
	if t < 0 || int(t) >= len(quirks) {
		return quirks[Extended]
	}
	return quirks[t]
}
