package devices

import "fmt"

// ID identifies a device: manufacturer in the upper 16 bits, serial in
// the lower 16 bits.
type ID uint32

// Bundled devices.
var (
	CartridgeID = NewID(Manufacturer, 0x0001)
	DisplayID   = NewID(Manufacturer, 0x0002)
	KeypadID    = NewID(Manufacturer, 0x0003)
	SpeakerID   = NewID(Manufacturer, 0x0004)
	ClockID     = NewID(Manufacturer, 0x0005)
)

var names = map[ID]string{
	CartridgeID: "cartridge",
	DisplayID:   "display",
	KeypadID:    "keypad",
	SpeakerID:   "speaker",
	ClockID:     "clock",
}

// NewID creates a new id with the given components.
func NewID(manufacturer, serial int) ID {
	return ID(manufacturer&0xffff)<<16 | ID(serial&0xffff)
}

// Manufacturer returns the manufacturer component.
func (id ID) Manufacturer() int { return int(id>>16) & 0xffff }

// Serial returns the serial number component.
func (id ID) Serial() int { return int(id) & 0xffff }

// String returns the device name for bundled devices and the raw
// manufacturer:serial pair otherwise.
func (id ID) String() string {
	if name, ok := names[id]; ok {
		return name
	}
	return fmt.Sprintf("%04x:%04x", id.Manufacturer(), id.Serial())
}
