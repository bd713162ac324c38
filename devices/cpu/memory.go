package cpu

// Memory layout.
const (
	MemoryCapacity = 0x10000 // Addressable bytes; only XO-CHIP programs reach past 0x1000.
	ProgramStart   = 0x200   // Load address of the program image.
	SmallFontAddr  = 0x00    // 5 byte glyphs for the digits 0-F.
	BigFontAddr    = 0x50    // 10 byte glyphs for the digits 0-F.
)

// MaxProgramSize is the largest program image that fits in memory.
const MaxProgramSize = MemoryCapacity - ProgramStart

// Memory defines the system's memory bank. All accessors are bounds
// checked and report an out of range address as an error.
type Memory []byte

// inRange returns true if n bytes starting at addr are addressable.
func (m Memory) inRange(addr, n int) bool {
	return addr >= 0 && n >= 0 && addr+n <= len(m)
}

// U8 returns the byte at the given address.
func (m Memory) U8(addr int) (uint8, error) {
	if !m.inRange(addr, 1) {
		return 0, errAddress(addr)
	}
	return m[addr], nil
}

// SetU8 sets the byte at the given address.
func (m Memory) SetU8(addr int, value uint8) error {
	if !m.inRange(addr, 1) {
		return errAddress(addr)
	}
	m[addr] = value
	return nil
}

// U16 returns the big endian 16-bit value at the given address.
func (m Memory) U16(addr int) (uint16, error) {
	if !m.inRange(addr, 2) {
		return 0, errAddress(addr)
	}
	return uint16(m[addr])<<8 | uint16(m[addr+1]), nil
}

// Write writes len(p) bytes from p into memory, starting at the given address.
func (m Memory) Write(addr int, p []byte) error {
	if !m.inRange(addr, len(p)) {
		return errAddress(addr + len(p) - 1)
	}
	copy(m[addr:], p)
	return nil
}

// Read reads len(p) bytes from memory into p, starting at the given address.
func (m Memory) Read(addr int, p []byte) error {
	if !m.inRange(addr, len(p)) {
		return errAddress(addr + len(p) - 1)
	}
	copy(p, m[addr:])
	return nil
}

// peek16 returns the 16-bit value at addr, or 0 if it is out of range.
func (m Memory) peek16(addr int) uint16 {
	v, err := m.U16(addr)
	if err != nil {
		return 0
	}
	return v
}

// load clears the memory and writes the font tables and the program image.
func (m Memory) load(program []byte) {
	for i := range m {
		m[i] = 0
	}
	copy(m[SmallFontAddr:], smallFont[:])
	copy(m[BigFontAddr:], bigFont[:])
	copy(m[ProgramStart:], program)
}

var smallFont = [80]byte{
	0xf0, 0x90, 0x90, 0x90, 0xf0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xf0, 0x10, 0xf0, 0x80, 0xf0, // 2
	0xf0, 0x10, 0xf0, 0x10, 0xf0, // 3
	0x90, 0x90, 0xf0, 0x10, 0x10, // 4
	0xf0, 0x80, 0xf0, 0x10, 0xf0, // 5
	0xf0, 0x80, 0xf0, 0x90, 0xf0, // 6
	0xf0, 0x10, 0x20, 0x40, 0x40, // 7
	0xf0, 0x90, 0xf0, 0x90, 0xf0, // 8
	0xf0, 0x90, 0xf0, 0x10, 0xf0, // 9
	0xf0, 0x90, 0xf0, 0x90, 0x90, // A
	0xe0, 0x90, 0xe0, 0x90, 0xe0, // B
	0xf0, 0x80, 0x80, 0x80, 0xf0, // C
	0xe0, 0x90, 0x90, 0x90, 0xe0, // D
	0xf0, 0x80, 0xf0, 0x80, 0xf0, // E
	0xf0, 0x80, 0xf0, 0x80, 0x80, // F
}

var bigFont = [160]byte{
	0xff, 0xff, 0xc3, 0xc3, 0xc3, 0xc3, 0xc3, 0xc3, 0xff, 0xff, // 0
	0x18, 0x78, 0x78, 0x18, 0x18, 0x18, 0x18, 0x18, 0xff, 0xff, // 1
	0xff, 0xff, 0x03, 0x03, 0xff, 0xff, 0xc0, 0xc0, 0xff, 0xff, // 2
	0xff, 0xff, 0x03, 0x03, 0xff, 0xff, 0x03, 0x03, 0xff, 0xff, // 3
	0xc3, 0xc3, 0xc3, 0xc3, 0xff, 0xff, 0x03, 0x03, 0x03, 0x03, // 4
	0xff, 0xff, 0xc0, 0xc0, 0xff, 0xff, 0x03, 0x03, 0xff, 0xff, // 5
	0xff, 0xff, 0xc0, 0xc0, 0xff, 0xff, 0xc3, 0xc3, 0xff, 0xff, // 6
	0xff, 0xff, 0x03, 0x03, 0x06, 0x0c, 0x18, 0x18, 0x18, 0x18, // 7
	0xff, 0xff, 0xc3, 0xc3, 0xff, 0xff, 0xc3, 0xc3, 0xff, 0xff, // 8
	0xff, 0xff, 0xc3, 0xc3, 0xff, 0xff, 0x03, 0x03, 0xff, 0xff, // 9
	0x7e, 0xff, 0xc3, 0xc3, 0xc3, 0xff, 0xff, 0xc3, 0xc3, 0xc3, // A
	0xfc, 0xfc, 0xc3, 0xc3, 0xfc, 0xfc, 0xc3, 0xc3, 0xfc, 0xfc, // B
	0x3c, 0xff, 0xc3, 0xc0, 0xc0, 0xc0, 0xc0, 0xc3, 0xff, 0x3c, // C
	0xfc, 0xfe, 0xc3, 0xc3, 0xc3, 0xc3, 0xc3, 0xc3, 0xfe, 0xfc, // D
	0xff, 0xff, 0xc0, 0xc0, 0xff, 0xff, 0xc0, 0xc0, 0xff, 0xff, // E
	0xff, 0xff, 0xc0, 0xc0, 0xff, 0xff, 0xc0, 0xc0, 0xc0, 0xc0, // F
}
