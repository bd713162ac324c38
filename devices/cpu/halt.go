package cpu

// Halt describes why instruction progress is suspended.
type Halt int

// Known halt states.
const (
	Running    Halt = iota // Fetching from the program counter.
	WaitKey                // Fx0A waits for a key release.
	WaitVBlank             // Dxyn waits for the end of the frame.
)

// Halted returns true if the fetch stage replays the saved instruction.
func (h Halt) Halted() bool {
	return h != Running
}

func (h Halt) String() string {
	switch h {
	case Running:
		return "running"
	case WaitKey:
		return "wait key"
	case WaitVBlank:
		return "wait vblank"
	}
	return "unknown"
}

// haltState carries the frozen instruction word while halted.
type haltState struct {
	state Halt
	word  uint16 // Last fetched instruction word.
}
