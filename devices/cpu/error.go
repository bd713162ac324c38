package cpu

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/hexaflex/chippy/arch"
)

// Fault kinds carried by Error.
var (
	ErrUnsupportedOpcode = errors.New("unsupported opcode")
	ErrAddressRange      = errors.New("address out of range")
	ErrStackOverflow     = errors.New("stack overflow")
	ErrStackUnderflow    = errors.New("stack underflow")
)

// Construction errors.
var (
	ErrInvalidClock    = errors.New("clock rate must be positive")
	ErrProgramTooLarge = errors.New("program does not fit in memory")
)

// Error defines a fatal runtime fault.
type Error struct {
	Instruction             // Instruction being executed.
	Target      arch.Target // Active target.
	Kind        error       // One of the fault kinds.
	Address     int         // Offending address for ErrAddressRange.
}

// errAddress returns an address fault with no instruction context yet.
func errAddress(addr int) *Error {
	return &Error{Kind: ErrAddressRange, Address: addr}
}

func (e *Error) Error() string {
	if e.Kind == ErrAddressRange {
		return fmt.Sprintf("%04x: %04x: %v %04x (%v)", e.Addr, e.Word, e.Kind, e.Address, e.Target)
	}
	return fmt.Sprintf("%04x: %04x: %v (%v)", e.Addr, e.Word, e.Kind, e.Target)
}

// Unwrap returns the fault kind.
func (e *Error) Unwrap() error {
	return e.Kind
}
