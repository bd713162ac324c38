package arch

import "fmt"

// Register file dimensions.
const (
	RegisterCount = 16  // Number of general purpose V registers.
	FlagRegister  = 0xf // VF doubles as the carry/borrow/collision flag.
	StackDepth    = 16  // Number of return addresses the call stack holds.
)

// RegisterName returns the name associated with the given register index.
// Returns "" if the index is not recognized.
func RegisterName(n int) string {
	if n < 0 || n >= RegisterCount {
		return ""
	}
	return fmt.Sprintf("V%X", n)
}
