package cpu

// KeyCount is the number of keypad keys.
const KeyCount = 16

// Keypad is the input latch. It keeps the previous and current state of
// every key so instructions can detect edges.
type Keypad struct {
	prev [KeyCount]bool
	curr [KeyCount]bool
}

// press marks key k as held.
func (k *Keypad) press(key int) {
	k.prev[key] = k.curr[key]
	k.curr[key] = true
}

// release marks key k as released.
func (k *Keypad) release(key int) {
	k.prev[key] = k.curr[key]
	k.curr[key] = false
}

// Pressed returns true if the given key is currently held.
func (k *Keypad) Pressed(key int) bool {
	return k.curr[key&0xf]
}

// State returns the current state of all keys.
func (k *Keypad) State() [KeyCount]bool {
	return k.curr
}

// released returns the lowest key that went from held to released.
func (k *Keypad) released() (int, bool) {
	for i := range k.curr {
		if k.prev[i] && !k.curr[i] {
			return i, true
		}
	}
	return 0, false
}
