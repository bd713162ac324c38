package cpu

// Row holds one 128 pixel display row. Bit 127 (the top bit of Hi) is the
// leftmost pixel, bit 0 (the bottom bit of Lo) the rightmost one.
type Row struct {
	Hi, Lo uint64
}

// Row masks.
var (
	leftHalf = Row{Hi: ^uint64(0)}   // Pixels 0-63, the visible area in low resolution mode.
	leftEdge = Row{Hi: 0xffff << 48} // Pixels 0-15, the columns a wrapped sprite reappears in.
)

// RowFrom returns a row holding v in its lowest bits.
func RowFrom(v uint64) Row {
	return Row{Lo: v}
}

// IsZero returns true if no bit is set.
func (r Row) IsZero() bool {
	return r.Hi|r.Lo == 0
}

// Xor returns r ^ o.
func (r Row) Xor(o Row) Row {
	return Row{r.Hi ^ o.Hi, r.Lo ^ o.Lo}
}

// And returns r & o.
func (r Row) And(o Row) Row {
	return Row{r.Hi & o.Hi, r.Lo & o.Lo}
}

// AndNot returns r &^ o.
func (r Row) AndNot(o Row) Row {
	return Row{r.Hi &^ o.Hi, r.Lo &^ o.Lo}
}

// Lsh returns r << n. Bits shifted past bit 127 are lost.
func (r Row) Lsh(n uint) Row {
	switch {
	case n == 0:
		return r
	case n >= 128:
		return Row{}
	case n >= 64:
		return Row{Hi: r.Lo << (n - 64)}
	}
	return Row{Hi: r.Hi<<n | r.Lo>>(64-n), Lo: r.Lo << n}
}

// Rsh returns r >> n. Bits shifted past bit 0 are lost.
func (r Row) Rsh(n uint) Row {
	switch {
	case n == 0:
		return r
	case n >= 128:
		return Row{}
	case n >= 64:
		return Row{Lo: r.Hi >> (n - 64)}
	}
	return Row{Hi: r.Hi >> n, Lo: r.Lo>>n | r.Hi<<(64-n)}
}

// RotateRight rotates r right by n bits; bits leaving bit 0 re-enter at bit 127.
func (r Row) RotateRight(n uint) Row {
	n %= 128
	if n == 0 {
		return r
	}
	return r.Rsh(n).Xor(r.Lsh(128 - n))
}

// Bit returns bit n, counting from the least significant end.
func (r Row) Bit(n uint) bool {
	if n >= 64 {
		return (r.Hi>>(n-64))&1 == 1
	}
	return (r.Lo>>n)&1 == 1
}

// Pixel returns true if the pixel in column x is lit.
func (r Row) Pixel(x int) bool {
	return r.Bit(uint(127 - x))
}
