package cpu

import (
	"math/rand"
	"time"
)

// RandomSource supplies bytes for the Cxkk instruction.
type RandomSource interface {
	Byte() uint8
}

type mathRandom struct {
	rng *rand.Rand
}

// NewRandom returns a RandomSource producing a reproducible sequence for the given seed.
func NewRandom(seed int64) RandomSource {
	return &mathRandom{rng: rand.New(rand.NewSource(seed))}
}

func (r *mathRandom) Byte() uint8 {
	return uint8(r.rng.Intn(256))
}

// defaultRandom returns a time seeded source.
func defaultRandom() RandomSource {
	return NewRandom(time.Now().UnixNano())
}
