// Package drift supplies the seeded smooth-noise source behind world
// background drift, plus seed derivation for unseeded runs.
package drift

import (
	"crypto/rand"
	"encoding/binary"

	"github.com/ojrac/opensimplex-go"
)

// Noise wraps a seeded simplex field sampled along the tick axis, one
// row per channel. Neighboring ticks stay correlated, unlike a pure
// random walk.
type Noise struct {
	field opensimplex.Noise
}

// New returns a noise source for the given seed.
func New(seed int64) *Noise {
	return &Noise{field: opensimplex.NewNormalized(seed)}
}

// Sample returns a smooth value in [-1, 1] for a tick and channel.
func (n *Noise) Sample(tick uint64, channel int) float64 {
	v := n.field.Eval2(float64(tick)*0.05, float64(channel)*13.7)
	return v*2 - 1
}

// RandomSeed derives a process seed from the OS entropy pool, for runs
// started without an explicit seed.
func RandomSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// Entropy pool failures are effectively impossible; a fixed
		// seed still yields a working, just predictable, run.
		return 1
	}
	return int64(binary.LittleEndian.Uint64(buf[:]) >> 1)
}
