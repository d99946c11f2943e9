package dsp

import "math/rand/v2"

// Walk is a bounded random walk: each Next call draws a uniform step in
// [-amplitude, amplitude], adds it to the running state, halves the sum,
// and returns the new state. Luma noise, chroma noise and chroma-phase
// noise in spec §4.3 and the audio hiss in §4.6 draw from it; luma and
// chroma noise Reset it per row, chroma-phase noise keeps it across rows.
// Uniform and Chance serve one-shot draws (head-switching jitter, chroma
// dropout) that do not touch the running state.
type Walk struct {
	rng   *rand.Rand
	state float64
}

// NewWalk builds a Walk seeded deterministically from seed, so a run is
// reproducible given the same Config.
func NewWalk(seed uint64) *Walk {
	return &Walk{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Reset zeroes the running state, called at the start of each scanline.
func (w *Walk) Reset() { w.state = 0 }

// Next draws a uniform step in [-amplitude, amplitude], adds it to the
// running state, halves the state, and returns it. amplitude <= 0 always
// returns 0 without consuming randomness, matching the "noise parameter
// zero disables the effect" boundary behavior in spec §8.
func (w *Walk) Next(amplitude float64) float64 {
	if amplitude <= 0 {
		return 0
	}
	step := w.rng.Float64()*2*amplitude - amplitude
	w.state = (w.state + step) / 2
	return w.state
}

// NextInt draws one uniform integer step in [-amplitude, amplitude]
// (mod is 2*amplitude+1, matching the reference's "noiseMod"
// formulation). It returns the bare step and does not touch the walk's
// running state.
func (w *Walk) NextInt(amplitude int) int32 {
	if amplitude <= 0 {
		return 0
	}
	mod := amplitude*2 + 1
	step := int32(w.rng.IntN(mod)) - int32(amplitude)
	return step
}

// Uniform draws a single uniform value in [lo, hi), independent of any
// running state — used for one-shot draws like the head-switching jitter.
func (w *Walk) Uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*w.rng.Float64()
}

// Chance reports true with probability p (p in [0,1]).
func (w *Walk) Chance(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return w.rng.Float64() < p
}
