package config

import (
	"math"
	"math/rand/v2"
)

// Randomize derives a full Config from seed using the same
// triangular-distribution approach as the original implementation's
// RandomNtscConfig, for fuzz-style smoke testing of the pipeline end to
// end (SPEC_FULL.md SUPPLEMENTED FEATURES). It starts from sensible
// defaults and is not wired to a flag that would silently override
// explicit user flags.
func Randomize(seed uint64) *Config {
	rng := rand.New(rand.NewPCG(seed, seed^0xdeadbeef))

	cfg := &Config{
		TVStd:                   "ntsc",
		CompPhase:               180,
		SubcarrierAmplitude:     50,
		InCompositeLowpass:      rng.Float64() < 0.8,
		OutCompositeLowpass:     rng.Float64() < 0.8,
		OutCompositeLowpassLite: rng.Float64() < 0.8,
		VideoNoise:              int(triangular(rng, 0, 4200, 2)),
		ChromaNoise:             int(triangular(rng, 0, 16384, 2)),
		ChromaPhaseNoise:        int(triangular(rng, 0, 50, 2)),
		ChromaDropout:           int(triangular(rng, 0, 5000, 10)),
		VHS:                     rng.Float64() < 0.2,
		VHSSpeedName:            []string{"sp", "lp", "ep"}[rng.IntN(3)],
		VHSChromaVertBlend:      true,
		VHSHeadSwitching:        rng.Float64() < 0.3,
		VHSHeadSwitchingPoint:   0.97,
		VHSHeadSwitchingPhase:   0,
		Preemphasis:             true,
		Deemphasis:              true,
		AudioHissDB:             triangular(rng, -80, -20, -60),
		Ringing:                 1.0,
		RandomSeed:              seed,
		DelayDepth:              4,
	}

	if rng.Float64() < 0.8 {
		cfg.Ringing = triangular(rng, 0.3, 1.7, 1.0)
	}
	cfg.ColorBleedBefore = rng.Float64() < 0.5
	cfg.ColorBleedHoriz = int(triangular(rng, 0, 8, 0))
	cfg.ColorBleedVert = int(triangular(rng, 0, 8, 0))
	cfg.VHSEdgeWave = int(triangular(rng, 0, 5, 0))

	_ = cfg.resolve()
	return cfg
}

// triangular draws from a triangular distribution over [low, high] with
// mode, matching the original's RandomNtscConfig helper.
func triangular(rng *rand.Rand, low, high, mode float64) float64 {
	u := rng.Float64()
	c := (mode - low) / (high - low)
	if u < c {
		return low + math.Sqrt(u*(high-low)*(mode-low))
	}
	return high - math.Sqrt((1-u)*(high-low)*(high-mode))
}
