// Package dsp implements the single-pole IIR filter primitives that every
// other stage of the analog-emulation pipeline is built from (spec §4.1).
package dsp

import (
	"fmt"
	"math"
)

// Filter is a single-pole IIR low/high-pass filter. Zero value is not
// usable; construct with Configure or New.
type Filter struct {
	rate   float64
	cutoff float64
	dt     float64
	tau    float64
	alpha  float64
	prev   float64
}

// New builds a Filter for the given sample rate and cutoff frequency,
// with the filter state reset to initial.
func New(rate, cutoffHz, initial float64) (*Filter, error) {
	f := &Filter{}
	if err := f.Configure(rate, cutoffHz); err != nil {
		return nil, err
	}
	f.Reset(initial)
	return f, nil
}

// Configure sets alpha and dt for the given rate and cutoff. Both must be
// positive or the configuration fails with an error the caller should
// surface as errs.InvalidArgument.
func (f *Filter) Configure(rate, cutoffHz float64) error {
	if rate <= 0 {
		return fmt.Errorf("dsp: rate must be > 0, got %v", rate)
	}
	if cutoffHz <= 0 {
		return fmt.Errorf("dsp: cutoff must be > 0 Hz, got %v", cutoffHz)
	}
	f.rate = rate
	f.cutoff = cutoffHz
	f.dt = 1.0 / rate
	f.tau = 1.0 / (2.0 * math.Pi * cutoffHz)
	f.alpha = f.dt / (f.tau + f.dt)
	return nil
}

// Reset sets prev to initial. Called between independent scanlines; filter
// state is otherwise stateful within one scanline (spec §3 Invariants).
func (f *Filter) Reset(initial float64) { f.prev = initial }

// Lowpass advances the filter state by one sample and returns the
// low-pass output. Computed as prev - prev*alpha + x*alpha, matching the
// reference implementation's numerical ordering exactly (spec §4.1).
func (f *Filter) Lowpass(x float64) float64 {
	f.prev = f.prev - f.prev*f.alpha + x*f.alpha
	return f.prev
}

// Highpass advances the filter the same way as Lowpass and returns the
// complementary high-pass output.
func (f *Filter) Highpass(x float64) float64 {
	return x - f.Lowpass(x)
}

// LowpassSlice runs Lowpass over an input slice, returning a new slice of
// the same length; the input is not modified. Used for whole-scanline
// filtering.
func (f *Filter) LowpassSlice(in []float64) []float64 {
	out := make([]float64, len(in))
	for i, x := range in {
		out[i] = f.Lowpass(x)
	}
	return out
}

// HighpassSlice is the Highpass analogue of LowpassSlice.
func (f *Filter) HighpassSlice(in []float64) []float64 {
	out := make([]float64, len(in))
	for i, x := range in {
		out[i] = f.Highpass(x)
	}
	return out
}

// HiLoPass is an ordered bank of N single-pole filters: lowpass is applied
// N times in sequence, then highpass N times, on each sample (spec §3).
type HiLoPass struct {
	lowpass  []*Filter
	highpass []*Filter
}

// NewHiLoPass builds a bank with nLow lowpass stages and nHigh highpass
// stages, each configured for rate/cutoff and reset to initial.
func NewHiLoPass(rate float64, lowCutoffs, highCutoffs []float64, initial float64) (*HiLoPass, error) {
	h := &HiLoPass{
		lowpass:  make([]*Filter, len(lowCutoffs)),
		highpass: make([]*Filter, len(highCutoffs)),
	}
	for i, c := range lowCutoffs {
		f, err := New(rate, c, initial)
		if err != nil {
			return nil, err
		}
		h.lowpass[i] = f
	}
	for i, c := range highCutoffs {
		f, err := New(rate, c, initial)
		if err != nil {
			return nil, err
		}
		h.highpass[i] = f
	}
	return h, nil
}

// Process runs one sample through every lowpass stage in order, then
// every highpass stage in order, advancing all filter state.
func (h *HiLoPass) Process(x float64) float64 {
	for _, f := range h.lowpass {
		x = f.Lowpass(x)
	}
	for _, f := range h.highpass {
		x = f.Highpass(x)
	}
	return x
}

// Reset resets every stage's state to initial, for a new scanline.
func (h *HiLoPass) Reset(initial float64) {
	for _, f := range h.lowpass {
		f.Reset(initial)
	}
	for _, f := range h.highpass {
		f.Reset(initial)
	}
}

// CascadedLowpass builds n independent single-pole lowpass filters at the
// same rate/cutoff, the shape used repeatedly by the composite and VHS
// stages (three-stage cascades at various cutoffs).
func CascadedLowpass(n int, rate, cutoffHz, initial float64) ([]*Filter, error) {
	out := make([]*Filter, n)
	for i := 0; i < n; i++ {
		f, err := New(rate, cutoffHz, initial)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

// RunCascade filters an entire row through a cascade of lowpass filters in
// sequence, each stage seeing the previous stage's output.
func RunCascade(cascade []*Filter, in []float64) []float64 {
	out := in
	for _, f := range cascade {
		out = f.LowpassSlice(out)
	}
	return out
}
