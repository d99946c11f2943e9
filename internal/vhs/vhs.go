// Package vhs implements the VHS artifact stage of spec §4.4: speed-
// dependent luma/chroma band-limiting, NTSC-only vertical chroma blend,
// playback sharpening, and an optional composite re-encode pass through
// internal/composite's subcarrier modulate/demodulate.
//
// Grounded on undef-i-analog-artifact-simulator/pkg/ntsc/ntsc.go's
// emulateVHS, vhsLumaLowpass, vhsChromaLowpass, vhsChromaVertBlend,
// vhsSharpen, and vhsEdgeWave, restructured into per-stage methods in the
// style of internal/composite.
package vhs

import (
	"ntscvhs/internal/composite"
	"ntscvhs/internal/config"
	"ntscvhs/internal/dsp"
	"ntscvhs/internal/field"
)

// Stage holds the noise state and composite re-encoder the VHS pipeline
// needs. Filter banks, like internal/composite, are built fresh per row.
type Stage struct {
	cfg       *config.Config
	recompose *composite.Pipeline
	edgeWave  *dsp.Walk
}

// New builds a Stage. recompose is the composite pipeline already
// constructed for this run, reused for the optional re-encode pass so
// both passes share one subcarrier phase policy and one set of noise
// sources.
func New(cfg *config.Config, recompose *composite.Pipeline) *Stage {
	return &Stage{
		cfg:       cfg,
		recompose: recompose,
		edgeWave:  dsp.NewWalk(cfg.RandomSeed ^ 0x7),
	}
}

// RunField drives every VHS stage in spec §4.4's order for the rows of
// fieldParity, within the field carrying fieldIndex.
func (s *Stage) RunField(buf *field.Buffer, fieldIndex int64, fieldParity int) error {
	if !s.cfg.VHS {
		return nil
	}
	speed := s.cfg.VHSSpeed

	if s.cfg.VHSEdgeWave != 0 {
		s.EdgeWave(buf, fieldParity)
	}

	s.LumaLowpass(buf, fieldParity, speed.LumaCutHz)
	s.ChromaLowpass(buf, fieldParity, speed.ChromaCutHz, speed.ChromaDelay)

	if s.cfg.VHSChromaVertBlend && s.cfg.Standard.Name == "ntsc" {
		s.ChromaVertBlend(buf, fieldParity)
	}

	s.Sharpen(buf, fieldParity, speed.LumaCutHz)

	if !s.cfg.VHSSVideo {
		s.recompose.ModulateSubcarrier(buf, fieldIndex, fieldParity, s.cfg.SubcarrierAmplitude)
		s.recompose.Demodulate(buf, fieldIndex, fieldParity, s.cfg.SubcarrierAmplitudeBack)
	}
	return nil
}

// LumaLowpass band-limits Y through three cascaded lowpass filters at
// lumaCutHz, with a preemphasis add-back at the same cutoff scaled 1.6
// (spec §4.4 stage 1).
func (s *Stage) LumaLowpass(buf *field.Buffer, fieldParity int, lumaCutHz float64) {
	for y := fieldParity; y < buf.Height; y += 2 {
		row := buf.RowOffset(y)
		samples := make([]float64, buf.Width)
		for x := 0; x < buf.Width; x++ {
			samples[x] = float64(buf.Y[row+x])
		}

		cascade, err := dsp.CascadedLowpass(3, config.ChromaSubcarrierHz, lumaCutHz, 16)
		if err != nil {
			continue
		}
		filtered := dsp.RunCascade(cascade, samples)

		pre, err := dsp.New(config.ChromaSubcarrierHz, lumaCutHz, 16)
		if err != nil {
			continue
		}
		highpassed := pre.HighpassSlice(filtered)

		for x := 0; x < buf.Width; x++ {
			buf.Y[row+x] = int32(filtered[x] + highpassed[x]*1.6)
		}
	}
}

// ChromaLowpass band-limits I and Q through three cascaded lowpass
// filters at chromaCutHz, shifting the output left by chromaDelay samples
// (spec §4.4 stage 2).
func (s *Stage) ChromaLowpass(buf *field.Buffer, fieldParity int, chromaCutHz float64, chromaDelay int) {
	for _, plane := range [][]int32{buf.I, buf.Q} {
		for y := fieldParity; y < buf.Height; y += 2 {
			row := buf.RowOffset(y)
			samples := make([]float64, buf.Width)
			for x := 0; x < buf.Width; x++ {
				samples[x] = float64(plane[row+x])
			}
			cascade, err := dsp.CascadedLowpass(3, config.ChromaSubcarrierHz, chromaCutHz, 0)
			if err != nil {
				continue
			}
			filtered := dsp.RunCascade(cascade, samples)
			for x := 0; x < buf.Width-chromaDelay; x++ {
				plane[row+x] = int32(filtered[x+chromaDelay])
			}
		}
	}
}

// ChromaVertBlend averages each row's chroma with the row two scanlines
// above it within the same field (spec §4.4 stage 3, NTSC only). A
// one-row delay line holds the pre-blend chroma so the blend always
// compares against the original signal, not an already-blended row.
func (s *Stage) ChromaVertBlend(buf *field.Buffer, fieldParity int) {
	for _, plane := range [][]int32{buf.I, buf.Q} {
		delay := make([]int32, buf.Width)
		copy(delay, plane[buf.RowOffset(fieldParity):buf.RowOffset(fieldParity)+buf.Width])
		for y := fieldParity + 2; y < buf.Height; y += 2 {
			row := buf.RowOffset(y)
			current := make([]int32, buf.Width)
			copy(current, plane[row:row+buf.Width])
			for x := 0; x < buf.Width; x++ {
				plane[row+x] = (delay[x] + current[x] + 1) >> 1
			}
			delay = current
		}
	}
}

// Sharpen boosts high-frequency luma detail: three cascaded lowpass at
// 4*lumaCutHz recover a blurred reference, and Y is pushed away from it
// by 2*sharpen gain (spec §4.4 stage 4, default gain 1.5).
func (s *Stage) Sharpen(buf *field.Buffer, fieldParity int, lumaCutHz float64) {
	gain := 1.5
	for y := fieldParity; y < buf.Height; y += 2 {
		row := buf.RowOffset(y)
		samples := make([]float64, buf.Width)
		for x := 0; x < buf.Width; x++ {
			samples[x] = float64(buf.Y[row+x])
		}
		cascade, err := dsp.CascadedLowpass(3, config.ChromaSubcarrierHz, lumaCutHz*4, 0)
		if err != nil {
			continue
		}
		blurred := dsp.RunCascade(cascade, samples)
		for x := 0; x < buf.Width; x++ {
			buf.Y[row+x] = int32(samples[x] + (samples[x]-blurred[x])*gain*2.0)
		}
	}
}

// EdgeWave implements the supplemented horizontal jitter described in
// SPEC_FULL.md: each row pair is displaced by a lowpass-filtered random
// walk, grounded on the reference's vhsEdgeWave.
func (s *Stage) EdgeWave(buf *field.Buffer, fieldParity int) {
	amplitude := float64(s.cfg.VHSEdgeWave)
	lp, err := dsp.New(config.ChromaSubcarrierHz, s.cfg.VHSSpeed.LumaCutHz, 0)
	if err != nil {
		return
	}
	for y := fieldParity; y < buf.Height; y += 2 {
		shift := int(lp.Lowpass(s.edgeWave.Next(amplitude)))
		if shift == 0 {
			continue
		}
		row := buf.RowOffset(y)
		shifted := make([]int32, buf.Width)
		for x := 0; x < buf.Width; x++ {
			src := x - shift
			if src < 0 || src >= buf.Width {
				continue
			}
			shifted[x] = buf.Y[row+src]
		}
		copy(buf.Y[row:row+buf.Width], shifted)
	}
}
