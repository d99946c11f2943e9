// Package compositor implements the field compositor/driver of spec
// §4.5: per output field it composites declared input layers into the
// shared field buffer, selects field parity, drives the composite and
// VHS stages in order, and writes the result back as packed RGB.
//
// Grounded on hacktvlive/video/ntsc.go and pal.go (the Standard
// interface plus per-field GenerateFullFrame dispatch) and
// undef-i-analog-artifact-simulator/pkg/ntsc/ntsc.go's ProcessImage /
// compositeLayer (per-field dispatch, adapted to this repo's
// single-owner-per-field filter state instead of a WaitGroup over two
// concurrent fields, since spec §5 assigns all DSP state to one producer
// goroutine).
package compositor

import (
	"ntscvhs/internal/composite"
	"ntscvhs/internal/config"
	"ntscvhs/internal/field"
	"ntscvhs/internal/vhs"
)

// Frame is one decoded input frame as handed off by the codec collaborator:
// one or more packed-BGRA layers composited in declared order (spec §4.5
// "simple pixel replacement... no alpha blending"), plus interlace
// metadata.
type Frame struct {
	Layers        [][]byte
	Stride        int
	Interlaced    bool
	TopFieldFirst bool
}

// Compositor owns the shared field buffer and the composite/VHS stages
// that operate on it. It is single-owner: the producer side of
// internal/pipeline drives it from one goroutine only (spec §5 "Shared
// resources").
type Compositor struct {
	cfg       *config.Config
	buf       *field.Buffer
	composite *composite.Pipeline
	vhs       *vhs.Stage
}

// New allocates the field buffer at the configured standard's resolution
// and builds the composite/VHS stages that share its noise sources.
func New(cfg *config.Config) *Compositor {
	buf := field.New(cfg.Standard.Width, cfg.Standard.Height)
	comp := composite.New(cfg)
	return &Compositor{
		cfg:       cfg,
		buf:       buf,
		composite: comp,
		vhs:       vhs.New(cfg, comp),
	}
}

// Buffer returns the shared field buffer, for callers that need direct
// plane access.
func (c *Compositor) Buffer() *field.Buffer { return c.buf }

// ProcessField drives spec §4.5 for one field_index: composites frame's
// layers into the rows matching this field's parity, runs the composite
// chroma pipeline and (if enabled) the VHS stage, and writes the result
// back into dst as packed ARGB at the same stride.
func (c *Compositor) ProcessField(frame *Frame, fieldIndex int64, dst []byte) error {
	parity := fieldParity(frame, fieldIndex)

	for _, layer := range frame.Layers {
		if c.cfg.CutBlackLineBorder {
			cutBlackLineBorder(layer, frame.Stride, c.cfg.Standard.Width, c.cfg.Standard.Height, parity)
		}
		c.buf.FillFromRGB(layer, frame.Stride, parity)
	}

	if err := c.composite.RunField(c.buf, fieldIndex, parity); err != nil {
		return err
	}
	if err := c.vhs.RunField(c.buf, fieldIndex, parity); err != nil {
		return err
	}

	c.buf.WriteRGB(dst, frame.Stride, parity)
	return nil
}

// cutBlackLineBorder blacks out the rightmost ~1.7% of columns of a
// packed-BGRA layer, restricted to rows matching fieldParity, before that
// layer reaches the DSP chain. Matches
// undef-i-analog-artifact-simulator/pkg/ntsc/ntsc.go's cutBlackLineBorder,
// adapted from a 3-channel RGB buffer to packed BGRA (alpha untouched).
func cutBlackLineBorder(layer []byte, stride, width, height, fieldParity int) {
	lineWidth := int(float64(width) * 0.017)
	left := width - lineWidth
	for y := fieldParity; y < height; y += 2 {
		rowStart := y * stride
		for x := left; x < width; x++ {
			px := rowStart + x*4
			layer[px] = 0
			layer[px+1] = 0
			layer[px+2] = 0
		}
	}
}

// fieldParity selects which buffer rows belong to fieldIndex (spec §4.5
// "Orchestration invariants"). A progressive source shares its content
// across both fields, so parity tracks field_index directly; an
// interlaced source honors top_field_first inverted:
// opposite = (interlaced && top_field_first) ? 1 : 0.
func fieldParity(frame *Frame, fieldIndex int64) int {
	opposite := 0
	if frame.Interlaced && frame.TopFieldFirst {
		opposite = 1
	}
	return int(fieldIndex&1) ^ opposite
}
