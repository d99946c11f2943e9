// Package field implements the per-field planar image buffer spec §3
// describes: three signed-integer planes (Y, I, Q) with headroom beyond
// the 8-bit source range, addressed by field parity.
package field

import "ntscvhs/internal/colorspace"

// Buffer is one frame's worth of Y/I/Q planes, full frame height, W*H
// samples per plane. Allocated once by the compositor and reused across
// fields (spec §3 Lifecycle).
type Buffer struct {
	Width, Height int
	Y, I, Q       []int32
}

// New allocates a zeroed Buffer of the given dimensions.
func New(width, height int) *Buffer {
	n := width * height
	return &Buffer{
		Width:  width,
		Height: height,
		Y:      make([]int32, n),
		I:      make([]int32, n),
		Q:      make([]int32, n),
	}
}

// RowOffset returns the flat index of the first sample in row y.
func (b *Buffer) RowOffset(y int) int { return y * b.Width }

// Parity returns row%2, the field parity a row belongs to.
func Parity(row int) int { return row & 1 }

// FillFromRGB loads one packed BGRA layer into the buffer's YIQ planes,
// restricted to rows matching the given field parity, and simple pixel
// replacement compositing if called more than once per field (spec
// §4.5's "each layer composited in order, no alpha blending").
func (b *Buffer) FillFromRGB(src []byte, stride int, fieldParity int) {
	for y := fieldParity; y < b.Height; y += 2 {
		rowStart := b.RowOffset(y)
		srcRow := y * stride
		for x := 0; x < b.Width; x++ {
			si := srcRow + x*4
			px := colorspace.RGB{R: src[si+2], G: src[si+1], B: src[si]}
			s := colorspace.ToYIQ(px)
			idx := rowStart + x
			b.Y[idx] = s.Y
			b.I[idx] = s.I
			b.Q[idx] = s.Q
		}
	}
}

// WriteRGB reads one field's rows back out as packed ARGB into dst,
// leaving the complementary parity rows untouched (the caller is
// expected to have already written them from the previous field, per
// spec §8's "complementary rows are byte-identical to what they held
// before").
func (b *Buffer) WriteRGB(dst []byte, stride int, fieldParity int) {
	for y := fieldParity; y < b.Height; y += 2 {
		rowStart := b.RowOffset(y)
		dstRow := y * stride
		for x := 0; x < b.Width; x++ {
			idx := rowStart + x
			s := colorspace.YIQ{Y: b.Y[idx], I: b.I[idx], Q: b.Q[idx]}
			px := colorspace.ToRGB(s)
			di := dstRow + x*4
			dst[di] = 255
			dst[di+1] = px.R
			dst[di+2] = px.G
			dst[di+3] = px.B
		}
	}
}

// ZeroChroma zeroes I and Q for the given row — used by chroma dropout.
// Subcarrier modulation zeroes I and Q itself, sample by sample.
func (b *Buffer) ZeroChroma(row int) {
	start := b.RowOffset(row)
	for x := 0; x < b.Width; x++ {
		b.I[start+x] = 0
		b.Q[start+x] = 0
	}
}
