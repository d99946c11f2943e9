// Package colorspace implements the RGB<->YIQ matrices used at the
// boundary between the field buffer and the RGB frame (spec §4.2).
package colorspace

import "math"

// RGB is one packed 8-bit-per-channel pixel.
type RGB struct {
	R, G, B uint8
}

// YIQ is one sample's luma/chroma triple, stored at the field buffer's
// headroom (the modulated signal can temporarily exceed the 8-bit range).
type YIQ struct {
	Y, I, Q int32
}

// ToYIQ converts one RGB pixel to YIQ, matching spec §4.2's formulas
// exactly: Y = round(256*(0.30R+0.59G+0.11B)), with I/Q computed from the
// unrounded luma Y' so the matrix stays linear.
func ToYIQ(p RGB) YIQ {
	r, g, b := float64(p.R), float64(p.G), float64(p.B)
	yPrime := 0.30*r + 0.59*g + 0.11*b
	y := round(256 * yPrime)
	i := round(256 * (-0.27*(b-yPrime) + 0.74*(r-yPrime)))
	q := round(256 * (0.41*(b-yPrime) + 0.48*(r-yPrime)))
	return YIQ{Y: int32(y), I: int32(i), Q: int32(q)}
}

// ToRGB converts one YIQ sample back to RGB using the inverse matrix from
// spec §4.2, dividing by 256 and clamping each channel to [0,255].
func ToRGB(s YIQ) RGB {
	y, i, q := float64(s.Y), float64(s.I), float64(s.Q)
	r := (y + 0.956*i + 0.621*q) / 256.0
	g := (y - 0.272*i - 0.647*q) / 256.0
	b := (y - 1.106*i + 1.703*q) / 256.0
	return RGB{R: clamp8(r), G: clamp8(g), B: clamp8(b)}
}

func round(v float64) float64 {
	return math.Round(v)
}

func clamp8(v float64) uint8 {
	r := math.Round(v)
	if r < 0 {
		return 0
	}
	if r > 255 {
		return 255
	}
	return uint8(r)
}
