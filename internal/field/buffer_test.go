package field

import "testing"

func TestFillFromRGBOnlyTouchesMatchingParity(t *testing.T) {
	const w, h = 4, 4
	b := New(w, h)
	src := make([]byte, w*h*4)
	for i := range src {
		src[i] = 200
	}
	b.FillFromRGB(src, w*4, 0)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := b.RowOffset(y) + x
			if Parity(y) == 0 {
				if b.Y[idx] == 0 {
					t.Fatalf("row %d expected to be filled, Y=0", y)
				}
			} else {
				if b.Y[idx] != 0 || b.I[idx] != 0 || b.Q[idx] != 0 {
					t.Fatalf("row %d should be untouched, got Y=%d I=%d Q=%d", y, b.Y[idx], b.I[idx], b.Q[idx])
				}
			}
		}
	}
}

func TestWriteRGBRoundTrip(t *testing.T) {
	const w, h = 2, 2
	b := New(w, h)
	src := []byte{
		10, 20, 30, 255, 40, 50, 60, 255,
		70, 80, 90, 255, 100, 110, 120, 255,
	}
	b.FillFromRGB(src, w*4, 0)
	b.FillFromRGB(src, w*4, 1)

	dst := make([]byte, len(src))
	b.WriteRGB(dst, w*4, 0)
	b.WriteRGB(dst, w*4, 1)

	for i := 0; i < len(src); i += 4 {
		for c := 0; c < 3; c++ {
			got := int(dst[i+1+c])
			want := int(src[i+2-c])
			if abs(got-want) > 2 {
				t.Errorf("pixel %d channel %d = %d, want ~%d", i/4, c, got, want)
			}
		}
	}
}

func TestZeroChromaOnlyAffectsTargetRow(t *testing.T) {
	b := New(3, 3)
	for i := range b.I {
		b.I[i] = 42
		b.Q[i] = 43
	}
	b.ZeroChroma(1)
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			idx := b.RowOffset(y) + x
			if y == 1 {
				if b.I[idx] != 0 || b.Q[idx] != 0 {
					t.Fatalf("row 1 not zeroed")
				}
			} else if b.I[idx] != 42 || b.Q[idx] != 43 {
				t.Fatalf("row %d unexpectedly modified", y)
			}
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
