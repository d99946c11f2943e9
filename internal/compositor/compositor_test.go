package compositor

import (
	"testing"

	"ntscvhs/internal/config"
)

func TestProcessFieldOnlyWritesMatchingParityRows(t *testing.T) {
	cfg, err := config.New([]string{"-nocomp"})
	if err != nil {
		t.Fatalf("config.New: %v", err)
	}
	c := New(cfg)

	w, h := cfg.Standard.Width, cfg.Standard.Height
	stride := w * 4
	layer := make([]byte, h*stride)
	for i := range layer {
		layer[i] = 111
	}

	dst := make([]byte, h*stride)
	sentinelRow := 1
	for x := 0; x < stride; x++ {
		dst[sentinelRow*stride+x] = 0xAB
	}

	frame := &Frame{Layers: [][]byte{layer}, Stride: stride}
	if err := c.ProcessField(frame, 0, dst); err != nil {
		t.Fatalf("ProcessField: %v", err)
	}

	for x := 0; x < stride; x++ {
		if dst[sentinelRow*stride+x] != 0xAB {
			t.Fatalf("odd row modified by field 0 (even-parity) write")
		}
	}
}

func TestFieldParityProgressiveTracksFieldIndex(t *testing.T) {
	frame := &Frame{Interlaced: false}
	if fieldParity(frame, 0) != 0 {
		t.Error("progressive field 0 should have parity 0")
	}
	if fieldParity(frame, 1) != 1 {
		t.Error("progressive field 1 should have parity 1")
	}
}

func TestFieldParityInterlacedTopFieldFirstInverts(t *testing.T) {
	frame := &Frame{Interlaced: true, TopFieldFirst: true}
	if fieldParity(frame, 0) != 1 {
		t.Error("interlaced top-field-first field 0 should invert to parity 1")
	}
	frame.TopFieldFirst = false
	if fieldParity(frame, 0) != 0 {
		t.Error("interlaced bottom-field-first field 0 should keep parity 0")
	}
}

func TestNoCompRoundTripsWithinColorTolerance(t *testing.T) {
	cfg, err := config.New([]string{"-nocomp"})
	if err != nil {
		t.Fatalf("config.New: %v", err)
	}
	c := New(cfg)
	w, h := cfg.Standard.Width, cfg.Standard.Height
	stride := w * 4
	layer := make([]byte, h*stride)
	for i := 0; i < len(layer); i += 4 {
		layer[i] = 10   // B
		layer[i+1] = 20 // G
		layer[i+2] = 30 // R
		layer[i+3] = 255
	}
	dst := make([]byte, h*stride)
	frame := &Frame{Layers: [][]byte{layer}, Stride: stride}
	if err := c.ProcessField(frame, 0, dst); err != nil {
		t.Fatalf("ProcessField: %v", err)
	}
	if err := c.ProcessField(frame, 1, dst); err != nil {
		t.Fatalf("ProcessField: %v", err)
	}
	for i := 0; i < len(dst); i += 4 {
		if absDiff(int(dst[i+1]), 30) > 40 {
			t.Fatalf("pixel %d: R = %d, want ~30", i/4, dst[i+1])
		}
	}
}

func TestCutBlackLineBorderBlanksRightmostColumns(t *testing.T) {
	cfg, err := config.New([]string{"-nocomp", "-cut-black-line-border"})
	if err != nil {
		t.Fatalf("config.New: %v", err)
	}
	c := New(cfg)
	w, h := cfg.Standard.Width, cfg.Standard.Height
	stride := w * 4
	layer := make([]byte, h*stride)
	for i := 0; i < len(layer); i += 4 {
		layer[i] = 10   // B
		layer[i+1] = 20 // G
		layer[i+2] = 30 // R
		layer[i+3] = 255
	}
	dst := make([]byte, h*stride)
	frame := &Frame{Layers: [][]byte{layer}, Stride: stride}
	if err := c.ProcessField(frame, 0, dst); err != nil {
		t.Fatalf("ProcessField: %v", err)
	}
	if err := c.ProcessField(frame, 1, dst); err != nil {
		t.Fatalf("ProcessField: %v", err)
	}

	lineWidth := int(float64(w) * 0.017)
	left := w - lineWidth
	for y := 0; y < h; y++ {
		for x := left; x < w; x++ {
			px := y*stride + x*4
			if dst[px+1] != 0 || dst[px+2] != 0 || dst[px+3] != 0 {
				t.Fatalf("pixel (%d,%d) in border region not blacked out: RGB = %d,%d,%d", x, y, dst[px+1], dst[px+2], dst[px+3])
			}
		}
		if y < h && left > 0 {
			px := y*stride + (left-1)*4
			if absDiff(int(dst[px+1]), 30) > 40 {
				t.Fatalf("pixel (%d,%d) just left of the border region was modified", left-1, y)
			}
		}
	}
}

func absDiff(a, b int) int {
	if a < b {
		return b - a
	}
	return a - b
}
