package composite

import (
	"testing"

	"ntscvhs/internal/config"
	"ntscvhs/internal/field"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.New([]string{"-noise", "0", "-chroma-noise", "0", "-chroma-phase-noise", "0"})
	if err != nil {
		t.Fatalf("config.New: %v", err)
	}
	return cfg
}

func solidBuffer(w, h int, y, i, q int32) *field.Buffer {
	buf := field.New(w, h)
	for idx := range buf.Y {
		buf.Y[idx] = y
		buf.I[idx] = i
		buf.Q[idx] = q
	}
	return buf
}

func TestModulateThenDemodulateRecoversChroma(t *testing.T) {
	cfg := testConfig(t)
	p := New(cfg)

	const w, h = 64, 4
	buf := solidBuffer(w, h, 1000, 400, -300)

	for parity := 0; parity < 2; parity++ {
		p.ModulateSubcarrier(buf, 0, parity, cfg.SubcarrierAmplitude)
		for y := parity; y < h; y += 2 {
			row := buf.RowOffset(y)
			for x := 0; x < w; x++ {
				if buf.I[row+x] != 0 || buf.Q[row+x] != 0 {
					t.Fatalf("row %d: I/Q not zeroed after modulation", y)
				}
			}
		}
		p.Demodulate(buf, 0, parity, cfg.SubcarrierAmplitudeBack)
	}

	for y := 0; y < h; y++ {
		row := buf.RowOffset(y)
		for x := 8; x < w-8; x += 2 {
			if absDiff(buf.I[row+x], 400) > 40 {
				t.Errorf("row %d col %d: I = %d, want ~400", y, x, buf.I[row+x])
			}
			if absDiff(buf.Q[row+x], -300) > 40 {
				t.Errorf("row %d col %d: Q = %d, want ~-300", y, x, buf.Q[row+x])
			}
		}
	}
}

func TestSubcarrierAmplitudeZeroNeverReachesLuma(t *testing.T) {
	cfg := testConfig(t)
	p := New(cfg)

	const w, h = 16, 2
	buf := solidBuffer(w, h, 500, 9000, 9000)
	p.ModulateSubcarrier(buf, 0, 0, 0)

	for x := 0; x < w; x++ {
		if buf.Y[x] != 500 {
			t.Errorf("Y[%d] = %d, want unchanged 500 when amplitude is 0", x, buf.Y[x])
		}
	}
}

func TestChromaDropoutZeroNeverZeroesRows(t *testing.T) {
	cfg := testConfig(t)
	cfg.ChromaDropout = 0
	p := New(cfg)
	buf := solidBuffer(8, 4, 0, 100, 100)
	p.ChromaDropout(buf, 0)
	for _, v := range buf.I {
		if v != 100 {
			t.Fatal("chroma dropout probability 0 zeroed a row")
		}
	}
}

func TestChromaDropoutMaxAlwaysZeroesRows(t *testing.T) {
	cfg := testConfig(t)
	cfg.ChromaDropout = 100000
	p := New(cfg)
	buf := solidBuffer(8, 4, 0, 100, 100)
	p.ChromaDropout(buf, 0)
	for y := 0; y < 4; y += 2 {
		row := buf.RowOffset(y)
		for x := 0; x < 8; x++ {
			if buf.I[row+x] != 0 || buf.Q[row+x] != 0 {
				t.Fatalf("row %d not zeroed at dropout probability 1.0", y)
			}
		}
	}
}

func TestHeadSwitchingDisabledIsNoop(t *testing.T) {
	cfg := testConfig(t)
	cfg.VHSHeadSwitching = false
	p := New(cfg)
	buf := solidBuffer(16, 8, 777, 0, 0)
	before := append([]int32(nil), buf.Y...)
	p.HeadSwitchingShift(buf, 0)
	for i := range buf.Y {
		if buf.Y[i] != before[i] {
			t.Fatal("head switching ran while disabled")
		}
	}
}

func TestChromaLowpassOnlyTouchesFieldRows(t *testing.T) {
	cfg := testConfig(t)
	p := New(cfg)
	buf := solidBuffer(32, 4, 0, 1000, 1000)
	if err := p.ChromaLowpass(buf, 0, false); err != nil {
		t.Fatalf("ChromaLowpass: %v", err)
	}
	row := buf.RowOffset(1)
	for x := 0; x < 32; x++ {
		if buf.I[row+x] != 1000 || buf.Q[row+x] != 1000 {
			t.Fatalf("odd row modified by even-field lowpass pass")
		}
	}
}

func absDiff(a, b int32) int32 {
	d := a - b
	if d < 0 {
		return -d
	}
	return d
}
