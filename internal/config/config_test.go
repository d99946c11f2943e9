package config

import (
	"errors"
	"testing"

	"ntscvhs/internal/errs"
)

func TestNewDefaultsResolveNTSC(t *testing.T) {
	cfg, err := New([]string{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if cfg.Standard.Name != "ntsc" {
		t.Errorf("default standard = %q, want ntsc", cfg.Standard.Name)
	}
	if cfg.Standard.Width != 720 || cfg.Standard.Height != 480 {
		t.Errorf("unexpected NTSC geometry: %+v", cfg.Standard)
	}
}

func TestNewPALStandard(t *testing.T) {
	cfg, err := New([]string{"-tvstd", "pal"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if cfg.Standard.Width != 720 || cfg.Standard.Height != 576 {
		t.Errorf("unexpected PAL geometry: %+v", cfg.Standard)
	}
}

func TestNewRejectsInvalidCompPhase(t *testing.T) {
	_, err := New([]string{"-comp-phase", "45"})
	if err == nil {
		t.Fatal("expected error for invalid comp-phase")
	}
	if !errors.Is(err, errs.ErrInvalidArgument) {
		t.Errorf("expected InvalidArgument, got %v", err)
	}
}

func TestNewRejectsOutOfRangeSubcarrierAmplitude(t *testing.T) {
	if _, err := New([]string{"-subcarrier-amp", "150"}); err == nil {
		t.Fatal("expected error for subcarrier-amp > 100")
	}
}

func TestNoCompDisablesEmulation(t *testing.T) {
	cfg, err := New([]string{"-nocomp", "-noise", "50", "-vhs", "-comp-pre", "5"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if cfg.VideoNoise != 0 || cfg.VHS || cfg.CompPreemphasis != 0 {
		t.Errorf("nocomp did not disable emulation: %+v", cfg)
	}
}

func TestMultipleInputsPreserveOrder(t *testing.T) {
	cfg, err := New([]string{"-i", "a.mp4", "-i", "b.mp4"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(cfg.Inputs) != 2 || cfg.Inputs[0] != "a.mp4" || cfg.Inputs[1] != "b.mp4" {
		t.Errorf("inputs = %v, want [a.mp4 b.mp4]", cfg.Inputs)
	}
}

func TestCATVPresetAppliesValues(t *testing.T) {
	cfg, err := New([]string{"-comp-catv", "catv1"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if cfg.CompPreemphasis != 7 {
		t.Errorf("catv1 preemphasis = %v, want 7", cfg.CompPreemphasis)
	}
}

func TestBackAmplitudeZeroPreemphasis(t *testing.T) {
	cfg, err := New([]string{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if cfg.SubcarrierAmplitudeBack != cfg.SubcarrierAmplitude {
		t.Errorf("back amplitude = %d, want %d when preemphasis is zero", cfg.SubcarrierAmplitudeBack, cfg.SubcarrierAmplitude)
	}
}

func TestRandomizeProducesValidConfig(t *testing.T) {
	cfg := Randomize(42)
	if cfg.Standard.Name == "" {
		t.Error("Randomize did not resolve a standard")
	}
	if cfg.ChromaDropout < 0 || cfg.ChromaDropout > 10000 {
		t.Errorf("ChromaDropout out of range: %d", cfg.ChromaDropout)
	}
}

func TestRandomizeDeterministic(t *testing.T) {
	a := Randomize(7)
	b := Randomize(7)
	if a.VideoNoise != b.VideoNoise || a.VHSSpeedName != b.VHSSpeedName {
		t.Error("Randomize(seed) is not deterministic")
	}
}
