// Package config parses the CLI surface of spec §6 into an immutable
// Config value object, and holds the VHS-speed/CATV preset tables used to
// resolve a handful of the flags into concrete DSP parameters.
package config

import (
	"flag"
	"fmt"
	"strings"

	"ntscvhs/internal/errs"
)

// Standard is the resolved frame geometry and rate for one TV standard
// (spec §6 "-tvstd"): NTSC is 720x480 at 60000/1001 Hz, PAL is 720x576 at
// 50 Hz.
type Standard struct {
	Name              string
	Width, Height     int
	FrameRateNum      int
	FrameRateDen      int
	LinesPerFrame     int
	LineRateHz        float64 // NTSC 15734 Hz, PAL 15625 Hz (spec §4.6 step 4)
	TotalLines        int     // 525 / 625
	HalfFrameVsyncEnd int     // vpulse_end lines per half-frame, audio buzz window
}

var (
	ntscStandard = Standard{
		Name: "ntsc", Width: 720, Height: 480,
		FrameRateNum: 60000, FrameRateDen: 1001,
		LinesPerFrame: 480, LineRateHz: 15734, TotalLines: 525,
		HalfFrameVsyncEnd: 10,
	}
	palStandard = Standard{
		Name: "pal", Width: 720, Height: 576,
		FrameRateNum: 50, FrameRateDen: 1,
		LinesPerFrame: 576, LineRateHz: 15625, TotalLines: 625,
		HalfFrameVsyncEnd: 10,
	}
)

// Config is the full set of recognized options from spec §6, immutable
// once New returns.
type Config struct {
	// I/O
	Inputs     []string
	Output     string
	DelayDepth int

	// Standard
	TVStd    string
	Standard Standard

	// Composite
	CompPhase                   int
	CompPhaseOffset              int
	CompPreemphasis              float64
	CompPreemphasisCutHz         float64
	SubcarrierAmplitude          int
	SubcarrierAmplitudeBack      int
	InCompositeLowpass           bool
	OutCompositeLowpass          bool
	OutCompositeLowpassLite      bool
	NoColorSubcarrier            bool
	NoColorSubcarrierAfterYCSep  bool
	YCRecomb                     int

	// Noise
	VideoNoise        int
	ChromaNoise        int
	ChromaPhaseNoise   int
	ChromaDropout      int // 0..10000, canonicalized to /100000 internally

	// VHS
	VHS                        bool
	VHSSpeedName               string
	VHSSpeed                   VHSSpeed
	VHSHiFi                    bool
	VHSSVideo                  bool
	VHSChromaVertBlend         bool
	VHSLinearHighBoost         float64
	VHSLinearVideoCrosstalkDBFS float64
	VHSHeadSwitching           bool
	VHSHeadSwitchingPoint      float64
	VHSHeadSwitchingPhase      float64
	VHSHeadSwitchingNoiseLevel float64

	// Audio
	Preemphasis bool
	Deemphasis  bool
	AudioHissDB float64

	// Supplemented features (SPEC_FULL.md)
	Ringing            float64
	ColorBleedHoriz    int
	ColorBleedVert     int
	ColorBleedBefore   bool
	VHSEdgeWave        int
	CutBlackLineBorder bool

	// Misc
	NoComp bool
	Debug  bool

	// RandomSeed seeds every DSP noise source so a run is reproducible.
	RandomSeed uint64
}

// New parses args (typically os.Args[1:]) into a Config, applying any
// CATV preset and resolving the VHS speed and TV standard tables.
// Returns an *errs.Error of kind InvalidArgument on any malformed flag.
func New(args []string) (*Config, error) {
	cfg := &Config{}
	fs := flag.NewFlagSet("ntscvhs", flag.ContinueOnError)

	var inputs multiFlag
	fs.Var(&inputs, "i", "input path (may repeat; layers composited in order)")
	fs.StringVar(&cfg.Output, "o", "", "output path")
	fs.IntVar(&cfg.DelayDepth, "d", 4, "delay-buffer depth (1..256)")

	fs.StringVar(&cfg.TVStd, "tvstd", "ntsc", "pal or ntsc")

	fs.IntVar(&cfg.CompPhase, "comp-phase", 180, "0, 90, 180, or 270")
	fs.IntVar(&cfg.CompPhaseOffset, "comp-phase-offset", 0, "integer scanline phase offset")
	fs.Float64Var(&cfg.CompPreemphasis, "comp-pre", 0, "composite preemphasis gain")
	fs.Float64Var(&cfg.CompPreemphasisCutHz, "comp-cut", 1_000_000, "composite preemphasis cutoff (Hz)")
	catv := fs.String("comp-catv", "", "catv1, catv2, catv3, or catv4 preemphasis preset")
	fs.IntVar(&cfg.SubcarrierAmplitude, "subcarrier-amp", 50, "0..100")
	inCL := fs.Int("in-composite-lowpass", 1, "0 or 1")
	outCL := fs.Int("out-composite-lowpass", 1, "0 or 1")
	outCLLite := fs.Int("out-composite-lowpass-lite", 1, "0 or 1")
	fs.BoolVar(&cfg.NoColorSubcarrier, "nocolor-subcarrier", false, "")
	fs.BoolVar(&cfg.NoColorSubcarrierAfterYCSep, "nocolor-subcarrier-after-yc-sep", false, "")
	fs.IntVar(&cfg.YCRecomb, "yc-recomb", 0, "")

	fs.IntVar(&cfg.VideoNoise, "noise", 2, "")
	fs.IntVar(&cfg.ChromaNoise, "chroma-noise", 0, "")
	fs.IntVar(&cfg.ChromaPhaseNoise, "chroma-phase-noise", 0, "")
	fs.IntVar(&cfg.ChromaDropout, "chroma-dropout", 0, "0..10000")

	fs.BoolVar(&cfg.VHS, "vhs", false, "")
	fs.StringVar(&cfg.VHSSpeedName, "vhs-speed", "sp", "sp, lp, or ep")
	hifi := fs.Int("vhs-hifi", 0, "0 or 1")
	svideo := fs.Int("vhs-svideo", 0, "0 or 1")
	vblend := fs.Int("vhs-chroma-vblend", 1, "0 or 1")
	fs.Float64Var(&cfg.VHSLinearHighBoost, "vhs-linear-high-boost", 0, "")
	fs.Float64Var(&cfg.VHSLinearVideoCrosstalkDBFS, "vhs-linear-video-crosstalk", -100, "dBFS")
	headsw := fs.Int("vhs-head-switching", 0, "0 or 1")
	fs.Float64Var(&cfg.VHSHeadSwitchingPoint, "vhs-head-switching-point", 0.97, "0..1")
	fs.Float64Var(&cfg.VHSHeadSwitchingPhase, "vhs-head-switching-phase", 0, "-1..1")
	fs.Float64Var(&cfg.VHSHeadSwitchingNoiseLevel, "vhs-head-switching-noise-level", 0, "")

	pre := fs.Int("preemphasis", 1, "0 or 1")
	de := fs.Int("deemphasis", 1, "0 or 1")
	fs.Float64Var(&cfg.AudioHissDB, "audio-hiss", -60, "-120..0")

	fs.Float64Var(&cfg.Ringing, "ringing", 1.0, "1.0 = off")
	fs.IntVar(&cfg.ColorBleedHoriz, "color-bleed-horiz", 0, "")
	fs.IntVar(&cfg.ColorBleedVert, "color-bleed-vert", 0, "")
	fs.BoolVar(&cfg.ColorBleedBefore, "color-bleed-before", true, "")
	fs.IntVar(&cfg.VHSEdgeWave, "vhs-edge-wave", 0, "")
	fs.BoolVar(&cfg.CutBlackLineBorder, "cut-black-line-border", false, "")

	fs.BoolVar(&cfg.NoComp, "nocomp", false, "disable all emulation")
	fs.BoolVar(&cfg.Debug, "debug", false, "verbose logging")
	presetsPath := fs.String("presets", "", "path to a YAML file overriding VHS-speed/CATV presets")
	seed := fs.Uint64("seed", 12345, "deterministic noise seed")

	if err := fs.Parse(args); err != nil {
		return nil, errs.New(errs.InvalidArgument, "config.New", err)
	}

	if *presetsPath != "" {
		if err := LoadPresets(*presetsPath); err != nil {
			return nil, errs.New(errs.InvalidArgument, "config.New", err)
		}
	}

	cfg.Inputs = inputs.values
	cfg.InCompositeLowpass = *inCL != 0
	cfg.OutCompositeLowpass = *outCL != 0
	cfg.OutCompositeLowpassLite = *outCLLite != 0
	cfg.VHSHiFi = *hifi != 0
	cfg.VHSSVideo = *svideo != 0
	cfg.VHSChromaVertBlend = *vblend != 0
	cfg.VHSHeadSwitching = *headsw != 0
	cfg.Preemphasis = *pre != 0
	cfg.Deemphasis = *de != 0
	cfg.RandomSeed = *seed

	if *catv != "" {
		preset, err := CATVPresetByName(*catv)
		if err != nil {
			return nil, errs.New(errs.InvalidArgument, "config.New", err)
		}
		cfg.CompPreemphasis = preset.Preemphasis
		cfg.CompPreemphasisCutHz = preset.PreemphasisCut
		cfg.ChromaPhaseNoise = preset.PhaseNoise
	}

	if err := cfg.resolve(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) resolve() error {
	switch strings.ToLower(cfg.TVStd) {
	case "ntsc", "":
		cfg.Standard = ntscStandard
	case "pal":
		cfg.Standard = palStandard
	default:
		return errs.New(errs.InvalidArgument, "config.resolve", fmt.Errorf("unknown -tvstd %q", cfg.TVStd))
	}

	if cfg.CompPhase != 0 && cfg.CompPhase != 90 && cfg.CompPhase != 180 && cfg.CompPhase != 270 {
		return errs.New(errs.InvalidArgument, "config.resolve", fmt.Errorf("-comp-phase must be 0, 90, 180, or 270, got %d", cfg.CompPhase))
	}
	if cfg.SubcarrierAmplitude < 0 || cfg.SubcarrierAmplitude > 100 {
		return errs.New(errs.InvalidArgument, "config.resolve", fmt.Errorf("-subcarrier-amp must be in 0..100, got %d", cfg.SubcarrierAmplitude))
	}
	if cfg.DelayDepth < 1 || cfg.DelayDepth > 256 {
		return errs.New(errs.InvalidArgument, "config.resolve", fmt.Errorf("-d must be in 1..256, got %d", cfg.DelayDepth))
	}
	if cfg.ChromaDropout < 0 || cfg.ChromaDropout > 10000 {
		return errs.New(errs.InvalidArgument, "config.resolve", fmt.Errorf("-chroma-dropout must be in 0..10000, got %d", cfg.ChromaDropout))
	}

	speed, err := VHSSpeedByName(strings.ToLower(cfg.VHSSpeedName))
	if err != nil {
		return errs.New(errs.InvalidArgument, "config.resolve", err)
	}
	cfg.VHSSpeed = speed

	cfg.SubcarrierAmplitudeBack = cfg.backAmplitude()

	if cfg.NoComp {
		cfg.disableAllEmulation()
	}
	return nil
}

// backAmplitude implements spec §6's "Subcarrier back-amplitude": when
// composite preemphasis is nonzero, demodulation must use a larger
// amplitude to compensate for the preemphasis boost.
func (cfg *Config) backAmplitude() int {
	if cfg.CompPreemphasis == 0 {
		return cfg.SubcarrierAmplitude
	}
	back := float64(cfg.SubcarrierAmplitude) + (50*cfg.CompPreemphasis*ChromaSubcarrierHz)/(2*cfg.CompPreemphasisCutHz)
	return int(back)
}

func (cfg *Config) disableAllEmulation() {
	cfg.CompPreemphasis = 0
	cfg.VideoNoise = 0
	cfg.ChromaNoise = 0
	cfg.ChromaPhaseNoise = 0
	cfg.ChromaDropout = 0
	cfg.VHS = false
	cfg.VHSHeadSwitching = false
	cfg.InCompositeLowpass = false
	cfg.OutCompositeLowpass = false
	cfg.Ringing = 1.0
	cfg.ColorBleedHoriz = 0
	cfg.ColorBleedVert = 0
	cfg.VHSEdgeWave = 0
	cfg.Preemphasis = false
	cfg.Deemphasis = false
	cfg.AudioHissDB = negInf
	cfg.SubcarrierAmplitudeBack = cfg.SubcarrierAmplitude
}

const negInf = -1e9 // treated as -infinity dBFS by internal/audio

type multiFlag struct{ values []string }

func (m *multiFlag) String() string { return strings.Join(m.values, ",") }
func (m *multiFlag) Set(v string) error {
	m.values = append(m.values, v)
	return nil
}
