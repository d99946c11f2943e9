package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// VHSSpeed holds the three tape-speed-dependent cutoffs from spec §4.4's
// table.
type VHSSpeed struct {
	Name        string  `yaml:"name"`
	LumaCutHz   float64 `yaml:"luma_cut_hz"`
	ChromaCutHz float64 `yaml:"chroma_cut_hz"`
	ChromaDelay int     `yaml:"chroma_delay"`
}

// UnmarshalYAML lets a VHS speed be written as a bare preset name ("sp",
// "lp", "ep") in an external presets file, falling back to a full struct
// if explicit cutoffs are given (grounded: madpsy-ka9q_ubersdr's
// DecoderMode enum marshaling).
func (v *VHSSpeed) UnmarshalYAML(node *yaml.Node) error {
	var name string
	if err := node.Decode(&name); err == nil {
		speed, err := VHSSpeedByName(name)
		if err != nil {
			return err
		}
		*v = speed
		return nil
	}
	type raw VHSSpeed
	var r raw
	if err := node.Decode(&r); err != nil {
		return err
	}
	*v = VHSSpeed(r)
	return nil
}

var vhsSpeeds = map[string]VHSSpeed{
	"sp": {Name: "sp", LumaCutHz: 2_400_000, ChromaCutHz: 320_000, ChromaDelay: 9},
	"lp": {Name: "lp", LumaCutHz: 1_900_000, ChromaCutHz: 300_000, ChromaDelay: 12},
	"ep": {Name: "ep", LumaCutHz: 1_400_000, ChromaCutHz: 280_000, ChromaDelay: 14},
}

// VHSSpeedByName resolves one of "sp", "lp", "ep" to its cutoff table.
func VHSSpeedByName(name string) (VHSSpeed, error) {
	s, ok := vhsSpeeds[name]
	if !ok {
		return VHSSpeed{}, fmt.Errorf("config: unknown VHS speed %q (want sp, lp, or ep)", name)
	}
	return s, nil
}

// CATVPreset holds one preemphasis preset (catv1..catv4) selected with
// -comp-catv.
type CATVPreset struct {
	Preemphasis    float64 `yaml:"preemphasis"`
	PreemphasisCut float64 `yaml:"preemphasis_cut_hz"`
	PhaseNoise     int     `yaml:"phase_noise"`
}

// ChromaSubcarrierHz is the NTSC color subcarrier rate spec §4.3 builds
// every cutoff around: 315/88 MHz * 4.
const ChromaSubcarrierHz = 315_000_000.0 / 88.0 * 4.0

var catvPresets = map[string]CATVPreset{
	"catv1": {Preemphasis: 7, PreemphasisCut: 315_000_000.0 / 88.0, PhaseNoise: 2},
	"catv2": {Preemphasis: 15, PreemphasisCut: 315_000_000.0 / 88.0, PhaseNoise: 4},
	"catv3": {Preemphasis: 25, PreemphasisCut: 2 * 315_000_000.0 / 88.0, PhaseNoise: 6},
	"catv4": {Preemphasis: 40, PreemphasisCut: 4 * 315_000_000.0 / 88.0, PhaseNoise: 6},
}

// CATVPresetByName resolves one of "catv1".."catv4" to its values.
func CATVPresetByName(name string) (CATVPreset, error) {
	p, ok := catvPresets[name]
	if !ok {
		return CATVPreset{}, fmt.Errorf("config: unknown CATV preset %q", name)
	}
	return p, nil
}

// PresetTable is the full set of overridable presets, loadable from an
// external YAML file with -presets <path> so operators can tune tape
// speeds or CATV curves without a rebuild.
type PresetTable struct {
	VHSSpeeds   map[string]VHSSpeed   `yaml:"vhs_speeds"`
	CATVPresets map[string]CATVPreset `yaml:"catv_presets"`
}

// LoadPresets reads a YAML preset file and merges it over the built-in
// defaults — entries present in the file override the default of the
// same name, unlisted defaults are kept.
func LoadPresets(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read presets file: %w", err)
	}
	var table PresetTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return fmt.Errorf("config: parse presets file: %w", err)
	}
	for name, speed := range table.VHSSpeeds {
		speed.Name = name
		vhsSpeeds[name] = speed
	}
	for name, preset := range table.CATVPresets {
		catvPresets[name] = preset
	}
	return nil
}
