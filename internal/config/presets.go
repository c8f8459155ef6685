package config

// Presets are named scenarios from the shrub expansion analysis.
var Presets = map[string]*Config{
	// Three shrubs each holding most of the light reaching them; all
	// coexist at equilibrium.
	"graded": {
		Constants: ConstantsConfig{A: 1.0, R: 0.1, B: 1.0, Beta: 5.0, M: 0.01, K: 2.0},
		Traits:    TraitsConfig{Heights: []float64{2.72, 2.46, 2.22}},
		Sim:       SimConfig{Dt: DefaultDt, Duration: 3000, Tolerance: DefaultTolerance, MaxDt: DefaultMaxDt, InitialDensity: DefaultDensity},
	},
	// A single shade-tolerant canopy that closes over everything.
	"monoculture": {
		Constants: ConstantsConfig{A: 1.0, R: 0.1, B: 1.0, Beta: 5.0, M: 0.01, K: 2.0},
		Traits:    TraitsConfig{Heights: []float64{1.8, 1.2, 0.7}},
		Sim:       SimConfig{Dt: DefaultDt, Duration: 1000, Tolerance: DefaultTolerance, MaxDt: DefaultMaxDt, InitialDensity: DefaultDensity},
	},
	// Direct light-requirement parameterization, two competitors.
	"two-shrub": {
		Constants: ConstantsConfig{A: 1.0, R: 0.1, B: 1.0, Beta: 5.0, M: 0.01, K: 2.0},
		Traits:    TraitsConfig{LightRequirements: []float64{0.3, 0.1}},
		Sim:       SimConfig{Dt: DefaultDt, Duration: 1000, Tolerance: DefaultTolerance, MaxDt: DefaultMaxDt, InitialDensity: DefaultDensity},
	},
}

func GetPreset(name string) *Config {
	return Presets[name]
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}
