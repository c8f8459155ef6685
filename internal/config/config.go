package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDt         = 0.01
	DefaultDuration   = 1000.0
	DefaultTolerance  = 1e-8
	DefaultMaxDt      = 10.0
	DefaultDensity    = 0.05
	DefaultIterations = 1000
	DefaultSpecies    = 10
	DefaultBins       = 20
)

type Config struct {
	Constants  ConstantsConfig  `yaml:"constants"`
	Traits     TraitsConfig     `yaml:"traits"`
	Sim        SimConfig        `yaml:"sim"`
	MonteCarlo MonteCarloConfig `yaml:"montecarlo"`
}

// ConstantsConfig holds the species-generic physiological constants.
type ConstantsConfig struct {
	A    float64 `yaml:"a"`
	R    float64 `yaml:"r"`
	B    float64 `yaml:"b"`
	Beta float64 `yaml:"beta"`
	M    float64 `yaml:"m"`
	K    float64 `yaml:"k"`
	// CaptureOverrides replaces the shared k per species when set; the
	// length must match the trait vector.
	CaptureOverrides []float64 `yaml:"capture_overrides"`
}

// TraitsConfig selects the community: either heights or light
// requirements, not both.
type TraitsConfig struct {
	Heights           []float64 `yaml:"heights"`
	LightRequirements []float64 `yaml:"light_requirements"`
}

type SimConfig struct {
	Dt             float64 `yaml:"dt"`
	Duration       float64 `yaml:"duration"`
	Tolerance      float64 `yaml:"tolerance"`
	MaxDt          float64 `yaml:"max_dt"`
	InitialDensity float64 `yaml:"initial_density"`
}

type MonteCarloConfig struct {
	Iterations int     `yaml:"iterations"`
	Species    int     `yaml:"species"`
	Axis       string  `yaml:"axis"`
	Min        float64 `yaml:"min"`
	Max        float64 `yaml:"max"`
	Bins       int     `yaml:"bins"`
	Seed       int64   `yaml:"seed"`
	Workers    int     `yaml:"workers"`
}

func DefaultConfig() *Config {
	return &Config{
		Constants: ConstantsConfig{A: 1.0, R: 0.1, B: 1.0, Beta: 5.0, M: 0.01, K: 2.0},
		Traits:    TraitsConfig{Heights: []float64{2.72, 2.46, 2.22}},
		Sim: SimConfig{
			Dt:             DefaultDt,
			Duration:       DefaultDuration,
			Tolerance:      DefaultTolerance,
			MaxDt:          DefaultMaxDt,
			InitialDensity: DefaultDensity,
		},
		MonteCarlo: MonteCarloConfig{
			Iterations: DefaultIterations,
			Species:    DefaultSpecies,
			Axis:       "height",
			Min:        0.8,
			Max:        2.7,
			Bins:       DefaultBins,
			Seed:       1,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
