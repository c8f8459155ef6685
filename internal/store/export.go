package store

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rubytessa/shrubification-model/internal/canopy"
	"github.com/rubytessa/shrubification-model/internal/dynamics"
)

// EquilibriumExport is the JSON shape of a solved canopy table.
type EquilibriumExport struct {
	Species         int              `json:"species"`
	LightAboveTotal float64          `json:"light_above_total"`
	Layers          []EquilibriumRow `json:"layers"`
	Warnings        []string         `json:"warnings,omitempty"`
}

type EquilibriumRow struct {
	SpeciesID     int     `json:"species_id"`
	Height        float64 `json:"height"`
	U             float64 `json:"u"`
	LightAbove    float64 `json:"light_above"`
	Density       float64 `json:"equilibrium_density"`
	LightBelow    float64 `json:"light_below"`
	Feasible      bool    `json:"feasible"`
	LightAcquired float64 `json:"light_acquired"`
	// LightPerRamet is serialized as a string because it is +Inf for
	// absent species, which JSON numbers cannot carry.
	LightPerRamet string `json:"light_per_ramet"`
}

func ExportEquilibriumJSON(w io.Writer, table *canopy.Table, lightTotal float64) error {
	data := EquilibriumExport{
		Species:         len(table.Layers),
		LightAboveTotal: lightTotal,
		Layers:          make([]EquilibriumRow, len(table.Layers)),
	}
	for _, warn := range table.Warnings {
		data.Warnings = append(data.Warnings, warn.Error())
	}
	for i, l := range table.Layers {
		data.Layers[i] = EquilibriumRow{
			SpeciesID:     l.SpeciesID,
			Height:        l.Height,
			U:             l.U,
			LightAbove:    l.LightAbove,
			Density:       l.Density,
			LightBelow:    l.LightBelow,
			Feasible:      l.Feasible,
			LightAcquired: l.LightAcquired,
			LightPerRamet: formatFloat(l.LightPerRamet),
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// TrajectoryExport is the JSON shape of an integration run.
type TrajectoryExport struct {
	Species    int         `json:"species"`
	Steps      int         `json:"steps"`
	Times      []float64   `json:"times"`
	Densities  [][]float64 `json:"densities"`
	StepsTaken int         `json:"steps_taken"`
	Warnings   []string    `json:"warnings,omitempty"`
}

func ExportTrajectoryJSON(w io.Writer, result *dynamics.Result) error {
	species := 0
	if len(result.States) > 0 {
		species = len(result.States[0])
	}
	data := TrajectoryExport{
		Species:    species,
		Steps:      len(result.Times),
		Times:      result.Times,
		Densities:  make([][]float64, len(result.States)),
		StepsTaken: result.StepsTaken,
	}
	for i, s := range result.States {
		data.Densities[i] = s
	}
	for _, warn := range result.Warnings {
		data.Warnings = append(data.Warnings, warn.Error())
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// ExportEquilibriumFile writes the JSON export to a file path, stdout
// when path is "-".
func ExportEquilibriumFile(path string, table *canopy.Table, lightTotal float64) error {
	if path == "-" {
		return ExportEquilibriumJSON(os.Stdout, table, lightTotal)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return ExportEquilibriumJSON(f, table, lightTotal)
}
