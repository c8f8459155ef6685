// Package store persists run outputs: a directory per run holding
// metadata.json plus the CSV tables consumed by downstream plotting and
// report tooling.
package store

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rubytessa/shrubification-model/internal/canopy"
	"github.com/rubytessa/shrubification-model/internal/dynamics"
	"github.com/rubytessa/shrubification-model/internal/montecarlo"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	Species   int       `json:"species"`
	Seed      int64     `json:"seed,omitempty"`
	Duration  float64   `json:"duration,omitempty"`
	Warnings  int       `json:"warnings,omitempty"`
}

func (s *Store) newRun(kind string) (string, string, error) {
	runID := fmt.Sprintf("%s_%d", kind, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", "", err
	}
	return runID, runDir, nil
}

func (s *Store) writeMeta(runDir string, meta RunMetadata) error {
	f, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

// SaveEquilibrium writes the solved canopy table as equilibrium.csv
// with one row per species in canopy order.
func (s *Store) SaveEquilibrium(table *canopy.Table) (string, error) {
	runID, runDir, err := s.newRun("equilibrium")
	if err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Kind:      "equilibrium",
		Timestamp: time.Now(),
		Species:   len(table.Layers),
		Warnings:  len(table.Warnings),
	}
	if err := s.writeMeta(runDir, meta); err != nil {
		return "", err
	}

	f, err := os.Create(filepath.Join(runDir, "equilibrium.csv"))
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{"species_id", "light_above", "u", "equilibrium_density",
		"light_below", "feasible", "light_acquired", "light_per_ramet"}
	if err := w.Write(header); err != nil {
		return "", err
	}

	for _, l := range table.Layers {
		row := []string{
			strconv.Itoa(l.SpeciesID),
			formatFloat(l.LightAbove),
			formatFloat(l.U),
			formatFloat(l.Density),
			formatFloat(l.LightBelow),
			strconv.FormatBool(l.Feasible),
			formatFloat(l.LightAcquired),
			formatFloat(l.LightPerRamet),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return runID, w.Error()
}

// SaveTrajectory writes an integration result as trajectory.csv with
// columns time, species_1..species_S.
func (s *Store) SaveTrajectory(result *dynamics.Result, seed int64, duration float64) (string, error) {
	runID, runDir, err := s.newRun("trajectory")
	if err != nil {
		return "", err
	}

	species := 0
	if len(result.States) > 0 {
		species = len(result.States[0])
	}
	meta := RunMetadata{
		ID:        runID,
		Kind:      "trajectory",
		Timestamp: time.Now(),
		Species:   species,
		Seed:      seed,
		Duration:  duration,
		Warnings:  len(result.Warnings),
	}
	if err := s.writeMeta(runDir, meta); err != nil {
		return "", err
	}

	f, err := os.Create(filepath.Join(runDir, "trajectory.csv"))
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{"time"}
	for i := 0; i < species; i++ {
		header = append(header, fmt.Sprintf("species_%d", i+1))
	}
	if err := w.Write(header); err != nil {
		return "", err
	}

	for i := range result.States {
		row := make([]string, 0, species+1)
		row = append(row, formatFloat(result.Times[i]))
		for _, v := range result.States[i] {
			row = append(row, formatFloat(v))
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return runID, w.Error()
}

// SaveMonteCarlo writes draws.csv (every species row of every
// iteration) and bins.csv (the binned abundance summary). Empty bins
// keep their NaN mean so consumers can tell sampling gaps from zeros.
func (s *Store) SaveMonteCarlo(result *montecarlo.Result, seed int64) (string, error) {
	runID, runDir, err := s.newRun("montecarlo")
	if err != nil {
		return "", err
	}

	species := 0
	if len(result.Draws) > 0 {
		species = result.Draws[len(result.Draws)-1].SpeciesID
	}
	meta := RunMetadata{
		ID:        runID,
		Kind:      "montecarlo",
		Timestamp: time.Now(),
		Species:   species,
		Seed:      seed,
		Warnings:  result.BracketFailures,
	}
	if err := s.writeMeta(runDir, meta); err != nil {
		return "", err
	}

	df, err := os.Create(filepath.Join(runDir, "draws.csv"))
	if err != nil {
		return "", err
	}
	defer df.Close()

	dw := csv.NewWriter(df)
	defer dw.Flush()

	if err := dw.Write([]string{"iteration", "species_id", "height", "u",
		"equilibrium_density", "light_above", "light_below", "feasible"}); err != nil {
		return "", err
	}
	for _, d := range result.Draws {
		row := []string{
			strconv.Itoa(d.Iteration),
			strconv.Itoa(d.SpeciesID),
			formatFloat(d.Height),
			formatFloat(d.U),
			formatFloat(d.Density),
			formatFloat(d.LightAbove),
			formatFloat(d.LightBelow),
			strconv.FormatBool(d.Feasible),
		}
		if err := dw.Write(row); err != nil {
			return "", err
		}
	}
	dw.Flush()
	if err := dw.Error(); err != nil {
		return "", err
	}

	bf, err := os.Create(filepath.Join(runDir, "bins.csv"))
	if err != nil {
		return "", err
	}
	defer bf.Close()

	bw := csv.NewWriter(bf)
	defer bw.Flush()

	if err := bw.Write([]string{"bin_lo", "bin_hi", "bin_center", "count", "mean_density"}); err != nil {
		return "", err
	}
	for _, b := range result.Bins {
		row := []string{
			formatFloat(b.Lo),
			formatFloat(b.Hi),
			formatFloat(b.Center),
			strconv.Itoa(b.Count),
			formatFloat(b.MeanDensity),
		}
		if err := bw.Write(row); err != nil {
			return "", err
		}
	}

	return runID, bw.Error()
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "metadata.json"))
		if err != nil {
			continue
		}

		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}

	return runs, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 10, 64)
}
