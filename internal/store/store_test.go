package store

import (
	"bytes"
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rubytessa/shrubification-model/internal/canopy"
	"github.com/rubytessa/shrubification-model/internal/dynamics"
	"github.com/rubytessa/shrubification-model/internal/montecarlo"
)

func sampleTable() *canopy.Table {
	return &canopy.Table{
		Layers: []canopy.Layer{
			{SpeciesID: 1, Height: 2.5, U: 0.3, LightAbove: 1.0, Density: 0.8,
				LightBelow: 0.2, Feasible: true, LightAcquired: 0.7, LightPerRamet: 1.25},
			{SpeciesID: 2, Height: 1.5, U: 0.4, LightAbove: 0.2, Density: 0,
				LightBelow: 0.2, Feasible: false, LightAcquired: -0.2, LightPerRamet: math.Inf(1)},
		},
	}
}

func TestStore_SaveEquilibrium(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	runID, err := st.SaveEquilibrium(sampleTable())
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if runID == "" {
		t.Fatal("expected non-empty run id")
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != runID {
		t.Fatalf("expected run %s in listing, got %+v", runID, runs)
	}
	if runs[0].Species != 2 {
		t.Errorf("metadata species = %d, want 2", runs[0].Species)
	}
}

func TestStore_EquilibriumCSVColumns(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}

	runID, err := st.SaveEquilibrium(sampleTable())
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, runID, "equilibrium.csv"))
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}

	wantHeader := "species_id,light_above,u,equilibrium_density,light_below,feasible,light_acquired,light_per_ramet"
	if got := strings.Join(records[0], ","); got != wantHeader {
		t.Errorf("header = %s, want %s", got, wantHeader)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d records", len(records))
	}
	if records[2][5] != "false" {
		t.Errorf("infeasible row feasible column = %s", records[2][5])
	}
	if records[2][7] != "+Inf" {
		t.Errorf("zero-density light_per_ramet = %s, want +Inf", records[2][7])
	}
}

func TestStore_SaveTrajectory(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}

	result := &dynamics.Result{
		States: []dynamics.State{{0.05, 0.05}, {0.07, 0.06}},
		Times:  []float64{0, 0.5},
	}
	runID, err := st.SaveTrajectory(result, 42, 0.5)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, runID, "trajectory.csv"))
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if strings.Join(records[0], ",") != "time,species_1,species_2" {
		t.Errorf("header = %v", records[0])
	}
	if len(records) != 3 {
		t.Errorf("expected header + 2 rows, got %d", len(records))
	}
}

func TestStore_SaveMonteCarlo(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}

	result := &montecarlo.Result{
		Draws: []montecarlo.Draw{
			{Iteration: 0, SpeciesID: 1, Height: 2.0, U: 0.2, Density: 0.5,
				LightAbove: 1.0, LightBelow: 0.4, Feasible: true},
		},
		Bins: []montecarlo.BinStat{
			{Lo: 0, Hi: 1, Center: 0.5, Count: 1, MeanDensity: 0.5},
			{Lo: 1, Hi: 2, Center: 1.5, Count: 0, MeanDensity: math.NaN()},
		},
	}

	runID, err := st.SaveMonteCarlo(result, 7)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, runID, "bins.csv"))
	if err != nil {
		t.Fatalf("open bins: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read bins: %v", err)
	}
	if records[2][4] != "NaN" {
		t.Errorf("empty bin serialized as %s, want NaN", records[2][4])
	}
}

func TestExportEquilibriumJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportEquilibriumJSON(&buf, sampleTable(), 1.0); err != nil {
		t.Fatalf("export: %v", err)
	}

	out := buf.String()
	for _, want := range []string{`"species_id": 1`, `"light_above_total": 1`, `"light_per_ramet": "+Inf"`} {
		if !strings.Contains(out, want) {
			t.Errorf("export missing %s:\n%s", want, out)
		}
	}
}

func TestStore_ListEmpty(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "never-created"))
	runs, err := st.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected empty listing, got %d", len(runs))
	}
}
