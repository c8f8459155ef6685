package growth

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/rubytessa/shrubification-model/internal/canopy"
	"github.com/rubytessa/shrubification-model/internal/dynamics"
	"github.com/rubytessa/shrubification-model/internal/integrators"
	"github.com/rubytessa/shrubification-model/internal/ramet"
)

func TestRametSystem_Derive(t *testing.T) {
	c := &ramet.Community{
		LightAboveTotal: 1.0,
		Species: []ramet.Species{
			{ID: 1, Height: 2, Fecundity: 0.5, Mortality: 0.1, LightCapture: 2, LightRequirement: 0.1},
			{ID: 2, Height: 1, Fecundity: 1.0, Mortality: 0.2, LightCapture: 2, LightRequirement: 0.1},
		},
	}
	sys := NewRametSystem(c)

	if sys.Dim() != 2 {
		t.Fatalf("Dim = %d, want 2", sys.Dim())
	}

	y := dynamics.State{0.3, 0.4}
	dy := sys.Derive(y, 0)

	// Tallest species sees full light: no shading factor.
	want0 := 0.5*(1-math.Exp(-2*0.3)) - 0.1*0.3
	if math.Abs(dy[0]-want0) > 1e-12 {
		t.Errorf("dy[0] = %.12f, want %.12f", dy[0], want0)
	}

	// Second species is shaded by the first's density.
	want1 := 1.0*math.Exp(-2*0.3)*(1-math.Exp(-2*0.4)) - 0.2*0.4
	if math.Abs(dy[1]-want1) > 1e-12 {
		t.Errorf("dy[1] = %.12f, want %.12f", dy[1], want1)
	}
}

func TestRametSystem_NegativeUndershoot(t *testing.T) {
	c := &ramet.Community{
		LightAboveTotal: 1.0,
		Species: []ramet.Species{
			{ID: 1, Height: 1, Fecundity: 0.5, Mortality: 0.1, LightCapture: 2, LightRequirement: 0.1},
		},
	}
	sys := NewRametSystem(c)

	// A small negative density must produce a positive derivative
	// (pure loss-term pullback), not growth from a negative canopy.
	dy := sys.Derive(dynamics.State{-1e-9}, 0)
	if dy[0] <= 0 {
		t.Errorf("expected pullback toward the axis, got dy = %g", dy[0])
	}
}

// feasibleCommunity returns a 3-species community where every species
// holds roughly 80 percent of the light reaching it, leaving all three
// feasible with a wide margin.
func feasibleCommunity(t *testing.T) *ramet.Community {
	t.Helper()
	d, err := ramet.NewDeriver(ramet.DefaultConstants())
	if err != nil {
		t.Fatalf("NewDeriver: %v", err)
	}
	c, err := d.FromHeights([]float64{2.72, 2.46, 2.22})
	if err != nil {
		t.Fatalf("FromHeights: %v", err)
	}
	return c
}

// runToFixedPoint integrates the community ODE from a sparse start and
// returns the final state.
func runToFixedPoint(t *testing.T, c *ramet.Community, duration float64) dynamics.State {
	t.Helper()
	sys := NewRametSystem(c)
	sim := dynamics.New(sys, integrators.NewRK45())

	cfg := dynamics.DefaultConfig()
	cfg.Dt = 0.01
	cfg.Duration = duration
	cfg.Tolerance = 1e-8
	cfg.MaxDt = 10.0

	result, err := sim.Run(context.Background(), sys.DefaultState(), cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return result.Final()
}

func TestCrossCheck_SingleSpecies(t *testing.T) {
	d, _ := ramet.NewDeriver(ramet.DefaultConstants())
	c, err := d.FromHeights([]float64{2.0})
	if err != nil {
		t.Fatalf("FromHeights: %v", err)
	}

	table, err := canopy.NewSolver().Solve(c)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if !table.Layers[0].Feasible {
		t.Fatal("fixture species should be feasible")
	}

	final := runToFixedPoint(t, c, 3000)
	want := table.Layers[0].Density
	if rel := math.Abs(final[0]-want) / want; rel > 0.01 {
		t.Errorf("trajectory limit %.6f vs equilibrium %.6f (rel %.4f)", final[0], want, rel)
	}
}

func TestCrossCheck_ThreeSpecies(t *testing.T) {
	c := feasibleCommunity(t)

	table, err := canopy.NewSolver().Solve(c)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if table.FeasibleCount() != 3 {
		t.Fatalf("fixture should be fully feasible, got %d/3", table.FeasibleCount())
	}

	final := runToFixedPoint(t, c, 3000)
	for i, l := range table.Layers {
		if rel := math.Abs(final[i]-l.Density) / l.Density; rel > 0.01 {
			t.Errorf("species %d: trajectory %.6f vs equilibrium %.6f (rel %.4f)",
				l.SpeciesID, final[i], l.Density, rel)
		}
	}
}

func TestCrossCheck_ThirtySpecies(t *testing.T) {
	if testing.Short() {
		t.Skip("long integration")
	}

	rng := rand.New(rand.NewSource(42))
	heights := make([]float64, 30)
	for i := range heights {
		heights[i] = 0.8 + 1.9*rng.Float64()
	}

	d, _ := ramet.NewDeriver(ramet.DefaultConstants())
	c, err := d.FromHeights(heights)
	if err != nil {
		t.Fatalf("FromHeights: %v", err)
	}

	table, err := canopy.NewSolver().Solve(c)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}

	final := runToFixedPoint(t, c, 10000)

	checked := 0
	for i, l := range table.Layers {
		// Species sitting close to their light margin equilibrate on
		// diverging timescales; only well-margined ones are asserted.
		if math.Abs(l.LightAbove-l.U) < 0.02 {
			continue
		}
		if l.Feasible {
			diff := math.Abs(final[i] - l.Density)
			if diff/l.Density > 0.02 && diff > 1e-3 {
				t.Errorf("species %d: trajectory %.6f vs equilibrium %.6f",
					l.SpeciesID, final[i], l.Density)
			}
		} else if final[i] > 0.02 {
			t.Errorf("species %d: excluded at equilibrium but trajectory holds %.6f",
				l.SpeciesID, final[i])
		}
		checked++
	}
	if checked < 10 {
		t.Errorf("fixture too marginal: only %d of 30 species asserted", checked)
	}
}

func TestCrossCheck_TrajectoryStaysNonNegative(t *testing.T) {
	c := feasibleCommunity(t)
	sys := NewRametSystem(c)
	sim := dynamics.New(sys, integrators.NewRK45())

	cfg := dynamics.DefaultConfig()
	cfg.Duration = 500
	cfg.MaxDt = 5.0

	result, err := sim.Run(context.Background(), sys.DefaultState(), cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for step, y := range result.States {
		if y.Min() < -cfg.NegTol {
			t.Fatalf("negative density %g at step %d", y.Min(), step)
		}
	}
}
