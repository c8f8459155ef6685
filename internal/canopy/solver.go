// Package canopy computes per-species equilibrium ramet densities under
// Beer's-law light sharing. Species are processed tallest-first; each
// solve is a single-variable root find against the light left over by
// every taller species.
package canopy

import (
	"fmt"
	"math"

	"github.com/rubytessa/shrubification-model/internal/dynamics"
	"github.com/rubytessa/shrubification-model/internal/ramet"
	"github.com/rubytessa/shrubification-model/internal/roots"
)

// FeasibleTol is the density below which a species is reported as
// absent: densities that round to zero at three decimal places.
const FeasibleTol = 0.0005

// Layer is the solved equilibrium state of one species' canopy layer.
type Layer struct {
	SpeciesID     int
	Height        float64
	U             float64
	LightAbove    float64
	Density       float64
	LightBelow    float64
	Feasible      bool
	LightAcquired float64
	// LightPerRamet is +Inf when the density is zero; aggregation over
	// layers must skip infeasible rows rather than average it.
	LightPerRamet float64
}

// Table is the solver output, one layer per species in canopy order.
type Table struct {
	Layers []Layer
	// Warnings records per-species bracket failures that were degraded
	// to an infeasible layer instead of aborting the solve.
	Warnings []error
}

// Densities returns the equilibrium densities in canopy order.
func (t *Table) Densities() dynamics.State {
	ys := make(dynamics.State, len(t.Layers))
	for i, l := range t.Layers {
		ys[i] = l.Density
	}
	return ys
}

// FeasibleCount returns how many layers sustain a nonzero density.
func (t *Table) FeasibleCount() int {
	n := 0
	for _, l := range t.Layers {
		if l.Feasible {
			n++
		}
	}
	return n
}

type Solver struct {
	rootOpts roots.Options
}

func NewSolver() *Solver {
	return &Solver{rootOpts: roots.Options{Tol: roots.DefaultTol, MaxIter: roots.DefaultMaxIter}}
}

// Solve folds over the community tallest-first, carrying the light
// remaining below each layer as the light available to the next. A
// bracket failure for one species degrades that species to density 0
// and continues; shorter species then see an unattenuated layer.
func (s *Solver) Solve(c *ramet.Community) (*Table, error) {
	if c == nil || c.Len() == 0 {
		return nil, fmt.Errorf("%w: empty community", dynamics.ErrInvalidParameter)
	}
	if c.LightAboveTotal <= 0 {
		return nil, fmt.Errorf("%w: incident light must be positive, got %g",
			dynamics.ErrInvalidParameter, c.LightAboveTotal)
	}

	table := &Table{Layers: make([]Layer, c.Len())}
	lightAbove := c.LightAboveTotal

	for i, sp := range c.Species {
		if sp.LightCapture <= 0 || sp.LightRequirement <= 0 {
			return nil, fmt.Errorf("%w: species %d has k=%g, u=%g",
				dynamics.ErrInvalidParameter, sp.ID, sp.LightCapture, sp.LightRequirement)
		}

		density, err := s.solveLayer(lightAbove, sp.LightRequirement, sp.LightCapture)
		if err != nil {
			table.Warnings = append(table.Warnings,
				fmt.Errorf("species %d (h=%.3f): %w", sp.ID, sp.Height, err))
			density = 0
		}

		lightBelow := lightAbove * math.Exp(-sp.LightCapture*density)
		layer := Layer{
			SpeciesID:     sp.ID,
			Height:        sp.Height,
			U:             sp.LightRequirement,
			LightAbove:    lightAbove,
			Density:       density,
			LightBelow:    lightBelow,
			Feasible:      density >= FeasibleTol,
			LightAcquired: lightAbove - sp.LightRequirement,
		}
		if density > 0 {
			layer.LightPerRamet = lightAbove / density
		} else {
			layer.LightPerRamet = math.Inf(1)
		}
		table.Layers[i] = layer

		lightAbove = lightBelow
	}

	return table, nil
}

// solveLayer finds the positive root of the per-capita light balance
//
//	f(x) = L*(1 - exp(-k*x)) - k*u*x
//
// inside the analytic bracket [ln(L/u)/k, L/(k*u)]. The bracket is a
// tangent-line bound on the saturation curve: f is positive at the
// lower bound and negative at the upper, so a sign change is
// guaranteed whenever u < L.
func (s *Solver) solveLayer(light, u, k float64) (float64, error) {
	// Insufficient light: no positive root exists, and the lower bound
	// formula would be non-positive anyway.
	if u >= light {
		return 0, nil
	}

	f := func(x float64) float64 {
		return light*(1-math.Exp(-k*x)) - k*u*x
	}
	lo := math.Log(light/u) / k
	hi := light / (k * u)

	x, err := roots.Brent(f, lo, hi, s.rootOpts)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", dynamics.ErrRootBracket, err)
	}
	if x < 0 {
		x = 0
	}
	return x, nil
}
