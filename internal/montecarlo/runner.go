// Package montecarlo drives batch exploration of the canopy model:
// repeated equilibrium solves over randomly drawn species traits,
// aggregated into binned abundance summaries.
package montecarlo

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"sync"

	"github.com/rubytessa/shrubification-model/internal/canopy"
	"github.com/rubytessa/shrubification-model/internal/dynamics"
	"github.com/rubytessa/shrubification-model/internal/ramet"
)

// TraitAxis selects which trait is drawn at random per species.
type TraitAxis string

const (
	AxisHeight           TraitAxis = "height"
	AxisLightRequirement TraitAxis = "u"
)

type Config struct {
	Iterations int
	Species    int
	Axis       TraitAxis
	Min, Max   float64
	Bins       int
	Seed       int64
	Workers    int
	Constants  ramet.Constants
}

func DefaultConfig() Config {
	return Config{
		Iterations: 1000,
		Species:    10,
		Axis:       AxisHeight,
		Min:        0.8,
		Max:        2.7,
		Bins:       20,
		Seed:       1,
		Workers:    runtime.NumCPU(),
		Constants:  ramet.DefaultConstants(),
	}
}

// Draw is one species' equilibrium outcome from one iteration.
type Draw struct {
	Iteration  int
	SpeciesID  int
	Height     float64
	U          float64
	Density    float64
	LightAbove float64
	LightBelow float64
	Feasible   bool
}

type Result struct {
	Draws []Draw
	Bins  []BinStat
	// BracketFailures counts species-level solves that degraded to
	// infeasible because no sign-changing interval was found.
	BracketFailures int
}

type Runner struct {
	cfg     Config
	deriver *ramet.Deriver
	solver  *canopy.Solver
}

func NewRunner(cfg Config) (*Runner, error) {
	if cfg.Iterations <= 0 || cfg.Species <= 0 || cfg.Bins <= 0 {
		return nil, fmt.Errorf("%w: iterations, species and bins must be positive",
			dynamics.ErrInvalidParameter)
	}
	if cfg.Max <= cfg.Min {
		return nil, fmt.Errorf("%w: trait range [%g, %g) is empty",
			dynamics.ErrInvalidParameter, cfg.Min, cfg.Max)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}

	d, err := ramet.NewDeriver(cfg.Constants)
	if err != nil {
		return nil, err
	}

	switch cfg.Axis {
	case AxisHeight:
		if cfg.Min <= 0 {
			return nil, fmt.Errorf("%w: heights must be positive", dynamics.ErrInvalidParameter)
		}
	case AxisLightRequirement:
		if cfg.Min <= cfg.Constants.UMin() {
			return nil, fmt.Errorf("%w: u range must stay above u_min=%g",
				dynamics.ErrInfeasibleTrait, cfg.Constants.UMin())
		}
		if cfg.Max > 1 {
			return nil, fmt.Errorf("%w: u range must stay within (0,1]", dynamics.ErrInvalidParameter)
		}
	default:
		return nil, fmt.Errorf("%w: unknown trait axis %q", dynamics.ErrInvalidParameter, cfg.Axis)
	}

	return &Runner{cfg: cfg, deriver: d, solver: canopy.NewSolver()}, nil
}

// Run executes all iterations, parallelized across a worker pool.
// Iterations are statistically independent and write to disjoint
// result slots, so the merge needs no synchronization; a fixed seed
// yields identical output regardless of worker count.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	iterDraws := make([][]Draw, r.cfg.Iterations)
	iterFailures := make([]int, r.cfg.Iterations)
	iterErrs := make([]error, r.cfg.Iterations)

	workers := r.cfg.Workers
	if workers > r.cfg.Iterations {
		workers = r.cfg.Iterations
	}
	chunk := (r.cfg.Iterations + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > r.cfg.Iterations {
			end = r.cfg.Iterations
		}
		if start >= end {
			break
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					iterErrs[i] = ctx.Err()
					return
				default:
				}
				iterDraws[i], iterFailures[i], iterErrs[i] = r.runIteration(i)
			}
		}(start, end)
	}
	wg.Wait()

	result := &Result{Draws: make([]Draw, 0, r.cfg.Iterations*r.cfg.Species)}
	for i := range iterDraws {
		if iterErrs[i] != nil {
			return nil, fmt.Errorf("iteration %d: %w", i, iterErrs[i])
		}
		result.Draws = append(result.Draws, iterDraws[i]...)
		result.BracketFailures += iterFailures[i]
	}

	result.Bins = r.bin(result.Draws)
	return result, nil
}

// runIteration owns its own RNG and parameter vectors; nothing is
// shared with other iterations.
func (r *Runner) runIteration(iter int) ([]Draw, int, error) {
	rng := rand.New(rand.NewSource(r.cfg.Seed + int64(iter)))

	traits := make([]float64, r.cfg.Species)
	for i := range traits {
		traits[i] = r.cfg.Min + (r.cfg.Max-r.cfg.Min)*rng.Float64()
	}

	var community *ramet.Community
	var err error
	switch r.cfg.Axis {
	case AxisHeight:
		community, err = r.deriver.FromHeights(traits)
	case AxisLightRequirement:
		community, err = r.deriver.FromLightRequirements(traits)
	}
	if err != nil {
		return nil, 0, err
	}

	table, err := r.solver.Solve(community)
	if err != nil {
		return nil, 0, err
	}

	draws := make([]Draw, len(table.Layers))
	for i, l := range table.Layers {
		draws[i] = Draw{
			Iteration:  iter,
			SpeciesID:  l.SpeciesID,
			Height:     l.Height,
			U:          l.U,
			Density:    l.Density,
			LightAbove: l.LightAbove,
			LightBelow: l.LightBelow,
			Feasible:   l.Feasible,
		}
	}
	return draws, len(table.Warnings), nil
}
