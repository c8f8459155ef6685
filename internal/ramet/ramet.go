// Package ramet defines the plant-community domain model: physiological
// constants, per-species demographic rates, and the ordered community
// consumed by the canopy solver and the growth integrator.
package ramet

import (
	"fmt"
	"sort"

	"github.com/rubytessa/shrubification-model/internal/dynamics"
)

// Constants are the species-generic physiological rates. All quantities
// are dimensionless relative rates; no units are enforced.
type Constants struct {
	A    float64 // photosynthetic rate
	R    float64 // respiration rate
	B    float64 // biomass density coefficient
	Beta float64 // allometric exponent
	M    float64 // baseline mortality
	K    float64 // light-capture coefficient, shared default
}

// DefaultConstants returns the parameterization used in the shrub
// expansion analysis.
func DefaultConstants() Constants {
	return Constants{A: 1.0, R: 0.1, B: 1.0, Beta: 5.0, M: 0.01, K: 2.0}
}

func (c Constants) Validate() error {
	for _, p := range []struct {
		name  string
		value float64
	}{
		{"a", c.A}, {"r", c.R}, {"b", c.B}, {"beta", c.Beta}, {"m", c.M}, {"k", c.K},
	} {
		if p.value <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %g", dynamics.ErrInvalidParameter, p.name, p.value)
		}
	}
	return nil
}

// UMin is the light requirement of a species of zero height, r/(a*k).
// No finite positive height can produce a requirement at or below it.
func (c Constants) UMin() float64 {
	return c.R / (c.A * c.K)
}

// Species is one member of the ordered community.
type Species struct {
	ID               int
	Height           float64
	Biomass          float64
	Fecundity        float64
	Mortality        float64
	LightCapture     float64
	LightRequirement float64
}

// Community is a set of species sorted strictly tallest-first. The
// light seen by species i depends only on species 1..i-1, so the order
// is load-bearing for both the equilibrium solver and the ODE system.
type Community struct {
	Species         []Species
	LightAboveTotal float64
}

func (c *Community) Len() int { return len(c.Species) }

// sortTallestFirst orders species by decreasing height, stable so that
// equal heights keep input order, then reassigns IDs in canopy order.
func (c *Community) sortTallestFirst() {
	sort.SliceStable(c.Species, func(i, j int) bool {
		return c.Species[i].Height > c.Species[j].Height
	})
	for i := range c.Species {
		c.Species[i].ID = i + 1
	}
}
