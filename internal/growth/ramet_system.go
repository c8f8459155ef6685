// Package growth implements the continuous-time ramet dynamics: the
// ODE counterpart of the canopy equilibrium model, used to validate the
// solver's fixed point and to visualize transients.
package growth

import (
	"math"

	"github.com/rubytessa/shrubification-model/internal/dynamics"
	"github.com/rubytessa/shrubification-model/internal/ramet"
)

// RametSystem is the coupled growth ODE over a tallest-first community:
//
//	dy_i/dt = L0 * f_i * exp(-k_i * sum(y_1..y_{i-1})) * (1 - exp(-k_i*y_i)) - m_i * y_i
//
// The exponential-sum factor is the light reaching species i's canopy,
// the live analogue of the solver's precomputed light_above.
type RametSystem struct {
	community *ramet.Community
}

func NewRametSystem(c *ramet.Community) *RametSystem {
	return &RametSystem{community: c}
}

func (r *RametSystem) Dim() int { return r.community.Len() }

func (r *RametSystem) Derive(y dynamics.State, t float64) dynamics.State {
	dy := make(dynamics.State, len(y))
	l0 := r.community.LightAboveTotal

	taller := 0.0
	for i, sp := range r.community.Species {
		yi := y[i]
		if yi < 0 {
			// Transient undershoot from the stepper; the growth term
			// is evaluated at zero, the loss term keeps the sign so
			// the state is pulled back toward the axis.
			yi = 0
		}
		shading := math.Exp(-sp.LightCapture * taller)
		dy[i] = l0*sp.Fecundity*shading*(1-math.Exp(-sp.LightCapture*yi)) - sp.Mortality*y[i]
		taller += yi
	}
	return dy
}

// DefaultState is the conventional sparse-establishment start: a small
// positive density per species. Densities cannot begin at exactly zero
// and later grow under this continuous approximation.
func (r *RametSystem) DefaultState() dynamics.State {
	y0 := make(dynamics.State, r.community.Len())
	for i := range y0 {
		y0[i] = 0.05
	}
	return y0
}

func (r *RametSystem) GetParams() map[string]float64 {
	return map[string]float64{
		"species":     float64(r.community.Len()),
		"light_total": r.community.LightAboveTotal,
	}
}
