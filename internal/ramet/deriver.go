package ramet

import (
	"fmt"
	"math"

	"github.com/rubytessa/shrubification-model/internal/dynamics"
)

// Deriver maps physiological constants to per-species demographic
// rates. It is a pure function of its inputs; the returned Community is
// not shared with the Deriver.
type Deriver struct {
	consts  Constants
	capture []float64
}

func NewDeriver(consts Constants) (*Deriver, error) {
	if err := consts.Validate(); err != nil {
		return nil, err
	}
	return &Deriver{consts: consts}, nil
}

// WithCapture sets per-species light-capture overrides, replacing the
// shared k. The slice length must match the trait vector passed to the
// derive call.
func (d *Deriver) WithCapture(ks []float64) *Deriver {
	d.capture = ks
	return d
}

func (d *Deriver) captureFor(i, n int) (float64, error) {
	if d.capture == nil {
		return d.consts.K, nil
	}
	if len(d.capture) != n {
		return 0, fmt.Errorf("%w: %d capture overrides for %d species",
			dynamics.ErrInvalidParameter, len(d.capture), n)
	}
	k := d.capture[i]
	if k <= 0 {
		return 0, fmt.Errorf("%w: light capture must be positive, got %g", dynamics.ErrInvalidParameter, k)
	}
	return k, nil
}

// FromHeights derives a community from canopy heights:
//
//	biomass = b*h^beta
//	fecundity = a/biomass
//	mortality = r/biomass + m
//	u = mortality / (fecundity * k)
//
// The community is returned sorted tallest-first.
func (d *Deriver) FromHeights(heights []float64) (*Community, error) {
	if len(heights) == 0 {
		return nil, fmt.Errorf("%w: no species", dynamics.ErrInvalidParameter)
	}

	c := &Community{
		Species:         make([]Species, len(heights)),
		LightAboveTotal: 1.0,
	}
	for i, h := range heights {
		if h <= 0 || math.IsNaN(h) || math.IsInf(h, 0) {
			return nil, fmt.Errorf("%w: height must be positive and finite, got %g",
				dynamics.ErrInvalidParameter, h)
		}
		k, err := d.captureFor(i, len(heights))
		if err != nil {
			return nil, err
		}
		c.Species[i] = d.fromHeight(h, k)
	}
	c.sortTallestFirst()
	return c, nil
}

// FromLightRequirements derives a community from target light
// requirements, back-calculating the height that produces each one.
// A requested u at or below UMin (or above 1) fails the whole call.
func (d *Deriver) FromLightRequirements(us []float64) (*Community, error) {
	if len(us) == 0 {
		return nil, fmt.Errorf("%w: no species", dynamics.ErrInvalidParameter)
	}

	uMin := d.consts.UMin()
	c := &Community{
		Species:         make([]Species, len(us)),
		LightAboveTotal: 1.0,
	}
	for i, u := range us {
		if math.IsNaN(u) || u <= 0 || u > 1 {
			return nil, fmt.Errorf("%w: light requirement must be in (0,1], got %g",
				dynamics.ErrInvalidParameter, u)
		}
		if u <= uMin {
			return nil, fmt.Errorf("%w: u=%g at or below the zero-height bound u_min=%g",
				dynamics.ErrInfeasibleTrait, u, uMin)
		}
		k, err := d.captureFor(i, len(us))
		if err != nil {
			return nil, err
		}
		// Invert u = (r + m*biomass)/(a*k) for biomass, then the
		// allometric law for height.
		biomass := (u*d.consts.A*k - d.consts.R) / d.consts.M
		h := math.Pow(biomass/d.consts.B, 1/d.consts.Beta)
		if h <= 0 || math.IsNaN(h) || math.IsInf(h, 0) {
			return nil, fmt.Errorf("%w: u=%g implies non-finite height", dynamics.ErrInfeasibleTrait, u)
		}
		c.Species[i] = d.fromHeight(h, k)
	}
	c.sortTallestFirst()
	return c, nil
}

func (d *Deriver) fromHeight(h, k float64) Species {
	biomass := d.consts.B * math.Pow(h, d.consts.Beta)
	fecundity := d.consts.A / biomass
	mortality := d.consts.R/biomass + d.consts.M
	return Species{
		Height:           h,
		Biomass:          biomass,
		Fecundity:        fecundity,
		Mortality:        mortality,
		LightCapture:     k,
		LightRequirement: mortality / (fecundity * k),
	}
}
