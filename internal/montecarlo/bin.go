package montecarlo

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// BinStat is the mean equilibrium density over one equal-width trait
// bin. An empty bin reports NaN: no species landed there, which is a
// sampling gap, not an observed zero abundance.
type BinStat struct {
	Lo, Hi      float64
	Center      float64
	Count       int
	MeanDensity float64
}

func (r *Runner) bin(draws []Draw) []BinStat {
	width := (r.cfg.Max - r.cfg.Min) / float64(r.cfg.Bins)

	values := make([][]float64, r.cfg.Bins)
	for _, d := range draws {
		trait := d.Height
		if r.cfg.Axis == AxisLightRequirement {
			trait = d.U
		}
		idx := int((trait - r.cfg.Min) / width)
		if idx < 0 {
			continue
		}
		if idx >= r.cfg.Bins {
			// The draw at exactly Max belongs to the last bin.
			idx = r.cfg.Bins - 1
		}
		values[idx] = append(values[idx], d.Density)
	}

	bins := make([]BinStat, r.cfg.Bins)
	for i := range bins {
		bins[i] = BinStat{
			Lo:     r.cfg.Min + float64(i)*width,
			Hi:     r.cfg.Min + float64(i+1)*width,
			Center: r.cfg.Min + (float64(i)+0.5)*width,
			Count:  len(values[i]),
		}
		if len(values[i]) == 0 {
			bins[i].MeanDensity = math.NaN()
			continue
		}
		bins[i].MeanDensity = stat.Mean(values[i], nil)
	}
	return bins
}
