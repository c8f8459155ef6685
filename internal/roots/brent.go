// Package roots implements derivative-free scalar root finding on a
// bracketing interval.
package roots

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrNoBracket indicates f(a) and f(b) do not straddle zero.
	ErrNoBracket = errors.New("roots: interval does not bracket a sign change")

	// ErrMaxIterations indicates the iteration cap was hit before the
	// tolerance was met.
	ErrMaxIterations = errors.New("roots: iteration cap exceeded")
)

const (
	// DefaultTol matches the solver tolerance the equilibrium model was
	// calibrated against.
	DefaultTol = 1e-8

	DefaultMaxIter = 100
)

type Options struct {
	Tol     float64
	MaxIter int
}

func (o Options) withDefaults() Options {
	if o.Tol <= 0 {
		o.Tol = DefaultTol
	}
	if o.MaxIter <= 0 {
		o.MaxIter = DefaultMaxIter
	}
	return o
}

// Brent finds a root of f in [a, b] using Brent's method: inverse
// quadratic interpolation where it helps, secant steps otherwise, and
// bisection as the fallback that guarantees convergence. f(a) and f(b)
// must have opposite signs.
func Brent(f func(float64) float64, a, b float64, opt Options) (float64, error) {
	opt = opt.withDefaults()

	fa := f(a)
	fb := f(b)
	if fa == 0 {
		return a, nil
	}
	if fb == 0 {
		return b, nil
	}
	if (fa > 0) == (fb > 0) {
		return 0, fmt.Errorf("%w: f(%g)=%g, f(%g)=%g", ErrNoBracket, a, fa, b, fb)
	}

	c := a
	fc := fa
	d := b - a
	e := d

	for i := 0; i < opt.MaxIter; i++ {
		if (fb > 0) == (fc > 0) {
			c = a
			fc = fa
			d = b - a
			e = d
		}
		if math.Abs(fc) < math.Abs(fb) {
			a, b, c = b, c, b
			fa, fb, fc = fb, fc, fb
		}

		tol1 := 2*machEps*math.Abs(b) + 0.5*opt.Tol
		xm := 0.5 * (c - b)
		if math.Abs(xm) <= tol1 || fb == 0 {
			return b, nil
		}

		if math.Abs(e) >= tol1 && math.Abs(fa) > math.Abs(fb) {
			// Attempt interpolation: secant when two points are
			// distinct, inverse quadratic with three.
			s := fb / fa
			var p, q float64
			if a == c {
				p = 2 * xm * s
				q = 1 - s
			} else {
				q = fa / fc
				r := fb / fc
				p = s * (2*xm*q*(q-r) - (b-a)*(r-1))
				q = (q - 1) * (r - 1) * (s - 1)
			}
			if p > 0 {
				q = -q
			}
			p = math.Abs(p)
			min1 := 3*xm*q - math.Abs(tol1*q)
			min2 := math.Abs(e * q)
			if 2*p < math.Min(min1, min2) {
				e = d
				d = p / q
			} else {
				d = xm
				e = d
			}
		} else {
			d = xm
			e = d
		}

		a = b
		fa = fb
		if math.Abs(d) > tol1 {
			b += d
		} else {
			b += math.Copysign(tol1, xm)
		}
		fb = f(b)
	}

	return b, fmt.Errorf("%w: best estimate %g", ErrMaxIterations, b)
}

const machEps = 2.220446049250313e-16
