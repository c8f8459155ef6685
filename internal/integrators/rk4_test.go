package integrators

import (
	"math"
	"testing"

	"github.com/rubytessa/shrubification-model/internal/dynamics"
)

type harmonicOscillator struct{}

func (h *harmonicOscillator) Dim() int { return 2 }

func (h *harmonicOscillator) Derive(x dynamics.State, t float64) dynamics.State {
	return dynamics.State{x[1], -x[0]}
}

func (h *harmonicOscillator) Energy(x dynamics.State) float64 {
	return 0.5 * (x[0]*x[0] + x[1]*x[1])
}

// logistic has the closed-form solution x(t) = x0 / (x0 + (1-x0) e^{-t}).
type logistic struct{}

func (l *logistic) Dim() int { return 1 }

func (l *logistic) Derive(x dynamics.State, t float64) dynamics.State {
	return dynamics.State{x[0] * (1 - x[0])}
}

func logisticExact(x0, t float64) float64 {
	return x0 / (x0 + (1-x0)*math.Exp(-t))
}

func TestRK4_Step(t *testing.T) {
	integrator := NewRK4()
	sys := &harmonicOscillator{}
	x := dynamics.State{1.0, 0.0}
	dt := 0.01

	for i := 0; i < 1000; i++ {
		x = integrator.Step(sys, x, float64(i)*dt, dt)
	}

	if !x.IsValid() {
		t.Error("RK4 produced invalid state")
	}
}

func TestRK4_LogisticExact(t *testing.T) {
	integrator := NewRK4()
	sys := &logistic{}
	x := dynamics.State{0.05}
	dt := 0.01

	for i := 0; i < 1000; i++ {
		x = integrator.Step(sys, x, float64(i)*dt, dt)
	}

	want := logisticExact(0.05, 10.0)
	if math.Abs(x[0]-want) > 1e-8 {
		t.Errorf("logistic at t=10: got %.10f, want %.10f", x[0], want)
	}
}

func TestRK4_EnergyConservation(t *testing.T) {
	integrator := NewRK4()
	sys := &harmonicOscillator{}
	x := dynamics.State{1.0, 0.0}

	initialEnergy := sys.Energy(x)
	dt := 0.01

	for i := 0; i < 10000; i++ {
		x = integrator.Step(sys, x, float64(i)*dt, dt)
	}

	drift := math.Abs(sys.Energy(x)-initialEnergy) / initialEnergy
	if drift > 1e-6 {
		t.Errorf("RK4 energy drift too high: %e", drift)
	}
}
