package integrators

import (
	"math"
	"testing"

	"github.com/rubytessa/shrubification-model/internal/dynamics"
)

func TestRK45_Step(t *testing.T) {
	integrator := NewRK45()
	sys := &harmonicOscillator{}
	x := dynamics.State{1.0, 0.0}
	dt := 0.01

	for i := 0; i < 1000; i++ {
		x = integrator.Step(sys, x, float64(i)*dt, dt)
	}

	if !x.IsValid() {
		t.Error("RK45 produced invalid state")
	}
}

func TestRK45_LogisticExact(t *testing.T) {
	integrator := NewRK45()
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

func TestRK45_AdaptiveStep(t *testing.T) {
	integrator := NewRK45()
	sys := &harmonicOscillator{}
	x0 := dynamics.State{1.0, 0.0}

	x, newDt, err := integrator.StepAdaptive(sys, x0, 0, 0.1, 1e-8)

	if err != nil {
		t.Errorf("StepAdaptive returned error: %v", err)
	}
	if !x.IsValid() {
		t.Error("StepAdaptive produced invalid state")
	}
	if newDt <= 0 {
		t.Errorf("StepAdaptive returned invalid dt: %f", newDt)
	}
}

func TestRK45_ShrinksStepOnRoughError(t *testing.T) {
	integrator := NewRK45()
	sys := &harmonicOscillator{}
	x0 := dynamics.State{1.0, 0.0}

	_, dtTight, _ := integrator.StepAdaptive(sys, x0, 0, 1.0, 1e-12)
	_, dtLoose, _ := integrator.StepAdaptive(sys, x0, 0, 1.0, 1e-3)

	if dtTight >= dtLoose {
		t.Errorf("expected tighter tolerance to suggest smaller step: %f >= %f", dtTight, dtLoose)
	}
}

func TestRK45_EnergyConservation(t *testing.T) {
	integrator := NewRK45()
	sys := &harmonicOscillator{}
	x := dynamics.State{1.0, 0.0}

	initialEnergy := sys.Energy(x)
	dt := 0.01

	for i := 0; i < 10000; i++ {
		x = integrator.Step(sys, x, float64(i)*dt, dt)
	}

	drift := math.Abs(sys.Energy(x)-initialEnergy) / initialEnergy
	if drift > 1e-6 {
		t.Errorf("RK45 energy drift too high: %e", drift)
	}
}
