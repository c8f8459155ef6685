package dynamics

import (
	"context"
	"fmt"
	"math"
)

// Simulator integrates a System forward in time. Instances are not
// safe for concurrent use; run one Simulator per goroutine.
type Simulator struct {
	sys        System
	integrator Integrator
}

func New(sys System, integrator Integrator) *Simulator {
	return &Simulator{sys: sys, integrator: integrator}
}

func (s *Simulator) Run(ctx context.Context, x0 State, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}
	if len(x0) != s.sys.Dim() {
		return nil, fmt.Errorf("%w: state has %d components, system expects %d",
			ErrInvalidState, len(x0), s.sys.Dim())
	}

	// Capacity is only a hint; cap it so extreme Duration/Dt ratios
	// cannot exhaust memory before the first step is taken.
	capHint := int(cfg.Duration/cfg.Dt) + 1
	if cfg.MaxSteps > 0 && capHint > cfg.MaxSteps+1 {
		capHint = cfg.MaxSteps + 1
	}
	if capHint > 1<<16 {
		capHint = 1 << 16
	}
	result := &Result{
		States: make([]State, 0, capHint),
		Times:  make([]float64, 0, capHint),
	}

	x := x0.Clone()
	t := 0.0
	dt := cfg.Dt

	result.States = append(result.States, x.Clone())
	result.Times = append(result.Times, t)

	// Relative slack absorbs accumulated floating-point error in t so
	// the final clipped step cannot leave a vanishing remainder.
	endSlack := 1e-12 * cfg.Duration

	for cfg.Duration-t > endSlack {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		if cfg.MaxSteps > 0 && result.StepsTaken >= cfg.MaxSteps {
			return result, &IntegrationError{
				Step: result.StepsTaken, Time: t, State: x.Clone(),
				Wrapped: fmt.Errorf("%w: step budget exhausted at t=%.4f", ErrStepTooSmall, t),
			}
		}

		if t+dt > cfg.Duration {
			dt = cfg.Duration - t
		}

		var newX State
		if cfg.Adaptive {
			adaptive, ok := s.integrator.(AdaptiveIntegrator)
			if !ok {
				newX = s.integrator.Step(s.sys, x, t, dt)
			} else {
				var dtNext float64
				var err error
				newX, dtNext, err = adaptive.StepAdaptive(s.sys, x, t, dt, cfg.Tolerance)
				if err != nil {
					result.Warnings = append(result.Warnings, SimError{Time: t, Step: result.StepsTaken, Message: err.Error()})
				}
				t += dt
				if dtNext < cfg.MinDt && cfg.Duration-t > endSlack {
					return result, &IntegrationError{
						Step: result.StepsTaken, Time: t, State: newX.Clone(),
						Wrapped: ErrStepTooSmall,
					}
				}
				dt = clampDt(dtNext, cfg.MinDt, cfg.MaxDt)
				if err := s.checkState(newX, t, result.StepsTaken, cfg); err != nil {
					return result, err
				}
				x = newX
				result.StepsTaken++
				result.States = append(result.States, x.Clone())
				result.Times = append(result.Times, t)
				continue
			}
		} else {
			newX = s.integrator.Step(s.sys, x, t, dt)
		}

		t += dt
		if err := s.checkState(newX, t, result.StepsTaken, cfg); err != nil {
			return result, err
		}
		x = newX
		result.StepsTaken++
		result.States = append(result.States, x.Clone())
		result.Times = append(result.Times, t)
	}

	return result, nil
}

func (s *Simulator) checkState(x State, t float64, step int, cfg Config) error {
	if cfg.ValidateState && !x.IsValid() {
		return &IntegrationError{Step: step, Time: t, State: x.Clone(), Wrapped: ErrInvalidState}
	}
	if cfg.NonNegative && x.Min() < -cfg.NegTol {
		return &IntegrationError{
			Step: step, Time: t, State: x.Clone(),
			Wrapped: fmt.Errorf("%w: min component %.3e at t=%.4f", ErrNegativeDensity, x.Min(), t),
		}
	}
	return nil
}

func (s *Simulator) validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %f", ErrInvalidParameter, cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %f", ErrInvalidParameter, cfg.Duration)
	}
	if cfg.Adaptive && cfg.Tolerance <= 0 {
		return fmt.Errorf("%w: tolerance must be positive for adaptive stepping", ErrInvalidParameter)
	}
	return nil
}

func clampDt(dt, minDt, maxDt float64) float64 {
	if maxDt > 0 {
		dt = math.Min(dt, maxDt)
	}
	if minDt > 0 {
		dt = math.Max(dt, minDt)
	}
	return dt
}
