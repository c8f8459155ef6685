// Package dynamics provides the simulation primitives shared by the
// canopy equilibrium solver and the ramet trajectory integrator:
//
//   - [State]: density vector, one component per species
//   - [System]: interface for ODE systems (dX/dt = f(X, t))
//   - [Integrator]: numerical stepper interface
//   - [Simulator]: orchestrates a single integration run
//
// # Example
//
//	sys := growth.NewRametSystem(community)
//	sim := dynamics.New(sys, integrators.NewRK45())
//	result, _ := sim.Run(ctx, x0, dynamics.DefaultConfig())
//
// # Thread Safety
//
// Simulator instances are NOT thread-safe. Parallel batch runs are
// handled by the montecarlo package, one Simulator per worker.
package dynamics
