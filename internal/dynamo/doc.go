// Package dynamo provides the primitives shared by the trajectory driver
// and its collaborators:
//
//   - [State]: generalized position and velocity of the leg model
//   - [Controller]: leg force as a pure function of the state
//   - [Metric] and [Observer]: hooks called on every solved timestep
//   - [SimulationError]: failure of a trajectory at a given step
//
// # Example
//
//	ctrl := dynamo.ControllerFunc(func(q, v []float64) float64 { return 0 })
//	s := sim.New(lcp.DefaultParams(), lcp.FlatGround(0))
//	traj, err := s.Simulate(ctx, q0, v0, ctrl, 20)
package dynamo
