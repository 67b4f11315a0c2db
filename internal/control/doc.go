// Package control provides leg force controllers.
//
// Controllers implement [dynamo.Controller] and map the current (q, v) to
// the scalar leg extension force:
//
//   - [None]: zero force
//   - [Constant]: fixed force
//   - [PD]: proportional-derivative regulation of the leg length
//   - [Manual]: force set from outside, used by the live view
//
// # Usage
//
//	pd := control.NewPD(100, 5, 1.0) // Kp, Kd, target length
//	traj, err := s.Simulate(ctx, q0, v0, pd, 40)
package control
