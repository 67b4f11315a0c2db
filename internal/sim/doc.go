// Package sim drives the complementarity timestep over a horizon.
//
// [Simulator.Simulate] solves one small model per step, feeding the solved
// next state into the following step. [Simulator.Optimize] chains every
// step into one model and solves it once; [Simulator.OptimizeWarm] does
// the same with every variable seeded from an earlier trajectory and the
// disjunctions fixed by that seed, which leaves a single linear program.
//
// A Simulator runs one trajectory at a time. [Ensemble] runs several
// independent simulators concurrently.
package sim
