// Package analysis extracts plots from solved trajectories.
//
//   - [NewPhasePortrait]: any two update fields against each other
//   - [NewSection]: the points where one field crosses a threshold
//   - [Series]: one field as a time series
//
// Fields are addressed by the paths of [lcp.Walk], such as "q[1]" or
// "contact[0].cn":
//
//	p, err := analysis.NewPhasePortrait(traj, "q[1]", "v[1]")
//	fmt.Print(analysis.PhasePortraitToASCII(p, 60, 20))
package analysis
