package sim

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/lcpsim/internal/control"
	"github.com/san-kum/lcpsim/internal/dynamo"
	"github.com/san-kum/lcpsim/internal/lcp"
	"github.com/san-kum/lcpsim/internal/metrics"
	"github.com/san-kum/lcpsim/internal/mip"
)

const tol = 1e-5

var _ = Describe("Simulator", func() {
	var (
		ctx    context.Context
		params lcp.Params
	)

	BeforeEach(func() {
		ctx = context.Background()
		params = lcp.DefaultParams()
	})

	It("starts ready", func() {
		s := New(params, lcp.Empty())
		Expect(s.Phase()).To(Equal(Ready))
	})

	Describe("dropping the leg onto flat ground", func() {
		var (
			s    *Simulator
			res  *dynamo.Result
			seen []int
		)

		BeforeEach(func() {
			seen = nil
			s = New(params, lcp.FlatGround(0),
				WithMetric(metrics.NewComplementarity()),
				WithMetric(metrics.NewFrictionMargin()),
				WithObserver(dynamo.ObserverFunc(func(step int, _ lcp.Solved) {
					seen = append(seen, step)
				})),
			)
			var err error
			res, err = s.Simulate(ctx, []float64{0, 1, 0.25}, []float64{0, -1, -1}, control.NewNone(), 20)
			Expect(err).NotTo(HaveOccurred())
		})

		It("produces one update per step", func() {
			Expect(res.Trajectory).To(HaveLen(20))
			Expect(res.Solves).To(Equal(20))
			Expect(seen).To(HaveLen(20))
			Expect(seen[19]).To(Equal(19))
			Expect(s.Phase()).To(Equal(Finished))
		})

		It("comes to rest on the ground at the minimum leg length", func() {
			last := res.Trajectory[len(res.Trajectory)-1]
			Expect(last.Q[lcp.Z]).To(BeNumerically("~", 0, tol))
			Expect(last.Q[lcp.Y]).To(BeNumerically("~", params.LegMin, tol))
			Expect(last.V[lcp.Y]).To(BeNumerically("~", 0, tol))
			Expect(last.V[lcp.Z]).To(BeNumerically("~", 0, tol))
			Expect(last.Contacts[0].Cn).To(BeNumerically(">", tol))
		})

		It("keeps every complementarity pair and the friction cone", func() {
			Expect(res.Metrics["complementarity"]).To(BeNumerically("<", tol))
			Expect(res.Metrics["friction_margin"]).To(BeNumerically(">=", -tol))
			for _, u := range res.Trajectory {
				Expect(u.Contacts[0].Separation).To(BeNumerically(">=", -tol))
			}
		})
	})

	Describe("extending the leg toward its maximum length", func() {
		var res *dynamo.Result

		BeforeEach(func() {
			s := New(params, lcp.Empty())
			var err error
			res, err = s.Simulate(ctx, []float64{0, 1, 0}, []float64{0, 2, -2}, control.NewNone(), 8)
			Expect(err).NotTo(HaveOccurred())
		})

		It("activates the limit exactly when the length reaches the maximum", func() {
			first := -1
			for i, u := range res.Trajectory {
				length := lcp.LegLength(u.Q)
				Expect(length).To(BeNumerically("<=", params.LegMax+tol))
				if u.JointLimits[0].Lambda > tol {
					Expect(length).To(BeNumerically("~", params.LegMax, tol))
					if first < 0 {
						first = i
					}
				}
			}
			Expect(first).To(Equal(3))
		})

		It("decelerates the extension", func() {
			before := lcp.LegLength(res.Trajectory[2].V)
			after := lcp.LegLength(res.Trajectory[3].V)
			Expect(after).To(BeNumerically("<", before))
			Expect(res.Trajectory[3].JointLimits[0].Force[lcp.Y]).To(BeNumerically("<", 0))
		})
	})

	Describe("an infeasible initial state", func() {
		It("fails the whole trajectory at the first step", func() {
			s := New(params, lcp.FlatGround(0))
			res, err := s.Simulate(ctx, []float64{0, 1, -5}, []float64{0, 0, 0}, control.NewNone(), 5)
			Expect(res).To(BeNil())
			Expect(errors.Is(err, mip.ErrInfeasible)).To(BeTrue())

			var se *dynamo.SimulationError
			Expect(errors.As(err, &se)).To(BeTrue())
			Expect(se.Step).To(Equal(0))
			Expect(se.Mode).To(Equal(dynamo.ModeSimulate))
			Expect(s.Phase()).To(Equal(Ready))
		})
	})
})
