package lcp

import (
	"errors"
	"fmt"

	"github.com/san-kum/lcpsim/internal/mip"
)

// ErrShapeMismatch indicates two updates with different numbers of fields.
var ErrShapeMismatch = errors.New("lcp: update shapes differ")

// ContactResult holds the multipliers of one contact. Force is the Cartesian
// force c_n·n + D·β and Separation the signed distance of the tip from the
// contact face.
type ContactResult[T any] struct {
	Obstacle   string `json:"obstacle"`
	Beta       []T    `json:"beta"`
	Lambda     T      `json:"lambda"`
	Cn         T      `json:"cn"`
	Force      []T    `json:"force"`
	Separation T      `json:"separation"`
}

// JointLimitResult holds the multiplier of one joint-limit row, the slack
// a·q - b and the generalized force -λ·a.
type JointLimitResult[T any] struct {
	Lambda T   `json:"lambda"`
	Slack  T   `json:"slack"`
	Force  []T `json:"force"`
}

// Update is one timestep of a trajectory.
type Update[T any] struct {
	Q           []T                   `json:"q"`
	V           []T                   `json:"v"`
	U           T                     `json:"u"`
	Contacts    []ContactResult[T]    `json:"contacts,omitempty"`
	JointLimits []JointLimitResult[T] `json:"joint_limits,omitempty"`
}

type (
	Symbolic = Update[mip.Expr]
	Solved   = Update[float64]
)

func mapSlice[T, S any](xs []T, f func(T) S) []S {
	if xs == nil {
		return nil
	}
	out := make([]S, len(xs))
	for i, x := range xs {
		out[i] = f(x)
	}
	return out
}

// MapUpdate applies f to every leaf of u, in Walk order.
func MapUpdate[T, S any](u Update[T], f func(T) S) Update[S] {
	out := Update[S]{
		Q: mapSlice(u.Q, f),
		V: mapSlice(u.V, f),
		U: f(u.U),
	}
	out.Contacts = mapSlice(u.Contacts, func(c ContactResult[T]) ContactResult[S] {
		return ContactResult[S]{
			Obstacle:   c.Obstacle,
			Beta:       mapSlice(c.Beta, f),
			Lambda:     f(c.Lambda),
			Cn:         f(c.Cn),
			Force:      mapSlice(c.Force, f),
			Separation: f(c.Separation),
		}
	})
	out.JointLimits = mapSlice(u.JointLimits, func(l JointLimitResult[T]) JointLimitResult[S] {
		return JointLimitResult[S]{
			Lambda: f(l.Lambda),
			Slack:  f(l.Slack),
			Force:  mapSlice(l.Force, f),
		}
	})
	return out
}

// Walk calls f on every leaf of u with its field path, e.g. "q[1]" or
// "contact[0].cn", in a fixed order.
func Walk[T any](u Update[T], f func(path string, x T)) {
	each := func(prefix string, xs []T) {
		for i, x := range xs {
			f(fmt.Sprintf("%s[%d]", prefix, i), x)
		}
	}
	each("q", u.Q)
	each("v", u.V)
	f("u", u.U)
	for i, c := range u.Contacts {
		p := fmt.Sprintf("contact[%d]", i)
		each(p+".beta", c.Beta)
		f(p+".lambda", c.Lambda)
		f(p+".cn", c.Cn)
		each(p+".force", c.Force)
		f(p+".separation", c.Separation)
	}
	for i, l := range u.JointLimits {
		p := fmt.Sprintf("limit[%d]", i)
		f(p+".lambda", l.Lambda)
		f(p+".slack", l.Slack)
		each(p+".force", l.Force)
	}
}

// Paths returns the field paths of u in Walk order.
func Paths[T any](u Update[T]) []string {
	var out []string
	Walk(u, func(path string, _ T) { out = append(out, path) })
	return out
}

// Flatten returns the leaves of u in Walk order.
func Flatten[T any](u Update[T]) []T {
	var out []T
	Walk(u, func(_ string, x T) { out = append(out, x) })
	return out
}

// Unflatten fills a copy of shape with xs in Walk order.
func Unflatten[T, S any](shape Update[T], xs []S) (Update[S], error) {
	i := 0
	out := MapUpdate(shape, func(T) S {
		var x S
		if i < len(xs) {
			x = xs[i]
		}
		i++
		return x
	})
	if i != len(xs) {
		return Update[S]{}, fmt.Errorf("%w: %d values for %d fields", ErrShapeMismatch, len(xs), i)
	}
	return out, nil
}

// ZipUpdate combines two updates of the same shape leaf by leaf.
func ZipUpdate[A, B, C any](a Update[A], b Update[B], f func(A, B) C) (Update[C], error) {
	bs := Flatten(b)
	i := 0
	out := MapUpdate(a, func(x A) C {
		var c C
		if i < len(bs) {
			c = f(x, bs[i])
		}
		i++
		return c
	})
	if i != len(bs) || len(a.Contacts) != len(b.Contacts) || len(a.JointLimits) != len(b.JointLimits) {
		return Update[C]{}, fmt.Errorf("%w: %d and %d fields", ErrShapeMismatch, i, len(bs))
	}
	return out, nil
}

// Extract evaluates a symbolic update at a solution.
func Extract(sol *mip.Solution, sym Symbolic) Solved {
	return MapUpdate(sym, sol.Value)
}

// Seed records the values of solved as start values for the variables of
// sym. Derived expressions carry no variable of their own and are skipped.
// Leaves are visited in walk order, so q and v come first; a later leaf that
// aliases an already seeded variable, such as the separation from ground at
// height zero, which is q_next[z] itself, keeps the first value.
func Seed(m *mip.Model, sym Symbolic, solved Solved) error {
	seeded := make(map[mip.Var]bool)
	_, err := ZipUpdate(sym, solved, func(e mip.Expr, x float64) struct{} {
		if v, ok := e.AsVar(); ok && !seeded[v] {
			m.SetStart(v, x)
			seeded[v] = true
		}
		return struct{}{}
	})
	return err
}

// Shape describes the field counts of an update.
type Shape struct {
	Contacts    int `json:"contacts"`
	Basis       int `json:"basis"`
	JointLimits int `json:"joint_limits"`
}

func ShapeOf[T any](u Update[T]) Shape {
	s := Shape{Contacts: len(u.Contacts), JointLimits: len(u.JointLimits)}
	if len(u.Contacts) > 0 {
		s.Basis = len(u.Contacts[0].Beta)
	}
	return s
}

// Zero returns an all-zero update of the given shape.
func Zero(s Shape) Solved {
	u := Solved{Q: make([]float64, Dim), V: make([]float64, Dim)}
	for i := 0; i < s.Contacts; i++ {
		u.Contacts = append(u.Contacts, ContactResult[float64]{
			Beta:  make([]float64, s.Basis),
			Force: make([]float64, 2),
		})
	}
	for i := 0; i < s.JointLimits; i++ {
		u.JointLimits = append(u.JointLimits, JointLimitResult[float64]{Force: make([]float64, Dim)})
	}
	return u
}
