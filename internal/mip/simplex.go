package mip

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	errLPUnbounded = errors.New("lp unbounded")
	errLPStalled   = errors.New("lp iteration limit")
)

const (
	pivotTol   = 1e-9
	blandAfter = 50
)

// tableau is a dense bounded-variable simplex over
//
//	min c·y  subject to  A y (<= | =) b,  0 <= y <= u.
//
// Row m of t holds reduced costs and column n holds B⁻¹b. Nonbasic columns
// sit at 0 or at their upper bound; basic values are tracked in val.
type tableau struct {
	m, n    int
	t       *mat.Dense
	val     []float64
	basis   []int
	row     []int
	upper   []float64
	atUpper []bool
	art     []bool
	tol     float64
}

// newTableau adds a slack to every inequality row and an artificial to every
// row that cannot start on its slack, so the initial basis is the identity.
func newTableau(rows []lpRow, upper []float64, tol float64) *tableau {
	ns, m := len(upper), len(rows)
	n := ns
	for _, r := range rows {
		if !r.eq {
			n++
		}
		if r.eq || r.rhs < 0 {
			n++
		}
	}
	tb := &tableau{
		m:       m,
		n:       n,
		t:       mat.NewDense(m+1, n+1, nil),
		val:     make([]float64, m),
		basis:   make([]int, m),
		row:     make([]int, n),
		upper:   make([]float64, n),
		atUpper: make([]bool, n),
		art:     make([]bool, n),
		tol:     tol,
	}
	copy(tb.upper, upper)
	for j := range tb.row {
		tb.row[j] = -1
	}
	next := ns
	for i, r := range rows {
		t := tb.t.RawRowView(i)
		copy(t, r.coef)
		t[n] = r.rhs
		slack := -1
		if !r.eq {
			slack = next
			t[slack] = 1
			tb.upper[slack] = math.Inf(1)
			next++
		}
		if r.eq || r.rhs < 0 {
			if r.rhs < 0 {
				floats.Scale(-1, t)
			}
			a := next
			t[a] = 1
			tb.upper[a] = math.Inf(1)
			tb.art[a] = true
			next++
			tb.setBasic(i, a)
		} else {
			tb.setBasic(i, slack)
		}
		tb.val[i] = t[n]
	}
	return tb
}

func (tb *tableau) setBasic(i, j int) {
	tb.basis[i] = j
	tb.row[j] = i
}

func (tb *tableau) artificials() bool {
	for _, j := range tb.basis {
		if tb.art[j] {
			return true
		}
	}
	return false
}

// price loads c into the reduced-cost row.
func (tb *tableau) price(c []float64) {
	d := tb.t.RawRowView(tb.m)
	for j := range d {
		d[j] = 0
	}
	copy(d, c)
	for i, j := range tb.basis {
		if j < len(c) && c[j] != 0 {
			floats.AddScaled(d, -c[j], tb.t.RawRowView(i))
		}
	}
}

// entering picks an improving nonbasic column, or -1 at optimality.
func (tb *tableau) entering(bland bool) int {
	d := tb.t.RawRowView(tb.m)
	best, score := -1, 0.0
	for j := 0; j < tb.n; j++ {
		if tb.row[j] >= 0 || tb.upper[j] <= 0 {
			continue
		}
		s := -d[j]
		if tb.atUpper[j] {
			s = d[j]
		}
		if s <= tb.tol {
			continue
		}
		if bland {
			return j
		}
		if s > score {
			best, score = j, s
		}
	}
	return best
}

// ratio runs a two-pass Harris test on column q moving in direction dir. It
// returns the blocking row, or -1 when only the column's own bound blocks.
func (tb *tableau) ratio(q int, dir float64) (int, float64) {
	limit := math.Inf(1)
	for i := 0; i < tb.m; i++ {
		if r, ok := tb.step(i, q, dir, tb.tol); ok && r < limit {
			limit = r
		}
	}
	if tb.upper[q] <= limit {
		return -1, tb.upper[q]
	}
	if math.IsInf(limit, 1) {
		return -1, limit
	}
	best, piv := -1, 0.0
	for i := 0; i < tb.m; i++ {
		r, ok := tb.step(i, q, dir, 0)
		if !ok || r > limit {
			continue
		}
		if a := math.Abs(tb.t.At(i, q)); a > piv {
			best, piv = i, a
		}
	}
	theta, _ := tb.step(best, q, dir, 0)
	return best, math.Max(theta, 0)
}

func (tb *tableau) step(i, q int, dir, slack float64) (float64, bool) {
	alpha := dir * tb.t.At(i, q)
	k := tb.basis[i]
	switch {
	case alpha > pivotTol:
		return (tb.val[i] + slack) / alpha, true
	case alpha < -pivotTol && !math.IsInf(tb.upper[k], 1):
		return (tb.upper[k] - tb.val[i] + slack) / -alpha, true
	}
	return 0, false
}

func (tb *tableau) pivot(r, q int) {
	pr := tb.t.RawRowView(r)
	floats.Scale(1/pr[q], pr)
	for i := 0; i <= tb.m; i++ {
		if i == r {
			continue
		}
		ri := tb.t.RawRowView(i)
		if f := ri[q]; f != 0 {
			floats.AddScaled(ri, -f, pr)
		}
	}
	tb.row[tb.basis[r]] = -1
	tb.atUpper[q] = false
	tb.setBasic(r, q)
}

func (tb *tableau) iterate(limit int) error {
	degenerate := 0
	for it := 0; it < limit; it++ {
		q := tb.entering(degenerate > blandAfter)
		if q < 0 {
			return nil
		}
		dir := 1.0
		if tb.atUpper[q] {
			dir = -1
		}
		r, theta := tb.ratio(q, dir)
		if math.IsInf(theta, 1) {
			return errLPUnbounded
		}
		for i := 0; i < tb.m; i++ {
			tb.val[i] -= dir * theta * tb.t.At(i, q)
		}
		if r < 0 {
			tb.atUpper[q] = !tb.atUpper[q]
		} else {
			k := tb.basis[r]
			tb.atUpper[k] = dir*tb.t.At(r, q) < 0
			if tb.art[k] {
				// An artificial that left the basis never returns.
				tb.upper[k], tb.atUpper[k] = 0, false
			}
			x := dir * theta
			if tb.atUpper[q] {
				x += tb.upper[q]
			}
			tb.pivot(r, q)
			tb.val[r] = x
		}
		if theta <= tb.tol {
			degenerate++
		} else {
			degenerate = 0
		}
	}
	return errLPStalled
}

// refresh recomputes basic values from B⁻¹b and the nonbasic bounds.
func (tb *tableau) refresh() {
	for i := 0; i < tb.m; i++ {
		t := tb.t.RawRowView(i)
		x := t[tb.n]
		for j := 0; j < tb.n; j++ {
			if tb.row[j] < 0 && tb.atUpper[j] {
				x -= t[j] * tb.upper[j]
			}
		}
		tb.val[i] = x
	}
}

// dropArtificials pivots basic artificials out where a structural or slack
// column allows it, then pins every artificial to zero.
func (tb *tableau) dropArtificials() {
	for i, k := range tb.basis {
		if !tb.art[k] {
			continue
		}
		t := tb.t.RawRowView(i)
		best, piv := -1, 1e-7
		for j := 0; j < tb.n; j++ {
			if tb.art[j] || tb.row[j] >= 0 {
				continue
			}
			if a := math.Abs(t[j]); a > piv {
				best, piv = j, a
			}
		}
		if best >= 0 {
			tb.pivot(i, best)
		}
	}
	for j, a := range tb.art {
		if a {
			tb.upper[j] = 0
			tb.atUpper[j] = false
		}
	}
	tb.refresh()
}

func (tb *tableau) artificialSum() float64 {
	sum := 0.0
	for i, k := range tb.basis {
		if tb.art[k] {
			sum += math.Abs(tb.val[i])
		}
	}
	return sum
}

// solution returns the first ns column values clamped to their boxes.
func (tb *tableau) solution(ns int) []float64 {
	y := make([]float64, ns)
	for j := range y {
		switch {
		case tb.row[j] >= 0:
			y[j] = tb.val[tb.row[j]]
		case tb.atUpper[j]:
			y[j] = tb.upper[j]
		}
		y[j] = math.Min(math.Max(y[j], 0), tb.upper[j])
	}
	return y
}
