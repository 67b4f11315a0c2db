package mip

import "errors"

var (
	// ErrInfeasible indicates that no assignment satisfies the model.
	ErrInfeasible = errors.New("mip: problem is infeasible")

	// ErrUnbounded indicates that the objective can decrease without bound.
	ErrUnbounded = errors.New("mip: problem is unbounded")

	// ErrUnboundedVar indicates a variable declared without finite bounds.
	ErrUnboundedVar = errors.New("mip: variable bounds must be finite")

	// ErrEmptyDisjunction indicates a disjunction with no disjuncts.
	ErrEmptyDisjunction = errors.New("mip: disjunction has no disjuncts")

	// ErrNodeLimit indicates branch and bound gave up before finding a solution.
	ErrNodeLimit = errors.New("mip: branch and bound node limit reached")

	// ErrMissingStart indicates a warm start over a variable with no start value.
	ErrMissingStart = errors.New("mip: variable has no start value")

	// ErrNoDisjunctSatisfied indicates start values violate every disjunct of a disjunction.
	ErrNoDisjunctSatisfied = errors.New("mip: start values satisfy no disjunct")

	// ErrUnresolvedBinaries indicates binaries left free when warm starting.
	ErrUnresolvedBinaries = errors.New("mip: warm start with unresolved binary variables")

	// ErrNumerical indicates the LP engine failed for numerical reasons.
	ErrNumerical = errors.New("mip: numerical failure in lp relaxation")
)
