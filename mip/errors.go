package mip

import (
	"fmt"

	"github.com/jjhbw/go-ies/lpengine"
)

// LpEngineError surfaces an LP relaxation solve that returned anything other
// than Optimal/Infeasible/ObjLimitReached/IterLimitReached; the search halts
// (spec.md §4.8).
type LpEngineError struct {
	Status lpengine.Status
	Err    error
}

func (e *LpEngineError) Error() string {
	return fmt.Sprintf("mip: lp engine returned an unexpected status (%v): %v", e.Status, e.Err)
}

func (e *LpEngineError) Unwrap() error { return e.Err }

// LimitReached is a cooperative early exit: iteration, subproblem, or
// wall-clock budget exhausted. State remains resumable (spec.md §4.8).
type LimitReached struct {
	Kind string // "iterations" | "subproblems" | "time"
}

func (e *LimitReached) Error() string {
	return fmt.Sprintf("mip: limit reached: %s", e.Kind)
}

// ContractViolation indicates a caller or application-callback bug (spec.md
// §4.4, §4.8). Package mip's own code does not return it: a non-integral
// branching bound is reported as *ies.ErrNonIntegralBound, and a
// node-creation/deletion call from inside an event callback is not detected.
type ContractViolation struct {
	Op     string
	Detail string
}

func (e *ContractViolation) Error() string {
	return fmt.Sprintf("mip: contract violation in %s: %s", e.Op, e.Detail)
}

// ErrNoIntegerFeasibleSolution is returned by Run when the active list
// drains without ever finding an integer-feasible solution (grounded on the
// teacher's NO_INTEGER_FEASIBLE_SOLUTION sentinel in ilp.go).
var ErrNoIntegerFeasibleSolution = fmt.Errorf("mip: no integer feasible solution found")

// ErrInitialRelaxationInfeasible is returned by Run when the root LP
// relaxation itself is infeasible (teacher's INITIAL_RELAXATION_NOT_FEASIBLE).
var ErrInitialRelaxationInfeasible = fmt.Errorf("mip: initial relaxation is not feasible")
