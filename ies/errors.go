package ies

import "fmt"

// ContractViolation indicates a caller bug: reviving a destroyed node,
// modifying an inactive node, branching with a non-integral bound, and
// similar programmer errors (spec.md §7). Fatal, non-recoverable.
type ContractViolation struct {
	Op     string
	Detail string
}

func (e *ContractViolation) Error() string {
	return fmt.Sprintf("ies: contract violation in %s: %s", e.Op, e.Detail)
}

// ErrNonIntegralBound is returned when an integer-typed column would
// receive a non-integral bound, per spec.md §4.8 ("Integer bounds not
// integral: rejected at lpx_integer entry") and the original source's
// glplpx8d.c validation, reproduced here at patch-application time.
type ErrNonIntegralBound struct {
	Value float64
}

func (e *ErrNonIntegralBound) Error() string {
	return fmt.Sprintf("ies: non-integral bound %v on an integer-typed column", e.Value)
}

// LimitReached names an exhausted iteration/subproblem/time budget. No code
// in package ies (which has no loop of its own) returns it, and package mip
// reports its own limit checks with its separate mip.LimitReached type
// (spec.md §7).
type LimitReached struct {
	Kind string // "iterations" | "subproblems" | "time"
}

func (e *LimitReached) Error() string {
	return fmt.Sprintf("ies: limit reached: %s", e.Kind)
}
