// Package lpengine declares the external LP engine contract consumed by
// packages ies and mip (spec.md §6, "LP engine contract"): the simplex
// engine itself is out of scope for this module — it is assumed available
// as an opaque object supporting warm-start, bounds, objective, basis
// status, pivot, a dual-ratio test, and an iteration counter.
//
// Two implementations are provided: GLPKEngine (cgo bindings to the real
// GNU Linear Programming Kit, the production engine) and GonumEngine (a
// pure-Go engine backed by gonum's dense simplex, used as a fast
// dependency-free engine for unit tests; it cannot warm-start and reports
// ErrUnsupported for the tableau-row/dual-ratio-test primitives that only
// the Driebeek-Tomlin branching rule needs).
package lpengine

import (
	"errors"

	"github.com/jjhbw/go-ies/master"
)

// Direction is the optimization direction of the LP object.
type Direction int

const (
	Min Direction = iota
	Max
)

// BasisStatus mirrors GLPK's row/column status flags (BS/NL/NU/NF/NS in
// github.com/lukpank/go-glpk/glpk), reused verbatim by the LP Mirror.
type BasisStatus int

const (
	Basic BasisStatus = iota
	NonBasicLower
	NonBasicUpper
	NonBasicFree
	NonBasicFixed
)

// Status is the outcome of a simplex solve, restricted to the four
// outcomes the driver is contractually prepared to see (spec.md §4.8):
// anything else surfaces as LpEngineError.
type Status int

const (
	Optimal Status = iota
	Infeasible
	ObjLimitReached
	IterLimitReached
)

// ErrUnsupported is returned by engine methods an implementation cannot
// provide (e.g. GonumEngine's tableau row / dual ratio test).
var ErrUnsupported = errors.New("lpengine: operation not supported by this engine")

// SolveParams controls one simplex solve.
type SolveParams struct {
	// Dual selects the dual simplex, used by the driver to re-optimise
	// from a dual-feasible warm basis (spec.md §4.5 step 2c).
	Dual bool

	// ObjCutoff, if HasCutoff, bounds the objective: an upper limit for
	// Min, a lower limit for Max (spec.md §4.5).
	ObjCutoff    float64
	HasCutoff    bool

	// IterLimit caps the remaining simplex iteration budget for this
	// solve (spec.md §5, "the LP engine is also asked to respect it_lim").
	IterLimit int
}

// TableauRow is one row of the current simplex tableau, as used by the
// dual ratio test and Driebeek-Tomlin branching (spec.md §4.6). Ind holds
// the nonbasic-variable ordinals (negative for a row's auxiliary variable
// convention is not used here; ordinals are plain 1..n row/col indices)
// and Val the corresponding coefficients.
type TableauRow struct {
	Ind []int
	Val []float64
}

// RowOrdCoef pairs an LP row ordinal with the coefficient a pricing
// column carries in that row, already resolved from a master item's
// incidence list by the caller (package mip does not expose master handles
// across the Engine boundary).
type RowOrdCoef struct {
	Ordinal int
	Value   float64
}

// RatioTestResult is the outcome of a dual ratio test: which nonbasic
// variable should leave the basis, and the pivot (influence) coefficient
// on the branching variable.
type RatioTestResult struct {
	// Leaving is the ordinal of the variable chosen to leave the basis,
	// or 0 if the ratio test found no eligible candidate (the branch
	// direction is then treated as infeasible, spec.md §4.6).
	Leaving int
	Alpha   float64
}

// Engine is the LP engine contract consumed by package ies's LP Mirror and
// package mip's driver. Row/column ordinals are 1-based and only stable
// while the corresponding subproblem is current (spec.md §3).
type Engine interface {
	SetProbName(name string)
	SetObjDir(dir Direction)
	SetObjConst(c float64)

	// AddRows/AddCols grow the LP object by n rows/cols and return the
	// ordinal of the first one added.
	AddRows(n int) (first int)
	AddCols(n int) (first int)

	// MarkRowForDeletion / MarkColForDeletion flag ordinals for the next
	// DeleteMarked call (spec.md §6, "mark rows/columns for bulk delete").
	MarkRowForDeletion(i int)
	MarkColForDeletion(j int)
	DeleteMarked()

	SetRowBounds(i int, typ master.BoundType, lb, ub float64)
	SetColBounds(j int, typ master.BoundType, lb, ub float64)
	SetObjCoef(j int, coef float64)
	SetRowStat(i int, stat BasisStatus)
	SetColStat(j int, stat BasisStatus)

	// SetMatRow/SetMatCol replace a row's/column's nonzero pattern
	// incrementally; RebuildMatrix replaces the whole coefficient matrix
	// at once (spec.md §4.3 step 8, used above the rebuild threshold).
	SetMatRow(i int, ind []int, val []float64)
	SetMatCol(j int, ind []int, val []float64)
	RebuildMatrix(ia, ja []int, ar []float64)

	NumRows() int
	NumCols() int

	WarmUp() error
	AdvBasis()
	Simplex(p SolveParams) (Status, error)

	ObjValue() float64
	RowPrim(i int) float64
	ColPrim(j int) float64
	RowDual(i int) float64
	ColDual(j int) float64
	RowStat(i int) BasisStatus
	ColStat(j int) BasisStatus

	// SupportsDuals reports whether RowDual/ColDual return real simplex
	// multipliers. Both shipped engines return false: go-glpk wraps neither
	// glp_get_row_dual nor glp_get_col_dual, and gonum's lp.Simplex returns
	// only a primal solution. Package mip's feasibility-recovery pass
	// consults this to avoid running a pricing loop that can never find a
	// candidate when every dual is forced to zero.
	SupportsDuals() bool

	// ReducedCost returns a column's reduced cost against the current dual
	// multipliers, computed from its objective coefficient and its
	// incidence list, pre-resolved by the caller to the LP ordinal each
	// row currently occupies (rows absent from the subproblem contribute
	// nothing, matching spec.md §4.5's "for missing rows the dual is
	// treated as zero and the objective coefficient must be zero"). Valid
	// whether or not the column itself is currently present as an LP
	// ordinal; package mip's column-pricing loop uses this to price columns
	// missing from the subproblem. When SupportsDuals is false this
	// degrades to plain-objective pricing: rows absent from the subproblem
	// and rows present but not dualized both contribute zero, so a column
	// is only ever judged attractive by its own raw coefficient.
	ReducedCost(objCoef float64, incidence []RowOrdCoef) float64

	TableauRow(i int) (TableauRow, error)
	DualRatioTest(row TableauRow, direction int) (RatioTestResult, error)

	IterCount() int

	// Tolerances exposes the numeric constants the LP engine itself
	// considers part of its contract (spec.md, Design Notes): the
	// bound-roundoff check and similar engine-internal epsilons.
	Tolerances() Tolerances

	Close()
}

// Tolerances are the numeric constants named in spec.md's Design Notes as
// part of the contract, not an implementation detail.
type Tolerances struct {
	BoundRoundoff float64 // 1e-12
}

// DefaultTolerances returns the constants named in spec.md verbatim.
func DefaultTolerances() Tolerances {
	return Tolerances{BoundRoundoff: 1e-12}
}
