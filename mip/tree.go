// Package mip implements the branch-and-cut driver layered on an
// Implicit Enumeration Suite tree: the callback protocol (spec.md §4.4),
// the main loop (spec.md §4.5), and the default branching/backtracking
// rules (spec.md §4.6).
package mip

import (
	"time"

	"github.com/jjhbw/go-ies/ies"
	"github.com/jjhbw/go-ies/lpengine"
	"github.com/jjhbw/go-ies/master"
)

// Direction is the MIP's optimisation direction.
type Direction = lpengine.Direction

const (
	Min = lpengine.Min
	Max = lpengine.Max
)

// BranchRule selects the default branching heuristic (spec.md §4.6),
// grounded on the teacher's BranchHeuristic enum in branching.go.
type BranchRule int

const (
	BranchFirst BranchRule = iota
	BranchLast
	BranchDriebeekTomlin
)

// BacktrackRule selects the default backtracking heuristic (spec.md §4.6).
type BacktrackRule int

const (
	BacktrackLIFO BacktrackRule = iota
	BacktrackFIFO
	BacktrackBestProjection
)

// Tolerances are the driver's numeric contract constants (spec.md §3,
// "MIP tree").
type Tolerances struct {
	Int float64 // tol_int
	Obj float64 // tol_obj
}

// DefaultTolerances matches GLPK's own defaults (glpk.go's smcp defaults,
// 1e-5 / 1e-7 families), scaled for a pure branch-and-bound driver.
func DefaultTolerances() Tolerances {
	return Tolerances{Int: 1e-5, Obj: 1e-7}
}

// Limits bound the search cooperatively (spec.md §3, §4.8).
type Limits struct {
	IterLimit int // 0 == unlimited
	NodeLimit int
	TimeLimit time.Duration
}

// Counters are read-only search statistics (spec.md §3).
type Counters struct {
	ActiveCount int
	SolvedCount int
}

// Incumbent is the best integer-feasible solution found so far (spec.md
// §3, "the incumbent").
type Incumbent struct {
	Obj     float64
	RowPrim map[master.ItemHandle]float64
	ColPrim map[master.ItemHandle]float64
}

// Tree wraps an ies.Tree with everything the branch-and-cut driver needs on
// top (spec.md §3, "MIP tree").
type Tree struct {
	IES *ies.Tree
	Dir Direction

	origRows, origCols int

	intVar  map[master.ItemHandle]bool
	infeas  map[master.ItemHandle]bool
	delFlag map[master.ItemHandle]bool

	global ies.NodeHandle

	// branchVar/branchHeir carry the outcome of the Branch event from
	// reoptimize to branch, both set fresh on every branching decision.
	branchVar  master.ItemHandle
	branchHeir int

	Incumbent *Incumbent
	Found     bool

	Tol    Tolerances
	Limits Limits

	Branch    BranchRule
	Backtrack BacktrackRule

	Counters Counters

	// sumInf is the sum-of-fractionalities of the node's latest LP solution,
	// recorded (with lpVal) when the driver checks that solution for
	// integrality, keyed by node, for the best-projection backtracking rule
	// (spec.md §4.6,
	// supplemented from original_source/glpmip1.c's node->ii_sum).
	sumInf map[ies.NodeHandle]float64
	lpVal  map[ies.NodeHandle]float64

	// active is the set of currently-active leaf nodes awaiting selection.
	active map[ies.NodeHandle]bool

	log ies.Logger
}

// Option configures a Tree at construction time.
type Option func(*Tree)

func WithTolerances(t Tolerances) Option   { return func(m *Tree) { m.Tol = t } }
func WithLimits(l Limits) Option           { return func(m *Tree) { m.Limits = l } }
func WithBranchRule(r BranchRule) Option   { return func(m *Tree) { m.Branch = r } }
func WithBacktrack(r BacktrackRule) Option { return func(m *Tree) { m.Backtrack = r } }
func WithLogger(l ies.Logger) Option       { return func(m *Tree) { m.log = l } }

// New wraps iesTree, installing the item filter the driver requires:
// columns (variables) always survive to zero refcount, rows (constraints)
// are deleted once unreferenced (spec.md §4.7). The item hook that raises
// DelVar/DelCon is installed separately by Run, once a Callback exists to
// raise them into.
func New(iesTree *ies.Tree, dir Direction, opts ...Option) *Tree {
	t := &Tree{
		IES:     iesTree,
		Dir:     dir,
		intVar:  make(map[master.ItemHandle]bool),
		infeas:  make(map[master.ItemHandle]bool),
		delFlag: make(map[master.ItemHandle]bool),
		sumInf:  make(map[ies.NodeHandle]float64),
		lpVal:   make(map[ies.NodeHandle]float64),
		active:  make(map[ies.NodeHandle]bool),
		Tol:     DefaultTolerances(),
		log:     ies.Logger(noopLogger{}),
	}
	for _, opt := range opts {
		opt(t)
	}

	iesTree.Master().SetFilter(func(it *master.Item) bool {
		return it.Kind() == master.Row
	})
	return t
}

type noopLogger struct{}

func (noopLogger) Debugf(string, ...interface{}) {}
func (noopLogger) Infof(string, ...interface{})  {}

// MarkInteger flags a column as integer-typed (spec.md §3, "per-column
// intvar flag").
func (t *Tree) MarkInteger(col master.ItemHandle) { t.intVar[col] = true }

// IsInteger reports whether col carries the integrality flag.
func (t *Tree) IsInteger(col master.ItemHandle) bool { return t.intVar[col] }

func (t *Tree) markActive(n ies.NodeHandle)   { t.active[n] = true; t.Counters.ActiveCount = len(t.active) }
func (t *Tree) unmarkActive(n ies.NodeHandle) { delete(t.active, n); t.Counters.ActiveCount = len(t.active) }
