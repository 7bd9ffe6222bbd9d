// Package ilp is the public façade: a builder-pattern MILP problem
// representation (ported from the teacher's api.go) wired onto a
// master.Set, an ies.Tree, and a mip.Tree instead of the teacher's own
// flat per-subproblem copies.
package ilp

import (
	"math"

	"github.com/jjhbw/go-ies/ies"
	"github.com/jjhbw/go-ies/lpengine"
	"github.com/jjhbw/go-ies/master"
	"github.com/jjhbw/go-ies/mip"
)

// Problem is the abstract MILP problem representation: a set of variables
// and constraints, built up with a builder API and converted to a
// master.Set/ies.Tree/mip.Tree only once Solve is called.
type Problem struct {
	// minimizes by default
	maximize bool

	variables   []*Variable
	constraints []*Constraint

	branchingHeuristic BranchHeuristic
	backtrackRule      mip.BacktrackRule
	limits             mip.Limits
	tolerances         mip.Tolerances

	engine func() lpengine.Engine
	logger ies.Logger
	tree   *TreeLogger
}

// A Variable of the MILP problem.
type Variable struct {
	name        string
	coefficient float64
	integer     bool
	upper, lower float64

	// handle is populated by toMaster once the owning Problem is solved.
	handle master.ItemHandle
}

// an expression of a variable and an arbitrary float for use in defining
// constraints, e.g. "-1 * x1".
type expression struct {
	coef     float64
	variable *Variable
}

// Constraint sums a set of expressions and bounds the result.
type Constraint struct {
	expressions []expression
	rhs         float64
	// an equality constraint by default
	inequality bool
	problem    *Problem

	handle master.ItemHandle
}

// NewProblem returns an empty MILP problem: minimizing, the pure-Go
// GonumEngine, first-fractional-column branching, and no resource limits.
//
// GonumEngine, not GLPKEngine, is the default: the teacher's own live LP
// backend (subproblem.go) is gonum-only — its only reference to go-glpk is
// a fully commented-out comparison test, never a compiled dependency — and
// a cgo binding to a system GLPK install is a surprising thing for a
// caller of NewProblem to pull in implicitly. Use WithEngine with
// lpengine.NewGLPKEngine for GLPK's warm-starting, production-grade
// simplex when that tradeoff is wanted.
func NewProblem() Problem {
	return Problem{
		tolerances: mip.DefaultTolerances(),
		engine:     func() lpengine.Engine { return lpengine.NewGonumEngine() },
	}
}

// AddVariable adds a variable and returns a reference to it. Defaults to no
// integrality constraint, an objective coefficient of 0, and bounds [0, +Inf).
func (p *Problem) AddVariable(name string) *Variable {
	v := Variable{
		name:  name,
		upper: math.Inf(1),
		lower: 0,
	}
	p.variables = append(p.variables, &v)
	return &v
}

// SetCoeff sets the value of the variable in the objective function.
func (v *Variable) SetCoeff(coef float64) *Variable {
	v.coefficient = coef
	return v
}

// IsInteger marks the variable as integrality-constrained.
func (v *Variable) IsInteger() *Variable {
	v.integer = true
	return v
}

// UpperBound sets the inclusive upper bound of this variable.
func (v *Variable) UpperBound(bound float64) *Variable {
	v.upper = bound
	return v
}

// LowerBound sets the inclusive lower bound of this variable.
func (v *Variable) LowerBound(bound float64) *Variable {
	v.lower = bound
	return v
}

// AddConstraint starts a new constraint on the problem.
func (p *Problem) AddConstraint() *Constraint {
	c := &Constraint{problem: p}
	p.constraints = append(p.constraints, c)
	return c
}

// EqualTo makes this an equality constraint with the given right-hand side.
func (c *Constraint) EqualTo(val float64) *Constraint {
	c.inequality = false
	c.rhs = val
	return c
}

// SmallerThanOrEqualTo makes this a "<=" constraint with the given right-hand side.
func (c *Constraint) SmallerThanOrEqualTo(val float64) *Constraint {
	c.inequality = true
	c.rhs = val
	return c
}

// AddExpression adds coef*v to the left-hand side of the constraint. Panics
// if v was not obtained from this same Problem's AddVariable.
func (c *Constraint) AddExpression(coef float64, v *Variable) *Constraint {
	c.problem.mustOwn(v)
	c.expressions = append(c.expressions, expression{coef: coef, variable: v})
	return c
}

func (p *Problem) mustOwn(v *Variable) {
	for _, va := range p.variables {
		if va == v {
			return
		}
	}
	panic("ilp: variable does not belong to this Problem")
}

// Maximize sets the problem's objective sense to maximization.
func (p *Problem) Maximize() { p.maximize = true }

// Minimize sets the problem's objective sense to minimization (the default).
func (p *Problem) Minimize() { p.maximize = false }

// BranchingHeuristic selects the default branching rule the driver falls
// back to when Branch leaves no column marked (spec.md §4.6).
func (p *Problem) BranchingHeuristic(choice BranchHeuristic) {
	p.branchingHeuristic = choice
}

// BacktrackRule selects the default backtracking rule (spec.md §4.6).
func (p *Problem) BacktrackRule(choice mip.BacktrackRule) {
	p.backtrackRule = choice
}

// WithLimits installs the iteration/node/time budget the driver cooperatively
// enforces (spec.md §4.5, §4.8).
func (p *Problem) WithLimits(l mip.Limits) {
	p.limits = l
}

// WithTolerances overrides the integrality/objective tolerances (spec.md §3).
func (p *Problem) WithTolerances(t mip.Tolerances) {
	p.tolerances = t
}

// WithEngine overrides the default GonumEngine, e.g. with
// lpengine.NewGLPKEngine for GLPK's warm-starting production simplex.
func (p *Problem) WithEngine(factory func() lpengine.Engine) {
	p.engine = factory
}

// WithLogger installs an ies.Logger for the enumeration tree's debug/info output.
func (p *Problem) WithLogger(l ies.Logger) {
	p.logger = l
}

// WithTreeLogger attaches a TreeLogger that records every subproblem node
// visited during the solve, for later export via TreeLogger.ToDOT.
func (p *Problem) WithTreeLogger(t *TreeLogger) {
	p.tree = t
}
