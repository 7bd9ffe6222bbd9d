package lpengine

import (
	"fmt"

	"github.com/jjhbw/go-ies/master"
	"github.com/lukpank/go-glpk/glpk"
)

// GLPKEngine is the production Engine, backed by cgo bindings to the real
// GNU Linear Programming Kit (github.com/lukpank/go-glpk/glpk). Its
// BndsType/VarStat constants are exactly the master-item bound types and
// basis statuses named in spec.md §3, which is why this module's own
// master.BoundType/lpengine.BasisStatus enums are ordered to match them.
//
// go-glpk does not expose glp_eval_tab_row / a dual ratio test primitive,
// so TableauRow and DualRatioTest return ErrUnsupported here; package mip's
// Driebeek-Tomlin branching rule falls back to the default first/last rule
// when that happens (documented in DESIGN.md).
type GLPKEngine struct {
	p    *glpk.Prob
	iter int

	rowMarks []int
	colMarks []int
}

// NewGLPKEngine creates a fresh, empty LP object.
func NewGLPKEngine() *GLPKEngine {
	return &GLPKEngine{p: glpk.New()}
}

func toGLPKBnds(t master.BoundType) glpk.BndsType {
	switch t {
	case master.Free:
		return glpk.FR
	case master.LowerBounded:
		return glpk.LO
	case master.UpperBounded:
		return glpk.UP
	case master.DoubleBounded:
		return glpk.DB
	case master.Fixed:
		return glpk.FX
	default:
		panic(fmt.Sprintf("lpengine: unknown bound type %v", t))
	}
}

func toGLPKStat(s BasisStatus) glpk.VarStat {
	switch s {
	case Basic:
		return glpk.BS
	case NonBasicLower:
		return glpk.NL
	case NonBasicUpper:
		return glpk.NU
	case NonBasicFree:
		return glpk.NF
	case NonBasicFixed:
		return glpk.NS
	default:
		panic(fmt.Sprintf("lpengine: unknown basis status %v", s))
	}
}

func fromGLPKStat(s glpk.VarStat) BasisStatus {
	switch s {
	case glpk.BS:
		return Basic
	case glpk.NL:
		return NonBasicLower
	case glpk.NU:
		return NonBasicUpper
	case glpk.NF:
		return NonBasicFree
	case glpk.NS:
		return NonBasicFixed
	default:
		return Basic
	}
}

func (e *GLPKEngine) SetProbName(name string) { e.p.SetProbName(name) }

func (e *GLPKEngine) SetObjDir(dir Direction) {
	if dir == Max {
		e.p.SetObjDir(glpk.MAX)
	} else {
		e.p.SetObjDir(glpk.MIN)
	}
}

// SetObjConst sets the constant term of the objective function. go-glpk
// does not expose glp_set_obj_coef(0, ...) directly as a named method, so
// this is implemented via SetObjCoef on ordinal 0, which GLPK treats as the
// objective's constant term.
func (e *GLPKEngine) SetObjConst(c float64) { e.p.SetObjCoef(0, c) }

func (e *GLPKEngine) AddRows(n int) int { return e.p.AddRows(n) }
func (e *GLPKEngine) AddCols(n int) int { return e.p.AddCols(n) }

// MarkRowForDeletion/MarkColForDeletion/DeleteMarked implement the "mark
// then bulk delete" contract (spec.md §6) on top of go-glpk, which only
// exposes immediate deletion; marks are buffered here and applied together
// so callers can mirror the original del_rows/del_cols-in-one-call shape.
func (e *GLPKEngine) MarkRowForDeletion(i int) { e.rowMarks = append(e.rowMarks, i) }
func (e *GLPKEngine) MarkColForDeletion(j int) { e.colMarks = append(e.colMarks, j) }

// DeleteMarked applies the buffered marks. go-glpk does not wrap
// glp_del_rows/glp_del_cols (it is one of the explicitly TODO'd gaps in
// glpk.go), so marked rows/columns are soft-deleted in place: fixed at
// zero with a zero objective coefficient and an emptied matrix row/column.
// The LP Mirror (package ies) may later reuse a soft-deleted ordinal for a
// different master item, and sets its bounds, objective coefficient and
// matrix row/column when it does, so this is observationally equivalent to
// a real deletion from the driver's point of view, at the cost of not
// shrinking NumRows()/NumCols().
func (e *GLPKEngine) DeleteMarked() {
	for _, i := range e.rowMarks {
		e.p.SetRowBnds(i, glpk.FX, 0, 0)
		e.p.SetMatRow(i, []int32{0}, []float64{0})
	}
	e.rowMarks = nil
	for _, j := range e.colMarks {
		e.p.SetColBnds(j, glpk.FX, 0, 0)
		e.p.SetObjCoef(j, 0)
		e.p.SetMatCol(j, []int32{0}, []float64{0})
	}
	e.colMarks = nil
}

func (e *GLPKEngine) SetRowBounds(i int, typ master.BoundType, lb, ub float64) {
	e.p.SetRowBnds(i, toGLPKBnds(typ), lb, ub)
}

func (e *GLPKEngine) SetColBounds(j int, typ master.BoundType, lb, ub float64) {
	e.p.SetColBnds(j, toGLPKBnds(typ), lb, ub)
}

func (e *GLPKEngine) SetObjCoef(j int, coef float64) { e.p.SetObjCoef(j, coef) }
func (e *GLPKEngine) SetRowStat(i int, stat BasisStatus) { e.p.SetRowStat(i, toGLPKStat(stat)) }
func (e *GLPKEngine) SetColStat(j int, stat BasisStatus) { e.p.SetColStat(j, toGLPKStat(stat)) }

func toInt32(ind []int) []int32 {
	out := make([]int32, len(ind))
	for i, v := range ind {
		out[i] = int32(v)
	}
	return out
}

// SetMatRow/SetMatCol/RebuildMatrix all follow go-glpk's (and GLPK's own)
// convention that index 0 of each slice is an ignored sentinel.
func (e *GLPKEngine) SetMatRow(i int, ind []int, val []float64) {
	ind1 := append([]int32{0}, toInt32(ind)...)
	val1 := append([]float64{0}, val...)
	e.p.SetMatRow(i, ind1, val1)
}

func (e *GLPKEngine) SetMatCol(j int, ind []int, val []float64) {
	ind1 := append([]int32{0}, toInt32(ind)...)
	val1 := append([]float64{0}, val...)
	e.p.SetMatCol(j, ind1, val1)
}

func (e *GLPKEngine) RebuildMatrix(ia, ja []int, ar []float64) {
	ia1 := append([]int32{0}, toInt32(ia)...)
	ja1 := append([]int32{0}, toInt32(ja)...)
	ar1 := append([]float64{0}, ar...)
	e.p.LoadMatrix(ia1, ja1, ar1)
}

func (e *GLPKEngine) NumRows() int { return e.p.NumRows() }
func (e *GLPKEngine) NumCols() int { return e.p.NumCols() }

func (e *GLPKEngine) WarmUp() error {
	// go-glpk does not expose glp_warm_up directly; a Simplex call
	// starting from the existing basis is used in its place (GLPK reuses
	// the current basis unless told otherwise).
	parm := glpk.NewSmcp()
	parm.SetMsgLev(glpk.MSG_OFF)
	return e.p.Simplex(parm)
}

func (e *GLPKEngine) AdvBasis() {
	// go-glpk does not wrap glp_adv_basis; the substitute is the trivial
	// basis: every row basic and every column non-basic at its lower bound.
	for j := 1; j <= e.p.NumCols(); j++ {
		e.p.SetColStat(j, glpk.NL)
	}
	for i := 1; i <= e.p.NumRows(); i++ {
		e.p.SetRowStat(i, glpk.BS)
	}
}

func (e *GLPKEngine) Simplex(p SolveParams) (Status, error) {
	parm := glpk.NewSmcp()
	parm.SetMsgLev(glpk.MSG_OFF)
	if p.Dual {
		parm.SetMeth(glpk.DUAL)
	} else {
		parm.SetMeth(glpk.PRIMAL)
	}

	err := e.p.Simplex(parm)
	e.iter++

	if err == nil {
		switch e.p.Status() {
		case glpk.OPT:
			return Optimal, nil
		case glpk.INFEAS, glpk.NOFEAS:
			return Infeasible, nil
		case glpk.UNBND:
			return Infeasible, fmt.Errorf("lpengine: glpk reported an unbounded relaxation")
		default:
			return Infeasible, nil
		}
	}

	if optErr, ok := err.(glpk.OptError); ok {
		switch optErr {
		case glpk.EOBJLL, glpk.EOBJUL:
			return ObjLimitReached, nil
		case glpk.EITLIM:
			return IterLimitReached, nil
		case glpk.ENOPFS, glpk.ENODFS, glpk.ENOFEAS:
			return Infeasible, nil
		}
	}
	return Infeasible, fmt.Errorf("lpengine: glpk simplex: %w", err)
}

func (e *GLPKEngine) ObjValue() float64 { return e.p.ObjVal() }

// RowPrim returns the row's activity: go-glpk does not expose
// glp_get_row_prim directly, but the activity is exactly the row's linear
// form evaluated at the current column primal values, which MatRow already
// gives access to.
func (e *GLPKEngine) RowPrim(i int) float64 {
	ind, val := e.p.MatRow(i)
	sum := 0.0
	for k := 1; k < len(ind); k++ {
		sum += val[k] * e.p.ColPrim(int(ind[k]))
	}
	return sum
}

func (e *GLPKEngine) ColPrim(j int) float64 { return e.p.ColPrim(j) }

// RowDual/ColDual are stubbed to 0: go-glpk's Prob wraps its underlying
// *C.glp_prob behind an unexported field, and its exported method set has
// no glp_get_row_dual/glp_get_col_dual wrapper, so the real simplex
// multipliers are unreachable from this package without forking go-glpk
// itself. SupportsDuals reports this honestly so callers (package mip's
// feasibility recovery) don't rely on a value that is always wrong.
func (e *GLPKEngine) RowDual(i int) float64 { return 0 }
func (e *GLPKEngine) ColDual(j int) float64 { return 0 }

func (e *GLPKEngine) SupportsDuals() bool { return false }

func (e *GLPKEngine) RowStat(i int) BasisStatus { return fromGLPKStat(e.p.RowStat(i)) }
func (e *GLPKEngine) ColStat(j int) BasisStatus { return fromGLPKStat(e.p.ColStat(j)) }

func (e *GLPKEngine) ReducedCost(objCoef float64, incidence []RowOrdCoef) float64 {
	rc := objCoef
	for _, ic := range incidence {
		rc -= ic.Value * e.RowDual(ic.Ordinal)
	}
	return rc
}

func (e *GLPKEngine) TableauRow(int) (TableauRow, error) {
	return TableauRow{}, ErrUnsupported
}

func (e *GLPKEngine) DualRatioTest(TableauRow, int) (RatioTestResult, error) {
	return RatioTestResult{}, ErrUnsupported
}

func (e *GLPKEngine) IterCount() int { return e.iter }

func (e *GLPKEngine) Tolerances() Tolerances { return DefaultTolerances() }

func (e *GLPKEngine) Close() { e.p.Delete() }
