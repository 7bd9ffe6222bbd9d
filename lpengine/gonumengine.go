package lpengine

import (
	"fmt"

	"github.com/jjhbw/go-ies/master"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// GonumEngine is a pure-Go Engine backed by gonum.org/v1/gonum/optimize/convex/lp,
// adapted from the teacher's lp.Simplex usage (subproblem.go). It rebuilds
// a dense standard-form tableau from scratch on every Simplex call, so it
// cannot warm-start and is meant as a small-problem reference/test engine,
// not a production one (use GLPKEngine for that).
//
// Documented limitations, acceptable for a test double:
//   - Columns must be non-negative: a Free or negative-lower-bound column
//     returns an error from Simplex, and an UpperBounded column gets the
//     implicit lower bound 0. Positive lower bounds, finite upper bounds and
//     Fixed values are enforced as extra rows.
//   - Row bounds: Fixed rows become equalities; LowerBounded/UpperBounded/
//     DoubleBounded rows become a single "<=" inequality on the tighter of
//     the two finite bounds actually set (DoubleBounded's lower bound is
//     not separately enforced — use GLPKEngine when both sides matter).
//   - TableauRow/DualRatioTest return ErrUnsupported: gonum's lp.Simplex
//     does not expose the simplex tableau or a warm basis to ratio-test
//     against.
type GonumEngine struct {
	dir      Direction
	objConst float64

	rowType []master.BoundType
	rowLB   []float64
	rowUB   []float64
	colType []master.BoundType
	colLB   []float64
	colUB   []float64
	objCoef []float64

	// sparse coefficient storage, 1-based ordinals as keys
	mat map[[2]int]float64

	rowStat []BasisStatus
	colStat []BasisStatus

	rowDelMark []bool
	colDelMark []bool

	lastZ     float64
	lastX     []float64
	iterCount int
}

// NewGonumEngine returns an empty engine, with row/col ordinal 0 reserved
// (ordinals are 1-based, matching GLPK's convention).
func NewGonumEngine() *GonumEngine {
	return &GonumEngine{
		rowType: []master.BoundType{0},
		rowLB:   []float64{0},
		rowUB:   []float64{0},
		colType: []master.BoundType{0},
		colLB:   []float64{0},
		colUB:   []float64{0},
		objCoef: []float64{0},
		mat:     make(map[[2]int]float64),
		rowStat: []BasisStatus{Basic},
		colStat: []BasisStatus{Basic},
	}
}

func (e *GonumEngine) SetProbName(string)         {}
func (e *GonumEngine) SetObjDir(dir Direction)    { e.dir = dir }
func (e *GonumEngine) SetObjConst(c float64)      { e.objConst = c }
func (e *GonumEngine) NumRows() int               { return len(e.rowType) - 1 }
func (e *GonumEngine) NumCols() int                { return len(e.colType) - 1 }

func (e *GonumEngine) AddRows(n int) int {
	first := len(e.rowType)
	for i := 0; i < n; i++ {
		e.rowType = append(e.rowType, master.Free)
		e.rowLB = append(e.rowLB, 0)
		e.rowUB = append(e.rowUB, 0)
		e.rowStat = append(e.rowStat, Basic)
		e.rowDelMark = append(e.rowDelMark, false)
	}
	return first
}

func (e *GonumEngine) AddCols(n int) int {
	first := len(e.colType)
	for i := 0; i < n; i++ {
		e.colType = append(e.colType, master.LowerBounded)
		e.colLB = append(e.colLB, 0)
		e.colUB = append(e.colUB, 0)
		e.objCoef = append(e.objCoef, 0)
		e.colStat = append(e.colStat, NonBasicLower)
		e.colDelMark = append(e.colDelMark, false)
	}
	return first
}

func (e *GonumEngine) MarkRowForDeletion(i int) { e.rowDelMark[i] = true }
func (e *GonumEngine) MarkColForDeletion(j int) { e.colDelMark[j] = true }

// DeleteMarked does not renumber ordinals: marked rows are made Free, which
// the next Simplex build skips, and marked columns are fixed at zero with a
// zero objective coefficient. The LP Mirror may later reuse such an ordinal
// for another item, and sets its bounds, objective coefficient and matrix
// row/column when it does.
func (e *GonumEngine) DeleteMarked() {
	for i, marked := range e.rowDelMark {
		if marked {
			e.rowType[i] = master.Free
			e.rowLB[i], e.rowUB[i] = 0, 0
			e.rowDelMark[i] = false
		}
	}
	for j, marked := range e.colDelMark {
		if marked {
			e.colType[j] = master.Fixed
			e.colLB[j], e.colUB[j] = 0, 0
			e.objCoef[j] = 0
			e.colDelMark[j] = false
		}
	}
}

func (e *GonumEngine) SetRowBounds(i int, typ master.BoundType, lb, ub float64) {
	e.rowType[i], e.rowLB[i], e.rowUB[i] = typ, lb, ub
}

func (e *GonumEngine) SetColBounds(j int, typ master.BoundType, lb, ub float64) {
	e.colType[j], e.colLB[j], e.colUB[j] = typ, lb, ub
}

func (e *GonumEngine) SetObjCoef(j int, coef float64) { e.objCoef[j] = coef }
func (e *GonumEngine) SetRowStat(i int, stat BasisStatus) { e.rowStat[i] = stat }
func (e *GonumEngine) SetColStat(j int, stat BasisStatus) { e.colStat[j] = stat }

func (e *GonumEngine) SetMatRow(i int, ind []int, val []float64) {
	for k := range e.mat {
		if k[0] == i {
			delete(e.mat, k)
		}
	}
	for n, j := range ind {
		if val[n] != 0 {
			e.mat[[2]int{i, j}] = val[n]
		}
	}
}

func (e *GonumEngine) SetMatCol(j int, ind []int, val []float64) {
	for k := range e.mat {
		if k[1] == j {
			delete(e.mat, k)
		}
	}
	for n, i := range ind {
		if val[n] != 0 {
			e.mat[[2]int{i, j}] = val[n]
		}
	}
}

func (e *GonumEngine) RebuildMatrix(ia, ja []int, ar []float64) {
	e.mat = make(map[[2]int]float64, len(ar))
	for k := range ar {
		if ar[k] != 0 {
			e.mat[[2]int{ia[k], ja[k]}] = ar[k]
		}
	}
}

// buildStandardForm converts the current rows/cols/bounds into
// min c^T x s.t. A x = b, x >= 0, following convertToEqualities in the
// teacher's subproblem.go: every row becomes one equality via a slack
// variable, and every column upper bound and positive lower bound becomes
// an extra row.
func (e *GonumEngine) buildStandardForm() (c []float64, A *mat.Dense, b []float64, nStructural int, err error) {
	nStructural = e.NumCols()
	for j := 1; j <= nStructural; j++ {
		if e.colType[j] == master.Free || e.colLB[j] < 0 {
			return nil, nil, nil, 0, fmt.Errorf("lpengine: GonumEngine requires non-negative columns, col %d has lb=%v type=%v", j, e.colLB[j], e.colType[j])
		}
	}

	type ineq struct {
		row map[int]float64
		rhs float64
	}
	var ineqs []ineq
	var eqs []ineq

	for i := 1; i <= e.NumRows(); i++ {
		if e.rowType[i] == master.Free {
			continue
		}
		row := make(map[int]float64)
		for k, v := range e.mat {
			if k[0] == i {
				row[k[1]] = v
			}
		}
		switch e.rowType[i] {
		case master.Fixed:
			eqs = append(eqs, ineq{row: row, rhs: e.rowLB[i]})
		case master.UpperBounded:
			ineqs = append(ineqs, ineq{row: row, rhs: e.rowUB[i]})
		case master.LowerBounded:
			neg := make(map[int]float64, len(row))
			for j, v := range row {
				neg[j] = -v
			}
			ineqs = append(ineqs, ineq{row: neg, rhs: -e.rowLB[i]})
		case master.DoubleBounded:
			ineqs = append(ineqs, ineq{row: row, rhs: e.rowUB[i]})
		}
	}

	for j := 1; j <= nStructural; j++ {
		switch e.colType[j] {
		case master.UpperBounded, master.DoubleBounded, master.Fixed:
			row := map[int]float64{j: 1}
			ineqs = append(ineqs, ineq{row: row, rhs: e.colUB[j]})
		}
		switch e.colType[j] {
		case master.LowerBounded, master.DoubleBounded, master.Fixed:
			if e.colLB[j] > 0 {
				ineqs = append(ineqs, ineq{row: map[int]float64{j: -1}, rhs: -e.colLB[j]})
			}
		}
	}

	nSlack := len(ineqs)
	nVar := nStructural + nSlack
	nCons := nSlack + len(eqs)

	c = make([]float64, nVar)
	for j := 1; j <= nStructural; j++ {
		c[j-1] = e.objCoef[j]
	}
	if e.dir == Max {
		for i := range c {
			c[i] = -c[i]
		}
	}

	Adata := make([]float64, nCons*nVar)
	b = make([]float64, nCons)
	row := 0
	for _, in := range ineqs {
		for j, v := range in.row {
			Adata[row*nVar+(j-1)] = v
		}
		Adata[row*nVar+nStructural+row] = 1
		b[row] = in.rhs
		row++
	}
	for _, eq := range eqs {
		for j, v := range eq.row {
			Adata[row*nVar+(j-1)] = v
		}
		b[row] = eq.rhs
		row++
	}
	A = mat.NewDense(nCons, nVar, Adata)
	return c, A, b, nStructural, nil
}

func (e *GonumEngine) WarmUp() error { return nil }
func (e *GonumEngine) AdvBasis()     {}

func (e *GonumEngine) Simplex(p SolveParams) (Status, error) {
	c, A, b, nStructural, err := e.buildStandardForm()
	if err != nil {
		return IterLimitReached, err
	}

	z, x, err := lp.Simplex(c, A, b, 0, nil)
	e.iterCount++
	if err != nil {
		if err == lp.ErrInfeasible {
			return Infeasible, nil
		}
		return Infeasible, fmt.Errorf("lpengine: gonum simplex: %w", err)
	}

	if e.dir == Max {
		z = -z
	}
	e.lastZ = z + e.objConst
	e.lastX = append([]float64(nil), x[:nStructural]...)
	return Optimal, nil
}

func (e *GonumEngine) ObjValue() float64 { return e.lastZ }

func (e *GonumEngine) RowPrim(i int) float64 {
	sum := 0.0
	for k, v := range e.mat {
		if k[0] == i {
			sum += v * e.ColPrim(k[1])
		}
	}
	return sum
}

func (e *GonumEngine) ColPrim(j int) float64 {
	if j-1 < len(e.lastX) {
		return e.lastX[j-1]
	}
	return 0
}

// RowDual/ColDual are stubbed to 0: gonum.org/v1/gonum/optimize/convex/lp's
// Simplex returns only the optimal value and primal vector, no dual
// solution or tableau to derive one from (see its signature below in
// Simplex). Same documented gap as GLPKEngine's RowDual/ColDual.
func (e *GonumEngine) RowDual(int) float64 { return 0 }
func (e *GonumEngine) ColDual(int) float64 { return 0 }

func (e *GonumEngine) SupportsDuals() bool { return false }

func (e *GonumEngine) RowStat(i int) BasisStatus { return e.rowStat[i] }
func (e *GonumEngine) ColStat(j int) BasisStatus { return e.colStat[j] }

func (e *GonumEngine) ReducedCost(objCoef float64, incidence []RowOrdCoef) float64 {
	rc := objCoef
	for _, ic := range incidence {
		rc -= ic.Value * e.RowDual(ic.Ordinal)
	}
	return rc
}

func (e *GonumEngine) TableauRow(int) (TableauRow, error) {
	return TableauRow{}, ErrUnsupported
}

func (e *GonumEngine) DualRatioTest(TableauRow, int) (RatioTestResult, error) {
	return RatioTestResult{}, ErrUnsupported
}

func (e *GonumEngine) IterCount() int { return e.iterCount }

func (e *GonumEngine) Tolerances() Tolerances { return DefaultTolerances() }

func (e *GonumEngine) Close() {}
