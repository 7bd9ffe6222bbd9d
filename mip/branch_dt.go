package mip

import (
	"math"

	"github.com/jjhbw/go-ies/lpengine"
	"github.com/jjhbw/go-ies/master"
)

// driebeekTomlinBranch implements spec.md §4.6's Driebeek-Tomlin rule: for
// every fractional integer column, estimate the one-step objective
// degradation of forcing it to its floor and to its ceiling via a dual
// ratio test against the column's simplex tableau row, then branch on the
// column with the largest worst-case degradation, keeping the branch with
// the smaller degradation for later (heir = the harder branch's sibling).
//
// Requires an Engine that implements TableauRow/DualRatioTest; neither
// GLPKEngine nor GonumEngine does (go-glpk does not wrap glp_eval_tab_row,
// and gonum's lp.Simplex exposes no tableau at all), so this always falls
// back to the default first/last rule against the shipped engines — see
// DESIGN.md.
func (d *driver) driebeekTomlinBranch() (master.ItemHandle, int, bool) {
	set := d.tree.IES.Master()
	engine := d.tree.IES.Mirror().Engine()

	var bestCol master.ItemHandle
	var bestWorst float64
	var bestHeir int
	found := false

	for h := set.NextCol(0); h != 0; h = set.NextCol(h) {
		if !d.tree.infeas[h] {
			continue
		}
		it := set.Col(h)
		ord := it.Binding()

		row, err := engine.TableauRow(ord)
		if err == lpengine.ErrUnsupported {
			return 0, 0, false
		}
		if err != nil {
			continue
		}

		x := engine.ColPrim(ord)
		downZ := d.degradation(row, ord, math.Floor(x)-x, -1)
		upZ := d.degradation(row, ord, math.Ceil(x)-x, 1)

		worst := math.Max(math.Abs(downZ), math.Abs(upZ))
		if !found || worst > bestWorst {
			bestCol, bestWorst, found = h, worst, true
			// heir = child with the smaller degradation: keep the harder
			// branch (the larger one) for later in hope of pruning it.
			if math.Abs(downZ) <= math.Abs(upZ) {
				bestHeir = 1
			} else {
				bestHeir = 2
			}
		}
	}
	return bestCol, bestHeir, found
}

// degradation estimates the one-step objective change from forcing column
// ord by delta (negative for floor, positive for ceiling), via a dual
// ratio test on its tableau row (spec.md §4.6).
func (d *driver) degradation(row lpengine.TableauRow, ord int, delta float64, direction int) float64 {
	engine := d.tree.IES.Mirror().Engine()

	result, err := engine.DualRatioTest(row, direction)
	if err != nil || result.Leaving == 0 {
		if d.tree.Dir == Min {
			return math.Inf(1)
		}
		return math.Inf(-1)
	}

	dq := engine.ColDual(result.Leaving)
	// Dual degeneracy can leave dq with a sign that contradicts the leaving
	// variable's non-basic status; such a reduced cost is taken as zero.
	switch engine.ColStat(result.Leaving) {
	case lpengine.NonBasicLower:
		if (d.tree.Dir == Min && dq < 0) || (d.tree.Dir == Max && dq > 0) {
			dq = 0
		}
	case lpengine.NonBasicUpper:
		if (d.tree.Dir == Min && dq > 0) || (d.tree.Dir == Max && dq < 0) {
			dq = 0
		}
	case lpengine.NonBasicFree:
		dq = 0
	}
	steps := delta / result.Alpha
	if isIntegerOrdinal(d.tree, result.Leaving) {
		steps = math.Ceil(math.Abs(steps)) * sign(steps)
	}
	return dq * steps
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

// isIntegerOrdinal reports whether the column currently at ordinal j is
// integer-typed, used to round the ratio-test step count for an
// integer-typed leaving variable (spec.md §4.6).
func isIntegerOrdinal(t *Tree, j int) bool {
	ref := t.IES.Mirror().ColItem(j)
	if ref.Handle == 0 {
		return false
	}
	return t.IsInteger(ref.Handle)
}
