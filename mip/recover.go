package mip

import "github.com/jjhbw/go-ies/master"

// recoverFeasibility replaces the objective with the sum of primal
// infeasibilities, warms up, and prices columns against that auxiliary
// objective to pull in missing columns that might reduce it (spec.md §4.5
// step 2c).
//
// That pricing pass only ever has something to find when the engine
// reports real dual values: every candidate's auxiliary objective
// coefficient is deliberately 0 (everything except the infeasible rows'
// pressure lives in the duals, not the column's own coefficient), so with
// SupportsDuals false every reduced cost is exactly 0 and the loop can
// never select a column. Rather than run a pricing pass that is
// structurally incapable of succeeding, skip it and let the caller fathom
// the subproblem as infeasible outright.
func (d *driver) recoverFeasibility() (bool, error) {
	m := d.tree.IES.Mirror()
	engine := m.Engine()
	set := d.tree.IES.Master()

	if !engine.SupportsDuals() {
		return false, nil
	}

	origObj := make([]float64, m.NumCols()+1)
	for j := 1; j <= m.NumCols(); j++ {
		origObj[j] = m.ColObjCoef(j)
	}

	// Row infeasibility pressure is not set directly: the simplex objective
	// only carries column coefficients, but pulling in a column via its
	// reduced cost against the current row duals already targets whichever
	// rows are driving the infeasibility, since ReducedCost folds RowDual
	// in per spec.md §6's "reduced cost for any master column".
	for j := 1; j <= m.NumCols(); j++ {
		prim := engine.ColPrim(j)
		typ, lb, ub := m.ColBounds(j)
		coef := infeasibilityCoef(typ, lb, ub, prim)
		engine.SetObjCoef(j, coef)
	}

	if err := engine.WarmUp(); err != nil {
		return false, err
	}

	added, err := d.priceColumnsAgainst(true)

	// priceColumnsAgainst may have grown the mirror; restore every
	// pre-existing ordinal to its captured objective, and every newly
	// placed one to its master default (the value addItems just pushed, so
	// there is nothing else to restore it to).
	for j := 1; j <= m.NumCols(); j++ {
		if j < len(origObj) {
			engine.SetObjCoef(j, origObj[j])
			continue
		}
		if ref := m.ColItem(j); ref.Handle != 0 {
			engine.SetObjCoef(j, set.Col(ref.Handle).DefaultObjCoef())
		}
	}

	return added, err
}

// infeasibilityCoef gives a basic value outside its bounds a ±1 objective
// coefficient (spec.md §4.5 step 2c): +1 if it is above its upper bound
// (driving it down), -1 if below its lower bound, 0 if within bounds.
func infeasibilityCoef(typ master.BoundType, lb, ub, value float64) float64 {
	switch typ {
	case master.LowerBounded, master.DoubleBounded, master.Fixed:
		if value < lb {
			return -1
		}
	}
	switch typ {
	case master.UpperBounded, master.DoubleBounded, master.Fixed:
		if value > ub {
			return 1
		}
	}
	return 0
}
