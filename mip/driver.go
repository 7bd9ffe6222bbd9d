package mip

import (
	"math"
	"time"

	"github.com/jjhbw/go-ies/ies"
	"github.com/jjhbw/go-ies/lpengine"
	"github.com/jjhbw/go-ies/master"
	"gonum.org/v1/gonum/floats"
)

// Run executes the branch-and-cut main loop (spec.md §4.5) starting with
// tree's root revived and empty. cb is invoked at every event point
// (spec.md §4.4); it must not call Run recursively and must not create or
// delete nodes on tree.IES directly.
//
// Run returns ErrInitialRelaxationInfeasible if the root LP is infeasible,
// ErrNoIntegerFeasibleSolution if the active list drains without ever
// recording an incumbent, a *LimitReached if a configured budget was
// exhausted, or a *LpEngineError if the LP engine ever returns a status
// outside {Optimal, Infeasible, ObjLimitReached, IterLimitReached}.
func Run(tree *Tree, cb Callback) error {
	d := &driver{tree: tree, cb: cb, start: timeNow()}
	return d.run()
}

// timeNow is isolated so tests can fake wall-clock time if ever needed;
// the driver only ever compares durations against it.
var timeNow = time.Now

type driver struct {
	tree  *Tree
	cb    Callback
	start time.Time
}

func (d *driver) fire(ev Event, node ies.NodeHandle) *Context {
	ctx := &Context{tree: d.tree, node: node}
	d.cb(ctx, ev)
	return ctx
}

// fireDel is installed as the master set's item hook (spec.md §4.7) so that
// DelVar/DelCon fire just before a column/row is physically destroyed,
// whichever subproblem happens to be current at the time.
func (d *driver) fireDel(it *master.Item) {
	ev := DelCon
	if it.Kind() == master.Col {
		ev = DelVar
	}
	ctx := &Context{tree: d.tree, node: d.tree.IES.Current(), delItem: it.Handle()}
	d.cb(ctx, ev)
}

func (d *driver) checkLimits() error {
	lim := d.tree.Limits
	if lim.IterLimit > 0 && d.tree.IES.Mirror().Engine().IterCount() >= lim.IterLimit {
		return &LimitReached{Kind: "iterations"}
	}
	if lim.NodeLimit > 0 && d.tree.IES.Size() >= lim.NodeLimit {
		return &LimitReached{Kind: "subproblems"}
	}
	if lim.TimeLimit > 0 && timeNow().Sub(d.start) >= lim.TimeLimit {
		return &LimitReached{Kind: "time"}
	}
	return nil
}

func (d *driver) run() error {
	d.tree.IES.Master().SetHook(d.fireDel)

	root, err := d.tree.IES.CreateNode(0)
	if err != nil {
		return err
	}
	if err := d.tree.IES.Revive(root); err != nil {
		return err
	}
	d.tree.global = root

	d.fire(Init, root)

	if status, err := d.solve(lpengine.SolveParams{}); err != nil {
		return err
	} else if status != lpengine.Optimal {
		return ErrInitialRelaxationInfeasible
	}
	d.tree.markActive(root)

	for len(d.tree.active) > 0 {
		if err := d.checkLimits(); err != nil {
			return err
		}

		if d.tree.IES.Current() == 0 {
			ctx := d.fire(Select, 0)
			sel := ctx.selected
			if sel == 0 || !d.tree.active[sel] {
				sel = d.backtrack()
			}
			if sel == 0 {
				break
			}
			if err := d.tree.IES.Revive(sel); err != nil {
				return err
			}
		}

		cur := d.tree.IES.Current()
		d.fire(BeginSub, cur)

		outcome, err := d.reoptimize(cur)
		if err != nil {
			d.fire(EndSub, cur)
			return err
		}

		switch outcome {
		case outcomeFathomed:
			d.fire(Reject, cur)
			d.unmarkAndPrune(cur)
		case outcomeIncumbent:
			d.fire(Bingo, cur)
			d.unmarkAndPrune(cur)
			d.cleanup()
		case outcomeBranch:
			if err := d.branch(cur); err != nil {
				d.fire(EndSub, cur)
				return err
			}
		}
		d.fire(EndSub, cur)
	}

	d.fire(Term, 0)

	if !d.tree.Found {
		return ErrNoIntegerFeasibleSolution
	}
	return nil
}

type outcome int

const (
	outcomeFathomed outcome = iota
	outcomeIncumbent
	outcomeBranch
)

// reoptimize runs the inner re-optimisation loop for the current subproblem
// (spec.md §4.5 step 2c): solve, recover feasibility, price columns, fathom,
// GenCon, check integrality, record an incumbent, GenCut, Branch.
func (d *driver) reoptimize(cur ies.NodeHandle) (outcome, error) {
	for {
		if err := d.checkLimits(); err != nil {
			return 0, err
		}

		d.fire(BeginLP, cur)
		status, err := d.solve(d.solveParams())
		d.fire(EndLP, cur)
		if err != nil {
			return 0, err
		}

		if status == lpengine.Infeasible {
			added, err := d.recoverFeasibility()
			if err != nil {
				return 0, err
			}
			if added {
				continue
			}
			return outcomeFathomed, nil
		}

		added, err := d.priceColumns()
		if err != nil {
			return 0, err
		}
		if added {
			continue
		}

		if d.fathomed() {
			return outcomeFathomed, nil
		}

		ctx := d.fire(GenCon, cur)
		if len(ctx.addedRows) > 0 {
			continue
		}

		fracCol, sumInf := d.checkIntegrality()
		d.tree.sumInf[cur] = sumInf
		d.tree.lpVal[cur] = d.tree.IES.Mirror().Engine().ObjValue()

		if fracCol == 0 {
			d.recordIncumbent()
			return outcomeIncumbent, nil
		}

		ctx = d.fire(GenCut, cur)
		if len(ctx.addedRows) > 0 {
			continue
		}

		ctx = d.fire(Branch, cur)
		brVar := ctx.brVar
		heir := ctx.heir
		if !ctx.brSet {
			brVar, heir = d.defaultBranch(cur)
		}
		d.tree.branchVar = brVar
		d.tree.branchHeir = heir
		return outcomeBranch, nil
	}
}

func (d *driver) solveParams() lpengine.SolveParams {
	p := lpengine.SolveParams{Dual: true}
	if d.tree.Found {
		p.HasCutoff = true
		p.ObjCutoff = d.tree.Incumbent.Obj
	}
	if d.tree.Limits.IterLimit > 0 {
		p.IterLimit = d.tree.Limits.IterLimit - d.tree.IES.Mirror().Engine().IterCount()
	}
	return p
}

func (d *driver) solve(p lpengine.SolveParams) (lpengine.Status, error) {
	status, err := d.tree.IES.Mirror().Engine().Simplex(p)
	if err != nil {
		return status, err
	}
	switch status {
	case lpengine.Optimal, lpengine.Infeasible, lpengine.ObjLimitReached, lpengine.IterLimitReached:
		return status, nil
	default:
		return status, &LpEngineError{Status: status}
	}
}

// fathomed reports whether the current LP optimum is no better than the
// incumbent within relative tolerance (spec.md §4.5 step 2c).
func (d *driver) fathomed() bool {
	if !d.tree.Found {
		return false
	}
	lp := d.tree.IES.Mirror().Engine().ObjValue()
	tol := d.tree.Tol.Obj * (1 + math.Abs(d.tree.Incumbent.Obj))
	if floats.EqualWithinAbs(lp, d.tree.Incumbent.Obj, tol) {
		return true
	}
	if d.tree.Dir == Min {
		return lp > d.tree.Incumbent.Obj
	}
	return lp < d.tree.Incumbent.Obj
}

// priceColumns scans master columns absent from the current subproblem,
// keeping the (up to) 10 with the most negative reduced cost (spec.md §4.5
// step 2c). Against an engine with SupportsDuals false this degrades to
// plain-objective pricing (every row's dual contribution is 0), which can
// still usefully pull in a column whose own coefficient is attractive, but
// no longer accounts for the rows it would enter.
func (d *driver) priceColumns() (bool, error) {
	return d.priceColumnsAgainst(false)
}

func (d *driver) priceColumnsAgainst(auxiliary bool) (bool, error) {
	set := d.tree.IES.Master()
	type candidate struct {
		handle master.ItemHandle
		rc     float64
	}
	var candidates []candidate

	for h := set.NextCol(0); h != 0; h = set.NextCol(h) {
		it := set.Col(h)
		if it.Bound() {
			continue
		}
		var objCoef float64
		if !auxiliary {
			objCoef = it.DefaultObjCoef()
		}
		// Rows missing from the current subproblem contribute a zero dual
		// (spec.md §4.5); resolving ordinals here, rather than inside the
		// engine, keeps the Engine boundary free of master-handle lookups.
		var incidence []lpengine.RowOrdCoef
		for _, cc := range set.ColCells(h) {
			row := set.Row(cc.Row)
			if row.Bound() {
				incidence = append(incidence, lpengine.RowOrdCoef{Ordinal: row.Binding(), Value: cc.Value})
			}
		}
		rc := d.tree.IES.Mirror().Engine().ReducedCost(objCoef, incidence)
		if d.tree.Dir == Max {
			rc = -rc
		}
		if rc < -d.tree.Tol.Obj {
			candidates = append(candidates, candidate{handle: h, rc: rc})
		}
	}
	if len(candidates) == 0 {
		return false, nil
	}

	for i := 0; i < len(candidates); i++ {
		for k := i + 1; k < len(candidates); k++ {
			if candidates[k].rc < candidates[i].rc {
				candidates[i], candidates[k] = candidates[k], candidates[i]
			}
		}
	}
	if len(candidates) > 10 {
		candidates = candidates[:10]
	}

	handles := make([]master.ItemHandle, len(candidates))
	for i, c := range candidates {
		handles[i] = c.handle
	}
	if err := d.tree.IES.AddCols(handles); err != nil {
		return false, err
	}
	return true, nil
}

// checkIntegrality marks each integer column's infeas flag and accumulates
// the sum of fractionalities (spec.md §4.5 step 2c).
func (d *driver) checkIntegrality() (fracCol master.ItemHandle, sumInf float64) {
	set := d.tree.IES.Master()
	engine := d.tree.IES.Mirror().Engine()

	for h := set.NextCol(0); h != 0; h = set.NextCol(h) {
		if !d.tree.IsInteger(h) {
			continue
		}
		it := set.Col(h)
		if !it.Bound() {
			continue
		}
		ord := it.Binding()
		if engine.ColStat(ord) != lpengine.Basic {
			d.tree.infeas[h] = false
			continue
		}
		val := engine.ColPrim(ord)
		frac := fractionality(val)
		if floats.EqualWithinAbs(frac, 0, d.tree.Tol.Int*(1+math.Abs(val))) {
			d.tree.infeas[h] = false
			continue
		}
		d.tree.infeas[h] = true
		sumInf += frac
		if fracCol == 0 {
			fracCol = h
		}
	}
	return fracCol, sumInf
}

func fractionality(v float64) float64 {
	f := v - math.Floor(v)
	if f > 0.5 {
		f = 1 - f
	}
	return f
}

// recordIncumbent copies all row and column primal values into the
// incumbent (spec.md §4.5 step 2c).
func (d *driver) recordIncumbent() {
	set := d.tree.IES.Master()
	engine := d.tree.IES.Mirror().Engine()

	inc := &Incumbent{
		Obj:     engine.ObjValue(),
		RowPrim: make(map[master.ItemHandle]float64),
		ColPrim: make(map[master.ItemHandle]float64),
	}
	for h := set.NextRow(0); h != 0; h = set.NextRow(h) {
		it := set.Row(h)
		if it.Bound() {
			inc.RowPrim[h] = engine.RowPrim(it.Binding())
		}
	}
	for h := set.NextCol(0); h != 0; h = set.NextCol(h) {
		it := set.Col(h)
		if it.Bound() {
			inc.ColPrim[h] = engine.ColPrim(it.Binding())
		}
	}
	d.tree.Incumbent = inc
	d.tree.Found = true
	d.tree.Counters.SolvedCount++
}

// cleanup prunes every active node whose parent's LP value is not strictly
// better than the new incumbent (spec.md §4.5 step 2c).
func (d *driver) cleanup() {
	tol := d.tree.Tol.Obj * (1 + math.Abs(d.tree.Incumbent.Obj))
	for n := range d.tree.active {
		node := d.tree.IES.Node(n)
		if node == nil {
			continue
		}
		parentVal, ok := d.tree.lpVal[node.Parent()]
		if !ok {
			continue
		}
		better := !floats.EqualWithinAbs(parentVal, d.tree.Incumbent.Obj, tol)
		if d.tree.Dir == Min {
			better = better && parentVal < d.tree.Incumbent.Obj
		} else {
			better = better && parentVal > d.tree.Incumbent.Obj
		}
		if !better {
			d.tree.unmarkActive(n)
			_ = d.tree.IES.PruneBranch(n)
		}
	}
}

func (d *driver) unmarkAndPrune(n ies.NodeHandle) {
	d.tree.unmarkActive(n)
	_ = d.tree.IES.PruneBranch(n)
	if d.tree.IES.Current() == n {
		_ = d.tree.IES.Revive(0)
	}
}

// branch creates the down/up children of the current subproblem on its
// branching variable's current basic value (spec.md §4.5 step 2d).
func (d *driver) branch(cur ies.NodeHandle) error {
	brVar := d.tree.branchVar
	it := d.tree.IES.Master().Col(brVar)
	x := d.tree.IES.Mirror().Engine().ColPrim(it.Binding())
	_, lb, ub := it.DefaultBounds()

	down, err := d.tree.IES.CreateNode(cur)
	if err != nil {
		return err
	}
	if err := d.applyBound(down, brVar, lb, math.Floor(x)); err != nil {
		return err
	}

	up, err := d.tree.IES.CreateNode(cur)
	if err != nil {
		return err
	}
	if err := d.applyBound(up, brVar, math.Ceil(x), ub); err != nil {
		return err
	}

	d.tree.unmarkActive(cur)
	d.tree.markActive(down)
	d.tree.markActive(up)

	switch d.tree.branchHeir {
	case 1:
		return d.tree.IES.Revive(down)
	case 2:
		return d.tree.IES.Revive(up)
	default:
		return d.tree.IES.Revive(0)
	}
}

// applyBound revives node and records a BoundsPatch tightening brVar to
// [newLB, newUB], asserting the bound stays integral (spec.md §4.5 step 2d,
// §4.8).
func (d *driver) applyBound(node ies.NodeHandle, brVar master.ItemHandle, newLB, newUB float64) error {
	if !isIntegral(newLB) {
		return &ies.ErrNonIntegralBound{Value: newLB}
	}
	if !isIntegral(newUB) {
		return &ies.ErrNonIntegralBound{Value: newUB}
	}
	if err := d.tree.IES.Revive(node); err != nil {
		return err
	}
	m := d.tree.IES.Mirror()
	it := d.tree.IES.Master().Col(brVar)
	ord := it.Binding()
	bt := master.DoubleBounded
	if newLB == newUB {
		bt = master.Fixed
	}
	m.Engine().SetColBounds(ord, bt, newLB, newUB)
	return nil
}

func isIntegral(v float64) bool {
	return math.Abs(v-math.Round(v)) < 1e-9
}

// backtrack selects the next active node per the configured default rule
// (spec.md §4.6), used when Select left nothing current.
func (d *driver) backtrack() ies.NodeHandle {
	if len(d.tree.active) == 0 {
		return 0
	}
	switch d.tree.Backtrack {
	case BacktrackFIFO:
		return d.firstActive()
	case BacktrackBestProjection:
		return d.bestProjection()
	default: // BacktrackLIFO
		return d.lastActive()
	}
}

func (d *driver) firstActive() ies.NodeHandle {
	for n := d.tree.IES.NextNode(0); n != 0; n = d.tree.IES.NextNode(n) {
		if d.tree.active[n] {
			return n
		}
	}
	return 0
}

func (d *driver) lastActive() ies.NodeHandle {
	var last ies.NodeHandle
	for n := d.tree.IES.NextNode(0); n != 0; n = d.tree.IES.NextNode(n) {
		if d.tree.active[n] {
			last = n
		}
	}
	return last
}

// bestProjection implements spec.md §4.6's best-projection backtracking
// rule: with no incumbent, pick the active node whose parent's LP value is
// best; with an incumbent, project each node's own LP value by a
// per-unit-infeasibility degradation and pick the best projection.
func (d *driver) bestProjection() ies.NodeHandle {
	root := d.tree.IES.Root()
	rootLP, rootSumInf := d.tree.lpVal[root], d.tree.sumInf[root]

	var best ies.NodeHandle
	var bestScore float64
	first := true

	for n := range d.tree.active {
		node := d.tree.IES.Node(n)
		if node == nil {
			continue
		}
		var score float64
		if !d.tree.Found {
			var ok bool
			score, ok = d.tree.lpVal[node.Parent()]
			if !ok {
				continue
			}
		} else if rootSumInf > 0 {
			deg := (d.tree.Incumbent.Obj - rootLP) / rootSumInf
			score = d.tree.lpVal[n] + deg*d.tree.sumInf[n]
		} else {
			score = d.tree.lpVal[n]
		}

		if first {
			best, bestScore, first = n, score, false
			continue
		}
		if d.tree.Dir == Min {
			if score < bestScore {
				best, bestScore = n, score
			}
		} else if score > bestScore {
			best, bestScore = n, score
		}
	}
	return best
}
