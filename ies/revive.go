package ies

import (
	"github.com/jjhbw/go-ies/lpengine"
	"github.com/jjhbw/go-ies/master"
)

// replayedItem is the effective state an item would have if the subproblem
// represented by a root-to-node path were fully materialised: present or
// not, and if present, its locally-effective type/bounds/objective
// coefficient/basis status (spec.md §4.3 steps 6-7 folded into one pass).
type replayedItem struct {
	present bool
	typ     master.BoundType
	lb, ub  float64
	obj     float64
	status  lpengine.BasisStatus
}

// pathTo returns the root-to-h node chain, root first.
func (t *Tree) pathTo(h NodeHandle) []*Node {
	var rev []*Node
	for h != 0 {
		n := t.node(h)
		if n == nil {
			break
		}
		rev = append(rev, n)
		h = n.parent
	}
	for i, j := 0, len(rev)-1; i < j; i, j = i+1, j-1 {
		rev[i], rev[j] = rev[j], rev[i]
	}
	return rev
}

// replayPath folds a root-to-node path's five patch lists into the
// effective state of every item reachable along it, plus the effective
// objective constant (spec.md §4.3 steps 6-7: every item present at the end
// starts from the master default and is overwritten, in order, by each
// ancestor's own bounds/obj-coef/status patch for it).
func replayPath(set *master.Set, path []*Node) (map[ItemRef]*replayedItem, float64) {
	state := make(map[ItemRef]*replayedItem)
	var objConst float64

	for _, n := range path {
		for _, ref := range n.del {
			delete(state, ref)
		}
		for _, ref := range n.add {
			it := set.Item(ref.Kind, ref.Handle)
			typ, lb, ub := it.DefaultBounds()
			state[ref] = &replayedItem{
				present: true,
				typ:     typ,
				lb:      lb,
				ub:      ub,
				obj:     it.DefaultObjCoef(),
				status:  lpengine.Basic,
			}
		}
		for _, p := range n.bounds {
			if ri, ok := state[p.Item]; ok {
				ri.typ, ri.lb, ri.ub = p.Type, p.LB, p.UB
			}
		}
		for _, p := range n.obj {
			if p.Item.IsConst() {
				objConst = p.Coef
				continue
			}
			if ri, ok := state[p.Item]; ok {
				ri.obj = p.Coef
			}
		}
		for _, p := range n.status {
			if ri, ok := state[p.Item]; ok {
				ri.status = p.Status
			}
		}
	}
	return state, objConst
}

// reviveTo leaves the LP Mirror holding exactly target's state, demoting
// whatever is current first (spec.md §4.3).
func (t *Tree) reviveTo(target NodeHandle) error {
	n := t.node(target)
	if n == nil || n.destroyed() {
		return &ContractViolation{Op: "Revive", Detail: "target node is destroyed or unknown"}
	}
	if t.current == target {
		return nil
	}
	if t.current != 0 {
		if err := t.demoteCurrent(); err != nil {
			return err
		}
	}

	path := t.pathTo(target)
	state, objConst := replayPath(t.master, path)
	m := t.mirror

	// step 4: delete every mirror item absent from the target state.
	for i := 1; i <= m.NumRows(); i++ {
		ref := m.rowItem[i]
		if ref == (ItemRef{}) {
			continue
		}
		if _, keep := state[ref]; !keep {
			m.engine.MarkRowForDeletion(i)
			m.rowItem[i] = ItemRef{}
			t.master.SetBinding(master.Row, ref.Handle, 0)
		}
	}
	for j := 1; j <= m.NumCols(); j++ {
		ref := m.colItem[j]
		if ref == (ItemRef{}) {
			continue
		}
		if _, keep := state[ref]; !keep {
			m.engine.MarkColForDeletion(j)
			m.colItem[j] = ItemRef{}
			t.master.SetBinding(master.Col, ref.Handle, 0)
		}
	}
	m.engine.DeleteMarked()

	// step 5: collect items present in the target state but absent from the
	// mirror, in walk order, and place them (reusing freed slots first).
	var newRows, newCols []ItemRef
	seen := make(map[ItemRef]bool)
	for _, nd := range path {
		for _, ref := range nd.add {
			if seen[ref] {
				continue
			}
			ri, wanted := state[ref]
			if !wanted || !ri.present {
				continue
			}
			it := t.master.Item(ref.Kind, ref.Handle)
			if it.Bound() {
				continue
			}
			seen[ref] = true
			if ref.Kind == master.Row {
				newRows = append(newRows, ref)
			} else {
				newCols = append(newCols, ref)
			}
		}
	}

	var rowOrds, colOrds []int
	if len(newRows) > 0 {
		rowOrds = m.placeRows(newRows)
		for k, ref := range newRows {
			t.master.SetBinding(master.Row, ref.Handle, rowOrds[k])
		}
	}
	if len(newCols) > 0 {
		colOrds = m.placeCols(newCols)
		for k, ref := range newCols {
			t.master.SetBinding(master.Col, ref.Handle, colOrds[k])
		}
	}

	// steps 6-7 (folded into state by replayPath) + step 8: push attributes
	// and the coefficient matrix into the engine and the mirror arrays.
	m.objConst = objConst
	m.engine.SetObjConst(objConst)

	for ref, ri := range state {
		it := t.master.Item(ref.Kind, ref.Handle)
		ord := it.Binding()
		if ord == 0 {
			continue // defensive: should be unreachable given the placement pass above
		}
		if ref.Kind == master.Row {
			m.rowType[ord], m.rowLB[ord], m.rowUB[ord] = ri.typ, ri.lb, ri.ub
			m.rowStatus[ord] = ri.status
			m.engine.SetRowBounds(ord, ri.typ, ri.lb, ri.ub)
			m.engine.SetRowStat(ord, ri.status)
		} else {
			m.colType[ord], m.colLB[ord], m.colUB[ord] = ri.typ, ri.lb, ri.ub
			m.colObj[ord] = ri.obj
			m.colStatus[ord] = ri.status
			m.engine.SetColBounds(ord, ri.typ, ri.lb, ri.ub)
			m.engine.SetObjCoef(ord, ri.obj)
			m.engine.SetColStat(ord, ri.status)
		}
	}

	t.pushMatrix(state, newRows, newCols)

	n.active = true
	n.del, n.add, n.bounds, n.obj, n.status = nil, nil, nil, nil, nil
	t.current = target
	return nil
}

// pushMatrix wires the coefficient matrix for the current target state.
// Below RebuildThreshold, only rows/cols touching a newly-placed item are
// resent incrementally (coefficients never change once created, so an
// unchanged row/col pair is already correctly wired in the engine from a
// prior revive); at or above it, the whole matrix is rebuilt in one call
// (spec.md §4.3 step 8).
func (t *Tree) pushMatrix(state map[ItemRef]*replayedItem, newRows, newCols []ItemRef) {
	m := t.mirror
	if len(newRows)+len(newCols) >= RebuildThreshold {
		var ia, ja []int
		var ar []float64
		for ref := range state {
			if ref.Kind != master.Row {
				continue
			}
			it := t.master.Row(ref.Handle)
			i := it.Binding()
			for _, rc := range t.master.RowCells(ref.Handle) {
				if _, ok := state[ItemRef{Kind: master.Col, Handle: rc.Col}]; !ok {
					continue
				}
				j := t.master.Col(rc.Col).Binding()
				ia = append(ia, i)
				ja = append(ja, j)
				ar = append(ar, rc.Value)
			}
		}
		m.engine.RebuildMatrix(ia, ja, ar)
		return
	}

	for _, ref := range newRows {
		i := t.master.Row(ref.Handle).Binding()
		var ind []int
		var val []float64
		for _, rc := range t.master.RowCells(ref.Handle) {
			if _, ok := state[ItemRef{Kind: master.Col, Handle: rc.Col}]; !ok {
				continue
			}
			j := t.master.Col(rc.Col).Binding()
			if j == 0 {
				continue
			}
			ind = append(ind, j)
			val = append(val, rc.Value)
		}
		m.engine.SetMatRow(i, ind, val)
	}
	for _, ref := range newCols {
		j := t.master.Col(ref.Handle).Binding()
		var ind []int
		var val []float64
		for _, cc := range t.master.ColCells(ref.Handle) {
			if _, ok := state[ItemRef{Kind: master.Row, Handle: cc.Row}]; !ok {
				continue
			}
			i := t.master.Row(cc.Row).Binding()
			if i == 0 {
				continue
			}
			ind = append(ind, i)
			val = append(val, cc.Value)
		}
		m.engine.SetMatCol(j, ind, val)
	}
}

// demoteCurrent materialises the current node's patch lists relative to its
// parent and clears the current pointer (spec.md §4.3, "Demotion").
func (t *Tree) demoteCurrent() error {
	cur := t.current
	if cur == 0 {
		return nil
	}
	n := t.node(cur)

	var parentState map[ItemRef]*replayedItem
	var parentObjConst float64
	if n.parent != 0 {
		parentState, parentObjConst = replayPath(t.master, t.pathTo(n.parent))
	} else {
		parentState = make(map[ItemRef]*replayedItem)
	}

	m := t.mirror
	var del, add []ItemRef
	var bounds []BoundsPatch
	var obj []ObjPatch
	var status []StatusPatch

	seenInMirror := make(map[ItemRef]bool)
	for i := 1; i <= m.NumRows(); i++ {
		ref := m.rowItem[i]
		if ref == (ItemRef{}) {
			continue
		}
		seenInMirror[ref] = true
		classify(t.master, ref, m.rowType[i], m.rowLB[i], m.rowUB[i], 0, m.rowStatus[i],
			parentState, &add, &bounds, &obj, &status, false)
	}
	for j := 1; j <= m.NumCols(); j++ {
		ref := m.colItem[j]
		if ref == (ItemRef{}) {
			continue
		}
		seenInMirror[ref] = true
		classify(t.master, ref, m.colType[j], m.colLB[j], m.colUB[j], m.colObj[j], m.colStatus[j],
			parentState, &add, &bounds, &obj, &status, true)
	}
	for ref := range parentState {
		if !seenInMirror[ref] {
			del = append(del, ref)
		}
	}

	if m.objConst != parentObjConst {
		obj = append(obj, ObjPatch{Item: ItemRef{Kind: master.Row, Handle: 0}, Coef: m.objConst})
	}

	for _, ref := range add {
		t.master.Ref(ref.Kind, ref.Handle)
	}

	n.del, n.add, n.bounds, n.obj, n.status = del, add, bounds, obj, status
	n.active = false
	t.current = 0
	return nil
}

// classify compares one mirror item's effective attributes against its
// value in the parent-materialised state, appending to add/bounds/obj/status
// as needed (spec.md §4.3, "Demotion").
func classify(set *master.Set, ref ItemRef, typ master.BoundType, lb, ub, obj float64, status lpengine.BasisStatus,
	parentState map[ItemRef]*replayedItem, add *[]ItemRef, bounds *[]BoundsPatch, objOut *[]ObjPatch, statusOut *[]StatusPatch, isCol bool) {

	ri, inParent := parentState[ref]
	if !inParent {
		*add = append(*add, ref)
		it := set.Item(ref.Kind, ref.Handle)
		defTyp, defLB, defUB := it.DefaultBounds()
		if typ != defTyp || lb != defLB || ub != defUB {
			*bounds = append(*bounds, BoundsPatch{Item: ref, Type: typ, LB: lb, UB: ub})
		}
		if isCol && obj != it.DefaultObjCoef() {
			*objOut = append(*objOut, ObjPatch{Item: ref, Coef: obj})
		}
		if status != lpengine.Basic {
			*statusOut = append(*statusOut, StatusPatch{Item: ref, Status: status})
		}
		return
	}
	if ri.typ != typ || ri.lb != lb || ri.ub != ub {
		*bounds = append(*bounds, BoundsPatch{Item: ref, Type: typ, LB: lb, UB: ub})
	}
	if isCol && ri.obj != obj {
		*objOut = append(*objOut, ObjPatch{Item: ref, Coef: obj})
	}
	if ri.status != status {
		*statusOut = append(*statusOut, StatusPatch{Item: ref, Status: status})
	}
}
