package ies

import (
	"github.com/jjhbw/go-ies/lpengine"
	"github.com/jjhbw/go-ies/master"
)

// Mirror is the LP Mirror (spec.md §3, §4.3): one lpengine.Engine handle
// plus parallel per-ordinal arrays recording which master item currently
// occupies each LP row/column ordinal, its locally-effective type/bounds/
// objective coefficient, and its basis status. Ordinal 0 of each array is
// an unused sentinel, matching master.Set's own arena convention.
type Mirror struct {
	engine lpengine.Engine

	rowItem   []ItemRef
	rowType   []master.BoundType
	rowLB     []float64
	rowUB     []float64
	rowStatus []lpengine.BasisStatus

	colItem   []ItemRef
	colType   []master.BoundType
	colLB     []float64
	colUB     []float64
	colObj    []float64
	colStatus []lpengine.BasisStatus

	objConst float64

	// rowDelMark/colDelMark are only cleared by reset; revive and DelItems
	// flag deletions on the engine directly (MarkRowForDeletion/
	// MarkColForDeletion) and free the ordinal's rowItem/colItem slot.
	rowDelMark []bool
	colDelMark []bool
}

// NewMirror wraps an empty lpengine.Engine. The engine is expected to start
// with zero rows/cols (spec.md §3, "the root's parent state is the empty
// LP").
func NewMirror(engine lpengine.Engine) *Mirror {
	return &Mirror{
		engine:    engine,
		rowItem:   []ItemRef{{}},
		rowType:   []master.BoundType{0},
		rowLB:     []float64{0},
		rowUB:     []float64{0},
		rowStatus: []lpengine.BasisStatus{lpengine.Basic},
		colItem:   []ItemRef{{}},
		colType:   []master.BoundType{0},
		colLB:     []float64{0},
		colUB:     []float64{0},
		colObj:    []float64{0},
		colStatus: []lpengine.BasisStatus{lpengine.Basic},
	}
}

// Engine exposes the underlying LP engine, e.g. for the driver to invoke
// Simplex/WarmUp directly (spec.md §4.5).
func (m *Mirror) Engine() lpengine.Engine { return m.engine }

// NumRows / NumCols report how many row/column ordinals the mirror tracks.
// Freed ordinals (zero ItemRef) stay counted until placeRows/placeCols
// reuses them, just as the engine keeps its soft-deleted ordinals, so for
// an engine that started empty these match m.engine.NumRows()/NumCols()
// (see DESIGN.md).
func (m *Mirror) NumRows() int { return len(m.rowItem) - 1 }
func (m *Mirror) NumCols() int { return len(m.colItem) - 1 }

// RowItem / ColItem return which master item currently occupies ordinal i,
// or the zero ItemRef if i is out of range.
func (m *Mirror) RowItem(i int) ItemRef {
	if i <= 0 || i >= len(m.rowItem) {
		return ItemRef{}
	}
	return m.rowItem[i]
}

func (m *Mirror) ColItem(j int) ItemRef {
	if j <= 0 || j >= len(m.colItem) {
		return ItemRef{}
	}
	return m.colItem[j]
}

// findRow / findCol return the ordinal currently bound to the given item, or
// 0 if absent, by scanning the mirror. The master item's own Binding() is
// the fast path, and it is what revive uses.
func (m *Mirror) findRow(ref ItemRef) int {
	for i := 1; i < len(m.rowItem); i++ {
		if m.rowItem[i] == ref {
			return i
		}
	}
	return 0
}

func (m *Mirror) findCol(ref ItemRef) int {
	for j := 1; j < len(m.colItem); j++ {
		if m.colItem[j] == ref {
			return j
		}
	}
	return 0
}

// reset truncates the mirror back to empty around a replacement engine.
// Nothing in the package calls it: revive's rebuild path (see revive.go)
// keeps the engine and replaces only its coefficient matrix.
func (m *Mirror) reset(engine lpengine.Engine) {
	m.engine = engine
	m.rowItem = m.rowItem[:1]
	m.rowType = m.rowType[:1]
	m.rowLB = m.rowLB[:1]
	m.rowUB = m.rowUB[:1]
	m.rowStatus = m.rowStatus[:1]
	m.colItem = m.colItem[:1]
	m.colType = m.colType[:1]
	m.colLB = m.colLB[:1]
	m.colUB = m.colUB[:1]
	m.colObj = m.colObj[:1]
	m.colStatus = m.colStatus[:1]
	m.rowDelMark = nil
	m.colDelMark = nil
}

// appendRow/appendCol grow the mirror arrays by one slot, returning the new
// ordinal, mirroring Engine.AddRows(1)/AddCols(1).
func (m *Mirror) appendRow(ref ItemRef) int {
	m.rowItem = append(m.rowItem, ref)
	m.rowType = append(m.rowType, master.Free)
	m.rowLB = append(m.rowLB, 0)
	m.rowUB = append(m.rowUB, 0)
	m.rowStatus = append(m.rowStatus, lpengine.Basic)
	return len(m.rowItem) - 1
}

func (m *Mirror) appendCol(ref ItemRef) int {
	m.colItem = append(m.colItem, ref)
	m.colType = append(m.colType, master.Free)
	m.colLB = append(m.colLB, 0)
	m.colUB = append(m.colUB, 0)
	m.colObj = append(m.colObj, 0)
	m.colStatus = append(m.colStatus, lpengine.Basic)
	return len(m.colItem) - 1
}

// placeRows/placeCols assign LP ordinals to a batch of newly-present items,
// in the given (walk) order, reusing soft-deleted slots left behind by a
// prior DeleteMarked before growing the engine. Reuse rather than true
// compaction is the adaptation this module makes for engines that cannot
// renumber ordinals (spec.md §4.3 step 4's "compact... preserving relative
// order" — see DESIGN.md); ordinal order among survivors is preserved,
// newly-placed items simply fill gaps instead of the tail always growing.
func (m *Mirror) placeRows(refs []ItemRef) []int {
	ords := make([]int, len(refs))
	idx := 0
	for i := 1; i < len(m.rowItem) && idx < len(refs); i++ {
		if m.rowItem[i] == (ItemRef{}) {
			m.rowItem[i] = refs[idx]
			m.rowType[i] = master.Free
			m.rowLB[i], m.rowUB[i] = 0, 0
			m.rowStatus[i] = lpengine.Basic
			ords[idx] = i
			idx++
		}
	}
	if idx < len(refs) {
		rest := refs[idx:]
		m.engine.AddRows(len(rest))
		for _, ref := range rest {
			ords[idx] = m.appendRow(ref)
			idx++
		}
	}
	return ords
}

func (m *Mirror) placeCols(refs []ItemRef) []int {
	ords := make([]int, len(refs))
	idx := 0
	for j := 1; j < len(m.colItem) && idx < len(refs); j++ {
		if m.colItem[j] == (ItemRef{}) {
			m.colItem[j] = refs[idx]
			m.colType[j] = master.Free
			m.colLB[j], m.colUB[j] = 0, 0
			m.colObj[j] = 0
			m.colStatus[j] = lpengine.Basic
			ords[idx] = j
			idx++
		}
	}
	if idx < len(refs) {
		rest := refs[idx:]
		m.engine.AddCols(len(rest))
		for _, ref := range rest {
			ords[idx] = m.appendCol(ref)
			idx++
		}
	}
	return ords
}

// RowBounds/ColBounds return the mirror's locally-effective type/lower/upper
// bound for ordinal i/j, e.g. so package mip can classify primal
// infeasibility without going back through master defaults.
func (m *Mirror) RowBounds(i int) (master.BoundType, float64, float64) {
	return m.rowType[i], m.rowLB[i], m.rowUB[i]
}

func (m *Mirror) ColBounds(j int) (master.BoundType, float64, float64) {
	return m.colType[j], m.colLB[j], m.colUB[j]
}

// ColObjCoef returns the mirror's locally-effective objective coefficient
// for column ordinal j.
func (m *Mirror) ColObjCoef(j int) float64 { return m.colObj[j] }

// freeRowSlot/freeColSlot report whether ordinal i/j is currently unused.
func (m *Mirror) freeRowSlot(i int) bool { return m.rowItem[i] == (ItemRef{}) }
func (m *Mirror) freeColSlot(j int) bool { return m.colItem[j] == (ItemRef{}) }
