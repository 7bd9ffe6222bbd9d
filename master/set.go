package master

// ItemFilter is consulted when a master item's reference count would fall
// to zero and it is not currently bound. It returns whether the item
// should actually be deleted (spec.md §4.7). A nil filter keeps every item
// (the conservative default).
type ItemFilter func(it *Item) (deleteIt bool)

// ItemHook runs just before a master item is physically destroyed, so the
// embedding application can free attachments hung off it via SetApp
// (spec.md §4.7).
type ItemHook func(it *Item)

// RowCoef pairs a column reference with a coefficient value, used to
// populate a new row's incidence list.
type RowCoef struct {
	Col   ItemHandle
	Value float64
}

// ColCoef pairs a row reference with a coefficient value, used to populate
// a new column's incidence list.
type ColCoef struct {
	Row   ItemHandle
	Value float64
}

// Set is the master set: two chronological sequences of master items (rows
// and columns) plus the bipartite coefficient matrix, implemented as arena
// vectors keyed by stable handles (Design Notes §9). Items are created only
// via AddRow/AddCol; physical deletion is lazy and swept once tombstones
// exceed 10% of the alive population (spec.md §4.1).
type Set struct {
	// rows/cols are slices of pointers, not values: each Item is heap
	// allocated once and never moves, so a *Item handed out by Row/Col/Item
	// stays valid even after a later AddRow/AddCol reallocates the slice
	// header itself.
	rows []*Item // index 0 is an unused sentinel
	cols []*Item

	cells []Cell // index 0 is an unused sentinel

	rowChronHead, rowChronTail ItemHandle
	colChronHead, colChronTail ItemHandle

	aliveRows, tombstoneRows int
	aliveCols, tombstoneCols int

	filter ItemFilter
	hook   ItemHook
}

// New returns an empty master set.
func New() *Set {
	return &Set{
		rows:  make([]*Item, 1),
		cols:  make([]*Item, 1),
		cells: make([]Cell, 1),
	}
}

// SetFilter installs the item filter callback (spec.md §4.7).
func (s *Set) SetFilter(f ItemFilter) { s.filter = f }

// SetHook installs the item hook callback (spec.md §4.7).
func (s *Set) SetHook(h ItemHook) { s.hook = h }

func (s *Set) arena(k Kind) []*Item {
	if k == Row {
		return s.rows
	}
	return s.cols
}

// item resolves a handle to its backing Item, regardless of kind.
func (s *Set) item(k Kind, h ItemHandle) *Item {
	if h == 0 {
		return nil
	}
	a := s.arena(k)
	if int(h) >= len(a) {
		return nil
	}
	return a[h]
}

// Row returns the row item for handle h, or nil if unknown.
func (s *Set) Row(h ItemHandle) *Item { return s.item(Row, h) }

// Col returns the column item for handle h, or nil if unknown.
func (s *Set) Col(h ItemHandle) *Item { return s.item(Col, h) }

// Item resolves a handle of either kind to its backing Item by consulting
// both arenas; handles are never shared between rows and columns so this
// is unambiguous as long as the caller also knows which arena a bare int
// came from. Most callers should prefer Row/Col directly.
func (s *Set) Item(k Kind, h ItemHandle) *Item { return s.item(k, h) }

// AddRow appends a new master row. col references must name live
// (non-tombstoned) master columns and each (row,col) pair must be unique
// and non-zero. Creating a row does not alter any existing subproblem — the
// row only enters a subproblem once that subproblem is current and
// add_rows is called against it (spec.md §4.1).
func (s *Set) AddRow(name string, typ BoundType, lb, ub, objCoef float64, coefs []RowCoef) (ItemHandle, error) {
	if typ == Free && objCoef != 0 {
		return 0, &NumericError{Detail: "non-zero objective coefficient on a free row"}
	}
	h := ItemHandle(len(s.rows))
	s.rows = append(s.rows, &Item{
		handle:  h,
		kind:    Row,
		name:    name,
		defType: typ,
		defLB:   lb,
		defUB:   ub,
		defObj:  objCoef,
	})
	s.linkChronological(Row, h)
	s.aliveRows++

	seen := make(map[ItemHandle]bool, len(coefs))
	for _, rc := range coefs {
		col := s.Col(rc.Col)
		if col == nil || col.Tombstoned() {
			return 0, &ContractViolation{Op: "AddRow", Detail: "coefficient references a non-existent or stale column"}
		}
		if rc.Value == 0 {
			return 0, &ContractViolation{Op: "AddRow", Detail: "zero-valued coefficient is not permitted"}
		}
		if seen[rc.Col] {
			return 0, &ContractViolation{Op: "AddRow", Detail: "duplicate (row,col) coefficient"}
		}
		seen[rc.Col] = true
		s.linkCell(h, rc.Col, rc.Value)
	}
	return h, nil
}

// AddCol appends a new master column, symmetric to AddRow.
func (s *Set) AddCol(name string, typ BoundType, lb, ub, objCoef float64, coefs []ColCoef) (ItemHandle, error) {
	h := ItemHandle(len(s.cols))
	s.cols = append(s.cols, &Item{
		handle:  h,
		kind:    Col,
		name:    name,
		defType: typ,
		defLB:   lb,
		defUB:   ub,
		defObj:  objCoef,
	})
	s.linkChronological(Col, h)
	s.aliveCols++

	seen := make(map[ItemHandle]bool, len(coefs))
	for _, cc := range coefs {
		row := s.Row(cc.Row)
		if row == nil || row.Tombstoned() {
			return 0, &ContractViolation{Op: "AddCol", Detail: "coefficient references a non-existent or stale row"}
		}
		if cc.Value == 0 {
			return 0, &ContractViolation{Op: "AddCol", Detail: "zero-valued coefficient is not permitted"}
		}
		if seen[cc.Row] {
			return 0, &ContractViolation{Op: "AddCol", Detail: "duplicate (row,col) coefficient"}
		}
		seen[cc.Row] = true
		s.linkCell(cc.Row, h, cc.Value)
	}
	return h, nil
}

func (s *Set) linkChronological(k Kind, h ItemHandle) {
	a := s.arena(k)
	if k == Row {
		if s.rowChronHead == 0 {
			s.rowChronHead = h
		} else {
			a[s.rowChronTail].next = h
			a[h].prev = s.rowChronTail
		}
		s.rowChronTail = h
	} else {
		if s.colChronHead == 0 {
			s.colChronHead = h
		} else {
			a[s.colChronTail].next = h
			a[h].prev = s.colChronTail
		}
		s.colChronTail = h
	}
}

// linkCell creates one coefficient cell and threads it into both the row's
// and the column's incidence lists.
func (s *Set) linkCell(row, col ItemHandle, value float64) CellHandle {
	ch := CellHandle(len(s.cells))
	s.cells = append(s.cells, Cell{handle: ch, row: row, col: col, value: value})

	r := s.Row(row)
	s.cells[ch].nextInRow = r.firstCell
	r.firstCell = ch

	cc := s.Col(col)
	s.cells[ch].nextInCol = cc.firstCell
	cc.firstCell = ch

	return ch
}

// NextRow iterates the chronological row list, skipping tombstones.
// Passing 0 starts the iteration; the walk is restartable and finite.
func (s *Set) NextRow(prev ItemHandle) ItemHandle {
	return s.next(Row, prev)
}

// NextCol iterates the chronological column list, skipping tombstones.
func (s *Set) NextCol(prev ItemHandle) ItemHandle {
	return s.next(Col, prev)
}

func (s *Set) next(k Kind, prev ItemHandle) ItemHandle {
	a := s.arena(k)
	var cur ItemHandle
	if prev == 0 {
		if k == Row {
			cur = s.rowChronHead
		} else {
			cur = s.colChronHead
		}
	} else {
		cur = a[prev].next
	}
	for cur != 0 && a[cur].Tombstoned() {
		cur = a[cur].next
	}
	return cur
}

// RowCells returns the (col, value) incidence list of a row.
func (s *Set) RowCells(h ItemHandle) []RowCoef {
	r := s.Row(h)
	if r == nil {
		return nil
	}
	var out []RowCoef
	for ch := r.firstCell; ch != 0; ch = s.cells[ch].nextInRow {
		cell := s.cells[ch]
		out = append(out, RowCoef{Col: cell.col, Value: cell.value})
	}
	return out
}

// ColCells returns the (row, value) incidence list of a column.
func (s *Set) ColCells(h ItemHandle) []ColCoef {
	col := s.Col(h)
	if col == nil {
		return nil
	}
	var out []ColCoef
	for ch := col.firstCell; ch != 0; ch = s.cells[ch].nextInCol {
		cell := s.cells[ch]
		out = append(out, ColCoef{Row: cell.row, Value: cell.value})
	}
	return out
}

// Ref increments a master item's reference count. Used by package ies when
// an item enters an inactive node's add-list, or becomes bound to the LP
// Mirror.
func (s *Set) Ref(k Kind, h ItemHandle) {
	it := s.item(k, h)
	if it == nil || it.Tombstoned() {
		panic(&ContractViolation{Op: "Ref", Detail: "item is nil or tombstoned"})
	}
	it.refCount++
}

// Unref decrements a master item's reference count. If it reaches zero and
// the item is not bound to the LP Mirror, the item filter (if any) is
// consulted; if it says to delete, the item is physically destroyed via the
// same path as DelRow/DelCol. Returns whether the item was destroyed.
func (s *Set) Unref(k Kind, h ItemHandle) bool {
	it := s.item(k, h)
	if it == nil || it.Tombstoned() {
		panic(&ContractViolation{Op: "Unref", Detail: "item is nil or tombstoned"})
	}
	it.refCount--
	if it.refCount > 0 || it.Bound() {
		return false
	}
	deleteIt := false
	if s.filter != nil {
		deleteIt = s.filter(it)
	}
	if !deleteIt {
		return false
	}
	s.destroy(k, h)
	return true
}

// SetBinding records the item's current LP-mirror ordinal (0 = unbound).
func (s *Set) SetBinding(k Kind, h ItemHandle, ordinal int) {
	it := s.item(k, h)
	it.binding = ordinal
}

// DelRow deletes a master row. Legal only if its reference count is zero
// and it is not bound to the LP Mirror; otherwise returns InUse.
func (s *Set) DelRow(h ItemHandle) error { return s.del(Row, h) }

// DelCol deletes a master column, symmetric to DelRow.
func (s *Set) DelCol(h ItemHandle) error { return s.del(Col, h) }

func (s *Set) del(k Kind, h ItemHandle) error {
	it := s.item(k, h)
	if it == nil || it.Tombstoned() {
		return &ContractViolation{Op: "Del", Detail: "item is nil or already tombstoned"}
	}
	if it.refCount != 0 || it.Bound() {
		return &InUse{Item: h}
	}
	s.destroy(k, h)
	return nil
}

// destroy runs the item hook, unbinds, clears the name, tombstones the
// item, and triggers a sweep once the 10% threshold is crossed.
func (s *Set) destroy(k Kind, h ItemHandle) {
	it := s.item(k, h)
	if s.hook != nil {
		s.hook(it)
	}
	it.binding = 0
	it.name = ""
	it.refCount = -1

	if k == Row {
		s.aliveRows--
		s.tombstoneRows++
	} else {
		s.aliveCols--
		s.tombstoneCols++
	}

	if s.shouldSweep() {
		s.Clean()
	}
}

func (s *Set) shouldSweep() bool {
	return (s.tombstoneRows*10 > s.aliveRows) || (s.tombstoneCols*10 > s.aliveCols)
}

// Stats returns the alive/tombstone counts for both kinds, mostly useful
// for tests asserting the lazy-sweep bound (spec.md §8).
func (s *Set) Stats() (aliveRows, tombstoneRows, aliveCols, tombstoneCols int) {
	return s.aliveRows, s.tombstoneRows, s.aliveCols, s.tombstoneCols
}
