package master

// Clean sweeps the master set: it destroys all coefficient cells incident
// to a tombstoned row or column, and rebuilds column incidence lists from
// the surviving rows (spec.md §4.1). Tombstoned item slots themselves are
// never reclaimed — handles must stay stable for as long as a patch list in
// package ies might still reference them — but the tombstone counters reset
// so the 10% lazy-sweep bound (spec.md §8) is satisfied immediately after a
// sweep.
func (s *Set) Clean() {
	newCells := make([]Cell, 1) // index 0 stays an unused sentinel

	for i := 1; i < len(s.cols); i++ {
		s.cols[i].firstCell = 0
	}

	for ridx := 1; ridx < len(s.rows); ridx++ {
		row := s.rows[ridx]
		oldHead := row.firstCell
		row.firstCell = 0
		if row.Tombstoned() {
			continue
		}

		var lastAppended CellHandle
		for ch := oldHead; ch != 0; {
			old := s.cells[ch]
			nextOld := old.nextInRow

			col := s.cols[old.col]
			if !col.Tombstoned() {
				nh := CellHandle(len(newCells))
				newCells = append(newCells, Cell{
					handle: nh,
					row:    old.row,
					col:    old.col,
					value:  old.value,
				})

				if row.firstCell == 0 {
					row.firstCell = nh
				} else {
					newCells[lastAppended].nextInRow = nh
				}
				lastAppended = nh

				newCells[nh].nextInCol = col.firstCell
				col.firstCell = nh
			}

			ch = nextOld
		}
	}

	s.cells = newCells
	s.tombstoneRows = 0
	s.tombstoneCols = 0
}
