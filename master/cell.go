package master

// CellHandle is a stable arena index for a coefficient cell. The zero value
// denotes "no cell".
type CellHandle int

// Cell is one non-zero coefficient (row, col, value), threaded into two
// singly-linked lists — one per row, one per column — per spec.md §3. A
// cell is created together with its row or column and destroyed when
// either endpoint is physically removed (see sweep.go).
type Cell struct {
	handle CellHandle
	row    ItemHandle
	col    ItemHandle
	value  float64

	nextInRow CellHandle
	nextInCol CellHandle
}

// Row returns the handle of the row this cell belongs to.
func (c *Cell) Row() ItemHandle { return c.row }

// Col returns the handle of the column this cell belongs to.
func (c *Cell) Col() ItemHandle { return c.col }

// Value returns the cell's non-zero coefficient.
func (c *Cell) Value() float64 { return c.value }
