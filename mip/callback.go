package mip

import (
	"github.com/jjhbw/go-ies/ies"
	"github.com/jjhbw/go-ies/master"
)

// Event identifies a callback point in the branch-and-cut driver (spec.md
// §4.4). Events are never nested and are always delivered on the same
// goroutine that called Run.
type Event int

const (
	// Init fires once, with the root revived and empty; the application
	// populates variables and constraints.
	Init Event = iota
	// GenCon fires once the current subproblem is optimal or infeasible;
	// the application may add rows local to the subproblem.
	GenCon
	// GenCut fires once the current subproblem is optimal and
	// integer-infeasible; the application may add local cutting planes.
	GenCut
	// Branch fires when the subproblem is optimal, integer-infeasible, and
	// no cut was added; the application may mark one column to force the
	// branch onto.
	Branch
	// Bingo fires once a new incumbent has been accepted.
	Bingo
	// DelVar fires just before a master column is physically destroyed.
	DelVar
	// DelCon fires just before a master row is physically destroyed.
	DelCon
	// Term fires once the search loop ends. Active nodes still listed at
	// that point are left in place; nothing drains them afterwards.
	Term
	// Select fires when there is no current subproblem and the active list
	// is non-empty; the application chooses which node becomes current.
	Select
	// BeginSub/BeginLP/EndLP/Reject/EndSub are informational hooks around
	// one subproblem's solve, ordered
	// BeginSub -> (BeginLP -> EndLP)+ -> (Reject | Bingo | Branch) -> EndSub.
	BeginSub
	BeginLP
	EndLP
	Reject
	EndSub
)

func (e Event) String() string {
	switch e {
	case Init:
		return "Init"
	case GenCon:
		return "GenCon"
	case GenCut:
		return "GenCut"
	case Branch:
		return "Branch"
	case Bingo:
		return "Bingo"
	case DelVar:
		return "DelVar"
	case DelCon:
		return "DelCon"
	case Term:
		return "Term"
	case Select:
		return "Select"
	case BeginSub:
		return "BeginSub"
	case BeginLP:
		return "BeginLP"
	case EndLP:
		return "EndLP"
	case Reject:
		return "Reject"
	case EndSub:
		return "EndSub"
	default:
		return "Unknown"
	}
}

// Callback is the single application procedure the driver calls back into
// (spec.md §4.4). It must not call Run recursively, and must not create or
// delete nodes directly on the tree — only through the documented Context
// setters.
type Callback func(ctx *Context, ev Event)

// Context is the driver state exposed to the application callback for the
// duration of one event; its setters are the only legal mutation surface
// from inside a callback (spec.md §4.4, §6 "Current-subproblem interface").
type Context struct {
	tree *Tree
	node ies.NodeHandle

	// delItem names the master item about to be destroyed, valid only
	// during DelVar/DelCon.
	delItem master.ItemHandle

	// added{Rows,Cols} accumulate handles contributed during Init/GenCon/
	// GenCut by AddVar/AddCon, telling the driver whether to re-solve.
	addedRows, addedCols []master.ItemHandle

	brVar master.ItemHandle
	brSet bool

	heir int // 0 = backtrack next iteration, 1 = down, 2 = up

	selected ies.NodeHandle
}

// Tree returns the MIP tree, for read-only inspection (row/column counts,
// current node, incumbent).
func (c *Context) Tree() *Tree { return c.tree }

// Node returns the node the current event concerns (the current subproblem
// for most events; 0 during Select and Term, which concern no single node).
func (c *Context) Node() ies.NodeHandle { return c.node }

// DeletedItem returns the master item about to be destroyed; valid only
// during DelVar/DelCon.
func (c *Context) DeletedItem() master.ItemHandle { return c.delItem }

// AddVar adds a new master column to the master set and, if a subproblem is
// current, to it (spec.md §4.1, §4.4 "add_var"). Legal during Init and
// GenCon/GenCut (columns introduced by a cut).
func (c *Context) AddVar(name string, typ master.BoundType, lb, ub, objCoef float64, coefs []master.ColCoef) (master.ItemHandle, error) {
	h, err := c.tree.IES.Master().AddCol(name, typ, lb, ub, objCoef, coefs)
	if err != nil {
		return 0, err
	}
	c.addedCols = append(c.addedCols, h)
	if c.tree.IES.Current() != 0 {
		if err := c.tree.IES.AddCols([]master.ItemHandle{h}); err != nil {
			return 0, err
		}
	}
	return h, nil
}

// AddCon adds a new master row — a constraint or a cut — to the master set
// and, if a subproblem is current, to it (spec.md §4.1, §4.4 "add_con").
func (c *Context) AddCon(name string, typ master.BoundType, lb, ub, objCoef float64, coefs []master.RowCoef) (master.ItemHandle, error) {
	h, err := c.tree.IES.Master().AddRow(name, typ, lb, ub, objCoef, coefs)
	if err != nil {
		return 0, err
	}
	c.addedRows = append(c.addedRows, h)
	if c.tree.IES.Current() != 0 {
		if err := c.tree.IES.AddRows([]master.ItemHandle{h}); err != nil {
			return 0, err
		}
	}
	return h, nil
}

// MarkBranch designates col as the branching variable (event Branch); if
// unset the driver falls back to the default branching rule (spec.md §4.4,
// §4.6).
func (c *Context) MarkBranch(col master.ItemHandle) {
	c.brVar = col
	c.brSet = true
}

// SetHeir selects which child becomes the next current node (0 =
// backtrack next iteration, 1 = down, 2 = up); legal during Branch.
func (c *Context) SetHeir(h int) { c.heir = h }

// SetCurrent picks the active node to revive next (event Select); legal
// only during Select.
func (c *Context) SetCurrent(n ies.NodeHandle) { c.selected = n }

// ColValue returns a column's current LP primal value in the subproblem
// the event concerns; valid during GenCon/GenCut/Branch/EndLP.
func (c *Context) ColValue(col master.ItemHandle) float64 {
	it := c.tree.IES.Master().Col(col)
	if it == nil || !it.Bound() {
		return 0
	}
	return c.tree.IES.Mirror().Engine().ColPrim(it.Binding())
}

// RowValue returns a row's current LP primal (slack) value; valid during
// GenCon/GenCut/Branch/EndLP.
func (c *Context) RowValue(row master.ItemHandle) float64 {
	it := c.tree.IES.Master().Row(row)
	if it == nil || !it.Bound() {
		return 0
	}
	return c.tree.IES.Mirror().Engine().RowPrim(it.Binding())
}

// ObjValue returns the current subproblem's LP objective value.
func (c *Context) ObjValue() float64 { return c.tree.IES.Mirror().Engine().ObjValue() }

// Incumbent returns the best integer-feasible solution found so far, or
// nil if none.
func (c *Context) Incumbent() *Incumbent { return c.tree.Incumbent }
