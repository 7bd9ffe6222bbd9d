package ies

import (
	"github.com/jjhbw/go-ies/lpengine"
	"github.com/jjhbw/go-ies/master"
)

// NodeHandle is a stable arena index for a subproblem node, mirroring
// master.ItemHandle (spec.md Design Notes §9).
type NodeHandle int

// ItemRef names one master item by kind and handle, the unit the five
// patch lists are built from (spec.md §3, "Subproblem node").
type ItemRef struct {
	Kind   master.Kind
	Handle master.ItemHandle
}

// IsConst reports whether ref is the null-item sentinel used by ObjPatch
// (and by the revive/demote engine) to carry the objective's constant term
// (spec.md §3, "a null-item sentinel for the constant term").
func (r ItemRef) IsConst() bool { return r.Kind == master.Row && r.Handle == 0 }

// BoundsPatch records a local override of an item's type/lower/upper bound,
// relative to the master default or an ancestor's own bounds patch.
type BoundsPatch struct {
	Item ItemRef
	Type master.BoundType
	LB   float64
	UB   float64
}

// ObjPatch records a local override of an item's objective coefficient. A
// zero-value Item (Kind==master.Row, Handle==0) is the null-item sentinel
// for the objective's constant term (spec.md §3).
type ObjPatch struct {
	Item ItemRef
	Coef float64
}

// StatusPatch records a local override of an item's basis status.
type StatusPatch struct {
	Item   ItemRef
	Status lpengine.BasisStatus
}

// Node is one subproblem in the enumeration tree (spec.md §3). Active nodes
// hold no patch lists — the LP Mirror is their authoritative state. Inactive
// nodes own the five patch lists describing the delta from their parent.
//
// spec.md §4.2 describes child count and the active/inactive distinction as
// one field (negative sentinel == active), a C space-saving trick. Go has
// no reason to conflate the two, so they are separate fields here; nothing
// about the lifecycle or the patch-list contract changes.
type Node struct {
	handle NodeHandle
	parent NodeHandle
	depth  int

	active   bool
	children int
	deleted  bool

	nRows, nCols int

	app interface{}

	// chronological list, insertion order == depth order along each branch.
	chronPrev, chronNext NodeHandle

	del    []ItemRef
	add    []ItemRef
	bounds []BoundsPatch
	obj    []ObjPatch
	status []StatusPatch
}

// Handle returns the node's stable handle.
func (n *Node) Handle() NodeHandle { return n.handle }

// Parent returns the parent node's handle, or 0 for the root.
func (n *Node) Parent() NodeHandle { return n.parent }

// Depth returns the node's depth, the root being 0.
func (n *Node) Depth() int { return n.depth }

// Active reports whether the node is currently active (spec.md §4.2).
func (n *Node) Active() bool { return n.active }

// ChildCount returns the node's current number of children.
func (n *Node) ChildCount() int { return n.children }

// Counts returns the node's current row/column counts.
func (n *Node) Counts() (rows, cols int) { return n.nRows, n.nCols }

// App returns the opaque application link.
func (n *Node) App() interface{} { return n.app }

// SetApp attaches an opaque application link to the node.
func (n *Node) SetApp(v interface{}) { n.app = v }

// destroyed reports whether the node has been deleted; Tree.Node returns nil
// for a destroyed handle so callers rarely see this directly.
func (n *Node) destroyed() bool { return n.deleted }
