// Package ies implements the Implicit Enumeration Suite: a k-ary tree of LP
// subproblems sharing a master.Set, with patch-based revive/demote (spec.md
// §4.2-§4.3, §4.7).
package ies

import (
	"github.com/jjhbw/go-ies/lpengine"
	"github.com/jjhbw/go-ies/master"
)

// RebuildThreshold is the incremental-vs-rebuild cutover for revive's
// matrix push (spec.md §4.3 step 8; supplemented from
// original_source/glpies2.c, which uses a fixed 200-item knob for the
// analogous decision). AddRows/AddCols do not consult it: they always wire
// the matrix one row or column at a time.
const RebuildThreshold = 200

// NodeHook runs just before a node is physically destroyed (spec.md §4.7).
type NodeHook func(n *Node)

// Tree is the enumeration tree (spec.md §3, "Enumeration tree").
type Tree struct {
	master *master.Set
	mirror *Mirror

	newEngine func() lpengine.Engine

	// nodes is a slice of pointers, not values, so a *Node handed out by
	// Node() stays valid after a later CreateNode reallocates the slice
	// header (same rationale as master.Set's rows/cols, see set.go).
	nodes []*Node // index 0 is an unused sentinel

	root                 NodeHandle
	chronHead, chronTail NodeHandle
	current              NodeHandle
	size                 int

	hook NodeHook
	log  Logger
}

// Option configures a Tree at construction time.
type Option func(*Tree)

// WithLogger overrides the default no-op Logger.
func WithLogger(l Logger) Option {
	return func(t *Tree) { t.log = l }
}

// New creates an empty enumeration tree over set, calling newEngine once to
// construct the LP Mirror's engine. The factory is kept on the Tree but is
// not called again; revive reuses the same engine throughout.
func New(set *master.Set, newEngine func() lpengine.Engine, opts ...Option) *Tree {
	t := &Tree{
		master:    set,
		mirror:    NewMirror(newEngine()),
		newEngine: newEngine,
		nodes:     make([]*Node, 1),
		log:       noopLogger{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SetHook installs the node hook callback (spec.md §4.7).
func (t *Tree) SetHook(h NodeHook) { t.hook = h }

// Master returns the underlying master set.
func (t *Tree) Master() *master.Set { return t.master }

// Mirror returns the LP Mirror, e.g. so the driver can call Engine().Simplex.
func (t *Tree) Mirror() *Mirror { return t.mirror }

// Current returns the current node's handle, or 0 if none is current.
func (t *Tree) Current() NodeHandle { return t.current }

// Root returns the root node's handle, or 0 if the tree is empty.
func (t *Tree) Root() NodeHandle { return t.root }

// Size returns the number of live (non-destroyed) nodes.
func (t *Tree) Size() int { return t.size }

// Node resolves a handle to its backing Node, or nil if unknown or
// destroyed.
func (t *Tree) Node(h NodeHandle) *Node {
	n := t.node(h)
	if n == nil || n.destroyed() {
		return nil
	}
	return n
}

func (t *Tree) node(h NodeHandle) *Node {
	if h == 0 || int(h) >= len(t.nodes) {
		return nil
	}
	return t.nodes[h]
}

// NextNode iterates the chronological node list (insertion order, which is
// also depth order along each branch); passing 0 starts the iteration.
func (t *Tree) NextNode(prev NodeHandle) NodeHandle {
	var cur NodeHandle
	if prev == 0 {
		cur = t.chronHead
	} else {
		p := t.node(prev)
		if p == nil {
			return 0
		}
		cur = p.chronNext
	}
	for cur != 0 && t.node(cur).destroyed() {
		cur = t.node(cur).chronNext
	}
	return cur
}

func (t *Tree) linkChronological(h NodeHandle) {
	n := t.node(h)
	if t.chronHead == 0 {
		t.chronHead = h
	} else {
		t.node(t.chronTail).chronNext = h
		n.chronPrev = t.chronTail
	}
	t.chronTail = h
}

// CreateNode appends a new active node, with parent==0 creating the (unique)
// root (spec.md §4.2).
func (t *Tree) CreateNode(parent NodeHandle) (NodeHandle, error) {
	if parent == 0 {
		if t.root != 0 {
			return 0, &ContractViolation{Op: "CreateNode", Detail: "a root already exists"}
		}
		h := NodeHandle(len(t.nodes))
		t.nodes = append(t.nodes, &Node{handle: h, active: true})
		t.root = h
		t.linkChronological(h)
		t.size++
		return h, nil
	}

	p := t.Node(parent)
	if p == nil {
		return 0, &ContractViolation{Op: "CreateNode", Detail: "parent node is destroyed or unknown"}
	}
	if p.active {
		if parent == t.current {
			if err := t.demoteCurrent(); err != nil {
				return 0, err
			}
		} else {
			// Per spec.md §4.2: an active-but-non-current node's delta is
			// already empty (it has never diverged from its parent), so
			// flipping it inactive needs no new patch computation.
			p.active = false
		}
	}

	h := NodeHandle(len(t.nodes))
	t.nodes = append(t.nodes, &Node{handle: h, parent: parent, depth: p.depth + 1, active: true})
	p.children++
	t.linkChronological(h)
	t.size++
	t.log.Debugf("created node %d under parent %d at depth %d", h, parent, p.depth+1)
	return h, nil
}

// Revive sets node as current, leaving the LP Mirror holding exactly its
// state. Passing 0 demotes whatever is current, if anything (spec.md §4.2,
// §4.3).
func (t *Tree) Revive(node NodeHandle) error {
	if node == 0 {
		if t.current == 0 {
			return nil
		}
		return t.demoteCurrent()
	}
	return t.reviveTo(node)
}

// AddRows/AddCols append already-existing master items to the current
// active node (spec.md §4.2). Items already present in the current node are
// rejected.
func (t *Tree) AddRows(refs []master.ItemHandle) error {
	return t.addItems(master.Row, refs)
}

func (t *Tree) AddCols(refs []master.ItemHandle) error {
	return t.addItems(master.Col, refs)
}

func (t *Tree) addItems(kind master.Kind, handles []master.ItemHandle) error {
	n := t.node(t.current)
	if n == nil || !n.active {
		return &ContractViolation{Op: "AddRows/AddCols", Detail: "no active current node"}
	}
	refs := make([]ItemRef, 0, len(handles))
	for _, h := range handles {
		it := t.master.Item(kind, h)
		if it == nil || it.Tombstoned() {
			return &ContractViolation{Op: "AddRows/AddCols", Detail: "item is nil or tombstoned"}
		}
		if it.Bound() {
			return &ContractViolation{Op: "AddRows/AddCols", Detail: "item is already present in the current node"}
		}
		refs = append(refs, ItemRef{Kind: kind, Handle: h})
	}

	var ords []int
	if kind == master.Row {
		ords = t.mirror.placeRows(refs)
	} else {
		ords = t.mirror.placeCols(refs)
	}
	for k, ref := range refs {
		t.master.SetBinding(kind, ref.Handle, ords[k])
		it := t.master.Item(kind, ref.Handle)
		typ, lb, ub := it.DefaultBounds()
		if kind == master.Row {
			t.mirror.rowType[ords[k]], t.mirror.rowLB[ords[k]], t.mirror.rowUB[ords[k]] = typ, lb, ub
			t.mirror.engine.SetRowBounds(ords[k], typ, lb, ub)
		} else {
			t.mirror.colType[ords[k]], t.mirror.colLB[ords[k]], t.mirror.colUB[ords[k]] = typ, lb, ub
			t.mirror.colObj[ords[k]] = it.DefaultObjCoef()
			t.mirror.engine.SetColBounds(ords[k], typ, lb, ub)
			t.mirror.engine.SetObjCoef(ords[k], it.DefaultObjCoef())
		}
	}

	// wire incidence against whatever is currently present on the other side
	for k, ref := range refs {
		if kind == master.Row {
			var ind []int
			var val []float64
			for _, rc := range t.master.RowCells(ref.Handle) {
				col := t.master.Col(rc.Col)
				if col.Bound() {
					ind = append(ind, col.Binding())
					val = append(val, rc.Value)
				}
			}
			t.mirror.engine.SetMatRow(ords[k], ind, val)
		} else {
			var ind []int
			var val []float64
			for _, cc := range t.master.ColCells(ref.Handle) {
				row := t.master.Row(cc.Row)
				if row.Bound() {
					ind = append(ind, row.Binding())
					val = append(val, cc.Value)
				}
			}
			t.mirror.engine.SetMatCol(ords[k], ind, val)
		}
	}

	if kind == master.Row {
		n.nRows += len(refs)
	} else {
		n.nCols += len(refs)
	}
	return nil
}

// DelItems removes from the current active node the rows and columns at the
// given LP ordinals, consulting the master set's item filter on each one
// (spec.md §4.2, §4.7). DelItems marks those ordinals on the engine itself
// and then issues one bulk DeleteMarked; free ordinals are skipped.
func (t *Tree) DelItems(rows, cols []int) error {
	n := t.node(t.current)
	if n == nil || !n.active {
		return &ContractViolation{Op: "DelItems", Detail: "no active current node"}
	}
	m := t.mirror
	for _, i := range rows {
		ref := m.rowItem[i]
		if ref == (ItemRef{}) {
			continue
		}
		m.engine.MarkRowForDeletion(i)
		m.rowItem[i] = ItemRef{}
		t.master.SetBinding(master.Row, ref.Handle, 0)
		n.nRows--
		t.master.Unref(master.Row, ref.Handle)
	}
	for _, j := range cols {
		ref := m.colItem[j]
		if ref == (ItemRef{}) {
			continue
		}
		m.engine.MarkColForDeletion(j)
		m.colItem[j] = ItemRef{}
		t.master.SetBinding(master.Col, ref.Handle, 0)
		n.nCols--
		t.master.Unref(master.Col, ref.Handle)
	}
	m.engine.DeleteMarked()
	return nil
}

// DeleteNode deletes node, legal only if it has no children (spec.md §4.2).
func (t *Tree) DeleteNode(h NodeHandle) error {
	n := t.Node(h)
	if n == nil {
		return &ContractViolation{Op: "DeleteNode", Detail: "node is destroyed or unknown"}
	}
	if n.children != 0 {
		return &ContractViolation{Op: "DeleteNode", Detail: "node has children"}
	}
	if t.hook != nil {
		t.hook(n)
	}
	if h == t.current {
		if err := t.demoteCurrent(); err != nil {
			return err
		}
	}
	for _, ref := range n.add {
		t.master.Unref(ref.Kind, ref.Handle)
	}
	n.del, n.add, n.bounds, n.obj, n.status = nil, nil, nil, nil, nil
	n.deleted = true
	t.size--
	if p := t.node(n.parent); p != nil {
		p.children--
	}
	return nil
}

// PruneBranch deletes node, then walks up the ancestor chain deleting every
// ancestor that is left with zero children, stopping at the root (spec.md
// §4.2).
func (t *Tree) PruneBranch(h NodeHandle) error {
	n := t.Node(h)
	if n == nil {
		return &ContractViolation{Op: "PruneBranch", Detail: "node is destroyed or unknown"}
	}
	parent := n.parent
	if err := t.DeleteNode(h); err != nil {
		return err
	}
	for parent != 0 {
		p := t.Node(parent)
		if p == nil || p.children != 0 || parent == t.root {
			break
		}
		next := p.parent
		if err := t.DeleteNode(parent); err != nil {
			return err
		}
		parent = next
	}
	return nil
}
