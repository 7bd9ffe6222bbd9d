// Package master implements the master set: the pool of rows and columns
// shared across every subproblem in an enumeration tree. See spec.md §3 and
// §4.1.
package master

import "fmt"

// Kind distinguishes a row (constraint) master item from a column
// (variable) master item.
type Kind int

const (
	Row Kind = iota
	Col
)

func (k Kind) String() string {
	if k == Row {
		return "row"
	}
	return "col"
}

// BoundType is the default type of a master item, mirroring the bound
// kinds GLPK exposes on rows and columns (FR/LO/UP/DB/FX in
// github.com/lukpank/go-glpk/glpk).
type BoundType int

const (
	Free           BoundType = iota // unbounded
	LowerBounded                    // lb <= x
	UpperBounded                    //       x <= ub
	DoubleBounded                   // lb <= x <= ub
	Fixed                           // lb == x == ub
)

// ItemHandle is a stable arena index for a master row or column. The zero
// value denotes "no item" per Design Notes §9: raw pointers are replaced by
// indices into arena vectors so that tombstone compaction is an in-place
// sweep rather than a pointer-chasing collection.
type ItemHandle int

// Item is one master row or column. Default attributes (kind, type,
// bounds, objective coefficient, name) are immutable after creation; local
// overrides live in a node's patch lists (package ies), never here.
type Item struct {
	handle ItemHandle
	kind   Kind
	name   string

	defType BoundType
	defLB   float64
	defUB   float64
	defObj  float64

	// refCount counts patch-list references (package ies) plus one if the
	// item is currently bound to the LP Mirror. A negative value is the
	// tombstone sentinel: the item is logically deleted and awaiting sweep.
	refCount int

	// binding is the item's ordinal within the live LP object's current
	// subproblem, or 0 if the item is not present in the current
	// subproblem. Ordinals are only stable while that subproblem is
	// current (spec.md §3, "Invariants").
	binding int

	// app is an opaque pointer for the embedding application (spec.md §3).
	app interface{}

	// firstCell is the head of this item's own incidence list: for a row
	// item, the list of cells in that row (linked via Cell.nextInRow); for
	// a column item, the list of cells in that column (via nextInCol).
	firstCell CellHandle

	// prev/next thread the chronological per-kind list that add_row /
	// add_col appends to and next_row / next_col walks.
	prev, next ItemHandle
}

// Handle returns the item's stable handle.
func (it *Item) Handle() ItemHandle { return it.handle }

// Kind reports whether this is a row or column item.
func (it *Item) Kind() Kind { return it.kind }

// Name returns the item's name, or "" if unnamed or tombstoned (a tombstoned
// item's name is released at tombstone time, per spec.md §4.1).
func (it *Item) Name() string { return it.name }

// DefaultBounds returns the immutable default type/lower/upper bound.
func (it *Item) DefaultBounds() (BoundType, float64, float64) {
	return it.defType, it.defLB, it.defUB
}

// DefaultObjCoef returns the immutable default objective coefficient.
func (it *Item) DefaultObjCoef() float64 { return it.defObj }

// RefCount returns the current reference count. A negative value means the
// item is tombstoned.
func (it *Item) RefCount() int { return it.refCount }

// Tombstoned reports whether the item has been logically deleted.
func (it *Item) Tombstoned() bool { return it.refCount < 0 }

// Binding returns the item's current LP-mirror ordinal, or 0 if unbound.
func (it *Item) Binding() int { return it.binding }

// Bound reports whether the item is currently present in the LP Mirror.
func (it *Item) Bound() bool { return it.binding != 0 }

// App returns the opaque application pointer attached via SetApp.
func (it *Item) App() interface{} { return it.app }

// SetApp attaches an opaque application pointer to the item.
func (it *Item) SetApp(v interface{}) { it.app = v }

func (it *Item) String() string {
	if it.name != "" {
		return fmt.Sprintf("%s(%s)#%d", it.kind, it.name, it.handle)
	}
	return fmt.Sprintf("%s#%d", it.kind, it.handle)
}
