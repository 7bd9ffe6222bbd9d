package mip

import (
	"math"

	"github.com/jjhbw/go-ies/ies"
	"github.com/jjhbw/go-ies/master"
)

// defaultBranch applies the configured branching rule when the application
// callback left no br_var set during the Branch event (spec.md §4.6).
func (d *driver) defaultBranch(cur ies.NodeHandle) (master.ItemHandle, int) {
	switch d.tree.Branch {
	case BranchLast:
		return d.edgeBranch(false)
	case BranchDriebeekTomlin:
		if col, heir, ok := d.driebeekTomlinBranch(); ok {
			return col, heir
		}
		return d.edgeBranch(true)
	default: // BranchFirst
		return d.edgeBranch(true)
	}
}

// edgeBranch picks the leftmost (first=true) or rightmost (first=false)
// column with its infeas flag set, and sets heir toward the closer integer
// bound (spec.md §4.6, "first"/"last").
func (d *driver) edgeBranch(first bool) (master.ItemHandle, int) {
	set := d.tree.IES.Master()
	engine := d.tree.IES.Mirror().Engine()

	var chosen master.ItemHandle
	for h := set.NextCol(0); h != 0; h = set.NextCol(h) {
		if !d.tree.infeas[h] {
			continue
		}
		chosen = h
		if first {
			break
		}
	}
	if chosen == 0 {
		return 0, 0
	}

	it := set.Col(chosen)
	x := engine.ColPrim(it.Binding())
	return chosen, heirTowardCloserBound(x)
}

// heirTowardCloserBound returns 1 (down) if x is closer to its floor, 2
// (up) if closer to its ceiling.
func heirTowardCloserBound(x float64) int {
	if x-math.Floor(x) <= 0.5 {
		return 1
	}
	return 2
}
