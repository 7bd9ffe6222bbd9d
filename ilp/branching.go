package ilp

import "github.com/jjhbw/go-ies/mip"

// BranchHeuristic selects which branching rule the driver applies,
// mirroring the teacher's own selectable BranchHeuristic enum
// (branching.go) but naming the three rules the driver actually implements
// (spec.md §4.6) rather than the teacher's column-index heuristics, which
// have no equivalent once branching decisions are made against the LP
// tableau instead of a raw coefficient vector.
type BranchHeuristic int

const (
	// BranchFirst branches on the leftmost fractional integer column.
	BranchFirst BranchHeuristic = iota
	// BranchLast branches on the rightmost fractional integer column.
	BranchLast
	// BranchDriebeekTomlin estimates each fractional column's worst-case
	// one-step degradation via a dual ratio test and branches on the
	// largest. Falls back to BranchFirst against any Engine that does not
	// implement TableauRow/DualRatioTest (see DESIGN.md).
	BranchDriebeekTomlin
)

func toBranchRule(h BranchHeuristic) mip.BranchRule {
	switch h {
	case BranchLast:
		return mip.BranchLast
	case BranchDriebeekTomlin:
		return mip.BranchDriebeekTomlin
	default:
		return mip.BranchFirst
	}
}
