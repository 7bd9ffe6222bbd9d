package mip

import (
	"testing"

	"github.com/jjhbw/go-ies/ies"
	"github.com/jjhbw/go-ies/lpengine"
	"github.com/jjhbw/go-ies/master"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDriver_PriceColumns_PullsInFavorableColumn drives a column that was
// never added to the root subproblem through priceColumnsAgainst: neither
// shipped engine reports real duals, so this exercises the degraded
// plain-objective pricing path (not true reduced-cost pricing), proving it
// is not dead code even though its row awareness is gone.
func TestDriver_PriceColumns_PullsInFavorableColumn(t *testing.T) {
	set := master.New()

	colX, err := set.AddCol("x", master.DoubleBounded, 0, 5, 1, nil)
	require.NoError(t, err)
	colY, err := set.AddCol("y", master.DoubleBounded, 0, 5, 10, nil)
	require.NoError(t, err)

	iesTree := ies.New(set, func() lpengine.Engine { return lpengine.NewGonumEngine() })
	iesTree.Mirror().Engine().SetObjDir(Max)
	tree := New(iesTree, Max)

	cb := func(ctx *Context, ev Event) {
		if ev != Init {
			return
		}
		// colY is deliberately left out: it stays unbound until pricing
		// finds it attractive on its own objective coefficient alone.
		require.NoError(t, ctx.Tree().IES.AddCols([]master.ItemHandle{colX}))
	}

	require.False(t, set.Col(colY).Bound())
	err = Run(tree, cb)
	require.NoError(t, err)

	assert.True(t, set.Col(colY).Bound(), "priceColumns should have pulled column y into the subproblem")
	assert.InDelta(t, 55, tree.Incumbent.Obj, 1e-6)
}

// TestDriver_InfeasibleRoot_ReportsInitialRelaxationInfeasible confirms
// that when the root relaxation is infeasible (x <= 1 but x == 5), Run stops
// with ErrInitialRelaxationInfeasible before any feasibility-recovery or
// pricing pass runs, and that an unrelated unbound column is left
// untouched.
func TestDriver_InfeasibleRoot_ReportsInitialRelaxationInfeasible(t *testing.T) {
	set := master.New()

	colX, err := set.AddCol("x", master.DoubleBounded, 0, 1, 1, nil)
	require.NoError(t, err)
	rowR, err := set.AddRow("r1", master.Fixed, 5, 5, 0, []master.RowCoef{{Col: colX, Value: 1}})
	require.NoError(t, err)
	colZ, err := set.AddCol("z", master.DoubleBounded, 0, 5, 0, nil)
	require.NoError(t, err)

	iesTree := ies.New(set, func() lpengine.Engine { return lpengine.NewGonumEngine() })
	iesTree.Mirror().Engine().SetObjDir(Min)
	tree := New(iesTree, Min)

	cb := func(ctx *Context, ev Event) {
		if ev != Init {
			return
		}
		require.NoError(t, ctx.Tree().IES.AddCols([]master.ItemHandle{colX}))
		require.NoError(t, ctx.Tree().IES.AddRows([]master.ItemHandle{rowR}))
	}

	err = Run(tree, cb)
	assert.ErrorIs(t, err, ErrInitialRelaxationInfeasible)
	assert.False(t, set.Col(colZ).Bound(), "an infeasible root must not pull in an unrelated column")
}
