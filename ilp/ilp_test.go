package ilp

import (
	"testing"

	"github.com/jjhbw/go-ies/lpengine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProblem_AddExpression_PanicsOnForeignVariable(t *testing.T) {
	prob := NewProblem()
	prob.AddVariable("v1")

	foreign := &Variable{name: "not-mine"}
	assert.Panics(t, func() {
		prob.AddConstraint().AddExpression(1, foreign)
	})
}

func TestProblem_Solve_ContinuousLP(t *testing.T) {
	prob := NewProblem()
	prob.WithEngine(func() lpengine.Engine { return lpengine.NewGonumEngine() })
	prob.Maximize()

	x := prob.AddVariable("x").SetCoeff(2).UpperBound(3)
	y := prob.AddVariable("y").SetCoeff(3).UpperBound(3)
	prob.AddConstraint().AddExpression(1, x).AddExpression(1, y).SmallerThanOrEqualTo(4)

	soln, err := prob.Solve()
	require.NoError(t, err)
	assert.InDelta(t, 11, soln.Objective, 1e-6)

	xv, err := soln.GetValueFor("x")
	require.NoError(t, err)
	assert.InDelta(t, 1, xv, 1e-6)

	yv, err := soln.GetValueFor("y")
	require.NoError(t, err)
	assert.InDelta(t, 3, yv, 1e-6)
}

// Classic small knapsack-style MILP: maximize 5x + 4y subject to
// 6x + 4y <= 24, x + 2y <= 6, x,y integer >= 0. The LP relaxation's
// fractional optimum (x=3, y=1.5, obj=21) is not integer-feasible, so this
// exercises branching down to the true integer optimum (x=4, y=0, obj=20).
func TestProblem_Solve_Integer(t *testing.T) {
	prob := NewProblem()
	prob.WithEngine(func() lpengine.Engine { return lpengine.NewGonumEngine() })
	prob.Maximize()

	x := prob.AddVariable("x").SetCoeff(5).IsInteger()
	y := prob.AddVariable("y").SetCoeff(4).IsInteger()

	prob.AddConstraint().AddExpression(6, x).AddExpression(4, y).SmallerThanOrEqualTo(24)
	prob.AddConstraint().AddExpression(1, x).AddExpression(2, y).SmallerThanOrEqualTo(6)

	soln, err := prob.Solve()
	require.NoError(t, err)
	assert.InDelta(t, 20, soln.Objective, 1e-6)

	xv, err := soln.GetValueFor("x")
	require.NoError(t, err)
	assert.InDelta(t, 4, xv, 1e-6)

	yv, err := soln.GetValueFor("y")
	require.NoError(t, err)
	assert.InDelta(t, 0, yv, 1e-6)
}

func TestProblem_Solve_Infeasible(t *testing.T) {
	prob := NewProblem()
	prob.WithEngine(func() lpengine.Engine { return lpengine.NewGonumEngine() })

	x := prob.AddVariable("x").SetCoeff(1).UpperBound(1)
	prob.AddConstraint().AddExpression(1, x).EqualTo(5)

	_, err := prob.Solve()
	assert.Error(t, err)
}

func TestProblem_Solve_TreeLogger(t *testing.T) {
	prob := NewProblem()
	prob.WithEngine(func() lpengine.Engine { return lpengine.NewGonumEngine() })
	logger := NewTreeLogger()
	prob.WithTreeLogger(logger)
	prob.Maximize()

	x := prob.AddVariable("x").SetCoeff(5).IsInteger()
	y := prob.AddVariable("y").SetCoeff(4).IsInteger()
	prob.AddConstraint().AddExpression(6, x).AddExpression(4, y).SmallerThanOrEqualTo(24)
	prob.AddConstraint().AddExpression(1, x).AddExpression(2, y).SmallerThanOrEqualTo(6)

	_, err := prob.Solve()
	require.NoError(t, err)
	assert.NotEmpty(t, logger.nodes)
}
