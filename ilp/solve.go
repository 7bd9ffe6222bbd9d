package ilp

import (
	"fmt"
	"math"

	"github.com/jjhbw/go-ies/ies"
	"github.com/jjhbw/go-ies/master"
	"github.com/jjhbw/go-ies/mip"
)

// toMaster converts the built Problem into a master.Set: variables become
// columns (added first, since a row's coefficients must reference
// already-live columns), constraints become rows.
func (p *Problem) toMaster() (*master.Set, []master.ItemHandle, []master.ItemHandle, error) {
	set := master.New()

	colHandles := make([]master.ItemHandle, len(p.variables))
	for i, v := range p.variables {
		typ, lb, ub := boundsFor(v.lower, v.upper)
		h, err := set.AddCol(v.name, typ, lb, ub, v.coefficient, nil)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("ilp: adding variable %q: %w", v.name, err)
		}
		v.handle = h
		colHandles[i] = h
	}

	rowHandles := make([]master.ItemHandle, len(p.constraints))
	for i, c := range p.constraints {
		coefs := make([]master.RowCoef, 0, len(c.expressions))
		for _, e := range c.expressions {
			coefs = append(coefs, master.RowCoef{Col: e.variable.handle, Value: e.coef})
		}

		typ, lb, ub := master.Fixed, c.rhs, c.rhs
		if c.inequality {
			typ, lb, ub = master.UpperBounded, 0, c.rhs
		}

		h, err := set.AddRow(fmt.Sprintf("c%d", i), typ, lb, ub, 0, coefs)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("ilp: adding constraint %d: %w", i, err)
		}
		c.handle = h
		rowHandles[i] = h
	}

	return set, colHandles, rowHandles, nil
}

// boundsFor maps a variable's [lower, upper] pair onto master's BoundType
// taxonomy, with +/-Inf collapsing to Free on the corresponding side.
func boundsFor(lower, upper float64) (master.BoundType, float64, float64) {
	loInf := math.IsInf(lower, -1)
	hiInf := math.IsInf(upper, 1)
	switch {
	case loInf && hiInf:
		return master.Free, 0, 0
	case !loInf && hiInf:
		return master.LowerBounded, lower, 0
	case loInf && !hiInf:
		return master.UpperBounded, 0, upper
	case lower == upper:
		return master.Fixed, lower, upper
	default:
		return master.DoubleBounded, lower, upper
	}
}

// Solve converts the built Problem to a master.Set, lays it under a fresh
// enumeration tree, runs the branch-and-cut driver to completion, and
// parses the incumbent into a Solution.
func (p *Problem) Solve() (*Solution, error) {
	set, colHandles, rowHandles, err := p.toMaster()
	if err != nil {
		return nil, err
	}

	var iesOpts []ies.Option
	if p.logger != nil {
		iesOpts = append(iesOpts, ies.WithLogger(p.logger))
	}
	iesTree := ies.New(set, p.engine, iesOpts...)

	dir := mip.Min
	if p.maximize {
		dir = mip.Max
	}
	iesTree.Mirror().Engine().SetObjDir(dir)

	tree := mip.New(iesTree, dir,
		mip.WithBranchRule(toBranchRule(p.branchingHeuristic)),
		mip.WithBacktrack(p.backtrackRule),
		mip.WithLimits(p.limits),
		mip.WithTolerances(p.tolerances),
	)
	for _, v := range p.variables {
		if v.integer {
			tree.MarkInteger(v.handle)
		}
	}

	if err := mip.Run(tree, p.callback(colHandles, rowHandles)); err != nil {
		return nil, err
	}

	return p.extractSolution(tree), nil
}

// callback wires the Init event to populate the root subproblem with every
// variable and constraint, and forwards every event to an attached
// TreeLogger (ported from the teacher's BnbMiddleware hook in
// instrumentation.go, generalized from one fixed callback onto the full
// event stream spec.md §4.4 defines).
func (p *Problem) callback(cols, rows []master.ItemHandle) mip.Callback {
	return func(ctx *mip.Context, ev mip.Event) {
		if p.tree != nil {
			p.tree.observe(ctx, ev)
		}
		if ev != mip.Init {
			return
		}
		if err := ctx.Tree().IES.AddCols(cols); err != nil {
			panic(fmt.Errorf("ilp: populating root subproblem's variables: %w", err))
		}
		if err := ctx.Tree().IES.AddRows(rows); err != nil {
			panic(fmt.Errorf("ilp: populating root subproblem's constraints: %w", err))
		}
	}
}

// Solution contains the results of a solved Problem.
type Solution struct {
	Objective float64

	// the variables and their optimal values, in the order they were
	// originally added to the Problem.
	Coefficients []struct {
		Name string
		Coef float64
	}

	// keyed by name
	byName map[string]float64
}

func (p *Problem) extractSolution(tree *mip.Tree) *Solution {
	soln := &Solution{
		Objective: tree.Incumbent.Obj,
		byName:    make(map[string]float64, len(p.variables)),
	}
	for _, v := range p.variables {
		val := tree.Incumbent.ColPrim[v.handle]
		soln.Coefficients = append(soln.Coefficients, struct {
			Name string
			Coef float64
		}{v.name, val})
		soln.byName[v.name] = val
	}
	return soln
}

// GetValueFor retrieves the value for a decision variable by its name.
func (s *Solution) GetValueFor(varName string) (float64, error) {
	val, ok := s.byName[varName]
	if !ok {
		return 0, fmt.Errorf("ilp: variable %q not found in Solution", varName)
	}
	return val, nil
}
