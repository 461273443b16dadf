package planner

import "github.com/corvusdb/graphplan/plan"

// InsertGroupBy runs group-by construction (spec.md §4.5): if the outer
// Projection mixes aggregate and non-aggregate items, a GroupBy is inserted
// directly above it, grouping on exactly the non-aggregate expressions.
func InsertGroupBy(p plan.LogicalPlan) plan.LogicalPlan {
	switch v := p.(type) {
	case *plan.Projection:
		input := InsertGroupBy(v.Input)
		proj := &plan.Projection{Input: input, Items: v.Items}

		hasAgg, hasNonAgg := false, false
		var nonAggExprs []plan.Expr
		for _, item := range v.Items {
			if containsAggregate(item.Expr) {
				hasAgg = true
				continue
			}
			hasNonAgg = true
			nonAggExprs = append(nonAggExprs, item.Expr)
		}

		if hasAgg && hasNonAgg {
			return &plan.GroupBy{Input: proj, Expressions: nonAggExprs}
		}
		return proj

	default:
		children := plan.Inputs(p)
		if len(children) == 0 {
			return p
		}
		out := make([]plan.LogicalPlan, len(children))
		for i, c := range children {
			out[i] = InsertGroupBy(c)
		}
		return rebuildWithInputs(p, out)
	}
}
