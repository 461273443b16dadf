package planner

import "github.com/corvusdb/graphplan/plan"

// PushDownProjections runs projection push-down (spec.md §4.10): every Scan
// whose alias carries projection_items gets wrapped in a Projection exposing
// exactly those columns, so each CTE body selects only what it needs.
func PushDownProjections(p plan.LogicalPlan, ctx *plan.Context) plan.LogicalPlan {
	switch v := p.(type) {
	case *plan.Scan:
		tc, ok := ctx.Get(v.TableAlias)
		if !ok || len(tc.ProjectionItems) == 0 {
			return v
		}
		return &plan.Projection{Input: v, Items: tc.ProjectionItems}

	default:
		children := plan.Inputs(p)
		if len(children) == 0 {
			return p
		}
		out := make([]plan.LogicalPlan, len(children))
		for i, c := range children {
			out[i] = PushDownProjections(c, ctx)
		}
		return rebuildWithInputs(p, out)
	}
}

// PushDownFilters runs filter push-down (spec.md §4.11): every Scan whose
// alias carries filter_predicates gets wrapped in a Filter combining them
// with And. Multi-table conjuncts were never pushed into filter_predicates
// by filter tagging, so they stay on the outer Filter node; the anchor's own
// pushed filters are lifted back into the outer WHERE by render-plan
// reduction.
func PushDownFilters(p plan.LogicalPlan, ctx *plan.Context) plan.LogicalPlan {
	switch v := p.(type) {
	case *plan.Scan:
		tc, ok := ctx.Get(v.TableAlias)
		if !ok || len(tc.FilterPredicates) == 0 {
			return v
		}
		return &plan.Filter{Input: v, Predicate: plan.And(tc.FilterPredicates...)}

	default:
		children := plan.Inputs(p)
		if len(children) == 0 {
			return p
		}
		out := make([]plan.LogicalPlan, len(children))
		for i, c := range children {
			out[i] = PushDownFilters(c, ctx)
		}
		return rebuildWithInputs(p, out)
	}
}
