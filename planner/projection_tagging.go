package planner

import "github.com/corvusdb/graphplan/plan"

// TagProjections runs projection tagging (spec.md §4.4): for each
// Projection item, records the columns it touches into the owning alias's
// projection_items, expanding `RETURN *` to every explicit alias first.
func TagProjections(p plan.LogicalPlan, ctx *plan.Context) plan.LogicalPlan {
	switch v := p.(type) {
	case *plan.Projection:
		input := TagProjections(v.Input, ctx)
		items := expandStar(v.Items, ctx)
		out := make([]plan.ProjectionItem, len(items))
		for i, item := range items {
			out[i] = plan.ProjectionItem{Expr: tagProjectionItem(item.Expr, ctx), Alias: item.Alias}
		}
		return &plan.Projection{Input: input, Items: out}

	default:
		children := plan.Inputs(p)
		if len(children) == 0 {
			return p
		}
		out := make([]plan.LogicalPlan, len(children))
		for i, c := range children {
			out[i] = TagProjections(c, ctx)
		}
		return rebuildWithInputs(p, out)
	}
}

// expandStar replaces a lone Star item with a TableAlias item per explicit
// alias in the context (spec.md §4.4: "RETURN * expands to every explicit
// alias in the context").
func expandStar(items []plan.ProjectionItem, ctx *plan.Context) []plan.ProjectionItem {
	var out []plan.ProjectionItem
	for _, it := range items {
		if _, ok := it.Expr.(plan.Star); ok {
			for _, alias := range ctx.ExplicitAliases() {
				out = append(out, plan.ProjectionItem{Expr: plan.TableAlias{Name: alias}})
			}
			continue
		}
		out = append(out, it)
	}
	return out
}

// tagProjectionItem tags e's columns into the owning alias's context and
// returns the (possibly rewritten) outer expression.
func tagProjectionItem(e plan.Expr, ctx *plan.Context) plan.Expr {
	switch v := e.(type) {
	case plan.TableAlias:
		tc := ctx.GetOrCreate(v.Name)
		tc.ProjectionItems = append(tc.ProjectionItems, plan.ProjectionItem{Expr: plan.Star{}})
		if tc.IsRelation {
			tc.UseEdgeList = true
		}
		return plan.PropertyAccess{TableAlias: v.Name, Column: "*"}

	case plan.PropertyAccess:
		tc := ctx.GetOrCreate(v.TableAlias)
		tc.ProjectionItems = append(tc.ProjectionItems, plan.ProjectionItem{Expr: plan.Column{Name: v.Column}})
		return v

	case plan.OperatorApplication:
		operands := make([]plan.Expr, len(v.Operands))
		for i, o := range v.Operands {
			operands[i] = tagProjectionItem(o, ctx)
		}
		return plan.OperatorApplication{Op: v.Op, Operands: operands}

	case plan.ScalarFnCall:
		args := make([]plan.Expr, len(v.Args))
		for i, a := range v.Args {
			args[i] = tagProjectionItem(a, ctx)
		}
		return plan.ScalarFnCall{Name: v.Name, Args: args}

	case plan.AggregateFnCall:
		args := make([]plan.Expr, len(v.Args))
		for i, a := range v.Args {
			args[i] = tagProjectionItem(a, ctx)
		}
		return plan.AggregateFnCall{Name: v.Name, Args: args}

	default:
		return e
	}
}
