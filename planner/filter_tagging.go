package planner

import "github.com/corvusdb/graphplan/plan"

// TagFilters runs filter tagging (spec.md §4.3): classifies every top-level
// AND-conjunct of each Filter's predicate as single-table (push into the
// owning alias's filter_predicates, rewriting PropertyAccess to Column) or
// multi-table (leave on the Filter node, but record every PropertyAccess it
// touches into the respective alias's projection_items so those columns
// survive to the outer WHERE). A Filter whose conjuncts all pushed is
// removed from the tree.
func TagFilters(p plan.LogicalPlan, ctx *plan.Context) plan.LogicalPlan {
	switch v := p.(type) {
	case *plan.Filter:
		input := TagFilters(v.Input, ctx)
		conjuncts, _ := plan.IsAndChain(v.Predicate)
		if conjuncts == nil {
			conjuncts = []plan.Expr{v.Predicate}
		}

		var remaining []plan.Expr
		for _, c := range conjuncts {
			if pushFilterConjunct(c, ctx) {
				continue
			}
			tagMultiTableConjunct(c, ctx)
			remaining = append(remaining, c)
		}

		if len(remaining) == 0 {
			return input
		}
		return &plan.Filter{Input: input, Predicate: plan.And(remaining...)}

	default:
		children := plan.Inputs(p)
		if len(children) == 0 {
			return p
		}
		return rebuildWithInputs(p, mapTagFilters(children, ctx))
	}
}

func mapTagFilters(children []plan.LogicalPlan, ctx *plan.Context) []plan.LogicalPlan {
	out := make([]plan.LogicalPlan, len(children))
	for i, c := range children {
		out[i] = TagFilters(c, ctx)
	}
	return out
}

// pushFilterConjunct attempts to push c into its owning alias's
// filter_predicates. Returns true if it pushed (and thus should be dropped
// from the Filter node).
func pushFilterConjunct(c plan.Expr, ctx *plan.Context) bool {
	if containsAggregate(c) {
		return false
	}
	if isOrRooted(c) {
		return false
	}
	aliases := referencedAliases(c)
	if len(aliases) != 1 {
		return false
	}
	var alias string
	for a := range aliases {
		alias = a
	}
	tc := ctx.GetOrCreate(alias)
	rewritten := rewriteColumnsForAlias(c, alias)
	tc.FilterPredicates = append(tc.FilterPredicates, rewritten)
	if tc.IsRelation {
		tc.UseEdgeList = true
	}
	return true
}

// tagMultiTableConjunct records every PropertyAccess a surviving conjunct
// touches into its alias's projection_items, so the column is still
// available once the per-table CTE body is rendered.
func tagMultiTableConjunct(c plan.Expr, ctx *plan.Context) {
	for alias, cols := range collectPropertyAccesses(c) {
		tc := ctx.GetOrCreate(alias)
		for _, col := range cols {
			tc.ProjectionItems = append(tc.ProjectionItems, plan.ProjectionItem{Expr: plan.Column{Name: col}})
		}
	}
}

func isOrRooted(e plan.Expr) bool {
	op, ok := e.(plan.OperatorApplication)
	return ok && op.Op == plan.OpOr
}

func containsAggregate(e plan.Expr) bool {
	switch v := e.(type) {
	case plan.AggregateFnCall:
		return true
	case plan.ScalarFnCall:
		for _, a := range v.Args {
			if containsAggregate(a) {
				return true
			}
		}
	case plan.OperatorApplication:
		for _, o := range v.Operands {
			if containsAggregate(o) {
				return true
			}
		}
	case plan.List:
		for _, it := range v.Items {
			if containsAggregate(it) {
				return true
			}
		}
	}
	return false
}

func referencedAliases(e plan.Expr) map[string]struct{} {
	out := make(map[string]struct{})
	var walk func(plan.Expr)
	walk = func(e plan.Expr) {
		switch v := e.(type) {
		case plan.PropertyAccess:
			out[v.TableAlias] = struct{}{}
		case plan.TableAlias:
			out[v.Name] = struct{}{}
		case plan.OperatorApplication:
			for _, o := range v.Operands {
				walk(o)
			}
		case plan.ScalarFnCall:
			for _, a := range v.Args {
				walk(a)
			}
		case plan.AggregateFnCall:
			for _, a := range v.Args {
				walk(a)
			}
		case plan.List:
			for _, it := range v.Items {
				walk(it)
			}
		}
	}
	walk(e)
	return out
}

func collectPropertyAccesses(e plan.Expr) map[string][]string {
	out := make(map[string][]string)
	var walk func(plan.Expr)
	walk = func(e plan.Expr) {
		switch v := e.(type) {
		case plan.PropertyAccess:
			out[v.TableAlias] = append(out[v.TableAlias], v.Column)
		case plan.OperatorApplication:
			for _, o := range v.Operands {
				walk(o)
			}
		case plan.ScalarFnCall:
			for _, a := range v.Args {
				walk(a)
			}
		case plan.AggregateFnCall:
			for _, a := range v.Args {
				walk(a)
			}
		case plan.List:
			for _, it := range v.Items {
				walk(it)
			}
		}
	}
	walk(e)
	return out
}

// rewriteColumnsForAlias rewrites every PropertyAccess{alias, col} in e to a
// bare Column(col); e is known to reference only alias.
func rewriteColumnsForAlias(e plan.Expr, alias string) plan.Expr {
	switch v := e.(type) {
	case plan.PropertyAccess:
		if v.TableAlias == alias {
			return plan.Column{Name: v.Column}
		}
		return v
	case plan.OperatorApplication:
		operands := make([]plan.Expr, len(v.Operands))
		for i, o := range v.Operands {
			operands[i] = rewriteColumnsForAlias(o, alias)
		}
		return plan.OperatorApplication{Op: v.Op, Operands: operands}
	case plan.ScalarFnCall:
		args := make([]plan.Expr, len(v.Args))
		for i, a := range v.Args {
			args[i] = rewriteColumnsForAlias(a, alias)
		}
		return plan.ScalarFnCall{Name: v.Name, Args: args}
	case plan.AggregateFnCall:
		args := make([]plan.Expr, len(v.Args))
		for i, a := range v.Args {
			args[i] = rewriteColumnsForAlias(a, alias)
		}
		return plan.AggregateFnCall{Name: v.Name, Args: args}
	case plan.List:
		items := make([]plan.Expr, len(v.Items))
		for i, it := range v.Items {
			items[i] = rewriteColumnsForAlias(it, alias)
		}
		return plan.List{Items: items}
	default:
		return e
	}
}
