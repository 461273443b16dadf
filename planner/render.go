package planner

import "github.com/corvusdb/graphplan/plan"

// ReduceRenderPlan runs render-plan reduction (spec.md §4.12), the last
// shape the tree takes before package sqlgen walks it. SELECT/GROUP
// BY/ORDER BY/LIMIT/SKIP bubble up from their respective nodes, JOIN items
// come from GraphJoins, and the anchor's own CTE is unwrapped into the
// outer FROM/WHERE rather than kept in the CTE list — it is scanned
// directly, not joined against.
func ReduceRenderPlan(root plan.LogicalPlan, ctx *plan.Context) *plan.RenderPlan {
	rp := &plan.RenderPlan{}
	cur := root

	for {
		switch v := cur.(type) {
		case *plan.Limit:
			n := v.Count
			rp.Limit = &n
			cur = v.Input
		case *plan.Skip:
			n := v.Count
			rp.Skip = &n
			cur = v.Input
		case *plan.OrderBy:
			rp.OrderBy = v.Items
			cur = v.Input
		case *plan.GroupBy:
			rp.GroupBy = v.Expressions
			cur = v.Input
		case *plan.GraphJoins:
			rp.Joins = append([]plan.Join(nil), v.Joins...)
			cur = v.Input
		case *plan.Projection:
			for _, it := range v.Items {
				rp.Select = append(rp.Select, plan.SelectItem{Expr: it.Expr, Alias: it.Alias})
			}
			cur = v.Input
		default:
			goto core
		}
	}

core:
	var outerFilter plan.Expr
	if f, ok := cur.(*plan.Filter); ok {
		outerFilter = f.Predicate
		cur = f.Input
	}

	anchorCte := findAnchorCte(cur, ctx.LastNode)
	if anchorCte != nil {
		from, anchorFilter := reduceAnchorCte(anchorCte)
		rp.From = from
		rp.Filters = plan.And(anchorFilter, outerFilter)
		collectOtherCtes(cur, anchorCte, &rp.Ctes)
	} else {
		// No GraphRel at all: a single node pattern, never wrapped by
		// anchor selection. cur is that node's own Cte, unwrapped the
		// same way.
		if c, ok := cur.(*plan.Cte); ok {
			from, anchorFilter := reduceAnchorCte(c)
			rp.From = from
			rp.Filters = plan.And(anchorFilter, outerFilter)
		} else {
			rp.Filters = outerFilter
		}
	}

	return rp
}

// findAnchorCte searches the GraphRel tree for the Cte belonging to the
// anchor alias: whichever Left or Right child, at any depth, is a Cte
// whose name is "<label>_<anchor>".
func findAnchorCte(p plan.LogicalPlan, anchor string) *plan.Cte {
	rel, ok := p.(*plan.GraphRel)
	if !ok {
		return nil
	}
	if c, ok := rel.Left.(*plan.Cte); ok && isAnchorCteName(c.Name, anchor) {
		return c
	}
	if c, ok := rel.Right.(*plan.Cte); ok && isAnchorCteName(c.Name, anchor) {
		return c
	}
	if found := findAnchorCte(rel.Left, anchor); found != nil {
		return found
	}
	return findAnchorCte(rel.Right, anchor)
}

func isAnchorCteName(name, anchor string) bool {
	suffix := "_" + anchor
	return len(name) > len(suffix) && name[len(name)-len(suffix):] == suffix
}

// reduceAnchorCte unwraps a node's Cte body into the outer FROM/WHERE: the
// push-down Projection around its Scan is dropped (the anchor's columns are
// already reachable by its own table alias in the flat outer query) and any
// Filter predicates survive, with InSubquery conjuncts stripped (the anchor
// is scanned directly, never filtered via an IN-subquery against itself).
func reduceAnchorCte(c *plan.Cte) (*plan.FromTable, plan.Expr) {
	var filters []plan.Expr
	cur := c.Input
	for {
		switch v := cur.(type) {
		case *plan.Filter:
			if cleaned := stripInSubquery(v.Predicate); cleaned != nil {
				filters = append(filters, cleaned)
			}
			cur = v.Input
		case *plan.Projection:
			cur = v.Input
		case *plan.Scan:
			return &plan.FromTable{Name: v.TableName, Alias: v.TableAlias}, plan.And(filters...)
		default:
			return nil, plan.And(filters...)
		}
	}
}

// stripInSubquery removes InSubquery conjuncts/disjuncts from e, unwrapping
// lone survivors and dropping And/Or nodes whose operands all disappear
// (spec.md §4.12). Returns nil if nothing survives.
func stripInSubquery(e plan.Expr) plan.Expr {
	switch v := e.(type) {
	case plan.InSubquery:
		return nil
	case plan.OperatorApplication:
		if v.Op != plan.OpAnd && v.Op != plan.OpOr {
			return v
		}
		var kept []plan.Expr
		for _, operand := range v.Operands {
			if cleaned := stripInSubquery(operand); cleaned != nil {
				kept = append(kept, cleaned)
			}
		}
		if len(kept) == 0 {
			return nil
		}
		if len(kept) == 1 {
			return kept[0]
		}
		return plan.OperatorApplication{Op: v.Op, Operands: kept}
	default:
		return v
	}
}

// collectOtherCtes walks p in pre-order collecting every Cte except the
// anchor's into ctes, recursively reducing each one's own body.
func collectOtherCtes(p plan.LogicalPlan, anchor *plan.Cte, ctes *[]plan.RenderCte) {
	switch v := p.(type) {
	case *plan.Cte:
		if v == anchor {
			return
		}
		*ctes = append(*ctes, plan.RenderCte{Name: v.Name, Plan: reduceCteBody(v.Input)})
	case *plan.GraphRel:
		collectOtherCtes(v.Left, anchor, ctes)
		collectOtherCtes(v.Center, anchor, ctes)
		collectOtherCtes(v.Right, anchor, ctes)
	}
}

// reduceCteBody reduces a CTE's own body (Filter/Projection/Scan, or a
// Union of such chains for either-direction bitmap reads) into a RenderPlan
// with no joins/group-by/order-by — those never appear inside a CTE body.
// Unlike the anchor, a CTE's InSubquery filter is kept: it is exactly how
// this CTE chains against whichever neighbor is already materialized.
func reduceCteBody(body plan.LogicalPlan) *plan.RenderPlan {
	if u, ok := body.(*plan.Union); ok {
		rp := &plan.RenderPlan{}
		for _, in := range u.Inputs {
			rp.Union = append(rp.Union, reduceCteBody(in))
		}
		return rp
	}

	var filters []plan.Expr
	var sel []plan.SelectItem
	cur := body
	for {
		switch v := cur.(type) {
		case *plan.Filter:
			filters = append(filters, v.Predicate)
			cur = v.Input
		case *plan.Projection:
			for _, it := range v.Items {
				sel = append(sel, plan.SelectItem{Expr: it.Expr, Alias: it.Alias})
			}
			cur = v.Input
		case *plan.Scan:
			rp := &plan.RenderPlan{Select: sel, From: &plan.FromTable{Name: v.TableName, Alias: v.TableAlias}}
			rp.Filters = plan.And(filters...)
			return rp
		default:
			return &plan.RenderPlan{Select: sel, Filters: plan.And(filters...)}
		}
	}
}
