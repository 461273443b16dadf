package planner

import (
	"github.com/corvusdb/graphplan/ast"
	"github.com/corvusdb/graphplan/plan"
)

// Build runs the logical plan builder (spec.md §4.1): it walks the parsed
// query's MATCH paths left to right, threading a single accumulated tree
// through every comma-separated pattern, wraps it with WHERE/RETURN/ORDER
// BY/SKIP/LIMIT in that order, and returns the seed tree plus the freshly
// populated Context the rest of the pipeline mutates in place.
//
// This mirrors the teacher's planner_clause_based.go: a single left-to-right
// walk over parsed clauses that both builds the tree and threads a side
// table of what's been seen, rather than a multi-pass AST visitor.
func Build(q *ast.Query) (plan.LogicalPlan, *plan.Context, error) {
	ctx := plan.NewContext()

	var tree plan.LogicalPlan
	var berr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				if pe, ok := r.(*plan.Error); ok {
					berr = pe
					return
				}
				panic(r)
			}
		}()
		tree = buildMatch(q.Match, ctx)
	}()
	if berr != nil {
		return nil, nil, berr
	}

	if q.Where != nil && q.Where.Predicate != nil {
		tree = &plan.Filter{Input: tree, Predicate: lowerExpr(q.Where.Predicate)}
	}

	if q.Return != nil {
		items := make([]plan.ProjectionItem, 0, len(q.Return.Items))
		if q.Return.Star {
			items = append(items, plan.ProjectionItem{Expr: plan.Star{}})
		}
		for _, it := range q.Return.Items {
			items = append(items, plan.ProjectionItem{Expr: lowerExpr(it.Expression), Alias: it.Alias})
		}
		tree = &plan.Projection{Input: tree, Items: items}
	}

	if q.OrderBy != nil && len(q.OrderBy.Items) > 0 {
		items := make([]plan.OrderByItem, len(q.OrderBy.Items))
		for i, it := range q.OrderBy.Items {
			dir := plan.Asc
			if it.Direction == ast.Desc {
				dir = plan.Desc
			}
			items[i] = plan.OrderByItem{Expr: lowerExpr(it.Expression), Direction: dir}
		}
		tree = &plan.OrderBy{Input: tree, Items: items}
	}

	if q.Skip != nil {
		tree = &plan.Skip{Input: tree, Count: *q.Skip}
	}
	if q.Limit != nil {
		tree = &plan.Limit{Input: tree, Count: *q.Limit}
	}

	return tree, ctx, nil
}

// buildMatch walks every path of the MATCH clause in declaration order,
// threading one accumulated tree across all of them. A standalone node path
// either merges into an already-seen alias or starts the tree fresh; a
// connected path walks its edges pairwise, deciding left/right placement by
// which endpoint is already known (spec.md §4.1).
func buildMatch(m *ast.MatchClause, ctx *plan.Context) plan.LogicalPlan {
	if m == nil {
		return plan.Empty{}
	}

	var tree plan.LogicalPlan

	for pathIdx, path := range m.Paths {
		if len(path.Elements) == 1 {
			node := path.Elements[0].Node
			plan.Assertf(plan.PassBuilder, node != nil, "single-element path with no node")
			alias := nodeAlias(node)
			if ctx.Has(alias) {
				mergeNodeProps(ctx, alias, node)
				continue
			}
			if pathIdx > 0 && tree != nil {
				panic(plan.NewError(plan.PassBuilder, plan.DisconnectedPattern, alias))
			}
			insertNode(ctx, alias, node, true)
			fresh := &plan.GraphNode{Input: &plan.Scan{TableAlias: alias}, Alias: alias}
			if tree == nil {
				tree = fresh
			}
			continue
		}

		for i := 0; i+2 < len(path.Elements); i += 2 {
			prevNode := path.Elements[i].Node
			rel := path.Elements[i+1].Rel
			nextNode := path.Elements[i+2].Node
			plan.Assertf(plan.PassBuilder, prevNode != nil && rel != nil && nextNode != nil, "malformed path element sequence")

			prevAlias := nodeAlias(prevNode)
			nextAlias := nodeAlias(nextNode)

			prevKnown := ctx.Has(prevAlias)
			nextKnown := ctx.Has(nextAlias)

			// Exactly one of prev/next is the newly-introduced alias in the
			// common case; that one gets a fresh GraphNode/Scan and lands on
			// the left, the already-known one's props just merge in and it
			// rides along on the right via the accumulated tree. Checked in
			// this order (prev first) so a prev that's known from an earlier
			// path always wins the already-known slot, same priority the
			// original match-clause builder gives the start endpoint.
			var leftAlias, rightAlias string
			switch {
			case prevKnown:
				mergeNodeProps(ctx, prevAlias, prevNode)
				insertNode(ctx, nextAlias, nextNode, true)
				leftAlias, rightAlias = nextAlias, prevAlias
			case nextKnown:
				mergeNodeProps(ctx, nextAlias, nextNode)
				insertNode(ctx, prevAlias, prevNode, true)
				leftAlias, rightAlias = prevAlias, nextAlias
			default:
				if tree != nil {
					panic(plan.NewError(plan.PassBuilder, plan.DisconnectedPattern, prevAlias, nextAlias))
				}
				insertNode(ctx, prevAlias, prevNode, true)
				insertNode(ctx, nextAlias, nextNode, true)
				leftAlias, rightAlias = nextAlias, prevAlias
			}

			leftNode := &plan.GraphNode{Input: &plan.Scan{TableAlias: leftAlias}, Alias: leftAlias}
			var rightPlan plan.LogicalPlan
			if tree == nil {
				rightPlan = &plan.GraphNode{Input: &plan.Scan{TableAlias: rightAlias}, Alias: rightAlias}
			} else {
				rightPlan = tree
			}

			relAlias := relAliasOf(rel)
			insertRel(ctx, relAlias, rel)

			dir := lowerDirection(rel.Direction)
			if leftAlias == prevAlias {
				dir = dir.Reverse()
			}

			tree = &plan.GraphRel{
				Left:            leftNode,
				Center:          &plan.Scan{TableAlias: relAlias},
				Right:           rightPlan,
				Alias:           relAlias,
				Direction:       dir,
				LeftConnection:  leftAlias,
				RightConnection: rightAlias,
			}
		}
	}

	if tree == nil {
		return plan.Empty{}
	}
	return tree
}

func lowerDirection(d ast.Direction) plan.RelDirection {
	switch d {
	case ast.Outgoing:
		return plan.DirOutgoing
	case ast.Incoming:
		return plan.DirIncoming
	default:
		return plan.DirEither
	}
}

func nodeAlias(n *ast.NodePattern) string {
	if n.Name != "" {
		return n.Name
	}
	return genAlias("n")
}

func relAliasOf(r *ast.RelPattern) string {
	if r.Name != "" {
		return r.Name
	}
	return genAlias("r")
}

func insertNode(ctx *plan.Context, alias string, n *ast.NodePattern, explicit bool) {
	tc := ctx.GetOrCreate(alias)
	tc.Label = n.Label
	tc.ExplicitAlias = explicit && n.Name != ""
	applyProps(ctx, alias, n.Properties)
}

func mergeNodeProps(ctx *plan.Context, alias string, n *ast.NodePattern) {
	tc := ctx.GetOrCreate(alias)
	if tc.Label == "" {
		tc.Label = n.Label
	}
	applyProps(ctx, alias, n.Properties)
}

func insertRel(ctx *plan.Context, alias string, r *ast.RelPattern) {
	tc := ctx.GetOrCreate(alias)
	tc.Label = r.Label
	tc.IsRelation = true
	tc.ExplicitAlias = r.Name != ""
	applyProps(ctx, alias, r.Properties)
}

// applyProps lowers inline `{k: v}` pattern properties straight into the
// owning alias's pushed-down filter predicates (spec.md §3.3): since they
// are written on the pattern itself they are already scoped to this alias
// and need no later filter-tagging pass to find them.
func applyProps(ctx *plan.Context, alias string, props ast.Properties) {
	if len(props) == 0 {
		return
	}
	tc := ctx.GetOrCreate(alias)
	for k, v := range props {
		tc.Properties[k] = lowerExpr(v)
		tc.FilterPredicates = append(tc.FilterPredicates, plan.OperatorApplication{
			Op:       plan.OpEq,
			Operands: []plan.Expr{plan.Column{Name: k}, lowerExpr(v)},
		})
	}
}
