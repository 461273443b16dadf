package planner

import "github.com/corvusdb/graphplan/plan"

// SelectAnchor runs anchor node selection (spec.md §4.6): the alias with the
// most pushed-down filter_predicates becomes the anchor, the table the
// outer query scans directly instead of through a CTE.
//
// If the anchor already sits at the root GraphRel's right_connection no
// rotation is needed. If it is a relation alias, the relation is promoted
// in place (is_rel_anchor=true) rather than rotated — a relation can't
// become a node-shaped leaf. Otherwise the GraphRel whose left_connection
// names the anchor is re-rooted: its Left/Right children and connections
// swap and its direction reverses, so the anchor becomes its Right leaf,
// and the relationships that sat below it in its Right subtree are folded
// back on top of it, one link at a time. The anchor thus ends up as the
// deepest Right leaf of the chain, the base every other CTE chains back
// to, however many hops separate it from that base in the built tree. A
// GraphRel above the one that names the anchor keeps its place.
func SelectAnchor(root plan.LogicalPlan, ctx *plan.Context, allowRotation bool) plan.LogicalPlan {
	anchor, ok := pickAnchorAlias(ctx)
	if !ok {
		return root
	}
	ctx.LastNode = anchor

	if tc, _ := ctx.Get(anchor); tc != nil && tc.IsRelation {
		return promoteRelAnchor(root, anchor)
	}

	if rootRel, ok := root.(*plan.GraphRel); ok && rootRel.RightConnection == anchor {
		return root
	}
	if !allowRotation {
		return root
	}

	rotated, _ := rotateAnchor(root, anchor)
	return rotated
}

// pickAnchorAlias returns the alias with the most filter_predicates,
// breaking ties by lexicographically smallest alias name for determinism.
func pickAnchorAlias(ctx *plan.Context) (string, bool) {
	best := ""
	bestCount := -1
	for _, alias := range sortedAliases(ctx) {
		tc, _ := ctx.Get(alias)
		n := len(tc.FilterPredicates)
		if n > bestCount {
			best = alias
			bestCount = n
		}
	}
	if best == "" {
		return "", false
	}
	return best, true
}

func sortedAliases(ctx *plan.Context) []string {
	aliases := ctx.Aliases()
	for i := 1; i < len(aliases); i++ {
		for j := i; j > 0 && aliases[j] < aliases[j-1]; j-- {
			aliases[j], aliases[j-1] = aliases[j-1], aliases[j]
		}
	}
	return aliases
}

func promoteRelAnchor(p plan.LogicalPlan, relAlias string) plan.LogicalPlan {
	rel, ok := p.(*plan.GraphRel)
	if !ok {
		children := plan.Inputs(p)
		if len(children) == 0 {
			return p
		}
		out := make([]plan.LogicalPlan, len(children))
		for i, c := range children {
			out[i] = promoteRelAnchor(c, relAlias)
		}
		return rebuildWithInputs(p, out)
	}
	if rel.Alias == relAlias {
		return &plan.GraphRel{
			Left: rel.Left, Center: rel.Center, Right: rel.Right,
			Alias: rel.Alias, Direction: rel.Direction,
			LeftConnection: rel.LeftConnection, RightConnection: rel.RightConnection,
			IsRelAnchor: true,
		}
	}
	return &plan.GraphRel{
		Left:            promoteRelAnchor(rel.Left, relAlias),
		Center:          rel.Center,
		Right:           promoteRelAnchor(rel.Right, relAlias),
		Alias:           rel.Alias,
		Direction:       rel.Direction,
		LeftConnection:  rel.LeftConnection,
		RightConnection: rel.RightConnection,
		IsRelAnchor:     rel.IsRelAnchor,
	}
}

// rotateAnchor finds the GraphRel whose left_connection is anchor and
// re-roots that subtree there: that relationship's children and connections
// swap and its direction reverses, and its former Right subtree is threaded
// back on top of it via foldAncestors. Returns the rewritten tree and
// whether a match was found.
func rotateAnchor(p plan.LogicalPlan, anchor string) (plan.LogicalPlan, bool) {
	rel, ok := p.(*plan.GraphRel)
	if !ok {
		children := plan.Inputs(p)
		if len(children) == 0 {
			return p, false
		}
		out := make([]plan.LogicalPlan, len(children))
		found := false
		for i, c := range children {
			rewritten, ok := rotateAnchor(c, anchor)
			out[i] = rewritten
			found = found || ok
		}
		if !found {
			return p, false
		}
		return rebuildWithInputs(p, out), true
	}

	if rel.LeftConnection == anchor {
		newAnchor := &plan.GraphRel{
			Left:            plan.Empty{},
			Center:          rel.Center,
			Right:           rel.Left,
			Alias:           rel.Alias,
			Direction:       rel.Direction.Reverse(),
			LeftConnection:  rel.RightConnection,
			RightConnection: rel.LeftConnection,
			IsRelAnchor:     false,
		}
		return foldAncestors(newAnchor, rel.Right), true
	}

	left, leftFound := rotateAnchor(rel.Left, anchor)
	right, rightFound := rotateAnchor(rel.Right, anchor)
	if !leftFound && !rightFound {
		return rel, false
	}
	return &plan.GraphRel{
		Left: left, Center: rel.Center, Right: right,
		Alias: rel.Alias, Direction: rel.Direction,
		LeftConnection: rel.LeftConnection, RightConnection: rel.RightConnection,
		IsRelAnchor: rel.IsRelAnchor,
	}, true
}

// foldAncestors re-threads remaining — the former Right subtree of the
// anchor's own GraphRel, from its immediate child down to the chain's base
// node — around built, one GraphRel at a time, so each one ends up on top
// of the one folded before it. Each folded GraphRel's Left is a placeholder
// for the next step and its Right holds the previous step; its
// left_connection/right_connection are set to the aliases now on those two
// sides, and its direction reverses only when that swaps its sides.
func foldAncestors(built plan.LogicalPlan, remaining plan.LogicalPlan) plan.LogicalPlan {
	prev, ok := built.(*plan.GraphRel)
	plan.Assertf(plan.PassAnchorSelection, ok, "foldAncestors built %T is not a GraphRel", built)

	switch rem := remaining.(type) {
	case *plan.GraphNode:
		return &plan.GraphRel{
			Left:            rem,
			Center:          prev.Center,
			Right:           prev.Right,
			Alias:           prev.Alias,
			Direction:       prev.Direction,
			LeftConnection:  rem.Alias,
			RightConnection: prev.RightConnection,
			IsRelAnchor:     prev.IsRelAnchor,
		}

	case *plan.GraphRel:
		var prevLeft, nextRemaining plan.LogicalPlan
		var leftConn, rightConn string
		direction := rem.Direction
		if prev.LeftConnection == rem.LeftConnection {
			prevLeft, nextRemaining = rem.Left, rem.Right
			leftConn, rightConn = rem.RightConnection, rem.LeftConnection
			direction = direction.Reverse()
		} else {
			prevLeft, nextRemaining = rem.Right, rem.Left
			leftConn, rightConn = rem.LeftConnection, rem.RightConnection
		}

		constructed := &plan.GraphRel{
			Left:   plan.Empty{},
			Center: rem.Center,
			Right: &plan.GraphRel{
				Left:            prevLeft,
				Center:          prev.Center,
				Right:           prev.Right,
				Alias:           prev.Alias,
				Direction:       prev.Direction,
				LeftConnection:  prev.LeftConnection,
				RightConnection: prev.RightConnection,
				IsRelAnchor:     prev.IsRelAnchor,
			},
			Alias:           rem.Alias,
			Direction:       direction,
			LeftConnection:  leftConn,
			RightConnection: rightConn,
			IsRelAnchor:     false,
		}
		return foldAncestors(constructed, nextRemaining)

	default:
		return built
	}
}
