package planner

import (
	"github.com/corvusdb/graphplan/catalog"
	"github.com/corvusdb/graphplan/plan"
)

// PlanTraversal runs graph-traversal planning (spec.md §4.8): for each
// GraphRel it decides the physical access form for the relationship
// (edge-list or bitmap-index) and wraps all three children in Cte nodes
// named `{label}_{alias}` (or `{label}_{incoming|outgoing}_{alias}` for a
// bitmap-index rel). Processing recurses into `right` first so the deepest
// relationship becomes the first CTE and every node/rel materializes before
// anything that filters against it.
//
// Projection/filter push-down (§4.10/§4.11) run after this pass and are
// what actually populate each CTE body's SELECT list and WHERE clause from
// the alias's projection_items/filter_predicates; this pass only shapes the
// CTE skeleton and the IN-subquery chain linking each CTE to whichever
// neighbor is already materialized.
func PlanTraversal(root plan.LogicalPlan, ctx *plan.Context, schema *catalog.Schema) (plan.LogicalPlan, error) {
	return planTraversalRec(root, ctx, schema)
}

func planTraversalRec(p plan.LogicalPlan, ctx *plan.Context, schema *catalog.Schema) (plan.LogicalPlan, error) {
	switch v := p.(type) {
	case *plan.GraphRel:
		right, err := planTraversalRec(v.Right, ctx, schema)
		if err != nil {
			return nil, err
		}

		relCte, err := wrapRelCte(v, ctx, schema, right)
		if err != nil {
			return nil, err
		}

		var left plan.LogicalPlan
		if plan.IsEmpty(v.Left) {
			left = v.Left
		} else {
			leftNode, ok := v.Left.(*plan.GraphNode)
			plan.Assertf(plan.PassGraphTraversal, ok, "GraphRel.Left %T is neither Empty nor GraphNode", v.Left)
			left, err = wrapNodeCte(leftNode, ctx, schema, relCte)
			if err != nil {
				return nil, err
			}
		}

		return &plan.GraphRel{
			Left: left, Center: relCte, Right: right,
			Alias: v.Alias, Direction: v.Direction,
			LeftConnection: v.LeftConnection, RightConnection: v.RightConnection,
			IsRelAnchor: v.IsRelAnchor,
		}, nil

	case *plan.GraphNode:
		return wrapNodeCte(v, ctx, schema, nil)

	default:
		children := plan.Inputs(p)
		if len(children) == 0 {
			return p, nil
		}
		out := make([]plan.LogicalPlan, len(children))
		for i, c := range children {
			rewritten, err := planTraversalRec(c, ctx, schema)
			if err != nil {
				return nil, err
			}
			out[i] = rewritten
		}
		return rebuildWithInputs(p, out), nil
	}
}

// wrapNodeCte turns a GraphNode into its node CTE: `SELECT <node_id> FROM
// <label>`, filtered by an IN-subquery against source (the adjacent
// relationship CTE) when the node isn't the deepest base node of the chain.
func wrapNodeCte(node *plan.GraphNode, ctx *plan.Context, schema *catalog.Schema, source plan.LogicalPlan) (*plan.Cte, error) {
	tc := ctx.MustGet(plan.PassGraphTraversal, node.Alias)
	ns, err := schema.GetNodeSchema(tc.Label)
	if err != nil {
		return nil, plan.Wrap(plan.PassGraphTraversal, plan.NoNodeSchemaFound, err, node.Alias)
	}

	body := plan.LogicalPlan(&plan.Projection{
		Input: node.Input,
		Items: []plan.ProjectionItem{{Expr: plan.Column{Name: ns.NodeID.Column}}},
	})
	if source != nil {
		body = &plan.Filter{
			Input:     body,
			Predicate: plan.InSubquery{Expr: plan.Column{Name: ns.NodeID.Column}, Subplan: source},
		}
	}

	return &plan.Cte{Input: body, Name: tc.Label + "_" + node.Alias}, nil
}

// wrapRelCte builds the relationship CTE for rel, given that right has
// already been materialized (possibly several levels down a nested
// GraphRel chain — outwardCte finds the nearest actual node CTE to filter
// against, since a rel never filters against anything but a node).
func wrapRelCte(rel *plan.GraphRel, ctx *plan.Context, schema *catalog.Schema, right plan.LogicalPlan) (plan.LogicalPlan, error) {
	relTc := ctx.MustGet(plan.PassGraphTraversal, rel.Alias)
	leftTc := ctx.MustGet(plan.PassGraphTraversal, rel.LeftConnection)
	rightTc := ctx.MustGet(plan.PassGraphTraversal, rel.RightConnection)

	rs, err := schema.GetRelSchema(relTc.Label)
	if err != nil {
		return nil, plan.Wrap(plan.PassGraphTraversal, plan.NoRelationSchemaFound, err, rel.Alias)
	}

	rightCte := outwardCte(right)
	plan.Assertf(plan.PassGraphTraversal, rightCte != nil, "no materialized node CTE reachable from GraphRel.Right for %s", rel.Alias)

	useEdgeList := relTc.UseEdgeList || len(relTc.FilterPredicates) > 0 || len(relTc.ProjectionItems) > 0

	if useEdgeList {
		return edgeListCte(rel, relTc, rightTc, rs, rightCte)
	}
	return bitmapIndexCte(rel, relTc, leftTc, rightTc, rs, rightCte)
}

// outwardCte finds the nearest node CTE reachable from p: p itself if it is
// already a Cte, or — for a nested GraphRel left in place by traversal
// planning's own recursion — its Left if materialized, else the same walk
// down its Right. Duplicate-scan removal guarantees the deepest GraphRel in
// any chain has both children materialized, so this always terminates at a
// real node CTE, never an Empty.
func outwardCte(p plan.LogicalPlan) *plan.Cte {
	switch v := p.(type) {
	case *plan.Cte:
		return v
	case *plan.GraphRel:
		if c, ok := v.Left.(*plan.Cte); ok {
			return c
		}
		return outwardCte(v.Right)
	default:
		return nil
	}
}

func edgeListCte(rel *plan.GraphRel, relTc, rightTc *plan.TableContext, rs catalog.RelSchema, right plan.LogicalPlan) (plan.LogicalPlan, error) {
	fromCol := "from_" + rs.FromNode
	toCol := "to_" + rs.ToNode

	sel := &plan.Projection{
		Input: &plan.Scan{TableAlias: rel.Alias, TableName: rs.TableName},
		Items: []plan.ProjectionItem{
			{Expr: plan.Column{Name: fromCol}, Alias: "from_id"},
			{Expr: plan.Column{Name: toCol}, Alias: "to_id"},
		},
	}

	filterCol := "to_id"
	if rs.FromNode == rightTc.Label {
		filterCol = "from_id"
	}

	body := plan.LogicalPlan(&plan.Filter{
		Input:     sel,
		Predicate: plan.InSubquery{Expr: plan.Column{Name: filterCol}, Subplan: right},
	})

	return &plan.Cte{Input: body, Name: relTc.Label + "_" + rel.Alias}, nil
}

func bitmapIndexCte(rel *plan.GraphRel, relTc, leftTc, rightTc *plan.TableContext, rs catalog.RelSchema, right plan.LogicalPlan) (plan.LogicalPlan, error) {
	sameLabel := leftTc.Label == rightTc.Label

	if sameLabel && rel.Direction == plan.DirEither {
		incoming := bitmapBody(relTc.Label, "incoming", right)
		outgoing := bitmapBody(relTc.Label, "outgoing", right)
		return &plan.Cte{
			Input: &plan.Union{Inputs: []plan.LogicalPlan{incoming, outgoing}},
			Name:  relTc.Label + "_" + rel.Alias,
		}, nil
	}

	var dir string
	switch {
	case sameLabel && rel.Direction == plan.DirOutgoing:
		dir = "outgoing"
	case sameLabel:
		dir = "incoming"
	case rs.FromNode == rightTc.Label:
		dir = "outgoing"
	default:
		dir = "incoming"
	}

	body := bitmapBody(relTc.Label, dir, right)
	return &plan.Cte{Input: body, Name: relTc.Label + "_" + dir + "_" + rel.Alias}, nil
}

// bitmapBody builds `SELECT from_id, arrayJoin(bitmapToArray(to_id)) AS
// to_id FROM {label}_{dir}`, filtered against the already-materialized
// neighbor CTE (spec.md §4.8).
func bitmapBody(label, dir string, right plan.LogicalPlan) plan.LogicalPlan {
	idxTable := label + "_" + dir
	sel := &plan.Projection{
		Input: &plan.Scan{TableAlias: idxTable, TableName: idxTable},
		Items: []plan.ProjectionItem{
			{Expr: plan.Column{Name: "from_id"}},
			{Expr: plan.ScalarFnCall{Name: "arrayJoin", Args: []plan.Expr{
				plan.ScalarFnCall{Name: "bitmapToArray", Args: []plan.Expr{plan.Column{Name: "to_id"}}},
			}}, Alias: "to_id"},
		},
	}
	return &plan.Filter{
		Input:     sel,
		Predicate: plan.InSubquery{Expr: plan.Column{Name: "from_id"}, Subplan: right},
	}
}
