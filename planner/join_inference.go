package planner

import (
	"sort"

	"github.com/corvusdb/graphplan/catalog"
	"github.com/corvusdb/graphplan/plan"
)

// InferJoins runs graph-join inference (spec.md §4.9): walks the (already
// CTE-shaped) plan, producing the ordered Join list the outer query uses to
// reassemble rows, then wraps the outermost Projection in GraphJoins.
//
// joined tracks aliases already brought into scope by an earlier join (or,
// seeded here, the anchor itself — which never gets an explicit join since
// it is the outer query's FROM).
func InferJoins(root plan.LogicalPlan, ctx *plan.Context, schema *catalog.Schema) (plan.LogicalPlan, error) {
	joined := map[string]bool{ctx.LastNode: true}
	var joins []plan.Join

	var walk func(p plan.LogicalPlan) error
	walk = func(p plan.LogicalPlan) error {
		if plan.IsEmpty(p) || p == nil {
			return nil
		}
		rel, ok := p.(*plan.GraphRel)
		if !ok {
			for _, c := range plan.Inputs(p) {
				if err := walk(c); err != nil {
					return err
				}
			}
			return nil
		}

		if err := walk(rel.Right); err != nil {
			return err
		}

		js, err := inferJoin(rel, ctx, schema, joined)
		if err != nil {
			return err
		}
		joins = append(joins, js...)

		if !plan.IsEmpty(rel.Left) {
			if err := walk(rel.Left); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(root); err != nil {
		return nil, err
	}

	sort.SliceStable(joins, func(i, j int) bool { return len(joins[i].On) < len(joins[j].On) })

	return wrapGraphJoins(root, joins), nil
}

func inferJoin(rel *plan.GraphRel, ctx *plan.Context, schema *catalog.Schema, joined map[string]bool) ([]plan.Join, error) {
	relTc := ctx.MustGet(plan.PassGraphJoinInference, rel.Alias)
	leftTc := ctx.MustGet(plan.PassGraphJoinInference, rel.LeftConnection)
	rightTc := ctx.MustGet(plan.PassGraphJoinInference, rel.RightConnection)

	relCte, ok := rel.Center.(*plan.Cte)
	plan.Assertf(plan.PassGraphJoinInference, ok, "GraphRel.Center is not a Cte after traversal planning")

	leftNs, err := schema.GetNodeSchema(leftTc.Label)
	if err != nil {
		return nil, plan.Wrap(plan.PassGraphJoinInference, plan.NoNodeSchemaFound, err, rel.LeftConnection)
	}
	rightNs, err := schema.GetNodeSchema(rightTc.Label)
	if err != nil {
		return nil, plan.Wrap(plan.PassGraphJoinInference, plan.NoNodeSchemaFound, err, rel.RightConnection)
	}

	useEdgeList := relTc.UseEdgeList || len(relTc.FilterPredicates) > 0 || len(relTc.ProjectionItems) > 0
	var rightCol, leftCol string
	if useEdgeList {
		rs, err := schema.GetRelSchema(relTc.Label)
		if err != nil {
			return nil, plan.Wrap(plan.PassGraphJoinInference, plan.NoRelationSchemaFound, err, rel.Alias)
		}
		rightCol, leftCol = "to_id", "from_id"
		if rs.FromNode == rightTc.Label {
			rightCol, leftCol = "from_id", "to_id"
		}
	} else {
		// Bitmap CTE bodies always filter from_id against the already
		// materialized (right) side (traversal_planning.go's bitmapBody).
		rightCol, leftCol = "from_id", "to_id"
	}

	relEq := func(col, otherAlias, otherCol string) plan.OperatorApplication {
		return plan.OperatorApplication{Op: plan.OpEq, Operands: []plan.Expr{
			plan.PropertyAccess{TableAlias: rel.Alias, Column: col},
			plan.PropertyAccess{TableAlias: otherAlias, Column: otherCol},
		}}
	}

	// Standalone relationship: both endpoints already joined, emit one
	// rel-join carrying both equalities.
	if plan.IsEmpty(rel.Left) {
		on := []plan.OperatorApplication{
			relEq(leftCol, rel.LeftConnection, leftNs.NodeID.Column),
			relEq(rightCol, rel.RightConnection, rightNs.NodeID.Column),
		}
		return []plan.Join{{TableName: relCte.Name, TableAlias: rel.Alias, On: on}}, nil
	}

	leftCte, ok := rel.Left.(*plan.Cte)
	plan.Assertf(plan.PassGraphJoinInference, ok, "GraphRel.Left is not a Cte after traversal planning")

	relJoin := plan.Join{TableName: relCte.Name, TableAlias: rel.Alias, On: []plan.OperatorApplication{
		relEq(rightCol, rel.RightConnection, rightNs.NodeID.Column),
	}}
	leftJoin := plan.Join{TableName: leftCte.Name, TableAlias: rel.LeftConnection, On: []plan.OperatorApplication{
		{Op: plan.OpEq, Operands: []plan.Expr{
			plan.PropertyAccess{TableAlias: rel.LeftConnection, Column: leftNs.NodeID.Column},
			plan.PropertyAccess{TableAlias: rel.Alias, Column: leftCol},
		}},
	}}
	joined[rel.LeftConnection] = true

	if joined[rel.RightConnection] {
		return []plan.Join{relJoin, leftJoin}, nil
	}
	// Right wasn't already joined (it's a base leaf that isn't the chosen
	// anchor) — join it in too, rel-join first on the left key.
	joined[rel.RightConnection] = true
	rightCte, ok := rel.Right.(*plan.Cte)
	plan.Assertf(plan.PassGraphJoinInference, ok, "GraphRel.Right is not a Cte for an unjoined base node")
	rightJoin := plan.Join{TableName: rightCte.Name, TableAlias: rel.RightConnection, On: []plan.OperatorApplication{
		{Op: plan.OpEq, Operands: []plan.Expr{
			plan.PropertyAccess{TableAlias: rel.RightConnection, Column: rightNs.NodeID.Column},
			plan.PropertyAccess{TableAlias: rel.Alias, Column: rightCol},
		}},
	}}
	relJoinLeftKeyed := plan.Join{TableName: relCte.Name, TableAlias: rel.Alias, On: []plan.OperatorApplication{
		relEq(leftCol, rel.LeftConnection, leftNs.NodeID.Column),
	}}
	return []plan.Join{relJoinLeftKeyed, rightJoin}, nil
}

func wrapGraphJoins(p plan.LogicalPlan, joins []plan.Join) plan.LogicalPlan {
	switch v := p.(type) {
	case *plan.Projection:
		return &plan.GraphJoins{Input: v, Joins: joins}
	default:
		children := plan.Inputs(p)
		if len(children) == 0 {
			return p
		}
		out := make([]plan.LogicalPlan, len(children))
		for i, c := range children {
			out[i] = wrapGraphJoins(c, joins)
		}
		return rebuildWithInputs(p, out)
	}
}
