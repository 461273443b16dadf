package planner

import (
	"github.com/corvusdb/graphplan/catalog"
	"github.com/corvusdb/graphplan/plan"
)

// InferSchema runs schema inference (spec.md §4.2): every GraphNode/GraphRel
// alias must leave this pass with a resolved label, and every Scan leaf gets
// its table_name filled in from the (now resolved) alias context.
//
// The eight-row resolution table keys off which of {left, rel, right} already
// carry a label. Because the plan context is a flat alias → TableContext map
// (spec.md §3.3), the lookups below work directly off alias names regardless
// of how deeply a GraphRel's right subtree nests — resolution never needs to
// walk the tree to find an endpoint's current label.
func InferSchema(root plan.LogicalPlan, ctx *plan.Context, schema *catalog.Schema) (plan.LogicalPlan, error) {
	hints := collectColumnHints(root)

	rels := collectGraphRels(root)
	for _, rel := range rels {
		if err := resolveRel(rel, ctx, schema, hints); err != nil {
			return nil, err
		}
	}

	return fillScanNames(root, ctx, schema)
}

func collectGraphRels(p plan.LogicalPlan) []*plan.GraphRel {
	var out []*plan.GraphRel
	var walk func(plan.LogicalPlan)
	walk = func(n plan.LogicalPlan) {
		if plan.IsEmpty(n) || n == nil {
			return
		}
		if r, ok := n.(*plan.GraphRel); ok {
			out = append(out, r)
		}
		for _, c := range plan.Inputs(n) {
			walk(c)
		}
	}
	walk(p)
	return out
}

func resolveRel(rel *plan.GraphRel, ctx *plan.Context, schema *catalog.Schema, hints map[string][]string) error {
	leftTc := ctx.MustGet(plan.PassSchemaInference, rel.LeftConnection)
	rightTc := ctx.MustGet(plan.PassSchemaInference, rel.RightConnection)
	relTc := ctx.MustGet(plan.PassSchemaInference, rel.Alias)

	leftKnown := leftTc.Label != ""
	rightKnown := rightTc.Label != ""
	relKnown := relTc.Label != ""

	switch {
	case leftKnown && relKnown && rightKnown:
		return nil

	case !leftKnown && relKnown && rightKnown:
		relSchema, err := schema.GetRelSchema(relTc.Label)
		if err != nil {
			return plan.Wrap(plan.PassSchemaInference, plan.NoRelationSchemaFound, err, relTc.Label)
		}
		label, err := otherEndpoint(relSchema, rightTc.Label)
		if err != nil {
			return plan.Wrap(plan.PassSchemaInference, plan.NoNodeSchemaFound, err, rel.LeftConnection)
		}
		leftTc.Label = label
		return nil

	case leftKnown && relKnown && !rightKnown:
		relSchema, err := schema.GetRelSchema(relTc.Label)
		if err != nil {
			return plan.Wrap(plan.PassSchemaInference, plan.NoRelationSchemaFound, err, relTc.Label)
		}
		label, err := otherEndpoint(relSchema, leftTc.Label)
		if err != nil {
			return plan.Wrap(plan.PassSchemaInference, plan.NoNodeSchemaFound, err, rel.RightConnection)
		}
		rightTc.Label = label
		return nil

	case leftKnown && !relKnown && rightKnown:
		candidates := schema.RelsBetween(leftTc.Label, rightTc.Label)
		switch len(candidates) {
		case 0:
			return plan.NewError(plan.PassSchemaInference, plan.NoRelationSchemaFound, rel.Alias)
		case 1:
			relTc.Label = candidates[0]
			return nil
		default:
			return plan.NewError(plan.PassSchemaInference, plan.NotEnoughLabels, rel.Alias)
		}

	case !leftKnown && relKnown && !rightKnown:
		relSchema, err := schema.GetRelSchema(relTc.Label)
		if err != nil {
			return plan.Wrap(plan.PassSchemaInference, plan.NoRelationSchemaFound, err, relTc.Label)
		}
		if relSchema.FromNode == relSchema.ToNode {
			leftTc.Label = relSchema.FromNode
			rightTc.Label = relSchema.ToNode
			return nil
		}
		leftGuess, leftOK := preferByColumns(schema, hints[rel.LeftConnection], relSchema.FromNode, relSchema.ToNode)
		if leftOK {
			leftTc.Label = leftGuess
			if leftGuess == relSchema.FromNode {
				rightTc.Label = relSchema.ToNode
			} else {
				rightTc.Label = relSchema.FromNode
			}
			return nil
		}
		if rel.Direction == plan.DirIncoming {
			leftTc.Label, rightTc.Label = relSchema.ToNode, relSchema.FromNode
		} else {
			leftTc.Label, rightTc.Label = relSchema.FromNode, relSchema.ToNode
		}
		return nil

	case leftKnown && !relKnown && !rightKnown:
		candidates := schema.RelsIncidentOn(leftTc.Label)
		return resolveFromIncident(candidates, leftTc.Label, rel.RightConnection, rightTc, relTc, schema, hints, rel.Alias)

	case !leftKnown && !relKnown && rightKnown:
		candidates := schema.RelsIncidentOn(rightTc.Label)
		return resolveFromIncident(candidates, rightTc.Label, rel.LeftConnection, leftTc, relTc, schema, hints, rel.Alias)

	default: // !leftKnown && !relKnown && !rightKnown
		leftLabel, leftOK := inferLabelFromColumns(schema, hints[rel.LeftConnection])
		rightLabel, rightOK := inferLabelFromColumns(schema, hints[rel.RightConnection])
		if !leftOK || !rightOK {
			return plan.NewError(plan.PassSchemaInference, plan.NotEnoughLabels, rel.LeftConnection, rel.RightConnection)
		}
		candidates := schema.RelsBetween(leftLabel, rightLabel)
		if len(candidates) != 1 {
			return plan.NewError(plan.PassSchemaInference, plan.NotEnoughLabels, rel.Alias)
		}
		leftTc.Label = leftLabel
		rightTc.Label = rightLabel
		relTc.Label = candidates[0]
		return nil
	}
}

// resolveFromIncident handles the "one endpoint known, relation and the
// other endpoint unknown" rules (spec.md §4.2 rows 6-7): enumerate relations
// incident on the known endpoint, then disambiguate by column hints on the
// unknown endpoint if more than one candidate remains.
func resolveFromIncident(candidates []string, knownLabel, otherAlias string, otherTc, relTc *plan.TableContext, schema *catalog.Schema, hints map[string][]string, relAlias string) error {
	if len(candidates) == 0 {
		return plan.NewError(plan.PassSchemaInference, plan.NoRelationSchemaFound, relAlias)
	}
	if len(candidates) == 1 {
		relTc.Label = candidates[0]
		rs, err := schema.GetRelSchema(candidates[0])
		if err != nil {
			return plan.Wrap(plan.PassSchemaInference, plan.NoRelationSchemaFound, err, candidates[0])
		}
		label, err := otherEndpoint(rs, knownLabel)
		if err != nil {
			return plan.Wrap(plan.PassSchemaInference, plan.NoNodeSchemaFound, err, otherAlias)
		}
		otherTc.Label = label
		return nil
	}
	// Multiple relations touch the known endpoint; use the unknown side's
	// column hints to pick the one whose other endpoint's table matches.
	for _, cand := range candidates {
		rs, err := schema.GetRelSchema(cand)
		if err != nil {
			continue
		}
		label, err := otherEndpoint(rs, knownLabel)
		if err != nil {
			continue
		}
		if ns, err := schema.GetNodeSchema(label); err == nil && columnsMatch(ns, hints[otherAlias]) {
			relTc.Label = cand
			otherTc.Label = label
			return nil
		}
	}
	return plan.NewError(plan.PassSchemaInference, plan.NotEnoughLabels, relAlias)
}

func otherEndpoint(rs catalog.RelSchema, known string) (string, error) {
	if rs.FromNode == known {
		return rs.ToNode, nil
	}
	if rs.ToNode == known {
		return rs.FromNode, nil
	}
	return "", plan.Wrap(plan.PassSchemaInference, plan.NoNodeSchemaFound, nil)
}

func preferByColumns(schema *catalog.Schema, hintCols []string, candidateA, candidateB string) (string, bool) {
	if len(hintCols) == 0 {
		return "", false
	}
	nsA, errA := schema.GetNodeSchema(candidateA)
	nsB, errB := schema.GetNodeSchema(candidateB)
	aMatch := errA == nil && columnsMatch(nsA, hintCols)
	bMatch := errB == nil && columnsMatch(nsB, hintCols)
	if aMatch && !bMatch {
		return candidateA, true
	}
	if bMatch && !aMatch {
		return candidateB, true
	}
	return "", false
}

func columnsMatch(ns catalog.NodeSchema, cols []string) bool {
	if len(cols) == 0 {
		return false
	}
	for _, c := range cols {
		if !ns.HasColumn(c) {
			return false
		}
	}
	return true
}

// inferLabelFromColumns finds the unique node label whose table exposes
// every hinted column, used by the fully-unresolved §4.2 row.
func inferLabelFromColumns(schema *catalog.Schema, cols []string) (string, bool) {
	if len(cols) == 0 {
		return "", false
	}
	var found string
	count := 0
	for label, ns := range schema.GetAllNodes() {
		if columnsMatch(ns, cols) {
			found = label
			count++
		}
	}
	return found, count == 1
}

// collectColumnHints scans every Filter predicate and Projection item in the
// tree for PropertyAccess references, grouping column names by alias. This
// runs before filter/projection tagging have attributed anything to the
// per-alias context, so it is the only source of "which columns does this
// alias's WHERE/RETURN mention" available to schema inference.
func collectColumnHints(p plan.LogicalPlan) map[string][]string {
	hints := make(map[string][]string)
	var walkExpr func(plan.Expr)
	walkExpr = func(e plan.Expr) {
		switch v := e.(type) {
		case plan.PropertyAccess:
			hints[v.TableAlias] = append(hints[v.TableAlias], v.Column)
		case plan.OperatorApplication:
			for _, o := range v.Operands {
				walkExpr(o)
			}
		case plan.ScalarFnCall:
			for _, a := range v.Args {
				walkExpr(a)
			}
		case plan.AggregateFnCall:
			for _, a := range v.Args {
				walkExpr(a)
			}
		case plan.List:
			for _, it := range v.Items {
				walkExpr(it)
			}
		}
	}
	var walk func(plan.LogicalPlan)
	walk = func(n plan.LogicalPlan) {
		if plan.IsEmpty(n) || n == nil {
			return
		}
		switch v := n.(type) {
		case *plan.Filter:
			walkExpr(v.Predicate)
		case *plan.Projection:
			for _, it := range v.Items {
				walkExpr(it.Expr)
			}
		}
		for _, c := range plan.Inputs(n) {
			walk(c)
		}
	}
	walk(p)
	return hints
}

// fillScanNames rebuilds every Scan leaf with TableName populated from its
// alias's now-resolved label, producing a fresh tree the way every other
// rewriting pass does (spec.md §5: the tree is immutable, rebuilt on change).
func fillScanNames(p plan.LogicalPlan, ctx *plan.Context, schema *catalog.Schema) (plan.LogicalPlan, error) {
	if plan.IsEmpty(p) || p == nil {
		return p, nil
	}
	switch v := p.(type) {
	case *plan.Scan:
		tc, ok := ctx.Get(v.TableAlias)
		if !ok || tc.Label == "" {
			return v, nil
		}
		tableName, err := labelToTableName(schema, tc.Label, tc.IsRelation)
		if err != nil {
			kind := plan.NoNodeSchemaFound
			if tc.IsRelation {
				kind = plan.NoRelationSchemaFound
			}
			return nil, plan.Wrap(plan.PassSchemaInference, kind, err, v.TableAlias)
		}
		return &plan.Scan{TableAlias: v.TableAlias, TableName: tableName}, nil
	case *plan.GraphNode:
		in, err := fillScanNames(v.Input, ctx, schema)
		if err != nil {
			return nil, err
		}
		return &plan.GraphNode{Input: in, Alias: v.Alias, DownConnection: v.DownConnection}, nil
	case *plan.GraphRel:
		left, err := fillScanNames(v.Left, ctx, schema)
		if err != nil {
			return nil, err
		}
		center, err := fillScanNames(v.Center, ctx, schema)
		if err != nil {
			return nil, err
		}
		right, err := fillScanNames(v.Right, ctx, schema)
		if err != nil {
			return nil, err
		}
		return &plan.GraphRel{
			Left:            left,
			Center:          center,
			Right:           right,
			Alias:           v.Alias,
			Direction:       v.Direction,
			LeftConnection:  v.LeftConnection,
			RightConnection: v.RightConnection,
			IsRelAnchor:     v.IsRelAnchor,
		}, nil
	case *plan.Filter:
		in, err := fillScanNames(v.Input, ctx, schema)
		if err != nil {
			return nil, err
		}
		return &plan.Filter{Input: in, Predicate: v.Predicate}, nil
	case *plan.Projection:
		in, err := fillScanNames(v.Input, ctx, schema)
		if err != nil {
			return nil, err
		}
		return &plan.Projection{Input: in, Items: v.Items}, nil
	case *plan.GroupBy:
		in, err := fillScanNames(v.Input, ctx, schema)
		if err != nil {
			return nil, err
		}
		return &plan.GroupBy{Input: in, Expressions: v.Expressions}, nil
	case *plan.OrderBy:
		in, err := fillScanNames(v.Input, ctx, schema)
		if err != nil {
			return nil, err
		}
		return &plan.OrderBy{Input: in, Items: v.Items}, nil
	case *plan.Skip:
		in, err := fillScanNames(v.Input, ctx, schema)
		if err != nil {
			return nil, err
		}
		return &plan.Skip{Input: in, Count: v.Count}, nil
	case *plan.Limit:
		in, err := fillScanNames(v.Input, ctx, schema)
		if err != nil {
			return nil, err
		}
		return &plan.Limit{Input: in, Count: v.Count}, nil
	case *plan.Cte:
		in, err := fillScanNames(v.Input, ctx, schema)
		if err != nil {
			return nil, err
		}
		return &plan.Cte{Input: in, Name: v.Name}, nil
	case *plan.GraphJoins:
		in, err := fillScanNames(v.Input, ctx, schema)
		if err != nil {
			return nil, err
		}
		return &plan.GraphJoins{Input: in, Joins: v.Joins}, nil
	case *plan.Union:
		ins := make([]plan.LogicalPlan, len(v.Inputs))
		for i, in := range v.Inputs {
			rewritten, err := fillScanNames(in, ctx, schema)
			if err != nil {
				return nil, err
			}
			ins[i] = rewritten
		}
		return &plan.Union{Inputs: ins}, nil
	default:
		return p, nil
	}
}

// labelToTableName resolves a resolved label to its physical table name,
// used by later passes once schema inference has set ctx[alias].Label.
func labelToTableName(schema *catalog.Schema, label string, isRelation bool) (string, error) {
	if isRelation {
		rs, err := schema.GetRelSchema(label)
		if err != nil {
			return "", err
		}
		return rs.TableName, nil
	}
	ns, err := schema.GetNodeSchema(label)
	if err != nil {
		return "", err
	}
	return ns.TableName, nil
}
