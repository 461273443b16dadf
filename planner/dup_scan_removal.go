package planner

import "github.com/corvusdb/graphplan/plan"

// RemoveDuplicateScans runs duplicate-scan removal (spec.md §4.7):
// depth-first from the root, a traversed set accumulates node aliases as
// GraphNode is visited. A GraphRel's right is visited before its left; if
// left_connection is already traversed, the left child becomes Empty. The
// center is visited regardless. After this pass every node alias is scanned
// exactly once; any further reference to it is a pure join key.
func RemoveDuplicateScans(root plan.LogicalPlan) plan.LogicalPlan {
	traversed := make(map[string]bool)
	return removeDupScansRec(root, traversed)
}

func removeDupScansRec(p plan.LogicalPlan, traversed map[string]bool) plan.LogicalPlan {
	switch v := p.(type) {
	case *plan.GraphNode:
		traversed[v.Alias] = true
		return &plan.GraphNode{Input: removeDupScansRec(v.Input, traversed), Alias: v.Alias, DownConnection: v.DownConnection}

	case *plan.GraphRel:
		right := removeDupScansRec(v.Right, traversed)

		var left plan.LogicalPlan
		if traversed[v.LeftConnection] {
			left = plan.Empty{}
		} else {
			left = removeDupScansRec(v.Left, traversed)
		}

		center := removeDupScansRec(v.Center, traversed)

		return &plan.GraphRel{
			Left: left, Center: center, Right: right,
			Alias: v.Alias, Direction: v.Direction,
			LeftConnection: v.LeftConnection, RightConnection: v.RightConnection,
			IsRelAnchor: v.IsRelAnchor,
		}

	default:
		children := plan.Inputs(p)
		if len(children) == 0 {
			return p
		}
		out := make([]plan.LogicalPlan, len(children))
		for i, c := range children {
			out[i] = removeDupScansRec(c, traversed)
		}
		return rebuildWithInputs(p, out)
	}
}
