package planner

import "github.com/corvusdb/graphplan/plan"

// rebuildWithInputs returns a copy of p with its children replaced by
// newChildren, in the same order plan.Inputs(p) reports them. Passes that
// only care about one or two node kinds use this for the generic "recurse
// into everything else unchanged" fall-through, instead of writing out the
// full type switch themselves every time (datalog/planner's phase files use
// the same "handle my node, recurse structurally otherwise" shape).
func rebuildWithInputs(p plan.LogicalPlan, newChildren []plan.LogicalPlan) plan.LogicalPlan {
	switch v := p.(type) {
	case *plan.GraphNode:
		return &plan.GraphNode{Input: newChildren[0], Alias: v.Alias, DownConnection: v.DownConnection}
	case *plan.GraphRel:
		return &plan.GraphRel{
			Left:            newChildren[0],
			Center:          newChildren[1],
			Right:           newChildren[2],
			Alias:           v.Alias,
			Direction:       v.Direction,
			LeftConnection:  v.LeftConnection,
			RightConnection: v.RightConnection,
			IsRelAnchor:     v.IsRelAnchor,
		}
	case *plan.Filter:
		return &plan.Filter{Input: newChildren[0], Predicate: v.Predicate}
	case *plan.Projection:
		return &plan.Projection{Input: newChildren[0], Items: v.Items}
	case *plan.GroupBy:
		return &plan.GroupBy{Input: newChildren[0], Expressions: v.Expressions}
	case *plan.OrderBy:
		return &plan.OrderBy{Input: newChildren[0], Items: v.Items}
	case *plan.Skip:
		return &plan.Skip{Input: newChildren[0], Count: v.Count}
	case *plan.Limit:
		return &plan.Limit{Input: newChildren[0], Count: v.Count}
	case *plan.Cte:
		return &plan.Cte{Input: newChildren[0], Name: v.Name}
	case *plan.GraphJoins:
		return &plan.GraphJoins{Input: newChildren[0], Joins: v.Joins}
	case *plan.Union:
		return &plan.Union{Inputs: newChildren}
	default:
		return p
	}
}
