// Package plan holds the immutable logical plan tree, its expression
// language, the per-alias planning context, and the render-plan reduction
// target (spec.md §3). It is the analogue of the teacher's query package:
// the shared data types every analyzer/optimizer pass in package planner
// reads and rewrites.
package plan

// LogicalPlan is the sum type of spec.md §3.1. Every variant implements
// this marker interface, following the teacher's Pattern/Clause idiom
// (datalog/query/types.go): a private marker method plus String().
type LogicalPlan interface {
	logicalPlan()
	String() string
}

// Empty is the zero plan — "nothing here", used as a GraphRel's left child
// once duplicate-scan removal has proven the left endpoint is already
// materialized upstream (spec.md §3.1 invariants).
type Empty struct{}

func (Empty) logicalPlan()    {}
func (Empty) String() string { return "Empty" }

// IsEmpty reports whether p is the Empty plan (nil also counts as empty so
// callers don't need a nil check before a type switch).
func IsEmpty(p LogicalPlan) bool {
	if p == nil {
		return true
	}
	_, ok := p.(Empty)
	return ok
}

// Scan is a leaf table reference. TableName is filled in by schema
// inference (spec.md §3.1: "Scan.table_name is None immediately after plan
// building").
type Scan struct {
	TableAlias string
	TableName  string // "" until schema inference fills it in
}

func (*Scan) logicalPlan()    {}
func (s *Scan) String() string {
	if s.TableName == "" {
		return "Scan(" + s.TableAlias + ")"
	}
	return "Scan(" + s.TableAlias + " -> " + s.TableName + ")"
}

// GraphNode wraps a single node pattern in the traversal.
type GraphNode struct {
	Input          LogicalPlan
	Alias          string
	DownConnection string // alias of the edge linking this node to the pattern below it, "" if none
}

func (*GraphNode) logicalPlan()    {}
func (n *GraphNode) String() string {
	return "GraphNode(" + n.Alias + ")"
}

// RelDirection is the relationship direction carried on a GraphRel.
type RelDirection uint8

const (
	DirIncoming RelDirection = iota
	DirOutgoing
	DirEither
)

func (d RelDirection) String() string {
	switch d {
	case DirOutgoing:
		return "outgoing"
	case DirIncoming:
		return "incoming"
	default:
		return "either"
	}
}

// Reverse flips a direction, used when anchor rotation flips an edge
// (spec.md §4.6).
func (d RelDirection) Reverse() RelDirection {
	switch d {
	case DirOutgoing:
		return DirIncoming
	case DirIncoming:
		return DirOutgoing
	default:
		return DirEither
	}
}

// GraphRel wraps one relationship pattern with its two endpoint subtrees.
type GraphRel struct {
	Left, Center, Right LogicalPlan
	Alias               string
	Direction           RelDirection
	LeftConnection      string // node alias left endpoint connects to
	RightConnection     string // node alias right endpoint connects to
	IsRelAnchor         bool
}

func (*GraphRel) logicalPlan()    {}
func (r *GraphRel) String() string {
	return "GraphRel(" + r.Alias + " " + r.Direction.String() + ")"
}

// Filter wraps its input with a boolean predicate.
type Filter struct {
	Input     LogicalPlan
	Predicate Expr
}

func (*Filter) logicalPlan()    {}
func (f *Filter) String() string { return "Filter(" + f.Predicate.String() + ")" }

// ProjectionItem is one SELECT-list entry: an expression with an optional
// output alias (e.g. `n.name AS username`).
type ProjectionItem struct {
	Expr  Expr
	Alias string
}

// Projection wraps its input with a projection list.
type Projection struct {
	Input LogicalPlan
	Items []ProjectionItem
}

func (*Projection) logicalPlan()    {}
func (p *Projection) String() string { return "Projection" }

// GroupBy wraps its input with a list of grouping expressions.
type GroupBy struct {
	Input       LogicalPlan
	Expressions []Expr
}

func (*GroupBy) logicalPlan()    {}
func (*GroupBy) String() string { return "GroupBy" }

// OrderDirection is ascending or descending for one ORDER BY item.
type OrderDirection uint8

const (
	Asc OrderDirection = iota
	Desc
)

// OrderByItem is one `expr ASC|DESC` entry.
type OrderByItem struct {
	Expr      Expr
	Direction OrderDirection
}

// OrderBy wraps its input with an ordering.
type OrderBy struct {
	Input LogicalPlan
	Items []OrderByItem
}

func (*OrderBy) logicalPlan()    {}
func (*OrderBy) String() string { return "OrderBy" }

// Skip wraps its input with a row-skip count.
type Skip struct {
	Input LogicalPlan
	Count int64
}

func (*Skip) logicalPlan()    {}
func (*Skip) String() string { return "Skip" }

// Limit wraps its input with a row-limit count.
type Limit struct {
	Input LogicalPlan
	Count int64
}

func (*Limit) logicalPlan()    {}
func (*Limit) String() string { return "Limit" }

// Cte wraps its input as a named common table expression.
type Cte struct {
	Input LogicalPlan
	Name  string
}

func (*Cte) logicalPlan()    {}
func (c *Cte) String() string { return "Cte(" + c.Name + ")" }

// Join is one outer-query join against a CTE or table.
type Join struct {
	TableName  string
	TableAlias string
	On         []OperatorApplication // equalities this join is built from
}

// GraphJoins wraps the outermost Projection (it sits directly above it)
// with the ordered join list graph-join inference produced. It appears at
// most once in a plan.
type GraphJoins struct {
	Input LogicalPlan
	Joins []Join
}

func (*GraphJoins) logicalPlan()    {}
func (*GraphJoins) String() string { return "GraphJoins" }

// Union combines multiple plans, used for either-direction traversal on
// same-label endpoints (spec.md §4.8).
type Union struct {
	Inputs []LogicalPlan
}

func (*Union) logicalPlan()    {}
func (*Union) String() string { return "Union" }

// Transformed pairs a plan with a flag saying whether a pass rebuilt it
// (Changed=true, Plan is the new tree) or left it alone (Changed=false, Plan
// is the same value that was passed in), after spec.md §3.1/§5's
// "Changed(new_subtree) | Unchanged(old_subtree)" marker. The passes in
// package planner do not use it: each returns a bare LogicalPlan, and
// planner.Trace detects change by comparing renderings of the tree.
type Transformed struct {
	Plan    LogicalPlan
	Changed bool
}

// Unchanged wraps p as an Unchanged result.
func Unchanged(p LogicalPlan) Transformed { return Transformed{Plan: p, Changed: false} }

// Changed wraps p as a Changed result.
func Changed(p LogicalPlan) Transformed { return Transformed{Plan: p, Changed: true} }

// Inputs returns the direct children of p in traversal order (Left/Center/Right
// for GraphRel, Inputs for Union, Input for single-child variants, nil for
// leaves). Passes that need to walk the tree generically use this instead
// of re-deriving the switch themselves.
func Inputs(p LogicalPlan) []LogicalPlan {
	switch n := p.(type) {
	case *GraphNode:
		return []LogicalPlan{n.Input}
	case *GraphRel:
		return []LogicalPlan{n.Left, n.Center, n.Right}
	case *Filter:
		return []LogicalPlan{n.Input}
	case *Projection:
		return []LogicalPlan{n.Input}
	case *GroupBy:
		return []LogicalPlan{n.Input}
	case *OrderBy:
		return []LogicalPlan{n.Input}
	case *Skip:
		return []LogicalPlan{n.Input}
	case *Limit:
		return []LogicalPlan{n.Input}
	case *Cte:
		return []LogicalPlan{n.Input}
	case *GraphJoins:
		return []LogicalPlan{n.Input}
	case *Union:
		return n.Inputs
	default:
		return nil
	}
}
