package plan

// SelectItem is one outer-query SELECT entry.
type SelectItem struct {
	Expr  Expr
	Alias string
}

// FromTable is the outer query's single FROM reference (the anchor table).
type FromTable struct {
	Name  string
	Alias string
}

// RenderCte is one named CTE in the render plan.
type RenderCte struct {
	Name string
	Plan *RenderPlan
}

// RenderPlan is the relational snapshot the SQL emitter consumes (spec.md
// §3.4). It is produced by the render-plan reduction in package planner and
// is the last shape the analyzer/optimizer tree takes before package sqlgen
// walks it.
type RenderPlan struct {
	Ctes     []RenderCte
	Select   []SelectItem
	From     *FromTable
	Joins    []Join
	Filters  Expr // nil if none
	GroupBy  []Expr
	OrderBy  []OrderByItem
	Limit    *int64
	Skip     *int64
	Union    []*RenderPlan
}
