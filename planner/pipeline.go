package planner

import (
	"github.com/corvusdb/graphplan/ast"
	"github.com/corvusdb/graphplan/catalog"
	"github.com/corvusdb/graphplan/plan"
)

// Result is what one Plan call returns: the reduced render plan and the
// context it was built against, kept around for diagnostics (the CLI's
// explain output reads TableContext state, not just the final tree).
type Result struct {
	Render *plan.RenderPlan
	Ctx    *plan.Context
}

// Planner runs the fixed pass pipeline (spec.md §5: "passes run in a fixed
// sequence") over one query, optionally caching results and recording a
// trace.
type Planner struct {
	schema  *catalog.Schema
	options Options
}

// NewPlanner returns a Planner bound to one catalog snapshot.
func NewPlanner(schema *catalog.Schema, options Options) *Planner {
	return &Planner{schema: schema, options: options}
}

// Options returns the planner's configured options.
func (p *Planner) Options() Options {
	return p.options
}

// Plan runs every pass over q in sequence and returns the reduced render
// plan. A pass that fails returns an error, which propagates verbatim (no
// local recovery, spec.md §7); a *plan.Error raised by panic inside any
// pass (MustGet, Assertf) is recovered once in plan and returned the same
// way.
func (p *Planner) Plan(q *ast.Query) (*Result, error) {
	if p.options.Cache != nil {
		if cached, ok := p.options.Cache.Get(q, p.options); ok {
			return cached, nil
		}
	}

	result, err := p.plan(q)
	if err != nil {
		return nil, err
	}

	if p.options.Cache != nil {
		p.options.Cache.Set(q, p.options, result)
	}
	return result, nil
}

func (p *Planner) plan(q *ast.Query) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			if pe, ok := r.(*plan.Error); ok {
				err = pe
				return
			}
			panic(r)
		}
	}()

	tree, ctx, err := Build(q)
	if err != nil {
		return nil, err
	}
	trace := p.options.Trace
	trace.record(plan.PassBuilder, nil, tree)

	tree, err = InferSchema(tree, ctx, p.schema)
	if err != nil {
		return nil, err
	}
	trace.record(plan.PassSchemaInference, nil, tree)

	if p.options.EnablePredicatePushdown {
		before := tree
		tree = TagFilters(tree, ctx)
		trace.record(plan.PassFilterTagging, before, tree)
	}

	before := tree
	tree = TagProjections(tree, ctx)
	trace.record(plan.PassProjectionTagging, before, tree)

	before = tree
	tree = InsertGroupBy(tree)
	trace.record(plan.PassGroupByConstruction, before, tree)

	before = tree
	tree = SelectAnchor(tree, ctx, p.options.EnableAnchorRotation)
	trace.record(plan.PassAnchorSelection, before, tree)

	if p.options.EnableDuplicateScanRemoval {
		before = tree
		tree = RemoveDuplicateScans(tree)
		trace.record(plan.PassDuplicateScanRemoval, before, tree)
	}

	before = tree
	tree, err = PlanTraversal(tree, ctx, p.schema)
	if err != nil {
		return nil, err
	}
	trace.record(plan.PassGraphTraversal, before, tree)

	before = tree
	tree, err = InferJoins(tree, ctx, p.schema)
	if err != nil {
		return nil, err
	}
	trace.record(plan.PassGraphJoinInference, before, tree)

	before = tree
	tree = PushDownProjections(tree, ctx)
	trace.record(plan.PassProjectionPushdown, before, tree)

	if p.options.EnablePredicatePushdown {
		before = tree
		tree = PushDownFilters(tree, ctx)
		trace.record(plan.PassFilterPushdown, before, tree)
	}

	render := ReduceRenderPlan(tree, ctx)

	return &Result{Render: render, Ctx: ctx}, nil
}
