package planner

import (
	"testing"

	"github.com/corvusdb/graphplan/ast"
	"github.com/corvusdb/graphplan/plan"
)

func singleHopQuery() *ast.Query {
	return &ast.Query{
		Match: &ast.MatchClause{
			Paths: []ast.Path{{
				Elements: []ast.PatternElement{
					{Node: &ast.NodePattern{Name: "a", Label: "Person",
						Properties: ast.Properties{"name": ast.StringLiteral{Value: "Alice"}}}},
					{Rel: &ast.RelPattern{Name: "r", Label: "FRIEND", Direction: ast.Outgoing}},
					{Node: &ast.NodePattern{Name: "f", Label: "Person"}},
				},
			}},
		},
		Return: &ast.ReturnClause{
			Items: []ast.ReturnItem{{Expression: ast.PropertyAccess{Alias: "f", Column: "name"}}},
		},
	}
}

func TestBuildProducesGraphRelRoot(t *testing.T) {
	tree, ctx, err := Build(singleHopQuery())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	proj, ok := tree.(*plan.Projection)
	if !ok {
		t.Fatalf("expected a top-level Projection, got %T", tree)
	}
	rel, ok := proj.Input.(*plan.GraphRel)
	if !ok {
		t.Fatalf("expected a GraphRel under the projection, got %T", proj.Input)
	}
	if rel.Alias != "r" {
		t.Errorf("expected rel alias r, got %s", rel.Alias)
	}

	for _, alias := range []string{"a", "r", "f"} {
		if !ctx.Has(alias) {
			t.Errorf("expected context to know alias %q", alias)
		}
	}

	aTc, _ := ctx.Get("a")
	if len(aTc.FilterPredicates) != 1 {
		t.Errorf("expected inline property to become one filter predicate, got %d", len(aTc.FilterPredicates))
	}
}

func TestBuildDisconnectedPatternErrors(t *testing.T) {
	q := &ast.Query{
		Match: &ast.MatchClause{
			Paths: []ast.Path{
				{Elements: []ast.PatternElement{{Node: &ast.NodePattern{Name: "a", Label: "Person"}}}},
				{Elements: []ast.PatternElement{{Node: &ast.NodePattern{Name: "b", Label: "Person"}}}},
			},
		},
	}
	_, _, err := Build(q)
	if err == nil {
		t.Fatal("expected an error for two disconnected standalone node paths")
	}
	pe, ok := err.(*plan.Error)
	if !ok || pe.Kind != plan.DisconnectedPattern {
		t.Fatalf("expected DisconnectedPattern, got %#v", err)
	}
}

// TestBuildSecondPathIntroducesNewFirstEndpoint builds two paths where the
// second path's first node (c) is brand new but its second node (b) was
// already bound by the first path: MATCH (a)-[:FRIEND]->(b), (c)-[:FRIEND]->
// (b). Before the fix, c fell into the merge-props branch meant for
// already-known aliases: its ExplicitAlias stayed false forever (breaking
// RETURN *) and no GraphNode/Scan for c ever made it into the tree at all.
func TestBuildSecondPathIntroducesNewFirstEndpoint(t *testing.T) {
	q := &ast.Query{
		Match: &ast.MatchClause{
			Paths: []ast.Path{
				{Elements: []ast.PatternElement{
					{Node: &ast.NodePattern{Name: "a", Label: "Person"}},
					{Rel: &ast.RelPattern{Name: "r1", Label: "FRIEND", Direction: ast.Outgoing}},
					{Node: &ast.NodePattern{Name: "b", Label: "Person"}},
				}},
				{Elements: []ast.PatternElement{
					{Node: &ast.NodePattern{Name: "c", Label: "Person"}},
					{Rel: &ast.RelPattern{Name: "r2", Label: "FRIEND", Direction: ast.Outgoing}},
					{Node: &ast.NodePattern{Name: "b"}},
				}},
			},
		},
	}

	tree, ctx, err := Build(q)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	cTc, ok := ctx.Get("c")
	if !ok {
		t.Fatal("expected context to know alias c")
	}
	if !cTc.ExplicitAlias {
		t.Error("expected c's ExplicitAlias to be true so RETURN * includes it")
	}

	if !treeHasGraphNode(tree, "c") {
		t.Error("expected a GraphNode/Scan for c somewhere in the built tree")
	}
}

func treeHasGraphNode(p plan.LogicalPlan, alias string) bool {
	switch v := p.(type) {
	case *plan.GraphNode:
		return v.Alias == alias
	case *plan.GraphRel:
		return treeHasGraphNode(v.Left, alias) || treeHasGraphNode(v.Right, alias)
	case *plan.Filter:
		return treeHasGraphNode(v.Input, alias)
	case *plan.Projection:
		return treeHasGraphNode(v.Input, alias)
	default:
		return false
	}
}

func TestBuildSingleStandaloneNode(t *testing.T) {
	q := &ast.Query{
		Match: &ast.MatchClause{
			Paths: []ast.Path{{Elements: []ast.PatternElement{{Node: &ast.NodePattern{Name: "a", Label: "Person"}}}}},
		},
	}
	tree, ctx, err := Build(q)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	node, ok := tree.(*plan.GraphNode)
	if !ok {
		t.Fatalf("expected a bare GraphNode, got %T", tree)
	}
	if node.Alias != "a" {
		t.Errorf("expected alias a, got %s", node.Alias)
	}
	if !ctx.Has("a") {
		t.Error("expected context to know alias a")
	}
}
