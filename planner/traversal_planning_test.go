package planner

import (
	"strings"
	"testing"

	"github.com/corvusdb/graphplan/ast"
	"github.com/corvusdb/graphplan/plan"
	"github.com/corvusdb/graphplan/sqlgen"
)

func TestOutwardCteFindsFlatCte(t *testing.T) {
	leaf := &plan.Cte{Name: "Person_f", Input: &plan.Scan{TableAlias: "f", TableName: "person"}}
	if got := outwardCte(leaf); got != leaf {
		t.Errorf("expected outwardCte to return the Cte itself, got %#v", got)
	}
}

func TestOutwardCteWalksNestedGraphRel(t *testing.T) {
	innerLeaf := &plan.Cte{Name: "Person_c", Input: &plan.Scan{TableAlias: "c", TableName: "person"}}
	nested := &plan.GraphRel{
		Left:            innerLeaf,
		Center:          &plan.Scan{TableAlias: "r2"},
		Right:           &plan.Cte{Name: "Person_d", Input: &plan.Scan{TableAlias: "d", TableName: "person"}},
		Alias:           "r2",
		LeftConnection:  "c",
		RightConnection: "d",
	}
	if got := outwardCte(nested); got != innerLeaf {
		t.Errorf("expected outwardCte to prefer the nested rel's materialized Left, got %#v", got)
	}
}

func TestOutwardCteNilOnUnrecognizedInput(t *testing.T) {
	if got := outwardCte(plan.Empty{}); got != nil {
		t.Errorf("expected nil for an Empty input, got %#v", got)
	}
}

// twoHopQuery builds MATCH (a:Person)-[:FRIEND]->(b:Person)-[:FRIEND]->(c:Person)
// to exercise a nested GraphRel chain through the whole pipeline.
func twoHopQuery() *ast.Query {
	return &ast.Query{
		Match: &ast.MatchClause{
			Paths: []ast.Path{{
				Elements: []ast.PatternElement{
					{Node: &ast.NodePattern{Name: "a", Label: "Person",
						Properties: ast.Properties{"name": ast.StringLiteral{Value: "Alice"}}}},
					{Rel: &ast.RelPattern{Name: "r1", Label: "FRIEND", Direction: ast.Outgoing}},
					{Node: &ast.NodePattern{Name: "b", Label: "Person"}},
					{Rel: &ast.RelPattern{Name: "r2", Label: "FRIEND", Direction: ast.Outgoing}},
					{Node: &ast.NodePattern{Name: "c", Label: "Person"}},
				},
			}},
		},
		Return: &ast.ReturnClause{
			Items: []ast.ReturnItem{{Expression: ast.PropertyAccess{Alias: "c", Column: "name"}}},
		},
	}
}

func TestPipelineTwoHopChain(t *testing.T) {
	p := NewPlanner(testSchema(), DefaultOptions())
	result, err := p.Plan(twoHopQuery())
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	sql, err := sqlgen.ToSql(result.Render)
	if err != nil {
		t.Fatalf("ToSql: %v", err)
	}
	if !strings.Contains(sql, "WITH") {
		t.Errorf("expected a two-hop chain to materialize at least one CTE, got: %s", sql)
	}
	if strings.Count(sql, " AS (SELECT") < 1 {
		t.Errorf("expected at least one CTE body in the output, got: %s", sql)
	}
}

// farNodeAnchorQuery builds MATCH (a:Person)-[:FRIEND]->(b:Person)-[:FRIEND]->
// (c:Person)-[:FRIEND]->(d:Person) WHERE d.age=30 RETURN a.id,d.id — the
// filter sits entirely on d, the chain's last node and three hops away from
// a, which the builder places at the base of the nested chain, forcing
// anchor selection to fold more than one GraphRel.
func farNodeAnchorQuery() *ast.Query {
	return &ast.Query{
		Match: &ast.MatchClause{
			Paths: []ast.Path{{
				Elements: []ast.PatternElement{
					{Node: &ast.NodePattern{Name: "a", Label: "Person"}},
					{Rel: &ast.RelPattern{Name: "r1", Label: "FRIEND", Direction: ast.Outgoing}},
					{Node: &ast.NodePattern{Name: "b", Label: "Person"}},
					{Rel: &ast.RelPattern{Name: "r2", Label: "FRIEND", Direction: ast.Outgoing}},
					{Node: &ast.NodePattern{Name: "c", Label: "Person"}},
					{Rel: &ast.RelPattern{Name: "r3", Label: "FRIEND", Direction: ast.Outgoing}},
					{Node: &ast.NodePattern{Name: "d", Label: "Person"}},
				},
			}},
		},
		Where: &ast.WhereClause{
			Predicate: ast.OperatorApplication{
				Op: ast.OpEq,
				Operands: []ast.Expression{
					ast.PropertyAccess{Alias: "d", Column: "age"},
					ast.IntLiteral{Value: 30},
				},
			},
		},
		Return: &ast.ReturnClause{
			Items: []ast.ReturnItem{
				{Expression: ast.PropertyAccess{Alias: "a", Column: "id"}},
				{Expression: ast.PropertyAccess{Alias: "d", Column: "id"}},
			},
		},
	}
}

// TestPipelineAnchorOnFarNodeOfChain exercises the case the reviewer's
// counterexample named: the anchor (d, the only filtered alias) sits at the
// far end of a three-hop chain, in the root GraphRel and three hops from
// the chain's base, so rotation has to re-thread the two GraphRels below
// the root rather than swap a single link. Before the fix this panicked via plan.Assertf in
// PlanTraversal ("GraphRel.Left %T is neither Empty nor GraphNode"),
// surfaced to the caller as an InternalPlannerError.
func TestPipelineAnchorOnFarNodeOfChain(t *testing.T) {
	p := NewPlanner(testSchema(), DefaultOptions())
	result, err := p.Plan(farNodeAnchorQuery())
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if result.Render.From == nil {
		t.Fatal("expected a resolved anchor FROM table")
	}
	if result.Ctx.LastNode != "d" {
		t.Errorf("expected d (the only filtered alias) to be chosen as anchor, got %s", result.Ctx.LastNode)
	}

	sql, err := sqlgen.ToSql(result.Render)
	if err != nil {
		t.Fatalf("ToSql: %v", err)
	}
	if !strings.Contains(sql, "WITH") {
		t.Errorf("expected the rotated chain to still materialize CTEs for the other three aliases, got: %s", sql)
	}
}
