package sqlgen

import (
	"strings"
	"testing"

	"github.com/corvusdb/graphplan/plan"
)

func TestToSqlFlatSelect(t *testing.T) {
	limit := int64(5)
	rp := &plan.RenderPlan{
		Select: []plan.SelectItem{{Expr: plan.PropertyAccess{TableAlias: "p", Column: "name"}, Alias: "person_name"}},
		From:   &plan.FromTable{Name: "person", Alias: "p"},
		Filters: plan.OperatorApplication{
			Op: plan.OpGt,
			Operands: []plan.Expr{
				plan.PropertyAccess{TableAlias: "p", Column: "age"},
				plan.Literal{Value: int64(30)},
			},
		},
		Limit: &limit,
	}

	sql, err := ToSql(rp)
	if err != nil {
		t.Fatalf("ToSql: %v", err)
	}
	for _, want := range []string{"SELECT p.name AS person_name", "FROM person AS p", "WHERE", "LIMIT 5"} {
		if !strings.Contains(sql, want) {
			t.Errorf("expected SQL to contain %q, got: %s", want, sql)
		}
	}
}

func TestToSqlMissingFromErrors(t *testing.T) {
	rp := &plan.RenderPlan{
		Select: []plan.SelectItem{{Expr: plan.Star{}}},
	}
	if _, err := ToSql(rp); err == nil {
		t.Fatal("expected an error when From is nil")
	}
}

func TestToSqlMissingSelectErrors(t *testing.T) {
	rp := &plan.RenderPlan{
		From: &plan.FromTable{Name: "person"},
	}
	if _, err := ToSql(rp); err == nil {
		t.Fatal("expected an error when Select is empty")
	}
}

func TestToSqlWithCte(t *testing.T) {
	rp := &plan.RenderPlan{
		Ctes: []plan.RenderCte{{
			Name: "Person_f",
			Plan: &plan.RenderPlan{
				Select: []plan.SelectItem{{Expr: plan.Column{Name: "id"}}},
				From:   &plan.FromTable{Name: "person"},
			},
		}},
		Select: []plan.SelectItem{{Expr: plan.Star{}}},
		From:   &plan.FromTable{Name: "person", Alias: "a"},
	}
	sql, err := ToSql(rp)
	if err != nil {
		t.Fatalf("ToSql: %v", err)
	}
	if !strings.HasPrefix(sql, "WITH Person_f AS (SELECT") {
		t.Errorf("expected the CTE to render first, got: %s", sql)
	}
}

func TestExprSqlStringLiteralEscapesQuotes(t *testing.T) {
	got := exprSql(plan.Literal{Value: "O'Brien"})
	want := "'O''Brien'"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestExprSqlInList(t *testing.T) {
	got := exprSql(plan.List{Items: []plan.Expr{plan.Literal{Value: int64(1)}, plan.Literal{Value: int64(2)}}})
	if got != "[1, 2]" {
		t.Errorf("expected [1, 2], got %s", got)
	}
}

func TestOperatorSqlUnaryIsNull(t *testing.T) {
	got := operatorSql(plan.OperatorApplication{
		Op:       plan.OpIsNull,
		Operands: []plan.Expr{plan.Column{Name: "x"}},
	})
	if got != "x IS NULL" {
		t.Errorf("expected 'x IS NULL', got %s", got)
	}
}

func TestOperatorSqlBinaryInfix(t *testing.T) {
	got := operatorSql(plan.OperatorApplication{
		Op: plan.OpEq,
		Operands: []plan.Expr{
			plan.Column{Name: "a"},
			plan.Literal{Value: int64(1)},
		},
	})
	if got != "(a = 1)" {
		t.Errorf("expected '(a = 1)', got %s", got)
	}
}

func TestInSubquerySqlRendersCteName(t *testing.T) {
	cte := &plan.Cte{
		Name: "Person_f",
		Input: &plan.Projection{
			Input: &plan.Scan{TableAlias: "f", TableName: "person"},
			Items: []plan.ProjectionItem{{Expr: plan.Column{Name: "id"}, Alias: "node_id"}},
		},
	}
	got := inSubquerySql(plan.InSubquery{Expr: plan.Column{Name: "to_id"}, Subplan: cte})
	want := "to_id IN (SELECT node_id FROM Person_f)"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
