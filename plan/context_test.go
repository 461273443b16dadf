package plan

import (
	"reflect"
	"testing"
)

func TestContextGetOrCreate(t *testing.T) {
	ctx := NewContext()
	if ctx.Has("a") {
		t.Fatal("expected fresh context to have no aliases")
	}
	tc := ctx.GetOrCreate("a")
	tc.Label = "Person"
	if !ctx.Has("a") {
		t.Fatal("expected alias to exist after GetOrCreate")
	}

	again := ctx.GetOrCreate("a")
	if again.Label != "Person" {
		t.Errorf("expected GetOrCreate to return the same TableContext, got label %q", again.Label)
	}
}

func TestContextExplicitAliases(t *testing.T) {
	ctx := NewContext()
	a := ctx.GetOrCreate("a")
	a.ExplicitAlias = true
	ctx.GetOrCreate("n0") // anonymous, not explicit

	explicit := ctx.ExplicitAliases()
	if len(explicit) != 1 || explicit[0] != "a" {
		t.Errorf("expected [a], got %v", explicit)
	}
}

func TestIsEmpty(t *testing.T) {
	if !IsEmpty(Empty{}) {
		t.Error("expected Empty{} to report IsEmpty")
	}
	if IsEmpty(&Scan{TableAlias: "n"}) {
		t.Error("expected a Scan not to report IsEmpty")
	}
}

func TestAndChain(t *testing.T) {
	e := And(
		OperatorApplication{Op: OpEq, Operands: []Expr{Column{Name: "a"}, Literal{Value: int64(1)}}},
		OperatorApplication{Op: OpEq, Operands: []Expr{Column{Name: "b"}, Literal{Value: int64(2)}}},
	)
	op, ok := e.(OperatorApplication)
	if !ok || op.Op != OpAnd {
		t.Fatalf("expected a top-level AND OperatorApplication, got %#v", e)
	}
	conjuncts, ok := IsAndChain(op)
	if !ok || len(conjuncts) != 2 {
		t.Errorf("expected IsAndChain to flatten two conjuncts, got %v, %v", conjuncts, ok)
	}
}

func TestAndSingleOperandUnwraps(t *testing.T) {
	only := OperatorApplication{Op: OpEq, Operands: []Expr{Column{Name: "a"}, Literal{Value: int64(1)}}}
	e := And(only)
	if !reflect.DeepEqual(e, Expr(only)) {
		t.Errorf("expected And of a single expr to return it unwrapped, got %#v", e)
	}
}
