package plan

import (
	"errors"
	"testing"
)

func TestErrorIsMatchesOnKind(t *testing.T) {
	a := NewError(PassSchemaInference, NotEnoughLabels, "n")
	b := NewError(PassGraphTraversal, NotEnoughLabels, "m")
	if !errors.Is(a, b) {
		t.Error("expected errors with the same Kind to match via errors.Is")
	}

	c := NewError(PassSchemaInference, MissingLabel, "n")
	if errors.Is(a, c) {
		t.Error("expected errors with different Kind not to match")
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	wrapped := Wrap(PassGraphTraversal, NoNodeSchemaFound, cause, "p")
	if !errors.Is(wrapped, cause) {
		t.Error("expected Wrap to preserve the underlying cause for errors.Is")
	}
}

func TestAssertfPanicsOnFalse(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected Assertf to panic on a false condition")
		}
		pe, ok := r.(*Error)
		if !ok {
			t.Fatalf("expected panic value to be *Error, got %T", r)
		}
		if pe.Kind != InternalPlannerError {
			t.Errorf("expected InternalPlannerError, got %s", pe.Kind)
		}
	}()
	Assertf(PassBuilder, false, "should never happen: %d", 42)
}

func TestAssertfNoPanicOnTrue(t *testing.T) {
	Assertf(PassBuilder, true, "fine")
}

func TestMustGetPanicsOnMiss(t *testing.T) {
	ctx := NewContext()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected MustGet to panic when alias is absent")
		}
		pe, ok := r.(*Error)
		if !ok || pe.Kind != PlanContextMiss {
			t.Fatalf("expected PlanContextMiss *Error, got %#v", r)
		}
	}()
	ctx.MustGet(PassSchemaInference, "nope")
}
