package plan

import "fmt"

// Pass identifies which stage of the pipeline raised an error (spec.md §7).
type Pass string

const (
	PassBuilder            Pass = "logical_plan_builder"
	PassSchemaInference     Pass = "schema_inference"
	PassFilterTagging       Pass = "filter_tagging"
	PassProjectionTagging   Pass = "projection_tagging"
	PassGroupByConstruction Pass = "group_by_construction"
	PassAnchorSelection     Pass = "anchor_selection"
	PassDuplicateScanRemoval Pass = "duplicate_scan_removal"
	PassGraphTraversal      Pass = "graph_traversal_planning"
	PassGraphJoinInference  Pass = "graph_join_inference"
	PassProjectionPushdown  Pass = "projection_pushdown"
	PassFilterPushdown      Pass = "filter_pushdown"
	PassRenderReduction     Pass = "render_plan_reduction"
)

// ErrorKind enumerates the planner's closed error surface (spec.md §6.5).
type ErrorKind string

const (
	DisconnectedPattern  ErrorKind = "DisconnectedPattern"
	EmptyNode            ErrorKind = "EmptyNode"
	MissingLabel         ErrorKind = "MissingLabel"
	NoRelationSchemaFound ErrorKind = "NoRelationSchemaFound"
	NoNodeSchemaFound     ErrorKind = "NoNodeSchemaFound"
	NotEnoughLabels       ErrorKind = "NotEnoughLabels"
	MissingFromTable      ErrorKind = "MissingFromTable"
	MissingSelectItems    ErrorKind = "MissingSelectItems"
	MalformedCteName      ErrorKind = "MalformedCteName"
	PlanContextMiss       ErrorKind = "PlanContextMiss"
	UnsupportedQueryType  ErrorKind = "UnsupportedQueryType"
	InternalPlannerError  ErrorKind = "InternalPlannerError"
)

// Error is the typed error every pass returns on failure. It carries enough
// to let a caller render a user-facing message without string-matching the
// error text (spec.md §7: "callers map errors to a user-facing message").
type Error struct {
	Kind    ErrorKind
	Pass    Pass
	Names   []string // the offending alias(es)/name(s)
	Wrapped error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Pass, e.Kind)
	if len(e.Names) > 0 {
		msg += fmt.Sprintf(" (%v)", e.Names)
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Wrapped }

// Is lets callers use errors.Is(err, &plan.Error{Kind: plan.NotEnoughLabels})
// without caring about Pass/Names.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// NewError constructs a planner error for the given pass and kind.
func NewError(pass Pass, kind ErrorKind, names ...string) *Error {
	return &Error{Pass: pass, Kind: kind, Names: names}
}

// Wrap constructs a planner error that wraps an underlying cause.
func Wrap(pass Pass, kind ErrorKind, err error, names ...string) *Error {
	return &Error{Pass: pass, Kind: kind, Names: names, Wrapped: err}
}

// Internal raises InternalPlannerError for an invariant violation — a bug,
// not a user error (spec.md §7).
func Internal(pass Pass, format string, args ...interface{}) *Error {
	return &Error{Pass: pass, Kind: InternalPlannerError, Wrapped: fmt.Errorf(format, args...)}
}

// Assertf panics into an *Error if cond is false. Invariant checks inside a
// pass call this instead of silently producing a malformed tree; the
// top-level pipeline recovers the panic at the public surface and turns it
// into the same InternalPlannerError a caller would get from any other
// failing pass (spec.md §7).
func Assertf(pass Pass, cond bool, format string, args ...interface{}) {
	if !cond {
		panic(Internal(pass, format, args...))
	}
}
