package planner

import "github.com/corvusdb/graphplan/plan"

// TraceEntry records one pass's effect on the tree, for the CLI's explain
// output.
type TraceEntry struct {
	Pass    plan.Pass
	Changed bool
	Before  string
	After   string
}

// Trace accumulates a pass-by-pass record of one planning run. Each pass is
// recorded by comparing a rendering of the whole tree (every node's
// String(), depth first) before and after it runs.
type Trace struct {
	Entries []TraceEntry
}

// NewTrace returns an empty Trace.
func NewTrace() *Trace {
	return &Trace{}
}

func (t *Trace) record(pass plan.Pass, before, after plan.LogicalPlan) {
	if t == nil {
		return
	}
	var render func(p plan.LogicalPlan) string
	render = func(p plan.LogicalPlan) string {
		if p == nil {
			return ""
		}
		s := p.String()
		for _, c := range plan.Inputs(p) {
			s += "{" + render(c) + "}"
		}
		return s
	}
	b, a := render(before), render(after)
	t.Entries = append(t.Entries, TraceEntry{Pass: pass, Changed: a != b, Before: b, After: a})
}
