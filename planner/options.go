package planner

// Options configures which optional passes run, mirroring the shape of the
// teacher's PlannerOptions (datalog/planner/types.go) — a flat struct of
// booleans the pipeline consults pass-by-pass, so individual optimizations
// can be disabled for debugging or A/B comparison without touching the
// pipeline's control flow.
type Options struct {
	// EnablePredicatePushdown runs filter tagging and filter push-down
	// (spec.md §4.3, §4.11); projection push-down (§4.10) runs whether or
	// not it is set. Disabling it leaves every WHERE predicate on the outer
	// query, which is always correct but slower.
	EnablePredicatePushdown bool

	// EnableAnchorRotation lets anchor node selection (spec.md §4.6)
	// rotate the tree. Disabling it still picks the anchor by filter count
	// and still promotes a relation anchor, but leaves the tree in the
	// shape the builder produced.
	EnableAnchorRotation bool

	// EnableDuplicateScanRemoval runs the duplicate-scan-removal pass
	// (spec.md §4.7). Disabling it is only useful for inspecting the
	// pre-cleanup tree shape in tests; the render reduction in §4.12
	// assumes it has run.
	EnableDuplicateScanRemoval bool

	// MaxRenderDepth is carried in Options but no pass reads it; the
	// recursive passes do not bound their depth. Not a spec.md concept.
	MaxRenderDepth int

	// Cache is an optional shared plan cache (planner/cache.go).
	Cache *Cache

	// Trace, if non-nil, records for each pass whether it changed the tree
	// (planner/trace.go) for the CLI's explain view.
	Trace *Trace
}

// DefaultOptions returns the options a fresh Planner uses unless overridden,
// matching the "should be enabled" defaults the teacher documents next to
// its own PlannerOptions fields.
func DefaultOptions() Options {
	return Options{
		EnablePredicatePushdown:    true,
		EnableAnchorRotation:       true,
		EnableDuplicateScanRemoval: true,
	}
}
