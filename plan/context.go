package plan

// TableContext accumulates everything the analyzer passes learn about one
// pattern alias (spec.md §3.3).
type TableContext struct {
	Label             string // resolved node/rel type; "" until schema inference
	Properties        map[string]Expr
	FilterPredicates  []Expr
	ProjectionItems   []ProjectionItem
	IsRelation        bool
	UseEdgeList       bool
	ExplicitAlias     bool
}

// NewTableContext returns a zero-value TableContext with its maps ready to use.
func NewTableContext() *TableContext {
	return &TableContext{Properties: make(map[string]Expr)}
}

// Context is the mutable, grow-only side-table keyed by alias (spec.md
// §3.3). The tree is immutable and rebuilt on change; the Context is the
// one piece of shared mutable state every pass reads and writes (spec.md
// §5's "this asymmetry... is deliberate").
type Context struct {
	tables   map[string]*TableContext
	LastNode string // the anchor alias, once anchor selection has run
}

// NewContext returns an empty planning context.
func NewContext() *Context {
	return &Context{tables: make(map[string]*TableContext)}
}

// Get returns the TableContext for alias, or (nil, false) if absent.
func (c *Context) Get(alias string) (*TableContext, bool) {
	tc, ok := c.tables[alias]
	return tc, ok
}

// MustGet returns the TableContext for alias, raising PlanContextMiss via
// panic(*Error) if it is absent — callers that have already established the
// alias must be present use this instead of threading an error return
// through every call site (spec.md §6.5: PlanContextMiss(alias)).
func (c *Context) MustGet(pass Pass, alias string) *TableContext {
	tc, ok := c.tables[alias]
	if !ok {
		panic(NewError(pass, PlanContextMiss, alias))
	}
	return tc
}

// GetOrCreate returns the TableContext for alias, creating an empty one if
// this is the first time the alias has been seen.
func (c *Context) GetOrCreate(alias string) *TableContext {
	tc, ok := c.tables[alias]
	if !ok {
		tc = NewTableContext()
		c.tables[alias] = tc
	}
	return tc
}

// Has reports whether alias has already been inserted.
func (c *Context) Has(alias string) bool {
	_, ok := c.tables[alias]
	return ok
}

// Aliases returns every alias currently in the context. Order is arbitrary;
// callers that need a stable order should sort it themselves.
func (c *Context) Aliases() []string {
	out := make([]string, 0, len(c.tables))
	for a := range c.tables {
		out = append(out, a)
	}
	return out
}

// ExplicitAliases returns every alias the user actually wrote, used by
// `RETURN *` expansion (spec.md §4.4).
func (c *Context) ExplicitAliases() []string {
	var out []string
	for a, tc := range c.tables {
		if tc.ExplicitAlias {
			out = append(out, a)
		}
	}
	return out
}
