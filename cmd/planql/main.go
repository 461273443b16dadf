// Command planql is a driver around the planner package: it builds a small
// demo catalog, runs a handful of canned queries through the pipeline, and
// prints the SQL each one compiles to. There is no Cypher tokenizer/parser
// in this module, so "queries" here are built directly as *ast.Query trees
// rather than typed in as text.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/corvusdb/graphplan/ast"
	"github.com/corvusdb/graphplan/catalog"
	"github.com/corvusdb/graphplan/planner"
	"github.com/corvusdb/graphplan/sqlgen"
)

func main() {
	var snapshotPath string
	var verbose bool
	var which string

	flag.StringVar(&snapshotPath, "db", "", "badger snapshot cache path (optional, warms the catalog)")
	flag.BoolVar(&verbose, "verbose", false, "show the pass-by-pass trace")
	flag.StringVar(&which, "query", "", "name of the demo query to run (empty runs all)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Compiles canned openCypher patterns against a demo graph schema.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nDemo queries: %s\n", strings.Join(demoQueryNames(), ", "))
	}
	flag.Parse()

	schema := demoSchema()

	if snapshotPath != "" {
		cache, err := catalog.OpenSnapshotCache(snapshotPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warming snapshot cache failed, continuing with in-memory schema: %v\n", err)
		} else {
			defer cache.Close()
			if err := cache.Put(schema); err != nil {
				fmt.Fprintf(os.Stderr, "snapshot cache put failed: %v\n", err)
			}
			if loaded, ok, err := cache.Latest(); err == nil && ok {
				schema = loaded
			}
		}
	}

	opts := planner.DefaultOptions()
	opts.Cache = planner.NewCache(0, 0)
	if verbose {
		opts.Trace = planner.NewTrace()
	}
	p := planner.NewPlanner(schema, opts)

	names := demoQueryNames()
	if which != "" {
		names = []string{which}
	}

	for _, name := range names {
		q, ok := demoQuery(name)
		if !ok {
			fmt.Fprintf(os.Stderr, "unknown demo query %q\n", name)
			os.Exit(1)
		}
		runOne(p, name, q, verbose)
	}
}

func runOne(p *planner.Planner, name string, q *ast.Query, verbose bool) {
	fmt.Println(color.CyanString("=== %s ===", name))

	result, err := p.Plan(q)
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("plan error: %v", err))
		return
	}

	sql, err := sqlgen.ToSql(result.Render)
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("emit error: %v", err))
		return
	}

	if verbose {
		printTrace(p.Options().Trace)
	}

	fmt.Println(sql)
	fmt.Println()
}

func printTrace(trace *planner.Trace) {
	if trace == nil {
		return
	}
	b := &strings.Builder{}
	table := tablewriter.NewTable(b,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header([]string{"pass", "changed"})
	for _, e := range trace.Entries {
		changed := color.GreenString("yes")
		if !e.Changed {
			changed = "no"
		}
		table.Append([]string{string(e.Pass), changed})
	}
	table.Render()
	fmt.Println(b.String())
}

// demoSchema returns a small social-graph catalog: person nodes, company
// nodes, and FRIEND (person to person) and WORKS_AT (person to company)
// relationships. Whether a relationship is read from its edge-list table or
// its bitmap index is decided per query; neither canned query filters or
// returns a relationship, so both read the bitmap index.
func demoSchema() *catalog.Schema {
	return &catalog.Schema{
		Version: 1,
		Nodes: map[string]catalog.NodeSchema{
			"Person": {
				TableName:   "person",
				ColumnNames: []string{"id", "name", "age", "city"},
				PrimaryKeys: []string{"id"},
				NodeID:      catalog.IDColumn{Column: "id", Dtype: "UInt64"},
			},
			"Company": {
				TableName:   "company",
				ColumnNames: []string{"id", "name", "industry"},
				PrimaryKeys: []string{"id"},
				NodeID:      catalog.IDColumn{Column: "id", Dtype: "UInt64"},
			},
		},
		Relationships: map[string]catalog.RelSchema{
			"FRIEND": {
				TableName:      "friend",
				ColumnNames:    []string{"from_person", "to_person", "since"},
				FromNode:       "Person",
				ToNode:         "Person",
				FromNodeIDType: "UInt64",
				ToNodeIDType:   "UInt64",
			},
			"WORKS_AT": {
				TableName:      "works_at_outgoing",
				ColumnNames:    []string{"from_id", "to_id"},
				FromNode:       "Person",
				ToNode:         "Company",
				FromNodeIDType: "UInt64",
				ToNodeIDType:   "UInt64",
			},
		},
	}
}

func demoQueryNames() []string {
	return []string{"friends-of-alice", "coworkers-over-30"}
}

func demoQuery(name string) (*ast.Query, bool) {
	switch name {
	case "friends-of-alice":
		return friendsOfAliceQuery(), true
	case "coworkers-over-30":
		return coworkersOver30Query(), true
	default:
		return nil, false
	}
}

// friendsOfAliceQuery builds MATCH (a:Person {name: "Alice"})-[:FRIEND]->(f:Person)
// RETURN f.name
func friendsOfAliceQuery() *ast.Query {
	return &ast.Query{
		Match: &ast.MatchClause{
			Paths: []ast.Path{{
				Elements: []ast.PatternElement{
					{Node: &ast.NodePattern{
						Name:  "a",
						Label: "Person",
						Properties: ast.Properties{"name": ast.StringLiteral{Value: "Alice"}},
					}},
					{Rel: &ast.RelPattern{Name: "r", Label: "FRIEND", Direction: ast.Outgoing}},
					{Node: &ast.NodePattern{Name: "f", Label: "Person"}},
				},
			}},
		},
		Return: &ast.ReturnClause{
			Items: []ast.ReturnItem{
				{Expression: ast.PropertyAccess{Alias: "f", Column: "name"}, Alias: "friend_name"},
			},
		},
	}
}

// coworkersOver30Query builds
// MATCH (p:Person)-[:WORKS_AT]->(c:Company) WHERE p.age > 30
// RETURN p.name, c.name ORDER BY p.name LIMIT 10
func coworkersOver30Query() *ast.Query {
	limit := int64(10)
	return &ast.Query{
		Match: &ast.MatchClause{
			Paths: []ast.Path{{
				Elements: []ast.PatternElement{
					{Node: &ast.NodePattern{Name: "p", Label: "Person"}},
					{Rel: &ast.RelPattern{Name: "w", Label: "WORKS_AT", Direction: ast.Outgoing}},
					{Node: &ast.NodePattern{Name: "c", Label: "Company"}},
				},
			}},
		},
		Where: &ast.WhereClause{
			Predicate: ast.OperatorApplication{
				Op: ast.OpGt,
				Operands: []ast.Expression{
					ast.PropertyAccess{Alias: "p", Column: "age"},
					ast.IntLiteral{Value: 30},
				},
			},
		},
		Return: &ast.ReturnClause{
			Items: []ast.ReturnItem{
				{Expression: ast.PropertyAccess{Alias: "p", Column: "name"}, Alias: "person_name"},
				{Expression: ast.PropertyAccess{Alias: "c", Column: "name"}, Alias: "company_name"},
			},
		},
		OrderBy: &ast.OrderByClause{
			Items: []ast.OrderByItem{
				{Expression: ast.PropertyAccess{Alias: "p", Column: "name"}, Direction: ast.Asc},
			},
		},
		Limit: &limit,
	}
}
