// Package sqlgen walks a reduced *plan.RenderPlan and writes the SQL string
// the analytical backend executes (spec.md §6.3). This is the mechanical
// boilerplate stage of the pipeline: render-plan reduction (package
// planner) has already decided structure, so emission is pure formatting.
package sqlgen

import (
	"fmt"
	"strings"

	"github.com/corvusdb/graphplan/plan"
)

// ToSql renders rp into the backend's SQL dialect.
func ToSql(rp *plan.RenderPlan) (string, error) {
	var b strings.Builder

	if len(rp.Ctes) > 0 {
		b.WriteString("WITH ")
		for i, cte := range rp.Ctes {
			if i > 0 {
				b.WriteString(", ")
			}
			cteSql, err := toSqlBody(cte.Plan)
			if err != nil {
				return "", fmt.Errorf("sqlgen: cte %q: %w", cte.Name, err)
			}
			fmt.Fprintf(&b, "%s AS (%s)", cte.Name, cteSql)
		}
		b.WriteString("\n")
	}

	if len(rp.Select) == 0 {
		return "", plan.NewError(plan.PassRenderReduction, plan.MissingSelectItems)
	}
	if rp.From == nil {
		return "", plan.NewError(plan.PassRenderReduction, plan.MissingFromTable)
	}

	b.WriteString("SELECT ")
	writeSelectItems(&b, rp.Select)

	b.WriteString("\nFROM ")
	writeFrom(&b, rp.From)

	for _, j := range sortedJoins(rp.Joins) {
		b.WriteString("\nJOIN ")
		fmt.Fprintf(&b, "%s AS %s ON ", j.TableName, j.TableAlias)
		for i, on := range j.On {
			if i > 0 {
				b.WriteString(" AND ")
			}
			b.WriteString(exprSql(on))
		}
	}

	if rp.Filters != nil {
		b.WriteString("\nWHERE ")
		b.WriteString(exprSql(rp.Filters))
	}

	if len(rp.GroupBy) > 0 {
		b.WriteString("\nGROUP BY ")
		for i, e := range rp.GroupBy {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(exprSql(e))
		}
	}

	if len(rp.OrderBy) > 0 {
		b.WriteString("\nORDER BY ")
		for i, item := range rp.OrderBy {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(exprSql(item.Expr))
			if item.Direction == plan.Desc {
				b.WriteString(" DESC")
			} else {
				b.WriteString(" ASC")
			}
		}
	}

	if rp.Limit != nil {
		fmt.Fprintf(&b, "\nLIMIT %d", *rp.Limit)
	}
	if rp.Skip != nil {
		fmt.Fprintf(&b, "\nSKIP %d", *rp.Skip)
	}

	return b.String(), nil
}

// toSqlBody renders a CTE body — either a flat select/from/where, or a
// UNION of such bodies for either-direction bitmap reads.
func toSqlBody(rp *plan.RenderPlan) (string, error) {
	if len(rp.Union) > 0 {
		parts := make([]string, 0, len(rp.Union))
		for _, u := range rp.Union {
			s, err := toSqlBody(u)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, " UNION ALL "), nil
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	if len(rp.Select) == 0 {
		b.WriteString("*")
	} else {
		writeSelectItems(&b, rp.Select)
	}
	if rp.From != nil {
		b.WriteString(" FROM ")
		writeFrom(&b, rp.From)
	}
	if rp.Filters != nil {
		b.WriteString(" WHERE ")
		b.WriteString(exprSql(rp.Filters))
	}
	return b.String(), nil
}

func writeSelectItems(b *strings.Builder, items []plan.SelectItem) {
	for i, it := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(exprSql(it.Expr))
		if it.Alias != "" {
			fmt.Fprintf(b, " AS %s", it.Alias)
		}
	}
}

func writeFrom(b *strings.Builder, f *plan.FromTable) {
	b.WriteString(f.Name)
	if f.Alias != "" && f.Alias != f.Name {
		fmt.Fprintf(b, " AS %s", f.Alias)
	}
}

func sortedJoins(joins []plan.Join) []plan.Join {
	out := make([]plan.Join, len(joins))
	copy(out, joins)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && len(out[j].On) < len(out[j-1].On); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// exprSql renders one Expr. Unary operators render prefix, binary infix,
// n-ary joined by the operator token; string literals are single-quoted
// (spec.md §6.3).
func exprSql(e plan.Expr) string {
	switch v := e.(type) {
	case plan.Literal:
		return literalSql(v)
	case plan.Star:
		return "*"
	case plan.TableAlias:
		return v.Name + ".*"
	case plan.ColumnAlias:
		return v.Name
	case plan.Column:
		return v.Name
	case plan.Parameter:
		return "$" + v.Name
	case plan.List:
		parts := make([]string, len(v.Items))
		for i, it := range v.Items {
			parts[i] = exprSql(it)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case plan.ScalarFnCall:
		return callSql(v.Name, v.Args)
	case plan.AggregateFnCall:
		return callSql(v.Name, v.Args)
	case plan.PropertyAccess:
		return v.TableAlias + "." + v.Column
	case plan.OperatorApplication:
		return operatorSql(v)
	case plan.InSubquery:
		return inSubquerySql(v)
	default:
		return e.String()
	}
}

func literalSql(l plan.Literal) string {
	if l.Value == nil {
		return "NULL"
	}
	if s, ok := l.Value.(string); ok {
		return "'" + strings.ReplaceAll(s, "'", "''") + "'"
	}
	return fmt.Sprintf("%v", l.Value)
}

func callSql(name string, args []plan.Expr) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = exprSql(a)
	}
	return name + "(" + strings.Join(parts, ", ") + ")"
}

var unaryOps = map[plan.Operator]bool{
	plan.OpNot:        true,
	plan.OpDistinct:   true,
	plan.OpIsNull:     true,
	plan.OpIsNotNull:  true,
}

func operatorSql(o plan.OperatorApplication) string {
	if unaryOps[o.Op] {
		operand := exprSql(o.Operands[0])
		switch o.Op {
		case plan.OpIsNull, plan.OpIsNotNull:
			return operand + " " + string(o.Op)
		default:
			return string(o.Op) + " " + operand
		}
	}

	parts := make([]string, len(o.Operands))
	for i, operand := range o.Operands {
		parts[i] = exprSql(operand)
	}
	sep := " " + string(o.Op) + " "
	return "(" + strings.Join(parts, sep) + ")"
}

// inSubquerySql renders `expr IN (SELECT <col> FROM <name>)`. Subplan
// always references a *plan.Cte directly (traversal planning's own
// naming convention) — sqlgen looks up its select list's first column
// rather than re-walking the whole subplan.
func inSubquerySql(v plan.InSubquery) string {
	cte, ok := v.Subplan.(*plan.Cte)
	if !ok {
		return exprSql(v.Expr) + " IN (...)"
	}
	col := soleSelectColumn(cte.Input)
	return fmt.Sprintf("%s IN (SELECT %s FROM %s)", exprSql(v.Expr), col, cte.Name)
}

// soleSelectColumn finds the name a CTE body exposes its join column
// under — the alias of its first projection item, or the bare column name
// if unaliased.
func soleSelectColumn(body plan.LogicalPlan) string {
	switch v := body.(type) {
	case *plan.Filter:
		return soleSelectColumn(v.Input)
	case *plan.Projection:
		if len(v.Items) == 0 {
			return "*"
		}
		if v.Items[0].Alias != "" {
			return v.Items[0].Alias
		}
		return exprSql(v.Items[0].Expr)
	default:
		return "*"
	}
}
