package plan

import "fmt"

// Expr is the sum type of spec.md §3.2. Every variant implements this
// marker interface, mirroring the teacher's query.Pattern/query.Predicate
// "interface + private marker method" idiom (datalog/query/types.go,
// datalog/query/predicate.go).
type Expr interface {
	expr()
	String() string
}

// Literal covers the five literal kinds (int, float, bool, string, null);
// Go's interface{} stands in for the closed literal union the way the
// teacher's datalog.Value does for stored values.
type Literal struct {
	Value interface{} // int64, float64, bool, string, or nil
}

func (Literal) expr() {}
func (l Literal) String() string {
	if l.Value == nil {
		return "null"
	}
	if s, ok := l.Value.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%v", l.Value)
}

// Star is the `*` found in `RETURN *` / `RETURN n.*`.
type Star struct{}

func (Star) expr()          {}
func (Star) String() string { return "*" }

// TableAlias is a bare `RETURN n` reference to a whole pattern alias.
type TableAlias struct{ Name string }

func (TableAlias) expr()          {}
func (t TableAlias) String() string { return t.Name }

// ColumnAlias is a projected column's output name (`AS` target).
type ColumnAlias struct{ Name string }

func (ColumnAlias) expr()          {}
func (c ColumnAlias) String() string { return c.Name }

// Column is a bare column reference with no table prefix — what a
// PropertyAccess becomes once it has been pushed into a per-table filter
// (spec.md §3.2: "a bare column identifier appearing inside a per-table
// pushed filter is rewritten to Column").
type Column struct{ Name string }

func (Column) expr()          {}
func (c Column) String() string { return c.Name }

// Parameter is a query parameter placeholder.
type Parameter struct{ Name string }

func (Parameter) expr()          {}
func (p Parameter) String() string { return "$" + p.Name }

// List is a literal list expression.
type List struct{ Items []Expr }

func (List) expr() {}
func (l List) String() string {
	s := "["
	for i, it := range l.Items {
		if i > 0 {
			s += ", "
		}
		s += it.String()
	}
	return s + "]"
}

// ScalarFnCall is a scalar function invocation, e.g. toUpper(n.name).
type ScalarFnCall struct {
	Name string
	Args []Expr
}

func (ScalarFnCall) expr() {}
func (f ScalarFnCall) String() string { return callString(f.Name, f.Args) }

// AggregateFnCall is one of count|min|max|avg|sum (spec.md §3.2).
type AggregateFnCall struct {
	Name string
	Args []Expr
}

func (AggregateFnCall) expr() {}
func (f AggregateFnCall) String() string { return callString(f.Name, f.Args) }

func callString(name string, args []Expr) string {
	s := name + "("
	for i, a := range args {
		if i > 0 {
			s += ", "
		}
		s += a.String()
	}
	return s + ")"
}

// IsAggregateName reports whether name matches {count, min, max, avg, sum}
// case-insensitively (spec.md §4.4).
func IsAggregateName(name string) bool {
	switch lower(name) {
	case "count", "min", "max", "avg", "sum":
		return true
	default:
		return false
	}
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// PropertyAccess is `alias.column` (spec.md §3.2: "An Expr referencing a
// table alias is a PropertyAccess").
type PropertyAccess struct {
	TableAlias string
	Column     string
}

func (PropertyAccess) expr() {}
func (p PropertyAccess) String() string { return p.TableAlias + "." + p.Column }

// Operator mirrors spec.md §3.2/§6.3's operator set.
type Operator string

const (
	OpAdd Operator = "+"
	OpSub Operator = "-"
	OpMul Operator = "*"
	OpDiv Operator = "/"
	OpMod Operator = "%"
	OpPow Operator = "^"

	OpEq  Operator = "="
	OpNeq Operator = "<>"
	OpLt  Operator = "<"
	OpGt  Operator = ">"
	OpLte Operator = "<="
	OpGte Operator = ">="

	OpAnd Operator = "AND"
	OpOr  Operator = "OR"
	OpNot Operator = "NOT"

	OpIn    Operator = "IN"
	OpNotIn Operator = "NOT IN"

	OpDistinct  Operator = "DISTINCT"
	OpIsNull    Operator = "IS NULL"
	OpIsNotNull Operator = "IS NOT NULL"
)

// OperatorApplication is a unary, binary, or n-ary operator expression.
type OperatorApplication struct {
	Op       Operator
	Operands []Expr
}

func (OperatorApplication) expr() {}
func (o OperatorApplication) String() string {
	switch len(o.Operands) {
	case 0:
		return string(o.Op)
	case 1:
		if o.Op == OpIsNull || o.Op == OpIsNotNull {
			return o.Operands[0].String() + " " + string(o.Op)
		}
		return string(o.Op) + " " + o.Operands[0].String()
	default:
		s := ""
		for i, operand := range o.Operands {
			if i > 0 {
				s += " " + string(o.Op) + " "
			}
			s += operand.String()
		}
		return s
	}
}

// InSubquery is `expr IN (SELECT ... FROM subplan)`, used internally by
// graph traversal planning to express reachability (spec.md §4.8).
type InSubquery struct {
	Expr    Expr
	Subplan LogicalPlan
}

func (InSubquery) expr() {}
func (i InSubquery) String() string {
	return i.Expr.String() + " IN (...)"
}

// IsAndChain reports whether e is (possibly a chain of) OperatorApplication
// with Op == OpAnd, returning the flattened conjuncts. Used by filter
// tagging (spec.md §4.3) to find top-level conjuncts.
func IsAndChain(e Expr) ([]Expr, bool) {
	op, ok := e.(OperatorApplication)
	if !ok || op.Op != OpAnd {
		return nil, false
	}
	var out []Expr
	for _, operand := range op.Operands {
		if nested, isAnd := IsAndChain(operand); isAnd {
			out = append(out, nested...)
		} else {
			out = append(out, operand)
		}
	}
	return out, true
}

// And builds a conjunction of exprs, collapsing the trivial cases the way
// the teacher's predicate combinators do (datalog/query/predicate.go).
func And(exprs ...Expr) Expr {
	var flat []Expr
	for _, e := range exprs {
		if e == nil {
			continue
		}
		if conj, ok := IsAndChain(e); ok {
			flat = append(flat, conj...)
		} else {
			flat = append(flat, e)
		}
	}
	switch len(flat) {
	case 0:
		return nil
	case 1:
		return flat[0]
	default:
		return OperatorApplication{Op: OpAnd, Operands: flat}
	}
}
