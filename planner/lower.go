package planner

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/corvusdb/graphplan/ast"
	"github.com/corvusdb/graphplan/plan"
)

// lowerExpr translates one ast.Expression into its plan.Expr equivalent
// (spec.md §3.2, §4.1). The AST and plan expression languages are
// structurally identical; this is a straight recursive copy, the same shape
// as the teacher's query.compilePredicate walk over parsed predicate forms.
func lowerExpr(e ast.Expression) plan.Expr {
	switch v := e.(type) {
	case ast.IntLiteral:
		return plan.Literal{Value: v.Value}
	case ast.FloatLiteral:
		return plan.Literal{Value: v.Value}
	case ast.BoolLiteral:
		return plan.Literal{Value: v.Value}
	case ast.StringLiteral:
		return plan.Literal{Value: v.Value}
	case ast.NullLiteral:
		return plan.Literal{Value: nil}
	case ast.Variable:
		if v.Name == "*" {
			return plan.Star{}
		}
		return plan.TableAlias{Name: v.Name}
	case ast.PropertyAccess:
		return plan.PropertyAccess{TableAlias: v.Alias, Column: v.Column}
	case ast.Parameter:
		return plan.Parameter{Name: v.Name}
	case ast.ListLiteral:
		items := make([]plan.Expr, len(v.Items))
		for i, it := range v.Items {
			items[i] = lowerExpr(it)
		}
		return plan.List{Items: items}
	case ast.FunctionCall:
		args := make([]plan.Expr, len(v.Args))
		for i, a := range v.Args {
			args[i] = lowerExpr(a)
		}
		if plan.IsAggregateName(v.Name) {
			return plan.AggregateFnCall{Name: v.Name, Args: args}
		}
		return plan.ScalarFnCall{Name: v.Name, Args: args}
	case ast.OperatorApplication:
		operands := make([]plan.Expr, len(v.Operands))
		for i, o := range v.Operands {
			operands[i] = lowerExpr(o)
		}
		return plan.OperatorApplication{Op: plan.Operator(v.Op), Operands: operands}
	default:
		panic(plan.Internal(plan.PassBuilder, "unhandled ast.Expression %T", e))
	}
}

// genAlias returns a fresh anonymous alias for an unnamed node or
// relationship pattern, following the naming convention spec.md §6.4
// reserves for generated names: a letter prefix plus random hex so it can
// never collide with a user-written alias.
func genAlias(prefix string) string {
	var buf [5]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic(plan.Internal(plan.PassBuilder, "alias generation: %w", err))
	}
	return fmt.Sprintf("%s%s", prefix, hex.EncodeToString(buf[:]))
}
