package emerald

import (
	"strconv"
	"strings"
)

// ToSExpr converts an AST node (*Program, Stmt, Predicate or Expr) to its
// s-expression representation.
func ToSExpr(node any) string {
	switch n := node.(type) {
	case *Program:
		return list("program", stmtsToSExpr(n.Statements)...)
	case *IntLiteral:
		return "(integer " + n.Token.Text + ")"
	case *IdentExpr:
		return "(ident " + strconv.Quote(n.Token.Text) + ")"
	case *ParenExpr:
		return "(paren " + ToSExpr(n.Inner) + ")"
	case *BinaryExpr:
		return "(binary " + strconv.Quote(n.Op.String()) + " " + ToSExpr(n.LHS) + " " + ToSExpr(n.RHS) + ")"
	case *RelationalExpr:
		return "(relational " + strconv.Quote(n.Op.String()) + " " + ToSExpr(n.LHS) + " " + ToSExpr(n.RHS) + ")"
	case *EqualityExpr:
		return "(equality " + strconv.Quote(n.Op.String()) + " " + ToSExpr(n.LHS) + " " + ToSExpr(n.RHS) + ")"
	case *ReturnStmt:
		return "(return " + ToSExpr(n.Expr) + ")"
	case *LetStmt:
		return "(let " + strconv.Quote(n.Name.Text) + " " + ToSExpr(n.Expr) + ")"
	case *AssignStmt:
		return "(assign " + strconv.Quote(n.Name.Text) + " " + ToSExpr(n.Expr) + ")"
	case *Scope:
		return list("scope", stmtsToSExpr(n.Statements)...)
	case *IfStmt:
		parts := []string{ToSExpr(n.Cond), ToSExpr(n.Then)}
		if n.Pred != nil {
			parts = append(parts, ToSExpr(n.Pred))
		}
		return list("if", parts...)
	case *ElseIfClause:
		parts := []string{ToSExpr(n.Cond), ToSExpr(n.Scope)}
		if n.Next != nil {
			parts = append(parts, ToSExpr(n.Next))
		}
		return list("else-if", parts...)
	case *ElseClause:
		return "(else " + ToSExpr(n.Scope) + ")"
	case *WhileStmt:
		return "(while " + ToSExpr(n.Cond) + " " + ToSExpr(n.Body) + ")"
	default:
		return ""
	}
}

func stmtsToSExpr(stmts []Stmt) []string {
	parts := make([]string, len(stmts))
	for i, stmt := range stmts {
		parts[i] = ToSExpr(stmt)
	}
	return parts
}

func list(head string, items ...string) string {
	if len(items) == 0 {
		return "(" + head + ")"
	}
	return "(" + head + " " + strings.Join(items, " ") + ")"
}
