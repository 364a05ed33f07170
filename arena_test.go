package emerald

import (
	"testing"

	"github.com/nalgeon/be"
)

func TestArenaPointersStayValid(t *testing.T) {
	a := NewArena()
	var lits []*IntLiteral
	for i := range 3 * slabChunkSize {
		lits = append(lits, a.NewIntLiteral(Token{Kind: IntLit, Text: string(rune('a' + i%26))}))
	}
	// Growing past several chunks must not move earlier nodes.
	for i, lit := range lits {
		be.Equal(t, lit.Token.Text, string(rune('a'+i%26)))
	}
	be.Equal(t, a.Len(), 3*slabChunkSize)
	be.Equal(t, len(a.ints.chunks), 3)
}

func TestArenaCountsEveryNodeType(t *testing.T) {
	a := NewArena()
	lit := a.NewIntLiteral(Token{Kind: IntLit, Text: "1"})
	id := a.NewIdent(Token{Kind: Identifier, Text: "x"})
	a.NewParen(lit)
	a.NewBinary(BinaryExpr{Op: OpAdd, LHS: lit, RHS: id})
	a.NewRelational(RelationalExpr{Op: OpLT, LHS: lit, RHS: id})
	a.NewEquality(EqualityExpr{Op: OpEQ, LHS: lit, RHS: id})
	scope := a.NewScope()
	a.NewReturn(ReturnStmt{Expr: lit})
	a.NewLet(LetStmt{Expr: lit})
	a.NewAssign(AssignStmt{Expr: lit})
	a.NewIf(IfStmt{Cond: lit, Then: scope})
	a.NewWhile(WhileStmt{Cond: lit, Body: scope})
	a.NewElseIf(ElseIfClause{Cond: lit, Scope: scope})
	a.NewElse(ElseClause{Scope: scope})
	a.NewProgram()
	be.Equal(t, a.Len(), 15)

	a.Release()
	be.Equal(t, a.Len(), 0)
}

func TestParserAllocatesFromArena(t *testing.T) {
	a := NewArena()
	NewParser(Lex("", "let x = 1 + 2;"), a, &Diagnostics{}).Parse()
	// program, let, binary, two literals
	be.Equal(t, a.Len(), 5)
}
