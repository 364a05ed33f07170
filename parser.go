package emerald

// Parser builds an AST out of a token slice. Nodes are allocated from the
// arena; problems are appended to diags and parsing carries on so that one
// pass reports as many errors as possible.
type Parser struct {
	tokens []Token
	pos    int // index of the next token to consume
	arena  *Arena
	diags  *Diagnostics
}

func NewParser(tokens []Token, arena *Arena, diags *Diagnostics) *Parser {
	return &Parser{tokens: tokens, arena: arena, diags: diags}
}

// Parse parses the whole token slice into a Program. The cursor is rewound
// afterwards so the same parser can be run again.
func (p *Parser) Parse() *Program {
	program := p.arena.NewProgram()
	for p.pos < len(p.tokens) {
		if stmt := p.parseStatement(); stmt != nil {
			program.Statements = append(program.Statements, stmt)
		}
	}
	p.pos = 0
	return program
}

// ParseExpr parses a single expression from the start of the token slice.
// Tokens left over after the expression are reported.
func (p *Parser) ParseExpr() Expr {
	expr := p.parseExpr(0)
	if tok, ok := p.peek(0); ok && expr != nil {
		p.diags.Errorf(posOf(tok), "Unexpected token '%s' after expression", tok.Kind)
	}
	p.pos = 0
	return expr
}

// peek looks at the token offset places from the cursor without consuming
// it. A negative offset looks at tokens that were already consumed.
func (p *Parser) peek(offset int) (Token, bool) {
	i := p.pos + offset
	if i < 0 || i >= len(p.tokens) {
		return Token{}, false
	}
	return p.tokens[i], true
}

// consume returns the current token and moves past it. Past the end it
// returns an Unexpected token without a position.
func (p *Parser) consume() Token {
	if p.pos >= len(p.tokens) {
		return Token{Kind: Unexpected}
	}
	tok := p.tokens[p.pos]
	p.pos++
	return tok
}

// tryConsume consumes the current token iff it has the given kind.
func (p *Parser) tryConsume(kind TokenKind) (Token, bool) {
	if tok, ok := p.peek(0); ok && tok.Kind == kind {
		return p.consume(), true
	}
	return Token{}, false
}

// tryConsumeOrReport is tryConsume, but a mismatch is reported at the
// position of the previously consumed token. Nothing is consumed on a
// mismatch.
func (p *Parser) tryConsumeOrReport(kind TokenKind, message string) (Token, bool) {
	if tok, ok := p.tryConsume(kind); ok {
		return tok, true
	}
	p.diags.Errorf(p.previousPos(), "%s", message)
	return Token{}, false
}

// expect is tryConsumeOrReport plus recovery: on a mismatch one token is
// skipped so that the parser always makes progress.
func (p *Parser) expect(kind TokenKind, message string) (Token, bool) {
	if tok, ok := p.tryConsumeOrReport(kind, message); ok {
		return tok, true
	}
	p.consume()
	return Token{}, false
}

// matchesRule reports whether the upcoming tokens match a statement rule.
func (p *Parser) matchesRule(name string) bool {
	rule := grammarRules[name]
	for i, kind := range rule {
		tok, ok := p.peek(i)
		if !ok || tok.Kind != kind {
			return false
		}
	}
	return len(rule) > 0
}

func (p *Parser) previousPos() Position {
	if tok, ok := p.peek(-1); ok {
		return posOf(tok)
	}
	if tok, ok := p.peek(0); ok {
		return posOf(tok)
	}
	return Position{Line: 1, Column: 1}
}

func posOf(tok Token) Position {
	if tok.Pos == nil {
		return Position{}
	}
	return *tok.Pos
}

// parseStatement returns nil if the statement could not be parsed. It always
// consumes at least one token.
func (p *Parser) parseStatement() Stmt {
	tok, _ := p.peek(0)

	switch {
	case tok.Kind == Return:
		keyword := p.consume()
		expr := p.parseExpr(0)
		p.expect(SemiColon, "Expected ';' after return value")
		if expr == nil {
			return nil
		}
		return p.arena.NewReturn(ReturnStmt{Keyword: keyword, Expr: expr})

	case p.matchesRule(RuleVariableAssign):
		p.consume() // let
		name := p.consume()
		p.consume() // =
		expr := p.parseExpr(0)
		p.expect(SemiColon, "Expected ';' after variable declaration")
		if expr == nil {
			return nil
		}
		return p.arena.NewLet(LetStmt{Name: name, Expr: expr})

	case p.matchesRule(RuleVariableReassign):
		name := p.consume()
		p.consume() // =
		expr := p.parseExpr(0)
		p.expect(SemiColon, "Expected ';' after assignment")
		if expr == nil {
			return nil
		}
		return p.arena.NewAssign(AssignStmt{Name: name, Expr: expr})

	case tok.Kind == OpenCurly:
		if scope := p.parseScope(); scope != nil {
			return scope
		}
		return nil

	case tok.Kind == If:
		return p.parseIf()

	case tok.Kind == While:
		return p.parseWhile()

	default:
		p.diags.Errorf(posOf(tok), "Invalid statement")
		p.consume()
		return nil
	}
}

func (p *Parser) parseScope() *Scope {
	if _, ok := p.expect(OpenCurly, "Expected '{'"); !ok {
		return nil
	}
	scope := p.arena.NewScope()
	for {
		tok, ok := p.peek(0)
		if !ok || tok.Kind == CloseCurly {
			break
		}
		if stmt := p.parseStatement(); stmt != nil {
			scope.Statements = append(scope.Statements, stmt)
		}
	}
	if _, ok := p.expect(CloseCurly, "Expected '}'"); !ok {
		return nil
	}
	return scope
}

// parseCondition parses "( EXPR )".
func (p *Parser) parseCondition(keyword string) Expr {
	p.expect(OpenParen, "Expected '(' after '"+keyword+"'")
	cond := p.parseExpr(0)
	p.expect(CloseParen, "Expected ')' after condition")
	return cond
}

func (p *Parser) parseIf() Stmt {
	p.consume() // if
	cond := p.parseCondition("if")
	then := p.parseScope()
	pred, ok := p.parsePredicate()
	if cond == nil || then == nil || !ok {
		return nil
	}
	return p.arena.NewIf(IfStmt{Cond: cond, Then: then, Pred: pred})
}

// parsePredicate parses an optional else-chain. It returns (nil, true) when
// there is no else, and ok=false when the chain was malformed.
func (p *Parser) parsePredicate() (Predicate, bool) {
	if _, ok := p.tryConsume(Else); !ok {
		return nil, true
	}
	if _, ok := p.tryConsume(If); ok {
		cond := p.parseCondition("else if")
		scope := p.parseScope()
		next, ok := p.parsePredicate()
		if cond == nil || scope == nil || !ok {
			return nil, false
		}
		return p.arena.NewElseIf(ElseIfClause{Cond: cond, Scope: scope, Next: next}), true
	}
	scope := p.parseScope()
	if scope == nil {
		return nil, false
	}
	return p.arena.NewElse(ElseClause{Scope: scope}), true
}

func (p *Parser) parseWhile() Stmt {
	p.consume() // while
	cond := p.parseCondition("while")
	body := p.parseScope()
	if cond == nil || body == nil {
		return nil
	}
	return p.arena.NewWhile(WhileStmt{Cond: cond, Body: body})
}

// parseExpr implements precedence climbing. Operators binding less tightly
// than minPrec are left for the caller, which makes chains of equal
// precedence fold to the left.
func (p *Parser) parseExpr(minPrec int) Expr {
	term := p.parseTerm()
	if term == nil {
		return nil
	}
	var lhs Expr = term

	for {
		op, ok := p.peek(0)
		if !ok {
			break
		}
		prec, isOp := binaryPrecedence(op.Kind)
		if !isOp || prec < minPrec {
			break
		}
		p.consume()

		rhs := p.parseExpr(prec + 1)
		if rhs == nil {
			return nil
		}
		lhs = p.fold(op, lhs, rhs)
	}
	return lhs
}

// fold combines lhs and rhs with the operator token op.
func (p *Parser) fold(op Token, lhs, rhs Expr) Expr {
	switch op.Kind {
	case Plus:
		return p.arena.NewBinary(BinaryExpr{Op: OpAdd, Operator: op, LHS: lhs, RHS: rhs})
	case Minus:
		return p.arena.NewBinary(BinaryExpr{Op: OpSub, Operator: op, LHS: lhs, RHS: rhs})
	case Asterisk:
		return p.arena.NewBinary(BinaryExpr{Op: OpMul, Operator: op, LHS: lhs, RHS: rhs})
	case ForwardSlash:
		return p.arena.NewBinary(BinaryExpr{Op: OpDiv, Operator: op, LHS: lhs, RHS: rhs})
	case LessThan:
		return p.arena.NewRelational(RelationalExpr{Op: OpLT, Operator: op, LHS: lhs, RHS: rhs})
	case GreaterThan:
		return p.arena.NewRelational(RelationalExpr{Op: OpGT, Operator: op, LHS: lhs, RHS: rhs})
	case LessEqual:
		return p.arena.NewRelational(RelationalExpr{Op: OpLE, Operator: op, LHS: lhs, RHS: rhs})
	case GreaterEqual:
		return p.arena.NewRelational(RelationalExpr{Op: OpGE, Operator: op, LHS: lhs, RHS: rhs})
	case EqualEqual:
		return p.arena.NewEquality(EqualityExpr{Op: OpEQ, Operator: op, LHS: lhs, RHS: rhs})
	case BangEqual:
		return p.arena.NewEquality(EqualityExpr{Op: OpNE, Operator: op, LHS: lhs, RHS: rhs})
	default:
		panic("fold: not a binary operator: " + string(op.Kind))
	}
}

// parseTerm parses an integer literal, an identifier or a parenthesized
// expression. Failures are reported here; nil means the error is already
// recorded.
func (p *Parser) parseTerm() Term {
	tok, ok := p.peek(0)
	if !ok {
		p.diags.Errorf(p.previousPos(), "Expected expression")
		return nil
	}
	switch tok.Kind {
	case IntLit:
		return p.arena.NewIntLiteral(p.consume())
	case Identifier:
		return p.arena.NewIdent(p.consume())
	case OpenParen:
		p.consume()
		inner := p.parseExpr(0)
		if inner == nil {
			return nil
		}
		p.expect(CloseParen, "Expected ')'")
		return p.arena.NewParen(inner)
	default:
		p.diags.Errorf(posOf(tok), "Invalid expression")
		return nil
	}
}
