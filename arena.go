package emerald

const slabChunkSize = 64

// slab hands out pointers into fixed-capacity chunks. A chunk never grows past
// its capacity, so pointers stay valid for as long as the slab is alive.
type slab[T any] struct {
	chunks [][]T
	count  int
}

func (s *slab[T]) alloc(v T) *T {
	n := len(s.chunks)
	if n == 0 || len(s.chunks[n-1]) == cap(s.chunks[n-1]) {
		s.chunks = append(s.chunks, make([]T, 0, slabChunkSize))
		n++
	}
	chunk := &s.chunks[n-1]
	*chunk = append(*chunk, v)
	s.count++
	return &(*chunk)[len(*chunk)-1]
}

// Arena owns every AST node of one compilation. Nodes are never freed one at
// a time; Release drops all of them at once.
type Arena struct {
	returns     slab[ReturnStmt]
	lets        slab[LetStmt]
	assigns     slab[AssignStmt]
	scopes      slab[Scope]
	ifs         slab[IfStmt]
	whiles      slab[WhileStmt]
	elseIfs     slab[ElseIfClause]
	elses       slab[ElseClause]
	ints        slab[IntLiteral]
	idents      slab[IdentExpr]
	parens      slab[ParenExpr]
	binaries    slab[BinaryExpr]
	relationals slab[RelationalExpr]
	equalities  slab[EqualityExpr]
	programs    slab[Program]
}

func NewArena() *Arena {
	return &Arena{}
}

// Len returns the number of nodes allocated so far.
func (a *Arena) Len() int {
	return a.returns.count + a.lets.count + a.assigns.count + a.scopes.count +
		a.ifs.count + a.whiles.count + a.elseIfs.count + a.elses.count +
		a.ints.count + a.idents.count + a.parens.count + a.binaries.count +
		a.relationals.count + a.equalities.count + a.programs.count
}

// Release drops every node. Pointers handed out earlier must not be used
// afterwards.
func (a *Arena) Release() {
	*a = Arena{}
}

func (a *Arena) NewProgram() *Program {
	return a.programs.alloc(Program{})
}

func (a *Arena) NewReturn(n ReturnStmt) *ReturnStmt {
	return a.returns.alloc(n)
}

func (a *Arena) NewLet(n LetStmt) *LetStmt {
	return a.lets.alloc(n)
}

func (a *Arena) NewAssign(n AssignStmt) *AssignStmt {
	return a.assigns.alloc(n)
}

func (a *Arena) NewScope() *Scope {
	return a.scopes.alloc(Scope{})
}

func (a *Arena) NewIf(n IfStmt) *IfStmt {
	return a.ifs.alloc(n)
}

func (a *Arena) NewWhile(n WhileStmt) *WhileStmt {
	return a.whiles.alloc(n)
}

func (a *Arena) NewElseIf(n ElseIfClause) *ElseIfClause {
	return a.elseIfs.alloc(n)
}

func (a *Arena) NewElse(n ElseClause) *ElseClause {
	return a.elses.alloc(n)
}

func (a *Arena) NewIntLiteral(tok Token) *IntLiteral {
	return a.ints.alloc(IntLiteral{Token: tok})
}

func (a *Arena) NewIdent(tok Token) *IdentExpr {
	return a.idents.alloc(IdentExpr{Token: tok})
}

func (a *Arena) NewParen(inner Expr) *ParenExpr {
	return a.parens.alloc(ParenExpr{Inner: inner})
}

func (a *Arena) NewBinary(n BinaryExpr) *BinaryExpr {
	return a.binaries.alloc(n)
}

func (a *Arena) NewRelational(n RelationalExpr) *RelationalExpr {
	return a.relationals.alloc(n)
}

func (a *Arena) NewEquality(n EqualityExpr) *EqualityExpr {
	return a.equalities.alloc(n)
}
