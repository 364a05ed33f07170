package emerald

// Program is the root of the AST. Every node reachable from it lives in the
// Arena that the parser was given.
type Program struct {
	Statements []Stmt
}

// Stmt is one of *ReturnStmt, *LetStmt, *AssignStmt, *Scope, *IfStmt or
// *WhileStmt.
type Stmt interface {
	stmtNode()
}

// Predicate is the trailing else-chain of an if statement: *ElseIfClause or *ElseClause.
type Predicate interface {
	predicateNode()
}

// Expr is any Term, *BinaryExpr, *RelationalExpr or *EqualityExpr.
type Expr interface {
	exprNode()
}

// Term is *IntLiteral, *IdentExpr or *ParenExpr.
type Term interface {
	Expr
	termNode()
}

type ReturnStmt struct {
	Keyword Token
	Expr    Expr
}

type LetStmt struct {
	Name Token
	Expr Expr
}

type AssignStmt struct {
	Name Token
	Expr Expr
}

// Scope is a braced block. Variables declared in it are released when it ends.
type Scope struct {
	Statements []Stmt
}

type IfStmt struct {
	Cond Expr
	Then *Scope
	Pred Predicate // nil without an else-chain
}

type WhileStmt struct {
	Cond Expr
	Body *Scope
}

type ElseIfClause struct {
	Cond  Expr
	Scope *Scope
	Next  Predicate // nil at the end of the chain
}

type ElseClause struct {
	Scope *Scope
}

type IntLiteral struct {
	Token Token
}

type IdentExpr struct {
	Token Token
}

type ParenExpr struct {
	Inner Expr
}

// BinaryOp is an arithmetic operator.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
)

// RelationalOp is an ordering comparison.
type RelationalOp int

const (
	OpLT RelationalOp = iota
	OpGT
	OpLE
	OpGE
)

// EqualityOp is == or !=.
type EqualityOp int

const (
	OpEQ EqualityOp = iota
	OpNE
)

type BinaryExpr struct {
	Op       BinaryOp
	Operator Token
	LHS, RHS Expr
}

type RelationalExpr struct {
	Op       RelationalOp
	Operator Token
	LHS, RHS Expr
}

type EqualityExpr struct {
	Op       EqualityOp
	Operator Token
	LHS, RHS Expr
}

func (*ReturnStmt) stmtNode() {}
func (*LetStmt) stmtNode()    {}
func (*AssignStmt) stmtNode() {}
func (*Scope) stmtNode()      {}
func (*IfStmt) stmtNode()     {}
func (*WhileStmt) stmtNode()  {}

func (*ElseIfClause) predicateNode() {}
func (*ElseClause) predicateNode()   {}

func (*IntLiteral) exprNode()     {}
func (*IdentExpr) exprNode()      {}
func (*ParenExpr) exprNode()      {}
func (*BinaryExpr) exprNode()     {}
func (*RelationalExpr) exprNode() {}
func (*EqualityExpr) exprNode()   {}

func (*IntLiteral) termNode() {}
func (*IdentExpr) termNode()  {}
func (*ParenExpr) termNode()  {}

func (op BinaryOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	default:
		return "?"
	}
}

func (op RelationalOp) String() string {
	switch op {
	case OpLT:
		return "<"
	case OpGT:
		return ">"
	case OpLE:
		return "<="
	case OpGE:
		return ">="
	default:
		return "?"
	}
}

func (op EqualityOp) String() string {
	switch op {
	case OpEQ:
		return "=="
	case OpNE:
		return "!="
	default:
		return "?"
	}
}
