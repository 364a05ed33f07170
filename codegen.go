package emerald

import (
	"fmt"
	"strconv"
)

type variable struct {
	name string
	slot int // stack depth at the time of declaration
}

// Generator lowers a Program to NASM assembly. Expressions are evaluated on
// the machine stack: each one leaves exactly one word pushed. Variables are
// not stored anywhere else; a variable is the stack word its initializer
// left behind.
type Generator struct {
	diags  *Diagnostics
	target Target

	asm        asmBuilder
	labels     labelManager
	stackDepth int
	variables  []variable
	// scopes holds len(variables) at the entry of each open scope.
	scopes []int
}

func NewGenerator(diags *Diagnostics, target Target) *Generator {
	return &Generator{diags: diags, target: target}
}

// Generate returns the assembly for program. Semantic errors are appended to
// the diagnostics; the offending construct is skipped and generation goes on.
func (g *Generator) Generate(program *Program) string {
	g.asm = asmBuilder{}
	g.labels = labelManager{}
	g.stackDepth = 0
	g.variables = nil
	g.scopes = []int{0}

	g.asm.header(g.target)
	for _, stmt := range program.Statements {
		g.generateStmt(stmt)
	}
	g.asm.exitSuccess(g.target)
	return g.asm.String()
}

func (g *Generator) push(src string) {
	g.asm.push(src)
	g.stackDepth++
}

func (g *Generator) pop(dst string) {
	g.asm.pop(dst)
	g.stackDepth--
}

// lookup finds the innermost visible variable called name.
func (g *Generator) lookup(name string) (variable, bool) {
	for i := len(g.variables) - 1; i >= 0; i-- {
		if g.variables[i].name == name {
			return g.variables[i], true
		}
	}
	return variable{}, false
}

// declaredInCurrentScope only looks at variables declared since the current
// scope was entered, so shadowing an outer variable is allowed.
func (g *Generator) declaredInCurrentScope(name string) bool {
	for _, v := range g.variables[g.scopes[len(g.scopes)-1]:] {
		if v.name == name {
			return true
		}
	}
	return false
}

// slotOffset is the distance in bytes between the top of the stack and v.
func (g *Generator) slotOffset(v variable) int {
	return (g.stackDepth - v.slot - 1) * wordSize
}

func (g *Generator) beginScope() {
	g.scopes = append(g.scopes, len(g.variables))
}

// endScope releases every variable declared since the matching beginScope
// with a single stack pointer adjustment.
func (g *Generator) endScope() {
	marker := g.scopes[len(g.scopes)-1]
	g.scopes = g.scopes[:len(g.scopes)-1]

	n := len(g.variables) - marker
	if n > 0 {
		g.asm.add("rsp", strconv.Itoa(n*wordSize))
		g.stackDepth -= n
	}
	g.variables = g.variables[:marker]
}

func (g *Generator) generateScope(scope *Scope) {
	g.beginScope()
	for _, stmt := range scope.Statements {
		g.generateStmt(stmt)
	}
	g.endScope()
}

func (g *Generator) generateStmt(stmt Stmt) {
	switch s := stmt.(type) {
	case *ReturnStmt:
		g.generateExpr(s.Expr)
		g.pop(exitRegister(g.target))
		g.asm.terminate(g.target)

	case *LetStmt:
		name := s.Name.Text
		if g.declaredInCurrentScope(name) {
			g.diags.Errorf(posOf(s.Name), "Identifier '%s' is already declared in this scope", name)
			return
		}
		slot := g.stackDepth
		g.generateExpr(s.Expr)
		g.variables = append(g.variables, variable{name: name, slot: slot})

	case *AssignStmt:
		name := s.Name.Text
		v, ok := g.lookup(name)
		if !ok {
			g.diags.Errorf(posOf(s.Name), "Undeclared identifier '%s'", name)
			return
		}
		g.generateExpr(s.Expr)
		g.pop("rax")
		g.asm.mov(g.asm.stackSlot(g.slotOffset(v)), "rax")

	case *Scope:
		g.generateScope(s)

	case *IfStmt:
		g.generateIf(s)

	case *WhileStmt:
		g.generateWhile(s)

	default:
		panic(fmt.Sprintf("generateStmt: unhandled statement %T", stmt))
	}
}

// generateConditionalScope evaluates cond and runs scope if it is non-zero,
// jumping to end afterwards. Control reaches the code emitted next only when
// cond was zero.
func (g *Generator) generateConditionalScope(cond Expr, scope *Scope, end string) {
	skip := g.labels.nextLabel()
	g.generateExpr(cond)
	g.pop("rax")
	g.asm.cmp("rax", "0")
	g.asm.jumpIfEqual(skip)
	g.generateScope(scope)
	g.asm.jump(end)
	g.asm.label(skip)
}

func (g *Generator) generateIf(s *IfStmt) {
	end := g.labels.nextLabel()
	g.generateConditionalScope(s.Cond, s.Then, end)
	if s.Pred != nil {
		g.generatePredicate(s.Pred, end)
	}
	g.asm.label(end)
}

func (g *Generator) generatePredicate(pred Predicate, end string) {
	switch p := pred.(type) {
	case *ElseIfClause:
		g.generateConditionalScope(p.Cond, p.Scope, end)
		if p.Next != nil {
			g.generatePredicate(p.Next, end)
		}
	case *ElseClause:
		g.generateScope(p.Scope)
	default:
		panic(fmt.Sprintf("generatePredicate: unhandled predicate %T", pred))
	}
}

// generateWhile re-evaluates the condition at the top of every iteration.
func (g *Generator) generateWhile(s *WhileStmt) {
	loop := g.labels.nextLabel()
	end := g.labels.nextLabel()
	g.asm.label(loop)
	g.generateExpr(s.Cond)
	g.pop("rax")
	g.asm.cmp("rax", "0")
	g.asm.jumpIfEqual(end)
	g.generateScope(s.Body)
	g.asm.jump(loop)
	g.asm.label(end)
}

func (g *Generator) generateExpr(expr Expr) {
	switch e := expr.(type) {
	case *IntLiteral:
		v, err := strconv.ParseInt(e.Token.Text, 10, 64)
		if err != nil {
			g.diags.Errorf(posOf(e.Token), "Integer literal %s does not fit in 64 bits", e.Token.Text)
			return
		}
		// Leading zeros are dropped so no assembler reads the literal as octal.
		g.asm.mov("rax", strconv.FormatInt(v, 10))
		g.push("rax")

	case *IdentExpr:
		name := e.Token.Text
		v, ok := g.lookup(name)
		if !ok {
			g.diags.Errorf(posOf(e.Token), "Undeclared identifier '%s'", name)
			return
		}
		g.push(g.asm.stackSlot(g.slotOffset(v)))

	case *ParenExpr:
		g.generateExpr(e.Inner)

	case *BinaryExpr:
		g.generateOperands(e.LHS, e.RHS)
		switch e.Op {
		case OpAdd:
			g.asm.add("rax", "rbx")
		case OpSub:
			g.asm.sub("rax", "rbx")
		case OpMul:
			g.asm.instr("imul", "rax", "rbx")
		case OpDiv:
			g.asm.instr("cqo")
			g.asm.instr("idiv", "rbx")
		default:
			panic(fmt.Sprintf("generateExpr: unhandled binary operator %d", e.Op))
		}
		g.push("rax")

	case *RelationalExpr:
		g.generateOperands(e.LHS, e.RHS)
		switch e.Op {
		case OpLT:
			g.compare("l")
		case OpGT:
			g.compare("g")
		case OpLE:
			g.compare("le")
		case OpGE:
			g.compare("ge")
		default:
			panic(fmt.Sprintf("generateExpr: unhandled relational operator %d", e.Op))
		}

	case *EqualityExpr:
		g.generateOperands(e.LHS, e.RHS)
		switch e.Op {
		case OpEQ:
			g.compare("e")
		case OpNE:
			g.compare("ne")
		default:
			panic(fmt.Sprintf("generateExpr: unhandled equality operator %d", e.Op))
		}

	default:
		panic(fmt.Sprintf("generateExpr: unhandled expression %T", expr))
	}
}

// generateOperands evaluates rhs and then lhs, leaving lhs in rax and rhs in
// rbx. Pushing the right side first puts the left side on top, which keeps
// subtraction and division in source order.
func (g *Generator) generateOperands(lhs, rhs Expr) {
	g.generateExpr(rhs)
	g.generateExpr(lhs)
	g.pop("rax")
	g.pop("rbx")
}

// compare pushes 1 if rax and rbx satisfy the condition code cc, else 0.
func (g *Generator) compare(cc string) {
	g.asm.cmp("rax", "rbx")
	g.asm.set(cc, "al")
	g.asm.movzx("rax", "al")
	g.push("rax")
}
