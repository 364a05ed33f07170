package emerald

// Options configures a compilation.
type Options struct {
	Target Target
}

// Result is the outcome of Compile. Assembly is only meaningful when Failed
// returns false.
type Result struct {
	Assembly    string
	Diagnostics *Diagnostics
	Program     *Program
}

// Failed reports whether any stage produced an error.
func (r *Result) Failed() bool {
	return r.Diagnostics.HasErrors()
}

// Compile runs the lexer, the parser and the code generator over source,
// sharing one arena and one diagnostics sink between them. Code generation
// still runs after parse errors so that semantic errors are reported in the
// same pass.
func Compile(file, source string, opts Options) *Result {
	diags := &Diagnostics{}
	arena := NewArena()

	tokens := Lex(file, source)
	program := NewParser(tokens, arena, diags).Parse()
	assembly := NewGenerator(diags, opts.Target).Generate(program)

	return &Result{Assembly: assembly, Diagnostics: diags, Program: program}
}

// ParseExpr lexes and parses a single expression. It is used for AST dumps
// of expressions.
func ParseExpr(source string) (Expr, *Diagnostics) {
	diags := &Diagnostics{}
	expr := NewParser(Lex("", source), NewArena(), diags).ParseExpr()
	return expr, diags
}

// ParseProgram lexes and parses a whole program without generating code.
func ParseProgram(file, source string) (*Program, *Diagnostics) {
	diags := &Diagnostics{}
	program := NewParser(Lex(file, source), NewArena(), diags).Parse()
	return program, diags
}
