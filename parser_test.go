package emerald

import (
	"testing"

	"github.com/nalgeon/be"
)

func parseExprString(t *testing.T, src string) string {
	t.Helper()
	expr, diags := ParseExpr(src)
	be.Equal(t, diags.String(), "")
	return ToSExpr(expr)
}

func parseProgramString(t *testing.T, src string) string {
	t.Helper()
	program, diags := ParseProgram("test.em", src)
	be.Equal(t, diags.String(), "")
	return ToSExpr(program)
}

func TestParseTerms(t *testing.T) {
	be.Equal(t, parseExprString(t, "42"), "(integer 42)")
	be.Equal(t, parseExprString(t, "x"), `(ident "x")`)
	be.Equal(t, parseExprString(t, "(x)"), `(paren (ident "x"))`)
}

func TestParsePrecedence(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1 + 2 * 3", `(binary "+" (integer 1) (binary "*" (integer 2) (integer 3)))`},
		{"1 * 2 + 3", `(binary "+" (binary "*" (integer 1) (integer 2)) (integer 3))`},
		{"1 - 2 / 3", `(binary "-" (integer 1) (binary "/" (integer 2) (integer 3)))`},
		{"a + b < c * d", `(relational "<" (binary "+" (ident "a") (ident "b")) (binary "*" (ident "c") (ident "d")))`},
		{"a < b == c >= d", `(equality "==" (relational "<" (ident "a") (ident "b")) (relational ">=" (ident "c") (ident "d")))`},
		{"(1 + 2) * 3", `(binary "*" (paren (binary "+" (integer 1) (integer 2))) (integer 3))`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			be.Equal(t, parseExprString(t, tt.input), tt.want)
		})
	}
}

func TestParseLeftAssociativity(t *testing.T) {
	be.Equal(t, parseExprString(t, "1 - 2 - 3"), `(binary "-" (binary "-" (integer 1) (integer 2)) (integer 3))`)
	be.Equal(t, parseExprString(t, "8 / 4 / 2"), `(binary "/" (binary "/" (integer 8) (integer 4)) (integer 2))`)
	be.Equal(t, parseExprString(t, "1 + 2 - 3 + 4"), `(binary "+" (binary "-" (binary "+" (integer 1) (integer 2)) (integer 3)) (integer 4))`)
	be.Equal(t, parseExprString(t, "a == b != c"), `(equality "!=" (equality "==" (ident "a") (ident "b")) (ident "c"))`)
}

func TestParseStatements(t *testing.T) {
	be.Equal(t, parseProgramString(t, ""), "(program)")
	be.Equal(t, parseProgramString(t, "let x = 1;"), `(program (let "x" (integer 1)))`)
	be.Equal(t, parseProgramString(t, "x = 1;"), `(program (assign "x" (integer 1)))`)
	be.Equal(t, parseProgramString(t, "return x;"), `(program (return (ident "x")))`)
	be.Equal(t, parseProgramString(t, "{ { } }"), "(program (scope (scope)))")
	be.Equal(t, parseProgramString(t, "while (x) { x = 0; }"), `(program (while (ident "x") (scope (assign "x" (integer 0)))))`)
}

func TestParseIfChains(t *testing.T) {
	be.Equal(t, parseProgramString(t, "if (a) {}"), `(program (if (ident "a") (scope)))`)
	be.Equal(t, parseProgramString(t, "if (a) {} else {}"), `(program (if (ident "a") (scope) (else (scope))))`)
	be.Equal(t,
		parseProgramString(t, "if (a) {} else if (b) {} else if (c) {} else {}"),
		`(program (if (ident "a") (scope) (else-if (ident "b") (scope) (else-if (ident "c") (scope) (else (scope))))))`)
}

func TestParseIsRepeatable(t *testing.T) {
	diags := &Diagnostics{}
	p := NewParser(Lex("", "let x = 1; return x;"), NewArena(), diags)
	first := ToSExpr(p.Parse())
	second := ToSExpr(p.Parse())
	be.Equal(t, first, second)
	be.Equal(t, diags.Len(), 0)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"missing semicolon after let", "let x = 1", "Error: Ln 1:9: Expected ';' after variable declaration"},
		{"missing semicolon after assignment", "x = 1", "Error: Ln 1:5: Expected ';' after assignment"},
		{"invalid statement", "1;", "Error: Ln 1:1: Invalid statement\nError: Ln 1:2: Invalid statement"},
		{"missing condition parenthesis", "while x) {}", "Error: Ln 1:1: Expected '(' after 'while'\nError: Ln 1:8: Invalid expression"},
		{"invalid expression", "return ;", "Error: Ln 1:8: Invalid expression"},
		{"missing expression", "let x =", "Error: Ln 1:7: Expected expression\nError: Ln 1:7: Expected ';' after variable declaration"},
		{"unclosed parenthesis", "return (1;", "Error: Ln 1:9: Expected ')'\nError: Ln 1:10: Expected ';' after return value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, diags := ParseProgram("test.em", tt.input)
			be.Equal(t, diags.String(), tt.want)
		})
	}
}

func TestParseRecoversAndContinues(t *testing.T) {
	program, diags := ParseProgram("test.em", "let x = 1\nlet y = 2;\n@\nreturn y;")
	be.True(t, diags.HasErrors())
	// Recovery swallows the second "let", which turns the rest of that line
	// into an assignment.
	be.Equal(t, diags.Len(), 2)
	be.Equal(t, ToSExpr(program), `(program (let "x" (integer 1)) (assign "y" (integer 2)) (return (ident "y")))`)
}

func TestParserNeverPanics(t *testing.T) {
	inputs := []string{
		"", "(", ")", "{", "}", "if", "if (", "if ()", "else", "let", "let x", "let x =",
		"while (1", "return", "x =", "{{{{", "}}}}", "1 + + 2", "if (1) {} else", "if (1) {} else if",
		"\x00\x01\x02", "let x = (((((1", "return 1 < < 2;",
	}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			program, _ := ParseProgram("fuzz.em", input)
			be.True(t, program != nil)
		})
	}
}
