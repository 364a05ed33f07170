package emerald

import (
	"testing"

	"github.com/nalgeon/be"
)

func kinds(tokens []Token) []TokenKind {
	out := make([]TokenKind, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Kind
	}
	return out
}

func TestIntLiteral(t *testing.T) {
	tokens := Lex("", "12345")
	be.Equal(t, len(tokens), 1)
	be.Equal(t, tokens[0].Kind, IntLit)
	be.Equal(t, tokens[0].Text, "12345")
}

func TestIdentifier(t *testing.T) {
	tokens := Lex("", "foobar x1")
	be.Equal(t, kinds(tokens), []TokenKind{Identifier, Identifier})
	be.Equal(t, tokens[0].Text, "foobar")
	be.Equal(t, tokens[1].Text, "x1")
}

func TestKeywords(t *testing.T) {
	tokens := Lex("", "return let if else for while returns")
	be.Equal(t, kinds(tokens), []TokenKind{Return, Let, If, Else, For, While, Identifier})
	be.Equal(t, tokens[0].Text, "")
	be.Equal(t, tokens[6].Text, "returns")
}

func TestSymbols(t *testing.T) {
	tests := []struct {
		input string
		kind  TokenKind
	}{
		{";", SemiColon},
		{"(", OpenParen},
		{")", CloseParen},
		{"=", Equals},
		{"+", Plus},
		{"*", Asterisk},
		{"-", Minus},
		{"/", ForwardSlash},
		{"\\", BackSlash},
		{"{", OpenCurly},
		{"}", CloseCurly},
		{"[", OpenSquare},
		{"]", CloseSquare},
		{"<", LessThan},
		{">", GreaterThan},
		{".", Dot},
		{",", Comma},
		{":", Colon},
		{"'", SingleQuote},
		{"\"", DoubleQuote},
		{"|", Pipe},
		{"==", EqualEqual},
		{"!=", BangEqual},
		{"<=", LessEqual},
		{">=", GreaterEqual},
	}

	for _, tt := range tests {
		tokens := Lex("", tt.input)
		be.Equal(t, len(tokens), 1)
		be.Equal(t, tokens[0].Kind, tt.kind)
	}
}

func TestDoubleSymbolsNeedAdjacentCharacters(t *testing.T) {
	be.Equal(t, kinds(Lex("", "= =")), []TokenKind{Equals, Equals})
	be.Equal(t, kinds(Lex("", "<=>")), []TokenKind{LessEqual, GreaterThan})
	be.Equal(t, kinds(Lex("", "a=-1")), []TokenKind{Identifier, Equals, Minus, IntLit})
}

func TestUnexpectedCharacter(t *testing.T) {
	tokens := Lex("", "a @ b!")
	be.Equal(t, kinds(tokens), []TokenKind{Identifier, Unexpected, Identifier, Unexpected})
	be.Equal(t, tokens[1].Text, "@")
	be.Equal(t, tokens[3].Text, "!")
	be.Equal(t, *tokens[1].Pos, Position{Line: 1, Column: 3})
}

func TestPositions(t *testing.T) {
	src := "let x = 10;\n  return x;"
	tokens := Lex("main.em", src)

	want := []Position{
		{"main.em", 1, 1},  // let
		{"main.em", 1, 5},  // x
		{"main.em", 1, 7},  // =
		{"main.em", 1, 9},  // 10
		{"main.em", 1, 11}, // ;
		{"main.em", 2, 3},  // return
		{"main.em", 2, 10}, // x
		{"main.em", 2, 11}, // ;
	}
	be.Equal(t, len(tokens), len(want))
	for i, pos := range want {
		be.Equal(t, *tokens[i].Pos, pos)
	}
}

func TestCRLFLineEndings(t *testing.T) {
	tokens := Lex("", "a\r\nb\r\n\r\nc")
	be.Equal(t, len(tokens), 3)
	be.Equal(t, *tokens[1].Pos, Position{Line: 2, Column: 1})
	be.Equal(t, *tokens[2].Pos, Position{Line: 4, Column: 1})
}

func TestLineComment(t *testing.T) {
	tokens := Lex("", "a # b c\nd")
	be.Equal(t, kinds(tokens), []TokenKind{Identifier, Identifier})
	be.Equal(t, tokens[1].Text, "d")
	be.Equal(t, tokens[1].Pos.Line, 2)
}

func TestBlockComment(t *testing.T) {
	tokens := Lex("", "a #* b\nc\n *# d")
	be.Equal(t, kinds(tokens), []TokenKind{Identifier, Identifier})
	be.Equal(t, tokens[1].Text, "d")
	be.Equal(t, *tokens[1].Pos, Position{Line: 3, Column: 5})
}

func TestUnterminatedBlockComment(t *testing.T) {
	tokens := Lex("", "a #* never closed\nb")
	be.Equal(t, kinds(tokens), []TokenKind{Identifier})
}

func TestEmptyInput(t *testing.T) {
	be.Equal(t, len(Lex("", "")), 0)
	be.Equal(t, len(Lex("", " \t\n\r\n")), 0)
}

func TestLexIsRepeatable(t *testing.T) {
	l := NewLexer("f.em", "let a = 1;\n# c\nreturn a;")
	first := l.Lex()
	second := l.Lex()
	be.Equal(t, len(first), len(second))
	for i := range first {
		be.Equal(t, first[i].Kind, second[i].Kind)
		be.Equal(t, first[i].Text, second[i].Text)
		be.Equal(t, *first[i].Pos, *second[i].Pos)
	}
}

func TestTokenString(t *testing.T) {
	be.Equal(t, Token{Kind: IntLit, Text: "5"}.String(), "INT(5)")
	be.Equal(t, Token{Kind: Plus}.String(), "+")
	be.Equal(t, Position{File: "a.em", Line: 2, Column: 3}.String(), "a.em:2:3")
	be.Equal(t, Position{Line: 2, Column: 3}.String(), "2:3")
}
