package emerald

import "strconv"

// TokenKind is the type of token (keyword, literal, punctuation, etc.).
type TokenKind string

// Definition of token kinds
const (
	// Special tokens
	EOF        TokenKind = "EOF"
	Unexpected TokenKind = "UNEXPECTED"
	Comment    TokenKind = "COMMENT"

	// Identifiers + literals
	Identifier TokenKind = "IDENT" // x, counter, a1
	IntLit     TokenKind = "INT"   // 12345

	// Keywords
	Return TokenKind = "RETURN"
	Let    TokenKind = "LET"
	If     TokenKind = "IF"
	Else   TokenKind = "ELSE"
	For    TokenKind = "FOR"
	While  TokenKind = "WHILE"

	// Operators
	Equals       TokenKind = "="
	Plus         TokenKind = "+"
	Minus        TokenKind = "-"
	Asterisk     TokenKind = "*"
	ForwardSlash TokenKind = "/"
	BackSlash    TokenKind = "\\"
	LessThan     TokenKind = "<"
	GreaterThan  TokenKind = ">"
	EqualEqual   TokenKind = "=="
	BangEqual    TokenKind = "!="
	LessEqual    TokenKind = "<="
	GreaterEqual TokenKind = ">="

	// Delimiters
	SemiColon   TokenKind = ";"
	OpenParen   TokenKind = "("
	CloseParen  TokenKind = ")"
	OpenCurly   TokenKind = "{"
	CloseCurly  TokenKind = "}"
	OpenSquare  TokenKind = "["
	CloseSquare TokenKind = "]"
	Dot         TokenKind = "."
	Comma       TokenKind = ","
	Colon       TokenKind = ":"
	SingleQuote TokenKind = "'"
	DoubleQuote TokenKind = "\""
	Pipe        TokenKind = "|"
)

var keywords = map[string]TokenKind{
	"return": Return,
	"let":    Let,
	"if":     If,
	"else":   Else,
	"for":    For,
	"while":  While,
}

var symbols = map[byte]TokenKind{
	';':  SemiColon,
	'(':  OpenParen,
	')':  CloseParen,
	'=':  Equals,
	'+':  Plus,
	'*':  Asterisk,
	'-':  Minus,
	'/':  ForwardSlash,
	'\\': BackSlash,
	'{':  OpenCurly,
	'}':  CloseCurly,
	'[':  OpenSquare,
	']':  CloseSquare,
	'<':  LessThan,
	'>':  GreaterThan,
	'.':  Dot,
	',':  Comma,
	':':  Colon,
	'\'': SingleQuote,
	'"':  DoubleQuote,
	'|':  Pipe,
}

// Two-character operators are matched before the single-character symbols.
var doubleSymbols = map[string]TokenKind{
	"==": EqualEqual,
	"!=": BangEqual,
	"<=": LessEqual,
	">=": GreaterEqual,
}

// Position is a location in a source file. Line and Column are 1-based.
type Position struct {
	File   string
	Line   int
	Column int
}

func (p Position) String() string {
	s := strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
	if p.File != "" {
		s = p.File + ":" + s
	}
	return s
}

// Token is a single lexeme. Pos is nil for tokens that do not come from the
// source, such as the sentinel returned when reading past the end.
type Token struct {
	Kind TokenKind
	Pos  *Position
	// Text holds the lexeme of identifiers and integer literals, and the
	// offending character of Unexpected tokens.
	Text string
}

func (t Token) String() string {
	if t.Text != "" {
		return string(t.Kind) + "(" + t.Text + ")"
	}
	return string(t.Kind)
}
