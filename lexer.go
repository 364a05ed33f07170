package emerald

// Lexer turns Emerald source text into a flat slice of tokens. Whitespace and
// comments are dropped; every token remembers where its first character was.
type Lexer struct {
	file   string
	src    string
	pos    int // current reading position in src
	line   int
	column int
}

// NewLexer creates a lexer for src. file is only used in token positions.
func NewLexer(file, src string) *Lexer {
	return &Lexer{file: file, src: src}
}

// Lex is a shorthand for NewLexer(file, src).Lex().
func Lex(file, src string) []Token {
	return NewLexer(file, src).Lex()
}

// Lex scans the whole source. Calling it again rescans from the start and
// yields the same tokens.
func (l *Lexer) Lex() []Token {
	l.pos = 0
	l.line = 1
	l.column = 1

	var tokens []Token
	for l.pos < len(l.src) {
		c := l.src[l.pos]

		if c == '\n' || (c == '\r' && l.peek(1) == '\n') {
			l.skipNewline()
			continue
		}
		if isSpace(c) {
			l.advance()
			continue
		}

		start := l.position()
		switch {
		case isLetter(c):
			lit := l.readWhile(isAlphaNumeric)
			if kind, ok := keywords[lit]; ok {
				tokens = append(tokens, Token{Kind: kind, Pos: start})
			} else {
				tokens = append(tokens, Token{Kind: Identifier, Pos: start, Text: lit})
			}

		case isDigit(c):
			lit := l.readWhile(isDigit)
			tokens = append(tokens, Token{Kind: IntLit, Pos: start, Text: lit})

		case c == '#':
			if l.peek(1) == '*' {
				l.skipBlockComment()
			} else {
				l.skipLineComment()
			}

		default:
			if kind, ok := doubleSymbols[l.src[l.pos:min(l.pos+2, len(l.src))]]; ok {
				l.advance()
				l.advance()
				tokens = append(tokens, Token{Kind: kind, Pos: start})
			} else if kind, ok := symbols[c]; ok {
				l.advance()
				tokens = append(tokens, Token{Kind: kind, Pos: start})
			} else {
				l.advance()
				tokens = append(tokens, Token{Kind: Unexpected, Pos: start, Text: string(c)})
			}
		}
	}
	return tokens
}

// peek returns the byte offset bytes ahead of the cursor, or 0 past the end.
func (l *Lexer) peek(offset int) byte {
	if l.pos+offset >= len(l.src) {
		return 0
	}
	return l.src[l.pos+offset]
}

func (l *Lexer) advance() {
	l.pos++
	l.column++
}

func (l *Lexer) skipNewline() {
	if l.src[l.pos] == '\r' {
		l.pos++
	}
	l.pos++
	l.line++
	l.column = 1
}

func (l *Lexer) position() *Position {
	return &Position{File: l.file, Line: l.line, Column: l.column}
}

func (l *Lexer) readWhile(pred func(byte) bool) string {
	start := l.pos
	for l.pos < len(l.src) && pred(l.src[l.pos]) {
		l.advance()
	}
	return l.src[start:l.pos]
}

func (l *Lexer) skipLineComment() {
	for l.pos < len(l.src) && l.src[l.pos] != '\n' && !(l.src[l.pos] == '\r' && l.peek(1) == '\n') {
		l.advance()
	}
}

// skipBlockComment consumes a #* ... *# comment. An unterminated comment runs
// to the end of the input.
func (l *Lexer) skipBlockComment() {
	l.advance() // skip #
	l.advance() // skip *
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == '*' && l.peek(1) == '#' {
			l.advance()
			l.advance()
			return
		}
		if c == '\n' || (c == '\r' && l.peek(1) == '\n') {
			l.skipNewline()
		} else {
			l.advance()
		}
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\v' || c == '\f'
}

func isLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isAlphaNumeric(c byte) bool {
	return isLetter(c) || isDigit(c)
}
