package emerald

// Names of the statement rules used to tell declarations from assignments
// before committing to a parse path.
const (
	RuleVariableAssign   = "variable_assign"
	RuleVariableReassign = "variable_reassign"
)

var grammarRules = map[string][]TokenKind{
	RuleVariableAssign:   {Let, Identifier, Equals},
	RuleVariableReassign: {Identifier, Equals},
}

// binaryPrecedence returns the precedence level of a binary operator token.
// Higher levels bind tighter.
func binaryPrecedence(kind TokenKind) (int, bool) {
	switch kind {
	case EqualEqual, BangEqual:
		return 0, true
	case LessThan, GreaterThan, LessEqual, GreaterEqual:
		return 1, true
	case Plus, Minus:
		return 2, true
	case Asterisk, ForwardSlash:
		return 3, true
	default:
		return 0, false
	}
}
