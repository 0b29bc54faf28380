package common

// ParseType consumes a type reference such as `Boolean`, `[String!]` or
// `Int!` and returns it in its source notation.
func ParseType(l *Lexer) string {
	t := parseNullType(l)
	if l.Peek() == '!' {
		l.ConsumeToken('!')
		return t + "!"
	}
	return t
}

func parseNullType(l *Lexer) string {
	if l.Peek() == '[' {
		l.ConsumeToken('[')
		ofType := ParseType(l)
		l.ConsumeToken(']')
		return "[" + ofType + "]"
	}

	return l.ConsumeIdent()
}
