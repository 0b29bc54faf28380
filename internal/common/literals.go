package common

import (
	"text/scanner"

	"github.com/graph-gophers/graphql-gateway/ast"
)

// ParseLiteral parses an input value. With constOnly set, as in variable
// defaults, a `$variable` reference is a syntax error.
func ParseLiteral(l *Lexer, constOnly bool) ast.Value {
	switch l.Peek() {
	case '$':
		return parseVariable(l, constOnly)
	case '-':
		return parseNegative(l)
	case '[':
		return parseList(l, constOnly)
	case '{':
		return parseObject(l, constOnly)
	case scanner.Int, scanner.Float, scanner.String, scanner.Ident:
		loc := l.Location()
		lit := l.ConsumeLiteral()
		if lit.Type == scanner.Ident && lit.Text == "null" {
			return &ast.NullValue{Loc: loc}
		}
		return lit
	}
	l.SyntaxError("invalid value")
	return nil
}

func parseVariable(l *Lexer, constOnly bool) ast.Value {
	if constOnly {
		l.SyntaxError("variable not allowed")
	}
	loc := l.Location()
	l.ConsumeToken('$')
	return &ast.Variable{Name: l.ConsumeIdent(), Loc: loc}
}

func parseNegative(l *Lexer) ast.Value {
	loc := l.Location()
	l.ConsumeToken('-')
	lit := l.ConsumeLiteral()
	if lit.Type != scanner.Int && lit.Type != scanner.Float {
		l.SyntaxError("invalid value")
	}
	lit.Text = "-" + lit.Text
	lit.Loc = loc
	return lit
}

func parseList(l *Lexer, constOnly bool) ast.Value {
	list := &ast.ListValue{Loc: l.Location()}
	l.ConsumeToken('[')
	for l.Peek() != ']' {
		if l.Peek() == scanner.EOF {
			l.SyntaxError("unterminated list value")
		}
		list.Values = append(list.Values, ParseLiteral(l, constOnly))
	}
	l.ConsumeToken(']')
	return list
}

func parseObject(l *Lexer, constOnly bool) ast.Value {
	obj := &ast.ObjectValue{Loc: l.Location()}
	l.ConsumeToken('{')
	for l.Peek() != '}' {
		field := &ast.ObjectField{Name: l.ConsumeIdentWithLoc()}
		l.ConsumeToken(':')
		field.Value = ParseLiteral(l, constOnly)
		obj.Fields = append(obj.Fields, field)
	}
	l.ConsumeToken('}')
	return obj
}
