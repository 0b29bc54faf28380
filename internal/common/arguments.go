package common

import (
	"text/scanner"

	"github.com/graph-gophers/graphql-gateway/ast"
)

// ParseArgumentList parses `(name: value, ...)`. Values may reference
// variables.
func ParseArgumentList(l *Lexer) ast.ArgumentList {
	l.ConsumeToken('(')
	var args ast.ArgumentList
	for l.Peek() != ')' {
		if l.Peek() == scanner.EOF {
			l.SyntaxError("unterminated argument list")
		}
		arg := &ast.Argument{Name: l.ConsumeIdentWithLoc()}
		l.ConsumeToken(':')
		arg.Value = ParseLiteral(l, false)
		args = append(args, arg)
	}
	l.ConsumeToken(')')
	return args
}

// ParseDirectives parses any number of `@name(args)` annotations. Only
// @skip and @include are executed; every other name is left for validation
// to reject with its location.
func ParseDirectives(l *Lexer) ast.DirectiveList {
	var list ast.DirectiveList
	for l.Peek() == '@' {
		at := l.Location()
		l.ConsumeToken('@')
		name := l.ConsumeIdentWithLoc()
		// The directive is located at its '@'.
		name.Loc = at
		d := &ast.Directive{Name: name}
		if l.Peek() == '(' {
			d.Arguments = ParseArgumentList(l)
		}
		list = append(list, d)
	}
	return list
}

// ParseVariableDefinition parses `$name: Type = default` after the `$` has
// been consumed.
func ParseVariableDefinition(l *Lexer) *ast.VariableDefinition {
	v := &ast.VariableDefinition{Name: l.ConsumeIdentWithLoc()}
	l.ConsumeToken(':')
	v.Type = ParseType(l)
	if l.Peek() == '=' {
		l.ConsumeToken('=')
		v.Default = ParseLiteral(l, true)
	}
	return v
}
