package query

import (
	"fmt"
	"text/scanner"

	"github.com/graph-gophers/graphql-gateway/ast"
	"github.com/graph-gophers/graphql-gateway/errors"
	"github.com/graph-gophers/graphql-gateway/internal/common"
)

const (
	Query        ast.OperationType = "QUERY"
	Mutation     ast.OperationType = "MUTATION"
	Subscription ast.OperationType = "SUBSCRIPTION"
)

func Parse(queryString string) (*ast.ExecutableDefinition, *errors.QueryError) {
	l := common.NewLexer(queryString)

	var execDef *ast.ExecutableDefinition
	err := l.CatchSyntaxError(func() { execDef = parseExecutableDefinition(l) })
	if err != nil {
		return nil, err
	}

	if len(execDef.Operations) == 0 {
		return nil, errors.Malformed("no operations in query document").WithCode(errors.CodeParseFailed)
	}

	return execDef, nil
}

func parseExecutableDefinition(l *common.Lexer) *ast.ExecutableDefinition {
	ed := &ast.ExecutableDefinition{}
	l.ConsumeWhitespace()
	for l.Peek() != scanner.EOF {
		if l.Peek() == '{' {
			op := &ast.OperationDefinition{Type: Query, Loc: l.Location()}
			op.Selections = parseSelectionSet(l)
			ed.Operations = append(ed.Operations, op)
			continue
		}

		loc := l.Location()
		switch x := l.ConsumeIdent(); x {
		case "query":
			op := parseOperation(l, Query)
			op.Loc = loc
			ed.Operations = append(ed.Operations, op)

		case "mutation":
			op := parseOperation(l, Mutation)
			op.Loc = loc
			ed.Operations = append(ed.Operations, op)

		case "subscription":
			op := parseOperation(l, Subscription)
			op.Loc = loc
			ed.Operations = append(ed.Operations, op)

		case "fragment":
			l.SyntaxError("fragments are not supported")

		default:
			l.SyntaxError(fmt.Sprintf(`unexpected %q, expecting "query"`, x))
		}
	}
	return ed
}

func parseOperation(l *common.Lexer, opType ast.OperationType) *ast.OperationDefinition {
	op := &ast.OperationDefinition{Type: opType}
	op.Name.Loc = l.Location()
	if l.Peek() == scanner.Ident {
		op.Name = l.ConsumeIdentWithLoc()
	}
	if l.Peek() == '(' {
		l.ConsumeToken('(')
		for l.Peek() != ')' {
			loc := l.Location()
			l.ConsumeToken('$')
			v := common.ParseVariableDefinition(l)
			v.Loc = loc
			op.Vars = append(op.Vars, v)
		}
		l.ConsumeToken(')')
	}
	op.Directives = common.ParseDirectives(l)
	op.Selections = parseSelectionSet(l)
	return op
}

func parseSelectionSet(l *common.Lexer) []ast.Selection {
	var sels []ast.Selection
	l.ConsumeToken('{')
	if l.Peek() == '}' {
		l.SyntaxError("expected at least one selection")
	}
	for l.Peek() != '}' {
		sels = append(sels, parseSelection(l))
	}
	l.ConsumeToken('}')
	return sels
}

func parseSelection(l *common.Lexer) ast.Selection {
	if l.Peek() == '.' {
		l.SyntaxError("fragment spreads are not supported")
	}
	return parseFieldDef(l)
}

func parseFieldDef(l *common.Lexer) *ast.Field {
	f := &ast.Field{}
	f.Alias = l.ConsumeIdentWithLoc()
	f.Name = f.Alias
	if l.Peek() == ':' {
		l.ConsumeToken(':')
		f.Name = l.ConsumeIdentWithLoc()
	}
	if l.Peek() == '(' {
		f.Arguments = common.ParseArgumentList(l)
	}
	f.Directives = common.ParseDirectives(l)
	if l.Peek() == '{' {
		f.SelectionSetLoc = l.Location()
		f.SelectionSet = parseSelectionSet(l)
	}
	return f
}
