package common

import (
	"fmt"
	"strings"
	"text/scanner"

	"github.com/graph-gophers/graphql-gateway/ast"
	"github.com/graph-gophers/graphql-gateway/errors"
)

type syntaxError string

type Lexer struct {
	sc   *scanner.Scanner
	next rune
}

func NewLexer(s string) *Lexer {
	sc := &scanner.Scanner{
		Mode: scanner.ScanIdents | scanner.ScanInts | scanner.ScanFloats | scanner.ScanStrings,
	}
	sc.Init(strings.NewReader(s))
	sc.Error = func(*scanner.Scanner, string) {}

	return &Lexer{sc: sc}
}

// CatchSyntaxError runs f and converts a syntax error raised by the lexer
// into a query error located at the current token.
func (l *Lexer) CatchSyntaxError(f func()) (errRes *errors.QueryError) {
	defer func() {
		if err := recover(); err != nil {
			if err, ok := err.(syntaxError); ok {
				errRes = errors.Errorf("syntax error: %s", err)
				errRes.Kind = errors.KindMalformedRequest
				errRes.Locations = []errors.Location{l.Location()}
				errRes.WithCode(errors.CodeParseFailed)
				return
			}
			panic(err)
		}
	}()

	f()
	return
}

func (l *Lexer) Peek() rune {
	return l.next
}

// ConsumeWhitespace consumes whitespace and tokens equivalent to whitespace (commas and comments).
func (l *Lexer) ConsumeWhitespace() {
	for {
		l.next = l.sc.Scan()

		if l.next == ',' {
			// Commas are insignificant in GraphQL documents.
			//
			// http://facebook.github.io/graphql/draft/#sec-Insignificant-Commas
			continue
		}

		if l.next == '#' {
			l.consumeComment()
			continue
		}

		break
	}
}

func (l *Lexer) ConsumeIdent() string {
	name := l.sc.TokenText()
	l.ConsumeToken(scanner.Ident)
	return name
}

func (l *Lexer) ConsumeIdentWithLoc() ast.Ident {
	loc := l.Location()
	name := l.sc.TokenText()
	l.ConsumeToken(scanner.Ident)
	return ast.Ident{Name: name, Loc: loc}
}

func (l *Lexer) ConsumeLiteral() *ast.BasicLit {
	lit := &ast.BasicLit{Type: l.next, Text: l.sc.TokenText(), Loc: l.Location()}
	l.ConsumeWhitespace()
	return lit
}

func (l *Lexer) ConsumeToken(expected rune) {
	if l.next != expected {
		l.SyntaxError(fmt.Sprintf("unexpected %q, expecting %s", l.tokenText(), scanner.TokenString(expected)))
	}
	l.ConsumeWhitespace()
}

func (l *Lexer) SyntaxError(message string) {
	panic(syntaxError(message))
}

func (l *Lexer) Location() errors.Location {
	return errors.Location{
		Line:   l.sc.Line,
		Column: l.sc.Column,
	}
}

func (l *Lexer) tokenText() string {
	if l.next == scanner.EOF {
		return "<EOF>"
	}
	return l.sc.TokenText()
}

// consumeComment consumes all characters from `#` to the first encountered line terminator.
func (l *Lexer) consumeComment() {
	if l.next != '#' {
		panic("consumeComment used in wrong context")
	}

	for {
		next := l.sc.Next()
		if next == '\r' || next == '\n' || next == scanner.EOF {
			break
		}
	}
}
