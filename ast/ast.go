package ast

import (
	"strconv"
	"strings"
	"text/scanner"

	"github.com/graph-gophers/graphql-gateway/errors"
)

type Ident struct {
	Name string
	Loc  errors.Location
}

type OperationType string

// ExecutableDefinition is a parsed query document.
type ExecutableDefinition struct {
	Operations OperationList
}

type OperationDefinition struct {
	Type       OperationType
	Name       Ident
	Vars       []*VariableDefinition
	Selections []Selection
	Directives DirectiveList
	Loc        errors.Location
}

type OperationList []*OperationDefinition

// Get returns the operation with the given name, or nil.
func (l OperationList) Get(name string) *OperationDefinition {
	for _, f := range l {
		if f.Name.Name == name {
			return f
		}
	}
	return nil
}

type VariableDefinition struct {
	Name    Ident
	Type    string
	Default Value
	Loc     errors.Location
}

// Selection is a Field, the only selection kind the gateway executes.
type Selection interface {
	isSelection()
}

type Field struct {
	Alias        Ident
	Name         Ident
	Arguments    ArgumentList
	Directives   DirectiveList
	SelectionSet []Selection
	// SelectionSetLoc is the location of the opening brace of a nested
	// selection set, if any.
	SelectionSetLoc errors.Location
}

func (*Field) isSelection() {}

type Argument struct {
	Name  Ident
	Value Value
}

type ArgumentList []*Argument

func (l ArgumentList) Get(name string) (Value, bool) {
	for _, arg := range l {
		if arg.Name.Name == name {
			return arg.Value, true
		}
	}
	return nil, false
}

type Directive struct {
	Name      Ident
	Arguments ArgumentList
}

type DirectiveList []*Directive

func (l DirectiveList) Get(name string) *Directive {
	for _, d := range l {
		if d.Name.Name == name {
			return d
		}
	}
	return nil
}

// Value is an input value literal, possibly referencing variables.
type Value interface {
	// Deserialize converts the literal into its Go representation, looking up
	// variables in vars.
	Deserialize(vars map[string]interface{}) interface{}
	// String returns the literal as it would appear in a query document.
	String() string
	Location() errors.Location
}

type Variable struct {
	Name string
	Loc  errors.Location
}

func (v *Variable) Deserialize(vars map[string]interface{}) interface{} {
	return vars[v.Name]
}

func (v *Variable) String() string {
	return "$" + v.Name
}

func (v *Variable) Location() errors.Location {
	return v.Loc
}

type BasicLit struct {
	Type rune
	Text string
	Loc  errors.Location
}

func (lit *BasicLit) Deserialize(vars map[string]interface{}) interface{} {
	switch lit.Type {
	case scanner.Int:
		value, err := strconv.ParseInt(lit.Text, 10, 32)
		if err != nil {
			return lit.Text
		}
		return int32(value)

	case scanner.Float:
		value, err := strconv.ParseFloat(lit.Text, 64)
		if err != nil {
			return lit.Text
		}
		return value

	case scanner.String:
		value, err := strconv.Unquote(lit.Text)
		if err != nil {
			return lit.Text
		}
		return value

	case scanner.Ident:
		switch lit.Text {
		case "true":
			return true
		case "false":
			return false
		default:
			return lit.Text
		}

	default:
		panic("invalid literal")
	}
}

func (lit *BasicLit) String() string {
	return lit.Text
}

func (lit *BasicLit) Location() errors.Location {
	return lit.Loc
}

type ListValue struct {
	Values []Value
	Loc    errors.Location
}

func (lit *ListValue) Deserialize(vars map[string]interface{}) interface{} {
	entries := make([]interface{}, len(lit.Values))
	for i, entry := range lit.Values {
		entries[i] = entry.Deserialize(vars)
	}
	return entries
}

func (lit *ListValue) String() string {
	entries := make([]string, len(lit.Values))
	for i, entry := range lit.Values {
		entries[i] = entry.String()
	}
	return "[" + strings.Join(entries, ", ") + "]"
}

func (lit *ListValue) Location() errors.Location {
	return lit.Loc
}

type ObjectField struct {
	Name  Ident
	Value Value
}

type ObjectValue struct {
	Fields []*ObjectField
	Loc    errors.Location
}

func (lit *ObjectValue) Deserialize(vars map[string]interface{}) interface{} {
	fields := make(map[string]interface{}, len(lit.Fields))
	for _, f := range lit.Fields {
		fields[f.Name.Name] = f.Value.Deserialize(vars)
	}
	return fields
}

func (lit *ObjectValue) String() string {
	entries := make([]string, 0, len(lit.Fields))
	for _, f := range lit.Fields {
		entries = append(entries, f.Name.Name+": "+f.Value.String())
	}
	return "{" + strings.Join(entries, ", ") + "}"
}

func (lit *ObjectValue) Location() errors.Location {
	return lit.Loc
}

type NullValue struct {
	Loc errors.Location
}

func (lit *NullValue) Deserialize(vars map[string]interface{}) interface{} {
	return nil
}

func (lit *NullValue) String() string {
	return "null"
}

func (lit *NullValue) Location() errors.Location {
	return lit.Loc
}
