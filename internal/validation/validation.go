package validation

import (
	"strings"

	"github.com/graph-gophers/graphql-gateway/ast"
	"github.com/graph-gophers/graphql-gateway/errors"
	"github.com/graph-gophers/graphql-gateway/internal/query"
	"github.com/graph-gophers/graphql-gateway/schema"
)

// TypenameField is the meta field every object type answers.
const TypenameField = "__typename"

type varUse struct {
	name string
	loc  errors.Location
}

type context struct {
	registry *schema.Registry
	errs     []*errors.QueryError
	declared map[string]*ast.VariableDefinition
	used     []varUse
}

func (c *context) addErr(loc errors.Location, rule string, format string, a ...interface{}) {
	err := errors.Errorf(format, a...)
	err.Kind = errors.KindValidation
	err.Locations = []errors.Location{loc}
	err.Rule = rule
	c.errs = append(c.errs, err.WithCode(errors.CodeValidationFailed))
}

// Validate checks doc against the fields in registry.
func Validate(registry *schema.Registry, doc *ast.ExecutableDefinition) []*errors.QueryError {
	c := &context{registry: registry}

	validateOperationNames(c, doc.Operations)

	for _, op := range doc.Operations {
		c.used = nil

		switch op.Type {
		case query.Mutation:
			c.addErr(op.Loc, "KnownOperationTypes", "Schema is not configured for mutations.")
			continue
		case query.Subscription:
			c.addErr(op.Loc, "KnownOperationTypes", "Schema is not configured for subscriptions.")
			continue
		}

		c.declared = make(map[string]*ast.VariableDefinition, len(op.Vars))
		for _, v := range op.Vars {
			if _, ok := c.declared[v.Name.Name]; ok {
				c.addErr(v.Loc, "UniqueVariableNames", "There can be only one variable named %q.", "$"+v.Name.Name)
				continue
			}
			c.declared[v.Name.Name] = v
		}

		validateDirectives(c, op.Directives, "QUERY")
		validateSelectionSet(c, op.Selections)

		used := make(map[string]bool, len(c.used))
		for _, u := range c.used {
			used[u.name] = true
			if _, ok := c.declared[u.name]; !ok {
				c.addErr(u.loc, "NoUndefinedVariables", "Variable %q is not defined.", "$"+u.name)
			}
		}
		for _, v := range op.Vars {
			if !used[v.Name.Name] {
				c.addErr(v.Loc, "NoUnusedVariables", "Variable %q is never used.", "$"+v.Name.Name)
			}
		}
	}

	return c.errs
}

func validateOperationNames(c *context, ops ast.OperationList) {
	seen := make(map[string]bool, len(ops))
	for _, op := range ops {
		if op.Name.Name == "" {
			if len(ops) > 1 {
				c.addErr(op.Loc, "LoneAnonymousOperation", "This anonymous operation must be the only defined operation.")
			}
			continue
		}
		if seen[op.Name.Name] {
			c.addErr(op.Name.Loc, "UniqueOperationNames", "There can be only one operation named %q.", op.Name.Name)
		}
		seen[op.Name.Name] = true
	}
}

func validateSelectionSet(c *context, sels []ast.Selection) {
	byAlias := make(map[string]*ast.Field, len(sels))
	for _, sel := range sels {
		f, ok := sel.(*ast.Field)
		if !ok {
			continue
		}

		validateField(c, f)

		if prev, ok := byAlias[f.Alias.Name]; ok && prev.Name.Name != f.Name.Name {
			c.addErr(f.Alias.Loc, "OverlappingFieldsCanBeMerged",
				"Fields %q conflict because %s and %s are different fields.",
				f.Alias.Name, prev.Name.Name, f.Name.Name)
			continue
		}
		byAlias[f.Alias.Name] = f
	}
}

func validateField(c *context, f *ast.Field) {
	name := f.Name.Name
	typ := "String"
	if name == TypenameField {
		typ = "String!"
	} else if _, ok := c.registry.Lookup(name); !ok {
		c.errs = append(c.errs, errors.UnknownField(name, schema.QueryTypeName, f.Name.Loc))
		return
	}

	for _, arg := range f.Arguments {
		c.addErr(arg.Name.Loc, "KnownArgumentNames", "Unknown argument %q on field %q.", arg.Name.Name, schema.QueryTypeName+"."+name)
		markVars(c, arg.Value)
	}

	validateDirectives(c, f.Directives, "FIELD")

	if f.SelectionSet != nil {
		c.addErr(f.SelectionSetLoc, "ScalarLeafs", "Field %q must not have a selection since type %q has no subfields.", name, typ)
	}
}

func validateDirectives(c *context, directives ast.DirectiveList, location string) {
	seen := make(map[string]bool, len(directives))
	for _, d := range directives {
		name := d.Name.Name
		if seen[name] {
			c.addErr(d.Name.Loc, "UniqueDirectivesPerLocation", "The directive %q can only be used once at this location.", "@"+name)
			continue
		}
		seen[name] = true

		if name != "skip" && name != "include" {
			c.addErr(d.Name.Loc, "KnownDirectives", "Unknown directive %q.", "@"+name)
			for _, arg := range d.Arguments {
				markVars(c, arg.Value)
			}
			continue
		}
		if location != "FIELD" {
			c.addErr(d.Name.Loc, "KnownDirectives", "Directive %q may not be used on %s.", "@"+name, location)
			continue
		}

		for _, arg := range d.Arguments {
			markVars(c, arg.Value)
			if arg.Name.Name != "if" {
				c.addErr(arg.Name.Loc, "KnownArgumentNames", "Unknown argument %q on directive %q.", arg.Name.Name, "@"+name)
			}
		}
		v, ok := d.Arguments.Get("if")
		if !ok {
			c.addErr(d.Name.Loc, "ProvidedRequiredArguments", "Directive %q argument %q of type %q is required, but it was not provided.", "@"+name, "if", "Boolean!")
			continue
		}
		switch v := v.(type) {
		case *ast.Variable:
			if def, ok := c.declared[v.Name]; ok && !isBooleanType(def.Type) {
				c.addErr(v.Loc, "VariablesInAllowedPosition", "Variable %q of type %q used in position expecting type %q.", "$"+v.Name, def.Type, "Boolean!")
			}
		case *ast.BasicLit:
			if v.Text != "true" && v.Text != "false" {
				c.addErr(v.Loc, "ArgumentsOfCorrectType", "Argument %q has invalid value %s.\nExpected type %q, found %s.", "if", v.Text, "Boolean", v.Text)
			}
		default:
			c.addErr(v.Location(), "ArgumentsOfCorrectType", "Argument %q has invalid value %s.\nExpected type %q, found %s.", "if", v, "Boolean", v)
		}
	}
}

func markVars(c *context, v ast.Value) {
	switch v := v.(type) {
	case *ast.Variable:
		c.used = append(c.used, varUse{name: v.Name, loc: v.Loc})
	case *ast.ListValue:
		for _, entry := range v.Values {
			markVars(c, entry)
		}
	case *ast.ObjectValue:
		for _, f := range v.Fields {
			markVars(c, f.Value)
		}
	}
}

func isBooleanType(typ string) bool {
	return strings.TrimSuffix(typ, "!") == "Boolean"
}
