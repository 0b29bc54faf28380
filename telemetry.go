package graphql

import (
	"github.com/graph-gophers/graphql-gateway/ast"
	"github.com/graph-gophers/graphql-gateway/errors"
	"github.com/graph-gophers/graphql-gateway/internal/query"
	"github.com/graph-gophers/graphql-gateway/internal/validation"
)

// LoggedOperation represents a summary of an operation suitable for concise
// telemetry, for example in a web server context.
type LoggedOperation struct {
	Name      string            `json:",omitempty"`
	Type      ast.OperationType
	Variables map[string]string `json:",omitempty"`
	Fields    []LoggedField     `json:",omitempty"`
}

// LoggedField represents a summary of a field.
type LoggedField struct {
	Name      string
	Alias     string            `json:",omitempty"`
	Arguments map[string]string `json:",omitempty"`
}

func logField(field *ast.Field) LoggedField {
	var loggedArgs map[string]string
	if len(field.Arguments) > 0 {
		loggedArgs = make(map[string]string, len(field.Arguments))
		for _, arg := range field.Arguments {
			loggedArgs[arg.Name.Name] = arg.Value.String()
		}
	}
	lf := LoggedField{
		Name:      field.Name.Name,
		Arguments: loggedArgs,
	}
	if field.Alias.Name != field.Name.Name {
		lf.Alias = field.Alias.Name
	}
	return lf
}

func logOperations(doc *ast.ExecutableDefinition) []LoggedOperation {
	lops := make([]LoggedOperation, len(doc.Operations))
	for i, op := range doc.Operations {
		var vars map[string]string
		if len(op.Vars) > 0 {
			vars = make(map[string]string, len(op.Vars))
			for _, v := range op.Vars {
				vars[v.Name.Name] = v.Type
			}
		}

		fields := make([]LoggedField, 0, len(op.Selections))
		for _, sel := range op.Selections {
			if field, ok := sel.(*ast.Field); ok {
				fields = append(fields, logField(field))
			}
		}

		lops[i] = LoggedOperation{
			Name:      op.Name.Name,
			Type:      op.Type,
			Variables: vars,
			Fields:    fields,
		}
	}
	return lops
}

// Summarize parses queryString and produces a loggable summary of the
// operations it contains. It does not validate the document.
func Summarize(queryString string) ([]LoggedOperation, *errors.QueryError) {
	doc, qErr := query.Parse(queryString)
	if qErr != nil {
		return nil, qErr
	}
	return logOperations(doc), nil
}

// ValidateAndLog validates the query and simultaneously produces a loggable
// summary of the operations it contains.
func (e *Engine) ValidateAndLog(queryString string) ([]*errors.QueryError, []LoggedOperation) {
	doc, qErr := query.Parse(queryString)
	if qErr != nil {
		return []*errors.QueryError{qErr}, nil
	}

	errs := validation.Validate(e.registry, doc)
	if len(errs) != 0 {
		return errs, []LoggedOperation{}
	}
	return nil, logOperations(doc)
}
