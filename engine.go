// Package graphql executes GraphQL queries against a registry of root fields.
package graphql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/graph-gophers/graphql-gateway/ast"
	"github.com/graph-gophers/graphql-gateway/errors"
	"github.com/graph-gophers/graphql-gateway/internal/exec"
	"github.com/graph-gophers/graphql-gateway/internal/query"
	"github.com/graph-gophers/graphql-gateway/internal/validation"
	"github.com/graph-gophers/graphql-gateway/log"
	"github.com/graph-gophers/graphql-gateway/schema"
	"github.com/graph-gophers/graphql-gateway/trace/noop"
	"github.com/graph-gophers/graphql-gateway/trace/tracer"
)

// DefaultMaxParallelism bounds how many field resolvers of one request run at once.
const DefaultMaxParallelism = 10

// Engine executes queries against a frozen schema.Registry. It is safe for
// concurrent use.
type Engine struct {
	registry         *schema.Registry
	maxParallelism   int
	tracer           tracer.Tracer
	validationTracer tracer.ValidationTracer
	logger           log.Logger
	middleware       []Middleware
	exec             Exec
}

// Request is the body of a GraphQL request.
type Request struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

// Response represents a typical response of a GraphQL server. It may be encoded to JSON directly or
// it may be further processed to a custom response type, for example to include custom error data.
// Errors are intentionally serialized first based on the advice in
// https://github.com/facebook/graphql/commit/7b40390d48680b15cb93e02d46ac5eb249689876#diff-757cea6edf0288677a9eea4cfc801d87R107
type Response struct {
	Errors     []*errors.QueryError   `json:"errors,omitempty"`
	Data       json.RawMessage        `json:"data,omitempty"`
	Extensions map[string]interface{} `json:"extensions,omitempty"`
}

// EngineOpt is an option for NewEngine.
type EngineOpt func(*Engine)

// MaxParallelism specifies the maximum number of resolvers per request allowed to run in parallel.
// The default is 10.
func MaxParallelism(n int) EngineOpt {
	return func(e *Engine) {
		e.maxParallelism = n
	}
}

// Tracer is used to trace queries and fields. It defaults to noop.Tracer. If
// t also implements tracer.ValidationTracer it traces validation as well.
func Tracer(t tracer.Tracer) EngineOpt {
	return func(e *Engine) {
		e.tracer = t
		if vt, ok := t.(tracer.ValidationTracer); ok {
			e.validationTracer = vt
		}
	}
}

// Logger is used to log panics during query execution. It defaults to a
// log.ZapLogger writing to the global zap logger.
func Logger(logger log.Logger) EngineOpt {
	return func(e *Engine) {
		e.logger = logger
	}
}

// UseMiddleware wraps query execution. The first middleware is the outermost.
func UseMiddleware(mw ...Middleware) EngineOpt {
	return func(e *Engine) {
		e.middleware = append(e.middleware, mw...)
	}
}

// NewEngine builds an engine over registry and freezes the registry. It
// returns a StartupError when the registry cannot be served.
func NewEngine(registry *schema.Registry, opts ...EngineOpt) (*Engine, error) {
	if registry == nil {
		return nil, errors.Startup("build engine", fmt.Errorf("nil schema registry"))
	}
	if registry.Len() == 0 {
		return nil, errors.Startup("build engine", fmt.Errorf("type %q must define one or more fields", schema.QueryTypeName))
	}

	e := &Engine{
		registry:         registry,
		maxParallelism:   DefaultMaxParallelism,
		tracer:           noop.Tracer{},
		validationTracer: noop.Tracer{},
		logger:           &log.ZapLogger{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.maxParallelism < 1 {
		return nil, errors.Startup("build engine", fmt.Errorf("max parallelism must be positive, got %d", e.maxParallelism))
	}

	registry.Freeze()

	e.exec = e.execute
	for i := len(e.middleware) - 1; i >= 0; i-- {
		e.exec = e.middleware[i](e.exec)
	}
	return e, nil
}

// MustNewEngine calls NewEngine and panics on error.
func MustNewEngine(registry *schema.Registry, opts ...EngineOpt) *Engine {
	e, err := NewEngine(registry, opts...)
	if err != nil {
		panic(err)
	}
	return e
}

// Registry returns the registry the engine serves.
func (e *Engine) Registry() *schema.Registry {
	return e.registry
}

// Exec executes the given query. An empty operationName selects the only
// operation of the document.
func (e *Engine) Exec(ctx context.Context, queryString string, operationName string, variables map[string]interface{}) *Response {
	return e.Execute(ctx, &Request{Query: queryString, OperationName: operationName, Variables: variables})
}

// Execute runs req through the middleware chain and executes it.
func (e *Engine) Execute(ctx context.Context, req *Request) *Response {
	return e.exec(ctx, req)
}

func (e *Engine) execute(ctx context.Context, req *Request) *Response {
	doc, qErr := query.Parse(req.Query)
	if qErr != nil {
		return &Response{Errors: []*errors.QueryError{qErr}}
	}

	validationFinish := e.validationTracer.TraceValidation(ctx)
	errs := validation.Validate(e.registry, doc)
	validationFinish(errs)
	if len(errs) != 0 {
		return &Response{Errors: errs}
	}

	op, err := getOperation(doc, req.OperationName)
	if err != nil {
		return &Response{Errors: []*errors.QueryError{err}}
	}

	vars, err := coerceVariables(op, req.Variables)
	if err != nil {
		return &Response{Errors: []*errors.QueryError{err}}
	}

	traceCtx, finish := e.tracer.TraceQuery(ctx, req.Query, req.OperationName, req.Variables)
	r := &exec.Request{
		Registry: e.registry,
		Vars:     vars,
		Limiter:  make(chan struct{}, e.maxParallelism),
		Tracer:   e.tracer,
		Logger:   e.logger,
	}
	data, errs := r.Execute(traceCtx, op)
	finish(errs)

	return &Response{
		Data:   data,
		Errors: errs,
	}
}

func getOperation(doc *ast.ExecutableDefinition, operationName string) (*ast.OperationDefinition, *errors.QueryError) {
	if operationName == "" {
		if len(doc.Operations) > 1 {
			return nil, errors.Malformed("more than one operation in query document and no operation name given")
		}
		return doc.Operations[0], nil
	}

	op := doc.Operations.Get(operationName)
	if op == nil {
		return nil, errors.Malformed("no operation with name %q", operationName)
	}
	return op, nil
}

// coerceVariables merges the supplied variables with the defaults declared by
// op and rejects values that are not booleans, the only input type used by
// the schema.
func coerceVariables(op *ast.OperationDefinition, supplied map[string]interface{}) (map[string]interface{}, *errors.QueryError) {
	vars := make(map[string]interface{}, len(op.Vars))
	for _, v := range op.Vars {
		value, ok := supplied[v.Name.Name]
		if !ok && v.Default != nil {
			value, ok = v.Default.Deserialize(nil), true
		}
		if !ok || value == nil {
			if len(v.Type) > 0 && v.Type[len(v.Type)-1] == '!' {
				err := errors.Malformed("Variable %q of required type %q was not provided.", "$"+v.Name.Name, v.Type)
				err.Locations = []errors.Location{v.Loc}
				return nil, err
			}
			continue
		}
		if _, isBool := value.(bool); !isBool {
			err := errors.Malformed("Variable %q got invalid value %v; Boolean cannot represent a non boolean value.", "$"+v.Name.Name, value)
			err.Locations = []errors.Location{v.Loc}
			return nil, err
		}
		vars[v.Name.Name] = value
	}
	return vars, nil
}
