package exec

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"

	"github.com/graph-gophers/graphql-gateway/ast"
	"github.com/graph-gophers/graphql-gateway/errors"
	"github.com/graph-gophers/graphql-gateway/internal/validation"
	"github.com/graph-gophers/graphql-gateway/log"
	"github.com/graph-gophers/graphql-gateway/schema"
	"github.com/graph-gophers/graphql-gateway/trace/tracer"
)

type Request struct {
	Registry *schema.Registry
	Vars     map[string]interface{}
	Limiter  chan struct{}
	Tracer   tracer.Tracer
	Logger   log.Logger

	mu   sync.Mutex
	Errs []*errors.QueryError
}

func (r *Request) AddError(err *errors.QueryError) {
	r.mu.Lock()
	r.Errs = append(r.Errs, err)
	r.mu.Unlock()
}

func (r *Request) handlePanic(ctx context.Context) {
	if value := recover(); value != nil {
		r.Logger.LogPanic(ctx, value)
		r.AddError(makePanicError(value))
	}
}

type extensionser interface {
	Extensions() map[string]interface{}
}

func makePanicError(value interface{}) *errors.QueryError {
	err := errors.Errorf("panic occurred: %v", value)
	err.Kind = errors.KindPanic
	return err.WithCode(errors.CodeInternal)
}

// execNode is one root field to resolve. Nodes are resolved concurrently and
// written in selection order.
type execNode struct {
	alias string
	field *schema.Field // nil for __typename
	value string
	err   *errors.QueryError
}

// Execute resolves the selections of op and returns the serialized data object.
func (r *Request) Execute(ctx context.Context, op *ast.OperationDefinition) ([]byte, []*errors.QueryError) {
	out := getBuffer()
	defer putBuffer(out)

	func() {
		defer r.handlePanic(ctx)

		nodes, err := r.collectNodes(op.Selections)
		if err != nil {
			r.AddError(err)
			return
		}
		r.process(ctx, nodes)
		writeObject(out, nodes)
	}()

	if err := ctx.Err(); err != nil {
		return nil, []*errors.QueryError{errors.Errorf("%s", err)}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Errs != nil && out.Len() == 0 {
		return nil, r.Errs
	}
	return copyBuffer(out), r.Errs
}

// collectNodes applies @skip and @include and merges repeated selections of
// the same field under the same response key.
func (r *Request) collectNodes(sels []ast.Selection) ([]*execNode, *errors.QueryError) {
	nodes := make([]*execNode, 0, len(sels))
	seen := make(map[string]bool, len(sels))

	for _, sel := range sels {
		f := sel.(*ast.Field)
		skip, err := r.skipByDirective(f.Directives)
		if err != nil {
			return nil, err
		}
		if skip {
			continue
		}
		if _, ok := seen[f.Alias.Name]; ok {
			continue
		}

		n := &execNode{alias: f.Alias.Name}
		if f.Name.Name == validation.TypenameField {
			n.value = schema.QueryTypeName
		} else {
			field, ok := r.Registry.Lookup(f.Name.Name)
			if !ok {
				return nil, errors.UnknownField(f.Name.Name, schema.QueryTypeName, f.Name.Loc)
			}
			n.field = field
		}
		seen[f.Alias.Name] = true
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func (r *Request) skipByDirective(directives ast.DirectiveList) (bool, *errors.QueryError) {
	if d := directives.Get("skip"); d != nil {
		v, err := r.directiveCondition(d)
		if err != nil {
			return false, err
		}
		if v {
			return true, nil
		}
	}

	if d := directives.Get("include"); d != nil {
		v, err := r.directiveCondition(d)
		if err != nil {
			return false, err
		}
		if !v {
			return true, nil
		}
	}

	return false, nil
}

func (r *Request) directiveCondition(d *ast.Directive) (bool, *errors.QueryError) {
	arg, _ := d.Arguments.Get("if")
	v, ok := arg.Deserialize(r.Vars).(bool)
	if !ok {
		err := errors.Malformed("Argument \"if\" of directive %q must be a Boolean, got %v.", "@"+d.Name.Name, arg.Deserialize(r.Vars))
		err.Locations = []errors.Location{arg.Location()}
		return false, err
	}
	return v, nil
}

func (r *Request) process(ctx context.Context, nodes []*execNode) {
	var wg sync.WaitGroup
	for _, n := range nodes {
		if n.field == nil {
			continue
		}
		wg.Add(1)
		go func(n *execNode) {
			defer wg.Done()
			r.resolveNode(ctx, n)
		}(n)
	}
	wg.Wait()

	for _, n := range nodes {
		if n.err != nil {
			r.AddError(n.err)
		}
	}
}

func (r *Request) resolveNode(ctx context.Context, n *execNode) {
	r.Limiter <- struct{}{}
	defer func() {
		<-r.Limiter
	}()

	n.value, n.err = func() (result string, err *errors.QueryError) {
		label := schema.QueryTypeName + "." + n.field.Name
		traceCtx, finish := r.Tracer.TraceField(ctx, label, schema.QueryTypeName, n.field.Name, false)
		defer func() {
			finish(err)
		}()

		defer func() {
			if panicValue := recover(); panicValue != nil {
				r.Logger.LogPanic(ctx, panicValue)
				err = makePanicError(panicValue)
				err.Path = []interface{}{n.alias}
			}
		}()

		if err := traceCtx.Err(); err != nil {
			return "", errors.Errorf("%s", err) // don't execute any more resolvers if context got cancelled
		}

		value, resolverErr := n.field.Resolve(traceCtx)
		if resolverErr != nil {
			err := errors.Errorf("%s", resolverErr)
			err.Kind = errors.KindResolver
			err.ResolverError = resolverErr
			err.Path = []interface{}{n.alias}
			if ex, ok := resolverErr.(extensionser); ok {
				err.Extensions = ex.Extensions()
			}
			return "", err
		}
		return value, nil
	}()
}

func writeObject(out *bytes.Buffer, nodes []*execNode) {
	out.WriteByte('{')
	for i, n := range nodes {
		if i > 0 {
			out.WriteByte(',')
		}
		writeString(out, n.alias)
		out.WriteByte(':')
		if n.err != nil {
			out.WriteString("null")
			continue
		}
		writeString(out, n.value)
	}
	out.WriteByte('}')
}

func writeString(out *bytes.Buffer, s string) {
	b, err := json.Marshal(s)
	if err != nil {
		panic(err)
	}
	out.Write(b)
}
