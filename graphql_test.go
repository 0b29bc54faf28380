package graphql_test

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	graphql "github.com/graph-gophers/graphql-gateway"
	"github.com/graph-gophers/graphql-gateway/errors"
	"github.com/graph-gophers/graphql-gateway/example/hello"
	"github.com/graph-gophers/graphql-gateway/gqltesting"
	"github.com/graph-gophers/graphql-gateway/log"
	"github.com/graph-gophers/graphql-gateway/schema"
)

var errBackend = stderrors.New("backend unavailable")

func testRegistry() *schema.Registry {
	return schema.MustNew(
		schema.Field{Name: "hello", Resolve: schema.Static(hello.Greeting)},
		schema.Field{Name: "bye", Resolve: schema.Static("Goodbye!")},
		schema.Field{Name: "quote", Resolve: schema.Static(`say "hi"`)},
		schema.Field{Name: "flaky", Resolve: func(context.Context) (string, error) {
			return "", errBackend
		}},
	)
}

func TestHello(t *testing.T) {
	gqltesting.RunTests(t, []*gqltesting.Test{
		{
			Engine: graphql.MustNewEngine(hello.Registry()),
			Query: `
				{
					hello
				}
			`,
			ExpectedResult: `{"hello":"Hello world!"}`,
		},
		{
			Engine:         graphql.MustNewEngine(hello.Registry()),
			Query:          `query Greeting { hello }`,
			ExpectedResult: `{"hello":"Hello world!"}`,
		},
	})
}

func TestExecOutputIsExact(t *testing.T) {
	e := graphql.MustNewEngine(hello.Registry())
	resp := e.Exec(context.Background(), "{ hello }", "", nil)

	out, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Equal(t, `{"data":{"hello":"Hello world!"}}`, string(out))
}

func TestSelections(t *testing.T) {
	e := graphql.MustNewEngine(testRegistry())
	gqltesting.RunTests(t, []*gqltesting.Test{
		{
			Engine:         e,
			Query:          `{ bye hello }`,
			ExpectedResult: `{"bye":"Goodbye!","hello":"Hello world!"}`,
		},
		{
			Engine:         e,
			Query:          `{ greeting: hello, farewell: bye }`,
			ExpectedResult: `{"greeting":"Hello world!","farewell":"Goodbye!"}`,
		},
		{
			Engine:         e,
			Query:          `{ __typename hello hello }`,
			ExpectedResult: `{"__typename":"Query","hello":"Hello world!"}`,
		},
		{
			Engine:         e,
			Query:          `{ quote }`,
			ExpectedResult: `{"quote":"say \"hi\""}`,
		},
	})
}

func TestSelectionOrder(t *testing.T) {
	e := graphql.MustNewEngine(testRegistry())
	resp := e.Exec(context.Background(), "{ quote bye hello __typename }", "", nil)
	require.Empty(t, resp.Errors)
	assert.Equal(t, `{"quote":"say \"hi\"","bye":"Goodbye!","hello":"Hello world!","__typename":"Query"}`, string(resp.Data))
}

func TestDirectives(t *testing.T) {
	e := graphql.MustNewEngine(testRegistry())
	gqltesting.RunTests(t, []*gqltesting.Test{
		{
			Engine:         e,
			Query:          `{ hello @skip(if: true) bye @include(if: true) }`,
			ExpectedResult: `{"bye":"Goodbye!"}`,
		},
		{
			Engine:         e,
			Query:          `query($on: Boolean!) { hello @include(if: $on) bye }`,
			Variables:      map[string]interface{}{"on": false},
			ExpectedResult: `{"bye":"Goodbye!"}`,
		},
		{
			Engine:         e,
			Query:          `query($on: Boolean = true) { hello @include(if: $on) }`,
			ExpectedResult: `{"hello":"Hello world!"}`,
		},
		{
			Engine:    e,
			Query:     `query($on: Boolean!) { hello @include(if: $on) }`,
			Variables: map[string]interface{}{},
			ExpectedErrors: []*errors.QueryError{
				withLoc(errors.Malformed(`Variable "$on" of required type "Boolean!" was not provided.`), 1, 7),
			},
		},
		{
			Engine:    e,
			Query:     `query($on: Boolean!) { hello @include(if: $on) }`,
			Variables: map[string]interface{}{"on": "yes"},
			ExpectedErrors: []*errors.QueryError{
				withLoc(errors.Malformed(`Variable "$on" got invalid value yes; Boolean cannot represent a non boolean value.`), 1, 7),
			},
		},
	})
}

func withLoc(err *errors.QueryError, line, column int) *errors.QueryError {
	err.Locations = []errors.Location{{Line: line, Column: column}}
	return err
}

func TestUnknownField(t *testing.T) {
	e := graphql.MustNewEngine(hello.Registry())
	gqltesting.RunTest(t, &gqltesting.Test{
		Engine: e,
		Query:  `{ nope }`,
		ExpectedErrors: []*errors.QueryError{
			errors.UnknownField("nope", "Query", errors.Location{Line: 1, Column: 3}),
		},
	})

	resp := e.Exec(context.Background(), "{ hello nope }", "", nil)
	require.Len(t, resp.Errors, 1)
	assert.Nil(t, resp.Data, "no data is returned when validation fails")
	assert.Equal(t, errors.KindUnknownField, resp.Errors[0].Kind)

	resp = e.Exec(context.Background(), "{ hello }", "", nil)
	assert.Empty(t, resp.Errors)
	assert.JSONEq(t, `{"hello":"Hello world!"}`, string(resp.Data))
}

func TestSyntaxError(t *testing.T) {
	resp := graphql.MustNewEngine(hello.Registry()).Exec(context.Background(), "{ hello", "", nil)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, errors.KindMalformedRequest, resp.Errors[0].Kind)
	assert.Equal(t, errors.CodeParseFailed, resp.Errors[0].Extensions["code"])
	assert.Nil(t, resp.Data)
}

func TestResolverError(t *testing.T) {
	gqltesting.RunTest(t, &gqltesting.Test{
		Engine:         graphql.MustNewEngine(testRegistry()),
		Query:          `{ hello flaky }`,
		ExpectedResult: `{"hello":"Hello world!","flaky":null}`,
		ExpectedErrors: []*errors.QueryError{
			{Message: "backend unavailable", Path: []interface{}{"flaky"}},
		},
	})

	resp := graphql.MustNewEngine(testRegistry()).Exec(context.Background(), "{ flaky }", "", nil)
	require.Len(t, resp.Errors, 1)
	assert.True(t, stderrors.Is(resp.Errors[0], errBackend))
	assert.Equal(t, errors.KindResolver, resp.Errors[0].Kind)
}

type coded struct{ error }

func (coded) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": "UNAVAILABLE"}
}

func TestResolverErrorExtensions(t *testing.T) {
	r := schema.MustNew(schema.Field{Name: "down", Resolve: func(context.Context) (string, error) {
		return "", coded{errBackend}
	}})
	resp := graphql.MustNewEngine(r).Exec(context.Background(), "{ down }", "", nil)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "UNAVAILABLE", resp.Errors[0].Extensions["code"])
}

func TestPanicIsRecovered(t *testing.T) {
	var logged []interface{}
	var mu sync.Mutex
	logger := log.LoggerFunc(func(ctx context.Context, value interface{}) {
		mu.Lock()
		defer mu.Unlock()
		logged = append(logged, value)
	})

	r := schema.MustNew(
		schema.Field{Name: "hello", Resolve: schema.Static(hello.Greeting)},
		schema.Field{Name: "boom", Resolve: func(context.Context) (string, error) {
			panic("something went wrong")
		}},
	)
	e := graphql.MustNewEngine(r, graphql.Logger(logger))

	gqltesting.RunTest(t, &gqltesting.Test{
		Engine:         e,
		Query:          `{ hello boom }`,
		ExpectedResult: `{"hello":"Hello world!","boom":null}`,
		ExpectedErrors: []*errors.QueryError{
			(&errors.QueryError{Message: "panic occurred: something went wrong", Path: []interface{}{"boom"}}).WithCode(errors.CodeInternal),
		},
	})
	assert.Equal(t, []interface{}{"something went wrong"}, logged)

	resp := e.Exec(context.Background(), "{ hello }", "", nil)
	assert.Empty(t, resp.Errors, "engine keeps serving after a panic")
}

func TestOperationName(t *testing.T) {
	e := graphql.MustNewEngine(testRegistry())
	const doc = `query A { hello } query B { bye }`

	gqltesting.RunTests(t, []*gqltesting.Test{
		{
			Engine:         e,
			Query:          doc,
			OperationName:  "B",
			ExpectedResult: `{"bye":"Goodbye!"}`,
		},
		{
			Engine: e,
			Query:  doc,
			ExpectedErrors: []*errors.QueryError{
				errors.Malformed("more than one operation in query document and no operation name given"),
			},
		},
		{
			Engine:        e,
			Query:         doc,
			OperationName: "C",
			ExpectedErrors: []*errors.QueryError{
				errors.Malformed(`no operation with name "C"`),
			},
		},
	})
}

func TestMutationRejected(t *testing.T) {
	resp := graphql.MustNewEngine(hello.Registry()).Exec(context.Background(), "mutation { hello }", "", nil)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "Schema is not configured for mutations.", resp.Errors[0].Message)
	assert.Equal(t, errors.KindValidation, resp.Errors[0].Kind)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp := graphql.MustNewEngine(hello.Registry()).Exec(ctx, "{ hello }", "", nil)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, context.Canceled.Error(), resp.Errors[0].Message)
	assert.Nil(t, resp.Data)
}

func TestFieldsResolveConcurrently(t *testing.T) {
	var ready sync.WaitGroup
	ready.Add(2)
	waitForPeer := func(context.Context) (string, error) {
		ready.Done()
		done := make(chan struct{})
		go func() {
			ready.Wait()
			close(done)
		}()
		select {
		case <-done:
			return "ok", nil
		case <-time.After(5 * time.Second):
			return "", fmt.Errorf("peer resolver never started")
		}
	}
	r := schema.MustNew(
		schema.Field{Name: "a", Resolve: waitForPeer},
		schema.Field{Name: "b", Resolve: waitForPeer},
	)

	resp := graphql.MustNewEngine(r, graphql.MaxParallelism(2)).Exec(context.Background(), "{ a b }", "", nil)
	require.Empty(t, resp.Errors)
	assert.JSONEq(t, `{"a":"ok","b":"ok"}`, string(resp.Data))
}

func TestConcurrentExec(t *testing.T) {
	e := graphql.MustNewEngine(hello.Registry())

	const n = 50
	out := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b, _ := json.Marshal(e.Exec(context.Background(), "{ hello }", "", nil))
			out[i] = string(b)
		}(i)
	}
	wg.Wait()

	for i := range out {
		assert.Equal(t, `{"data":{"hello":"Hello world!"}}`, out[i], "response %d", i)
	}
}

func TestNewEngine(t *testing.T) {
	_, err := graphql.NewEngine(nil)
	assert.Equal(t, errors.KindStartup, errors.KindOf(err))

	_, err = graphql.NewEngine(schema.MustNew())
	assert.Equal(t, errors.KindStartup, errors.KindOf(err))

	_, err = graphql.NewEngine(hello.Registry(), graphql.MaxParallelism(0))
	assert.Equal(t, errors.KindStartup, errors.KindOf(err))

	r := hello.Registry()
	e, err := graphql.NewEngine(r)
	require.NoError(t, err)
	assert.Same(t, r, e.Registry())
	assert.True(t, r.Frozen(), "registry is frozen once the engine is built")
}

func TestMiddleware(t *testing.T) {
	var calls []string
	trace := func(name string) graphql.Middleware {
		return func(next graphql.Exec) graphql.Exec {
			return func(ctx context.Context, req *graphql.Request) *graphql.Response {
				calls = append(calls, name)
				return next(ctx, req)
			}
		}
	}
	blockIntrospection := graphql.InspectInputMiddleware(func(ctx context.Context, req *graphql.Request) *graphql.Response {
		if req.OperationName == "IntrospectionQuery" {
			return &graphql.Response{Errors: []*errors.QueryError{errors.Malformed("introspection is disabled")}}
		}
		return nil
	})
	redact := graphql.ParseErrorsMiddleware(func(errs []*errors.QueryError) []*errors.QueryError {
		for _, err := range errs {
			err.Message = "redacted"
		}
		return errs
	})
	var inspected int
	count := graphql.InspectResultMiddleware(func(ctx context.Context, req *graphql.Request, resp *graphql.Response) {
		inspected++
	})

	e := graphql.MustNewEngine(testRegistry(), graphql.UseMiddleware(trace("outer"), trace("inner"), redact, blockIntrospection, count))

	resp := e.Exec(context.Background(), "{ hello }", "", nil)
	assert.Empty(t, resp.Errors)
	assert.Equal(t, []string{"outer", "inner"}, calls)

	resp = e.Exec(context.Background(), "query IntrospectionQuery { __schema }", "IntrospectionQuery", nil)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "redacted", resp.Errors[0].Message)
	assert.Equal(t, 1, inspected, "blocked requests never reach inner middleware")
}

func TestValidateAndLog(t *testing.T) {
	e := graphql.MustNewEngine(testRegistry())

	errs, ops := e.ValidateAndLog(`query Greeting($s: Boolean!) { greeting: hello @skip(if: $s) bye }`)
	require.Empty(t, errs)
	require.Len(t, ops, 1)
	assert.Equal(t, "Greeting", ops[0].Name)
	assert.Equal(t, map[string]string{"s": "Boolean!"}, ops[0].Variables)
	assert.Equal(t, []graphql.LoggedField{{Name: "hello", Alias: "greeting"}, {Name: "bye"}}, ops[0].Fields)

	errs, ops = e.ValidateAndLog(`{ nope }`)
	require.Len(t, errs, 1)
	assert.Empty(t, ops)

	_, qErr := graphql.Summarize("{")
	assert.NotNil(t, qErr)
}
