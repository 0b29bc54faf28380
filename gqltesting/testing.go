// Package gqltesting runs GraphQL test cases against an engine.
package gqltesting

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/nsf/jsondiff"

	graphql "github.com/graph-gophers/graphql-gateway"
	"github.com/graph-gophers/graphql-gateway/errors"
)

// Test is a GraphQL test case to be used with RunTest(s).
type Test struct {
	Context        context.Context
	Engine         *graphql.Engine
	Query          string
	OperationName  string
	Variables      map[string]interface{}
	ExpectedResult string
	ExpectedErrors []*errors.QueryError
}

// RunTests runs the given GraphQL test cases as subtests.
func RunTests(t *testing.T, tests []*Test) {
	t.Helper()
	if len(tests) == 1 {
		RunTest(t, tests[0])
		return
	}

	for i, test := range tests {
		t.Run(strconv.Itoa(i+1), func(t *testing.T) {
			t.Helper()
			RunTest(t, test)
		})
	}
}

// RunTest runs a single GraphQL test case.
func RunTest(t *testing.T, test *Test) {
	t.Helper()
	if test.Context == nil {
		test.Context = context.Background()
	}
	result := test.Engine.Exec(test.Context, test.Query, test.OperationName, test.Variables)

	checkErrors(t, test.ExpectedErrors, result.Errors)

	if test.ExpectedResult == "" {
		if result.Data != nil {
			t.Fatalf("got: %s, want: null", result.Data)
		}
		return
	}

	opts := jsondiff.Options{
		Added:   jsondiff.Tag{Begin: "+++", End: "+++"},
		Removed: jsondiff.Tag{Begin: "---", End: "---"},
		Changed: jsondiff.Tag{Begin: "|||", End: "|||"},
		Indent:  "    ",
	}
	diff, output := jsondiff.Compare([]byte(test.ExpectedResult), result.Data, &opts)
	if diff != jsondiff.FullMatch {
		t.Log("Did not get expected result:\n", output)
		t.Log("Got:", string(result.Data))
		t.Fail()
	}
}

// checkErrors compares errors by their serialized form, ignoring order.
func checkErrors(t *testing.T, want, got []*errors.QueryError) {
	t.Helper()
	w, g := formatErrors(t, want), formatErrors(t, got)
	if strings.Join(w, "\n") != strings.Join(g, "\n") {
		t.Log("unexpected error:")
		t.Log("  Got: \n", strings.Join(g, "\n"))
		t.Log("  Want: \n", strings.Join(w, "\n"))
		t.Fatal()
	}
}

func formatErrors(t *testing.T, errs []*errors.QueryError) []string {
	t.Helper()
	out := make([]string, 0, len(errs))
	for _, err := range errs {
		if err == nil {
			out = append(out, "(nil)")
			continue
		}
		b, mErr := json.Marshal(err)
		if mErr != nil {
			t.Fatalf("marshal error: %v", mErr)
		}
		out = append(out, string(b))
	}
	sort.Strings(out)
	return out
}
