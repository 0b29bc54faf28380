package errors

import (
	"errors"
	"fmt"
	"io"
	"syscall"
	"testing"
)

func TestErrorf(t *testing.T) {
	cause := io.EOF

	t.Run("wrap error", func(t *testing.T) {
		err := Errorf("boom: %v", cause)
		if !errors.Is(err, cause) {
			t.Fatalf("expected errors.Is to return true")
		}
	})

	t.Run("handles nil", func(t *testing.T) {
		var err *QueryError
		if errors.Is(err, cause) {
			t.Fatalf("expected errors.Is to return false")
		}
	})

	t.Run("handle no arguments", func(t *testing.T) {
		err := Errorf("boom")
		if errors.Is(err, cause) {
			t.Fatalf("expected errors.Is to return false")
		}
	})

	t.Run("handle non-error argument arguments", func(t *testing.T) {
		err := Errorf("boom: %v", "shaka")
		if errors.Is(err, cause) {
			t.Fatalf("expected errors.Is to return false")
		}
	})
}

func TestQueryErrorMessage(t *testing.T) {
	err := UnknownField("nope", "Query", Location{Line: 1, Column: 3})
	const want = `graphql: Cannot query field "nope" on type "Query". (line 1, column 3)`
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
	if err.Extensions["code"] != CodeValidationFailed {
		t.Errorf("unexpected code %v", err.Extensions["code"])
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindUnknown},
		{"plain", io.EOF, KindUnknown},
		{"unknown field", UnknownField("x", "Query", Location{}), KindUnknownField},
		{"malformed", Malformed("bad body"), KindMalformedRequest},
		{"duplicate", &DuplicateFieldError{Name: "hello"}, KindDuplicateField},
		{"startup", Startup("listen", syscall.EADDRINUSE), KindStartup},
		{"wrapped", fmt.Errorf("outer: %w", Malformed("inner")), KindMalformedRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStartupUnwrap(t *testing.T) {
	err := Startup("listen tcp :4000", syscall.EADDRINUSE)
	if !errors.Is(err, syscall.EADDRINUSE) {
		t.Fatalf("expected cause to be reachable, got %v", err)
	}
	var se *StartupError
	if !errors.As(error(err), &se) || se.Op != "listen tcp :4000" {
		t.Fatalf("expected *StartupError, got %#v", err)
	}
}
