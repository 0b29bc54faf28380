package errors

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Kind classifies an error for the gateway boundary. It decides the HTTP
// status of a response and is never serialized.
type Kind int

const (
	KindUnknown Kind = iota
	KindStartup
	KindDuplicateField
	KindUnknownField
	KindMalformedRequest
	KindValidation
	KindResolver
	KindPanic
)

func (k Kind) String() string {
	switch k {
	case KindStartup:
		return "StartupError"
	case KindDuplicateField:
		return "DuplicateFieldError"
	case KindUnknownField:
		return "UnknownFieldError"
	case KindMalformedRequest:
		return "MalformedRequestError"
	case KindValidation:
		return "ValidationError"
	case KindResolver:
		return "ResolverError"
	case KindPanic:
		return "PanicError"
	default:
		return "UnknownError"
	}
}

// Codes reported in the "extensions" of a query error.
const (
	CodeParseFailed      = "GRAPHQL_PARSE_FAILED"
	CodeValidationFailed = "GRAPHQL_VALIDATION_FAILED"
	CodeBadUserInput     = "BAD_USER_INPUT"
	CodeInternal         = "INTERNAL_SERVER_ERROR"
)

type QueryError struct {
	Message       string                 `json:"message"`
	Locations     []Location             `json:"locations,omitempty"`
	Path          []interface{}          `json:"path,omitempty"`
	Rule          string                 `json:"-"`
	Kind          Kind                   `json:"-"`
	ResolverError error                  `json:"-"`
	Extensions    map[string]interface{} `json:"extensions,omitempty"`
	err           error
}

type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Errorf builds a QueryError. If one of the arguments is an error it is kept
// as the cause, so errors.Is and errors.As see through the QueryError.
func Errorf(format string, a ...interface{}) *QueryError {
	var err error
	for _, arg := range a {
		if e, ok := arg.(error); ok {
			err = e
			break
		}
	}
	return &QueryError{
		Message: fmt.Sprintf(format, a...),
		err:     err,
	}
}

func (err *QueryError) Error() string {
	if err == nil {
		return "<nil>"
	}
	str := fmt.Sprintf("graphql: %s", err.Message)
	for _, loc := range err.Locations {
		str += fmt.Sprintf(" (line %d, column %d)", loc.Line, loc.Column)
	}
	return str
}

func (err *QueryError) Unwrap() error {
	if err == nil {
		return nil
	}
	return err.err
}

// WithCode sets the "code" extension and returns err for chaining.
func (err *QueryError) WithCode(code string) *QueryError {
	if err.Extensions == nil {
		err.Extensions = make(map[string]interface{}, 1)
	}
	err.Extensions["code"] = code
	return err
}

var _ error = &QueryError{}

// UnknownField reports a selection of a field the schema does not define.
func UnknownField(name, typeName string, loc Location) *QueryError {
	err := Errorf("Cannot query field %q on type %q.", name, typeName)
	err.Kind = KindUnknownField
	err.Locations = []Location{loc}
	return err.WithCode(CodeValidationFailed)
}

// Malformed reports a request that does not have the shape of a GraphQL request.
func Malformed(format string, a ...interface{}) *QueryError {
	err := Errorf(format, a...)
	err.Kind = KindMalformedRequest
	return err.WithCode(CodeBadUserInput)
}

// DuplicateFieldError is returned when a field name is registered twice.
type DuplicateFieldError struct {
	Name string
}

func (e *DuplicateFieldError) Error() string {
	return fmt.Sprintf("graphql: field %q is already registered", e.Name)
}

// StartupError is fatal: the process must not serve after receiving one.
type StartupError struct {
	Op  string
	Err error
}

// Startup wraps err with the operation that failed during startup.
func Startup(op string, err error) *StartupError {
	return &StartupError{Op: op, Err: pkgerrors.Wrap(err, op)}
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("graphql: startup failed: %v", e.Err)
}

func (e *StartupError) Unwrap() error {
	return e.Err
}

// KindOf reports the kind of err, looking through wrapped errors.
func KindOf(err error) Kind {
	for err != nil {
		switch e := err.(type) {
		case *QueryError:
			if e != nil && e.Kind != KindUnknown {
				return e.Kind
			}
		case *StartupError:
			return KindStartup
		case *DuplicateFieldError:
			return KindDuplicateField
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return KindUnknown
		}
		err = u.Unwrap()
	}
	return KindUnknown
}
