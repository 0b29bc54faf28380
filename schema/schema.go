// Package schema holds the registry of queryable root fields.
//
// A Registry is populated at startup and frozen before it is handed to an
// engine. After Freeze it is read-only and may be shared by any number of
// concurrent requests without locking.
package schema

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/atomic"

	"github.com/graph-gophers/graphql-gateway/errors"
)

// QueryTypeName is the name of the root operation type every field belongs to.
const QueryTypeName = "Query"

// Resolver produces the value of a field. It receives the request context so
// that it may perform I/O and observe cancellation.
type Resolver func(ctx context.Context) (string, error)

// Static returns a Resolver that always yields value.
func Static(value string) Resolver {
	return func(context.Context) (string, error) {
		return value, nil
	}
}

// Field is a field descriptor: a name and the handler resolving it.
type Field struct {
	Name        string
	Description string
	Resolve     Resolver
}

var nameRegexp = regexp.MustCompile(`^[_A-Za-z][_0-9A-Za-z]*$`)

// Registry maps field names to field descriptors.
type Registry struct {
	fields map[string]*Field
	frozen atomic.Bool
}

// New returns a registry holding fields. It fails like Register on the first
// invalid or duplicate field.
func New(fields ...Field) (*Registry, error) {
	r := &Registry{fields: make(map[string]*Field, len(fields))}
	for _, f := range fields {
		if err := r.add(f); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// MustNew is like New but panics on error.
func MustNew(fields ...Field) *Registry {
	r, err := New(fields...)
	if err != nil {
		panic(err)
	}
	return r
}

// Register adds a field named name resolved by resolver. It returns a
// *errors.DuplicateFieldError if name is already registered.
func (r *Registry) Register(name string, resolver Resolver) error {
	return r.add(Field{Name: name, Resolve: resolver})
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(name string, resolver Resolver) {
	if err := r.Register(name, resolver); err != nil {
		panic(err)
	}
}

func (r *Registry) add(f Field) error {
	if r.frozen.Load() {
		return errors.Startup("register field "+f.Name, fmt.Errorf("registry is frozen"))
	}
	if !nameRegexp.MatchString(f.Name) || strings.HasPrefix(f.Name, "__") {
		return errors.Startup("register field", fmt.Errorf("invalid field name %q", f.Name))
	}
	if f.Resolve == nil {
		return errors.Startup("register field "+f.Name, fmt.Errorf("nil resolver"))
	}
	if r.fields == nil {
		r.fields = make(map[string]*Field)
	}
	if _, ok := r.fields[f.Name]; ok {
		return &errors.DuplicateFieldError{Name: f.Name}
	}
	r.fields[f.Name] = &f
	return nil
}

// Freeze makes the registry read-only. Further calls to Register fail.
func (r *Registry) Freeze() {
	r.frozen.Store(true)
}

func (r *Registry) Frozen() bool {
	return r.frozen.Load()
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (*Field, bool) {
	f, ok := r.fields[name]
	return f, ok
}

// Resolve invokes the resolver registered under name. It returns an
// UnknownFieldError if no such field exists.
func (r *Registry) Resolve(ctx context.Context, name string) (string, error) {
	f, ok := r.fields[name]
	if !ok {
		return "", errors.UnknownField(name, QueryTypeName, errors.Location{})
	}
	return f.Resolve(ctx)
}

// Names returns the registered field names in lexical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.fields))
	for name := range r.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Len() int {
	return len(r.fields)
}
