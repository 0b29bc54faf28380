package schema_test

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graph-gophers/graphql-gateway/errors"
	"github.com/graph-gophers/graphql-gateway/schema"
)

func TestRegisterAndResolve(t *testing.T) {
	r, err := schema.New()
	require.NoError(t, err)
	require.NoError(t, r.Register("hello", schema.Static("Hello world!")))

	got, err := r.Resolve(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "Hello world!", got)
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, []string{"hello"}, r.Names())
}

func TestRegisterDuplicate(t *testing.T) {
	r := schema.MustNew(schema.Field{Name: "hello", Resolve: schema.Static("a")})

	err := r.Register("hello", schema.Static("b"))
	var dup *errors.DuplicateFieldError
	require.True(t, stderrors.As(err, &dup), "expected DuplicateFieldError, got %v", err)
	assert.Equal(t, "hello", dup.Name)
	assert.Equal(t, errors.KindDuplicateField, errors.KindOf(err))

	got, err := r.Resolve(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "a", got, "first registration must win")
}

func TestNewDuplicate(t *testing.T) {
	_, err := schema.New(
		schema.Field{Name: "a", Resolve: schema.Static("1")},
		schema.Field{Name: "a", Resolve: schema.Static("2")},
	)
	assert.Equal(t, errors.KindDuplicateField, errors.KindOf(err))
}

func TestResolveUnknown(t *testing.T) {
	r := schema.MustNew()
	_, err := r.Resolve(context.Background(), "nope")
	require.Error(t, err)
	assert.Equal(t, errors.KindUnknownField, errors.KindOf(err))
	assert.Contains(t, err.Error(), `Cannot query field "nope" on type "Query".`)
}

func TestResolverError(t *testing.T) {
	boom := fmt.Errorf("backend unavailable")
	r := schema.MustNew(schema.Field{Name: "flaky", Resolve: func(context.Context) (string, error) {
		return "", boom
	}})
	_, err := r.Resolve(context.Background(), "flaky")
	assert.Same(t, boom, err)
}

func TestInvalidFields(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		resolver schema.Resolver
	}{
		{"empty name", "", schema.Static("x")},
		{"leading digit", "1abc", schema.Static("x")},
		{"reserved prefix", "__typename", schema.Static("x")},
		{"punctuation", "hel-lo", schema.Static("x")},
		{"nil resolver", "hello", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := schema.MustNew().Register(tt.field, tt.resolver)
			assert.Equal(t, errors.KindStartup, errors.KindOf(err))
		})
	}
}

func TestFreeze(t *testing.T) {
	r := schema.MustNew(schema.Field{Name: "hello", Resolve: schema.Static("Hello world!")})
	r.Freeze()
	assert.True(t, r.Frozen())

	err := r.Register("late", schema.Static("x"))
	assert.Equal(t, errors.KindStartup, errors.KindOf(err))
	_, ok := r.Lookup("late")
	assert.False(t, ok)
}

func TestMustRegisterPanics(t *testing.T) {
	r := schema.MustNew(schema.Field{Name: "hello", Resolve: schema.Static("a")})
	assert.Panics(t, func() { r.MustRegister("hello", schema.Static("b")) })
}

func TestConcurrentResolve(t *testing.T) {
	r := schema.MustNew(schema.Field{Name: "hello", Resolve: schema.Static("Hello world!")})
	r.Freeze()

	var wg sync.WaitGroup
	results := make([]string, 64)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = r.Resolve(context.Background(), "hello")
		}(i)
	}
	wg.Wait()
	for i, got := range results {
		assert.Equal(t, "Hello world!", got, "result %d", i)
	}
}
