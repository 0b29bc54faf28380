// Package hello defines the schema served by the hello gateway: a single
// field answering a constant greeting.
package hello

import "github.com/graph-gophers/graphql-gateway/schema"

const Greeting = "Hello world!"

// Registry returns a new registry holding the hello field.
func Registry() *schema.Registry {
	return schema.MustNew(schema.Field{
		Name:        "hello",
		Description: "A friendly greeting.",
		Resolve:     schema.Static(Greeting),
	})
}
