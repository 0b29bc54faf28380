/*
Package ast represents the executable subset of the [GraphQL specification]
understood by the gateway: operations, field selections, arguments,
directives and values.

The names of the Go types, whenever possible, match 1:1 with the names from
the specification.

[GraphQL specification]: https://spec.graphql.org
*/
package ast
