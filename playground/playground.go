// Package playground serves a GraphiQL page bound to a GraphQL endpoint.
package playground

import (
	"bytes"
	"html/template"
	"net/http"
)

const defaultVersion = "3.0.6"

// New renders the page once and returns a handler serving it.
func New(endpoint string, options ...Option) (http.Handler, error) {
	c := &config{title: "GraphiQL", version: defaultVersion}
	for _, opt := range options {
		opt(c)
	}

	var buff bytes.Buffer
	err := page.Execute(&buff, map[string]string{
		"title":    c.title,
		"endpoint": endpoint,
		"version":  c.version,
	})
	if err != nil {
		return nil, err
	}
	out := buff.Bytes()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(out)
	}), nil
}

// Handler is like New but panics if the page cannot be rendered.
func Handler(endpoint string, options ...Option) http.Handler {
	h, err := New(endpoint, options...)
	if err != nil {
		panic(err)
	}
	return h
}

type Option func(*config)

type config struct {
	title   string
	version string
}

func WithTitle(title string) Option {
	return func(config *config) {
		config.title = title
	}
}

// WithVersion selects the GraphiQL release loaded from the CDN.
func WithVersion(version string) Option {
	return func(config *config) {
		config.version = version
	}
}

var page = template.Must(template.New("graphiql").Parse(`<!DOCTYPE html>
<html>
	<head>
		<meta charset="utf-8" />
		<title>{{ .title }}</title>
		<link href="https://unpkg.com/graphiql@{{ .version }}/graphiql.min.css" rel="stylesheet" />
		<script crossorigin src="https://unpkg.com/react@17/umd/react.production.min.js"></script>
		<script crossorigin src="https://unpkg.com/react-dom@17/umd/react-dom.production.min.js"></script>
		<script crossorigin src="https://unpkg.com/graphiql@{{ .version }}/graphiql.min.js"></script>
	</head>
	<body style="width: 100%; height: 100%; margin: 0; overflow: hidden;">
		<div id="graphiql" style="height: 100vh;">Loading...</div>
		<script>
			function graphQLFetcher(graphQLParams) {
				return fetch({{ .endpoint }}, {
					method: "post",
					headers: { "Content-Type": "application/json" },
					body: JSON.stringify(graphQLParams),
					credentials: "include",
				}).then(function (response) {
					return response.text();
				}).then(function (responseBody) {
					try {
						return JSON.parse(responseBody);
					} catch (error) {
						return responseBody;
					}
				});
			}

			ReactDOM.render(
				React.createElement(GraphiQL, {fetcher: graphQLFetcher}),
				document.getElementById("graphiql")
			);
		</script>
	</body>
</html>
`))
