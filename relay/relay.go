// Package relay serves an engine over HTTP following the GraphQL over HTTP
// conventions: GET with query parameters, or POST with a JSON body.
package relay

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	graphql "github.com/graph-gophers/graphql-gateway"
	"github.com/graph-gophers/graphql-gateway/errors"
)

const (
	ContentTypeJSON           = "application/json"
	ContentTypeGraphQL        = "application/graphql"
	ContentTypeFormURLEncoded = "application/x-www-form-urlencoded"
)

// DefaultMaxBodyBytes bounds the size of a request body.
const DefaultMaxBodyBytes = 1 << 20

type Handler struct {
	Engine *graphql.Engine
	Pretty bool
	// MaxBodyBytes defaults to DefaultMaxBodyBytes.
	MaxBodyBytes int64
}

// A workaround for getting `variables` as a JSON string
type requestCompatibility struct {
	Query         string `json:"query"`
	Variables     string `json:"variables"`
	OperationName string `json:"operationName"`
}

func fromValues(values url.Values) (*graphql.Request, *errors.QueryError) {
	req := &graphql.Request{
		Query:         values.Get("query"),
		OperationName: values.Get("operationName"),
	}
	if vars := values.Get("variables"); vars != "" {
		if err := json.Unmarshal([]byte(vars), &req.Variables); err != nil {
			return nil, errors.Malformed("variables are invalid JSON: %v", err)
		}
	}
	return req, nil
}

// NewRequest parses an http.Request into a GraphQL request. The returned
// error is a MalformedRequestError.
func NewRequest(r *http.Request, maxBodyBytes int64) (*graphql.Request, *errors.QueryError) {
	req, err := parseRequest(r, maxBodyBytes)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Query) == "" {
		return nil, errors.Malformed("GraphQL operations must contain a non-empty `query`.")
	}
	return req, nil
}

func parseRequest(r *http.Request, maxBodyBytes int64) (*graphql.Request, *errors.QueryError) {
	if r.Method == http.MethodGet {
		return fromValues(r.URL.Query())
	}

	if r.Method != http.MethodPost {
		return nil, errors.Malformed("unsupported HTTP method: %s", r.Method)
	}

	if r.Body == nil {
		return nil, errors.Malformed("POST body missing.")
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, errors.Malformed("unable to read request body: %v", err)
	}
	if int64(len(body)) > maxBodyBytes {
		return nil, errors.Malformed("request body exceeds %d bytes", maxBodyBytes)
	}

	contentType := strings.TrimSpace(strings.Split(r.Header.Get("Content-Type"), ";")[0])

	switch contentType {
	case ContentTypeGraphQL:
		return &graphql.Request{Query: string(body)}, nil

	case ContentTypeFormURLEncoded:
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return nil, errors.Malformed("invalid form body: %v", err)
		}
		return fromValues(values)

	case ContentTypeJSON, "":
		if len(strings.TrimSpace(string(body))) == 0 {
			return nil, errors.Malformed("POST body missing.")
		}
		var req graphql.Request
		if err := json.Unmarshal(body, &req); err != nil {
			// Probably `variables` was sent as a string instead of an object.
			// So, we try to be polite and try to parse that as a JSON string
			var compat requestCompatibility
			if json.Unmarshal(body, &compat) != nil {
				return nil, errors.Malformed("request body is not a valid GraphQL request: %v", err)
			}
			req = graphql.Request{Query: compat.Query, OperationName: compat.OperationName}
			if compat.Variables != "" {
				if err := json.Unmarshal([]byte(compat.Variables), &req.Variables); err != nil {
					return nil, errors.Malformed("variables are invalid JSON: %v", err)
				}
			}
		}
		return &req, nil

	default:
		return nil, errors.Malformed("unsupported Content-Type %q, use %s", contentType, ContentTypeJSON)
	}
}

// StatusCode maps a response to its HTTP status. Errors raised before
// execution started map to 400; responses carrying data map to 200.
func StatusCode(resp *graphql.Response) int {
	if resp.Data != nil || len(resp.Errors) == 0 {
		return http.StatusOK
	}
	switch resp.Errors[0].Kind {
	case errors.KindMalformedRequest, errors.KindUnknownField, errors.KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	maxBody := h.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	var response *graphql.Response
	req, qErr := NewRequest(r, maxBody)
	if qErr != nil {
		response = &graphql.Response{Errors: []*errors.QueryError{qErr}}
	} else {
		response = h.Engine.Execute(r.Context(), req)
	}

	var (
		responseJSON []byte
		err          error
	)
	if h.Pretty {
		responseJSON, err = json.MarshalIndent(response, "", "\t")
	} else {
		responseJSON, err = json.Marshal(response)
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", ContentTypeJSON)
	w.WriteHeader(StatusCode(response))
	w.Write(responseJSON)
}
