// Package httpclient is the thin HTTP layer the engine's collaborators
// use to fetch OpenAPI documents and perform demo step requests.
package httpclient

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

// Client abstracts the underlying HTTP client so tests can substitute
// their own transport.
type Client interface {
	Do(req *http.Request) (*http.Response, error)
}

const TimeoutRequest = 60 * time.Second

// New returns a default client with a request timeout.
func New() Client {
	return &http.Client{
		Timeout: TimeoutRequest,
	}
}

// Request is a prepared demo step request.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// Response is a completed request's outcome.
type Response struct {
	StatusCode int               `json:"statusCode"`
	Body       []byte            `json:"body"`
	Headers    map[string]string `json:"headers"`
}

// Send performs the request and reads the full response body.
func Send(ctx context.Context, client Client, req Request) (Response, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return Response{}, err
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, err
	}

	headers := make(map[string]string, len(resp.Header))
	for key := range resp.Header {
		headers[key] = resp.Header.Get(key)
	}

	return Response{
		StatusCode: resp.StatusCode,
		Body:       data,
		Headers:    headers,
	}, nil
}

// DecodedBody returns the response body as a decoded JSON value, or the
// raw body as a string when it is not valid JSON. Step executors save
// and poll against this shape.
func (r Response) DecodedBody() any {
	if !json.Valid(r.Body) {
		return string(r.Body)
	}
	var decoded any
	if err := json.Unmarshal(r.Body, &decoded); err != nil {
		return string(r.Body)
	}
	return decoded
}

// AsVar is the response rendered for the variable table: status, body
// and headers addressable by path.
func (r Response) AsVar() map[string]any {
	return map[string]any{
		"status":  r.StatusCode,
		"body":    r.DecodedBody(),
		"headers": headersAny(r.Headers),
	}
}

func headersAny(h map[string]string) map[string]any {
	out := make(map[string]any, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}
