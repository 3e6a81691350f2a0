// Package bridge implements the HTTP bridge snippets call into configured
// services through (SPEC_FULL.md §4.7/§6): it attaches the resolved
// credential, enforces a per-request timeout, and normalizes the response
// instead of treating a non-2xx status as a transport error.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"onemcp/internal/onemcp/model"
)

// Response is what a snippet sees after a bridge call: status, headers, and
// a decoded-or-raw body. Bridge never returns an error for a non-2xx status —
// that's a normal response a snippet's own logic decides how to handle.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       any // decoded JSON if Content-Type is JSON-ish, else raw string
}

// Ok reports whether StatusCode is a 2xx, the invariant a snippet should
// check before trusting Body.
func (r *Response) Ok() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Bridge issues HTTP calls against a handbook-declared service, attaching
// the service's resolved credential header on every request.
type Bridge struct {
	http        *http.Client
	credentials map[string]model.Credential // keyed by service slug
}

func New(credentials map[string]model.Credential) *Bridge {
	return &Bridge{
		http:        &http.Client{},
		credentials: credentials,
	}
}

// Do issues method against baseURL-relative path on serviceSlug, with body
// JSON-encoded if non-nil, and returns within timeout.
func (b *Bridge) Do(ctx context.Context, serviceSlug, method, path string, body any, timeout time.Duration) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cred, ok := b.credentials[serviceSlug]
	if !ok {
		return nil, fmt.Errorf("bridge: no credential configured for service %q", serviceSlug)
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("bridge: encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	url := cred.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("bridge: build request: %w", err)
	}
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if !cred.Expired(time.Now()) {
		header, value := cred.Resolve()
		if header != "" {
			req.Header.Set(header, value)
		}
	}

	resp, err := b.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bridge: %s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	return decodeResponse(resp)
}

func decodeResponse(resp *http.Response) (*Response, error) {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("bridge: read response body: %w", err)
	}

	headers := make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		headers[k] = resp.Header.Get(k)
	}

	out := &Response{StatusCode: resp.StatusCode, Headers: headers}
	if len(raw) == 0 {
		return out, nil
	}

	if isJSON(resp.Header.Get("Content-Type")) {
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err == nil {
			out.Body = decoded
			return out, nil
		}
	}
	out.Body = string(raw)
	return out, nil
}

func isJSON(contentType string) bool {
	for _, want := range []string{"application/json", "application/problem+json"} {
		if len(contentType) >= len(want) && contentType[:len(want)] == want {
			return true
		}
	}
	return false
}
