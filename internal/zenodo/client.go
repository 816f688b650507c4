// Package zenodo implements zs.Store against the Zenodo deposition API,
// plus an in-memory store with the same draft/publish/new-version rules.
package zenodo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/catalyst-cooperative/pudl-zenodo-storage/internal/zs"
)

// API roots of the production and sandbox servers.
const (
	ProductionAPI = "https://zenodo.org/api"
	SandboxAPI    = "https://sandbox.zenodo.org/api"
)

// maxPayload bounds how much of an error response is kept in a RemoteError.
const maxPayload = 2048

// Client talks to the Zenodo REST API. Every request carries the access
// token as the access_token query parameter.
type Client struct {
	httpClient *http.Client
	apiRoot    string
	token      string
	logger     zs.Logger
}

var _ zs.Store = (*Client)(nil)

// NewClient creates a client for the API rooted at apiRoot. A nil
// httpClient uses http.DefaultClient.
func NewClient(apiRoot, token string, httpClient *http.Client, logger zs.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zs.Discard
	}
	return &Client{
		httpClient: httpClient,
		apiRoot:    strings.TrimRight(apiRoot, "/"),
		token:      token,
		logger:     logger,
	}
}

// call is a single API request.
type call struct {
	method      string
	url         string
	query       url.Values
	body        io.Reader
	size        int64 // -1 when unknown
	contentType string
}

// do sends c and returns the response body and status code. Transport
// failures are returned as *url.Error; status codes are left to the caller.
func (c *Client) do(ctx context.Context, cl call) ([]byte, int, error) {
	u, err := url.Parse(cl.url)
	if err != nil {
		return nil, 0, fmt.Errorf("parsing url %q: %w", cl.url, err)
	}
	q := u.Query()
	for k, vs := range cl.query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	q.Set("access_token", c.token)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, cl.method, u.String(), cl.body)
	if err != nil {
		return nil, 0, fmt.Errorf("building request: %w", err)
	}
	if cl.body != nil && cl.size >= 0 {
		req.ContentLength = cl.size
	}
	if cl.contentType != "" {
		req.Header.Set("Content-Type", cl.contentType)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("zenodo request", "method", cl.method, "url", redact(u))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading response: %w", err)
	}
	return b, resp.StatusCode, nil
}

// doJSON sends v as a JSON body.
func (c *Client) doJSON(ctx context.Context, method, rawURL string, v any) ([]byte, int, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, 0, fmt.Errorf("encoding request: %w", err)
	}
	return c.do(ctx, call{
		method:      method,
		url:         rawURL,
		body:        bytes.NewReader(data),
		size:        int64(len(data)),
		contentType: "application/json",
	})
}

// remoteError builds the error for an unexpected status.
func remoteError(op string, kind error, status int, body []byte) *zs.RemoteError {
	payload := strings.TrimSpace(string(body))
	var msg struct {
		Message string `json:"message"`
		Errors  []struct {
			Field   string `json:"field"`
			Message any    `json:"message"`
		} `json:"errors"`
	}
	if json.Unmarshal(body, &msg) == nil && msg.Message != "" {
		parts := []string{msg.Message}
		for _, e := range msg.Errors {
			parts = append(parts, fmt.Sprintf("%s: %v", e.Field, e.Message))
		}
		payload = strings.Join(parts, "; ")
	}
	if len(payload) > maxPayload {
		payload = payload[:maxPayload] + "..."
	}
	return &zs.RemoteError{Op: op, StatusCode: status, Payload: payload, Kind: kind}
}

func statusIn(status int, want ...int) bool {
	for _, w := range want {
		if status == w {
			return true
		}
	}
	return false
}

// redact hides the access token in logged URLs.
func redact(u *url.URL) string {
	cp := *u
	q := cp.Query()
	if q.Has("access_token") {
		q.Set("access_token", "REDACTED")
	}
	cp.RawQuery = q.Encode()
	return cp.String()
}
