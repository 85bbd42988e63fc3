package recordstore

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Client talks to a hosted record store over HTTPS. All persistence, auth and
// file storage live on the backend; the client only shapes requests and
// classifies failures.
type Client struct {
	baseURL string
	http    *http.Client
	auth    *AuthStore

	mu       sync.Mutex
	inflight map[string]*inflightRequest
}

type inflightRequest struct {
	cancel context.CancelFunc
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: 30 * time.Second},
		auth:     NewAuthStore(),
		inflight: make(map[string]*inflightRequest),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// AuthStore returns the client's session state holder.
func (c *Client) AuthStore() *AuthStore {
	return c.auth
}

// CancelRequest aborts the in-flight request registered under key, if any.
// Calling it for a completed, unknown or already-cancelled key is a no-op.
func (c *Client) CancelRequest(key string) {
	c.mu.Lock()
	req, ok := c.inflight[key]
	if ok {
		delete(c.inflight, key)
	}
	c.mu.Unlock()
	if ok {
		req.cancel()
	}
}

// register ties ctx to key. Issuing a new request under a key that is still
// pending cancels the older request first. The returned func releases the
// registration without disturbing a newer request that reused the key.
func (c *Client) register(ctx context.Context, key string) (context.Context, func()) {
	if key == "" {
		return ctx, func() {}
	}
	ctx, cancel := context.WithCancel(ctx)
	req := &inflightRequest{cancel: cancel}
	c.mu.Lock()
	if prev, ok := c.inflight[key]; ok {
		prev.cancel()
	}
	c.inflight[key] = req
	c.mu.Unlock()

	return ctx, func() {
		c.mu.Lock()
		if c.inflight[key] == req {
			delete(c.inflight, key)
		}
		c.mu.Unlock()
		cancel()
	}
}

type errorBody struct {
	Code    int                 `json:"code"`
	Message string              `json:"message"`
	Data    map[string][]string `json:"data"`
}

// send performs one HTTP round trip and classifies failures into
// *ResponseError. Cancellation, whether by the caller's context or by
// CancelRequest, is reported with IsAbort set.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType, requestKey string) ([]byte, error) {
	ctx, done := c.register(ctx, requestKey)
	defer done()

	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, &ResponseError{URL: fullURL, Message: "failed to build request", Err: err}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := c.auth.Token(); token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if isCancellation(err) || isCancellation(ctx.Err()) {
			return nil, newAbortError(fullURL, err)
		}
		return nil, &ResponseError{URL: fullURL, Message: "request failed", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if isCancellation(err) || isCancellation(ctx.Err()) {
			return nil, newAbortError(fullURL, err)
		}
		return nil, &ResponseError{URL: fullURL, Status: resp.StatusCode, Message: "failed to read response", Err: err}
	}

	if resp.StatusCode >= 400 {
		re := &ResponseError{URL: fullURL, Status: resp.StatusCode, Message: "request failed"}
		var eb errorBody
		if err := json.Unmarshal(data, &eb); err == nil {
			if eb.Message != "" {
				re.Message = eb.Message
			}
			re.Data = eb.Data
		}
		return nil, re
	}

	return data, nil
}
