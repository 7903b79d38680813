// Package submit sends merged wizard payloads to the backend and loads the
// records update flows start from.
package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/errmap"
)

const maxErrorBody = 1 << 20

// FieldErrors carries the error object of a 400 or 422 response. The payload
// keeps the backend's key order so routing reports paths as sent.
type FieldErrors struct {
	Status  int
	Payload *errmap.Object
}

func (e *FieldErrors) Error() string {
	return fmt.Sprintf("submit: backend rejected payload (status %d, %d error keys)", e.Status, e.Payload.Len())
}

// TransportError reports a failure that is not a validation response:
// network errors, unexpected statuses or undecodable bodies. Status is zero
// when no response arrived.
type TransportError struct {
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("submit: transport: %v", e.Err)
	}
	if e.Err == nil {
		return fmt.Sprintf("submit: unexpected status %d", e.Status)
	}
	return fmt.Sprintf("submit: status %d: %v", e.Status, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.HTTP = client
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.header.Add(key, value)
	}
}

// Client talks to the backend REST API.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Logger  *zap.Logger

	header http.Header
}

// New returns a client for baseURL with a 15 second default timeout.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		HTTP:    &http.Client{Timeout: 15 * time.Second},
		Logger:  zap.NewNop(),
		header:  make(http.Header),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Fetch loads the record at path, used to prefill update flows.
func (c *Client) Fetch(ctx context.Context, path string) (map[string]any, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// Submit sends payload with method. Validation responses (400, 422) return
// *FieldErrors; every other failure returns *TransportError.
func (c *Client) Submit(ctx context.Context, method, path string, payload map[string]any) (map[string]any, error) {
	if method = strings.ToUpper(strings.TrimSpace(method)); method == "" {
		method = http.MethodPost
	}
	return c.do(ctx, method, path, payload)
}

func (c *Client) do(ctx context.Context, method, path string, payload map[string]any) (map[string]any, error) {
	target, err := c.resolve(path)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("submit: encode payload: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("submit: request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, vals := range c.header {
		for _, v := range vals {
			req.Header.Add(key, v)
		}
	}

	started := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		c.Logger.Warn("backend request failed", zap.String("method", method), zap.String("url", target), zap.Error(err))
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	c.Logger.Debug("backend request",
		zap.String("method", method),
		zap.String("url", target),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(started)),
	)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return nil, &TransportError{Status: resp.StatusCode, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		obj, err := errorObject(data)
		if err != nil {
			return nil, &TransportError{Status: resp.StatusCode, Err: err}
		}
		return nil, &FieldErrors{Status: resp.StatusCode, Payload: obj}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &TransportError{Status: resp.StatusCode}
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]any{}, nil
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, &TransportError{Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return out, nil
}

func (c *Client) resolve(path string) (string, error) {
	path = strings.TrimSpace(path)
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path, nil
	}
	if c.BaseURL == "" {
		return "", errors.New("submit: base url is not configured")
	}
	base, err := url.Parse(c.BaseURL + "/")
	if err != nil {
		return "", fmt.Errorf("submit: parse base url: %w", err)
	}
	ref, err := url.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return "", fmt.Errorf("submit: parse path: %w", err)
	}
	return base.ResolveReference(ref).String(), nil
}

// errorObject accepts either a bare error object or one wrapped in an
// "errors" key.
func errorObject(data []byte) (*errmap.Object, error) {
	obj, err := errmap.ParseObject(data)
	if err != nil {
		return nil, err
	}
	if obj.Len() == 1 {
		if nested, ok := obj.Get("errors"); ok {
			if inner, ok := nested.(*errmap.Object); ok {
				return inner, nil
			}
		}
	}
	return obj, nil
}

// IsFieldErrors unwraps err into *FieldErrors.
func IsFieldErrors(err error) (*FieldErrors, bool) {
	var fe *FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
