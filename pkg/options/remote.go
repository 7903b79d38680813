package options

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/values"
)

// Metadata keys describing a remote option endpoint on a descriptor.
const (
	MetaEndpointURL    = "options.endpoint.url"
	MetaEndpointMethod = "options.endpoint.method"
	MetaLabelField     = "options.endpoint.labelField"
	MetaValueField     = "options.endpoint.valueField"
	MetaResultsPath    = "options.endpoint.resultsPath"
	MetaQueryParam     = "options.endpoint.queryParam"
	MetaParamPrefix    = "options.endpoint.params."
)

// Remote fetches options from a JSON endpoint.
type Remote struct {
	URL         string
	Method      string
	Params      map[string]string
	QueryParam  string
	ResultsPath string
	LabelField  string
	ValueField  string

	client   *http.Client
	attempts uint
	delay    time.Duration
	header   http.Header
}

// RemoteOption customises a Remote source.
type RemoteOption func(*Remote)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) RemoteOption {
	return func(r *Remote) {
		if client != nil {
			r.client = client
		}
	}
}

// WithRetry sets the number of attempts and the fixed delay between them.
func WithRetry(attempts uint, delay time.Duration) RemoteOption {
	return func(r *Remote) {
		if attempts > 0 {
			r.attempts = attempts
		}
		r.delay = delay
	}
}

// WithHeader adds a request header, for example an authorization token.
func WithHeader(key, value string) RemoteOption {
	return func(r *Remote) {
		r.header.Set(key, value)
	}
}

// WithFields sets the results path and the label and value fields.
func WithFields(resultsPath, labelField, valueField string) RemoteOption {
	return func(r *Remote) {
		r.ResultsPath = resultsPath
		r.LabelField = labelField
		r.ValueField = valueField
	}
}

// WithBaseURL resolves relative endpoints against base, usually the backend
// the definition submits to. Absolute endpoints are left alone.
func WithBaseURL(base string) RemoteOption {
	return func(r *Remote) {
		base = strings.TrimRight(strings.TrimSpace(base), "/")
		if base == "" || r.URL == "" || strings.Contains(r.URL, "://") {
			return
		}
		r.URL = base + "/" + strings.TrimPrefix(r.URL, "/")
	}
}

// NewRemote returns a source reading endpoint. Defaults: GET, query param
// "q", label field "label", value field "value", three attempts.
func NewRemote(endpoint string, opts ...RemoteOption) *Remote {
	r := &Remote{
		URL:        strings.TrimSpace(endpoint),
		Method:     http.MethodGet,
		Params:     map[string]string{},
		QueryParam: "q",
		LabelField: "label",
		ValueField: "value",
		client:     &http.Client{Timeout: 10 * time.Second},
		attempts:   3,
		delay:      200 * time.Millisecond,
		header:     http.Header{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// RemoteFromMetadata reads the options.endpoint.* metadata keys.
func RemoteFromMetadata(metadata map[string]string, opts ...RemoteOption) (*Remote, bool) {
	endpoint := strings.TrimSpace(metadata[MetaEndpointURL])
	if endpoint == "" {
		return nil, false
	}
	r := NewRemote(endpoint, opts...)
	if method := strings.ToUpper(strings.TrimSpace(metadata[MetaEndpointMethod])); method != "" {
		r.Method = method
	}
	if v := strings.TrimSpace(metadata[MetaLabelField]); v != "" {
		r.LabelField = v
	}
	if v := strings.TrimSpace(metadata[MetaValueField]); v != "" {
		r.ValueField = v
	}
	if v := strings.TrimSpace(metadata[MetaResultsPath]); v != "" {
		r.ResultsPath = v
	}
	if v := strings.TrimSpace(metadata[MetaQueryParam]); v != "" {
		r.QueryParam = v
	}
	for key, value := range metadata {
		param := strings.TrimPrefix(key, MetaParamPrefix)
		if param == key || param == "" || strings.TrimSpace(value) == "" {
			continue
		}
		r.Params[param] = value
	}
	return r, true
}

// CacheKey identifies the request issued for query.
func (r *Remote) CacheKey(query string) string {
	var b strings.Builder
	b.WriteString(r.Method)
	b.WriteString(" ")
	b.WriteString(r.URL)
	keys := make([]string, 0, len(r.Params))
	for k := range r.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, ";%s=%s", k, r.Params[k])
	}
	fmt.Fprintf(&b, ";%s=%s", r.QueryParam, query)
	return b.String()
}

// StatusError reports a non-2xx response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("options: unexpected status %d", e.StatusCode)
}

// Options implements Source. Network failures and 5xx or 429 responses are
// retried; other statuses fail immediately.
func (r *Remote) Options(ctx context.Context, query string) ([]model.Option, error) {
	return retry.DoWithData(
		func() ([]model.Option, error) {
			return r.fetch(ctx, query)
		},
		retry.Context(ctx),
		retry.Attempts(r.attempts),
		retry.Delay(r.delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(retryable),
	)
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var status *StatusError
	if errors.As(err, &status) {
		return status.StatusCode >= 500 || status.StatusCode == http.StatusTooManyRequests
	}
	var decode *json.SyntaxError
	return !errors.As(err, &decode)
}

func (r *Remote) fetch(ctx context.Context, query string) ([]model.Option, error) {
	reqURL, err := url.Parse(r.URL)
	if err != nil {
		return nil, fmt.Errorf("options: parse url: %w", err)
	}
	q := reqURL.Query()
	for k, v := range r.Params {
		q.Set(k, v)
	}
	if query = strings.TrimSpace(query); query != "" && r.QueryParam != "" {
		q.Set(r.QueryParam, query)
	}
	reqURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, r.Method, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("options: request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for key, vals := range r.header {
		for _, v := range vals {
			req.Header.Add(key, v)
		}
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("options: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	var payload any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("options: decode: %w", err)
	}

	var out []model.Option
	for _, item := range extractResults(payload, r.ResultsPath) {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		value := pickValue(obj, r.ValueField)
		if value == "" {
			continue
		}
		label := pickValue(obj, r.LabelField)
		if label == "" {
			label = value
		}
		out = append(out, model.Option{Label: label, Value: value})
	}
	return out, nil
}

func extractResults(payload any, path string) []any {
	cur := payload
	if path != "" {
		var ok bool
		root, isMap := payload.(map[string]any)
		if !isMap {
			return nil
		}
		if cur, ok = values.Get(root, path); !ok {
			return nil
		}
	}
	list, _ := cur.([]any)
	return list
}

func pickValue(obj map[string]any, path string) string {
	if path == "" {
		return ""
	}
	value, ok := values.Get(obj, path)
	if !ok || value == nil {
		return ""
	}
	return values.Stringify(value)
}
