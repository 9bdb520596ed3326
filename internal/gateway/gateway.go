// Package gateway turns logical operation names into requests against the
// single operation-multiplexed endpoint of the order-management backend, and
// normalizes every response into one Result shape.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/omsdash/omsctl/internal/logging"
)

// Method is the HTTP method used for an operation.
type Method string

const (
	GET  Method = http.MethodGet
	POST Method = http.MethodPost
)

// Kind classifies a failure. It is informational only: callers branch on
// Result.Success.
type Kind string

const (
	KindNone         Kind = ""
	KindConfig       Kind = "config"
	KindTransport    Kind = "transport"
	KindApplication  Kind = "application"
	KindUnrecognized Kind = "unrecognized"
	KindMalformed    Kind = "malformed"
)

// Failure messages for the non-application failure kinds.
const (
	MsgNotConfigured = "gateway endpoint is not configured"
	MsgTransport     = "network failure: the request could not be completed"
	MsgMalformed     = "malformed response: the backend did not return valid JSON"
	MsgUnrecognized  = "operation not recognized by the backend: publish a new deployment of the backend script"
)

// Result is the normalized outcome of a call. On success Data holds the
// response JSON unchanged in shape.
type Result struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"-"`
	Kind    Kind            `json:"-"`
	Cause   error           `json:"-"`
	Op      string          `json:"-"`
}

// Decode unmarshals the success payload into v.
func (r Result) Decode(v any) error {
	if !r.Success {
		return r.Err()
	}
	if len(r.Data) == 0 {
		return nil
	}
	return json.Unmarshal(r.Data, v)
}

// Err returns nil for a successful result and an *Error otherwise.
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	return &Error{Op: r.Op, Kind: r.Kind, Message: r.Error, Cause: r.Cause}
}

// Error is a failed Result in error form.
type Error struct {
	Op      string
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Cause }

// Failure builds a failed Result with an application-level message.
func Failure(op, message string) Result {
	return Result{Success: false, Error: message, Kind: KindApplication, Op: op}
}

// Caller is anything that can perform gateway calls. Services depend on it so
// tests can substitute a fake.
type Caller interface {
	Call(ctx context.Context, op string, method Method, payload map[string]any, opts ...CallOption) Result
}

// Client is the HTTP implementation of Caller.
type Client struct {
	endpoint string
	http     *http.Client
	logger   *slog.Logger
	nonce    func() string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds every request. Zero keeps requests unbounded.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			clone := *c.http
			clone.Timeout = d
			c.http = &clone
		}
	}
}

// WithLogger sets the logger used for failure reports.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithNonce overrides the cache-busting nonce generator.
func WithNonce(fn func() string) Option {
	return func(c *Client) {
		if fn != nil {
			c.nonce = fn
		}
	}
}

// New creates a Client for endpoint.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: strings.TrimSpace(endpoint),
		http:     &http.Client{},
		nonce:    Nonce,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.OrDefault(c.logger).With("component", "gateway")
	return c
}

// Endpoint returns the configured endpoint.
func (c *Client) Endpoint() string { return c.endpoint }

type callOptions struct {
	detached bool
}

// CallOption adjusts a single call.
type CallOption func(*callOptions)

// Detached lets the request outlive the initiating context: cancelling ctx
// no longer aborts it. Use it only where nobody needs to observe a failure.
func Detached() CallOption {
	return func(o *callOptions) { o.detached = true }
}

// Nonce returns a unique value so intermediate caches never answer a call.
func Nonce() string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%d_%s", time.Now().UnixMilli(), random[:7])
}

// Call performs op. It never retries.
func (c *Client) Call(ctx context.Context, op string, method Method, payload map[string]any, opts ...CallOption) Result {
	var co callOptions
	for _, opt := range opts {
		opt(&co)
	}
	if co.detached {
		ctx = context.WithoutCancel(ctx)
	}

	if c.endpoint == "" {
		c.logger.Warn("gateway endpoint not configured", "op", op)
		return Result{Success: false, Error: MsgNotConfigured, Kind: KindConfig, Op: op}
	}

	req, err := c.newRequest(ctx, op, method, payload)
	if err != nil {
		return c.fail(op, KindTransport, MsgTransport, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return c.fail(op, KindTransport, MsgTransport, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.fail(op, KindTransport, MsgTransport, err)
	}

	return c.interpret(op, body)
}

func (c *Client) newRequest(ctx context.Context, op string, method Method, payload map[string]any) (*http.Request, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}

	q := u.Query()
	q.Set("action", op)
	q.Set("_t", c.nonce())

	var body io.Reader
	switch method {
	case GET:
		for k, v := range payload {
			if k == "action" || k == "_t" {
				continue
			}
			q.Set(k, formatParam(v))
		}
	case POST:
		fields := make(map[string]any, len(payload)+1)
		for k, v := range payload {
			fields[k] = v
		}
		fields["action"] = op
		encoded, err := json.Marshal(fields)
		if err != nil {
			return nil, fmt.Errorf("failed to encode payload: %w", err)
		}
		body = bytes.NewReader(encoded)
	default:
		return nil, fmt.Errorf("unsupported method %q", method)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, string(method), u.String(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "text/plain;charset=utf-8")
	return req, nil
}

func (c *Client) interpret(op string, body []byte) Result {
	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return c.fail(op, KindMalformed, MsgMalformed, err)
	}

	if obj, ok := parsed.(map[string]any); ok {
		if raw, has := obj["error"]; has && truthy(raw) {
			return c.fail(op, KindApplication, errorText(raw), nil)
		}
		if len(obj) == 0 {
			return c.fail(op, KindUnrecognized, MsgUnrecognized, nil)
		}
	}

	return Result{Success: true, Data: json.RawMessage(bytes.TrimSpace(body)), Op: op}
}

func (c *Client) fail(op string, kind Kind, message string, cause error) Result {
	attrs := []any{"op", op, "kind", string(kind), "message", message}
	if cause != nil {
		attrs = append(attrs, "cause", cause.Error())
	}
	c.logger.Warn("gateway call failed", attrs...)
	return Result{Success: false, Error: message, Kind: kind, Cause: cause, Op: op}
}

func formatParam(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case float64:
		return val != 0
	default:
		return true
	}
}

func errorText(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	encoded, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(encoded)
}

// Fields converts a JSON-tagged struct into a payload map.
func Fields(v any) (map[string]any, error) {
	encoded, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	fields := map[string]any{}
	if err := json.Unmarshal(encoded, &fields); err != nil {
		return nil, fmt.Errorf("payload must encode to a JSON object: %w", err)
	}
	return fields, nil
}
