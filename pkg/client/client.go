// Package client implements the authenticated HTTP client for the UserDeck
// API. Every response is unwrapped from the uniform envelope and every
// failure is normalized into the error taxonomy, so callers branch on causes
// instead of status codes. The client never retries and never swallows a
// failure.
package client

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	errs "github.com/userdeck/userdeck/pkg/errors"
	"github.com/userdeck/userdeck/pkg/interfaces"
	"github.com/userdeck/userdeck/pkg/session"
	"github.com/userdeck/userdeck/pkg/types"
)

// DefaultTimeout bounds a request end to end when the config leaves the
// timeout unset.
const DefaultTimeout = 10 * time.Second

// Config configures the API client
type Config struct {
	// BaseURL is the root of the backend API, e.g. "http://localhost:8000"
	BaseURL string
	// Timeout bounds each request end to end. Zero means DefaultTimeout.
	Timeout time.Duration
	// Store holds the bearer credential between calls. Required.
	Store session.Store
	// OnUnauthorized runs after a credential rejection has cleared the
	// store, typically to send the UI back to the login screen. Optional.
	OnUnauthorized func()
	// Logger receives request-level diagnostics. Optional.
	Logger interfaces.Logger
}

// Client is the authenticated HTTP client for the UserDeck API
type Client struct {
	http           *resty.Client
	store          session.Store
	onUnauthorized func()
	logger         interfaces.Logger
}

// New creates an API client from cfg
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errs.NewConfigError("client base URL is required")
	}
	if cfg.Store == nil {
		return nil, errs.NewConfigError("client session store is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	hc := resty.New()
	hc.SetBaseURL(strings.TrimRight(cfg.BaseURL, "/"))
	hc.SetTimeout(timeout)
	hc.SetHeader("User-Agent", "UserDeck/1.0")

	return &Client{
		http:           hc,
		store:          cfg.Store,
		onUnauthorized: cfg.OnUnauthorized,
		logger:         cfg.Logger,
	}, nil
}

// Store exposes the session store the client reads its credential from
func (c *Client) Store() session.Store {
	return c.store
}

// Get issues an authenticated GET and returns the envelope payload
func Get[T any](ctx context.Context, c *Client, path string, query map[string]string) (T, error) {
	return do[T](ctx, c, http.MethodGet, path, query, nil)
}

// Post issues an authenticated POST with a JSON body and returns the
// envelope payload.
func Post[T any](ctx context.Context, c *Client, path string, body interface{}) (T, error) {
	return do[T](ctx, c, http.MethodPost, path, nil, body)
}

// Put issues an authenticated PUT with a JSON body and returns the envelope
// payload.
func Put[T any](ctx context.Context, c *Client, path string, body interface{}) (T, error) {
	return do[T](ctx, c, http.MethodPut, path, nil, body)
}

// Delete issues an authenticated DELETE and returns the envelope payload
func Delete[T any](ctx context.Context, c *Client, path string, query map[string]string) (T, error) {
	return do[T](ctx, c, http.MethodDelete, path, query, nil)
}

// do runs one request through the full pipeline: path validation, bearer
// injection when a credential is present, dispatch, and classification of
// whatever came back.
func do[T any](ctx context.Context, c *Client, method, path string, query map[string]string, body interface{}) (T, error) {
	var zero T

	if err := validatePath(path); err != nil {
		return zero, errs.NewConfigError(err.Error())
	}

	req := c.http.R().SetContext(ctx)
	if token := c.store.GetCredential(); token != "" {
		req.SetAuthToken(token)
	}
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	if body != nil {
		req.SetBody(body)
	}

	start := time.Now()
	resp, err := req.Execute(method, path)
	if err != nil {
		c.warn("api request failed", map[string]interface{}{
			"method": method,
			"path":   path,
			"error":  err.Error(),
		})
		return zero, classifyTransportError(err)
	}

	c.debug("api request completed", map[string]interface{}{
		"method":      method,
		"path":        path,
		"status":      resp.StatusCode(),
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return decode[T](c, resp)
}

// decode turns a received response into the envelope payload or a
// normalized error. A non-zero envelope code is a failure even on a 2xx
// transport status.
func decode[T any](c *Client, resp *resty.Response) (T, error) {
	var zero T

	if resp.IsError() {
		return zero, c.failFromStatus(resp)
	}

	var env types.Envelope[T]
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return zero, errs.NewConfigError(fmt.Sprintf("undecodable response body: %v", err))
	}
	if !env.IsSuccess() {
		return zero, withRequestID(c.failFromCode(env.Code, env.Msg), resp)
	}

	return env.Data, nil
}

// failFromStatus classifies an error-status response. The failure
// envelope's msg becomes the human message when the body carries one.
func (c *Client) failFromStatus(resp *resty.Response) *errs.Error {
	msg := ""
	var env types.Envelope[any]
	if err := json.Unmarshal(resp.Body(), &env); err == nil {
		msg = env.Msg
	}

	e := errs.FromStatus(resp.StatusCode(), msg)
	if resp.StatusCode() == http.StatusUnauthorized {
		c.handleUnauthorized()
	}
	return withRequestID(e, resp)
}

// failFromCode classifies an application-level failure reported through the
// envelope of a 2xx response.
func (c *Client) failFromCode(code int, msg string) *errs.Error {
	e := errs.FromStatus(code, msg)
	if errs.CauseForStatus(code) == errs.CauseUnauthorized {
		c.handleUnauthorized()
	}
	return e
}

// handleUnauthorized runs the credential rejection side effects: the stored
// credential is dropped and the redirect hook fires. Called at most once per
// rejected request.
func (c *Client) handleUnauthorized() {
	c.store.ClearCredential()
	c.debug("credential rejected, session cleared", nil)
	if c.onUnauthorized != nil {
		c.onUnauthorized()
	}
}

// classifyTransportError separates failures where a request went out but no
// response came back from failures raised before dispatch.
func classifyTransportError(err error) *errs.Error {
	var urlErr *url.Error
	if stderrors.As(err, &urlErr) {
		return errs.NewNetworkError(err)
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return errs.NewNetworkError(err)
	}
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
		return errs.NewNetworkError(err)
	}
	return errs.NewConfigError(err.Error())
}

// validatePath rejects request paths that could never reach the backend
func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("request path is empty")
	}
	if !strings.HasPrefix(path, "/") {
		return fmt.Errorf("request path %q must start with /", path)
	}
	if strings.ContainsAny(path, " \t\r\n") {
		return fmt.Errorf("request path %q contains whitespace", path)
	}
	return nil
}

func withRequestID(e *errs.Error, resp *resty.Response) *errs.Error {
	if rid := resp.Header().Get(types.RequestIDHeader); rid != "" {
		e.WithRequestID(rid)
	}
	return e
}

func (c *Client) debug(msg string, fields map[string]interface{}) {
	if c.logger == nil {
		return
	}
	if fields == nil {
		c.logger.Debug(msg)
		return
	}
	c.logger.Debug(msg, fields)
}

func (c *Client) warn(msg string, fields map[string]interface{}) {
	if c.logger == nil {
		return
	}
	c.logger.Warn(msg, fields)
}
