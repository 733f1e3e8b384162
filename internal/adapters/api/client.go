package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	DefaultTimeout      = 10 * time.Second
	DefaultMaxRetries   = 2
	DefaultRetryBackoff = 500 * time.Millisecond

	maxResponseBytes = 16 << 20
	requestIDHeader  = "X-Request-ID"
)

// Session supplies the bearer credential and refreshes it after a 401.
type Session interface {
	Current(ctx context.Context) (domain.Credential, error)
	RefreshExpired(ctx context.Context, staleAccessToken string) (domain.Credential, error)
}

type Config struct {
	BaseURL string
	// Timeout bounds each attempt, not the whole Send.
	Timeout time.Duration
	// MaxRetries is the number of resends after a transient failure. Zero
	// disables retries.
	MaxRetries   int
	RetryBackoff time.Duration
	// RetryServerErrors also retries 5xx responses.
	RetryServerErrors bool
	UserAgent         string
	HTTPClient        *http.Client
}

func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:      baseURL,
		Timeout:      DefaultTimeout,
		MaxRetries:   DefaultMaxRetries,
		RetryBackoff: DefaultRetryBackoff,
	}
}

type Client struct {
	base    *url.URL
	cfg     Config
	http    *http.Client
	session Session
	logger  zerolog.Logger
}

// Request describes one logical call. Path is relative to the base URL unless
// it is an absolute http(s) URL.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	// Anonymous requests never carry a bearer token and never refresh.
	Anonymous bool
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Attempts   int
}

// NewClient builds a client for cfg.BaseURL. A nil session sends every request
// without credentials.
func NewClient(cfg Config, session Session, logger zerolog.Logger) (*Client, error) {
	base, err := parseBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBackoff < 0 {
		cfg.RetryBackoff = 0
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		base:    base,
		cfg:     cfg,
		http:    httpClient,
		session: session,
		logger:  logger.With().Str("component", "api").Logger(),
	}, nil
}

func (c *Client) BaseURL() string {
	return c.base.String()
}

// Send dispatches req and returns the response of a 2xx or 3xx status, or an
// *Error. Transient failures are resent up to Config.MaxRetries times with the
// same X-Request-ID. Writes are resent too, so a write whose response was lost
// may be applied more than once. A 401 triggers one session refresh and one
// replay with the new token.
func (c *Client) Send(ctx context.Context, req Request) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	endpoint, err := c.endpoint(req.Path, req.Query)
	if err != nil {
		return nil, err
	}

	var body []byte
	if req.Body != nil {
		body, err = json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s body: %w", method, req.Path, err)
		}
	}

	call := outgoing{method: method, path: req.Path, endpoint: endpoint, body: body, requestID: uuid.NewString()}

	authenticated := c.session != nil && !req.Anonymous
	if authenticated {
		cred, err := c.session.Current(ctx)
		if errors.Is(err, domain.ErrAuthExpired) {
			return nil, &Error{Kind: domain.ErrAuthExpired, Method: method, Path: req.Path, Message: "token refresh failed", Err: err}
		}
		if err != nil {
			return nil, fmt.Errorf("load session: %w", err)
		}
		call.token = cred.AccessToken
	}

	resp, err := c.dispatch(ctx, call)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && authenticated {
		c.logger.Info().Str("request_id", call.requestID).Str("path", req.Path).Msg("access token rejected, refreshing")

		fresh, err := c.session.RefreshExpired(ctx, call.token)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("%s %s: %w", method, req.Path, ctxErr)
			}
			return nil, &Error{
				Kind:       domain.ErrAuthExpired,
				Method:     method,
				Path:       req.Path,
				StatusCode: http.StatusUnauthorized,
				Message:    "token refresh failed",
				Err:        err,
			}
		}

		call.token = fresh.AccessToken
		replayed, err := c.dispatch(ctx, call)
		if err != nil {
			return nil, err
		}
		replayed.Attempts += resp.Attempts
		resp = replayed
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, errorFromResponse(method, req.Path, resp)
	}

	return resp, nil
}

// Do sends req and decodes a JSON response body into out. A nil out or an
// empty body decodes nothing.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	resp, err := c.Send(ctx, req)
	if err != nil {
		return err
	}

	if out == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}

	if err := json.Unmarshal(resp.Body, out); err != nil {
		method := req.Method
		if method == "" {
			method = http.MethodGet
		}
		return fmt.Errorf("decode %s %s response: %w", method, req.Path, err)
	}
	return nil
}

type outgoing struct {
	method    string
	path      string
	endpoint  string
	body      []byte
	requestID string
	token     string
}

// dispatch sends call until it gets a non-retryable outcome or the retry budget
// is spent. Parent context cancellation is never retried.
func (c *Client) dispatch(ctx context.Context, call outgoing) (*Response, error) {
	for attempt := 1; ; attempt++ {
		resp, err := c.attempt(ctx, call)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("%s %s: %w", call.method, call.path, ctxErr)
			}

			netErr := &Error{Kind: domain.ErrNetwork, Method: call.method, Path: call.path, Message: describeTransportError(err), Err: err}
			if !isTransient(err) || attempt > c.cfg.MaxRetries {
				return nil, netErr
			}

			c.logger.Warn().Err(err).Str("request_id", call.requestID).Int("attempt", attempt).Msg("request failed, retrying")
		} else {
			resp.Attempts = attempt
			if resp.StatusCode < http.StatusInternalServerError || !c.cfg.RetryServerErrors || attempt > c.cfg.MaxRetries {
				return resp, nil
			}

			c.logger.Warn().Int("status", resp.StatusCode).Str("request_id", call.requestID).Int("attempt", attempt).Msg("server error, retrying")
		}

		if err := sleep(ctx, c.cfg.RetryBackoff); err != nil {
			return nil, fmt.Errorf("%s %s: %w", call.method, call.path, err)
		}
	}
}

func (c *Client) attempt(ctx context.Context, call outgoing) (*Response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var body io.Reader
	if call.body != nil {
		body = bytes.NewReader(call.body)
	}

	httpReq, err := http.NewRequestWithContext(attemptCtx, call.method, call.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(requestIDHeader, call.requestID)
	if call.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if call.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+call.token)
	}
	if c.cfg.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	c.logger.Debug().Str("method", call.method).Str("path", call.path).Str("request_id", call.requestID).Msg("dispatch")

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer func() { _ = httpResp.Body.Close() }()

	payload, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return &Response{StatusCode: httpResp.StatusCode, Header: httpResp.Header, Body: payload}, nil
}

func (c *Client) endpoint(path string, query url.Values) (string, error) {
	if path == "" {
		return "", errors.New("api path is required")
	}

	var target *url.URL
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		parsed, err := url.Parse(path)
		if err != nil {
			return "", fmt.Errorf("parse api url: %w", err)
		}
		target = parsed
	} else {
		ref, err := url.Parse(strings.TrimPrefix(path, "/"))
		if err != nil {
			return "", fmt.Errorf("parse api path: %w", err)
		}
		target = c.base.ResolveReference(ref)
	}

	if len(query) > 0 {
		merged := target.Query()
		for key, values := range query {
			for _, value := range values {
				merged.Add(key, value)
			}
		}
		target.RawQuery = merged.Encode()
	}

	return target.String(), nil
}

// parseBaseURL keeps a trailing slash on the path so relative endpoint paths
// resolve below it.
func parseBaseURL(raw string) (*url.URL, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errors.New("api base url is required")
	}

	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, errors.New("api base url must use http or https")
	}
	if parsed.Host == "" {
		return nil, errors.New("api base url host is required")
	}
	if !strings.HasSuffix(parsed.Path, "/") {
		parsed.Path += "/"
	}
	return parsed, nil
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.EOF)
}

func describeTransportError(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	case errors.Is(err, syscall.ECONNREFUSED):
		return "connection refused"
	case errors.Is(err, syscall.ECONNRESET):
		return "connection reset"
	default:
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return "request timed out"
		}
		return err.Error()
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
