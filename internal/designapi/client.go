// Package designapi is the HTTP client for the remote design-generation API.
// Every call returns a tagged outcome; transport and protocol failures are
// carried in the outcome's Err field and never escape as panics or retries.
package designapi

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
	"time"
	"unicode/utf8"

	"github.com/kiranshivaraju/autodesign/pkg/models"
)

// Sentinel errors for design API failures.
var (
	ErrAPIUnreachable  = errors.New("design api unreachable")
	ErrAPITimeout      = errors.New("design api timeout")
	ErrRequestCanceled = errors.New("design api request canceled")
	ErrRequestRejected = errors.New("design api rejected request")
	ErrInvalidResponse = errors.New("design api returned invalid response")
	ErrInvalidLocation = errors.New("invalid status location")
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "autodesign/0.1"
	maxBodyBytes     = 32 << 20
	maxErrorSnippet  = 512
)

// SubmitKind tags the result of a submission.
type SubmitKind int

const (
	SubmitFailed SubmitKind = iota
	SubmitAccepted
	SubmitCompleted
)

func (k SubmitKind) String() string {
	switch k {
	case SubmitAccepted:
		return "accepted"
	case SubmitCompleted:
		return "completed"
	default:
		return "failed"
	}
}

// SubmitOutcome is the result of POST /ai-auto-design.
//
// Accepted carries the status-check Location and an optional immediate Body.
// Completed carries the synchronous result in Body. Failed carries Err.
type SubmitOutcome struct {
	Kind       SubmitKind
	Location   string
	Body       json.RawMessage
	StatusCode int
	Err        error
}

// PollOutcome is the result of one status check: either a decoded Result or Err.
type PollOutcome struct {
	Result *models.PollResult
	Err    error
}

// Client is the interface for talking to the design API.
type Client interface {
	Submit(ctx context.Context, doc models.DesignRequest) SubmitOutcome
	Poll(ctx context.Context, location string) PollOutcome
}

// HTTPClient implements Client over HTTP with bearer authentication.
type HTTPClient struct {
	baseURL   *url.URL
	token     string
	userAgent string
	client    *http.Client
}

// NewHTTPClient creates a client for the API rooted at baseURL
// (e.g. https://host/api/v1). Each request is bounded by timeout.
func NewHTTPClient(baseURL, token string, timeout time.Duration) (*HTTPClient, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPClient{
		baseURL:   base,
		token:     token,
		userAgent: defaultUserAgent,
		client:    &http.Client{Timeout: timeout},
	}, nil
}

// BaseURL returns the API root the client resolves relative locations against.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL.String()
}

// SubmitURL returns the absolute submission endpoint.
func (c *HTTPClient) SubmitURL() string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + submitPath
	return u.String()
}

func (c *HTTPClient) Submit(ctx context.Context, doc models.DesignRequest) SubmitOutcome {
	payload, err := json.Marshal(doc)
	if err != nil {
		return SubmitOutcome{Kind: SubmitFailed, Err: fmt.Errorf("encoding design request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.SubmitURL(), bytes.NewReader(payload))
	if err != nil {
		return SubmitOutcome{Kind: SubmitFailed, Err: fmt.Errorf("building request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.setHeaders(httpReq)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return SubmitOutcome{Kind: SubmitFailed, Err: classifyError(err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return SubmitOutcome{Kind: SubmitFailed, StatusCode: resp.StatusCode, Err: classifyError(err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return SubmitOutcome{
			Kind:       SubmitFailed,
			StatusCode: resp.StatusCode,
			Err:        rejection(resp, body),
		}
	}

	// A 202 without a location cannot be tracked; it is treated like a
	// synchronous success carrying whatever body came back.
	if location := resp.Header.Get("Location"); resp.StatusCode == http.StatusAccepted && location != "" {
		out := SubmitOutcome{Kind: SubmitAccepted, Location: location, StatusCode: resp.StatusCode}
		if len(bytes.TrimSpace(body)) > 0 && json.Valid(body) {
			out.Body = json.RawMessage(body)
		}
		return out
	}

	if len(bytes.TrimSpace(body)) == 0 {
		body = []byte(`{"message":"Success"}`)
	}
	if !json.Valid(body) {
		return SubmitOutcome{
			Kind:       SubmitFailed,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%w: body is not JSON", ErrInvalidResponse),
		}
	}
	return SubmitOutcome{Kind: SubmitCompleted, Body: json.RawMessage(body), StatusCode: resp.StatusCode}
}

func (c *HTTPClient) Poll(ctx context.Context, location string) PollOutcome {
	u, err := c.ResolveLocation(location)
	if err != nil {
		return PollOutcome{Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return PollOutcome{Err: fmt.Errorf("building request: %w", err)}
	}
	c.setHeaders(httpReq)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return PollOutcome{Err: classifyError(err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return PollOutcome{Err: classifyError(err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return PollOutcome{Err: rejection(resp, body)}
	}

	result, err := decodeStatus(body)
	if err != nil {
		return PollOutcome{Err: err}
	}
	return PollOutcome{Result: result}
}

func (c *HTTPClient) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// decodeStatus parses a status payload. An empty body decodes as {} and a
// missing codeMajor is reported as "unknown", which is terminal.
func decodeStatus(body []byte) (*models.PollResult, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		body = []byte("{}")
	}

	var payload statusResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	code := codeMajorText(payload.CodeMajor)
	return &models.PollResult{
		CodeMajor:  code,
		Result:     payload.Result,
		Body:       json.RawMessage(body),
		ReceivedAt: time.Now().UTC(),
	}, nil
}

// rejection builds the error for a non-2xx response, keeping the status
// text and the start of the body so the caller can show it verbatim.
func rejection(resp *http.Response, body []byte) error {
	snippet := truncate(strings.TrimSpace(string(body)), maxErrorSnippet)
	target := resp.Request.URL.Redacted()
	if snippet == "" {
		return fmt.Errorf("%w: %s for url: %s", ErrRequestRejected, resp.Status, target)
	}
	return fmt.Errorf("%w: %s for url: %s: %s", ErrRequestRejected, resp.Status, target, snippet)
}

// truncate shortens s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// classifyError maps transport-level errors to sentinel errors. A canceled
// caller context keeps context.Canceled in the chain.
func classifyError(err error) error {
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", ErrRequestCanceled, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrAPITimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrAPITimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrAPIUnreachable, err)
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		return nil, fmt.Errorf("design api base url must start with http:// or https://, got %q", raw)
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse design api base url %q: %w", raw, err)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

type statusResponse struct {
	CodeMajor json.RawMessage `json:"codeMajor"`
	Result    json.RawMessage `json:"result"`
}

// codeMajorText renders the status field as text. Strings are unquoted;
// numbers, booleans and objects keep their JSON form, so any value other
// than "processing" is terminal. Missing, null or empty is "unknown".
func codeMajorText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return models.CodeMajorUnknown
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return models.CodeMajorUnknown
		}
		return s
	}
	return string(raw)
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
