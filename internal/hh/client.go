// Package hh is a client for the hh.ru REST API, covering the endpoints this
// application needs: vacancy search, resume status, the negotiations list,
// and application submission with outcome classification.
package hh

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Static errors for hh client operations.
var (
	// ErrTokenSourceRequired is returned when no token source is provided.
	ErrTokenSourceRequired = errors.New("hh: token source is required")
	// ErrAuthFailed is returned when a request stays unauthorized after the
	// single refresh attempt, or when the refresh itself fails.
	ErrAuthFailed = errors.New("hh: authentication failed")
	// ErrRequestFailed is returned when a read endpoint responds with an
	// unexpected status code.
	ErrRequestFailed = errors.New("hh: request failed")
)

// TokenSource supplies the bearer token and refreshes it after a 401.
type TokenSource interface {
	// AccessToken returns the current access token.
	AccessToken() string
	// Refresh exchanges the refresh token for a new access token.
	Refresh(ctx context.Context) error
}

// API is the interface for the hh.ru operations used by other packages.
type API interface {
	// Resume fetches a resume by ID for the pre-flight status check.
	Resume(ctx context.Context, id string) (*Resume, error)

	// Negotiations lists the user's existing applications.
	Negotiations(ctx context.Context, perPage int) (*NegotiationList, error)

	// SearchVacancies fetches one page of vacancy search results, ordered
	// by publication time on the server side.
	SearchVacancies(ctx context.Context, params SearchParams, page, perPage int) (*SearchPage, error)

	// Apply submits an application for a vacancy and classifies the result.
	// The returned error is non-nil only for authentication failures;
	// transport failures classify as OutcomeNetworkError.
	Apply(ctx context.Context, vacancyID, resumeID, message string) (outcome Outcome, applicationID string, err error)
}

// DefaultBaseURL is the hh.ru REST API root.
const DefaultBaseURL = "https://api.hh.ru"

// defaultUserAgent identifies the application to the platform, which
// rejects requests without a client identification header.
const defaultUserAgent = "hh-autoapply"

// Client is the HTTP implementation of the API interface.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	tokens     TokenSource
	logger     *slog.Logger
}

var _ API = (*Client)(nil)

// ClientOption is a function that configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(hc *Client) {
		hc.httpClient = c
	}
}

// WithBaseURL sets a custom API root, mainly for tests.
func WithBaseURL(u string) ClientOption {
	return func(hc *Client) {
		hc.baseURL = strings.TrimRight(u, "/")
	}
}

// WithUserAgent sets the client identification header value.
func WithUserAgent(ua string) ClientOption {
	return func(hc *Client) {
		hc.userAgent = ua
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) ClientOption {
	return func(hc *Client) {
		hc.logger = l
	}
}

// NewClient creates a new hh.ru API client. The token source must be
// provided; every request carries its bearer token.
func NewClient(tokens TokenSource, opts ...ClientOption) (*Client, error) {
	if tokens == nil {
		return nil, ErrTokenSourceRequired
	}

	c := &Client{
		baseURL:    DefaultBaseURL,
		userAgent:  defaultUserAgent,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		tokens:     tokens,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Resume fetches a resume by ID.
func (c *Client) Resume(ctx context.Context, id string) (*Resume, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/resumes/"+id, nil, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: resume status %d", ErrRequestFailed, status)
	}

	var r Resume
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("hh: decode resume: %w", err)
	}
	return &r, nil
}

// Negotiations lists existing applications, newest first.
func (c *Client) Negotiations(ctx context.Context, perPage int) (*NegotiationList, error) {
	query := url.Values{}
	if perPage > 0 {
		query.Set("per_page", strconv.Itoa(perPage))
	}

	status, body, err := c.do(ctx, http.MethodGet, "/negotiations", query, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: negotiations status %d", ErrRequestFailed, status)
	}

	var list NegotiationList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("hh: decode negotiations: %w", err)
	}
	return &list, nil
}

// SearchVacancies fetches one page of search results. The order_by sort
// directive is passed through; results are never re-sorted locally.
func (c *Client) SearchVacancies(ctx context.Context, params SearchParams, page, perPage int) (*SearchPage, error) {
	query := params.values()
	query.Set("per_page", strconv.Itoa(perPage))
	query.Set("page", strconv.Itoa(page))
	query.Set("order_by", "publication_time")

	status, body, err := c.do(ctx, http.MethodGet, "/vacancies", query, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: vacancy search status %d", ErrRequestFailed, status)
	}

	var result SearchPage
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("hh: decode search page: %w", err)
	}
	return &result, nil
}

// Apply submits an application referencing the vacancy and resume, with the
// cover message attached when non-empty.
func (c *Client) Apply(ctx context.Context, vacancyID, resumeID, message string) (Outcome, string, error) {
	form := url.Values{}
	form.Set("vacancy_id", vacancyID)
	form.Set("resume_id", resumeID)
	if message != "" {
		form.Set("message", message)
	}

	status, body, err := c.do(ctx, http.MethodPost, "/negotiations", nil, form)
	if err != nil {
		if errors.Is(err, ErrAuthFailed) {
			return "", "", err
		}
		c.logger.Error("application request failed",
			slog.String("vacancy_id", vacancyID),
			slog.String("error", err.Error()),
		)
		return OutcomeNetworkError, "", nil
	}

	outcome, applicationID := classify(status, body)
	return outcome, applicationID, nil
}

// classify maps an application-submit response to an Outcome following the
// platform's error conventions.
func classify(status int, body []byte) (Outcome, string) {
	switch {
	case status == http.StatusCreated:
		var ok applyResponse
		_ = json.Unmarshal(body, &ok)
		return OutcomeSuccess, ok.ID

	case status == http.StatusForbidden:
		var apiErr apiError
		if err := json.Unmarshal(body, &apiErr); err == nil && len(apiErr.Errors) > 0 {
			switch apiErr.Errors[0].Value {
			case "already_applied":
				return OutcomeAlreadyApplied, ""
			case "limit_exceeded":
				return OutcomeLimitExceeded, ""
			}
		}
		return OutcomeForbidden, ""

	case status == http.StatusBadRequest:
		var apiErr apiError
		if err := json.Unmarshal(body, &apiErr); err == nil &&
			strings.Contains(apiErr.Description, dailyLimitMarker) {
			return OutcomeDailyLimitExceeded, ""
		}
		return OutcomeBadRequest, ""

	case status >= 400:
		return httpErrorOutcome(status), ""

	default:
		return unexpectedCodeOutcome(status), ""
	}
}

// do issues an authenticated request and returns the status code and body.
// On a 401 it refreshes the token exactly once and retries the original
// request; a second 401 or a failed refresh surfaces as ErrAuthFailed.
func (c *Client) do(ctx context.Context, method, path string, query, form url.Values) (int, []byte, error) {
	status, body, err := c.send(ctx, method, path, query, form)
	if err != nil {
		return 0, nil, err
	}

	if status == http.StatusUnauthorized {
		if rerr := c.tokens.Refresh(ctx); rerr != nil {
			return 0, nil, fmt.Errorf("%w: refresh: %v", ErrAuthFailed, rerr)
		}
		c.logger.Info("token refreshed after 401, retrying request",
			slog.String("method", method),
			slog.String("path", path),
		)

		status, body, err = c.send(ctx, method, path, query, form)
		if err != nil {
			return 0, nil, err
		}
		if status == http.StatusUnauthorized {
			return 0, nil, ErrAuthFailed
		}
	}

	return status, body, nil
}

// send performs a single HTTP request with the bearer and client
// identification headers.
func (c *Client) send(ctx context.Context, method, path string, query, form url.Values) (int, []byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if form != nil {
		bodyReader = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return 0, nil, fmt.Errorf("hh: create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.tokens.AccessToken())
	req.Header.Set("HH-User-Agent", c.userAgent)
	req.Header.Set("User-Agent", c.userAgent)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("hh: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("hh: read response: %w", err)
	}

	return resp.StatusCode, body, nil
}
