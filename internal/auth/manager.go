// Package auth owns the OAuth token lifecycle: the interactive
// authorization-code flow, refreshes after a 401, and persistence of every
// token mutation through the credential store.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/avolkov/hh-autoapply/internal/store"
)

// Static errors for auth operations.
var (
	// ErrNoAuthCode is returned when the callback URL carries no code.
	ErrNoAuthCode = errors.New("auth: no authorization code in callback URL")
	// ErrNoRefreshToken is returned when a refresh is requested but no
	// refresh token is held.
	ErrNoRefreshToken = errors.New("auth: no refresh token available")
	// ErrPromptRequired is returned when no code prompt is provided.
	ErrPromptRequired = errors.New("auth: code prompt is required")
)

// Scope is the single OAuth scope the application requests.
const Scope = "vacancy_response"

// DefaultOAuthURL is the hh.ru OAuth root.
const DefaultOAuthURL = "https://hh.ru/oauth"

// CodePrompt obtains the post-login callback URL from the user. It receives
// the authorization URL the user must open in a browser and returns the URL
// the browser was redirected to.
type CodePrompt func(authURL string) (callbackURL string, err error)

// Manager holds the current token and moves it through its lifecycle:
// load from the store, interactive authorization when absent, and a single
// refresh exchange when the API client sees a 401.
type Manager struct {
	oauth      oauth2.Config
	tokens     *store.TokenStore
	prompt     CodePrompt
	httpClient *http.Client
	logger     *slog.Logger
	current    *store.Token
}

// Option is a function that configures a Manager.
type Option func(*Manager)

// WithOAuthURL overrides the OAuth root, mainly for tests.
func WithOAuthURL(u string) Option {
	return func(m *Manager) {
		u = strings.TrimRight(u, "/")
		m.oauth.Endpoint.AuthURL = u + "/authorize"
		m.oauth.Endpoint.TokenURL = u + "/token"
	}
}

// WithHTTPClient sets a custom HTTP client for token exchanges.
func WithHTTPClient(c *http.Client) Option {
	return func(m *Manager) {
		m.httpClient = c
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// NewManager creates a token manager. The prompt runs only when no persisted
// token exists.
func NewManager(clientID, clientSecret, redirectURI string, tokens *store.TokenStore, prompt CodePrompt, opts ...Option) *Manager {
	m := &Manager{
		oauth: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       []string{Scope},
			Endpoint: oauth2.Endpoint{
				AuthURL:  DefaultOAuthURL + "/authorize",
				TokenURL: DefaultOAuthURL + "/token",
				// Client credentials travel as form fields, not basic auth.
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		tokens:     tokens,
		prompt:     prompt,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// AuthURL returns the authorization URL the user opens in a browser.
func (m *Manager) AuthURL() string {
	return m.oauth.AuthCodeURL("")
}

// Ensure makes a token available, running the interactive authorization-code
// flow when no persisted token exists. A failure here is fatal for the run.
func (m *Manager) Ensure(ctx context.Context) error {
	tok, err := m.tokens.Load(ctx)
	if err == nil {
		m.current = tok
		m.logger.Info("token loaded")
		return nil
	}
	if !errors.Is(err, store.ErrNoToken) {
		return fmt.Errorf("auth: load token: %w", err)
	}

	m.logger.Info("no saved token, starting authorization")
	return m.authorize(ctx)
}

// AccessToken returns the current access token. Implements hh.TokenSource.
func (m *Manager) AccessToken() string {
	if m.current == nil {
		return ""
	}
	return m.current.AccessToken
}

// authorize runs the authorization-code flow: the user opens the
// authorization URL, logs in, and pastes the callback URL back; the code is
// exchanged for tokens which are then persisted.
func (m *Manager) authorize(ctx context.Context) error {
	if m.prompt == nil {
		return ErrPromptRequired
	}

	callback, err := m.prompt(m.AuthURL())
	if err != nil {
		return fmt.Errorf("auth: obtain callback URL: %w", err)
	}

	code, err := parseAuthCode(callback)
	if err != nil {
		return err
	}

	if m.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
	}

	tok, err := m.oauth.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("auth: exchange authorization code: %w", err)
	}

	m.setToken(ctx, &store.Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
	})
	m.logger.Info("authorization successful")
	return nil
}

// tokenResponse is the token endpoint payload for the refresh grant.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Refresh exchanges the refresh token for a new access token and persists
// it. The platform accepts the bare refresh_token grant without client
// credentials, so this is a plain form POST rather than oauth2.TokenSource,
// which always attaches them and retries on its own schedule.
func (m *Manager) Refresh(ctx context.Context) error {
	if m.current == nil || m.current.RefreshToken == "" {
		return ErrNoRefreshToken
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", m.current.RefreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.oauth.Endpoint.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("auth: create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("auth: refresh request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("auth: read refresh response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("auth: refresh failed with status %d: %s", resp.StatusCode, body)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return fmt.Errorf("auth: decode refresh response: %w", err)
	}

	next := &store.Token{
		AccessToken:  tr.AccessToken,
		RefreshToken: m.current.RefreshToken,
	}
	// The platform may rotate the refresh token
	if tr.RefreshToken != "" {
		next.RefreshToken = tr.RefreshToken
	}

	m.setToken(ctx, next)
	m.logger.Info("token refreshed")
	return nil
}

// setToken swaps the in-memory token and persists it. A save failure is
// logged but not fatal: the in-memory token still works for this run, the
// user will just have to re-authorize after the next restart.
func (m *Manager) setToken(ctx context.Context, t *store.Token) {
	m.current = t
	if err := m.tokens.Save(ctx, t); err != nil {
		m.logger.Error("save token failed", slog.String("error", err.Error()))
	}
}

// parseAuthCode extracts the code query parameter from the callback URL.
func parseAuthCode(callback string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(callback))
	if err != nil {
		return "", fmt.Errorf("auth: parse callback URL: %w", err)
	}

	code := u.Query().Get("code")
	if code == "" {
		return "", ErrNoAuthCode
	}
	return code, nil
}
