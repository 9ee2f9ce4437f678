// ABOUTME: OAuth2 token lifecycle for the WHOOP API: code exchange, refresh and current state.
// ABOUTME: Token requests go through the transport Requester; the authorize URL comes from x/oauth2.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/harperreed/whoop/internal/transport"
	"golang.org/x/oauth2"
)

const (
	// DefaultAuthURL is the WHOOP authorization page.
	DefaultAuthURL = "https://api.prod.whoop.com/oauth/oauth2/auth"
	// TokenPath is the token endpoint relative to the API base URL.
	TokenPath = "/oauth/oauth2/token"
)

// DefaultScopes are requested when authorizing.
var DefaultScopes = []string{"offline", "read:recovery", "read:cycles", "read:workout", "read:sleep"}

// ErrTokenExchangeFailed is returned when the token endpoint does not yield a usable token.
var ErrTokenExchangeFailed = errors.New("token exchange failed")

// State is the authentication state of the manager.
type State int

const (
	Unauthenticated State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// Config holds configuration for creating a Manager.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	// AuthURL is the authorization page. Empty means DefaultAuthURL.
	AuthURL string
	// BaseURL is used only to build the token URL advertised by OAuthConfig.
	BaseURL string
	Scopes  []string
	// Requester posts to TokenPath.
	Requester transport.Requester
	// RefreshToken seeds the manager, e.g. from the config file.
	RefreshToken string
	// OnTokenRefresh is called after every successful exchange.
	OnTokenRefresh func(tok *oauth2.Token)
	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Manager holds the process's token state.
type Manager struct {
	cfg    Config
	oauth  *oauth2.Config
	logger *slog.Logger
	now    func() time.Time

	mu       sync.RWMutex
	token    oauth2.Token
	obtained time.Time
}

// NewManager creates a manager. The requester is required.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Requester == nil {
		return nil, fmt.Errorf("auth: requester is required")
	}
	if cfg.AuthURL == "" {
		cfg.AuthURL = DefaultAuthURL
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = transport.DefaultBaseURL
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = DefaultScopes
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		cfg: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.BaseURL + TokenPath,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		logger: logger,
		now:    time.Now,
	}
	m.token.RefreshToken = cfg.RefreshToken
	return m, nil
}

// OAuthConfig returns the x/oauth2 view of the client registration.
func (m *Manager) OAuthConfig() *oauth2.Config { return m.oauth }

// AuthCodeURL returns the authorization page URL carrying state.
func (m *Manager) AuthCodeURL(state string) string {
	return m.oauth.AuthCodeURL(state)
}

// State reports whether an access token is held.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.token.AccessToken == "" {
		return Unauthenticated
	}
	return Authenticated
}

// AccessToken returns the current bearer token, or "" when unauthenticated.
func (m *Manager) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token.AccessToken
}

// Token returns a copy of the current token state.
func (m *Manager) Token() oauth2.Token {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// Obtained returns when the current access token was issued.
func (m *Manager) Obtained() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.obtained
}

// SetRefreshToken installs a refresh token, e.g. one supplied by the user.
func (m *Manager) SetRefreshToken(tok string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token.RefreshToken = tok
}

// Exchange trades an authorization code for tokens.
func (m *Manager) Exchange(ctx context.Context, code string) error {
	if code == "" {
		return fmt.Errorf("exchange: empty code: %w", ErrTokenExchangeFailed)
	}
	form := m.baseForm("authorization_code")
	form.Set("code", code)
	return m.request(ctx, "exchange", form, "")
}

// Refresh trades the current refresh token for new tokens.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.RLock()
	refresh := m.token.RefreshToken
	m.mu.RUnlock()

	return m.RefreshWith(ctx, refresh)
}

// RefreshWith trades tok for new tokens. tok becomes the stored refresh
// token only if the exchange succeeds; a failure leaves the state unchanged.
func (m *Manager) RefreshWith(ctx context.Context, tok string) error {
	if tok == "" {
		return fmt.Errorf("refresh: no refresh token: %w", ErrTokenExchangeFailed)
	}
	form := m.baseForm("refresh_token")
	form.Set("code", tok)
	form.Set("refresh_token", tok)
	return m.request(ctx, "refresh", form, tok)
}

func (m *Manager) baseForm(grant string) url.Values {
	form := url.Values{}
	form.Set("grant_type", grant)
	form.Set("client_id", m.cfg.ClientID)
	form.Set("client_secret", m.cfg.ClientSecret)
	form.Set("scope", "offline")
	form.Set("redirect_uri", m.cfg.RedirectURI)
	return form
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
}

// request posts form to the token endpoint. When the response omits a
// refresh token, sent is kept, or the current one if sent is empty.
func (m *Manager) request(ctx context.Context, op string, form url.Values, sent string) error {
	resp, err := m.cfg.Requester.Perform(ctx, &transport.Request{
		Method: http.MethodPost,
		Path:   TokenPath,
		Header: http.Header{"Content-Type": {"application/x-www-form-urlencoded"}},
		Body:   []byte(form.Encode()),
	})
	if err != nil {
		m.logger.Warn("token request failed", "op", op, "error", err)
		return fmt.Errorf("%s: %w: %v", op, ErrTokenExchangeFailed, err)
	}
	if resp.Status != http.StatusOK {
		m.logger.Warn("token request rejected", "op", op, "status", resp.Status)
		return fmt.Errorf("%s: status %d: %w", op, resp.Status, ErrTokenExchangeFailed)
	}

	var tr tokenResponse
	if err := json.Unmarshal(resp.Body, &tr); err != nil {
		return fmt.Errorf("%s: parse token response: %w: %v", op, ErrTokenExchangeFailed, err)
	}
	if tr.AccessToken == "" {
		return fmt.Errorf("%s: response has no access_token: %w", op, ErrTokenExchangeFailed)
	}

	now := m.now()
	m.mu.Lock()
	refresh := tr.RefreshToken
	if refresh == "" {
		refresh = sent
	}
	if refresh == "" {
		refresh = m.token.RefreshToken
	}
	m.token = oauth2.Token{
		AccessToken:  tr.AccessToken,
		RefreshToken: refresh,
		TokenType:    tr.TokenType,
		ExpiresIn:    tr.ExpiresIn,
	}
	if tr.ExpiresIn > 0 {
		m.token.Expiry = now.Add(time.Duration(tr.ExpiresIn) * time.Second)
	}
	m.obtained = now
	tok := m.token
	m.mu.Unlock()

	m.logger.Info("token updated", "op", op, "expires_in", tr.ExpiresIn)
	if m.cfg.OnTokenRefresh != nil {
		m.cfg.OnTokenRefresh(&tok)
	}
	return nil
}
