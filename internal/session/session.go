package session

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"wfseller/internal/common"
	"wfseller/internal/credentials"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
)

type State int

const (
	LoggedOut State = iota
	LoggedIn
)

func (s State) String() string {
	if s == LoggedIn {
		return "logged in"
	}
	return "logged out"
}

// CredentialStore is the part of credentials.Store the session needs.
type CredentialStore interface {
	Read(field credentials.Field) (string, error)
	UpdateToken(token string) error
}

type signinPayload struct {
	AuthType string `json:"auth_type"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Response is a fully read marketplace response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Manager performs the signin handshake and hands out authenticated requests.
type Manager struct {
	baseURL string
	client  *http.Client
	store   CredentialStore

	mu    sync.RWMutex
	state State
	token string
}

func NewManager(baseURL string, client *http.Client, store CredentialStore) *Manager {
	return &Manager{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		store:   store,
	}
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// Login signs in with the stored email and password and persists the issued
// token. It does nothing while already logged in.
func (m *Manager) Login(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == LoggedIn {
		return nil
	}

	email, err := m.store.Read(credentials.Email)
	if err != nil {
		return err
	}
	password, err := m.store.Read(credentials.Password)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(signinPayload{
		AuthType: "header",
		Email:    email,
		Password: password,
	})
	if err != nil {
		return fmt.Errorf("error encoding signin payload: %w", err)
	}

	endpoint := "POST /auth/signin"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/auth/signin", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("error creating signin request: %w", err)
	}
	setMarketHeaders(req.Header)

	log.Debug("Signing in", "Email", email)
	resp, err := m.client.Do(req)
	if err != nil {
		return common.TransportError(endpoint, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned status %d", common.ErrAuthenticationFailed, endpoint, resp.StatusCode)
	}

	token := resp.Header.Get("Authorization")
	if token == "" {
		return fmt.Errorf("%w: %s returned no authorization header", common.ErrAuthenticationFailed, endpoint)
	}

	if err := m.store.UpdateToken(token); err != nil {
		return fmt.Errorf("persist session token: %w", err)
	}

	m.token = token
	m.state = LoggedIn

	if exp, ok := tokenExpiry(token); ok {
		log.Debug("Session token issued", "Expires", exp.Format(time.RFC3339))
	}

	return nil
}

// invalidate drops the session the caller observed. The next marketplace call
// needs a fresh Login.
func (m *Manager) invalidate(token string) {
	// Another caller may already have logged in again with a newer token.
	if m.token != token {
		return
	}
	m.state = LoggedOut
	m.token = ""
}

// Do sends an authenticated request to the marketplace. body, when non-nil, is
// JSON encoded. A 401 ends the session and yields common.ErrSessionExpired.
func (m *Manager) Do(ctx context.Context, method, path string, body any) (*Response, error) {
	m.mu.RLock()
	state, token := m.state, m.token
	m.mu.RUnlock()

	endpoint := method + " " + path
	if state != LoggedIn {
		return nil, fmt.Errorf("%w: %s", common.ErrNotAuthenticated, endpoint)
	}

	var reader io.Reader = http.NoBody
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("error encoding %s payload: %w", endpoint, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, m.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("error creating %s request: %w", endpoint, err)
	}
	setMarketHeaders(req.Header)
	req.Header.Set("Authorization", token)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, common.TransportError(endpoint, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, common.TransportError(endpoint, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		m.mu.Lock()
		m.invalidate(token)
		m.mu.Unlock()
		log.Warn("Marketplace rejected the session token", "Endpoint", endpoint)
		return nil, fmt.Errorf("%w: %s", common.ErrSessionExpired, endpoint)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       respBody,
	}, nil
}

func setMarketHeaders(h http.Header) {
	h.Set("Content-Type", "application/json")
	h.Set("platform", "pc")
	h.Set("language", "en")
}

// tokenExpiry reads the exp claim of a "JWT <token>" value without verifying it.
func tokenExpiry(token string) (time.Time, bool) {
	raw := strings.TrimSpace(strings.TrimPrefix(token, "JWT "))

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
