package identity

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/hivelog/internal/config"
)

const sessionKey = "session"

// Session is the token pair and user identity returned by the provider.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
	User         User   `json:"user"`
}

// User identifies the authenticated account.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// EventType names a provider lifecycle event.
type EventType string

const (
	EventSignedIn         EventType = "SIGNED_IN"
	EventSignedOut        EventType = "SIGNED_OUT"
	EventPasswordRecovery EventType = "PASSWORD_RECOVERY"
)

// Event is a lifecycle notification delivered to subscribers.
type Event struct {
	Type    EventType
	Session *Session
}

// SessionStore persists the session across restarts.
type SessionStore interface {
	Get(key string, out any) (bool, error)
	Put(key string, value any) error
	Delete(key string) error
}

// Client exposes the identity provider operations used by the application.
type Client interface {
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context) error
	RequestPasswordReset(ctx context.Context, email string) error
	UpdatePassword(ctx context.Context, newPassword string) error
	ExchangeCode(ctx context.Context, code string) (*Session, error)
	SetSession(ctx context.Context, accessToken, refreshToken string) (*Session, error)
	CurrentSession() *Session
	Subscribe(fn func(Event)) func()
	Emit(ev Event)
}

// APIClient is a resty-backed implementation of Client against a
// GoTrue-style REST surface.
type APIClient struct {
	httpClient  *resty.Client
	redirectURL string
	store       SessionStore

	mu        sync.Mutex
	session   *Session
	listeners map[int]func(Event)
	nextSub   int
}

// NewClient builds an identity client using the provided configuration.
func NewClient(cfg config.IdentityConfig, store SessionStore) *APIClient {
	base := strings.TrimSuffix(cfg.BaseURL, "/")

	restyClient := resty.New()
	restyClient.
		SetBaseURL(base).
		SetHeader("apikey", cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)

	return &APIClient{
		httpClient:  restyClient,
		redirectURL: cfg.RedirectURL,
		store:       store,
		listeners:   make(map[int]func(Event)),
	}
}

// apiError represents a provider error payload.
type apiError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Code             int    `json:"code"`
}

func (e *apiError) message() string {
	if e == nil {
		return ""
	}
	if e.ErrorDescription != "" {
		return e.ErrorDescription
	}
	if e.Msg != "" {
		return e.Msg
	}
	return e.Error
}

// SignIn performs a password grant and emits a SIGNED_IN event.
func (c *APIClient) SignIn(ctx context.Context, email, password string) (*Session, error) {
	session, err := c.tokenRequest(ctx, "password", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	c.storeSession(session)
	c.Emit(Event{Type: EventSignedIn, Session: session})
	return session, nil
}

// SignUp registers a new account. The redirect URL lands in the confirmation
// email so the deep link comes back to the app.
func (c *APIClient) SignUp(ctx context.Context, email, password string) (*Session, error) {
	session := new(Session)
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("redirect_to", c.redirectURL).
		SetBody(map[string]string{"email": email, "password": password}).
		SetResult(session).
		SetError(apiErr).
		Post("/signup")
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return nil, fmt.Errorf("identity api error: code=%d, message=%s", resp.StatusCode(), apiErr.message())
	}

	return session, nil
}

// SignOut invalidates the session globally. The local session is cleared
// even when the remote call fails, keeping the local state consistent.
func (c *APIClient) SignOut(ctx context.Context) error {
	session := c.CurrentSession()

	var remoteErr error
	if session != nil {
		apiErr := new(apiError)
		resp, err := c.httpClient.R().
			SetContext(ctx).
			SetQueryParam("scope", "global").
			SetHeader("Authorization", "Bearer "+session.AccessToken).
			SetError(apiErr).
			Post("/logout")
		if err != nil {
			remoteErr = fmt.Errorf("sign out: %w", err)
		} else if resp.StatusCode() >= http.StatusBadRequest {
			remoteErr = fmt.Errorf("identity api error: code=%d, message=%s", resp.StatusCode(), apiErr.message())
		}
	}

	c.clearSession()
	c.Emit(Event{Type: EventSignedOut})
	return remoteErr
}

// RequestPasswordReset sends the recovery email with the app deep link.
func (c *APIClient) RequestPasswordReset(ctx context.Context, email string) error {
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("redirect_to", c.redirectURL).
		SetBody(map[string]string{"email": email}).
		SetError(apiErr).
		Post("/recover")
	if err != nil {
		return fmt.Errorf("request password reset: %w", err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("identity api error: code=%d, message=%s", resp.StatusCode(), apiErr.message())
	}
	return nil
}

// UpdatePassword changes the password of the current session's user.
func (c *APIClient) UpdatePassword(ctx context.Context, newPassword string) error {
	session := c.CurrentSession()
	if session == nil {
		return fmt.Errorf("no active session")
	}

	apiErr := new(apiError)
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+session.AccessToken).
		SetBody(map[string]string{"password": newPassword}).
		SetError(apiErr).
		Put("/user")
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("identity api error: code=%d, message=%s", resp.StatusCode(), apiErr.message())
	}
	return nil
}

// ExchangeCode trades a deep-link authorization code for a session.
func (c *APIClient) ExchangeCode(ctx context.Context, code string) (*Session, error) {
	session, err := c.tokenRequest(ctx, "pkce", map[string]string{"auth_code": code})
	if err != nil {
		return nil, err
	}

	c.storeSession(session)
	return session, nil
}

// SetSession establishes a session from an explicit token pair carried in a
// deep-link fragment. The refresh grant validates the pair server-side.
func (c *APIClient) SetSession(ctx context.Context, accessToken, refreshToken string) (*Session, error) {
	session, err := c.tokenRequest(ctx, "refresh_token", map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return nil, err
	}
	if session.AccessToken == "" {
		session.AccessToken = accessToken
	}

	c.storeSession(session)
	return session, nil
}

// CurrentSession returns the in-memory session, falling back to the
// persisted one from a previous run.
func (c *APIClient) CurrentSession() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		return c.session
	}
	if c.store == nil {
		return nil
	}

	var stored Session
	found, err := c.store.Get(sessionKey, &stored)
	if err != nil || !found || stored.User.ID == "" {
		return nil
	}
	c.session = &stored
	return c.session
}

// Subscribe registers a lifecycle event listener and returns its
// unsubscribe function.
func (c *APIClient) Subscribe(fn func(Event)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	c.listeners[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

// Emit delivers an event to all subscribers. Provider push notifications
// (such as a forced PASSWORD_RECOVERY) enter through here.
func (c *APIClient) Emit(ev Event) {
	c.mu.Lock()
	listeners := make([]func(Event), 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(ev)
	}
}

func (c *APIClient) tokenRequest(ctx context.Context, grantType string, body map[string]string) (*Session, error) {
	session := new(Session)
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("grant_type", grantType).
		SetBody(body).
		SetResult(session).
		SetError(apiErr).
		Post("/token")
	if err != nil {
		return nil, fmt.Errorf("token request (%s): %w", grantType, err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return nil, fmt.Errorf("identity api error: code=%d, message=%s", resp.StatusCode(), apiErr.message())
	}
	return session, nil
}

func (c *APIClient) storeSession(session *Session) {
	c.mu.Lock()
	c.session = session
	c.mu.Unlock()

	if c.store != nil && session != nil {
		_ = c.store.Put(sessionKey, session)
	}
}

func (c *APIClient) clearSession() {
	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()

	if c.store != nil {
		_ = c.store.Delete(sessionKey)
	}
}
