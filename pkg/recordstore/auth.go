package recordstore

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthStore holds the current session token and the raw user record, and
// notifies subscribers whenever either changes. It is the only state shared
// between otherwise independent consumers of a Client.
type AuthStore struct {
	mu     sync.RWMutex
	token  string
	record json.RawMessage
	subs   map[int]func(token string, record json.RawMessage)
	nextID int
}

func NewAuthStore() *AuthStore {
	return &AuthStore{subs: make(map[int]func(string, json.RawMessage))}
}

func (s *AuthStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *AuthStore) Record() json.RawMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.record
}

// IsValid reports whether a token is present and not yet expired. The token
// is decoded without signature verification; only the backend can verify it,
// the client just reads the expiry claim.
func (s *AuthStore) IsValid() bool {
	token := s.Token()
	if token == "" {
		return false
	}
	parser := jwt.NewParser()
	claims := jwt.RegisteredClaims{}
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return time.Now().Before(claims.ExpiresAt.Time)
}

// Save replaces the session state and notifies subscribers.
func (s *AuthStore) Save(token string, record json.RawMessage) {
	s.mu.Lock()
	s.token = token
	s.record = record
	subs := s.snapshotSubs()
	s.mu.Unlock()
	for _, fn := range subs {
		fn(token, record)
	}
}

// Clear drops the session state and notifies subscribers.
func (s *AuthStore) Clear() {
	s.Save("", nil)
}

// OnChange registers fn to run after every Save or Clear. The returned func
// removes the subscription.
func (s *AuthStore) OnChange(fn func(token string, record json.RawMessage)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *AuthStore) snapshotSubs() []func(string, json.RawMessage) {
	subs := make([]func(string, json.RawMessage), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return subs
}

type authResponse struct {
	Token  string          `json:"token"`
	Record json.RawMessage `json:"record"`
}

// AuthWithPassword authenticates against the users collection and saves the
// resulting session into the auth store.
func (c *Client) AuthWithPassword(ctx context.Context, email, password string) (json.RawMessage, error) {
	p := NewPayload().Set("identity", email).Set("password", password)
	return c.authenticate(ctx, "/api/collections/users/auth-with-password", p)
}

// AuthWithOAuth exchanges a provider authorization code for a session. The
// code exchange itself happens on the backend.
func (c *Client) AuthWithOAuth(ctx context.Context, provider, code, redirectURL string) (json.RawMessage, error) {
	p := NewPayload().
		Set("provider", provider).
		Set("code", code).
		Set("redirectUrl", redirectURL)
	return c.authenticate(ctx, "/api/collections/users/auth-with-oauth2", p)
}

func (c *Client) authenticate(ctx context.Context, path string, p *Payload) (json.RawMessage, error) {
	body, contentType, err := encodeBody(p)
	if err != nil {
		return nil, err
	}
	data, err := c.send(ctx, http.MethodPost, path, nil, body, contentType, "")
	if err != nil {
		return nil, err
	}
	var auth authResponse
	if err := json.Unmarshal(data, &auth); err != nil {
		return nil, &ResponseError{Message: "malformed auth response", Err: err}
	}
	c.auth.Save(auth.Token, auth.Record)
	return auth.Record, nil
}
