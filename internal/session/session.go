// Package session holds the process-wide authenticated-user state. The
// Session is constructed once at startup and handed to every consumer; there
// is no package-level singleton, so tests can substitute their own instance.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fishlogapp/fishlog-go/internal/api"
	"github.com/fishlogapp/fishlog-go/internal/models"
	"github.com/fishlogapp/fishlog-go/pkg/recordstore"
)

type Session struct {
	client    *recordstore.Client
	statePath string

	mu      sync.RWMutex
	user    *models.User
	loading bool
	subs    map[int]func(*models.User)
	nextID  int

	unsubscribe func()
}

type Option func(*Session)

// WithStateFile persists the session across process runs at path.
func WithStateFile(path string) Option {
	return func(s *Session) { s.statePath = path }
}

type persistedState struct {
	Token  string          `json:"token"`
	Record json.RawMessage `json:"record"`
}

// New builds a Session bound to client, restoring any persisted session whose
// token is still valid, and mirrors every auth-store change (including
// external invalidation) into the session state.
func New(client *recordstore.Client, opts ...Option) (*Session, error) {
	s := &Session{
		client: client,
		subs:   make(map[int]func(*models.User)),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.restore(); err != nil {
		return nil, err
	}

	s.unsubscribe = client.AuthStore().OnChange(func(token string, record json.RawMessage) {
		s.applyAuthChange(token, record)
	})

	return s, nil
}

func (s *Session) restore() error {
	if s.statePath == "" {
		return nil
	}
	data, err := os.ReadFile(s.statePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read session state: %w", err)
	}

	var state persistedState
	if err := json.Unmarshal(data, &state); err != nil {
		// A corrupt state file is treated as no session.
		return nil
	}
	if state.Token == "" {
		return nil
	}

	store := s.client.AuthStore()
	store.Save(state.Token, state.Record)
	if !store.IsValid() {
		store.Clear()
		return nil
	}

	var user models.User
	if err := json.Unmarshal(state.Record, &user); err == nil && user.ID != "" {
		s.mu.Lock()
		s.user = &user
		s.mu.Unlock()
	}
	return nil
}

// applyAuthChange keeps the session's user in sync with the auth store and
// persists the new state.
func (s *Session) applyAuthChange(token string, record json.RawMessage) {
	var user *models.User
	if token != "" && record != nil {
		var u models.User
		if err := json.Unmarshal(record, &u); err == nil && u.ID != "" {
			user = &u
		}
	}

	s.mu.Lock()
	s.user = user
	subs := s.snapshotSubs()
	s.mu.Unlock()

	s.persist(token, record)

	for _, fn := range subs {
		fn(user)
	}
}

func (s *Session) persist(token string, record json.RawMessage) {
	if s.statePath == "" {
		return
	}
	if token == "" {
		_ = os.Remove(s.statePath)
		return
	}
	data, err := json.Marshal(persistedState{Token: token, Record: record})
	if err != nil {
		return
	}
	_ = os.MkdirAll(filepath.Dir(s.statePath), 0o700)
	_ = os.WriteFile(s.statePath, data, 0o600)
}

// Login authenticates with email and password. On failure the previous user
// state is untouched and the normalized error is returned.
func (s *Session) Login(ctx context.Context, email, password string) (*models.User, error) {
	s.setLoading(true)
	defer s.setLoading(false)

	if _, err := s.client.AuthWithPassword(ctx, email, password); err != nil {
		return nil, api.Normalize("Login failed", err)
	}
	return s.Current(), nil
}

// Register creates a user account and signs in as it.
func (s *Session) Register(ctx context.Context, email, password, name string) (*models.User, error) {
	s.setLoading(true)
	defer s.setLoading(false)

	p := recordstore.NewPayload().
		Set("email", email).
		Set("password", password).
		Set("passwordConfirm", password).
		Set("name", name)
	if _, err := s.client.Create(ctx, api.CollectionUsers, p); err != nil {
		return nil, api.Normalize("Registration failed", err)
	}
	if _, err := s.client.AuthWithPassword(ctx, email, password); err != nil {
		return nil, api.Normalize("Registration failed", err)
	}
	return s.Current(), nil
}

// LoginWithOAuth completes a provider sign-in by handing the authorization
// code to the backend for exchange.
func (s *Session) LoginWithOAuth(ctx context.Context, provider, code, redirectURL string) (*models.User, error) {
	s.setLoading(true)
	defer s.setLoading(false)

	if _, err := s.client.AuthWithOAuth(ctx, provider, code, redirectURL); err != nil {
		return nil, api.Normalize("Login failed", err)
	}
	return s.Current(), nil
}

// Logout clears the in-memory user and the persisted session synchronously.
func (s *Session) Logout() {
	s.client.AuthStore().Clear()
}

// Current returns the signed-in user, or nil.
func (s *Session) Current() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// CurrentUserID implements api.AuthSession.
func (s *Session) CurrentUserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return ""
	}
	return s.user.ID
}

func (s *Session) IsAuthenticated() bool {
	return s.CurrentUserID() != "" && s.client.AuthStore().IsValid()
}

// IsLoading reports whether a login or registration is in flight.
func (s *Session) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// OnChange registers fn to run after every session change, including external
// invalidation detected by the client. The returned func removes the
// subscription.
func (s *Session) OnChange(fn func(*models.User)) (unsubscribe func()) {
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

// Close detaches the session from the client's auth store.
func (s *Session) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

func (s *Session) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

func (s *Session) snapshotSubs() []func(*models.User) {
	subs := make([]func(*models.User), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return subs
}
