package testutil

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/fishlogapp/fishlog-go/internal/session"
	"github.com/fishlogapp/fishlog-go/pkg/recordstore"
)

// Fixtures seeds test data into a FakeStore with sequential defaults.
type Fixtures struct {
	store   *FakeStore
	counter int
}

func NewFixtures(store *FakeStore) *Fixtures {
	return &Fixtures{store: store}
}

// CreateUser seeds a user with a known password ("password123").
func (f *Fixtures) CreateUser(t *testing.T) Record {
	t.Helper()
	f.counter++
	return f.store.AddUser(
		fmt.Sprintf("angler%d@example.com", f.counter),
		"password123",
		fmt.Sprintf("Angler %d", f.counter),
	)
}

// CatchOption tweaks a seeded catch.
type CatchOption func(Record)

func WithSpecies(s string) CatchOption {
	return func(r Record) { r["species"] = s }
}

func WithWeight(w float64) CatchOption {
	return func(r Record) { r["weight"] = w }
}

func WithLength(l float64) CatchOption {
	return func(r Record) { r["length"] = l }
}

func WithLocation(name string) CatchOption {
	return func(r Record) { r["location"] = name }
}

func WithSharedGroups(ids ...string) CatchOption {
	return func(r Record) { r["sharedWithGroups"] = ids }
}

// CreateCatch seeds a catch owned by userID.
func (f *Fixtures) CreateCatch(t *testing.T, userID string, opts ...CatchOption) Record {
	t.Helper()
	f.counter++
	rec := Record{
		"species":           "Largemouth Bass",
		"weight":            3.5,
		"weight_oz":         4,
		"length":            16.0,
		"location":          fmt.Sprintf("Lake %d", f.counter),
		"date":              "2026-05-01 06:30:00.000Z",
		"photos":            []string{fmt.Sprintf("photo%d.jpg", f.counter)},
		"featurePhotoIndex": 0,
		"user":              userID,
	}
	for _, opt := range opts {
		opt(rec)
	}
	return f.store.AddRecord("catches", rec)
}

// CreateGroup seeds a group with the given creator as member and admin.
func (f *Fixtures) CreateGroup(t *testing.T, creatorID string) Record {
	t.Helper()
	f.counter++
	return f.store.AddRecord("fishing_groups", Record{
		"name":    fmt.Sprintf("Group %d", f.counter),
		"members": []string{creatorID},
		"admins":  []string{creatorID},
	})
}

// SignedInSession builds a client and session already authenticated as the
// given user record.
func SignedInSession(t *testing.T, baseURL string, user Record) (*recordstore.Client, *session.Session) {
	t.Helper()
	client := recordstore.New(baseURL)
	sess, err := session.New(client)
	if err != nil {
		t.Fatalf("failed to build session: %v", err)
	}
	t.Cleanup(sess.Close)

	raw := mustJSON(t, user)
	client.AuthStore().Save(Token(user["id"].(string), time.Hour), raw)
	return client, sess
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal %T: %v", v, err)
	}
	return data
}
