package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fishlogapp/fishlog-go/internal/models"
	"github.com/fishlogapp/fishlog-go/pkg/recordstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type challengeBackend struct {
	server   *httptest.Server
	lastBody map[string]any
	lastReq  *http.Request
}

func newChallengeBackend(t *testing.T) *challengeBackend {
	t.Helper()
	b := &challengeBackend{}
	b.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.lastReq = r
		if r.Method == http.MethodPost || r.Method == http.MethodPatch {
			b.lastBody = map[string]any{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&b.lastBody))
		}
		_, _ = w.Write([]byte(`{"id":"ch1","title":"Biggest Bass","type":"biggest_catch","completed":false}`))
	}))
	t.Cleanup(b.server.Close)
	return b
}

func setupChallengeService(t *testing.T, userID string) (*ChallengeService, *challengeBackend) {
	t.Helper()
	backend := newChallengeBackend(t)
	return NewChallengeService(recordstore.New(backend.server.URL), fakeSession{id: userID}), backend
}

func TestChallengeService_Create(t *testing.T) {
	svc, backend := setupChallengeService(t, "u1")

	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	ch, err := svc.Create(context.Background(), ChallengeInput{
		Title:        "Biggest Bass",
		StartDate:    start,
		EndDate:      start.AddDate(0, 1, 0),
		Type:         models.ChallengeBiggestCatch,
		Group:        "g1",
		Target:       &models.ChallengeTarget{Species: "Bass"},
		Participants: []string{"u1", "u2"},
	})
	require.NoError(t, err)
	assert.Equal(t, "ch1", ch.ID)

	assert.Equal(t, "Biggest Bass", backend.lastBody["title"])
	assert.Equal(t, "2024-06-01T00:00:00Z", backend.lastBody["startDate"])
	assert.Equal(t, "biggest_catch", backend.lastBody["type"])
	assert.Equal(t, "false", backend.lastBody["completed"])
	assert.JSONEq(t, `{"species":"Bass"}`, backend.lastBody["target"].(string))
	assert.JSONEq(t, `["u1","u2"]`, backend.lastBody["participants"].(string))
}

func TestChallengeService_Create_Rejections(t *testing.T) {
	start := time.Now()
	valid := ChallengeInput{Title: "Biggest Bass", StartDate: start, EndDate: start, Type: models.ChallengeBiggestCatch}

	t.Run("unauthenticated", func(t *testing.T) {
		svc, _ := setupChallengeService(t, "")
		_, err := svc.Create(context.Background(), valid)
		assert.ErrorIs(t, err, ErrNotAuthenticated)
	})

	t.Run("missing title", func(t *testing.T) {
		svc, _ := setupChallengeService(t, "u1")
		in := valid
		in.Title = ""
		_, err := svc.Create(context.Background(), in)
		var ae *Error
		require.ErrorAs(t, err, &ae)
		assert.Contains(t, ae.Details, "title")
	})

	t.Run("unknown type", func(t *testing.T) {
		svc, _ := setupChallengeService(t, "u1")
		in := valid
		in.Type = "longest_nap"
		_, err := svc.Create(context.Background(), in)
		var ae *Error
		require.ErrorAs(t, err, &ae)
		assert.Contains(t, ae.Details, "type")
	})
}

func TestChallengeService_Complete(t *testing.T) {
	svc, backend := setupChallengeService(t, "u1")

	_, err := svc.Complete(context.Background(), "ch1", "u2")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPatch, backend.lastReq.Method)
	assert.Equal(t, "/api/collections/challenges/records/ch1", backend.lastReq.URL.Path)
	assert.Equal(t, "true", backend.lastBody["completed"])
	assert.Equal(t, "u2", backend.lastBody["winner"])
}

func TestChallengeService_Complete_NoWinner(t *testing.T) {
	svc, backend := setupChallengeService(t, "u1")

	_, err := svc.Complete(context.Background(), "ch1", "")
	require.NoError(t, err)
	assert.NotContains(t, backend.lastBody, "winner")
}
