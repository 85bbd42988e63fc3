package recordstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testToken(t *testing.T, expiresIn time.Duration) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   "user1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)
	return signed
}

func TestClient_ListParsesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/collections/catches/records", r.URL.Path)
		assert.Equal(t, `species = "Bass"`, r.URL.Query().Get("filter"))
		assert.Equal(t, "-created", r.URL.Query().Get("sort"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"page": 1, "perPage": 50, "totalItems": 1, "totalPages": 1,
			"items": []map[string]any{{"id": "abc", "species": "Bass"}},
		})
	}))
	defer server.Close()

	client := New(server.URL)
	result, err := client.List(context.Background(), "catches", 1, 50, ListOptions{
		Filter: `species = "Bass"`,
		Sort:   "-created",
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalItems)
	require.Len(t, result.Items, 1)
}

func TestClient_SendsAuthHeader(t *testing.T) {
	var gotAuth atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{"items": []any{}})
	}))
	defer server.Close()

	client := New(server.URL)
	client.AuthStore().Save("tok123", nil)

	_, err := client.List(context.Background(), "catches", 1, 50, ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, "tok123", gotAuth.Load())
}

func TestClient_ErrorBodyBecomesResponseError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"code":    400,
			"message": "Failed to create record.",
			"data":    map[string][]string{"species": {"Missing required value."}},
		})
	}))
	defer server.Close()

	client := New(server.URL)
	_, err := client.Create(context.Background(), "catches", NewPayload().Set("weight", "2"))

	var re *ResponseError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusBadRequest, re.Status)
	assert.Equal(t, "Failed to create record.", re.Message)
	assert.Equal(t, []string{"Missing required value."}, re.Data["species"])
	assert.False(t, re.IsAbort)
}

func TestClient_ContextCancellationIsAbort(t *testing.T) {
	started := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	defer server.Close()

	client := New(server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := client.List(ctx, "catches", 1, 50, ListOptions{})

	var re *ResponseError
	require.ErrorAs(t, err, &re)
	assert.True(t, re.IsAbort)
}

func TestClient_CancelRequestAbortsByKey(t *testing.T) {
	started := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	defer server.Close()

	client := New(server.URL)
	errCh := make(chan error, 1)
	go func() {
		_, err := client.List(context.Background(), "catches", 1, 50, ListOptions{RequestKey: "feed"})
		errCh <- err
	}()

	<-started
	client.CancelRequest("feed")
	// Idempotent: a second cancel for the same key is a no-op.
	client.CancelRequest("feed")

	var re *ResponseError
	require.ErrorAs(t, <-errCh, &re)
	assert.True(t, re.IsAbort)
}

func TestClient_ReusedKeyCancelsPriorRequest(t *testing.T) {
	release := make(chan struct{})
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			<-r.Context().Done()
			return
		}
		<-release
		_ = json.NewEncoder(w).Encode(map[string]any{"items": []any{}})
	}))
	defer server.Close()

	client := New(server.URL)
	firstErr := make(chan error, 1)
	go func() {
		_, err := client.List(context.Background(), "catches", 1, 50, ListOptions{RequestKey: "feed"})
		firstErr <- err
	}()

	require.Eventually(t, func() bool { return hits.Load() == 1 }, time.Second, 5*time.Millisecond)

	secondErr := make(chan error, 1)
	go func() {
		_, err := client.List(context.Background(), "catches", 1, 50, ListOptions{RequestKey: "feed"})
		secondErr <- err
	}()

	var re *ResponseError
	require.ErrorAs(t, <-firstErr, &re)
	assert.True(t, re.IsAbort)

	close(release)
	assert.NoError(t, <-secondErr)
}

func TestClient_AuthWithPasswordSavesSession(t *testing.T) {
	token := testToken(t, time.Hour)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/collections/users/auth-with-password", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a@b.com", body["identity"])
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token":  token,
			"record": map[string]any{"id": "user1", "email": "a@b.com"},
		})
	}))
	defer server.Close()

	client := New(server.URL)
	record, err := client.AuthWithPassword(context.Background(), "a@b.com", "pw")

	require.NoError(t, err)
	assert.NotNil(t, record)
	assert.Equal(t, token, client.AuthStore().Token())
	assert.True(t, client.AuthStore().IsValid())
}

func TestAuthStore_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"empty", "", false},
		{"garbage", "not-a-jwt", false},
		{"expired", "", false},
		{"valid", "", true},
	}
	tests[2].token = testToken(t, -time.Minute)
	tests[3].token = testToken(t, time.Hour)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewAuthStore()
			store.Save(tt.token, nil)
			assert.Equal(t, tt.want, store.IsValid())
		})
	}
}

func TestAuthStore_OnChange(t *testing.T) {
	store := NewAuthStore()
	var calls int
	unsubscribe := store.OnChange(func(token string, _ json.RawMessage) {
		calls++
	})

	store.Save("tok", nil)
	assert.Equal(t, 1, calls)

	store.Clear()
	assert.Equal(t, 2, calls)

	unsubscribe()
	store.Save("tok2", nil)
	assert.Equal(t, 2, calls)
}
