package oauth

import (
	"encoding/base64"
	"net/url"
	"testing"

	"github.com/fishlogapp/fishlog-go/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateState(t *testing.T) {
	first, err := GenerateState()
	require.NoError(t, err)
	second, err := GenerateState()
	require.NoError(t, err)

	assert.NotEqual(t, first, second)

	// 32 random bytes, URL-safe base64.
	decoded, err := base64.URLEncoding.DecodeString(first)
	require.NoError(t, err)
	assert.Len(t, decoded, 32)
}

func TestGoogleProvider_ConsentURL(t *testing.T) {
	provider := NewGoogleProvider(config.OAuthConfig{
		ClientID:    "fishlog-client",
		RedirectURL: "http://localhost:5173/auth/callback",
	})
	assert.Equal(t, "google", provider.Name())

	state, err := GenerateState()
	require.NoError(t, err)

	parsed, err := url.Parse(provider.ConsentURL(state))
	require.NoError(t, err)
	assert.Equal(t, "accounts.google.com", parsed.Host)

	q := parsed.Query()
	tests := []struct {
		param string
		want  string
	}{
		{"client_id", "fishlog-client"},
		{"redirect_uri", "http://localhost:5173/auth/callback"},
		{"response_type", "code"},
		{"access_type", "offline"},
		{"state", state},
	}
	for _, tt := range tests {
		t.Run(tt.param, func(t *testing.T) {
			assert.Equal(t, tt.want, q.Get(tt.param))
		})
	}

	// The backend's code exchange needs identity scopes.
	assert.Contains(t, q.Get("scope"), "userinfo.email")
	assert.Contains(t, q.Get("scope"), "userinfo.profile")
}
