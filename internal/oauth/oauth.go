// Package oauth builds provider consent URLs for OAuth sign-in. The
// authorization code obtained from the provider is handed to the record
// store, which performs the exchange server-side.
package oauth

import (
	"crypto/rand"
	"encoding/base64"
)

type Provider interface {
	// ConsentURL returns the provider page the user must visit to approve
	// access; state round-trips through the redirect for CSRF protection.
	ConsentURL(state string) string
	Name() string
}

func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
