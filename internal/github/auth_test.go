package github_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdr-enthusiasts/sdr-image-api/internal/github"
)

func generateKey(t *testing.T) (*rsa.PrivateKey, []byte) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	pemBytes := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	return key, pemBytes
}

func TestNewAppTokenSource_Validation(t *testing.T) {
	t.Parallel()

	_, pemBytes := generateKey(t)

	tests := []struct {
		name  string
		creds github.AppCredentials
	}{
		{name: "missing app id", creds: github.AppCredentials{InstallationID: 1, PrivateKey: pemBytes}},
		{name: "missing installation id", creds: github.AppCredentials{AppID: "1", PrivateKey: pemBytes}},
		{name: "invalid key", creds: github.AppCredentials{AppID: "1", InstallationID: 1, PrivateKey: []byte("nope")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := github.NewAppTokenSource(tt.creds)
			assert.Error(t, err)
		})
	}
}

func TestNewAppClient(t *testing.T) {
	t.Parallel()

	key, pemBytes := generateKey(t)
	var tokenRequests atomic.Int32

	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/app/installations/46970787/access_tokens":
			tokenRequests.Add(1)

			raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			token, err := jwt.Parse(raw, func(*jwt.Token) (any, error) {
				return &key.PublicKey, nil
			}, jwt.WithValidMethods([]string{"RS256"}))
			if !assert.NoError(t, err) {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			issuer, _ := token.Claims.GetIssuer()
			assert.Equal(t, "12345", issuer)

			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"token":"ghs_installation","expires_at":"` +
				time.Now().Add(time.Hour).UTC().Format(time.RFC3339) + `"}`))
		case r.URL.Path == "/rate_limit":
			assert.Equal(t, "Bearer ghs_installation", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`{"resources":{"core":{"limit":5000,"remaining":5000}}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client, err := github.NewAppClient(context.Background(), github.AppCredentials{
		AppID:          "12345",
		InstallationID: 46970787,
		PrivateKey:     pemBytes,
	}, github.WithBaseURL(server.URL))
	require.NoError(t, err)

	resp, err := client.Do(context.Background(), &github.Request{Path: github.RateLimitPath})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// the handshake token is reused until it expires
	assert.Equal(t, int32(1), tokenRequests.Load())
}

func TestNewAppClient_HandshakeFailure(t *testing.T) {
	t.Parallel()

	_, pemBytes := generateKey(t)
	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Bad credentials"}`))
	}))
	defer server.Close()

	client, err := github.NewAppClient(context.Background(), github.AppCredentials{
		AppID:          "12345",
		InstallationID: 1,
		PrivateKey:     pemBytes,
	}, github.WithBaseURL(server.URL))
	require.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "Bad credentials")
}
