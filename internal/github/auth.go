package github

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

const (
	// appJWTLifetime stays under the 10 minute maximum GitHub accepts
	appJWTLifetime = 9 * time.Minute
	// appJWTClockSkew backdates iat to tolerate clock drift
	appJWTClockSkew = 60 * time.Second
)

// AppCredentials identify a GitHub App installation
type AppCredentials struct {
	AppID          string
	InstallationID int64
	PrivateKey     []byte
}

// LoadPrivateKey reads a PEM encoded App private key from path
func LoadPrivateKey(path string) ([]byte, error) {
	//nolint:gosec // path comes from operator configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read GitHub App private key: %w", err)
	}
	return data, nil
}

// AppTokenSource exchanges a signed App JWT for installation access tokens
type AppTokenSource struct {
	appID          string
	installationID int64
	key            *rsa.PrivateKey
	client         *http.Client
	tokenURL       string
	apiVersion     string
	userAgent      string
	now            func() time.Time
}

// NewAppTokenSource validates the credentials and returns a token source.
// Tokens are minted lazily on the first call to Token.
func NewAppTokenSource(creds AppCredentials, opts ...Option) (*AppTokenSource, error) {
	if creds.AppID == "" {
		return nil, errors.New("GitHub App ID is required")
	}
	if creds.InstallationID <= 0 {
		return nil, errors.New("GitHub App installation ID is required")
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM(creds.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse GitHub App private key: %w", err)
	}

	o := defaultClientOptions()
	for _, opt := range opts {
		opt(o)
	}

	base, err := url.Parse(o.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid GitHub API base URL %q: %w", o.baseURL, err)
	}
	tokenURL := base.JoinPath("app", "installations", strconv.FormatInt(creds.InstallationID, 10), "access_tokens")

	return &AppTokenSource{
		appID:          creds.AppID,
		installationID: creds.InstallationID,
		key:            key,
		client:         &http.Client{Timeout: o.timeout},
		tokenURL:       tokenURL.String(),
		apiVersion:     o.apiVersion,
		userAgent:      o.userAgent,
		now:            time.Now,
	}, nil
}

// Token implements oauth2.TokenSource
func (s *AppTokenSource) Token() (*oauth2.Token, error) {
	signed, err := s.appJWT()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.client.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create installation token request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+signed)
	req.Header.Set("Accept", mediaType)
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set(APIVersionHeader, s.apiVersion)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to request installation token: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, NewHTTPError(resp.StatusCode, s.tokenURL, errorMessage(resp))
	}

	var payload struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode installation token: %w", err)
	}
	if payload.Token == "" {
		return nil, errors.New("installation token response carried no token")
	}

	return &oauth2.Token{
		AccessToken: payload.Token,
		TokenType:   "Bearer",
		Expiry:      payload.ExpiresAt,
	}, nil
}

func (s *AppTokenSource) appJWT() (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Issuer:    s.appID,
		IssuedAt:  jwt.NewNumericDate(now.Add(-appJWTClockSkew)),
		ExpiresAt: jwt.NewNumericDate(now.Add(appJWTLifetime)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign GitHub App JWT: %w", err)
	}
	return signed, nil
}

// NewAppClient performs the App installation handshake and returns a Client
// whose requests carry an installation token that refreshes on expiry.
func NewAppClient(ctx context.Context, creds AppCredentials, opts ...Option) (Client, error) {
	src, err := NewAppTokenSource(creds, opts...)
	if err != nil {
		return nil, err
	}

	ts := oauth2.ReuseTokenSource(nil, src)
	if _, err := ts.Token(); err != nil {
		return nil, fmt.Errorf("GitHub App authentication failed: %w", err)
	}

	base := &http.Client{Timeout: src.client.Timeout}
	httpClient := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, base), ts)
	httpClient.Timeout = src.client.Timeout

	return NewClient(httpClient, opts...)
}
