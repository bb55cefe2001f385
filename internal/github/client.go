// Package github provides the authenticated GitHub REST API client used by
// the image synchronizer.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	// DefaultBaseURL is the public GitHub REST API endpoint
	DefaultBaseURL = "https://api.github.com"

	// DefaultAPIVersion is the REST API contract version sent with every request
	DefaultAPIVersion = "2022-11-28"

	// DefaultTimeout is the default timeout for HTTP requests
	DefaultTimeout = 30 * time.Second

	// MaxResponseSize is the maximum allowed response size (32MB)
	MaxResponseSize = 32 * 1024 * 1024

	// PageSize is the page size used for every paginated listing
	PageSize = 100

	// UserAgent is the user agent string for HTTP requests
	UserAgent = "sdr-image-api/1.0"

	// APIVersionHeader carries the REST API contract version
	APIVersionHeader = "X-GitHub-Api-Version"

	mediaType = "application/vnd.github+json"
)

//go:generate mockgen -destination=mocks/mock_client.go -package=mocks -source=client.go Client

// Client is the GitHub REST API surface the synchronizer depends on
type Client interface {
	// Do performs a single request and returns the raw response
	Do(ctx context.Context, req *Request) (*Response, error)

	// ListOrganizationRepositories returns the public repositories of org,
	// following every page of the listing
	ListOrganizationRepositories(ctx context.Context, org string) ([]Repository, error)
}

// Option configures a Client or an AppTokenSource
type Option func(*clientOptions)

type clientOptions struct {
	baseURL    string
	apiVersion string
	userAgent  string
	timeout    time.Duration
}

func defaultClientOptions() *clientOptions {
	return &clientOptions{
		baseURL:    DefaultBaseURL,
		apiVersion: DefaultAPIVersion,
		userAgent:  UserAgent,
		timeout:    DefaultTimeout,
	}
}

// WithBaseURL sets the API base URL
func WithBaseURL(baseURL string) Option {
	return func(o *clientOptions) {
		if baseURL != "" {
			o.baseURL = baseURL
		}
	}
}

// WithAPIVersion sets the value of the X-GitHub-Api-Version header
func WithAPIVersion(version string) Option {
	return func(o *clientOptions) {
		if version != "" {
			o.apiVersion = version
		}
	}
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(userAgent string) Option {
	return func(o *clientOptions) {
		if userAgent != "" {
			o.userAgent = userAgent
		}
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

type apiClient struct {
	client     *http.Client
	baseURL    *url.URL
	apiVersion string
	userAgent  string
}

// NewClient wraps an already authorized HTTP client. A nil httpClient
// performs unauthenticated requests.
func NewClient(httpClient *http.Client, opts ...Option) (Client, error) {
	o := defaultClientOptions()
	for _, opt := range opts {
		opt(o)
	}

	base, err := url.Parse(o.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid GitHub API base URL %q: %w", o.baseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("GitHub API base URL must be absolute: %q", o.baseURL)
	}

	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if httpClient.Timeout == 0 {
		httpClient.Timeout = o.timeout
	}

	return &apiClient{
		client:     httpClient,
		baseURL:    base,
		apiVersion: o.apiVersion,
		userAgent:  o.userAgent,
	}, nil
}

// Do performs one API request
func (c *apiClient) Do(ctx context.Context, r *Request) (*Response, error) {
	target, err := c.resolve(r.Path)
	if err != nil {
		return nil, err
	}

	if len(r.Query) > 0 {
		q := target.Query()
		for key, values := range r.Query {
			q.Del(key)
			for _, v := range values {
				q.Add(key, v)
			}
		}
		target.RawQuery = q.Encode()
	}

	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", mediaType)
	req.Header.Set(APIVersionHeader, c.apiVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, NewHTTPError(resp.StatusCode, target.String(), errorMessage(resp))
	}

	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Data:       body,
	}, nil
}

// ListOrganizationRepositories follows the Link header until the listing is exhausted
func (c *apiClient) ListOrganizationRepositories(ctx context.Context, org string) ([]Repository, error) {
	var repos []Repository

	path := fmt.Sprintf("/orgs/%s/repos", url.PathEscape(org))
	query := url.Values{
		"type":     []string{"public"},
		"per_page": []string{strconv.Itoa(PageSize)},
	}

	for page := 1; ; page++ {
		resp, err := c.Do(ctx, &Request{Path: path, Query: query})
		if err != nil {
			return nil, fmt.Errorf("failed to list repositories of %s: %w", org, err)
		}

		var batch []Repository
		if err := json.Unmarshal(resp.Data, &batch); err != nil {
			return nil, fmt.Errorf("failed to decode repositories page %d: %w", page, err)
		}
		repos = append(repos, batch...)

		next, ok := NextPageURL(resp.Header.Get("Link"))
		if !ok {
			break
		}
		slog.Debug("Following repository listing", "org", org, "page", page+1)
		path = next
	}

	return repos, nil
}

func (c *apiClient) resolve(path string) (*url.URL, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("invalid request path %q: %w", path, err)
	}
	if ref.IsAbs() {
		return ref, nil
	}

	target := c.baseURL.JoinPath(ref.Path)
	target.RawQuery = ref.RawQuery
	return target, nil
}

func readBody(resp *http.Response) ([]byte, error) {
	if resp.ContentLength > MaxResponseSize {
		return nil, fmt.Errorf("response size %d bytes exceeds maximum allowed size of %d bytes",
			resp.ContentLength, MaxResponseSize)
	}

	// +1 to detect if limit exceeded
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, fmt.Errorf("response size exceeds maximum allowed size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// errorMessage prefers the API's JSON "message" over the status line
func errorMessage(resp *http.Response) string {
	var payload struct {
		Message string `json:"message"`
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err == nil && json.Unmarshal(data, &payload) == nil && payload.Message != "" {
		return payload.Message
	}
	return resp.Status
}
