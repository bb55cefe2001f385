package github

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// Request describes one call against the GitHub REST API
type Request struct {
	// Method defaults to GET
	Method string
	// Path is either relative to the API base URL or an absolute URL,
	// as returned in Link headers
	Path string
	// Query values replace any value of the same key already present in Path
	Query url.Values
}

// Response is the raw result of a successful request
type Response struct {
	StatusCode int
	Header     http.Header
	Data       []byte
}

// Repository is the subset of the organization repository listing we use
type Repository struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	Private  bool   `json:"private"`
	Archived bool   `json:"archived"`
}

// ErrNotFound matches any HTTPError carrying a 404 status
var ErrNotFound = errors.New("not found")

// HTTPError represents a non-2xx response from the API
type HTTPError struct {
	StatusCode int
	Message    string
	URL        string
}

// Error returns the error message
func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d for URL %s: %s", e.StatusCode, e.URL, e.Message)
}

// NewHTTPError creates a new HTTP error
func NewHTTPError(statusCode int, url, message string) error {
	return &HTTPError{
		StatusCode: statusCode,
		URL:        url,
		Message:    message,
	}
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses
func (e *HTTPError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// IsNotFound reports whether err is an HTTPError with status 404
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
