// Package service provides the read side of the image API: listing stored
// image records, resolving recommendations and reporting the last sync time.
package service

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrStoreUnavailable is returned when the backing store cannot serve reads
	ErrStoreUnavailable = errors.New("image store unavailable")
)

//go:generate mockgen -destination=mocks/mock_service.go -package=mocks -source=service.go ImageService

// ImageService defines the interface for image read operations
type ImageService interface {
	// CheckReadiness checks if the service is ready to serve requests
	CheckReadiness(ctx context.Context) error

	// GetLastUpdated returns the time of the last sync, nil if none was recorded
	GetLastUpdated(ctx context.Context) (*time.Time, error)

	// ListImages returns image records ordered by name, then id
	ListImages(ctx context.Context, opts ...Option) ([]Image, error)
}

// Option is a function that sets an option for ListImages
type Option func(*ListImagesOptions) error

// ListImagesOptions is the options for the ListImages operation
type ListImagesOptions struct {
	// Name restricts results to one image name when set
	Name string
	// StableOnly restricts results to records marked stable
	StableOnly bool
}

// WithName filters ListImages by image name
func WithName(name string) Option {
	return func(o *ListImagesOptions) error {
		if name == "" {
			return errors.New("invalid name: empty")
		}
		o.Name = name
		return nil
	}
}

// WithStableOnly restricts ListImages to stable records
func WithStableOnly() Option {
	return func(o *ListImagesOptions) error {
		o.StableOnly = true
		return nil
	}
}

// NewListImagesOptions applies opts over the zero options
func NewListImagesOptions(opts ...Option) (*ListImagesOptions, error) {
	o := &ListImagesOptions{}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// Matches reports whether img passes the filters
func (o *ListImagesOptions) Matches(img *Image) bool {
	if o.Name != "" && img.Name != o.Name {
		return false
	}
	if o.StableOnly && !img.Stable {
		return false
	}
	return true
}
