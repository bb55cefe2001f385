// Package filestore keeps the image catalog in a single JSON document on the
// local filesystem. The document is loaded once and cached; every insert
// rewrites it atomically.
package filestore

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/sdr-enthusiasts/sdr-image-api/internal/service"
)

const (
	// ImagesFileName is the name of the catalog file
	ImagesFileName = "images.json"
)

type document struct {
	NextID int64           `json:"nextId"`
	Images []service.Image `json:"images"`
}

// Store is a file-backed image catalog safe for concurrent use
type Store struct {
	basePath string

	mu  sync.RWMutex
	doc *document
}

// New creates a store rooted at basePath. Nothing is read until first use.
func New(basePath string) *Store {
	return &Store{basePath: basePath}
}

func (s *Store) path() string {
	return filepath.Join(s.basePath, ImagesFileName)
}

// ensureLoaded must be called with the write lock held
func (s *Store) ensureLoaded() error {
	if s.doc != nil {
		return nil
	}

	//nolint:gosec // path is built from the configured storage directory
	data, err := os.ReadFile(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			s.doc = &document{NextID: 1}
			return nil
		}
		return fmt.Errorf("failed to read images file: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to unmarshal images file: %w", err)
	}
	if doc.NextID < 1 {
		doc.NextID = 1
	}
	for _, img := range doc.Images {
		if img.ID >= doc.NextID {
			doc.NextID = img.ID + 1
		}
	}
	s.doc = &doc
	return nil
}

func (s *Store) snapshot() (*document, error) {
	s.mu.RLock()
	doc := s.doc
	s.mu.RUnlock()
	if doc != nil {
		return doc, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}
	return s.doc, nil
}

// Ping loads the catalog if needed and reports whether it is readable
func (s *Store) Ping(_ context.Context) error {
	_, err := s.snapshot()
	return err
}

// List returns copies of the images accepted by match, ordered by name and then id.
// A nil match accepts every image.
func (s *Store) List(_ context.Context, match func(*service.Image) bool) ([]service.Image, error) {
	if _, err := s.snapshot(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	result := make([]service.Image, 0, len(s.doc.Images))
	for i := range s.doc.Images {
		if match == nil || match(&s.doc.Images[i]) {
			result = append(result, s.doc.Images[i])
		}
	}
	s.mu.RUnlock()

	slices.SortStableFunc(result, func(a, b service.Image) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return result, nil
}

// Exists reports whether an image with the given dedup key is stored
func (s *Store) Exists(_ context.Context, key service.ImageKey) (bool, error) {
	if _, err := s.snapshot(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.doc.Images {
		if s.doc.Images[i].Key() == key {
			return true, nil
		}
	}
	return false, nil
}

// Insert assigns the next id to img, appends it and persists the catalog.
// On a write failure the in-memory catalog is left unchanged.
func (s *Store) Insert(_ context.Context, img *service.Image) error {
	if img == nil {
		return fmt.Errorf("image must not be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(); err != nil {
		return err
	}

	stored := *img
	stored.ID = s.doc.NextID
	next := &document{
		NextID: s.doc.NextID + 1,
		Images: append(slices.Clip(s.doc.Images), stored),
	}

	if err := s.write(next); err != nil {
		return err
	}

	s.doc = next
	img.ID = stored.ID
	return nil
}

func (s *Store) write(doc *document) error {
	if err := os.MkdirAll(s.basePath, 0750); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal images: %w", err)
	}

	filePath := s.path()
	tempPath := filePath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary images file: %w", err)
	}
	if err := os.Rename(tempPath, filePath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename images file: %w", err)
	}
	return nil
}
