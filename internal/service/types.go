package service

import "time"

// DefaultReleaseNotes is stored on records created by sync
const DefaultReleaseNotes = "No release notes available"

// Image is a stored image record. JSON names are part of the public API.
type Image struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	PrimaryURL   string    `json:"url"`
	SecondaryURL string    `json:"url_trixie"`
	PrimaryTag   string    `json:"tag"`
	SecondaryTag string    `json:"tag_trixie"`
	ReleaseNotes string    `json:"release_notes"`
	Stable       bool      `json:"stable"`
	Pinned       bool      `json:"is_pinned_version"`
	ModifiedAt   time.Time `json:"modified_date"`
	CreatedAt    time.Time `json:"created_date"`
}

// ImageKey identifies records carrying the same information
type ImageKey struct {
	Name         string
	PrimaryTag   string
	SecondaryTag string
}

// Key returns the dedup key of the record
func (i *Image) Key() ImageKey {
	return ImageKey{
		Name:         i.Name,
		PrimaryTag:   i.PrimaryTag,
		SecondaryTag: i.SecondaryTag,
	}
}

// HasSecondary reports whether the record has a secondary channel pull reference
func (i *Image) HasSecondary() bool {
	return i.SecondaryURL != ""
}
