package sources

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/tidwall/gjson"
)

// PageKind tags the shape a versions listing page arrived in
type PageKind int

const (
	// PageEmpty is an empty or absent body
	PageEmpty PageKind = iota
	// PageBare is a top-level JSON array
	PageBare
	// PageWrapped is an object whose single data-bearing key holds the array
	PageWrapped
)

// String returns the name of the page kind
func (k PageKind) String() string {
	switch k {
	case PageEmpty:
		return "empty"
	case PageBare:
		return "bare"
	case PageWrapped:
		return "wrapped"
	default:
		return fmt.Sprintf("PageKind(%d)", int(k))
	}
}

// metadataKeys are envelope fields that never hold page data
var metadataKeys = []string{"incomplete_results", "repository_selection", "total_count"}

// PackageVersion is one published version of a container package
type PackageVersion struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Metadata VersionMetadata `json:"metadata"`
}

// VersionMetadata carries the package-type specific metadata of a version
type VersionMetadata struct {
	PackageType string             `json:"package_type"`
	Container   *ContainerMetadata `json:"container,omitempty"`
}

// ContainerMetadata lists the tags attached to a container version
type ContainerMetadata struct {
	Tags []string `json:"tags"`
}

// VersionPage is a decoded versions listing page
type VersionPage struct {
	Kind PageKind
	// Key is the envelope key the versions were found under, PageWrapped only
	Key      string
	Versions []PackageVersion
}

// Len returns the number of versions on the page
func (p *VersionPage) Len() int {
	return len(p.Versions)
}

// DecodeVersionPage resolves the body shape once so callers never inspect raw JSON
func DecodeVersionPage(data []byte) (*VersionPage, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return &VersionPage{Kind: PageEmpty}, nil
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("versions page is not valid JSON")
	}

	root := gjson.ParseBytes(data)
	switch {
	case root.IsArray():
		versions, err := decodeVersions(root.Raw)
		if err != nil {
			return nil, err
		}
		return &VersionPage{Kind: PageBare, Versions: versions}, nil

	case root.IsObject():
		var (
			key   string
			value gjson.Result
		)
		// document order, first data-bearing key wins
		root.ForEach(func(k, v gjson.Result) bool {
			if slices.Contains(metadataKeys, k.String()) {
				return true
			}
			key, value = k.String(), v
			return false
		})

		if key == "" || !value.IsArray() {
			return &VersionPage{Kind: PageEmpty, Key: key}, nil
		}
		versions, err := decodeVersions(value.Raw)
		if err != nil {
			return nil, err
		}
		return &VersionPage{Kind: PageWrapped, Key: key, Versions: versions}, nil

	default:
		// null and scalar bodies carry no versions
		return &VersionPage{Kind: PageEmpty}, nil
	}
}

func decodeVersions(raw string) ([]PackageVersion, error) {
	var versions []PackageVersion
	if err := json.Unmarshal([]byte(raw), &versions); err != nil {
		return nil, fmt.Errorf("failed to decode package versions: %w", err)
	}
	return versions, nil
}

// ReleaseTags returns all tags of every version that carries one of markers, in page order
func (p *VersionPage) ReleaseTags(markers ...string) []string {
	var tags []string
	for _, v := range p.Versions {
		if v.Metadata.Container == nil {
			continue
		}
		own := v.Metadata.Container.Tags
		if slices.ContainsFunc(own, func(tag string) bool { return slices.Contains(markers, tag) }) {
			tags = append(tags, own...)
		}
	}
	return tags
}
