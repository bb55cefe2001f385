// Package sources retrieves the tags of published container images from the
// GitHub Packages API.
//
// The package defines the TagSource interface and its Walker implementation,
// which pages through a container package's versions listing and collects
// every tag of the versions marked "latest" or "trixie-latest".
//
// Architecture:
//   - TagSource: interface consumed by the sync manager
//   - Walker: paginates the versions listing through a github.Client
//   - VersionPage: tagged-union page model resolved once per response, so
//     bare arrays and wrapped objects are handled in one place
//
// The walker never returns errors. A failed or missing listing is logged and
// treated as "no tags", which makes the sync manager skip the repository.
package sources
