package tags

import (
	"fmt"

	"github.com/google/go-containerregistry/pkg/name"
)

// PullReference formats <host>/<org>/<name>:<tag>
func PullReference(host, org, image, tag string) string {
	return fmt.Sprintf("%s/%s/%s:%s", host, org, image, tag)
}

// ValidateReference reports whether ref would be accepted by a registry
// client as a tagged image reference.
func ValidateReference(ref string) error {
	if _, err := name.NewTag(ref, name.StrictValidation); err != nil {
		return fmt.Errorf("invalid image reference %q: %w", ref, err)
	}
	return nil
}
