// Package tags derives canonical channel tags from the raw tag list of a
// published container image version.
package tags

import "strings"

const (
	// PinnedPrefix marks a primary channel tag that carries a build identifier
	PinnedPrefix = "latest-build-"
	// SecondaryPrefix marks a secondary (trixie) channel tag that carries a build identifier
	SecondaryPrefix = "trixie-latest-"

	// DefaultPrimaryTag is the floating primary channel tag
	DefaultPrimaryTag = "latest"
	// DefaultSecondaryTag is the floating secondary channel tag
	DefaultSecondaryTag = "trixie-latest"
)

// Classification is the canonical view of one image's tags
type Classification struct {
	PrimaryTag   string
	SecondaryTag string
	Pinned       bool
	HasSecondary bool
}

// Classify scans tags once in discovery order. The first tag with
// PinnedPrefix becomes the primary tag, the first tag with SecondaryPrefix
// becomes the secondary tag. Matching is case-sensitive.
func Classify(tags []string) Classification {
	c := Classification{
		PrimaryTag:   DefaultPrimaryTag,
		SecondaryTag: DefaultSecondaryTag,
	}

	for _, tag := range tags {
		if !c.Pinned && strings.HasPrefix(tag, PinnedPrefix) {
			c.PrimaryTag = tag
			c.Pinned = true
		}
		if !c.HasSecondary && strings.HasPrefix(tag, SecondaryPrefix) {
			c.SecondaryTag = tag
			c.HasSecondary = true
		}
		if c.Pinned && c.HasSecondary {
			break
		}
	}

	return c
}

// URLs returns the primary and secondary pull references for the image.
// The secondary reference is empty when no secondary channel tag was found.
func (c Classification) URLs(host, org, name string) (primary, secondary string) {
	primary = PullReference(host, org, name, c.PrimaryTag)
	if c.HasSecondary {
		secondary = PullReference(host, org, name, c.SecondaryTag)
	}
	return primary, secondary
}
