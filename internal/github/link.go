package github

import (
	"regexp"
	"strings"
)

const nextRelation = `rel="next"`

var nextLinkPattern = regexp.MustCompile(`(?i)<([^>]+)>;\s*rel="next"`)

// NextPageURL extracts the continuation URL from a Link header. It returns
// false when the header carries no next relation.
func NextPageURL(linkHeader string) (string, bool) {
	if !strings.Contains(linkHeader, nextRelation) {
		return "", false
	}
	m := nextLinkPattern.FindStringSubmatch(linkHeader)
	if m == nil {
		return "", false
	}
	return m[1], true
}
