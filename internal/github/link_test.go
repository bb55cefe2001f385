package github

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextPageURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		header   string
		expected string
		found    bool
	}{
		{
			name:   "empty header",
			header: "",
		},
		{
			name:   "only last and prev relations",
			header: `<https://api.github.com/orgs/x/repos?page=1>; rel="prev", <https://api.github.com/orgs/x/repos?page=3>; rel="last"`,
		},
		{
			name:     "next relation first",
			header:   `<https://api.github.com/orgs/x/repos?page=2>; rel="next", <https://api.github.com/orgs/x/repos?page=5>; rel="last"`,
			expected: "https://api.github.com/orgs/x/repos?page=2",
			found:    true,
		},
		{
			name:     "next relation after prev",
			header:   `<https://api.github.com/x?page=1>; rel="prev", <https://api.github.com/x?page=3>; rel="next"`,
			expected: "https://api.github.com/x?page=3",
			found:    true,
		},
		{
			name:   "relation marker is matched case sensitively",
			header: `<https://api.github.com/x?page=2>; rel="Next"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			next, ok := NextPageURL(tt.header)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.expected, next)
		})
	}
}
