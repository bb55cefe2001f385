package sources

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/sdr-enthusiasts/sdr-image-api/internal/github"
	githubmocks "github.com/sdr-enthusiasts/sdr-image-api/internal/github/mocks"
)

const testPath = "/orgs/sdr-enthusiasts/packages/container/docker-readsb/versions"

func pageResponse(body, link string) *github.Response {
	header := http.Header{}
	if link != "" {
		header.Set("Link", link)
	}
	return &github.Response{StatusCode: http.StatusOK, Header: header, Data: []byte(body)}
}

// requestFor matches a request for path carrying the fixed page size
func requestFor(path string) gomock.Matcher {
	return gomock.Cond(func(r *github.Request) bool {
		return r.Path == path && r.Query.Get("per_page") == "100"
	})
}

func TestVersionsPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, testPath, VersionsPath("sdr-enthusiasts", "docker-readsb"))
}

func TestWalker_FetchTags(t *testing.T) {
	t.Parallel()

	const nextURL = "https://api.github.com/organizations/1/packages/container/docker-readsb/versions?page=2"
	nextLink := `<` + nextURL + `>; rel="next", <https://api.github.com/x?page=9>; rel="last"`

	tests := []struct {
		name     string
		setup    func(m *githubmocks.MockClient)
		expected []string
	}{
		{
			name: "non-empty first page stops even with a next link",
			setup: func(m *githubmocks.MockClient) {
				m.EXPECT().Do(gomock.Any(), requestFor(testPath)).Return(pageResponse(
					`[{"id":1,"metadata":{"container":{"tags":["latest","latest-build-42","v1"]}}}]`,
					nextLink,
				), nil).Times(1)
			},
			expected: []string{"latest", "latest-build-42", "v1"},
		},
		{
			name: "all tags of a latest-tagged version are propagated",
			setup: func(m *githubmocks.MockClient) {
				m.EXPECT().Do(gomock.Any(), requestFor(testPath)).Return(pageResponse(
					`[{"id":1,"metadata":{"container":{"tags":["latest-build-7","latest","trixie-latest-3"]}}},
					  {"id":2,"metadata":{"container":{"tags":["latest-build-6"]}}}]`,
					"",
				), nil)
			},
			expected: []string{"latest-build-7", "latest", "trixie-latest-3"},
		},
		{
			name: "non-empty page without release tags still terminates",
			setup: func(m *githubmocks.MockClient) {
				m.EXPECT().Do(gomock.Any(), requestFor(testPath)).Return(pageResponse(
					`[{"id":1,"metadata":{"container":{"tags":["old"]}}}]`,
					nextLink,
				), nil).Times(1)
			},
			expected: nil,
		},
		{
			name: "empty page follows the continuation link",
			setup: func(m *githubmocks.MockClient) {
				gomock.InOrder(
					m.EXPECT().Do(gomock.Any(), requestFor(testPath)).Return(pageResponse(`[]`, nextLink), nil),
					m.EXPECT().Do(gomock.Any(), requestFor(nextURL)).Return(pageResponse(
						`{"total_count":1,"versions":[{"id":9,"metadata":{"container":{"tags":["trixie-latest","trixie-latest-5"]}}}]}`,
						"",
					), nil),
				)
			},
			expected: []string{"trixie-latest", "trixie-latest-5"},
		},
		{
			name: "empty page without a next relation stops",
			setup: func(m *githubmocks.MockClient) {
				m.EXPECT().Do(gomock.Any(), requestFor(testPath)).Return(pageResponse(
					``, `<https://api.github.com/x?page=1>; rel="prev"`,
				), nil).Times(1)
			},
			expected: nil,
		},
		{
			name: "not found yields no tags",
			setup: func(m *githubmocks.MockClient) {
				m.EXPECT().Do(gomock.Any(), gomock.Any()).Return(nil,
					github.NewHTTPError(http.StatusNotFound, testPath, "Package not found."))
			},
			expected: nil,
		},
		{
			name: "failure after an empty page returns accumulated tags",
			setup: func(m *githubmocks.MockClient) {
				gomock.InOrder(
					m.EXPECT().Do(gomock.Any(), requestFor(testPath)).Return(pageResponse(`{"versions":[]}`, nextLink), nil),
					m.EXPECT().Do(gomock.Any(), requestFor(nextURL)).Return(nil, errors.New("connection reset")),
				)
			},
			expected: nil,
		},
		{
			name: "undecodable page yields no tags",
			setup: func(m *githubmocks.MockClient) {
				m.EXPECT().Do(gomock.Any(), gomock.Any()).Return(pageResponse(`<html>`, ""), nil)
			},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			client := githubmocks.NewMockClient(ctrl)
			tt.setup(client)

			walker := NewWalker(client)
			assert.Equal(t, tt.expected, walker.FetchTags(context.Background(), testPath))
		})
	}
}

func TestWalker_FetchTags_PageSizeOverridesContinuation(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	client := githubmocks.NewMockClient(ctrl)

	var seen []url.Values
	client.EXPECT().Do(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, r *github.Request) (*github.Response, error) {
			seen = append(seen, r.Query)
			return pageResponse(`[]`, ""), nil
		})

	NewWalker(client).FetchTags(context.Background(), testPath+"?per_page=30")
	assert.Equal(t, []url.Values{{"per_page": []string{"100"}}}, seen)
}
