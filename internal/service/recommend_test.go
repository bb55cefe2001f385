package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func image(id int64, name string, stable bool, modified time.Time) Image {
	return Image{ID: id, Name: name, Stable: stable, ModifiedAt: modified}
}

func TestRecommend(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)
	t2 := t0.Add(2 * time.Hour)

	tests := []struct {
		name     string
		input    []Image
		expected []int64
	}{
		{
			name:     "empty input",
			input:    nil,
			expected: []int64{},
		},
		{
			name:     "single record is returned unchanged",
			input:    []Image{image(1, "x", false, t0)},
			expected: []int64{1},
		},
		{
			name: "stable beats unstable then latest stable wins",
			input: []Image{
				image(1, "x", false, t1),
				image(2, "x", true, t0),
				image(3, "x", true, t2),
			},
			expected: []int64{3},
		},
		{
			name: "unstable never replaces stable even when newer",
			input: []Image{
				image(1, "x", true, t0),
				image(2, "x", false, t2),
			},
			expected: []int64{1},
		},
		{
			name: "equal timestamps keep the first record",
			input: []Image{
				image(1, "x", true, t1),
				image(2, "x", true, t1),
			},
			expected: []int64{1},
		},
		{
			name: "latest unstable wins when nothing is stable",
			input: []Image{
				image(1, "x", false, t0),
				image(2, "x", false, t2),
				image(3, "x", false, t1),
			},
			expected: []int64{2},
		},
		{
			name: "one record per name in first appearance order",
			input: []Image{
				image(1, "acars_router", true, t0),
				image(2, "docker-readsb", true, t0),
				image(3, "acars_router", true, t2),
				image(4, "docker-readsb", true, t1),
			},
			expected: []int64{3, 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := Recommend(tt.input)
			ids := make([]int64, 0, len(result))
			for _, img := range result {
				ids = append(ids, img.ID)
			}
			assert.Equal(t, tt.expected, ids)
		})
	}
}

func TestRecommend_IndependentOfInputOrder(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	records := []Image{
		image(1, "x", false, t0.Add(3*time.Hour)),
		image(2, "x", true, t0),
		image(3, "x", true, t0.Add(2*time.Hour)),
		image(4, "x", false, t0.Add(time.Hour)),
	}

	forward := Recommend(records)
	reversed := Recommend([]Image{records[3], records[2], records[1], records[0]})

	assert.Equal(t, forward, reversed)
	assert.Equal(t, int64(3), forward[0].ID)
}

func TestRecommendSecondary(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newest := image(2, "x", true, t0.Add(time.Hour))
	withSecondary := image(1, "x", true, t0)
	withSecondary.SecondaryURL = "ghcr.io/sdr-enthusiasts/x:trixie-latest-1"

	result := RecommendSecondary([]Image{withSecondary, newest, image(3, "y", true, t0)})
	assert.Equal(t, []Image{withSecondary}, result)

	assert.Empty(t, RecommendSecondary(nil))
}
