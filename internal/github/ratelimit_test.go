package github

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRateLimit(t *testing.T) {
	t.Parallel()

	t.Run("resources core", func(t *testing.T) {
		t.Parallel()

		rl, err := ParseRateLimit([]byte(`{"resources":{"core":{"limit":5000,"remaining":4990,"used":10,"reset":1700000000}},"rate":{"limit":1}}`))
		require.NoError(t, err)
		assert.Equal(t, int64(5000), rl.Limit)
		assert.Equal(t, int64(4990), rl.Remaining)
		assert.Equal(t, int64(10), rl.Used)
		assert.Equal(t, time.Unix(1700000000, 0).UTC(), rl.Reset)
	})

	t.Run("falls back to rate", func(t *testing.T) {
		t.Parallel()

		rl, err := ParseRateLimit([]byte(`{"rate":{"limit":60,"remaining":59}}`))
		require.NoError(t, err)
		assert.Equal(t, int64(60), rl.Limit)
		assert.Equal(t, int64(59), rl.Remaining)
	})

	t.Run("invalid payloads", func(t *testing.T) {
		t.Parallel()

		_, err := ParseRateLimit([]byte(`not json`))
		assert.Error(t, err)

		_, err = ParseRateLimit([]byte(`{"resources":{}}`))
		assert.Error(t, err)
	})
}
