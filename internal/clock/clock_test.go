package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClockToday(t *testing.T) {
	t.Parallel()

	shanghai := time.FixedZone("CST", 8*3600)
	// 20:30 UTC is already the next day at UTC+8.
	c := New(shanghai, func() time.Time { return time.Date(2026, 10, 18, 20, 30, 0, 0, time.UTC) })

	assert.Equal(t, "2026-10-19", c.Today())
	assert.Equal(t, "2026-10-19 04:30:00", c.Timestamp())
}

func TestParsePublished(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("CST", 8*3600)
	cases := []struct {
		in   string
		want time.Time
	}{
		{"2026-10-19T08:00:00Z", time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)},
		{"2026-10-19T08:00:00+08:00", time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)},
		{"2026-10-19T08:00:00", time.Date(2026, 10, 19, 8, 0, 0, 0, loc)},
		{"2026-10-19 08:00:00", time.Date(2026, 10, 19, 8, 0, 0, 0, loc)},
		{"2026-10-19", time.Date(2026, 10, 19, 0, 0, 0, 0, loc)},
		{"Mon, 19 Oct 2026 08:00:00 +0000", time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		got, ok := ParsePublished(tc.in, loc)
		require.True(t, ok, tc.in)
		assert.True(t, tc.want.Equal(got), "%s: got %v want %v", tc.in, got, tc.want)
	}

	_, ok := ParsePublished("yesterday-ish", loc)
	assert.False(t, ok)
	_, ok = ParsePublished("", loc)
	assert.False(t, ok)
}

func TestDatePrefix(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "2026-10-19", DatePrefix("2026-10-19 10:00:00"))
	assert.Equal(t, "", DatePrefix("2026"))
}
