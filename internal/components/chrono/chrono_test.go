package chrono

import (
	"testing"
	"time"

	"curriculum-scraper/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

func TestStandardImpl(t *testing.T) {
	clock, err := NewStandardImpl("UTC")
	require.NoError(t, err)
	require.Equal(t, time.UTC, clock.Location())

	before := time.Now()
	now := clock.Now()
	require.False(t, now.Before(before.Add(-time.Second)))
	require.Equal(t, time.UTC, now.Location())

	_, err = NewStandardImpl("Not/AZone")
	require.Error(t, err)
}

func TestFixedImpl(t *testing.T) {
	start := time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)
	clock := NewFixedImpl(start, time.Second)

	require.Equal(t, start, clock.Now())
	require.Equal(t, start.Add(time.Second), clock.Now())
	require.Equal(t, time.UTC, clock.Location())
}

func TestNextRun(t *testing.T) {
	after := time.Date(2024, 9, 3, 14, 30, 0, 0, time.UTC)

	next, err := NextRun("0 6 * * 1-5", after)
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 9, 4, 6, 0, 0, 0, time.UTC), next)

	_, err = NextRun("every tuesday", after)
	require.Error(t, err)
}

func TestStandardCronRejectsBadSpec(t *testing.T) {
	clock := NewFixedImpl(time.Date(2024, 9, 3, 14, 30, 0, 0, time.UTC), 0)
	scheduler := NewStandardCron(clock, telemetry.NewRecordingAPI())
	defer scheduler.Stop()

	_, err := scheduler.Cron("scrape", "61 * * * *", func() {})
	require.ErrorContains(t, err, "parse schedule of scrape")

	next, err := scheduler.Cron("scrape", "*/15 * * * *", func() {})
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 9, 3, 14, 45, 0, 0, time.UTC), next)
}
