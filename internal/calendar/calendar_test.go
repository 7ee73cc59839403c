package calendar

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schedflow/schedflow/internal/testutil"
	"github.com/schedflow/schedflow/pkg/gcal"
)

func TestCalendar(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := testutil.SetupTestDB(t)
	defer testDB.Teardown(t)

	ctx := context.Background()
	cal := New(testDB.DB)

	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

	t.Run("CreatedEventShowsUpAsBusy", func(t *testing.T) {
		id, err := cal.CreateEvent(ctx, gcal.Event{
			Summary:   "Roadmap sync",
			Attendees: []string{"me@example.com", "alice@example.com"},
			Start:     day.Add(9 * time.Hour),
			End:       day.Add(10 * time.Hour),
			Timezone:  "UTC",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, id)

		busy, err := cal.QueryBusy(ctx, day, day.AddDate(0, 0, 1), "primary")
		require.NoError(t, err)
		require.Len(t, busy, 1)
		assert.Equal(t, day.Add(9*time.Hour), busy[0].Start.UTC())
		assert.Equal(t, day.Add(10*time.Hour), busy[0].End.UTC())
	})

	t.Run("QueryWindowExcludesNonOverlapping", func(t *testing.T) {
		busy, err := cal.QueryBusy(ctx, day.Add(10*time.Hour), day.Add(12*time.Hour), "primary")
		require.NoError(t, err)
		assert.Empty(t, busy, "half-open intervals: an event ending at the window start is not busy")
	})
}
