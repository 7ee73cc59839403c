package slots_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/schedflow/schedflow/pkg/models"
	"github.com/schedflow/schedflow/pkg/slots"
)

func day(h, m int) time.Time {
	return time.Date(2024, 3, 1, h, m, 0, 0, time.UTC)
}

func TestPlan(t *testing.T) {
	t.Run("BusyHourOffGridStillFourSlots", func(t *testing.T) {
		busy := []models.BusyInterval{{Start: day(10, 0), End: day(11, 0)}}
		got := slots.Plan(busy, 1, day(8, 0))
		assert.Equal(t, []time.Time{day(9, 0), day(11, 0), day(14, 0), day(16, 0)}, got)
	})

	t.Run("BusyOverlapExcludesSlot", func(t *testing.T) {
		busy := []models.BusyInterval{{Start: day(10, 30), End: day(11, 30)}}
		got := slots.Plan(busy, 1, day(8, 0))
		assert.Equal(t, []time.Time{day(9, 0), day(14, 0), day(16, 0)}, got)
	})

	t.Run("PastHoursSkippedOnCurrentDay", func(t *testing.T) {
		got := slots.Plan(nil, 1, day(12, 0))
		assert.Equal(t, []time.Time{day(14, 0), day(16, 0)}, got)
	})

	t.Run("FullyBusyDayYieldsNothing", func(t *testing.T) {
		busy := []models.BusyInterval{{Start: day(0, 0), End: day(23, 59)}}
		got := slots.Plan(busy, 1, day(8, 0))
		assert.Empty(t, got)
	})

	t.Run("NoSlotOverlapsBusy", func(t *testing.T) {
		busy := []models.BusyInterval{
			{Start: day(9, 0), End: day(10, 0)},
			{Start: day(15, 30), End: day(16, 30)},
			{Start: day(8, 45), End: day(9, 15)},
		}
		got := slots.Plan(busy, 3, day(8, 0))
		for _, s := range got {
			for _, b := range busy {
				assert.False(t, b.Overlaps(s, s.Add(slots.SlotDuration)),
					"slot %s overlaps busy [%s, %s)", s, b.Start, b.End)
			}
		}
	})

	t.Run("ChronologicalAcrossDays", func(t *testing.T) {
		got := slots.Plan(nil, 3, day(8, 0))
		assert.Len(t, got, 12)
		for i := 1; i < len(got); i++ {
			assert.True(t, got[i-1].Before(got[i]))
		}
	})

	t.Run("AdjacentBusyDoesNotExclude", func(t *testing.T) {
		// Half-open windows: busy ending exactly at slot start is fine.
		busy := []models.BusyInterval{{Start: day(8, 0), End: day(9, 0)}}
		got := slots.Plan(busy, 1, day(8, 0))
		assert.Contains(t, got, day(9, 0))
	})
}
