// Package slots computes candidate meeting slots from calendar busy data.
package slots

import (
	"time"

	"github.com/schedflow/schedflow/pkg/models"
)

// SlotDuration is the fixed meeting window length.
const SlotDuration = time.Hour

// candidateHours is the fixed daily grid of proposable start hours.
var candidateHours = []int{9, 11, 14, 16}

// Plan enumerates free one-hour slots over the next horizonDays calendar
// days, including the current day, earliest first. A slot is emitted iff its
// half-open window [start, start+1h) overlaps no busy interval and, on the
// current day, has not already passed ref.
func Plan(busy []models.BusyInterval, horizonDays int, ref time.Time) []time.Time {
	var out []time.Time
	for d := 0; d < horizonDays; d++ {
		day := ref.AddDate(0, 0, d)
		for _, h := range candidateHours {
			start := time.Date(day.Year(), day.Month(), day.Day(), h, 0, 0, 0, ref.Location())
			if start.Before(ref) {
				continue
			}
			if isFree(busy, start, start.Add(SlotDuration)) {
				out = append(out, start)
			}
		}
	}
	return out
}

func isFree(busy []models.BusyInterval, start, end time.Time) bool {
	for _, iv := range busy {
		if iv.Overlaps(start, end) {
			return false
		}
	}
	return true
}
