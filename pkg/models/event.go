package models

import "time"

// EventRequest is a pending scheduling request as captured from the user.
// Start and End are RFC3339 strings when the user gave an explicit time and
// empty otherwise.
type EventRequest struct {
	Summary      string   `json:"summary"`
	Attendees    []string `json:"attendees,omitempty"`
	Start        string   `json:"start,omitempty"`
	End          string   `json:"end,omitempty"`
	CreatorEmail string   `json:"creator_email,omitempty"`
}

// BusyInterval is a half-open time range [Start, End) retrieved from a
// calendar free/busy query. Used transiently by the planner, never persisted.
type BusyInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether the half-open window [start, end) intersects the
// interval.
func (b BusyInterval) Overlaps(start, end time.Time) bool {
	return start.Before(b.End) && end.After(b.Start)
}
