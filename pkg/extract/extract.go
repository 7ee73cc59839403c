// Package extract turns unstructured email reply text into a concrete
// meeting start time.
package extract

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/pkg/errors"
)

// ErrNoSlot is returned when no date/time could be recognized in the reply.
// Recoverable: callers leave the task untouched and retry on the next poll.
var ErrNoSlot = errors.New("no slot found in reply")

// Extractor parses free-text replies with a two-stage strategy: a permissive
// natural-language parse biased toward future dates, then a stricter layout
// parse as fallback.
type Extractor struct {
	parser *when.Parser
}

// New builds an Extractor with the English and common rule sets.
func New() *Extractor {
	p := when.New(nil)
	p.Add(en.All...)
	p.Add(common.All...)
	return &Extractor{parser: p}
}

// StripQuoted isolates the human's new content from quoted history: the text
// before the first "On ... wrote:" marker and before the first line break,
// trimmed.
func StripQuoted(reply string) string {
	cut, _, _ := strings.Cut(reply, "On ")
	cut, _, _ = strings.Cut(cut, "\n")
	return strings.TrimSpace(cut)
}

// Extract resolves the reply into a single point in time relative to ref.
// Callers derive the one-hour meeting window [start, start+1h) themselves.
// No timezone conversion happens here; the operating timezone is fixed.
func (e *Extractor) Extract(reply string, ref time.Time) (time.Time, error) {
	cleaned := StripQuoted(reply)
	if cleaned == "" {
		return time.Time{}, ErrNoSlot
	}

	if r, err := e.parser.Parse(cleaned, ref); err == nil && r != nil {
		return EnsureFuture(r.Time, ref), nil
	}

	t, err := dateparse.ParseIn(cleaned, ref.Location())
	if err != nil {
		return time.Time{}, errors.Wrapf(ErrNoSlot, "parse %q", cleaned)
	}
	return EnsureFuture(defaultFromRef(t, ref), ref), nil
}

// defaultFromRef fills date fields the fuzzy parse left at zero values with
// the corresponding fields of ref: a time-only reply lands on ref's day and
// a year-less date lands in ref's year, instead of in year zero.
func defaultFromRef(t, ref time.Time) time.Time {
	if t.Year() > 1 {
		return t
	}
	month, day := t.Month(), t.Day()
	if month == time.January && day == 1 {
		month, day = ref.Month(), ref.Day()
	}
	return time.Date(ref.Year(), month, day, t.Hour(), t.Minute(), t.Second(), 0, ref.Location())
}

// EnsureFuture pushes a parse that landed in the past into the following
// year, e.g. "Monday 9am" resolved onto a past weekday. Approximate future
// disambiguation, not a timezone-correct rule; isolated here so it can be
// replaced.
func EnsureFuture(t, ref time.Time) time.Time {
	if !t.Before(ref) {
		return t
	}
	return time.Date(ref.Year()+1, t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
