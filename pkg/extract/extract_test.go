package extract_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schedflow/schedflow/pkg/extract"
)

func TestStripQuoted(t *testing.T) {
	t.Run("QuoteMarker", func(t *testing.T) {
		got := extract.StripQuoted("Monday 9am works for me. On Tue, Jan 2 wrote: ...")
		assert.Equal(t, "Monday 9am works for me.", got)
	})

	t.Run("LineBreak", func(t *testing.T) {
		got := extract.StripQuoted("Tuesday at 2pm\n> quoted history\n> more history")
		assert.Equal(t, "Tuesday at 2pm", got)
	})

	t.Run("Idempotent", func(t *testing.T) {
		once := extract.StripQuoted("Monday 9am works for me. On Tue, Jan 2 wrote: ...")
		assert.Equal(t, once, extract.StripQuoted(once))
	})
}

func TestExtract(t *testing.T) {
	e := extract.New()
	// Friday, March 1st 2024, 08:00.
	ref := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	t.Run("ReplyWithQuotedHistory", func(t *testing.T) {
		got, err := e.Extract("Monday 9am works for me. On Tue, Jan 2 wrote: ...", ref)
		require.NoError(t, err)
		// Next Monday at 09:00, still in 2024.
		assert.Equal(t, time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC), got)
	})

	t.Run("SameResultAsStrippedPhrase", func(t *testing.T) {
		full, err := e.Extract("Monday 9am works for me. On Tue, Jan 2 wrote: ...", ref)
		require.NoError(t, err)
		stripped, err := e.Extract("Monday 9am works for me.", ref)
		require.NoError(t, err)
		assert.Equal(t, stripped, full)
	})

	t.Run("ExplicitDate", func(t *testing.T) {
		got, err := e.Extract("2024-03-05 14:00", ref)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 3, 5, 14, 0, 0, 0, time.UTC), got)
	})

	t.Run("NoRecognizableSlot", func(t *testing.T) {
		_, err := e.Extract("sounds great, thanks!", ref)
		assert.ErrorIs(t, err, extract.ErrNoSlot)
	})

	t.Run("EmptyAfterStripping", func(t *testing.T) {
		_, err := e.Extract("On Tue, Jan 2 wrote: ...", ref)
		assert.ErrorIs(t, err, extract.ErrNoSlot)
	})
}

func TestEnsureFuture(t *testing.T) {
	ref := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	t.Run("PastRollsForward", func(t *testing.T) {
		past := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
		got := extract.EnsureFuture(past, ref)
		assert.Equal(t, time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC), got)
	})

	t.Run("FutureUntouched", func(t *testing.T) {
		future := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
		assert.Equal(t, future, extract.EnsureFuture(future, ref))
	})
}
