package mail

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schedflow/schedflow/internal/testutil"
	"github.com/schedflow/schedflow/pkg/gcal"
)

func TestInbox(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := testutil.SetupTestDB(t)
	defer testDB.Teardown(t)

	ctx := context.Background()
	inbox := NewInbox(testDB.DB)

	t.Run("RecordAndReadBackOldestFirst", func(t *testing.T) {
		require.NoError(t, inbox.Record(ctx, "thread-1", gcal.Message{Snippet: "availability offer"}))
		require.NoError(t, inbox.Record(ctx, "thread-1", gcal.Message{
			From:    "alice@example.com",
			Snippet: "Monday 9am works for me",
			Date:    time.Now(),
		}))

		msgs, err := inbox.GetThread(ctx, "thread-1")
		require.NoError(t, err)
		require.Len(t, msgs, 2)
		assert.Equal(t, "availability offer", msgs[0].Snippet)
		assert.Equal(t, "alice@example.com", msgs[1].From)
		assert.Equal(t, "Monday 9am works for me", msgs[1].Snippet)
	})

	t.Run("UnknownThreadIsEmpty", func(t *testing.T) {
		msgs, err := inbox.GetThread(ctx, "thread-unknown")
		require.NoError(t, err)
		assert.Empty(t, msgs)
	})

	t.Run("WrappedSenderSeedsThread", func(t *testing.T) {
		sender := inbox.WrapSender(stubSender{threadID: "thread-2"})
		threadID, err := sender.Send(ctx, "alice@example.com", "subject", "pick a slot")
		require.NoError(t, err)
		require.Equal(t, "thread-2", threadID)

		msgs, err := inbox.GetThread(ctx, "thread-2")
		require.NoError(t, err)
		require.Len(t, msgs, 1)
		assert.Equal(t, "pick a slot", msgs[0].Snippet)
	})
}
