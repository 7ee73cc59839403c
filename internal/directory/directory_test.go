package directory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schedflow/schedflow/internal/testutil"
	"github.com/schedflow/schedflow/pkg/gcal"
)

func TestDirectory(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := testutil.SetupTestDB(t)
	defer testDB.Teardown(t)

	ctx := context.Background()
	dir := New(testDB.DB)

	t.Run("UnknownNameNotFound", func(t *testing.T) {
		_, err := dir.Resolve(ctx, "Bob")
		assert.ErrorIs(t, err, gcal.ErrContactNotFound)
	})

	t.Run("RememberedNameResolvesCaseInsensitively", func(t *testing.T) {
		require.NoError(t, dir.Remember(ctx, "Bob", "bob@example.com"))

		got, err := dir.Resolve(ctx, "bob")
		require.NoError(t, err)
		assert.Equal(t, "bob@example.com", got)
	})

	t.Run("NewestEntryWins", func(t *testing.T) {
		require.NoError(t, dir.Remember(ctx, "Bob", "bob@corp.example.com"))

		got, err := dir.Resolve(ctx, "Bob")
		require.NoError(t, err)
		assert.Equal(t, "bob@corp.example.com", got)
	})

	t.Run("AddressPassesThrough", func(t *testing.T) {
		got, err := dir.Resolve(ctx, " carol@example.com ")
		require.NoError(t, err)
		assert.Equal(t, "carol@example.com", got)
	})
}
