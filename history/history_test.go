package history_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/sqlstudio/history"
)

func TestRecent(t *testing.T) {
	t.Run("most recent first", func(t *testing.T) {
		r := history.NewRecent(3)
		r.Add("SELECT 1")
		r.Add("SELECT 2")
		assert.Equal(t, []string{"SELECT 2", "SELECT 1"}, r.List())
	})

	t.Run("re-running moves to front", func(t *testing.T) {
		r := history.NewRecent(3)
		r.Add("SELECT 1")
		r.Add("SELECT 2")
		r.Add("  SELECT 1 ")
		assert.Equal(t, []string{"SELECT 1", "SELECT 2"}, r.List())
	})

	t.Run("bounded", func(t *testing.T) {
		r := history.NewRecent(0)
		for i := 0; i < 15; i++ {
			r.Add(fmt.Sprintf("SELECT %d", i))
		}
		assert.Equal(t, history.DefaultLimit, r.Len())
		assert.Equal(t, "SELECT 14", r.List()[0])
		assert.Equal(t, "SELECT 5", r.List()[9])
	})

	t.Run("blank ignored", func(t *testing.T) {
		r := history.NewRecent(3)
		r.Add("   ")
		assert.Zero(t, r.Len())
	})

	t.Run("list is a copy", func(t *testing.T) {
		r := history.NewRecent(3)
		r.Add("SELECT 1")
		l := r.List()
		l[0] = "changed"
		assert.Equal(t, []string{"SELECT 1"}, r.List())
		r.Clear()
		assert.Zero(t, r.Len())
	})
}

func newStore(t *testing.T) *history.Store {
	t.Helper()
	s, err := history.NewStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreRecentDeduplicates(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, history.Entry{Query: "SELECT * FROM `Run`", Duration: 12 * time.Millisecond, RowCount: 3, Success: true}))
	require.NoError(t, s.Add(ctx, history.Entry{Query: "DELETE FROM `Run`", AffectedRows: 3, Success: true}))
	require.NoError(t, s.Add(ctx, history.Entry{Query: "SELECT * FROM `Run`", RowCount: 0, Success: true}))
	require.NoError(t, s.Add(ctx, history.Entry{Query: "SELEC", ErrorMessage: "syntax error"}))

	entries, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "SELEC", entries[0].Query)
	assert.False(t, entries[0].Success)
	assert.Equal(t, "syntax error", entries[0].ErrorMessage)
	assert.Equal(t, "SELECT * FROM `Run`", entries[1].Query)
	assert.Equal(t, 0, entries[1].RowCount)
	assert.Equal(t, "DELETE FROM `Run`", entries[2].Query)
	assert.Equal(t, int64(3), entries[2].AffectedRows)
	assert.False(t, entries[2].ExecutedAt.IsZero())
}

func TestStoreSearch(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, history.Entry{Query: "SELECT * FROM `Run`", Duration: 1500 * time.Millisecond, Success: true}))
	require.NoError(t, s.Add(ctx, history.Entry{Query: "SELECT * FROM `Agent`", Success: true}))

	entries, err := s.Search(ctx, "Run", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 1500*time.Millisecond, entries[0].Duration)

	entries, err = s.Search(ctx, "nothing", 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStoreSeed(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	for _, q := range []string{"SELECT 1", "SELECT 2", "SELECT 1", "SELECT 3"} {
		require.NoError(t, s.Add(ctx, history.Entry{Query: q, Success: true}))
	}

	r := history.NewRecent(2)
	require.NoError(t, s.Seed(ctx, r))
	assert.Equal(t, []string{"SELECT 3", "SELECT 1"}, r.List())
}
