package history

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_RecordAndList(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	require.NoError(t, s.Record(ctx, Entry{Source: "1 + 2", Result: "3"}))
	require.NoError(t, s.Record(ctx, Entry{Source: "foobar", Result: "ERROR: identifier not found: foobar", IsError: true}))

	entries, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "foobar", entries[0].Source)
	assert.True(t, entries[0].IsError)
	assert.Equal(t, "1 + 2", entries[1].Source)
	assert.Equal(t, "3", entries[1].Result)
	assert.False(t, entries[1].IsError)
	assert.Greater(t, entries[0].ID, entries[1].ID)
	assert.True(t, fixed.Equal(entries[1].CreatedAt), "created_at = %v", entries[1].CreatedAt)
}

func TestStore_ListLimit(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	for i := range 30 {
		require.NoError(t, s.Record(ctx, Entry{Source: fmt.Sprint(i), Result: fmt.Sprint(i)}))
	}

	entries, err := s.List(ctx, 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "29", entries[0].Source)
	assert.Equal(t, "27", entries[2].Source)

	entries, err = s.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, entries, DefaultLimit)
}

func TestStore_Empty(t *testing.T) {
	entries, err := openStore(t).List(context.Background(), 5)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Record(ctx, Entry{Source: "let a = 1;", Result: ""}))
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	entries, err := s.List(ctx, 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "let a = 1;", entries[0].Source)
}

func TestOpen_EmptyDSN(t *testing.T) {
	_, err := Open(context.Background(), "")
	assert.Error(t, err)
}
