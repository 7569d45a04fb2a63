package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vouch/internal/testutil"
)

// newTestStore opens a deterministic in-memory store.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:",
		WithIDGenerator(testutil.NewFixedIDGenerator("rec")),
		WithVersionSource(testutil.NewDeterministicClock()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_FileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vouch.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Reopening the same file is safe.
	s, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestOpen_BadPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "no", "such", "dir", "vouch.db"))
	assert.Error(t, err)
}

func TestClose_NilSafe(t *testing.T) {
	var s Store
	assert.NoError(t, s.Close())
}

func TestInsert_AugmentsRecord(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec, err := s.Insert(ctx, map[string]any{"username": "u", "password": "p"})
	require.NoError(t, err)

	assert.Equal(t, "rec-0001", rec.ID)
	assert.Equal(t, int64(1), rec.Version)
	assert.Equal(t, map[string]any{"username": "u", "password": "p"}, rec.Fields)

	rec2, err := s.Insert(ctx, map[string]any{"username": "w", "password": "p"})
	require.NoError(t, err)
	assert.Equal(t, "rec-0002", rec2.ID)
	assert.Equal(t, int64(2), rec2.Version)
}

func TestInsert_RejectsFloatFields(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Insert(context.Background(), map[string]any{"ratio": 0.5})
	assert.Error(t, err)
}

func TestFindByField_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	inserted, err := s.Insert(ctx, map[string]any{"username": "u", "password": "p", "active": true, "age": int64(30)})
	require.NoError(t, err)

	found, err := s.FindByField(ctx, "username", "u")
	require.NoError(t, err)
	require.NotNil(t, found)

	assert.Equal(t, inserted.ID, found.ID)
	assert.Equal(t, inserted.Version, found.Version)
	assert.Equal(t, inserted.Fields, found.Fields)
}

func TestFindByField_BoolValue(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Insert(ctx, map[string]any{"username": "u", "active": true})
	require.NoError(t, err)

	found, err := s.FindByField(ctx, "active", true)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "u", found.Fields["username"])
}

func TestFindByField_NotFound(t *testing.T) {
	s := newTestStore(t)

	found, err := s.FindByField(context.Background(), "username", "ghost")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestFindByField_AmbiguousMatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Insert(ctx, map[string]any{"username": "dup"})
	require.NoError(t, err)
	_, err = s.Insert(ctx, map[string]any{"username": "dup"})
	require.NoError(t, err)

	_, err = s.FindByField(ctx, "username", "dup")
	assert.Error(t, err)
}

func TestFindByField_InvalidFieldName(t *testing.T) {
	s := newTestStore(t)

	_, err := s.FindByField(context.Background(), "user name'; --", "u")
	assert.Error(t, err)
}

func TestWipe_EmptiesStore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Insert(ctx, map[string]any{"username": "a"})
	require.NoError(t, err)
	_, err = s.Insert(ctx, map[string]any{"username": "b"})
	require.NoError(t, err)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, s.Wipe(ctx))

	n, err = s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestRecord_FieldsNotSharedWithCaller(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	input := map[string]any{"username": "u"}
	rec, err := s.Insert(ctx, input)
	require.NoError(t, err)

	input["username"] = "mutated"
	assert.Equal(t, "u", rec.Fields["username"])
}
