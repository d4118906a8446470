package flagstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLRepository(t *testing.T) *SQLRepository {
	t.Helper()

	db, err := NewSqliteDB(filepath.Join(t.TempDir(), "flags.db"))
	require.NoError(t, err)

	repo, err := NewSqlRepository(db, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	return repo
}

func TestSQLRepository_EmptyLoad(t *testing.T) {
	repo := newTestSQLRepository(t)

	store, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, store.Len())
}

func TestSQLRepository_SaveReplacesContent(t *testing.T) {
	repo := newTestSQLRepository(t)
	ctx := context.Background()

	first := NewStoreFromDecisions([]Decision{{UID: 1, Flag: FlagGood}, {UID: 2, Flag: "C01"}})
	require.NoError(t, repo.Save(ctx, first))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.Decisions(), loaded.Decisions())

	loaded.Merge([]Decision{{UID: 2, Flag: FlagGood}, {UID: 3, Flag: "D06"}})
	require.NoError(t, repo.Save(ctx, loaded))

	reloaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Decision{
		{UID: 1, Flag: FlagGood},
		{UID: 2, Flag: FlagGood},
		{UID: 3, Flag: "D06"},
	}, reloaded.Decisions())
}

func TestSQLRepository_NilStore(t *testing.T) {
	repo := newTestSQLRepository(t)
	assert.ErrorIs(t, repo.Save(context.Background(), nil), ErrNilStore)
}

func TestNewSqlRepository_NilDB(t *testing.T) {
	_, err := NewSqlRepository(nil, discardLogger())
	assert.ErrorIs(t, err, ErrDBNotAvailable)
}
