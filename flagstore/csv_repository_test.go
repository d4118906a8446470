package flagstore

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCSVRepository_LoadMissingFileIsEmpty(t *testing.T) {
	repo := NewCSVRepository(filepath.Join(t.TempDir(), "all_flags.csv"), discardLogger())

	store, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, store.Len())
}

func TestCSVRepository_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "all_flags.csv")
	repo := NewCSVRepository(path, discardLogger())
	ctx := context.Background()

	store := NewStoreFromDecisions([]Decision{{UID: 2, Flag: "C01,D06"}, {UID: 1, Flag: FlagGood}})
	require.NoError(t, repo.Save(ctx, store))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "uid,qflag\n1,G\n2,\"C01,D06\"\n", string(content))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, store.Decisions(), loaded.Decisions())

	// no temporary files are left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCSVRepository_SaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "all_flags.csv")
	repo := NewCSVRepository(path, discardLogger())
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, NewStoreFromDecisions([]Decision{{UID: 1, Flag: "G"}, {UID: 2, Flag: "G"}})))
	require.NoError(t, repo.Save(ctx, NewStoreFromDecisions([]Decision{{UID: 3, Flag: "C02"}})))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Decision{{UID: 3, Flag: "C02"}}, loaded.Decisions())
}

func TestReadFlagCSV_LegacyFile(t *testing.T) {
	legacy := "uid,qflag\n10,{'G'}\n11.0,\"{'C01', 'D06'}\"\n10,{'D06'}\n"

	decisions, err := readFlagCSV(strings.NewReader(legacy))
	require.NoError(t, err)
	require.Len(t, decisions, 3)

	store := NewStoreFromDecisions(decisions)
	assert.Equal(t, 2, store.Len())
	flag, _ := store.Get(10)
	assert.Equal(t, Flag("D06"), flag)
	flag, _ = store.Get(11)
	assert.Equal(t, Flag("C01,D06"), flag)
}

func TestReadFlagCSV_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{"missing column", "uid,flag\n1,G\n"},
		{"bad uid", "uid,qflag\nabc,G\n"},
		{"fractional uid", "uid,qflag\n1.5,G\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := readFlagCSV(strings.NewReader(tc.content))
			assert.Error(t, err)
		})
	}
}

func TestCSVRepository_NotReady(t *testing.T) {
	repo := NewCSVRepository("", discardLogger())

	_, err := repo.Load(context.Background())
	assert.ErrorIs(t, err, ErrRepositoryNotReady)
	assert.ErrorIs(t, repo.Save(context.Background(), NewStore()), ErrRepositoryNotReady)
}
