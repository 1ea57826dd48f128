package storage_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alejandrodnm/gamblersruin/internal/adapters/storage"
	"github.com/alejandrodnm/gamblersruin/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeRun(id string, createdAt time.Time) domain.RunRecord {
	p := domain.GeneralParams(10, 20, 0.45, 1.5, 2, 1000)
	p.Mode = domain.ModeExtended
	p.UseCredit = true
	p.Credit = 3
	p.UseMaxBet = true
	p.MaxBet = 6
	p.MaxSteps = 5000
	p.Seed = 1<<63 + 7 // bit alto activo: no cabe en int64 con signo

	return domain.RunRecord{
		ID:        id,
		CreatedAt: createdAt.UTC(),
		Params:    p,
		Result: domain.SimulationResult{
			WinProbability:       0.41,
			BrokeProbability:     0.58,
			InconclusiveFraction: 0.01,
			Trials:               1000,
			Tally:                domain.Tally{Wins: 410, Brokes: 580, Inconclusive: 10},
			WinStdError:          0.0155,
			LowConfidence:        false,
			Elapsed:              1234 * time.Microsecond,
			Policy:               "fixed+cap",
			StepLimit:            5000,
		},
	}
}

func openMemory(t *testing.T) *storage.SQLiteStore {
	t.Helper()
	db, err := storage.NewSQLiteStore(context.Background(), ":memory:", 0)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLiteStore_SaveAndList(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, db.SaveRun(ctx, makeRun("old", now.Add(-time.Hour))))
	require.NoError(t, db.SaveRun(ctx, makeRun("new", now)))

	runs, err := db.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	// más recientes primero
	assert.Equal(t, "new", runs[0].ID)
	assert.Equal(t, "old", runs[1].ID)
	assert.Equal(t, makeRun("new", now), runs[0])
}

func TestSQLiteStore_ListRespectsLimit(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()
	now := time.Now()

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, db.SaveRun(ctx, makeRun(id, now.Add(time.Duration(i)*time.Second))))
	}

	runs, err := db.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].ID)
}

func TestSQLiteStore_DuplicateID(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()

	require.NoError(t, db.SaveRun(ctx, makeRun("dup", time.Now())))
	assert.Error(t, db.SaveRun(ctx, makeRun("dup", time.Now())))
}

func TestSQLiteStore_RunsBetween(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, db.SaveRun(ctx, makeRun("before", base.Add(-48*time.Hour))))
	require.NoError(t, db.SaveRun(ctx, makeRun("in-1", base)))
	require.NoError(t, db.SaveRun(ctx, makeRun("in-2", base.Add(time.Hour))))
	require.NoError(t, db.SaveRun(ctx, makeRun("after", base.Add(48*time.Hour))))

	runs, err := db.RunsBetween(ctx, base.Add(-time.Minute), base.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "in-1", runs[0].ID)
	assert.Equal(t, "in-2", runs[1].ID)
}

func TestSQLiteStore_EmptyRange(t *testing.T) {
	db := openMemory(t)

	runs, err := db.RunsBetween(context.Background(), time.Now().Add(-time.Hour), time.Now())
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestSQLiteStore_PruneOnOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	ctx := context.Background()

	db, err := storage.NewSQLiteStore(ctx, path, 0)
	require.NoError(t, err)
	require.NoError(t, db.SaveRun(ctx, makeRun("stale", time.Now().Add(-40*24*time.Hour))))
	require.NoError(t, db.SaveRun(ctx, makeRun("fresh", time.Now())))
	require.NoError(t, db.Close())

	db, err = storage.NewSQLiteStore(ctx, path, 30*24*time.Hour)
	require.NoError(t, err)
	defer db.Close()

	runs, err := db.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "fresh", runs[0].ID)
}

func TestOpen_Drivers(t *testing.T) {
	ctx := context.Background()

	store, err := storage.Open(ctx, storage.Config{Driver: "none"})
	require.NoError(t, err)
	assert.Nil(t, store)

	store, err = storage.Open(ctx, storage.Config{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	require.NotNil(t, store)
	assert.NoError(t, store.Close())

	_, err = storage.Open(ctx, storage.Config{Driver: "mongo"})
	assert.ErrorIs(t, err, storage.ErrUnknownDriver)
}
