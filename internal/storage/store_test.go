package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/meterreport/internal/meter"
)

// openTestStore creates a migrated in-memory Store for testing.
func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	runner := NewMigrationRunner(db)
	require.NoError(t, runner.Run())

	store, err := NewSQLiteStore(db)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func sampleRows() []meter.RawRecord {
	return []meter.RawRecord{
		{
			"Hidrometro":      "H1",
			"Diametro":        "DN 20",
			"Situacao":        "CONNECTED",
			"Data Instalacao": "2020-06-01",
			"Grupo Leitura":   "G1",
			"Perfil Imovel":   "Residential",
		},
		{
			"Hidrometro":    "H2",
			"Diametro":      25,
			"Situacao":      "CUT",
			"Grupo Leitura": "G2",
			"Perfil Imovel": "Commercial",
		},
	}
}

func TestImportRaw_LoadRaw_Roundtrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	cols := meter.DefaultColumns()

	imp, err := store.ImportRaw(ctx, "meters.csv", sampleRows(), cols)
	require.NoError(t, err)
	assert.Positive(t, imp.ID)
	assert.Equal(t, "meters.csv", imp.Source)
	assert.Equal(t, 2, imp.RowCount)

	rows, err := store.LoadRaw(ctx, cols)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "H1", rows[0]["Hidrometro"])
	assert.Equal(t, "DN 20", rows[0]["Diametro"])
	assert.Equal(t, "2020-06-01", rows[0]["Data Instalacao"])

	assert.Equal(t, "H2", rows[1]["Hidrometro"])
	assert.Equal(t, "25", rows[1]["Diametro"], "cells are stored as text")
	_, hasDate := rows[1]["Data Instalacao"]
	assert.False(t, hasDate, "missing install date stays missing")
}

func TestLoadRaw_NormalizesToSameRecords(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	cols := meter.DefaultColumns()
	ref := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	n := meter.NewNormalizer(ref, meter.PrecisionInteger, cols)

	direct, _, err := n.NormalizeAll(sampleRows(), true)
	require.NoError(t, err)

	_, err = store.ImportRaw(ctx, "meters.csv", sampleRows(), cols)
	require.NoError(t, err)
	rows, err := store.LoadRaw(ctx, cols)
	require.NoError(t, err)
	stored, _, err := n.NormalizeAll(rows, true)
	require.NoError(t, err)

	assert.Equal(t, direct.Records(), stored.Records())
}

func TestLoadRaw_LatestImportWins(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	cols := meter.DefaultColumns()

	_, err := store.ImportRaw(ctx, "old.csv", sampleRows(), cols)
	require.NoError(t, err)
	_, err = store.ImportRaw(ctx, "new.csv", sampleRows()[:1], cols)
	require.NoError(t, err)

	latest, err := store.LatestImport(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new.csv", latest.Source)
	assert.False(t, latest.ImportedAt.IsZero())

	rows, err := store.LoadRaw(ctx, cols)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestLoadRaw_CustomColumns(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	cols := meter.DefaultColumns()
	cols.Diameter = "DN"
	_, err := store.ImportRaw(ctx, "x", []meter.RawRecord{{"Hidrometro": "H9", "DN": "32"}}, cols)
	require.NoError(t, err)

	rows, err := store.LoadRaw(ctx, cols)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "32", rows[0]["DN"])
}

func TestLoadRaw_EmptyDatabase(t *testing.T) {
	store := openTestStore(t)

	_, err := store.LoadRaw(context.Background(), meter.DefaultColumns())
	assert.ErrorIs(t, err, ErrNoImport)

	_, err = store.LatestImport(context.Background())
	assert.ErrorIs(t, err, ErrNoImport)
}

func TestImportRaw_EmptyImport(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	imp, err := store.ImportRaw(ctx, "empty.csv", nil, meter.DefaultColumns())
	require.NoError(t, err)
	assert.Equal(t, 0, imp.RowCount)

	rows, err := store.LoadRaw(ctx, meter.DefaultColumns())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestOpen_FileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meters.db")

	store, db, err := Open(path)
	require.NoError(t, err)
	_, err = store.ImportRaw(context.Background(), "a.csv", sampleRows(), meter.DefaultColumns())
	require.NoError(t, err)
	store.Close()
	db.Close()

	store, db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()
	defer store.Close()

	rows, err := store.LoadRaw(context.Background(), meter.DefaultColumns())
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestParseTimestamp(t *testing.T) {
	ts, err := parseTimestamp("2024-06-01 10:00:00")
	require.NoError(t, err)
	assert.Equal(t, 10, ts.Hour())

	_, err = parseTimestamp("garbage")
	assert.Error(t, err)
}

func TestListImports_NewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	cols := meter.DefaultColumns()

	for _, name := range []string{"a.csv", "b.csv", "c.csv"} {
		_, err := store.ImportRaw(ctx, name, sampleRows(), cols)
		require.NoError(t, err)
	}

	imports, err := store.ListImports(ctx)
	require.NoError(t, err)
	require.Len(t, imports, 3)
	assert.Equal(t, "c.csv", imports[0].Source)
	assert.Equal(t, "a.csv", imports[2].Source)
	assert.Equal(t, 2, imports[0].RowCount)
}

func TestPruneImports(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	cols := meter.DefaultColumns()

	for _, name := range []string{"a.csv", "b.csv", "c.csv"} {
		_, err := store.ImportRaw(ctx, name, sampleRows(), cols)
		require.NoError(t, err)
	}

	n, err := store.PruneImports(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	imports, err := store.ListImports(ctx)
	require.NoError(t, err)
	require.Len(t, imports, 1)
	assert.Equal(t, "c.csv", imports[0].Source)

	var meters int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM meters").Scan(&meters))
	assert.Equal(t, 2, meters, "meter rows of pruned imports cascade away")

	_, err = store.PruneImports(ctx, -1)
	assert.Error(t, err)
}
