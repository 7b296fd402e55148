package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/meterreport/internal/meter"
	"github.com/runnerr0/meterreport/internal/storage"
)

// setupPruneTest creates a store holding n imports of one row each.
func setupPruneTest(t *testing.T, n int) *storage.SQLiteStore {
	t.Helper()
	store := setupStore(t)
	for i := 0; i < n; i++ {
		rows := []meter.RawRecord{{"Hidrometro": fmt.Sprintf("H%d", i), "Diametro": "20"}}
		_, err := store.ImportRaw(context.Background(), fmt.Sprintf("import-%d.csv", i), rows, meter.DefaultColumns())
		require.NoError(t, err)
	}
	return store
}

func TestPrune_KeepsNewest(t *testing.T) {
	store := setupPruneTest(t, 3)
	cmd := &PruneCommand{globals: &GlobalFlags{}, Keep: 1}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store))
	})
	assert.Contains(t, output, "Pruned 2 imports")
	assert.Contains(t, output, "import-0.csv")

	imports, err := store.ListImports(context.Background())
	require.NoError(t, err)
	require.Len(t, imports, 1)
	assert.Equal(t, "import-2.csv", imports[0].Source)
}

func TestPrune_DryRun(t *testing.T) {
	store := setupPruneTest(t, 3)
	cmd := &PruneCommand{globals: &GlobalFlags{}, Keep: 2, DryRun: true}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store))
	})
	assert.Contains(t, output, "Would prune 1 imports")

	imports, err := store.ListImports(context.Background())
	require.NoError(t, err)
	assert.Len(t, imports, 3)
}

func TestPrune_NothingToDo(t *testing.T) {
	store := setupPruneTest(t, 1)
	cmd := &PruneCommand{globals: &GlobalFlags{}, Keep: 1}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store))
	})
	assert.Contains(t, output, "Nothing to prune (1 imports)")
}

func TestPrune_JSON(t *testing.T) {
	store := setupPruneTest(t, 4)
	cmd := &PruneCommand{globals: &GlobalFlags{JSON: true}, Keep: 2}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store))
	})

	var got pruneJSON
	require.NoError(t, json.Unmarshal([]byte(output), &got))
	assert.Equal(t, int64(2), got.Pruned)
	assert.Equal(t, 2, got.Kept)
	assert.Equal(t, []int64{2, 1}, got.Removed)
}

func TestPrune_DefaultDatasetMustBeSQLite(t *testing.T) {
	csvPath := writeCSV(t)
	t.Setenv("METERREPORT_DATA", csvPath)
	before, err := os.ReadFile(csvPath)
	require.NoError(t, err)

	cmd := &PruneCommand{globals: &GlobalFlags{}, Keep: 1}
	err = cmd.Execute(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not a SQLite database")

	after, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestPrune_MissingDatabaseIsNotCreated(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	for _, cmd := range []*PruneCommand{
		{globals: &GlobalFlags{Data: filepath.Join(dir, "meters.db")}, Keep: 1},
		{globals: &GlobalFlags{}, DB: filepath.Join(dir, "other.db"), Keep: 1},
	} {
		err := cmd.Execute(nil)
		require.Error(t, err)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPrune_DefaultDatasetSQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "meters.db")
	store, closeStore, err := openStore(dbPath)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := store.ImportRaw(context.Background(), fmt.Sprintf("import-%d.csv", i),
			[]meter.RawRecord{{"Hidrometro": "H1", "Diametro": "20"}}, meter.DefaultColumns())
		require.NoError(t, err)
	}
	closeStore()

	cmd := &PruneCommand{globals: &GlobalFlags{Data: dbPath}, Keep: 1}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.Execute(nil))
	})
	assert.Contains(t, output, "Pruned 2 imports")
}
