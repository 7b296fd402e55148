package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/runnerr0/meterreport/internal/meter"
)

var refTime = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

const testCSV = "Hidrometro;Diametro;Situacao;Data Instalacao;Grupo Leitura;Perfil Imovel\n" +
	"H1;DN 20;CONNECTED;2023-06-01;G1;Residential\n" +
	"H2;DN 20;CONNECTED;2021-06-01;G2;Residential\n" +
	"H3;25 mm;CUT;2019-06-01;G1;Commercial\n" +
	"H4;32;CONNECTED;2017-06-01;G1;Industrial\n" +
	"H5;sem;CONNECTED;2017-06-01;G1;Industrial\n"

// captureOutput captures stdout during fn execution and returns it as a string.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

// writeCSV writes testCSV to a temp file and pins the reference date so
// ages are stable.
func writeCSV(t *testing.T) string {
	t.Helper()
	t.Setenv("METERREPORT_REFERENCE_DATE", "2024-06-01")
	path := filepath.Join(t.TempDir(), "meters.csv")
	require.NoError(t, os.WriteFile(path, []byte(testCSV), 0644))
	return path
}

// testDataset mirrors testCSV after normalization, minus the bad row.
func testDataset() meter.Dataset {
	mk := func(id string, d int, age float64, status, group, profile string) meter.Record {
		return meter.Record{
			MeterID:          id,
			DiameterMM:       d,
			ConnectionStatus: status,
			InstallDate:      refTime.AddDate(-int(age), 0, 0),
			AgeYears:         meter.Some(age),
			ReadingGroup:     group,
			PropertyProfile:  profile,
		}
	}
	return meter.NewDataset([]meter.Record{
		mk("H1", 20, 1, "CONNECTED", "G1", "Residential"),
		mk("H2", 20, 3, "CONNECTED", "G2", "Residential"),
		mk("H3", 25, 5, "CUT", "G1", "Commercial"),
		mk("H4", 32, 7, "CONNECTED", "G1", "Industrial"),
	}, refTime)
}
