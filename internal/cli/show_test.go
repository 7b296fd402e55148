package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/meterreport/internal/meter"
)

func TestShow_Human(t *testing.T) {
	cmd := &ShowCommand{globals: &GlobalFlags{}, Meter: "H3"}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithDataset(testDataset()))
	})

	assert.Contains(t, output, "H3")
	assert.Contains(t, output, "Diameter:      DN 25")
	assert.Contains(t, output, "Status:        CUT")
	assert.Contains(t, output, "Installed:     2019-06-01")
	assert.Contains(t, output, "Age:           5.00")
}

func TestShow_UnknownAge(t *testing.T) {
	ds := meter.NewDataset([]meter.Record{{MeterID: "H9", DiameterMM: 20}}, refTime)
	cmd := &ShowCommand{globals: &GlobalFlags{}, Meter: "H9"}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithDataset(ds))
	})

	assert.Contains(t, output, "Installed:     -")
	assert.Contains(t, output, "Age:           -")
}

func TestShow_JSON(t *testing.T) {
	cmd := &ShowCommand{globals: &GlobalFlags{JSON: true}, Meter: "H1"}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithDataset(testDataset()))
	})

	var got []recordJSON
	require.NoError(t, json.Unmarshal([]byte(output), &got))
	require.Len(t, got, 1)
	assert.Equal(t, 20, got[0].DiameterMM)
	assert.Equal(t, "2023-06-01", got[0].InstallDate)
	assert.Equal(t, meter.Some(1), got[0].AgeYears)
}

func TestShow_NotFound(t *testing.T) {
	cmd := &ShowCommand{globals: &GlobalFlags{}, Meter: "nope"}
	err := cmd.executeWithDataset(testDataset())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "meter not found: nope")
}
