package config

import "github.com/runnerr0/meterreport/internal/meter"

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Dataset: DatasetConfig{
			Path:      "meters.csv",
			Format:    "auto",
			Delimiter: "",
		},
		Columns: meter.DefaultColumns(),
		Normalize: NormalizeConfig{
			AgePrecision:  string(meter.PrecisionInteger),
			ReferenceDate: "",
			Strict:        false,
		},
		Report: ReportConfig{
			ConnectedStatus: "CONNECTED",
		},
		Server: ServerConfig{
			Host:           "127.0.0.1",
			Port:           8050,
			AllowedOrigins: "*",
			GinMode:        "release",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
