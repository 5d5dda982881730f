package config

import (
	"testing"

	"github.com/couchcryptid/virgo-snana-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "raw_virgo_data", cfg.RawDataDir)
	assert.Equal(t, "snana_virgo_data", cfg.OutputDir)
	assert.Empty(t, cfg.CatalogPath)
	assert.Equal(t, domain.MagSystemVega, cfg.OutputMagSystem)
	assert.Equal(t, "VIRGO_PROJECT", cfg.SurveyName)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Empty(t, cfg.MetricsTextfile)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("RAW_DATA_DIR", "/data/raw")
	t.Setenv("OUTPUT_DIR", "/data/snana")
	t.Setenv("CATALOG_PATH", "/etc/virgo/catalog.yaml")
	t.Setenv("OUTPUT_MAG_SYSTEM", "AB")
	t.Setenv("SURVEY_NAME", "VIRGO_TEST")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("METRICS_TEXTFILE", "/var/lib/node_exporter/snana_etl.prom")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/data/raw", cfg.RawDataDir)
	assert.Equal(t, "/data/snana", cfg.OutputDir)
	assert.Equal(t, "/etc/virgo/catalog.yaml", cfg.CatalogPath)
	assert.Equal(t, domain.MagSystemAB, cfg.OutputMagSystem)
	assert.Equal(t, "VIRGO_TEST", cfg.SurveyName)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "/var/lib/node_exporter/snana_etl.prom", cfg.MetricsTextfile)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		env   string
		value string
	}{
		{"OUTPUT_MAG_SYSTEM", "ST"},
		{"LOG_FORMAT", "xml"},
		{"LOG_LEVEL", "verbose"},
		{"SURVEY_NAME", "VIRGO PROJECT"},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv(tt.env, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.env)
		})
	}
}
