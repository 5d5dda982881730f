package observability

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/virgo-snana-etl/internal/config"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	tests := []struct {
		level, format     string
		debug, info, warn bool
		text              bool
	}{
		{"info", "json", false, true, true, false},
		{"debug", "text", true, true, true, true},
		{"warn", "json", false, false, true, false},
		{"error", "TEXT", false, false, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.level+"/"+tt.format, func(t *testing.T) {
			logger := NewLogger(&config.Config{LogLevel: tt.level, LogFormat: tt.format})
			ctx := context.Background()

			assert.Equal(t, tt.debug, logger.Enabled(ctx, slog.LevelDebug))
			assert.Equal(t, tt.info, logger.Enabled(ctx, slog.LevelInfo))
			assert.Equal(t, tt.warn, logger.Enabled(ctx, slog.LevelWarn))

			_, isText := logger.Handler().(*slog.TextHandler)
			assert.Equal(t, tt.text, isText)
			assert.Same(t, logger, slog.Default())
		})
	}
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := NewMetricsForTesting()
	m.OutputsWritten.Add(3)
	m.FilesParsed.WithLabelValues("csv-iauc").Inc()

	assert.InDelta(t, 3, testutil.ToFloat64(m.OutputsWritten), 0)

	path := filepath.Join(t.TempDir(), "snana_etl.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "snana_etl_outputs_written_total 3")
	assert.Contains(t, string(data), `snana_etl_files_parsed_total{parser="csv-iauc"} 1`)
}
