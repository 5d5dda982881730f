package config

import (
	"errors"
	"fmt"
	"strings"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/couchcryptid/virgo-snana-etl/internal/domain"
)

// Config holds all run settings, populated from environment variables.
type Config struct {
	RawDataDir      string
	OutputDir       string
	CatalogPath     string
	OutputMagSystem domain.MagSystem
	SurveyName      string
	LogLevel        string
	LogFormat       string

	// MetricsTextfile is where run metrics are written in Prometheus text
	// format. Empty disables the export.
	MetricsTextfile string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	magSys, err := domain.ParseMagSystem(sharedcfg.EnvOrDefault("OUTPUT_MAG_SYSTEM", string(domain.MagSystemVega)))
	if err != nil {
		return nil, fmt.Errorf("invalid OUTPUT_MAG_SYSTEM: %w", err)
	}

	cfg := &Config{
		RawDataDir:      sharedcfg.EnvOrDefault("RAW_DATA_DIR", "raw_virgo_data"),
		OutputDir:       sharedcfg.EnvOrDefault("OUTPUT_DIR", "snana_virgo_data"),
		CatalogPath:     sharedcfg.EnvOrDefault("CATALOG_PATH", ""),
		OutputMagSystem: magSys,
		SurveyName:      sharedcfg.EnvOrDefault("SURVEY_NAME", "VIRGO_PROJECT"),
		LogLevel:        strings.ToLower(sharedcfg.EnvOrDefault("LOG_LEVEL", "info")),
		LogFormat:       strings.ToLower(sharedcfg.EnvOrDefault("LOG_FORMAT", "json")),
		MetricsTextfile: sharedcfg.EnvOrDefault("METRICS_TEXTFILE", ""),
	}

	switch cfg.LogFormat {
	case "json", "text":
	default:
		return nil, fmt.Errorf("invalid LOG_FORMAT %q: want json or text", cfg.LogFormat)
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid LOG_LEVEL %q", cfg.LogLevel)
	}
	if strings.TrimSpace(cfg.RawDataDir) == "" {
		return nil, errors.New("RAW_DATA_DIR is required")
	}
	if strings.TrimSpace(cfg.OutputDir) == "" {
		return nil, errors.New("OUTPUT_DIR is required")
	}
	if strings.ContainsAny(cfg.SurveyName, " \t\n") || cfg.SurveyName == "" {
		return nil, fmt.Errorf("invalid SURVEY_NAME %q: must be a single non-empty token", cfg.SurveyName)
	}

	return cfg, nil
}
