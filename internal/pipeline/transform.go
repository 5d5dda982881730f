package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/couchcryptid/virgo-snana-etl/internal/domain"
)

// BandNormalizer implements Normalizer using the domain band map and
// magnitude-system conversions.
type BandNormalizer struct {
	bands  *domain.BandMap
	target domain.MagSystem
	logger *slog.Logger
}

// NewNormalizer creates a BandNormalizer converting every record to target.
func NewNormalizer(bands *domain.BandMap, target domain.MagSystem, logger *slog.Logger) *BandNormalizer {
	return &BandNormalizer{
		bands:  bands,
		target: target,
		logger: logger,
	}
}

// Normalize maps the records of one raw file. Warnings are emitted once per
// distinct raw band and problem within the file.
func (n *BandNormalizer) Normalize(sn string, file domain.RawFileRef, records []domain.PhotometryRecord) ([]domain.NormalizedRecord, []domain.Warning) {
	out := make([]domain.NormalizedRecord, 0, len(records))
	var warnings []domain.Warning
	warned := make(map[string]bool)

	warnOnce := func(kind domain.WarningKind, sev domain.Severity, band, msg string) {
		key := string(kind) + "\x00" + band
		if warned[key] {
			return
		}
		warned[key] = true
		warnings = append(warnings, domain.Warning{
			Severity:  sev,
			Kind:      kind,
			Supernova: sn,
			File:      file.Name,
			Message:   msg,
		})
	}

	for _, rec := range records {
		nr, bandOutcome, magOutcome := domain.NormalizeRecord(rec, n.bands, file.Bands, file.MagSystem, n.target)

		switch bandOutcome {
		case domain.BandUnknown:
			warnOnce(domain.KindUnknownBand, domain.SeverityWarning, nr.RawBand,
				fmt.Sprintf("Band UNKNOWN in %s: source gives no band label", file.Name))
		case domain.BandUnmapped:
			warnOnce(domain.KindUnmappedBand, domain.SeverityWarning, nr.RawBand,
				fmt.Sprintf("Unmapped band %q in %s: records tagged UNKNOWN", domain.CleanBand(nr.RawBand), file.Name))
		case domain.BandUnmappedLimit:
			n.logger.Debug("unmapped band on limit record", "supernova", sn, "file", file.Name, "band", nr.RawBand)
		}

		if magOutcome == domain.MagUnconverted {
			warnOnce(domain.KindMagSysUnconverted, domain.SeverityInfo, nr.Band,
				fmt.Sprintf("No %s to %s offset for band %s in %s: magnitudes left in %s",
					file.MagSystem, n.target, nr.Band, file.Name, file.MagSystem))
		}

		out = append(out, nr)
	}
	return out, warnings
}
