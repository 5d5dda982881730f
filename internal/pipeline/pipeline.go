package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/virgo-snana-etl/internal/domain"
	"github.com/couchcryptid/virgo-snana-etl/internal/observability"
	"github.com/couchcryptid/virgo-snana-etl/internal/parser"
	"github.com/couchcryptid/virgo-snana-etl/internal/snana"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// Catalog enumerates the configured supernovae in order.
type Catalog interface {
	Entries() []domain.SupernovaEntry
}

// Extractor parses one raw file, trying the hinted dialect first.
type Extractor interface {
	ParseFile(fsys afero.Fs, path, hint string) (parser.Result, error)
}

// Normalizer maps the records of one raw file to canonical bands and the
// output magnitude system.
type Normalizer interface {
	Normalize(sn string, file domain.RawFileRef, records []domain.PhotometryRecord) ([]domain.NormalizedRecord, []domain.Warning)
}

// Loader writes merged light curves.
type Loader interface {
	Reset(ctx context.Context) error
	Load(ctx context.Context, lc snana.LightCurve) (string, error)
}

// Options holds the run settings the driver needs.
type Options struct {
	RawDataDir string
	SurveyName string
}

// Pipeline drives one ETL run: every configured supernova, every raw file,
// strictly in sequence.
type Pipeline struct {
	fsys       afero.Fs
	catalog    Catalog
	extractor  Extractor
	normalizer Normalizer
	loader     Loader
	logger     *slog.Logger
	metrics    *observability.Metrics
	opts       Options
}

// New creates a Pipeline with the given stages and observability.
func New(fsys afero.Fs, c Catalog, e Extractor, n Normalizer, l Loader, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Pipeline {
	return &Pipeline{
		fsys:       fsys,
		catalog:    c,
		extractor:  e,
		normalizer: n,
		loader:     l,
		logger:     logger,
		metrics:    metrics,
		opts:       opts,
	}
}

// Run processes every configured supernova. Per-file problems become
// warnings in the report; only an unusable output directory or cancellation
// returns an error.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	start := domain.Clock().Now()
	report := &Report{RunID: uuid.NewString()}
	logger := p.logger.With("run_id", report.RunID)
	defer func() {
		p.metrics.RunDuration.Set(domain.Clock().Since(start).Seconds())
	}()

	if err := p.loader.Reset(ctx); err != nil {
		return report, err
	}

	entries := p.catalog.Entries()
	logger.Info("run started", "supernovae", len(entries), "raw_dir", p.opts.RawDataDir)

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			logger.Info("run stopping", "reason", err)
			return report, err
		}
		p.processSupernova(ctx, logger, entry, report)
	}

	logger.Info("run finished",
		"outputs", len(report.Outputs),
		"warnings", len(report.Warnings),
		"duration", domain.Clock().Since(start),
	)
	return report, nil
}

// processSupernova merges the files of one supernova and writes its light
// curve when at least one file parsed. Records keep their per-file order and
// files are concatenated in configured order.
func (p *Pipeline) processSupernova(ctx context.Context, logger *slog.Logger, entry domain.SupernovaEntry, report *Report) {
	logger = logger.With("supernova", entry.Name)
	logger.Info("processing supernova", "files", len(entry.Files))
	p.metrics.SupernovaeProcessed.Inc()

	var (
		merged  []domain.NormalizedRecord
		parsed  int
		seen    = domain.TimeMagSet{}
		results = make([]FileResult, 0, len(entry.Files))
	)

	for _, file := range entry.Files {
		res, recs, warnings := p.processFile(logger, entry.Name, file, seen)
		report.Warnings = append(report.Warnings, warnings...)
		if res.State() != StatePending && res.State() != StateParseFailed {
			parsed++
			merged = append(merged, recs...)
		}
		results = append(results, res)
	}

	if parsed == 0 {
		report.Files = append(report.Files, results...)
		logger.Info("no parsed files, skipping output")
		return
	}

	for i := range results {
		if s := results[i].State(); s == StateMapped || s == StateBandUnknownWarned {
			results[i].enter(StateMerged)
		}
	}
	report.Files = append(report.Files, results...)

	if len(merged) == 0 {
		w := domain.Warning{
			Severity:  domain.SeverityWarning,
			Kind:      domain.KindNoUsableData,
			Supernova: entry.Name,
			Message:   fmt.Sprintf("No usable data remains for %s after merging", entry.Name),
		}
		report.Warnings = append(report.Warnings, w)
		logger.Warn(w.Message)
		return
	}

	lc := snana.FromRecords(p.opts.SurveyName, entry, merged)
	path, err := p.loader.Load(ctx, lc)
	if err != nil {
		w := domain.Warning{
			Severity:  domain.SeverityWarning,
			Kind:      domain.KindWriteFailure,
			Supernova: entry.Name,
			Message:   fmt.Sprintf("Could not write SNANA file for %s: %v", entry.Name, err),
		}
		report.Warnings = append(report.Warnings, w)
		logger.Error("write snana file failed", "error", err)
		return
	}

	unknown := 0
	for _, r := range merged {
		if r.Band == domain.UnknownBand {
			unknown++
		}
	}
	p.metrics.OutputsWritten.Inc()
	p.metrics.RecordsWritten.Add(float64(len(merged)))
	p.metrics.UnknownBands.Add(float64(unknown))

	report.Outputs = append(report.Outputs, Output{
		Supernova: entry.Name,
		Path:      path,
		NObs:      len(lc.Obs),
		Filters:   lc.Filters,
	})
	logger.Info("wrote snana file", "path", path, "nobs", len(lc.Obs), "filters", lc.Filters)
}

// processFile runs one raw file through PARSING and MAPPING. Records repeating
// a (time, mag) pair already in seen are dropped.
func (p *Pipeline) processFile(logger *slog.Logger, sn string, file domain.RawFileRef, seen domain.TimeMagSet) (FileResult, []domain.NormalizedRecord, []domain.Warning) {
	path := filepath.Join(p.opts.RawDataDir, sn, "Photometry", file.Name)
	res := FileResult{Supernova: sn, File: file.Name, Path: path}
	res.enter(StatePending)
	logger = logger.With("file", file.Name)

	if _, err := p.fsys.Stat(path); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn("stat raw file failed", "error", err)
		}
		logger.Debug("raw file not found, skipping", "path", path)
		res.Missing = true
		return res, nil, nil
	}

	res.enter(StateParsing)
	parsed, err := p.extractor.ParseFile(p.fsys, path, file.FormatHint())
	res.Attempts = parsed.Attempts
	p.countAttempts(logger, parsed.Attempts)
	if err != nil {
		res.enter(StateParseFailed)
		p.metrics.ParseFailures.Inc()
		w := domain.Warning{
			Severity:  domain.SeverityWarning,
			Kind:      domain.KindParseFailure,
			Supernova: sn,
			File:      file.Name,
			Message:   fmt.Sprintf("Could not parse file %s with any available parser", file.Name),
		}
		logger.Warn(w.Message, "attempts", len(parsed.Attempts))
		return res, nil, []domain.Warning{w}
	}

	res.enter(StateParsed)
	res.Parser = parsed.Parser
	res.Records = len(parsed.Records)
	p.metrics.FilesParsed.WithLabelValues(parsed.Parser).Inc()
	logger.Info("parsed file", "parser", parsed.Parser, "records", len(parsed.Records))

	res.enter(StateMapping)
	recs := domain.DropColorIndices(parsed.Records)
	recs = domain.DedupeTimeMag(seen, recs)
	res.Merged = len(recs)

	normalized, warnings := p.normalizer.Normalize(sn, file, recs)
	for _, w := range warnings {
		logger.Warn(w.Message, "kind", w.Kind)
	}
	if hasBandWarning(warnings) {
		res.enter(StateBandUnknownWarned)
	} else {
		res.enter(StateMapped)
	}
	return res, normalized, warnings
}

// countAttempts records every parser attempt by outcome and logs failures
// at debug.
func (p *Pipeline) countAttempts(logger *slog.Logger, attempts []parser.Attempt) {
	for _, a := range attempts {
		outcome := "success"
		switch {
		case a.Err == nil:
		case errors.Is(a.Err, parser.ErrFormatMismatch):
			outcome = "mismatch"
		case errors.Is(a.Err, parser.ErrNoRecords):
			outcome = "empty"
		default:
			outcome = "error"
		}
		p.metrics.ParserAttempts.WithLabelValues(a.Parser, outcome).Inc()
		if a.Err != nil {
			logger.Debug("parser attempt failed", "parser", a.Parser, "outcome", outcome, "error", a.Err)
		}
	}
}

func hasBandWarning(warnings []domain.Warning) bool {
	for _, w := range warnings {
		if w.Kind == domain.KindUnknownBand || w.Kind == domain.KindUnmappedBand {
			return true
		}
	}
	return false
}
