package main

import (
	"bytes"
	"math"
	"testing"

	"github.com/couchcryptid/virgo-snana-etl/internal/domain"
	"github.com/couchcryptid/virgo-snana-etl/internal/snana"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const outDir = "/out"

func writeLightCurve(t *testing.T, fsys afero.Fs, sn string, recs []domain.NormalizedRecord) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, snana.Write(&buf, snana.FromRecords("VIRGO_PROJECT", domain.SupernovaEntry{Name: sn}, recs)))
	require.NoError(t, afero.WriteFile(fsys, snana.Path(outDir, sn), buf.Bytes(), 0o644))
}

func record(band string, t, mag, magErr float64) domain.NormalizedRecord {
	flux, fluxErr := domain.MagToFlux(mag, magErr)
	return domain.NormalizedRecord{
		PhotometryRecord: domain.PhotometryRecord{Band: band, Time: t, Mag: mag, MagErr: magErr},
		MagSystem:        domain.MagSystemVega,
		Flux:             flux,
		FluxErr:          fluxErr,
	}
}

func TestRun_ValidTree(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeLightCurve(t, fsys, "SN1994D", []domain.NormalizedRecord{
		record("bessellb", 2449430.5, 12.05, 0.1),
		record(domain.UnknownBand, 2449431.5, 12.12345, math.NaN()),
	})

	var out bytes.Buffer
	code := run(&out, fsys, outDir, "")
	assert.Equal(t, 0, code, out.String())
	assert.Contains(t, out.String(), "All validations passed.")
}

func TestRun_DetectsProblems(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeLightCurve(t, fsys, "SN1994D", []domain.NormalizedRecord{
		record("bessellb", 2449431.5, 12.05, 0.1),
		record("XYZ", 2449430.5, 12.1, 0.1),
	})
	writeLightCurve(t, fsys, "SN2011fe", []domain.NormalizedRecord{record("bessellv", 1, 10, 0.1)})

	var out bytes.Buffer
	code := run(&out, fsys, outDir, "")
	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), `supernova "SN2011fe" is not in the catalog`)
	assert.Contains(t, out.String(), `band "XYZ" is neither canonical nor UNKNOWN`)
	assert.Contains(t, out.String(), "--- Phase 3: Observations")
}

func TestRun_BadCatalog(t *testing.T) {
	var out bytes.Buffer
	code := run(&out, afero.NewMemMapFs(), outDir, "/missing.yaml")
	require.Equal(t, 1, code)
	assert.Contains(t, out.String(), "FATAL: load catalog")
}
