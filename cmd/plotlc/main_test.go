package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/virgo-snana-etl/internal/domain"
	"github.com/couchcryptid/virgo-snana-etl/internal/snana"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- helpers ---

func obs(t float64, band string, mag, magErr float64) snana.Observation {
	return snana.Observation{Time: t, Band: band, Mag: mag, MagErr: magErr, ZP: domain.ZeroPoint, ZPSys: "vega"}
}

func writeCurve(t *testing.T, fsys afero.Fs, dir string, lc snana.LightCurve) {
	t.Helper()
	lc.NObs = len(lc.Obs)
	var buf bytes.Buffer
	require.NoError(t, snana.Write(&buf, lc))
	path := snana.Path(dir, lc.SNID)
	require.NoError(t, fsys.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, afero.WriteFile(fsys, path, buf.Bytes(), 0o644))
}

// --- tests ---

func TestAlignCurve(t *testing.T) {
	lc := snana.LightCurve{
		Header: snana.Header{SNID: "SN1994D"},
		Obs: []snana.Observation{
			obs(100, "standard::b", 13.0, 0.1),
			obs(105, "standard::v", 11.0, 0.1),
			obs(110, "standard::b", 12.0, domain.Missing),
			obs(115, "standard::b", domain.Missing, domain.Missing),
			obs(120, "standard::b", 12.5, 0.2),
			obs(400, "standard::b", 16.0, 0.3),
		},
	}

	c, skipped := alignCurve(lc, "standard::b", 200)

	assert.Equal(t, 1, skipped)
	assert.Equal(t, "SN1994D", c.name)
	assert.Equal(t, []float64{-10, 0, 10}, c.days)
	assert.Equal(t, []float64{13.0, 12.0, 12.5}, c.mags)
	assert.Equal(t, []float64{0.1, 0, 0.2}, c.magErrs)
	assert.True(t, c.hasErrs)
}

func TestAlignCurve_SkipsLimits(t *testing.T) {
	limit := obs(95, "standard::b", 10.0, domain.Missing)
	limit.Limit = true
	lc := snana.LightCurve{
		Header: snana.Header{SNID: "SN1994D"},
		Obs: []snana.Observation{
			limit,
			obs(100, "standard::b", 13.0, 0.1),
			obs(110, "standard::b", 12.0, 0.1),
		},
	}

	c, _ := alignCurve(lc, "standard::b", 200)

	assert.Equal(t, []float64{-10, 0}, c.days, "brightest detection, not the limit, is day zero")
	assert.Equal(t, []float64{13.0, 12.0}, c.mags)
}

func TestAlignCurve_NoPointsInFilter(t *testing.T) {
	lc := snana.LightCurve{
		Header: snana.Header{SNID: "SN1994D"},
		Obs:    []snana.Observation{obs(100, "standard::v", 13.0, 0.1)},
	}
	c, skipped := alignCurve(lc, "standard::b", 200)
	assert.Zero(t, skipped)
	assert.Empty(t, c.days)
}

func TestAlignCurve_PlaceholderErrorsIgnored(t *testing.T) {
	lc := snana.LightCurve{
		Header: snana.Header{SNID: "SN1994D"},
		Obs:    []snana.Observation{obs(100, "standard::b", 13.0, 99)},
	}
	c, _ := alignCurve(lc, "standard::b", 200)
	assert.False(t, c.hasErrs)
	assert.Equal(t, []float64{0}, c.magErrs)
}

func TestCommand_WritesPDF(t *testing.T) {
	fsys := afero.NewMemMapFs()
	dataDir := filepath.Join("/work", "snana_virgo_data")
	writeCurve(t, fsys, dataDir, snana.LightCurve{
		Header: snana.Header{Survey: "VIRGO_PROJECT", SNID: "SN1994D", Filters: []string{"standard::b"}},
		Obs: []snana.Observation{
			obs(2449430.5, "standard::b", 12.05, 0.1),
			obs(2449440.5, "standard::b", 11.8, 0.1),
			obs(2449900.5, "standard::b", 17.0, 0.1),
		},
	})
	writeCurve(t, fsys, dataDir, snana.LightCurve{
		Header: snana.Header{Survey: "VIRGO_PROJECT", SNID: "SN1989M", Filters: []string{"standard::v"}},
		Obs:    []snana.Observation{obs(2447700.5, "standard::v", 12.4, domain.Missing)},
	})

	cmd := newRootCmd(fsys)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--filter", "standard::b", "--base-dir", "/work"})
	require.NoError(t, cmd.Execute())

	pdf, err := afero.ReadFile(fsys, "/work/plots/all_sne_standardb.pdf")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
	assert.Contains(t, out.String(), "Skipping 1 late-time points (> 200 days) for SN1994D")
	assert.Contains(t, out.String(), "Saved figure to /work/plots/all_sne_standardb.pdf")
}

func TestCommand_RequiresFilter(t *testing.T) {
	cmd := newRootCmd(afero.NewMemMapFs())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})
	assert.Error(t, cmd.Execute())
}
