package snana

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/couchcryptid/virgo-snana-etl/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func normalized(band string, t, mag, magErr float64, limit bool) domain.NormalizedRecord {
	flux, fluxErr := domain.MagToFlux(mag, magErr)
	return domain.NormalizedRecord{
		PhotometryRecord: domain.PhotometryRecord{Band: band, Time: t, Mag: mag, MagErr: magErr, IsLimit: limit},
		MagSystem:        domain.MagSystemVega,
		Flux:             flux,
		FluxErr:          fluxErr,
	}
}

func sampleEntry() domain.SupernovaEntry {
	return domain.SupernovaEntry{
		Name: "SN1994D",
		Meta: domain.Metadata{RA: ptr(188.5095833), Dec: ptr(7.7011111), Redshift: 0.0015, MWEBV: 0.022},
	}
}

func TestWrite_Golden(t *testing.T) {
	recs := []domain.NormalizedRecord{
		normalized("bessellb", 2449430.5, 12.05, 0.1, false),
		normalized("bessellv", 2449431.5, 12.1, math.NaN(), false),
		normalized(domain.UnknownBand, 2449432.5, 15.0, math.NaN(), true),
	}
	lc := FromRecords("VIRGO_PROJECT", sampleEntry(), recs)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, lc))

	want := strings.Join([]string{
		"SURVEY: VIRGO_PROJECT",
		"SNID: SN1994D",
		"RA: 188.50958330",
		"DECL: 7.70111110",
		"MWEBV: 0.0220",
		"REDSHIFT_HELIO: 0.001500",
		"FILTERS: UNKNOWN bessellb bessellv",
		"NOBS: 3",
		"NVAR: 9",
		"VARLIST: time band flux fluxerr mag magerr zp zpsys limit",
		"OBS: 2449430.50000 bessellb 1.513561e+05 1.394041e+04 12.0500 0.1000 25.0 vega 0",
		"OBS: 2449431.50000 bessellv 1.445440e+05 -999 12.1000 -999 25.0 vega 0",
		"OBS: 2449432.50000 UNKNOWN 1.000000e+04 -999 15.0000 -999 25.0 vega 1",
		"END:",
		"",
	}, "\n")
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("snana output mismatch (-want +got):\n%s", diff)
	}
}

func TestWrite_NoCoordinates(t *testing.T) {
	entry := domain.SupernovaEntry{Name: "SN1939A"}
	lc := FromRecords("VIRGO_PROJECT", entry, []domain.NormalizedRecord{normalized("bessellb", 2429000.5, 13.0, 0.2, false)})

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, lc))
	assert.NotContains(t, buf.String(), "RA:")
	assert.NotContains(t, buf.String(), "DECL:")
	assert.Contains(t, buf.String(), "NOBS: 1\n")
}

func TestWrite_RejectsSpacedBand(t *testing.T) {
	lc := LightCurve{Header: Header{SNID: "SN1"}, Obs: []Observation{{Band: "red plate"}}}
	err := Write(&bytes.Buffer{}, lc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "red plate")
}

func TestWrite_Deterministic(t *testing.T) {
	recs := []domain.NormalizedRecord{
		normalized("bessellv", 2449431.5, 12.1, 0.05, false),
		normalized("bessellb", 2449430.5, 12.05, 0.1, false),
	}
	lc := FromRecords("VIRGO_PROJECT", sampleEntry(), recs)

	var a, b bytes.Buffer
	require.NoError(t, Write(&a, lc))
	require.NoError(t, Write(&b, lc))
	assert.Equal(t, a.Bytes(), b.Bytes())
}

func TestReadWrite_RoundTrip(t *testing.T) {
	recs := []domain.NormalizedRecord{
		normalized("standard::b", 2437000.5, 11.6, math.NaN(), false),
		normalized("bessellv", 2437001.5, 11.75, 0.08, true),
	}
	in := FromRecords("VIRGO_PROJECT", sampleEntry(), recs)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, in))
	out, err := Read(&buf)
	require.NoError(t, err)

	opts := cmp.Options{
		cmpopts.EquateApprox(1e-6, 1e-4),
	}
	if diff := cmp.Diff(in, out, opts); diff != "" {
		t.Errorf("round trip mismatch (-in +out):\n%s", diff)
	}
}

func TestRead_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"no snid", "SURVEY: X\nEND:\n"},
		{"obs before varlist", "SNID: SN1\nOBS: 1 B 1 1 1 1 25 vega 0\n"},
		{"short obs", "SNID: SN1\nVARLIST: time band mag\nOBS: 1 B\n"},
		{"bad number", "SNID: SN1\nNOBS: many\n"},
		{"no key", "SNID: SN1\ngarbage line\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestPath(t *testing.T) {
	assert.Equal(t, "snana_virgo_data/SN1991T/Photometry/SN1991T.photometry.snana.dat", Path("snana_virgo_data", "SN1991T"))
}
