package catalog

import (
	"testing"

	"github.com/couchcryptid/virgo-snana-etl/internal/domain"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var knownFormats = []string{"csv-iauc", "csv-simple", "text-tab", "text-notes", "fits-vizier"}

func TestDefault(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	require.NoError(t, c.Validate(knownFormats))

	assert.Equal(t, 20, c.Len())
	entries := c.Entries()
	assert.Equal(t, "SN1939A", entries[0].Name)
	assert.Equal(t, "SN1999cl", entries[len(entries)-1].Name)

	sn, ok := c.Lookup("SN1984A")
	require.True(t, ok)
	require.Len(t, sn.Files, 3)
	assert.Equal(t, "photometry_source1_data1.fit", sn.Files[0].Name)
	assert.Equal(t, "fits-vizier", sn.Files[0].FormatHint())
	assert.Equal(t, domain.MagSystemVega, sn.Files[2].MagSystem)

	sn, ok = c.Lookup("SN1980I")
	require.True(t, ok)
	assert.Equal(t, "text-notes", sn.Files[0].FormatHint())

	_, ok = c.Lookup("SN2011fe")
	assert.False(t, ok)
}

func TestParse_FullSchema(t *testing.T) {
	doc := `
mag_system: ab
bands:
  V: V
supernovae:
  - name: SN2000X
    ra: 187.5
    dec: 12.1
    redshift: 0.0036
    mwebv: 0.02
    files:
      - name: lc.csv
        format: csv-simple
        mag_system: Vega
        bands:
          " clear ": standard::v
      - extra.txt
`
	c, err := Parse([]byte(doc))
	require.NoError(t, err)
	require.NoError(t, c.Validate(knownFormats))

	sn, ok := c.Lookup("SN2000X")
	require.True(t, ok)
	require.NotNil(t, sn.Meta.RA)
	assert.Equal(t, 187.5, *sn.Meta.RA)
	assert.Equal(t, 0.0036, sn.Meta.Redshift)

	require.Len(t, sn.Files, 2)
	assert.Equal(t, domain.MagSystemVega, sn.Files[0].MagSystem)
	assert.Equal(t, map[string]string{"clear": "standard::v"}, sn.Files[0].Bands)
	assert.Equal(t, domain.MagSystemAB, sn.Files[1].MagSystem)

	bands := c.BandMap()
	got, ok := bands.Resolve("V", nil)
	assert.True(t, ok)
	assert.Equal(t, "V", got)
	got, _ = bands.Resolve("B", nil)
	assert.Equal(t, "bessellb", got)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		errPart string
	}{
		{"unknown key", "supernovae:\n  - name: SN1\n    fils: [a.csv]\n", "fils"},
		{"no files", "supernovae:\n  - name: SN1\n", "no files"},
		{"empty name", "supernovae:\n  - files: [a.csv]\n", "empty name"},
		{"duplicate", "supernovae:\n  - name: SN1\n    files: [a.csv]\n  - name: SN1\n    files: [b.csv]\n", "twice"},
		{"bad mag system", "supernovae:\n  - name: SN1\n    mag_system: ST\n    files: [a.csv]\n", "ST"},
		{"path in file name", "supernovae:\n  - name: SN1\n    files: [../a.csv]\n", "plain file name"},
		{"bad global system", "mag_system: flux\nsupernovae: []\n", "flux"},
		{"spaced global target", "bands:\n  V: bessell v\nsupernovae: []\n", "single token"},
		{"empty global target", "bands:\n  V: \"\"\nsupernovae: []\n", "single token"},
		{"unknown as target", "bands:\n  V: UNKNOWN\nsupernovae: []\n", "reserved"},
		{"spaced override target", "supernovae:\n  - name: SN1\n    files:\n      - name: a.csv\n        bands:\n          V: \" \"\n", "single token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.errPart)
		})
	}
}

func TestBandMap_OverrideTargetsCanonical(t *testing.T) {
	doc := `
supernovae:
  - name: SN1
    files:
      - name: a.csv
        bands:
          V: johnson-v
`
	c, err := Parse([]byte(doc))
	require.NoError(t, err)

	sn, _ := c.Lookup("SN1")
	bands := c.BandMap()
	assert.True(t, bands.IsCanonical("johnson-v"))

	got, ok := bands.Resolve("V", sn.Files[0].Bands)
	assert.True(t, ok)
	assert.Equal(t, "johnson-v", got)

	got, _ = bands.Resolve("V", nil)
	assert.Equal(t, "bessellv", got)
}

func TestValidate_UnknownFormat(t *testing.T) {
	c, err := Parse([]byte("supernovae:\n  - name: SN1\n    files:\n      - name: a.txt\n        format: text-dialect-z\n"))
	require.NoError(t, err)

	err = c.Validate(knownFormats)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "text-dialect-z")
}

func TestLoad(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/etc/catalog.yaml", []byte("supernovae:\n  - name: SN1\n    files: [a.csv]\n"), 0o644))

	c, err := Load(fsys, "/etc/catalog.yaml")
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())

	c, err = Load(fsys, "")
	require.NoError(t, err)
	assert.Equal(t, 20, c.Len())

	_, err = Load(fsys, "/etc/missing.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.yaml")
}

func TestEntries_ReturnsCopy(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	entries := c.Entries()
	entries[0].Name = "mutated"
	again, _ := c.Lookup("SN1939A")
	assert.Equal(t, "SN1939A", again.Name)
}
