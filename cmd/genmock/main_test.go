package main

import (
	"path/filepath"
	"testing"

	"github.com/couchcryptid/virgo-snana-etl/internal/catalog"
	"github.com/couchcryptid/virgo-snana-etl/internal/parser"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_EveryFileParsesWithItsHint(t *testing.T) {
	fsys := afero.NewMemMapFs()
	cat, err := catalog.Default()
	require.NoError(t, err)

	n, err := generate(fsys, cat, "/raw", 42)
	require.NoError(t, err)

	total := 0
	chain := parser.DefaultChain()
	for _, entry := range cat.Entries() {
		for _, file := range entry.Files {
			total++
			path := filepath.Join("/raw", entry.Name, "Photometry", file.Name)
			res, err := chain.ParseFile(fsys, path, file.FormatHint())
			require.NoError(t, err, path)
			assert.Equal(t, file.FormatHint(), res.Parser, path)
			assert.NotEmpty(t, res.Records, path)

			limits := 0
			for _, r := range res.Records {
				if r.IsLimit {
					limits++
				}
			}
			assert.Equal(t, 1, limits, path)
		}
	}
	assert.Equal(t, total, n)
}

func TestGenerate_Reproducible(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)

	a, b := afero.NewMemMapFs(), afero.NewMemMapFs()
	_, err = generate(a, cat, "/raw", 7)
	require.NoError(t, err)
	_, err = generate(b, cat, "/raw", 7)
	require.NoError(t, err)

	path := "/raw/SN1980I/Photometry/photometry_source1_data1.txt"
	da, err := afero.ReadFile(a, path)
	require.NoError(t, err)
	db, err := afero.ReadFile(b, path)
	require.NoError(t, err)
	assert.Equal(t, da, db)
}

func TestGregorian(t *testing.T) {
	assert.Equal(t, "2000-01-01", gregorian(2451544.5))
	assert.Equal(t, "1987-02-24", gregorian(2446850.5))
}
