package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/couchcryptid/virgo-snana-etl/internal/domain"
)

// delimitedParser reads header-first delimited files. A dialect is its
// delimiter plus the header names it accepts for each record field.
type delimitedParser struct {
	name     string
	comma    rune
	aliases  map[field][]string
	required []field

	// headerMust lists header cells that must all be present, beyond the
	// required fields, for the file to be recognised.
	headerMust []string

	// bandClean optionally rewrites band cells before sanitising.
	bandClean func(string) string
}

// NewIAUCCSV parses hand-converted IAU Circular style CSV files:
// "Julian Date,Gregorian Day,Magnitude,Band,Ref,Magerr", or the short
// "JD,Mag,Band,Err" form.
func NewIAUCCSV() Parser {
	return &delimitedParser{
		name:  "csv-iauc",
		comma: ',',
		aliases: map[field][]string{
			fieldTime:      {"Julian Date", "JD"},
			fieldMag:       {"Magnitude", "Mag"},
			fieldMagErr:    {"Magerr", "Err", "Uncertainty"},
			fieldBand:      {"Band"},
			fieldReference: {"Ref", "Reference"},
		},
		required: []field{fieldTime, fieldMag, fieldBand},
		bandClean: func(s string) string {
			return strings.Trim(strings.TrimSpace(s), `'"`)
		},
	}
}

// NewSimpleCSV parses minimal "MJD,Band,Mag,Err" CSV files with an optional
// "Limit" column.
func NewSimpleCSV() Parser {
	return &delimitedParser{
		name:  "csv-simple",
		comma: ',',
		aliases: map[field][]string{
			fieldTime:      {"MJD", "Time"},
			fieldMag:       {"Mag"},
			fieldMagErr:    {"Err", "MagErr"},
			fieldBand:      {"Band", "Filter"},
			fieldReference: {"Ref", "Source"},
			fieldLimit:     {"Limit", "UpperLimit"},
		},
		required: []field{fieldTime, fieldMag, fieldBand},
	}
}

// NewTabText parses tab-separated exports whose header carries
// "Julian Date", "Gregorian Day", "Magnitude" and "Indmag and Band".
func NewTabText() Parser {
	return &delimitedParser{
		name:  "text-tab",
		comma: '\t',
		aliases: map[field][]string{
			fieldTime:      {"Julian Date"},
			fieldMag:       {"Magnitude"},
			fieldMagErr:    {"Uncertainty"},
			fieldBand:      {"Indmag and Band"},
			fieldReference: {"Reference Text", "Reference"},
		},
		required:   []field{fieldTime, fieldMag, fieldBand},
		headerMust: []string{"Gregorian Day"},
	}
}

func (p *delimitedParser) Name() string { return p.name }

func (p *delimitedParser) Parse(r io.Reader) ([]domain.PhotometryRecord, error) {
	cr := csv.NewReader(r)
	cr.Comma = p.comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrFormatMismatch, err)
	}
	idx := columnIndex(header, p.aliases)
	if !hasFields(idx, p.required...) || !hasHeaderCells(header, p.headerMust) {
		return nil, fmt.Errorf("%w: %s header %q", ErrFormatMismatch, p.name, header)
	}

	var rows []rawRow
	for {
		cells, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// A malformed line is skipped, not fatal.
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				continue
			}
			return nil, fmt.Errorf("%s: read row: %w", p.name, err)
		}
		var row rawRow
		for f, i := range idx {
			if i < len(cells) {
				row.set(f, cells[i])
			}
		}
		if p.bandClean != nil {
			row.band = p.bandClean(row.band)
		}
		rows = append(rows, row)
	}

	return sanitize(rows), nil
}

func hasHeaderCells(header, must []string) bool {
	for _, m := range must {
		found := false
		for _, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), m) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
