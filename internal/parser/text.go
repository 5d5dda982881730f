package parser

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/couchcryptid/virgo-snana-etl/internal/domain"
)

// wideGap separates columns in space-aligned text tables. Single spaces
// occur inside cells ("Harvard plate 12").
var wideGap = regexp.MustCompile(`\s{2,}|\t`)

// notesColumns is the fixed column order of notes-and-limits tables.
var notesColumns = []field{fieldTime, -1, fieldMag, fieldMagErr, fieldBand, fieldReference}

// notesText parses space-aligned tables with '#' comments, a header line,
// "null" uncertainties and ">"/"<" prefixed limiting magnitudes:
//
//	# SN1980I compiled photometry
//	JD            Date        Mag     Err    Band   Reference        Notes
//	2444425.5     1980-06-13  12.3    0.1    B      IAUC 3505        discovery
//	2444430.5     1980-06-18  >14.0   null   V      IAUC 3510        limit
type notesText struct{}

// NewNotesText returns the notes-and-limits text parser.
func NewNotesText() Parser { return notesText{} }

func (notesText) Name() string { return "text-notes" }

func (notesText) Parse(r io.Reader) ([]domain.PhotometryRecord, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		rows       []rawRow
		seenHeader bool
	)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seenHeader {
			seenHeader = true
			continue
		}

		cells := wideGap.Split(line, -1)
		if len(cells) < 5 {
			continue
		}
		var row rawRow
		for i, f := range notesColumns {
			if f < 0 || i >= len(cells) {
				continue
			}
			row.set(f, cells[i])
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: scan: %v", ErrFormatMismatch, err)
	}
	if !seenHeader {
		return nil, fmt.Errorf("%w: no header line", ErrFormatMismatch)
	}

	return sanitize(rows), nil
}
