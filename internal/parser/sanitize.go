package parser

import (
	"math"
	"strconv"
	"strings"

	"github.com/couchcryptid/virgo-snana-etl/internal/domain"
)

// field is one of the record fields a dialect can provide.
type field int

const (
	fieldTime field = iota
	fieldMag
	fieldMagErr
	fieldBand
	fieldReference
	fieldLimit
)

// rawRow holds the text of one source row before numeric coercion.
type rawRow struct {
	time, mag, magErr, band, reference, limit string
}

func (r *rawRow) set(f field, v string) {
	switch f {
	case fieldTime:
		r.time = v
	case fieldMag:
		r.mag = v
	case fieldMagErr:
		r.magErr = v
	case fieldBand:
		r.band = v
	case fieldReference:
		r.reference = v
	case fieldLimit:
		r.limit = v
	}
}

// sanitize coerces rows into records. Rows with a non-numeric time or
// magnitude are dropped; a missing band becomes UNKNOWN and a missing
// reference N/A. A negative uncertainty is a source sentinel such as -999
// and counts as absent.
func sanitize(rows []rawRow) []domain.PhotometryRecord {
	out := make([]domain.PhotometryRecord, 0, len(rows))
	for _, row := range rows {
		t, ok := parseNumber(row.time)
		if !ok {
			continue
		}
		mag, limit, ok := parseMagnitude(row.mag)
		if !ok {
			continue
		}
		magErr, ok := parseNumber(row.magErr)
		if !ok || magErr < 0 {
			magErr = math.NaN()
		}

		band := cleanQuotes(row.band)
		if band == "" {
			band = domain.UnknownBand
		}
		ref := strings.TrimSpace(row.reference)
		if ref == "" {
			ref = "N/A"
		}

		out = append(out, domain.PhotometryRecord{
			Band:      band,
			Time:      t,
			Mag:       mag,
			MagErr:    magErr,
			IsLimit:   limit || parseLimitFlag(row.limit),
			Reference: ref,
		})
	}
	return out
}

// parseNumber parses a float, treating blanks, null markers and NaN as absent.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "null", "nul", "nan", "--", "-":
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// parseMagnitude parses a magnitude, recognising ">" and "<" prefixes as
// detection limits.
func parseMagnitude(s string) (mag float64, limit bool, ok bool) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, ">") || strings.HasPrefix(s, "<") {
		limit = true
		s = strings.TrimSpace(s[1:])
	}
	mag, ok = parseNumber(s)
	return mag, limit, ok
}

// parseLimitFlag reads an explicit limit column: VizieR "<"/">" flags or a
// boolean-ish value.
func parseLimitFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "<", ">", "1", "true", "t", "yes", "y":
		return true
	default:
		return false
	}
}

// cleanQuotes strips whitespace and one layer of surrounding quotes.
func cleanQuotes(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"`)
	return strings.TrimSpace(s)
}

// columnIndex matches header cells against per-field aliases
// (case-insensitive). It returns the column index for every matched field.
func columnIndex(header []string, aliases map[field][]string) map[field]int {
	idx := make(map[field]int, len(aliases))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		for f, names := range aliases {
			if _, done := idx[f]; done {
				continue
			}
			for _, name := range names {
				if h == strings.ToLower(name) {
					idx[f] = i
					break
				}
			}
		}
	}
	return idx
}

// hasFields reports whether idx covers all required fields.
func hasFields(idx map[field]int, required ...field) bool {
	for _, f := range required {
		if _, ok := idx[f]; !ok {
			return false
		}
	}
	return true
}
