package parser

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/astrogo/fitsio"
	"github.com/couchcryptid/virgo-snana-etl/internal/domain"
)

// vizierAliases maps VizieR column names onto record fields.
var vizierAliases = map[field][]string{
	fieldTime:      {"JD", "time"},
	fieldMag:       {"m", "mag"},
	fieldMagErr:    {"e_m", "magerr"},
	fieldBand:      {"band"},
	fieldReference: {"r_m", "Ref", "reference"},
	fieldLimit:     {"l_m"},
}

// vizierFITS parses VizieR photometry catalogues delivered as FITS tables.
// Rows are read from the first extension; colour indices are dropped.
type vizierFITS struct{}

// NewVizierFITS returns the VizieR FITS table parser.
func NewVizierFITS() Parser { return vizierFITS{} }

func (vizierFITS) Name() string { return "fits-vizier" }

func (vizierFITS) Parse(r io.Reader) ([]domain.PhotometryRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("fits-vizier: read: %w", err)
	}
	f, err := fitsio.Open(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: open fits: %v", ErrFormatMismatch, err)
	}
	defer f.Close()

	hdus := f.HDUs()
	if len(hdus) < 2 {
		return nil, fmt.Errorf("%w: fits file has no extension", ErrFormatMismatch)
	}
	table, ok := hdus[1].(*fitsio.Table)
	if !ok {
		return nil, fmt.Errorf("%w: first extension is not a table", ErrFormatMismatch)
	}

	cols := table.Cols()
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	idx := columnIndex(names, vizierAliases)
	if !hasFields(idx, fieldTime, fieldMag, fieldBand) {
		return nil, fmt.Errorf("%w: fits columns %q", ErrFormatMismatch, names)
	}

	// Character limit flags are read from the row bytes; see binaryLayout.
	limitCol := ""
	var layout binaryLayout
	if i, ok := idx[fieldLimit]; ok && strings.HasSuffix(strings.TrimSpace(cols[i].Format), "A") {
		if l, err := locateTable(data, 1); err == nil {
			limitCol, layout = names[i], l
		}
	}

	rows, err := table.Read(0, table.NumRows())
	if err != nil {
		return nil, fmt.Errorf("fits-vizier: read table: %w", err)
	}
	defer rows.Close()

	var raw []rawRow
	for n := 0; rows.Next(); n++ {
		values := make(map[string]interface{}, len(cols))
		if err := rows.Scan(&values); err != nil {
			continue
		}
		var row rawRow
		for fld, i := range idx {
			row.set(fld, cellString(values[names[i]]))
		}
		if limitCol != "" {
			if cell, ok := layout.cell(data, n, limitCol); ok {
				row.limit = strings.Trim(string(cell), "\x00 ")
			}
		}
		if strings.Contains(row.band, "(") {
			continue
		}
		raw = append(raw, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fits-vizier: iterate rows: %w", err)
	}

	return sanitize(raw), nil
}

// cellString renders a scanned FITS cell as text for sanitize.
func cellString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimRight(x, "\x00 ")
	case []byte:
		return strings.TrimRight(string(x), "\x00 ")
	case float64:
		if math.IsNaN(x) {
			return ""
		}
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		if math.IsNaN(float64(x)) {
			return ""
		}
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int8:
		return strconv.FormatInt(int64(x), 10)
	case uint8:
		return strconv.FormatUint(uint64(x), 10)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

// WriteVizierFITS writes records as a VizieR-style binary table (JD, m, e_m,
// l_m, band, r_m) preceded by an empty primary HDU. l_m is a one-character
// column holding ">" for detection limits.
func WriteVizierFITS(w io.Writer, records []domain.PhotometryRecord) error {
	var buf bytes.Buffer
	if err := writeVizierTable(&buf, records); err != nil {
		return err
	}
	data := buf.Bytes()

	layout, err := locateTable(data, 1)
	if err != nil {
		return fmt.Errorf("locate table: %w", err)
	}
	for i, rec := range records {
		cell, ok := layout.cell(data, i, "l_m")
		if !ok {
			return fmt.Errorf("row %d: no l_m cell", i)
		}
		cell[0] = ' '
		if rec.IsLimit {
			cell[0] = '>'
		}
	}
	_, err = w.Write(data)
	return err
}

func writeVizierTable(w io.Writer, records []domain.PhotometryRecord) error {
	f, err := fitsio.Create(w)
	if err != nil {
		return fmt.Errorf("create fits: %w", err)
	}
	defer f.Close()

	phdu, err := fitsio.NewPrimaryHDU(nil)
	if err != nil {
		return fmt.Errorf("primary hdu: %w", err)
	}
	if err := f.Write(phdu); err != nil {
		return fmt.Errorf("write primary hdu: %w", err)
	}

	cols := []fitsio.Column{
		{Name: "JD", Format: "D"},
		{Name: "m", Format: "E"},
		{Name: "e_m", Format: "E"},
		{Name: "l_m", Format: "1A"},
		{Name: "band", Format: "8A"},
		{Name: "r_m", Format: "24A"},
	}
	table, err := fitsio.NewTable("photometry", cols, fitsio.BINARY_TBL)
	if err != nil {
		return fmt.Errorf("new table: %w", err)
	}
	defer table.Close()

	for _, rec := range records {
		jd := rec.Time
		m := float32(rec.Mag)
		em := float32(math.NaN())
		if rec.HasMagErr() {
			em = float32(rec.MagErr)
		}
		lm := ""
		band := rec.Band
		ref := rec.Reference
		if err := table.Write(&jd, &m, &em, &lm, &band, &ref); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	return f.Write(table)
}
