// Package snana reads and writes the SNANA light-curve text format produced
// by the ETL run:
//
//	SURVEY: VIRGO_PROJECT
//	SNID: SN1994D
//	RA: 188.50958333
//	DECL: 7.70111111
//	MWEBV: 0.0220
//	REDSHIFT_HELIO: 0.001500
//	FILTERS: bessellb bessellv
//	NOBS: 2
//	NVAR: 9
//	VARLIST: time band flux fluxerr mag magerr zp zpsys limit
//	OBS: 2449430.50000 bessellb 1.513561e+05 1.394041e+04 12.0500 0.1000 25.0 vega 0
//	OBS: 2449431.50000 bessellv 1.445440e+05 -999 12.1000 -999 25.0 vega 0
//	END:
//
// Every value is printed with a fixed format so an unchanged input yields a
// byte-identical file.
package snana

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/couchcryptid/virgo-snana-etl/internal/domain"
)

// VarList is the column order of every OBS line.
var VarList = []string{"time", "band", "flux", "fluxerr", "mag", "magerr", "zp", "zpsys", "limit"}

// ErrMalformed is returned by Read for input that is not a SNANA file.
var ErrMalformed = errors.New("malformed snana file")

// Header holds the per-supernova keys written before the observations.
type Header struct {
	Survey   string
	SNID     string
	RA       *float64
	Dec      *float64
	MWEBV    float64
	Redshift float64
	Filters  []string
	NObs     int // as declared in the file; Write derives it from the observations
}

// Observation is one OBS line.
type Observation struct {
	Time    float64
	Band    string
	Flux    float64
	FluxErr float64
	Mag     float64
	MagErr  float64
	ZP      float64
	ZPSys   string
	Limit   bool
}

// LightCurve is a complete SNANA file.
type LightCurve struct {
	Header
	Obs []Observation
}

// Path returns the output location of a supernova under outputDir.
func Path(outputDir, snid string) string {
	return filepath.Join(outputDir, snid, "Photometry", snid+".photometry.snana.dat")
}

// FromRecords builds the light curve of entry from merged, normalised
// records. The records must already be in output order.
func FromRecords(survey string, entry domain.SupernovaEntry, records []domain.NormalizedRecord) LightCurve {
	lc := LightCurve{
		Header: Header{
			Survey:   survey,
			SNID:     entry.Name,
			RA:       entry.Meta.RA,
			Dec:      entry.Meta.Dec,
			MWEBV:    entry.Meta.MWEBV,
			Redshift: entry.Meta.Redshift,
			Filters:  domain.Filters(records),
		},
		Obs: make([]Observation, len(records)),
	}
	for i, r := range records {
		magErr := domain.Missing
		if r.HasMagErr() {
			magErr = r.MagErr
		}
		lc.Obs[i] = Observation{
			Time:    r.Time,
			Band:    r.Band,
			Flux:    r.Flux,
			FluxErr: r.FluxErr,
			Mag:     r.Mag,
			MagErr:  magErr,
			ZP:      domain.ZeroPoint,
			ZPSys:   string(r.MagSystem),
			Limit:   r.IsLimit,
		}
	}
	lc.NObs = len(lc.Obs)
	return lc
}

// Write serialises lc.
func Write(w io.Writer, lc LightCurve) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "SURVEY: %s\n", lc.Survey)
	fmt.Fprintf(bw, "SNID: %s\n", lc.SNID)
	if lc.RA != nil && lc.Dec != nil {
		fmt.Fprintf(bw, "RA: %.8f\n", *lc.RA)
		fmt.Fprintf(bw, "DECL: %.8f\n", *lc.Dec)
	}
	fmt.Fprintf(bw, "MWEBV: %.4f\n", lc.MWEBV)
	fmt.Fprintf(bw, "REDSHIFT_HELIO: %.6f\n", lc.Redshift)
	fmt.Fprintf(bw, "FILTERS: %s\n", strings.Join(lc.Filters, " "))
	fmt.Fprintf(bw, "NOBS: %d\n", len(lc.Obs))
	fmt.Fprintf(bw, "NVAR: %d\n", len(VarList))
	fmt.Fprintf(bw, "VARLIST: %s\n", strings.Join(VarList, " "))

	for _, o := range lc.Obs {
		if strings.ContainsAny(o.Band, " \t") || o.Band == "" {
			return fmt.Errorf("observation at %.5f: band %q is not a single token", o.Time, o.Band)
		}
		limit := 0
		if o.Limit {
			limit = 1
		}
		fmt.Fprintf(bw, "OBS: %.5f %s %.6e %s %.4f %s %.1f %s %d\n",
			o.Time, o.Band, o.Flux, formatOptional(o.FluxErr, "%.6e"),
			o.Mag, formatOptional(o.MagErr, "%.4f"), o.ZP, o.ZPSys, limit)
	}
	fmt.Fprintln(bw, "END:")

	return bw.Flush()
}

// formatOptional prints v with format, or the Missing sentinel bare.
func formatOptional(v float64, format string) string {
	if v == domain.Missing {
		return "-999"
	}
	return fmt.Sprintf(format, v)
}

// Read parses a SNANA file. Unknown header keys are ignored; OBS lines are
// interpreted through the file's VARLIST.
func Read(r io.Reader) (LightCurve, error) {
	var (
		lc      LightCurve
		varlist []string
		ended   bool
	)
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return lc, fmt.Errorf("%w: line %d: no key", ErrMalformed, lineNo)
		}
		value = strings.TrimSpace(value)

		var err error
		switch key {
		case "SURVEY":
			lc.Survey = value
		case "SNID":
			lc.SNID = value
		case "RA":
			lc.RA, err = parseOptionalFloat(value)
		case "DECL", "DEC":
			lc.Dec, err = parseOptionalFloat(value)
		case "MWEBV":
			lc.MWEBV, err = strconv.ParseFloat(value, 64)
		case "REDSHIFT_HELIO":
			lc.Redshift, err = strconv.ParseFloat(value, 64)
		case "FILTERS":
			lc.Filters = strings.Fields(value)
		case "NOBS":
			lc.NObs, err = strconv.Atoi(value)
		case "VARLIST":
			varlist = strings.Fields(value)
		case "OBS":
			if varlist == nil {
				return lc, fmt.Errorf("%w: line %d: OBS before VARLIST", ErrMalformed, lineNo)
			}
			var o Observation
			o, err = parseObservation(varlist, strings.Fields(value))
			lc.Obs = append(lc.Obs, o)
		case "END":
			ended = true
		}
		if err != nil {
			return lc, fmt.Errorf("%w: line %d: %s: %v", ErrMalformed, lineNo, key, err)
		}
		if ended {
			break
		}
	}
	if err := sc.Err(); err != nil {
		return lc, fmt.Errorf("read snana: %w", err)
	}
	if lc.SNID == "" {
		return lc, fmt.Errorf("%w: no SNID", ErrMalformed)
	}
	return lc, nil
}

func parseOptionalFloat(s string) (*float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseObservation(varlist, cells []string) (Observation, error) {
	var o Observation
	if len(cells) != len(varlist) {
		return o, fmt.Errorf("%d values for %d columns", len(cells), len(varlist))
	}
	for i, name := range varlist {
		cell := cells[i]
		var err error
		switch name {
		case "time", "mjd":
			o.Time, err = strconv.ParseFloat(cell, 64)
		case "band", "flt":
			o.Band = cell
		case "flux", "fluxcal":
			o.Flux, err = strconv.ParseFloat(cell, 64)
		case "fluxerr", "fluxcalerr":
			o.FluxErr, err = strconv.ParseFloat(cell, 64)
		case "mag":
			o.Mag, err = strconv.ParseFloat(cell, 64)
		case "magerr":
			o.MagErr, err = strconv.ParseFloat(cell, 64)
		case "zp":
			o.ZP, err = strconv.ParseFloat(cell, 64)
		case "zpsys":
			o.ZPSys = cell
		case "limit":
			o.Limit = cell == "1"
		}
		if err != nil {
			return o, fmt.Errorf("column %s: %w", name, err)
		}
	}
	return o, nil
}
