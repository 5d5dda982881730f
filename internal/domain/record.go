package domain

import (
	"math"
	"path/filepath"
	"strings"
)

// Missing is the SNANA sentinel written for absent uncertainties.
const Missing = -999.0

// ZeroPoint is the flux zero point used for every output record.
const ZeroPoint = 25.0

// Metadata holds the static header values for a supernova.
type Metadata struct {
	RA       *float64 `yaml:"ra,omitempty"`
	Dec      *float64 `yaml:"dec,omitempty"`
	Redshift float64  `yaml:"redshift,omitempty"`
	MWEBV    float64  `yaml:"mwebv,omitempty"`
}

// RawFileRef points at one raw photometry file of a supernova.
type RawFileRef struct {
	Name      string            // file name inside <raw>/<SN>/Photometry
	Format    string            // parser hint; empty means infer from the extension
	MagSystem MagSystem         // system of the magnitudes in this file
	Bands     map[string]string // per-source band overrides
}

// FormatHint returns the declared parser hint, falling back to one inferred
// from the file extension.
func (f RawFileRef) FormatHint() string {
	if f.Format != "" {
		return f.Format
	}
	switch strings.ToLower(filepath.Ext(f.Name)) {
	case ".fit", ".fits", ".fts":
		return "fits-vizier"
	case ".csv":
		return "csv-iauc"
	case ".txt", ".dat":
		return "text-tab"
	default:
		return ""
	}
}

// SupernovaEntry is one configured supernova and its raw files in order.
type SupernovaEntry struct {
	Name  string
	Files []RawFileRef
	Meta  Metadata
}

// PhotometryRecord is a single measurement as extracted from a raw file.
// Band is the raw label, before any mapping.
type PhotometryRecord struct {
	Band      string
	Time      float64 // Julian date as given by the source
	Mag       float64
	MagErr    float64 // NaN when the source gives no uncertainty
	IsLimit   bool
	Reference string
}

// HasMagErr reports whether the record carries a usable uncertainty.
func (r PhotometryRecord) HasMagErr() bool {
	return !math.IsNaN(r.MagErr) && !math.IsInf(r.MagErr, 0)
}

// IsColorIndex reports whether the band label is a colour such as "(B-V)".
func (r PhotometryRecord) IsColorIndex() bool {
	return strings.Contains(r.Band, "(")
}

// NormalizedRecord is a PhotometryRecord with a canonical band label and a
// reconciled magnitude system.
type NormalizedRecord struct {
	PhotometryRecord
	RawBand   string
	MagSystem MagSystem
	Flux      float64
	FluxErr   float64
}
