package domain

import (
	"math"
	"sort"
)

// BandOutcome describes how a record's band label was resolved.
type BandOutcome int

const (
	BandMapped       BandOutcome = iota // mapped to a canonical label
	BandUnknown                         // raw label was UNKNOWN or empty
	BandUnmapped                        // raw label has no mapping
	BandUnmappedLimit                   // no mapping, but the record is a limit
)

// MagOutcome describes magnitude-system reconciliation.
type MagOutcome int

const (
	MagConverted MagOutcome = iota
	MagUnconverted
)

// NormalizeRecord maps the band of rec through bands (consulting overrides
// first) and reconciles its magnitude from the file's system to the output
// system. The returned record is always usable: an unresolved band becomes
// UnknownBand and an unconvertible magnitude keeps its source system.
func NormalizeRecord(rec PhotometryRecord, bands *BandMap, overrides map[string]string, from, to MagSystem) (NormalizedRecord, BandOutcome, MagOutcome) {
	out := NormalizedRecord{PhotometryRecord: rec, RawBand: rec.Band}

	canon, ok := bands.Resolve(rec.Band, overrides)
	out.Band = canon

	bandOutcome := BandMapped
	switch {
	case ok:
	case rec.IsLimit:
		bandOutcome = BandUnmappedLimit
	case CleanBand(rec.Band) == "" || CleanBand(rec.Band) == UnknownBand:
		bandOutcome = BandUnknown
	default:
		bandOutcome = BandUnmapped
	}

	magOutcome := MagConverted
	out.MagSystem = to
	if mag, converted := ConvertMag(rec.Mag, canon, from, to); converted {
		out.Mag = mag
	} else {
		out.MagSystem = from
		magOutcome = MagUnconverted
	}

	out.Flux, out.FluxErr = MagToFlux(out.Mag, out.MagErr)
	return out, bandOutcome, magOutcome
}

// DropColorIndices removes records whose band is a colour index.
func DropColorIndices(records []PhotometryRecord) []PhotometryRecord {
	out := records[:0:0]
	for _, r := range records {
		if !r.IsColorIndex() {
			out = append(out, r)
		}
	}
	return out
}

// TimeMagSet remembers the (time, mag) pairs already merged for a supernova.
type TimeMagSet map[[2]uint64]struct{}

// Add records r's pair and reports whether it was new.
func (s TimeMagSet) Add(r PhotometryRecord) bool {
	k := [2]uint64{math.Float64bits(r.Time), math.Float64bits(r.Mag)}
	if _, dup := s[k]; dup {
		return false
	}
	s[k] = struct{}{}
	return true
}

// DedupeTimeMag drops records repeating an earlier (time, mag) pair, keeping
// the first occurrence. Pass the same set across files to dedupe a merge.
func DedupeTimeMag(seen TimeMagSet, records []PhotometryRecord) []PhotometryRecord {
	out := records[:0:0]
	for _, r := range records {
		if seen.Add(r) {
			out = append(out, r)
		}
	}
	return out
}

// Filters returns the sorted set of bands present in records.
func Filters(records []NormalizedRecord) []string {
	set := make(map[string]bool)
	for _, r := range records {
		set[r.Band] = true
	}
	out := make([]string, 0, len(set))
	for b := range set {
		out = append(out, b)
	}
	sort.Strings(out)
	return out
}
