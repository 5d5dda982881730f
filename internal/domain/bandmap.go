package domain

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// UnknownBand marks a band label with no canonical mapping.
const UnknownBand = "UNKNOWN"

// DefaultBandMap maps band labels found in the raw archives to sncosmo
// bandpass registry names.
var DefaultBandMap = map[string]string{
	"U":       "bessellux",
	"B":       "bessellb",
	"V":       "bessellv",
	"R":       "bessellr",
	"I":       "besselli",
	"pg":      "standard::b",
	"pv":      "standard::v",
	"m_v":     "bessellv",
	"m_pg":    "standard::b",
	"B_max":   "bessellb",
	"blue":    "bessellb",
	"red":     "bessellr",
	"'blue'":  "bessellb",
	"'red'":   "bessellr",
	"C":       "standard::b",
	"Ks":      "2massks",
	"J":       "2massj",
	"H":       "2massh",
}

// KnownBands is the sncosmo bandpass registry subset accepted as canonical.
var KnownBands = []string{
	"2massh", "2massj", "2massks",
	"4shooter2::b", "4shooter2::i", "4shooter2::r", "4shooter2::us", "4shooter2::v",
	"atlasc", "atlaso",
	"bessellb", "besselli", "bessellr", "bessellux", "bessellv",
	"cspb", "cspg", "csphd", "csphs", "cspi", "cspjd", "cspjs", "cspk", "cspr", "cspu",
	"cspv3009", "cspv3014", "cspv9844", "cspyd", "cspys",
	"desg", "desi", "desr", "desu", "desy", "desz",
	"gaia::g", "gaia::gbp", "gaia::grp", "gaia::grvs",
	"galex::fuv", "galex::nuv",
	"gotob", "gotog", "gotol", "gotor",
	"hsc::g", "hsc::i", "hsc::i2", "hsc::r", "hsc::r2", "hsc::y", "hsc::z",
	"kepler", "keplercam::b", "keplercam::i", "keplercam::r", "keplercam::us", "keplercam::v",
	"lsstg", "lssti", "lsstr", "lsstu", "lssty", "lsstz",
	"megacam6::g", "megacam6::i", "megacam6::i2", "megacam6::r", "megacam6::z",
	"ps1::g", "ps1::i", "ps1::open", "ps1::r", "ps1::w", "ps1::y", "ps1::z",
	"sdss::g", "sdss::i", "sdss::r", "sdss::u", "sdss::z",
	"sdssg", "sdssi", "sdssr", "sdssu", "sdssz",
	"skymapperg", "skymapperi", "skymapperr", "skymapperu", "skymapperz",
	"standard::b", "standard::i", "standard::r", "standard::u", "standard::v",
	"swope2::b", "swope2::g", "swope2::h", "swope2::i", "swope2::j", "swope2::r",
	"swope2::u", "swope2::v", "swope2::v1", "swope2::v2", "swope2::y",
	"tess",
	"uvot::b", "uvot::u", "uvot::uvm2", "uvot::uvw1", "uvot::uvw2", "uvot::v", "uvot::white",
	"ztf::g", "ztf::i", "ztf::r", "ztfg", "ztfi", "ztfr",
}

// BandMap resolves raw band labels to canonical labels. It is consulted,
// never mutated, during normalisation.
type BandMap struct {
	labels    map[string]string
	canonical map[string]bool
}

// NewBandMap builds a BandMap from raw→canonical entries. Every target of
// entries, every name in KnownBands and every extra label is canonical.
// Extras carry the targets of per-file overrides.
func NewBandMap(entries map[string]string, extra ...string) *BandMap {
	m := &BandMap{
		labels:    make(map[string]string, len(entries)),
		canonical: make(map[string]bool, len(KnownBands)+len(entries)),
	}
	for _, b := range KnownBands {
		m.canonical[b] = true
	}
	for raw, canon := range entries {
		m.labels[CleanBand(raw)] = canon
		m.canonical[canon] = true
	}
	for _, canon := range extra {
		m.canonical[canon] = true
	}
	return m
}

// IsCanonical reports whether label is a canonical band label.
func (m *BandMap) IsCanonical(label string) bool {
	return m.canonical[label]
}

// Resolve maps a raw label, consulting overrides first. An override whose
// target is not canonical is ignored. The second return is false when the
// label has no mapping, in which case UnknownBand is returned.
func (m *BandMap) Resolve(raw string, overrides map[string]string) (string, bool) {
	label := CleanBand(raw)
	if label == "" || label == UnknownBand {
		return UnknownBand, false
	}
	if canon, ok := overrides[label]; ok && m.canonical[canon] {
		return canon, true
	}
	if canon, ok := m.labels[label]; ok {
		return canon, true
	}
	if m.canonical[label] {
		return label, true
	}
	return UnknownBand, false
}

// CleanBand normalises a raw band label read from a file: NFKC folding (so
// full-width letters and non-breaking spaces from scanned tables compare
// equal) and surrounding whitespace removal.
func CleanBand(raw string) string {
	return strings.TrimSpace(norm.NFKC.String(raw))
}
