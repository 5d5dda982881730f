// Package domain models supernova photometry as it moves from heterogeneous
// raw archive files to normalised SNANA light curves.
//
// # Data Sources
//
// Raw photometry for each supernova lives under
// raw_virgo_data/<SN>/Photometry/ and comes from several archives, each with
// its own conventions:
//
//	VizieR FITS tables:   JD, m, e_m, l_m, band columns in the first extension.
//	Hand-converted CSV:   "Julian Date,Gregorian Day,Magnitude,Band,Ref,Magerr".
//	Simple CSV:           "MJD,Band,Mag,Err".
//	Tab-separated text:   "Julian Date<TAB>Gregorian Day<TAB>Magnitude<TAB>Indmag and Band".
//	Notes-and-limits:     whitespace aligned columns with '#' comments, "null"
//	                      uncertainties and ">"/"<" prefixed limiting magnitudes.
//
// # Band Conventions
//
// Band labels are mapped to sncosmo bandpass registry names:
//
//	"B", "blue", "'blue'", "B_max"  →  bessellb
//	"pg", "m_pg", "C"               →  standard::b (photographic)
//	"pv", "m_v"                     →  standard::v (photovisual)
//
// A label that is neither in the [BandMap] nor already a canonical name is
// kept and tagged [UnknownBand] so the record is not lost. Colour indices such
// as "(B-V)" are not magnitudes and are dropped before mapping.
//
// # Magnitude Systems
//
// Each raw file declares the system its magnitudes are expressed in (Vega or
// AB). Records are reconciled to one output system using per-band AB−Vega
// offsets (Blanton & Roweis 2007 for Bessell and SDSS bands). Fluxes are
// written at a zero point of 25:
//
//	flux    = 10^(-0.4 (mag - 25))
//	fluxerr = flux · 0.4 · ln(10) · magerr     (-999 when magerr is absent)
//
// # Detection Limits
//
// A limit record carries the limiting magnitude of a non-detection. Limits
// are written with limit=1 and never raise unmapped-band warnings.
package domain
