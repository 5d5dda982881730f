package domain

import (
	"fmt"
	"math"
	"strings"
)

// MagSystem is a photometric calibration convention.
type MagSystem string

const (
	MagSystemVega MagSystem = "vega"
	MagSystemAB   MagSystem = "ab"
)

// ParseMagSystem accepts "Vega"/"AB" in any case. An empty string is an error.
func ParseMagSystem(s string) (MagSystem, error) {
	switch MagSystem(strings.ToLower(strings.TrimSpace(s))) {
	case MagSystemVega:
		return MagSystemVega, nil
	case MagSystemAB:
		return MagSystemAB, nil
	default:
		return "", fmt.Errorf("unknown magnitude system %q", s)
	}
}

// abMinusVega holds m_AB - m_Vega per canonical band (Blanton & Roweis 2007,
// 2MASS from Cohen et al. 2003).
var abMinusVega = map[string]float64{
	"bessellux":   0.79,
	"bessellb":    -0.09,
	"bessellv":    0.02,
	"bessellr":    0.21,
	"besselli":    0.45,
	"standard::u": 0.79,
	"standard::b": -0.09,
	"standard::v": 0.02,
	"standard::r": 0.21,
	"standard::i": 0.45,
	"sdssu":       0.91,
	"sdssg":       -0.08,
	"sdssr":       0.16,
	"sdssi":       0.37,
	"sdssz":       0.54,
	"sdss::u":     0.91,
	"sdss::g":     -0.08,
	"sdss::r":     0.16,
	"sdss::i":     0.37,
	"sdss::z":     0.54,
	"2massj":      0.91,
	"2massh":      1.39,
	"2massks":     1.85,
}

// ConvertMag moves a magnitude from one system to another for the given
// canonical band. ok is false when the systems differ and no offset is known.
func ConvertMag(mag float64, band string, from, to MagSystem) (float64, bool) {
	if from == to {
		return mag, true
	}
	off, known := abMinusVega[band]
	if !known {
		return mag, false
	}
	if from == MagSystemVega && to == MagSystemAB {
		return mag + off, true
	}
	return mag - off, true
}

// MagToFlux converts a magnitude and its uncertainty to flux at ZeroPoint.
// fluxErr is Missing when the uncertainty is absent.
func MagToFlux(mag, magErr float64) (flux, fluxErr float64) {
	flux = math.Pow(10, -0.4*(mag-ZeroPoint))
	if math.IsNaN(magErr) || math.IsInf(magErr, 0) {
		return flux, Missing
	}
	return flux, flux * 0.4 * math.Ln10 * magErr
}
