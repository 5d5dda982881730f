package domain

// Severity ranks a run warning.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// WarningKind classifies a run warning.
type WarningKind string

const (
	KindParseFailure      WarningKind = "parse_failure"
	KindUnknownBand       WarningKind = "unknown_band"
	KindUnmappedBand      WarningKind = "unmapped_band"
	KindMagSysUnconverted WarningKind = "magsys_unconverted"
	KindNoUsableData      WarningKind = "no_usable_data"
	KindWriteFailure      WarningKind = "write_failure"
)

// Warning is one human-relevant event collected during a run.
type Warning struct {
	Severity  Severity
	Kind      WarningKind
	Supernova string
	File      string
	Message   string
}
