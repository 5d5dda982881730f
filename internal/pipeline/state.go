package pipeline

import (
	"github.com/couchcryptid/virgo-snana-etl/internal/domain"
	"github.com/couchcryptid/virgo-snana-etl/internal/parser"
)

// FileState is a raw file's position in the per-file lifecycle.
type FileState string

const (
	StatePending           FileState = "PENDING"
	StateParsing           FileState = "PARSING"
	StateParsed            FileState = "PARSED"
	StateParseFailed       FileState = "PARSE_FAILED"
	StateMapping           FileState = "MAPPING"
	StateMapped            FileState = "MAPPED"
	StateBandUnknownWarned FileState = "BAND_UNKNOWN_WARNED"
	StateMerged            FileState = "MERGED"
)

// FileResult is the outcome of one configured raw file.
type FileResult struct {
	Supernova string
	File      string
	Path      string
	Missing   bool   // file absent on disk; never dispatched
	Parser    string // parser that succeeded, if any
	Attempts  []parser.Attempt
	Records   int // records parsed before merge
	Merged    int // records surviving colour filtering and dedupe

	// Trace lists every state the file passed through, in order.
	Trace []FileState
}

// State returns the file's final state.
func (r *FileResult) State() FileState {
	if len(r.Trace) == 0 {
		return StatePending
	}
	return r.Trace[len(r.Trace)-1]
}

func (r *FileResult) enter(s FileState) {
	r.Trace = append(r.Trace, s)
}

// Output describes one written SNANA file.
type Output struct {
	Supernova string
	Path      string
	NObs      int
	Filters   []string
}

// Report is everything a run produced besides the files themselves.
type Report struct {
	RunID    string
	Files    []FileResult
	Warnings []domain.Warning
	Outputs  []Output
}

// FailedFiles returns the files no parser could read.
func (r *Report) FailedFiles() []FileResult {
	var out []FileResult
	for _, f := range r.Files {
		if f.State() == StateParseFailed {
			out = append(out, f)
		}
	}
	return out
}
