// Package report prints the outcome of a run for a human reader.
package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/couchcryptid/virgo-snana-etl/internal/domain"
	"github.com/couchcryptid/virgo-snana-etl/internal/pipeline"
)

// WriteWarnings prints one line per warning, in the order they were raised:
//
//	WARNING: SN1990N/broken.txt: Could not parse file broken.txt with any available parser
func WriteWarnings(w io.Writer, warnings []domain.Warning) error {
	for _, wn := range warnings {
		loc := wn.Supernova
		if wn.File != "" {
			loc += "/" + wn.File
		}
		if _, err := fmt.Fprintf(w, "%s: %s: %s\n", label(wn.Severity), loc, wn.Message); err != nil {
			return err
		}
	}
	return nil
}

// WriteSummary prints the written files followed by the warnings.
func WriteSummary(w io.Writer, r *pipeline.Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "run %s: %d files written, %d warnings\n", r.RunID, len(r.Outputs), len(r.Warnings))
	for _, o := range r.Outputs {
		fmt.Fprintf(tw, "  %s\t%d obs\t%s\n", o.Supernova, o.NObs, o.Path)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return WriteWarnings(w, r.Warnings)
}

func label(s domain.Severity) string {
	switch s {
	case domain.SeverityInfo:
		return "INFO"
	default:
		return "WARNING"
	}
}
