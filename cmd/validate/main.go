// Command validate performs integrity checks over a generated SNANA tree:
// file layout, header consistency and per-observation invariants (canonical
// or UNKNOWN bands, zero point, flux matching magnitude).
//
// Usage:
//
//	go run ./cmd/validate \
//	  -output-dir snana_virgo_data \
//	  -catalog internal/catalog/catalog.yaml
package main

import (
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/couchcryptid/virgo-snana-etl/internal/catalog"
	"github.com/couchcryptid/virgo-snana-etl/internal/domain"
	"github.com/couchcryptid/virgo-snana-etl/internal/snana"
	"github.com/spf13/afero"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	outputDir := flag.String("output-dir", "snana_virgo_data", "directory holding the generated SNANA tree")
	catalogPath := flag.String("catalog", "", "catalog YAML (empty uses the embedded catalog)")
	flag.Parse()

	if code := run(os.Stdout, afero.NewOsFs(), *outputDir, *catalogPath); code != 0 {
		os.Exit(code)
	}
}

// lightCurveFile is one SNANA file found in the tree.
type lightCurveFile struct {
	path string
	dir  string // supernova directory name
	lc   snana.LightCurve
}

func run(w io.Writer, fsys afero.Fs, outputDir, catalogPath string) int {
	fmt.Fprintln(w, "=== SNANA Output Integrity Validation ===")
	fmt.Fprintln(w)

	cat, err := catalog.Load(fsys, catalogPath)
	if err != nil {
		fmt.Fprintf(w, "FATAL: load catalog: %v\n", err)
		return 1
	}

	paths, err := afero.Glob(fsys, filepath.Join(outputDir, "*", "Photometry", "*"))
	if err != nil {
		fmt.Fprintf(w, "FATAL: list %s: %v\n", outputDir, err)
		return 1
	}
	sort.Strings(paths)

	layout := &phase{name: "Phase 1: Layout (one file per supernova)"}
	files := loadFiles(fsys, layout, outputDir, paths, cat)

	phases := []*phase{
		layout,
		validateHeaders(files),
		validateObservations(files, cat.BandMap()),
	}

	fmt.Fprintln(w)
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-42s %s\n", p.name, status)
	}

	nobs := 0
	for _, f := range files {
		nobs += len(f.lc.Obs)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Files: %d of %d configured supernovae, %d observations\n", len(files), cat.Len(), nobs)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(w, "\nValidation FAILED.")
	return 1
}

// ── Phase 1: Layout ──

func loadFiles(fsys afero.Fs, p *phase, outputDir string, paths []string, cat *catalog.Catalog) []lightCurveFile {
	var files []lightCurveFile
	for _, path := range paths {
		rel, _ := filepath.Rel(outputDir, path)
		dir := strings.Split(filepath.ToSlash(rel), "/")[0]

		if _, ok := cat.Lookup(dir); !ok {
			p.errorf("%s: supernova %q is not in the catalog", rel, dir)
		}
		if path != snana.Path(outputDir, dir) {
			p.errorf("%s: unexpected file, want %s", rel, filepath.Base(snana.Path(outputDir, dir)))
			continue
		}

		f, err := fsys.Open(path)
		if err != nil {
			p.errorf("%s: %v", rel, err)
			continue
		}
		lc, err := snana.Read(f)
		f.Close()
		if err != nil {
			p.errorf("%s: %v", rel, err)
			continue
		}
		files = append(files, lightCurveFile{path: rel, dir: dir, lc: lc})
	}
	return files
}

// ── Phase 2: Headers ──

func validateHeaders(files []lightCurveFile) *phase {
	p := &phase{name: "Phase 2: Headers (SNID, NOBS, FILTERS)"}
	for _, f := range files {
		lc := f.lc
		if lc.SNID != f.dir {
			p.errorf("%s: SNID %q does not match directory %q", f.path, lc.SNID, f.dir)
		}
		if lc.Survey == "" {
			p.errorf("%s: SURVEY is empty", f.path)
		}
		if lc.NObs != len(lc.Obs) {
			p.errorf("%s: NOBS %d but %d OBS lines", f.path, lc.NObs, len(lc.Obs))
		}
		if len(lc.Obs) == 0 {
			p.errorf("%s: no observations", f.path)
		}

		var bands []string
		for _, o := range lc.Obs {
			bands = append(bands, o.Band)
		}
		slices.Sort(bands)
		bands = slices.Compact(bands)
		if !slices.Equal(bands, lc.Filters) {
			p.errorf("%s: FILTERS %v, observations use %v", f.path, lc.Filters, bands)
		}
	}
	return p
}

// ── Phase 3: Observations ──

func validateObservations(files []lightCurveFile, bands *domain.BandMap) *phase {
	p := &phase{name: "Phase 3: Observations (bands, zp, flux)"}
	for _, f := range files {
		for i, o := range f.lc.Obs {
			pf := func(format string, args ...any) {
				p.errorf("%s OBS %d: "+format, append([]any{f.path, i + 1}, args...)...)
			}
			checkObservation(pf, o, bands)
		}
	}
	return p
}

func checkObservation(pf func(string, ...any), o snana.Observation, bands *domain.BandMap) {
	if o.Band != domain.UnknownBand && !bands.IsCanonical(o.Band) {
		pf("band %q is neither canonical nor UNKNOWN", o.Band)
	}
	if _, err := domain.ParseMagSystem(o.ZPSys); err != nil {
		pf("zpsys: %v", err)
	}
	if o.ZP != domain.ZeroPoint {
		pf("zp %.1f, want %.1f", o.ZP, domain.ZeroPoint)
	}

	wantFlux, wantErr := domain.MagToFlux(o.Mag, magErrOrNaN(o.MagErr))
	if !relEq(o.Flux, wantFlux, 1e-4) {
		pf("flux %.6e does not match mag %.4f (want %.6e)", o.Flux, o.Mag, wantFlux)
	}
	switch {
	case o.MagErr == domain.Missing && o.FluxErr != domain.Missing:
		pf("fluxerr %.6e without magerr", o.FluxErr)
	case o.MagErr != domain.Missing && o.MagErr < 0:
		pf("negative magerr %.4f", o.MagErr)
	case o.MagErr != domain.Missing && !relEq(o.FluxErr, wantErr, 1e-2):
		pf("fluxerr %.6e does not match magerr %.4f", o.FluxErr, o.MagErr)
	}
}

// ── Helpers ──

func magErrOrNaN(v float64) float64 {
	if v == domain.Missing {
		return math.NaN()
	}
	return v
}

func relEq(a, b, tol float64) bool {
	if a == b {
		return true
	}
	return math.Abs(a-b) <= tol*math.Max(math.Abs(a), math.Abs(b))
}
