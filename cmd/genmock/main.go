// Command genmock writes a synthetic raw photometry tree for every supernova
// in the catalog, one file per configured entry, in the dialect the entry's
// format hint names. The output exercises every parser, including FITS, and
// a few unknown bands, colour indices and detection limits.
//
// Usage:
//
//	go run ./cmd/genmock -raw-dir raw_virgo_data
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/virgo-snana-etl/internal/catalog"
	"github.com/couchcryptid/virgo-snana-etl/internal/domain"
	"github.com/couchcryptid/virgo-snana-etl/internal/parser"
	"github.com/spf13/afero"
)

// epochs per file; a Gregorian date column is derived from the JD.
const epochs = 12

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	rawDir := flag.String("raw-dir", "raw_virgo_data", "directory to write the raw tree into")
	catalogPath := flag.String("catalog", "", "catalog YAML (empty uses the embedded catalog)")
	seed := flag.Uint64("seed", 1987, "random seed for reproducible light curves")
	flag.Parse()

	fsys := afero.NewOsFs()
	cat, err := catalog.Load(fsys, *catalogPath)
	if err != nil {
		return err
	}

	n, err := generate(fsys, cat, *rawDir, *seed)
	if err != nil {
		return err
	}
	log.Printf("wrote %d raw files for %d supernovae under %s", n, cat.Len(), *rawDir)
	return nil
}

// generate writes every configured file and returns how many were written.
func generate(fsys afero.Fs, cat *catalog.Catalog, rawDir string, seed uint64) (int, error) {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	written := 0
	for _, entry := range cat.Entries() {
		peak := 11 + 3*rng.Float64()
		t0 := 2429000.5 + float64(written)*1500 + math.Round(rng.Float64()*100)
		for i, file := range entry.Files {
			recs := lightCurve(rng, file.FormatHint(), t0+float64(i)*0.5, peak)
			data, err := encode(file.FormatHint(), recs)
			if err != nil {
				return written, fmt.Errorf("%s/%s: %w", entry.Name, file.Name, err)
			}
			path := filepath.Join(rawDir, entry.Name, "Photometry", file.Name)
			if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return written, err
			}
			if err := afero.WriteFile(fsys, path, data, 0o644); err != nil {
				return written, err
			}
			written++
		}
	}
	return written, nil
}

// lightCurve samples a simple rise-and-decline around peak. Bands follow the
// conventions of each dialect's real sources.
func lightCurve(rng *rand.Rand, format string, t0, peak float64) []domain.PhotometryRecord {
	var bands []string
	switch format {
	case "fits-vizier":
		bands = []string{"(B-V)", "B", "V", "pg"}
	case "text-tab":
		bands = []string{"pg", "pv", "m_pg"}
	case "text-notes":
		bands = []string{"B", "V", "R", "Hα"}
	default:
		bands = []string{"B", "V", "'blue'", "I"}
	}

	recs := make([]domain.PhotometryRecord, 0, epochs)
	for i := range epochs {
		t := t0 + float64(i)*4
		band := bands[i%len(bands)]
		phase := float64(i) - 3
		mag := peak + 0.05*phase*phase
		if phase > 0 {
			mag = peak + 0.08*phase
		}
		rec := domain.PhotometryRecord{
			Band:      band,
			Time:      t,
			Mag:       math.Round(mag*100) / 100,
			MagErr:    math.Round((0.02+0.1*rng.Float64())*1000) / 1000,
			Reference: fmt.Sprintf("IAUC %d", 3000+i),
		}
		if strings.Contains(band, "(") {
			rec.Mag = 0.3
		}
		if i == epochs-1 {
			rec.IsLimit = true
			rec.MagErr = math.NaN()
			rec.Mag = math.Round((peak+3)*10) / 10
		}
		recs = append(recs, rec)
	}
	return recs
}

func encode(format string, recs []domain.PhotometryRecord) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case "fits-vizier":
		if err := parser.WriteVizierFITS(&buf, recs); err != nil {
			return nil, err
		}
	case "text-tab":
		buf.WriteString("Julian Date\tGregorian Day\tMagnitude\tUncertainty\tIndmag and Band\tReference Text\n")
		for _, r := range recs {
			fmt.Fprintf(&buf, "%.2f\t%s\t%s\t%s\t%s\t%s\n", r.Time, gregorian(r.Time), magCell(r), errCell(r, ""), r.Band, r.Reference)
		}
	case "text-notes":
		buf.WriteString("# synthetic photometry\n")
		fmt.Fprintf(&buf, "%-14s%-12s%-8s%-7s%-7s%-17s%s\n", "JD", "Date", "Mag", "Err", "Band", "Reference", "Notes")
		for _, r := range recs {
			note := "visual"
			if r.IsLimit {
				note = "limit"
			}
			fmt.Fprintf(&buf, "%-14s%-12s%-8s%-7s%-7s%-17s%s\n",
				fmt.Sprintf("%.2f", r.Time), gregorian(r.Time), magCell(r), errCell(r, "null"), r.Band, r.Reference, note)
		}
	default:
		buf.WriteString("Julian Date,Gregorian Day,Magnitude,Band,Ref,Magerr\n")
		for _, r := range recs {
			fmt.Fprintf(&buf, "%.2f,%s,%s,%s,%s,%s\n", r.Time, gregorian(r.Time), magCell(r), r.Band, r.Reference, errCell(r, ""))
		}
	}
	return buf.Bytes(), nil
}

func magCell(r domain.PhotometryRecord) string {
	if r.IsLimit {
		return fmt.Sprintf(">%.2f", r.Mag)
	}
	return fmt.Sprintf("%.2f", r.Mag)
}

func errCell(r domain.PhotometryRecord, missing string) string {
	if !r.HasMagErr() {
		return missing
	}
	return fmt.Sprintf("%.3f", r.MagErr)
}

// gregorian renders a Julian date as YYYY-MM-DD (Fliegel & Van Flandern).
func gregorian(jd float64) string {
	l := int(jd+0.5) + 68569
	n := 4 * l / 146097
	l -= (146097*n + 3) / 4
	i := 4000 * (l + 1) / 1461001
	l = l - 1461*i/4 + 31
	j := 80 * l / 2447
	day := l - 2447*j/80
	l = j / 11
	month := j + 2 - 12*l
	year := 100*(n-49) + i + l
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}
