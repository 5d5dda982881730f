// Command plotlc overlays the light curves of every supernova in one filter,
// each shifted so its brightest point sits at day zero, and saves the figure
// as a PDF.
//
// Usage:
//
//	go run ./cmd/plotlc --filter standard::b
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/virgo-snana-etl/internal/domain"
	"github.com/couchcryptid/virgo-snana-etl/internal/snana"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// maxMagErr is the largest uncertainty drawn; larger values are placeholders.
const maxMagErr = 90

type options struct {
	filter  string
	baseDir string
	dataDir string
	maxDays float64
}

func main() {
	if err := newRootCmd(afero.NewOsFs()).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(fsys afero.Fs) *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "plotlc",
		Short: "Plot aligned supernova light curves in one filter",
		Long: `Plot every SNANA light curve under the data directory in one filter,
aligned on each supernova's brightest point, to plots/all_sne_<filter>.pdf.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := plotAll(fsys, cmd.OutOrStdout(), opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved figure to %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.filter, "filter", "", "canonical filter name, e.g. standard::b")
	cmd.Flags().StringVar(&opts.baseDir, "base-dir", ".", "directory holding the data directory and plots/")
	cmd.Flags().StringVar(&opts.dataDir, "data-dir", "snana_virgo_data", "SNANA tree, relative to --base-dir")
	cmd.Flags().Float64Var(&opts.maxDays, "max-days", 200, "drop points later than this many days after the first")
	_ = cmd.MarkFlagRequired("filter")

	return cmd
}

// curve is one supernova's points in the target filter, aligned on its
// brightest point.
type curve struct {
	name    string
	days    []float64
	mags    []float64
	magErrs []float64 // 0 where the uncertainty is absent
	hasErrs bool
}

// alignCurve selects the detections of lc in filter (limits are skipped), drops points more than
// maxDays after the first one and shifts time so the brightest point is day
// zero. It returns the number of late points dropped.
func alignCurve(lc snana.LightCurve, filter string, maxDays float64) (curve, int) {
	c := curve{name: lc.SNID}
	var times []float64
	for _, o := range lc.Obs {
		if o.Band != filter || o.Mag == domain.Missing || o.Limit {
			continue
		}
		times = append(times, o.Time)
		c.mags = append(c.mags, o.Mag)
		e := 0.0
		if o.MagErr >= 0 && o.MagErr <= maxMagErr {
			e = o.MagErr
			c.hasErrs = true
		}
		c.magErrs = append(c.magErrs, e)
	}
	if len(times) == 0 {
		return c, 0
	}

	first := floats.Min(times)
	skipped := 0
	keep := 0
	for i, t := range times {
		if t-first > maxDays {
			skipped++
			continue
		}
		times[keep], c.mags[keep], c.magErrs[keep] = t, c.mags[i], c.magErrs[i]
		keep++
	}
	times, c.mags, c.magErrs = times[:keep], c.mags[:keep], c.magErrs[:keep]
	if keep == 0 {
		return c, skipped
	}

	t0 := times[floats.MinIdx(c.mags)]
	c.days = make([]float64, keep)
	copy(c.days, times)
	floats.AddConst(-t0, c.days)
	return c, skipped
}

func plotAll(fsys afero.Fs, log io.Writer, opts options) (string, error) {
	pattern := filepath.Join(opts.baseDir, opts.dataDir, "SN*", "Photometry", "*.snana.dat")
	paths, err := afero.Glob(fsys, pattern)
	if err != nil {
		return "", fmt.Errorf("list light curves: %w", err)
	}

	p := plot.New()
	p.X.Label.Text = "Days since brightest point"
	p.Y.Label.Text = opts.filter + " magnitude"
	p.Y.Scale = plot.InvertedScale{Normalizer: plot.LinearScale{}}
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	for i, path := range paths {
		lc, err := readLightCurve(fsys, path)
		if err != nil {
			return "", err
		}
		c, skipped := alignCurve(lc, opts.filter, opts.maxDays)
		if skipped > 0 {
			fmt.Fprintf(log, "Skipping %d late-time points (> %g days) for %s\n", skipped, opts.maxDays, c.name)
		}
		if len(c.days) == 0 {
			if skipped > 0 {
				fmt.Fprintf(log, "No usable points to plot for %s\n", c.name)
			}
			continue
		}
		if err := addCurve(p, i, c); err != nil {
			return "", fmt.Errorf("%s: %w", c.name, err)
		}
	}

	outDir := filepath.Join(opts.baseDir, "plots")
	if err := fsys.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}
	out := filepath.Join(outDir, "all_sne_"+strings.ReplaceAll(opts.filter, ":", "")+".pdf")

	wt, err := p.WriterTo(12*vg.Inch, 6*vg.Inch, "pdf")
	if err != nil {
		return "", fmt.Errorf("render plot: %w", err)
	}
	f, err := fsys.Create(out)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := wt.WriteTo(f); err != nil {
		return "", fmt.Errorf("write %s: %w", out, err)
	}
	return out, f.Close()
}

func readLightCurve(fsys afero.Fs, path string) (snana.LightCurve, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return snana.LightCurve{}, err
	}
	defer f.Close()
	lc, err := snana.Read(f)
	if err != nil {
		return lc, fmt.Errorf("%s: %w", path, err)
	}
	return lc, nil
}

// errorPoints pairs points with symmetric magnitude errors for YErrorBars.
type errorPoints struct {
	plotter.XYs
	plotter.YErrors
}

func addCurve(p *plot.Plot, i int, c curve) error {
	pts := make(plotter.XYs, len(c.days))
	for j := range c.days {
		pts[j].X = c.days[j]
		pts[j].Y = c.mags[j]
	}

	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}
	sc.GlyphStyle.Color = plotutil.Color(i)
	sc.GlyphStyle.Shape = plotutil.Shape(i / len(plotutil.DefaultColors))
	sc.GlyphStyle.Radius = vg.Points(2)
	p.Add(sc)
	p.Legend.Add(c.name, sc)

	if !c.hasErrs {
		return nil
	}
	errs := make(plotter.YErrors, len(c.magErrs))
	for j, e := range c.magErrs {
		errs[j].Low, errs[j].High = e, e
	}
	bars, err := plotter.NewYErrorBars(errorPoints{XYs: pts, YErrors: errs})
	if err != nil {
		return err
	}
	bars.LineStyle.Color = plotutil.Color(i)
	bars.LineStyle.Width = vg.Points(0.5)
	bars.CapWidth = vg.Points(2)
	p.Add(bars)
	return nil
}
