package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/deepteams/snapshot"
	"github.com/deepteams/snapshot/diff"
)

// maxListedRegions bounds the regions printed by the text report.
const maxListedRegions = 10

func (a *app) runCompare(ctx context.Context, args []string) error {
	def := diff.DefaultOptions()
	fs := newFlagSet("compare", a)
	threshold := fs.Float64("threshold", def.Threshold, "color difference threshold 0-1")
	alpha := fs.Float64("alpha", def.Alpha, "alpha difference threshold 0-1 (pixel algorithm)")
	aa := fs.Bool("aa", false, "ignore anti-aliased pixels")
	algo := fs.String("algo", def.Algorithm.String(), "pixel or perceptual")
	diffPath := fs.String("diff", "", "write the diff image to this PNG file")
	asJSON := fs.Bool("json", false, "print the result as JSON")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return fmt.Errorf("compare: missing input\nUsage: gsnap compare [options] <a.png> <b.png>")
	}

	alg, err := diff.ParseAlgorithm(*algo)
	if err != nil {
		return fmt.Errorf("compare: %w", err)
	}
	opts := def
	opts.Threshold, opts.Alpha, opts.IncludeAA, opts.Algorithm = *threshold, *alpha, *aa, alg

	pa, err := a.readInput(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("compare: %w", err)
	}
	pb, err := a.readInput(fs.Arg(1))
	if err != nil {
		return fmt.Errorf("compare: %w", err)
	}

	res, err := snapshot.Compare(ctx, pa, pb, opts)
	if err != nil {
		return err
	}
	if *diffPath != "" && res.DiffImage != nil {
		if err := a.writeOutput(*diffPath, res.DiffImage); err != nil {
			return fmt.Errorf("compare: %w", err)
		}
	}

	if *asJSON {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	} else {
		a.printReport(res, *diffPath)
	}
	if !res.Match {
		return errMismatch
	}
	return nil
}

// printReport writes a styled summary of res to stdout. Styles degrade to
// plain text when stdout is not a terminal.
func (a *app) printReport(res *diff.Result, diffPath string) {
	r := lipgloss.NewRenderer(a.stdout)
	label := r.NewStyle().Width(12).Foreground(lipgloss.Color("#666666"))
	status := r.NewStyle().Bold(true).Padding(0, 1).Foreground(lipgloss.Color("#FAFAFA"))

	var b strings.Builder
	if res.Match {
		b.WriteString(status.Background(lipgloss.Color("#2E8B57")).Render("MATCH"))
	} else {
		b.WriteString(status.Background(lipgloss.Color("#C0392B")).Render("MISMATCH"))
	}
	b.WriteString("\n")

	line := func(name, format string, args ...any) {
		b.WriteString(label.Render(name))
		fmt.Fprintf(&b, format+"\n", args...)
	}
	line("Size:", "%d x %d", res.Width, res.Height)
	line("Pixels:", "%d / %d (%.2f%%)", res.DiffPixels, res.TotalPixels, res.DiffPercentage)
	line("Verdict:", "%s", res.Verdict)
	if res.DiffPixels > 0 && res.DiffImage != nil {
		line("Mean ΔE:", "%.2f", res.MeanDeltaE)
	}
	if res.DiffImage != nil {
		line("SSIM:", "%.4f  PSNR %.2f dB", res.SSIM, res.PSNR)
	}
	if len(res.Regions) > 0 {
		line("Regions:", "%d", len(res.Regions))
		for i, reg := range res.Regions {
			if i == maxListedRegions {
				fmt.Fprintf(&b, "  … %d more\n", len(res.Regions)-i)
				break
			}
			fmt.Fprintf(&b, "  #%d at %d,%d  %dx%d  %d px\n", i+1, reg.X, reg.Y, reg.Width, reg.Height, reg.Pixels)
		}
	}
	if diffPath != "" && res.DiffImage != nil {
		line("Diff image:", "%s", diffPath)
	}
	fmt.Fprint(a.stdout, b.String())
}
