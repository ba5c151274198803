package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/deepteams/snapshot"
)

func (a *app) runRender(ctx context.Context, args []string) error {
	def := snapshot.DefaultRenderOptions()
	fs := newFlagSet("render", a)
	width := fs.Int("w", def.Width, "viewport width in CSS pixels")
	height := fs.Int("h", def.Height, "viewport height in CSS pixels")
	scale := fs.Float64("scale", def.DeviceScaleFactor, "device scale factor")
	bg := fs.String("bg", def.BackgroundColor, "page background, any CSS color")
	transparent := fs.Bool("transparent", false, "transparent page background")
	format := fs.String("format", "", "png or webp (default: from -o, else png)")
	quality := fs.Int("q", def.Quality, "WebP quality 0-100")
	cssPath := fs.String("css", "", "extra stylesheet file")
	clip := fs.String("clip", "", "clip rectangle x,y,w,h in CSS pixels")
	timeout := fs.Duration("timeout", 30*time.Second, "overall time limit")
	output := fs.String("o", "", `output path (default: <input>.<format>, "-" for stdout)`)

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("render: missing input\nUsage: gsnap render [options] <input.html|url|->")
	}
	input := fs.Arg(0)

	opts := def
	opts.Width, opts.Height = *width, *height
	opts.DeviceScaleFactor = *scale
	opts.BackgroundColor = *bg
	opts.Transparent = *transparent
	opts.Quality = *quality

	switch {
	case *format != "":
		f, err := snapshot.ParseFormat(*format)
		if err != nil {
			return fmt.Errorf("render: %w", err)
		}
		opts.Format = f
	case *output != "" && *output != "-":
		opts.Format = snapshot.FormatForPath(*output)
	}
	if *clip != "" {
		r, err := parseClip(*clip)
		if err != nil {
			return fmt.Errorf("render: %w", err)
		}
		opts.Clip = &r
	}
	if *cssPath != "" {
		sheet, err := a.readInput(*cssPath)
		if err != nil {
			return fmt.Errorf("render: %w", err)
		}
		opts.CSS = string(sheet)
	}

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	var html string
	if isURL(input) {
		doc, err := snapshot.Fetch(ctx, input)
		if err != nil {
			return err
		}
		html = doc
	} else {
		doc, err := a.readInput(input)
		if err != nil {
			return fmt.Errorf("render: %w", err)
		}
		html = string(doc)
	}

	data, err := snapshot.Render(ctx, html, opts)
	if err != nil {
		return err
	}

	out := *output
	if out == "" {
		out = defaultOutput(input, opts.Format)
	}
	if err := a.writeOutput(out, data); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if out != "-" {
		fmt.Fprintf(a.stderr, "wrote %s (%d bytes)\n", out, len(data))
	}
	return nil
}

// defaultOutput names the output after the input: page.html → page.png.
// Stdin and URLs go to stdout and out.<format>.
func defaultOutput(input string, f snapshot.Format) string {
	switch {
	case input == "-":
		return "-"
	case isURL(input):
		return "out." + f.String()
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + "." + f.String()
}

// parseClip parses "x,y,w,h".
func parseClip(s string) (snapshot.Rect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return snapshot.Rect{}, fmt.Errorf("clip %q: want x,y,w,h", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return snapshot.Rect{}, fmt.Errorf("clip %q: %w", s, err)
		}
		v[i] = n
	}
	return snapshot.Rect{X: v[0], Y: v[1], Width: v[2], Height: v[3]}, nil
}
