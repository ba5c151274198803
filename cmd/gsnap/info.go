package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/deepteams/snapshot/png"
	"github.com/deepteams/snapshot/webp"
)

func (a *app) runInfo(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("info: missing input file\nUsage: gsnap info <file|->")
	}
	input := args[0]
	data, err := a.readInput(input)
	if err != nil {
		return fmt.Errorf("info: %w", err)
	}

	name := input
	if input == "-" {
		name = "<stdin>"
	}
	fmt.Fprintf(a.stdout, "File:       %s\n", name)
	fmt.Fprintf(a.stdout, "File size:  %d bytes\n", len(data))

	switch {
	case png.IsPNG(data):
		return a.pngInfo(data)
	case webp.IsWebP(data):
		return a.webpInfo(data)
	}
	return fmt.Errorf("info: %s is neither PNG nor WebP", name)
}

func (a *app) pngInfo(data []byte) error {
	cfg, err := png.DecodeConfig(data)
	if err != nil {
		return fmt.Errorf("info: %w", err)
	}
	chunks, err := png.Chunks(data)
	if err != nil {
		return fmt.Errorf("info: %w", err)
	}
	fmt.Fprintf(a.stdout, "Format:     PNG\n")
	fmt.Fprintf(a.stdout, "Dimensions: %d x %d\n", cfg.Width, cfg.Height)
	fmt.Fprintf(a.stdout, "Color:      %s, %d bits\n", cfg.ColorType, cfg.BitDepth)
	fmt.Fprintf(a.stdout, "Interlaced: %v\n", cfg.Interlaced)

	r := lipgloss.NewRenderer(a.stdout)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.NewStyle().Foreground(lipgloss.Color("#666666"))).
		Headers("CHUNK", "LENGTH", "CRC", "CRITICAL")
	for _, c := range chunks {
		t.Row(c.Type, strconv.Itoa(c.Length()), fmt.Sprintf("%08x", c.CRC), strconv.FormatBool(c.Critical()))
	}
	fmt.Fprintln(a.stdout, t.String())
	return nil
}

func (a *app) webpInfo(data []byte) error {
	cfg, err := webp.DecodeConfig(data)
	if err != nil {
		return fmt.Errorf("info: %w", err)
	}
	fmt.Fprintf(a.stdout, "Format:     WebP (%s)\n", cfg.Format)
	fmt.Fprintf(a.stdout, "Dimensions: %d x %d\n", cfg.Width, cfg.Height)
	fmt.Fprintf(a.stdout, "Alpha:      %v\n", cfg.HasAlpha)
	fmt.Fprintf(a.stdout, "RIFF size:  %d bytes\n", cfg.FileSize)

	if _, err := webp.Decode(data); err != nil {
		fmt.Fprintf(a.stdout, "Decodable:  no (%v)\n", err)
	} else {
		fmt.Fprintf(a.stdout, "Decodable:  headers valid\n")
	}
	return nil
}
