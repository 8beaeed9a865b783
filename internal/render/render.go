// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package render lays out plain text into pages sized for a small
// monochrome panel.
package render

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
)

// Margin is the blank border around the text, in pixels.
const Margin = 6

// Page is one screen of text.
type Page struct {
	Lines []string
	// Number is 1-based.
	Number int
	Total  int
}

// Renderer rasterizes pages of a fixed size.
type Renderer struct {
	width, height int
	body          font.Face
	footer        font.Face
	lineHeight    float64
	// measure is only used for text measurement.
	measure *gg.Context
}

// New returns a Renderer for a width x height panel using the Go regular
// font at size points.
func New(width, height int, size float64) (*Renderer, error) {
	if width <= 2*Margin || height <= 2*Margin {
		return nil, fmt.Errorf("render: invalid size %dx%d", width, height)
	}
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	r := &Renderer{
		width:  width,
		height: height,
		body:   truetype.NewFace(f, &truetype.Options{Size: size, Hinting: font.HintingFull}),
		footer: basicfont.Face7x13,
	}
	r.measure = gg.NewContext(1, 1)
	r.measure.SetFontFace(r.body)
	r.lineHeight = math.Ceil(r.measure.FontHeight() * 1.2)
	return r, nil
}

// LinesPerPage is the number of body lines that fit above the footer.
func (r *Renderer) LinesPerPage() int {
	avail := float64(r.height-2*Margin) - float64(r.footer.Metrics().Height.Ceil())
	n := int(avail / r.lineHeight)
	if n < 1 {
		n = 1
	}
	return n
}

// Wrap splits text into lines no wider than the text area. Blank lines are
// kept as paragraph breaks.
func (r *Renderer) Wrap(text string) []string {
	width := float64(r.width - 2*Margin)
	var out []string
	for _, para := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(para) == "" {
			out = append(out, "")
			continue
		}
		out = append(out, r.measure.WordWrap(para, width)...)
	}
	return out
}

// Paginate wraps text and splits it into pages. It always returns at least
// one page.
func (r *Renderer) Paginate(text string) []Page {
	lines := r.Wrap(text)
	per := r.LinesPerPage()
	var pages []Page
	for len(lines) > 0 {
		n := per
		if n > len(lines) {
			n = len(lines)
		}
		pages = append(pages, Page{Lines: lines[:n]})
		lines = lines[n:]
	}
	if len(pages) == 0 {
		pages = []Page{{}}
	}
	for i := range pages {
		pages[i].Number = i + 1
		pages[i].Total = len(pages)
	}
	return pages
}

// Render draws p black on white. The footer shows "number/total".
func (r *Renderer) Render(p Page) image.Image {
	dc := gg.NewContext(r.width, r.height)
	dc.SetColor(color.White)
	dc.Clear()
	dc.SetColor(color.Black)

	dc.SetFontFace(r.body)
	ascent := float64(r.body.Metrics().Ascent.Ceil())
	for i, line := range p.Lines {
		dc.DrawString(line, Margin, Margin+ascent+float64(i)*r.lineHeight)
	}

	dc.SetFontFace(r.footer)
	status := fmt.Sprintf("%d/%d", p.Number, p.Total)
	dc.DrawStringAnchored(status, float64(r.width)/2, float64(r.height-Margin), 0.5, 0)
	return dc.Image()
}
