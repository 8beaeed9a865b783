// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package termpreview implements a black and white display.Drawer that
// outputs to the terminal using ANSI color codes.
//
// Useful to check page layouts without an e-paper panel attached.
package termpreview

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3/display"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// Opts represents the options available for this display.
type Opts struct {
	Width  int
	Height int
	// Scale is the number of panel pixels per terminal cell in each direction.
	// Defaults to 1.
	Scale   int
	Palette *ansi256.Palette

	_ struct{}
}

// Dev is an e-paper emulator that outputs to the console.
type Dev struct {
	w       io.Writer
	scale   int
	palette ansi256.Palette

	img *image1bit.VerticalLSB
	buf bytes.Buffer
}

// New returns a Dev that displays at the console.
func New(opts *Opts) *Dev {
	return NewWriter(colorable.NewColorableStdout(), opts)
}

// NewWriter returns a Dev that writes frames to w.
func NewWriter(w io.Writer, opts *Opts) *Dev {
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	scale := opts.Scale
	if scale < 1 {
		scale = 1
	}
	d := &Dev{
		w:       w,
		scale:   scale,
		palette: *p,
		img:     image1bit.NewVerticalLSB(image.Rect(0, 0, opts.Width, opts.Height)),
	}
	draw.Draw(d.img, d.img.Bounds(), &image.Uniform{image1bit.On}, image.Point{}, draw.Src)
	return d
}

func (d *Dev) String() string {
	return fmt.Sprintf("TermPreview{%dx%d}", d.img.Bounds().Dx(), d.img.Bounds().Dy())
}

// Halt implements conn.Resource.
//
// It resets the terminal colors.
func (d *Dev) Halt() error {
	_, err := d.w.Write([]byte("\033[0m\n"))
	return err
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds implements display.Drawer.
func (d *Dev) Bounds() image.Rectangle {
	return d.img.Bounds()
}

// Draw implements display.Drawer.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	draw.Draw(d.img, r, src, sp, draw.Src)
	return d.refresh()
}

// cell returns the color of the terminal cell at (cx, cy). A cell is white
// only when all the pixels it covers are white.
func (d *Dev) cell(cx, cy int) color.NRGBA {
	b := d.img.Bounds()
	for y := cy * d.scale; y < (cy+1)*d.scale && y < b.Max.Y; y++ {
		for x := cx * d.scale; x < (cx+1)*d.scale && x < b.Max.X; x++ {
			if !d.img.BitAt(x, y) {
				return color.NRGBA{0, 0, 0, 255}
			}
		}
	}
	return color.NRGBA{255, 255, 255, 255}
}

func (d *Dev) refresh() error {
	d.buf.Reset()
	b := d.img.Bounds()
	cols := (b.Dx() + d.scale - 1) / d.scale
	rows := (b.Dy() + d.scale - 1) / d.scale
	_, _ = d.buf.WriteString("\033[0m")
	for cy := 0; cy < rows; cy++ {
		for cx := 0; cx < cols; cx++ {
			_, _ = io.WriteString(&d.buf, d.palette.Block(d.cell(cx, cy)))
		}
		_, _ = d.buf.WriteString("\033[0m\n")
	}
	_, err := d.buf.WriteTo(d.w)
	return err
}

var _ display.Drawer = &Dev{}
var _ fmt.Stringer = &Dev{}
