// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package waveshare1in54v2

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"

	"periph.io/x/devices/v3/ssd1306/image1bit"
)

const (
	// White is the color of a set bit in the framebuffer.
	White = image1bit.On
	// Black is the color of a cleared bit in the framebuffer.
	Black = image1bit.Off

	// whiteByte is eight white pixels.
	whiteByte byte = 0xFF
)

// ErrOutOfBounds is returned when a pixel coordinate is outside the panel.
var ErrOutOfBounds = errors.New("waveshare1in54v2: pixel out of bounds")

// Framebuffer is a packed 1 bit per pixel image laid out the way the
// controller RAM expects it: rows of stride bytes, the most significant bit
// of each byte being the leftmost pixel.
//
// Framebuffer implements draw.Image so that it can be the destination of
// image/draw operations and font rendering.
type Framebuffer struct {
	width  int
	height int
	stride int
	buf    []byte
}

// NewFramebuffer returns a white framebuffer for a panel of the given size.
func NewFramebuffer(width, height int) *Framebuffer {
	stride := (width + 7) / 8
	f := &Framebuffer{
		width:  width,
		height: height,
		stride: stride,
		buf:    make([]byte, stride*height),
	}
	f.Clear()
	return f
}

// Stride returns the number of bytes per row.
func (f *Framebuffer) Stride() int {
	return f.stride
}

// Len returns the size of the framebuffer in bytes.
func (f *Framebuffer) Len() int {
	return len(f.buf)
}

// Bytes returns a copy of the packed framebuffer content.
func (f *Framebuffer) Bytes() []byte {
	return bytes.Clone(f.buf)
}

// Clear sets all pixels to white.
func (f *Framebuffer) Clear() {
	f.Fill(White)
}

// Fill sets all pixels to c.
func (f *Framebuffer) Fill(c image1bit.Bit) {
	var v byte
	if c == White {
		v = whiteByte
	}
	for i := range f.buf {
		f.buf[i] = v
	}
}

func (f *Framebuffer) inside(x, y int) bool {
	return x >= 0 && y >= 0 && x < f.width && y < f.height
}

// offset returns the byte index and the bit mask of a pixel.
func (f *Framebuffer) offset(x, y int) (int, byte) {
	return y*f.stride + x>>3, 1 << (7 - uint(x&7))
}

// SetPixel sets the pixel at (x, y). Coordinates outside the panel are
// rejected with ErrOutOfBounds and leave the buffer untouched.
func (f *Framebuffer) SetPixel(x, y int, c image1bit.Bit) error {
	if !f.inside(x, y) {
		return fmt.Errorf("%w: (%d,%d) not in %dx%d", ErrOutOfBounds, x, y, f.width, f.height)
	}
	i, mask := f.offset(x, y)
	if c == White {
		f.buf[i] |= mask
	} else {
		f.buf[i] &^= mask
	}
	return nil
}

// Pixel returns the pixel at (x, y).
func (f *Framebuffer) Pixel(x, y int) (image1bit.Bit, error) {
	if !f.inside(x, y) {
		return Black, fmt.Errorf("%w: (%d,%d) not in %dx%d", ErrOutOfBounds, x, y, f.width, f.height)
	}
	i, mask := f.offset(x, y)
	return image1bit.Bit(f.buf[i]&mask != 0), nil
}

// ColorModel implements image.Image.
func (f *Framebuffer) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds implements image.Image.
func (f *Framebuffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.width, f.height)
}

// At implements image.Image.
func (f *Framebuffer) At(x, y int) color.Color {
	c, _ := f.Pixel(x, y)
	return c
}

// Set implements draw.Image. Pixels outside the bounds are ignored.
func (f *Framebuffer) Set(x, y int, c color.Color) {
	_ = f.SetPixel(x, y, image1bit.BitModel.Convert(c).(image1bit.Bit))
}
