// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package panelstream mirrors a monochrome panel over HTTP.
//
// Every request gets the current frame as a PNG and then a new frame each
// time the image changes, using a multipart/x-mixed-replace response
// ("MJPEG" style) that browsers render in place.
package panelstream

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"sync"

	"periph.io/x/conn/v3/display"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// Opts for panelstream displays.
type Opts struct {
	Width, Height int
}

// Display is a display.Drawer and an http.Handler.
type Display struct {
	mu       sync.Mutex
	buffer   *image.Gray
	clients  map[*client]struct{}
	snapshot []byte
}

type client struct {
	refresh   chan struct{}
	terminate chan struct{}
}

var _ display.Drawer = (*Display)(nil)
var _ http.Handler = (*Display)(nil)

// New returns a white display.
func New(opts *Opts) *Display {
	buffer := image.NewGray(image.Rect(0, 0, opts.Width, opts.Height))
	draw.Draw(buffer, buffer.Bounds(), image.White, image.Point{}, draw.Src)
	return &Display{
		buffer:  buffer,
		clients: map[*client]struct{}{},
	}
}

func (d *Display) String() string {
	return "PanelStream"
}

// Halt implements conn.Resource and ends all running streams.
func (d *Display) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for c := range d.clients {
		select {
		case c.terminate <- struct{}{}:
		default:
		}
	}
	return nil
}

// ColorModel implements display.Drawer.
func (d *Display) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds implements display.Drawer.
func (d *Display) Bounds() image.Rectangle {
	return d.buffer.Bounds()
}

// Draw implements display.Drawer. Pixels are thresholded to black or white
// the same way the panel does it.
func (d *Display) Draw(dstRect image.Rectangle, src image.Image, srcPts image.Point) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	dstRect = dstRect.Intersect(d.buffer.Bounds())
	for y := dstRect.Min.Y; y < dstRect.Max.Y; y++ {
		for x := dstRect.Min.X; x < dstRect.Max.X; x++ {
			c := src.At(srcPts.X+x-dstRect.Min.X, srcPts.Y+y-dstRect.Min.Y)
			v := uint8(0)
			if image1bit.BitModel.Convert(c).(image1bit.Bit) {
				v = 0xff
			}
			d.buffer.SetGray(x, y, color.Gray{Y: v})
		}
	}

	d.snapshot = nil
	for c := range d.clients {
		select {
		case c.refresh <- struct{}{}:
		default:
		}
	}
	return nil
}

// Snapshot returns a copy of the current frame encoded as PNG.
func (d *Display) Snapshot() ([]byte, error) {
	frame, err := d.frame()
	if err != nil {
		return nil, err
	}
	return bytes.Clone(frame), nil
}

// frame returns the cached PNG encoding of the buffer, shared by every
// client. Callers must not modify it.
func (d *Display) frame() ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.snapshot == nil {
		var buf bytes.Buffer
		if err := png.Encode(&buf, d.buffer); err != nil {
			return nil, err
		}
		d.snapshot = buf.Bytes()
	}
	return d.snapshot, nil
}

// ServeHTTP streams frames until the client goes away or Halt is called.
func (d *Display) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}

	mw := multipart.NewWriter(w)
	w.Header().Set("Content-Type",
		mime.FormatMediaType("multipart/x-mixed-replace", map[string]string{
			"boundary": mw.Boundary(),
		}))

	c := &client{
		refresh:   make(chan struct{}, 1),
		terminate: make(chan struct{}, 1),
	}
	d.mu.Lock()
	d.clients[c] = struct{}{}
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		delete(d.clients, c)
		d.mu.Unlock()
	}()

	for {
		frame, err := d.frame()
		if err != nil {
			return
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Type", "image/png")
		h.Set("Content-Length", strconv.Itoa(len(frame)))
		part, err := mw.CreatePart(h)
		if err != nil {
			return
		}
		if _, err := part.Write(frame); err != nil {
			return
		}
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}

		select {
		case <-c.refresh:
		case <-c.terminate:
			_ = mw.Close()
			return
		case <-r.Context().Done():
			return
		}
	}
}
