// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package render

import (
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New(200, 200, 18)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return r
}

func TestNewInvalidSize(t *testing.T) {
	for _, sz := range []image.Point{{0, 200}, {200, 0}, {12, 12}} {
		if _, err := New(sz.X, sz.Y, 18); err == nil {
			t.Errorf("New(%d, %d) succeeded", sz.X, sz.Y)
		}
	}
}

func TestWrap(t *testing.T) {
	r := newRenderer(t)
	text := strings.Repeat("the quick brown fox jumps over the lazy dog ", 10) + "\n\nend"

	lines := r.Wrap(text)

	if len(lines) < 4 {
		t.Fatalf("Wrap() returned %d lines, want several", len(lines))
	}
	for _, l := range lines {
		if w, _ := r.measure.MeasureString(l); w > float64(200-2*Margin) {
			t.Errorf("line %q is %.0f pixels wide", l, w)
		}
	}
	if diff := cmp.Diff(lines[len(lines)-2:], []string{"", "end"}); diff != "" {
		t.Errorf("paragraph break difference (-got +want):\n%s", diff)
	}
}

func TestPaginate(t *testing.T) {
	r := newRenderer(t)
	per := r.LinesPerPage()

	for _, tc := range []struct {
		name      string
		lines     int
		wantPages int
	}{
		{name: "empty", lines: 0, wantPages: 1},
		{name: "one line", lines: 1, wantPages: 1},
		{name: "exactly full", lines: per, wantPages: 1},
		{name: "overflow", lines: per + 1, wantPages: 2},
		{name: "three pages", lines: 3 * per, wantPages: 3},
	} {
		t.Run(tc.name, func(t *testing.T) {
			text := strings.TrimSuffix(strings.Repeat("word\n", tc.lines), "\n")

			pages := r.Paginate(text)

			if len(pages) != tc.wantPages {
				t.Fatalf("Paginate() returned %d pages, want %d", len(pages), tc.wantPages)
			}
			total := 0
			for i, p := range pages {
				if p.Number != i+1 || p.Total != tc.wantPages {
					t.Errorf("page %d numbered %d/%d", i, p.Number, p.Total)
				}
				if len(p.Lines) > per {
					t.Errorf("page %d has %d lines, max %d", i, len(p.Lines), per)
				}
				total += len(p.Lines)
			}
			if tc.lines > 0 && total != tc.lines {
				t.Errorf("Paginate() kept %d lines, want %d", total, tc.lines)
			}
		})
	}
}

func isDark(c color.Color) bool {
	y := color.GrayModel.Convert(c).(color.Gray).Y
	return y < 0x80
}

func countDark(img image.Image, r image.Rectangle) int {
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if isDark(img.At(x, y)) {
				n++
			}
		}
	}
	return n
}

func TestRender(t *testing.T) {
	r := newRenderer(t)

	blank := r.Render(Page{Number: 1, Total: 1})
	if diff := cmp.Diff(blank.Bounds(), image.Rect(0, 0, 200, 200)); diff != "" {
		t.Errorf("Bounds() difference (-got +want):\n%s", diff)
	}
	body := image.Rect(0, 0, 200, 150)
	if n := countDark(blank, body); n != 0 {
		t.Errorf("blank page has %d dark pixels in the body", n)
	}
	footer := image.Rect(0, 150, 200, 200)
	if n := countDark(blank, footer); n == 0 {
		t.Errorf("footer was not drawn")
	}

	text := r.Render(Page{Lines: []string{"Hello", "e-paper"}, Number: 1, Total: 1})
	if n := countDark(text, body); n == 0 {
		t.Errorf("body text was not drawn")
	}
	if n := countDark(text, image.Rect(0, 0, Margin, 200)); n != 0 {
		t.Errorf("%d dark pixels in the left margin", n)
	}
}
