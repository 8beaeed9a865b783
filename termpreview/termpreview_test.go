// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package termpreview

import (
	"bytes"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/maruel/ansi256"
)

func expected(rows ...string) string {
	white := ansi256.Default.Block(color.NRGBA{255, 255, 255, 255})
	black := ansi256.Default.Block(color.NRGBA{0, 0, 0, 255})

	var b strings.Builder
	b.WriteString("\033[0m")
	for _, row := range rows {
		for _, c := range row {
			if c == '#' {
				b.WriteString(black)
			} else {
				b.WriteString(white)
			}
		}
		b.WriteString("\033[0m\n")
	}
	return b.String()
}

func TestDraw(t *testing.T) {
	for _, tc := range []struct {
		name  string
		opts  Opts
		rect  image.Rectangle
		color color.Color
		want  string
	}{
		{
			name:  "single pixel",
			opts:  Opts{Width: 3, Height: 2},
			rect:  image.Rect(1, 1, 2, 2),
			color: color.Black,
			want:  expected("...", ".#."),
		},
		{
			name:  "scaled",
			opts:  Opts{Width: 4, Height: 4, Scale: 2},
			rect:  image.Rect(3, 0, 4, 1),
			color: color.Black,
			want:  expected(".#", ".."),
		},
		{
			name:  "scaled, odd size",
			opts:  Opts{Width: 3, Height: 3, Scale: 2},
			rect:  image.Rect(2, 2, 3, 3),
			color: color.Black,
			want:  expected("..", ".#"),
		},
		{
			name:  "white",
			opts:  Opts{Width: 2, Height: 1},
			rect:  image.Rect(0, 0, 2, 1),
			color: color.White,
			want:  expected(".."),
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			d := NewWriter(&buf, &tc.opts)

			if err := d.Draw(tc.rect, &image.Uniform{C: tc.color}, image.Point{}); err != nil {
				t.Fatalf("Draw() failed: %v", err)
			}

			if diff := cmp.Diff(buf.String(), tc.want); diff != "" {
				t.Errorf("Draw() output difference (-got +want):\n%s", diff)
			}
		})
	}
}

func TestDev(t *testing.T) {
	var buf bytes.Buffer
	d := NewWriter(&buf, &Opts{Width: 200, Height: 100})

	if got, want := d.String(), "TermPreview{200x100}"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if diff := cmp.Diff(d.Bounds(), image.Rect(0, 0, 200, 100)); diff != "" {
		t.Errorf("Bounds() difference (-got +want):\n%s", diff)
	}
	if err := d.Halt(); err != nil {
		t.Fatalf("Halt() failed: %v", err)
	}
	if got, want := buf.String(), "\033[0m\n"; got != want {
		t.Errorf("Halt() wrote %q, want %q", got, want)
	}
}
