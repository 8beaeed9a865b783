// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package log

import (
	"bytes"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func capture(t *testing.T, level Level) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(level)
	now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(LevelInfo)
		now = time.Now
	})
	return &buf
}

func TestLevels(t *testing.T) {
	for _, tc := range []struct {
		name  string
		level Level
		want  string
	}{
		{
			name:  "debug",
			level: LevelDebug,
			want: "2026-01-02T03:04:05Z [DEBUG] d\n" +
				"2026-01-02T03:04:05Z [INFO] i\n" +
				"2026-01-02T03:04:05Z [ERROR] e err=boom\n",
		},
		{
			name:  "info",
			level: LevelInfo,
			want: "2026-01-02T03:04:05Z [INFO] i\n" +
				"2026-01-02T03:04:05Z [ERROR] e err=boom\n",
		},
		{
			name:  "error",
			level: LevelError,
			want:  "2026-01-02T03:04:05Z [ERROR] e err=boom\n",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			buf := capture(t, tc.level)

			Debug("d")
			Info("i")
			Error("e", errors.New("boom"))

			if diff := cmp.Diff(buf.String(), tc.want); diff != "" {
				t.Errorf("output difference (-got +want):\n%s", diff)
			}
		})
	}
}

func TestFormatKVs(t *testing.T) {
	for _, tc := range []struct {
		name string
		kv   []any
		want string
	}{
		{name: "empty"},
		{name: "pairs", kv: []any{"page", 2, "mode", "partial"}, want: " page=2 mode=partial"},
		{name: "odd", kv: []any{"page", 2, "dangling"}, want: " page=2"},
		{name: "non string key", kv: []any{3, "x", "ok", true}, want: " ok=true"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := formatKVs(tc.kv...); got != tc.want {
				t.Errorf("formatKVs() = %q, want %q", got, tc.want)
			}
		})
	}
}
