// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/conn/v3/spi/spitest"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if diff := cmp.Diff(cfg, DefaultConfig()); diff != "" {
		t.Errorf("Load() difference (-got +want):\n%s", diff)
	}

	fi, err := os.Stat(path)
	if err != nil {
		t.Fatalf("default config was not written: %v", err)
	}
	if got := fi.Mode().Perm(); got != 0o600 {
		t.Errorf("permissions = %o, want 600", got)
	}

	again, err := Load(path)
	if err != nil {
		t.Fatalf("Load() of the written file failed: %v", err)
	}
	if diff := cmp.Diff(again, cfg); diff != "" {
		t.Errorf("reloaded config difference (-got +want):\n%s", diff)
	}
}

func TestLoad(t *testing.T) {
	for _, tc := range []struct {
		name    string
		yaml    string
		want    func(c *Config)
		wantErr string
	}{
		{
			name: "partial",
			yaml: "panel:\n  dc: GPIO5\n  busy_timeout: 2s\nfull_refresh_every: 3\n",
			want: func(c *Config) {
				c.Panel.DC = "GPIO5"
				c.Panel.SCK = ""
				c.Panel.MOSI = ""
				c.Panel.BusyTimeout = 2 * time.Second
				c.FullRefreshEvery = 3
			},
		},
		{
			name: "negative refresh disables it",
			yaml: "full_refresh_every: -1\n",
			want: func(c *Config) {
				c.Panel.SCK = ""
				c.Panel.MOSI = ""
				c.FullRefreshEvery = 0
			},
		},
		{
			name:    "bad frequency",
			yaml:    "panel:\n  frequency: fast\n",
			wantErr: "invalid frequency",
		},
		{
			name:    "bad yaml",
			yaml:    "panel: [\n",
			wantErr: "config:",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tc.yaml), 0o600); err != nil {
				t.Fatal(err)
			}

			got, err := Load(path)
			if tc.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
					t.Fatalf("Load() error = %v, want %q", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() failed: %v", err)
			}

			want := DefaultConfig()
			tc.want(want)
			if diff := cmp.Diff(got, want); diff != "" {
				t.Errorf("Load() difference (-got +want):\n%s", diff)
			}
		})
	}
}

func TestLoadEmptyPath(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Errorf("Load(\"\") succeeded")
	}
}

func TestFreq(t *testing.T) {
	for _, tc := range []struct {
		in      string
		want    physic.Frequency
		wantErr bool
	}{
		{in: "20MHz", want: 20 * physic.MegaHertz},
		{in: "500kHz", want: 500 * physic.KiloHertz},
		{in: "0Hz", wantErr: true},
		{in: "", wantErr: true},
		{in: "20MB", wantErr: true},
	} {
		t.Run(tc.in, func(t *testing.T) {
			b := Binding{Frequency: tc.in}
			got, err := b.Freq()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Freq() error = %v, wantErr %v", err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("Freq() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestOpen(t *testing.T) {
	pins := map[string]*gpiotest.Pin{}
	for i, name := range []string{"CFGTEST_DC", "CFGTEST_CS", "CFGTEST_RST", "CFGTEST_BUSY"} {
		pins[name] = &gpiotest.Pin{N: name, Num: 1000 + i}
		if err := gpioreg.Register(pins[name]); err != nil {
			t.Fatal(err)
		}
	}
	opener := func() (spi.PortCloser, error) {
		return spitest.NewRecordRaw(io.Discard), nil
	}
	if err := spireg.Register("CFGTEST_SPI", nil, -1, opener); err != nil {
		t.Fatal(err)
	}

	b := Binding{
		SPIPort: "CFGTEST_SPI",
		DC:      "CFGTEST_DC",
		CS:      "CFGTEST_CS",
		RST:     "CFGTEST_RST",
		Busy:    "CFGTEST_BUSY",
	}

	p, err := b.Open()
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer p.Port.Close()

	if p.DC != pins["CFGTEST_DC"] || p.CS != pins["CFGTEST_CS"] || p.RST != pins["CFGTEST_RST"] || p.Busy != pins["CFGTEST_BUSY"] {
		t.Errorf("Open() resolved the wrong pins: %+v", p)
	}

	b.Busy = "CFGTEST_MISSING"
	if _, err := b.Open(); err == nil || !strings.Contains(err.Error(), "CFGTEST_MISSING") {
		t.Errorf("Open() with unknown pin error = %v", err)
	}

	b.Busy = "CFGTEST_BUSY"
	b.SPIPort = "CFGTEST_NOSPI"
	if _, err := b.Open(); err == nil {
		t.Errorf("Open() with unknown port succeeded")
	}
}
