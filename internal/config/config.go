// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package config loads the YAML configuration of the e-paper commands: how
// the panel is wired and how pages are refreshed.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
)

// Binding describes how the panel is attached to the host.
//
// Pin names are resolved with gpioreg, the port name with spireg. On a
// Waveshare HAT the defaults are correct.
type Binding struct {
	// SPIPort is the spireg port name. Empty selects the first port.
	SPIPort string `yaml:"spi_port"`
	DC      string `yaml:"dc"`
	CS      string `yaml:"cs"`
	RST     string `yaml:"rst"`
	Busy    string `yaml:"busy"`
	// SCK and MOSI are fixed by the SPI port; they are kept so the file
	// documents the whole wiring.
	SCK  string `yaml:"sck"`
	MOSI string `yaml:"mosi"`
	// Frequency is the SPI clock, for example "20MHz".
	Frequency   string        `yaml:"frequency"`
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// Config is the top-level configuration.
type Config struct {
	Panel Binding `yaml:"panel"`

	// FullRefreshEvery is the number of partial refreshes after which a full
	// refresh is done to clear ghosting. 0 disables it.
	FullRefreshEvery int `yaml:"full_refresh_every"`

	// FontSize is the body text size in points.
	FontSize float64 `yaml:"font_size"`

	// PreviewScale is the number of panel pixels per terminal cell when
	// previewing.
	PreviewScale int `yaml:"preview_scale"`
}

// DefaultBinding returns the wiring of the Waveshare 1.54" HAT.
func DefaultBinding() Binding {
	return Binding{
		DC:          "GPIO25",
		CS:          "GPIO8",
		RST:         "GPIO17",
		Busy:        "GPIO24",
		SCK:         "GPIO11",
		MOSI:        "GPIO10",
		Frequency:   "20MHz",
		BusyTimeout: 10 * time.Second,
	}
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Panel:            DefaultBinding(),
		FullRefreshEvery: 10,
		FontSize:         18,
		PreviewScale:     4,
	}
}

// Normalize fills in zero values with defaults.
func (c *Config) Normalize() {
	d := DefaultConfig()
	p := &c.Panel
	if p.DC == "" {
		p.DC = d.Panel.DC
	}
	if p.CS == "" {
		p.CS = d.Panel.CS
	}
	if p.RST == "" {
		p.RST = d.Panel.RST
	}
	if p.Busy == "" {
		p.Busy = d.Panel.Busy
	}
	if p.Frequency == "" {
		p.Frequency = d.Panel.Frequency
	}
	if p.BusyTimeout <= 0 {
		p.BusyTimeout = d.Panel.BusyTimeout
	}
	if c.FullRefreshEvery < 0 {
		c.FullRefreshEvery = 0
	}
	if c.FontSize <= 0 {
		c.FontSize = d.FontSize
	}
	if c.PreviewScale < 1 {
		c.PreviewScale = d.PreviewScale
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if _, err := c.Panel.Freq(); err != nil {
		return err
	}
	return nil
}

// Freq parses Frequency.
func (b *Binding) Freq() (physic.Frequency, error) {
	var f physic.Frequency
	if err := f.Set(b.Frequency); err != nil {
		return 0, fmt.Errorf("config: invalid frequency %q: %w", b.Frequency, err)
	}
	if f <= 0 {
		return 0, fmt.Errorf("config: invalid frequency %q", b.Frequency)
	}
	return f, nil
}

// Pins is the hardware resolved from a Binding.
type Pins struct {
	Port spi.PortCloser
	DC   gpio.PinOut
	CS   gpio.PinOut
	RST  gpio.PinOut
	Busy gpio.PinIn
}

// Open resolves the pins and opens the SPI port. The host drivers must have
// been initialized first.
func (b *Binding) Open() (*Pins, error) {
	var pins [4]gpio.PinIO
	for i, name := range []string{b.DC, b.CS, b.RST, b.Busy} {
		if pins[i] = gpioreg.ByName(name); pins[i] == nil {
			return nil, fmt.Errorf("config: gpio %q not found", name)
		}
	}
	port, err := spireg.Open(b.SPIPort)
	if err != nil {
		return nil, fmt.Errorf("config: failed to open SPI port %q: %w", b.SPIPort, err)
	}
	return &Pins{Port: port, DC: pins[0], CS: pins[1], RST: pins[2], Busy: pins[3]}, nil
}

// Load loads the configuration from the YAML file at path.
//
// When the file does not exist a default configuration is written there with
// 0600 permissions and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config: path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes cfg to path atomically with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config: path is empty")
	}
	if cfg == nil {
		return errors.New("config: nil config")
	}
	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".epd-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
