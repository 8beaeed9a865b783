// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// epd1in54 shows text or an image on a Waveshare 1.54" e-paper panel.
//
// The first page is shown with a full refresh and becomes the base image,
// following pages use partial refreshes. Every full_refresh_every pages a
// full refresh is done again to clear ghosting.
//
// With -preview the pages are printed to the terminal instead. With -http the
// pages are also streamed to browsers.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MaxHalford/halfgone"
	"github.com/disintegration/imaging"
	"periph.io/x/conn/v3/display"
	"periph.io/x/host/v3"

	"github.com/GermanBionicSystems/epaper/internal/config"
	appLog "github.com/GermanBionicSystems/epaper/internal/log"
	"github.com/GermanBionicSystems/epaper/internal/render"
	"github.com/GermanBionicSystems/epaper/panelstream"
	"github.com/GermanBionicSystems/epaper/termpreview"
	"github.com/GermanBionicSystems/epaper/waveshare1in54v2"
)

const sampleText = `Hello from periph!

This is a 1.54 inch e-paper panel driven over SPI. The first page uses a full refresh, the following ones only update the pixels that changed.

Pass -text to show your own file.`

type flagConfig struct {
	configPath string
	textPath   string
	imagePath  string
	httpAddr   string
	interval   time.Duration
	preview    bool
	dither     bool
	debug      bool
}

func parseFlags() flagConfig {
	var cfg flagConfig
	flag.StringVar(&cfg.configPath, "config", "epd1in54.yaml", "Path to config file, created with defaults when missing")
	flag.StringVar(&cfg.textPath, "text", "", "Text file to show, paginated")
	flag.StringVar(&cfg.imagePath, "image", "", "Image to show before the text pages")
	flag.StringVar(&cfg.httpAddr, "http", "", "Address to stream the pages to browsers on, e.g. :8080")
	flag.DurationVar(&cfg.interval, "interval", 5*time.Second, "Delay between pages")
	flag.BoolVar(&cfg.dither, "dither", true, "Dither -image with Floyd-Steinberg instead of thresholding it")
	flag.BoolVar(&cfg.preview, "preview", false, "Print pages to the terminal; do not touch the panel")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")
	flag.Parse()
	return cfg
}

func main() {
	flags := parseFlags()
	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := mainImpl(ctx, flags); err != nil && !errors.Is(err, context.Canceled) {
		appLog.Error("epd1in54 failed", err)
		os.Exit(1)
	}
}

func mainImpl(ctx context.Context, flags flagConfig) error {
	conf, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}
	appLog.Debug("effective config",
		"config_path", flags.configPath,
		"spi_port", conf.Panel.SPIPort,
		"dc", conf.Panel.DC,
		"cs", conf.Panel.CS,
		"rst", conf.Panel.RST,
		"busy", conf.Panel.Busy,
		"frequency", conf.Panel.Frequency,
		"full_refresh_every", conf.FullRefreshEvery,
	)

	opts := waveshare1in54v2.EPD1in54v2
	pages, err := loadPages(flags, conf, opts.Width, opts.Height)
	if err != nil {
		return err
	}
	appLog.Info("pages ready", "count", len(pages))

	var mirrors []display.Drawer
	if flags.httpAddr != "" {
		sink := panelstream.New(&panelstream.Opts{Width: opts.Width, Height: opts.Height})
		defer sink.Halt()
		srv := &http.Server{Addr: flags.httpAddr, Handler: sink}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				appLog.Error("http server failed", err, "addr", flags.httpAddr)
			}
		}()
		defer srv.Close()
		appLog.Info("streaming pages", "addr", flags.httpAddr)
		mirrors = append(mirrors, sink)
	}

	if flags.preview {
		term := termpreview.New(&termpreview.Opts{Width: opts.Width, Height: opts.Height, Scale: conf.PreviewScale})
		defer term.Halt()
		if err := preview(ctx, append(mirrors, term), pages, flags.interval); err != nil {
			return err
		}
		if flags.httpAddr != "" {
			appLog.Info("all pages shown, still streaming")
			<-ctx.Done()
		}
		return nil
	}

	if _, err := host.Init(); err != nil {
		return fmt.Errorf("host init: %w", err)
	}
	pins, err := conf.Panel.Open()
	if err != nil {
		return err
	}
	defer pins.Port.Close()

	if opts.Frequency, err = conf.Panel.Freq(); err != nil {
		return err
	}
	opts.BusyTimeout = conf.Panel.BusyTimeout

	dev, err := waveshare1in54v2.New(pins.Port, pins.DC, pins.CS, pins.RST, pins.Busy, &opts)
	if err != nil {
		return err
	}
	appLog.Info("panel opened", "dev", dev)

	err = show(ctx, dev, pages, mirrors, conf.FullRefreshEvery, flags.interval)
	if serr := dev.Sleep(); serr != nil {
		appLog.Error("sleep failed", serr)
	}
	return err
}

// loadPages returns the images to show, the optional picture first.
func loadPages(flags flagConfig, conf *config.Config, width, height int) ([]image.Image, error) {
	var out []image.Image
	if flags.imagePath != "" {
		img, err := loadImage(flags.imagePath, width, height, flags.dither)
		if err != nil {
			return nil, err
		}
		out = append(out, img)
	}

	text := sampleText
	if flags.textPath != "" {
		b, err := os.ReadFile(flags.textPath)
		if err != nil {
			return nil, err
		}
		text = string(b)
	} else if flags.imagePath != "" {
		return out, nil
	}

	r, err := render.New(width, height, conf.FontSize)
	if err != nil {
		return nil, err
	}
	for _, p := range r.Paginate(text) {
		out = append(out, r.Render(p))
	}
	return out, nil
}

// loadImage decodes the file and fits it, centered, on a white panel.
func loadImage(path string, width, height int, dither bool) (image.Image, error) {
	src, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	fit := imaging.Grayscale(imaging.Fit(src, width, height, imaging.Lanczos))

	dst := image.NewGray(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)
	off := image.Pt((width-fit.Bounds().Dx())/2, (height-fit.Bounds().Dy())/2)
	draw.Draw(dst, fit.Bounds().Add(off), fit, fit.Bounds().Min, draw.Src)
	if dither {
		return halfgone.FloydSteinbergDitherer{}.Apply(dst), nil
	}
	return dst, nil
}

// fullRefresh runs the full init sequence and shows img as the new base image,
// then switches to partial mode.
func fullRefresh(dev *waveshare1in54v2.Dev, img image.Image) error {
	if err := dev.InitFull(); err != nil {
		return err
	}
	dev.Clear()
	if err := dev.Draw(dev.Bounds(), img, image.Point{}); err != nil {
		return err
	}
	return dev.InitPartial()
}

// drawAll draws img on every mirror, logging failures.
func drawAll(mirrors []display.Drawer, img image.Image) {
	for _, m := range mirrors {
		if err := m.Draw(m.Bounds(), img, image.Point{}); err != nil {
			appLog.Error("mirror draw failed", err, "mirror", m)
		}
	}
}

func show(ctx context.Context, dev *waveshare1in54v2.Dev, pages []image.Image, mirrors []display.Drawer, fullEvery int, interval time.Duration) error {
	start := time.Now()
	if err := fullRefresh(dev, pages[0]); err != nil {
		return err
	}
	drawAll(mirrors, pages[0])
	appLog.Debug("full refresh", "page", 1, "took", time.Since(start))

	partials := 0
	for i, img := range pages[1:] {
		if err := wait(ctx, interval); err != nil {
			return err
		}
		page := i + 2
		start := time.Now()
		if fullEvery > 0 && partials >= fullEvery {
			if err := fullRefresh(dev, img); err != nil {
				return err
			}
			partials = 0
			drawAll(mirrors, img)
			appLog.Debug("full refresh", "page", page, "took", time.Since(start))
			continue
		}
		dev.Clear()
		if err := dev.Draw(dev.Bounds(), img, image.Point{}); err != nil {
			return err
		}
		partials++
		drawAll(mirrors, img)
		appLog.Debug("partial refresh", "page", page, "took", time.Since(start))
	}
	return nil
}

// preview shows the pages on the mirrors only.
func preview(ctx context.Context, mirrors []display.Drawer, pages []image.Image, interval time.Duration) error {
	for i, img := range pages {
		if i > 0 {
			if err := wait(ctx, interval); err != nil {
				return err
			}
		}
		drawAll(mirrors, img)
	}
	return nil
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
