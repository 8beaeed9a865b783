// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package waveshare1in54v2

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3/rpi"
)

// Commands
const (
	driverOutputControl            byte = 0x01
	gateDrivingVoltageControl      byte = 0x03
	sourceDrivingVoltageControl    byte = 0x04
	deepSleepMode                  byte = 0x10
	dataEntryModeSetting           byte = 0x11
	swReset                        byte = 0x12
	tempSensorSelect               byte = 0x18
	masterActivation               byte = 0x20
	displayUpdateControl2          byte = 0x22
	writeRAMBW                     byte = 0x24
	writeRAMRed                    byte = 0x26
	writeVcomRegister              byte = 0x2C
	writeLutRegister               byte = 0x32
	writeRegisterForDisplayOption  byte = 0x37
	borderWaveformControl          byte = 0x3C
	endOptionEOPT                  byte = 0x3F
	setRAMXAddressStartEndPosition byte = 0x44
	setRAMYAddressStartEndPosition byte = 0x45
	setRAMXAddressCounter          byte = 0x4E
	setRAMYAddressCounter          byte = 0x4F
)

// Flags for the displayUpdateControl2 command
const (
	displayUpdateDisableClock byte = 1 << iota
	displayUpdateDisableAnalog
	displayUpdateDisplay
	displayUpdateMode2
	displayUpdateLoadLUTFromOTP
	displayUpdateLoadTemperature
	displayUpdateEnableAnalog
	displayUpdateEnableClock
)

// Display update sequences.
const (
	// 0xB1
	updateLoadTemperature = displayUpdateEnableClock |
		displayUpdateLoadTemperature |
		displayUpdateLoadLUTFromOTP |
		displayUpdateDisableClock
	// 0xC0
	updateEnableClockAnalog = displayUpdateEnableClock | displayUpdateEnableAnalog
	// 0xC7
	updateFull = displayUpdateEnableClock |
		displayUpdateEnableAnalog |
		displayUpdateDisplay |
		displayUpdateDisableAnalog |
		displayUpdateDisableClock
	// 0xCF
	updatePartial = updateFull | displayUpdateMode2
)

const (
	defaultFrequency   = 20 * physic.MegaHertz
	defaultBusyTimeout = 10 * time.Second
)

var (
	// ErrInvalidState is returned when an operation is called in a refresh
	// mode that does not allow it, e.g. DisplayPartial before InitPartial.
	ErrInvalidState = errors.New("waveshare1in54v2: invalid refresh mode")
	// ErrNoBaseImage is returned by InitPartial when no base image was
	// written with DisplayFullWithBaseImage since the last InitFull.
	ErrNoBaseImage = errors.New("waveshare1in54v2: no base image for partial refresh")
	// ErrBusyTimeout is returned when the controller does not release the
	// busy line within Opts.BusyTimeout.
	ErrBusyTimeout = errors.New("waveshare1in54v2: timeout waiting for busy line")
)

// RefreshMode is the refresh regime the controller is programmed for.
type RefreshMode uint8

const (
	// Uninitialized means the controller has not been programmed, was put to
	// sleep or is in an unknown state after a failed operation.
	Uninitialized RefreshMode = iota
	// FullMode means the full refresh waveform is loaded.
	FullMode
	// PartialMode means the partial refresh waveform is loaded.
	PartialMode
)

func (m RefreshMode) String() string {
	switch m {
	case Uninitialized:
		return "Uninitialized"
	case FullMode:
		return "FullMode"
	case PartialMode:
		return "PartialMode"
	}
	return fmt.Sprintf("RefreshMode(%d)", uint8(m))
}

// Opts definies the structure of the display configuration.
type Opts struct {
	Width         int
	Height        int
	FullUpdate    LUT
	PartialUpdate LUT

	// Frequency is the SPI clock. Defaults to 20MHz.
	Frequency physic.Frequency
	// BusyTimeout bounds every wait on the busy line. Defaults to 10s.
	BusyTimeout time.Duration
}

// EPD1in54v2 contains the display configuration for the Waveshare 1.54 v2.
var EPD1in54v2 = Opts{
	Width:         200,
	Height:        200,
	FullUpdate:    WaveformFull,
	PartialUpdate: WaveformPartial,
}

// Dev defines the handler which is used to access the display.
type Dev struct {
	c         conn.Conn
	maxTxSize int

	dc   gpio.PinOut
	cs   gpio.PinOut
	rst  gpio.PinOut
	busy gpio.PinIn

	fb        *Framebuffer
	mode      RefreshMode
	baseImage bool

	opts Opts
}

// New creates new handler which is used to access the display.
func New(p spi.Port, dc, cs, rst gpio.PinOut, busy gpio.PinIn, opts *Opts) (*Dev, error) {
	if dc == nil || cs == nil || rst == nil || busy == nil {
		return nil, errors.New("waveshare1in54v2: dc, cs, rst and busy pins are required")
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("waveshare1in54v2: invalid size %dx%d", opts.Width, opts.Height)
	}
	if opts.FullUpdate == (LUT{}) || opts.PartialUpdate == (LUT{}) {
		return nil, errors.New("waveshare1in54v2: full and partial waveforms are required")
	}

	o := *opts
	if o.Frequency == 0 {
		o.Frequency = defaultFrequency
	}
	if o.BusyTimeout <= 0 {
		o.BusyTimeout = defaultBusyTimeout
	}

	c, err := p.Connect(o.Frequency, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("waveshare1in54v2: spi connect: %w", err)
	}

	maxTxSize := 0
	if limits, ok := c.(conn.Limits); ok {
		maxTxSize = limits.MaxTxSize()
	}

	if err := busy.In(gpio.Float, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("waveshare1in54v2: busy pin: %w", err)
	}
	if err := cs.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("waveshare1in54v2: cs pin: %w", err)
	}
	if err := rst.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("waveshare1in54v2: rst pin: %w", err)
	}

	d := &Dev{
		c:         c,
		maxTxSize: maxTxSize,
		dc:        dc,
		cs:        cs,
		rst:       rst,
		busy:      busy,
		fb:        NewFramebuffer(o.Width, o.Height),
		mode:      Uninitialized,
		opts:      o,
	}

	return d, nil
}

// NewHat creates new handler which is used to access the display. Default Waveshare Hat configuration is used.
func NewHat(p spi.Port, opts *Opts) (*Dev, error) {
	dc := rpi.P1_22
	cs := rpi.P1_24
	rst := rpi.P1_11
	busy := rpi.P1_18
	return New(p, dc, cs, rst, busy, opts)
}

// Mode returns the refresh mode the controller is currently programmed for.
func (d *Dev) Mode() RefreshMode {
	return d.mode
}

// run executes the bus operations in fn. A failure leaves the controller in
// an unknown state, so the driver falls back to Uninitialized.
func (d *Dev) run(op string, fn func(ctrl controller)) error {
	eh := errorHandler{d: d}
	fn(&eh)
	if eh.err != nil {
		d.mode = Uninitialized
		d.baseImage = false
		return fmt.Errorf("waveshare1in54v2: %s: %w", op, eh.err)
	}
	return nil
}

func (d *Dev) requireMode(op string, want RefreshMode) error {
	if d.mode != want {
		return fmt.Errorf("%w: %s needs %s, controller is in %s", ErrInvalidState, op, want, d.mode)
	}
	return nil
}

// InitFull resets the controller and programs it for full refreshes.
func (d *Dev) InitFull() error {
	eh := errorHandler{d: d}
	eh.reset()
	if eh.err != nil {
		d.mode = Uninitialized
		d.baseImage = false
		return fmt.Errorf("waveshare1in54v2: reset: %w", eh.err)
	}

	if err := d.run("full init", func(ctrl controller) {
		initDisplayFull(ctrl, &d.opts)
	}); err != nil {
		return err
	}

	d.mode = FullMode
	d.baseImage = false
	return nil
}

// InitPartial resets the controller and programs it for partial refreshes.
//
// A base image must have been written with DisplayFullWithBaseImage after
// the last InitFull.
func (d *Dev) InitPartial() error {
	if d.mode == Uninitialized {
		return fmt.Errorf("%w: partial init needs a prior InitFull", ErrInvalidState)
	}
	if !d.baseImage {
		return ErrNoBaseImage
	}

	eh := errorHandler{d: d}
	eh.reset()
	if eh.err != nil {
		d.mode = Uninitialized
		d.baseImage = false
		return fmt.Errorf("waveshare1in54v2: reset: %w", eh.err)
	}

	if err := d.run("partial init", func(ctrl controller) {
		initDisplayPartial(ctrl, &d.opts)
	}); err != nil {
		return err
	}

	d.mode = PartialMode
	return nil
}

// DisplayFull sends the framebuffer and runs a full refresh.
//
// Only the black and white RAM bank is written, so the reference image used
// by partial refreshes becomes stale and DisplayFullWithBaseImage has to be
// called again before InitPartial.
func (d *Dev) DisplayFull() error {
	if err := d.requireMode("DisplayFull", FullMode); err != nil {
		return err
	}

	if err := d.run("display full", func(ctrl controller) {
		writeImage(ctrl, writeRAMBW, d.fb.buf)
		turnOnDisplay(ctrl, updateFull)
	}); err != nil {
		return err
	}

	d.baseImage = false
	return nil
}

// DisplayFullWithBaseImage writes the framebuffer to both RAM banks and runs
// a full refresh. The second bank is the reference for partial refreshes.
func (d *Dev) DisplayFullWithBaseImage() error {
	if err := d.requireMode("DisplayFullWithBaseImage", FullMode); err != nil {
		return err
	}

	if err := d.run("display base image", func(ctrl controller) {
		writeImage(ctrl, writeRAMBW, d.fb.buf)
		writeImage(ctrl, writeRAMRed, d.fb.buf)
		turnOnDisplay(ctrl, updateFull)
	}); err != nil {
		return err
	}

	d.baseImage = true
	return nil
}

// DisplayPartial sends the framebuffer and runs a partial refresh.
func (d *Dev) DisplayPartial() error {
	if err := d.requireMode("DisplayPartial", PartialMode); err != nil {
		return err
	}

	return d.run("display partial", func(ctrl controller) {
		writeImage(ctrl, writeRAMBW, d.fb.buf)
		turnOnDisplay(ctrl, updatePartial)
	})
}

// Clear sets the framebuffer to white. The panel is not touched until the
// next Display call.
func (d *Dev) Clear() {
	d.fb.Clear()
}

// SetPixel sets a pixel in the framebuffer.
func (d *Dev) SetPixel(x, y int, c image1bit.Bit) error {
	return d.fb.SetPixel(x, y, c)
}

// Pixel returns a pixel from the framebuffer.
func (d *Dev) Pixel(x, y int) (image1bit.Bit, error) {
	return d.fb.Pixel(x, y)
}

// ColorModel returns a 1Bit color model.
func (d *Dev) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds returns the bounds for the configurated display.
func (d *Dev) Bounds() image.Rectangle {
	return d.fb.Bounds()
}

// Draw draws the given image into the framebuffer and refreshes the display
// with the active mode. In full mode the image also becomes the base image
// for later partial refreshes.
func (d *Dev) Draw(dstRect image.Rectangle, src image.Image, srcPts image.Point) error {
	if d.mode == Uninitialized {
		return fmt.Errorf("%w: Draw needs InitFull or InitPartial", ErrInvalidState)
	}

	draw.Draw(d.fb, dstRect, src, srcPts, draw.Src)

	return d.refresh()
}

func (d *Dev) refresh() error {
	if d.mode == PartialMode {
		return d.DisplayPartial()
	}
	return d.DisplayFullWithBaseImage()
}

// Halt clears the display. The framebuffer is always cleared; the panel is
// only refreshed when the controller is initialized.
func (d *Dev) Halt() error {
	d.fb.Clear()
	if d.mode == Uninitialized {
		return nil
	}
	return d.refresh()
}

// Sleep makes the controller enter deep sleep mode. It can be woken up by
// calling InitFull again.
func (d *Dev) Sleep() error {
	err := d.run("sleep", func(ctrl controller) {
		// Deep sleep mode 1, RAM content is retained.
		ctrl.sendCommand(deepSleepMode)
		ctrl.sendByte(0x01)
	})
	d.mode = Uninitialized
	d.baseImage = false
	return err
}

// String returns a string containing configuration information.
func (d *Dev) String() string {
	return fmt.Sprintf("epd.Dev{%s, %s, Width: %d, Height: %d}", d.c, d.dc, d.opts.Width, d.opts.Height)
}

var _ display.Drawer = &Dev{}
