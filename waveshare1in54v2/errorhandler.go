// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package waveshare1in54v2

import (
	"time"

	"periph.io/x/conn/v3/gpio"
)

// busyPollInterval is the delay between two reads of the busy line.
const busyPollInterval = 5 * time.Millisecond

// errorHandler is a wrapper for error management. Once an operation failed
// all further bus operations are skipped and the first error is kept.
type errorHandler struct {
	d   *Dev
	err error
}

func (eh *errorHandler) rstOut(l gpio.Level) {
	if eh.err != nil {
		return
	}
	eh.err = eh.d.rst.Out(l)
}

func (eh *errorHandler) dcOut(l gpio.Level) {
	if eh.err != nil {
		return
	}
	eh.err = eh.d.dc.Out(l)
}

func (eh *errorHandler) csOut(l gpio.Level) {
	if eh.err != nil {
		return
	}
	eh.err = eh.d.cs.Out(l)
}

// csRelease deasserts chip select even when the transfer failed. The first
// error is kept.
func (eh *errorHandler) csRelease() {
	if err := eh.d.cs.Out(gpio.High); eh.err == nil {
		eh.err = err
	}
}

// cTx clocks w out, split into chunks the connection can handle.
func (eh *errorHandler) cTx(w []byte) {
	for len(w) > 0 && eh.err == nil {
		n := len(w)
		if limit := eh.d.maxTxSize; limit > 0 && n > limit {
			n = limit
		}
		eh.err = eh.d.c.Tx(w[:n], nil)
		w = w[n:]
	}
}

func (eh *errorHandler) transfer(dc gpio.Level, w []byte) {
	if eh.err != nil {
		return
	}

	eh.dcOut(dc)
	eh.csOut(gpio.Low)
	if eh.err != nil {
		eh.csRelease()
		return
	}
	eh.cTx(w)
	eh.csRelease()
}

func (eh *errorHandler) sendCommand(cmd byte) {
	eh.transfer(gpio.Low, []byte{cmd})
}

func (eh *errorHandler) sendData(data []byte) {
	eh.transfer(gpio.High, data)
}

func (eh *errorHandler) sendByte(data byte) {
	eh.transfer(gpio.High, []byte{data})
}

// waitUntilIdle blocks while the controller reports busy, up to the
// configured timeout.
func (eh *errorHandler) waitUntilIdle() {
	if eh.err != nil {
		return
	}
	deadline := time.Now().Add(eh.d.opts.BusyTimeout)
	for eh.d.busy.Read() == gpio.High {
		if !time.Now().Before(deadline) {
			eh.err = ErrBusyTimeout
			return
		}
		time.Sleep(busyPollInterval)
	}
}

// reset pulses the reset line.
func (eh *errorHandler) reset() {
	eh.rstOut(gpio.High)
	time.Sleep(50 * time.Millisecond)
	eh.rstOut(gpio.Low)
	time.Sleep(20 * time.Millisecond)
	eh.rstOut(gpio.High)
	time.Sleep(50 * time.Millisecond)
}
