// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package waveshare1in54v2

type controller interface {
	sendCommand(byte)
	sendData([]byte)
	sendByte(byte)
	waitUntilIdle()
}

// setWindow configures the RAM area written to; horizontal positions are in
// pixels and sent in bytes, vertical positions are in pixels.
func setWindow(ctrl controller, xStart, yStart, xEnd, yEnd int) {
	ctrl.sendCommand(setRAMXAddressStartEndPosition)
	ctrl.sendData([]byte{byte((xStart >> 3) & 0xFF), byte((xEnd >> 3) & 0xFF)})

	ctrl.sendCommand(setRAMYAddressStartEndPosition)
	ctrl.sendData([]byte{
		byte(yStart & 0xFF), byte((yStart >> 8) & 0xFF),
		byte(yEnd & 0xFF), byte((yEnd >> 8) & 0xFF),
	})
}

// setCursor positions the RAM address counters.
func setCursor(ctrl controller, x, y int) {
	ctrl.sendCommand(setRAMXAddressCounter)
	ctrl.sendByte(byte(x & 0xFF))

	ctrl.sendCommand(setRAMYAddressCounter)
	ctrl.sendData([]byte{byte(y & 0xFF), byte((y >> 8) & 0xFF)})
}

// setLut uploads the waveform and the voltage settings stored behind it.
func setLut(ctrl controller, lut *LUT) {
	ctrl.sendCommand(writeLutRegister)
	ctrl.sendData(lut.Waveform())
	ctrl.waitUntilIdle()

	ctrl.sendCommand(endOptionEOPT)
	ctrl.sendByte(lut.EndOption())

	ctrl.sendCommand(gateDrivingVoltageControl)
	ctrl.sendByte(lut.GateVoltage())

	ctrl.sendCommand(sourceDrivingVoltageControl)
	ctrl.sendData(lut.SourceVoltages())

	ctrl.sendCommand(writeVcomRegister)
	ctrl.sendByte(lut.VCOM())
}

// turnOnDisplay runs the display update sequence selected by code.
func turnOnDisplay(ctrl controller, code byte) {
	ctrl.sendCommand(displayUpdateControl2)
	ctrl.sendByte(code)
	ctrl.sendCommand(masterActivation)
	ctrl.waitUntilIdle()
}

func initDisplayFull(ctrl controller, opts *Opts) {
	ctrl.waitUntilIdle()
	ctrl.sendCommand(swReset)
	ctrl.waitUntilIdle()

	ctrl.sendCommand(driverOutputControl)
	ctrl.sendData([]byte{
		byte((opts.Height - 1) & 0xFF),
		byte(((opts.Height - 1) >> 8) & 0xFF),
		// Gate scanning direction.
		0x01,
	})

	ctrl.sendCommand(dataEntryModeSetting)
	// X increment, Y decrement.
	ctrl.sendByte(0x01)

	setWindow(ctrl, 0, opts.Height-1, opts.Width-1, 0)

	ctrl.sendCommand(borderWaveformControl)
	ctrl.sendByte(0x01)

	ctrl.sendCommand(tempSensorSelect)
	// Internal sensor.
	ctrl.sendByte(0x80)

	// Load temperature and waveform setting.
	ctrl.sendCommand(displayUpdateControl2)
	ctrl.sendByte(updateLoadTemperature)
	ctrl.sendCommand(masterActivation)

	setCursor(ctrl, 0, opts.Height-1)
	ctrl.waitUntilIdle()

	setLut(ctrl, &opts.FullUpdate)
}

func initDisplayPartial(ctrl controller, opts *Opts) {
	ctrl.waitUntilIdle()

	setLut(ctrl, &opts.PartialUpdate)

	// Display option: enable ping-pong for the partial waveform.
	ctrl.sendCommand(writeRegisterForDisplayOption)
	ctrl.sendData([]byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x40, 0x00, 0x00, 0x00, 0x00})

	ctrl.sendCommand(borderWaveformControl)
	ctrl.sendByte(0x80)

	turnOnDisplay(ctrl, updateEnableClockAnalog)
}

// writeImage sends the framebuffer to one of the two RAM banks.
func writeImage(ctrl controller, cmd byte, buf []byte) {
	ctrl.sendCommand(cmd)
	ctrl.sendData(buf)
}
