// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package waveshare1in54v2

const (
	// lutSize is the length of a waveform table including the trailing
	// configuration bytes.
	lutSize = 159

	// lutWaveformSize is the part of the table written with writeLutRegister.
	lutWaveformSize = 153
)

// LUT contains the waveform that is used to program the display.
//
// The first 153 bytes are the voltage transition groups and their repeat
// counts. They are followed by the end option, the gate driving voltage, the
// three source driving voltages (VSH1, VSH2, VSL) and the VCOM value.
type LUT [lutSize]byte

// Waveform returns the part of the table sent as the waveform block.
func (l *LUT) Waveform() []byte {
	return l[:lutWaveformSize]
}

// EndOption returns the value for the end option (EOPT) register.
func (l *LUT) EndOption() byte {
	return l[153]
}

// GateVoltage returns the gate driving voltage setting.
func (l *LUT) GateVoltage() byte {
	return l[154]
}

// SourceVoltages returns VSH1, VSH2 and VSL.
func (l *LUT) SourceVoltages() []byte {
	return l[155:158]
}

// VCOM returns the VCOM register value.
func (l *LUT) VCOM() byte {
	return l[158]
}

// WaveformFull is the full refresh waveform shipped with the panel.
//
// It is a read-only reference table. Opts holds LUTs by value; modify the
// copy in Opts to tune a panel, never this variable.
var WaveformFull = LUT{
	0x80, 0x48, 0x40, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x40, 0x48, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x80, 0x48, 0x40, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x40, 0x48, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,

	0x0A, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x08, 0x01, 0x00, 0x08, 0x01, 0x00, 0x02,
	0x0A, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,

	0x22, 0x22, 0x22, 0x22, 0x22, 0x22, 0x00, 0x00, 0x00,

	0x22, 0x17, 0x41, 0x00, 0x32, 0x20,
}

// WaveformPartial is the partial refresh waveform. It uses shorter pulses and
// relies on the previous image being present in the red RAM bank.
//
// Like WaveformFull, it must not be modified.
var WaveformPartial = LUT{
	0x00, 0x40, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x80, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x40, 0x40, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,

	0x0F, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x01, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,

	0x22, 0x22, 0x22, 0x22, 0x22, 0x22, 0x00, 0x00, 0x00,

	0x02, 0x17, 0x41, 0xB0, 0x32, 0x28,
}
