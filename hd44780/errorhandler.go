// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

// Pins of the backpack port.
const (
	bitRS        byte = 0x01
	bitRW        byte = 0x02
	bitEnable    byte = 0x04
	bitBacklight byte = 0x08
)

// errorHandler is a wrapper for error management. Once a transmit failed,
// the rest of the sequence is skipped so the controller never sees half of a
// nibble pair followed by unrelated data.
type errorHandler struct {
	port Port
	err  error
}

func (eh *errorHandler) transmit(b byte) {
	if eh.err != nil {
		return
	}
	eh.err = eh.port.Transmit(b)
}

// strobe latches v into the controller with a high then low enable pulse. The
// data lines D4..D7 are the upper nibble of v.
func (eh *errorHandler) strobe(v byte) {
	eh.transmit(v | bitEnable)
	eh.transmit(v &^ bitEnable)
}

// write sends val in two halves, high nibble first. mode carries the
// backlight and register select bits, which must be present on every write.
func (eh *errorHandler) write(mode, val byte) {
	eh.strobe(mode | (val & 0xf0))
	eh.strobe(mode | ((val << 4) & 0xf0))
}
