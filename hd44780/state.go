// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

// State mirrors the controller configuration registers. The controller can't
// be read back through a write-only backpack, so this is the only record of
// what was configured.
//
// Only Light, the on bit of DisplayControl and Row change after
// initialization.
type State struct {
	// Light is the backpack backlight bit, either bitBacklight or 0.
	Light          byte
	EntryMode      byte
	DisplayControl byte
	ShiftControl   byte
	FunctionSet    byte
	// Row is the 0 based row the cursor was last placed on.
	Row int
}

// DefaultState returns the register values written by the initialization
// sequence: backlight on, display on with no cursor, left to right entry,
// 4 bit interface with 2 lines of 5x8 dots.
func DefaultState() State {
	return State{
		Light:          bitBacklight,
		EntryMode:      cmdEntryMode | entryLeft,
		DisplayControl: cmdDisplayControl | displayOn,
		ShiftControl:   cmdShift,
		FunctionSet:    cmdFunctionSet | functionTwoLine,
		Row:            0,
	}
}

// Backlit reports whether the backlight bit is set.
func (s State) Backlit() bool {
	return s.Light == bitBacklight
}

// DisplayOn reports whether the display on bit is set.
func (s State) DisplayOn() bool {
	return s.DisplayControl&displayOn == displayOn
}
