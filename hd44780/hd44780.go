// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package hd44780 controls the Hitachi LCD display chipset HD-44780 through an
// 8 bit port, as found on the common PCF8574 I²C backpacks.
//
// Only the upper 4 data lines of the controller are wired, so the controller
// runs in 4 bit mode: every command or character byte is sent as two nibbles,
// high nibble first, each latched by pulsing the enable line.
//
// # Datasheet
//
// https://www.sparkfun.com/datasheets/LCD/HD44780.pdf
package hd44780

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
)

const (
	cmdClear          byte = 0x01
	cmdHome           byte = 0x02
	cmdEntryMode      byte = 0x04
	cmdDisplayControl byte = 0x08
	cmdShift          byte = 0x10
	cmdFunctionSet    byte = 0x20
	cmdSetDDRAM       byte = 0x80

	entryLeft       byte = 0x02
	displayOn       byte = 0x04
	shiftRight      byte = 0x04
	functionTwoLine byte = 0x08

	packageName = "hd44780"
)

var (
	ErrNotImplemented = fmt.Errorf("%s: %w", packageName, display.ErrNotImplemented)

	// DDRAM address of the first column of each row.
	rowAddress = [4]byte{0x00, 0x40, 0x14, 0x54}
)

// Port is an 8 bit output port wired to the controller lines, typically an
// I/O expander. Transmit must block until the byte is on the pins.
type Port interface {
	Transmit(b byte) error
	String() string
}

// Opts holds the geometry and timing of a display.
type Opts struct {
	Rows int
	Cols int
	// BusSettle is the delay after every byte written to the expander.
	BusSettle time.Duration
	// InitSettle is the delay after the initialization sequence.
	InitSettle time.Duration
	// Sleep performs the delays. Tests replace it to avoid real waits.
	Sleep func(time.Duration)
}

// DefaultOpts is a 16x2 display with the timings of the PCF8574 backpacks.
var DefaultOpts = Opts{
	Rows:       2,
	Cols:       16,
	BusSettle:  time.Millisecond,
	InitSettle: 5 * time.Millisecond,
	Sleep:      time.Sleep,
}

// Dev is an HD44780 display driven through a Port.
//
// Dev is not safe for concurrent use. A command is several port writes, and
// two interleaved commands corrupt the controller state, so callers must
// serialize whole operations.
//
// Implements periph.io/conn/x/display/TextDisplay and display.DisplayBacklight
type Dev struct {
	port  Port
	rows  int
	cols  int
	sleep func(time.Duration)
	state State
}

func wrap(err error) error {
	if err == nil || strings.HasPrefix(err.Error(), packageName) {
		return err
	}
	return fmt.Errorf("%s: %w", packageName, err)
}

// RowAddress returns the DDRAM address of the first column of row, counting
// from 0.
func RowAddress(row int) (byte, error) {
	if row < 0 || row >= len(rowAddress) {
		return 0, fmt.Errorf("%s: row %d out of range", packageName, row)
	}
	return rowAddress[row], nil
}

// New initializes the display on port and returns it ready for use. The
// initialization sequence runs exactly once, here.
func New(port Port, opts *Opts) (*Dev, error) {
	o := DefaultOpts
	if opts != nil {
		o = *opts
	}
	if o.Rows < 1 || o.Rows > len(rowAddress) {
		return nil, fmt.Errorf("%s: invalid rows %d", packageName, o.Rows)
	}
	if o.Cols < 1 || o.Cols > 40 {
		return nil, fmt.Errorf("%s: invalid cols %d", packageName, o.Cols)
	}
	if o.Sleep == nil {
		o.Sleep = time.Sleep
	}
	dev := &Dev{
		port:  port,
		rows:  o.Rows,
		cols:  o.Cols,
		sleep: o.Sleep,
		state: DefaultState(),
	}
	if err := dev.init(o.InitSettle); err != nil {
		return nil, err
	}
	return dev, nil
}

// init resets the controller and writes the configuration registers.
//
// A controller left in an unknown state by a previous run may not accept the
// first commands, hence the repeated clear+home before the configuration.
func (dev *Dev) init(settle time.Duration) error {
	s := dev.state
	err := dev.command(
		cmdClear|cmdHome,
		cmdClear|cmdHome,
		cmdClear|cmdHome,
		cmdHome,
		s.FunctionSet,
		s.DisplayControl,
		cmdClear,
		s.ShiftControl,
		s.EntryMode,
	)
	if err != nil {
		return err
	}
	dev.sleep(settle)
	return nil
}

// State returns a copy of the register mirror.
func (dev *Dev) State() State {
	return dev.state
}

// SetBacklight switches the backlight. The backlight is a pin of the
// expander, not a controller feature, so this is a single port write.
func (dev *Dev) SetBacklight(on bool) error {
	if on {
		dev.state.Light = bitBacklight
	} else {
		dev.state.Light = 0
	}
	eh := errorHandler{port: dev.port}
	eh.transmit(dev.state.Light)
	return wrap(eh.err)
}

// SetDisplay turns the display on or off. The content is kept while off.
func (dev *Dev) SetDisplay(on bool) error {
	if on {
		dev.state.DisplayControl |= displayOn
	} else {
		dev.state.DisplayControl &^= displayOn
	}
	return dev.command(dev.state.DisplayControl)
}

// Clears the screen and moves the cursor to the first position.
func (dev *Dev) Clear() error {
	return dev.command(cmdClear, cmdHome)
}

// Move the cursor home (MinRow(),MinCol())
func (dev *Dev) Home() error {
	return dev.command(cmdHome)
}

// SetRow makes row, counting from 0, the active row and moves the cursor to
// its first column.
func (dev *Dev) SetRow(row int) error {
	if row < 0 || row >= dev.rows {
		return fmt.Errorf("%s: row %d out of range", packageName, row)
	}
	dev.state.Row = row
	return dev.command(cmdSetDDRAM | rowAddress[row])
}

// WriteChar writes the character code b at the cursor.
func (dev *Dev) WriteChar(b byte) error {
	return dev.chars(b)
}

// Not supported by this device. Returns ErrNotImplemented
func (dev *Dev) AutoScroll(enabled bool) error {
	return ErrNotImplemented
}

// Return the number of columns the display supports
func (dev *Dev) Cols() int {
	return dev.cols
}

// Return the number of rows the display supports.
func (dev *Dev) Rows() int {
	return dev.rows
}

// Return the min column position.
func (dev *Dev) MinCol() int {
	return 1
}

// Return the min row position.
func (dev *Dev) MinRow() int {
	return 1
}

// Cursor only accepts display.CursorOff. A visible cursor would change the
// display control register, which is fixed after initialization.
func (dev *Dev) Cursor(modes ...display.CursorMode) error {
	for _, mode := range modes {
		if mode != display.CursorOff {
			return ErrNotImplemented
		}
	}
	return dev.command(dev.state.DisplayControl)
}

// Move the cursor forward or backward.
func (dev *Dev) Move(dir display.CursorDirection) error {
	val := dev.state.ShiftControl
	switch dir {
	case display.Backward:
	case display.Forward:
		val |= shiftRight
	default:
		return ErrNotImplemented
	}
	return dev.command(val)
}

// Move the cursor to arbitrary position.
func (dev *Dev) MoveTo(row, col int) error {
	if row < dev.MinRow() || row > dev.rows || col < dev.MinCol() || col > dev.cols {
		return fmt.Errorf("%s: MoveTo(%d,%d) value out of range", packageName, row, col)
	}
	dev.state.Row = row - 1
	return dev.command(cmdSetDDRAM | (rowAddress[row-1] + byte(col-1)))
}

// Return info about the display.
func (dev *Dev) String() string {
	return fmt.Sprintf("HD44780::%s - Rows: %d, Cols: %d", dev.port.String(), dev.rows, dev.cols)
}

// Turn the display on / off
func (dev *Dev) Display(on bool) error {
	return dev.SetDisplay(on)
}

// Write sends p as character codes at the cursor. No translation is done.
func (dev *Dev) Write(p []byte) (n int, err error) {
	for _, b := range p {
		if err = dev.chars(b); err != nil {
			return
		}
		n++
	}
	return
}

// Write a string output to the display.
func (dev *Dev) WriteString(text string) (int, error) {
	return dev.Write([]byte(text))
}

// Turn the display's backlight on or off.
func (dev *Dev) Backlight(intensity display.Intensity) error {
	return dev.SetBacklight(intensity > 0)
}

// Halt clears the display, turns the backlight off, and turns the display off.
func (dev *Dev) Halt() error {
	return errors.Join(dev.Clear(), dev.SetBacklight(false), dev.SetDisplay(false))
}

// command sends each value as a command byte.
func (dev *Dev) command(values ...byte) error {
	eh := errorHandler{port: dev.port}
	for _, v := range values {
		eh.write(dev.state.Light, v)
	}
	return wrap(eh.err)
}

// chars sends each value as character data.
func (dev *Dev) chars(values ...byte) error {
	eh := errorHandler{port: dev.port}
	for _, v := range values {
		eh.write(dev.state.Light|bitRS, v)
	}
	return wrap(eh.err)
}

var _ display.TextDisplay = &Dev{}
var _ display.DisplayBacklight = &Dev{}
var _ conn.Resource = &Dev{}
