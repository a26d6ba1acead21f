// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package lcdsim emulates an HD44780 character LCD on a PCF8574 I²C backpack.
//
// Bus implements i2c.Bus. Port writes addressed to the backpack are decoded
// the way the hardware does it: the controller latches the data lines on the
// falling edge of the enable line, in 4 bit mode, two nibbles per byte. The
// decoded display memory is available as a Screen, and can be shown on a
// terminal (Console) or drawn as an image (Render).
//
// The primary use case is the development of display outputs on a host
// machine without the hardware. It is also used by tests to check the bus
// traffic of the drivers by its effect rather than byte by byte.
package lcdsim

import (
	"fmt"
	"strings"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// Backpack pins.
const (
	pinRS        byte = 0x01
	pinRW        byte = 0x02
	pinEnable    byte = 0x04
	pinBacklight byte = 0x08
)

// DefaultAddress is the address the emulated backpack answers on.
const DefaultAddress uint16 = 0x27

// Opts describes the emulated display.
type Opts struct {
	Addr uint16
	Rows int
	Cols int
}

// Screen is what the display shows.
type Screen struct {
	// Lines holds the text of each row, Cols characters wide.
	Lines     []string
	Backlight bool
	DisplayOn bool
}

func (s Screen) String() string {
	return strings.Join(s.Lines, "\n")
}

// Bus is an I²C bus with a single emulated LCD backpack on it.
type Bus struct {
	addr uint16
	rows int
	cols int

	mu       sync.Mutex
	lcd      controller
	port     byte
	writes   int
	closed   bool
	onChange []func(Screen)
}

// New returns a Bus. Zero fields of opts take the values of a 16x2 display at
// DefaultAddress.
func New(opts *Opts) *Bus {
	b := &Bus{addr: DefaultAddress, rows: 2, cols: 16}
	if opts != nil {
		if opts.Addr != 0 {
			b.addr = opts.Addr
		}
		if opts.Rows > 0 {
			b.rows = min(opts.Rows, len(rowAddress))
		}
		if opts.Cols > 0 {
			b.cols = opts.Cols
		}
	}
	b.lcd.reset()
	return b
}

// Tx implements i2c.Bus. Every written byte is one port write. A read returns
// the current port value, as the quasi-bidirectional pins read back what was
// last written.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return fmt.Errorf("lcdsim: bus closed")
	}
	if addr != b.addr {
		b.mu.Unlock()
		return fmt.Errorf("lcdsim: no device at %#x", addr)
	}
	changed := false
	for _, v := range w {
		if b.setPort(v) {
			changed = true
		}
	}
	for i := range r {
		r[i] = b.port
	}
	var s Screen
	var listeners []func(Screen)
	if changed && len(b.onChange) != 0 {
		s = b.screenLocked()
		listeners = append(listeners, b.onChange...)
	}
	b.mu.Unlock()

	for _, f := range listeners {
		f(s)
	}
	return nil
}

// SetSpeed implements i2c.Bus.
func (b *Bus) SetSpeed(f physic.Frequency) error {
	return nil
}

func (b *Bus) String() string {
	return fmt.Sprintf("lcdsim(%#x)", b.addr)
}

// Close implements io.Closer. Later transactions fail.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// OnChange registers f to be called with the new Screen after each
// transaction that changed what the display shows.
func (b *Bus) OnChange(f func(Screen)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onChange = append(b.onChange, f)
}

// Screen returns what the display currently shows.
func (b *Bus) Screen() Screen {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.screenLocked()
}

// Writes returns the number of port writes seen.
func (b *Bus) Writes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writes
}

// Rows returns the number of emulated rows.
func (b *Bus) Rows() int {
	return b.rows
}

// Cols returns the number of emulated columns.
func (b *Bus) Cols() int {
	return b.cols
}

// Registers returns the last values written to the entry mode, display
// control, cursor shift and function set registers, and the address counter.
func (b *Bus) Registers() (entry, display, shift, function, addr byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := &b.lcd
	return c.entry, c.display, c.shift, c.function, c.addr
}

// setPort applies one port write and reports whether the screen changed.
func (b *Bus) setPort(v byte) bool {
	prev := b.port
	b.port = v
	b.writes++
	changed := prev&pinBacklight != v&pinBacklight
	// The controller samples D4..D7 while enable is high and acts on the
	// falling edge. R/W high would be a read, which the backpack never does
	// on purpose.
	if prev&pinEnable != 0 && v&pinEnable == 0 && prev&pinRW == 0 {
		if b.lcd.latch(prev&pinRS != 0, prev>>4) {
			changed = true
		}
	}
	return changed
}

func (b *Bus) screenLocked() Screen {
	s := Screen{
		Lines:     make([]string, b.rows),
		Backlight: b.port&pinBacklight != 0,
		DisplayOn: b.lcd.display&displayOn != 0,
	}
	var sb strings.Builder
	for r := range b.rows {
		sb.Reset()
		for c := range b.cols {
			sb.WriteRune(glyph(b.lcd.ddram[(int(rowAddress[r])+c)&0x7f]))
		}
		s.Lines[r] = sb.String()
	}
	return s
}

// glyph maps a character code to what the A00 character ROM shows, as far
// as ASCII goes.
func glyph(code byte) rune {
	if code < 0x20 || code > 0x7e {
		return ' '
	}
	return rune(code)
}

var _ i2c.BusCloser = &Bus{}
