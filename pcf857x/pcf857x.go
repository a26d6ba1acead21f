// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package pcf857x drives the output port of a TI/NXP PCF857X I²C I/O
// expander. These devices provide 8 pins (PCF8574) or 16 pins (PCF8575) of
// "quasi-bidirectional" input/output. The chip is the usual bridge on LCD
// backpacks sold as LCD2004 and LCD1602, where every pin of the port is wired
// to a control or data line of the display controller.
//
// The PCF8575 is functionally identical to the PCF8574. Writes to it are 2
// bytes wide, while they're one byte wide with the PCF8574.
//
// # Datasheet
//
// https://www.ti.com/lit/ds/symlink/pcf8574.pdf
//
// A good description of the I2C LCD backpack usage can be found here:
//
// https://www.handsontec.com/dataspecs/I2C_2004_LCD.pdf
//
// # Notes
//
// This chip doesn't implement normal i2c register architectures. You write 8 or
// 16 bits out, and that sets the corresponding pins. There is no register
// offset; the port is the only thing that can be addressed.
//
// Devices hanging off the expander usually need time to react to a change of
// the port. Every Transmit is followed by a settle delay before it returns.
package pcf857x

import (
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
)

// Variant represents the actual chip model.
type Variant string

const (
	PCF8574 Variant = "PCF8574"
	PCF8575 Variant = "PCF8575"

	DefaultAddress uint16 = 0x20
)

// Opts holds the timing parameters of a Dev.
type Opts struct {
	// Settle is how long Transmit waits after the bus write returned.
	Settle time.Duration
	// Sleep performs the settle wait. Tests replace it to avoid real delays.
	Sleep func(time.Duration)
}

// DefaultOpts waits one millisecond after each write, which is enough for the
// slowest HD44780 commands driven through a PCF8574.
var DefaultOpts = Opts{
	Settle: time.Millisecond,
	Sleep:  time.Sleep,
}

// Dev is representation of a PCF857x device.
type Dev struct {
	width    int
	chipType Variant
	opts     Opts

	mu    sync.Mutex
	d     *i2c.Dev
	value byte
	tx    int
}

// New creates a new PCF857x io expander and returns it. chip should be one of
// the Variant constants above. A nil opts uses DefaultOpts.
func New(bus i2c.Bus, address uint16, chip Variant, opts *Opts) (*Dev, error) {
	if chip != PCF8574 && chip != PCF8575 {
		return nil, fmt.Errorf("pcf857x: unknown variant %q", chip)
	}
	o := DefaultOpts
	if opts != nil {
		o = *opts
	}
	if o.Sleep == nil {
		o.Sleep = time.Sleep
	}
	dev := &Dev{
		d:        &i2c.Dev{Bus: bus, Addr: address},
		chipType: chip,
		opts:     o,
		width:    8,
	}
	if chip == PCF8575 {
		dev.width = 16
	}
	return dev, nil
}

// Transmit writes b to the port and then blocks for the settle delay. On a
// PCF8575 the upper 8 pins are left high.
//
// There is no retry. A bus failure is returned to the caller and the shadow
// value keeps the last byte that reached the chip.
func (dev *Dev) Transmit(b byte) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	w := []byte{b}
	if dev.width > 8 {
		w = append(w, 0xff)
	}
	if err := dev.d.Tx(w, nil); err != nil {
		return fmt.Errorf("pcf857x: %w", err)
	}
	dev.value = b
	dev.tx++
	dev.opts.Sleep(dev.opts.Settle)
	return nil
}

// Value returns the last byte successfully written to the port.
func (dev *Dev) Value() byte {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.value
}

// Transmissions returns the number of successful writes since New.
func (dev *Dev) Transmissions() int {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.tx
}

// Halt implements conn.Resource. The port is left as it is; closing the bus is
// up to whoever opened it.
func (dev *Dev) Halt() error {
	return nil
}

func (dev *Dev) String() string {
	return fmt.Sprintf("%s_%x", dev.chipType, dev.d.Addr)
}

var _ conn.Resource = &Dev{}
