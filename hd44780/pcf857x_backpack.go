// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

import (
	"periph.io/x/conn/v3/i2c"

	"github.com/GermanBionicSystems/lcdfs/pcf857x"
)

// DefaultBackpackAddress is the factory address of most PCF8574 backpacks
// (A0..A2 pulled high).
const DefaultBackpackAddress uint16 = 0x27

// This function returns a display configured to use the pcf8574 i2c backpacks.
//
// # Product Information
//
// https://www.handsontec.com/dataspecs/I2C_2004_LCD.pdf
//
// The backpack wires the expander as P0=RS, P1=R/W, P2=E, P3=backlight and
// P4..P7=D4..D7. R/W is always written low. To use this, get an I2C bus, and
// call this function with the bus, i2c address and options. A nil opts uses
// DefaultOpts.
func NewPCF857xBackpack(bus i2c.Bus, address uint16, opts *Opts) (*Dev, error) {
	o := DefaultOpts
	if opts != nil {
		o = *opts
	}
	pcf, err := pcf857x.New(bus, address, pcf857x.PCF8574, &pcf857x.Opts{Settle: o.BusSettle, Sleep: o.Sleep})
	if err != nil {
		return nil, wrap(err)
	}
	return New(pcf, &o)
}
