// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcdsim

const (
	displayOn     byte = 0x04
	entryIncrease byte = 0x02
	shiftDisplay  byte = 0x08
	shiftRight    byte = 0x04
)

var rowAddress = [4]byte{0x00, 0x40, 0x14, 0x54}

// controller is the part of the HD44780 a write-only backpack can reach. It
// is always in 4 bit mode.
type controller struct {
	ddram    [0x80]byte
	addr     byte
	cgram    bool
	high     byte
	half     bool
	entry    byte
	display  byte
	shift    byte
	function byte
}

// reset is the power-on state: display off, memory blank, increment mode.
func (c *controller) reset() {
	*c = controller{
		entry:    0x04 | entryIncrease,
		display:  0x08,
		shift:    0x10,
		function: 0x20,
	}
	c.blank()
}

func (c *controller) blank() {
	for i := range c.ddram {
		c.ddram[i] = ' '
	}
}

// latch takes one nibble and runs the instruction once both halves arrived.
// It reports whether the visible content may have changed.
func (c *controller) latch(rs bool, nibble byte) bool {
	if !c.half {
		c.high = nibble << 4
		c.half = true
		return false
	}
	c.half = false
	v := c.high | nibble&0x0f
	if rs {
		return c.data(v)
	}
	return c.command(v)
}

func (c *controller) data(v byte) bool {
	if c.cgram {
		return false
	}
	c.ddram[c.addr&0x7f] = v
	c.advance(c.entry&entryIncrease != 0)
	return true
}

// command decodes an instruction by its highest set bit.
func (c *controller) command(v byte) bool {
	switch {
	case v&0x80 != 0:
		c.addr = v & 0x7f
		c.cgram = false
	case v&0x40 != 0:
		c.cgram = true
	case v&0x20 != 0:
		c.function = v
	case v&0x10 != 0:
		c.shift = v
		if v&shiftDisplay == 0 {
			c.advance(v&shiftRight != 0)
		}
	case v&0x08 != 0:
		changed := c.display != v
		c.display = v
		return changed
	case v&0x04 != 0:
		c.entry = v
	case v&0x02 != 0:
		c.addr = 0
		c.cgram = false
	case v&0x01 != 0:
		c.blank()
		c.addr = 0
		c.cgram = false
		c.entry |= entryIncrease
		return true
	}
	return false
}

// advance moves the address counter through the two 40 character lines of
// 2 line mode: 0x00-0x27 and 0x40-0x67.
func (c *controller) advance(up bool) {
	if up {
		c.addr++
		switch c.addr {
		case 0x28:
			c.addr = 0x40
		case 0x68:
			c.addr = 0x00
		}
		return
	}
	switch c.addr {
	case 0x00:
		c.addr = 0x67
	case 0x40:
		c.addr = 0x27
	default:
		c.addr--
	}
}
