// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcdfs

import (
	"fmt"

	"github.com/GermanBionicSystems/lcdfs/hd44780"
)

// Control serves the ctl endpoint.
type Control struct{}

// Read returns the state snapshot, one "<command> <value>" line per command.
// clear has no state and always reads 0.
func (Control) Read(dev Controller) ([]byte, error) {
	return Snapshot(dev.State()), nil
}

// Write parses p as one control message and applies it. On success all of p is
// consumed.
func (Control) Write(dev Controller, p []byte) (int, error) {
	cmd, err := ParseCommand(p)
	if err != nil {
		return 0, err
	}
	if err := cmd.Apply(dev); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Snapshot formats s the way the ctl endpoint reports it.
func Snapshot(s hd44780.State) []byte {
	return []byte(fmt.Sprintf("%s %d\n%s %d\n%s 0\n",
		CmdBacklight, b2i(s.Backlit()),
		CmdDisplay, b2i(s.DisplayOn()),
		CmdClear))
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
