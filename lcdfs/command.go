// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcdfs

import (
	"fmt"
	"strconv"
	"strings"
)

// CommandName is one of the control messages accepted by the ctl endpoint.
type CommandName string

const (
	CmdBacklight CommandName = "backlight"
	CmdDisplay   CommandName = "display"
	CmdClear     CommandName = "clear"
)

var commands = map[string]CommandName{
	string(CmdBacklight): CmdBacklight,
	string(CmdDisplay):   CmdDisplay,
	string(CmdClear):     CmdClear,
}

// Command is a parsed control message.
type Command struct {
	Name CommandName
	Arg  int64
}

func (c Command) String() string {
	return fmt.Sprintf("%s %d", c.Name, c.Arg)
}

// ParseCommand parses "<command> <argument>". The argument is an integer in
// Go literal syntax with base prefixes, so "16", "0x10" and "020" are equal.
func ParseCommand(p []byte) (Command, error) {
	fields := strings.Fields(string(p))
	if len(fields) != 2 {
		return Command{}, &ProtocolError{Input: string(p), Detail: fmt.Sprintf("want 2 fields, got %d", len(fields))}
	}
	name, ok := commands[fields[0]]
	if !ok {
		return Command{}, &ProtocolError{Input: string(p), Detail: fmt.Sprintf("unknown command %q", fields[0])}
	}
	arg, err := strconv.ParseInt(fields[1], 0, 64)
	if err != nil {
		return Command{}, &ProtocolError{Input: string(p), Detail: err.Error()}
	}
	return Command{Name: name, Arg: arg}, nil
}

// Apply performs c on dev. A positive argument means on for backlight and
// display; clear does nothing unless its argument is positive.
func (c Command) Apply(dev Controller) error {
	switch c.Name {
	case CmdBacklight:
		return dev.SetBacklight(c.Arg > 0)
	case CmdDisplay:
		return dev.SetDisplay(c.Arg > 0)
	case CmdClear:
		if c.Arg > 0 {
			return dev.Clear()
		}
		return nil
	default:
		return &ProtocolError{Input: c.String(), Detail: "unknown command"}
	}
}
