// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package lcdfs is a container for the packages that serve an HD44780
// character LCD on a PCF8574 I²C backpack as a set of named endpoints.
//
// pcf857x drives the I/O expander, hd44780 the display controller behind it,
// and lcdfs routes endpoint reads and writes to the display. lcdsim emulates
// the backpack and the display for development without the hardware. The
// command is in cmd/lcdfs.
package lcdfs
