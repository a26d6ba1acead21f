// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcdfs

// emitWidth is the number of character positions a row write always covers.
// It does not follow the configured column count.
const emitWidth = 16

// Row serves the text endpoint of one display row.
type Row struct {
	index int
	cols  int
}

// Write shows p on the row. Text longer than the display is cut, bytes
// outside printable ASCII are shown as spaces and the rest of the row is
// blanked. The whole of p is always reported as written so clients never
// retry a truncated line.
func (r *Row) Write(dev Controller, p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	n := min(len(p), r.cols)
	if err := dev.SetRow(r.index); err != nil {
		return 0, err
	}
	for i := range max(n, emitWidth) {
		c := byte(' ')
		if i < n {
			c = printable(p[i])
		}
		if err := dev.WriteChar(c); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

func printable(b byte) byte {
	if b < 0x20 || b > 0x7e {
		return ' '
	}
	return b
}
