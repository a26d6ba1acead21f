// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcdsim

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"sync"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
)

var (
	bezelColor = color.NRGBA{0x20, 0x20, 0x20, 0xff}
	litColor   = color.NRGBA{0x7c, 0xc0, 0x30, 0xff}
	darkColor  = color.NRGBA{0x30, 0x3c, 0x18, 0xff}
)

// Console draws a Screen on a terminal using ANSI color codes, redrawing in
// place on every Refresh.
type Console struct {
	w       io.Writer
	palette ansi256.Palette

	mu    sync.Mutex
	buf   bytes.Buffer
	drawn int
}

// NewConsole returns a Console writing to w, or to stdout when w is nil.
func NewConsole(w io.Writer) *Console {
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	return &Console{w: w, palette: *ansi256.Default}
}

// Refresh draws s over the previous drawing. It has the signature expected by
// Bus.OnChange.
func (c *Console) Refresh(s Screen) {
	_ = c.Draw(s)
}

// Draw draws s and returns the write error, if any.
func (c *Console) Draw(s Screen) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buf.Reset()
	if c.drawn > 0 {
		fmt.Fprintf(&c.buf, "\033[%dA", c.drawn)
	}
	panel := darkColor
	if s.Backlight {
		panel = litColor
	}
	bezel := c.palette.Block(bezelColor)
	for _, line := range s.Lines {
		if !s.DisplayOn {
			line = string(bytes.Repeat([]byte{' '}, len(line)))
		}
		_, _ = c.buf.WriteString("\r\033[0m")
		_, _ = c.buf.WriteString(bezel)
		// Text is black on the panel color.
		_, _ = c.buf.WriteString(c.palette.Block(panel))
		fmt.Fprintf(&c.buf, "\033[30m%s", line)
		_, _ = c.buf.WriteString("\033[0m")
		_, _ = c.buf.WriteString(bezel)
		_, _ = c.buf.WriteString("\033[0m\n")
	}
	c.drawn = len(s.Lines)
	_, err := c.buf.WriteTo(c.w)
	return err
}
