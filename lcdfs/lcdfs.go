// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package lcdfs exposes a character LCD as a small set of named endpoints, in
// the manner of a synthetic file system.
//
// Each display row is a write-only endpoint named "row1" to "row4": writing to
// it replaces the text of that row. The read/write "ctl" endpoint accepts
// control messages
//
//	backlight <n>	backlight on if n > 0, off otherwise
//	display <n>	display on if n > 0, off otherwise
//	clear <n>	clear the display if n > 0
//
// and reading it reports the current state in the same syntax.
//
// A Table routes requests to the endpoint handlers. A Server serializes
// requests on a Table and turns a bus failure into a halt. Handler serves a
// Server over HTTP.
package lcdfs

import (
	"errors"
	"fmt"
	"os"

	"github.com/GermanBionicSystems/lcdfs/hd44780"
)

const (
	// MaxRows is the largest number of row endpoints.
	MaxRows = 4
	// MaxCols is the widest supported display. Wider lines wrap to the next
	// row on these controllers.
	MaxCols = 40

	ctlName = "ctl"
)

// Controller is the display the endpoints drive. *hd44780.Dev implements it.
type Controller interface {
	SetBacklight(on bool) error
	SetDisplay(on bool) error
	Clear() error
	SetRow(row int) error
	WriteChar(b byte) error
	State() hd44780.State
}

// Reader is implemented by handlers of readable endpoints.
type Reader interface {
	Read(dev Controller) ([]byte, error)
}

// Writer is implemented by handlers of writable endpoints.
type Writer interface {
	Write(dev Controller, p []byte) (int, error)
}

// Mode is the access mode of an endpoint.
type Mode int

const (
	ReadOnly Mode = iota + 1
	WriteOnly
	ReadWrite
)

// CanRead reports whether the endpoint accepts reads.
func (m Mode) CanRead() bool {
	return m == ReadOnly || m == ReadWrite
}

// CanWrite reports whether the endpoint accepts writes.
func (m Mode) CanWrite() bool {
	return m == WriteOnly || m == ReadWrite
}

// Perm returns the file permission advertised for the mode.
func (m Mode) Perm() os.FileMode {
	switch m {
	case ReadOnly:
		return 0444
	case WriteOnly:
		return 0220
	case ReadWrite:
		return 0664
	}
	return 0
}

func (m Mode) String() string {
	switch m {
	case ReadOnly:
		return "r"
	case WriteOnly:
		return "w"
	case ReadWrite:
		return "rw"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Endpoint is a named entry of the Table.
type Endpoint struct {
	Name string
	Mode Mode

	reader Reader
	writer Writer
}

// Table maps endpoint names to handlers. It is built once and never changes.
//
// Table does no locking; use a Server when requests can arrive concurrently.
type Table struct {
	dev       Controller
	rows      int
	cols      int
	endpoints []*Endpoint
	byName    map[string]*Endpoint
}

// ClampRows limits rows to [1, MaxRows].
func ClampRows(rows int) int {
	return min(max(rows, 1), MaxRows)
}

// ClampCols limits cols to [1, MaxCols].
func ClampCols(cols int) int {
	return min(max(cols, 1), MaxCols)
}

// NewTable returns the endpoints for a display of rows by cols: ctl and one
// row endpoint per row. Both sizes are clamped.
func NewTable(dev Controller, rows, cols int) *Table {
	t := &Table{
		dev:    dev,
		rows:   ClampRows(rows),
		cols:   ClampCols(cols),
		byName: make(map[string]*Endpoint),
	}
	ctl := Control{}
	t.add(&Endpoint{Name: ctlName, Mode: ReadWrite, reader: ctl, writer: ctl})
	for i := range t.rows {
		t.add(&Endpoint{
			Name:   fmt.Sprintf("row%d", i+1),
			Mode:   WriteOnly,
			writer: &Row{index: i, cols: t.cols},
		})
	}
	return t
}

func (t *Table) add(ep *Endpoint) {
	t.endpoints = append(t.endpoints, ep)
	t.byName[ep.Name] = ep
}

// Rows returns the number of row endpoints.
func (t *Table) Rows() int {
	return t.rows
}

// Cols returns the configured column count.
func (t *Table) Cols() int {
	return t.cols
}

// Endpoints returns the endpoints in table order.
func (t *Table) Endpoints() []Endpoint {
	out := make([]Endpoint, len(t.endpoints))
	for i, ep := range t.endpoints {
		out[i] = *ep
	}
	return out
}

// Names returns the endpoint names in table order.
func (t *Table) Names() []string {
	names := make([]string, len(t.endpoints))
	for i, ep := range t.endpoints {
		names[i] = ep.Name
	}
	return names
}

// Open resolves name. There is no authentication, so any existing endpoint
// can be opened.
func (t *Table) Open(name string) (Endpoint, error) {
	ep, ok := t.byName[name]
	if !ok {
		return Endpoint{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return *ep, nil
}

// Read returns the content of the endpoint.
func (t *Table) Read(name string) ([]byte, error) {
	ep, err := t.Open(name)
	if err != nil {
		return nil, err
	}
	if !ep.Mode.CanRead() || ep.reader == nil {
		return nil, fmt.Errorf("%w: read %s", ErrAccess, name)
	}
	b, err := ep.reader.Read(t.dev)
	if err != nil {
		return nil, t.classify(name, err)
	}
	return b, nil
}

// Write hands p to the endpoint. An empty p is accepted without touching
// the display.
func (t *Table) Write(name string, p []byte) (int, error) {
	ep, err := t.Open(name)
	if err != nil {
		return 0, err
	}
	if !ep.Mode.CanWrite() || ep.writer == nil {
		return 0, fmt.Errorf("%w: write %s", ErrAccess, name)
	}
	if len(p) == 0 {
		return 0, nil
	}
	n, err := ep.writer.Write(t.dev, p)
	if err != nil {
		return 0, t.classify(name, err)
	}
	return n, nil
}

// classify turns anything that is not a protocol error into a TransportError.
func (t *Table) classify(name string, err error) error {
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return err
	}
	return &TransportError{Endpoint: name, Err: err}
}
