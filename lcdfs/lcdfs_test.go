// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcdfs

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2ctest"

	"github.com/GermanBionicSystems/lcdfs/hd44780"
)

const (
	addr  = hd44780.DefaultBackpackAddress
	light = 0x08
	rs    = 0x01
	en    = 0x04
)

var errBus = errors.New("remote I/O error")

// faultyBus records like i2ctest.Record and fails every transaction once
// fail is set.
type faultyBus struct {
	i2ctest.Record
	fail bool
}

func (b *faultyBus) Tx(addr uint16, w, r []byte) error {
	if b.fail {
		return errBus
	}
	return b.Record.Tx(addr, w, r)
}

var _ i2c.Bus = &faultyBus{}

// nibbles expands values into the port bytes of the 4 bit protocol.
func nibbles(mode byte, values ...byte) []byte {
	var out []byte
	for _, v := range values {
		for _, n := range []byte{v & 0xf0, (v << 4) & 0xf0} {
			out = append(out, mode|n|en, mode|n)
		}
	}
	return out
}

// newDisplay initializes a display on bus and forgets the initialization
// traffic.
func newDisplay(t *testing.T, bus *faultyBus, rows, cols int) *hd44780.Dev {
	t.Helper()
	dev, err := hd44780.NewPCF857xBackpack(bus, addr, &hd44780.Opts{
		Rows:  ClampRows(rows),
		Cols:  ClampCols(cols),
		Sleep: func(time.Duration) {},
	})
	if err != nil {
		t.Fatal(err)
	}
	bus.Ops = nil
	return dev
}

// sent returns the port bytes written since the last call.
func sent(bus *faultyBus) []byte {
	var out []byte
	for _, op := range bus.Ops {
		out = append(out, op.W...)
	}
	bus.Ops = nil
	return out
}

func getTable(t *testing.T, rows, cols int) (*Table, *faultyBus) {
	t.Helper()
	bus := &faultyBus{}
	return NewTable(newDisplay(t, bus, rows, cols), rows, cols), bus
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewTable(t *testing.T) {
	tests := []struct {
		rows, cols int
		names      []string
		wantCols   int
	}{
		{2, 16, []string{"ctl", "row1", "row2"}, 16},
		{4, 20, []string{"ctl", "row1", "row2", "row3", "row4"}, 20},
		{0, 0, []string{"ctl", "row1"}, 1},
		{9, 80, []string{"ctl", "row1", "row2", "row3", "row4"}, MaxCols},
	}
	for _, tt := range tests {
		tbl := NewTable(nil, tt.rows, tt.cols)
		if diff := cmp.Diff(tbl.Names(), tt.names); diff != "" {
			t.Errorf("NewTable(%d, %d) names (-got +want):\n%s", tt.rows, tt.cols, diff)
		}
		if tbl.Rows() != len(tt.names)-1 || tbl.Cols() != tt.wantCols {
			t.Errorf("NewTable(%d, %d) = %dx%d", tt.rows, tt.cols, tbl.Rows(), tbl.Cols())
		}
	}
}

func TestModes(t *testing.T) {
	tests := []struct {
		m        Mode
		r, w     bool
		perm     os.FileMode
		name     string
		permText string
	}{
		{ReadOnly, true, false, 0444, "r", "-r--r--r--"},
		{WriteOnly, false, true, 0220, "w", "--w--w----"},
		{ReadWrite, true, true, 0664, "rw", "-rw-rw-r--"},
		{Mode(0), false, false, 0, "Mode(0)", "----------"},
	}
	for _, tt := range tests {
		if tt.m.CanRead() != tt.r || tt.m.CanWrite() != tt.w {
			t.Errorf("%s: CanRead=%t CanWrite=%t", tt.m, tt.m.CanRead(), tt.m.CanWrite())
		}
		if tt.m.Perm() != tt.perm || tt.m.Perm().String() != tt.permText {
			t.Errorf("%s: Perm()=%s", tt.m, tt.m.Perm())
		}
		if tt.m.String() != tt.name {
			t.Errorf("String()=%q, want %q", tt.m.String(), tt.name)
		}
	}
}

func TestOpen(t *testing.T) {
	tbl := NewTable(nil, 2, 16)
	ep, err := tbl.Open("ctl")
	if err != nil {
		t.Fatal(err)
	}
	if ep.Name != "ctl" || ep.Mode != ReadWrite {
		t.Errorf("ctl = %+v", ep)
	}
	ep, err = tbl.Open("row2")
	if err != nil {
		t.Fatal(err)
	}
	if ep.Mode != WriteOnly {
		t.Errorf("row2 mode %s", ep.Mode)
	}
	for _, name := range []string{"row3", "row0", "", "CTL"} {
		if _, err := tbl.Open(name); !errors.Is(err, ErrNotFound) {
			t.Errorf("Open(%q) = %v, want ErrNotFound", name, err)
		}
	}
}

func TestAccess(t *testing.T) {
	tbl, bus := getTable(t, 2, 16)
	if _, err := tbl.Read("row1"); !errors.Is(err, ErrAccess) {
		t.Errorf("Read(row1) = %v, want ErrAccess", err)
	}
	if _, err := tbl.Write("row9", []byte("x")); !errors.Is(err, ErrNotFound) {
		t.Errorf("Write(row9) = %v, want ErrNotFound", err)
	}
	if got := sent(bus); len(got) != 0 {
		t.Errorf("rejected requests reached the bus: %x", got)
	}
}

func TestTransportError(t *testing.T) {
	tbl, bus := getTable(t, 2, 16)
	bus.fail = true
	_, err := tbl.Write("row1", []byte("x"))
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("Write = %v, want TransportError", err)
	}
	if te.Endpoint != "row1" || !errors.Is(err, errBus) {
		t.Errorf("TransportError %+v", te)
	}
	if errors.Is(err, ErrProtocol) {
		t.Error("bus failure reported as protocol error")
	}
}
