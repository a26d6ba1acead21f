// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	periphDisplay "periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

var errBus = errors.New("bus fault")

// fakePort records every byte and fails once failAfter bytes were accepted.
type fakePort struct {
	sent      []byte
	failAfter int
}

func (p *fakePort) Transmit(b byte) error {
	if p.failAfter > 0 && len(p.sent) >= p.failAfter {
		return errBus
	}
	p.sent = append(p.sent, b)
	return nil
}

func (p *fakePort) String() string {
	return "fake"
}

type sleepLog []time.Duration

func (s *sleepLog) sleep(d time.Duration) {
	*s = append(*s, d)
}

// nibbles expands values into the port bytes the encoder must produce.
func nibbles(mode byte, values ...byte) []byte {
	var out []byte
	for _, v := range values {
		for _, n := range []byte{v & 0xf0, (v << 4) & 0xf0} {
			out = append(out, mode|n|bitEnable, mode|n)
		}
	}
	return out
}

func getDev(t *testing.T, rows, cols int) (*Dev, *fakePort, *sleepLog) {
	t.Helper()
	port := &fakePort{}
	sl := &sleepLog{}
	dev, err := New(port, &Opts{Rows: rows, Cols: cols, InitSettle: 5 * time.Millisecond, Sleep: sl.sleep})
	if err != nil {
		t.Fatal(err)
	}
	port.sent = nil
	*sl = nil
	return dev, port, sl
}

func TestInit(t *testing.T) {
	port := &fakePort{}
	var sl sleepLog
	dev, err := New(port, &Opts{Rows: 2, Cols: 16, InitSettle: 5 * time.Millisecond, Sleep: sl.sleep})
	if err != nil {
		t.Fatal(err)
	}
	want := nibbles(bitBacklight, 0x03, 0x03, 0x03, 0x02, 0x28, 0x0c, 0x01, 0x10, 0x06)
	if diff := cmp.Diff(port.sent, want); diff != "" {
		t.Errorf("init sequence (-got +want):\n%s", diff)
	}
	if diff := cmp.Diff([]time.Duration(sl), []time.Duration{5 * time.Millisecond}); diff != "" {
		t.Errorf("init settle (-got +want):\n%s", diff)
	}
	if diff := cmp.Diff(dev.State(), DefaultState()); diff != "" {
		t.Errorf("state after init (-got +want):\n%s", diff)
	}
}

func TestInitFailure(t *testing.T) {
	port := &fakePort{failAfter: 5}
	var sl sleepLog
	_, err := New(port, &Opts{Rows: 2, Cols: 16, Sleep: sl.sleep})
	if !errors.Is(err, errBus) {
		t.Fatalf("New() error = %v, want %v", err, errBus)
	}
	if len(port.sent) != 5 {
		t.Errorf("sent %d bytes after failure, want 5", len(port.sent))
	}
	if len(sl) != 0 {
		t.Error("settle delay after a failed init")
	}
}

func TestNewOpts(t *testing.T) {
	for _, tc := range []struct {
		name       string
		rows, cols int
	}{
		{"zero rows", 0, 16},
		{"five rows", 5, 16},
		{"zero cols", 2, 0},
		{"41 cols", 2, 41},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(&fakePort{}, &Opts{Rows: tc.rows, Cols: tc.cols, Sleep: func(time.Duration) {}}); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestEncoding(t *testing.T) {
	dev, port, _ := getDev(t, 2, 16)
	if err := dev.command(0x28); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(port.sent, []byte{0x2c, 0x28, 0x8c, 0x88}); diff != "" {
		t.Errorf("command 0x28 (-got +want):\n%s", diff)
	}
	port.sent = nil
	if err := dev.WriteChar('A'); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(port.sent, []byte{0x4d, 0x49, 0x1d, 0x19}); diff != "" {
		t.Errorf("char 'A' (-got +want):\n%s", diff)
	}
}

func TestSetRow(t *testing.T) {
	want := []byte{0x00, 0x40, 0x14, 0x54}
	dev, port, _ := getDev(t, 4, 20)
	for row := range 4 {
		port.sent = nil
		if err := dev.SetRow(row); err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(port.sent, nibbles(bitBacklight, 0x80|want[row])); diff != "" {
			t.Errorf("SetRow(%d) (-got +want):\n%s", row, diff)
		}
		if dev.State().Row != row {
			t.Errorf("State().Row=%d, want %d", dev.State().Row, row)
		}
		addr, err := RowAddress(row)
		if err != nil || addr != want[row] {
			t.Errorf("RowAddress(%d)=%#x, %v", row, addr, err)
		}
	}
	if err := dev.SetRow(4); err == nil {
		t.Error("SetRow(4) on a 4 row display should fail")
	}
	if _, err := RowAddress(-1); err == nil {
		t.Error("RowAddress(-1) should fail")
	}
}

func TestBacklight(t *testing.T) {
	dev, port, _ := getDev(t, 2, 16)
	if err := dev.SetBacklight(false); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(port.sent, []byte{0x00}); diff != "" {
		t.Errorf("backlight off (-got +want):\n%s", diff)
	}
	if dev.State().Backlit() {
		t.Error("State().Backlit() after SetBacklight(false)")
	}
	port.sent = nil
	if err := dev.Home(); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(port.sent, nibbles(0, cmdHome)); diff != "" {
		t.Errorf("commands must carry the backlight bit (-got +want):\n%s", diff)
	}
	port.sent = nil
	if err := dev.Backlight(0xff); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(port.sent, []byte{bitBacklight}); diff != "" {
		t.Errorf("backlight on (-got +want):\n%s", diff)
	}
}

func TestDisplay(t *testing.T) {
	dev, port, _ := getDev(t, 2, 16)
	if err := dev.Display(false); err != nil {
		t.Fatal(err)
	}
	if dev.State().DisplayOn() {
		t.Error("DisplayOn() after Display(false)")
	}
	if err := dev.SetDisplay(true); err != nil {
		t.Fatal(err)
	}
	want := append(nibbles(bitBacklight, 0x08), nibbles(bitBacklight, 0x0c)...)
	if diff := cmp.Diff(port.sent, want); diff != "" {
		t.Errorf("display off/on (-got +want):\n%s", diff)
	}
	st := dev.State()
	st.DisplayControl = DefaultState().DisplayControl
	if diff := cmp.Diff(st, DefaultState()); diff != "" {
		t.Errorf("registers other than the on bit changed (-got +want):\n%s", diff)
	}
}

func TestClear(t *testing.T) {
	dev, port, _ := getDev(t, 2, 16)
	before := dev.State()
	if err := dev.Clear(); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(port.sent, nibbles(bitBacklight, cmdClear, cmdHome)); diff != "" {
		t.Errorf("clear (-got +want):\n%s", diff)
	}
	if diff := cmp.Diff(dev.State(), before); diff != "" {
		t.Errorf("clear changed registers (-got +want):\n%s", diff)
	}
}

func TestCursorAndMove(t *testing.T) {
	dev, port, _ := getDev(t, 2, 16)
	if err := dev.Cursor(periphDisplay.CursorBlink); !errors.Is(err, periphDisplay.ErrNotImplemented) {
		t.Errorf("Cursor(CursorBlink)=%v", err)
	}
	if err := dev.AutoScroll(true); !errors.Is(err, periphDisplay.ErrNotImplemented) {
		t.Errorf("AutoScroll()=%v", err)
	}
	if err := dev.Move(periphDisplay.Up); !errors.Is(err, periphDisplay.ErrNotImplemented) {
		t.Errorf("Move(Up)=%v", err)
	}
	if len(port.sent) != 0 {
		t.Errorf("unsupported calls sent %d bytes", len(port.sent))
	}
	if err := dev.Cursor(periphDisplay.CursorOff); err != nil {
		t.Error(err)
	}
	if err := dev.Move(periphDisplay.Forward); err != nil {
		t.Error(err)
	}
	if err := dev.Move(periphDisplay.Backward); err != nil {
		t.Error(err)
	}
	want := nibbles(bitBacklight, 0x0c, 0x14, 0x10)
	if diff := cmp.Diff(port.sent, want); diff != "" {
		t.Errorf("cursor/move (-got +want):\n%s", diff)
	}
}

func TestMoveTo(t *testing.T) {
	dev, port, _ := getDev(t, 4, 20)
	if err := dev.MoveTo(3, 5); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(port.sent, nibbles(bitBacklight, 0x80|(0x14+4))); diff != "" {
		t.Errorf("MoveTo(3,5) (-got +want):\n%s", diff)
	}
	if dev.State().Row != 2 {
		t.Errorf("Row=%d, want 2", dev.State().Row)
	}
	for _, rc := range [][2]int{{0, 1}, {5, 1}, {1, 0}, {1, 21}} {
		if err := dev.MoveTo(rc[0], rc[1]); err == nil {
			t.Errorf("MoveTo(%d,%d) should fail", rc[0], rc[1])
		}
	}
}

func TestWrite(t *testing.T) {
	dev, port, _ := getDev(t, 2, 16)
	n, err := dev.WriteString("Hi")
	if err != nil || n != 2 {
		t.Fatalf("WriteString()=%d, %v", n, err)
	}
	if diff := cmp.Diff(port.sent, nibbles(bitBacklight|bitRS, 'H', 'i')); diff != "" {
		t.Errorf("write (-got +want):\n%s", diff)
	}

	port.sent = nil
	port.failAfter = 6
	n, err = dev.Write([]byte("abc"))
	if !errors.Is(err, errBus) {
		t.Fatalf("Write() error=%v", err)
	}
	if !strings.HasPrefix(err.Error(), packageName) {
		t.Errorf("error %q not wrapped", err)
	}
	if n != 1 {
		t.Errorf("Write() n=%d, want 1", n)
	}
	if len(port.sent) != 6 {
		t.Errorf("transmits after failure: got %d bytes, want 6", len(port.sent))
	}
}

func TestHalt(t *testing.T) {
	dev, port, _ := getDev(t, 2, 16)
	if err := dev.Halt(); err != nil {
		t.Fatal(err)
	}
	want := nibbles(bitBacklight, cmdClear, cmdHome)
	want = append(want, 0x00)
	want = append(want, nibbles(0, 0x08)...)
	if diff := cmp.Diff(port.sent, want); diff != "" {
		t.Errorf("halt (-got +want):\n%s", diff)
	}
	if s := dev.String(); !strings.Contains(s, "fake") {
		t.Errorf("String()=%q", s)
	}
	if dev.Rows() != 2 || dev.Cols() != 16 || dev.MinRow() != 1 || dev.MinCol() != 1 {
		t.Error("geometry")
	}
}

func TestNewPCF857xBackpack(t *testing.T) {
	bus := &i2ctest.Record{}
	dev, err := NewPCF857xBackpack(bus, DefaultBackpackAddress, &Opts{Rows: 2, Cols: 16, Sleep: func(time.Duration) {}})
	if err != nil {
		t.Fatal(err)
	}
	var got []byte
	for _, op := range bus.Ops {
		if op.Addr != DefaultBackpackAddress {
			t.Fatalf("write to %#x", op.Addr)
		}
		got = append(got, op.W...)
	}
	want := nibbles(bitBacklight, 0x03, 0x03, 0x03, 0x02, 0x28, 0x0c, 0x01, 0x10, 0x06)
	if diff := cmp.Diff(got, want, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("bus writes (-got +want):\n%s", diff)
	}
	if !strings.Contains(dev.String(), "PCF8574_27") {
		t.Errorf("String()=%q", dev.String())
	}
}
