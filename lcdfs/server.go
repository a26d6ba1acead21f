// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcdfs

import (
	"errors"
	"log/slog"
	"sync"
)

// ServerOpts configures a Server.
type ServerOpts struct {
	// Logger receives one record per request. nil uses slog.Default().
	Logger *slog.Logger
	// Fatal is called once, with the request lock held, when a bus write
	// fails. It usually closes the bus and exits the process.
	Fatal func(error)
}

// Server serializes requests to a Table.
//
// A logical operation is several bus writes and the controller only makes
// sense of them in order, so the lock covers a whole Read or Write.
//
// A bus failure leaves the controller in an unknown state. The Server then
// reports the error, calls ServerOpts.Fatal and refuses every later request
// with ErrHalted.
type Server struct {
	table  *Table
	log    *slog.Logger
	fatal  func(error)
	mu     sync.Mutex
	halted error
}

// NewServer returns a Server for t. A nil opts logs to slog.Default() and
// only halts on bus failure.
func NewServer(t *Table, opts *ServerOpts) *Server {
	s := &Server{table: t, log: slog.Default()}
	if opts != nil {
		if opts.Logger != nil {
			s.log = opts.Logger
		}
		s.fatal = opts.Fatal
	}
	return s
}

// Table returns the endpoint table served.
func (s *Server) Table() *Table {
	return s.table
}

// Open resolves name without taking the request lock; the table is
// immutable.
func (s *Server) Open(name string) (Endpoint, error) {
	return s.table.Open(name)
}

// Read serves a read of the named endpoint.
func (s *Server) Read(name string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.halted != nil {
		return nil, ErrHalted
	}
	b, err := s.table.Read(name)
	if err != nil {
		s.failed("read", name, err)
		return nil, err
	}
	s.log.Debug("read", "endpoint", name, "bytes", len(b))
	return b, nil
}

// Write serves a write of p to the named endpoint.
func (s *Server) Write(name string, p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.halted != nil {
		return 0, ErrHalted
	}
	n, err := s.table.Write(name, p)
	if err != nil {
		s.failed("write", name, err)
		return 0, err
	}
	s.log.Debug("write", "endpoint", name, "bytes", len(p), "consumed", n)
	return n, nil
}

// Halted returns the error that halted the server, or nil.
func (s *Server) Halted() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.halted
}

// Close halts the server and runs release under the request lock, so that
// no request is in flight. release usually halts the display and closes the
// bus. Later requests fail with ErrHalted. Close on a halted server only runs
// release.
func (s *Server) Close(release func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.halted == nil {
		s.halted = ErrHalted
	}
	if release == nil {
		return nil
	}
	return release()
}

// failed logs err. A TransportError halts the server. The caller holds s.mu.
func (s *Server) failed(op, name string, err error) {
	var te *TransportError
	if !errors.As(err, &te) {
		s.log.Warn(op+" rejected", "endpoint", name, "err", err, "detail", detail(err))
		return
	}
	s.halted = err
	s.log.Error("bus failure, halting", "op", op, "endpoint", name, "err", err)
	if s.fatal != nil {
		s.fatal(err)
	}
}

func detail(err error) string {
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return pe.Detail
	}
	return ""
}
