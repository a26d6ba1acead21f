// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcdfs

import (
	"errors"
	"fmt"
)

var (
	// ErrProtocol is the diagnostic returned for every rejected control
	// message.
	ErrProtocol = errors.New("unknown control message")
	// ErrAccess is returned for a read on a write-only endpoint or a write on
	// a read-only one.
	ErrAccess = errors.New("lcdfs: permission denied")
	// ErrNotFound is returned for an endpoint name not in the table.
	ErrNotFound = errors.New("lcdfs: no such endpoint")
	// ErrHalted is returned for every request after a transport failure.
	ErrHalted = errors.New("lcdfs: display halted after bus failure")
)

// ProtocolError is a control message that could not be parsed. Its message is
// always the text of ErrProtocol; Detail is meant for logs.
type ProtocolError struct {
	Input  string
	Detail string
}

func (e *ProtocolError) Error() string {
	return ErrProtocol.Error()
}

func (e *ProtocolError) Unwrap() error {
	return ErrProtocol
}

// TransportError is a bus failure while serving an endpoint. The controller
// state is unknown afterwards.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("lcdfs: %s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ConfigError is a startup configuration problem.
type ConfigError struct {
	Key string
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("lcdfs: config %s: %v", e.Key, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
