// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/GermanBionicSystems/lcdfs/lcdfs"
)

// console is a line oriented client of the server on the local terminal.
type console struct {
	srv *lcdfs.Server
	rl  *readline.Instance
}

func newConsole(srv *lcdfs.Server) (*console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "lcdfs> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &console{srv: srv, rl: rl}, nil
}

// Stdout returns a writer that does not mangle the prompt.
func (c *console) Stdout() io.Writer {
	return c.rl.Stdout()
}

// Stderr returns a writer that does not mangle the prompt.
func (c *console) Stderr() io.Writer {
	return c.rl.Stderr()
}

// Close unblocks Run.
func (c *console) Close() error {
	return c.rl.Close()
}

// Run reads commands until exit, end of input or ctx is done. It calls cancel
// when the user leaves.
func (c *console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()
	help(c.rl.Stdout())
	for {
		if ctx.Err() != nil {
			return
		}
		line, err := c.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if ctx.Err() == nil {
				fmt.Fprintln(c.rl.Stdout(), "Exiting...")
				cancel()
			}
			return
		}
		if exec(c.srv, c.rl.Stdout(), line) {
			cancel()
			return
		}
	}
}

// exec runs one command line against srv and reports whether the user asked
// to leave.
func exec(srv *lcdfs.Server, w io.Writer, line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	switch cmd, args := strings.ToLower(parts[0]), parts[1:]; cmd {
	case "help", "?":
		help(w)

	case "ls":
		for _, ep := range srv.Table().Endpoints() {
			fmt.Fprintf(w, "%s %s\n", ep.Mode.Perm(), ep.Name)
		}

	case "cat":
		if len(args) != 1 {
			fmt.Fprintln(w, "usage: cat <endpoint>")
			return false
		}
		b, err := srv.Read(args[0])
		if err != nil {
			fmt.Fprintf(w, "error: %v\n", err)
			return false
		}
		_, _ = w.Write(b)

	case "echo":
		if len(args) < 1 {
			fmt.Fprintln(w, "usage: echo <endpoint> [text...]")
			return false
		}
		text := strings.Join(args[1:], " ")
		if args[0] == "ctl" {
			text += "\n"
		}
		n, err := srv.Write(args[0], []byte(text))
		if err != nil {
			fmt.Fprintf(w, "error: %v\n", err)
			return false
		}
		fmt.Fprintf(w, "%d\n", n)

	case "exit", "quit", "q":
		fmt.Fprintln(w, "Exiting...")
		return true

	default:
		fmt.Fprintf(w, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func help(w io.Writer) {
	fmt.Fprint(w, `Commands:
  ls                       list endpoints
  cat <endpoint>           read an endpoint
  echo <endpoint> [text]   write text to an endpoint
  help                     this text
  exit                     stop the server
`)
}
