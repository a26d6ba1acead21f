// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Command lcdfs serves a character LCD on a PCF8574 I²C backpack as a set of
// endpoints over HTTP.
//
// Usage:
//
//	lcdfs [flags]
//
// With the defaults, the endpoints of a 16x2 display at address 0x27 on the
// first I²C bus are served under http://:8080/mnt/lcdfs/:
//
//	curl localhost:8080/mnt/lcdfs/
//	curl -T - localhost:8080/mnt/lcdfs/row1 <<< "Hello"
//	curl -d 'backlight 0' localhost:8080/mnt/lcdfs/ctl
//	curl localhost:8080/mnt/lcdfs/ctl
//
// -sim drives an emulated display drawn on the terminal, and served as
// screen.png next to the endpoints.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/enbility/zeroconf/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/GermanBionicSystems/lcdfs/hd44780"
	"github.com/GermanBionicSystems/lcdfs/lcdfs"
	"github.com/GermanBionicSystems/lcdfs/lcdsim"
)

// serviceType is the DNS-SD type the service is advertised as.
const serviceType = "_lcdfs._tcp"

func main() {
	cfg, err := parseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		log.Fatalf("lcdfs: %v", err)
	}
	if err := run(cfg); err != nil {
		log.Fatalf("lcdfs: %v", err)
	}
}

func run(cfg Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The console is created first so that the log and the emulated screen go
	// through it instead of overwriting the prompt.
	var con *console
	var stdout, stderr io.Writer = os.Stdout, os.Stderr
	if cfg.Interactive {
		var err error
		if con, err = newConsole(nil); err != nil {
			return err
		}
		defer con.Close()
		stdout, stderr = con.Stdout(), con.Stderr()
	}
	setupLogging(cfg, stderr)

	bus, sim, err := openBus(cfg)
	if err != nil {
		return err
	}
	if sim != nil {
		var w io.Writer
		if con != nil {
			w = stdout
		}
		sim.OnChange(lcdsim.NewConsole(w).Refresh)
	}

	dev, err := hd44780.NewPCF857xBackpack(bus, cfg.Address, &hd44780.Opts{
		Rows:       cfg.Rows,
		Cols:       cfg.Cols,
		BusSettle:  hd44780.DefaultOpts.BusSettle,
		InitSettle: hd44780.DefaultOpts.InitSettle,
		Sleep:      time.Sleep,
	})
	if err != nil {
		_ = bus.Close()
		return fmt.Errorf("initializing display on %s: %w", bus, err)
	}
	slog.Info("display ready", "display", dev.String())

	srv := lcdfs.NewServer(lcdfs.NewTable(dev, cfg.Rows, cfg.Cols), &lcdfs.ServerOpts{
		Logger: slog.Default(),
		Fatal: func(err error) {
			_ = bus.Close()
			log.Fatalf("lcdfs: %v", err)
		},
	})
	h := lcdfs.NewHandler(srv, cfg.Mount, cfg.Service, nil)
	if sim != nil {
		h.Handle("screen.png", lcdsim.ScreenHandler(sim))
	}

	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		_ = bus.Close()
		return &lcdfs.ConfigError{Key: "listen", Err: err}
	}
	hs := &http.Server{Handler: h, ReadHeaderTimeout: 10 * time.Second}
	served := make(chan error, 1)
	go func() {
		served <- hs.Serve(ln)
	}()
	slog.Info("serving", "addr", ln.Addr().String(), "root", h.Root())

	if cfg.MDNS {
		port := ln.Addr().(*net.TCPAddr).Port
		zc, err := advertise(cfg, h.Root(), port)
		if err != nil {
			slog.Warn("mDNS advertisement failed", "err", err)
		} else {
			defer zc.Shutdown()
			slog.Info("advertising", "instance", cfg.Service, "type", serviceType, "port", port)
		}
	}

	if con != nil {
		con.srv = srv
		go con.Run(ctx, stop)
	}

	select {
	case <-ctx.Done():
	case err := <-served:
		slog.Error("HTTP server stopped", "err", err)
	}
	slog.Info("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := hs.Shutdown(sctx); err != nil {
		slog.Warn("HTTP shutdown", "err", err)
	}
	return srv.Close(func() error {
		return errors.Join(dev.Halt(), bus.Close())
	})
}

// openBus opens the configured I²C bus, or an emulated one with -sim. sim is
// only set in the latter case.
func openBus(cfg Config) (bus i2c.BusCloser, sim *lcdsim.Bus, err error) {
	if cfg.Sim {
		sim = lcdsim.New(&lcdsim.Opts{Addr: cfg.Address, Rows: cfg.Rows, Cols: cfg.Cols})
		return sim, sim, nil
	}
	if _, err := host.Init(); err != nil {
		return nil, nil, err
	}
	b, err := i2creg.Open(cfg.Bus)
	if err != nil {
		return nil, nil, &lcdfs.ConfigError{Key: "bus", Err: err}
	}
	return b, nil, nil
}

// advertise registers the service with mDNS on all interfaces.
func advertise(cfg Config, root string, port int) (*zeroconf.Server, error) {
	txt := []string{
		fmt.Sprintf("rows=%d", cfg.Rows),
		fmt.Sprintf("cols=%d", cfg.Cols),
		"path=" + root,
	}
	return zeroconf.Register(cfg.Service, serviceType, "local.", port, txt, nil)
}

func setupLogging(cfg Config, w io.Writer) {
	level, err := cfg.Level()
	if err != nil {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}
