// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/GermanBionicSystems/lcdfs/hd44780"
	"github.com/GermanBionicSystems/lcdfs/lcdfs"
)

// Config is read once at startup, from an optional YAML file and then the
// command line.
type Config struct {
	Rows    int    `yaml:"rows"`
	Cols    int    `yaml:"cols"`
	Service string `yaml:"service"`
	Mount   string `yaml:"mount"`
	// Bus is a periph i2creg bus name. Empty opens the first bus.
	Bus     string `yaml:"bus"`
	Address uint16 `yaml:"address"`

	Listen      string `yaml:"listen"`
	LogLevel    string `yaml:"log_level"`
	Sim         bool   `yaml:"sim"`
	Interactive bool   `yaml:"interactive"`
	MDNS        bool   `yaml:"mdns"`
}

// DefaultConfig is a 16x2 display at the usual backpack address.
func DefaultConfig() Config {
	return Config{
		Rows:     2,
		Cols:     16,
		Service:  "lcdfs",
		Mount:    "/mnt",
		Address:  hd44780.DefaultBackpackAddress,
		Listen:   ":8080",
		LogLevel: "info",
	}
}

// parseFlags builds the configuration from args. Values given on the command
// line win over the file named by -config, which wins over the defaults.
func parseFlags(args []string, stderr io.Writer) (Config, error) {
	def := DefaultConfig()
	f := def
	var path string
	var address uint

	fs := flag.NewFlagSet("lcdfs", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&path, "config", "", "YAML configuration file")
	fs.IntVar(&f.Rows, "rows", def.Rows, "Display rows, 1 to 4")
	fs.IntVar(&f.Cols, "cols", def.Cols, "Display columns, 1 to 40")
	fs.StringVar(&f.Service, "service", def.Service, "Service name, used in the URL and for mDNS")
	fs.StringVar(&f.Mount, "mount", def.Mount, "Mount point, the URL prefix of the service")
	fs.StringVar(&f.Bus, "bus", def.Bus, "I²C bus name (empty for the first bus)")
	fs.UintVar(&address, "addr", uint(def.Address), "I²C address of the backpack")
	fs.StringVar(&f.Listen, "listen", def.Listen, "HTTP listen address")
	fs.StringVar(&f.LogLevel, "log-level", def.LogLevel, "Log level: debug, info, warn, error")
	fs.BoolVar(&f.Sim, "sim", def.Sim, "Drive an emulated display instead of the I²C bus")
	fs.BoolVar(&f.Interactive, "interactive", def.Interactive, "Start an interactive console")
	fs.BoolVar(&f.MDNS, "mdns", def.MDNS, "Advertise the service with mDNS")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if fs.NArg() != 0 {
		return Config{}, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if address > 0x7f {
		return Config{}, &lcdfs.ConfigError{Key: "addr", Err: fmt.Errorf("%#x is not a 7 bit address", address)}
	}
	f.Address = uint16(address)

	c := def
	if path != "" {
		if err := loadConfig(path, &c); err != nil {
			return Config{}, err
		}
	}
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "rows":
			c.Rows = f.Rows
		case "cols":
			c.Cols = f.Cols
		case "service":
			c.Service = f.Service
		case "mount":
			c.Mount = f.Mount
		case "bus":
			c.Bus = f.Bus
		case "addr":
			c.Address = f.Address
		case "listen":
			c.Listen = f.Listen
		case "log-level":
			c.LogLevel = f.LogLevel
		case "sim":
			c.Sim = f.Sim
		case "interactive":
			c.Interactive = f.Interactive
		case "mdns":
			c.MDNS = f.MDNS
		}
	})
	if err := c.normalize(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// loadConfig decodes the YAML file at path over c. Keys missing from the file
// keep their value.
func loadConfig(path string, c *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &lcdfs.ConfigError{Key: "config", Err: err}
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return &lcdfs.ConfigError{Key: "config", Err: fmt.Errorf("%s: %w", path, err)}
	}
	return nil
}

// normalize clamps the geometry and checks the rest.
func (c *Config) normalize() error {
	c.Rows = lcdfs.ClampRows(c.Rows)
	c.Cols = lcdfs.ClampCols(c.Cols)
	if c.Service == "" || strings.ContainsAny(c.Service, "/ ") {
		return &lcdfs.ConfigError{Key: "service", Err: fmt.Errorf("invalid name %q", c.Service)}
	}
	if c.Address > 0x7f {
		return &lcdfs.ConfigError{Key: "address", Err: fmt.Errorf("%#x is not a 7 bit address", c.Address)}
	}
	if _, err := c.Level(); err != nil {
		return &lcdfs.ConfigError{Key: "log_level", Err: err}
	}
	if c.Listen == "" {
		return &lcdfs.ConfigError{Key: "listen", Err: errors.New("empty address")}
	}
	return nil
}

// Level returns the slog level named by LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	err := l.UnmarshalText([]byte(c.LogLevel))
	return l, err
}
