// Package config holds build metadata and the tsense configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mklimuk/tempsensor/environment"
)

// set at build time
var (
	Version = "dev"
	Commit  string
	Date    string
)

const (
	AdapterMCP2221 = "mcp2221"
	AdapterGeneric = "generic"
	AdapterNanoPi  = "nanopi"
	AdapterSim     = "sim"
)

var Adapters = []string{AdapterMCP2221, AdapterGeneric, AdapterNanoPi, AdapterSim}

var ErrInvalidConfig = errors.New("invalid configuration")

// Config describes which bus the sensor hangs off and how it should be configured.
type Config struct {
	Adapter string `yaml:"adapter"`
	// periph bus name for the generic adapter, e.g. /dev/i2c-1
	Device string `yaml:"device,omitempty"`
	// bus number for board adaptors
	Bus int `yaml:"bus"`
	// selects one of several attached MCP2221; negative means the only one
	HIDIndex int    `yaml:"hid_index"`
	Part     byte   `yaml:"part"`
	Sensor   Sensor `yaml:"sensor,omitempty"`
}

// Sensor lists desired raw configuration field codes. Unset fields are left alone.
type Sensor struct {
	Shutdown       *byte `yaml:"shutdown,omitempty"`
	AlertMode      *byte `yaml:"alert_mode,omitempty"`
	FaultQueue     *byte `yaml:"fault_queue,omitempty"`
	ConversionRate *byte `yaml:"conversion_rate,omitempty"`
	PEC            *byte `yaml:"pec,omitempty"`
	Timeout        *byte `yaml:"timeout,omitempty"`
	Resolution     *byte `yaml:"resolution,omitempty"`
	Format         *byte `yaml:"format,omitempty"`
}

func Default() Config {
	return Config{
		Adapter:  AdapterMCP2221,
		HIDIndex: -1,
	}
}

// Load reads a YAML file on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("could not read config file: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	err = dec.Decode(&cfg)
	if err != nil {
		return cfg, fmt.Errorf("could not parse config file %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	known := false
	for _, a := range Adapters {
		if a == c.Adapter {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("%w: unknown adapter %q", ErrInvalidConfig, c.Adapter)
	}
	if c.Part > 7 {
		return fmt.Errorf("%w: part number %d out of range 0..7", ErrInvalidConfig, c.Part)
	}
	scratch := environment.DefaultConfig
	for f, v := range c.Sensor.Values() {
		if err := scratch.Set(f, v); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}

// Values returns the fields that were set, keyed by configuration field.
func (s Sensor) Values() map[environment.Field]byte {
	values := make(map[environment.Field]byte)
	for f, v := range map[environment.Field]*byte{
		environment.FieldShutdown:       s.Shutdown,
		environment.FieldAlertMode:      s.AlertMode,
		environment.FieldFaultQueue:     s.FaultQueue,
		environment.FieldConversionRate: s.ConversionRate,
		environment.FieldPEC:            s.PEC,
		environment.FieldTimeout:        s.Timeout,
		environment.FieldResolution:     s.Resolution,
		environment.FieldFormat:         s.Format,
	} {
		if v != nil {
			values[f] = *v
		}
	}
	return values
}

// Set records a desired value for f.
func (s *Sensor) Set(f environment.Field, v byte) {
	switch f {
	case environment.FieldShutdown:
		s.Shutdown = &v
	case environment.FieldAlertMode:
		s.AlertMode = &v
	case environment.FieldFaultQueue:
		s.FaultQueue = &v
	case environment.FieldConversionRate:
		s.ConversionRate = &v
	case environment.FieldPEC:
		s.PEC = &v
	case environment.FieldTimeout:
		s.Timeout = &v
	case environment.FieldResolution:
		s.Resolution = &v
	case environment.FieldFormat:
		s.Format = &v
	}
}
