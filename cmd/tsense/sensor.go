package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"
	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"

	"github.com/mklimuk/tempsensor"
	"github.com/mklimuk/tempsensor/adapter"
	"github.com/mklimuk/tempsensor/cmd/tsense/console"
	"github.com/mklimuk/tempsensor/environment"
	"github.com/mklimuk/tempsensor/i2c"
	"github.com/mklimuk/tempsensor/pkg/config"
	"github.com/mklimuk/tempsensor/sim"
)

// simDevice is shared by every command of a process using the sim adapter.
var simDevice *sim.MAX31875

// settings merges the configuration file with flags given on the command line.
func settings(c *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return cfg, err
		}
	}
	if c.IsSet("adapter") || c.String("config") == "" {
		cfg.Adapter = c.String("adapter")
	}
	if c.IsSet("device") {
		cfg.Device = c.String("device")
	}
	if c.IsSet("bus") {
		cfg.Bus = c.Int("bus")
	}
	if c.IsSet("hid-index") {
		cfg.HIDIndex = c.Int("hid-index")
	}
	if c.IsSet("part") {
		part := c.Uint("part")
		if part > 7 {
			return cfg, fmt.Errorf("%w: part number %d out of range 0..7", config.ErrInvalidConfig, part)
		}
		cfg.Part = byte(part)
	}
	return cfg, cfg.Validate()
}

func openBus(c *cli.Context, cfg config.Config) (tempsensor.RegisterBus, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Adapter {
	case config.AdapterMCP2221:
		return adapter.NewMCP2221(adapter.WithDeviceIndex(cfg.HIDIndex)), noop, nil
	case config.AdapterGeneric:
		bus, err := i2c.NewGenericBus(cfg.Device)
		if err != nil {
			return nil, nil, err
		}
		return bus, bus.Close, nil
	case config.AdapterNanoPi:
		npi := nanopi.NewNeoAdaptor()
		err := npi.I2cBusAdaptor.Connect()
		if err != nil {
			return nil, nil, fmt.Errorf("adaptor connect error: %w", err)
		}
		bus := i2c.NewGobotBus(npi, cfg.Bus)
		return bus, func() error {
			return errors.Join(bus.Close(), npi.I2cBusAdaptor.Finalize())
		}, nil
	case config.AdapterSim:
		if simDevice == nil {
			behavior := sim.Constant(c.Float64("sim-temperature"))
			if c.IsSet("sim-ramp") {
				behavior = sim.Ramp(c.Float64("sim-temperature"), c.Float64("sim-ramp"))
			}
			simDevice = sim.NewMAX31875(cfg.Part, sim.WithTemperature(behavior))
		}
		return simDevice, noop, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown adapter %q", config.ErrInvalidConfig, cfg.Adapter)
	}
}

type sensorFunc func(ctx context.Context, cfg config.Config, s *environment.MAX31875) error

// withSensor opens the configured bus, refreshes the sensor configuration so
// the active format and PEC mode match the device, and runs fn.
func withSensor(c *cli.Context, fn sensorFunc) error {
	cfg, err := settings(c)
	if err != nil {
		return console.ExitErr(err, "configuration error")
	}
	bus, closeBus, err := openBus(c, cfg)
	if err != nil {
		return console.ExitErr(err, "adapter initialization error")
	}
	defer func() {
		if err := closeBus(); err != nil {
			console.Warnf("could not close adapter: %s", err)
		}
	}()
	s, err := environment.NewMAX31875(bus, environment.WithPartNumber(cfg.Part))
	if err != nil {
		return console.ExitErr(err, "sensor error")
	}
	ctx := c.Context
	err = s.Refresh(ctx)
	if err != nil {
		return console.ExitErr(err, "could not read sensor configuration")
	}
	return fn(ctx, cfg, s)
}

// adoptActive makes the pending configuration start from what the device reported.
func adoptActive(s *environment.MAX31875) error {
	active := s.Active()
	for _, f := range environment.Fields {
		err := s.SetField(f, active.Get(f))
		if err != nil {
			return err
		}
	}
	return nil
}
