package main

import (
	"context"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/tempsensor/cmd/tsense/console"
	"github.com/mklimuk/tempsensor/environment"
	"github.com/mklimuk/tempsensor/pkg/config"
)

// configView is the YAML rendering of a configuration register value.
type configView struct {
	Address         string   `yaml:"address"`
	Raw             string   `yaml:"raw"`
	Bits            []string `yaml:"bits,flow"`
	Shutdown        bool     `yaml:"shutdown"`
	AlertMode       string   `yaml:"alert_mode"`
	FaultQueue      int      `yaml:"fault_queue"`
	ConversionRate  float64  `yaml:"conversion_rate_hz"`
	PEC             bool     `yaml:"pec"`
	Timeout         bool     `yaml:"timeout"`
	Resolution      int      `yaml:"resolution_bits"`
	Format          string   `yaml:"format"`
	OverTemperature bool     `yaml:"over_temperature"`
}

func newConfigView(address byte, cfg environment.Config) configView {
	return configView{
		Address:         console.Hex(address),
		Raw:             cfg.String(),
		Bits:            cfg.Bits(),
		Shutdown:        cfg.Shutdown() == environment.Shutdown,
		AlertMode:       cfg.AlertMode().String(),
		FaultQueue:      cfg.FaultQueue().Faults(),
		ConversionRate:  cfg.ConversionRate().Hertz(),
		PEC:             cfg.PEC() == environment.PECEnabled,
		Timeout:         cfg.Timeout() == environment.TimeoutEnabled,
		Resolution:      cfg.Resolution().Bits(),
		Format:          cfg.Format().String(),
		OverTemperature: cfg.OverTemperature(),
	}
}

var configCmd = cli.Command{
	Name:  "config",
	Usage: "inspect or change the sensor configuration register",
	Subcommands: cli.Commands{
		&configShowCmd,
		&configSetCmd,
	},
}

var configShowCmd = cli.Command{
	Name:  "show",
	Usage: "print the configuration read from the device",
	Action: func(c *cli.Context) error {
		return withSensor(c, func(ctx context.Context, cfg config.Config, s *environment.MAX31875) error {
			enc := yaml.NewEncoder(console.Writer())
			defer enc.Close()
			err := enc.Encode(newConfigView(s.Address(), s.Active()))
			if err != nil {
				return console.Exit(console.ExitFailure, "encoding error: %s", console.Red(err))
			}
			return nil
		})
	},
}

// fieldFlags maps configuration fields to their config set flags.
var fieldFlags = []struct {
	field environment.Field
	flag  string
	usage string
}{
	{environment.FieldShutdown, "shutdown", "0 continuous conversion, 1 shutdown"},
	{environment.FieldAlertMode, "alert-mode", "0 comparator, 1 interrupt"},
	{environment.FieldFaultQueue, "fault-queue", "0..3 for 1, 2, 4 or 6 faults"},
	{environment.FieldConversionRate, "rate", "0..3 for 0.25, 1, 4 or 8 Hz"},
	{environment.FieldPEC, "pec", "0 disabled, 1 enabled"},
	{environment.FieldTimeout, "timeout", "0 bus time-out enabled, 1 disabled"},
	{environment.FieldResolution, "resolution", "0..3 for 8, 9, 10 or 12 bits"},
	{environment.FieldFormat, "format", "0 normal, 1 extended"},
}

func configSetFlags() []cli.Flag {
	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:    "yes",
			Aliases: []string{"y"},
			Usage:   "commit without asking",
		},
	}
	for _, f := range fieldFlags {
		flags = append(flags, &cli.UintFlag{Name: f.flag, Usage: f.usage})
	}
	return flags
}

var configSetCmd = cli.Command{
	Name:  "set",
	Usage: "change configuration fields and commit them to the device",
	Flags: configSetFlags(),
	Action: func(c *cli.Context) error {
		return withSensor(c, func(ctx context.Context, cfg config.Config, s *environment.MAX31875) error {
			device := s.Active()
			err := adoptActive(s)
			if err != nil {
				return console.ExitErr(err, "could not adopt device configuration")
			}
			desired := cfg.Sensor
			for _, f := range fieldFlags {
				if !c.IsSet(f.flag) {
					continue
				}
				v := c.Uint(f.flag)
				if v > 0xFF {
					return console.Exit(console.ExitUsage, "invalid flag value: --%s %d out of range", f.flag, v)
				}
				desired.Set(f.field, byte(v))
			}
			values := desired.Values()
			if len(values) == 0 {
				return console.Exit(console.ExitUsage, "nothing to set, see --help")
			}
			for _, f := range environment.Fields {
				v, ok := values[f]
				if !ok {
					continue
				}
				err = s.SetField(f, v)
				if err != nil {
					return console.ExitErr(err, "invalid configuration")
				}
			}
			if !changed(device, s.Pending()) {
				console.Infof("configuration already %s, nothing to commit", device)
				return nil
			}
			console.PInfof(console.PictoGear, "%s -> %s", console.White(device), console.Green(s.Pending()))
			if !c.Bool("yes") {
				ok, err := console.Confirm("commit configuration?")
				if err != nil {
					return console.ExitErr(err, "prompt error")
				}
				if !ok {
					console.PInfof(console.PictoStop, "aborted")
					return nil
				}
			}
			err = s.Commit(ctx)
			if err != nil {
				return console.ExitErr(err, "could not commit configuration")
			}
			console.Infof("configuration %s committed", console.Green(s.Active()))
			return nil
		})
	},
}

// changed ignores the read-only status bit.
func changed(from, to environment.Config) bool {
	for _, f := range environment.Fields {
		if from.Get(f) != to.Get(f) {
			return true
		}
	}
	return false
}
