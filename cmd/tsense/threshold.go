package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/tempsensor/cmd/tsense/console"
	"github.com/mklimuk/tempsensor/environment"
	"github.com/mklimuk/tempsensor/pkg/config"
)

var thresholdCmd = cli.Command{
	Name:    "threshold",
	Aliases: []string{"th"},
	Usage:   "hysteresis and over-temperature limits",
	Subcommands: cli.Commands{
		&thresholdGetCmd,
		&thresholdSetCmd,
	},
}

var thresholdGetCmd = cli.Command{
	Name:  "get",
	Usage: "print both thresholds",
	Action: func(c *cli.Context) error {
		return withSensor(c, func(ctx context.Context, cfg config.Config, s *environment.MAX31875) error {
			hyst, err := s.GetHysteresis(ctx)
			if err != nil {
				return console.ExitErr(err, "could not read hysteresis")
			}
			limit, err := s.GetOverTemperatureLimit(ctx)
			if err != nil {
				return console.ExitErr(err, "could not read over-temperature limit")
			}
			console.PInfof(console.PictoFire, "over-temperature %s", console.White(celsius(limit)))
			console.PInfof(console.PictoSnowflake, "hysteresis %s", console.White(celsius(hyst)))
			return nil
		})
	},
}

var thresholdSetCmd = cli.Command{
	Name:  "set",
	Usage: "write thresholds in the active data format",
	Flags: []cli.Flag{
		&cli.Float64Flag{Name: "hysteresis", Usage: "T_HYST in Celsius"},
		&cli.Float64Flag{Name: "limit", Usage: "T_OS in Celsius"},
	},
	Action: func(c *cli.Context) error {
		if !c.IsSet("hysteresis") && !c.IsSet("limit") {
			return console.Exit(console.ExitUsage, "use --hysteresis and/or --limit")
		}
		return withSensor(c, func(ctx context.Context, cfg config.Config, s *environment.MAX31875) error {
			if c.IsSet("limit") {
				limit := c.Float64("limit")
				err := s.SetOverTemperatureLimit(ctx, limit)
				if err != nil {
					return console.ExitErr(err, "could not write over-temperature limit")
				}
				console.PInfof(console.PictoFire, "over-temperature set to %s", console.Green(celsius(limit)))
			}
			if c.IsSet("hysteresis") {
				hyst := c.Float64("hysteresis")
				err := s.SetHysteresis(ctx, hyst)
				if err != nil {
					return console.ExitErr(err, "could not write hysteresis")
				}
				console.PInfof(console.PictoSnowflake, "hysteresis set to %s", console.Green(celsius(hyst)))
			}
			return nil
		})
	},
}

func celsius(v float64) string {
	return fmt.Sprintf("%.4f°C", v)
}
