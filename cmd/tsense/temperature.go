package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/tempsensor/cmd/tsense/console"
	"github.com/mklimuk/tempsensor/environment"
	"github.com/mklimuk/tempsensor/pkg/config"
)

var temperatureCmd = cli.Command{
	Name:    "temperature",
	Aliases: []string{"temp"},
	Usage:   "read the current temperature",
	Action: func(c *cli.Context) error {
		return withSensor(c, func(ctx context.Context, cfg config.Config, s *environment.MAX31875) error {
			temp, err := s.GetTemperature(ctx)
			if err != nil {
				return console.ExitErr(err, "error getting temperature read")
			}
			picto := console.PictoThermometer
			if s.OverTemperature() {
				picto = console.PictoFire
			}
			console.PInfof(picto, "%s", console.White(fmt.Sprintf("%.4f°C", temp)))
			return nil
		})
	},
}
