package main

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	chlog "github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/tempsensor/pkg/config"
	"github.com/mklimuk/tempsensor/snsctx"
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	app := newApp()
	err := app.Run(args)
	if err != nil {
		var exerr cli.ExitCoder
		if errors.As(err, &exerr) {
			if msg := err.Error(); msg != "" {
				fmt.Fprintln(cli.ErrWriter, msg)
			}
			return exerr.ExitCode()
		}
		log.Printf("unexpected error: %v", err)
		return 1
	}
	return 0
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "tsense"
	app.EnableBashCompletion = true
	app.Version = fmt.Sprintf("%s-%s-%s", config.Version, config.Date, config.Commit)
	app.Usage = "MAX31875 temperature sensor cli"
	// exit codes are handled by run
	app.ExitErrHandler = func(c *cli.Context, err error) {}
	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "enable verbose logging and adapter frame dumps",
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "path to a YAML configuration file",
		},
		&cli.StringFlag{
			Name:    "adapter",
			Aliases: []string{"a"},
			Value:   config.AdapterMCP2221,
			Usage:   fmt.Sprintf("bus adapter, one of %v", config.Adapters),
		},
		&cli.StringFlag{
			Name:  "device",
			Usage: "i2c bus device for the generic adapter, e.g. /dev/i2c-1",
		},
		&cli.IntFlag{
			Name:  "bus",
			Usage: "i2c bus number for board adaptors",
		},
		&cli.IntFlag{
			Name:  "hid-index",
			Value: -1,
			Usage: "MCP2221 index when several are attached",
		},
		&cli.UintFlag{
			Name:    "part",
			Aliases: []string{"p"},
			Usage:   "MAX31875 part number (address 0x48 + part)",
		},
		&cli.Float64Flag{
			Name:  "sim-temperature",
			Value: 25,
			Usage: "temperature reported by the sim adapter",
		},
		&cli.Float64Flag{
			Name:  "sim-ramp",
			Usage: "change of the sim temperature per conversion",
		},
	}
	app.Before = func(c *cli.Context) error {
		charm := chlog.NewWithOptions(os.Stderr, chlog.Options{
			ReportCaller:    true,
			ReportTimestamp: true,
			TimeFormat:      time.DateTime,
		})
		charm.SetColorProfile(termenv.TrueColor)
		charm.SetLevel(chlog.InfoLevel)
		if c.Bool("verbose") {
			charm.SetLevel(chlog.DebugLevel)
		}
		logger := slog.New(charm)
		slog.SetDefault(logger)
		ctx := snsctx.SetVerbose(c.Context, c.Bool("verbose"))
		c.Context = snsctx.SetLogger(ctx, logger)
		return nil
	}
	app.Commands = cli.Commands{
		&temperatureCmd,
		&configCmd,
		&thresholdCmd,
		&monitorCmd,
		&adapterCmd,
	}
	return app
}
