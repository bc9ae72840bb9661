package main

import (
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/tempsensor/adapter"
	"github.com/mklimuk/tempsensor/cmd/tsense/console"
	"github.com/mklimuk/tempsensor/pkg/config"
)

var adapterCmd = cli.Command{
	Name:  "adapter",
	Usage: "USB adapter maintenance",
	Subcommands: cli.Commands{
		&adapterListCmd,
		&adapterStatusCmd,
		&adapterReleaseCmd,
	},
}

var adapterListCmd = cli.Command{
	Name:    "ls",
	Aliases: []string{"list"},
	Usage:   "list attached MCP2221 adapters",
	Action: func(c *cli.Context) error {
		devs := adapter.List()
		if len(devs) == 0 {
			console.PInfof(console.PictoStop, "no MCP2221 attached")
			return nil
		}
		for i, dev := range devs {
			console.PInfof(console.PictoPlug, "%s %s %s serial %s", console.White(i), dev.Product, dev.Path, console.White(dev.Serial))
		}
		return nil
	},
}

func mcp2221(c *cli.Context) (*adapter.MCP2221, error) {
	cfg, err := settings(c)
	if err != nil {
		return nil, console.ExitErr(err, "configuration error")
	}
	if cfg.Adapter != config.AdapterMCP2221 {
		return nil, console.Exit(console.ExitUsage, "adapter %s has no status", cfg.Adapter)
	}
	return adapter.NewMCP2221(adapter.WithDeviceIndex(cfg.HIDIndex)), nil
}

var adapterStatusCmd = cli.Command{
	Name:  "status",
	Usage: "print the MCP2221 I2C engine status",
	Action: func(c *cli.Context) error {
		a, err := mcp2221(c)
		if err != nil {
			return err
		}
		status, err := a.Status(c.Context)
		if err != nil {
			return console.ExitErr(err, "adapter communication error")
		}
		return printStatus(status)
	},
}

var adapterReleaseCmd = cli.Command{
	Name:  "release",
	Usage: "cancel the current transfer and release the bus",
	Action: func(c *cli.Context) error {
		a, err := mcp2221(c)
		if err != nil {
			return err
		}
		status, err := a.ReleaseBus(c.Context)
		if err != nil {
			return console.ExitErr(err, "adapter communication error")
		}
		return printStatus(status)
	},
}

func printStatus(status *adapter.MCP2221Status) error {
	enc := yaml.NewEncoder(console.Writer())
	defer enc.Close()
	err := enc.Encode(status)
	if err != nil {
		return console.Exit(console.ExitFailure, "encoding error: %s", console.Red(err))
	}
	return nil
}
