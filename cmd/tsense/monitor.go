package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/tempsensor/cmd/tsense/console"
	"github.com/mklimuk/tempsensor/environment"
	"github.com/mklimuk/tempsensor/monitor"
	"github.com/mklimuk/tempsensor/pkg/config"
)

var monitorCmd = cli.Command{
	Name:  "monitor",
	Usage: "sample the sensor periodically and serve Prometheus metrics",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "listen",
			Value: ":9875",
			Usage: "metrics listen address",
		},
		&cli.DurationFlag{
			Name:  "interval",
			Value: monitor.DefaultInterval,
			Usage: "sampling interval",
		},
	},
	Action: func(c *cli.Context) error {
		return withSensor(c, func(ctx context.Context, cfg config.Config, s *environment.MAX31875) error {
			reg := prometheus.NewRegistry()
			m, err := monitor.New(s, reg, monitor.WithInterval(c.Duration("interval")))
			if err != nil {
				return console.ExitErr(err, "monitor setup error")
			}
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			mux := http.NewServeMux()
			mux.Handle("/metrics", monitor.Handler(reg))
			srv := &http.Server{
				Addr:              c.String("listen"),
				Handler:           mux,
				ReadHeaderTimeout: 5 * time.Second,
			}
			go func() {
				slog.InfoContext(ctx, "serving metrics", "addr", srv.Addr, "sensor", console.Hex(s.Address()))
				err := srv.ListenAndServe()
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					slog.ErrorContext(ctx, "metrics server failed", "error", err)
					stop()
				}
			}()
			err = m.Run(ctx)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if serr := srv.Shutdown(shutdownCtx); serr != nil {
				slog.Warn("metrics server shutdown", "error", serr)
			}
			if err != nil {
				return console.ExitErr(err, "monitor failed")
			}
			return nil
		})
	},
}
