package console

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/tempsensor"
	"github.com/mklimuk/tempsensor/environment"
	"github.com/mklimuk/tempsensor/pkg/config"
)

const (
	ExitFailure  = 1
	ExitUsage    = 2
	ExitChecksum = 3
	ExitBusy     = 4
)

func Exit(code int, msg string, args ...interface{}) cli.ExitCoder {
	return cli.Exit(fmt.Sprintf(msg, args...), code)
}

// ExitErr picks an exit code from err and prints it in red after msg.
func ExitErr(err error, msg string) cli.ExitCoder {
	code := ExitFailure
	switch {
	case errors.Is(err, environment.ErrChecksumMismatch):
		code = ExitChecksum
	case errors.Is(err, tempsensor.ErrBusBusy):
		code = ExitBusy
	case errors.Is(err, environment.ErrInvalidFieldValue), errors.Is(err, environment.ErrInvalidPartNumber),
		errors.Is(err, config.ErrInvalidConfig):
		code = ExitUsage
	}
	return Exit(code, "%s: %s", msg, Red(err))
}
