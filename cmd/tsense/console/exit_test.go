package console

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mklimuk/tempsensor"
	"github.com/mklimuk/tempsensor/environment"
	"github.com/mklimuk/tempsensor/pkg/config"
)

func TestExitErr(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{errors.New("boom"), ExitFailure},
		{fmt.Errorf("read: %w", environment.ErrChecksumMismatch), ExitChecksum},
		{fmt.Errorf("write: %w", tempsensor.ErrBusBusy), ExitBusy},
		{&environment.FieldError{Field: environment.FieldPEC, Value: 2}, ExitUsage},
		{environment.ErrInvalidPartNumber, ExitUsage},
		{fmt.Errorf("%w: unknown adapter %q", config.ErrInvalidConfig, "usb"), ExitUsage},
	}
	for _, test := range tests {
		t.Run(test.err.Error(), func(t *testing.T) {
			exit := ExitErr(test.err, "failed")
			assert.Equal(t, test.code, exit.ExitCode())
			assert.Contains(t, exit.Error(), "failed: ")
			assert.Contains(t, exit.Error(), test.err.Error())
		})
	}
}
