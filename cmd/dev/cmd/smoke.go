package cmd

import (
	"bytes"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"
)

// smokeSteps drive the built cli against the sim adapter; each step runs in a
// fresh process so the device starts from power-on values.
var smokeSteps = []struct {
	args   []string
	expect string
}{
	{[]string{"--adapter", "sim", "--sim-temperature", "21.5", "temperature"}, "21.5000"},
	{[]string{"--adapter", "sim", "--part", "5", "config", "show"}, "resolution_bits: 10"},
	{[]string{"--adapter", "sim", "config", "set", "--yes", "--pec", "1", "--rate", "3"}, "committed"},
	{[]string{"--adapter", "sim", "threshold", "get"}, "80.0000"},
}

func SmokeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Run the built cli against the simulated sensor",
		RunE: func(cmd *cobra.Command, args []string) error {
			bin, err := cmd.Flags().GetString("binary")
			if err != nil {
				return fmt.Errorf("could not get binary flag: %w", err)
			}
			for _, step := range smokeSteps {
				var out bytes.Buffer
				run := exec.CommandContext(cmd.Context(), bin, step.args...)
				run.Stdout = &out
				run.Stderr = &out
				slog.Info("smoke", "args", strings.Join(step.args, " "))
				err := run.Run()
				if err != nil {
					return fmt.Errorf("%s %v failed: %w\n%s", bin, step.args, err, out.String())
				}
				if !strings.Contains(out.String(), step.expect) {
					return fmt.Errorf("%s %v: expected %q in output:\n%s", bin, step.args, step.expect, out.String())
				}
			}
			slog.Info("smoke passed", "steps", len(smokeSteps))
			return nil
		},
	}
	cmd.Flags().String("binary", binary, "cli binary to exercise")
	return cmd
}
