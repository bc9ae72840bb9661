package cmd

import (
	"fmt"

	"github.com/gophertribe/devtool/test"
	"github.com/spf13/cobra"
)

func taskCmd(use, short, what string, task func() error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := task()
			if err != nil {
				return fmt.Errorf("failed to run %s: %w", what, err)
			}
			return nil
		},
	}
}

func TestCmd() *cobra.Command {
	return taskCmd("test", "Run unit tests (sim and playback buses, no hardware)", "tests", func() error { return test.Test() })
}

func LintCmd() *cobra.Command {
	return taskCmd("lint", "Run linting", "linting", func() error { return test.Lint() })
}

func IntegrationTestCmd() *cobra.Command {
	return taskCmd("integration-test", "Run integration tests against attached hardware (MCP2221 + MAX31875)", "integration testing", func() error { return test.Integ() })
}
