package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/gophertribe/devtool/build"
)

const (
	binary        = "dist/tsense"
	mainPackage   = "./cmd/tsense"
	configPackage = "github.com/mklimuk/tempsensor/pkg/config"
	builderImage  = "gophertribe/gobuild:1.25-bookworm"
)

// Target is a platform the cli gets released for.
type Target struct {
	OS   string
	Arch string
}

func (t Target) String() string {
	return t.OS + "/" + t.Arch
}

// ReleaseTargets covers desktop hosts driving an MCP2221 and the ARM boards
// with a native i2c bus.
var ReleaseTargets = []Target{
	{OS: "linux", Arch: "amd64"},
	{OS: "linux", Arch: "arm"},
	{OS: "linux", Arch: "arm64"},
}

func native(t Target) bool {
	return t.OS == runtime.GOOS && t.Arch == runtime.GOARCH
}

// goBuild compiles natively or delegates to the builder image, which calls
// back into this tool with the cross-compilation flags.
func goBuild(ctx context.Context, version string, host, cross Target, noCache bool) error {
	if !native(host) {
		return dockerBuild(ctx, version, host, cross, noCache)
	}
	target := host
	if cross.OS != "" && cross.Arch != "" {
		target = cross
	}
	slog.Info("building", "target", target, "version", version)
	return build.GoBuild(binary, mainPackage, build.GoBuildOpts{
		Version:       version,
		InjectVersion: true,
		ConfigPackage: configPackage,
		EnableCgo:     true,
		Arch:          target.Arch,
		OS:            target.OS,
	})
}

func dockerBuild(ctx context.Context, version string, host, cross Target, noCache bool) error {
	slog.Info("building in docker", "host", host, "target", cross, "version", version)
	return build.Docker(ctx, fmt.Sprintf("./dev-%s-%s", host.OS, host.Arch), []string{"build", "--version", version, "--cross-os", cross.OS, "--cross-arch", cross.Arch}, build.DockerBuildOpts{
		NoCache: noCache,
		Image:   builderImage,
	})
}

func BuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build tsense cli",
		RunE: func(cmd *cobra.Command, args []string) error {
			host := Target{OS: cmd.Flag("os").Value.String(), Arch: cmd.Flag("arch").Value.String()}
			cross := Target{OS: cmd.Flag("cross-os").Value.String(), Arch: cmd.Flag("cross-arch").Value.String()}
			noCache, err := cmd.Flags().GetBool("no-cache")
			if err != nil {
				return fmt.Errorf("could not get no-cache flag: %w", err)
			}
			return goBuild(cmd.Context(), cmd.Flag("version").Value.String(), host, cross, noCache)
		},
	}
	cmd.Flags().Bool("no-cache", false, "do not use cache when building the app")
	cmd.Flags().String("version", "latest", "version of the cli")
	cmd.Flags().String("os", runtime.GOOS, "os to build for")
	cmd.Flags().String("arch", runtime.GOARCH, "arch to build for")
	cmd.Flags().String("cross-os", "", "os to cross-compile for")
	cmd.Flags().String("cross-arch", "", "arch to cross-compile for")

	return cmd
}

func ReleaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "release",
		Short: "Cross-build tsense for every release target",
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := cmd.Flags().GetString("version")
			if err != nil {
				return fmt.Errorf("could not get version flag: %w", err)
			}
			noCache, err := cmd.Flags().GetBool("no-cache")
			if err != nil {
				return fmt.Errorf("could not get no-cache flag: %w", err)
			}
			// the builder image is linux/amd64 and carries the cgo cross toolchains
			builder := Target{OS: "linux", Arch: "amd64"}
			for _, target := range ReleaseTargets {
				if native(target) {
					err = goBuild(cmd.Context(), version, target, Target{}, noCache)
				} else {
					err = dockerBuild(cmd.Context(), version, builder, target, noCache)
				}
				if err != nil {
					return fmt.Errorf("release build for %s failed: %w", target, err)
				}
			}
			return nil
		},
	}
	cmd.Flags().Bool("no-cache", false, "do not use cache when building the app")
	cmd.Flags().String("version", "latest", "version of the cli")
	return cmd
}
