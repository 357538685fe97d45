package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/star/trajectory/internal/config"
)

var exampleUsage = strings.TrimSpace(`
  trajectory serve --config /etc/trajectory.toml
  trajectory position --sat 25544 --time 2026-03-01T12:00:00Z --fields eci,geodetic --angle-unit deg --distance-unit km
  trajectory passes --sat 25544 --time 2026-03-01T00:00:00Z --lat-deg 40.71 --lon-deg -74.01 --hours 48 --min-elevation-deg 10 --angle-unit deg --distance-unit km
  trajectory look-angles --tle-file stations.txt --sat "ISS (ZARYA)" --time 2026-03-01T12:00:00Z --lat-deg 52.5 --lon-deg 13.4 --alt-m 34 --angle-unit deg --distance-unit km
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// newLogger builds the JSON slog logger used by every command.
func newLogger(level string, w *os.File) (*slog.Logger, error) {
	lvl, err := config.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

// loadConfig layers defaults, the TOML file, TRAJECTORY_* variables and the
// flags changed on cmd, in that order of precedence.
func loadConfig(cmd *cobra.Command, cfg *config.Config, cfgPath string, logger *slog.Logger) error {
	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgPath != "" {
		if !config.FileExists(cfgPath) {
			return fmt.Errorf("config file %s does not exist", cfgPath)
		}
		fc, err := config.LoadFile(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := config.ApplyFile(cfg, fc, changed); err != nil {
			return err
		}
	}

	config.ApplyEnv(cfg, changed, logger)

	return cfg.Validate()
}

func main() {
	cfg := config.Default()
	var cfgPath string

	root := &cobra.Command{
		Use:           "trajectory",
		Short:         "Satellite position and look-angle service",
		Long:          "Computes satellite positions (ECI, ECEF, geodetic) and observer look angles from TLE data with SGP4.",
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to TOML config file")
	root.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")

	root.AddCommand(newServeCmd(&cfg, &cfgPath))
	root.AddCommand(newPositionCmd(&cfg, &cfgPath))
	root.AddCommand(newLookAnglesCmd(&cfg, &cfgPath))
	root.AddCommand(newPassesCmd(&cfg, &cfgPath))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "trajectory:", err)
		os.Exit(1)
	}
}
