package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/dyluth/expkit/internal/config"
	"github.com/dyluth/expkit/internal/printer"
	"github.com/spf13/cobra"
)

var (
	version string
	commit  string
	date    string
)

var (
	settingsPath string
	redisURL     string
	namespace    string

	// settings is populated by PersistentPreRunE before any subcommand runs
	settings *config.Settings
)

var rootCmd = &cobra.Command{
	Use:   "expkit",
	Short: "expkit - experiment configuration and progress toolkit",
	Long: `expkit binds experiment configurations from YAML, TOML, HCL or JSON
documents and tracks the progress of many concurrent workers.

A multi-configuration document holds a "base" record and an ordered list of
"deltas"; each delta is overlaid on the base to produce one configuration.
Progress counts can be aggregated in-process or across processes via Redis.`,
	Version: version,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	PersistentPreRunE: loadSettings,
	// Enable strict flag parsing - unknown flags will cause an error
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
}

// Execute runs the root command. Called once by main.main().
func Execute() error {
	// Errors are printed with colour by the printer package
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&settingsPath, "config", "c", "", "Settings file (yaml, toml, hcl or json)")
	rootCmd.PersistentFlags().StringVar(&redisURL, "redis-url", "", "Redis URL for cross-process progress (overrides "+config.EnvRedisURL+")")
	rootCmd.PersistentFlags().StringVar(&namespace, "namespace", "", "Namespace for progress names (overrides "+config.EnvNamespace+")")
}

// loadSettings resolves settings as: file, then environment, then flags.
func loadSettings(cmd *cobra.Command, args []string) error {
	out := cmdPrinter(cmd)

	var overrides config.Overrides
	if cmd.Flags().Changed("redis-url") {
		overrides.RedisURL = &redisURL
	}
	if cmd.Flags().Changed("namespace") {
		overrides.Namespace = &namespace
	}

	s, err := config.Load(settingsPath, os.Getenv, overrides)
	if errors.Is(err, config.ErrInvalidSettings) {
		return out.Error("invalid settings", err.Error(), nil)
	}
	if err != nil {
		return out.ErrorWithContext(
			"failed to load settings",
			err.Error(),
			map[string]string{"Settings": displayPath(settingsPath)},
			[]string{"Check the settings file for typos or remove --config to use defaults"},
		)
	}

	printer.SetColor(s.Color)
	settings = s
	return nil
}

// cmdPrinter binds a printer to the command's output streams.
func cmdPrinter(cmd *cobra.Command) *printer.Printer {
	return printer.New(cmd.OutOrStdout(), cmd.ErrOrStderr())
}

func displayPath(path string) string {
	if path == "" {
		return "(defaults)"
	}
	return path
}
