/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/bidcvc/pkg/bitstream"
	"github.com/ssargent/bidcvc/pkg/codec"
	"github.com/ssargent/bidcvc/pkg/config"
	"github.com/ssargent/bidcvc/pkg/di"
	"github.com/ssargent/bidcvc/pkg/logging"
)

const (
	exitOK      = 0
	exitFailure = 1
	// exitBitstream covers malformed records and unimplemented model paths.
	exitBitstream = 2
)

var (
	container *di.Container

	cfgFile  string
	logLevel string

	appConfig = config.DefaultConfig()
	logger    = slog.Default()
)

// SetContainer injects the dependency container
func SetContainer(c *di.Container) {
	container = c
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bidcvc",
	Short: "BiDCVC-RT stereo bitstream toolkit",
	Long: `bidcvc builds, inspects, stores and streams BiDCVC-RT stereo bitstreams.

A bitstream is a sequence parameter set (SPS) followed by access units (AUs),
each carrying four opaque segments: L.A, R.A, L.B and R.B.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cfgFile, cmd.Flags().Changed("config"))
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		l, err := logging.New(logging.Options{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			Writer: cmd.ErrOrStderr(),
		})
		if err != nil {
			return err
		}
		slog.SetDefault(l)

		appConfig, logger = cfg, l
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	os.Exit(reportError(rootCmd.ErrOrStderr(), err))
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to config file (default: OS-specific location)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")
}

// resolveConfig loads the config at path. A missing file is an error only
// when the path was given explicitly.
func resolveConfig(path string, explicit bool) (*config.Config, error) {
	if path == "" {
		path = config.GetDefaultConfigPath()
	}
	if !config.ConfigExists(path) {
		if explicit {
			return nil, fmt.Errorf("config file does not exist: %s", path)
		}
		return config.DefaultConfig(), nil
	}
	return config.LoadConfig(path)
}

// reportError prints err to w and returns the process exit code for it.
func reportError(w io.Writer, err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, bitstream.ErrBitstream):
		fmt.Fprintf(w, "BitstreamError: %v\n", err)
		return exitBitstream
	case errors.Is(err, codec.ErrNotImplemented):
		fmt.Fprintln(w, err)
		return exitBitstream
	default:
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitFailure
	}
}

// toU8 checks a flag value against the u8 wire range.
func toU8(flag string, v int) (uint8, error) {
	b, err := bitstream.PackU8(v)
	if err != nil {
		return 0, fmt.Errorf("--%s: %w", flag, err)
	}
	return b[0], nil
}

// toU16 checks a flag value against the u16 wire range.
func toU16(flag string, v int) (uint16, error) {
	b, err := bitstream.PackU16(v)
	if err != nil {
		return 0, fmt.Errorf("--%s: %w", flag, err)
	}
	return bitstream.UnpackU16(b)
}

// intFlag returns the flag value when set on the command line and fallback otherwise.
func intFlag(cmd *cobra.Command, name string, fallback int) int {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetInt(name)
		return v
	}
	return fallback
}

func writeOutput(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
