/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ssargent/bidcvc/pkg/config"
)

type initOptions struct {
	configPath string
	dataDir    string
	force      bool
	printKey   bool
}

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration with a generated API key",
	Long: `Write a default configuration file with a freshly generated API key.

Examples:
  bidcvc init
  bidcvc init --config ./bidcvc.yaml --data-dir ./data --print-key`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := initOptions{configPath: cfgFile}
		opts.dataDir, _ = cmd.Flags().GetString("data-dir")
		opts.force, _ = cmd.Flags().GetBool("force")
		opts.printKey, _ = cmd.Flags().GetBool("print-key")
		return runInit(opts, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringP("data-dir", "d", "./data", "Data directory recorded in the config")
	initCmd.Flags().Bool("force", false, "Overwrite an existing config file")
	initCmd.Flags().Bool("print-key", false, "Print the generated API key")
}

func runInit(opts initOptions, out io.Writer) error {
	if opts.configPath == "" {
		opts.configPath = config.GetDefaultConfigPath()
	}
	if config.ConfigExists(opts.configPath) && !opts.force {
		fmt.Fprintf(out, "Config already exists at %s. Use --force to overwrite.\n", opts.configPath)
		return nil
	}

	cfg, err := config.BootstrapConfig(opts.configPath, opts.dataDir)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Configuration written to %s\n", opts.configPath)
	fmt.Fprintf(out, "Data directory: %s\n", cfg.DataDir)
	if opts.printKey {
		fmt.Fprintf(out, "API key: %s\n", cfg.Server.APIKey)
	}
	fmt.Fprintf(out, "\nStart the server with:\n  bidcvc serve --config %s\n", opts.configPath)
	return nil
}
