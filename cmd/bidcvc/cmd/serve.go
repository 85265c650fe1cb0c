/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ssargent/bidcvc/pkg/api"
	"github.com/ssargent/bidcvc/pkg/config"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start the bidcvc REST API server backed by the archive in the data directory.

Flags override the server section of the config file. When an API key is set,
every /api/v1 route requires it in the X-API-Key header.

Examples:
  bidcvc serve
  bidcvc serve --port 9200 --bind 0.0.0.0 --api-key mysecretkey`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := *appConfig
		applyServeFlags(cmd, &cfg)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServe(ctx, &cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().String("bind", "127.0.0.1", "Address to bind server to")
	serveCmd.Flags().String("api-key", "", "API key required in X-API-Key (empty disables auth)")
	serveCmd.Flags().StringP("data-dir", "d", "", "Archive directory (default: data_dir from config)")
}

func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	cfg.Server.Port = intFlag(cmd, "port", cfg.Server.Port)
	if cmd.Flags().Changed("bind") {
		cfg.Server.Bind, _ = cmd.Flags().GetString("bind")
	}
	if cmd.Flags().Changed("api-key") {
		cfg.Server.APIKey, _ = cmd.Flags().GetString("api-key")
	}
	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir, _ = cmd.Flags().GetString("data-dir")
	}
}

func runServe(ctx context.Context, cfg *config.Config) (err error) {
	if err := cfg.Validate(); err != nil {
		return err
	}

	a, err := openArchive(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer func() {
		if cerr := a.Close(); err == nil {
			err = cerr
		}
	}()

	starter := container.GetServerFactory().CreateServerStarter()
	logger.Info("starting bidcvc server",
		"bind", cfg.Server.Bind,
		"port", cfg.Server.Port,
		"data_dir", cfg.DataDir,
		"auth", cfg.Server.APIKey != "",
	)
	return starter.StartServer(ctx, a, api.ServerConfig{
		Port:   cfg.Server.Port,
		Bind:   cfg.Server.Bind,
		APIKey: cfg.Server.APIKey,
	}, logger)
}
