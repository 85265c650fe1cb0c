/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ssargent/bidcvc/pkg/config"
)

const (
	serviceName = "bidcvc.service"
	unitPath    = "/etc/systemd/system/" + serviceName
)

type serviceOptions struct {
	configPath string
	user       string
	binary     string
}

// serviceCmd represents the service command
var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Manage the bidcvc API server as a systemd service",
}

var serviceUnitCmd = &cobra.Command{
	Use:   "unit",
	Short: "Print the systemd unit file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := serviceFlags(cmd)
		if err != nil {
			return err
		}
		_, err = io.WriteString(cmd.OutOrStdout(), renderSystemdUnit(appConfig, opts))
		return err
	},
}

var serviceInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install and enable the systemd service",
	Long: `Write the systemd unit to /etc/systemd/system, reload systemd and enable
the service. Requires root.

Example:
  sudo bidcvc service install --config /etc/bidcvc/config.yaml --user bidcvc`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if os.Geteuid() != 0 {
			return fmt.Errorf("service install requires root privileges")
		}
		opts, err := serviceFlags(cmd)
		if err != nil {
			return err
		}
		startNow, _ := cmd.Flags().GetBool("start")

		if err := os.WriteFile(unitPath, []byte(renderSystemdUnit(appConfig, opts)), 0600); err != nil {
			return fmt.Errorf("failed to write unit file: %w", err)
		}
		if err := runSystemctlCommand("daemon-reload"); err != nil {
			return fmt.Errorf("failed to reload systemd: %w", err)
		}
		if err := runSystemctlCommand("enable", serviceName); err != nil {
			return fmt.Errorf("failed to enable service: %w", err)
		}
		if startNow {
			if err := runSystemctlCommand("start", serviceName); err != nil {
				return fmt.Errorf("failed to start service: %w", err)
			}
		}
		cmd.Printf("Installed %s (config %s)\n", serviceName, opts.configPath)
		return nil
	},
}

var serviceUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Stop, disable and remove the systemd service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if os.Geteuid() != 0 {
			return fmt.Errorf("service uninstall requires root privileges")
		}

		_ = runSystemctlCommand("stop", serviceName) // may already be stopped
		if err := runSystemctlCommand("disable", serviceName); err != nil {
			cmd.Printf("Warning: could not disable service: %v\n", err)
		}
		if err := os.Remove(unitPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove unit file: %w", err)
		}
		if err := runSystemctlCommand("daemon-reload"); err != nil {
			return fmt.Errorf("failed to reload systemd: %w", err)
		}
		cmd.Printf("Uninstalled %s. Configuration and data were not removed.\n", serviceName)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serviceCmd)
	serviceCmd.AddCommand(serviceUnitCmd, serviceInstallCmd, serviceUninstallCmd)

	serviceCmd.PersistentFlags().String("user", "bidcvc", "User to run the service as")
	serviceCmd.PersistentFlags().String("binary", "/usr/local/bin/bidcvc", "Path to the bidcvc binary")
	serviceInstallCmd.Flags().Bool("start", true, "Start the service after installation")
}

func serviceFlags(cmd *cobra.Command) (serviceOptions, error) {
	opts := serviceOptions{configPath: cfgFile}
	opts.user, _ = cmd.Flags().GetString("user")
	opts.binary, _ = cmd.Flags().GetString("binary")
	if opts.configPath == "" {
		opts.configPath = config.GetDefaultConfigPath()
	}

	abs, err := filepath.Abs(opts.configPath)
	if err != nil {
		return opts, fmt.Errorf("invalid config path: %w", err)
	}
	opts.configPath = abs
	return opts, nil
}

// renderSystemdUnit returns the unit file that runs bidcvc serve for cfg
func renderSystemdUnit(cfg *config.Config, opts serviceOptions) string {
	return fmt.Sprintf(`[Unit]
Description=bidcvc bitstream API server
After=network-online.target
Wants=network-online.target

[Service]
User=%s
Group=%s
ExecStart=%s serve --config %s
Restart=on-failure
NoNewPrivileges=true
UMask=0077
ReadWritePaths=%s

[Install]
WantedBy=multi-user.target
`, opts.user, opts.user, opts.binary, opts.configPath, cfg.DataDir)
}

// runSystemctlCommand runs a systemctl command
func runSystemctlCommand(args ...string) error {
	return runCommand("systemctl", args...)
}

// runCommand runs a system command and returns its error
func runCommand(command string, args ...string) error {
	cmd := exec.Command(command, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
