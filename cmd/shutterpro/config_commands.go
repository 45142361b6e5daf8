package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"shutterpro/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigShowCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand())

	return configCmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n\n", ctx.configPath)

			rows := [][]string{
				{"Session", cfg.Session.ID},
				{"Objective", cfg.Session.Objective},
				{"Frame type", cfg.Session.FrameType},
				{"Save directory", cfg.Paths.SaveDir},
				{"Log directory", cfg.Paths.LogDir},
				{"GPIO pin", fmt.Sprintf("%d", cfg.Trigger.GPIOPin)},
				{"Pulse", fmt.Sprintf("%.2fs", cfg.Trigger.PulseSeconds)},
				{"Bulb compensation", fmt.Sprintf("%.2fs", cfg.Trigger.CompensationSeconds)},
				{"Remote store", cfg.Remote.BaseURL},
				{"Extensions", strings.Join(cfg.Remote.Extensions, ", ")},
				{"Mount device", cfg.Telemetry.MountDevice},
				{"Weather device", cfg.Telemetry.WeatherDevice},
				{"Solver", cfg.Solver.Binary},
				{"Camera", cfg.Equipment.Camera},
				{"Focal length", fmt.Sprintf("%.0fmm", cfg.Equipment.FocalLengthMM)},
			}
			fmt.Fprintln(out, renderTable([]string{"Setting", "Value"}, rows,
				[]columnAlignment{alignLeft, alignLeft}))
			return nil
		},
	}
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Edit the file to set the session id, remote store URL, and equipment before capturing.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}
