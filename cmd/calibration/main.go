// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/relabs-tech/hxrc_transmitter/internal/app"
	"github.com/relabs-tech/hxrc_transmitter/internal/config"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:          "calibration",
		Short:        "Guided stick range and center calibration",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config from %s: %w", configPath, err)
			}
			return app.RunCalibration(cfg)
		},
	}
	rootCmd.Flags().StringVar(&configPath, "config", "transmitter_config.toml", "Path to configuration file")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}
