// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/relabs-tech/hxrc_transmitter/internal/app"
	"github.com/relabs-tech/hxrc_transmitter/internal/config"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:          "console_mqtt",
		Short:        "Print channels, sounds and faults published by the transmitter",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Println("starting hxrc console (MQTT subscriber)")
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return app.RunConsoleMQTT(cfg)
		},
	}
	rootCmd.Flags().StringVar(&configPath, "config", "transmitter_config.toml", "Path to configuration file")

	if err := rootCmd.Execute(); err != nil {
		log.Printf("fatal: %v", err)
		os.Exit(1)
	}
}
