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

const defaultConfigPath = "transmitter_config.toml"

var (
	configPath string
	mock       bool
	printVec   bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "transmitter",
		Short:        "Read sticks and buttons, run the mapping profile and send channels",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Println("starting hxrc transmitter")
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if mock {
				cfg.UseMock()
			}
			return app.RunTransmitter(cfg, printVec)
		},
	}
	rootCmd.Flags().StringVar(&configPath, "config", defaultConfigPath, "Path to configuration file")
	rootCmd.Flags().BoolVar(&mock, "mock", false, "Use the mock panel instead of the ADC and GPIO pins")
	rootCmd.Flags().BoolVar(&printVec, "print", false, "Print the channel vector on the console")
	return rootCmd
}
