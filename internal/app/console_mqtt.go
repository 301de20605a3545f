// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/relabs-tech/hxrc_transmitter/internal/config"
	"github.com/relabs-tech/hxrc_transmitter/internal/link"
)

// RunConsoleMQTT prints every vector, sound request and fault published by a
// running transmitter until Ctrl+C.
func RunConsoleMQTT(cfg *config.Config) error {
	if cfg.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker is not configured")
	}
	client, err := link.ConnectMQTT(cfg.MQTT, cfg.MQTT.ClientIDConsole)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.SubscribeChannels(func(m link.ChannelsMessage) {
		printChannels(os.Stdout, m)
	}); err != nil {
		return err
	}
	if err := client.SubscribeSound(func(m link.SoundMessage) {
		fmt.Printf("[SND ] %s\n", m.Path)
	}); err != nil {
		return err
	}
	if err := client.SubscribeFaults(func(m link.FaultMessage) {
		fmt.Printf("[DIAG] %s\n", m.Message)
	}); err != nil {
		return err
	}

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	return nil
}

func printChannels(w io.Writer, m link.ChannelsMessage) {
	var b strings.Builder
	fmt.Fprintf(&b, "[CH  ] P%-2d", m.Profile)
	for i, v := range m.Channels {
		fmt.Fprintf(&b, " %2d=%4d", i+1, v)
	}
	fmt.Fprintln(w, b.String())
}
