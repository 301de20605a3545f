// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package config loads the transmitter configuration from a TOML file.
package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/relabs-tech/hxrc_transmitter/internal/channels"
	"github.com/relabs-tech/hxrc_transmitter/internal/sampler"
)

// Config holds all application configuration values.
type Config struct {
	Tick        TickConfig        `toml:"tick"`
	Inputs      InputsConfig      `toml:"inputs"`
	Calibration CalibrationConfig `toml:"calibration"`
	Profiles    ProfilesConfig    `toml:"profiles"`
	MQTT        MQTTConfig        `toml:"mqtt"`
	Link        LinkConfig        `toml:"link"`
	Web         WebConfig         `toml:"web"`
}

type TickConfig struct {
	IntervalMS int `toml:"interval_ms"`
}

// InputsConfig describes the stick ADC and the button pins.
type InputsConfig struct {
	Mock bool `toml:"mock"`

	// ADS1115 on I2C
	I2CBus        string `toml:"i2c_bus"` // "" selects the first bus
	ADCAddress    uint16 `toml:"adc_address"`
	ADCMillivolts int    `toml:"adc_millivolts"` // full-scale reference
	ADCDataRateHz int    `toml:"adc_data_rate_hz"`

	Axes    []AxisConfig `toml:"axes"`
	Buttons []string     `toml:"buttons"` // GPIO names, active low with pull-up
}

// AxisConfig binds one logical axis to an ADC input.
type AxisConfig struct {
	Channel int  `toml:"channel"` // ADS1115 single-ended input 0-3
	Invert  bool `toml:"invert"`
}

type CalibrationConfig struct {
	Path string `toml:"path"`
}

type ProfilesConfig struct {
	Dir   string `toml:"dir"`
	Index int    `toml:"index"`
}

// MQTTConfig is optional: an empty Broker disables publishing.
type MQTTConfig struct {
	Broker          string `toml:"broker"`
	ClientID        string `toml:"client_id"`
	ClientIDConsole string `toml:"client_id_console"`

	TopicChannels      string `toml:"topic_channels"`
	TopicSound         string `toml:"topic_sound"`
	TopicFaults        string `toml:"topic_faults"`
	TopicProfileSelect string `toml:"topic_profile_select"`
}

// LinkConfig is optional: an empty SerialPort disables the serial link.
type LinkConfig struct {
	SerialPort string `toml:"serial_port"`
	BaudRate   int    `toml:"baud_rate"`
}

// WebConfig is optional: Port 0 disables the HTTP server.
type WebConfig struct {
	Port int `toml:"port"`
}

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}
	md, err := toml.DecodeFile(configPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("unknown config key(s): %s", strings.Join(keys, ", "))
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a configuration for the mock panel with every optional
// output disabled.
func Default() *Config {
	cfg := &Config{}
	cfg.UseMock()
	cfg.applyDefaults()
	return cfg
}

// UseMock switches the inputs to the mock panel. Without configured buttons
// the mock gets four.
func (c *Config) UseMock() {
	c.Inputs.Mock = true
	if c.Inputs.Buttons == nil {
		c.Inputs.Buttons = []string{"MOCK0", "MOCK1", "MOCK2", "MOCK3"}
	}
}

func (c *Config) applyDefaults() {
	if c.Tick.IntervalMS == 0 {
		c.Tick.IntervalMS = 10
	}
	if c.Inputs.ADCAddress == 0 {
		c.Inputs.ADCAddress = 0x48
	}
	if c.Inputs.ADCMillivolts == 0 {
		c.Inputs.ADCMillivolts = 3300
	}
	if c.Inputs.ADCDataRateHz == 0 {
		c.Inputs.ADCDataRateHz = 860
	}
	if len(c.Inputs.Axes) == 0 {
		c.Inputs.Axes = []AxisConfig{{Channel: 0}, {Channel: 1}, {Channel: 2}, {Channel: 3}}
	}
	if c.Inputs.Mock {
		c.UseMock()
	}
	if c.Calibration.Path == "" {
		c.Calibration.Path = "calibration.json"
	}
	if c.Profiles.Dir == "" {
		c.Profiles.Dir = "profiles"
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "hxrc-transmitter"
	}
	if c.MQTT.ClientIDConsole == "" {
		c.MQTT.ClientIDConsole = "hxrc-console-subscriber"
	}
	if c.MQTT.TopicChannels == "" {
		c.MQTT.TopicChannels = "hxrc/channels"
	}
	if c.MQTT.TopicSound == "" {
		c.MQTT.TopicSound = "hxrc/sound"
	}
	if c.MQTT.TopicFaults == "" {
		c.MQTT.TopicFaults = "hxrc/faults"
	}
	if c.MQTT.TopicProfileSelect == "" {
		c.MQTT.TopicProfileSelect = "hxrc/profile/select"
	}
	if c.Link.BaudRate == 0 {
		c.Link.BaudRate = 115200
	}
}

// validate checks that required fields are set and within bounds.
func (c *Config) validate() error {
	if c.Tick.IntervalMS < 1 || c.Tick.IntervalMS > 1000 {
		return fmt.Errorf("tick.interval_ms must be 1-1000, got %d", c.Tick.IntervalMS)
	}

	if len(c.Inputs.Axes) > sampler.MaxAxes {
		return fmt.Errorf("inputs.axes: at most %d axes supported, got %d", sampler.MaxAxes, len(c.Inputs.Axes))
	}
	for i, a := range c.Inputs.Axes {
		if a.Channel < 0 || a.Channel > 3 {
			return fmt.Errorf("inputs.axes[%d].channel must be 0-3, got %d", i, a.Channel)
		}
	}
	if len(c.Inputs.Buttons) > sampler.MaxButtons {
		return fmt.Errorf("inputs.buttons: at most %d buttons supported, got %d", sampler.MaxButtons, len(c.Inputs.Buttons))
	}
	// default layout places axes then buttons below the profile slot
	if n := len(c.Inputs.Axes) + len(c.Inputs.Buttons); n > channels.ProfileSlot {
		return fmt.Errorf("inputs: %d axes+buttons do not fit in %d channels", n, channels.ProfileSlot)
	}
	if c.Inputs.ADCMillivolts <= 0 {
		return fmt.Errorf("inputs.adc_millivolts must be positive, got %d", c.Inputs.ADCMillivolts)
	}
	switch c.Inputs.ADCDataRateHz {
	case 8, 16, 32, 64, 128, 250, 475, 860:
	default:
		return fmt.Errorf("inputs.adc_data_rate_hz %d is not an ADS1115 data rate", c.Inputs.ADCDataRateHz)
	}

	if c.Profiles.Index < 0 {
		return fmt.Errorf("profiles.index must be >= 0, got %d", c.Profiles.Index)
	}
	if c.Link.BaudRate <= 0 {
		return fmt.Errorf("link.baud_rate must be positive, got %d", c.Link.BaudRate)
	}
	if c.Web.Port < 0 || c.Web.Port > 65535 {
		return fmt.Errorf("web.port must be 0-65535, got %d", c.Web.Port)
	}
	return nil
}

// Inverted returns the per-axis invert flags in axis order.
func (c *Config) Inverted() []bool {
	inv := make([]bool, len(c.Inputs.Axes))
	for i, a := range c.Inputs.Axes {
		inv[i] = a.Invert
	}
	return inv
}
