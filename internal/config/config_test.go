package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/relabs-tech/hxrc_transmitter/internal/sampler"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "transmitter_config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
[inputs]
buttons = ["GPIO5", "GPIO6"]

[[inputs.axes]]
channel = 0

[[inputs.axes]]
channel = 1
invert = true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Tick.IntervalMS != 10 {
		t.Fatalf("expected default tick 10ms, got %d", cfg.Tick.IntervalMS)
	}
	if cfg.Inputs.ADCAddress != 0x48 {
		t.Fatalf("expected default ADC address 0x48, got %#x", cfg.Inputs.ADCAddress)
	}
	if len(cfg.Inputs.Axes) != 2 {
		t.Fatalf("expected 2 axes, got %d", len(cfg.Inputs.Axes))
	}
	inv := cfg.Inverted()
	if inv[0] || !inv[1] {
		t.Fatalf("unexpected invert flags %v", inv)
	}
	if cfg.MQTT.Broker != "" {
		t.Fatalf("mqtt should stay disabled, got broker %q", cfg.MQTT.Broker)
	}
	if cfg.Calibration.Path != "calibration.json" {
		t.Fatalf("unexpected calibration path %q", cfg.Calibration.Path)
	}
}

func TestLoadRejectsUnknownKey(t *testing.T) {
	path := writeConfig(t, `
[tick]
interval_ms = 10
speed = 3
`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), "tick.speed") {
		t.Fatalf("error should name the key, got %v", err)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"tick too slow", "[tick]\ninterval_ms = 5000\n"},
		{"bad adc channel", "[[inputs.axes]]\nchannel = 7\n"},
		{"bad data rate", "[inputs]\nadc_data_rate_hz = 100\n"},
		{"negative profile", "[profiles]\nindex = -1\n"},
		{"too many buttons", "[inputs]\nbuttons = [" + strings.Repeat(`"B",`, sampler.MaxButtons+1) + "]\n"},
		{"layout overflow", "[inputs]\nbuttons = [" + strings.Repeat(`"B",`, 12) + "]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if !cfg.Inputs.Mock || len(cfg.Inputs.Buttons) != 4 {
		t.Fatalf("default should be a 4-button mock panel, got %+v", cfg.Inputs)
	}
}

func TestUseMockAfterLoad(t *testing.T) {
	path := writeConfig(t, "[tick]\ninterval_ms = 20\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Inputs.Buttons) != 0 {
		t.Fatalf("hardware config without buttons got %v", cfg.Inputs.Buttons)
	}
	cfg.UseMock()
	if !cfg.Inputs.Mock || len(cfg.Inputs.Buttons) != 4 {
		t.Fatalf("mock panel after load: %+v", cfg.Inputs)
	}
	if err := cfg.validate(); err != nil {
		t.Fatal(err)
	}

	path = writeConfig(t, "[inputs]\nbuttons = [\"GPIO5\"]\n")
	if cfg, err = Load(path); err != nil {
		t.Fatal(err)
	}
	cfg.UseMock()
	if len(cfg.Inputs.Buttons) != 1 {
		t.Fatalf("configured buttons must be kept, got %v", cfg.Inputs.Buttons)
	}
}
