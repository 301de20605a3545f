// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package hw reads the stick ADC and the button pins of the transmitter
// panel.
package hw

import (
	"fmt"
	"log"

	"github.com/relabs-tech/hxrc_transmitter/internal/config"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"
	"periph.io/x/host/v3"
)

// rawMax is the top of the 12-bit scale the sampler expects.
const rawMax = 4095

// Panel is the set of physical inputs: analog axes and digital buttons.
type Panel interface {
	ReadAxis(i int) (uint16, error)
	ReadButton(i int) (bool, error) // true = high = released
	AxisCount() int
	ButtonCount() int
	Close() error
}

// Open returns the mock panel when cfg.Mock is set and the ADS1115/GPIO panel
// otherwise.
func Open(cfg config.InputsConfig) (Panel, error) {
	if cfg.Mock {
		log.Printf("hw: using mock panel (%d axes, %d buttons)", len(cfg.Axes), len(cfg.Buttons))
		return NewMockPanel(len(cfg.Axes), len(cfg.Buttons)), nil
	}
	return openPeriph(cfg)
}

type periphPanel struct {
	bus     i2c.BusCloser
	adc     *ads1x15.Dev
	axes    []ads1x15.PinADC
	buttons []gpio.PinIO
	maxV    physic.ElectricPotential
}

func openPeriph(cfg config.InputsConfig) (*periphPanel, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}

	bus, err := i2creg.Open(cfg.I2CBus)
	if err != nil {
		return nil, fmt.Errorf("I2C bus %q open: %w", cfg.I2CBus, err)
	}

	adc, err := ads1x15.NewADS1115(bus, &ads1x15.Opts{I2cAddress: cfg.ADCAddress})
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("ADS1115 at 0x%02x: %w", cfg.ADCAddress, err)
	}

	p := &periphPanel{
		bus:  bus,
		adc:  adc,
		maxV: physic.ElectricPotential(cfg.ADCMillivolts) * physic.MilliVolt,
	}
	rate := physic.Frequency(cfg.ADCDataRateHz) * physic.Hertz
	for i, a := range cfg.Axes {
		pin, err := adc.PinForChannel(ads1x15.Channel0+ads1x15.Channel(a.Channel), p.maxV, rate, ads1x15.BestQuality)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("axis %d on ADC channel %d: %w", i, a.Channel, err)
		}
		p.axes = append(p.axes, pin)
	}

	for i, name := range cfg.Buttons {
		pin := gpioreg.ByName(name)
		if pin == nil {
			p.Close()
			return nil, fmt.Errorf("button %d pin %q not found", i, name)
		}
		if err := pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
			p.Close()
			return nil, fmt.Errorf("button %d pin %q input: %w", i, name, err)
		}
		p.buttons = append(p.buttons, pin)
	}

	log.Printf("hw: ADS1115 on %q with %d axes, %d buttons", cfg.I2CBus, len(p.axes), len(p.buttons))
	return p, nil
}

// ReadAxis converts one sample of axis i to the 12-bit scale.
func (p *periphPanel) ReadAxis(i int) (uint16, error) {
	if i < 0 || i >= len(p.axes) {
		return 0, fmt.Errorf("axis %d not configured", i)
	}
	s, err := p.axes[i].Read()
	if err != nil {
		return 0, fmt.Errorf("axis %d read: %w", i, err)
	}
	return scaleRaw(s.V, p.maxV), nil
}

func (p *periphPanel) ReadButton(i int) (bool, error) {
	if i < 0 || i >= len(p.buttons) {
		return true, fmt.Errorf("button %d not configured", i)
	}
	return p.buttons[i].Read() == gpio.High, nil
}

func (p *periphPanel) AxisCount() int   { return len(p.axes) }
func (p *periphPanel) ButtonCount() int { return len(p.buttons) }

func (p *periphPanel) Close() error {
	for _, a := range p.axes {
		a.Halt()
	}
	if p.adc != nil {
		p.adc.Halt()
	}
	return p.bus.Close()
}

// scaleRaw maps a measured potential in [0, maxV] onto [0, rawMax].
func scaleRaw(v, maxV physic.ElectricPotential) uint16 {
	if v <= 0 || maxV <= 0 {
		return 0
	}
	r := int64(v) * rawMax / int64(maxV)
	if r > rawMax {
		r = rawMax
	}
	return uint16(r)
}
