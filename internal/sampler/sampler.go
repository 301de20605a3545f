// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sampler turns raw stick conversions and button reads into filtered
// axis samples, debounced button states and rising-edge events.
package sampler

import "fmt"

const (
	// Interval is the minimum time between two sampling passes, in ms.
	Interval = 10

	MaxAxes    = 8
	MaxButtons = 16

	// RawMax is the largest 12-bit conversion value.
	RawMax = 4095

	// initial axis sample: stick centred, in fixed point
	centerSample = 2048 << FracBits

	historyMask     = 0x0F
	historyReleased = historyMask
	historyPressed  = 0x00
)

// AnalogReader performs one 12-bit conversion (0-4095) on axis i.
type AnalogReader interface {
	ReadAxis(i int) (uint16, error)
}

// DigitalReader reads the level of button i. High (true) means released, as
// the inputs are pulled up and switch to ground.
type DigitalReader interface {
	ReadButton(i int) (bool, error)
}

// Faults receives deduplicated diagnostics.
type Faults interface {
	Reportf(format string, args ...any) bool
}

// Sampler owns the per-axis smoothed samples and the per-button debounce
// state. It is driven by a single control loop and is not safe for concurrent
// use.
type Sampler struct {
	analog  AnalogReader
	digital DigitalReader
	faults  Faults

	axes    []int32 // fixed point, FracBits fractional bits
	history []uint8
	pressed uint16
	edges   uint16

	axisGate   gate
	buttonGate gate
	burst      [SamplesPerAxis]int32
}

// New creates a Sampler for axisCount analog inputs and buttonCount digital
// inputs.
func New(analog AnalogReader, axisCount int, digital DigitalReader, buttonCount int, faults Faults) (*Sampler, error) {
	if axisCount < 0 || axisCount > MaxAxes {
		return nil, fmt.Errorf("sampler: axis count %d out of range 0-%d", axisCount, MaxAxes)
	}
	if buttonCount < 0 || buttonCount > MaxButtons {
		return nil, fmt.Errorf("sampler: button count %d out of range 0-%d", buttonCount, MaxButtons)
	}
	if axisCount > 0 && analog == nil {
		return nil, fmt.Errorf("sampler: %d axes configured without an analog reader", axisCount)
	}
	if buttonCount > 0 && digital == nil {
		return nil, fmt.Errorf("sampler: %d buttons configured without a digital reader", buttonCount)
	}

	s := &Sampler{
		analog:     analog,
		digital:    digital,
		faults:     faults,
		axes:       make([]int32, axisCount),
		history:    make([]uint8, buttonCount),
		axisGate:   gate{interval: Interval},
		buttonGate: gate{interval: Interval},
	}
	for i := range s.axes {
		s.axes[i] = centerSample
	}
	for i := range s.history {
		s.history[i] = historyReleased
	}
	return s, nil
}

// Update samples axes and buttons if at least Interval ms have passed since
// the previous pass. It returns true if a pass ran.
func (s *Sampler) Update(now uint32) bool {
	ranAxes := s.sampleAxes(now)
	ranButtons := s.sampleButtons(now)
	return ranAxes || ranButtons
}

func (s *Sampler) sampleAxes(now uint32) bool {
	if !s.axisGate.ready(now) {
		return false
	}
	for i := range s.axes {
		if err := s.readBurst(i); err != nil {
			s.report("axis %d read failed: %v", i, err)
			continue
		}
		s.axes[i] = blend(s.axes[i], filterBurst(&s.burst))
	}
	return true
}

func (s *Sampler) readBurst(axis int) error {
	for k := range s.burst {
		v, err := s.analog.ReadAxis(axis)
		if err != nil {
			return err
		}
		if v > RawMax {
			v = RawMax
		}
		s.burst[k] = int32(v)
	}
	return nil
}

func (s *Sampler) sampleButtons(now uint32) bool {
	if !s.buttonGate.ready(now) {
		return false
	}
	prev := s.pressed
	for i := range s.history {
		high, err := s.digital.ReadButton(i)
		if err != nil {
			s.report("button %d read failed: %v", i, err)
			high = true
		}
		var bit uint8
		if high {
			bit = 1
		}
		h := ((s.history[i] << 1) | bit) & historyMask
		s.history[i] = h

		mask := uint16(1) << i
		switch h {
		case historyPressed:
			s.pressed |= mask
		case historyReleased:
			s.pressed &^= mask
		}
	}
	s.edges |= (prev ^ s.pressed) & s.pressed
	return true
}

func (s *Sampler) report(format string, args ...any) {
	if s.faults != nil {
		s.faults.Reportf(format, args...)
	}
}

// AxisCount returns the number of configured axes.
func (s *Sampler) AxisCount() int { return len(s.axes) }

// ButtonCount returns the number of configured buttons.
func (s *Sampler) ButtonCount() int { return len(s.history) }

// AxisSample returns the fixed-point sample of axis i, or 0 if i is out of range.
func (s *Sampler) AxisSample(i int) int32 {
	if i < 0 || i >= len(s.axes) {
		return 0
	}
	return s.axes[i]
}

// AxisSamples copies every fixed-point sample into dst and returns it.
func (s *Sampler) AxisSamples(dst []int32) []int32 {
	return append(dst[:0], s.axes...)
}

// AxisRaw returns the sample of axis i rounded to raw units.
func (s *Sampler) AxisRaw(i int) int32 {
	return descale(s.AxisSample(i))
}

// ButtonPressed reports the debounced state of button i.
func (s *Sampler) ButtonPressed(i int) bool {
	if i < 0 || i >= len(s.history) {
		return false
	}
	return s.pressed&(1<<i) != 0
}

// Edges returns the pending rising-edge bitset.
func (s *Sampler) Edges() uint16 { return s.edges }

// HasEdge reports whether button i has a pending rising edge.
func (s *Sampler) HasEdge(i int) bool {
	if i < 0 || i >= len(s.history) {
		return false
	}
	return s.edges&(1<<i) != 0
}

// ClearEdges consumes all pending edges.
func (s *Sampler) ClearEdges() { s.edges = 0 }
