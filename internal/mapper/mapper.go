// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package mapper converts filtered samples and calibration thresholds into
// channel values in [1000, 2000].
package mapper

import (
	"github.com/relabs-tech/hxrc_transmitter/internal/calibration"
	"github.com/relabs-tech/hxrc_transmitter/internal/channels"
)

// Inputs exposes the sampler state the mapper reads.
type Inputs interface {
	AxisRaw(i int) int32
	ButtonPressed(i int) bool
}

// Mapper is stateless apart from its references; every call reads the
// current sample and calibration.
type Mapper struct {
	in       Inputs
	cal      *calibration.Store
	inverted []bool
}

// New returns a Mapper. inverted may be shorter than the axis count; missing
// entries are not inverted.
func New(in Inputs, cal *calibration.Store, inverted []bool) *Mapper {
	inv := make([]bool, len(inverted))
	copy(inv, inverted)
	return &Mapper{in: in, cal: cal, inverted: inv}
}

// MapAxis returns the channel value of axis i.
func (m *Mapper) MapAxis(i int) int32 {
	v := m.in.AxisRaw(i)
	a := m.cal.Axis(i)

	r := int32(channels.Center)
	switch {
	case v < a.MidMin:
		r = mapRange(v, a.MidMin, a.Min, channels.Center, channels.Min)
	case v > a.MidMax:
		r = mapRange(v, a.MidMax, a.Max, channels.Center, channels.Max)
	}
	r = int32(channels.Clamp(r))

	if i >= 0 && i < len(m.inverted) && m.inverted[i] {
		r = channels.Min + channels.Max - r
	}
	return r
}

// MapButton returns Max while button i is pressed and Min otherwise.
func (m *Mapper) MapButton(i int) int32 {
	if m.in.ButtonPressed(i) {
		return channels.Max
	}
	return channels.Min
}

// StickMin reports whether axis i is held towards its low end.
func (m *Mapper) StickMin(i int) bool {
	a := m.cal.Axis(i)
	return m.in.AxisRaw(i) < (a.MidMin+a.Min)/2
}

// StickMax reports whether axis i is held towards its high end.
func (m *Mapper) StickMax(i int) bool {
	a := m.cal.Axis(i)
	return m.in.AxisRaw(i) > (a.MidMax+a.Max)/2
}

// StickMiddle reports whether axis i rests near its centre.
func (m *Mapper) StickMiddle(i int) bool {
	a := m.cal.Axis(i)
	v := m.in.AxisRaw(i)
	return v > (a.Min+a.MidMin*3)/4 && v < (a.MidMax*3+a.Max)/4
}

// mapRange linearly maps x from [inMin, inMax] to [outMin, outMax] with
// integer truncation. A zero-width input range yields outMax.
func mapRange(x, inMin, inMax, outMin, outMax int32) int32 {
	if inMax == inMin {
		return outMax
	}
	return int32(int64(x-inMin)*int64(outMax-outMin)/int64(inMax-inMin)) + outMin
}
