// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package hw

import (
	"math"
	"time"
)

// MockPanel sweeps every axis along a slow sinusoid and presses the buttons
// one after the other.
type MockPanel struct {
	start   time.Time
	now     func() time.Time
	axes    int
	buttons int
}

// NewMockPanel creates a mock panel that generates smooth changing values.
func NewMockPanel(axes, buttons int) *MockPanel {
	return &MockPanel{
		start:   time.Now(),
		now:     time.Now,
		axes:    axes,
		buttons: buttons,
	}
}

func (m *MockPanel) ReadAxis(i int) (uint16, error) {
	elapsed := m.now().Sub(m.start).Seconds()
	phase := float64(i) * math.Pi / 2
	v := 2048 + 1800*math.Sin(elapsed*0.5+phase)
	return uint16(math.Round(v)), nil
}

// ReadButton holds button i down for the i-th second of a cycle of one
// second per button.
func (m *MockPanel) ReadButton(i int) (bool, error) {
	if m.buttons == 0 {
		return true, nil
	}
	second := int(m.now().Sub(m.start) / time.Second)
	return second%m.buttons != i, nil
}

func (m *MockPanel) AxisCount() int   { return m.axes }
func (m *MockPanel) ButtonCount() int { return m.buttons }
func (m *MockPanel) Close() error     { return nil }
