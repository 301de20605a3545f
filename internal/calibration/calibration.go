// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package calibration holds the per-axis stick thresholds and the two
// operator-driven procedures that measure them.
//
// Thresholds are stored in raw units (0-4096). The procedures work on the
// sampler's fixed-point values (raw << 2) and descale when they finish.
package calibration

import (
	"errors"
	"fmt"
	"io"
)

const (
	fracBits = 2

	// rangeStartMin is the largest fixed-point sample, the starting point
	// for the running minimum.
	rangeStartMin = 4095 << fracBits

	// centerMarginFixed widens the dead zone on both sides, in fixed point.
	centerMarginFixed = 4
)

// Axis holds the calibration thresholds of one stick axis.
// Expected ordering: Min <= MidMin <= MidMax <= Max.
type Axis struct {
	Min    int32 `json:"min"`
	Max    int32 `json:"max"`
	MidMin int32 `json:"midMin"`
	MidMax int32 `json:"midMax"`
}

// DefaultAxis is used for any axis that has not been calibrated or loaded.
var DefaultAxis = Axis{Min: 0, Max: 4096, MidMin: 2048 - 200, MidMax: 2048 + 200}

type Procedure int

const (
	ProcedureNone Procedure = iota
	ProcedureRange
	ProcedureCenter
)

func (p Procedure) String() string {
	switch p {
	case ProcedureRange:
		return "range"
	case ProcedureCenter:
		return "center"
	default:
		return "none"
	}
}

var (
	ErrNotInProgress = errors.New("calibration: procedure not in progress")
	ErrAxisCount     = errors.New("calibration: sample count does not match axis count")
)

// Store is the calibration table for a fixed number of axes.
type Store struct {
	axes   []Axis
	loaded bool

	proc   Procedure
	lo, hi []int32 // fixed point, valid while proc != ProcedureNone
}

// NewStore returns a store of n axes set to DefaultAxis.
func NewStore(n int) *Store {
	s := &Store{
		axes: make([]Axis, n),
		lo:   make([]int32, n),
		hi:   make([]int32, n),
	}
	s.Reset()
	return s
}

// Reset restores every axis to DefaultAxis and marks the store as not loaded.
func (s *Store) Reset() {
	for i := range s.axes {
		s.axes[i] = DefaultAxis
	}
	s.loaded = false
}

// Len returns the number of axes.
func (s *Store) Len() int { return len(s.axes) }

// Axis returns the thresholds of axis i, or DefaultAxis if i is out of range.
func (s *Store) Axis(i int) Axis {
	if i < 0 || i >= len(s.axes) {
		return DefaultAxis
	}
	return s.axes[i]
}

// SetAxis replaces the thresholds of axis i.
func (s *Store) SetAxis(i int, a Axis) error {
	if i < 0 || i >= len(s.axes) {
		return fmt.Errorf("calibration: axis %d out of range 0-%d", i, len(s.axes)-1)
	}
	s.axes[i] = a
	return nil
}

// Loaded reports whether the last Load succeeded.
func (s *Store) Loaded() bool { return s.loaded }

// InProgress returns the running procedure, if any.
func (s *Store) InProgress() Procedure { return s.proc }

// BeginRange starts range calibration: the running minimum starts at the top
// of the scale and the running maximum at zero.
func (s *Store) BeginRange() {
	for i := range s.axes {
		s.lo[i] = rangeStartMin
		s.hi[i] = 0
	}
	s.proc = ProcedureRange
}

// StepRange widens the running range to include samples.
func (s *Store) StepRange(samples []int32) error {
	if s.proc != ProcedureRange {
		return ErrNotInProgress
	}
	return s.bracket(samples)
}

// FinishRange commits the measured range in raw units.
func (s *Store) FinishRange() error {
	if s.proc != ProcedureRange {
		return ErrNotInProgress
	}
	for i := range s.axes {
		s.axes[i].Min = s.lo[i] >> fracBits
		s.axes[i].Max = s.hi[i] >> fracBits
	}
	s.proc = ProcedureNone
	return nil
}

// BeginCenter starts center calibration at the current samples.
func (s *Store) BeginCenter(samples []int32) error {
	if len(samples) != len(s.axes) {
		return ErrAxisCount
	}
	copy(s.lo, samples)
	copy(s.hi, samples)
	s.proc = ProcedureCenter
	return nil
}

// StepCenter widens the running dead zone to include samples.
func (s *Store) StepCenter(samples []int32) error {
	if s.proc != ProcedureCenter {
		return ErrNotInProgress
	}
	return s.bracket(samples)
}

// FinishCenter adds a margin of a tenth of the measured span plus one raw
// unit on each side and commits the dead zone in raw units.
func (s *Store) FinishCenter() error {
	if s.proc != ProcedureCenter {
		return ErrNotInProgress
	}
	for i := range s.axes {
		margin := (s.hi[i]-s.lo[i])/10 + centerMarginFixed
		s.axes[i].MidMin = (s.lo[i] - margin) >> fracBits
		s.axes[i].MidMax = (s.hi[i] + margin) >> fracBits
	}
	s.proc = ProcedureNone
	return nil
}

// Cancel drops a running procedure without touching the committed values.
func (s *Store) Cancel() {
	s.proc = ProcedureNone
}

// Pending returns the running low/high brackets in raw units of axis i.
func (s *Store) Pending(i int) (lo, hi int32, ok bool) {
	if s.proc == ProcedureNone || i < 0 || i >= len(s.axes) {
		return 0, 0, false
	}
	return s.lo[i] >> fracBits, s.hi[i] >> fracBits, true
}

func (s *Store) bracket(samples []int32) error {
	if len(samples) != len(s.axes) {
		return ErrAxisCount
	}
	for i, v := range samples {
		if v < s.lo[i] {
			s.lo[i] = v
		}
		if v > s.hi[i] {
			s.hi[i] = v
		}
	}
	return nil
}

// Dump writes a per-axis table of the thresholds.
func (s *Store) Dump(w io.Writer) {
	fmt.Fprintf(w, "axis  %6s %6s %6s %6s\n", "min", "midMin", "midMax", "max")
	for i, a := range s.axes {
		fmt.Fprintf(w, "%4d  %6d %6d %6d %6d\n", i, a.Min, a.MidMin, a.MidMax, a.Max)
	}
	if !s.loaded {
		fmt.Fprintln(w, "(calibration not loaded from storage)")
	}
}
