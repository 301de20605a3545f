// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package engine wires the sampler, calibration, mapper and interpreter into
// one context driven by the control loop.
package engine

import (
	"errors"
	"fmt"
	"log"

	"github.com/relabs-tech/hxrc_transmitter/internal/calibration"
	"github.com/relabs-tech/hxrc_transmitter/internal/channels"
	"github.com/relabs-tech/hxrc_transmitter/internal/diag"
	"github.com/relabs-tech/hxrc_transmitter/internal/interpreter"
	"github.com/relabs-tech/hxrc_transmitter/internal/mapper"
	"github.com/relabs-tech/hxrc_transmitter/internal/profile"
	"github.com/relabs-tech/hxrc_transmitter/internal/sampler"
)

// Mode selects what Tick does with fresh samples.
type Mode int

const (
	ModeRun Mode = iota
	ModeRangeCalibration
	ModeCenterCalibration
)

func (m Mode) String() string {
	switch m {
	case ModeRangeCalibration:
		return "range-calibration"
	case ModeCenterCalibration:
		return "center-calibration"
	default:
		return "run"
	}
}

var ErrWrongMode = errors.New("engine: not in the required mode")

// SoundSink plays audio assets requested by mapping actions.
type SoundSink interface {
	Play(path string)
}

// LogSound only logs playback requests.
type LogSound struct{}

func (LogSound) Play(path string) {
	log.Printf("sound: play %s", path)
}

// Profiles provides the active mapping profile.
type Profiles interface {
	Current() (*profile.Profile, int)
	Select(i int) error
	Len() int
}

// Options configures a new Engine.
type Options struct {
	Analog      sampler.AnalogReader
	AxisCount   int
	Digital     sampler.DigitalReader
	ButtonCount int
	Inverted    []bool

	Profiles Profiles
	Sound    SoundSink
	Faults   *diag.Reporter
}

// Engine owns every piece of mutable input state. Only the control loop
// goroutine may call its methods.
type Engine struct {
	faults   *diag.Reporter
	sampler  *sampler.Sampler
	cal      *calibration.Store
	mapper   *mapper.Mapper
	interp   *interpreter.Interpreter
	profiles Profiles

	mode    Mode
	last    channels.Vector
	samples []int32
}

func New(o Options) (*Engine, error) {
	if o.Faults == nil {
		o.Faults = diag.NewReporter()
	}
	if o.Sound == nil {
		o.Sound = LogSound{}
	}
	if o.Profiles == nil {
		o.Profiles = profile.NewManager()
	}
	if o.AxisCount+o.ButtonCount > channels.ProfileSlot {
		return nil, fmt.Errorf("engine: %d axes and %d buttons exceed %d channels",
			o.AxisCount, o.ButtonCount, channels.ProfileSlot)
	}

	s, err := sampler.New(o.Analog, o.AxisCount, o.Digital, o.ButtonCount, o.Faults)
	if err != nil {
		return nil, err
	}
	cal := calibration.NewStore(o.AxisCount)
	m := mapper.New(s, cal, o.Inverted)

	e := &Engine{
		faults:   o.Faults,
		sampler:  s,
		cal:      cal,
		mapper:   m,
		interp:   interpreter.New(m, s, o.Sound, o.Faults),
		profiles: o.Profiles,
		last:     channels.NeutralVector(),
		samples:  make([]int32, 0, o.AxisCount),
	}
	return e, nil
}

// Tick samples the inputs and, in run mode, computes the channel vector. In a
// calibration mode it feeds the running procedure instead and returns false.
func (e *Engine) Tick(now uint32) (channels.Vector, bool) {
	sampled := e.sampler.Update(now)

	switch e.mode {
	case ModeRangeCalibration:
		if sampled {
			e.samples = e.sampler.AxisSamples(e.samples)
			if err := e.cal.StepRange(e.samples); err != nil {
				e.faults.Reportf("range calibration: %v", err)
			}
		}
		return e.last, false
	case ModeCenterCalibration:
		if sampled {
			e.samples = e.sampler.AxisSamples(e.samples)
			if err := e.cal.StepCenter(e.samples); err != nil {
				e.faults.Reportf("center calibration: %v", err)
			}
		}
		return e.last, false
	}

	p, idx := e.profiles.Current()
	var v channels.Vector
	if p.HasMapping() {
		v, _ = e.interp.Run(p, idx, now)
	} else {
		// returning to a mapped profile starts it afresh
		e.interp.Reset()
		v = e.defaultLayout()
	}
	v.SetProfile(idx)
	e.last = v
	return v, true
}

// defaultLayout maps axes to the leading channels and buttons to the ones
// after them.
func (e *Engine) defaultLayout() channels.Vector {
	v := channels.NeutralVector()
	axes := e.sampler.AxisCount()
	for i := 0; i < axes; i++ {
		v[i] = channels.Clamp(e.mapper.MapAxis(i))
	}
	for i := 0; i < e.sampler.ButtonCount(); i++ {
		v[axes+i] = channels.Clamp(e.mapper.MapButton(i))
	}
	return v
}

func (e *Engine) Mode() Mode { return e.mode }

func (e *Engine) Calibration() *calibration.Store { return e.cal }

func (e *Engine) Faults() *diag.Reporter { return e.faults }

func (e *Engine) Mapper() *mapper.Mapper { return e.mapper }

// BeginRangeCalibration suspends channel production and starts measuring the
// stick range. It fails with ErrWrongMode while another procedure runs.
func (e *Engine) BeginRangeCalibration() error {
	if e.mode != ModeRun {
		return ErrWrongMode
	}
	e.cal.BeginRange()
	e.mode = ModeRangeCalibration
	return nil
}

// FinishRangeCalibration commits the measured range and resumes run mode.
func (e *Engine) FinishRangeCalibration() error {
	if e.mode != ModeRangeCalibration {
		return ErrWrongMode
	}
	if err := e.cal.FinishRange(); err != nil {
		return err
	}
	e.resume()
	return nil
}

// BeginCenterCalibration suspends channel production and starts measuring
// the dead zone around the current stick positions. It fails with
// ErrWrongMode while another procedure runs.
func (e *Engine) BeginCenterCalibration() error {
	if e.mode != ModeRun {
		return ErrWrongMode
	}
	e.samples = e.sampler.AxisSamples(e.samples)
	if err := e.cal.BeginCenter(e.samples); err != nil {
		return err
	}
	e.mode = ModeCenterCalibration
	return nil
}

// FinishCenterCalibration commits the measured dead zone and resumes run mode.
func (e *Engine) FinishCenterCalibration() error {
	if e.mode != ModeCenterCalibration {
		return ErrWrongMode
	}
	if err := e.cal.FinishCenter(); err != nil {
		return err
	}
	e.resume()
	return nil
}

// CancelCalibration drops any running procedure and resumes run mode.
func (e *Engine) CancelCalibration() {
	if e.mode == ModeRun {
		return
	}
	e.cal.Cancel()
	e.resume()
}

// resume returns to run mode. Button presses made while calibrating are
// dropped and the profile restarts with its STARTUP pass.
func (e *Engine) resume() {
	e.mode = ModeRun
	e.sampler.ClearEdges()
	e.interp.Reset()
}

// SelectProfile switches the active profile; the interpreter notices the new
// index on the next tick.
func (e *Engine) SelectProfile(i int) error {
	return e.profiles.Select(i)
}

// Snapshot is a read-only view of the engine state for monitoring.
type Snapshot struct {
	Mode     string   `json:"mode"`
	Profile  int      `json:"profile"`
	Name     string   `json:"profile_name,omitempty"`
	Raw      []int32  `json:"raw"`
	Axes     []int32  `json:"axes"`
	Buttons  []bool   `json:"buttons"`
	Edges    uint16   `json:"pending_edges"`
	Channels []uint16 `json:"channels"`
	Loaded   bool     `json:"calibration_loaded"`

	Calibration []calibration.Axis `json:"calibration"`
	Faults      []string           `json:"faults,omitempty"`
	Dropped     int                `json:"faults_dropped,omitempty"`
}

func (e *Engine) Snapshot() Snapshot {
	p, idx := e.profiles.Current()
	s := Snapshot{
		Mode:     e.mode.String(),
		Profile:  idx,
		Edges:    e.sampler.Edges(),
		Channels: e.last.Slice(),
		Loaded:   e.cal.Loaded(),
		Faults:   e.faults.Messages(),
		Dropped:  e.faults.Dropped(),
	}
	if p != nil {
		s.Name = p.Name
	}
	for i := 0; i < e.sampler.AxisCount(); i++ {
		s.Raw = append(s.Raw, e.sampler.AxisRaw(i))
		s.Axes = append(s.Axes, e.mapper.MapAxis(i))
		s.Calibration = append(s.Calibration, e.cal.Axis(i))
	}
	for i := 0; i < e.sampler.ButtonCount(); i++ {
		s.Buttons = append(s.Buttons, e.sampler.ButtonPressed(i))
	}
	return s
}
