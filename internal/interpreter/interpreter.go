// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package interpreter executes a profile's mapping actions once per tick to
// build the channel vector.
package interpreter

import (
	"math"

	"github.com/relabs-tech/hxrc_transmitter/internal/channels"
	"github.com/relabs-tech/hxrc_transmitter/internal/profile"
)

const (
	// minStep is the smallest elapsed time, in ms, worth integrating;
	// shorter passes leave the timestamp alone so time keeps accruing.
	minStep = 10
	// maxStep rejects stale gaps such as the first pass after boot.
	maxStep = 100

	// additiveScale is the fixed-point scale of the ADDITIVE accumulator.
	additiveScale = 10000
)

// Mapper provides normalized input values.
type Mapper interface {
	MapAxis(i int) int32
	MapButton(i int) int32
}

// Edges is the pending rising-edge set of the buttons.
type Edges interface {
	HasEdge(i int) bool
	ClearEdges()
}

// Sound plays an audio asset.
type Sound interface {
	Play(path string)
}

// Faults receives deduplicated diagnostics.
type Faults interface {
	Reportf(format string, args ...any) bool
}

// Interpreter keeps the state that survives between passes: the previous
// vector, the ADDITIVE carries and the profile last seen.
type Interpreter struct {
	mapper Mapper
	edges  Edges
	sound  Sound
	faults Faults

	prev        channels.Vector
	acc         [channels.Count]int64
	lastProfile int
	startup     bool
	lastStep    uint32
}

func New(m Mapper, e Edges, s Sound, f Faults) *Interpreter {
	return &Interpreter{
		mapper:      m,
		edges:       e,
		sound:       s,
		faults:      f,
		prev:        channels.NeutralVector(),
		lastProfile: -1,
	}
}

// Reset forgets the last seen profile so the next pass behaves as a profile
// switch.
func (in *Interpreter) Reset() {
	in.lastProfile = -1
}

// Run executes the actions of p, the profile at index idx, at time now (ms).
// It returns false when the pass was aborted by an invalid channel index; the
// previous vector is returned unchanged in that case and pending edges are
// kept.
func (in *Interpreter) Run(p *profile.Profile, idx int, now uint32) (channels.Vector, bool) {
	if idx != in.lastProfile {
		in.switchProfile(idx)
	}
	startup := in.startup
	in.startup = false

	dT, advance := in.elapsed(now)

	var work [channels.Count]int32
	for i, v := range in.prev {
		work[i] = int32(v)
	}

	for i := range p.Actions {
		a := &p.Actions[i]
		if a.Channel < 0 || a.Channel >= channels.ProfileSlot {
			in.faults.Reportf("Invalid channelIndex in mapping")
			return in.prev, false
		}
		if !in.fires(a, startup, work[a.Channel]) {
			continue
		}
		in.apply(a, &work[a.Channel], dT)
	}

	var out channels.Vector
	for i, v := range work {
		out[i] = channels.Clamp(v)
	}

	in.prev = out
	in.edges.ClearEdges()
	if advance {
		in.lastStep = now
	}
	return out, true
}

func (in *Interpreter) switchProfile(idx int) {
	in.lastProfile = idx
	in.prev = channels.NeutralVector()
	in.acc = [channels.Count]int64{}
	in.edges.ClearEdges()
	in.startup = true
}

func (in *Interpreter) elapsed(now uint32) (dT int32, advance bool) {
	d := now - in.lastStep
	switch {
	case d <= minStep:
		return 0, false
	case d > maxStep:
		return 0, true
	default:
		return int32(d), true
	}
}

func (in *Interpreter) fires(a *profile.Action, startup bool, cur int32) bool {
	switch a.Event {
	case profile.EventStartup:
		return startup
	case profile.EventAlways:
		return !startup
	case profile.EventChannelEqual:
		return !startup && cur == a.EqualValue && int32(in.prev[a.Channel]) != a.EqualValue
	default:
		in.faults.Reportf("Invalid event in mapping: %s", a.EventName)
		return false
	}
}

func (in *Interpreter) apply(a *profile.Action, v *int32, dT int32) {
	switch a.Op {
	case profile.OpAxis:
		*v = in.mapper.MapAxis(in.axis(a))
	case profile.OpButton:
		*v = in.mapper.MapButton(in.button(a))
	case profile.OpTrigger:
		if in.edges.HasEdge(in.button(a)) {
			if *v == channels.Min {
				*v = channels.Max
			} else {
				*v = channels.Min
			}
		}
	case profile.OpSwitch3:
		if in.edges.HasEdge(in.button(a)) {
			*v = advance(*v, 1500, 2000)
		}
	case profile.OpSwitch4:
		if in.edges.HasEdge(in.button(a)) {
			*v = advance(*v, 1333, 1666, 2000)
		}
	case profile.OpConstant:
		*v = a.Value
	case profile.OpAdd:
		*v = saturate(int64(*v) + int64(a.Value))
	case profile.OpMul:
		*v = saturate((int64(*v)-channels.Center)*int64(a.Value)/10 + channels.Center)
	case profile.OpAdditive:
		acc := &in.acc[a.Channel]
		*acc += int64(in.mapper.MapAxis(in.axis(a))-channels.Center) * int64(dT) * int64(a.Speed)
		add := *acc / additiveScale
		*v = saturate(int64(*v) + add)
		*acc -= add * additiveScale
	case profile.OpSound:
		if in.sound != nil {
			in.sound.Play(a.Parm)
		}
	default:
		in.faults.Reportf("Invalid op in mapping: %s", a.OpName)
	}
}

// advance moves v to the next position above it, wrapping to Min after the
// last one.
func advance(v int32, positions ...int32) int32 {
	for _, p := range positions {
		if v < p {
			return p
		}
	}
	return channels.Min
}

func (in *Interpreter) axis(a *profile.Action) int {
	if a.Input < 0 {
		in.faults.Reportf("Invalid axis name: %s", a.Parm)
		return 0
	}
	return a.Input
}

func (in *Interpreter) button(a *profile.Action) int {
	if a.Input < 0 {
		in.faults.Reportf("Invalid button name: %s", a.Parm)
		return 0
	}
	return a.Input
}

// saturate narrows an intermediate channel value to int32; the final clamp to
// the channel range happens once the pass completes.
func saturate(v int64) int32 {
	switch {
	case v > math.MaxInt32:
		return math.MaxInt32
	case v < math.MinInt32:
		return math.MinInt32
	}
	return int32(v)
}
