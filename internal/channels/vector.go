// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package channels defines the fixed-size channel vector produced every tick.
package channels

const (
	// Count is the number of output channels.
	Count = 16

	// ProfileSlot carries the active profile index, not a control value.
	ProfileSlot = Count - 1

	Min     = 1000
	Center  = 1500
	Max     = 2000
	Neutral = Min
)

// Vector holds one value per channel in the range [Min, Max].
type Vector [Count]uint16

// NeutralVector returns a vector with every channel at Neutral.
func NeutralVector() Vector {
	var v Vector
	for i := range v {
		v[i] = Neutral
	}
	return v
}

// Clamp limits v to [Min, Max].
func Clamp(v int32) uint16 {
	if v < Min {
		return Min
	}
	if v > Max {
		return Max
	}
	return uint16(v)
}

// SetProfile encodes the profile index into ProfileSlot.
func (v *Vector) SetProfile(index int) {
	v[ProfileSlot] = Clamp(int32(Min + 100*index))
}

// Profile decodes the profile index from ProfileSlot.
func (v Vector) Profile() int {
	return (int(v[ProfileSlot]) - Min) / 100
}

// Slice returns the channel values as a slice, convenient for JSON payloads.
func (v Vector) Slice() []uint16 {
	out := make([]uint16, Count)
	copy(out, v[:])
	return out
}
