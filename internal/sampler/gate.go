// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sampler

// gate admits at most one call per interval on a wrapping millisecond clock.
type gate struct {
	interval uint32
	last     uint32
	primed   bool
}

func (g *gate) ready(now uint32) bool {
	// unsigned difference stays correct across clock wraparound
	if g.primed && now-g.last < g.interval {
		return false
	}
	g.last = now
	g.primed = true
	return true
}
