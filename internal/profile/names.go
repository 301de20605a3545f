// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package profile

import (
	"strconv"
	"strings"
)

var axisNames = map[string]int{
	"LEFT_STICK_X":  0,
	"LEFT_STICK_Y":  1,
	"RIGHT_STICK_X": 2,
	"RIGHT_STICK_Y": 3,
}

var buttonNames = map[string]int{
	"LEFT_BUMPER":   0,
	"RIGHT_BUMPER":  1,
	"LEFT_TRIGGER":  2,
	"RIGHT_TRIGGER": 3,
}

// AxisIndex resolves a stick name or AXIS<n> to an axis index below count.
func AxisIndex(name string, count int) (int, bool) {
	return lookup(name, "AXIS", axisNames, count)
}

// ButtonIndex resolves a bumper/trigger name or BUTTON<n> to a button index
// below count.
func ButtonIndex(name string, count int) (int, bool) {
	return lookup(name, "BUTTON", buttonNames, count)
}

func lookup(name, prefix string, named map[string]int, count int) (int, bool) {
	idx, ok := named[name]
	if !ok {
		rest, found := strings.CutPrefix(name, prefix)
		if !found || rest == "" {
			return 0, false
		}
		n, err := strconv.Atoi(rest)
		if err != nil || strconv.Itoa(n) != rest {
			return 0, false
		}
		idx = n
	}
	if idx < 0 || idx >= count {
		return 0, false
	}
	return idx, true
}
