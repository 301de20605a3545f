// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package profile parses channel mapping documents into validated, immutable
// action lists.
package profile

import (
	"fmt"
	"strings"
)

// SchemaVersion is the newest mapping document version understood here.
const SchemaVersion = 1

// EventKind selects when an action runs.
type EventKind int

const (
	EventInvalid EventKind = iota
	EventStartup
	EventAlways
	EventChannelEqual
)

func (e EventKind) String() string {
	switch e {
	case EventStartup:
		return "STARTUP"
	case EventAlways:
		return "ALWAYS"
	case EventChannelEqual:
		return "CHANNEL_EQUAL"
	default:
		return "INVALID"
	}
}

// equalValues are the channel values CHANNEL_EQUAL_<n> may name.
var equalValues = map[string]int32{
	"CHANNEL_EQUAL_1000": 1000,
	"CHANNEL_EQUAL_1333": 1333,
	"CHANNEL_EQUAL_1500": 1500,
	"CHANNEL_EQUAL_1666": 1666,
	"CHANNEL_EQUAL_2000": 2000,
}

func parseEvent(name string) (EventKind, int32) {
	switch name {
	case "STARTUP":
		return EventStartup, 0
	case "ALWAYS":
		return EventAlways, 0
	}
	if v, ok := equalValues[name]; ok {
		return EventChannelEqual, v
	}
	return EventInvalid, 0
}

// OpKind is the operation applied to the action's channel.
type OpKind int

const (
	OpInvalid OpKind = iota
	OpAxis
	OpButton
	OpTrigger
	OpConstant
	OpSwitch3
	OpSwitch4
	OpAdd
	OpMul
	OpAdditive
	OpSound
)

var opNames = map[string]OpKind{
	"AXIS":     OpAxis,
	"BUTTON":   OpButton,
	"TRIGGER":  OpTrigger,
	"CONSTANT": OpConstant,
	"SWITCH3":  OpSwitch3,
	"SWITCH4":  OpSwitch4,
	"ADD":      OpAdd,
	"MUL":      OpMul,
	"ADDITIVE": OpAdditive,
	"SOUND":    OpSound,
}

func (o OpKind) String() string {
	for name, k := range opNames {
		if k == o {
			return name
		}
	}
	return "INVALID"
}

// operand describes what kind of parm an op expects.
type operand int

const (
	operandNone operand = iota
	operandAxis
	operandButton
	operandNumber
	operandPath
)

func (o OpKind) operand() operand {
	switch o {
	case OpAxis, OpAdditive:
		return operandAxis
	case OpButton, OpTrigger, OpSwitch3, OpSwitch4:
		return operandButton
	case OpConstant, OpAdd, OpMul:
		return operandNumber
	case OpSound:
		return operandPath
	default:
		return operandNone
	}
}

// Action is one validated entry of a mapping list.
type Action struct {
	Event      EventKind
	EventName  string
	EqualValue int32 // for EventChannelEqual

	// Channel is the 0-based channel index. It is kept even when out of
	// range so the interpreter can refuse the pass.
	Channel int

	Op     OpKind
	OpName string

	// Input is the resolved axis or button index; -1 if the name did not
	// resolve.
	Input int
	Parm  string
	Value int32 // numeric operand for CONSTANT, ADD and MUL
	Speed int32 // ADDITIVE rate multiplier
}

// Issue is one validation finding. Action is the 0-based position in the
// mapping list, or -1 for document-level issues.
type Issue struct {
	Action  int
	Field   string
	Message string
}

func (i Issue) String() string {
	if i.Action < 0 {
		return fmt.Sprintf("%s: %s", i.Field, i.Message)
	}
	return fmt.Sprintf("mapping[%d].%s: %s", i.Action, i.Field, i.Message)
}

// Profile is an immutable, parsed mapping document.
type Profile struct {
	Name    string
	Source  string
	Version int
	Actions []Action
	Issues  []Issue
}

// HasMapping reports whether the profile carries any action.
func (p *Profile) HasMapping() bool {
	return p != nil && len(p.Actions) > 0
}

// Valid reports whether parsing found no issue.
func (p *Profile) Valid() bool {
	return p != nil && len(p.Issues) == 0
}

// IssueSummary joins all issues in one line.
func (p *Profile) IssueSummary() string {
	parts := make([]string, len(p.Issues))
	for i, is := range p.Issues {
		parts[i] = is.String()
	}
	return strings.Join(parts, "; ")
}
