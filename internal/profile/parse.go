// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package profile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is the encoding of a mapping document.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatFromPath picks the document format from the file extension.
func FormatFromPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, true
	case ".yaml", ".yml":
		return FormatYAML, true
	}
	return 0, false
}

// Limits bounds the indices a document may reference.
type Limits struct {
	Axes     int
	Buttons  int
	Channels int // total channel count; the last channel is reserved
}

type rawDocument struct {
	Version int         `json:"version" yaml:"version"`
	Name    string      `json:"name" yaml:"name"`
	Mapping []rawAction `json:"mapping" yaml:"mapping"`
}

type rawAction struct {
	Event   string  `json:"event" yaml:"event"`
	Channel *int    `json:"channel" yaml:"channel"`
	Op      string  `json:"op" yaml:"op"`
	Parm    *scalar `json:"parm" yaml:"parm"`
	Speed   *int    `json:"speed" yaml:"speed"`
}

// scalar accepts a parm written either as a string or as a number.
type scalar struct {
	text    string
	num     int64
	isNum   bool
	invalid bool
}

func (s *scalar) set(text string) {
	s.text = text
	if n, err := strconv.ParseInt(strings.TrimSpace(text), 10, 32); err == nil {
		s.num, s.isNum = n, true
		return
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(f) {
		return
	}
	s.isNum = true
	switch {
	case f > math.MaxInt32:
		s.num = math.MaxInt32 + 1
	case f < math.MinInt32:
		s.num = math.MinInt32 - 1
	default:
		s.num = int64(f)
	}
}

func (s *scalar) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) > 0 && b[0] == '"':
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		s.set(str)
	case len(b) > 0 && (b[0] == '-' || (b[0] >= '0' && b[0] <= '9')):
		s.set(string(b))
	default:
		s.text = string(b)
		s.invalid = true
	}
	return nil
}

func (s *scalar) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		s.invalid = true
		return nil
	}
	s.set(n.Value)
	return nil
}

// Parse decodes and validates a mapping document. It returns an error only
// when the document cannot be decoded at all; per-field problems are
// collected in Profile.Issues and the offending actions are kept in a form
// the interpreter can skip or refuse.
func Parse(data []byte, format Format, limits Limits) (*Profile, error) {
	var doc rawDocument
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse YAML profile: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse JSON profile: %w", err)
		}
	}

	p := &Profile{Name: doc.Name, Version: doc.Version}
	if p.Version == 0 {
		p.Version = 1
	}
	if p.Version > SchemaVersion {
		p.Issues = append(p.Issues, Issue{Action: -1, Field: "version",
			Message: fmt.Sprintf("unsupported version %d, mapping ignored", p.Version)})
		return p, nil
	}

	p.Actions = make([]Action, 0, len(doc.Mapping))
	for i, ra := range doc.Mapping {
		p.Actions = append(p.Actions, buildAction(i, ra, limits, &p.Issues))
	}
	return p, nil
}

func buildAction(i int, ra rawAction, limits Limits, issues *[]Issue) Action {
	add := func(field, format string, args ...any) {
		*issues = append(*issues, Issue{Action: i, Field: field, Message: fmt.Sprintf(format, args...)})
	}

	a := Action{EventName: ra.Event, OpName: ra.Op, Input: -1, Speed: 1}

	if ra.Channel == nil {
		a.Channel = -2
		add("channel", "missing")
	} else {
		a.Channel = *ra.Channel - 1
		if a.Channel < 0 || a.Channel >= limits.Channels-1 {
			add("channel", "%d out of range 1-%d", *ra.Channel, limits.Channels-1)
		}
	}

	a.Event, a.EqualValue = parseEvent(ra.Event)
	if a.Event == EventInvalid {
		add("event", "unknown event %q", ra.Event)
	}

	op, ok := opNames[ra.Op]
	if !ok {
		add("op", "unknown op %q", ra.Op)
	}
	a.Op = op

	var parm scalar
	if ra.Parm != nil {
		parm = *ra.Parm
		a.Parm = parm.text
	}
	if parm.invalid {
		add("parm", "must be a string or a number")
	}

	switch op.operand() {
	case operandAxis:
		if idx, ok := AxisIndex(parm.text, limits.Axes); ok {
			a.Input = idx
		} else {
			add("parm", "unknown axis name %q", parm.text)
		}
	case operandButton:
		if idx, ok := ButtonIndex(parm.text, limits.Buttons); ok {
			a.Input = idx
		} else {
			add("parm", "unknown button name %q", parm.text)
		}
	case operandNumber:
		switch {
		case ra.Parm == nil && op == OpMul:
			a.Value = 1
		case ra.Parm == nil:
			a.Value = 0
		case parm.isNum && parm.num > math.MaxInt32:
			add("parm", "%s out of range", parm.text)
			a.Value = math.MaxInt32
		case parm.isNum && parm.num < math.MinInt32:
			add("parm", "%s out of range", parm.text)
			a.Value = math.MinInt32
		case parm.isNum:
			a.Value = int32(parm.num)
		default:
			add("parm", "%s needs a number, got %q", ra.Op, parm.text)
			if op == OpMul {
				a.Value = 1
			}
		}
	case operandPath:
		if parm.text == "" {
			add("parm", "SOUND needs a file path")
		}
	}

	if ra.Speed != nil {
		if op != OpAdditive {
			add("speed", "only used by ADDITIVE")
		}
		a.Speed = int32(*ra.Speed)
	}
	return a
}
