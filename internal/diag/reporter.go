// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package diag reports configuration faults once per distinct message.
package diag

import (
	"fmt"
	"log"
)

// Capacity bounds the number of distinct messages remembered; once full,
// further messages are dropped.
const Capacity = 64

// Reporter is a write-once diagnostic log. It is not safe for concurrent use;
// the control loop owns it.
type Reporter struct {
	seen     map[string]struct{}
	messages []string
	dropped  int
	observer func(msg string)
	logf     func(format string, args ...any)
}

func NewReporter() *Reporter {
	return &Reporter{
		seen: make(map[string]struct{}),
		logf: log.Printf,
	}
}

// SetObserver registers fn to receive every message that is surfaced.
func (r *Reporter) SetObserver(fn func(msg string)) {
	r.observer = fn
}

// Reportf formats a message and surfaces it unless it was surfaced before.
// It returns true if the message was new.
func (r *Reporter) Reportf(format string, args ...any) bool {
	msg := fmt.Sprintf(format, args...)
	if _, ok := r.seen[msg]; ok {
		return false
	}
	if len(r.messages) >= Capacity {
		r.dropped++
		return false
	}
	r.seen[msg] = struct{}{}
	r.messages = append(r.messages, msg)
	r.logf("diag: %s", msg)
	if r.observer != nil {
		r.observer(msg)
	}
	return true
}

// HasFaults reports whether any message has been surfaced.
func (r *Reporter) HasFaults() bool {
	return len(r.messages) > 0
}

// Messages returns a copy of the surfaced messages in order.
func (r *Reporter) Messages() []string {
	out := make([]string, len(r.messages))
	copy(out, r.messages)
	return out
}

// Dropped is the number of distinct messages lost after Capacity was reached.
func (r *Reporter) Dropped() int {
	return r.dropped
}
