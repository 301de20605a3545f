// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"io"
	"time"

	"github.com/relabs-tech/hxrc_transmitter/internal/channels"
	"github.com/relabs-tech/hxrc_transmitter/internal/link"
)

// ConsoleOutput prints produced vectors, at most one line per period.
type ConsoleOutput struct {
	w      io.Writer
	period time.Duration
	now    func() time.Time
	last   time.Time
}

func NewConsoleOutput(w io.Writer, period time.Duration) *ConsoleOutput {
	return &ConsoleOutput{w: w, period: period, now: time.Now}
}

func (c *ConsoleOutput) Send(v channels.Vector) error {
	t := c.now()
	if !c.last.IsZero() && t.Sub(c.last) < c.period {
		return nil
	}
	c.last = t
	printChannels(c.w, link.ChannelsMessage{Profile: v.Profile(), Channels: v.Slice()})
	return nil
}
