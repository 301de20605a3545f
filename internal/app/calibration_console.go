// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/relabs-tech/hxrc_transmitter/internal/config"
	"github.com/relabs-tech/hxrc_transmitter/internal/engine"
	"github.com/relabs-tech/hxrc_transmitter/internal/hw"
)

// RunCalibration walks through range and center calibration on the console
// and saves the result to cfg.Calibration.Path.
func RunCalibration(cfg *config.Config) error {
	panel, err := hw.Open(cfg.Inputs)
	if err != nil {
		return err
	}
	defer panel.Close()

	t, err := NewTransmitter(cfg, panel, engine.LogSound{})
	if err != nil {
		return err
	}
	return guidedCalibration(t, bufio.NewReader(os.Stdin), os.Stdout)
}

func guidedCalibration(t *Transmitter, in *bufio.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go t.Run(ctx)

	fmt.Fprintln(out, "=== Guided Stick Calibration ===")
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Step 1/2: Range")
	fmt.Fprintln(out, "Move every stick to all of its limits while the capture runs.")
	waitEnter(in, out, "Press ENTER to start, then ENTER again when done...")
	if err := t.Do(func(e *engine.Engine) error { return e.BeginRangeCalibration() }); err != nil {
		return err
	}
	waitEnterShowing(t, in, out)
	if err := t.Do(func(e *engine.Engine) error { return e.FinishRangeCalibration() }); err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Step 2/2: Center")
	fmt.Fprintln(out, "Let the sticks rest at their centre; nudge them gently to widen the dead zone.")
	waitEnter(in, out, "Press ENTER to start, then ENTER again when done...")
	if err := t.Do(func(e *engine.Engine) error {
		for _, i := range offCentre(e) {
			fmt.Fprintf(out, "Warning: axis %d is not centred\n", i)
		}
		return e.BeginCenterCalibration()
	}); err != nil {
		return err
	}
	waitEnterShowing(t, in, out)
	if err := t.Do(func(e *engine.Engine) error { return e.FinishCenterCalibration() }); err != nil {
		return err
	}

	fmt.Fprintln(out)
	if err := t.Do(func(e *engine.Engine) error {
		e.Calibration().Dump(out)
		if e.Faults().HasFaults() {
			fmt.Fprintln(out, "\nFaults reported during calibration:")
			for _, m := range e.Faults().Messages() {
				fmt.Fprintf(out, "  %s\n", m)
			}
		}
		return nil
	}); err != nil {
		return err
	}
	if err := t.SaveCalibration(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nWrote: %s\n", t.cfg.Calibration.Path)
	return nil
}

// waitEnterShowing prints the running brackets until ENTER is pressed. An
// axis is marked < and > once it has reached each end, = while centred.
func waitEnterShowing(t *Transmitter, in *bufio.Reader, out io.Writer) {
	stopCh := make(chan struct{}, 1)
	go func() {
		_, _ = in.ReadString('\n')
		stopCh <- struct{}{}
	}()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	var reached []AxisBracket
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			t.Do(func(e *engine.Engine) error {
				reached = progress(e, reached)
				return nil
			})
			for i, b := range reached {
				fmt.Fprintf(out, "  [%d] %4d..%-4d %s", i, b.Lo, b.Hi, marks(b))
			}
			fmt.Fprintln(out)
		}
	}
}

func marks(b AxisBracket) string {
	m := []byte("...")
	if b.AtMin {
		m[0] = '<'
	}
	if b.Centred {
		m[1] = '='
	}
	if b.AtMax {
		m[2] = '>'
	}
	return string(m)
}

func waitEnter(in *bufio.Reader, out io.Writer, prompt string) {
	fmt.Fprint(out, prompt)
	_, _ = in.ReadString('\n')
}
