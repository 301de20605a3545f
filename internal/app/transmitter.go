// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/relabs-tech/hxrc_transmitter/internal/channels"
	"github.com/relabs-tech/hxrc_transmitter/internal/config"
	"github.com/relabs-tech/hxrc_transmitter/internal/diag"
	"github.com/relabs-tech/hxrc_transmitter/internal/engine"
	"github.com/relabs-tech/hxrc_transmitter/internal/hw"
	"github.com/relabs-tech/hxrc_transmitter/internal/link"
	"github.com/relabs-tech/hxrc_transmitter/internal/profile"
)

// ErrStopped is returned by Do once the control loop has exited.
var ErrStopped = errors.New("transmitter stopped")

// Output receives every vector produced in run mode.
type Output interface {
	Send(v channels.Vector) error
}

// Transmitter runs the control loop. The engine is touched only by the loop
// goroutine; everything else goes through Do.
type Transmitter struct {
	cfg      *config.Config
	eng      *engine.Engine
	faults   *diag.Reporter
	profiles *profile.Manager
	outputs  []Output
	start    time.Time

	cmds chan func(*engine.Engine)
	done chan struct{}

	mu       sync.RWMutex
	snapshot engine.Snapshot
}

// NewTransmitter loads the profiles and the calibration document and builds
// the engine on top of panel. A missing or broken calibration document is
// logged and the defaults are used.
func NewTransmitter(cfg *config.Config, panel hw.Panel, sound engine.SoundSink) (*Transmitter, error) {
	faults := diag.NewReporter()

	limits := profile.Limits{
		Axes:     panel.AxisCount(),
		Buttons:  panel.ButtonCount(),
		Channels: channels.Count,
	}
	profiles, err := profile.LoadDir(cfg.Profiles.Dir, limits, faults)
	if err != nil {
		return nil, err
	}
	if cfg.Profiles.Index < profiles.Len() {
		if err := profiles.Select(cfg.Profiles.Index); err != nil {
			return nil, err
		}
	}

	eng, err := engine.New(engine.Options{
		Analog:      panel,
		AxisCount:   panel.AxisCount(),
		Digital:     panel,
		ButtonCount: panel.ButtonCount(),
		Inverted:    cfg.Inverted(),
		Profiles:    profiles,
		Sound:       sound,
		Faults:      faults,
	})
	if err != nil {
		return nil, err
	}
	log.Printf("profile: %d loaded %v", profiles.Len(), profiles.Names())
	if err := eng.Calibration().Load(cfg.Calibration.Path); err != nil {
		log.Printf("calibration: %v, using defaults", err)
	} else {
		log.Printf("calibration: loaded %s", cfg.Calibration.Path)
	}

	t := &Transmitter{
		cfg:      cfg,
		eng:      eng,
		faults:   eng.Faults(),
		profiles: profiles,
		start:    time.Now(),
		cmds:     make(chan func(*engine.Engine)),
		done:     make(chan struct{}),
	}
	t.snapshot = eng.Snapshot()
	return t, nil
}

// AddOutput registers o before Run is called.
func (t *Transmitter) AddOutput(o Output) {
	t.outputs = append(t.outputs, o)
}

// OnFault registers fn for every new diagnostic. It runs on the loop
// goroutine.
func (t *Transmitter) OnFault(fn func(msg string)) {
	t.faults.SetObserver(fn)
}

// millis is the wrapping millisecond clock fed to the engine.
func (t *Transmitter) millis() uint32 {
	return uint32(time.Since(t.start).Milliseconds())
}

// Run ticks the engine every cfg.Tick.IntervalMS until ctx is done.
func (t *Transmitter) Run(ctx context.Context) error {
	defer close(t.done)

	ticker := time.NewTicker(time.Duration(t.cfg.Tick.IntervalMS) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-t.cmds:
			fn(t.eng)
			t.publishSnapshot()
		case <-ticker.C:
			t.step(t.millis())
		}
	}
}

func (t *Transmitter) step(now uint32) {
	v, ok := t.eng.Tick(now)
	if ok {
		for _, o := range t.outputs {
			if err := o.Send(v); err != nil {
				t.faults.Reportf("output: %v", err)
			}
		}
	}
	t.publishSnapshot()
}

func (t *Transmitter) publishSnapshot() {
	s := t.eng.Snapshot()
	t.mu.Lock()
	t.snapshot = s
	t.mu.Unlock()
}

// Snapshot returns the state captured after the latest tick. Safe for any
// goroutine.
func (t *Transmitter) Snapshot() engine.Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snapshot
}

// Do runs fn on the loop goroutine and returns its error.
func (t *Transmitter) Do(fn func(*engine.Engine) error) error {
	res := make(chan error, 1)
	select {
	case t.cmds <- func(e *engine.Engine) { res <- fn(e) }:
	case <-t.done:
		return ErrStopped
	}
	select {
	case err := <-res:
		return err
	case <-t.done:
		return ErrStopped
	}
}

// SelectProfile switches the active profile from any goroutine.
func (t *Transmitter) SelectProfile(i int) error {
	return t.Do(func(e *engine.Engine) error { return e.SelectProfile(i) })
}

// SaveCalibration writes the committed calibration to the configured path.
func (t *Transmitter) SaveCalibration() error {
	return t.Do(func(e *engine.Engine) error {
		if err := e.Calibration().Save(t.cfg.Calibration.Path); err != nil {
			return err
		}
		log.Printf("calibration: saved %s", t.cfg.Calibration.Path)
		return nil
	})
}

// RunTransmitter opens the panel and every configured output, then runs the
// control loop until SIGINT or SIGTERM. With printVectors set the vectors are
// also printed on stdout ten times a second.
func RunTransmitter(cfg *config.Config, printVectors bool) error {
	panel, err := hw.Open(cfg.Inputs)
	if err != nil {
		return err
	}
	defer panel.Close()

	var (
		client *link.MQTT
		sound  engine.SoundSink = engine.LogSound{}
	)
	if cfg.MQTT.Broker != "" {
		client, err = link.ConnectMQTT(cfg.MQTT, cfg.MQTT.ClientID)
		if err != nil {
			return err
		}
		defer client.Close()
		sound = client
	}

	t, err := NewTransmitter(cfg, panel, sound)
	if err != nil {
		return err
	}

	if cfg.Link.SerialPort != "" {
		s, err := link.OpenSerial(cfg.Link)
		if err != nil {
			return err
		}
		defer s.Close()
		t.AddOutput(s)
	}
	if printVectors {
		t.AddOutput(NewConsoleOutput(os.Stdout, 100*time.Millisecond))
	}
	if client != nil {
		t.AddOutput(mqttOutput{client})
		t.OnFault(client.PublishFault)
		// paho callbacks must not block on the loop
		if err := client.SubscribeProfileSelect(func(i int) {
			go func() {
				if err := t.SelectProfile(i); err != nil {
					log.Printf("profile: select %d: %v", i, err)
					return
				}
				log.Printf("profile: selected %d", i)
			}()
		}); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Web.Port != 0 {
		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Web.Port),
			Handler: t.Handler(),
		}
		go func() {
			log.Printf("web server listening on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("web server error: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	log.Printf("transmitter running, tick %dms", cfg.Tick.IntervalMS)
	err = t.Run(ctx)
	log.Println("transmitter: shutting down")
	return err
}

type mqttOutput struct{ m *link.MQTT }

func (o mqttOutput) Send(v channels.Vector) error { return o.m.PublishChannels(v) }
