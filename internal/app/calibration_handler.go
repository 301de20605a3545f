// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/hxrc_transmitter/internal/calibration"
	"github.com/relabs-tech/hxrc_transmitter/internal/engine"
)

const progressInterval = 200 * time.Millisecond

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// WSMessage is a request from the calibration page.
type WSMessage struct {
	Action string `json:"action"` // status, range-start, range-finish, center-start, center-finish, save, cancel
}

// AxisBracket is the running low/high of one axis, in raw units. AtMin and
// AtMax latch once the stick has been pushed to that end during the
// procedure; Centred is the current position.
type AxisBracket struct {
	Lo      int32 `json:"lo"`
	Hi      int32 `json:"hi"`
	AtMin   bool  `json:"at_min"`
	AtMax   bool  `json:"at_max"`
	Centred bool  `json:"centred"`
}

type WSResponse struct {
	Type        string             `json:"type"` // phase, progress, complete, saved, status, error
	Phase       string             `json:"phase,omitempty"`
	Axes        []AxisBracket      `json:"axes,omitempty"`
	Calibration []calibration.Axis `json:"calibration,omitempty"`
	Snapshot    *engine.Snapshot   `json:"snapshot,omitempty"`
	Message     string             `json:"message,omitempty"`
}

// calibrationSession drives one calibration over a websocket.
type calibrationSession struct {
	t    *Transmitter
	conn *websocket.Conn

	writeMu sync.Mutex

	mu    sync.Mutex
	phase string
	stop  chan struct{}
}

func (t *Transmitter) handleCalibrationWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("calibration: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	s := &calibrationSession{t: t, conn: conn}
	defer s.abandon()

	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("calibration: websocket read error: %v", err)
			}
			return
		}
		if err := s.handle(msg.Action); err != nil {
			s.send(WSResponse{Type: "error", Message: err.Error()})
		}
	}
}

func (s *calibrationSession) handle(action string) error {
	switch action {
	case "status":
		snap := s.t.Snapshot()
		s.send(WSResponse{Type: "status", Phase: s.currentPhase(), Snapshot: &snap})
		return nil
	case "range-start":
		return s.begin("range", func(e *engine.Engine) (string, error) {
			return "", e.BeginRangeCalibration()
		})
	case "center-start":
		return s.begin("center", func(e *engine.Engine) (string, error) {
			var note string
			if off := offCentre(e); len(off) > 0 {
				note = fmt.Sprintf("axes %v are not centred", off)
			}
			return note, e.BeginCenterCalibration()
		})
	case "range-finish":
		return s.finish("range", (*engine.Engine).FinishRangeCalibration)
	case "center-finish":
		return s.finish("center", (*engine.Engine).FinishCenterCalibration)
	case "save":
		if p := s.currentPhase(); p != "" {
			return fmt.Errorf("finish %s calibration before saving", p)
		}
		if err := s.t.SaveCalibration(); err != nil {
			return fmt.Errorf("failed to save calibration: %w", err)
		}
		s.send(WSResponse{Type: "saved", Message: s.t.cfg.Calibration.Path})
		return nil
	case "cancel":
		s.stopProgress()
		if err := s.t.Do(func(e *engine.Engine) error {
			e.CancelCalibration()
			return nil
		}); err != nil {
			return err
		}
		log.Printf("calibration: cancelled by user")
		s.send(WSResponse{Type: "phase", Phase: ""})
		return nil
	default:
		return fmt.Errorf("unknown action %q", action)
	}
}

func (s *calibrationSession) begin(phase string, fn func(*engine.Engine) (string, error)) error {
	if p := s.currentPhase(); p != "" {
		return fmt.Errorf("%s calibration already running", p)
	}
	var note string
	err := s.t.Do(func(e *engine.Engine) error {
		var err error
		note, err = fn(e)
		return err
	})
	if errors.Is(err, engine.ErrWrongMode) {
		return fmt.Errorf("another calibration is running")
	}
	if err != nil {
		return err
	}
	log.Printf("calibration: %s started", phase)

	stop := make(chan struct{})
	s.mu.Lock()
	s.phase = phase
	s.stop = stop
	s.mu.Unlock()

	s.send(WSResponse{Type: "phase", Phase: phase, Message: note})
	go s.streamProgress(phase, stop)
	return nil
}

// finish commits the running procedure; the document is written by "save".
func (s *calibrationSession) finish(phase string, fn func(*engine.Engine) error) error {
	if p := s.currentPhase(); p != phase {
		return fmt.Errorf("no %s calibration running", phase)
	}
	s.stopProgress()

	var axes []calibration.Axis
	err := s.t.Do(func(e *engine.Engine) error {
		if err := fn(e); err != nil {
			return err
		}
		for i := 0; i < e.Calibration().Len(); i++ {
			axes = append(axes, e.Calibration().Axis(i))
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Printf("calibration: %s finished", phase)
	s.send(WSResponse{Type: "complete", Phase: phase, Calibration: axes})
	return nil
}

func (s *calibrationSession) streamProgress(phase string, stop <-chan struct{}) {
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()
	var reached []AxisBracket
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
		var axes []AxisBracket
		err := s.t.Do(func(e *engine.Engine) error {
			axes = progress(e, reached)
			return nil
		})
		if err != nil {
			return
		}
		if axes != nil {
			reached = axes
			s.send(WSResponse{Type: "progress", Phase: phase, Axes: axes})
		}
	}
}

// progress returns the running brackets with the stick positions, keeping the
// ends already reached in prev. It returns nil when no procedure runs.
func progress(e *engine.Engine, prev []AxisBracket) []AxisBracket {
	m := e.Mapper()
	var axes []AxisBracket
	for i := 0; i < e.Calibration().Len(); i++ {
		lo, hi, ok := e.Calibration().Pending(i)
		if !ok {
			return nil
		}
		b := AxisBracket{
			Lo:      lo,
			Hi:      hi,
			AtMin:   m.StickMin(i),
			AtMax:   m.StickMax(i),
			Centred: m.StickMiddle(i),
		}
		if i < len(prev) {
			b.AtMin = b.AtMin || prev[i].AtMin
			b.AtMax = b.AtMax || prev[i].AtMax
		}
		axes = append(axes, b)
	}
	return axes
}

// offCentre lists the axes not resting near their centre.
func offCentre(e *engine.Engine) []int {
	var off []int
	for i := 0; i < e.Calibration().Len(); i++ {
		if !e.Mapper().StickMiddle(i) {
			off = append(off, i)
		}
	}
	return off
}

func (s *calibrationSession) currentPhase() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *calibrationSession) stopProgress() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
	s.phase = ""
}

// abandon cancels a procedure left running by a closed connection.
func (s *calibrationSession) abandon() {
	if s.currentPhase() == "" {
		return
	}
	s.stopProgress()
	if err := s.t.Do(func(e *engine.Engine) error {
		e.CancelCalibration()
		return nil
	}); err == nil {
		log.Printf("calibration: connection closed, procedure cancelled")
	}
}

func (s *calibrationSession) send(r WSResponse) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteJSON(r); err != nil {
		log.Printf("calibration: websocket write error: %v", err)
	}
}
