// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
)

// Handler serves the monitoring API and the calibration websocket.
func (t *Transmitter) Handler() http.Handler {
	mux := http.NewServeMux()

	// latest engine state
	mux.HandleFunc("/api/channels", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, t.Snapshot())
	})

	mux.HandleFunc("/api/faults", func(w http.ResponseWriter, r *http.Request) {
		s := t.Snapshot()
		faults := s.Faults
		if faults == nil {
			faults = []string{}
		}
		writeJSON(w, map[string]any{"faults": faults, "dropped": s.Dropped})
	})

	// profile names are fixed once loaded
	mux.HandleFunc("/api/profiles", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"active":   t.Snapshot().Profile,
			"profiles": t.profiles.Names(),
		})
	})

	mux.HandleFunc("/api/profile", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		idx, err := strconv.Atoi(r.URL.Query().Get("index"))
		if err != nil {
			http.Error(w, "index must be an integer", http.StatusBadRequest)
			return
		}
		if err := t.SelectProfile(idx); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("/ws/calibration", t.handleCalibrationWS)
	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("json encode error: %v", err)
	}
}
