// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package calibration

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// DocumentVersion is the calibration document schema written by Encode.
const DocumentVersion = 1

type document struct {
	Version int       `json:"version,omitempty"`
	Axis    []axisDoc `json:"axis"`
}

// axisDoc uses pointers so missing fields fall back to DefaultAxis.
type axisDoc struct {
	Min    *int32 `json:"min,omitempty"`
	Max    *int32 `json:"max,omitempty"`
	MidMin *int32 `json:"midMin,omitempty"`
	MidMax *int32 `json:"midMax,omitempty"`
}

func (d axisDoc) axis() Axis {
	a := DefaultAxis
	if d.Min != nil {
		a.Min = *d.Min
	}
	if d.Max != nil {
		a.Max = *d.Max
	}
	if d.MidMin != nil {
		a.MidMin = *d.MidMin
	}
	if d.MidMax != nil {
		a.MidMax = *d.MidMax
	}
	return a
}

// Load reads the calibration document at path. On any failure the current
// values are kept, Loaded reports false and the error is returned for
// logging.
func (s *Store) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		s.loaded = false
		return fmt.Errorf("failed to open calibration file: %w", err)
	}
	defer f.Close()
	return s.Decode(f)
}

// Decode reads a calibration document from r. Axes missing from the document
// and fields missing from an axis entry take DefaultAxis values; entries
// beyond the configured axis count are ignored.
func (s *Store) Decode(r io.Reader) error {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		s.loaded = false
		return fmt.Errorf("failed to parse calibration document: %w", err)
	}
	if doc.Version > DocumentVersion {
		s.loaded = false
		return fmt.Errorf("unsupported calibration document version %d", doc.Version)
	}

	for i := range s.axes {
		if i < len(doc.Axis) {
			s.axes[i] = doc.Axis[i].axis()
		} else {
			s.axes[i] = DefaultAxis
		}
	}
	s.loaded = true
	return nil
}

// Encode writes the calibration document to w.
func (s *Store) Encode(w io.Writer) error {
	data, err := s.marshal()
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Save writes the calibration document to path.
func (s *Store) Save(path string) error {
	data, err := s.marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write calibration file: %w", err)
	}
	return nil
}

func (s *Store) marshal() ([]byte, error) {
	doc := document{Version: DocumentVersion, Axis: make([]axisDoc, len(s.axes))}
	for i := range s.axes {
		a := s.axes[i]
		doc.Axis[i] = axisDoc{Min: &a.Min, Max: &a.Max, MidMin: &a.MidMin, MidMax: &a.MidMax}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal calibration: %w", err)
	}
	return append(data, '\n'), nil
}
