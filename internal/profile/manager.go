// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package profile

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
)

// Faults receives deduplicated diagnostics.
type Faults interface {
	Reportf(format string, args ...any) bool
}

// Manager holds the loaded profiles and the active index. Indices follow the
// sorted file names of the profile directory.
type Manager struct {
	profiles []*Profile
	index    int
}

// NewManager wraps already parsed profiles.
func NewManager(profiles ...*Profile) *Manager {
	return &Manager{profiles: profiles}
}

// LoadDir parses every JSON or YAML document in dir. A missing directory
// yields an empty manager. A document that cannot be read or decoded still
// takes its slot, with no mapping, so profile indices stay stable.
func LoadDir(dir string, limits Limits, faults Faults) (*Manager, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Printf("profile: directory %s not found, using default layout", dir)
			return NewManager(), nil
		}
		return nil, fmt.Errorf("failed to read profile directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := FormatFromPath(e.Name()); ok {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	m := NewManager()
	for _, name := range names {
		path := filepath.Join(dir, name)
		p := loadFile(path, limits, faults)
		m.profiles = append(m.profiles, p)
		log.Printf("profile: [%d] %s (%s, %d actions)", len(m.profiles)-1, p.Name, name, len(p.Actions))
		if !p.Valid() {
			log.Printf("profile: [%d] %d issue(s): %s", len(m.profiles)-1, len(p.Issues), p.IssueSummary())
		}
	}
	return m, nil
}

func loadFile(path string, limits Limits, faults Faults) *Profile {
	format, _ := FormatFromPath(path)
	base := filepath.Base(path)

	data, err := os.ReadFile(path)
	if err != nil {
		faults.Reportf("profile %s: %v", base, err)
		return &Profile{Name: base, Source: path}
	}
	p, err := Parse(data, format, limits)
	if err != nil {
		faults.Reportf("profile %s: %v", base, err)
		return &Profile{Name: base, Source: path}
	}
	p.Source = path
	if p.Name == "" {
		p.Name = base
	}
	for _, is := range p.Issues {
		faults.Reportf("profile %s: %s", base, is)
	}
	return p
}

// Len returns the number of loaded profiles.
func (m *Manager) Len() int { return len(m.profiles) }

// Current returns the active profile and its index. The profile is nil when
// nothing was loaded.
func (m *Manager) Current() (*Profile, int) {
	if m.index < 0 || m.index >= len(m.profiles) {
		return nil, m.index
	}
	return m.profiles[m.index], m.index
}

// Select makes profile i active.
func (m *Manager) Select(i int) error {
	if i < 0 || i >= len(m.profiles) {
		return fmt.Errorf("profile: index %d out of range (have %d)", i, len(m.profiles))
	}
	m.index = i
	return nil
}

// Names lists the profile names in index order.
func (m *Manager) Names() []string {
	out := make([]string, len(m.profiles))
	for i, p := range m.profiles {
		out[i] = p.Name
	}
	return out
}
