package calibration

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func fixed(raw ...int32) []int32 {
	out := make([]int32, len(raw))
	for i, v := range raw {
		out[i] = v << fracBits
	}
	return out
}

func TestNewStoreDefaults(t *testing.T) {
	s := NewStore(3)
	for i := 0; i < 3; i++ {
		if s.Axis(i) != DefaultAxis {
			t.Fatalf("axis %d = %+v, want defaults", i, s.Axis(i))
		}
	}
	if DefaultAxis.MidMin != 1848 || DefaultAxis.MidMax != 2248 || DefaultAxis.Max != 4096 {
		t.Fatalf("unexpected defaults %+v", DefaultAxis)
	}
	if s.Loaded() {
		t.Fatal("fresh store must not report loaded")
	}
	if s.Axis(7) != DefaultAxis {
		t.Fatal("out of range axis should return defaults")
	}
}

func TestRangeCalibration(t *testing.T) {
	s := NewStore(2)
	s.BeginRange()
	for _, raw := range [][]int32{{2000, 2100}, {150, 3000}, {3950, 40}, {2048, 2048}} {
		if err := s.StepRange(fixed(raw...)); err != nil {
			t.Fatalf("step: %v", err)
		}
	}
	if lo, hi, ok := s.Pending(0); !ok || lo != 150 || hi != 3950 {
		t.Fatalf("pending = %d %d %v", lo, hi, ok)
	}
	if err := s.FinishRange(); err != nil {
		t.Fatalf("finish: %v", err)
	}
	a0, a1 := s.Axis(0), s.Axis(1)
	if a0.Min != 150 || a0.Max != 3950 {
		t.Fatalf("axis 0 range = %d..%d", a0.Min, a0.Max)
	}
	if a1.Min != 40 || a1.Max != 3000 {
		t.Fatalf("axis 1 range = %d..%d", a1.Min, a1.Max)
	}
	if a0.MidMin != DefaultAxis.MidMin {
		t.Fatal("range calibration must not touch the dead zone")
	}
	if s.InProgress() != ProcedureNone {
		t.Fatal("procedure should end after finish")
	}
}

func TestCenterCalibrationMargin(t *testing.T) {
	s := NewStore(1)
	if err := s.BeginCenter(fixed(2040)); err != nil {
		t.Fatal(err)
	}
	for _, raw := range []int32{2000, 2090, 2050} {
		if err := s.StepCenter(fixed(raw)); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.FinishCenter(); err != nil {
		t.Fatal(err)
	}
	// span 90 raw = 360 fixed; margin = 36 + 4 = 40 fixed = 10 raw
	a := s.Axis(0)
	if a.MidMin != 1990 || a.MidMax != 2100 {
		t.Fatalf("dead zone = %d..%d, want 1990..2100", a.MidMin, a.MidMax)
	}
}

func TestCenterCalibrationStillStick(t *testing.T) {
	s := NewStore(1)
	_ = s.BeginCenter(fixed(2048))
	_ = s.FinishCenter()
	a := s.Axis(0)
	if a.MidMin != 2047 || a.MidMax != 2049 {
		t.Fatalf("dead zone = %d..%d, want 2047..2049", a.MidMin, a.MidMax)
	}
}

func TestProcedureErrors(t *testing.T) {
	s := NewStore(2)
	if err := s.StepRange(fixed(1, 2)); !errors.Is(err, ErrNotInProgress) {
		t.Fatalf("expected ErrNotInProgress, got %v", err)
	}
	if err := s.FinishCenter(); !errors.Is(err, ErrNotInProgress) {
		t.Fatalf("expected ErrNotInProgress, got %v", err)
	}
	if err := s.BeginCenter(fixed(1)); !errors.Is(err, ErrAxisCount) {
		t.Fatalf("expected ErrAxisCount, got %v", err)
	}
	s.BeginRange()
	if err := s.StepRange(fixed(1)); !errors.Is(err, ErrAxisCount) {
		t.Fatalf("expected ErrAxisCount, got %v", err)
	}
	if err := s.FinishCenter(); !errors.Is(err, ErrNotInProgress) {
		t.Fatal("finishing the wrong procedure must fail")
	}
}

func TestCancelKeepsCommittedValues(t *testing.T) {
	s := NewStore(1)
	s.BeginRange()
	_ = s.StepRange(fixed(10))
	s.Cancel()
	if s.Axis(0) != DefaultAxis {
		t.Fatalf("cancel changed values: %+v", s.Axis(0))
	}
	if _, _, ok := s.Pending(0); ok {
		t.Fatal("no pending values after cancel")
	}
}

func TestDecodeMissingFields(t *testing.T) {
	s := NewStore(3)
	doc := `{"axis":[{"min":100,"max":3900,"midMin":1900,"midMax":2200},{"max":4000}]}`
	if err := s.Decode(strings.NewReader(doc)); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !s.Loaded() {
		t.Fatal("store should report loaded")
	}
	if got := s.Axis(0); got != (Axis{Min: 100, Max: 3900, MidMin: 1900, MidMax: 2200}) {
		t.Fatalf("axis 0 = %+v", got)
	}
	want1 := DefaultAxis
	want1.Max = 4000
	if got := s.Axis(1); got != want1 {
		t.Fatalf("axis 1 = %+v, want %+v", got, want1)
	}
	if s.Axis(2) != DefaultAxis {
		t.Fatalf("axis 2 missing from document should use defaults, got %+v", s.Axis(2))
	}
}

func TestDecodeFailureKeepsValues(t *testing.T) {
	s := NewStore(1)
	custom := Axis{Min: 5, Max: 4000, MidMin: 1800, MidMax: 2300}
	_ = s.SetAxis(0, custom)

	if err := s.Decode(strings.NewReader(`{"axis": [`)); err == nil {
		t.Fatal("expected parse error")
	}
	if s.Loaded() {
		t.Fatal("failed decode must clear the loaded flag")
	}
	if s.Axis(0) != custom {
		t.Fatalf("failed decode changed values: %+v", s.Axis(0))
	}

	if err := s.Decode(strings.NewReader(`{"version": 9, "axis": []}`)); err == nil {
		t.Fatal("expected version error")
	}
}

func TestLoadMissingFile(t *testing.T) {
	s := NewStore(2)
	if err := s.Load(filepath.Join(t.TempDir(), "calibration.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
	if s.Loaded() || s.Axis(1) != DefaultAxis {
		t.Fatal("missing file must leave defaults and not-loaded")
	}
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calibration.json")
	s := NewStore(2)
	_ = s.SetAxis(1, Axis{Min: 12, Max: 4011, MidMin: 1950, MidMax: 2150})
	if err := s.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte(`"midMin": 1950`)) || !bytes.Contains(data, []byte(`"min": 0`)) {
		t.Fatalf("unexpected document:\n%s", data)
	}

	loaded := NewStore(2)
	if err := loaded.Load(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Axis(1) != s.Axis(1) || loaded.Axis(0) != DefaultAxis {
		t.Fatalf("round trip mismatch: %+v", loaded.Axis(1))
	}
}

func TestDump(t *testing.T) {
	s := NewStore(1)
	var buf bytes.Buffer
	s.Dump(&buf)
	out := buf.String()
	if !strings.Contains(out, "1848") || !strings.Contains(out, "not loaded") {
		t.Fatalf("unexpected dump:\n%s", out)
	}
}
