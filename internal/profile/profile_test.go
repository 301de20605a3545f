package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var testLimits = Limits{Axes: 4, Buttons: 4, Channels: 16}

type recordingFaults struct{ msgs []string }

func (r *recordingFaults) Reportf(format string, args ...any) bool {
	r.msgs = append(r.msgs, fmt.Sprintf(format, args...))
	return true
}

func TestParseJSON(t *testing.T) {
	doc := `{
	  "name": "airplane",
	  "mapping": [
	    {"event": "STARTUP", "channel": 5, "op": "CONSTANT", "parm": 1500},
	    {"event": "ALWAYS", "channel": 1, "op": "AXIS", "parm": "LEFT_STICK_X"},
	    {"event": "ALWAYS", "channel": 6, "op": "SWITCH3", "parm": "BUTTON2"},
	    {"event": "ALWAYS", "channel": 7, "op": "ADDITIVE", "parm": "AXIS3", "speed": 4},
	    {"event": "CHANNEL_EQUAL_2000", "channel": 6, "op": "SOUND", "parm": "/sounds/high.mp3"},
	    {"event": "ALWAYS", "channel": 8, "op": "MUL"}
	  ]
	}`
	p, err := Parse([]byte(doc), FormatJSON, testLimits)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !p.Valid() {
		t.Fatalf("unexpected issues: %s", p.IssueSummary())
	}
	if p.Name != "airplane" || p.Version != 1 || len(p.Actions) != 6 {
		t.Fatalf("unexpected profile %+v", p)
	}

	want := []struct {
		event   EventKind
		channel int
		op      OpKind
		input   int
		value   int32
		speed   int32
	}{
		{EventStartup, 4, OpConstant, -1, 1500, 1},
		{EventAlways, 0, OpAxis, 0, 0, 1},
		{EventAlways, 5, OpSwitch3, 2, 0, 1},
		{EventAlways, 6, OpAdditive, 3, 0, 4},
		{EventChannelEqual, 5, OpSound, -1, 0, 1},
		{EventAlways, 7, OpMul, -1, 1, 1},
	}
	for i, w := range want {
		a := p.Actions[i]
		if a.Event != w.event || a.Channel != w.channel || a.Op != w.op || a.Input != w.input || a.Value != w.value || a.Speed != w.speed {
			t.Errorf("action %d = %+v", i, a)
		}
	}
	if p.Actions[4].EqualValue != 2000 || p.Actions[4].Parm != "/sounds/high.mp3" {
		t.Errorf("sound action = %+v", p.Actions[4])
	}
}

func TestParseYAML(t *testing.T) {
	doc := `
version: 1
name: quad
mapping:
  - event: ALWAYS
    channel: 3
    op: AXIS
    parm: RIGHT_STICK_Y
  - event: ALWAYS
    channel: 9
    op: ADD
    parm: -250
  - event: CHANNEL_EQUAL_1333
    channel: 9
    op: TRIGGER
    parm: RIGHT_TRIGGER
`
	p, err := Parse([]byte(doc), FormatYAML, testLimits)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !p.Valid() {
		t.Fatalf("unexpected issues: %s", p.IssueSummary())
	}
	if p.Actions[0].Input != 3 || p.Actions[1].Value != -250 || p.Actions[2].Input != 3 {
		t.Fatalf("unexpected actions %+v", p.Actions)
	}
	if p.Actions[2].EqualValue != 1333 {
		t.Fatalf("equal value = %d", p.Actions[2].EqualValue)
	}
}

func TestParseCollectsIssues(t *testing.T) {
	doc := `{"mapping": [
	  {"event": "SOMETIMES", "channel": 1, "op": "AXIS", "parm": "LEFT_STICK_X"},
	  {"event": "ALWAYS", "channel": 16, "op": "CONSTANT", "parm": 1200},
	  {"event": "ALWAYS", "op": "CONSTANT", "parm": 1200},
	  {"event": "ALWAYS", "channel": 2, "op": "WIGGLE"},
	  {"event": "ALWAYS", "channel": 3, "op": "AXIS", "parm": "AXIS9"},
	  {"event": "ALWAYS", "channel": 4, "op": "CONSTANT", "parm": "high"},
	  {"event": "ALWAYS", "channel": 5, "op": "BUTTON", "parm": {"x": 1}},
	  {"event": "ALWAYS", "channel": 6, "op": "AXIS", "parm": "LEFT_STICK_X", "speed": 2}
	]}`
	p, err := Parse([]byte(doc), FormatJSON, testLimits)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(p.Actions) != 8 {
		t.Fatalf("invalid actions must be kept, got %d", len(p.Actions))
	}

	fields := map[int]string{}
	for _, is := range p.Issues {
		fields[is.Action] += is.Field + ","
	}
	want := map[int]string{
		0: "event,",
		1: "channel,",
		2: "channel,",
		3: "op,",
		4: "parm,",
		5: "parm,",
		6: "parm,parm,",
		7: "speed,",
	}
	for i, f := range want {
		if fields[i] != f {
			t.Errorf("action %d issues = %q, want %q", i, fields[i], f)
		}
	}
	if p.Actions[0].Event != EventInvalid || p.Actions[3].Op != OpInvalid {
		t.Fatal("unknown names must map to the invalid kinds")
	}
	if p.Actions[1].Channel != 15 || p.Actions[2].Channel != -2 {
		t.Fatalf("channel indices = %d %d", p.Actions[1].Channel, p.Actions[2].Channel)
	}
	if p.Actions[4].Input != -1 {
		t.Fatal("unresolved axis must have Input -1")
	}
	if !strings.Contains(p.IssueSummary(), `mapping[0].event: unknown event "SOMETIMES"`) {
		t.Fatalf("summary = %s", p.IssueSummary())
	}
}

func TestParseBoundsNumericParm(t *testing.T) {
	doc := `{"mapping": [
	  {"event": "ALWAYS", "channel": 1, "op": "ADD", "parm": 2147483647},
	  {"event": "ALWAYS", "channel": 1, "op": "ADD", "parm": 5e12},
	  {"event": "ALWAYS", "channel": 1, "op": "MUL", "parm": "-9999999999"},
	  {"event": "ALWAYS", "channel": 1, "op": "CONSTANT", "parm": 1500.7}
	]}`
	p, err := Parse([]byte(doc), FormatJSON, testLimits)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []int32{2147483647, 2147483647, -2147483648, 1500}
	for i, w := range want {
		if p.Actions[i].Value != w {
			t.Errorf("action %d value = %d, want %d", i, p.Actions[i].Value, w)
		}
	}
	if len(p.Issues) != 2 || p.Issues[0].Action != 1 || p.Issues[1].Action != 2 {
		t.Fatalf("issues = %s", p.IssueSummary())
	}
}

func TestParseRejectsNewerVersion(t *testing.T) {
	p, err := Parse([]byte(`{"version": 2, "mapping": [{"event":"ALWAYS","channel":1,"op":"AXIS","parm":"AXIS0"}]}`), FormatJSON, testLimits)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if p.HasMapping() || p.Valid() {
		t.Fatal("newer document must have no mapping and an issue")
	}
}

func TestParseMalformed(t *testing.T) {
	if _, err := Parse([]byte(`{"mapping": [`), FormatJSON, testLimits); err == nil {
		t.Fatal("expected JSON error")
	}
	if _, err := Parse([]byte("mapping: [\n  - {"), FormatYAML, testLimits); err == nil {
		t.Fatal("expected YAML error")
	}
}

func TestNames(t *testing.T) {
	tests := []struct {
		name   string
		button bool
		count  int
		want   int
		ok     bool
	}{
		{"LEFT_STICK_X", false, 4, 0, true},
		{"RIGHT_STICK_Y", false, 4, 3, true},
		{"RIGHT_STICK_Y", false, 2, 0, false},
		{"AXIS1", false, 4, 1, true},
		{"AXIS4", false, 4, 0, false},
		{"AXIS01", false, 4, 0, false},
		{"AXIS", false, 4, 0, false},
		{"LEFT_BUMPER", true, 4, 0, true},
		{"RIGHT_TRIGGER", true, 4, 3, true},
		{"BUTTON7", true, 8, 7, true},
		{"BUTTON-1", true, 8, 0, false},
		{"LEFT_STICK_X", true, 4, 0, false},
	}
	for _, tt := range tests {
		var got int
		var ok bool
		if tt.button {
			got, ok = ButtonIndex(tt.name, tt.count)
		} else {
			got, ok = AxisIndex(tt.name, tt.count)
		}
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("lookup(%q, %d) = %d, %v; want %d, %v", tt.name, tt.count, got, ok, tt.want, tt.ok)
		}
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"10_quad.yaml":  "name: quad\nmapping:\n  - {event: ALWAYS, channel: 1, op: AXIS, parm: AXIS0}\n",
		"00_plane.json": `{"name":"plane","mapping":[{"event":"ALWAYS","channel":1,"op":"NOPE"}]}`,
		"05_broken.json": `{"mapping":`,
		"notes.txt":     "ignored",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	faults := &recordingFaults{}
	m, err := LoadDir(dir, testLimits, faults)
	if err != nil {
		t.Fatalf("load dir: %v", err)
	}
	if got := strings.Join(m.Names(), ","); got != "plane,05_broken.json,quad" {
		t.Fatalf("names = %s", got)
	}
	if len(faults.msgs) != 2 {
		t.Fatalf("expected 2 faults, got %v", faults.msgs)
	}

	p, idx := m.Current()
	if idx != 0 || p.Name != "plane" {
		t.Fatalf("current = %d %v", idx, p)
	}
	if err := m.Select(2); err != nil {
		t.Fatal(err)
	}
	if p, idx = m.Current(); idx != 2 || !p.HasMapping() {
		t.Fatalf("current after select = %d %+v", idx, p)
	}
	if err := m.Select(3); err == nil {
		t.Fatal("expected out of range error")
	}
	if p, _ := m.Current(); p.Name != "quad" {
		t.Fatal("failed select must keep the active profile")
	}
}

func TestLoadDirMissing(t *testing.T) {
	m, err := LoadDir(filepath.Join(t.TempDir(), "nope"), testLimits, &recordingFaults{})
	if err != nil {
		t.Fatalf("missing dir should not fail: %v", err)
	}
	if p, idx := m.Current(); p != nil || idx != 0 || m.Len() != 0 {
		t.Fatalf("expected empty manager, got %v %d", p, idx)
	}
}
