package mpe

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindNoteOn, "note-on"},
		{KindNoteOff, "note-off"},
		{KindPitchBend, "pitch-bend"},
		{KindPressure, "pressure"},
		{KindSlide, "slide"},
		{KindControl, "control"},
		{Kind(9), "Kind(9)"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", uint8(tt.kind), got, tt.want)
		}
	}
}

func TestEventJSONFields(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  string
	}{
		{"note on", NoteOn(1, 60, 1), `{"kind":"note-on","channel":1,"note":60,"velocity":1}`},
		{"note off zero", NoteOff(0, 0, 0), `{"kind":"note-off","channel":0,"note":0,"velocity":0}`},
		{"bend", PitchBend(2, -1.5), `{"kind":"pitch-bend","channel":2,"semitones":-1.5}`},
		{"pressure", Pressure(3, 0.5), `{"kind":"pressure","channel":3,"value":0.5}`},
		{"slide", Slide(4, 0), `{"kind":"slide","channel":4,"value":0}`},
		{"control", Control(5, 7, 1), `{"kind":"control","channel":5,"controller":7,"value":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.event)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("Marshal() = %s, want %s", data, tt.want)
			}

			var back Event
			if err := json.Unmarshal(data, &back); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if back != tt.event {
				t.Errorf("Unmarshal() = %v, want %v", back, tt.event)
			}
		})
	}
}

func TestEventUnmarshalErrors(t *testing.T) {
	inputs := []string{
		`{"kind":"aftertouch","channel":0}`,
		`{"kind":"note-on","channel":0,"velocity":1}`,
		`{"kind":"control","channel":0,"value":1}`,
	}
	for _, in := range inputs {
		var e Event
		if err := json.Unmarshal([]byte(in), &e); err == nil {
			t.Errorf("Unmarshal(%s) succeeded, want error", in)
		}
	}
}

func TestEventString(t *testing.T) {
	s := NoteOn(1, 60, 100.0/127).String()
	if !strings.HasPrefix(s, "note-on") || !strings.Contains(s, "note=60") {
		t.Errorf("String() = %q", s)
	}
	if s := PitchBend(2, 0).String(); !strings.Contains(s, "semitones=+0.0000") {
		t.Errorf("String() = %q", s)
	}
}
