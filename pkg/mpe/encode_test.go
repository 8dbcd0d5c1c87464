package mpe

import "testing"

func TestEncodeRoundTrip(t *testing.T) {
	var msgs []Message
	for ch := byte(0); ch < 16; ch += 5 {
		for b := byte(0); b < 128; b++ {
			msgs = append(msgs,
				Pack(0x80|ch, b, 127-b),
				Pack(0xB0|ch, b, b),
				Pack(0xD0|ch, b, 0),
			)
			if b > 0 {
				msgs = append(msgs, Pack(0x90|ch, 127-b, b))
			}
		}
	}
	for v := 0; v < 16384; v++ {
		msgs = append(msgs, Pack(0xE9, byte(v&0x7F), byte(v>>7)))
	}

	for _, m := range msgs {
		e, ok := Parse(m)
		if !ok {
			t.Fatalf("Parse(%v) dropped", m)
		}
		got, ok := Encode(e)
		if !ok {
			t.Fatalf("Encode(%v) failed", e)
		}
		if got != m {
			t.Fatalf("Encode(Parse(%v)) = %v", m, got)
		}
	}
}

func TestEncodeZeroVelocityNoteOn(t *testing.T) {
	// note on at zero velocity would decode as a note off
	m, ok := Encode(NoteOn(0, 60, 0))
	if !ok {
		t.Fatal("Encode() failed")
	}
	if m != Pack(0x90, 60, 1) {
		t.Errorf("Encode() = %v, want 90 3C 01", m)
	}

	m, _ = Encode(NoteOff(0, 60, 0))
	if m != Pack(0x80, 60, 0) {
		t.Errorf("Encode() = %v, want 80 3C 00", m)
	}
}

func TestEncodeClamps(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  Message
	}{
		{"bend above range", PitchBend(0, 60), Pack(0xE0, 0x7F, 0x7F)},
		{"bend below range", PitchBend(0, -60), Pack(0xE0, 0, 0)},
		{"pressure above one", Pressure(1, 2), Pack(0xD1, 127, 0)},
		{"slide below zero", Slide(2, -1), Pack(0xB2, 74, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Encode(tt.event)
			if !ok || got != tt.want {
				t.Errorf("Encode() = %v, %v, want %v", got, ok, tt.want)
			}
		})
	}
}

func TestEncodeRejects(t *testing.T) {
	events := []Event{
		NoteOn(16, 60, 1),
		NoteOff(0, 128, 1),
		NoteOn(0, -1, 1),
		Control(0, 200, 1),
		{Kind: Kind(42)},
	}
	for _, e := range events {
		if m, ok := Encode(e); ok {
			t.Errorf("Encode(%+v) = %v, want failure", e, m)
		}
	}
}
