package mpe

import (
	"encoding/json"
	"fmt"
)

// Kind identifies which note-expression event an Event carries
type Kind uint8

const (
	KindNoteOn Kind = iota
	KindNoteOff
	KindPitchBend
	KindPressure
	KindSlide
	KindControl
)

// NumKinds is the number of event kinds
const NumKinds = 6

var kindNames = [NumKinds]string{
	KindNoteOn:    "note-on",
	KindNoteOff:   "note-off",
	KindPitchBend: "pitch-bend",
	KindPressure:  "pressure",
	KindSlide:     "slide",
	KindControl:   "control",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// MarshalText implements encoding.TextMarshaler
func (k Kind) MarshalText() ([]byte, error) {
	if int(k) >= len(kindNames) {
		return nil, fmt.Errorf("unknown event kind %d", uint8(k))
	}
	return []byte(kindNames[k]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *Kind) UnmarshalText(text []byte) error {
	for i, name := range kindNames {
		if name == string(text) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown event kind %q", text)
}

// Event is a note-expression event. Kind selects which fields are
// meaningful:
//
//	NoteOn, NoteOff  Note, Value (normalized velocity)
//	PitchBend        Value (semitones)
//	Pressure, Slide  Value (normalized)
//	Control          Controller, Value (normalized)
type Event struct {
	Kind       Kind
	Channel    uint8
	Note       float32
	Controller uint8
	Value      float32
}

// NoteOn returns a note-on event
func NoteOn(channel uint8, note, velocity float32) Event {
	return Event{Kind: KindNoteOn, Channel: channel, Note: note, Value: velocity}
}

// NoteOff returns a note-off event
func NoteOff(channel uint8, note, velocity float32) Event {
	return Event{Kind: KindNoteOff, Channel: channel, Note: note, Value: velocity}
}

// PitchBend returns a pitch bend event, offset in semitones
func PitchBend(channel uint8, semitones float32) Event {
	return Event{Kind: KindPitchBend, Channel: channel, Value: semitones}
}

// Pressure returns a channel pressure event
func Pressure(channel uint8, value float32) Event {
	return Event{Kind: KindPressure, Channel: channel, Value: value}
}

// Slide returns an MPE slide event
func Slide(channel uint8, value float32) Event {
	return Event{Kind: KindSlide, Channel: channel, Value: value}
}

// Control returns a generic controller event
func Control(channel, controller uint8, value float32) Event {
	return Event{Kind: KindControl, Channel: channel, Controller: controller, Value: value}
}

func (e Event) String() string {
	switch e.Kind {
	case KindNoteOn, KindNoteOff:
		return fmt.Sprintf("%-10s ch=%-2d note=%g vel=%.4f", e.Kind, e.Channel, e.Note, e.Value)
	case KindPitchBend:
		return fmt.Sprintf("%-10s ch=%-2d semitones=%+.4f", e.Kind, e.Channel, e.Value)
	case KindControl:
		return fmt.Sprintf("%-10s ch=%-2d cc=%d value=%.4f", e.Kind, e.Channel, e.Controller, e.Value)
	default:
		return fmt.Sprintf("%-10s ch=%-2d value=%.4f", e.Kind, e.Channel, e.Value)
	}
}

type eventJSON struct {
	Kind       Kind     `json:"kind"`
	Channel    uint8    `json:"channel"`
	Note       *float32 `json:"note,omitempty"`
	Controller *uint8   `json:"controller,omitempty"`
	Velocity   *float32 `json:"velocity,omitempty"`
	Semitones  *float32 `json:"semitones,omitempty"`
	Value      *float32 `json:"value,omitempty"`
}

// MarshalJSON writes only the fields that belong to the event's kind
func (e Event) MarshalJSON() ([]byte, error) {
	j := eventJSON{Kind: e.Kind, Channel: e.Channel}
	switch e.Kind {
	case KindNoteOn, KindNoteOff:
		j.Note, j.Velocity = &e.Note, &e.Value
	case KindPitchBend:
		j.Semitones = &e.Value
	case KindControl:
		j.Controller, j.Value = &e.Controller, &e.Value
	case KindPressure, KindSlide:
		j.Value = &e.Value
	default:
		return nil, fmt.Errorf("unknown event kind %d", uint8(e.Kind))
	}
	return json.Marshal(j)
}

// UnmarshalJSON reads the form written by MarshalJSON
func (e *Event) UnmarshalJSON(data []byte) error {
	var j eventJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	ev := Event{Kind: j.Kind, Channel: j.Channel}
	switch j.Kind {
	case KindNoteOn, KindNoteOff:
		if j.Note == nil {
			return fmt.Errorf("%s event without note", j.Kind)
		}
		ev.Note = *j.Note
		if j.Velocity != nil {
			ev.Value = *j.Velocity
		}
	case KindPitchBend:
		if j.Semitones != nil {
			ev.Value = *j.Semitones
		}
	case KindControl:
		if j.Controller == nil {
			return fmt.Errorf("%s event without controller", j.Kind)
		}
		ev.Controller = *j.Controller
		fallthrough
	case KindPressure, KindSlide:
		if j.Value != nil {
			ev.Value = *j.Value
		}
	}
	*e = ev
	return nil
}

// Sink receives decoded events
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to a Sink
type SinkFunc func(Event)

// Emit calls f(e)
func (f SinkFunc) Emit(e Event) { f(e) }
