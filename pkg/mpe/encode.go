package mpe

import (
	"math"

	"gitlab.com/gomidi/midi/v2"
)

// Encode builds the message that decodes to e. Values are rounded to the
// nearest protocol step and clamped to the representable range.
// A NoteOn velocity never encodes below 1, since a zero velocity note on
// decodes as NoteOff. It reports false for channels above 15, note or
// controller numbers above 127, and unknown kinds.
//
// A Control event for controller 74 encodes to a message that decodes as
// Slide.
func Encode(e Event) (Message, bool) {
	if e.Channel > 15 {
		return 0, false
	}
	var msg midi.Message
	switch e.Kind {
	case KindNoteOn, KindNoteOff:
		if e.Note < 0 || e.Note > 127 {
			return 0, false
		}
		note := uint8(math.Round(float64(e.Note)))
		vel := denormalise(e.Value)
		if e.Kind == KindNoteOff {
			msg = midi.NoteOffVelocity(e.Channel, note, vel)
			break
		}
		if vel == 0 {
			vel = 1
		}
		msg = midi.NoteOn(e.Channel, note, vel)
	case KindPitchBend:
		msg = midi.Pitchbend(e.Channel, bendValue(e.Value))
	case KindPressure:
		msg = midi.AfterTouch(e.Channel, denormalise(e.Value))
	case KindSlide:
		msg = midi.ControlChange(e.Channel, SlideController, denormalise(e.Value))
	case KindControl:
		if e.Controller > 127 {
			return 0, false
		}
		msg = midi.ControlChange(e.Channel, e.Controller, denormalise(e.Value))
	default:
		return 0, false
	}
	return FromBytes(msg)
}

func denormalise(v float32) uint8 {
	x := math.Round(float64(v) * 127)
	return uint8(math.Max(0, math.Min(127, x)))
}

// bendValue returns the signed 14-bit bend for an offset in semitones
func bendValue(semitones float32) int16 {
	x := math.Round(float64(semitones) * (8192.0 / BendRange))
	return int16(math.Max(-8192, math.Min(8191, x)))
}
