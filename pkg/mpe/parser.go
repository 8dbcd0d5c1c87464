package mpe

const (
	// SlideController is the MPE slide controller number
	SlideController = 74
	// BendRange is the total pitch bend range in semitones
	BendRange = 48.0
)

// Parse decodes a single message. It reports false for message types
// that carry no note expression (poly pressure, program change, system
// messages); those are dropped without error.
func Parse(m Message) (Event, bool) {
	b1, b2 := m.Byte1(), m.Byte2()
	ch := m.Channel()

	switch m.Status() {
	case StatusNoteOff:
		return NoteOff(ch, float32(b1), normalise(b2)), true
	case StatusNoteOn:
		// Note on with zero velocity is a note off
		if b2 == 0 {
			return NoteOff(ch, float32(b1), 0), true
		}
		return NoteOn(ch, float32(b1), normalise(b2)), true
	case StatusControlChange:
		if b1 == SlideController {
			return Slide(ch, normalise(b2)), true
		}
		return Control(ch, b1, normalise(b2)), true
	case StatusChannelPressure:
		return Pressure(ch, normalise(b1)), true
	case StatusPitchBend:
		return PitchBend(ch, bendSemitones(b2, b1)), true
	default:
		return Event{}, false
	}
}

// ParseAll decodes msgs in order, skipping those with no event
func ParseAll(msgs []Message) []Event {
	events := make([]Event, 0, len(msgs))
	for _, m := range msgs {
		if e, ok := Parse(m); ok {
			events = append(events, e)
		}
	}
	return events
}

// Parser decodes messages and emits the resulting events to a Sink
type Parser struct {
	sink Sink
}

// NewParser creates a Parser emitting to sink
func NewParser(sink Sink) *Parser {
	return &Parser{sink: sink}
}

// Parse decodes m and emits its event, if any. It reports whether an
// event was emitted.
func (p *Parser) Parse(m Message) bool {
	e, ok := Parse(m)
	if ok {
		p.sink.Emit(e)
	}
	return ok
}

func normalise(b byte) float32 {
	return float32(b) * (1.0 / 127.0)
}

func bendSemitones(msb, lsb byte) float32 {
	value := int(msb)*128 + int(lsb)
	return float32(value-8192) / (8192.0 / BendRange)
}
