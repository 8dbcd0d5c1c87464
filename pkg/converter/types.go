// Package converter decodes Standard MIDI Files into MPE expression event
// timelines and renders timelines back to MIDI
package converter

import "github.com/james-see/mpeparse/pkg/mpe"

// TimedEvent is a decoded event with its position in the file
type TimedEvent struct {
	Tick   uint64    `json:"tick"`
	Millis float64   `json:"ms"`
	Track  int       `json:"track"`
	Event  mpe.Event `json:"event"`
}

// Timeline holds the events decoded from a MIDI file, in arrival order
type Timeline struct {
	Name       string       `json:"name"`
	Resolution uint16       `json:"resolution"` // ticks per quarter note
	Tempo      float64      `json:"tempo"`      // initial tempo in BPM
	Events     []TimedEvent `json:"events"`
	Dropped    int          `json:"dropped"` // channel messages with no expression event
}

// Stats counts timeline events per kind
func (t *Timeline) Stats() map[mpe.Kind]int {
	stats := make(map[mpe.Kind]int, mpe.NumKinds)
	for _, ev := range t.Events {
		stats[ev.Event.Kind]++
	}
	return stats
}

// Converter handles format conversions
type Converter struct {
	midi *MIDIConverter
}

// New creates a new Converter
func New() *Converter {
	return &Converter{midi: NewMIDIConverter()}
}

// MIDI returns the underlying MIDI converter
func (c *Converter) MIDI() *MIDIConverter {
	return c.midi
}
