package converter

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/james-see/mpeparse/pkg/mpe"
	"gitlab.com/gomidi/midi/v2/smf"
)

const (
	defaultResolution = 480
	defaultTempo      = 120.0
)

// MIDIConverter handles MIDI file parsing and generation
type MIDIConverter struct {
	ticksPerQuarter uint16
	tempo           float64
}

// NewMIDIConverter creates a new MIDI converter
func NewMIDIConverter() *MIDIConverter {
	return &MIDIConverter{
		ticksPerQuarter: defaultResolution,
		tempo:           defaultTempo,
	}
}

// ParseMIDIFile reads a MIDI file and decodes its events
func (m *MIDIConverter) ParseMIDIFile(filename string) (*Timeline, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read MIDI file: %w", err)
	}
	return m.ParseMIDI(data)
}

type trackMessage struct {
	tick  uint64
	track int
	msg   []byte
}

// ParseMIDI parses MIDI data and decodes every channel message in it.
// Tracks are merged by absolute tick; messages on the same tick keep
// track order, then file order.
func (m *MIDIConverter) ParseMIDI(data []byte) (*Timeline, error) {
	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse MIDI: %w", err)
	}

	resolution := m.ticksPerQuarter
	switch tf := s.TimeFormat.(type) {
	case smf.MetricTicks:
		resolution = tf.Resolution()
	case nil:
	default:
		return nil, fmt.Errorf("unsupported MIDI time format: %v", tf)
	}
	if resolution == 0 {
		return nil, errors.New("invalid MIDI resolution: 0 ticks per quarter")
	}

	var msgs []trackMessage
	for i, track := range s.Tracks {
		var tick uint64
		for _, ev := range track {
			tick += uint64(ev.Delta)
			msgs = append(msgs, trackMessage{tick: tick, track: i, msg: ev.Message})
		}
	}
	sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].tick < msgs[j].tick })

	tl := &Timeline{
		Name:       "MIDI Events",
		Resolution: resolution,
		Tempo:      m.tempo,
		Events:     make([]TimedEvent, 0, len(msgs)),
	}

	var (
		cur      trackMessage
		lastTick uint64
		millis   float64
		tempo    = m.tempo
	)
	parser := mpe.NewParser(mpe.SinkFunc(func(e mpe.Event) {
		tl.Events = append(tl.Events, TimedEvent{
			Tick:   cur.tick,
			Millis: millis,
			Track:  cur.track,
			Event:  e,
		})
	}))

	for _, tm := range msgs {
		cur = tm
		millis += ticksToMillis(tm.tick-lastTick, resolution, tempo)
		lastTick = tm.tick

		if bpm, ok := metaTempo(tm.msg); ok {
			tempo = bpm
			if tm.tick == 0 {
				tl.Tempo = bpm
			}
			continue
		}
		if !isChannelMessage(tm.msg) {
			continue
		}
		packed, ok := mpe.FromBytes(tm.msg)
		if !ok || !parser.Parse(packed) {
			tl.Dropped++
		}
	}
	return tl, nil
}

// GenerateMIDI creates a single-track MIDI file from a timeline
func (m *MIDIConverter) GenerateMIDI(tl *Timeline) ([]byte, error) {
	if tl == nil {
		return nil, errors.New("nil timeline")
	}

	resolution := tl.Resolution
	if resolution == 0 {
		resolution = m.ticksPerQuarter
	}
	tempo := tl.Tempo
	if tempo <= 0 {
		tempo = m.tempo
	}

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(resolution)

	var track smf.Track

	// Add tempo meta event
	microsecondsPerBeat := uint32(60000000.0 / tempo)
	tempoData := smf.Message([]byte{
		0xFF, 0x51, 0x03,
		byte(microsecondsPerBeat >> 16),
		byte(microsecondsPerBeat >> 8),
		byte(microsecondsPerBeat),
	})
	track.Add(0, tempoData)

	events := make([]TimedEvent, len(tl.Events))
	copy(events, tl.Events)
	sort.SliceStable(events, func(i, j int) bool { return events[i].Tick < events[j].Tick })

	var currentTick uint64
	for i, ev := range events {
		msg, ok := mpe.Encode(ev.Event)
		if !ok {
			return nil, fmt.Errorf("event %d: cannot encode %v", i, ev.Event)
		}
		delta := ev.Tick - currentTick
		if delta > 0xFFFFFFFF {
			return nil, fmt.Errorf("event %d: delta of %d ticks is too large", i, delta)
		}
		track.Add(uint32(delta), msg.Raw())
		currentTick = ev.Tick
	}

	track.Close(0)

	if err := s.Add(track); err != nil {
		return nil, fmt.Errorf("failed to add track: %w", err)
	}

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write MIDI: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteMIDIFile writes a timeline to a MIDI file
func (m *MIDIConverter) WriteMIDIFile(tl *Timeline, filename string) error {
	data, err := m.GenerateMIDI(tl)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}

// metaTempo reads a set tempo meta message (FF 51 03 tt tt tt)
func metaTempo(msg []byte) (float64, bool) {
	if len(msg) < 6 || msg[0] != 0xFF || msg[1] != 0x51 || msg[2] != 0x03 {
		return 0, false
	}
	microsecondsPerBeat := uint32(msg[3])<<16 | uint32(msg[4])<<8 | uint32(msg[5])
	if microsecondsPerBeat == 0 {
		return 0, false
	}
	return 60000000.0 / float64(microsecondsPerBeat), true
}

func isChannelMessage(msg []byte) bool {
	return len(msg) > 0 && msg[0] >= 0x80 && msg[0] < 0xF0
}

func ticksToMillis(ticks uint64, resolution uint16, bpm float64) float64 {
	return float64(ticks) * 60000.0 / (bpm * float64(resolution))
}
