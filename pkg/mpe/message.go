// Package mpe decodes short MIDI messages into MPE note-expression events
package mpe

import "fmt"

// Message is a packed short MIDI message.
// Format: (byte0 << 16) | (byte1 << 8) | byte2
type Message uint32

// Status bytes recognized by the parser (high nibble of byte0)
const (
	StatusNoteOff         = 0x80
	StatusNoteOn          = 0x90
	StatusPolyPressure    = 0xA0
	StatusControlChange   = 0xB0
	StatusProgramChange   = 0xC0
	StatusChannelPressure = 0xD0
	StatusPitchBend       = 0xE0
	StatusSystem          = 0xF0
)

// Pack builds a Message from its three protocol bytes
func Pack(b0, b1, b2 byte) Message {
	return Message(uint32(b0)<<16 | uint32(b1)<<8 | uint32(b2))
}

// FromBytes packs a raw message of one to three bytes. Missing trailing
// bytes are zero. It reports false for empty input or anything longer
// than three bytes (SysEx and other long messages).
func FromBytes(raw []byte) (Message, bool) {
	if len(raw) == 0 || len(raw) > 3 {
		return 0, false
	}
	var b [3]byte
	copy(b[:], raw)
	return Pack(b[0], b[1], b[2]), true
}

// Byte0 returns the status byte
func (m Message) Byte0() byte { return byte(m >> 16) }

// Byte1 returns the first data byte
func (m Message) Byte1() byte { return byte(m >> 8) }

// Byte2 returns the second data byte
func (m Message) Byte2() byte { return byte(m) }

// Bytes returns the three protocol bytes in wire order
func (m Message) Bytes() []byte {
	return []byte{m.Byte0(), m.Byte1(), m.Byte2()}
}

// Status returns the message type, byte0 masked to its high nibble
func (m Message) Status() byte { return m.Byte0() & 0xF0 }

// Channel returns the low nibble of byte0 (0-15)
func (m Message) Channel() uint8 { return m.Byte0() & 0x0F }

func (m Message) String() string {
	return fmt.Sprintf("%02X %02X %02X", m.Byte0(), m.Byte1(), m.Byte2())
}

// Len returns the wire length of the message: two bytes for program
// change and channel pressure, three otherwise.
func (m Message) Len() int {
	switch m.Status() {
	case StatusProgramChange, StatusChannelPressure:
		return 2
	default:
		return 3
	}
}

// Raw returns the message bytes trimmed to Len
func (m Message) Raw() []byte {
	return m.Bytes()[:m.Len()]
}
