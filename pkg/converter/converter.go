package converter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Format represents a file format
type Format string

const (
	FormatMIDI    Format = "midi"
	FormatEvents  Format = "events"
	FormatUnknown Format = "unknown"
)

// DetectFormat detects the format of a file based on extension
func DetectFormat(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".mid", ".midi", ".smf":
		return FormatMIDI
	case ".json":
		return FormatEvents
	default:
		return FormatUnknown
	}
}

// DetectFormatFromContent detects format from file content
func DetectFormatFromContent(data []byte) Format {
	if len(data) >= 4 && string(data[:4]) == "MThd" {
		return FormatMIDI
	}

	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return FormatEvents
	}
	return FormatUnknown
}

// ConvertFile converts a file from one format to another
func (c *Converter) ConvertFile(inputPath, outputPath string) error {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}

	inputFormat := DetectFormat(inputPath)
	if inputFormat == FormatUnknown {
		inputFormat = DetectFormatFromContent(data)
	}
	outputFormat := DetectFormat(outputPath)
	if outputFormat == FormatUnknown {
		return errors.New("cannot determine output format from filename")
	}

	var outputData []byte
	switch {
	case inputFormat == FormatMIDI && outputFormat == FormatEvents:
		outputData, err = c.MIDIToEvents(data)
	case inputFormat == FormatEvents && outputFormat == FormatMIDI:
		outputData, err = c.EventsToMIDI(data)
	default:
		return fmt.Errorf("unsupported conversion: %s to %s", inputFormat, outputFormat)
	}
	if err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}

	if err := os.WriteFile(outputPath, outputData, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// Decode parses MIDI data into a timeline
func (c *Converter) Decode(midiData []byte) (*Timeline, error) {
	return c.midi.ParseMIDI(midiData)
}

// MIDIToEvents converts MIDI data to an indented JSON timeline
func (c *Converter) MIDIToEvents(midiData []byte) ([]byte, error) {
	tl, err := c.midi.ParseMIDI(midiData)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(tl, "", "  ")
}

// EventsToMIDI converts a JSON timeline to MIDI data
func (c *Converter) EventsToMIDI(eventData []byte) ([]byte, error) {
	tl, err := ParseTimeline(eventData)
	if err != nil {
		return nil, err
	}
	return c.midi.GenerateMIDI(tl)
}

// ParseTimeline reads a JSON timeline
func ParseTimeline(data []byte) (*Timeline, error) {
	var tl Timeline
	if err := json.Unmarshal(data, &tl); err != nil {
		return nil, fmt.Errorf("failed to parse events: %w", err)
	}
	return &tl, nil
}

// GetSupportedConversions returns a list of supported conversion paths
func GetSupportedConversions() []string {
	return []string{
		"midi -> events",
		"events -> midi",
	}
}
