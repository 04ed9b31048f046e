package midi

import (
	"bytes"
	"fmt"
	"io"

	"github.com/natefinch/atomic"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// resolution in ticks per quarter note.
const resolution = 96

type writeOptions struct {
	tempo     float64
	velocity  uint8
	channel   uint8
	noteTicks uint32
	trackName string
}

// WriteOption configures how a melody is rendered.
type WriteOption func(*writeOptions)

// WithTempo sets the tempo in beats per minute. Default: 120
func WithTempo(bpm float64) WriteOption {
	return func(o *writeOptions) { o.tempo = bpm }
}

// WithVelocity sets the note-on velocity (1-127). Default: 100
func WithVelocity(v uint8) WriteOption {
	return func(o *writeOptions) { o.velocity = v }
}

// WithChannel sets the MIDI channel (0-15). Default: 0
func WithChannel(ch uint8) WriteOption {
	return func(o *writeOptions) { o.channel = ch }
}

// WithNoteTicks sets the length of every note in ticks, at 96 ticks per quarter
// note. Default: 48 (an eighth note)
func WithNoteTicks(ticks uint32) WriteOption {
	return func(o *writeOptions) { o.noteTicks = ticks }
}

// WithTrackName sets the track name meta event. Default: "melody"
func WithTrackName(name string) WriteOption {
	return func(o *writeOptions) { o.trackName = name }
}

// Write renders melody as a single-track SMF and writes it to w. Every note
// gets the same length, one after the other.
func Write(w io.Writer, melody []string, opts ...WriteOption) error {
	options := &writeOptions{
		tempo:     120,
		velocity:  100,
		channel:   0,
		noteTicks: smf.MetricTicks(resolution).Ticks8th(),
		trackName: "melody",
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.channel > 15 {
		return fmt.Errorf("channel %d out of range", options.channel)
	}
	if options.velocity == 0 || options.velocity > 127 {
		return fmt.Errorf("velocity %d out of range", options.velocity)
	}
	if options.noteTicks == 0 {
		return fmt.Errorf("note length must be positive")
	}

	keys, err := ParseMelody(melody)
	if err != nil {
		return err
	}

	var tr smf.Track
	tr.Add(0, smf.MetaTrackSequenceName(options.trackName))
	tr.Add(0, smf.MetaMeter(4, 4))
	tr.Add(0, smf.MetaTempo(options.tempo))
	for _, key := range keys {
		tr.Add(0, gomidi.NoteOn(options.channel, key, options.velocity))
		tr.Add(options.noteTicks, gomidi.NoteOff(options.channel, key))
	}
	tr.Close(0)

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(resolution)
	if err = s.Add(tr); err != nil {
		return fmt.Errorf("failed to add track: %w", err)
	}
	if _, err = s.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write midi: %w", err)
	}
	return nil
}

// WriteFile renders melody to the file at path, replacing it atomically.
func WriteFile(path string, melody []string, opts ...WriteOption) error {
	var buf bytes.Buffer
	if err := Write(&buf, melody, opts...); err != nil {
		return err
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("failed to write midi file: %w", err)
	}
	return nil
}
