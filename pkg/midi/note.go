// Package midi renders generated melodies as Standard MIDI Files.
package midi

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidNote is returned for tokens that are not a note name in scientific
// pitch notation, or that fall outside the MIDI key range.
var ErrInvalidNote = errors.New("invalid note")

var pitchClasses = map[byte]int{
	'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11,
}

// ParseNote converts a note name such as "C4", "F#4" or "Bb-1" to its MIDI key
// number, with C4 as middle C (60). Several accidentals may be stacked ("C##4").
func ParseNote(name string) (uint8, error) {
	if name == "" {
		return 0, fmt.Errorf("%w: empty name", ErrInvalidNote)
	}

	pc, ok := pitchClasses[name[0]]
	if !ok {
		return 0, fmt.Errorf("%w: %q has no pitch letter", ErrInvalidNote, name)
	}

	i := 1
	for ; i < len(name); i++ {
		switch name[i] {
		case '#':
			pc++
			continue
		case 'b':
			pc--
			continue
		}
		break
	}

	octave, err := strconv.Atoi(name[i:])
	if err != nil {
		return 0, fmt.Errorf("%w: %q has no octave", ErrInvalidNote, name)
	}

	key := (octave+1)*12 + pc
	if key < 0 || key > 127 {
		return 0, fmt.Errorf("%w: %q is outside the MIDI range", ErrInvalidNote, name)
	}
	return uint8(key), nil
}

// ParseMelody converts every note of a melody, failing on the first invalid one.
func ParseMelody(melody []string) ([]uint8, error) {
	keys := make([]uint8, 0, len(melody))
	for i, name := range melody {
		key, err := ParseNote(name)
		if err != nil {
			return nil, fmt.Errorf("note %d: %w", i+1, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}
