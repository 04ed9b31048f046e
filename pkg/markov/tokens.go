package markov

import (
	"errors"
	"fmt"
	"io"
)

// ErrReservedToken is returned when training input contains a boundary token.
var ErrReservedToken = errors.New("reserved boundary token in input")

// Token represents a single tokenized unit of a melody. EOC marks the end of
// the current melody rather than a real token.
type Token struct {
	Text string
	EOC  bool
}

// Tokenizer is an interface that defines the contract for splitting melody
// text into tokens, and for rendering a generated melody back into text.
type Tokenizer interface {
	// NewStream returns a stateful StreamTokenizer for processing an io.Reader.
	NewStream(io.Reader) StreamTokenizer
	// Join renders a melody as a single line of text.
	Join(melody []string) string
}

// StreamTokenizer is an interface for a stateful tokenizer that processes a
// stream of data, returning one token at a time.
type StreamTokenizer interface {
	// Next returns the next token from the stream. It returns io.EOF as the
	// error when the stream is fully consumed.
	Next() (*Token, error)
}

// ReadMelodies reads every melody from r. Empty melodies are skipped.
func ReadMelodies(tokenizer Tokenizer, r io.Reader) ([][]string, error) {
	stream := tokenizer.NewStream(r)

	var melodies [][]string
	var current []string
	for {
		token, err := stream.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("tokenizer error: %w", err)
		}

		if token.EOC {
			if len(current) > 0 {
				melodies = append(melodies, current)
				current = nil
			}
			continue
		}
		if IsBoundary(token.Text) {
			return nil, fmt.Errorf("melody %d: %w: %q", len(melodies)+1, ErrReservedToken, token.Text)
		}
		current = append(current, token.Text)
	}
	if len(current) > 0 {
		melodies = append(melodies, current)
	}
	return melodies, nil
}
