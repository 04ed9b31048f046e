package markov

import (
	"bufio"
	"io"
	"regexp"
	"strings"
)

// DefaultTokenizer reads one melody per line. Tokens are separated by
// whitespace, commas or bar lines, and "//" starts a comment that runs to the
// end of the line. Its behavior can be customized with functional options.
type DefaultTokenizer struct {
	separator  string
	comment    string
	tokenRegex *regexp.Regexp
}

// Option Is a function that configures a DefaultTokenizer.
type Option func(*DefaultTokenizer)

// WithSeparator Sets the string used for joining tokens in Join.
// Default: " "
func WithSeparator(sep string) Option {
	return func(t *DefaultTokenizer) {
		t.separator = sep
	}
}

// WithComment sets the prefix that starts a comment. An empty string disables comments.
// Default: "//"
func WithComment(prefix string) Option {
	return func(t *DefaultTokenizer) {
		t.comment = prefix
	}
}

// WithTokenRegex sets the regex string used to find tokens in a line.
// Default: `[^\s,|]+`
func WithTokenRegex(tokenRegex string) Option {
	return func(t *DefaultTokenizer) {
		t.tokenRegex = regexp.MustCompile(tokenRegex)
	}
}

// NewDefaultTokenizer creates a new tokenizer with default settings, which can be
// overridden by providing one or more Option functions.
func NewDefaultTokenizer(opts ...Option) *DefaultTokenizer {
	t := &DefaultTokenizer{
		separator:  " ",
		comment:    "//",
		tokenRegex: regexp.MustCompile(`[^\s,|]+`),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Join Returns the melody joined with the configured separator.
func (t *DefaultTokenizer) Join(melody []string) string {
	return strings.Join(melody, t.separator)
}

// NewStream Returns the stream processor.
func (t *DefaultTokenizer) NewStream(r io.Reader) StreamTokenizer {
	return &DefaultStreamTokenizer{
		scanner:    bufio.NewScanner(r),
		comment:    t.comment,
		tokenRegex: t.tokenRegex,
	}
}

// DefaultStreamTokenizer is the default implementation of the StreamTokenizer interface.
// Every scanned line produces its tokens followed by one EOC token.
type DefaultStreamTokenizer struct {
	scanner    *bufio.Scanner
	buffer     []string
	pendingEOC bool
	comment    string
	tokenRegex *regexp.Regexp
}

// Next returns the next token from the stream. It returns a Token and a nil error on
// success. When the stream is exhausted, it returns a nil Token and io.EOF.
// Any other error indicates a problem reading from the underlying stream.
func (s *DefaultStreamTokenizer) Next() (*Token, error) {
	for len(s.buffer) == 0 {
		if s.pendingEOC {
			s.pendingEOC = false
			return &Token{EOC: true}, nil
		}
		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return nil, err
			}
			return nil, io.EOF
		}
		line := s.scanner.Text()
		if s.comment != "" {
			if i := strings.Index(line, s.comment); i >= 0 {
				line = line[:i]
			}
		}
		s.buffer = s.tokenRegex.FindAllString(line, -1)
		s.pendingEOC = true
	}

	word := s.buffer[0]
	s.buffer = s.buffer[1:]
	return &Token{Text: word}, nil
}
