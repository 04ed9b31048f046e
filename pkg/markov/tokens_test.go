package markov

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestReadMelodies(t *testing.T) {
	testCases := []struct {
		name        string
		input       string
		expected    [][]string
		expectError error
	}{
		{
			name:     "One melody per line",
			input:    "C4 D4 E4\nG4 F4\n",
			expected: [][]string{{"C4", "D4", "E4"}, {"G4", "F4"}},
		},
		{
			name:     "Commas, bar lines and sharps",
			input:    "E4, F#4, G4 | A4,B4",
			expected: [][]string{{"E4", "F#4", "G4", "A4", "B4"}},
		},
		{
			name:     "Blank lines and comments",
			input:    "// warm up\n\nC4 D4 // rising\n   \nD4 C4\n",
			expected: [][]string{{"C4", "D4"}, {"D4", "C4"}},
		},
		{
			name:  "Empty input",
			input: "",
		},
		{
			name:        "Reserved start token",
			input:       "C4 ^ D4",
			expectError: ErrReservedToken,
		},
		{
			name:        "Reserved end token",
			input:       "C4 D4\nE4 $",
			expectError: ErrReservedToken,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ReadMelodies(NewDefaultTokenizer(), strings.NewReader(tc.input))
			if tc.expectError != nil {
				if !errors.Is(err, tc.expectError) {
					t.Errorf("expected error %v, got %v", tc.expectError, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadMelodies() error = %v", err)
			}
			if !reflect.DeepEqual(got, tc.expected) {
				t.Errorf("ReadMelodies() = %v, want %v", got, tc.expected)
			}
		})
	}
}

func TestDefaultTokenizerOptions(t *testing.T) {
	tok := NewDefaultTokenizer(WithSeparator("-"), WithComment(""), WithTokenRegex(`[A-G][#b]?\d`))

	got, err := ReadMelodies(tok, strings.NewReader("C4.D4 // E4"))
	if err != nil {
		t.Fatalf("ReadMelodies() error = %v", err)
	}
	expected := [][]string{{"C4", "D4", "E4"}}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("ReadMelodies() = %v, want %v", got, expected)
	}

	if joined := tok.Join(expected[0]); joined != "C4-D4-E4" {
		t.Errorf("Join() = %q, want %q", joined, "C4-D4-E4")
	}
}

func TestStreamTokenizerEOC(t *testing.T) {
	stream := NewDefaultTokenizer().NewStream(strings.NewReader("A B\nC"))

	var got []Token
	for {
		token, err := stream.Next()
		if err != nil {
			break
		}
		got = append(got, *token)
	}

	expected := []Token{
		{Text: "A"}, {Text: "B"}, {EOC: true},
		{Text: "C"}, {EOC: true},
	}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("tokens = %+v, want %+v", got, expected)
	}
}
