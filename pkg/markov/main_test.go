package markov

import (
	"fmt"
	"sync"
)

// exampleMelodies is the C major training set used across tests.
var exampleMelodies = [][]string{
	{"C4", "D4", "E4", "F4", "G4"},
	{"G4", "F4", "E4", "D4", "C4"},
	{"C4", "E4", "G4", "C5"},
	{"E4", "F4", "G4", "A4", "G4"},
}

var (
	benchmarkMelodies [][]string
	melodiesOnce      sync.Once
)

// createBenchmarkMelodies builds a deterministic corpus of scale-like melodies.
func createBenchmarkMelodies() [][]string {
	melodiesOnce.Do(func() {
		names := []string{"C", "D", "E", "F", "G", "A", "B"}
		for i := 0; i < 2000; i++ {
			melody := make([]string, 0, 16)
			for j := 0; j < 16; j++ {
				step := (i*7 + j*j*3 + j) % len(names)
				octave := 3 + (i+j)%3
				melody = append(melody, fmt.Sprintf("%s%d", names[step], octave))
			}
			benchmarkMelodies = append(benchmarkMelodies, melody)
		}
	})
	return benchmarkMelodies
}

// pairCount returns the number of adjacent pairs in sequences, after boundary
// augmentation when addBoundaries is set.
func pairCount(sequences [][]string, addBoundaries bool) int {
	n := 0
	for _, seq := range sequences {
		l := len(seq)
		if addBoundaries {
			l += 2
		}
		if l > 1 {
			n += l - 1
		}
	}
	return n
}
