package markov

import (
	"reflect"
	"testing"
)

func TestBuild(t *testing.T) {
	m := Build([][]string{{"A", "B", "C"}, {"A", "B", "D"}}, false)

	if got := m.Count("A", "B"); got != 2 {
		t.Errorf("Count(A, B) = %d, want 2", got)
	}
	if got := m.Count("B", "C"); got != 1 {
		t.Errorf("Count(B, C) = %d, want 1", got)
	}
	if got := m.Count("B", "D"); got != 1 {
		t.Errorf("Count(B, D) = %d, want 1", got)
	}
	if got := m.Count("C", "A"); got != 0 {
		t.Errorf("Count(C, A) = %d, want 0", got)
	}

	// Final elements never become keys.
	want := []string{"A", "B"}
	if got := m.Tokens(); !reflect.DeepEqual(got, want) {
		t.Errorf("Tokens() = %v, want %v", got, want)
	}
	if _, ok := m.Lookup("C"); ok {
		t.Error("Lookup(C) reported an entry for a token that only appeared last")
	}
}

func TestBuildWithBoundaries(t *testing.T) {
	m := Build([][]string{{"C4", "D4", "E4"}}, true)

	expected := map[string]map[string]int{
		StartToken: {"C4": 1},
		"C4":       {"D4": 1},
		"D4":       {"E4": 1},
		"E4":       {EndToken: 1},
	}
	if got := m.Counts(); !reflect.DeepEqual(got, expected) {
		t.Errorf("Counts() = %v, want %v", got, expected)
	}
}

func TestBuildEdgeCases(t *testing.T) {
	testCases := []struct {
		name          string
		sequences     [][]string
		addBoundaries bool
		expected      map[string]map[string]int
	}{
		{
			name:     "Nil input",
			expected: map[string]map[string]int{},
		},
		{
			name:      "Empty and single-token sequences contribute nothing",
			sequences: [][]string{{}, {"C4"}},
			expected:  map[string]map[string]int{},
		},
		{
			name:          "Single token with boundaries",
			sequences:     [][]string{{"C4"}},
			addBoundaries: true,
			expected: map[string]map[string]int{
				StartToken: {"C4": 1},
				"C4":       {EndToken: 1},
			},
		},
		{
			name:          "Empty sequence with boundaries links start to end",
			sequences:     [][]string{{}},
			addBoundaries: true,
			expected: map[string]map[string]int{
				StartToken: {EndToken: 1},
			},
		},
		{
			name:      "Repeated token",
			sequences: [][]string{{"A", "A", "A"}},
			expected: map[string]map[string]int{
				"A": {"A": 2},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := Build(tc.sequences, tc.addBoundaries)
			if got := m.Counts(); !reflect.DeepEqual(got, tc.expected) {
				t.Errorf("Counts() = %v, want %v", got, tc.expected)
			}
		})
	}
}

func TestBuildTotalMatchesPairCount(t *testing.T) {
	collections := [][][]string{
		nil,
		{{"A"}},
		{{"A", "B"}, {}, {"C", "D", "E", "F"}},
		exampleMelodies,
		createBenchmarkMelodies()[:50],
	}

	for i, sequences := range collections {
		for _, addBoundaries := range []bool{false, true} {
			m := Build(sequences, addBoundaries)
			want := pairCount(sequences, addBoundaries)
			if got := m.TotalTransitions(); got != want {
				t.Errorf("collection %d (boundaries=%v): TotalTransitions() = %d, want %d", i, addBoundaries, got, want)
			}

			sum := 0
			for _, successors := range m.Counts() {
				for _, count := range successors {
					if count < 1 {
						t.Errorf("collection %d: found count %d < 1", i, count)
					}
					sum += count
				}
			}
			if sum != want {
				t.Errorf("collection %d (boundaries=%v): sum of counts = %d, want %d", i, addBoundaries, sum, want)
			}
		}
	}
}

func TestBuildSingleSequenceBound(t *testing.T) {
	seq := []string{"C4", "D4", "C4", "D4", "E4"}
	m := Build([][]string{seq}, false)
	if got := m.TotalTransitions(); got > len(seq)-1 {
		t.Errorf("TotalTransitions() = %d, want at most %d", got, len(seq)-1)
	}
}

func TestBuildOrderIndependent(t *testing.T) {
	reversed := make([][]string, len(exampleMelodies))
	for i, seq := range exampleMelodies {
		reversed[len(exampleMelodies)-1-i] = seq
	}

	a := Build(exampleMelodies, true)
	b := Build(reversed, true)
	if !reflect.DeepEqual(a.Counts(), b.Counts()) {
		t.Error("Build() produced different counts for the same sequences in a different order")
	}
}

func TestBuildDoesNotModifyInput(t *testing.T) {
	seq := []string{"C4", "D4"}
	_ = Build([][]string{seq}, true)
	if !reflect.DeepEqual(seq, []string{"C4", "D4"}) {
		t.Errorf("input sequence was modified: %v", seq)
	}
}

func TestLookup(t *testing.T) {
	m := Build([][]string{{"X", "Y"}, {"X", "Y"}, {"X", "Y"}, {"X", "Z"}}, false)

	d, ok := m.Lookup("X")
	if !ok {
		t.Fatal("Lookup(X) found no entry")
	}
	if d.Total() != 4 {
		t.Errorf("Total() = %d, want 4", d.Total())
	}
	expected := []Transition{{Next: "Y", Count: 3}, {Next: "Z", Count: 1}}
	if got := d.Transitions(); !reflect.DeepEqual(got, expected) {
		t.Errorf("Transitions() = %+v, want %+v", got, expected)
	}

	if _, ok := m.Lookup("unseen"); ok {
		t.Error("Lookup(unseen) reported an entry")
	}
}

func TestFromCounts(t *testing.T) {
	table := map[string]map[string]int{
		"A": {"B": 2, "C": 0},
		"D": {"E": -1},
	}
	m := FromCounts(table)

	expected := map[string]map[string]int{"A": {"B": 2}}
	if got := m.Counts(); !reflect.DeepEqual(got, expected) {
		t.Errorf("Counts() = %v, want %v", got, expected)
	}
	if _, ok := m.Lookup("D"); ok {
		t.Error("token with only non-positive counts should have no entry")
	}

	// The source map stays owned by the caller.
	table["A"]["B"] = 100
	if m.Count("A", "B") != 2 {
		t.Error("FromCounts() kept a reference to the caller's map")
	}
}

func TestMerge(t *testing.T) {
	a := Build([][]string{{"A", "B", "C"}}, false)
	b := Build([][]string{{"A", "B", "D"}}, false)

	merged := a.Merge(b)
	if got := merged.Count("A", "B"); got != 2 {
		t.Errorf("Count(A, B) = %d, want 2", got)
	}
	if got := merged.TotalTransitions(); got != 4 {
		t.Errorf("TotalTransitions() = %d, want 4", got)
	}
	if got := merged.Len(); got != 3 {
		t.Errorf("Len() = %d, want 3", got)
	}
	if a.Count("A", "B") != 1 || b.Count("A", "B") != 1 {
		t.Error("Merge() modified its inputs")
	}

	full := Build([][]string{{"A", "B", "C"}, {"A", "B", "D"}}, false)
	if !reflect.DeepEqual(merged.Counts(), full.Counts()) {
		t.Errorf("merged counts %v differ from building both at once %v", merged.Counts(), full.Counts())
	}
}

func BenchmarkBuild(b *testing.B) {
	melodies := createBenchmarkMelodies()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Build(melodies, true)
	}
}
