package markov

import (
	"slices"
	"sort"
)

const (
	// StartToken is the reserved boundary token prepended to training sequences.
	StartToken = "^"
	// EndToken is the reserved boundary token appended to training sequences.
	EndToken = "$"
)

// IsBoundary reports whether token is one of the reserved boundary tokens.
func IsBoundary(token string) bool {
	return token == StartToken || token == EndToken
}

// Transition is a single observed successor of a token and the number of times
// it was observed.
type Transition struct {
	Next  string
	Count int
}

// Distribution holds every observed successor of one token, ordered by token
// text, with a running total of counts for weighted selection.
type Distribution struct {
	choices    []Transition
	cumulative []int
}

func newDistribution(successors map[string]int) *Distribution {
	d := &Distribution{
		choices:    make([]Transition, 0, len(successors)),
		cumulative: make([]int, 0, len(successors)),
	}
	for next, count := range successors {
		d.choices = append(d.choices, Transition{Next: next, Count: count})
	}
	// Map iteration order is random; sort so a seeded rng gives reproducible output.
	sort.Slice(d.choices, func(i, j int) bool {
		return d.choices[i].Next < d.choices[j].Next
	})
	total := 0
	for _, c := range d.choices {
		total += c.Count
		d.cumulative = append(d.cumulative, total)
	}
	return d
}

// Transitions returns a copy of the successors, ordered by token text.
func (d *Distribution) Transitions() []Transition {
	return slices.Clone(d.choices)
}

// Len returns the number of distinct successors.
func (d *Distribution) Len() int {
	return len(d.choices)
}

// Total returns the sum of all successor counts.
func (d *Distribution) Total() int {
	if len(d.cumulative) == 0 {
		return 0
	}
	return d.cumulative[len(d.cumulative)-1]
}

// Model is a bigram transition table: for every token seen in a non-final
// position, the count of each token observed directly after it.
// A Model is never modified after construction.
type Model struct {
	counts map[string]map[string]int
	dists  map[string]*Distribution
	total  int
	// trapped marks boundary tokens that cannot lead to a non-boundary token.
	trapped map[string]bool
}

// Build counts every adjacent pair of tokens across sequences. When
// addBoundaries is set, each sequence is treated as if StartToken were
// prepended and EndToken appended. Sequences that are too short to hold a
// pair contribute nothing. The input slices are not modified.
func Build(sequences [][]string, addBoundaries bool) *Model {
	counts := make(map[string]map[string]int)
	observe := func(cur, next string) {
		successors, ok := counts[cur]
		if !ok {
			successors = make(map[string]int)
			counts[cur] = successors
		}
		successors[next]++
	}

	for _, seq := range sequences {
		if addBoundaries {
			if len(seq) == 0 {
				observe(StartToken, EndToken)
				continue
			}
			observe(StartToken, seq[0])
			observe(seq[len(seq)-1], EndToken)
		}
		for i := 0; i+1 < len(seq); i++ {
			observe(seq[i], seq[i+1])
		}
	}
	return newModel(counts)
}

// FromCounts creates a Model from an existing table, for example one loaded
// from storage. Entries with a non-positive count are skipped. The given map is
// copied and may be reused by the caller.
func FromCounts(table map[string]map[string]int) *Model {
	counts := make(map[string]map[string]int, len(table))
	for cur, successors := range table {
		for next, count := range successors {
			if count <= 0 {
				continue
			}
			if counts[cur] == nil {
				counts[cur] = make(map[string]int, len(successors))
			}
			counts[cur][next] = count
		}
	}
	return newModel(counts)
}

func newModel(counts map[string]map[string]int) *Model {
	m := &Model{
		counts: counts,
		dists:  make(map[string]*Distribution, len(counts)),
	}
	for cur, successors := range counts {
		d := newDistribution(successors)
		m.dists[cur] = d
		m.total += d.Total()
	}
	m.trapped = m.trappedBoundaries(nil)
	return m
}

// trappedBoundaries returns, for each boundary token with successors, whether
// the walk from it can never reach a non-boundary token by stepping through
// boundary tokens alone. With nil options every successor is a candidate,
// otherwise only those the options allow.
func (m *Model) trappedBoundaries(options *generateOptions) map[string]bool {
	trapped := make(map[string]bool, 2)
	for _, b := range []string{StartToken, EndToken} {
		trapped[b] = m.dists[b] != nil && !m.escapes(b, options)
	}
	return trapped
}

func (m *Model) escapes(b string, options *generateOptions) bool {
	visited := map[string]bool{b: true}
	queue := []string{b}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		d, ok := m.dists[cur]
		if !ok {
			continue
		}
		choices := d.choices
		if options != nil {
			choices = candidates(d, options)
		}
		for _, c := range choices {
			if !IsBoundary(c.Next) {
				return true
			}
			if !visited[c.Next] {
				visited[c.Next] = true
				queue = append(queue, c.Next)
			}
		}
	}
	return false
}

// Merge returns a new Model whose counts are the sum of m and other.
func (m *Model) Merge(other *Model) *Model {
	merged := m.Counts()
	for cur, successors := range other.counts {
		if merged[cur] == nil {
			merged[cur] = make(map[string]int, len(successors))
		}
		for next, count := range successors {
			merged[cur][next] += count
		}
	}
	return newModel(merged)
}

// Lookup returns the successor distribution of token. The boolean is false when
// token was never observed in a non-final position.
func (m *Model) Lookup(token string) (*Distribution, bool) {
	d, ok := m.dists[token]
	return d, ok
}

// Count returns how many times next was observed directly after cur.
func (m *Model) Count(cur, next string) int {
	return m.counts[cur][next]
}

// Tokens returns every token that has at least one successor, sorted.
func (m *Model) Tokens() []string {
	tokens := make([]string, 0, len(m.counts))
	for cur := range m.counts {
		tokens = append(tokens, cur)
	}
	sort.Strings(tokens)
	return tokens
}

// Len returns the number of distinct (current, next) pairs.
func (m *Model) Len() int {
	n := 0
	for _, d := range m.dists {
		n += d.Len()
	}
	return n
}

// TotalTransitions returns the sum of all counts, i.e. the number of adjacent
// pairs that were observed during training.
func (m *Model) TotalTransitions() int {
	return m.total
}

// Counts returns a deep copy of the transition table.
func (m *Model) Counts() map[string]map[string]int {
	out := make(map[string]map[string]int, len(m.counts))
	for cur, successors := range m.counts {
		inner := make(map[string]int, len(successors))
		for next, count := range successors {
			inner[next] = count
		}
		out[cur] = inner
	}
	return out
}
