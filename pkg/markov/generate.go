package markov

import (
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"sort"
)

// generateOptions Is used by the generate functions to configure default options.
type generateOptions struct {
	maxLength   int
	canEndEarly bool
	temperature float64
	topK        int
}

func defaultGenerateOptions() *generateOptions {
	return &generateOptions{
		maxLength:   20,
		canEndEarly: true,
		temperature: 1.0,
		topK:        0,
	}
}

// GenerateOption is a function that configures generation parameters. It's used
// as a variadic argument in Generate and Stream.
type GenerateOption func(*generateOptions)

// WithMaxLength sets the maximum number of tokens to generate. The generation
// may stop earlier on a dead end, or on EndToken if WithEarlyTermination is enabled.
func WithMaxLength(n int) GenerateOption {
	return func(o *generateOptions) { o.maxLength = n }
}

// WithEarlyTermination specifies whether drawing EndToken stops generation.
// When disabled, EndToken is skipped in the output and generation continues
// from it, which only goes anywhere if EndToken itself has successors.
func WithEarlyTermination(canEnd bool) GenerateOption {
	return func(o *generateOptions) { o.canEndEarly = canEnd }
}

// WithTemperature adjusts the randomness of the token selection.
// A value of 1.0 is standard count-proportional selection.
// Values > 1.0 flatten the distribution, values < 1.0 sharpen it.
// A value of 0 or less always picks the most frequent successor, breaking ties
// by token order.
func WithTemperature(t float64) GenerateOption {
	return func(o *generateOptions) { o.temperature = t }
}

// WithTopK restricts the selection pool to the k most frequent successors at
// each step. A value of 0 disables Top-K sampling.
func WithTopK(k int) GenerateOption {
	return func(o *generateOptions) { o.topK = k }
}

// Sampler generates sequences from a Model. It owns its random source, so a
// Sampler must not be shared between goroutines; the Model may be.
type Sampler struct {
	model  *Model
	rng    *rand.Rand
	logger *slog.Logger
}

// NewSampler returns a Sampler drawing from rng. If rng is nil, a randomly
// seeded generator is used.
func NewSampler(model *Model, rng *rand.Rand) *Sampler {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Sampler{
		model:  model,
		rng:    rng,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// NewSeededSampler returns a Sampler whose output is reproducible for a given seed.
func NewSeededSampler(model *Model, seed uint64) *Sampler {
	return NewSampler(model, rand.New(rand.NewPCG(seed, seed)))
}

// WithModel returns a Sampler over a different model that continues drawing
// from the same random source. The two Samplers must not be used concurrently.
func (s *Sampler) WithModel(model *Model) *Sampler {
	return &Sampler{
		model:  model,
		rng:    s.rng,
		logger: s.logger,
	}
}

// SetLogger sets the logger for the Sampler. By default, all logs are discarded.
func (s *Sampler) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Generate walks the model from start, choosing each successor at random in
// proportion to its count, and returns the non-boundary tokens it visited.
// The result never holds more than the configured maximum length and never
// contains StartToken or EndToken. An unknown start token yields an empty result.
func (s *Sampler) Generate(start string, opts ...GenerateOption) []string {
	options := defaultGenerateOptions()
	for _, opt := range opts {
		opt(options)
	}

	var melody []string
	s.walk(start, options, func(token string) bool {
		melody = append(melody, token)
		return true
	})
	return melody
}

// walk runs the generation loop, handing every emitted token to emit. It stops
// when emit returns false.
func (s *Sampler) walk(start string, options *generateOptions, emit func(string) bool) {
	current := start
	generated := 0
	trapped := s.model.trapped
	if options.topK > 0 || options.temperature <= 0 {
		trapped = s.model.trappedBoundaries(options)
	}

	for generated < options.maxLength {
		// Boundary tokens are never emitted, so a walk from a trapped boundary
		// could not produce anything more.
		if trapped[current] {
			s.logger.Debug("Generation terminated with no token reachable past boundaries",
				slog.String("last_token", current),
				slog.Int("generated_length", generated),
			)
			return
		}

		dist, ok := s.model.Lookup(current)
		if !ok {
			s.logger.Debug("Generation terminated due to dead-end",
				slog.String("last_token", current),
				slog.Int("generated_length", generated),
			)
			return
		}

		next, ok := chooseNextToken(s.rng, dist, options)
		if !ok {
			s.logger.Debug("Generation terminated with no candidates",
				slog.String("last_token", current),
				slog.Int("generated_length", generated),
			)
			return
		}

		if options.canEndEarly && next == EndToken {
			s.logger.Debug("Generation terminated by end token",
				slog.Int("generated_length", generated),
			)
			return
		}

		if !IsBoundary(next) {
			if !emit(next) {
				return
			}
			generated++
		}
		current = next
	}

	s.logger.Debug("Generation terminated by reaching maxLength",
		slog.Int("max_length", options.maxLength),
		slog.Int("generated_length", generated),
	)
}

// Choose draws one successor with probability proportional to its count.
// The boolean is false when the distribution is empty.
func (d *Distribution) Choose(rng *rand.Rand) (string, bool) {
	total := d.Total()
	if total <= 0 {
		return "", false
	}
	r := rng.IntN(total)
	// First index whose running total exceeds r.
	i := sort.SearchInts(d.cumulative, r+1)
	return d.choices[i].Next, true
}

// candidates returns the successors chooseNextToken may pick under options:
// the top-k most frequent when topK is set, narrowed to the single most
// frequent one (ties broken by token order) when the temperature is 0 or less.
func candidates(dist *Distribution, options *generateOptions) []Transition {
	choices := dist.Transitions()
	if len(choices) == 0 {
		return nil
	}

	// topK filtering
	if options.topK > 0 && options.topK < len(choices) {
		sort.SliceStable(choices, func(i, j int) bool {
			return choices[i].Count > choices[j].Count
		})
		choices = choices[:options.topK]
	}

	if options.temperature <= 0 {
		best := choices[0]
		for _, choice := range choices[1:] {
			if choice.Count > best.Count || (choice.Count == best.Count && choice.Next < best.Next) {
				best = choice
			}
		}
		return []Transition{best}
	}
	return choices
}

// chooseNextToken abstracts the token selection logic from the generation loop.
func chooseNextToken(rng *rand.Rand, dist *Distribution, options *generateOptions) (string, bool) {
	if dist.Len() == 0 {
		return "", false
	}
	if options.topK <= 0 && options.temperature == 1.0 {
		return dist.Choose(rng)
	}

	choices := candidates(dist, options)
	if options.temperature <= 0 { // Deterministic
		return choices[0].Next, true
	}

	if options.temperature == 1.0 {
		total := 0
		for _, choice := range choices {
			total += choice.Count
		}
		r := rng.IntN(total)
		for _, choice := range choices {
			r -= choice.Count
			if r < 0 {
				return choice.Next, true
			}
		}
		return choices[len(choices)-1].Next, true
	}

	// Temperature-based sampling
	logProbabilities := make([]float64, len(choices))
	maxLog := math.Inf(-1)
	for i, choice := range choices {
		lp := math.Log(float64(choice.Count)) / options.temperature
		logProbabilities[i] = lp
		if lp > maxLog {
			maxLog = lp
		}
	}
	var totalWeight float64
	weights := make([]float64, len(choices))
	for i, lp := range logProbabilities {
		w := math.Exp(lp - maxLog)
		weights[i] = w
		totalWeight += w
	}
	r := rng.Float64() * totalWeight
	for i, choice := range choices {
		r -= weights[i]
		if r < 0 {
			return choice.Next, true
		}
	}
	return choices[len(choices)-1].Next, true
}
