package main

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"path/filepath"
	"strings"

	"github.com/CTAG07/melodia/pkg/markov"
	"github.com/CTAG07/melodia/pkg/midi"
	"github.com/spf13/cobra"
)

func newGenerateCmd(a *app) *cobra.Command {
	var (
		count       int
		maxLength   int
		seed        uint64
		start       string
		temperature float64
		topK        int
		noEnd       bool
		midiPath    string
	)

	cmd := &cobra.Command{
		Use:   "generate <model>",
		Short: "Generate melodies from a stored model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gen := a.config.Generation
			flags := cmd.Flags()
			if !flags.Changed("count") {
				count = gen.Count
			}
			if !flags.Changed("max-length") {
				maxLength = gen.MaxLength
			}
			if !flags.Changed("seed") {
				seed = gen.Seed
			}
			if !flags.Changed("start") {
				start = gen.Start
			}
			if !flags.Changed("temperature") {
				temperature = gen.Temperature
			}
			if !flags.Changed("top-k") {
				topK = gen.TopK
			}
			if !flags.Changed("no-end") {
				noEnd = !gen.EndHalting
			}
			if seed == 0 {
				seed = rand.Uint64()
			}

			ctx := cmd.Context()
			s, closeStore, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			info, err := s.GetModelInfo(ctx, args[0])
			if err != nil {
				return modelLookupError(args[0], err)
			}
			model, err := s.Load(ctx, info)
			if err != nil {
				return fmt.Errorf("failed to load model: %w", err)
			}

			sampler := markov.NewSeededSampler(model, seed)
			sampler.SetLogger(a.logger)
			a.logger.Debug("Generating melodies",
				slog.String("model_name", info.Name),
				slog.Uint64("seed", seed),
				slog.Int("count", count),
			)

			tok := markov.NewDefaultTokenizer()
			out := cmd.OutOrStdout()
			for i := 0; i < count; i++ {
				melody := sampler.Generate(start,
					markov.WithMaxLength(maxLength),
					markov.WithEarlyTermination(!noEnd),
					markov.WithTemperature(temperature),
					markov.WithTopK(topK),
				)
				fmt.Fprintf(out, "%d. %s\n", i+1, tok.Join(melody))

				if midiPath == "" {
					continue
				}
				path := midiFilePath(midiPath, i, count)
				err = midi.WriteFile(path, melody,
					midi.WithTempo(a.config.Midi.Tempo),
					midi.WithVelocity(a.config.Midi.Velocity),
					midi.WithChannel(a.config.Midi.Channel),
					midi.WithNoteTicks(a.config.Midi.NoteTicks),
					midi.WithTrackName(info.Name),
				)
				if err != nil {
					return fmt.Errorf("melody %d: %w", i+1, err)
				}
				a.logger.Info("Wrote MIDI file", "path", path)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 5, "number of melodies to generate")
	cmd.Flags().IntVar(&maxLength, "max-length", 20, "maximum notes per melody")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed, 0 for a random one")
	cmd.Flags().StringVar(&start, "start", markov.StartToken, "token to start generating from")
	cmd.Flags().Float64Var(&temperature, "temperature", 1.0, "sampling temperature, 0 for deterministic")
	cmd.Flags().IntVar(&topK, "top-k", 0, "only sample from the k most frequent successors, 0 disables")
	cmd.Flags().BoolVar(&noEnd, "no-end", false, "do not stop when the end token is drawn")
	cmd.Flags().StringVar(&midiPath, "midi", "", "also write each melody to this MIDI file")
	return cmd
}

// midiFilePath numbers the output file when more than one melody is written:
// "out.mid" becomes "out-1.mid", "out-2.mid", ...
func midiFilePath(path string, i, count int) string {
	if count <= 1 {
		return path
	}
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(path, ext), i+1, ext)
}
