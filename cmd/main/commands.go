package main

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/CTAG07/melodia/pkg/markov"
	"github.com/CTAG07/melodia/pkg/store"
	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"
)

// modelLookupError turns a missing model into a readable error.
func modelLookupError(name string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("model %q not found", name)
	}
	return fmt.Errorf("failed to get model %q: %w", name, err)
}

// openInput opens a file for reading, with "-" meaning stdin.
func openInput(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	return os.Open(path)
}

func newTrainCmd(a *app) *cobra.Command {
	var noBoundaries bool
	cmd := &cobra.Command{
		Use:   "train <model> <file>...",
		Short: "Train a model on melody files, creating it if needed",
		Long: `Reads one melody per line from each file ("-" for stdin) and adds the
observed transitions to the model. A new model wraps melodies in start and end
tokens unless --no-boundaries is given.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, closeStore, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			name := args[0]
			info, err := s.GetModelInfo(ctx, name)
			if errors.Is(err, sql.ErrNoRows) {
				info, err = s.CreateModel(ctx, name, !noBoundaries)
			}
			if err != nil {
				return modelLookupError(name, err)
			}

			tok := markov.NewDefaultTokenizer()
			for _, path := range args[1:] {
				f, err := openInput(cmd, path)
				if err != nil {
					return fmt.Errorf("failed to open training data: %w", err)
				}
				err = s.TrainFromReader(ctx, info, tok, f)
				_ = f.Close()
				if err != nil {
					return fmt.Errorf("training on %s failed: %w", path, err)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&noBoundaries, "no-boundaries", false, "do not add start/end tokens when creating the model")
	return cmd
}

func newModelsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List stored models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, closeStore, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			models, err := s.GetModelInfos(ctx)
			if err != nil {
				return fmt.Errorf("failed to retrieve models: %w", err)
			}
			names := make([]string, 0, len(models))
			for name := range models {
				names = append(names, name)
			}
			sort.Strings(names)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tID\tBOUNDARIES")
			for _, name := range names {
				m := models[name]
				fmt.Fprintf(tw, "%s\t%d\t%v\n", m.Name, m.Id, m.Boundaries)
			}
			return tw.Flush()
		},
	}
}

func newRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <model>",
		Short: "Delete a model and its transitions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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
			return s.RemoveModel(ctx, info)
		},
	}
}

func newPruneCmd(a *app) *cobra.Command {
	var minFreq int
	cmd := &cobra.Command{
		Use:   "prune <model>",
		Short: "Remove transitions seen at most --min-freq times",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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
			removed, err := s.PruneModel(ctx, info, minFreq)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d transitions\n", removed)
			return nil
		},
	}
	cmd.Flags().IntVar(&minFreq, "min-freq", 1, "remove transitions with at most this frequency")
	return cmd
}

func newVocabPruneCmd(a *app) *cobra.Command {
	var minFreq int
	cmd := &cobra.Command{
		Use:   "vocab-prune",
		Short: "Remove rare tokens from every model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, closeStore, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			removed, err := s.VocabularyPrune(ctx, minFreq)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d tokens\n", removed)
			return nil
		},
	}
	cmd.Flags().IntVar(&minFreq, "min-freq", 2, "remove tokens reached fewer than this many times")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <model> [file]",
		Short: "Export a model as JSON to a file or stdout",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			if len(args) == 1 {
				return s.ExportModel(ctx, info, cmd.OutOrStdout())
			}
			var buf bytes.Buffer
			if err = s.ExportModel(ctx, info, &buf); err != nil {
				return err
			}
			if err = atomic.WriteFile(args[1], &buf); err != nil {
				return fmt.Errorf("failed to write export file: %w", err)
			}
			return nil
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a JSON model, merging into an existing model of the same name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, closeStore, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			f, err := openInput(cmd, args[0])
			if err != nil {
				return fmt.Errorf("failed to open import file: %w", err)
			}
			defer func() { _ = f.Close() }()

			info, err := s.ImportModel(ctx, f)
			if err != nil {
				return fmt.Errorf("import failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %s\n", info.Name)
			return nil
		},
	}
}

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show database and per-model statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, closeStore, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			stats, err := s.GetStats(ctx)
			if err != nil {
				return fmt.Errorf("failed to get stats: %w", err)
			}
			printStats(cmd.OutOrStdout(), stats)
			return nil
		},
	}
}

func printStats(w io.Writer, stats *store.DBStats) {
	sort.Slice(stats.Models, func(i, j int) bool {
		return stats.Models[i].Name < stats.Models[j].Name
	})

	fmt.Fprintf(w, "vocabulary: %d tokens\n", stats.VocabSize)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MODEL\tTRANSITIONS\tFREQUENCY\tSTARTS")
	for _, m := range stats.Models {
		st := stats.Stats[m.Id]
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", m.Name, st.TotalTransitions, st.TotalFrequency, st.StartingTokens)
	}
	_ = tw.Flush()
}
