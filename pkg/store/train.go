package store

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"

	"github.com/CTAG07/melodia/pkg/markov"
)

// Train builds a transition table from melodies, wrapping each melody in
// boundary tokens if the model is configured that way, and adds its counts to
// the stored model. The operation is performed within a single transaction.
func (s *Store) Train(ctx context.Context, model ModelInfo, melodies [][]string) error {
	m := markov.Build(melodies, model.Boundaries)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if err = s.mergeModel(ctx, tx, model, m); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Training completed",
		slog.String("model_name", model.Name),
		slog.Int("model_id", model.Id),
		slog.Int("melodies_processed", len(melodies)),
		slog.Int("transitions_observed", m.TotalTransitions()),
	)
	return nil
}

// TrainFromReader reads melodies from r with the given tokenizer and trains the
// model on them.
func (s *Store) TrainFromReader(ctx context.Context, model ModelInfo, tokenizer markov.Tokenizer, r io.Reader) error {
	melodies, err := markov.ReadMelodies(tokenizer, r)
	if err != nil {
		return fmt.Errorf("could not read melodies: %w", err)
	}
	return s.Train(ctx, model, melodies)
}

// mergeModel adds every count of m to the stored transitions of model.
func (s *Store) mergeModel(ctx context.Context, tx *sql.Tx, model ModelInfo, m *markov.Model) error {
	stmtInsertVocab := tx.StmtContext(ctx, s.stmtInsertVocab)
	// Keep the existing frequency and add to it if the link is already there.
	stmtInsertTransition, err := tx.PrepareContext(ctx, `
		INSERT INTO melody_transitions (model_id, from_token_id, to_token_id, frequency) VALUES (?, ?, ?, ?)
		ON CONFLICT(model_id, from_token_id, to_token_id) DO UPDATE SET frequency = frequency + excluded.frequency;
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare transition insert statement: %w", err)
	}
	defer func(stmt *sql.Stmt) {
		_ = stmt.Close()
	}(stmtInsertTransition)

	vocabCache := map[string]int{
		markov.StartToken: StartTokenID,
		markov.EndToken:   EndTokenID,
	}
	tokenID := func(text string) (int, error) {
		if id, ok := vocabCache[text]; ok {
			return id, nil
		}
		var id int
		if err := stmtInsertVocab.QueryRowContext(ctx, text).Scan(&id); err != nil {
			return 0, fmt.Errorf("sql insert vocabulary error for token '%s': %w", text, err)
		}
		vocabCache[text] = id
		return id, nil
	}

	for _, cur := range m.Tokens() {
		fromID, err := tokenID(cur)
		if err != nil {
			return err
		}
		dist, _ := m.Lookup(cur)
		for _, tr := range dist.Transitions() {
			toID, err := tokenID(tr.Next)
			if err != nil {
				return err
			}
			if _, err = stmtInsertTransition.ExecContext(ctx, model.Id, fromID, toID, tr.Count); err != nil {
				return fmt.Errorf("failed to insert transition (%s -> %s): %w", cur, tr.Next, err)
			}
		}
	}
	return nil
}
