package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
)

// PruneModel removes all transitions from a specific model that have a
// frequency less than or equal to minFreq. Rare transitions are often noise
// in small training sets.
func (s *Store) PruneModel(ctx context.Context, model ModelInfo, minFreq int) (int64, error) {
	res, err := s.stmtPruneModel.ExecContext(ctx, model.Id, minFreq)
	if err != nil {
		return 0, fmt.Errorf("could not prune model %d: %w", model.Id, err)
	}
	rowsAffected, _ := res.RowsAffected()

	s.logger.InfoContext(ctx, "Model pruned",
		slog.String("model_name", model.Name),
		slog.Int("model_id", model.Id),
		slog.Int("min_frequency", minFreq),
		slog.Int64("transitions_removed", rowsAffected),
	)
	return rowsAffected, nil
}

// VocabularyPrune performs a database-wide cleanup, removing tokens whose total
// frequency as a successor, across all models, is below minFrequency. Every
// transition that starts or ends at a removed token is deleted too.
// Boundary tokens are never pruned.
func (s *Store) VocabularyPrune(ctx context.Context, minFrequency int) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("could not begin transaction for pruning: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	// Tokens that no transition leads to have a total of 0 and are rare as well.
	rows, err := tx.QueryContext(ctx, `
		SELECT v.token_id FROM melody_vocabulary v
		LEFT JOIN melody_transitions t ON t.to_token_id = v.token_id
		WHERE v.token_id NOT IN (?, ?)
		GROUP BY v.token_id
		HAVING coalesce(SUM(t.frequency), 0) < ?`,
		StartTokenID, EndTokenID, minFrequency)
	if err != nil {
		return 0, fmt.Errorf("failed to query for rare tokens: %w", err)
	}

	var rareTokenIDs []interface{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return 0, fmt.Errorf("failed to scan rare token id: %w", err)
		}
		rareTokenIDs = append(rareTokenIDs, id)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("error after iterating rare token rows: %w", err)
	}

	if len(rareTokenIDs) == 0 {
		s.logger.InfoContext(ctx, "No vocabulary to prune",
			slog.Int("min_frequency", minFrequency),
		)
		return 0, tx.Commit()
	}

	// Transitions first, then the vocabulary they reference.
	if err := batchDelete(ctx, tx, "melody_transitions", "to_token_id", rareTokenIDs); err != nil {
		return 0, fmt.Errorf("failed to prune transitions by to_token_id: %w", err)
	}
	if err := batchDelete(ctx, tx, "melody_transitions", "from_token_id", rareTokenIDs); err != nil {
		return 0, fmt.Errorf("failed to prune transitions by from_token_id: %w", err)
	}
	if err := batchDelete(ctx, tx, "melody_vocabulary", "token_id", rareTokenIDs); err != nil {
		return 0, fmt.Errorf("failed to prune rare tokens from vocabulary: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	s.logger.InfoContext(ctx, "Vocabulary pruned successfully",
		slog.Int("min_frequency", minFrequency),
		slog.Int("tokens_removed", len(rareTokenIDs)),
	)
	return len(rareTokenIDs), nil
}

// batchDelete deletes rows whose column matches any of ids, in batches small
// enough to stay under SQLite's bound variable limit.
func batchDelete(ctx context.Context, tx *sql.Tx, table, column string, ids []interface{}) error {
	if len(ids) == 0 {
		return nil
	}

	// SQLite's default variable limit is 999, so around half that is good
	const batchSize = 500

	for i := 0; i < len(ids); i += batchSize {
		end := min(i+batchSize, len(ids))
		batch := ids[i:end]

		query := fmt.Sprintf("DELETE FROM %s WHERE %s IN (?%s)", table, column, strings.Repeat(",?", len(batch)-1))
		if _, err := tx.ExecContext(ctx, query, batch...); err != nil {
			return err
		}
	}
	return nil
}
