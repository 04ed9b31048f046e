package store

import (
	"context"
)

// DBStats holds aggregated statistics for the entire database.
type DBStats struct {
	Models    []ModelInfo        // A list of models in the database
	Stats     map[int]ModelStats // A mapping of model ids to their stats
	VocabSize int                // The number of unique tokens, boundary tokens included
}

// ModelStats holds aggregated statistics for a single model.
type ModelStats struct {
	TotalTransitions int // The number of distinct current->next links.
	TotalFrequency   int // The sum of all link frequencies; the number of trained pairs.
	StartingTokens   int // The number of distinct tokens that follow the start token.
}

// GetStats returns a snapshot of statistics for the entire database.
func (s *Store) GetStats(ctx context.Context) (*DBStats, error) {
	modelInfos, err := s.GetModelInfos(ctx)
	if err != nil {
		return nil, err
	}

	var vocabLen int
	if err = s.stmtGetVocabLen.QueryRowContext(ctx).Scan(&vocabLen); err != nil {
		return nil, err
	}

	models := make([]ModelInfo, 0, len(modelInfos))
	modelStats := make(map[int]ModelStats, len(modelInfos))
	for _, v := range modelInfos {
		models = append(models, v)
		var st ModelStats
		if err = s.stmtModelTransitions.QueryRowContext(ctx, v.Id).Scan(&st.TotalTransitions); err != nil {
			return nil, err
		}
		if err = s.stmtModelFreq.QueryRowContext(ctx, v.Id).Scan(&st.TotalFrequency); err != nil {
			return nil, err
		}
		if err = s.stmtModelStarters.QueryRowContext(ctx, v.Id, StartTokenID).Scan(&st.StartingTokens); err != nil {
			return nil, err
		}
		modelStats[v.Id] = st
	}

	return &DBStats{
		Models:    models,
		Stats:     modelStats,
		VocabSize: vocabLen,
	}, nil
}
