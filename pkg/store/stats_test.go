package store

import (
	"testing"
)

func TestGetStats(t *testing.T) {
	ctx, s, info := setupTestDBWithTraining(t)
	_, _ = s.CreateModel(ctx, "empty", true)

	stats, err := s.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats() failed: %v", err)
	}
	if len(stats.Models) != 2 {
		t.Errorf("expected 2 models, got %d", len(stats.Models))
	}
	// ^, $, C4, D4, E4, F4, G4, C5, A4
	if stats.VocabSize != 9 {
		t.Errorf("expected vocabulary size 9, got %d", stats.VocabSize)
	}

	st := stats.Stats[info.Id]
	// 4 melodies of 5, 5, 4, 5 notes plus boundaries: 6+6+5+6 pairs.
	if st.TotalFrequency != 23 {
		t.Errorf("expected total frequency 23, got %d", st.TotalFrequency)
	}
	// Melodies start with C4, G4, C4, E4.
	if st.StartingTokens != 3 {
		t.Errorf("expected 3 starting tokens, got %d", st.StartingTokens)
	}
	if st.TotalTransitions == 0 || st.TotalTransitions > st.TotalFrequency {
		t.Errorf("unexpected transition count %d", st.TotalTransitions)
	}
}
