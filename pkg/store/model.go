package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/CTAG07/melodia/pkg/markov"
)

// ModelInfo holds the metadata for a stored model: its unique ID and name, and
// whether training wraps each melody in boundary tokens.
type ModelInfo struct {
	Id         int
	Name       string
	Boundaries bool
}

// ExportedModel is the serializable representation of a trained model,
// used for JSON-based import and export.
type ExportedModel struct {
	Name        string                    `json:"name"`
	Boundaries  bool                      `json:"boundaries"`
	Transitions map[string]map[string]int `json:"transitions"` // current -> next -> count
}

// GetModelInfos retrieves metadata for all stored models, keyed by model name.
func (s *Store) GetModelInfos(ctx context.Context) (map[string]ModelInfo, error) {
	rows, err := s.stmtGetModels.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	models := make(map[string]ModelInfo)
	for rows.Next() {
		var model ModelInfo
		if err = rows.Scan(&model.Id, &model.Name, &model.Boundaries); err != nil {
			return nil, err
		}
		models[model.Name] = model
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return models, nil
}

// GetModelInfo retrieves the metadata for a single model specified by name.
// It returns sql.ErrNoRows if no such model exists.
func (s *Store) GetModelInfo(ctx context.Context, modelName string) (ModelInfo, error) {
	info := ModelInfo{Name: modelName}
	err := s.stmtGetModelInfo.QueryRowContext(ctx, modelName).Scan(&info.Id, &info.Boundaries)
	if err != nil {
		return ModelInfo{}, err
	}
	return info, nil
}

// CreateModel creates a new, empty model and returns its stored metadata.
// Model names are unique.
func (s *Store) CreateModel(ctx context.Context, name string, boundaries bool) (ModelInfo, error) {
	if name == "" {
		return ModelInfo{}, errors.New("model name is required")
	}
	res, err := s.stmtAddModel.ExecContext(ctx, name, boundaries)
	if err != nil {
		return ModelInfo{}, fmt.Errorf("failed to insert model '%s': %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return ModelInfo{}, err
	}

	s.logger.InfoContext(ctx, "Model created",
		slog.String("model_name", name),
		slog.Int64("model_id", id),
		slog.Bool("boundaries", boundaries),
	)
	return ModelInfo{Id: int(id), Name: name, Boundaries: boundaries}, nil
}

// RemoveModel deletes a model and all of its transitions. The operation is
// performed within a transaction.
func (s *Store) RemoveModel(ctx context.Context, model ModelInfo) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.ExecContext(ctx, "DELETE FROM melody_transitions WHERE model_id = ?", model.Id); err != nil {
		return fmt.Errorf("failed to remove transitions for model %d: %w", model.Id, err)
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM melody_models WHERE model_id = ?", model.Id); err != nil {
		return fmt.Errorf("failed to remove model %d: %w", model.Id, err)
	}

	if err = tx.Commit(); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Model removed successfully",
		slog.String("model_name", model.Name),
		slog.Int("model_id", model.Id),
	)
	return nil
}

// Load reads a model's transitions back into a read-only markov.Model.
// A model that was never trained loads as an empty table.
func (s *Store) Load(ctx context.Context, model ModelInfo) (*markov.Model, error) {
	rows, err := s.stmtLoadModel.QueryContext(ctx, model.Id)
	if err != nil {
		return nil, fmt.Errorf("could not query transitions for model %d: %w", model.Id, err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	table := make(map[string]map[string]int)
	for rows.Next() {
		var cur, next string
		var freq int
		if err = rows.Scan(&cur, &next, &freq); err != nil {
			return nil, err
		}
		if table[cur] == nil {
			table[cur] = make(map[string]int)
		}
		table[cur][next] = freq
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	m := markov.FromCounts(table)
	s.logger.DebugContext(ctx, "Model loaded",
		slog.String("model_name", model.Name),
		slog.Int("model_id", model.Id),
		slog.Int("transitions", m.Len()),
	)
	return m, nil
}

// ExportModel serializes a model into JSON and writes it to w. This is useful
// for backups or for moving models between databases.
func (s *Store) ExportModel(ctx context.Context, model ModelInfo, w io.Writer) error {
	m, err := s.Load(ctx, model)
	if err != nil {
		return fmt.Errorf("could not load model for export: %w", err)
	}

	exported := ExportedModel{
		Name:        model.Name,
		Boundaries:  model.Boundaries,
		Transitions: m.Counts(),
	}

	s.logger.InfoContext(ctx, "Model exported",
		slog.String("model_name", model.Name),
		slog.Int("model_id", model.Id),
		slog.Int("transitions_exported", m.Len()),
	)

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(exported)
}

// ImportModel reads a JSON model from r and merges it into the database. If a
// model with the same name exists, the imported counts are added to its own;
// otherwise the model is created. The entire operation is transactional.
func (s *Store) ImportModel(ctx context.Context, r io.Reader) (ModelInfo, error) {
	var imported ExportedModel
	if err := json.NewDecoder(r).Decode(&imported); err != nil {
		return ModelInfo{}, fmt.Errorf("failed to decode json model: %w", err)
	}
	if imported.Name == "" {
		return ModelInfo{}, errors.New("imported model has no name")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ModelInfo{}, fmt.Errorf("could not begin transaction for import: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	info := ModelInfo{Name: imported.Name}
	err = tx.StmtContext(ctx, s.stmtGetModelInfo).QueryRowContext(ctx, imported.Name).Scan(&info.Id, &info.Boundaries)
	if errors.Is(err, sql.ErrNoRows) {
		res, err := tx.StmtContext(ctx, s.stmtAddModel).ExecContext(ctx, imported.Name, imported.Boundaries)
		if err != nil {
			return ModelInfo{}, fmt.Errorf("failed to insert new model '%s': %w", imported.Name, err)
		}
		newID, _ := res.LastInsertId()
		info.Id = int(newID)
		info.Boundaries = imported.Boundaries
	} else if err != nil {
		return ModelInfo{}, fmt.Errorf("failed to query for model '%s': %w", imported.Name, err)
	} else if info.Boundaries != imported.Boundaries {
		s.logger.WarnContext(ctx, "Imported model boundary setting differs from stored model, keeping stored setting",
			slog.String("model_name", info.Name),
			slog.Bool("stored", info.Boundaries),
			slog.Bool("imported", imported.Boundaries),
		)
	}

	m := markov.FromCounts(imported.Transitions)
	if err = s.mergeModel(ctx, tx, info, m); err != nil {
		return ModelInfo{}, err
	}

	if err = tx.Commit(); err != nil {
		return ModelInfo{}, err
	}

	s.logger.InfoContext(ctx, "Model imported successfully",
		slog.String("model_name", info.Name),
		slog.Int("target_model_id", info.Id),
		slog.Int("transitions_merged", m.Len()),
	)
	return info, nil
}
