package store

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"

	"github.com/CTAG07/melodia/pkg/markov"
)

const (
	// StartTokenID is the reserved vocabulary ID for markov.StartToken.
	StartTokenID = 0
	// EndTokenID is the reserved vocabulary ID for markov.EndToken.
	EndTokenID = 1
)

// SetupSchema initializes the necessary tables and the boundary vocabulary
// entries in the provided database. It is idempotent and safe to call on an
// already-initialized database.
func SetupSchema(db *sql.DB) error {

	const (
		schemaVocab = `
CREATE TABLE IF NOT EXISTS melody_vocabulary (
    token_id INTEGER PRIMARY KEY,
    token_text TEXT NOT NULL UNIQUE
);
`
		schemaModels = `
CREATE TABLE IF NOT EXISTS melody_models (
    model_id INTEGER PRIMARY KEY,
    model_name TEXT NOT NULL UNIQUE,
    boundaries INTEGER NOT NULL DEFAULT 1
);
`
		schemaTransitions = `
CREATE TABLE IF NOT EXISTS melody_transitions (
    model_id INTEGER NOT NULL,
    from_token_id INTEGER NOT NULL,
    to_token_id INTEGER NOT NULL,
    frequency INTEGER NOT NULL DEFAULT 1,
    PRIMARY KEY (model_id, from_token_id, to_token_id)
);
`
	)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	for _, stmt := range []string{schemaVocab, schemaModels, schemaTransitions} {
		if _, err = tx.Exec(stmt); err != nil {
			return fmt.Errorf("could not create schema: %w", err)
		}
	}

	const insertBoundary = `INSERT OR IGNORE INTO melody_vocabulary (token_id, token_text) VALUES (?, ?);`
	if _, err = tx.Exec(insertBoundary, StartTokenID, markov.StartToken); err != nil {
		return fmt.Errorf("could not insert boundary tokens: %w", err)
	}
	if _, err = tx.Exec(insertBoundary, EndTokenID, markov.EndToken); err != nil {
		return fmt.Errorf("could not insert boundary tokens: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}
	return nil
}

// Store is the entry point for persisting melody models. It holds the database
// connection and prepared SQL statements.
type Store struct {
	db                   *sql.DB
	stmtGetModelInfo     *sql.Stmt
	stmtGetModels        *sql.Stmt
	stmtAddModel         *sql.Stmt
	stmtPruneModel       *sql.Stmt
	stmtModelTransitions *sql.Stmt
	stmtModelStarters    *sql.Stmt
	stmtModelFreq        *sql.Stmt
	stmtLoadModel        *sql.Stmt
	stmtGetTokenID       *sql.Stmt
	stmtGetVocabLen      *sql.Stmt
	stmtInsertVocab      *sql.Stmt
	logger               *slog.Logger
}

// New creates a Store on a database that already has the schema set up. It
// pre-compiles all SQL statements, returning an error if any preparation fails.
func New(db *sql.DB) (*Store, error) {
	s := &Store{
		db:     db,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	statements := []struct {
		dst   **sql.Stmt
		query string
	}{
		{&s.stmtGetModelInfo, `SELECT model_id, boundaries FROM melody_models WHERE model_name = ?;`},
		{&s.stmtGetModels, `SELECT model_id, model_name, boundaries FROM melody_models;`},
		{&s.stmtAddModel, `INSERT INTO melody_models (model_name, boundaries) VALUES (?, ?);`},
		{&s.stmtPruneModel, `DELETE FROM melody_transitions WHERE model_id = ? AND frequency <= ?;`},
		{&s.stmtModelTransitions, `SELECT COUNT(*) FROM melody_transitions WHERE model_id = ?;`},
		{&s.stmtModelStarters, `SELECT COUNT(*) FROM melody_transitions WHERE model_id = ? AND from_token_id = ?;`},
		{&s.stmtModelFreq, `SELECT coalesce(SUM(frequency), 0) FROM melody_transitions WHERE model_id = ?;`},
		{&s.stmtLoadModel, `
SELECT f.token_text, n.token_text, t.frequency
FROM melody_transitions t
JOIN melody_vocabulary f ON f.token_id = t.from_token_id
JOIN melody_vocabulary n ON n.token_id = t.to_token_id
WHERE t.model_id = ?;`},
		{&s.stmtGetTokenID, `SELECT token_id FROM melody_vocabulary WHERE token_text = ?;`},
		{&s.stmtGetVocabLen, `SELECT COUNT(*) FROM melody_vocabulary;`},
		{&s.stmtInsertVocab, `INSERT INTO melody_vocabulary (token_text) VALUES (?) ON CONFLICT(token_text) DO UPDATE SET token_text=excluded.token_text RETURNING token_id;`},
	}

	for _, st := range statements {
		stmt, err := db.Prepare(st.query)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("could not prepare statement: %w", err)
		}
		*st.dst = stmt
	}

	return s, nil
}

// Close releases all prepared SQL statements held by the Store. The database
// itself is left open.
func (s *Store) Close() {
	for _, stmt := range []*sql.Stmt{
		s.stmtGetModelInfo,
		s.stmtGetModels,
		s.stmtAddModel,
		s.stmtPruneModel,
		s.stmtModelTransitions,
		s.stmtModelStarters,
		s.stmtModelFreq,
		s.stmtLoadModel,
		s.stmtGetTokenID,
		s.stmtGetVocabLen,
		s.stmtInsertVocab,
	} {
		if stmt != nil {
			_ = stmt.Close()
		}
	}
}

// SetLogger sets the logger for the Store. By default, all logs are discarded.
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// VocabID looks up a token and returns its vocabulary ID.
// It returns sql.ErrNoRows if the token has never been stored.
func (s *Store) VocabID(ctx context.Context, token string) (int, error) {
	var id int
	if err := s.stmtGetTokenID.QueryRowContext(ctx, token).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}
