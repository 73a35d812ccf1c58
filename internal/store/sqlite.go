package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/reportmate/comment-engine/internal/model"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS student_results (
	id             TEXT PRIMARY KEY,
	student_name   TEXT NOT NULL,
	period         TEXT NOT NULL,
	inputs_json    TEXT NOT NULL,
	output_json    TEXT,
	was_generated  INTEGER NOT NULL DEFAULT 0,
	snapshot_json  TEXT,
	manual_edit_at TIMESTAMP,
	created_at     TIMESTAMP NOT NULL,
	updated_at     TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_student_results_period ON student_results(period);
`

// SQLite is the single-user state file behind the persistence hook. ":memory:"
// gives a throwaway database for tests and dry runs.
type SQLite struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSQLite opens (creating if needed) the state database and ensures the
// schema exists.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLite, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("connecting to state database", "path", path)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		logger.Error("failed to open state database", "error", err)
		return nil, err
	}
	// modernc sqlite is in-process; one writer connection avoids lock churn.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		logger.Error("failed to ping state database", "error", err)
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		_ = db.Close()
		logger.Error("failed to migrate state database", "error", err)
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("state database ready", "path", path)
	return &SQLite{db: db, logger: logger}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Load hydrates the in-memory store from the state file.
func (s *SQLite) Load(ctx context.Context, st *Store) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, student_name, period, inputs_json, output_json,
		       was_generated, snapshot_json, manual_edit_at, created_at, updated_at
		FROM student_results`)
	if err != nil {
		return fmt.Errorf("query student_results: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			s.logger.Warn("rows close error", "error", cerr)
		}
	}()

	loaded := 0
	for rows.Next() {
		var (
			idStr, name, period, inputsJSON string
			outputJSON, snapshotJSON        sql.NullString
			wasGenerated                    bool
			manualEditAt                    sql.NullTime
			createdAt, updatedAt            time.Time
		)
		if err := rows.Scan(&idStr, &name, &period, &inputsJSON, &outputJSON,
			&wasGenerated, &snapshotJSON, &manualEditAt, &createdAt, &updatedAt); err != nil {
			return fmt.Errorf("scan student_results: %w", err)
		}

		id, err := uuid.Parse(idStr)
		if err != nil {
			s.logger.Warn("skipping row with bad id", "id", idStr, "error", err)
			continue
		}

		r := &model.StudentResult{
			ID:           id,
			StudentName:  name,
			Period:       period,
			WasGenerated: wasGenerated,
			CreatedAt:    createdAt,
			UpdatedAt:    updatedAt,
		}
		if err := json.Unmarshal([]byte(inputsJSON), &r.Inputs); err != nil {
			return fmt.Errorf("decode inputs for %s: %w", id, err)
		}
		if outputJSON.Valid && outputJSON.String != "" {
			r.Output = &model.GenerationOutput{}
			if err := json.Unmarshal([]byte(outputJSON.String), r.Output); err != nil {
				return fmt.Errorf("decode output for %s: %w", id, err)
			}
		}
		if snapshotJSON.Valid && snapshotJSON.String != "" {
			r.Snapshot = &model.GenerationSnapshot{}
			if err := json.Unmarshal([]byte(snapshotJSON.String), r.Snapshot); err != nil {
				return fmt.Errorf("decode snapshot for %s: %w", id, err)
			}
		}
		if manualEditAt.Valid {
			r.ManualEditAt = manualEditAt.Time
		}

		st.Put(r)
		loaded++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate student_results: %w", err)
	}

	s.logger.Info("state loaded", "entities", loaded)
	return nil
}

// Save writes the full in-memory collection back to the state file in one
// transaction. At single-user scale a full rewrite is simpler and safer than
// per-entity dirty tracking.
func (s *SQLite) Save(ctx context.Context, st *Store) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM student_results`); err != nil {
		return fmt.Errorf("clear student_results: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO student_results
			(id, student_name, period, inputs_json, output_json,
			 was_generated, snapshot_json, manual_edit_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			s.logger.Warn("stmt close error", "error", cerr)
		}
	}()

	for _, r := range st.List() {
		inputsJSON, err := json.Marshal(r.Inputs)
		if err != nil {
			return fmt.Errorf("encode inputs for %s: %w", r.ID, err)
		}
		var outputJSON, snapshotJSON any
		if r.Output != nil {
			b, err := json.Marshal(r.Output)
			if err != nil {
				return fmt.Errorf("encode output for %s: %w", r.ID, err)
			}
			outputJSON = string(b)
		}
		if r.Snapshot != nil {
			b, err := json.Marshal(r.Snapshot)
			if err != nil {
				return fmt.Errorf("encode snapshot for %s: %w", r.ID, err)
			}
			snapshotJSON = string(b)
		}
		var manualEditAt any
		if !r.ManualEditAt.IsZero() {
			manualEditAt = r.ManualEditAt
		}

		if _, err := stmt.ExecContext(ctx,
			r.ID.String(), r.StudentName, r.Period, string(inputsJSON), outputJSON,
			r.WasGenerated, snapshotJSON, manualEditAt, r.CreatedAt, r.UpdatedAt); err != nil {
			return fmt.Errorf("insert %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// SaveFunc adapts Save into the persistence hook the coordinators call after
// every applied result.
func (s *SQLite) SaveFunc(st *Store) func(context.Context) error {
	return func(ctx context.Context) error {
		return s.Save(ctx, st)
	}
}
