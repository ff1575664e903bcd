package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/privata-labs/privata/models"
	"github.com/privata-labs/privata/repositories"
	"github.com/privata-labs/privata/services"
)

//go:embed schema.sql
var schemaSQL string

var _ repositories.AnalysisStore = (*Store)(nil)

// Store implements repositories.AnalysisStore on SQLite. The run state is
// stored as JSON; the ledger lives in its own table with an explicit position
// column so stage order survives the round-trip exactly.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens (or creates) the database at path and initializes the schema.
// Use ":memory:" for an in-process database.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypePersist, "open analysis store", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, services.NewDomainError(services.ErrorTypePersist, "ping analysis store", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, services.NewDomainError(services.ErrorTypePersist, "enable foreign keys", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, services.NewDomainError(services.ErrorTypePersist, "initialize analysis store schema", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// NewWithDB wraps an existing database handle. The schema is assumed to be in
// place; used by tests.
func NewWithDB(db *sql.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, logger: logger}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores the run state under the given name. Re-saving the same run
// under the same name replaces the stored copy; a different run under an
// existing name is a conflict.
func (s *Store) Save(ctx context.Context, name string, state *models.RunState) error {
	if err := repositories.ValidateName(name); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	nameLower := strings.ToLower(name)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return services.NewDomainError(services.ErrorTypePersist, "begin save transaction", err)
	}
	defer tx.Rollback()

	var existingID, existingRunID string
	err = tx.QueryRowContext(ctx,
		`SELECT id, run_id FROM analyses WHERE name_lower = ?`, nameLower,
	).Scan(&existingID, &existingRunID)
	switch {
	case err == nil:
		if existingRunID != state.ID.String() {
			return services.ErrDuplicateName
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM analyses WHERE id = ?`, existingID); err != nil {
			return services.NewDomainError(services.ErrorTypePersist, "replace saved analysis", err)
		}
	case errors.Is(err, sql.ErrNoRows):
		// New name.
	default:
		return services.NewDomainError(services.ErrorTypePersist, "check existing analysis", err)
	}

	// The ledger is stored relationally, not inside the JSON blob.
	ledger := state.Ledger
	stripped := state.Clone()
	stripped.Ledger = nil
	stateJSON, err := json.Marshal(stripped)
	if err != nil {
		return services.NewDomainError(services.ErrorTypePersist, "encode run state", err)
	}

	analysisID := uuid.New().String()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO analyses (id, name, name_lower, run_id, mode, status, state_json, saved_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		analysisID, name, nameLower, state.ID.String(), string(state.Mode), string(state.Status),
		string(stateJSON), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return services.NewDomainError(services.ErrorTypePersist, "insert saved analysis", err)
	}

	for i, row := range ledger {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO ledger_rows (analysis_id, position, stage_id, duration_ms, attempts, status)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			analysisID, i, string(row.StageID), row.DurationMs, row.Attempts, string(row.Status),
		)
		if err != nil {
			return services.NewDomainError(services.ErrorTypePersist, "insert ledger row", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return services.NewDomainError(services.ErrorTypePersist, "commit saved analysis", err)
	}

	s.logger.Info("analysis saved",
		zap.String("name", name),
		zap.String("run_id", state.ID.String()),
		zap.Int("ledger_rows", len(ledger)),
	)
	return nil
}

// Load returns the run state saved under the given name, ledger included in
// its original order.
func (s *Store) Load(ctx context.Context, name string) (*models.RunState, error) {
	nameLower := strings.ToLower(strings.TrimSpace(name))

	var analysisID, stateJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, state_json FROM analyses WHERE name_lower = ?`, nameLower,
	).Scan(&analysisID, &stateJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.ErrAnalysisNotFound
	}
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeLoad, "query saved analysis", err)
	}

	var state models.RunState
	if err := json.Unmarshal([]byte(stateJSON), &state); err != nil {
		return nil, services.NewDomainError(services.ErrorTypeLoad, "decode run state", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT stage_id, duration_ms, attempts, status
		 FROM ledger_rows WHERE analysis_id = ? ORDER BY position`, analysisID,
	)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeLoad, "query ledger rows", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row models.LedgerRow
		var stageID, status string
		if err := rows.Scan(&stageID, &row.DurationMs, &row.Attempts, &status); err != nil {
			return nil, services.NewDomainError(services.ErrorTypeLoad, "scan ledger row", err)
		}
		row.StageID = models.StageID(stageID)
		row.Status = models.StageStatus(status)
		state.Ledger = append(state.Ledger, row)
	}
	if err := rows.Err(); err != nil {
		return nil, services.NewDomainError(services.ErrorTypeLoad, "iterate ledger rows", err)
	}

	return &state, nil
}

// List returns summaries of all saved analyses, newest first.
func (s *Store) List(ctx context.Context) ([]repositories.AnalysisSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, run_id, mode, status, saved_at FROM analyses ORDER BY saved_at DESC`,
	)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeLoad, "list saved analyses", err)
	}
	defer rows.Close()

	var summaries []repositories.AnalysisSummary
	for rows.Next() {
		var sum repositories.AnalysisSummary
		var mode, status, savedAt string
		if err := rows.Scan(&sum.Name, &sum.RunID, &mode, &status, &savedAt); err != nil {
			return nil, services.NewDomainError(services.ErrorTypeLoad, "scan saved analysis", err)
		}
		sum.Mode = models.PipelineMode(mode)
		sum.Status = models.RunStatus(status)
		if ts, err := time.Parse(time.RFC3339Nano, savedAt); err == nil {
			sum.SavedAt = ts
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, services.NewDomainError(services.ErrorTypeLoad, "iterate saved analyses", err)
	}
	return summaries, nil
}

// Delete removes the analysis saved under the given name.
func (s *Store) Delete(ctx context.Context, name string) error {
	nameLower := strings.ToLower(strings.TrimSpace(name))

	result, err := s.db.ExecContext(ctx, `DELETE FROM analyses WHERE name_lower = ?`, nameLower)
	if err != nil {
		return services.NewDomainError(services.ErrorTypePersist, "delete saved analysis", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return services.NewDomainError(services.ErrorTypePersist, "delete saved analysis", err)
	}
	if affected == 0 {
		return services.ErrAnalysisNotFound
	}
	return nil
}
