package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/nixflix/internal/models"
	"github.com/desertthunder/nixflix/internal/shared"
)

const syncRunColumns = `id, sequence, playlist, album, outcome, reason, forced, mutated,
	items_inserted, items_deleted, insert_calls, source_updated_at, dest_updated_at,
	started_at, completed_at, created_at`

// SyncRunRepository persists [models.SyncRun] journal entries.
//
// It implements tasks.RunRecorder.
type SyncRunRepository struct {
	db *sql.DB
}

// NewSyncRunRepository creates a new SyncRunRepository with the given database connection
func NewSyncRunRepository(db *sql.DB) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

// Create inserts a run with a generated ID and sequence
func (r *SyncRunRepository) Create(run *models.SyncRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "sync_runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	if run.CreatedAt().IsZero() {
		run.SetCreatedAt(time.Now().UTC())
	}

	query := `INSERT INTO sync_runs (` + syncRunColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.Exec(query,
		id,
		sequence,
		run.Playlist,
		run.Album,
		string(run.Outcome),
		run.Reason,
		run.Forced,
		run.Mutated,
		run.ItemsInserted,
		run.ItemsDeleted,
		run.InsertCalls,
		nullTime(run.SourceUpdatedAt),
		nullTime(run.DestUpdatedAt),
		run.StartedAt,
		run.CompletedAt,
		run.CreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert sync run: %w", err)
	}

	run.SetID(id)
	run.Sequence = sequence
	return nil
}

// Record journals a run. It satisfies tasks.RunRecorder.
func (r *SyncRunRepository) Record(run *models.SyncRun) error {
	return r.Create(run)
}

// Get retrieves a run by ID
func (r *SyncRunRepository) Get(id string) (*models.SyncRun, error) {
	query := `SELECT ` + syncRunColumns + ` FROM sync_runs WHERE id = ?`

	run, err := scanSyncRun(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sync run not found: %s", id)
	}
	return run, err
}

// Latest returns the most recent run for the pair, or [shared.ErrNoSyncRuns].
func (r *SyncRunRepository) Latest(playlist, album string) (*models.SyncRun, error) {
	query := `SELECT ` + syncRunColumns + ` FROM sync_runs
		WHERE playlist = ? AND album = ?
		ORDER BY sequence DESC LIMIT 1`

	run, err := scanSyncRun(r.db.QueryRow(query, playlist, album))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s <- %s", shared.ErrNoSyncRuns, playlist, album)
	}
	return run, err
}

// List retrieves runs matching the criteria, newest first.
//
// Supported criteria: "playlist" (string), "album" (string), "outcome" ([models.Outcome] or string), "limit" (int).
func (r *SyncRunRepository) List(criteria map[string]any) ([]*models.SyncRun, error) {
	var (
		where []string
		args  []any
	)

	if playlist, ok := criteria["playlist"].(string); ok && playlist != "" {
		where = append(where, "playlist = ?")
		args = append(args, playlist)
	}
	if album, ok := criteria["album"].(string); ok && album != "" {
		where = append(where, "album = ?")
		args = append(args, album)
	}
	switch outcome := criteria["outcome"].(type) {
	case models.Outcome:
		where = append(where, "outcome = ?")
		args = append(args, string(outcome))
	case string:
		if outcome != "" {
			where = append(where, "outcome = ?")
			args = append(args, outcome)
		}
	}

	query := `SELECT ` + syncRunColumns + ` FROM sync_runs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY sequence DESC"
	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.SyncRun
	for rows.Next() {
		run, err := scanSyncRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

// Prune deletes runs that completed before cutoff and returns how many were removed.
func (r *SyncRunRepository) Prune(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec("DELETE FROM sync_runs WHERE completed_at < ?", cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune sync runs: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanSyncRun scans a single row into a [models.SyncRun]. sql.ErrNoRows is returned unwrapped.
func scanSyncRun(row scanner) (*models.SyncRun, error) {
	var (
		run             models.SyncRun
		id              string
		outcome         string
		reason          sql.NullString
		sourceUpdatedAt sql.NullTime
		destUpdatedAt   sql.NullTime
		createdAt       time.Time
	)

	err := row.Scan(
		&id, &run.Sequence, &run.Playlist, &run.Album, &outcome, &reason, &run.Forced, &run.Mutated,
		&run.ItemsInserted, &run.ItemsDeleted, &run.InsertCalls, &sourceUpdatedAt, &destUpdatedAt,
		&run.StartedAt, &run.CompletedAt, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan sync run: %w", err)
	}

	run.SetID(id)
	run.SetCreatedAt(createdAt)
	run.Outcome = models.Outcome(outcome)
	run.Reason = reason.String
	if sourceUpdatedAt.Valid {
		run.SourceUpdatedAt = sourceUpdatedAt.Time
	}
	if destUpdatedAt.Valid {
		run.DestUpdatedAt = destUpdatedAt.Time
	}

	return &run, nil
}
