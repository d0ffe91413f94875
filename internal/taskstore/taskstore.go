// Package taskstore implements the candidate task claim lifecycle
// (free -> selected -> processing -> completed) against PostgreSQL, using
// row-level locking so concurrent workers never double-process a task.
package taskstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/saiid2001/vsf-analyzer/internal/config"
)

// Status is one of the five states a task row can be in.
type Status string

const (
	StatusFree       Status = "free"
	StatusSelected   Status = "selected"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusTimeout    Status = "timeout"
)

// ErrTaskNotFree is returned when a claim attempt loses the race to
// another worker, or targets a task that is no longer free.
var ErrTaskNotFree = errors.New("taskstore: task is not free")

// ErrTaskNotFound is returned when no task with the given id is in the
// status a transition starts from, including when the id does not exist.
var ErrTaskNotFound = errors.New("taskstore: task not found")

// Task is one candidate-pair row.
type Task struct {
	ID           string
	CandidateID  int64
	Status       Status
	ClaimedBy    string
	ClaimedAt    time.Time
	ResultCode   string
	ResultNote   string
	TemplateHash string
}

// Store wraps a *sql.DB configured per the Database section of config.Config.
type Store struct {
	db *sql.DB
}

// Open connects to PostgreSQL using cfg and verifies connectivity.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("taskstore: opening connection: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("taskstore: pinging database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Enqueue inserts a new free task for candidateID and returns its row id.
func (s *Store) Enqueue(ctx context.Context, candidateID int64) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO candidate_tasks (id, candidate_id, status, claimed_by, claimed_at)
		 VALUES ($1, $2, $3, '', NULL)`,
		id, candidateID, StatusFree,
	)
	if err != nil {
		return "", fmt.Errorf("taskstore: enqueueing task: %w", err)
	}
	return id, nil
}

// Claim atomically transitions one free task to selected, owned by
// workerID, and returns it. It returns ErrTaskNotFree if no free task is
// available. The row lock (SELECT ... FOR UPDATE) prevents two workers
// from claiming the same row concurrently.
func (s *Store) Claim(ctx context.Context, workerID string) (Task, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Task{}, fmt.Errorf("taskstore: beginning claim transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var task Task
	var claimedAt sql.NullTime
	row := tx.QueryRowContext(ctx, `
		SELECT id, candidate_id, status, claimed_by, claimed_at
		FROM candidate_tasks
		WHERE status = $1
		ORDER BY candidate_id
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`, StatusFree)

	if err := row.Scan(&task.ID, &task.CandidateID, &task.Status, &task.ClaimedBy, &claimedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Task{}, ErrTaskNotFree
		}
		return Task{}, fmt.Errorf("taskstore: selecting free task: %w", err)
	}

	now := time.Now()
	if _, err := tx.ExecContext(ctx, `
		UPDATE candidate_tasks SET status = $1, claimed_by = $2, claimed_at = $3
		WHERE id = $4
	`, StatusSelected, workerID, now, task.ID); err != nil {
		return Task{}, fmt.Errorf("taskstore: claiming task: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Task{}, fmt.Errorf("taskstore: committing claim: %w", err)
	}

	task.Status = StatusSelected
	task.ClaimedBy = workerID
	task.ClaimedAt = now
	return task, nil
}

// ClaimByID atomically transitions a specific free task to selected, for
// a caller that already knows which row it wants (typically the same
// process that just enqueued it) rather than pulling the next free row
// off the front of the queue. It returns ErrTaskNotFree if the row is not
// currently free.
func (s *Store) ClaimByID(ctx context.Context, taskID, workerID string) (Task, error) {
	now := time.Now()
	res, err := s.db.ExecContext(ctx, `
		UPDATE candidate_tasks SET status = $1, claimed_by = $2, claimed_at = $3
		WHERE id = $4 AND status = $5
	`, StatusSelected, workerID, now, taskID, StatusFree)
	if err != nil {
		return Task{}, fmt.Errorf("taskstore: claiming task %s: %w", taskID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Task{}, fmt.Errorf("taskstore: reading rows affected: %w", err)
	}
	if n == 0 {
		return Task{}, ErrTaskNotFree
	}

	var task Task
	row := s.db.QueryRowContext(ctx, `
		SELECT id, candidate_id, status, claimed_by, claimed_at FROM candidate_tasks WHERE id = $1
	`, taskID)
	var claimedAt sql.NullTime
	if err := row.Scan(&task.ID, &task.CandidateID, &task.Status, &task.ClaimedBy, &claimedAt); err != nil {
		return Task{}, fmt.Errorf("taskstore: reading claimed task %s: %w", taskID, err)
	}
	return task, nil
}

// MarkProcessing transitions a selected task into processing.
func (s *Store) MarkProcessing(ctx context.Context, taskID string) error {
	return s.transition(ctx, taskID, StatusSelected, StatusProcessing)
}

// Complete transitions a processing task into completed, recording the
// candidate processor's result code, note and template hash.
func (s *Store) Complete(ctx context.Context, taskID, resultCode, resultNote, templateHash string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE candidate_tasks
		SET status = $1, result_code = $2, result_note = $3, template_hash = $4
		WHERE id = $5 AND status = $6
	`, StatusCompleted, resultCode, resultNote, templateHash, taskID, StatusProcessing)
	if err != nil {
		return fmt.Errorf("taskstore: completing task: %w", err)
	}
	return checkRowsAffected(res, taskID)
}

// MarkTimedOut marks a task that exceeded its wall-clock budget. A
// timed-out task is not retried automatically.
func (s *Store) MarkTimedOut(ctx context.Context, taskID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE candidate_tasks SET status = $1, result_code = 'timeout'
		WHERE id = $2 AND status IN ($3, $4)
	`, StatusTimeout, taskID, StatusSelected, StatusProcessing)
	if err != nil {
		return fmt.Errorf("taskstore: marking task timed out: %w", err)
	}
	return checkRowsAffected(res, taskID)
}

func (s *Store) transition(ctx context.Context, taskID string, from, to Status) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE candidate_tasks SET status = $1 WHERE id = $2 AND status = $3`,
		to, taskID, from,
	)
	if err != nil {
		return fmt.Errorf("taskstore: transitioning task %s to %s: %w", taskID, to, err)
	}
	return checkRowsAffected(res, taskID)
}

func checkRowsAffected(res sql.Result, taskID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("taskstore: reading rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	return nil
}
