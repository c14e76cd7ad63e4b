package planlib

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/vidcraft-ai/vidcraft/pkg/protocol"
)

// ErrExecutionNotFound is returned when no execution has the requested id.
var ErrExecutionNotFound = errors.New("execution not found")

// Execution status values.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Execution is one journaled request.
type Execution struct {
	ID             string                    `json:"id"`
	Prompt         string                    `json:"prompt"`
	Strategy       Strategy                  `json:"strategy"`
	Plan           *Plan                     `json:"plan"`
	Result         *protocol.AggregateResult `json:"result"`
	Status         string                    `json:"status"`
	ErrorCode      string                    `json:"error_code,omitempty"`
	StartedAt      int64                     `json:"started_at"`
	CompletedAt    int64                     `json:"completed_at"`
	DurationMs     int64                     `json:"duration_ms"`
	StepCount      int                       `json:"step_count"`
	StepsCompleted int                       `json:"steps_completed"`
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS executions (
	id TEXT PRIMARY KEY,
	prompt TEXT NOT NULL,
	strategy TEXT NOT NULL,
	plan_json TEXT NOT NULL,
	result_json TEXT NOT NULL,
	status TEXT NOT NULL,
	error_code TEXT NOT NULL DEFAULT '',
	started_at INTEGER NOT NULL,
	completed_at INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	step_count INTEGER NOT NULL,
	steps_completed INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_executions_started ON executions(started_at);
`

// Journal stores executed plans in SQLite.
type Journal struct {
	db *sql.DB
}

// NewJournal wraps an open database. The schema must already exist.
func NewJournal(db *sql.DB) *Journal {
	return &Journal{db: db}
}

// Open opens (creating if needed) the journal database at path.
func Open(ctx context.Context, path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate journal: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record stores a finished execution, assigning an id if it has none.
func (j *Journal) Record(ctx context.Context, exec *Execution) error {
	if exec.ID == "" {
		exec.ID = uuid.New().String()
	}
	if exec.StartedAt == 0 {
		exec.StartedAt = time.Now().Unix()
	}
	if exec.CompletedAt == 0 {
		exec.CompletedAt = exec.StartedAt + exec.DurationMs/1000
	}

	planJSON, err := json.Marshal(exec.Plan)
	if err != nil {
		return err
	}
	resultJSON, err := json.Marshal(exec.Result)
	if err != nil {
		return err
	}

	_, err = j.db.ExecContext(ctx, `
		INSERT INTO executions (id, prompt, strategy, plan_json, result_json, status, error_code, started_at, completed_at, duration_ms, step_count, steps_completed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, exec.ID, exec.Prompt, string(exec.Strategy), string(planJSON), string(resultJSON), exec.Status, exec.ErrorCode,
		exec.StartedAt, exec.CompletedAt, exec.DurationMs, exec.StepCount, exec.StepsCompleted)
	return err
}

const selectColumns = `id, prompt, strategy, plan_json, result_json, status, error_code, started_at, completed_at, duration_ms, step_count, steps_completed`

type scanner interface {
	Scan(dest ...any) error
}

func scanExecution(row scanner) (*Execution, error) {
	var exec Execution
	var strategy, planJSON, resultJSON string
	if err := row.Scan(&exec.ID, &exec.Prompt, &strategy, &planJSON, &resultJSON, &exec.Status, &exec.ErrorCode,
		&exec.StartedAt, &exec.CompletedAt, &exec.DurationMs, &exec.StepCount, &exec.StepsCompleted); err != nil {
		return nil, err
	}
	exec.Strategy = Strategy(strategy)
	if planJSON != "" && planJSON != "null" {
		exec.Plan = &Plan{}
		if err := json.Unmarshal([]byte(planJSON), exec.Plan); err != nil {
			return nil, fmt.Errorf("decode plan %s: %w", exec.ID, err)
		}
	}
	if resultJSON != "" && resultJSON != "null" {
		exec.Result = &protocol.AggregateResult{}
		if err := json.Unmarshal([]byte(resultJSON), exec.Result); err != nil {
			return nil, fmt.Errorf("decode result %s: %w", exec.ID, err)
		}
	}
	return &exec, nil
}

// Get returns the execution with the given id.
func (j *Journal) Get(ctx context.Context, id string) (*Execution, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM executions WHERE id = ?`, id)
	exec, err := scanExecution(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrExecutionNotFound
	}
	return exec, err
}

// List returns up to limit executions, newest first.
func (j *Journal) List(ctx context.Context, limit int) ([]*Execution, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM executions ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Execution
	for rows.Next() {
		exec, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, exec)
	}
	return out, rows.Err()
}
