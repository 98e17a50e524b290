// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists post collections between CLI invocations. Each
// stage's output is saved as a run; a later command picks up the latest run
// of the stage it consumes.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/claim-ranker/pkg/types"
)

// DefaultPath is the database location used when none is configured.
const DefaultPath = "state/claim-ranker.db"

// Stage names the pipeline step that produced a run.
type Stage string

const (
	// StageFetched holds posts as returned by the fetcher.
	StageFetched Stage = "fetched"
	// StageRanked holds filtered, scored, and ranked posts.
	StageRanked Stage = "ranked"
)

// ErrNoRun is returned when no run matches.
var ErrNoRun = errors.New("no stored run")

// Run is one saved collection.
type Run struct {
	ID        string
	Stage     Stage
	ParentID  string
	CreatedAt time.Time
	PostCount int

	// Posts is nil in listings.
	Posts []*types.Post

	// Diagnostics carries the degraded-path reasons recorded by the stage.
	Diagnostics []string
}

// Store manages the run database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating state directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			stage TEXT NOT NULL,
			parent_id TEXT,
			created_at TEXT NOT NULL,
			post_count INTEGER NOT NULL,
			posts TEXT NOT NULL,
			diagnostics TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_stage ON runs(stage, seq)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// SaveRun stores posts as a new run of stage. parentID links a ranked run
// to the fetched run it was computed from and may be empty.
func (s *Store) SaveRun(ctx context.Context, stage Stage, parentID string, posts []*types.Post, diagnostics []string) (*Run, error) {
	if posts == nil {
		posts = []*types.Post{}
	}
	postsJSON, err := json.Marshal(posts)
	if err != nil {
		return nil, fmt.Errorf("marshaling posts: %w", err)
	}
	diagJSON, err := json.Marshal(diagnostics)
	if err != nil {
		return nil, fmt.Errorf("marshaling diagnostics: %w", err)
	}

	run := &Run{
		ID:          uuid.NewString(),
		Stage:       stage,
		ParentID:    parentID,
		CreatedAt:   s.now().UTC(),
		PostCount:   len(posts),
		Posts:       posts,
		Diagnostics: diagnostics,
	}

	query, args, err := sq.Insert("runs").
		Columns("id", "stage", "parent_id", "created_at", "post_count", "posts", "diagnostics").
		Values(run.ID, string(stage), nullString(parentID), run.CreatedAt.Format(time.RFC3339Nano),
			run.PostCount, string(postsJSON), string(diagJSON)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("saving run: %w", err)
	}
	return run, nil
}

// LatestRun returns the most recent run of stage with its posts, or
// ErrNoRun.
func (s *Store) LatestRun(ctx context.Context, stage Stage) (*Run, error) {
	return s.one(ctx, sq.Eq{"stage": string(stage)})
}

// GetRun returns the run with the given id, or ErrNoRun.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	return s.one(ctx, sq.Eq{"id": id})
}

func (s *Store) one(ctx context.Context, where sq.Eq) (*Run, error) {
	query, args, err := sq.Select("id", "stage", "parent_id", "created_at", "post_count", "diagnostics", "posts").
		From("runs").
		Where(where).
		OrderBy("seq DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	var postsJSON string
	run, err := scanRun(s.db.QueryRowContext(ctx, query, args...), &postsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRun
	}
	if err != nil {
		return nil, fmt.Errorf("loading run: %w", err)
	}
	if err := json.Unmarshal([]byte(postsJSON), &run.Posts); err != nil {
		return nil, fmt.Errorf("decoding posts of run %s: %w", run.ID, err)
	}
	return run, nil
}

// ListRuns returns up to limit runs, newest first, without their posts.
// A stage of "" lists all stages.
func (s *Store) ListRuns(ctx context.Context, stage Stage, limit int) ([]Run, error) {
	b := sq.Select("id", "stage", "parent_id", "created_at", "post_count", "diagnostics").
		From("runs").
		OrderBy("seq DESC")
	if stage != "" {
		b = b.Where(sq.Eq{"stage": string(stage)})
	}
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows, nil)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

// scanRun reads the listing columns and, when postsJSON is non-nil, the
// trailing posts column.
func scanRun(row scanner, postsJSON *string) (*Run, error) {
	var (
		run       Run
		stage     string
		parentID  sql.NullString
		createdAt string
		diagJSON  sql.NullString
	)
	dest := []any{&run.ID, &stage, &parentID, &createdAt, &run.PostCount, &diagJSON}
	if postsJSON != nil {
		dest = append(dest, postsJSON)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	run.Stage = Stage(stage)
	run.ParentID = parentID.String
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at %q: %w", createdAt, err)
	}
	run.CreatedAt = t
	if diagJSON.Valid && diagJSON.String != "" {
		if err := json.Unmarshal([]byte(diagJSON.String), &run.Diagnostics); err != nil {
			return nil, fmt.Errorf("decoding diagnostics: %w", err)
		}
	}
	return &run, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
