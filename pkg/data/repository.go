package data

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var ErrRunNotFound = errors.New("run not found")

// Repository persists runs and their chapters.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Open initialises the database for driver ("duckdb" or "sqlite") at path.
func Open(driver, path string) (*Repository, error) {
	var (
		db  *sql.DB
		err error
	)
	switch driver {
	case "duckdb":
		db, err = InitDuckDB(path)
	case "sqlite":
		db, err = InitSQLite(path)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// SaveRun inserts run or updates every mutable column of an existing one.
// CreatedAt is kept from the first save.
func (r *Repository) SaveRun(run *Run) error {
	if run == nil || run.ID == "" {
		return errors.New("run must have an id")
	}
	now := time.Now().UTC()
	if run.CreatedAt.IsZero() {
		run.CreatedAt = now
	}
	run.UpdatedAt = now

	_, err := r.db.Exec(`
		INSERT INTO runs (id, style, description, chapters, min_paragraphs, outline, title, cover_prompt, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			outline = excluded.outline,
			title = excluded.title,
			cover_prompt = excluded.cover_prompt,
			status = excluded.status,
			updated_at = excluded.updated_at`,
		run.ID, run.Request.Style, run.Request.Description, run.Request.Chapters, run.Request.MinParagraphs,
		string(run.Outline), run.Title, run.CoverPrompt, string(run.Status),
		run.CreatedAt.Format(time.RFC3339Nano), run.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

func (r *Repository) UpdateStatus(runID string, status RunStatus) error {
	res, err := r.db.Exec(`UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC().Format(time.RFC3339Nano), runID)
	if err != nil {
		return fmt.Errorf("failed to update run status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// GetRun loads a run together with its chapters in ordinal order.
func (r *Repository) GetRun(id string) (*Run, error) {
	row := r.db.QueryRow(`
		SELECT id, style, description, chapters, min_paragraphs, outline, title, cover_prompt, status, created_at, updated_at
		FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	chapters, err := r.GetChapters(id)
	if err != nil {
		return nil, err
	}
	run.Chapters = chapters
	return run, nil
}

// ListRuns returns all runs, newest first, without chapters.
func (r *Repository) ListRuns() ([]*Run, error) {
	rows, err := r.db.Query(`
		SELECT id, style, description, chapters, min_paragraphs, outline, title, cover_prompt, status, created_at, updated_at
		FROM runs ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// SaveChapter upserts a chapter keyed by run id and ordinal.
func (r *Repository) SaveChapter(runID string, chapter Chapter) error {
	if chapter.Ordinal < 1 {
		return fmt.Errorf("invalid chapter ordinal %d", chapter.Ordinal)
	}
	_, err := r.db.Exec(`
		INSERT INTO chapters (run_id, ordinal, title, content)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (run_id, ordinal) DO UPDATE SET
			title = excluded.title,
			content = excluded.content`,
		runID, chapter.Ordinal, chapter.Title, chapter.Content,
	)
	if err != nil {
		return fmt.Errorf("failed to save chapter %d: %w", chapter.Ordinal, err)
	}
	return nil
}

func (r *Repository) GetChapters(runID string) ([]Chapter, error) {
	rows, err := r.db.Query(`SELECT ordinal, title, content FROM chapters WHERE run_id = ? ORDER BY ordinal`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get chapters: %w", err)
	}
	defer rows.Close()

	var chapters []Chapter
	for rows.Next() {
		var ch Chapter
		if err := rows.Scan(&ch.Ordinal, &ch.Title, &ch.Content); err != nil {
			return nil, fmt.Errorf("failed to scan chapter: %w", err)
		}
		chapters = append(chapters, ch)
	}
	return chapters, rows.Err()
}

func (r *Repository) DeleteRun(id string) error {
	if _, err := r.db.Exec(`DELETE FROM chapters WHERE run_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete chapters: %w", err)
	}
	if _, err := r.db.Exec(`DELETE FROM runs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var (
		run                  Run
		outline, status      string
		createdAt, updatedAt string
	)
	err := s.Scan(&run.ID, &run.Request.Style, &run.Request.Description, &run.Request.Chapters,
		&run.Request.MinParagraphs, &outline, &run.Title, &run.CoverPrompt, &status, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	run.Outline = Outline(outline)
	run.Status = RunStatus(status)
	run.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	run.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &run, nil
}
