package data

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb/v2"
)

// InitDuckDB opens the database at path, creating its directory and the
// schema if needed.
func InitDuckDB(path string) (*sql.DB, error) {
	return initDB("duckdb", path)
}

func initDB(driver, path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open(driver, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		style TEXT NOT NULL,
		description TEXT NOT NULL,
		chapters INTEGER NOT NULL,
		min_paragraphs INTEGER NOT NULL,
		outline TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL DEFAULT '',
		cover_prompt TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS chapters (
		run_id TEXT NOT NULL,
		ordinal INTEGER NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL,
		PRIMARY KEY (run_id, ordinal)
	)`,
}

func migrate(db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}
