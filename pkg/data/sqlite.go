package data

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

// InitSQLite opens a pure-Go SQLite database at path with the same schema as
// InitDuckDB. It needs no cgo toolchain.
func InitSQLite(path string) (*sql.DB, error) {
	db, err := initDB("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one writer at a time
	db.SetMaxOpenConns(1)
	return db, nil
}
