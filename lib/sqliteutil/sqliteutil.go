package sqliteutil

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	devenv "curriculum-scraper/dev/env"

	_ "modernc.org/sqlite"
)

func wrapOpenDB(err error) error {
	return fmt.Errorf("open db: %w", err)
}

// OpenDB opens (and creates if needed) the sqlite database at `path` and
// applies `schema`, which is expected to only contain idempotent statements
// like `create table if not exists`.
//
// `path` may start with <dev_state>, ":memory:" opens an in-memory database.
func OpenDB(schema, path string) (*sql.DB, error) {
	if path != ":memory:" {
		resolved, err := devenv.ResolvePath(path)
		if err != nil {
			return nil, wrapOpenDB(err)
		}
		path = resolved
		err = os.MkdirAll(filepath.Dir(path), 0777)
		if err != nil {
			return nil, wrapOpenDB(err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, wrapOpenDB(err)
	}

	// see this stackoverflow post for information on why the following
	// lines exist: https://stackoverflow.com/questions/35804884/sqlite-concurrent-writing-performance
	db.SetMaxOpenConns(1)
	if path != ":memory:" {
		_, err = db.Exec("PRAGMA journal_mode=WAL")
		if err != nil {
			db.Close()
			return nil, wrapOpenDB(err)
		}
	}

	_, err = db.Exec(schema)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return db, nil
}
