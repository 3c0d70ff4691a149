package gbtiles

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Cache stores the output of previous conversions keyed by a hash of the
// source file and the conversion settings.
type Cache struct {
	db *sql.DB
}

type entry struct {
	tiles      []byte
	index      []byte
	cols, rows int
	unique     int
}

// NewCache opens, creating if necessary, the cache database in file
func NewCache(file string) (*Cache, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_busy_timeout=5000&_journal_mode=WAL", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS conversion (id INTEGER PRIMARY KEY NOT NULL, sha1 TEXT NOT NULL UNIQUE, tiles BLOB NOT NULL, map BLOB, cols INTEGER NOT NULL, rows INTEGER NOT NULL, unique_count INTEGER NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	return &Cache{
		db: db,
	}, nil
}

// Close closes the underlying database
func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) get(sha string) (*entry, error) {
	e := new(entry)
	switch err := c.db.QueryRow("SELECT tiles, map, cols, rows, unique_count FROM conversion WHERE sha1 = ?", sha).Scan(&e.tiles, &e.index, &e.cols, &e.rows, &e.unique); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		return e, nil
	default:
		return nil, err
	}
}

func (c *Cache) put(sha string, e *entry) error {
	if _, err := c.db.Exec("INSERT OR REPLACE INTO conversion (sha1, tiles, map, cols, rows, unique_count) VALUES (?, ?, ?, ?, ?, ?)", sha, e.tiles, e.index, e.cols, e.rows, e.unique); err != nil {
		return err
	}
	return nil
}

// Purge removes every cached conversion
func (c *Cache) Purge() error {
	_, err := c.db.Exec("DELETE FROM conversion")
	return err
}
