package store

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// Store is a SQLite snapshot of a catalog. The server only reads from it;
// ImportCatalog is used by the import-catalog command.
type Store struct {
	db   *sql.DB
	path string
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) migrate() error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA busy_timeout=5000;`,
		`CREATE TABLE IF NOT EXISTS catalog_meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS games (
			id INTEGER PRIMARY KEY,
			position INTEGER NOT NULL,
			title TEXT NOT NULL,
			tags_json TEXT NOT NULL DEFAULT '[]',
			platforms_json TEXT NOT NULL DEFAULT '[]',
			base_price REAL NOT NULL,
			current_price REAL NOT NULL,
			discount_percentage INTEGER NOT NULL,
			review_score INTEGER NOT NULL,
			review_count INTEGER NOT NULL,
			media_json TEXT NOT NULL,
			publish_date TEXT,
			last_update TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS categories (
			position INTEGER PRIMARY KEY,
			main_category TEXT NOT NULL,
			sub_categories_json TEXT NOT NULL DEFAULT '[]'
		);`,
		`CREATE TABLE IF NOT EXISTS collection_items (
			name TEXT NOT NULL,
			position INTEGER NOT NULL,
			game_id INTEGER NOT NULL,
			PRIMARY KEY(name, position)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_games_position ON games(position);`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate schema: %w", err)
		}
	}
	return nil
}

// IsSource reports whether a catalog source names a SQLite snapshot.
func IsSource(source string) bool {
	lower := strings.ToLower(strings.TrimSpace(source))
	return strings.HasSuffix(lower, ".db") || strings.HasSuffix(lower, ".sqlite") || strings.HasSuffix(lower, ".sqlite3")
}
