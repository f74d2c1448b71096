package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/bryan-buckman/bookserver/internal/model"
	_ "modernc.org/sqlite"
)

// DB wraps the SQLite connection.
type DB struct {
	conn *sql.DB
}

// Ensure DB implements Store interface.
var _ Store = (*DB)(nil)

// New opens or creates an SQLite database at the given path.
func New(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// A single connection keeps in-memory databases shared and avoids
	// SQLITE_BUSY between writers.
	conn.SetMaxOpenConns(1)
	// Enable WAL mode for better concurrency.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}
	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// DatabaseType returns the database backend name.
func (db *DB) DatabaseType() string {
	return "SQLite"
}

// SupportsHighConcurrency returns false for SQLite.
func (db *DB) SupportsHighConcurrency() bool {
	return false
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sources (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		url TEXT NOT NULL UNIQUE,
		last_fetched DATETIME,
		last_error TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_id INTEGER REFERENCES sources(id) ON DELETE CASCADE,
		urn TEXT NOT NULL UNIQUE,
		url TEXT,
		title TEXT NOT NULL DEFAULT '',
		updated TEXT NOT NULL DEFAULT '',
		date TEXT,
		subjects TEXT NOT NULL DEFAULT '[]',
		publishers TEXT NOT NULL DEFAULT '[]',
		languages TEXT NOT NULL DEFAULT '[]',
		content TEXT,
		fetched_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_items_updated ON items(updated DESC);
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	INSERT OR IGNORE INTO settings (key, value) VALUES ('polling_interval_minutes', '60');
	`
	_, err := db.conn.Exec(schema)
	return err
}

// --- Source Methods ---

// GetSources returns all sources ordered by title.
func (db *DB) GetSources() ([]model.Source, error) {
	rows, err := db.conn.Query("SELECT id, title, url, last_fetched, last_error FROM sources ORDER BY title")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSources(rows)
}

// GetOrCreateSource finds a source by URL, or creates it.
func (db *DB) GetOrCreateSource(title, url string) (int64, bool, error) {
	var id int64
	err := db.conn.QueryRow("SELECT id FROM sources WHERE url = ?", url).Scan(&id)
	if err == sql.ErrNoRows {
		res, err := db.conn.Exec("INSERT INTO sources (title, url) VALUES (?, ?)", title, url)
		if err != nil {
			return 0, false, err
		}
		id, err := res.LastInsertId()
		return id, true, err
	}
	return id, false, err
}

// UpdateSourceLastFetched records a successful fetch and clears the last error.
func (db *DB) UpdateSourceLastFetched(sourceID int64, t time.Time) error {
	_, err := db.conn.Exec("UPDATE sources SET last_fetched = ?, last_error = '' WHERE id = ?", t, sourceID)
	return err
}

func (db *DB) UpdateSourceTitle(sourceID int64, title string) error {
	_, err := db.conn.Exec("UPDATE sources SET title = ? WHERE id = ?", title, sourceID)
	return err
}

func (db *DB) UpdateSourceError(sourceID int64, errMsg string) error {
	_, err := db.conn.Exec("UPDATE sources SET last_error = ? WHERE id = ?", errMsg, sourceID)
	return err
}

// DeleteSource removes a source and the items harvested from it.
func (db *DB) DeleteSource(sourceID int64) error {
	if _, err := db.conn.Exec("DELETE FROM items WHERE source_id = ?", sourceID); err != nil {
		return err
	}
	_, err := db.conn.Exec("DELETE FROM sources WHERE id = ?", sourceID)
	return err
}

// --- Item Methods ---

// AddItem inserts a new item if its urn is not indexed yet. Returns ID and whether it was new.
func (db *DB) AddItem(item *model.Item) (int64, bool, error) {
	res, err := db.conn.Exec(`
		INSERT INTO items (source_id, urn, url, title, updated, date, subjects, publishers, languages, content, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(urn) DO NOTHING`,
		item.SourceID, item.URN, item.URL, item.Title, item.Updated, item.Date,
		encodeList(item.Subjects), encodeList(item.Publishers), encodeList(item.Languages),
		item.Content, item.FetchedAt)
	if err != nil {
		return 0, false, err
	}
	id, _ := res.LastInsertId()
	affected, _ := res.RowsAffected()
	return id, affected > 0, nil
}

// GetItem returns the item with the given urn.
func (db *DB) GetItem(urn string) (*model.Item, error) {
	it, err := scanItem(db.conn.QueryRow("SELECT "+itemColumns+" FROM items WHERE urn = ?", urn))
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// SearchItems matches query against titles and subjects.
func (db *DB) SearchItems(query string, start, rows int) ([]model.Item, int, error) {
	where := ""
	var args []any
	if query != "" {
		// Subjects are matched one list element at a time, never the JSON text.
		where = ` WHERE title LIKE ? ESCAPE '\' OR EXISTS (SELECT 1 FROM json_each(items.subjects) WHERE json_each.value LIKE ? ESCAPE '\')`
		args = append(args, likePattern(query), likePattern(query))
	}

	var total int
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM items"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := "SELECT " + itemColumns + " FROM items" + where + " ORDER BY updated DESC, id LIMIT ? OFFSET ?"
	res, err := db.conn.Query(q, append(args, rows, start)...)
	if err != nil {
		return nil, 0, err
	}
	defer res.Close()
	items, err := scanItems(res)
	return items, total, err
}

// --- Settings Methods ---

// GetSetting retrieves a setting value.
func (db *DB) GetSetting(key string) (string, error) {
	var val string
	err := db.conn.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&val)
	return val, err
}

// SetSetting saves a setting.
func (db *DB) SetSetting(key, value string) error {
	_, err := db.conn.Exec("INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = ?", key, value, value)
	return err
}

// GetPollingInterval returns the polling interval in minutes, with a minimum of 15.
func (db *DB) GetPollingInterval() (int, error) {
	return pollingInterval(db.GetSetting(model.SettingPollingInterval))
}
