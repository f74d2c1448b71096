// Package database provides storage backends for the catalog item index.
package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bryan-buckman/bookserver/internal/model"
)

// Store defines the interface for database operations.
// Both SQLite and PostgreSQL implementations satisfy this interface.
type Store interface {
	Close() error

	// DatabaseType returns the name of the database backend ("SQLite" or "PostgreSQL").
	DatabaseType() string

	// SupportsHighConcurrency returns true if the database can handle
	// many concurrent write operations (e.g., PostgreSQL).
	// SQLite returns false due to write locking limitations.
	SupportsHighConcurrency() bool

	// Source operations
	GetSources() ([]model.Source, error)
	GetOrCreateSource(title, url string) (int64, bool, error)
	UpdateSourceLastFetched(sourceID int64, t time.Time) error
	UpdateSourceTitle(sourceID int64, title string) error
	UpdateSourceError(sourceID int64, errMsg string) error
	DeleteSource(sourceID int64) error

	// Item operations
	AddItem(item *model.Item) (int64, bool, error)
	GetItem(urn string) (*model.Item, error)
	// SearchItems returns one page of items matching query, newest first,
	// along with the total number of matches. An empty query matches all.
	SearchItems(query string, start, rows int) ([]model.Item, int, error)

	// Settings operations
	GetSetting(key string) (string, error)
	SetSetting(key, value string) error
	GetPollingInterval() (int, error)
}

// DefaultPollingInterval is used when no interval has been stored.
const DefaultPollingInterval = 60

const itemColumns = "id, source_id, urn, url, title, updated, date, subjects, publishers, languages, content, fetched_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (model.Item, error) {
	var it model.Item
	var url, date, content sql.NullString
	var subjects, publishers, languages string
	var fetchedAt sql.NullTime
	err := row.Scan(&it.ID, &it.SourceID, &it.URN, &url, &it.Title, &it.Updated,
		&date, &subjects, &publishers, &languages, &content, &fetchedAt)
	if err != nil {
		return it, err
	}
	it.URL = nullString(url)
	it.Date = nullString(date)
	it.Content = nullString(content)
	if fetchedAt.Valid {
		it.FetchedAt = fetchedAt.Time
	}
	if it.Subjects, err = decodeList(subjects); err != nil {
		return it, fmt.Errorf("item %s subjects: %w", it.URN, err)
	}
	if it.Publishers, err = decodeList(publishers); err != nil {
		return it, fmt.Errorf("item %s publishers: %w", it.URN, err)
	}
	if it.Languages, err = decodeList(languages); err != nil {
		return it, fmt.Errorf("item %s languages: %w", it.URN, err)
	}
	return it, nil
}

func scanItems(rows *sql.Rows) ([]model.Item, error) {
	var items []model.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func scanSources(rows *sql.Rows) ([]model.Source, error) {
	var sources []model.Source
	for rows.Next() {
		var s model.Source
		var lastFetched sql.NullTime
		if err := rows.Scan(&s.ID, &s.Title, &s.URL, &lastFetched, &s.LastError); err != nil {
			return nil, err
		}
		if lastFetched.Valid {
			s.LastFetched = lastFetched.Time
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// Lists are stored as JSON arrays.
func encodeList(list []string) string {
	if len(list) == 0 {
		return "[]"
	}
	data, _ := json.Marshal(list)
	return string(data)
}

func decodeList(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal([]byte(s), &list); err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list, nil
}

func pollingInterval(val string, err error) (int, error) {
	if err != nil {
		return DefaultPollingInterval, nil // default
	}
	var mins int
	fmt.Sscanf(val, "%d", &mins)
	if mins < 15 {
		mins = 15
	}
	return mins, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// likePattern matches query as a literal substring. Callers pair it with
// ESCAPE '\'.
func likePattern(query string) string {
	return "%" + likeEscaper.Replace(query) + "%"
}
