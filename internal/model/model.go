// Package model defines shared data structures.
package model

import (
	"time"

	"github.com/bryan-buckman/bookserver/internal/catalog"
)

// Source is an upstream Atom/RSS/OPDS feed harvested into the index.
type Source struct {
	ID          int64
	Title       string
	URL         string
	LastFetched time.Time
	LastError   string
}

// Item is an indexed catalog record. Nil pointers and empty lists mean the
// field was not supplied by the source.
type Item struct {
	ID         int64
	SourceID   *int64 // nullable for items ingested outside a source
	URN        string
	URL        *string
	Title      string // "" when the source had none
	Updated    string // "" when the source had none
	Date       *string
	Subjects   []string
	Publishers []string
	Languages  []string
	Content    *string
	FetchedAt  time.Time
}

// Record converts the item into the record shape catalog.NewEntry takes.
func (it Item) Record() catalog.Record {
	r := catalog.Record{"urn": it.URN}
	if it.Title != "" {
		r["title"] = it.Title
	}
	if it.Updated != "" {
		r["updated"] = it.Updated
	}
	if it.URL != nil {
		r["url"] = *it.URL
	}
	if it.Date != nil {
		r["date"] = *it.Date
	}
	if len(it.Subjects) > 0 {
		r["subject"] = it.Subjects
	}
	if len(it.Publishers) > 0 {
		r["publisher"] = it.Publishers
	}
	if len(it.Languages) > 0 {
		r["language"] = it.Languages
	}
	if it.Content != nil {
		r["content"] = *it.Content
	}
	return r
}

// ItemFromRecord is the inverse of Item.Record for records produced by an
// ingest step. Entry validation is applied first.
func ItemFromRecord(r catalog.Record) (*Item, error) {
	e, err := catalog.NewEntry(r)
	if err != nil {
		return nil, err
	}
	it := &Item{
		URN:        e.URN(),
		Title:      e.Title(),
		Updated:    e.Updated(),
		Subjects:   e.Subjects(),
		Publishers: e.Publishers(),
		Languages:  e.Languages(),
	}
	if v := e.Value(catalog.FieldURL); v.IsSet() {
		s := v.String()
		it.URL = &s
	}
	if date, ok := e.Date(); ok {
		it.Date = &date
	}
	if content, ok := e.Content(); ok {
		it.Content = &content
	}
	return it, nil
}

// PubInfo identifies the publisher of a catalog.
type PubInfo struct {
	Name     string
	URI      string
	OPDSRoot string // absolute catalog URL, no trailing slash
	URNRoot  string
	MimeType string
}

// Settings key constants.
const (
	SettingPollingInterval = "polling_interval_minutes"
)
