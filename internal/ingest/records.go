// Package ingest produces catalog records from external indexes: harvested
// Atom/RSS/OPDS feeds and Solr search responses.
package ingest

import (
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"

	"github.com/bryan-buckman/bookserver/internal/catalog"
)

// FeedRecords maps the items of a parsed feed to catalog records. feedURL
// seeds the urn of items that carry neither a GUID nor a link.
func FeedRecords(feed *gofeed.Feed, feedURL string) []catalog.Record {
	records := make([]catalog.Record, 0, len(feed.Items))
	for _, item := range feed.Items {
		records = append(records, itemRecord(feed, item, feedURL))
	}
	return records
}

func itemRecord(feed *gofeed.Feed, item *gofeed.Item, feedURL string) catalog.Record {
	r := catalog.Record{
		"urn":   itemURN(item, feedURL),
		"title": item.Title,
	}
	if item.Link != "" {
		r["url"] = item.Link
	}
	if updated := itemUpdated(item); updated != "" {
		r["updated"] = updated
	}

	dc := item.DublinCoreExt
	if dc == nil {
		dc = &ext.DublinCoreExtension{}
	}
	if date := first(extValues(item.Extensions, "dcterms", "issued"), dc.Date); date != "" {
		r["date"] = date
	} else if item.PublishedParsed != nil {
		r["date"] = item.PublishedParsed.UTC().Format("2006-01-02")
	}

	if subjects := merge(item.Categories, dc.Subject); len(subjects) > 0 {
		r["subject"] = subjects
	}
	if publishers := merge(dc.Publisher, extValues(item.Extensions, "dcterms", "publisher")); len(publishers) > 0 {
		r["publisher"] = publishers
	}
	languages := merge(dc.Language, extValues(item.Extensions, "dcterms", "language"))
	if len(languages) == 0 && feed.Language != "" {
		languages = []string{feed.Language}
	}
	if len(languages) > 0 {
		r["language"] = languages
	}

	if item.Content != "" {
		r["content"] = item.Content
	} else if item.Description != "" {
		r["content"] = item.Description
	}
	return r
}

func itemURN(item *gofeed.Item, feedURL string) string {
	switch {
	case item.GUID != "":
		return item.GUID
	case item.Link != "":
		return item.Link
	}
	return "urn:uuid:" + uuid.NewSHA1(uuid.NameSpaceURL, []byte(feedURL+"#"+item.Title)).String()
}

func itemUpdated(item *gofeed.Item) string {
	switch {
	case item.UpdatedParsed != nil:
		return item.UpdatedParsed.UTC().Format(time.RFC3339)
	case item.PublishedParsed != nil:
		return item.PublishedParsed.UTC().Format(time.RFC3339)
	case item.Updated != "":
		return item.Updated
	}
	return item.Published
}

func extValues(exts ext.Extensions, prefix, name string) []string {
	var out []string
	for _, e := range exts[prefix][name] {
		if e.Value != "" {
			out = append(out, e.Value)
		}
	}
	return out
}

func first(lists ...[]string) string {
	for _, l := range lists {
		if len(l) > 0 {
			return l[0]
		}
	}
	return ""
}

// merge concatenates lists, dropping empty strings and repeats.
func merge(lists ...[]string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, l := range lists {
		for _, s := range l {
			if s == "" || seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
