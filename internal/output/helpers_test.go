package output

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bryan-buckman/bookserver/internal/catalog"
)

func newCatalog(t *testing.T, records ...catalog.Record) *catalog.Catalog {
	t.Helper()
	c, err := catalog.FromRecords(catalog.Options{
		Title:     "Internet Archive OPDS",
		URN:       "urn:x-internet-archive:bookserver:catalog",
		URL:       "http://bookserver.archive.org/catalog",
		Author:    "Internet Archive",
		AuthorURI: "http://www.archive.org",
	}, records)
	require.NoError(t, err)
	return c
}

var testItem = catalog.Record{
	"urn":     "x-internet-archive:item:itemid",
	"url":     "http://archive.org/details/itemid",
	"title":   "test item",
	"updated": "2009-01-01T00:00:00Z",
}

var fullItem = catalog.Record{
	"urn":       "x-internet-archive:item:full",
	"url":       "http://archive.org/details/full",
	"title":     "full item",
	"updated":   "2009-02-01T00:00:00Z",
	"date":      "1923-05-01",
	"subject":   []string{"History", "Maps & Charts"},
	"publisher": "Dover",
	"language":  []string{"eng", "fre"},
	"content":   "A <b>bold</b> claim",
}

func names(nodes []*Node) []string {
	var out []string
	for _, n := range nodes {
		out = append(out, n.Name)
	}
	return out
}
