package ingest

import (
	"fmt"

	"github.com/bryan-buckman/bookserver/internal/catalog"
	"github.com/bryan-buckman/bookserver/internal/database"
	"github.com/bryan-buckman/bookserver/internal/model"
)

// Page selects one window of the item index.
type Page struct {
	Title string
	Query string
	Start int
	Rows  int
	// NavBase is followed by an offset to form navigation links.
	NavBase string
	// OpenSearchURL is attached to the catalog when set.
	OpenSearchURL string
}

// IndexCatalog builds a catalog page from the item index. The feed-level
// timestamp is that of the newest item on the page.
func IndexCatalog(db database.Store, pub model.PubInfo, p Page) (*catalog.Catalog, error) {
	items, total, err := db.SearchItems(p.Query, p.Start, p.Rows)
	if err != nil {
		return nil, fmt.Errorf("search items: %w", err)
	}

	records := make([]catalog.Record, 0, len(items))
	updated := ""
	for _, it := range items {
		records = append(records, it.Record())
		if it.Updated > updated {
			updated = it.Updated
		}
	}

	c, err := catalog.FromRecords(catalog.Options{
		Title:     p.Title,
		URN:       pub.URNRoot,
		URL:       pub.OPDSRoot,
		Author:    pub.Name,
		AuthorURI: pub.URI,
		Updated:   updated,
	}, records)
	if err != nil {
		return nil, err
	}

	nav, err := catalog.NewNavigation(p.Start, p.Rows, total, p.NavBase)
	if err != nil {
		return nil, err
	}
	c.AddNavigation(nav)

	if p.OpenSearchURL != "" {
		o, err := catalog.NewOpenSearch(p.OpenSearchURL)
		if err != nil {
			return nil, err
		}
		c.AddOpenSearch(o)
	}
	return c, nil
}
