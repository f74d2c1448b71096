package catalog

import "fmt"

// Options carries the identity and feed-level metadata of a Catalog.
type Options struct {
	Title string
	// URN is the identity root; NSS is appended to it to form the feed id.
	URN string
	NSS string
	// URL is the catalog base URL, without a trailing slash.
	URL       string
	Author    string
	AuthorURI string
	// Updated is emitted as-is; it is not parsed or reformatted.
	Updated string
}

// Catalog is the aggregate a renderer consumes. Entries keep insertion
// order and duplicate urns are kept as given.
//
// A Catalog is not safe for concurrent mutation. Once populated it may be
// rendered from several goroutines since renderers only read it.
type Catalog struct {
	opts       Options
	entries    []*Entry
	navigation *Navigation
	opensearch *OpenSearch
}

// New returns an empty Catalog.
func New(opts Options) *Catalog {
	return &Catalog{opts: opts}
}

// FromRecords builds a Catalog and populates it from producer records. It
// stops at the first invalid record and returns no catalog in that case.
func FromRecords(opts Options, records []Record) (*Catalog, error) {
	c := New(opts)
	for i, r := range records {
		e, err := NewEntry(r)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		c.AddEntry(e)
	}
	return c, nil
}

// AddEntry appends e. Entries are not deduplicated by urn.
func (c *Catalog) AddEntry(e *Entry) {
	c.entries = append(c.entries, e)
}

// AddNavigation attaches n, replacing any previous navigation.
func (c *Catalog) AddNavigation(n *Navigation) {
	c.navigation = n
}

// AddOpenSearch attaches o, replacing any previous reference.
func (c *Catalog) AddOpenSearch(o *OpenSearch) {
	c.opensearch = o
}

func (c *Catalog) Title() string     { return c.opts.Title }
func (c *Catalog) URN() string       { return c.opts.URN }
func (c *Catalog) URL() string       { return c.opts.URL }
func (c *Catalog) Author() string    { return c.opts.Author }
func (c *Catalog) AuthorURI() string { return c.opts.AuthorURI }
func (c *Catalog) Updated() string   { return c.opts.Updated }

// ID is the feed identity: the urn root followed by its suffix.
func (c *Catalog) ID() string { return c.opts.URN + c.opts.NSS }

// Entries returns the entries in insertion order. The slice is a copy.
func (c *Catalog) Entries() []*Entry {
	return append([]*Entry(nil), c.entries...)
}

// Navigation returns the attached navigation, or nil.
func (c *Catalog) Navigation() *Navigation { return c.navigation }

// OpenSearch returns the attached search reference, or nil.
func (c *Catalog) OpenSearch() *OpenSearch { return c.opensearch }
