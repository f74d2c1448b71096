package output

import "github.com/bryan-buckman/bookserver/internal/catalog"

// XML namespaces declared on every OPDS feed.
const (
	NamespaceAtom    = "http://www.w3.org/2005/Atom"
	NamespaceDC      = "http://purl.org/dc/elements/1.1/"
	NamespaceDCTerms = "http://purl.org/dc/terms/"
)

const (
	// AtomType is the type attribute of catalog links.
	AtomType = "application/atom+xml"
	// OPDSContentType is the media type of a rendered feed.
	OPDSContentType = "application/atom+xml;profile=opds"
)

// AtomRenderer renders an OPDS acquisition feed.
type AtomRenderer struct{}

func (r AtomRenderer) Render(c *catalog.Catalog) (Document, error) {
	tree, err := r.Feed(c)
	if err != nil {
		return nil, err
	}
	return tree, nil
}

// Feed builds the feed tree.
func (AtomRenderer) Feed(c *catalog.Catalog) (*Tree, error) {
	if err := Validate(c); err != nil {
		return nil, err
	}

	// dc and dcterms are declared even when no entry uses them.
	feed := NewNode("feed",
		"xmlns", NamespaceAtom,
		"xmlns:dc", NamespaceDC,
		"xmlns:dcterms", NamespaceDCTerms,
	)
	feed.TextElement("title", c.Title())
	feed.TextElement("id", c.ID())
	feed.TextElement("updated", c.Updated())
	relLink(feed, "self", c.URL()+"/", "")

	author := feed.Element("author")
	author.TextElement("name", c.Author())
	author.TextElement("uri", c.AuthorURI())

	if o := c.OpenSearch(); o != nil {
		relLink(feed, "search", o.DescriptionURL(), "")
	}
	if n := c.Navigation(); n != nil {
		if next, ok := n.NextLink(); ok {
			relLink(feed, "next", next, "Next results")
		}
		if prev, ok := n.PrevLink(); ok {
			relLink(feed, "previous", prev, "Previous results")
		}
	}

	for _, e := range c.Entries() {
		atomEntry(feed, e)
	}
	return &Tree{root: feed, mode: XML, contentType: OPDSContentType}, nil
}

func relLink(parent *Node, rel, href, title string) {
	link := parent.Element("link", "rel", rel, "type", AtomType, "href", href)
	if title != "" {
		link.SetAttr("title", title)
	}
}

// The order of the optional blocks below is part of the feed format.
func atomEntry(feed *Node, e *catalog.Entry) {
	entry := feed.Element("entry")
	entry.TextElement("title", e.Title())
	entry.TextElement("id", e.URN())
	entry.TextElement("updated", e.Updated())
	if e.Value(catalog.FieldURL).IsSet() {
		entry.Element("link", "type", AtomType, "href", e.URL())
	}

	if date, ok := e.Date(); ok {
		entry.TextElement("dcterms:issued", year(date))
	}
	for _, subject := range e.Subjects() {
		entry.Element("category", "term", subject)
	}
	for _, publisher := range e.Publishers() {
		entry.TextElement("dcterms:publisher", publisher)
	}
	for _, language := range e.Languages() {
		entry.TextElement("dcterms:language", language)
	}
	if content, ok := e.Content(); ok {
		entry.TextElement("content", content)
	}
}

// year keeps the first four characters, not bytes.
func year(date string) string {
	if r := []rune(date); len(r) > 4 {
		return string(r[:4])
	}
	return date
}
