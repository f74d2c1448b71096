package output

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/bryan-buckman/bookserver/internal/catalog"
)

// DefaultStylesheet is linked from every HTML page.
const DefaultStylesheet = "/static/catalog.css"

// HTMLRenderer renders a catalog as a browsable page. The page is laid out
// top to bottom as: page header, navigation, search, catalog header, entry
// list, page footer.
type HTMLRenderer struct {
	// Fields sets the order of the labeled lines of each entry. Nil means
	// catalog.Fields().
	Fields []catalog.Field
	// Stylesheet defaults to DefaultStylesheet.
	Stylesheet string
}

func (r *HTMLRenderer) Render(c *catalog.Catalog) (Document, error) {
	tree, err := r.Page(c)
	if err != nil {
		return nil, err
	}
	return tree, nil
}

// Page builds the page tree.
func (r *HTMLRenderer) Page(c *catalog.Catalog) (*Tree, error) {
	if err := Validate(c); err != nil {
		return nil, err
	}

	html := NewNode("html")
	html.Append(r.head(c))
	body := html.Element("body")
	body.Append(pageHeader(c))
	body.Append(navigation(c.Navigation()))
	body.Append(search(c.OpenSearch()))
	body.Append(catalogHeader(c))
	body.Append(r.entryList(c.Entries()))
	body.Append(pageFooter(c))

	return &Tree{root: html, mode: HTML, contentType: "text/html; charset=utf-8"}, nil
}

func (r *HTMLRenderer) head(c *catalog.Catalog) *Node {
	stylesheet := r.Stylesheet
	if stylesheet == "" {
		stylesheet = DefaultStylesheet
	}
	head := NewNode("head")
	head.Element("meta", "charset", "utf-8")
	head.TextElement("title", c.Title())
	head.Element("link", "rel", "stylesheet", "type", "text/css", "href", stylesheet)
	head.Element("link", "rel", "alternate", "type", AtomType, "href", c.URL()+"/")
	return head
}

func pageHeader(c *catalog.Catalog) *Node {
	div := NewNode("div", "class", "opds-header")
	if c.Author() != "" {
		a := div.TextElement("a", c.Author(), "class", "opds-header-author")
		if c.AuthorURI() != "" {
			a.SetAttr("href", c.AuthorURI())
		}
	}
	div.TextElement("a", "OPDS feed", "class", "opds-header-feed", "href", c.URL()+"/")
	return div
}

func navigation(n *catalog.Navigation) *Node {
	div := NewNode("div", "class", "opds-navigation")
	if n == nil {
		return div
	}
	if n.Indexed() {
		div.TextElement("span", summary(n), "class", "opds-navigation-summary")
	}
	if prev, ok := n.PrevLink(); ok {
		div.TextElement("a", "Previous results", "class", "opds-navigation-prev", "rel", "prev", "href", prev)
	}
	if next, ok := n.NextLink(); ok {
		div.TextElement("a", "Next results", "class", "opds-navigation-next", "rel", "next", "href", next)
	}
	return div
}

func summary(n *catalog.Navigation) string {
	if n.Total() == 0 || n.Start() >= n.Total() {
		return fmt.Sprintf("No results of %s", humanize.Comma(int64(n.Total())))
	}
	last := min(n.Start()+n.PageSize(), n.Total())
	return fmt.Sprintf("Showing %s-%s of %s",
		humanize.Comma(int64(n.Start()+1)),
		humanize.Comma(int64(last)),
		humanize.Comma(int64(n.Total())))
}

func search(o *catalog.OpenSearch) *Node {
	div := NewNode("div", "class", "opds-search")
	if o != nil {
		div.TextElement("a", "Search this catalog",
			"class", "opds-search-description",
			"rel", "search",
			"type", "application/opensearchdescription+xml",
			"href", o.DescriptionURL())
	}
	return div
}

func catalogHeader(c *catalog.Catalog) *Node {
	div := NewNode("div", "class", "opds-catalog-header")
	div.TextElement("h1", c.Title(), "class", "opds-catalog-header-title")
	return div
}

func (r *HTMLRenderer) entryList(entries []*catalog.Entry) *Node {
	fields := r.Fields
	if fields == nil {
		fields = catalog.Fields()
	}
	ul := NewNode("ul", "class", "opds-entry-list")
	for _, e := range entries {
		li := ul.Element("li", "class", "opds-entry-list-item")
		li.TextElement("h2", e.Title(), "class", "opds-entry-title")
		for _, f := range fields {
			v := e.Value(f)
			if !v.IsSet() {
				continue
			}
			line := li.Element("span", "class", "opds-entry")
			line.TextElement("em", string(f)+":", "class", "opds-entry-key")
			line.TextElement("span", v.String(), "class", "opds-entry-value opds-entry-"+string(f))
			line.Element("br")
		}
	}
	return ul
}

func pageFooter(c *catalog.Catalog) *Node {
	div := NewNode("div", "class", "opds-footer")
	if c.Updated() != "" {
		div.TextElement("span", "Updated "+c.Updated(), "class", "opds-footer-updated")
	}
	return div
}
