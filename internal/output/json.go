package output

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/bryan-buckman/bookserver/internal/catalog"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// JSONRenderer renders a catalog as a single JSON object whose entries
// mirror the recognized entry fields.
type JSONRenderer struct{}

// JSONFeed is the rendered object.
type JSONFeed struct {
	Title      string          `json:"title"`
	ID         string          `json:"id"`
	Updated    string          `json:"updated"`
	URL        string          `json:"url"`
	Author     JSONAuthor      `json:"author"`
	OpenSearch string          `json:"opensearch,omitempty"`
	Navigation *JSONNavigation `json:"navigation,omitempty"`
	Entries    []JSONEntry     `json:"entries"`
}

type JSONAuthor struct {
	Name string `json:"name"`
	URI  string `json:"uri"`
}

type JSONNavigation struct {
	Next string `json:"next,omitempty"`
	Prev string `json:"prev,omitempty"`
}

// JSONEntry uses pointers so that a present empty string is kept apart
// from an absent field.
type JSONEntry struct {
	URN       string   `json:"urn"`
	URL       *string  `json:"url,omitempty"`
	Title     *string  `json:"title,omitempty"`
	Updated   *string  `json:"updated,omitempty"`
	Date      *string  `json:"date,omitempty"`
	Subject   []string `json:"subject,omitempty"`
	Publisher []string `json:"publisher,omitempty"`
	Language  []string `json:"language,omitempty"`
	Content   *string  `json:"content,omitempty"`
}

// JSONDocument is the Document produced by JSONRenderer.
type JSONDocument struct {
	feed *JSONFeed
	data []byte
}

// Feed returns the object that was serialized.
func (d *JSONDocument) Feed() *JSONFeed     { return d.feed }
func (d *JSONDocument) ContentType() string { return "application/json; charset=utf-8" }
func (d *JSONDocument) Bytes() []byte       { return append([]byte(nil), d.data...) }
func (d *JSONDocument) String() string      { return string(d.data) }

func (JSONRenderer) Render(c *catalog.Catalog) (Document, error) {
	if err := Validate(c); err != nil {
		return nil, err
	}

	feed := &JSONFeed{
		Title:   c.Title(),
		ID:      c.ID(),
		Updated: c.Updated(),
		URL:     c.URL(),
		Author:  JSONAuthor{Name: c.Author(), URI: c.AuthorURI()},
		Entries: []JSONEntry{},
	}
	if o := c.OpenSearch(); o != nil {
		feed.OpenSearch = o.DescriptionURL()
	}
	if n := c.Navigation(); n != nil {
		nav := &JSONNavigation{}
		nav.Next, _ = n.NextLink()
		nav.Prev, _ = n.PrevLink()
		if nav.Next != "" || nav.Prev != "" {
			feed.Navigation = nav
		}
	}
	for _, e := range c.Entries() {
		feed.Entries = append(feed.Entries, jsonEntry(e))
	}

	data, err := json.MarshalIndent(feed, "", "  ")
	if err != nil {
		return nil, err
	}
	return &JSONDocument{feed: feed, data: append(data, '\n')}, nil
}

func jsonEntry(e *catalog.Entry) JSONEntry {
	optional := func(f catalog.Field) *string {
		v := e.Value(f)
		if !v.IsSet() {
			return nil
		}
		s := v.String()
		return &s
	}
	return JSONEntry{
		URN:       e.URN(),
		URL:       optional(catalog.FieldURL),
		Title:     optional(catalog.FieldTitle),
		Updated:   optional(catalog.FieldUpdated),
		Date:      optional(catalog.FieldDate),
		Subject:   e.Subjects(),
		Publisher: e.Publishers(),
		Language:  e.Languages(),
		Content:   optional(catalog.FieldContent),
	}
}
