// Package opensearch reads and writes OpenSearch 1.1 description documents.
package opensearch

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Namespace is the OpenSearch 1.1 XML namespace.
const Namespace = "http://a9.com/-/spec/opensearch/1.1/"

// ContentType is the media type of a description document.
const ContentType = "application/opensearchdescription+xml"

// Description is the root of a description document.
type Description struct {
	XMLName        xml.Name `xml:"OpenSearchDescription"`
	Xmlns          string   `xml:"xmlns,attr"`
	ShortName      string   `xml:"ShortName"`
	Description    string   `xml:"Description"`
	Tags           string   `xml:"Tags,omitempty"`
	Contact        string   `xml:"Contact,omitempty"`
	URLs           []URL    `xml:"Url"`
	InputEncoding  string   `xml:"InputEncoding,omitempty"`
	OutputEncoding string   `xml:"OutputEncoding,omitempty"`
}

// URL is a search endpoint template.
type URL struct {
	Type     string `xml:"type,attr"`
	Template string `xml:"template,attr"`
	Rel      string `xml:"rel,attr,omitempty"`
}

// New returns a description with one template per media type. Templates
// use the standard {searchTerms} and {startIndex?} parameters.
func New(shortName, description string, templates map[string]string) *Description {
	d := &Description{
		Xmlns:          Namespace,
		ShortName:      shortName,
		Description:    description,
		InputEncoding:  "UTF-8",
		OutputEncoding: "UTF-8",
	}
	// Fixed order keeps the document stable.
	for _, typ := range []string{"application/atom+xml", "text/html", "application/json"} {
		if tmpl, ok := templates[typ]; ok {
			d.URLs = append(d.URLs, URL{Type: typ, Template: tmpl})
		}
	}
	return d
}

// Template returns the template registered for a media type. Parameters
// on the type, such as ";profile=opds", are ignored when matching.
func (d *Description) Template(typ string) (string, bool) {
	for _, u := range d.URLs {
		base, _, _ := strings.Cut(u.Type, ";")
		if strings.TrimSpace(base) == typ {
			return u.Template, true
		}
	}
	return "", false
}

// Parse reads a description document.
func Parse(r io.Reader) (*Description, error) {
	var doc Description
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode opensearch description: %w", err)
	}
	if doc.XMLName.Space != "" && doc.XMLName.Space != Namespace {
		return nil, fmt.Errorf("unexpected namespace %q", doc.XMLName.Space)
	}
	return &doc, nil
}

// Marshal encodes the document with an XML header.
func (d *Description) Marshal() ([]byte, error) {
	output, err := xml.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), append(output, '\n')...), nil
}
