// Package output renders a catalog.Catalog into Atom/OPDS, HTML and JSON
// documents.
package output

import (
	"fmt"

	"github.com/bryan-buckman/bookserver/internal/catalog"
)

// Renderer turns a catalog into a serialized document. Renderers only read
// the catalog and build a private document per call.
type Renderer interface {
	Render(c *catalog.Catalog) (Document, error)
}

// Document is the result of a render.
type Document interface {
	ContentType() string
	Bytes() []byte
	String() string
}

// Tree is a Document backed by an element tree.
type Tree struct {
	root        *Node
	mode        Mode
	contentType string
}

// Root returns the in-memory tree for callers that embed or transform it.
func (t *Tree) Root() *Node         { return t.root }
func (t *Tree) ContentType() string { return t.contentType }
func (t *Tree) Bytes() []byte       { return PrettyPrint(t.root, t.mode) }
func (t *Tree) String() string      { return string(t.Bytes()) }

// Format names accepted by ForFormat.
const (
	FormatAtom = "atom"
	FormatHTML = "html"
	FormatJSON = "json"
)

// ForFormat returns the renderer for a format name.
func ForFormat(name string) (Renderer, error) {
	switch name {
	case FormatAtom, "":
		return AtomRenderer{}, nil
	case FormatHTML:
		return &HTMLRenderer{}, nil
	case FormatJSON:
		return JSONRenderer{}, nil
	}
	return nil, fmt.Errorf("unknown output format %q", name)
}

// Validate checks that a catalog carries the identity every format needs.
func Validate(c *catalog.Catalog) error {
	switch {
	case c == nil:
		return fmt.Errorf("%w: nil catalog", catalog.ErrUnrenderableCatalog)
	case c.Title() == "":
		return fmt.Errorf("%w: missing title", catalog.ErrUnrenderableCatalog)
	case c.URN() == "":
		return fmt.Errorf("%w: missing urn", catalog.ErrUnrenderableCatalog)
	}
	return nil
}
