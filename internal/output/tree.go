package output

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

// Attr is a single attribute. Attributes keep the order they were set in.
type Attr struct {
	Name  string
	Value string
}

// Node is an element of a document tree. Names are written verbatim, so
// prefixed names such as "dcterms:issued" need no namespace bookkeeping
// beyond the xmlns attributes on the root.
type Node struct {
	Name     string
	Attrs    []Attr
	Text     string
	Children []*Node
}

// NewNode returns an element with the given attributes, passed as
// alternating name/value pairs.
func NewNode(name string, attrs ...string) *Node {
	n := &Node{Name: name}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.SetAttr(attrs[i], attrs[i+1])
	}
	return n
}

// SetAttr sets an attribute, replacing an existing one of the same name
// in place.
func (n *Node) SetAttr(name, value string) *Node {
	for i := range n.Attrs {
		if n.Attrs[i].Name == name {
			n.Attrs[i].Value = value
			return n
		}
	}
	n.Attrs = append(n.Attrs, Attr{Name: name, Value: value})
	return n
}

// Attr returns the value of the named attribute.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Append adds child as the last child of n and returns it.
func (n *Node) Append(child *Node) *Node {
	n.Children = append(n.Children, child)
	return child
}

// Element creates a new child element and returns it.
func (n *Node) Element(name string, attrs ...string) *Node {
	return n.Append(NewNode(name, attrs...))
}

// TextElement creates a new child element holding text and returns it.
func (n *Node) TextElement(name, text string, attrs ...string) *Node {
	child := n.Element(name, attrs...)
	child.Text = text
	return child
}

// Find returns the direct children with the given name.
func (n *Node) Find(name string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Mode selects the serialization rules of PrettyPrint.
type Mode int

const (
	// XML writes an XML declaration and self-closes every empty element.
	XML Mode = iota
	// HTML writes a doctype and self-closes only void elements.
	HTML
)

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// PrettyPrint serializes a tree with two-space indentation. The output is
// a pure function of the tree, so equal trees always print identically.
func PrettyPrint(root *Node, mode Mode) []byte {
	var b bytes.Buffer
	switch mode {
	case XML:
		b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	case HTML:
		b.WriteString("<!DOCTYPE html>\n")
	}
	if root != nil {
		writeNode(&b, root, 0, mode)
	}
	return b.Bytes()
}

func writeNode(b *bytes.Buffer, n *Node, depth int, mode Mode) {
	indent := strings.Repeat("  ", depth)
	b.WriteString(indent)
	b.WriteByte('<')
	b.WriteString(n.Name)
	for _, a := range n.Attrs {
		b.WriteByte(' ')
		b.WriteString(a.Name)
		b.WriteString(`="`)
		b.WriteString(escape(a.Value, attrEscaper))
		b.WriteByte('"')
	}

	if n.Text == "" && len(n.Children) == 0 {
		if mode == XML || voidElements[n.Name] {
			b.WriteString("/>\n")
			return
		}
		b.WriteString("></" + n.Name + ">\n")
		return
	}

	b.WriteByte('>')
	if len(n.Children) == 0 {
		b.WriteString(escape(n.Text, textEscaper))
		b.WriteString("</" + n.Name + ">\n")
		return
	}

	b.WriteByte('\n')
	if n.Text != "" {
		b.WriteString(indent + "  ")
		b.WriteString(escape(n.Text, textEscaper))
		b.WriteByte('\n')
	}
	for _, c := range n.Children {
		writeNode(b, c, depth+1, mode)
	}
	b.WriteString(indent + "</" + n.Name + ">\n")
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer(
		"&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;",
		"\t", "&#x9;", "\n", "&#xA;", "\r", "&#xD;",
	)
)

// escape also replaces invalid UTF-8 and code points that are not allowed
// in XML documents.
func escape(s string, r *strings.Replacer) string {
	if !utf8.ValidString(s) || strings.IndexFunc(s, notXMLChar) >= 0 {
		s = strings.Map(func(c rune) rune {
			if notXMLChar(c) {
				return utf8.RuneError
			}
			return c
		}, s)
	}
	return r.Replace(s)
}

func notXMLChar(r rune) bool {
	switch {
	case r == 0x09 || r == 0x0A || r == 0x0D:
		return false
	case r >= 0x20 && r <= 0xD7FF:
		return false
	case r >= 0xE000 && r <= 0xFFFD:
		return false
	case r >= 0x10000 && r <= 0x10FFFF:
		return false
	}
	return true
}
