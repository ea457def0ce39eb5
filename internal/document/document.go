package document

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Document is a parsed HTML document. It is not safe for concurrent use.
type Document struct {
	root *html.Node
}

// Element is an element node inside a Document.
type Element struct {
	node *html.Node
}

// Parse reads an HTML document from r.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	return &Document{root: root}, nil
}

// ParseString is Parse for an in-memory document.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// ElementsWithAttr returns, in document order, every element named tag
// that carries attribute attr. Both names are compared in lower case,
// which is how the parser stores them.
func (d *Document) ElementsWithAttr(tag, attr string) []*Element {
	tag = strings.ToLower(tag)
	attr = strings.ToLower(attr)

	var found []*Element
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == tag {
			if _, ok := getAttr(n, attr); ok {
				found = append(found, &Element{node: n})
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(d.root)
	return found
}

// Render writes the document as HTML to w.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// String renders the document into a string.
func (d *Document) String() (string, error) {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Tag returns the element name.
func (e *Element) Tag() string {
	return e.node.Data
}

// Attr returns the value of attribute key and whether it is present.
func (e *Element) Attr(key string) (string, bool) {
	return getAttr(e.node, strings.ToLower(key))
}

// SetAttr sets attribute key to val, adding it if absent.
func (e *Element) SetAttr(key, val string) {
	key = strings.ToLower(key)
	for i := range e.node.Attr {
		if e.node.Attr[i].Namespace == "" && e.node.Attr[i].Key == key {
			e.node.Attr[i].Val = val
			return
		}
	}
	e.node.Attr = append(e.node.Attr, html.Attribute{Key: key, Val: val})
}

func getAttr(n *html.Node, key string) (string, bool) {
	for _, attr := range n.Attr {
		if attr.Namespace == "" && attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}
