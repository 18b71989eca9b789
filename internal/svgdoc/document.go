// Package svgdoc parses SVG documents, computes output geometry and seeks
// embedded animations (SMIL and CSS keyframes) to a point in time.
package svgdoc

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

const (
	svgNS   = "http://www.w3.org/2000/svg"
	xlinkNS = "http://www.w3.org/1999/xlink"
)

// InvalidDocumentError is returned when a document can't be parsed or has no
// root svg element
type InvalidDocumentError struct {
	Reason string
	Err    error
}

func (e *InvalidDocumentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid document: %s: %s", e.Reason, e.Err)
	}
	return "invalid document: " + e.Reason
}

func (e *InvalidDocumentError) Unwrap() error { return e.Err }

// Document is a parsed SVG document, treat as immutable, seeking works on a Clone
type Document struct {
	doc *etree.Document
}

var writeSettings = etree.WriteSettings{
	CanonicalText:    true,
	CanonicalAttrVal: true,
}

// Parse parses src and finds the first svg element
func Parse(src string) (*Document, error) {
	d := etree.NewDocument()
	d.ReadSettings = etree.ReadSettings{
		Entity:        xml.HTMLEntity,
		PreserveCData: true,
	}
	if err := d.ReadFromString(src); err != nil {
		return nil, &InvalidDocumentError{Reason: "failed to parse", Err: err}
	}

	found := d.FindElement("//svg")
	if found == nil {
		return nil, &InvalidDocumentError{Reason: "no root svg element"}
	}

	// detach so a nested svg (e.g. inside html) serializes on its own
	root := found.Copy()
	if _, ok := attr(root, "xmlns"); !ok {
		root.CreateAttr("xmlns", svgNS)
	}
	if _, ok := attr(root, "xmlns:xlink"); !ok && usesPrefix(root, "xlink") {
		root.CreateAttr("xmlns:xlink", xlinkNS)
	}

	out := etree.NewDocumentWithRoot(root)
	out.WriteSettings = writeSettings
	return &Document{doc: out}, nil
}

// Root returns the svg element
func (d *Document) Root() *etree.Element { return d.doc.Root() }

// Clone returns a deep copy that can be modified
func (d *Document) Clone() *Document { return &Document{doc: d.doc.Copy()} }

// Bytes serializes the document
func (d *Document) Bytes() []byte {
	// only fails if writing to a bytes.Buffer fails
	b, _ := d.doc.WriteToBytes()
	return b
}

func (d *Document) String() string { return string(d.Bytes()) }

func usesPrefix(root *etree.Element, prefix string) bool {
	for _, e := range elements(root) {
		if e.Space == prefix {
			return true
		}
		for _, a := range e.Attr {
			if a.Space == prefix {
				return true
			}
		}
	}
	return false
}

// elements returns e and all descendant elements in document order,
// etree paths like //* are breadth first
func elements(e *etree.Element) []*etree.Element {
	es := []*etree.Element{e}
	for _, c := range e.ChildElements() {
		es = append(es, elements(c)...)
	}
	return es
}

// attr returns attribute value by exact qualified name, ex "xlink:href".
// etree SelectAttr lets an unprefixed key match any prefix.
func attr(e *etree.Element, name string) (string, bool) {
	for _, a := range e.Attr {
		if a.FullKey() == name {
			return a.Value, true
		}
	}
	return "", false
}

func attrOr(e *etree.Element, name, def string) string {
	if v, ok := attr(e, name); ok {
		return v
	}
	return def
}

func elementID(e *etree.Element) string { return attrOr(e, "id", "") }

// href returns href or xlink:href
func href(e *etree.Element) (string, bool) {
	if v, ok := attr(e, "href"); ok {
		return v, true
	}
	return attr(e, "xlink:href")
}

// textContent returns all descendant text
func textContent(e *etree.Element) string {
	var sb strings.Builder
	for _, t := range e.Child {
		switch t := t.(type) {
		case *etree.CharData:
			sb.WriteString(t.Data)
		case *etree.Element:
			sb.WriteString(textContent(t))
		}
	}
	return sb.String()
}

// parentElement is nil for the root, its parent is the document
func parentElement(e *etree.Element) *etree.Element {
	p := e.Parent()
	if p == nil || p.Tag == "" {
		return nil
	}
	return p
}

func removeElement(e *etree.Element) {
	if p := e.Parent(); p != nil {
		p.RemoveChild(e)
	}
}
