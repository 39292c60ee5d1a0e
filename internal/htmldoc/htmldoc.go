package htmldoc

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Document is a parsed HTML page.
type Document struct {
	doc *goquery.Document
}

// Element is a single node inside a Document.
type Element struct {
	sel *goquery.Selection
}

// Parse parses an HTML page held in memory.
func Parse(data []byte) (*Document, error) {
	return ParseReader(bytes.NewReader(data))
}

// ParseString is Parse for string input.
func ParseString(data string) (*Document, error) {
	return ParseReader(strings.NewReader(data))
}

// ParseReader parses an HTML page from r.
func ParseReader(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML document: %w", err)
	}
	return &Document{doc: doc}, nil
}

// FindByID returns the first element whose id attribute equals id,
// or nil when there is none.
func (d *Document) FindByID(id string) *Element {
	if d == nil {
		return nil
	}
	match := d.doc.Find("[id]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		v, _ := s.Attr("id")
		return v == id
	}).First()
	if match.Length() == 0 {
		return nil
	}
	return &Element{sel: match}
}

// FindAll returns every element with the given tag whose attributes
// contain all of attrs. A nil attrs map matches on tag alone.
func (d *Document) FindAll(tag string, attrs map[string]string) []*Element {
	if d == nil {
		return nil
	}
	return collect(d.doc.Find(tag), attrs)
}

// HTML returns the serialized document.
func (d *Document) HTML() (string, error) {
	return d.doc.Html()
}

// Text returns the element's text content with surrounding whitespace removed.
func (e *Element) Text() string {
	return strings.TrimSpace(e.sel.Text())
}

// HasAttr reports whether the element carries the named attribute,
// regardless of its value.
func (e *Element) HasAttr(name string) bool {
	_, ok := e.sel.Attr(name)
	return ok
}

// Attr returns the named attribute value.
func (e *Element) Attr(name string) (string, bool) {
	return e.sel.Attr(name)
}

// FindAll searches the element's descendants. Same matching rules as
// Document.FindAll.
func (e *Element) FindAll(tag string, attrs map[string]string) []*Element {
	return collect(e.sel.Find(tag), attrs)
}

// Options returns the <option> children of a select element in document order.
func (e *Element) Options() []*Element {
	return e.FindAll("option", nil)
}

// OptionTexts returns the trimmed text of every option.
func (e *Element) OptionTexts() []string {
	opts := e.Options()
	texts := make([]string, len(opts))
	for i, opt := range opts {
		texts[i] = opt.Text()
	}
	return texts
}

// SelectedIndex returns the position of the first option flagged with a
// selected attribute, or -1 when nothing is selected.
func (e *Element) SelectedIndex() int {
	for i, opt := range e.Options() {
		if opt.HasAttr("selected") {
			return i
		}
	}
	return -1
}

func collect(sel *goquery.Selection, attrs map[string]string) []*Element {
	var out []*Element
	sel.Each(func(_ int, s *goquery.Selection) {
		for name, want := range attrs {
			got, ok := s.Attr(name)
			if !ok || got != want {
				return
			}
		}
		out = append(out, &Element{sel: s})
	})
	return out
}
