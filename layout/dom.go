package layout

import (
	"strings"

	"golang.org/x/net/html"
)

const (
	documentTag = "#document"
	textTag     = "#text"
)

// voidElements never have children.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// hiddenElements produce no boxes.
var hiddenElements = map[string]bool{
	"head": true, "title": true, "script": true, "style": true, "meta": true,
	"link": true, "template": true, "base": true, "noscript": true,
}

type attr struct {
	key, val string
}

// element is a node of the parsed document. Text nodes have tag textTag.
type element struct {
	tag      string
	attrs    []attr
	text     string
	parent   *element
	children []*element

	styles *Styles // resolved once, during layout
}

func (e *element) isText() bool { return e.tag == textTag }

func (e *element) attr(key string) (string, bool) {
	for _, a := range e.attrs {
		if a.key == key {
			return a.val, true
		}
	}
	return "", false
}

func (e *element) hasClass(class string) bool {
	v, _ := e.attr("class")
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

func (e *element) appendChild(c *element) {
	c.parent = e
	e.children = append(e.children, c)
}

// elementSiblings returns the element (non-text) children of e's parent and
// e's index among them.
func (e *element) elementSiblings() ([]*element, int) {
	if e.parent == nil {
		return nil, -1
	}
	var sibs []*element
	idx := -1
	for _, c := range e.parent.children {
		if c.isText() {
			continue
		}
		if c == e {
			idx = len(sibs)
		}
		sibs = append(sibs, c)
	}
	return sibs, idx
}

// parseHTML builds a document tree. Parsing never fails: a closing tag
// with no matching open element is dropped, and one that matches an
// element further up the stack closes everything above it. The text of
// <style> elements is returned separately in document order.
func parseHTML(src string) (*element, []string) {
	doc := &element{tag: documentTag}
	stack := []*element{doc}
	var sheets []string

	z := html.NewTokenizer(strings.NewReader(src))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			// io.EOF or a tokenizer error; the tree built so far stands.
			return doc, sheets

		case html.TextToken:
			top := stack[len(stack)-1]
			text := string(z.Text())
			if top.tag == "style" {
				sheets = append(sheets, text)
			}
			top.appendChild(&element{tag: textTag, text: text})

		case html.StartTagToken, html.SelfClosingTagToken:
			name, more := z.TagName()
			el := &element{tag: strings.ToLower(string(name))}
			for more {
				var k, v []byte
				k, v, more = z.TagAttr()
				el.attrs = append(el.attrs, attr{key: strings.ToLower(string(k)), val: string(v)})
			}
			stack[len(stack)-1].appendChild(el)
			if tt == html.StartTagToken && !voidElements[el.tag] {
				stack = append(stack, el)
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			tag := strings.ToLower(string(name))
			for i := len(stack) - 1; i > 0; i-- {
				if stack[i].tag == tag {
					stack = stack[:i]
					break
				}
			}
		}
		// Comments and doctypes are dropped.
	}
}
