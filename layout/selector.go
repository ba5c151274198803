package layout

import "strings"

// Combinators between compound selectors.
const (
	combDescendant = ' '
	combChild      = '>'
	combAdjacent   = '+'
	combSibling    = '~'
)

type attrMatch struct {
	name  string
	op    string // "", "=", "~=", "^=", "$=", "*=", "|="
	value string
}

type compound struct {
	tag     string // "" or "*" matches any element
	id      string
	classes []string
	attrs   []attrMatch
	pseudo  []string
}

// Selector is a complex selector: compounds joined by combinators,
// matched right to left.
type Selector struct {
	parts       []compound
	combinators []byte // combinators[i] joins parts[i] and parts[i+1]
}

func parseSelectorList(s string) ([]Selector, bool) {
	var sels []Selector
	for _, part := range splitOutside(s, ',') {
		sel, ok := parseSelector(strings.TrimSpace(part))
		if !ok {
			return nil, false
		}
		sels = append(sels, sel)
	}
	return sels, len(sels) > 0
}

func parseSelector(s string) (Selector, bool) {
	var sel Selector
	var cur compound
	empty := true
	pending := byte(0)

	flush := func() bool {
		if empty {
			return false
		}
		if len(sel.parts) > 0 {
			if pending == 0 {
				pending = combDescendant
			}
			sel.combinators = append(sel.combinators, pending)
		}
		sel.parts = append(sel.parts, cur)
		cur, empty, pending = compound{}, true, 0
		return true
	}

	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f':
			if !empty && !flush() {
				return Selector{}, false
			}
			i++
		case c == '>' || c == '+' || c == '~':
			if !empty && !flush() {
				return Selector{}, false
			}
			if len(sel.parts) == 0 || pending != 0 {
				return Selector{}, false
			}
			pending = c
			i++
		case c == '*':
			cur.tag, empty = "*", false
			i++
		case c == '.' || c == '#':
			name, n := readIdent(s[i+1:])
			if n == 0 {
				return Selector{}, false
			}
			if c == '.' {
				cur.classes = append(cur.classes, name)
			} else {
				cur.id = name
			}
			empty = false
			i += 1 + n
		case c == '[':
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return Selector{}, false
			}
			am, ok := parseAttrMatch(s[i+1 : i+end])
			if !ok {
				return Selector{}, false
			}
			cur.attrs = append(cur.attrs, am)
			empty = false
			i += end + 1
		case c == ':':
			j := i + 1
			if j < len(s) && s[j] == ':' {
				j++
			}
			name, n := readIdent(s[j:])
			if n == 0 {
				return Selector{}, false
			}
			j += n
			if j < len(s) && s[j] == '(' {
				end := strings.IndexByte(s[j:], ')')
				if end < 0 {
					return Selector{}, false
				}
				name += s[j : j+end+1]
				j += end + 1
			}
			if s[i+1] == ':' {
				name = ":" + name
			}
			cur.pseudo = append(cur.pseudo, strings.ToLower(name))
			empty = false
			i = j
		default:
			name, n := readIdent(s[i:])
			if n == 0 || !empty {
				return Selector{}, false
			}
			cur.tag, empty = strings.ToLower(name), false
			i += n
		}
	}
	if empty {
		// Trailing whitespace is fine; a dangling combinator is not.
		return sel, len(sel.parts) > 0 && pending == 0
	}
	return sel, flush()
}

func readIdent(s string) (string, int) {
	n := 0
	for n < len(s) {
		c := s[n]
		if c == '-' || c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= 0x80 {
			n++
			continue
		}
		if c == '\\' && n+1 < len(s) {
			n += 2
			continue
		}
		break
	}
	return strings.ReplaceAll(s[:n], "\\", ""), n
}

func parseAttrMatch(s string) (attrMatch, bool) {
	s = strings.TrimSpace(s)
	i := strings.IndexAny(s, "~^$*|=")
	if i < 0 {
		name, n := readIdent(s)
		return attrMatch{name: strings.ToLower(name)}, n > 0 && n == len(s)
	}
	var am attrMatch
	am.name = strings.ToLower(strings.TrimSpace(s[:i]))
	rest := s[i:]
	if rest[0] == '=' {
		am.op, rest = "=", rest[1:]
	} else if len(rest) > 1 && rest[1] == '=' {
		am.op, rest = rest[:2], rest[2:]
	} else {
		return attrMatch{}, false
	}
	v := strings.TrimSpace(rest)
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		v = v[1 : len(v)-1]
	}
	am.value = v
	return am, am.name != ""
}

func (s *Selector) matches(el *element) bool {
	return len(s.parts) > 0 && s.matchAt(len(s.parts)-1, el)
}

func (s *Selector) matchAt(i int, el *element) bool {
	if !s.parts[i].matches(el) {
		return false
	}
	if i == 0 {
		return true
	}
	switch s.combinators[i-1] {
	case combChild:
		p := el.parent
		return p != nil && p.tag != documentTag && s.matchAt(i-1, p)
	case combAdjacent:
		sibs, idx := el.elementSiblings()
		return idx > 0 && s.matchAt(i-1, sibs[idx-1])
	case combSibling:
		sibs, idx := el.elementSiblings()
		for j := idx - 1; j >= 0; j-- {
			if s.matchAt(i-1, sibs[j]) {
				return true
			}
		}
		return false
	default:
		for p := el.parent; p != nil && p.tag != documentTag; p = p.parent {
			if s.matchAt(i-1, p) {
				return true
			}
		}
		return false
	}
}

func (c *compound) matches(el *element) bool {
	if el.isText() || el.tag == documentTag {
		return false
	}
	if c.tag != "" && c.tag != "*" && c.tag != el.tag {
		return false
	}
	if c.id != "" {
		if id, _ := el.attr("id"); id != c.id {
			return false
		}
	}
	for _, class := range c.classes {
		if !el.hasClass(class) {
			return false
		}
	}
	for _, am := range c.attrs {
		if !am.matches(el) {
			return false
		}
	}
	for _, p := range c.pseudo {
		if !matchPseudo(p, el) {
			return false
		}
	}
	return true
}

func (am attrMatch) matches(el *element) bool {
	v, ok := el.attr(am.name)
	if !ok {
		return false
	}
	switch am.op {
	case "":
		return true
	case "=":
		return v == am.value
	case "~=":
		for _, f := range strings.Fields(v) {
			if f == am.value {
				return true
			}
		}
		return false
	case "^=":
		return am.value != "" && strings.HasPrefix(v, am.value)
	case "$=":
		return am.value != "" && strings.HasSuffix(v, am.value)
	case "*=":
		return am.value != "" && strings.Contains(v, am.value)
	case "|=":
		return v == am.value || strings.HasPrefix(v, am.value+"-")
	}
	return false
}

// matchPseudo supports the structural pseudo-classes. Dynamic ones
// (:hover, :focus) and pseudo-elements never match a static render.
func matchPseudo(p string, el *element) bool {
	switch p {
	case "root":
		return el.parent != nil && el.parent.tag == documentTag && el.tag == "html"
	case "first-child", "last-child", "only-child":
		sibs, idx := el.elementSiblings()
		first, last := idx == 0, idx == len(sibs)-1
		return p == "first-child" && first || p == "last-child" && last || p == "only-child" && first && last
	case "empty":
		for _, c := range el.children {
			if !c.isText() || c.text != "" {
				return false
			}
		}
		return true
	}
	return false
}
