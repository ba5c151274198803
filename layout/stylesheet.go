package layout

import (
	"strings"

	"github.com/deepteams/snapshot/css"
)

// Declaration is one property: value pair. !important is stripped.
type Declaration struct {
	Property string
	Value    string
}

// Rule is a selector list with its declarations.
type Rule struct {
	Selectors []Selector
	Decls     []Declaration
}

// matches reports whether any of the rule's selectors matches el.
func (r *Rule) matches(el *element) bool {
	for i := range r.Selectors {
		if r.Selectors[i].matches(el) {
			return true
		}
	}
	return false
}

// ParseStylesheet parses CSS into rules in source order. Comments are
// removed and at-rules are skipped along with their blocks. Rules whose
// selectors cannot be parsed are dropped.
func ParseStylesheet(src string) []Rule {
	src = stripComments(src)
	var rules []Rule
	for i := 0; i < len(src); {
		i = skipSpace(src, i)
		if i >= len(src) {
			break
		}
		if src[i] == '@' {
			i = skipAtRule(src, i)
			continue
		}
		open := indexOutsideQuotes(src, i, '{')
		if open < 0 {
			break
		}
		end := matchBrace(src, open)
		prelude := strings.TrimSpace(src[i:open])
		body := src[open+1 : max(open+1, end)]
		i = end + 1

		sels, ok := parseSelectorList(prelude)
		if !ok {
			continue
		}
		rules = append(rules, Rule{Selectors: sels, Decls: ParseDeclarations(body)})
	}
	return rules
}

// ParseDeclarations parses a declaration block body or a style attribute.
func ParseDeclarations(s string) []Declaration {
	var decls []Declaration
	for _, part := range splitOutside(s, ';') {
		prop, val, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		val = strings.TrimSpace(val)
		if i := strings.LastIndex(strings.ToLower(val), "!important"); i >= 0 {
			val = strings.TrimSpace(val[:i])
		}
		if prop == "" || val == "" {
			continue
		}
		decls = append(decls, Declaration{Property: prop, Value: val})
	}
	return decls
}

func stripComments(s string) string {
	var b strings.Builder
	for {
		i := strings.Index(s, "/*")
		if i < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:i])
		j := strings.Index(s[i+2:], "*/")
		if j < 0 {
			return b.String()
		}
		s = s[i+2+j+2:]
	}
}

func skipSpace(s string, i int) int {
	for i < len(s) && strings.IndexByte(" \t\r\n\f", s[i]) >= 0 {
		i++
	}
	return i
}

// skipAtRule returns the index after an at-rule starting at i: after its
// terminating semicolon, or after its balanced block.
func skipAtRule(s string, i int) int {
	for j := i; j < len(s); j++ {
		switch s[j] {
		case ';':
			return j + 1
		case '{':
			return matchBrace(s, j) + 1
		case '"', '\'':
			j = skipString(s, j)
		}
	}
	return len(s)
}

// matchBrace returns the index of the brace closing the one at open, or
// len(s) if the block is unterminated.
func matchBrace(s string, open int) int {
	depth := 0
	for j := open; j < len(s); j++ {
		switch s[j] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return j
			}
		case '"', '\'':
			j = skipString(s, j)
		}
	}
	return len(s)
}

// skipString returns the index of the quote closing the string at i.
func skipString(s string, i int) int {
	q := s[i]
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case q:
			return j
		}
	}
	return len(s)
}

func indexOutsideQuotes(s string, from int, c byte) int {
	for j := from; j < len(s); j++ {
		switch s[j] {
		case c:
			return j
		case '"', '\'':
			j = skipString(s, j)
		}
	}
	return -1
}

// splitOutside splits s at sep where it is not inside quotes or
// parentheses, so url(data:a;b) stays whole.
func splitOutside(s string, sep byte) []string {
	var parts []string
	depth, start := 0, 0
	for j := 0; j < len(s); j++ {
		switch s[j] {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case '"', '\'':
			j = skipString(s, j)
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:j])
				start = j + 1
			}
		}
	}
	return append(parts, s[min(start, len(s)):])
}

var boxSides = [4]string{"top", "right", "bottom", "left"}

// setProperty stores a declaration in props, expanding the shorthands the
// layout engine reads as longhands. Unparseable shorthands are ignored.
func setProperty(props map[string]string, prop, val string) {
	lower := strings.ToLower(val)
	switch prop {
	case "margin", "padding":
		t, r, b, l, ok := css.ExpandBox(css.Fields(lower))
		if !ok {
			return
		}
		for i, v := range [4]string{t, r, b, l} {
			props[prop+"-"+boxSides[i]] = v
		}
	case "border-width", "border-style", "border-color":
		t, r, b, l, ok := css.ExpandBox(css.Fields(lower))
		if !ok {
			return
		}
		suffix := strings.TrimPrefix(prop, "border-")
		for i, v := range [4]string{t, r, b, l} {
			props["border-"+boxSides[i]+"-"+suffix] = v
		}
	case "border", "border-top", "border-right", "border-bottom", "border-left":
		w, s, c, ok := css.SplitBorder(lower)
		if !ok {
			return
		}
		sides := boxSides[:]
		if prop != "border" {
			sides = []string{strings.TrimPrefix(prop, "border-")}
		}
		for _, side := range sides {
			props["border-"+side+"-width"] = w
			props["border-"+side+"-style"] = s
			props["border-"+side+"-color"] = c
		}
	case "background":
		if lower == "none" {
			props["background-color"] = "transparent"
			return
		}
		for _, part := range css.Fields(lower) {
			if _, ok := css.ParseColor(part); ok || css.IsCurrentColor(part) {
				props["background-color"] = part
				return
			}
		}
	case "font":
		setFont(props, lower)
	case "inset":
		t, r, b, l, ok := css.ExpandBox(css.Fields(lower))
		if !ok {
			return
		}
		for i, v := range [4]string{t, r, b, l} {
			props[boxSides[i]] = v
		}
	default:
		if strings.HasSuffix(prop, "color") && !validColor(lower) {
			return
		}
		props[prop] = val
	}
}

func validColor(v string) bool {
	switch v {
	case "inherit", "initial", "unset":
		return true
	}
	_, ok := css.ParseColor(v)
	return ok || css.IsCurrentColor(v)
}

// setFont expands "[style] [weight] size[/line-height] family".
func setFont(props map[string]string, val string) {
	parts := css.Fields(val)
	for i, p := range parts {
		switch {
		case p == "bold" || p == "bolder" || p == "lighter" || len(p) == 3 && p[1:] == "00":
			props["font-weight"] = p
			continue
		case p == "italic" || p == "oblique" || p == "normal" || p == "small-caps":
			continue
		}
		size, lh, _ := strings.Cut(p, "/")
		props["font-size"] = size
		if lh != "" {
			props["line-height"] = lh
		}
		if i+1 < len(parts) {
			props["font-family"] = strings.Join(parts[i+1:], " ")
		}
		return
	}
}
