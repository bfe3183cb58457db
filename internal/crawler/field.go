package crawler

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// field is one extracted value plus whether its anchor element was found.
// Each page field is resolved on its own so a missing element never
// affects its neighbours
type field struct {
	value string
	found bool
}

func present(v string) field {
	return field{value: v, found: v != ""}
}

func missing() field {
	return field{}
}

// or returns the value, or fallback when the field was not found
func (f field) or(fallback string) string {
	if !f.found {
		return fallback
	}
	return f.value
}

func (f field) orNA() string {
	return f.or(NotAvailable)
}

// textOf returns the trimmed text of the first element matching selector
func textOf(s *goquery.Selection, selector string) field {
	sel := s.Find(selector).First()
	if sel.Length() == 0 {
		return missing()
	}
	return present(strings.TrimSpace(sel.Text()))
}

// attrOf returns the trimmed attribute of the first element matching selector
func attrOf(s *goquery.Selection, selector, attr string) field {
	sel := s.Find(selector).First()
	if sel.Length() == 0 {
		return missing()
	}
	v, ok := sel.Attr(attr)
	if !ok {
		return missing()
	}
	return present(strings.TrimSpace(v))
}

// matchOf applies re to a field and keeps its first capture group
func matchOf(f field, re *regexp.Regexp) field {
	if !f.found {
		return f
	}
	m := re.FindStringSubmatch(f.value)
	if m == nil {
		return missing()
	}
	return present(strings.TrimSpace(m[1]))
}

// textAfter returns the text node that immediately follows the first element
// matching selector. Element siblings do not count
func textAfter(s *goquery.Selection, selector string) field {
	sel := s.Find(selector).First()
	if sel.Length() == 0 {
		return missing()
	}
	next := sel.Get(0).NextSibling
	if next == nil || next.Type != html.TextNode {
		return missing()
	}
	return present(strings.TrimSpace(next.Data))
}
