package helpers

import (
	"net/url"
	"strings"
)

// ResolveURL makes ref absolute against base. It returns "" when either
// side cannot be parsed or ref is blank
func ResolveURL(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return ""
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return baseURL.ResolveReference(refURL).String()
}

// RelativeTo strips base (and the slash after it) from rawURL.
// ok is false when rawURL does not live under base
func RelativeTo(base, rawURL string) (string, bool) {
	prefix := strings.TrimRight(base, "/") + "/"
	if !strings.HasPrefix(rawURL, prefix) {
		return "", false
	}
	return strings.TrimPrefix(rawURL, prefix), true
}

