package aggregator

import (
	"net/url"
	"strings"
)

// uiSuffixes are the known documentation-UI paths users paste from their
// browser; they are stripped so the cache key and fetch base point at the
// service root.
var uiSuffixes = []string{
	"/doc.html",
	"/swagger-ui.html",
	"/swagger-ui/index.html",
	"/swagger-ui/",
}

// NormalizeTargetURL reduces a pasted documentation URL to origin plus
// cleaned path: known UI suffixes, fragment, query, and any trailing slash
// are dropped. Input that does not parse as an absolute URL falls back to
// string-level stripping of fragment, query, and trailing slash.
func NormalizeTargetURL(target string) string {
	parsed, err := url.Parse(strings.TrimSpace(target))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return normalizeRaw(target)
	}

	path := parsed.Path
	for _, suffix := range uiSuffixes {
		if strings.HasSuffix(path, suffix) {
			path = strings.TrimSuffix(path, suffix)
			break
		}
	}
	path = strings.TrimSuffix(path, "/")

	return parsed.Scheme + "://" + parsed.Host + path
}

// normalizeRaw is the fallback for unparseable input.
func normalizeRaw(target string) string {
	s := strings.TrimSpace(target)
	if i := strings.IndexByte(s, '#'); i >= 0 {
		s = s[:i]
	}
	if i := strings.IndexByte(s, '?'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSuffix(s, "/")
}

// normalizeAPIPrefix forces a non-empty prefix into "/prefix" form with no
// trailing slash.
func normalizeAPIPrefix(prefix string) string {
	p := strings.TrimSpace(prefix)
	if p == "" || p == "/" {
		return ""
	}
	p = strings.TrimSuffix(p, "/")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// FullTargetURL joins the normalized target and prefix with exactly one
// separator; it is both the cache key and the upstream base URL.
func FullTargetURL(target, apiPrefix string) string {
	return NormalizeTargetURL(target) + normalizeAPIPrefix(apiPrefix)
}
