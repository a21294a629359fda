package search

import (
	"net/url"
	"sort"
	"strings"
)

var trackingQueryKeys = map[string]struct{}{
	"fbclid":  {},
	"gclid":   {},
	"mc_cid":  {},
	"mc_eid":  {},
	"ref":     {},
	"ref_src": {},
	"tag":     {},
	"srsltid": {},
}

// NormalizeURL reduces a result link to a comparison key and its domain.
// The key drops scheme, default ports, a leading "www.", fragments, trailing
// slashes and tracking parameters so that the same page ranked under slightly
// different links compares equal. Links that are not absolute yield empty
// strings.
func NormalizeURL(raw string) (key string, domain string) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ""
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", ""
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", ""
	}

	scheme := strings.ToLower(parsed.Scheme)
	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	if port := parsed.Port(); port != "" {
		defaultPort := (scheme == "http" && port == "80") || (scheme == "https" && port == "443")
		if !defaultPort {
			host = host + ":" + port
		}
	}

	path := strings.TrimSpace(parsed.EscapedPath())
	path = strings.ReplaceAll(path, "//", "/")
	path = strings.TrimSuffix(path, "/")

	q := parsed.Query()
	for k := range q {
		lower := strings.ToLower(k)
		if strings.HasPrefix(lower, "utm_") {
			q.Del(k)
			continue
		}
		if _, ok := trackingQueryKeys[lower]; ok {
			q.Del(k)
		}
	}

	var query string
	if len(q) > 0 {
		keys := make([]string, 0, len(q))
		for k := range q {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		reordered := url.Values{}
		for _, k := range keys {
			values := q[k]
			sort.Strings(values)
			for _, value := range values {
				reordered.Add(k, value)
			}
		}
		query = "?" + reordered.Encode()
	}

	return host + path + query, strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
}

// Domain returns the host of raw without a leading "www.".
func Domain(raw string) string {
	_, domain := NormalizeURL(raw)
	return domain
}
