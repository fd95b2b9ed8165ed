package fetch

import (
	"fmt"
	"net/url"
	"strings"
)

// Normalize canonicalizes a URL for deduplication: lowercase scheme and host,
// default ports and fragments dropped, query stripped unless the host is on
// the keep-query list (sites where the query selects the document).
func Normalize(rawURL string, keepQueryHosts []string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme: %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("missing host in %q", rawURL)
	}

	scheme := strings.ToLower(parsed.Scheme)
	host := strings.ToLower(parsed.Host)
	host = strings.TrimSuffix(host, ":80")
	host = strings.TrimSuffix(host, ":443")

	path := parsed.EscapedPath()
	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	}

	normalized := scheme + "://" + host + path
	if parsed.RawQuery != "" && keepQuery(host, keepQueryHosts) {
		normalized += "?" + parsed.RawQuery
	}
	return normalized, nil
}

func keepQuery(host string, keepQueryHosts []string) bool {
	for _, h := range keepQueryHosts {
		if host == strings.ToLower(h) {
			return true
		}
	}
	return false
}

// Host returns the lowercase host portion of a URL, empty when unparseable.
func Host(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Host)
}
