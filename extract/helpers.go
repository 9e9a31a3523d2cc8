package extract

import (
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/tidwall/match"
)

const (
	desktopUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/139.0.0.0 Safari/537.36"
	mobileUserAgent  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Mobile/15E148 Safari/604.1"

	htmlFetchTimeout = 25 * time.Second
	maxPageSize      = 10 * 1024 * 1024
)

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: http.DefaultTransport,
		Timeout:   timeout,
	}
}

// simpleHostMatch reports whether the lower-cased host matches any glob.
func simpleHostMatch(host string, patterns []string) bool {
	host = strings.ToLower(host)
	for _, p := range patterns {
		if match.Match(host, p) {
			return true
		}
	}
	return false
}

func hasHTTPScheme(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// guessExt returns the lower-cased extension of the URL path, or mp4.
func guessExt(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(p), "."))
	if ext == "" || len(ext) > maxExtLen {
		return defaultExt
	}
	return ext
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
