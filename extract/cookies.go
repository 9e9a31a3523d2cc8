package extract

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode"
)

const (
	cookieDomain   = ".instagram.com"
	cookieLifetime = 30 * 24 * time.Hour
)

// Credential is an Instagram session credential. A full Cookie string
// takes precedence over a lone SessionID.
type Credential struct {
	Cookie    string
	SessionID string
}

type CookiePair struct {
	Name  string
	Value string
}

func (c Credential) IsZero() bool {
	return c.Header() == ""
}

// Header returns the value for a Cookie request header, or "" when no
// credential is configured.
func (c Credential) Header() string {
	if cookie := strings.TrimSpace(c.Cookie); cookie != "" {
		return cookie
	}
	if id := strings.TrimSpace(c.SessionID); id != "" {
		return "sessionid=" + id
	}
	return ""
}

// ParseCookiePairs splits a cookie header into name=value pairs, skipping
// entries without '=', without a name, or with control characters that
// would break a jar row.
func ParseCookiePairs(header string) []CookiePair {
	var pairs []CookiePair
	for _, part := range strings.Split(header, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		if !ok || name == "" || hasControl(name) || hasControl(value) {
			continue
		}
		pairs = append(pairs, CookiePair{Name: name, Value: value})
	}
	return pairs
}

func hasControl(s string) bool {
	return strings.IndexFunc(s, unicode.IsControl) >= 0
}

// CookieJar is a Netscape cookie file on disk.
type CookieJar struct {
	path string
}

// OpenJar writes the credential into a fresh cookie file under dir (the
// system temp dir when empty). It returns nil, nil when the credential
// has no usable pairs.
func (c Credential) OpenJar(dir string, now time.Time) (*CookieJar, error) {
	pairs := ParseCookiePairs(c.Header())
	if len(pairs) == 0 {
		return nil, nil
	}

	f, err := os.CreateTemp(dir, "cookies-*.txt")
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	if err := writeNetscapeJar(f, pairs, now.Add(cookieLifetime)); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("writing cookie jar: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("closing cookie jar: %w", err)
	}

	return &CookieJar{path: f.Name()}, nil
}

func writeNetscapeJar(f *os.File, pairs []CookiePair, expires time.Time) error {
	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "# Netscape HTTP Cookie File")
	for _, p := range pairs {
		fmt.Fprintf(w, "%s\tTRUE\t/\tTRUE\t%d\t%s\t%s\n", cookieDomain, expires.Unix(), p.Name, p.Value)
	}
	return w.Flush()
}

func (j *CookieJar) Path() string {
	if j == nil {
		return ""
	}
	return j.path
}

// Close removes the cookie file.
func (j *CookieJar) Close() error {
	if j == nil || j.path == "" {
		return nil
	}
	err := os.Remove(j.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
