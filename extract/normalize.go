package extract

import (
	"fmt"
	"regexp"
	"strings"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Result is a normalized, caller-ready extraction.
type Result struct {
	MediaURL string
	Title    string
	Ext      string
	Filename string
	Source   string
	Strategy string
}

// Normalize validates info and derives a safe filename from it.
func Normalize(info *Info, source string) (*Result, error) {
	if info == nil || !hasHTTPScheme(strings.TrimSpace(info.URL)) {
		return nil, ErrNoMediaURL
	}

	title := SanitizeTitle(info.Title)
	ext := SanitizeExt(info.Ext)

	return &Result{
		MediaURL: strings.TrimSpace(info.URL),
		Title:    info.Title,
		Ext:      ext,
		Filename: fmt.Sprintf("%s.%s", title, ext),
		Source:   source,
	}, nil
}

func SanitizeTitle(title string) string {
	safe := unsafeFilenameChars.ReplaceAllString(strings.TrimSpace(title), "_")
	safe = strings.Trim(safe, "._")
	if safe == "" {
		return defaultTitle
	}
	return safe
}

func SanitizeExt(ext string) string {
	ext = truncateRunes(strings.Trim(strings.TrimSpace(ext), "."), maxExtLen)
	if ext == "" {
		return defaultExt
	}
	return ext
}
