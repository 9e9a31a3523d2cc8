package extract

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var instagramPostPath = regexp.MustCompile(`/(reel|reels|p)/([A-Za-z0-9_-]+)`)

// Candidates expands rawURL into the ordered list of URLs worth trying.
// The original URL always comes first, followed by progressively more
// canonical rewrites. Duplicates and blank entries are dropped.
func Candidates(rawURL string) []string {
	rawURL = strings.TrimSpace(rawURL)
	list := []string{rawURL}

	u, err := url.Parse(rawURL)
	if err == nil && u.Scheme != "" && u.Host != "" {
		stripped := *u
		stripped.RawQuery = ""
		stripped.ForceQuery = false
		stripped.Fragment = ""
		stripped.RawFragment = ""
		list = append(list, stripped.String())

		if IsInstagram(u.Hostname()) {
			if m := instagramPostPath.FindStringSubmatch(u.Path); m != nil {
				canonical := fmt.Sprintf("https://www.instagram.com/%s/%s/", m[1], m[2])
				list = append(list, canonical, canonical+"embed/captioned/")
			}
		}
	}

	return dedupe(list)
}

func dedupe(list []string) []string {
	seen := make(map[string]bool, len(list))
	out := make([]string, 0, len(list))
	for _, s := range list {
		if strings.TrimSpace(s) == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
