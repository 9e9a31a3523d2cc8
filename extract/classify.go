package extract

import (
	"net/url"
	"strings"
)

var (
	supportedHosts = []string{
		"*instagram.com*",
		"*facebook.com*",
		"*fb.watch*",
	}
	instagramHosts = []string{
		"*instagram.com*",
	}
)

// IsSupported reports whether rawURL points at an Instagram or Facebook host.
// Unparseable URLs are unsupported.
func IsSupported(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}
	host := u.Hostname()
	if host == "" {
		return false
	}
	return simpleHostMatch(host, supportedHosts)
}

func IsInstagram(host string) bool {
	return simpleHostMatch(host, instagramHosts)
}
