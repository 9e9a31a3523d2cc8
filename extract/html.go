package extract

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/robertkozin/reel-extractor/tr"
	"go.opentelemetry.io/otel/attribute"
)

var _ Strategy = (*HTMLStrategy)(nil)

// mediaPattern finds an embedded media URL in raw page markup. Patterns
// are tried in table order and the first capture wins.
type mediaPattern struct {
	name    string
	regexps []*regexp.Regexp
	decode  func(string) string
}

var mediaPatterns = []mediaPattern{
	{
		name: "og:video",
		regexps: []*regexp.Regexp{
			regexp.MustCompile(`(?i)<meta[^>]+property=["']og:video(?::secure_url)?["'][^>]*content=["']([^"']+)["']`),
			regexp.MustCompile(`(?i)<meta[^>]+content=["']([^"']+)["'][^>]*property=["']og:video(?::secure_url)?["']`),
		},
		decode: decodeEscapedURL,
	},
	{
		name: "video_url",
		regexps: []*regexp.Regexp{
			regexp.MustCompile(`(?i)"video_url"\s*:\s*"([^"]+)"`),
		},
		decode: decodeEscapedURL,
	},
	{
		name: "playback_url",
		regexps: []*regexp.Regexp{
			regexp.MustCompile(`(?i)"playback_url"\s*:\s*"([^"]+)"`),
		},
		decode: decodeEscapedURL,
	},
}

func (p mediaPattern) find(body []byte) (string, bool) {
	for _, re := range p.regexps {
		if m := re.FindSubmatch(body); m != nil {
			return p.decode(string(m[1])), true
		}
	}
	return "", false
}

// findMediaURL returns the first pattern match in body, decoded.
func findMediaURL(body []byte) (mediaURL, pattern string) {
	for _, p := range mediaPatterns {
		if v, ok := p.find(body); ok {
			return v, p.name
		}
	}
	return "", ""
}

func decodeEscapedURL(s string) string {
	s = html.UnescapeString(s)
	s = strings.ReplaceAll(s, `\/`, "/")
	s = strings.ReplaceAll(s, `\u0026`, "&")
	if strings.HasPrefix(s, "//") {
		s = "https:" + s
	}
	return s
}

// HTMLStrategy scrapes the page markup directly for embedded media URLs.
type HTMLStrategy struct {
	Client    *http.Client
	UserAgent string
}

func NewHTML() *HTMLStrategy {
	return &HTMLStrategy{
		Client:    newHTTPClient(htmlFetchTimeout),
		UserAgent: mobileUserAgent,
	}
}

func (h *HTMLStrategy) Name() string {
	return "html"
}

func (h *HTMLStrategy) Extract(ctx context.Context, candidate string, sess Session) (*Info, error) {
	body, err := h.fetch(ctx, candidate, sess.CookieHeader)
	if err != nil {
		return nil, err
	}

	mediaURL, _ := findMediaURL(body)
	if !hasHTTPScheme(mediaURL) {
		return nil, nil
	}

	return &Info{
		URL:   mediaURL,
		Title: pageTitle(body),
		Ext:   guessExt(mediaURL),
	}, nil
}

func (h *HTMLStrategy) fetch(ctx context.Context, pageURL, cookie string) (body []byte, err error) {
	ctx, span := tracer.Start(ctx, "html_fetch")
	defer tr.End(span, &err)
	span.SetAttributes(attribute.String("url", pageURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", h.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", instagramReferer)
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}

	client := h.Client
	if client == nil {
		client = newHTTPClient(htmlFetchTimeout)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status fetching page: %s", resp.Status)
	}

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return nil, fmt.Errorf("reading page: %w", err)
	}
	span.SetAttributes(attribute.Int("body_size", len(body)))

	return body, nil
}

// pageTitle reads og:title from the markup, falling back to "reel".
func pageTitle(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return defaultTitle
	}

	var title string
	doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		prop, _ := s.Attr("property")
		if !strings.EqualFold(strings.TrimSpace(prop), "og:title") {
			return true
		}
		title, _ = s.Attr("content")
		return false
	})

	title = strings.TrimSpace(title)
	if title == "" {
		return defaultTitle
	}
	return title
}
