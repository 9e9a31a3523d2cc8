package extract

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
)

const (
	instagramReferer = "https://www.instagram.com/"
	defaultTitle     = "reel"
	defaultExt       = "mp4"
	maxExtLen        = 5
)

var (
	tracer = otel.Tracer("extract")

	ErrEmptyURL        = errors.New("url is empty")
	ErrUnsupportedHost = errors.New("unsupported host: only Instagram/Facebook URLs are supported")
	ErrNoMediaURL      = errors.New("no downloadable media url found")
)

// Info is what a strategy pulls out of one candidate URL.
type Info struct {
	URL   string
	Title string
	Ext   string
}

// Session carries the request-scoped credential artifacts to each strategy.
type Session struct {
	CookieHeader string
	CookieFile   string
}

// Strategy tries one candidate URL. A nil Info with a nil error is a clean miss.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, candidate string, sess Session) (*Info, error)
}

// EngineOptions mirrors the option bag handed to the structured extraction engine.
type EngineOptions struct {
	Quiet            bool
	NoWarnings       bool
	SkipDownload     bool
	NoPlaylist       bool
	CheckCertificate bool
	Headers          map[string]string
	CookieFile       string
}

// Engine is an opaque structured media extractor, such as yt-dlp.
type Engine interface {
	Extract(ctx context.Context, url string, opts EngineOptions) (*Info, error)
}
