package extract

import (
	"context"
	"errors"
)

var _ Strategy = (*StructuredStrategy)(nil)

// StructuredStrategy asks a structured Engine for the media info.
type StructuredStrategy struct {
	Engine    Engine
	UserAgent string
}

func NewStructured(engine Engine) *StructuredStrategy {
	return &StructuredStrategy{Engine: engine, UserAgent: desktopUserAgent}
}

func (s *StructuredStrategy) Name() string {
	return "extractor"
}

func (s *StructuredStrategy) Extract(ctx context.Context, candidate string, sess Session) (*Info, error) {
	if s.Engine == nil {
		return nil, errors.New("no engine configured")
	}

	headers := map[string]string{
		"User-Agent": s.UserAgent,
		"Referer":    instagramReferer,
	}
	if sess.CookieHeader != "" {
		headers["Cookie"] = sess.CookieHeader
	}

	return s.Engine.Extract(ctx, candidate, EngineOptions{
		Quiet:            true,
		NoWarnings:       true,
		SkipDownload:     true,
		NoPlaylist:       true,
		CheckCertificate: true,
		Headers:          headers,
		CookieFile:       sess.CookieFile,
	})
}
