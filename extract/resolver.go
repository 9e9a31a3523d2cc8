package extract

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/robertkozin/reel-extractor/tr"
	"go.opentelemetry.io/otel/attribute"
)

// Attempt records one failed strategy call against one candidate.
type Attempt struct {
	Strategy  string
	Candidate string
	Err       error
}

func (a Attempt) String() string {
	return a.Strategy + ": " + a.Err.Error()
}

// ExhaustedError is returned when every strategy failed for every candidate.
type ExhaustedError struct {
	Attempts []Attempt
}

func (e *ExhaustedError) Error() string {
	if len(e.Attempts) == 0 {
		return "all extraction strategies failed"
	}
	return "all extraction strategies failed: " + e.Summary(0)
}

func (e *ExhaustedError) Unwrap() []error {
	errs := make([]error, len(e.Attempts))
	for i, a := range e.Attempts {
		errs[i] = a.Err
	}
	return errs
}

// Summary joins the attempt log with " | ", truncated to limit runes when
// limit is positive.
func (e *ExhaustedError) Summary(limit int) string {
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = a.String()
	}
	s := strings.Join(parts, " | ")
	if limit > 0 {
		s = truncateRunes(s, limit)
	}
	return s
}

var (
	blockedMarkers = []string{
		"login", "log in", "rate limit", "rate-limit",
		"cookies", "authentication", "checkpoint",
	}

	// status codes only count next to an HTTP error or status phrase, so
	// shortcodes and URL paths containing the digits do not match
	blockedStatus = regexp.MustCompile(`(?i)(?:http error|status(?: code)?|fetching page):?\s*(?:401|403|429)\b|\b(?:401|403|429)\s+(?:unauthorized|forbidden|too many requests)`)
)

// LooksBlocked reports whether any failure reads like a login wall or rate limiting.
func (e *ExhaustedError) LooksBlocked() bool {
	for _, a := range e.Attempts {
		if a.Err != nil && looksBlocked(a.Err.Error()) {
			return true
		}
	}
	return false
}

func looksBlocked(msg string) bool {
	text := strings.ToLower(msg)
	for _, m := range blockedMarkers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return blockedStatus.MatchString(msg)
}

// Resolver runs its strategies in order over every candidate URL and
// returns the first usable result.
type Resolver struct {
	Strategies []Strategy
	Credential Credential
	JarDir     string
	Now        func() time.Time
}

type Option func(*Resolver)

func WithJarDir(dir string) Option {
	return func(r *Resolver) { r.JarDir = dir }
}

func WithStrategies(strategies ...Strategy) Option {
	return func(r *Resolver) { r.Strategies = strategies }
}

// NewResolver builds the default pipeline: the structured engine first,
// then the HTML fallback.
func NewResolver(engine Engine, cred Credential, opts ...Option) *Resolver {
	r := &Resolver{
		Strategies: []Strategy{NewStructured(engine), NewHTML()},
		Credential: cred,
		Now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) Resolve(ctx context.Context, sourceURL string) (res *Result, err error) {
	ctx, span := tracer.Start(ctx, "resolve")
	defer tr.End(span, &err)

	sourceURL = strings.TrimSpace(sourceURL)
	span.SetAttributes(attribute.String("source_url", sourceURL))

	if sourceURL == "" {
		return nil, ErrEmptyURL
	}
	if !IsSupported(sourceURL) {
		return nil, ErrUnsupportedHost
	}

	candidates := Candidates(sourceURL)
	span.SetAttributes(attribute.StringSlice("candidates", candidates))

	sess := Session{CookieHeader: r.Credential.Header()}
	jar, jarErr := r.Credential.OpenJar(r.JarDir, r.now())
	if jarErr != nil {
		slog.WarnContext(ctx, "cookie jar unavailable, continuing without it", "err", jarErr)
	}
	defer jar.Close()
	sess.CookieFile = jar.Path()

	var attempts []Attempt
	for _, strategy := range r.Strategies {
		for _, candidate := range candidates {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("resolving %s: %w", sourceURL, ctxErr)
			}
			info, err := r.attempt(ctx, strategy, candidate, sess)
			if err != nil {
				attempts = append(attempts, Attempt{Strategy: strategy.Name(), Candidate: candidate, Err: err})
				continue
			}
			if info == nil {
				continue
			}

			res, err = Normalize(info, sourceURL)
			if err != nil {
				return nil, fmt.Errorf("normalizing %s result: %w", strategy.Name(), err)
			}
			res.Strategy = strategy.Name()
			slog.InfoContext(ctx, "resolved media", "source", sourceURL, "strategy", res.Strategy, "candidate", candidate)
			return res, nil
		}
	}

	return nil, &ExhaustedError{Attempts: attempts}
}

func (r *Resolver) attempt(ctx context.Context, strategy Strategy, candidate string, sess Session) (info *Info, err error) {
	ctx, span := tracer.Start(ctx, "strategy_attempt")
	defer tr.End(span, &err)

	info, err = strategy.Extract(ctx, candidate, sess)

	outcome := "hit"
	switch {
	case err != nil:
		outcome = "error"
		slog.DebugContext(ctx, "extraction attempt failed", "strategy", strategy.Name(), "candidate", candidate, "err", err)
	case info == nil:
		outcome = "miss"
	}
	span.SetAttributes(
		attribute.String("strategy", strategy.Name()),
		attribute.String("candidate", candidate),
		attribute.String("outcome", outcome),
	)

	return info, err
}

func (r *Resolver) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}
