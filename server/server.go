package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/robertkozin/reel-extractor/extract"
)

const (
	serviceName  = "reel-extractor"
	detailLimit  = 320
	maxBodySize  = 1 << 20
	requestIDKey = "request_id"
)

var (
	errInvalidBody  = errors.New("invalid request body")
	errTokenUnset   = errors.New("api token is not configured")
	errUnauthorized = errors.New("unauthorized")
)

// Resolver turns a share URL into a downloadable media result.
type Resolver interface {
	Resolve(ctx context.Context, sourceURL string) (*extract.Result, error)
}

type Config struct {
	APIToken      string
	HasCredential bool
	TesterPage    bool
}

type Server struct {
	cfg      Config
	resolver Resolver
	engine   *gin.Engine
	http     *http.Server
}

func New(cfg Config, resolver Resolver) *Server {
	s := &Server{cfg: cfg, resolver: resolver}

	s.engine = gin.New()
	s.engine.Use(gin.Recovery())
	s.engine.Use(requestIDMiddleware())
	s.engine.Use(loggingMiddleware())

	s.engine.GET("/health", s.handleHealth)

	for _, path := range []string{"/extract", "/api/extract"} {
		s.engine.GET(path, s.handleExtractProbe)
		s.engine.POST(path, s.authMiddleware(), s.handleExtract)
	}

	if cfg.TesterPage {
		s.engine.GET("/", s.handleTesterPage)
		s.engine.POST("/", s.handleTesterPage)
	}

	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) ListenAndServe(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	slog.Info("listening", "addr", addr)
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) checkToken(header string) error {
	if s.cfg.APIToken == "" {
		return errTokenUnset
	}
	expected := "Bearer " + s.cfg.APIToken
	if subtle.ConstantTimeCompare([]byte(header), []byte(expected)) != 1 {
		return errUnauthorized
	}
	return nil
}

func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch err := s.checkToken(c.GetHeader("Authorization")); {
		case errors.Is(err, errTokenUnset):
			slog.ErrorContext(c.Request.Context(), "rejecting extract request", "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Error: msgTokenUnset})
		case err != nil:
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: msgUnauthorized})
		default:
			c.Next()
		}
	}
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader("X-Request-ID"))
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.InfoContext(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"request_id", c.GetString(requestIDKey),
		)
	}
}
