package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/robertkozin/reel-extractor/extract"
)

const (
	msgInvalidBody    = "Invalid JSON body"
	msgTokenUnset     = "API_TOKEN missing on server"
	msgUnauthorized   = "Unauthorized"
	msgUnsupported    = "Only Instagram/Facebook URLs supported (unsupported host)"
	msgURLRequired    = "URL required"
	msgExtractFailed  = "Video extract failed. Reel may be private or unavailable."
	msgNoMediaURL     = "No downloadable media URL found"
	msgInternal       = "internal error"
	msgCredentialHint = "Instagram may be asking for a login or rate limiting this server. Set INSTAGRAM_SESSIONID or INSTAGRAM_COOKIE and try again."
)

type extractRequest struct {
	URL string `json:"url"`
}

type extractResponse struct {
	OK       bool   `json:"ok"`
	MediaURL string `json:"media_url"`
	Filename string `json:"filename"`
	Source   string `json:"source"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
	Hint   string `json:"hint,omitempty"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleExtractProbe(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "service": serviceName})
}

func (s *Server) handleExtract(c *gin.Context) {
	res, err := s.extract(c)
	if err != nil {
		status, body := s.errorResponse(err)
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, extractResponse{
		OK:       true,
		MediaURL: res.MediaURL,
		Filename: res.Filename,
		Source:   res.Source,
	})
}

func (s *Server) extract(c *gin.Context) (*extract.Result, error) {
	body := c.Request.Body
	if body != nil {
		body = http.MaxBytesReader(c.Writer, body, maxBodySize)
	}
	req, err := decodeExtractRequest(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return s.resolve(c.Request.Context(), req.URL)
}

// resolve fails fast on empty and unsupported URLs before any network call.
func (s *Server) resolve(ctx context.Context, rawURL string) (*extract.Result, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, extract.ErrEmptyURL
	}
	if !extract.IsSupported(rawURL) {
		return nil, extract.ErrUnsupportedHost
	}
	return s.resolver.Resolve(ctx, rawURL)
}

// decodeExtractRequest treats an empty body as {} and rejects anything
// after the first JSON value.
func decodeExtractRequest(body io.Reader) (extractRequest, error) {
	var req extractRequest
	if body == nil {
		return req, nil
	}
	dec := json.NewDecoder(body)
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return req, nil
		}
		return req, err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("unexpected data after json value")
		}
		return req, err
	}
	return req, nil
}

func (s *Server) errorResponse(err error) (int, errorResponse) {
	var exhausted *extract.ExhaustedError
	switch {
	case errors.Is(err, errInvalidBody):
		return http.StatusBadRequest, errorResponse{Error: msgInvalidBody}
	case errors.Is(err, extract.ErrEmptyURL):
		return http.StatusBadRequest, errorResponse{Error: msgURLRequired}
	case errors.Is(err, extract.ErrUnsupportedHost):
		return http.StatusBadRequest, errorResponse{Error: msgUnsupported}
	case errors.Is(err, extract.ErrNoMediaURL):
		return http.StatusUnprocessableEntity, errorResponse{Error: msgNoMediaURL}
	case errors.As(err, &exhausted):
		resp := errorResponse{
			Error:  msgExtractFailed,
			Detail: exhausted.Summary(detailLimit),
		}
		if !s.cfg.HasCredential && exhausted.LooksBlocked() {
			resp.Hint = msgCredentialHint
		}
		return http.StatusUnprocessableEntity, resp
	default:
		slog.Error("extract failed", "err", err)
		return http.StatusInternalServerError, errorResponse{Error: msgInternal}
	}
}
