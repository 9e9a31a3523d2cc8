package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/robertkozin/reel-extractor/tr"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
)

const ytdlpTimeout = 90 * time.Second

var _ Engine = (*YtDlp)(nil)

// YtDlp runs the yt-dlp binary and reads its single-JSON dump.
type YtDlp struct {
	Path    string
	Timeout time.Duration
}

func NewYtDlp(path string) *YtDlp {
	if path == "" {
		path = "yt-dlp"
	}
	return &YtDlp{Path: path, Timeout: ytdlpTimeout}
}

func (y *YtDlp) String() string {
	return fmt.Sprintf("yt-dlp (%s)", y.Path)
}

func (y *YtDlp) Extract(ctx context.Context, url string, opts EngineOptions) (info *Info, err error) {
	ctx, span := tracer.Start(ctx, "ytdlp_extract")
	defer tr.End(span, &err)
	span.SetAttributes(attribute.String("url", url))

	timeout := y.Timeout
	if timeout <= 0 {
		timeout = ytdlpTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, y.Path, ytdlpArgs(url, opts)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err = cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("yt-dlp timed out after %s", timeout)
		}
		if msg := lastErrorLine(stderr.String()); msg != "" {
			return nil, fmt.Errorf("yt-dlp: %s", msg)
		}
		return nil, fmt.Errorf("running yt-dlp: %w", err)
	}

	return parseYtDlpInfo(stdout.Bytes())
}

func ytdlpArgs(url string, opts EngineOptions) []string {
	args := []string{"--dump-single-json", "-f", "b"}
	if opts.Quiet {
		args = append(args, "--quiet")
	}
	if opts.NoWarnings {
		args = append(args, "--no-warnings")
	}
	if opts.SkipDownload {
		args = append(args, "--skip-download")
	}
	if opts.NoPlaylist {
		args = append(args, "--no-playlist")
	}
	if !opts.CheckCertificate {
		args = append(args, "--no-check-certificates")
	}

	// stable order keeps the command line reproducible in logs
	keys := make([]string, 0, len(opts.Headers))
	for k := range opts.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v := opts.Headers[k]; v != "" {
			args = append(args, "--add-header", k+":"+v)
		}
	}

	if opts.CookieFile != "" {
		args = append(args, "--cookies", opts.CookieFile)
	}

	return append(args, "--", url)
}

func parseYtDlpInfo(out []byte) (*Info, error) {
	if !gjson.ValidBytes(out) {
		return nil, errors.New("yt-dlp returned invalid json")
	}
	res := gjson.ParseBytes(out)
	if !res.IsObject() {
		return nil, errors.New("yt-dlp returned a non-object info")
	}
	return &Info{
		URL:   res.Get("url").String(),
		Title: res.Get("title").String(),
		Ext:   res.Get("ext").String(),
	}, nil
}

// lastErrorLine picks the most useful line out of yt-dlp's stderr.
func lastErrorLine(stderr string) string {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if strings.HasPrefix(line, "ERROR:") {
			return strings.TrimSpace(strings.TrimPrefix(line, "ERROR:"))
		}
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
