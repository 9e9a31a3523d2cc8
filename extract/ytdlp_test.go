package extract

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYtDlpArgs(t *testing.T) {
	args := ytdlpArgs("https://www.instagram.com/reel/abc/", EngineOptions{
		Quiet:            true,
		NoWarnings:       true,
		SkipDownload:     true,
		NoPlaylist:       true,
		CheckCertificate: true,
		Headers: map[string]string{
			"User-Agent": "ua",
			"Referer":    "https://www.instagram.com/",
			"Cookie":     "",
		},
		CookieFile: "/tmp/jar.txt",
	})

	assert.Equal(t, []string{
		"--dump-single-json", "-f", "b",
		"--quiet", "--no-warnings", "--skip-download", "--no-playlist",
		"--add-header", "Referer:https://www.instagram.com/",
		"--add-header", "User-Agent:ua",
		"--cookies", "/tmp/jar.txt",
		"--", "https://www.instagram.com/reel/abc/",
	}, args)
}

func TestYtDlpArgsMinimal(t *testing.T) {
	args := ytdlpArgs("https://fb.watch/x/", EngineOptions{})
	assert.Equal(t, []string{
		"--dump-single-json", "-f", "b", "--no-check-certificates",
		"--", "https://fb.watch/x/",
	}, args)
}

func TestParseYtDlpInfo(t *testing.T) {
	info, err := parseYtDlpInfo([]byte(`{"id":"abc","url":"https://cdn.example.com/v.mp4","title":"A reel","ext":"mp4","formats":[]}`))
	require.NoError(t, err)
	assert.Equal(t, &Info{URL: "https://cdn.example.com/v.mp4", Title: "A reel", Ext: "mp4"}, info)

	info, err = parseYtDlpInfo([]byte(`{"id":"abc"}`))
	require.NoError(t, err)
	assert.Empty(t, info.URL)

	_, err = parseYtDlpInfo([]byte(`not json`))
	assert.Error(t, err)

	_, err = parseYtDlpInfo([]byte(`["a"]`))
	assert.Error(t, err)
}

func TestLastErrorLine(t *testing.T) {
	stderr := "WARNING: something\nERROR: [Instagram] abc: Requested content is not available, rate-limit reached or login required\n"
	assert.Equal(t, "[Instagram] abc: Requested content is not available, rate-limit reached or login required", lastErrorLine(stderr))
	assert.Equal(t, "plain failure", lastErrorLine("first\nplain failure\n"))
	assert.Equal(t, "", lastErrorLine(""))
}

func writeFakeYtDlp(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake yt-dlp is a shell script")
	}
	path := filepath.Join(t.TempDir(), "yt-dlp")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

func TestYtDlpExtract(t *testing.T) {
	bin := writeFakeYtDlp(t, `
for last; do :; done
printf '{"url":"https://cdn.example.com/v.mp4","title":"%s","ext":"mp4"}' "$last"
`)

	info, err := NewYtDlp(bin).Extract(context.Background(), "reel-url", EngineOptions{})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/v.mp4", info.URL)
	assert.Equal(t, "reel-url", info.Title)
}

func TestYtDlpExtractFailure(t *testing.T) {
	bin := writeFakeYtDlp(t, `
echo "ERROR: [Instagram] abc: login required" >&2
exit 1
`)

	_, err := NewYtDlp(bin).Extract(context.Background(), "reel-url", EngineOptions{})
	require.Error(t, err)
	assert.Equal(t, "yt-dlp: [Instagram] abc: login required", err.Error())
}

func TestYtDlpExtractTimeout(t *testing.T) {
	bin := writeFakeYtDlp(t, "exec sleep 5\n")

	y := NewYtDlp(bin)
	y.Timeout = 50 * time.Millisecond

	_, err := y.Extract(context.Background(), "reel-url", EngineOptions{})
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "yt-dlp timed out"), err.Error())
}

func TestYtDlpMissingBinary(t *testing.T) {
	_, err := NewYtDlp(filepath.Join(t.TempDir(), "missing")).Extract(context.Background(), "reel-url", EngineOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "running yt-dlp")
}
