package extract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialHeader(t *testing.T) {
	tests := []struct {
		name string
		cred Credential
		want string
	}{
		{"none", Credential{}, ""},
		{"session id only", Credential{SessionID: "ABC"}, "sessionid=ABC"},
		{"cookie only", Credential{Cookie: "a=1; b=2"}, "a=1; b=2"},
		{"cookie wins over session id", Credential{Cookie: "a=1", SessionID: "ABC"}, "a=1"},
		{"whitespace is ignored", Credential{Cookie: "  ", SessionID: " ABC "}, "sessionid=ABC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cred.Header())
			assert.Equal(t, tt.want == "", tt.cred.IsZero())
		})
	}
}

func TestParseCookiePairs(t *testing.T) {
	got := ParseCookiePairs(" sessionid=ABC; csrftoken=XYZ ;garbage; =novalue; ds_user_id = 42 ; empty=")
	assert.Equal(t, []CookiePair{
		{Name: "sessionid", Value: "ABC"},
		{Name: "csrftoken", Value: "XYZ"},
		{Name: "ds_user_id", Value: "42"},
		{Name: "empty", Value: ""},
	}, got)

	got = ParseCookiePairs("sessionid=AB\nC; bad\tname=1; csrftoken=X\rY; ok=1; tail=2\n")
	assert.Equal(t, []CookiePair{
		{Name: "ok", Value: "1"},
		{Name: "tail", Value: "2"},
	}, got, "pairs with control characters are dropped")

	assert.Empty(t, ParseCookiePairs(""))
	assert.Empty(t, ParseCookiePairs("no pairs here"))
}

func TestOpenJar(t *testing.T) {
	dir := t.TempDir()
	now := time.Unix(1_700_000_000, 0)

	jar, err := Credential{Cookie: "sessionid=ABC; csrftoken=XYZ; broken"}.OpenJar(dir, now)
	require.NoError(t, err)
	require.NotNil(t, jar)
	t.Cleanup(func() { jar.Close() })

	assert.Equal(t, dir, filepath.Dir(jar.Path()))

	b, err := os.ReadFile(jar.Path())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "# Netscape HTTP Cookie File", lines[0])

	expires := "1702592000"
	assert.Equal(t, ".instagram.com\tTRUE\t/\tTRUE\t"+expires+"\tsessionid\tABC", lines[1])
	assert.Equal(t, ".instagram.com\tTRUE\t/\tTRUE\t"+expires+"\tcsrftoken\tXYZ", lines[2])

	for _, line := range lines[1:] {
		assert.Len(t, strings.Split(line, "\t"), 7)
	}
}

func TestOpenJarSessionID(t *testing.T) {
	jar, err := Credential{SessionID: "ABC"}.OpenJar(t.TempDir(), time.Now())
	require.NoError(t, err)
	t.Cleanup(func() { jar.Close() })

	b, err := os.ReadFile(jar.Path())
	require.NoError(t, err)
	assert.Contains(t, string(b), "\tsessionid\tABC\n")
}

func TestOpenJarWithoutPairs(t *testing.T) {
	for _, cred := range []Credential{{}, {Cookie: "nothing-useful"}} {
		jar, err := cred.OpenJar(t.TempDir(), time.Now())
		require.NoError(t, err)
		assert.Nil(t, jar)
		assert.Equal(t, "", jar.Path())
		assert.NoError(t, jar.Close())
	}
}

func TestOpenJarUniquePaths(t *testing.T) {
	dir := t.TempDir()
	cred := Credential{SessionID: "ABC"}

	a, err := cred.OpenJar(dir, time.Now())
	require.NoError(t, err)
	b, err := cred.OpenJar(dir, time.Now())
	require.NoError(t, err)

	assert.NotEqual(t, a.Path(), b.Path())

	require.NoError(t, a.Close())
	require.NoError(t, b.Close())
	assert.NoError(t, a.Close(), "closing twice is harmless")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestOpenJarBadDir(t *testing.T) {
	_, err := Credential{SessionID: "ABC"}.OpenJar(filepath.Join(t.TempDir(), "missing"), time.Now())
	assert.Error(t, err)
}
