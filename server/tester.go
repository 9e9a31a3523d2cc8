package server

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

var page = `<!doctype html>
<html lang="en">
<head>
<title>Reel Extractor</title>
<meta charset="utf-8">
<link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/water.css@2/out/water.css">
</head>
<body>
	<h1>Reel Extractor Tester</h1>

	<form method="POST">
		<label for="input">Reel URL</label>
		<input type="url" id="input" name="input" placeholder="https://www.instagram.com/reel/..." value="{{.Input}}" style="width: 100%">
		<label for="token">API token</label>
		<input type="password" id="token" name="token" style="width: 100%">
		<button type="submit">Extract</button>
	</form>

	{{if .Error}}
		<h2>Error</h2>
		<pre><code>{{.Error}}</code></pre>
		{{if .Detail}}<pre><code>{{.Detail}}</code></pre>{{end}}
		{{if .Hint}}<p>{{.Hint}}</p>{{end}}
	{{end}}

	{{if .MediaURL}}
		<h2>Result</h2>
		<p><a href="{{.MediaURL}}" target="_blank" download="{{.Filename}}">{{.Filename}}</a></p>
		{{if hasSuffix .Filename ".mp4"}}
			<video controls width="400">
				<source src="{{.MediaURL}}" type="video/mp4">
				Your browser does not support the video tag.
			</video>
		{{end}}
	{{end}}
</body>
</html>`

type pageData struct {
	Input    string
	MediaURL string
	Filename string
	Error    string
	Detail   string
	Hint     string
}

var tmpl = template.Must(
	template.New("page").
		Funcs(template.FuncMap{
			"hasSuffix": strings.HasSuffix,
		}).
		Parse(page),
)

// handleTesterPage renders a manual test form. Submissions go through the
// same token check and resolver as the JSON API.
func (s *Server) handleTesterPage(c *gin.Context) {
	data := pageData{}
	status := http.StatusOK

	if c.Request.Method == http.MethodPost {
		data.Input = strings.TrimSpace(c.PostForm("input"))
		status = s.runTester(c, &data)
	}

	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(c.Writer, data); err != nil {
		slog.Error("template execute", "err", err)
	}
}

func (s *Server) runTester(c *gin.Context, data *pageData) int {
	if err := s.checkToken("Bearer " + c.PostForm("token")); err != nil {
		if errors.Is(err, errTokenUnset) {
			data.Error = msgTokenUnset
			return http.StatusInternalServerError
		}
		data.Error = msgUnauthorized
		return http.StatusUnauthorized
	}

	res, err := s.resolve(c.Request.Context(), data.Input)
	if err != nil {
		status, body := s.errorResponse(err)
		data.Error, data.Detail, data.Hint = body.Error, body.Detail, body.Hint
		return status
	}

	data.MediaURL = res.MediaURL
	data.Filename = res.Filename
	return http.StatusOK
}
