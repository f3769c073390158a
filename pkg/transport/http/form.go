package http

import (
	"context"
	"errors"
	"html/template"
	"net/http"

	"github.com/rhuss/postsmith/pkg/api"
	"github.com/rhuss/postsmith/pkg/transport"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>LinkedIn Post Generator</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 760px; margin: 2rem auto; padding: 0 1rem; color: #1d2226; }
input[type=text] { width: 100%; padding: .6rem; font-size: 1rem; box-sizing: border-box; }
button { margin-top: .8rem; padding: .6rem 1.2rem; font-size: 1rem; background: #0a66c2; color: #fff; border: 0; border-radius: 4px; cursor: pointer; }
textarea { width: 100%; min-height: 22rem; margin-top: 1rem; padding: .6rem; font-size: .95rem; box-sizing: border-box; }
.how { margin-top: 2rem; font-size: .9rem; color: #56687a; }
</style>
</head>
<body>
<h1>LinkedIn Post Generator</h1>
<p>Enter a topic and get a LinkedIn post written from the latest web search results.</p>
<form method="post" action="/">
<label for="topic">Topic</label>
<input type="text" id="topic" name="topic" value="{{.Topic}}" placeholder="e.g. AI trends 2025" autofocus>
<button type="submit">Generate LinkedIn Post</button>
</form>
<textarea readonly aria-label="Generated LinkedIn Post">{{.Output}}</textarea>
<div class="how">
<h2>How it works</h2>
<ol>
<li>Searches the web for recent information about your topic.</li>
<li>Summarizes the search results with a language model.</li>
<li>Writes an engaging LinkedIn post from the summary.</li>
</ol>
</div>
</body>
</html>
`))

type pageData struct {
	Topic  string
	Output string
}

// handleIndex handles GET /.
func (a *Adapter) handleIndex(w http.ResponseWriter, r *http.Request) {
	a.renderPage(w, pageData{})
}

// handleFormSubmit handles POST /. Every outcome, including failures,
// is rendered into the output box with status 200.
func (a *Adapter) handleFormSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize)
	if err := r.ParseForm(); err != nil {
		a.renderPage(w, pageData{Output: "Error: could not read form: " + err.Error()})
		return
	}

	topic := r.PostFormValue("topic")
	collector := &postCollector{}
	err := a.generator.Generate(r.Context(), &api.GenerateRequest{Topic: topic}, collector)

	data := pageData{Topic: topic}
	switch {
	case err != nil:
		var apiErr *api.APIError
		if errors.As(err, &apiErr) {
			data.Output = "Error: " + apiErr.Message
		} else {
			data.Output = "Error: " + err.Error()
		}
	case collector.post != nil:
		data.Output = collector.post.Output
	}
	a.renderPage(w, data)
}

func (a *Adapter) renderPage(w http.ResponseWriter, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

// postCollector captures the single post produced for a form submission.
type postCollector struct {
	post *api.Post
}

var _ transport.ResultWriter = (*postCollector)(nil)

func (c *postCollector) WriteEvent(context.Context, api.StreamEvent) error {
	return errors.New("streaming is not supported for form submissions")
}

func (c *postCollector) WritePost(_ context.Context, p *api.Post) error {
	c.post = p
	return nil
}

func (c *postCollector) Flush() error { return nil }
