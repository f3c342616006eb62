package handler

import (
	"bytes"
	"html/template"
	"net/http"

	"gopkg.in/yaml.v3"
)

// SpecPath is where ServeSpec is mounted; the docs page loads it from there.
const SpecPath = "/docs/openapi.yaml"

// ServeSpec serves the embedded OpenAPI document.
func ServeSpec(spec []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		w.Header().Set("Cache-Control", "public, max-age=300")
		w.Write(spec)
	}
}

type docsPage struct {
	Title   string
	Version string
	SpecURL string
}

// ServeDocs renders a Swagger UI page titled after the document's info
// block. The page is built once.
func ServeDocs(spec []byte) http.HandlerFunc {
	page := docsPage{Title: "API Documentation", SpecURL: SpecPath}

	var doc struct {
		Info struct {
			Title   string `yaml:"title"`
			Version string `yaml:"version"`
		} `yaml:"info"`
	}
	if err := yaml.Unmarshal(spec, &doc); err == nil && doc.Info.Title != "" {
		page.Title = doc.Info.Title
		page.Version = doc.Info.Version
	}

	var buf bytes.Buffer
	if err := docsTemplate.Execute(&buf, page); err != nil {
		panic("handler: render docs page: " + err.Error())
	}
	body := buf.Bytes()

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(body)
	}
}

var docsTemplate = template.Must(template.New("docs").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}{{if .Version}} v{{.Version}}{{end}}</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: {{.SpecURL}},
      dom_id: "#swagger-ui",
      deepLinking: true,
      persistAuthorization: true,
      defaultModelsExpandDepth: 0,
      docExpansion: "list",
      layout: "BaseLayout"
    });
  </script>
</body>
</html>`))
