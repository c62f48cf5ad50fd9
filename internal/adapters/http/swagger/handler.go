// Package swagger serves the OpenAPI document and a ReDoc page for it.
package swagger

import (
	"context"
	"net/http"
)

// Option configures Register.
type Option func(*config)

type config struct {
	redocURL string
}

// WithRedocURL overrides the location the docs page loads ReDoc from.
func WithRedocURL(u string) Option {
	return func(c *config) {
		if u != "" {
			c.redocURL = u
		}
	}
}

const defaultRedocURL = "https://cdn.redoc.ly/redoc/latest/bundles/redoc.standalone.js"

// Register attaches the API docs routes to mux.
//
//	GET /api-docs      -> ReDoc HTML
//	GET /openapi.yaml  -> embedded OpenAPI spec
func Register(_ context.Context, mux *http.ServeMux, opts ...Option) {
	if mux == nil {
		panic("mux is nil")
	}
	cfg := config{redocURL: defaultRedocURL}
	for _, opt := range opts {
		opt(&cfg)
	}
	page := indexHTML(cfg.redocURL)

	mux.HandleFunc("GET /api-docs", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page))
	})

	mux.HandleFunc("GET /openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		_, _ = w.Write(OpenAPI)
	})
}

func indexHTML(redocURL string) string {
	return `<!doctype html>
<html>
  <head>
    <meta charset="utf-8">
    <title>KPI Bonus API</title>
    <style>body{margin:0;padding:0}</style>
  </head>
  <body>
    <redoc id="redoc-container"></redoc>
    <script src="` + redocURL + `"></script>
    <script>Redoc.init('/openapi.yaml', { suppressWarnings: true }, document.getElementById('redoc-container'));</script>
  </body>
</html>`
}
