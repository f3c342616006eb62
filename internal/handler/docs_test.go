package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/josh-kwaku/folio-ledger/api"
)

func TestServeSpec(t *testing.T) {
	rec := httptest.NewRecorder()
	ServeSpec(api.OpenAPISpec)(rec, httptest.NewRequest(http.MethodGet, "/docs/openapi.yaml", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))

	var doc struct {
		Info  struct{ Title string } `yaml:"info"`
		Paths map[string]any         `yaml:"paths"`
	}
	require.NoError(t, yaml.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "Folio Ledger API", doc.Info.Title)
	for _, p := range []string{"/folios", "/folios/{id}/charges", "/bookings/{bookingId}/checkout", "/invoices/{id}/document"} {
		assert.Contains(t, doc.Paths, p)
	}
}

func TestServeDocs(t *testing.T) {
	rec := httptest.NewRecorder()
	ServeDocs(api.OpenAPISpec)(rec, httptest.NewRequest(http.MethodGet, "/docs", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<title>Folio Ledger API v1.0.0</title>")
	assert.Contains(t, rec.Body.String(), "openapi.yaml")
}

func TestServeDocs_UntitledSpec(t *testing.T) {
	rec := httptest.NewRecorder()
	ServeDocs([]byte("openapi: 3.0.3\npaths: {}\n"))(rec, httptest.NewRequest(http.MethodGet, "/docs", nil))

	assert.Contains(t, rec.Body.String(), "<title>API Documentation</title>")
}

func TestServeDocs_EscapesTitle(t *testing.T) {
	rec := httptest.NewRecorder()
	ServeDocs([]byte("info:\n  title: \"<script>x</script>\"\n"))(rec, httptest.NewRequest(http.MethodGet, "/docs", nil))

	assert.NotContains(t, rec.Body.String(), "<script>x</script>")
}
