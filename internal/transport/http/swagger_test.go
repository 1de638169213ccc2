package http

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestRegisterSwaggerServesConvertedDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "swagger.yaml")
	if err := os.WriteFile(path, []byte("openapi: 3.0.3\ninfo:\n  title: Auth API\n  version: \"1.0\"\n"), 0o600); err != nil {
		t.Fatalf("write spec: %v", err)
	}

	e := echo.New()
	if err := RegisterSwagger(e, path); err != nil {
		t.Fatalf("RegisterSwagger error: %v", err)
	}
	// Later edits on disk are not picked up; the document is read once.
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove spec: %v", err)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"title":"Auth API"`) {
		t.Fatalf("unexpected document %s", rec.Body.String())
	}
}

func TestRegisterSwaggerRejectsBadDocument(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("openapi: [unterminated\n"), 0o600); err != nil {
		t.Fatalf("write spec: %v", err)
	}

	for name, path := range map[string]string{
		"missing":   filepath.Join(dir, "nope.yaml"),
		"malformed": bad,
	} {
		t.Run(name, func(t *testing.T) {
			e := echo.New()
			if err := RegisterSwagger(e, path); err == nil {
				t.Fatal("expected an error")
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
			if rec.Code != http.StatusNotFound {
				t.Fatalf("expected nothing mounted, got %d", rec.Code)
			}
		})
	}
}
