package http

import (
	"fmt"
	"net/http"
	"os"

	"github.com/ghodss/yaml"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// RegisterSwagger converts the YAML document at specPath once and serves it
// as /swagger/doc.json next to the Swagger UI. Nothing is mounted when the
// document cannot be loaded.
func RegisterSwagger(e *echo.Echo, specPath string) error {
	data, err := os.ReadFile(specPath)
	if err != nil {
		return fmt.Errorf("load swagger spec: %w", err)
	}
	doc, err := yaml.YAMLToJSON(data)
	if err != nil {
		return fmt.Errorf("convert swagger spec %s: %w", specPath, err)
	}

	e.GET("/swagger/doc.json", func(c echo.Context) error {
		return c.Blob(http.StatusOK, echo.MIMEApplicationJSONCharsetUTF8, doc)
	})
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	return nil
}
