package handlers

import (
	_ "embed"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

//go:embed openapi.json
var openAPIDocument []byte

const docURL = "/swagger/doc.json"

// ServeOpenAPI отдаёт встроенный OpenAPI документ.
func ServeOpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(openAPIDocument)
}

// SwaggerUI serves the UI pointed at the embedded document.
func SwaggerUI() http.HandlerFunc {
	return httpSwagger.Handler(httpSwagger.URL(docURL))
}
