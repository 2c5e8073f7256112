package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

// ExposedHeaders are readable by cross-origin clients. X-Failed-Rows is the
// only place /api/ADIFgen reports skipped rows.
var ExposedHeaders = []string{
	"Content-Disposition",
	"X-Request-Id",
	"X-Conversion-Id",
	"X-Failed-Rows",
}

// CORS answers cross-origin requests from the listed origins. A single "*"
// allows every origin.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	origins := make([]string, 0, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins = append(origins, strings.TrimRight(o, "/"))
	}

	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Requested-With"},
		ExposedHeaders: ExposedHeaders,
		MaxAge:         600,
	})
}
