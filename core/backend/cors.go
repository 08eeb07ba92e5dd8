package backend

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/relabs-tech/sakamichi/core/logger"
)

func (b *Backend) hasCORS(groupName string) bool {
	for _, g := range b.config.CORS {
		if g == groupName {
			return true
		}
	}
	return false
}

func (b *Backend) anyOrigin() bool {
	for _, origin := range b.origins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// handleCORS adds CORS headers to all routes of a group. Preflight requests are
// answered by the middleware, the routes of the group therefore also accept OPTIONS.
// Credentials are only allowed for explicitly listed origins.
func (b *Backend) handleCORS(router *mux.Router) {
	logger.Default().Debugln("  enable CORS for origins", b.origins)
	options := []handlers.CORSOption{
		handlers.AllowedOrigins(b.origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "X-Request-Id"}),
		handlers.ExposedHeaders([]string{"X-Request-Id"}),
		handlers.MaxAge(86400),
	}
	if !b.anyOrigin() {
		options = append(options, handlers.AllowCredentials())
	}
	router.Use(handlers.CORS(options...))
}
