package backend

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/relabs-tech/sakamichi/core/logger"
)

// handle registers h for route and method in the router of groupName. Responses
// are compressed when the client accepts it.
func (b *Backend) handle(router *mux.Router, groupName, route, method string, h http.Handler) {
	router.Handle(route, handlers.CompressHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.FromContext(r.Context()).Infoln("called route for", r.URL, r.Method)
		h.ServeHTTP(w, r)
	}))).Methods(b.methods(groupName, method)...)
}
