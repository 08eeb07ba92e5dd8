package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/relabs-tech/sakamichi/core/access"
	"github.com/relabs-tech/sakamichi/core/appwrite"
	"github.com/relabs-tech/sakamichi/core/httperr"
	"github.com/relabs-tech/sakamichi/core/logger"
	"github.com/relabs-tech/sakamichi/core/saga"
	"github.com/relabs-tech/sakamichi/core/schema"
	"github.com/relabs-tech/sakamichi/core/storage"
)

// BasePath is the path prefix of all API routes
const BasePath = "/api"

// Greeting is returned by the API root
const Greeting = "Hi Sakamchi Fans use this API Wisely"

// placeholder is returned by the group roots
const placeholder = "simgle"

// DeletedMessage is the message of a successful delete
const DeletedMessage = "Document deleted successfully"

// maxBodySize limits JSON request bodies
const maxBodySize = 1 << 20

// maxMemory is the part of a multipart form kept in memory
const maxMemory = 32 << 20

// Buckets are the storage buckets used by the backend
type Buckets struct {
	// Production stores gallery images and covers
	Production string
	// SingleImage stores single artwork
	SingleImage string
}

// ByName returns the buckets keyed by the names used in the backend configuration
func (b Buckets) ByName() map[string]string {
	return map[string]string{
		"production":   b.Production,
		"single-image": b.SingleImage,
	}
}

// Backend is the REST facade in front of the backend-as-a-service
type Backend struct {
	config      *Configuration
	router      *mux.Router
	factory     *appwrite.Factory
	gate        *access.Gate
	storage     storage.Driver
	validator   *schema.Validator
	runner      *saga.Runner
	databaseID  string
	collections map[string]string
	buckets     Buckets
	origins     []string
}

// Builder is a builder helper for the Backend
type Builder struct {
	// Config is the JSON description of all resources. Empty means the built-in configuration.
	Config string
	// Router is a mux router. This is mandatory.
	Router *mux.Router
	// Factory creates backend clients. This is mandatory.
	Factory *appwrite.Factory
	// Gate checks session cookies. This is mandatory.
	Gate *access.Gate
	// Storage stores uploaded images. Defaults to the buckets of the backend.
	Storage storage.Driver
	// Validator validates JSON request bodies. Defaults to schema.NewRequestValidator.
	Validator *schema.Validator
	// DatabaseID is the database of all collections. This is mandatory.
	DatabaseID string
	// Collections maps the collection names of the configuration to collection ids. This is mandatory.
	Collections map[string]string
	// Buckets are the storage buckets. This is mandatory.
	Buckets Buckets
	// Reporter receives effects orphaned by failed two-step operations. Defaults to saga.LogReporter.
	Reporter saga.Reporter
	// Compensate undoes the first step of a failed two-step operation
	Compensate bool
	// AllowedOrigins are the CORS origins. Defaults to any origin.
	AllowedOrigins []string
}

// New realizes the actual backend and adds all routes to the router. It panics
// on an invalid configuration.
func New(bb *Builder) *Backend {
	if bb.Router == nil {
		panic("Router is missing")
	}
	if bb.Factory == nil {
		panic("Factory is missing")
	}
	if bb.Gate == nil {
		panic("Gate is missing")
	}
	if bb.DatabaseID == "" {
		panic("DatabaseID is missing")
	}

	configJSON := bb.Config
	if configJSON == "" {
		configJSON = defaultConfiguration
	}
	config, err := parseConfiguration(configJSON, bb.Collections, bb.Buckets.ByName())
	if err != nil {
		panic(err)
	}

	validator := bb.Validator
	if validator == nil {
		validator, err = schema.NewRequestValidator()
		if err != nil {
			panic(fmt.Errorf("cannot load request schemas: %w", err))
		}
	}

	driver := bb.Storage
	if driver == nil {
		driver = storage.NewAppwrite(bb.Factory)
	}

	reporter := bb.Reporter
	if reporter == nil {
		reporter = saga.LogReporter{}
	}

	origins := bb.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	b := &Backend{
		config:      config,
		router:      bb.Router,
		factory:     bb.Factory,
		gate:        bb.Gate,
		storage:     driver,
		validator:   validator,
		runner:      &saga.Runner{Reporter: reporter, Compensate: bb.Compensate},
		databaseID:  bb.DatabaseID,
		collections: bb.Collections,
		buckets:     bb.Buckets,
		origins:     origins,
	}

	b.handleRoutes()
	return b
}

// handleRoutes adds all necessary handlers for the configuration
func (b *Backend) handleRoutes() {
	nillog := logger.FromContext(context.TODO())
	nillog.Debugln("backend: HandleRoutes")

	b.router.Use(handlers.RecoveryHandler(handlers.RecoveryLogger(nillog), handlers.PrintRecoveryStack(true)))

	b.router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	api := b.router.PathPrefix(BasePath).Subrouter()
	api.HandleFunc("", b.text(Greeting)).Methods(http.MethodGet)
	api.HandleFunc("/", b.text(Greeting)).Methods(http.MethodGet)

	groups := map[string]*mux.Router{}
	subrouter := func(name string) *mux.Router {
		if g, ok := groups[name]; ok {
			return g
		}
		g := api.PathPrefix("/" + name).Subrouter()
		if b.hasCORS(name) {
			b.handleCORS(g)
		}
		groups[name] = g
		return g
	}

	single := subrouter("single")
	single.HandleFunc("/", b.text(placeholder)).Methods(b.methods("single", http.MethodGet)...)
	account := subrouter("account")
	account.HandleFunc("/", b.text(placeholder)).Methods(b.methods("account", http.MethodGet)...)

	for _, rc := range b.config.Collections {
		b.createCollectionResource(subrouter(group(rc.Resource)), rc)
	}
	for _, rc := range b.config.Blobs {
		b.createBlobResource(subrouter(group(rc.Resource)), rc)
	}
	b.createSingleImageResource(single)
	b.createAccountResource(account)
}

func (b *Backend) text(s string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger.FromContext(r.Context()).Infoln("called route for", r.URL, r.Method)
		w.Header().Set("Content-Type", "text/plain; charset=UTF-8")
		w.Write([]byte(s))
	}
}

// methods returns the accepted methods of a route in group. Groups with CORS
// also accept preflight requests.
func (b *Backend) methods(groupName string, method string) []string {
	if b.hasCORS(groupName) {
		return []string{http.MethodOptions, method}
	}
	return []string{method}
}

// session returns a backend client acting as the caller. It must only be called
// from handlers wrapped by the gate.
func (b *Backend) session(ctx context.Context) (*appwrite.Client, string) {
	secret, _ := access.SessionFromContext(ctx)
	return b.factory.Session(secret), secret
}

// permissions are the permissions of all documents and files created by the backend
func permissions() []string {
	return []string{
		appwrite.PermissionRead(appwrite.RoleAny()),
		appwrite.PermissionWrite(appwrite.RoleLabel("admin")),
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, v interface{}) {
	jsonData, err := json.Marshal(v)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(jsonData)
}

func writeDeleted(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, map[string]interface{}{"status": http.StatusOK, "message": DeletedMessage})
}
