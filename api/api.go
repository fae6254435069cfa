// Package api implements the HTTP surface of the ShadowAgent service.
package api

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"shadowagent/config"
	"shadowagent/storage"
)

// API holds the API server
type API struct {
	router          *mux.Router
	server          *http.Server
	threatStorage   storage.ThreatStorage
	userStorage     storage.UserStorage
	identityStorage storage.IdentityStorage
	config          *config.Config
	logger          *zap.SugaredLogger
	validate        *validator.Validate
}

// NewAPI creates a new API server
func NewAPI(threatStorage storage.ThreatStorage, userStorage storage.UserStorage, identityStorage storage.IdentityStorage, config *config.Config, logger *zap.SugaredLogger) *API {
	api := &API{
		router:          mux.NewRouter(),
		threatStorage:   threatStorage,
		userStorage:     userStorage,
		identityStorage: identityStorage,
		config:          config,
		logger:          logger,
		validate:        validator.New(),
	}
	api.setupRoutes()
	return api
}

// setupRoutes sets up the API routes
func (a *API) setupRoutes() {
	a.router.Use(a.corsMiddleware)
	a.router.Use(a.requestLogMiddleware)

	a.router.HandleFunc("/health", a.healthCheck).Methods("GET")

	a.router.HandleFunc("/threats", a.listThreats).Methods("GET")
	a.router.HandleFunc("/threats", a.createThreat).Methods("POST")
	a.router.HandleFunc("/threats/{id}", a.getThreat).Methods("GET")
	a.router.HandleFunc("/threats/{id}", a.deleteThreat).Methods("DELETE")
	a.router.HandleFunc("/threats/{id}/alerts", a.createAlert).Methods("POST")
	a.router.HandleFunc("/alerts", a.listAlerts).Methods("GET")

	a.router.HandleFunc("/signup", a.signup).Methods("POST")
	a.router.HandleFunc("/login", a.login).Methods("POST")

	// Everything under /users/me requires a valid bearer token.
	me := a.router.PathPrefix("/users/me").Subrouter()
	me.Use(a.jwtAuthMiddleware)
	me.HandleFunc("", a.getCurrentUser).Methods("GET")
	me.HandleFunc("/identities", a.listMyIdentities).Methods("GET")
	me.HandleFunc("/identities", a.createMyIdentity).Methods("POST")

	a.router.Handle("/metrics", promhttp.Handler())

	// Preflight requests must reach the CORS middleware; mux only runs
	// middleware on matched routes, so match OPTIONS everywhere.
	a.router.PathPrefix("/").Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
}

// Router exposes the configured handler, mainly for tests.
func (a *API) Router() http.Handler {
	return a.router
}

// Start starts the API server
func (a *API) Start(addr string) error {
	a.server = &http.Server{
		Addr:    addr,
		Handler: a.router,
	}
	return a.server.ListenAndServe()
}

// StartTLS starts the API server with TLS
func (a *API) StartTLS(addr, certFile, keyFile string) error {
	a.server = &http.Server{
		Addr:    addr,
		Handler: a.router,
	}
	return a.server.ListenAndServeTLS(certFile, keyFile)
}

// Stop stops the API server
func (a *API) Stop(ctx context.Context) error {
	if a.server != nil {
		return a.server.Shutdown(ctx)
	}
	return nil
}

// healthCheck godoc
//
//	@Summary	Service liveness probe
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Router		/health [get]
func (a *API) healthCheck(w http.ResponseWriter, r *http.Request) {
	a.respondJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}
