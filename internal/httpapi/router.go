// Package httpapi is the gateway's Frontend actor: it terminates HTTP,
// translates requests into Storage/Engine commands, and renders their
// results, the way the teacher's applications/httpapi package mounts
// routes onto a single handler.
package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/flow-heater/flow-heater/internal/engine"
	"github.com/flow-heater/flow-heater/internal/logger"
	"github.com/flow-heater/flow-heater/internal/storage"
)

// Server holds the dependencies every handler closes over.
type Server struct {
	store  storage.Store
	engine *engine.Engine
	log    *logger.Logger
	limits engine.DispatchLimits
}

// NewRouter builds the gorilla/mux router the gateway listens with,
// grounded on the teacher's gorilla/mux handler registrations in
// services/secrets/handlers.go and friends.
func NewRouter(store storage.Store, eng *engine.Engine, log *logger.Logger, limits engine.DispatchLimits) http.Handler {
	s := &Server{store: store, engine: eng, log: log, limits: limits}

	r := mux.NewRouter()
	r.Use(loggingMiddleware(log))

	r.HandleFunc("/health_check", s.handleHealthCheck).Methods(http.MethodGet)

	admin := r.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("/processor", s.handleCreateProcessor).Methods(http.MethodPost)
	admin.HandleFunc("/processors", s.handleListProcessors).Methods(http.MethodGet)
	admin.HandleFunc("/processor/{id}", s.handleGetProcessor).Methods(http.MethodGet)
	admin.HandleFunc("/processor/{id}", s.handleUpdateProcessor).Methods(http.MethodPut)
	admin.HandleFunc("/processor/{id}", s.handleDeleteProcessor).Methods(http.MethodDelete)
	admin.HandleFunc("/processor/{id}/conversations", s.handleListConversationsForProcessor).Methods(http.MethodGet)

	r.HandleFunc("/conversation/{id}", s.handleGetConversation).Methods(http.MethodGet)
	r.HandleFunc("/conversation/{id}/audit_item", s.handleGetAuditItems).Methods(http.MethodGet)

	r.PathPrefix("/processor/{id}/run_with_prelude").Handler(s.runHandler(true))
	r.PathPrefix("/processor/{id}/run").Handler(s.runHandler(false))

	return r
}
