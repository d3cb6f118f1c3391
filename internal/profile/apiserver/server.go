// Package apiserver serves the profile REST API used by the greenleaf client.
//
// Routes:
//
//	GET   /api/profile/   current user's profile (JSON)
//	PATCH /api/profile/   multipart form: editable fields plus optional profile_image file
//	GET   /media/...      stored profile images
package apiserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"greenleaf/internal/auth"
	"greenleaf/internal/logging"
	"greenleaf/internal/profile"
)

// MediaPrefix is the URL prefix of stored images.
const MediaPrefix = "/media/"

// maxUploadBytes bounds a PATCH request body.
const maxUploadBytes = 10 << 20

// Store is the persistence the API needs.
type Store interface {
	Get(ctx context.Context, userID int64) (profile.Snapshot, error)
	Put(ctx context.Context, userID int64, u profile.Update) (profile.Snapshot, error)
	MediaDir() string
}

// Handler holds the API dependencies.
type Handler struct {
	store     Store
	signer    *auth.Signer
	validator profile.Validator
	logger    *zap.Logger
}

// NewHandler creates the API handler. Store image refs should be MediaPrefix-relative URLs.
func NewHandler(store Store, signer *auth.Signer, validator profile.Validator, logger *zap.Logger) *Handler {
	return &Handler{
		store:     store,
		signer:    signer,
		validator: validator,
		logger:    logging.OrNop(logger),
	}
}

// Router builds the gorilla/mux router.
func (h *Handler) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(h.traceMiddleware, h.logMiddleware)

	router.PathPrefix(MediaPrefix).
		Handler(http.StripPrefix(MediaPrefix, http.FileServer(http.Dir(h.store.MediaDir())))).
		Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(h.authMiddleware)
	api.HandleFunc("/profile/", h.getProfile).Methods(http.MethodGet)
	api.HandleFunc("/profile/", h.patchProfile).Methods(http.MethodPatch)

	return router
}

// Server wraps http.Server with Start/Stop.
type Server struct {
	server *http.Server
	logger *zap.Logger
}

// NewServer creates a server listening on addr.
func NewServer(addr string, handler http.Handler, logger *zap.Logger) *Server {
	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logging.OrNop(logger),
	}
}

// Start begins listening (non-blocking).
// Returns immediately, server runs in background goroutine; errs receives a fatal listen error.
func (s *Server) Start() <-chan error {
	errs := make(chan error, 1)
	go func() {
		s.logger.Info("api server listening", zap.String("addr", s.server.Addr))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()
	return errs
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
