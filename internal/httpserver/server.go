// Package httpserver exposes a poststore.Store over HTTP for postboard clients.
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"

	"github.com/five82/postboard/internal/post"
	"github.com/five82/postboard/internal/poststore"
)

const maxBodyBytes = 64 << 10

// Server serves the posts API.
type Server struct {
	store      poststore.Store
	logger     *slog.Logger
	httpServer *http.Server
}

// NewServer creates a server listening on addr and backed by store.
func NewServer(addr string, store poststore.Store, logger *slog.Logger) *Server {
	s := &Server{
		store:  store,
		logger: logger,
	}

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      withLogging(logger, s.Handler()),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the API routes without the logging middleware.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Methods(http.MethodGet).Path("/api/posts").HandlerFunc(s.handleList)
	r.Methods(http.MethodPost).Path("/api/posts").HandlerFunc(s.handleCreate)
	r.Methods(http.MethodPatch).Path("/api/posts/{id}").HandlerFunc(s.handleUpdate)
	r.Methods(http.MethodDelete).Path("/api/posts/{id}").HandlerFunc(s.handleDelete)
	r.Methods(http.MethodGet).Path("/health").HandlerFunc(s.handleHealth)
	return r
}

// Start begins listening for HTTP requests. It blocks until the server is
// shut down or an error occurs.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	posts, err := s.store.ListActive(r.Context())
	if err != nil {
		s.logger.Error("list posts failed", "error", err)
		writeError(w, http.StatusInternalServerError, "InternalError", "failed to list posts")
		return
	}
	if posts == nil {
		posts = []post.Post{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"posts": posts})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var p post.Post
	if !s.decode(w, r, &p) {
		return
	}
	if !s.validate(w, p.Draft()) {
		return
	}
	p.Active = true

	id, err := s.store.Create(r.Context(), p)
	if err != nil {
		s.logger.Error("create post failed", "error", err)
		writeError(w, http.StatusInternalServerError, "InternalError", "failed to create post")
		return
	}
	s.logger.Info("post created", "id", id)
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var d post.Draft
	if !s.decode(w, r, &d) {
		return
	}
	if !s.validate(w, d) {
		return
	}
	if err := s.store.Update(r.Context(), id, d); err != nil {
		s.writeStoreError(w, "update", id, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.store.SoftDelete(r.Context(), id); err != nil {
		s.writeStoreError(w, "delete", id, err)
		return
	}
	s.logger.Info("post deactivated", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dest any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dest); err != nil {
		s.logger.Warn("invalid request body", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadRequest, "InvalidRequest", "request body must be a JSON object")
		return false
	}
	return true
}

func (s *Server) validate(w http.ResponseWriter, d post.Draft) bool {
	err := post.Validate(d)
	if err == nil {
		return true
	}
	writeError(w, http.StatusBadRequest, "InvalidRequest", err.Error())
	return false
}

func (s *Server) writeStoreError(w http.ResponseWriter, op, id string, err error) {
	if errors.Is(err, poststore.ErrNotFound) {
		writeError(w, http.StatusNotFound, "NotFound", "post not found")
		return
	}
	s.logger.Error(op+" post failed", "id", id, "error", err)
	writeError(w, http.StatusInternalServerError, "InternalError", "failed to "+op+" post")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, errType, message string) {
	writeJSON(w, status, map[string]string{
		"error":   errType,
		"message": message,
	})
}

func withLogging(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", m.Code,
			"duration", m.Duration,
		)
	})
}
