// Package server exposes the classification engine over HTTP.
package server

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Veraticus/expense-cascade/internal/common"
	"github.com/Veraticus/expense-cascade/internal/engine"
	"github.com/Veraticus/expense-cascade/internal/model"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 64 << 10

// Classifier is the engine surface the HTTP API needs.
type Classifier interface {
	Classify(ctx context.Context, inputText, userID string) model.ClassificationResult
	RecordCorrection(ctx context.Context, inputText, correctedCategory, userID string) (bool, error)
	Categories() []string
}

// CategorizeRequest is the body of POST /api/categorize.
type CategorizeRequest struct {
	Text   string `json:"text"`
	UserID string `json:"user_id,omitempty"`
}

// FeedbackRequest is the body of POST /api/feedback.
type FeedbackRequest struct {
	Text     string `json:"text"`
	Category string `json:"category"`
	UserID   string `json:"user_id,omitempty"`
}

// FeedbackResponse reports whether a new rule was learned.
type FeedbackResponse struct {
	Learned bool `json:"learned"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server routes HTTP requests to a Classifier.
type Server struct {
	classifier Classifier
	logger     *slog.Logger
	router     chi.Router
}

// New builds the router.
func New(classifier Classifier, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{classifier: classifier, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/categorize", s.handleCategorize)
		r.Post("/feedback", s.handleFeedback)
		r.Get("/categories", s.handleCategories)
	})

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is canceled, then drains in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := s.httpServer(addr)
	return s.run(ctx, srv, srv.ListenAndServe)
}

// ListenAndServeTLS is ListenAndServe over HTTPS with the given certificate.
func (s *Server) ListenAndServeTLS(ctx context.Context, addr string, cert tls.Certificate) error {
	srv := s.httpServer(addr)
	srv.TLSConfig = &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}
	return s.run(ctx, srv, func() error { return srv.ListenAndServeTLS("", "") })
}

func (s *Server) httpServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (s *Server) run(ctx context.Context, srv *http.Server, listen func() error) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", srv.Addr, "tls", srv.TLSConfig != nil)
		errCh <- listen()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		s.logger.Info("Shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCategorize(w http.ResponseWriter, r *http.Request) {
	var req CategorizeRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	result := s.classifier.Classify(r.Context(), req.Text, req.UserID)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req FeedbackRequest
	if !decode(w, r, &req) {
		return
	}

	learned, err := s.classifier.RecordCorrection(r.Context(), req.Text, req.Category, req.UserID)
	if err != nil {
		if errors.Is(err, common.ErrEmptyInput) || errors.Is(err, engine.ErrUnknownCategory) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		common.LogError(err, "Failed to record correction", common.Fields{"category": req.Category})
		writeError(w, http.StatusInternalServerError, "failed to record correction")
		return
	}

	writeJSON(w, http.StatusOK, FeedbackResponse{Learned: learned})
}

func (s *Server) handleCategories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"categories": s.classifier.Categories()})
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
