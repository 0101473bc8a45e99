// Package api exposes the HTTP interface for the catalog service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/imagifhub/media-catalog/internal/catalog"
	"github.com/imagifhub/media-catalog/internal/config"
	"github.com/imagifhub/media-catalog/internal/feed"
	"github.com/imagifhub/media-catalog/internal/telemetry"
)

// Server wires HTTP handlers to the feed service.
type Server struct {
	router chi.Router
	feed   *feed.Service
	cfg    config.Config
	logger *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(feedSvc *feed.Service, cfg config.Config, logger *zap.Logger) *Server {
	s := &Server{
		feed:   feedSvc,
		cfg:    cfg,
		logger: logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(telemetry.Middleware)
	r.Use(timeoutMiddleware(30 * time.Second))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", telemetry.Handler())

	r.Route("/v1", func(r chi.Router) {
		if cfg.Auth.Enabled {
			r.Use(apiKeyMiddleware(cfg.Auth.APIKey))
		}
		r.Get("/media", s.getMedia)
		r.Post("/media/{media_id}/like", s.likeMedia)
		r.Route("/playlist/{user_id}", func(r chi.Router) {
			r.Get("/", s.getPlaylist)
			r.Post("/", s.addToPlaylist)
			r.Delete("/{media_id}", s.removeFromPlaylist)
		})
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(s.logger, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(s.logger, w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) getMedia(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "" {
		category = catalog.CategoryAll
	}
	search := r.URL.Query().Get("search")

	entries, err := s.feed.Feed(r.Context(), category, search)
	if err != nil {
		writeError(s.logger, w, http.StatusInternalServerError, "feed unavailable")
		return
	}
	writeJSON(s.logger, w, http.StatusOK, map[string]any{"media": entries})
}

type likeRequest struct {
	SubscriberID string `json:"subscriber_id"`
}

func (s *Server) likeMedia(w http.ResponseWriter, r *http.Request) {
	mediaID, err := parseMediaID(r)
	if err != nil {
		writeError(s.logger, w, http.StatusBadRequest, "invalid media id")
		return
	}
	var req likeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SubscriberID == "" {
		writeError(s.logger, w, http.StatusBadRequest, "missing subscriber_id")
		return
	}

	likes, err := s.feed.Like(r.Context(), mediaID, req.SubscriberID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(s.logger, w, http.StatusNotFound, "media not found")
			return
		}
		writeError(s.logger, w, http.StatusInternalServerError, "like failed")
		return
	}
	writeJSON(s.logger, w, http.StatusOK, map[string]any{"success": true, "likes": likes})
}

type playlistRequest struct {
	MediaID int64 `json:"media_id"`
}

func (s *Server) addToPlaylist(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	var req playlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.MediaID == 0 {
		writeError(s.logger, w, http.StatusBadRequest, "missing media_id")
		return
	}
	if err := s.feed.SaveToPlaylist(r.Context(), userID, req.MediaID); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(s.logger, w, http.StatusNotFound, "media not found")
			return
		}
		writeError(s.logger, w, http.StatusInternalServerError, "save failed")
		return
	}
	writeJSON(s.logger, w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) getPlaylist(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	entries, err := s.feed.Playlist(r.Context(), userID)
	if err != nil {
		writeError(s.logger, w, http.StatusInternalServerError, "playlist unavailable")
		return
	}
	writeJSON(s.logger, w, http.StatusOK, map[string]any{"media": entries})
}

func (s *Server) removeFromPlaylist(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	mediaID, err := parseMediaID(r)
	if err != nil {
		writeError(s.logger, w, http.StatusBadRequest, "invalid media id")
		return
	}
	if err := s.feed.RemoveFromPlaylist(r.Context(), userID, mediaID); err != nil {
		writeError(s.logger, w, http.StatusInternalServerError, "remove failed")
		return
	}
	writeJSON(s.logger, w, http.StatusOK, map[string]any{"success": true})
}

func parseMediaID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "media_id"), 10, 64)
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		s.logger.Info("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", zap.Any("error", rec))
				writeError(s.logger, w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

func apiKeyMiddleware(expected string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				key = r.URL.Query().Get("api_key")
			}
			if key != expected {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

type requestIDKey struct{}

func writeJSON(logger *zap.Logger, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("write JSON failed", zap.Error(err))
	}
}

func writeError(logger *zap.Logger, w http.ResponseWriter, status int, msg string) {
	writeJSON(logger, w, status, map[string]string{"error": msg})
}
