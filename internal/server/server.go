package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"etherfund_news/internal/logger"
	"etherfund_news/internal/models"
)

const (
	defaultArchiveLimit = 10
	maxArchiveLimit     = 100
)

// NewsAggregator produces a fresh list of news items per call.
type NewsAggregator interface {
	Aggregate(ctx context.Context) ([]models.NewsItem, error)
}

// Archive is the optional history store behind the archive routes.
type Archive interface {
	Ping(ctx context.Context) error
	LatestNews(ctx context.Context, limit int) ([]models.ArchivedNews, error)
	CountSince(ctx context.Context, since time.Time) (int, error)
}

// Server хранит зависимости HTTP-обработчиков.
type Server struct {
	aggregator NewsAggregator
	archive    Archive
}

// NewServer создаёт новый экземпляр Server. archive может быть nil.
func NewServer(aggregator NewsAggregator, archive Archive) *Server {
	return &Server{aggregator: aggregator, archive: archive}
}

// Routes собирает маршруты и middleware в один http.Handler.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/rss", s.GetNews)
	mux.HandleFunc("GET /health", s.HealthCheck)
	mux.Handle("GET /metrics", promhttp.Handler())
	if s.archive != nil {
		mux.HandleFunc("GET /api/news/archive/count", s.GetNewNewsCount)
		mux.HandleFunc("GET /api/news/archive/{limit}", s.GetArchivedNews)
	}

	handler := RequestIDMiddleware(mux)
	handler = LoggingMiddleware(handler)
	return handler
}

// HealthCheck отвечает 200 OK; если подключён архив и он недоступен — 503.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if s.archive != nil {
		if err := s.archive.Ping(r.Context()); err != nil {
			http.Error(w, "DB unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.Write([]byte("OK"))
}

// GetNews агрегирует ленты и возвращает JSON-массив новостей в случайном порядке.
func (s *Server) GetNews(w http.ResponseWriter, r *http.Request) {
	news, err := s.aggregator.Aggregate(r.Context())
	if err != nil {
		logger.Log.WithError(err).Error("News aggregation failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if news == nil {
		news = []models.NewsItem{}
	}
	writeJSON(w, http.StatusOK, news)
}

// GetArchivedNews возвращает JSON-массив последних limit новостей архива.
func (s *Server) GetArchivedNews(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.PathValue("limit"))
	if err != nil || limit < 1 {
		limit = defaultArchiveLimit
	}
	if limit > maxArchiveLimit {
		limit = maxArchiveLimit
	}

	news, err := s.archive.LatestNews(r.Context(), limit)
	if err != nil {
		logger.Log.WithError(err).Error("Archive query failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, news)
}

// GetNewNewsCount возвращает JSON {"count": N} с количеством новостей архива,
// впервые увиденных после времени since в параметре запроса.
func (s *Server) GetNewNewsCount(w http.ResponseWriter, r *http.Request) {
	since, err := time.Parse(time.RFC3339, r.URL.Query().Get("since"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid time format")
		return
	}

	count, err := s.archive.CountSince(r.Context(), since)
	if err != nil {
		logger.Log.WithError(err).Error("Archive count failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.WithError(err).Warn("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
