package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"feedscope/internal/metrics"
	"feedscope/internal/model"
)

// PriceService is the resolution surface the API exposes.
type PriceService interface {
	GetTokenPrice(ctx context.Context, tokenAddress string, chainID uint64) (model.ResolvedPrice, error)
	IsAvailable(ctx context.Context) bool
}

// FeedLister lists the feeds configured for a chain.
type FeedLister interface {
	Feeds(ctx context.Context, chainID uint64) ([]model.FeedDescriptor, error)
}

// Server exposes price resolution over HTTP.
type Server struct {
	prices PriceService
	feeds  FeedLister
	logger *zap.Logger
	srv    *http.Server
}

// New builds a Server listening on addr.
func New(addr string, prices PriceService, feeds FeedLister, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		prices: prices,
		feeds:  feeds,
		logger: logger,
	}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(s.metricsMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/price/{chainID}/{token}", s.handlePrice)
		r.Get("/feeds/{chainID}", s.handleFeeds)
	})

	return r
}

// Start runs the server until Shutdown or a listener error.
func (s *Server) Start() error {
	s.logger.Info("http server listening", zap.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if !s.prices.IsAvailable(r.Context()) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"not ready"}`))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ready"}`))
}

func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	chainID, err := strconv.ParseUint(chi.URLParam(r, "chainID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "chain id must be a positive integer")
		return
	}
	token := chi.URLParam(r, "token")

	price, err := s.prices.GetTokenPrice(r.Context(), token, chainID)
	if err != nil {
		s.writeResolutionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, price)
}

func (s *Server) handleFeeds(w http.ResponseWriter, r *http.Request) {
	chainID, err := strconv.ParseUint(chi.URLParam(r, "chainID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "chain id must be a positive integer")
		return
	}

	feeds, err := s.feeds.Feeds(r.Context(), chainID)
	if err != nil {
		s.writeResolutionError(w, err)
		return
	}
	if feeds == nil {
		feeds = []model.FeedDescriptor{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"chain_id": chainID,
		"feeds":    feeds,
	})
}

// writeResolutionError maps the error taxonomy onto HTTP statuses.
// NoFeedAvailable is a 404 so clients can render a neutral state;
// transient infrastructure failures are 502 and worth retrying.
func (s *Server) writeResolutionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrValidation), errors.Is(err, model.ErrUnsupportedChain):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrNoFeedAvailable):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrMetadataFetch),
		errors.Is(err, model.ErrOracleRead),
		errors.Is(err, model.ErrInvalidPriceData):
		s.logger.Warn("upstream failure", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		s.logger.Error("price request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		pattern := chi.RouteContext(r.Context()).RoutePattern()
		if pattern == "" {
			pattern = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, pattern, strconv.Itoa(ww.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, pattern).Observe(time.Since(started).Seconds())
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
