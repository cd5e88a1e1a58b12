// Package api exposes a trader.Service as a JSON HTTP API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/etnz/papertrade"
	"github.com/etnz/papertrade/trader"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// Server handles the REST API.
type Server struct {
	trader  *trader.Service
	router  *mux.Router
	log     *zap.Logger
	origins []string
}

// NewServer creates a new API server. Browsers are allowed in from origins.
func NewServer(t *trader.Service, log *zap.Logger, origins []string) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		trader:  t,
		router:  mux.NewRouter(),
		log:     log,
		origins: origins,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.Use(s.logRequests)

	api.HandleFunc("/health", s.handleHealth).Methods("GET")
	api.HandleFunc("/prices/{symbol}", s.handleGetPrice).Methods("GET")

	api.HandleFunc("/users/{user}/ledger", s.handleGetLedger).Methods("GET")
	api.HandleFunc("/users/{user}/portfolio", s.handleGetPortfolio).Methods("GET")
	api.HandleFunc("/users/{user}/trades", s.handleGetTrades).Methods("GET")
	api.HandleFunc("/users/{user}/orders", s.handleSubmitOrder).Methods("POST")
}

// Handler returns the router wrapped with CORS handling.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
	return c.Handler(s.router)
}

// Start serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.log.Info("api server starting", zap.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Info("api server stopping")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("request", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Duration("elapsed", time.Since(start)))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleGetPrice(w http.ResponseWriter, r *http.Request) {
	price, err := s.trader.Quote(r.Context(), mux.Vars(r)["symbol"])
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, QuoteResponse{
			Symbol:   papertrade.NormalizeSymbol(mux.Vars(r)["symbol"]),
			Price:    price.Decimal(),
			Currency: price.Currency(),
		})
	case errors.Is(err, papertrade.ErrPriceUnavailable), errors.Is(err, papertrade.ErrInvalidSymbol):
		respondError(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
	default:
		s.log.Warn("price source failure", zap.Error(err))
		respondError(w, http.StatusBadGateway, ErrorResponse{Error: "price source unavailable"})
	}
}

func (s *Server) handleGetLedger(w http.ResponseWriter, r *http.Request) {
	l, err := s.trader.Ledger(r.Context(), mux.Vars(r)["user"])
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, l)
}

func (s *Server) handleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	v, err := s.trader.Portfolio(r.Context(), mux.Vars(r)["user"])
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newPortfolioResponse(v))
}

func (s *Server) handleGetTrades(w http.ResponseWriter, r *http.Request) {
	trades, err := s.trader.History(r.Context(), mux.Vars(r)["user"])
	if err != nil {
		s.respondErr(w, err)
		return
	}
	if trades == nil {
		trades = []papertrade.Trade{}
	}
	respondJSON(w, http.StatusOK, trades)
}

func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req OrderRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	// An unknown side is a rejection like any other, not a malformed request.
	side := papertrade.NormalizeSide(req.Side)

	trade, err := s.trader.Place(r.Context(), mux.Vars(r)["user"], req.Symbol, side, req.Quantity)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, trade)
}

// respondErr maps service errors to status codes.
func (s *Server) respondErr(w http.ResponseWriter, err error) {
	var storageErr *papertrade.StorageError
	switch {
	case papertrade.IsRejection(err):
		respondError(w, http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Reason: papertrade.ReasonCode(err)})
	case errors.Is(err, papertrade.ErrConflict):
		respondError(w, http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.As(err, &storageErr):
		s.log.Error("storage failure", zap.Error(err))
		respondError(w, http.StatusServiceUnavailable, ErrorResponse{Error: "storage unavailable"})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
	default:
		// validation errors on the user id.
		respondError(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, resp ErrorResponse) {
	respondJSON(w, status, resp)
}
