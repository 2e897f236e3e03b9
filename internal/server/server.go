package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/mikey/phishscan/internal/core"
)

// analyzeRequest is the paste-and-analyze payload.
type analyzeRequest struct {
	Source string `json:"source"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server exposes the analysis pipeline over HTTP. Requests are served
// concurrently; the pipeline shares only the immutable policy, so no
// locking is needed.
type Server struct {
	service *core.AnalysisService
	sink    core.ReportSink
	logger  *zap.Logger
	httpSrv *http.Server
}

// New creates the HTTP front end.
func New(service *core.AnalysisService, sink core.ReportSink, listenAddr string, logger *zap.Logger) *Server {
	s := &Server{
		service: service,
		sink:    sink,
		logger:  logger,
	}

	router := mux.NewRouter()
	router.HandleFunc("/api/v1/analyze", s.handleAnalyze).Methods(http.MethodPost)
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	s.httpSrv = &http.Server{
		Addr:         listenAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Start begins serving in the background.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", zap.String("address", s.httpSrv.Addr))
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server stopped unexpectedly", zap.Error(err))
		}
	}()
	return nil
}

// Stop drains in-flight requests and shuts the listener down.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Source == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "no email source provided"})
		return
	}

	report, err := s.service.Analyze(r.Context(), []byte(req.Source))
	if err != nil {
		if errors.Is(err, core.ErrMalformedMessage) {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to parse email source"})
			return
		}
		s.logger.Error("Analysis failed", zap.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}

	if s.sink != nil {
		if _, err := s.sink.Write(report); err != nil {
			// The caller still gets their report; persistence is best
			// effort on the web path.
			s.logger.Error("Failed to persist report", zap.Error(err))
		}
	}

	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}
