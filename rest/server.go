package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/opsboard/otpgate/logger"
	"github.com/opsboard/otpgate/service"
	"go.uber.org/zap"
)

type Server struct {
	http.Server
	Port             int
	executionService *service.WorkflowExecutionService
}

func NewServer(httpPort int, executionService *service.WorkflowExecutionService) (*Server, error) {
	s := &Server{
		Server: http.Server{
			Addr:        fmt.Sprintf(":%d", httpPort),
			IdleTimeout: 2 * time.Second,
		},
		executionService: executionService,
		Port:             httpPort,
	}

	router := mux.NewRouter()
	router.HandleFunc("/workflow", s.HandleStartWorkflow).Methods(http.MethodPost)
	router.HandleFunc("/workflow/{id}", s.HandleGetWorkflow).Methods(http.MethodGet)
	router.HandleFunc("/workflow/{id}/submit", s.HandleSubmit).Methods(http.MethodPost)
	router.HandleFunc("/workflow/{id}/intent", s.HandleConfirmIntent).Methods(http.MethodPost)
	router.HandleFunc("/workflow/{id}/back", s.HandleBack).Methods(http.MethodPost)
	router.HandleFunc("/workflow/{id}/code", s.HandleSubmitCode).Methods(http.MethodPost)
	router.HandleFunc("/workflow/{id}/resend", s.HandleRequestResend).Methods(http.MethodPost)
	router.HandleFunc("/workflow/{id}/retry", s.HandleRetry).Methods(http.MethodPost)
	router.HandleFunc("/workflow/{id}/cancel", s.HandleCancel).Methods(http.MethodPost)

	router.Use(loggingMiddleware)
	s.Handler = router
	return s, nil
}

func (s *Server) Start() error {
	logger.Info("starting http server on", zap.Int("port", s.Port))
	if err := s.ListenAndServe(); err != nil {
		return err
	}
	return nil
}

func (s *Server) Stop() error {
	logger.Info("stopping http server")
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	err := s.Shutdown(ctx)
	if err != nil {
		logger.Error("error shutting down http server")
	}
	return nil
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Info(r.RequestURI)
		next.ServeHTTP(w, r)
	})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
