package rest

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/opsboard/otpgate/logger"
	"github.com/opsboard/otpgate/model"
	"github.com/opsboard/otpgate/persistence"
	"go.uber.org/zap"
)

func (s *Server) HandleStartWorkflow(w http.ResponseWriter, r *http.Request) {
	var startReq model.WorkflowStartRequest
	if err := json.NewDecoder(r.Body).Decode(&startReq); err != nil {
		respondWithError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	defer r.Body.Close()
	exec, err := s.executionService.StartWorkflow(startReq)
	if err != nil {
		logger.Error("error starting workflow", zap.String("operation", string(startReq.Operation)), zap.Error(err))
		respondWithError(w, http.StatusBadRequest, "error starting workflow")
		return
	}
	respondWithJSON(w, http.StatusOK, exec)
}

func (s *Server) HandleGetWorkflow(w http.ResponseWriter, r *http.Request) {
	workflowId, ok := mux.Vars(r)["id"]
	if !ok {
		respondWithError(w, http.StatusBadRequest, "workflow id missing")
		return
	}
	exec, err := s.executionService.GetWorkflow(workflowId)
	if err != nil {
		respondNotFoundOrError(w, workflowId, err)
		return
	}
	respondWithJSON(w, http.StatusOK, exec)
}

func (s *Server) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	workflowId, ok := mux.Vars(r)["id"]
	if !ok {
		respondWithError(w, http.StatusBadRequest, "workflow id missing")
		return
	}
	var submitReq model.WorkflowSubmitRequest
	if r.Body != nil {
		// payload is optional, the one from start is reused when absent
		json.NewDecoder(r.Body).Decode(&submitReq)
		defer r.Body.Close()
	}
	exec, err := s.executionService.Submit(r.Context(), workflowId, submitReq.Payload)
	if err != nil {
		logger.Error("error submitting workflow", zap.String("id", workflowId), zap.Error(err))
		respondNotFoundOrError(w, workflowId, err)
		return
	}
	respondWithJSON(w, http.StatusOK, exec)
}

func (s *Server) HandleConfirmIntent(w http.ResponseWriter, r *http.Request) {
	workflowId, ok := mux.Vars(r)["id"]
	if !ok {
		respondWithError(w, http.StatusBadRequest, "workflow id missing")
		return
	}
	exec, err := s.executionService.ConfirmIntent(r.Context(), workflowId)
	if err != nil {
		logger.Error("error confirming intent", zap.String("id", workflowId), zap.Error(err))
		respondNotFoundOrError(w, workflowId, err)
		return
	}
	respondWithJSON(w, http.StatusOK, exec)
}

func (s *Server) HandleBack(w http.ResponseWriter, r *http.Request) {
	workflowId, ok := mux.Vars(r)["id"]
	if !ok {
		respondWithError(w, http.StatusBadRequest, "workflow id missing")
		return
	}
	exec, err := s.executionService.Back(workflowId)
	if err != nil {
		respondNotFoundOrError(w, workflowId, err)
		return
	}
	respondWithJSON(w, http.StatusOK, exec)
}

func (s *Server) HandleSubmitCode(w http.ResponseWriter, r *http.Request) {
	workflowId, ok := mux.Vars(r)["id"]
	if !ok {
		respondWithError(w, http.StatusBadRequest, "workflow id missing")
		return
	}
	var codeReq model.CodeSubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&codeReq); err != nil {
		respondWithError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	defer r.Body.Close()
	exec, err := s.executionService.SubmitCode(r.Context(), workflowId, codeReq.Code)
	if err != nil {
		logger.Error("error submitting code", zap.String("id", workflowId), zap.Error(err))
		respondNotFoundOrError(w, workflowId, err)
		return
	}
	respondWithJSON(w, http.StatusOK, exec)
}

func (s *Server) HandleRequestResend(w http.ResponseWriter, r *http.Request) {
	workflowId, ok := mux.Vars(r)["id"]
	if !ok {
		respondWithError(w, http.StatusBadRequest, "workflow id missing")
		return
	}
	exec, err := s.executionService.RequestResend(r.Context(), workflowId)
	if err != nil {
		logger.Error("error requesting resend", zap.String("id", workflowId), zap.Error(err))
		respondNotFoundOrError(w, workflowId, err)
		return
	}
	respondWithJSON(w, http.StatusOK, exec)
}

func (s *Server) HandleRetry(w http.ResponseWriter, r *http.Request) {
	workflowId, ok := mux.Vars(r)["id"]
	if !ok {
		respondWithError(w, http.StatusBadRequest, "workflow id missing")
		return
	}
	exec, err := s.executionService.Retry(workflowId)
	if err != nil {
		respondNotFoundOrError(w, workflowId, err)
		return
	}
	respondWithJSON(w, http.StatusOK, exec)
}

func (s *Server) HandleCancel(w http.ResponseWriter, r *http.Request) {
	workflowId, ok := mux.Vars(r)["id"]
	if !ok {
		respondWithError(w, http.StatusBadRequest, "workflow id missing")
		return
	}
	exec, err := s.executionService.Cancel(workflowId)
	if err != nil {
		logger.Error("error cancelling workflow", zap.String("id", workflowId), zap.Error(err))
		respondNotFoundOrError(w, workflowId, err)
		return
	}
	respondWithJSON(w, http.StatusOK, exec)
}

func respondNotFoundOrError(w http.ResponseWriter, workflowId string, err error) {
	if _, ok := err.(persistence.ContextNotFoundError); ok {
		respondWithError(w, http.StatusNotFound, "workflow not found")
		return
	}
	respondWithError(w, http.StatusBadRequest, err.Error())
}
