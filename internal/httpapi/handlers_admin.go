package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/flow-heater/flow-heater/internal/apierrors"
	"github.com/flow-heater/flow-heater/internal/domain/processor"
	"github.com/flow-heater/flow-heater/prelude"
)

type createProcessorRequest struct {
	Name     string `json:"name"`
	Code     string `json:"code"`
	Language string `json:"language,omitempty"`
	Runtime  string `json:"runtime,omitempty"`
}

func (s *Server) handleCreateProcessor(w http.ResponseWriter, r *http.Request) {
	var body createProcessorRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, s.log, apierrors.Parse("decode create processor body", err))
		return
	}

	code := body.Code
	if code == "" {
		code = prelude.DefaultProcessorSource
	}
	p := processor.RequestProcessor{
		Name:     body.Name,
		Code:     code,
		Language: processor.Language(body.Language),
		Runtime:  processor.Runtime(body.Runtime),
		UserID:   userID(r),
	}
	saved, err := s.store.CreateRequestProcessor(r.Context(), p)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleGetProcessor(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	p, err := s.store.GetRequestProcessor(r.Context(), id)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleListProcessors(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.GetRequestProcessors(r.Context(), userID(r))
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleUpdateProcessor(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var body createProcessorRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, s.log, apierrors.Parse("decode update processor body", err))
		return
	}
	p := processor.RequestProcessor{
		ID:       id,
		Name:     body.Name,
		Code:     body.Code,
		Language: processor.Language(body.Language),
		Runtime:  processor.Runtime(body.Runtime),
		UserID:   userID(r),
	}
	saved, err := s.store.UpdateRequestProcessor(r.Context(), p)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeleteProcessor(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.store.DeleteRequestProcessor(r.Context(), id); err != nil {
		writeError(w, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListConversationsForProcessor(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	list, err := s.store.GetConversationsByProcessor(r.Context(), id)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
