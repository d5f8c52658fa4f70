package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	c, err := s.store.GetRequestConversation(r.Context(), id)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleGetAuditItems(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	items, err := s.store.GetConversationAuditItems(r.Context(), id)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}
