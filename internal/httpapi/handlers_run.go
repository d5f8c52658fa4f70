package httpapi

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/flow-heater/flow-heater/internal/apierrors"
	"github.com/flow-heater/flow-heater/internal/domain/conversation"
	"github.com/flow-heater/flow-heater/internal/engine"
)

// ConversationHeader is the response header carrying the conversation id
// created for a run, letting a caller fetch its audit trail afterward.
const ConversationHeader = "FH-Conversation-Id"

// runHandler builds the handler driving one processor invocation. Any
// HTTP method and any trailing path under /processor/{id}/run(_with_prelude)
// reaches the processor, since the processor itself decides how to
// interpret method/path — the gateway only terminates the transport.
func (s *Server) runHandler(wrapPrelude bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		proc, err := s.store.GetRequestProcessor(r.Context(), id)
		if err != nil {
			writeError(w, s.log, err)
			return
		}

		inbound, err := toDomainRequest(r)
		if err != nil {
			writeError(w, s.log, apierrors.Parse("decode inbound request", err))
			return
		}

		conv, err := s.store.CreateRequestConversation(r.Context(), proc.ID)
		if err != nil {
			writeError(w, s.log, err)
			return
		}

		resp, err := s.engine.Run(r.Context(), engine.ExecRequest{
			ProcessorID:    proc.ID,
			ConversationID: conv.ID,
			Source:         proc.Code,
			WrapPrelude:    wrapPrelude,
			Inbound:        inbound,
			Limits:         s.limits,
		})
		if err != nil {
			w.Header().Set(ConversationHeader, conv.ID)
			writeError(w, s.log, err)
			return
		}

		// spec.md §4.5 step 3: overlay FH-Conversation-Id into the final
		// response's own headers, then render that response as the JSON
		// body of a 200 — the gateway's own status and the processor's
		// response status are distinct (scenario 2: an explicit 201
		// respond_with still yields a 200 gateway response carrying the
		// 201 inside the JSON body).
		resp.AddHeader(ConversationHeader, conv.ID)
		w.Header().Set(ConversationHeader, conv.ID)
		writeJSON(w, http.StatusOK, resp)
	})
}

func toDomainRequest(r *http.Request) (conversation.Request, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return conversation.Request{}, err
	}
	return conversation.Request{
		Method:  r.Method,
		Path:    r.URL.Path,
		Query:   r.URL.RawQuery,
		Version: r.Proto,
		Headers: map[string][]string(r.Header),
		Body:    string(body),
	}, nil
}
