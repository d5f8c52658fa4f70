package engine

import (
	"context"

	"github.com/flow-heater/flow-heater/internal/domain/conversation"
)

// recorder is the subset of storage.Store the runtime state needs to
// append audit items; satisfied by *actor.Storage in production and a
// fake in tests.
type recorder interface {
	CreateAuditLogEntry(ctx context.Context, item conversation.AuditItem) (conversation.AuditItem, error)
}

// runtimeState is the per-invocation working memory a goja runtime's op
// bridge closes over, grounded on fh-v8's RuntimeState: it tracks the
// inbound request, the running audit trail, and the eventual response.
type runtimeState struct {
	ctx context.Context

	store          recorder
	conversationID string

	// counter is the next inc to assign to an outbound Request audit
	// item; 0 is reserved for the inbound request.
	counter int

	inboundRequest conversation.Request
	inboundAuditID string
	requestList    *conversation.RequestResponseList
	finalResponse  *conversation.Response
	limits         DispatchLimits
}

func newRuntimeState(ctx context.Context, store recorder, conversationID string, inbound conversation.Request, limits DispatchLimits) (*runtimeState, error) {
	rs := &runtimeState{
		ctx:            ctx,
		store:          store,
		conversationID: conversationID,
		counter:        1,
		inboundRequest: inbound,
		requestList:    conversation.NewRequestResponseList(),
		limits:         limits,
	}
	item := conversation.NewRequestItem(conversationID, 0, inbound)
	saved, err := store.CreateAuditLogEntry(ctx, item)
	if err != nil {
		return nil, err
	}
	rs.inboundAuditID = saved.ID
	rs.requestList.AddRequest(0, inbound)
	return rs, nil
}

// addOutboundRequest records an outbound Request audit item and returns
// its audit id plus the inc assigned to it, for addResponse to cross
// reference (the REDESIGN: a Response always names the specific Request
// it answers, not always the inbound one).
func (rs *runtimeState) addOutboundRequest(req conversation.Request) (auditID string, inc int, err error) {
	inc = rs.counter
	rs.counter++
	item := conversation.NewRequestItem(rs.conversationID, inc, req)
	saved, err := rs.store.CreateAuditLogEntry(rs.ctx, item)
	if err != nil {
		return "", 0, err
	}
	rs.requestList.AddRequest(inc, req)
	return saved.ID, inc, nil
}

func (rs *runtimeState) addResponse(requestAuditID string, inc int, resp conversation.Response) error {
	item := conversation.NewResponseItem(rs.conversationID, requestAuditID, resp)
	if _, err := rs.store.CreateAuditLogEntry(rs.ctx, item); err != nil {
		return err
	}
	rs.requestList.AddResponse(inc, resp)
	return nil
}

func (rs *runtimeState) addLog(payload string) error {
	item := conversation.NewLogItem(rs.conversationID, payload)
	_, err := rs.store.CreateAuditLogEntry(rs.ctx, item)
	return err
}

// setFinalResponse records the explicit respond_with short-circuit.
func (rs *runtimeState) setFinalResponse(resp conversation.Response) {
	rs.finalResponse = &resp
}

// finalResponseBody resolves the response body under the fallback
// priority fh-v8's get_final_response_body used: explicit final response,
// else the last response recorded, else echo the inbound body.
func (rs *runtimeState) finalResponseBody() conversation.Response {
	if rs.finalResponse != nil {
		return *rs.finalResponse
	}
	if body, ok := rs.requestList.GetLastResponseBody(); ok {
		return conversation.Response{Status: 200, Version: "HTTP/1.1", Body: body, Headers: map[string][]string{}}
	}
	return conversation.Response{Status: 200, Version: "HTTP/1.1", Body: rs.inboundRequest.Body, Headers: map[string][]string{}}
}
