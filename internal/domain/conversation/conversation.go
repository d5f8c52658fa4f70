// Package conversation models one processor invocation (RequestConversation)
// and its append-only audit trail (AuditItem).
package conversation

import (
	"fmt"
	"sort"
	"time"
)

// Kind tags an AuditItem's variant.
type Kind string

const (
	KindRequest  Kind = "request"
	KindResponse Kind = "response"
	KindLog      Kind = "log"
)

// AuditItem is one append-only record of an event during a conversation.
// Exactly one of the payload fields is populated, selected by Kind.
type AuditItem struct {
	ID             string    `json:"id"`
	Kind           Kind      `json:"kind"`
	CreatedAt      time.Time `json:"created_at"`
	ConversationID string    `json:"conversation_id"`

	// Inc is set (and non-negative) iff Kind == KindRequest. It is the
	// per-conversation monotone request counter; the inbound request is
	// always inc=0.
	Inc *int `json:"inc,omitempty"`

	// RequestID references the Request audit item this Response responds
	// to. Set iff Kind == KindResponse.
	RequestID *string `json:"request_id,omitempty"`

	RequestPayload  *Request  `json:"request,omitempty"`
	ResponsePayload *Response `json:"response,omitempty"`
	LogPayload      *string   `json:"log,omitempty"`
}

// NewRequestItem builds a Request-variant audit item. id and createdAt are
// assigned by Storage on persistence if left zero.
func NewRequestItem(conversationID string, inc int, req Request) AuditItem {
	return AuditItem{
		Kind:           KindRequest,
		ConversationID: conversationID,
		Inc:            &inc,
		RequestPayload: &req,
	}
}

// NewResponseItem builds a Response-variant audit item referencing
// requestID, the audit id of the Request item it answers.
func NewResponseItem(conversationID, requestID string, resp Response) AuditItem {
	return AuditItem{
		Kind:            KindResponse,
		ConversationID:  conversationID,
		RequestID:       &requestID,
		ResponsePayload: &resp,
	}
}

// NewLogItem builds a Log-variant audit item.
func NewLogItem(conversationID, payload string) AuditItem {
	return AuditItem{
		Kind:           KindLog,
		ConversationID: conversationID,
		LogPayload:     &payload,
	}
}

// Validate checks the invariants from spec.md §3: required fields are
// present for the item's Kind.
func (a AuditItem) Validate() error {
	switch a.Kind {
	case KindRequest:
		if a.Inc == nil || *a.Inc < 0 {
			return fmt.Errorf("request audit item requires a non-negative inc")
		}
		if a.RequestPayload == nil {
			return fmt.Errorf("request audit item requires a request payload")
		}
	case KindResponse:
		if a.RequestID == nil || *a.RequestID == "" {
			return fmt.Errorf("response audit item requires a request_id")
		}
		if a.ResponsePayload == nil {
			return fmt.Errorf("response audit item requires a response payload")
		}
	case KindLog:
		if a.LogPayload == nil {
			return fmt.Errorf("log audit item requires a payload")
		}
	default:
		return fmt.Errorf("unknown audit item kind %q", a.Kind)
	}
	return nil
}

// RequestConversation is one processor invocation: an identifier, a
// creation timestamp, the parent processor id, and its ordered audit
// trail (populated on full fetches, nil on bare creation).
type RequestConversation struct {
	ID          string      `json:"id"`
	CreatedAt   time.Time   `json:"created_at"`
	ProcessorID string      `json:"request_processor_id"`
	Items       []AuditItem `json:"items,omitempty"`
}

// SortItems orders audit items ascending by CreatedAt, breaking ties by
// Inc for Request items (spec.md §4.1 ordering guarantee), so that two
// items persisted within the same clock tick still come back in the
// order they were issued.
func SortItems(items []AuditItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		ai, aok := incOf(a)
		bi, bok := incOf(b)
		if aok && bok {
			return ai < bi
		}
		return aok && !bok
	})
}

func incOf(a AuditItem) (int, bool) {
	if a.Kind == KindRequest && a.Inc != nil {
		return *a.Inc, true
	}
	return 0, false
}
