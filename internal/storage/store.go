// Package storage defines the Store interface the gateway's Storage actor
// uses to persist processors and conversations.
package storage

import (
	"context"

	"github.com/flow-heater/flow-heater/internal/domain/conversation"
	"github.com/flow-heater/flow-heater/internal/domain/processor"
)

// Store is the persistence surface the Storage actor drives. One
// implementation (postgres.Store) is provided; tests may supply a fake.
type Store interface {
	CreateRequestProcessor(ctx context.Context, p processor.RequestProcessor) (processor.RequestProcessor, error)
	GetRequestProcessor(ctx context.Context, id string) (processor.RequestProcessor, error)
	GetRequestProcessors(ctx context.Context, userID string) ([]processor.RequestProcessor, error)
	UpdateRequestProcessor(ctx context.Context, p processor.RequestProcessor) (processor.RequestProcessor, error)
	DeleteRequestProcessor(ctx context.Context, id string) error

	CreateRequestConversation(ctx context.Context, processorID string) (conversation.RequestConversation, error)
	GetRequestConversation(ctx context.Context, id string) (conversation.RequestConversation, error)
	GetConversationAuditItems(ctx context.Context, conversationID string) ([]conversation.AuditItem, error)
	CreateAuditLogEntry(ctx context.Context, item conversation.AuditItem) (conversation.AuditItem, error)

	// GetConversationsByProcessor lists conversations for a processor
	// without their audit items, newest first.
	GetConversationsByProcessor(ctx context.Context, processorID string) ([]conversation.RequestConversation, error)
}
