package actor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flow-heater/flow-heater/internal/domain/conversation"
	"github.com/flow-heater/flow-heater/internal/domain/processor"
)

// fakeStore is an in-memory storage.Store used to exercise the actor's
// command routing without a database.
type fakeStore struct {
	processors map[string]processor.RequestProcessor
}

func newFakeStore() *fakeStore {
	return &fakeStore{processors: map[string]processor.RequestProcessor{}}
}

func (f *fakeStore) CreateRequestProcessor(ctx context.Context, p processor.RequestProcessor) (processor.RequestProcessor, error) {
	p.ID = "fixed-id"
	f.processors[p.ID] = p
	return p, nil
}

func (f *fakeStore) GetRequestProcessor(ctx context.Context, id string) (processor.RequestProcessor, error) {
	p, ok := f.processors[id]
	if !ok {
		return processor.RequestProcessor{}, assertNotFound(id)
	}
	return p, nil
}

func (f *fakeStore) GetRequestProcessors(ctx context.Context, userID string) ([]processor.RequestProcessor, error) {
	var out []processor.RequestProcessor
	for _, p := range f.processors {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeStore) UpdateRequestProcessor(ctx context.Context, p processor.RequestProcessor) (processor.RequestProcessor, error) {
	f.processors[p.ID] = p
	return p, nil
}

func (f *fakeStore) DeleteRequestProcessor(ctx context.Context, id string) error {
	delete(f.processors, id)
	return nil
}

func (f *fakeStore) CreateRequestConversation(ctx context.Context, processorID string) (conversation.RequestConversation, error) {
	return conversation.RequestConversation{ID: "conv-1", ProcessorID: processorID}, nil
}

func (f *fakeStore) GetRequestConversation(ctx context.Context, id string) (conversation.RequestConversation, error) {
	return conversation.RequestConversation{ID: id}, nil
}

func (f *fakeStore) GetConversationAuditItems(ctx context.Context, conversationID string) ([]conversation.AuditItem, error) {
	return nil, nil
}

func (f *fakeStore) CreateAuditLogEntry(ctx context.Context, item conversation.AuditItem) (conversation.AuditItem, error) {
	return item, nil
}

func (f *fakeStore) GetConversationsByProcessor(ctx context.Context, processorID string) ([]conversation.RequestConversation, error) {
	return nil, nil
}

type notFoundError struct{ id string }

func (e notFoundError) Error() string { return "not found: " + e.id }

func assertNotFound(id string) error { return notFoundError{id: id} }

func TestStorageActorRoutesCreateAndGet(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	s := New(ctx, newFakeStore())

	created, err := s.CreateRequestProcessor(ctx, processor.RequestProcessor{Name: "echo"})
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", created.ID)

	fetched, err := s.GetRequestProcessor(ctx, "fixed-id")
	require.NoError(t, err)
	assert.Equal(t, "echo", fetched.Name)
}

func TestStorageActorTimesOutWhenContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New(context.Background(), newFakeStore())
	_, err := s.GetRequestProcessor(ctx, "anything")
	assert.Error(t, err)
}
