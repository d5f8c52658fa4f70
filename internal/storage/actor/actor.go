package actor

import (
	"context"
	"fmt"

	"github.com/flow-heater/flow-heater/internal/apierrors"
	"github.com/flow-heater/flow-heater/internal/domain/conversation"
	"github.com/flow-heater/flow-heater/internal/domain/processor"
	"github.com/flow-heater/flow-heater/internal/storage"
)

// ChannelCapacity bounds the command queue, matching the channel sizing
// spec.md §2 specifies for the Frontend/Storage/Engine actors.
const ChannelCapacity = 4096

// Storage runs a storage.Store behind a single receiving goroutine so all
// access to the underlying *sql.DB handle (or fake) is serialized through
// one place, the way fh-db's request_manager owned its connection pool.
type Storage struct {
	store storage.Store
	cmds  chan any
}

// New starts the actor's receive loop in a background goroutine and
// returns a handle to send it commands. The loop stops when ctx is canceled.
func New(ctx context.Context, store storage.Store) *Storage {
	s := &Storage{store: store, cmds: make(chan any, ChannelCapacity)}
	go s.run(ctx)
	return s
}

func (s *Storage) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-s.cmds:
			s.process(ctx, c)
		}
	}
}

func (s *Storage) process(ctx context.Context, c any) {
	switch cmd := c.(type) {
	case createRequestProcessorCmd:
		v, err := s.store.CreateRequestProcessor(ctx, cmd.processor)
		cmd.reply <- result[processor.RequestProcessor]{v, err}
	case getRequestProcessorCmd:
		v, err := s.store.GetRequestProcessor(ctx, cmd.id)
		cmd.reply <- result[processor.RequestProcessor]{v, err}
	case getRequestProcessorsCmd:
		v, err := s.store.GetRequestProcessors(ctx, cmd.userID)
		cmd.reply <- result[[]processor.RequestProcessor]{v, err}
	case updateRequestProcessorCmd:
		v, err := s.store.UpdateRequestProcessor(ctx, cmd.processor)
		cmd.reply <- result[processor.RequestProcessor]{v, err}
	case deleteRequestProcessorCmd:
		err := s.store.DeleteRequestProcessor(ctx, cmd.id)
		cmd.reply <- result[struct{}]{struct{}{}, err}
	case createRequestConversationCmd:
		v, err := s.store.CreateRequestConversation(ctx, cmd.processorID)
		cmd.reply <- result[conversation.RequestConversation]{v, err}
	case getRequestConversationCmd:
		v, err := s.store.GetRequestConversation(ctx, cmd.id)
		cmd.reply <- result[conversation.RequestConversation]{v, err}
	case getConversationAuditItemsCmd:
		v, err := s.store.GetConversationAuditItems(ctx, cmd.conversationID)
		cmd.reply <- result[[]conversation.AuditItem]{v, err}
	case createAuditLogEntryCmd:
		v, err := s.store.CreateAuditLogEntry(ctx, cmd.item)
		cmd.reply <- result[conversation.AuditItem]{v, err}
	case getConversationsByProcessorCmd:
		v, err := s.store.GetConversationsByProcessor(ctx, cmd.processorID)
		cmd.reply <- result[[]conversation.RequestConversation]{v, err}
	default:
		panic(fmt.Sprintf("storage actor: unhandled command %T", c))
	}
}

// send submits a command and blocks for its reply or ctx cancellation,
// unwrapping the Locking error spec.md §7 reserves for this case.
func send[T any](ctx context.Context, s *Storage, c any, r reply[T]) (T, error) {
	select {
	case s.cmds <- c:
	case <-ctx.Done():
		var zero T
		return zero, apierrors.Locking("storage actor did not accept command before context was canceled")
	}
	select {
	case res := <-r:
		return res.value, res.err
	case <-ctx.Done():
		var zero T
		return zero, apierrors.Locking("storage actor did not reply before context was canceled")
	}
}

func (s *Storage) CreateRequestProcessor(ctx context.Context, p processor.RequestProcessor) (processor.RequestProcessor, error) {
	r := newReply[processor.RequestProcessor]()
	return send(ctx, s, createRequestProcessorCmd{processor: p, reply: r}, r)
}

func (s *Storage) GetRequestProcessor(ctx context.Context, id string) (processor.RequestProcessor, error) {
	r := newReply[processor.RequestProcessor]()
	return send(ctx, s, getRequestProcessorCmd{id: id, reply: r}, r)
}

func (s *Storage) GetRequestProcessors(ctx context.Context, userID string) ([]processor.RequestProcessor, error) {
	r := newReply[[]processor.RequestProcessor]()
	return send(ctx, s, getRequestProcessorsCmd{userID: userID, reply: r}, r)
}

func (s *Storage) UpdateRequestProcessor(ctx context.Context, p processor.RequestProcessor) (processor.RequestProcessor, error) {
	r := newReply[processor.RequestProcessor]()
	return send(ctx, s, updateRequestProcessorCmd{processor: p, reply: r}, r)
}

func (s *Storage) DeleteRequestProcessor(ctx context.Context, id string) error {
	r := newReply[struct{}]()
	_, err := send(ctx, s, deleteRequestProcessorCmd{id: id, reply: r}, r)
	return err
}

func (s *Storage) CreateRequestConversation(ctx context.Context, processorID string) (conversation.RequestConversation, error) {
	r := newReply[conversation.RequestConversation]()
	return send(ctx, s, createRequestConversationCmd{processorID: processorID, reply: r}, r)
}

func (s *Storage) GetRequestConversation(ctx context.Context, id string) (conversation.RequestConversation, error) {
	r := newReply[conversation.RequestConversation]()
	return send(ctx, s, getRequestConversationCmd{id: id, reply: r}, r)
}

func (s *Storage) GetConversationAuditItems(ctx context.Context, conversationID string) ([]conversation.AuditItem, error) {
	r := newReply[[]conversation.AuditItem]()
	return send(ctx, s, getConversationAuditItemsCmd{conversationID: conversationID, reply: r}, r)
}

func (s *Storage) CreateAuditLogEntry(ctx context.Context, item conversation.AuditItem) (conversation.AuditItem, error) {
	r := newReply[conversation.AuditItem]()
	return send(ctx, s, createAuditLogEntryCmd{item: item, reply: r}, r)
}

func (s *Storage) GetConversationsByProcessor(ctx context.Context, processorID string) ([]conversation.RequestConversation, error) {
	r := newReply[[]conversation.RequestConversation]()
	return send(ctx, s, getConversationsByProcessorCmd{processorID: processorID, reply: r}, r)
}

var _ storage.Store = (*Storage)(nil)
