// Package postgres implements storage.Store against a database/sql handle
// backed by lib/pq, following the scan/CRUD idiom of the teacher's
// internal/app/storage/postgres package.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/flow-heater/flow-heater/internal/apierrors"
	"github.com/flow-heater/flow-heater/internal/domain/conversation"
	"github.com/flow-heater/flow-heater/internal/domain/processor"
	"github.com/flow-heater/flow-heater/internal/metrics"
)

// Store is a database/sql backed storage.Store implementation.
type Store struct {
	db *sql.DB
}

// New wraps an already-opened *sql.DB.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open dials postgres via lib/pq and verifies connectivity within 10s,
// mirroring the teacher's internal/platform/database.Open.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows, letting scan
// helpers serve single-row and multi-row queries alike.
type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) CreateRequestProcessor(ctx context.Context, p processor.RequestProcessor) (processor.RequestProcessor, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if err := p.Normalize(); err != nil {
		return processor.RequestProcessor{}, apierrors.Parse("invalid processor", err)
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	const q = `INSERT INTO request_processors (id, name, code, language, runtime, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := s.db.ExecContext(ctx, q, p.ID, p.Name, p.Code, p.Language, p.Runtime, p.UserID, p.CreatedAt, p.UpdatedAt); err != nil {
		return processor.RequestProcessor{}, apierrors.Database("create request processor", err)
	}
	return p, nil
}

func (s *Store) GetRequestProcessor(ctx context.Context, id string) (processor.RequestProcessor, error) {
	const q = `SELECT id, name, code, language, runtime, user_id, created_at, updated_at
		FROM request_processors WHERE id = $1`
	row := s.db.QueryRowContext(ctx, q, id)
	p, err := scanRequestProcessor(row)
	if err == sql.ErrNoRows {
		return processor.RequestProcessor{}, apierrors.NotFound("RequestProcessor", id)
	}
	if err != nil {
		return processor.RequestProcessor{}, apierrors.Database("get request processor", err)
	}
	return p, nil
}

func (s *Store) GetRequestProcessors(ctx context.Context, userID string) ([]processor.RequestProcessor, error) {
	const q = `SELECT id, name, code, language, runtime, user_id, created_at, updated_at
		FROM request_processors WHERE $1 = '' OR user_id = $1 ORDER BY created_at ASC`
	rows, err := s.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, apierrors.Database("list request processors", err)
	}
	defer rows.Close()

	var out []processor.RequestProcessor
	for rows.Next() {
		p, err := scanRequestProcessor(rows)
		if err != nil {
			return nil, apierrors.Database("scan request processor", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apierrors.Database("list request processors", err)
	}
	return out, nil
}

func (s *Store) UpdateRequestProcessor(ctx context.Context, p processor.RequestProcessor) (processor.RequestProcessor, error) {
	if err := p.Normalize(); err != nil {
		return processor.RequestProcessor{}, apierrors.Parse("invalid processor", err)
	}
	p.UpdatedAt = time.Now().UTC()

	const q = `UPDATE request_processors SET name = $2, code = $3, language = $4, runtime = $5, user_id = $6, updated_at = $7
		WHERE id = $1`
	res, err := s.db.ExecContext(ctx, q, p.ID, p.Name, p.Code, p.Language, p.Runtime, p.UserID, p.UpdatedAt)
	if err != nil {
		return processor.RequestProcessor{}, apierrors.Database("update request processor", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return processor.RequestProcessor{}, apierrors.Database("update request processor", err)
	}
	if n == 0 {
		return processor.RequestProcessor{}, apierrors.NotFound("RequestProcessor", p.ID)
	}
	return s.GetRequestProcessor(ctx, p.ID)
}

func (s *Store) DeleteRequestProcessor(ctx context.Context, id string) error {
	const q = `DELETE FROM request_processors WHERE id = $1`
	res, err := s.db.ExecContext(ctx, q, id)
	if err != nil {
		return apierrors.Database("delete request processor", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apierrors.Database("delete request processor", err)
	}
	if n == 0 {
		return apierrors.NotFound("RequestProcessor", id)
	}
	return nil
}

func scanRequestProcessor(row rowScanner) (processor.RequestProcessor, error) {
	var p processor.RequestProcessor
	err := row.Scan(&p.ID, &p.Name, &p.Code, &p.Language, &p.Runtime, &p.UserID, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (s *Store) CreateRequestConversation(ctx context.Context, processorID string) (conversation.RequestConversation, error) {
	if _, err := s.GetRequestProcessor(ctx, processorID); err != nil {
		return conversation.RequestConversation{}, err
	}
	c := conversation.RequestConversation{
		ID:          uuid.NewString(),
		CreatedAt:   time.Now().UTC(),
		ProcessorID: processorID,
	}
	const q = `INSERT INTO request_conversations (id, request_processor_id, created_at) VALUES ($1, $2, $3)`
	if _, err := s.db.ExecContext(ctx, q, c.ID, c.ProcessorID, c.CreatedAt); err != nil {
		return conversation.RequestConversation{}, apierrors.Database("create request conversation", err)
	}
	return c, nil
}

func (s *Store) GetRequestConversation(ctx context.Context, id string) (conversation.RequestConversation, error) {
	const q = `SELECT id, request_processor_id, created_at FROM request_conversations WHERE id = $1`
	row := s.db.QueryRowContext(ctx, q, id)
	var c conversation.RequestConversation
	if err := row.Scan(&c.ID, &c.ProcessorID, &c.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return conversation.RequestConversation{}, apierrors.NotFound("RequestConversation", id)
		}
		return conversation.RequestConversation{}, apierrors.Database("get request conversation", err)
	}
	items, err := s.GetConversationAuditItems(ctx, id)
	if err != nil {
		return conversation.RequestConversation{}, err
	}
	c.Items = items
	return c, nil
}

func (s *Store) GetConversationsByProcessor(ctx context.Context, processorID string) ([]conversation.RequestConversation, error) {
	const q = `SELECT id, request_processor_id, created_at FROM request_conversations
		WHERE request_processor_id = $1 ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, q, processorID)
	if err != nil {
		return nil, apierrors.Database("list request conversations", err)
	}
	defer rows.Close()

	var out []conversation.RequestConversation
	for rows.Next() {
		var c conversation.RequestConversation
		if err := rows.Scan(&c.ID, &c.ProcessorID, &c.CreatedAt); err != nil {
			return nil, apierrors.Database("scan request conversation", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apierrors.Database("list request conversations", err)
	}
	return out, nil
}

func (s *Store) GetConversationAuditItems(ctx context.Context, conversationID string) ([]conversation.AuditItem, error) {
	const q = `SELECT id, kind, created_at, conversation_id, inc, request_id, payload
		FROM audit_items WHERE conversation_id = $1`
	rows, err := s.db.QueryContext(ctx, q, conversationID)
	if err != nil {
		return nil, apierrors.Database("list audit items", err)
	}
	defer rows.Close()

	var out []conversation.AuditItem
	for rows.Next() {
		item, err := scanAuditItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, apierrors.Database("list audit items", err)
	}
	conversation.SortItems(out)
	return out, nil
}

func (s *Store) CreateAuditLogEntry(ctx context.Context, item conversation.AuditItem) (conversation.AuditItem, error) {
	if err := item.Validate(); err != nil {
		return conversation.AuditItem{}, apierrors.Parse("invalid audit item", err)
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	payload, err := marshalPayload(item)
	if err != nil {
		return conversation.AuditItem{}, apierrors.Serialize("marshal audit payload", err)
	}

	var inc sql.NullInt32
	if item.Inc != nil {
		inc = sql.NullInt32{Int32: int32(*item.Inc), Valid: true}
	}
	var requestID sql.NullString
	if item.RequestID != nil {
		requestID = sql.NullString{String: *item.RequestID, Valid: true}
	}

	const q = `INSERT INTO audit_items (id, kind, created_at, conversation_id, inc, request_id, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := s.db.ExecContext(ctx, q, item.ID, item.Kind, item.CreatedAt, item.ConversationID, inc, requestID, payload); err != nil {
		return conversation.AuditItem{}, apierrors.Database("create audit log entry", err)
	}
	metrics.RecordAuditItem()
	return item, nil
}

func marshalPayload(item conversation.AuditItem) ([]byte, error) {
	switch item.Kind {
	case conversation.KindRequest:
		return json.Marshal(item.RequestPayload)
	case conversation.KindResponse:
		return json.Marshal(item.ResponsePayload)
	case conversation.KindLog:
		return json.Marshal(item.LogPayload)
	default:
		return nil, fmt.Errorf("unknown audit item kind %q", item.Kind)
	}
}

func scanAuditItem(row rowScanner) (conversation.AuditItem, error) {
	var (
		item      conversation.AuditItem
		inc       sql.NullInt32
		requestID sql.NullString
		payload   []byte
	)
	if err := row.Scan(&item.ID, &item.Kind, &item.CreatedAt, &item.ConversationID, &inc, &requestID, &payload); err != nil {
		return conversation.AuditItem{}, apierrors.Database("scan audit item", err)
	}
	if inc.Valid {
		v := int(inc.Int32)
		item.Inc = &v
	}
	if requestID.Valid {
		item.RequestID = &requestID.String
	}

	switch item.Kind {
	case conversation.KindRequest:
		var req conversation.Request
		if err := json.Unmarshal(payload, &req); err != nil {
			return conversation.AuditItem{}, apierrors.Serialize("unmarshal request payload", err)
		}
		item.RequestPayload = &req
	case conversation.KindResponse:
		var resp conversation.Response
		if err := json.Unmarshal(payload, &resp); err != nil {
			return conversation.AuditItem{}, apierrors.Serialize("unmarshal response payload", err)
		}
		item.ResponsePayload = &resp
	case conversation.KindLog:
		var log string
		if err := json.Unmarshal(payload, &log); err != nil {
			return conversation.AuditItem{}, apierrors.Serialize("unmarshal log payload", err)
		}
		item.LogPayload = &log
	default:
		return conversation.AuditItem{}, apierrors.EmptyDbField(fmt.Sprintf("unknown audit item kind %q", item.Kind))
	}
	return item, nil
}
