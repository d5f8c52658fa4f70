package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flow-heater/flow-heater/internal/apierrors"
	"github.com/flow-heater/flow-heater/internal/domain/conversation"
	"github.com/flow-heater/flow-heater/internal/domain/processor"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db), mock
}

func TestCreateRequestProcessor(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO request_processors").
		WithArgs(sqlmock.AnyArg(), "echo", "return;", processor.LanguageJavaScript, processor.RuntimeV8, "alice", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	p, err := store.CreateRequestProcessor(context.Background(), processor.RequestProcessor{
		Name: "echo", Code: "return;", UserID: "alice",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, processor.LanguageJavaScript, p.Language)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRequestProcessorNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("SELECT id, name, code, language, runtime, user_id, created_at, updated_at").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "code", "language", "runtime", "user_id", "created_at", "updated_at"}))

	_, err := store.GetRequestProcessor(context.Background(), "missing")
	ge, ok := apierrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apierrors.KindNotFound, ge.Kind)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRequestProcessorFound(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "name", "code", "language", "runtime", "user_id", "created_at", "updated_at"}).
		AddRow("proc-1", "echo", "return;", "javascript", "v8", "alice", now, now)
	mock.ExpectQuery("SELECT id, name, code, language, runtime, user_id, created_at, updated_at").
		WithArgs("proc-1").
		WillReturnRows(rows)

	p, err := store.GetRequestProcessor(context.Background(), "proc-1")
	require.NoError(t, err)
	assert.Equal(t, "echo", p.Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAuditLogEntryRejectsInvalidItem(t *testing.T) {
	store, _ := newMockStore(t)
	_, err := store.CreateAuditLogEntry(context.Background(), conversation.AuditItem{Kind: conversation.KindResponse})
	ge, ok := apierrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apierrors.KindParse, ge.Kind)
}
