package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/flow-heater/flow-heater/internal/domain/conversation"
	"github.com/flow-heater/flow-heater/internal/domain/processor"
	"github.com/flow-heater/flow-heater/internal/engine"
	"github.com/flow-heater/flow-heater/internal/logger"
)

// fakeStore is a minimal in-memory storage.Store for exercising the
// router without a database.
type fakeStore struct {
	processors map[string]processor.RequestProcessor
}

func newFakeStore() *fakeStore {
	return &fakeStore{processors: map[string]processor.RequestProcessor{}}
}

func (f *fakeStore) CreateRequestProcessor(ctx context.Context, p processor.RequestProcessor) (processor.RequestProcessor, error) {
	p.ID = "proc-1"
	_ = p.Normalize()
	f.processors[p.ID] = p
	return p, nil
}
func (f *fakeStore) GetRequestProcessor(ctx context.Context, id string) (processor.RequestProcessor, error) {
	p, ok := f.processors[id]
	if !ok {
		return processor.RequestProcessor{}, notFoundErr{id}
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

type notFoundErr struct{ id string }

func (e notFoundErr) Error() string { return "not found: " + e.id }

func testServer(t *testing.T) (*httptest.Server, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	eng := engine.New(context.Background(), store)
	log := logger.NewDefault("test")
	limits := engine.DispatchLimits{Limiter: rate.NewLimiter(rate.Inf, 1)}
	router := NewRouter(store, eng, log, limits)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, store
}

func TestHealthCheck(t *testing.T) {
	srv, _ := testServer(t)
	resp, err := http.Get(srv.URL + "/health_check")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateAndGetProcessor(t *testing.T) {
	srv, _ := testServer(t)

	createBody := `{"name":"echo","code":"const r = get_request(); await respond_with({status:200,headers:{},body:r.body});"}`
	resp, err := http.Post(srv.URL+"/admin/processor", "application/json", strings.NewReader(createBody))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created processor.RequestProcessor
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, "echo", created.Name)

	getResp, err := http.Get(srv.URL + "/admin/processor/" + created.ID)
	require.NoError(t, err)
	defer getResp.Body.Close()
	assert.Equal(t, http.StatusOK, getResp.StatusCode)
}

func TestRunProcessorEchoesBody(t *testing.T) {
	srv, store := testServer(t)
	store.processors["proc-1"] = processor.RequestProcessor{
		ID:   "proc-1",
		Name: "echo",
		Code: `const r = get_request(); await respond_with({status:200,headers:{},body:r.body});`,
	}

	resp, err := http.Post(srv.URL+"/processor/proc-1/run_with_prelude", "text/plain", strings.NewReader("hi there"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(ConversationHeader))

	var final conversation.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&final))
	assert.EqualValues(t, 200, final.Status)
	assert.Equal(t, "hi there", final.Body)
	assert.Equal(t, []string{resp.Header.Get(ConversationHeader)}, final.Headers[ConversationHeader])
}
